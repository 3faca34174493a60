package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/funilzap/crm-funnel-backend/internal/database/repository"
	"github.com/funilzap/crm-funnel-backend/internal/models"
)

type ReviewHandler struct {
	reviewRepo *repository.ManualReviewRepository
}

func NewReviewHandler(reviewRepo *repository.ManualReviewRepository) *ReviewHandler {
	return &ReviewHandler{reviewRepo: reviewRepo}
}

// GetReviews godoc
// @Summary Pending manual reviews
// @Description Unresolved items that need a human decision, oldest first
// @Tags reviews
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/reviews [get]
func (h *ReviewHandler) GetReviews(c *gin.Context) {
	reviews, err := h.reviewRepo.GetPending()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Failed to get reviews"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": reviews, "count": len(reviews)})
}

// ResolveReview godoc
// @Summary Resolve a manual review
// @Description Marks the review as handled and records the operator's notes
// @Tags reviews
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Review ID"
// @Param request body models.ResolveReviewRequest true "Resolution notes"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/reviews/{id}/resolve [post]
func (h *ReviewHandler) ResolveReview(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "Invalid review ID"})
		return
	}

	var req models.ResolveReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "Invalid request data"})
		return
	}

	if _, err := h.reviewRepo.GetByID(uint(id)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "Review not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Failed to get review"})
		return
	}

	if err := h.reviewRepo.Resolve(uint(id), req.Notes); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Failed to resolve review"})
		return
	}

	review, err := h.reviewRepo.GetByID(uint(id))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Failed to get review"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": review})
}
