package handlers

import (
	"errors"
	"io/fs"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/funilzap/crm-funnel-backend/internal/services"
)

type FileHandler struct {
	fileService *services.FileService
}

func NewFileHandler(fileService *services.FileService) *FileHandler {
	return &FileHandler{fileService: fileService}
}

// GetTemplates godoc
// @Summary Message templates
// @Description Returns the per-stage WhatsApp message templates
// @Tags files
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/message-templates [get]
func (h *FileHandler) GetTemplates(c *gin.Context) {
	templates, err := h.fileService.GetTemplates()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Failed to read templates"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": templates})
}

// SaveTemplates godoc
// @Summary Save message templates
// @Description Replaces the per-stage WhatsApp message templates
// @Tags files
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body map[string]string true "Templates keyed by funnel stage"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/message-templates [post]
func (h *FileHandler) SaveTemplates(c *gin.Context) {
	var templates services.MessageTemplates
	if err := c.ShouldBindJSON(&templates); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "Invalid request data"})
		return
	}

	if err := h.fileService.SaveTemplates(templates); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Failed to save templates"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": templates})
}

// ListFiles godoc
// @Summary List uploaded files
// @Description Lists everything in the upload directory, newest first
// @Tags files
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/files [get]
func (h *FileHandler) ListFiles(c *gin.Context) {
	files, err := h.fileService.ListFiles()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Failed to list files"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": files, "count": len(files)})
}

// UploadFile godoc
// @Summary Upload a file
// @Description Stores a multipart upload in the upload directory
// @Tags files
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "File to upload"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/upload [post]
func (h *FileHandler) UploadFile(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "No file provided"})
		return
	}

	info, err := h.fileService.SaveUpload(fileHeader)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Failed to save file"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": info})
}

// ReadFile godoc
// @Summary Download an uploaded file
// @Description Streams a file from the upload directory
// @Tags files
// @Produce octet-stream
// @Security BearerAuth
// @Param path path string true "File path"
// @Success 200 {file} binary
// @Failure 404 {object} map[string]interface{}
// @Router /api/files/read/{path} [get]
func (h *FileHandler) ReadFile(c *gin.Context) {
	relPath := strings.TrimPrefix(c.Param("path"), "/")

	data, err := h.fileService.ReadFile(relPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "File not found"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+filepath.Base(relPath))
	c.Data(http.StatusOK, "application/octet-stream", data)
}

// DeleteFile godoc
// @Summary Delete an uploaded file
// @Tags files
// @Produce json
// @Security BearerAuth
// @Param path path string true "File path"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/files/{path} [delete]
func (h *FileHandler) DeleteFile(c *gin.Context) {
	relPath := strings.TrimPrefix(c.Param("path"), "/")

	if err := h.fileService.DeleteFile(relPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "File not found"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
