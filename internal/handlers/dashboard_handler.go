package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/funilzap/crm-funnel-backend/internal/config"
	"github.com/funilzap/crm-funnel-backend/internal/database/repository"
	"github.com/funilzap/crm-funnel-backend/internal/services"
)

// DashboardHandler renders the server-side HTML dashboard. The shell page
// loads once and swaps tab fragments fetched from /api/dashboard/*.
type DashboardHandler struct {
	cfg              *config.Config
	funnelService    *services.FunnelService
	analyticsService *services.AnalyticsService
	fileService      *services.FileService
	messagingService *services.MessagingService
	boardService     *services.BoardService
	actionLogRepo    *repository.ActionLogRepository
	reviewRepo       *repository.ManualReviewRepository
}

func NewDashboardHandler(
	cfg *config.Config,
	funnelService *services.FunnelService,
	analyticsService *services.AnalyticsService,
	fileService *services.FileService,
	messagingService *services.MessagingService,
	boardService *services.BoardService,
	actionLogRepo *repository.ActionLogRepository,
	reviewRepo *repository.ManualReviewRepository,
) *DashboardHandler {
	return &DashboardHandler{
		cfg:              cfg,
		funnelService:    funnelService,
		analyticsService: analyticsService,
		fileService:      fileService,
		messagingService: messagingService,
		boardService:     boardService,
		actionLogRepo:    actionLogRepo,
		reviewRepo:       reviewRepo,
	}
}

// Index renders the dashboard shell page
func (h *DashboardHandler) Index(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{
		"title": "FunilZap",
		"env":   h.cfg.AppEnv,
	})
}

// OverviewTab renders the funnel overview fragment
func (h *DashboardHandler) OverviewTab(c *gin.Context) {
	stats, err := h.funnelService.GetStats()
	if err != nil {
		c.HTML(http.StatusInternalServerError, "error.html", gin.H{"message": "Falha ao carregar estatísticas"})
		return
	}

	health := h.analyticsService.GetSystemHealth()
	recent, err := h.actionLogRepo.GetRecent(15)
	if err != nil {
		recent = nil
	}
	pendingReviews, err := h.reviewRepo.CountPending()
	if err != nil {
		pendingReviews = 0
	}

	c.HTML(http.StatusOK, "overview.html", gin.H{
		"stats":          stats,
		"health":         health,
		"recentActions":  recent,
		"pendingReviews": pendingReviews,
	})
}

// AnalyticsTab renders the analytics fragment
func (h *DashboardHandler) AnalyticsTab(c *gin.Context) {
	analytics := h.analyticsService.GetAnalytics(24)
	health := h.analyticsService.GetSystemHealth()

	c.HTML(http.StatusOK, "analytics.html", gin.H{
		"analytics": analytics,
		"health":    health,
	})
}

// LeadsTab renders the lead table fragment
func (h *DashboardHandler) LeadsTab(c *gin.Context) {
	leads, err := h.funnelService.GetLeads()
	if err != nil {
		c.HTML(http.StatusInternalServerError, "error.html", gin.H{"message": "Falha ao carregar leads"})
		return
	}

	c.HTML(http.StatusOK, "leads.html", gin.H{
		"leads": leads,
	})
}

// FilesTab renders the files and templates fragment
func (h *DashboardHandler) FilesTab(c *gin.Context) {
	files, err := h.fileService.ListFiles()
	if err != nil {
		files = nil
	}
	templates, err := h.fileService.GetTemplates()
	if err != nil {
		templates = nil
	}

	c.HTML(http.StatusOK, "files.html", gin.H{
		"files":     files,
		"templates": templates,
	})
}

// ControlsTab renders the system controls fragment
func (h *DashboardHandler) ControlsTab(c *gin.Context) {
	instanceState := "not configured"
	if h.messagingService.Configured() {
		if state, err := h.messagingService.CheckInstance(); err != nil {
			instanceState = "unreachable"
		} else {
			instanceState = state.State
		}
	}

	reviews, err := h.reviewRepo.GetPending()
	if err != nil {
		reviews = nil
	}

	c.HTML(http.StatusOK, "controls.html", gin.H{
		"dispatcherEnabled": h.cfg.DispatcherEnabled,
		"dispatcherCron":    h.cfg.DispatcherCron,
		"maxAttempts":       h.cfg.MaxAttempts,
		"boardConfigured":   h.boardService.Configured(),
		"instanceState":     instanceState,
		"reviews":           reviews,
	})
}
