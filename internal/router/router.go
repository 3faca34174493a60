package router

import (
	"time"

	"github.com/funilzap/crm-funnel-backend/internal/config"
	"github.com/funilzap/crm-funnel-backend/internal/database/repository"
	"github.com/funilzap/crm-funnel-backend/internal/handlers"
	"github.com/funilzap/crm-funnel-backend/internal/middleware"
	"github.com/funilzap/crm-funnel-backend/internal/services"
	"github.com/funilzap/crm-funnel-backend/internal/services/auth"
	"github.com/funilzap/crm-funnel-backend/internal/services/export"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

// Deps carries everything the HTTP layer needs. main builds the services
// once and hands them over; the router never constructs its own state.
type Deps struct {
	Config      *config.Config
	DB          *gorm.DB
	Funnel      *services.FunnelService
	Analytics   *services.AnalyticsService
	Messaging   *services.MessagingService
	Board       *services.BoardService
	Files       *services.FileService
	Export      *export.Service
	Auth        *auth.AuthService
	SSEHub      *services.SSEHub
	AppLogs     *services.LogBuffer
	WebhookLogs *services.LogBuffer
	LeadRepo    *repository.LeadRepository
	ActionRepo  *repository.ActionLogRepository
	ReviewRepo  *repository.ManualReviewRepository
}

// SetupRouter configures the Gin router with the dashboard, webhook and API routes
func SetupRouter(deps Deps) *gin.Engine {
	if deps.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	r.Use(middleware.Recovery(deps.Config.IsProduction()))
	r.Use(middleware.Logger())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	bearerTokenMiddleware := middleware.NewBearerTokenMiddleware(deps.Auth)

	authHandler := handlers.NewAuthHandler(deps.Auth)
	webhookHandler := handlers.NewWebhookHandler(deps.Funnel, deps.Analytics)
	leadHandler := handlers.NewLeadHandler(deps.Funnel, deps.Export)
	analyticsHandler := handlers.NewAnalyticsHandler(deps.Analytics)
	logHandler := handlers.NewLogHandler(deps.AppLogs, deps.WebhookLogs, deps.SSEHub)
	reviewHandler := handlers.NewReviewHandler(deps.ReviewRepo)
	fileHandler := handlers.NewFileHandler(deps.Files)
	adminHandler := handlers.NewAdminHandler(deps.DB, deps.Funnel, deps.Analytics)
	dashboardHandler := handlers.NewDashboardHandler(
		deps.Config, deps.Funnel, deps.Analytics, deps.Files,
		deps.Messaging, deps.Board, deps.ActionRepo, deps.ReviewRepo,
	)

	r.LoadHTMLGlob("web/templates/*.html")

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	logrus.Info("Swagger UI endpoint registered at /swagger/index.html")

	// Dashboard shell and tab fragments (server rendered, public)
	r.GET("/", dashboardHandler.Index)
	dashboard := r.Group("/api/dashboard")
	{
		dashboard.GET("/overview", dashboardHandler.OverviewTab)
		dashboard.GET("/analytics", dashboardHandler.AnalyticsTab)
		dashboard.GET("/leads", dashboardHandler.LeadsTab)
		dashboard.GET("/files", dashboardHandler.FilesTab)
		dashboard.GET("/controls", dashboardHandler.ControlsTab)
	}

	// Webhooks carry no bearer token; deliveries are traced into their own ring
	webhooks := r.Group("/webhook")
	webhooks.Use(middleware.WebhookTrace(deps.WebhookLogs))
	{
		webhooks.POST("/monday", webhookHandler.MondayWebhook)
		webhooks.POST("/evolution", webhookHandler.EvolutionWebhook)
	}

	api := r.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{
				"status":      "ok",
				"time":        time.Now().Format(time.RFC3339),
				"sse_clients": deps.SSEHub.ClientCount(),
			})
		})

		api.POST("/auth/login", authHandler.Login)

		protected := api.Group("")
		protected.Use(bearerTokenMiddleware.BearerTokenAuthMiddleware())
		{
			protected.GET("/analytics", analyticsHandler.GetAnalytics)
			protected.GET("/analytics/health", analyticsHandler.GetSystemHealth)

			leads := protected.Group("/leads")
			{
				leads.GET("", leadHandler.GetLeads)
				leads.GET("/stats", leadHandler.GetStats)
				leads.GET("/export", leadHandler.ExportLeads)
				leads.POST("/:id/contact-now", leadHandler.ContactNow)
				leads.PUT("/:id/status", leadHandler.UpdateStatus)
				leads.POST("/:id/reminder", leadHandler.SendReminder)
			}

			reviews := protected.Group("/reviews")
			{
				reviews.GET("", reviewHandler.GetReviews)
				reviews.POST("/:id/resolve", reviewHandler.ResolveReview)
			}

			protected.GET("/logs", logHandler.GetLogs)
			protected.GET("/webhook-logs", logHandler.GetWebhookLogs)
			protected.GET("/logs/stream", logHandler.StreamLogs)

			protected.GET("/message-templates", fileHandler.GetTemplates)
			protected.POST("/message-templates", fileHandler.SaveTemplates)
			protected.GET("/files", fileHandler.ListFiles)
			protected.POST("/upload", fileHandler.UploadFile)
			protected.GET("/files/read/*path", fileHandler.ReadFile)
			protected.DELETE("/files/*path", fileHandler.DeleteFile)

			admin := protected.Group("/admin")
			{
				admin.POST("/clean-database", adminHandler.CleanDatabase)
				admin.POST("/test-flow", adminHandler.TestFlow)
			}
		}
	}

	return r
}
