package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/survey-backend/internal/config"
	"github.com/stemsi/survey-backend/internal/handler"
	"github.com/stemsi/survey-backend/internal/middleware"
	"github.com/stemsi/survey-backend/internal/model"
	"github.com/stemsi/survey-backend/internal/response"
	"github.com/stemsi/survey-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth       *handler.AuthHandler
	Respondent *handler.RespondentHandler
	Survey     *handler.SurveyHandler
	Question   *handler.QuestionHandler
	Report     *handler.ReportHandler
	Export     *handler.ExportHandler
	WS         *handler.WSHandler
	Health     *handler.HealthHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
// rdb backs the rate limiter; a nil client disables rate limiting.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	rdb *redis.Client,
	cfg *config.Config,
	log zerolog.Logger,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
		corsConfig.AllowCredentials = true
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "Location", "Content-Disposition", "X-RateLimit-Limit", "X-RateLimit-Remaining"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Request ID first so the access log and every envelope share it.
	router.Use(response.RequestIDMiddleware())
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.Brotli())

	router.GET("/health", handlers.Health.Health)

	// Public write endpoints are rate limited per IP.
	publicLimit := func(c *gin.Context) { c.Next() }
	authLimit := publicLimit
	if rdb != nil {
		publicLimit = middleware.NewRateLimiter(rdb, "public", cfg.RateLimitPerMinute, time.Minute, log).Middleware()
		authLimit = middleware.NewRateLimiter(rdb, "auth", cfg.RateLimitPerMinute, time.Minute, log).Middleware()
	}

	api := router.Group(config.APIPrefix)

	// ─── 0. Public Group (No Auth) ─────────────────────────────────────
	api.GET("/categories", middleware.CacheControl(60), handlers.Survey.ListCategories)

	respondents := api.Group("/respondents")
	respondents.Use(publicLimit)
	{
		respondents.POST("", handlers.Respondent.Register)
		respondents.GET("/:identifier/availability", handlers.Respondent.CheckAvailability)
	}

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := api.Group("/auth")
	{
		auth.POST("/admin/login", authLimit, handlers.Auth.AdminLogin)
		auth.GET("/admin/me", middleware.RequireAdminJWT(authService), handlers.Auth.GetAdminProfile)
	}

	// ─── 2. Survey Group (Respondent Token) ────────────────────────────
	survey := api.Group("/survey/:respondent_id")
	survey.Use(
		middleware.NoStore(),
		middleware.RequireRespondentToken(authService, "respondent_id"),
	)
	{
		survey.GET("", handlers.Survey.GetStatus)
		survey.GET("/:category", handlers.Survey.GetStep)
		survey.POST("/:category", handlers.Survey.SubmitStep)
	}

	// ─── 3. WebSocket Group (Admin WS Auth) ────────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireAdminWSAuth(authService))
	{
		ws.GET("/admin/feed",
			middleware.RequirePermission(string(model.PermissionReportsRead)),
			handlers.WS.AdminFeed,
		)
	}

	// ─── 4. Admin Group (JWT + RBAC) ───────────────────────────────────
	adminAPI := api.Group("/admin")
	adminAPI.Use(middleware.RequireAdminJWT(authService), middleware.NoStore())
	{
		// Reports
		adminAPI.GET("/dashboard",
			middleware.RequirePermission(string(model.PermissionReportsRead)),
			handlers.Report.GetDashboard,
		)
		adminAPI.GET("/chart-data",
			middleware.RequirePermission(string(model.PermissionReportsRead)),
			handlers.Report.GetChartData,
		)
		adminAPI.GET("/search",
			middleware.RequirePermission(string(model.PermissionReportsRead)),
			handlers.Report.Search,
		)
		adminAPI.GET("/export.csv",
			middleware.RequirePermission(string(model.PermissionReportsExport)),
			handlers.Export.ExportCSV,
		)
		adminAPI.GET("/export.xlsx",
			middleware.RequirePermission(string(model.PermissionReportsExport)),
			handlers.Export.ExportXLSX,
		)

		// Question catalog
		adminAPI.GET("/questions",
			middleware.RequirePermission(string(model.PermissionQuestionsRead)),
			handlers.Question.ListQuestions,
		)
		adminAPI.POST("/questions",
			middleware.RequirePermission(string(model.PermissionQuestionsWrite)),
			handlers.Question.CreateQuestion,
		)
		adminAPI.PUT("/questions/:id",
			middleware.RequirePermission(string(model.PermissionQuestionsWrite)),
			handlers.Question.UpdateQuestion,
		)
		adminAPI.DELETE("/questions/:id",
			middleware.RequirePermission(string(model.PermissionQuestionsWrite)),
			handlers.Question.DeleteQuestion,
		)
		adminAPI.GET("/categories",
			middleware.RequirePermission(string(model.PermissionQuestionsRead)),
			handlers.Question.ListCategories,
		)
		adminAPI.POST("/categories",
			middleware.RequirePermission(string(model.PermissionQuestionsWrite)),
			handlers.Question.CreateCategory,
		)

		// Data management
		adminAPI.GET("/respondents/:id",
			middleware.RequirePermission(string(model.PermissionReportsRead)),
			handlers.Report.GetRespondent,
		)
		adminAPI.DELETE("/respondents/:id",
			middleware.RequirePermission(string(model.PermissionResponsesDelete)),
			handlers.Report.DeleteRespondent,
		)
		adminAPI.GET("/responses/:id",
			middleware.RequirePermission(string(model.PermissionReportsRead)),
			handlers.Report.GetResponse,
		)
		adminAPI.DELETE("/responses/:id",
			middleware.RequirePermission(string(model.PermissionResponsesDelete)),
			handlers.Report.DeleteResponse,
		)
		adminAPI.POST("/purge-all",
			middleware.RequirePermission(string(model.PermissionDataPurge)),
			handlers.Report.PurgeAll,
		)
	}

	return router
}
