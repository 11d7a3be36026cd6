package handlers

import (
	"net/http"

	"FIT-CONTRACTS/internal/middleware"
	"FIT-CONTRACTS/internal/processor"
	"FIT-CONTRACTS/internal/services"
	"FIT-CONTRACTS/internal/storage"

	"github.com/gin-gonic/gin"
)

type RouterConfig struct {
	AllowOrigins       []string
	RateLimitPerMinute int
	MaxUploadMB        int64
	AdminSecret        string
}

type RouterDeps struct {
	Delivery      *services.DeliveryService
	Payments      *services.PaymentService
	Templates     *services.TemplateService
	Engine        processor.FormEngine
	Registrations *services.RegistrationService
	ActivityLogs  *services.ActivityLogService
	// Store re-signs contract links in the admin API; nil leaves them as recorded.
	Store storage.ObjectStore
}

// maxBodyBytes is the request body cap; multipart overhead on top of the
// upload limit is covered by one extra megabyte.
func maxBodyBytes(maxUploadMB int64) int64 {
	if maxUploadMB <= 0 {
		maxUploadMB = 10
	}
	return (maxUploadMB + 1) << 20
}

// NewRouter registers every route on a fresh engine. Callers choose the gin
// mode before calling it.
func NewRouter(cfg RouterConfig, deps RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(middleware.CORS(cfg.AllowOrigins))
	r.Use(middleware.BodyLimit(maxBodyBytes(cfg.MaxUploadMB)))
	if deps.ActivityLogs != nil {
		r.Use(deps.ActivityLogs.LoggingMiddleware())
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// public POSTs share one per-IP limiter
	limited := func(h gin.HandlerFunc) []gin.HandlerFunc { return []gin.HandlerFunc{h} }
	if cfg.RateLimitPerMinute > 0 {
		limiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute, cfg.RateLimitPerMinute)
		limited = func(h gin.HandlerFunc) []gin.HandlerFunc {
			return []gin.HandlerFunc{limiter.Middleware(), h}
		}
	}

	contracts := NewContractHandler(deps.Delivery, cfg.MaxUploadMB)
	r.POST("/upload-contract", limited(contracts.UploadContract)...)

	checkout := NewCheckoutHandler(deps.Payments)
	templates := NewTemplateHandler(deps.Templates, deps.Engine)

	api := r.Group("/api")
	{
		api.POST("/upload-contract", limited(contracts.UploadContract)...)
		api.POST("/create-checkout-session", limited(checkout.CreateSession)...)
		api.GET("/checkout-session/:sessionId", checkout.GetSession)

		api.GET("/templates", templates.ListTemplates)
		api.GET("/templates/:kind/fields", templates.GetFields)
	}

	admin := NewAdminHandler(deps.Registrations, deps.ActivityLogs, deps.Store)
	adminGroup := api.Group("/admin", middleware.RequireAdmin(cfg.AdminSecret))
	{
		adminGroup.GET("/registrations", admin.ListRegistrations)
		adminGroup.GET("/registrations/:id", admin.GetRegistration)
		adminGroup.GET("/logs", admin.GetLogs)
		adminGroup.GET("/logs/stats", admin.GetLogStats)
	}

	return r
}
