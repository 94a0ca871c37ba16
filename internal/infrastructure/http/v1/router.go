package v1

import (
	"github.com/gin-gonic/gin"

	"foodchain/internal/app"
	"foodchain/internal/core/apperror"
	appctx "foodchain/internal/core/context"
	"foodchain/internal/infrastructure/http/v1/dto"
	"foodchain/internal/infrastructure/http/v1/handlers"
	"foodchain/internal/infrastructure/http/v1/middleware"
	"foodchain/internal/infrastructure/storage/postgres"
	"foodchain/pkg/logger"
)

// RouterConfig holds router configuration.
type RouterConfig struct {
	// Services is the wired application
	Services *app.Services

	// Pool is the database pool for readiness checks; nil for the in-memory backend
	Pool *postgres.Pool

	// Storage names the active backend for /health/info
	Storage string

	// Logger for request logging
	Logger *logger.Logger

	// JWTValidator for token validation
	JWTValidator middleware.JWTValidator

	// Debug enables gin debug mode
	Debug bool
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) (*gin.Engine, error) {
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Default()
	}
	if err := dto.RegisterValidators(); err != nil {
		return nil, err
	}

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())
	router.NoRoute(func(c *gin.Context) {
		_ = c.Error(apperror.NewNotFound("route", c.Request.Method+" "+c.Request.URL.Path))
	})

	healthHandler := handlers.NewHealthHandler(cfg.Pool, cfg.Storage)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	api := router.Group("/api/v1")
	api.Use(middleware.Auth(cfg.JWTValidator))

	base := handlers.NewBaseHandler()
	registerCatalogRoutes(api, base, cfg.Services)
	registerDocumentRoutes(api, base, cfg.Services)
	registerRegisterRoutes(api, base, cfg.Services)

	return router, nil
}

// registerCatalogRoutes registers materials and assignments.
func registerCatalogRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, svc *app.Services) {
	// --- MATERIALS ---
	{
		h := handlers.NewMaterialHandler(base, svc.Materials)
		g := rg.Group("/materials")
		RegisterReadRoutes(g, h)
		g.POST("", h.Create)
		g.PATCH("/:id", h.Update)
		g.POST("/:id/activate", h.Activate)
		g.POST("/:id/deactivate", h.Deactivate)
	}

	// --- ASSIGNMENTS ---
	{
		h := handlers.NewAssignmentHandler(base, svc.Assignments)
		g := rg.Group("/assignments")
		g.GET("", h.List)
		g.POST("", middleware.RequireRole(appctx.RoleAdmin), h.Assign)
		g.DELETE("", middleware.RequireRole(appctx.RoleAdmin), h.Unassign)
	}
}

// registerDocumentRoutes registers the document lifecycle endpoints.
func registerDocumentRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, svc *app.Services) {
	// --- PRODUCTION ---
	{
		h := handlers.NewProductionHandler(base, svc.Production)
		g := rg.Group("/production")
		RegisterReadRoutes(g, h)
		g.POST("", h.Record)
	}

	// --- SRN ---
	{
		h := handlers.NewSRNHandler(base, svc.SRNs)
		g := rg.Group("/srns")
		RegisterReadRoutes(g, h)
		g.POST("", h.Create)
		g.PATCH("/:id", h.Update)
		g.DELETE("/:id", h.Delete)
		g.POST("/:id/submit", h.Submit)
		g.POST("/:id/process", h.Process)
	}

	grnHandler := handlers.NewGRNHandler(base, svc.GRNs)
	invoiceHandler := handlers.NewInvoiceHandler(base, svc.Invoices)

	// --- DISPATCH ---
	{
		h := handlers.NewDispatchHandler(base, svc.Dispatches)
		g := rg.Group("/dispatches")
		RegisterReadRoutes(g, h)
		g.POST("", h.Create)
		g.POST("/:id/execute", h.Execute)
		g.POST("/:id/cancel", h.Cancel)
		g.GET("/:id/grn", grnHandler.GetByDispatch)
	}

	// --- GRN ---
	{
		g := rg.Group("/grns")
		RegisterReadRoutes(g, grnHandler)
		g.POST("/:id/confirm", grnHandler.Confirm)
		g.GET("/:id/invoice", invoiceHandler.GetByGRN)
	}

	// --- INVOICE ---
	{
		g := rg.Group("/invoices")
		RegisterReadRoutes(g, invoiceHandler)
		g.POST("", invoiceHandler.Generate)
	}

	// --- RETURNS ---
	{
		h := handlers.NewReturnHandler(base, svc.Returns)
		g := rg.Group("/returns")
		RegisterReadRoutes(g, h)
		g.POST("", h.Raise)
		g.POST("/:id/review", h.Review)
		g.POST("/:id/resolve", h.Resolve)
	}

	// --- SALES ---
	{
		h := handlers.NewSaleHandler(base, svc.Sales)
		g := rg.Group("/sales")
		RegisterReadRoutes(g, h)
		g.POST("", h.Record)
	}

	// --- AUDIT ---
	{
		h := handlers.NewAuditHandler(base, svc.Audit)
		rg.GET("/audit/:entityType/:id", middleware.RequireRole(appctx.RoleAdmin), h.History)
	}
}

// registerRegisterRoutes registers inventory and commission endpoints.
func registerRegisterRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, svc *app.Services) {
	// --- INVENTORY ---
	{
		h := handlers.NewInventoryHandler(base, svc.Inventory)
		g := rg.Group("/inventory")
		g.GET("/balances", h.Balances)
		g.GET("/available", h.Available)
		g.GET("/transactions", h.Transactions)
	}

	// --- COMMISSIONS ---
	{
		h := handlers.NewCommissionHandler(base, svc.Commissions)
		g := rg.Group("/commissions")
		g.GET("/summary", h.Summary)
		RegisterReadRoutes(g, h)
		g.POST("/:id/pay", h.MarkPaid)
		g.POST("/pay-all", middleware.RequireRole(appctx.RoleAdmin), h.MarkAllPaid)
	}
}
