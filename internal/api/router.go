package api

import (
	"sync"

	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"golang.org/x/time/rate"

	_ "github.com/sweetshop/inventory-api/docs"
	"github.com/sweetshop/inventory-api/internal/api/handler"
	"github.com/sweetshop/inventory-api/internal/api/middleware"
	"github.com/sweetshop/inventory-api/internal/core/domain"
	"github.com/sweetshop/inventory-api/internal/core/ports"
)

// Deps are the collaborators the HTTP layer is built from.
type Deps struct {
	Auth   ports.AuthService
	Items  ports.ItemService
	Tokens ports.TokenIssuer
	Logger zerolog.Logger

	// Checks are the readiness probes, keyed by dependency name.
	Checks map[string]handler.Check

	CORSOrigins   []string
	AuthRateLimit rate.Limit
	AuthRateBurst int
}

// The echoprometheus collectors live in the default registry, which accepts
// them once per process.
var httpMetrics = sync.OnceValue(func() echo.MiddlewareFunc {
	return echoprometheus.NewMiddleware("sweetshop")
})

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.RequestLogger(d.Logger))
	e.Use(httpMetrics())
	e.Use(echo.WrapMiddleware(cors.New(cors.Options{
		AllowedOrigins: d.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type", "Idempotency-Key"},
	}).Handler))

	authHandler := handler.NewAuthHandler(d.Auth)
	itemHandler := handler.NewItemHandler(d.Items)
	authn := middleware.Auth(d.Tokens)
	adminOnly := middleware.RBAC(domain.RoleAdmin)

	limiter := middleware.RateLimit(d.AuthRateLimit, d.AuthRateBurst)

	// --- Auth routes ---
	auth := e.Group("/api/auth")
	auth.POST("/register", authHandler.Register, limiter)
	auth.POST("/login", authHandler.Login, limiter)
	auth.GET("/me", authHandler.Me, authn)

	// --- Catalog and stock routes ---
	sweets := e.Group("/api/sweets", authn)
	sweets.GET("", itemHandler.List)
	sweets.GET("/search", itemHandler.Search)
	sweets.GET("/:id", itemHandler.Get)
	sweets.POST("", itemHandler.Create, adminOnly)
	sweets.PUT("/:id", itemHandler.Update, adminOnly)
	sweets.DELETE("/:id", itemHandler.Delete, adminOnly)
	sweets.POST("/:id/purchase", itemHandler.Purchase)
	sweets.POST("/:id/restock", itemHandler.Restock, adminOnly)

	// --- Health probes and operational endpoints (no auth required) ---
	e.GET("/health", handler.NewHealthHandler().Liveness)
	e.GET("/health/ready", handler.NewReadinessHandler(d.Checks).Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}
