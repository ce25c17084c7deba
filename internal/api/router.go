package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/sweetshop/sweetshop-api/internal/api/handler"
	"github.com/sweetshop/sweetshop-api/internal/api/middleware"
	"github.com/sweetshop/sweetshop-api/internal/core/domain"
	"github.com/sweetshop/sweetshop-api/internal/core/service"
	"github.com/sweetshop/sweetshop-api/internal/core/token"
	mongodb "github.com/sweetshop/sweetshop-api/internal/infrastructure/db/mongo"
	redisdb "github.com/sweetshop/sweetshop-api/internal/infrastructure/db/redis"
	"github.com/sweetshop/sweetshop-api/internal/infrastructure/http/handlers"
	"github.com/sweetshop/sweetshop-api/internal/pkg/config"
)

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(db *mongo.Database, rdb *goredis.Client, cfg *config.Config, log zerolog.Logger) (*echo.Echo, error) {
	e := echo.New()
	e.HideBanner = true

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echoprometheus.NewMiddleware("sweetshop"))

	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Dependencies ---
	codec, err := token.NewCodec(cfg.JWTSecret, cfg.TokenTTL())
	if err != nil {
		return nil, err
	}

	userRepo := mongodb.NewUserRepository(db)
	sweetRepo := mongodb.NewSweetRepository(db)
	catalogCache := redisdb.NewCatalogCache(rdb, log)

	authService := service.NewAuthService(userRepo, codec, log)
	sweetService := service.NewSweetService(sweetRepo, catalogCache, log)

	authHandler := handler.NewAuthHandler(authService)
	sweetHandler := handler.NewSweetHandler(sweetService)

	// --- Auth routes ---
	auth := e.Group("/api/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	// --- Sweets routes ---
	// Identity resolution runs on every request; per-route gates decide who
	// may pass. Reads are public, writes need a login, restock and delete
	// need the ADMIN role.
	sweets := e.Group("/api/sweets", middleware.Auth(codec))
	sweets.GET("", sweetHandler.List)
	sweets.GET("/search", sweetHandler.List)
	sweets.GET("/:id", sweetHandler.GetByID)
	sweets.POST("", sweetHandler.Create, middleware.RequireAuth())
	sweets.PUT("/:id", sweetHandler.Update, middleware.RequireAuth())
	sweets.POST("/:id/purchase", sweetHandler.Purchase, middleware.RequireAuth())
	sweets.POST("/:id/restock", sweetHandler.Restock, middleware.RequireRole(domain.RoleAdmin))
	sweets.DELETE("/:id", sweetHandler.Delete, middleware.RequireRole(domain.RoleAdmin))

	// --- Operational endpoints ---
	healthHandler := handlers.NewHealthHandler(db, rdb)
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())

	return e, nil
}
