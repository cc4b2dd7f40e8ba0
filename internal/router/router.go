package router

import (
	"time"

	"caixapos/internal/config"
	"caixapos/internal/handler"
	"caixapos/internal/infra"
	"caixapos/internal/middleware"
	"caixapos/internal/repository"
	"caixapos/internal/service"
	"caixapos/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, mailerCB *infra.CircuitBreaker) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Repositories ─────────────────────────────────────────────────────────
	userRepo := repository.NewUserRepository(db)
	registerRepo := repository.NewRegisterRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(userRepo, cfg)
	viewSvc := service.NewViewService(registerRepo, paymentRepo)
	paymentSvc := service.NewPaymentService(paymentRepo, registerRepo)

	// Worker dispatcher — injected into services that enqueue async jobs
	dispatcher := worker.NewDispatcher(rdb)
	registerSvc := service.NewRegisterService(registerRepo, paymentRepo, viewSvc, dispatcher)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	usersH := handler.NewUsersHandler(authSvc)
	registerH := handler.NewRegisterHandler(registerSvc, viewSvc)
	paymentsH := handler.NewPaymentsHandler(paymentSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, mailerCB))

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	v1 := r.Group("/v1", jwtMW)
	{
		// Roles: cashier, supervisor, admin — declared per endpoint
		register := v1.Group("/register")
		{
			register.POST("/open", middleware.RequireRole("cashier", "supervisor", "admin"), registerH.Open)
			register.GET("/open", middleware.RequireRole("cashier", "supervisor", "admin"), registerH.GetOpen)
			register.GET("/history", middleware.RequireRole("supervisor", "admin"), registerH.History)
			register.POST("/:id/close", middleware.RequireRole("cashier", "supervisor", "admin"), registerH.Close)
			register.GET("/:id", middleware.RequireRole("cashier", "supervisor", "admin"), registerH.GetView)
			register.GET("/:id/summary", middleware.RequireRole("cashier", "supervisor", "admin"), registerH.Summarize)
		}

		payments := v1.Group("/payments")
		{
			payments.POST("", middleware.RequireRole("cashier", "supervisor", "admin"), paymentsH.Create)
			payments.GET("", middleware.RequireRole("cashier", "supervisor", "admin"), paymentsH.List)
			payments.POST("/:id/cancel", middleware.RequireRole("supervisor", "admin"), paymentsH.Cancel)
			payments.POST("/:id/compensate", middleware.RequireRole("supervisor", "admin"), paymentsH.Compensate)
		}

		users := v1.Group("/users", middleware.RequireRole("admin"))
		{
			users.POST("", usersH.Create)
			users.GET("", usersH.List)
			users.PUT("/:id", usersH.Update)
			users.DELETE("/:id", usersH.Deactivate)
			users.PATCH("/:id/reactivate", usersH.Reactivate)
		}
	}

	return r
}
