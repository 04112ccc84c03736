package handler

import (
	"bank-ledger/internal/adapter/http/middleware"
	"bank-ledger/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	UserSvc        ports.UserService
	AccountSvc     ports.AccountService
	LedgerSvc      ports.LedgerService
	HistorySvc     ports.HistoryService
	TokenSvc       ports.TokenService
	RateLimiter    ports.RateLimiter  // nil = rate limiting disabled
	AuditSvc       ports.AuditService // nil = audit logging disabled
	HealthCheckers []ports.HealthChecker
	OpenAPI        []byte // served under /docs when set
	Mode           string // gin mode; empty means release
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	mode := deps.Mode
	if mode == "" {
		mode = gin.ReleaseMode
	}
	gin.SetMode(mode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.Metrics())
	r.Use(middleware.MaxBodySize(middleware.DefaultMaxBodyBytes))

	// Audit logging (after response)
	if deps.AuditSvc != nil {
		r.Use(middleware.AuditLog(deps.AuditSvc))
	}

	r.GET("/health", HealthCheck(deps.HealthCheckers...))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	docs := NewDocsHandler(deps.OpenAPI)
	r.GET("/docs", docs.Page)
	r.GET("/docs/openapi.yaml", docs.OpenAPI)

	rules := middleware.DefaultRateLimitRules()

	// Helper: return rate limiter middleware if a limiter is available, else noop.
	rl := func(group string) gin.HandlerFunc {
		rule, ok := rules[group]
		if deps.RateLimiter == nil || !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimiter, group, rule, deps.Logger)
	}

	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)
	userHandler := NewUserHandler(deps.UserSvc)
	accountHandler := NewAccountHandler(deps.AccountSvc, deps.HistorySvc)
	ledgerHandler := NewLedgerHandler(deps.LedgerSvc)
	historyHandler := NewHistoryHandler(deps.HistorySvc)

	v1 := r.Group("/api/v1")

	// --- Public routes (no auth) ---
	v1.POST("/users", rl("users_register"), userHandler.Register)
	v1.POST("/auth/login", rl("auth_login"), userHandler.Login)

	// --- JWT-authenticated routes ---
	v1.GET("/users", jwtAuth, rl("read"), userHandler.List)

	accounts := v1.Group("/accounts", jwtAuth)
	{
		accounts.POST("", rl("accounts"), accountHandler.Open)
		accounts.GET("", rl("read"), accountHandler.ListMine)
		accounts.GET("/:id", rl("read"), accountHandler.Get)
		accounts.GET("/:id/stats", rl("read"), accountHandler.Stats)
		accounts.DELETE("/:id", rl("accounts"), accountHandler.Close)

		accounts.POST("/deposit", rl("money"), ledgerHandler.Deposit)
		accounts.POST("/withdraw", rl("money"), ledgerHandler.Withdraw)
		accounts.POST("/transfer", rl("money"), ledgerHandler.Transfer)
	}

	v1.GET("/transactions", jwtAuth, rl("read"), historyHandler.ListTransactions)

	return r
}
