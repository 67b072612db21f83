package handlers

import (
	"log/slog"
	"net/http"

	"github.com/SscSPs/mma_local/cmd/docs"
	portsrepo "github.com/SscSPs/mma_local/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/mma_local/internal/core/ports/services"
	"github.com/SscSPs/mma_local/internal/dto"
	"github.com/SscSPs/mma_local/internal/live"
	"github.com/SscSPs/mma_local/internal/middleware"
	"github.com/SscSPs/mma_local/internal/platform/config"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Dependencies is everything the HTTP surface calls into.
type Dependencies struct {
	Services  *portssvc.ServiceContainer
	Live      *live.Engine
	Sync      SyncController
	Snapshots SnapshotController
	Sinks     map[string]portsrepo.BackupSink
}

// RegisterRoutes sets up all application routes.
func RegisterRoutes(r *gin.Engine, cfg *config.Config, deps Dependencies) error {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		dto.RegisterDecimalType(v)
	}

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	registerAuthRoutes(r, cfg)

	if err := setupAPIV1Routes(r, cfg, deps); err != nil {
		return err
	}

	setupSwaggerRoutes(r, cfg)
	return nil
}

// setupAPIV1Routes configures the /api/v1 group and delegates to specific entity route registrations
func setupAPIV1Routes(r *gin.Engine, cfg *config.Config, deps Dependencies) error {
	lim, err := middleware.NewLimiter(cfg.RateLimit)
	if err != nil {
		slog.Error("Invalid rate limit", slog.String("rate", cfg.RateLimit), slog.String("error", err.Error()))
		return err
	}

	// The pairing key short-circuits the JWT check; the limiter keys on whichever identity won.
	v1 := r.Group("/api/v1",
		middleware.APIKeyAuth(cfg.PairingKey),
		middleware.AuthMiddleware(cfg.JWTSecret),
		middleware.RateLimit(lim),
	)

	svc := deps.Services
	registerAccountRoutes(v1, svc.Account)
	registerLedgerRoutes(v1, svc.Ledger)
	registerLoanRoutes(v1, svc.Loan)
	registerGoalRoutes(v1, svc.Goal)
	registerInvestmentRoutes(v1, svc.Investment)
	registerFriendRoutes(v1, svc.Friend)
	registerGroupExpenseRoutes(v1, svc.GroupExpense)
	registerNotificationRoutes(v1, svc.Notification)

	if deps.Sync != nil {
		registerSyncRoutes(v1, deps.Sync)
	}
	if deps.Snapshots != nil {
		registerSnapshotRoutes(v1, deps.Snapshots, deps.Sinks)
	}
	if deps.Live != nil {
		registerLiveRoutes(v1, deps.Live)
	}
	return nil
}

// setupSwaggerRoutes configures the swagger documentation routes
func setupSwaggerRoutes(r *gin.Engine, cfg *config.Config) {
	if cfg.IsProduction {
		//no swagger in prod
		return
	}
	docs.SwaggerInfo.BasePath = "/api/v1"
	swagger := r.Group("/swagger")
	swagger.GET("/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}
