package handlers

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"time"

	"github.com/ulule/limiter/v3"
	limitergin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"github.com/SscSPs/mma_local/internal/dto"
	"github.com/SscSPs/mma_local/internal/middleware"
	"github.com/SscSPs/mma_local/internal/platform/config"
	"github.com/SscSPs/mma_local/internal/utils"
	"github.com/gin-gonic/gin"
)

// authHandler issues client tokens against the pairing key.
type authHandler struct {
	pairingKey  string
	jwtSecret   string
	jwtDuration time.Duration
	jwtIssuer   string
	now         func() time.Time
}

func newAuthHandler(cfg *config.Config) *authHandler {
	return &authHandler{
		pairingKey:  cfg.PairingKey,
		jwtSecret:   cfg.JWTSecret,
		jwtDuration: cfg.JWTExpiryDuration,
		jwtIssuer:   cfg.JWTIssuer,
		now:         time.Now,
	}
}

func registerAuthRoutes(r *gin.Engine, cfg *config.Config) {
	h := newAuthHandler(cfg)

	// 5 token requests per minute per IP
	rate, _ := limiter.NewRateFromFormatted("5-M")
	ipLimiter := limiter.New(memory.NewStore(), rate)
	limitMiddleware := limitergin.NewMiddleware(ipLimiter)

	auth := r.Group("/api/v1/auth")
	{
		auth.POST("/token", limitMiddleware, h.issueToken)
	}
}

// issueToken godoc
// @Summary Issue a client token
// @Description Exchanges the device pairing key (x-api-key header) for a JWT used by local clients.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.TokenRequest true "Client"
// @Success 200 {object} dto.TokenResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 429 {object} ErrorResponse
// @Router /auth/token [post]
func (h *authHandler) issueToken(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	key := c.GetHeader("x-api-key")
	if h.pairingKey == "" || subtle.ConstantTimeCompare([]byte(key), []byte(h.pairingKey)) != 1 {
		logger.Warn("Token request with invalid pairing key", slog.String("ip", c.ClientIP()))
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Invalid pairing key"})
		return
	}

	var req dto.TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, logger, err)
		return
	}

	issuedAt := h.now()
	token, err := utils.GenerateJWT(req.ClientID, h.jwtSecret, h.jwtDuration, h.jwtIssuer)
	if err != nil {
		logger.Error("Failed to sign client token", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to issue token"})
		return
	}

	logger.Info("Issued client token", slog.String("client_id", req.ClientID))
	c.JSON(http.StatusOK, dto.TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   issuedAt.Add(h.jwtDuration).UTC(),
	})
}
