package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"ipshield/internal/config"
	"ipshield/internal/domain"
	"ipshield/internal/infra/ratelimit"
	"ipshield/internal/infra/story"
	"ipshield/internal/infra/yakoa"
	"ipshield/internal/usecase"

	"github.com/gin-gonic/gin"
)

// TokenClient relays token registrations to the fingerprinting service.
type TokenClient interface {
	RegisterToken(ctx context.Context, body []byte) (yakoa.Response, error)
	GetToken(ctx context.Context, id string) (yakoa.Response, error)
}

type Server struct {
	cfg    config.Config
	r      *gin.Engine
	logger *slog.Logger

	orchestrator *usecase.Orchestrator
	ledger       domain.ScanLedger
	tokens       TokenClient
	network      story.NetworkInfo
	storageMode  string
	now          func() time.Time

	quotaLimiter    domain.QuotaLimiter
	quotas          ratelimit.Quotas
	quotaFailClosed bool
}

type ServerDeps struct {
	Orchestrator *usecase.Orchestrator
	Ledger       domain.ScanLedger
	Tokens       TokenClient
	Network      story.NetworkInfo
	StorageMode  string
	RateLimiter  domain.QuotaLimiter
	Logger       *slog.Logger
}

func NewServerWithDeps(cfg config.Config, deps ServerDeps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	storageMode := deps.StorageMode
	if storageMode == "" {
		storageMode = "memory"
	}

	r := gin.New()
	s := &Server{
		cfg:          cfg,
		r:            r,
		logger:       logger,
		orchestrator: deps.Orchestrator,
		ledger:       deps.Ledger,
		tokens:       deps.Tokens,
		network:      deps.Network,
		storageMode:  storageMode,
		now:          time.Now,
	}
	r.Use(gin.CustomRecovery(s.recover))
	r.Use(requestID(), s.requestLogger())
	s.initQuotas(deps.RateLimiter)
	s.routes()
	return s
}

func (s *Server) routes() {
	s.r.GET("/healthz", s.handleHealthz)

	s.r.POST("/verify", s.spend(domain.QuotaVerify), s.handleVerify)
	// batch spends one verify unit per item once the body is parsed
	s.r.POST("/verify/batch", s.handleVerifyBatch)
	s.r.POST("/register", s.spend(domain.QuotaRegister), s.handleRegister)
	s.r.POST("/protect", s.spend(domain.QuotaVerify), s.spend(domain.QuotaRegister), s.handleProtect)
	s.r.POST("/tokens", s.spend(domain.QuotaTokens), s.handleRegisterToken)
	s.r.GET("/verify/health", s.handleVerifyHealth)
	s.r.GET("/register/health", s.handleRegisterHealth)
	s.r.GET("/tokens", s.handleGetToken)
	s.r.GET("/scans", s.handleListScans)

	s.r.NoRoute(func(c *gin.Context) {
		writeErrorCode(c, http.StatusNotFound, "NOT_FOUND", "route not found")
	})
}

func (s *Server) Handler() http.Handler {
	return s.r
}

func (s *Server) Run() error {
	return s.r.Run(s.cfg.HTTPAddr)
}

func (s *Server) recover(c *gin.Context, recovered any) {
	s.logger.ErrorContext(c.Request.Context(), "panic in handler", "path", c.Request.URL.Path, "panic", recovered)
	writeErrorCode(c, http.StatusInternalServerError, "INTERNAL", "internal error")
	c.Abort()
}
