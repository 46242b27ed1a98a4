package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cappelaere/wai-bee/internal/apiserver/middleware"
	"github.com/cappelaere/wai-bee/internal/auth"
	"github.com/cappelaere/wai-bee/internal/common/errorx"
	"github.com/cappelaere/wai-bee/internal/directory"
	"github.com/cappelaere/wai-bee/internal/guard"
	"github.com/cappelaere/wai-bee/internal/review"
	"github.com/cappelaere/wai-bee/internal/session"
	"github.com/cappelaere/wai-bee/pkg/metrics"
)

// Handler serves the HTTP surface of the review platform. It only ever
// calls the core through verify, guard and aggregate operations.
type Handler struct {
	logger      *zap.Logger
	dir         *directory.Directory
	authService *auth.Service
	ledger      *review.Ledger
	metrics     *metrics.Metrics
	errHandler  *errorx.ErrorHandler
}

// NewHandler creates the HTTP handler set
func NewHandler(logger *zap.Logger, dir *directory.Directory, authService *auth.Service, ledger *review.Ledger, m *metrics.Metrics) *Handler {
	return &Handler{
		logger:      logger.Named("apiserver"),
		dir:         dir,
		authService: authService,
		ledger:      ledger,
		metrics:     m,
		errHandler:  errorx.NewErrorHandler(logger),
	}
}

// sessionFrom returns the verified session stored by the auth middleware.
func sessionFrom(c *gin.Context) *session.Token {
	value, exists := c.Get(middleware.SessionKey)
	if !exists {
		return nil
	}
	token, _ := value.(*session.Token)
	return token
}

// guardFor builds an access guard for the request's session.
func (h *Handler) guardFor(c *gin.Context) *guard.Guard {
	token := sessionFrom(c)
	if token == nil {
		return nil
	}
	return guard.New(h.logger, h.dir, token)
}
