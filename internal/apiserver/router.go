package apiserver

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cappelaere/wai-bee/internal/apiserver/handler"
	"github.com/cappelaere/wai-bee/internal/apiserver/middleware"
	"github.com/cappelaere/wai-bee/internal/auth"
	"github.com/cappelaere/wai-bee/internal/directory"
	"github.com/cappelaere/wai-bee/internal/review"
	"github.com/cappelaere/wai-bee/pkg/metrics"
)

// NewRouter wires the HTTP surface around the core components.
func NewRouter(logger *zap.Logger, dir *directory.Directory, authService *auth.Service, ledger *review.Ledger, m *metrics.Metrics) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(m.Middleware())

	h := handler.NewHandler(logger, dir, authService, ledger, m)

	router.GET("/metrics", gin.WrapH(m.Handler()))
	router.POST("/api/auth/login", h.Login)

	api := router.Group("/api", middleware.SessionAuthMiddleware(authService))
	{
		api.POST("/auth/logout", h.Logout)
		api.GET("/auth/me", h.Me)
		api.POST("/auth/scholarship", h.SelectScholarship)

		api.GET("/scholarships", h.ListScholarships)
		api.GET("/scholarships/:id/applications", h.Applications)
		api.GET("/scholarships/:id/scores", h.Scores)
		api.GET("/scholarships/:id/scores/top", h.TopScores)
		api.GET("/scholarships/:id/statistics", h.Statistics)

		api.POST("/scholarships/:id/reviews", h.SubmitReview)
		api.POST("/scholarships/:id/reviews/summary", h.ReviewSummary)
		api.GET("/reviews", h.MyReviews)
	}

	return router
}
