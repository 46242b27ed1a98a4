package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cappelaere/wai-bee/internal/common/cnst"
	"github.com/cappelaere/wai-bee/internal/common/errorx"
	"github.com/cappelaere/wai-bee/internal/guard"
	"github.com/cappelaere/wai-bee/internal/scores"
)

// ListScholarships enumerates the scholarships the session may access.
func (h *Handler) ListScholarships(c *gin.Context) {
	g := h.guardFor(c)
	list, err := g.AccessibleScholarships()
	if err != nil {
		h.errHandler.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"scholarships": list})
}

// aggregatorFor resolves the scholarship in the URL through the guard and
// returns a score aggregator rooted at its data folder.
func (h *Handler) aggregatorFor(c *gin.Context, g *guard.Guard) (*scores.Aggregator, bool) {
	if !g.HasPermission(cnst.PermissionRead) {
		h.errHandler.HandleError(c, errorx.ErrForbidden)
		return nil, false
	}
	root, err := g.DataRoot(c.Param("id"))
	if err != nil {
		h.errHandler.HandleError(c, err)
		return nil, false
	}
	return scores.New(h.logger, root), true
}

// Applications lists the application ids of a scholarship.
func (h *Handler) Applications(c *gin.Context) {
	agg, ok := h.aggregatorFor(c, h.guardFor(c))
	if !ok {
		return
	}
	ids, err := agg.ListApplicationIDs()
	if err != nil {
		h.errHandler.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"applications": ids})
}

// Scores returns every normalized application score for a scholarship.
func (h *Handler) Scores(c *gin.Context) {
	agg, ok := h.aggregatorFor(c, h.guardFor(c))
	if !ok {
		return
	}

	start := time.Now()
	all, err := agg.AllScores(c.Request.Context())
	if err != nil {
		h.errHandler.HandleError(c, err)
		return
	}
	h.metrics.AggregationDone("scores", start)
	c.JSON(http.StatusOK, gin.H{"scores": all})
}

// TopScores returns the highest-scoring applications, bounded by limit.
func (h *Handler) TopScores(c *gin.Context) {
	agg, ok := h.aggregatorFor(c, h.guardFor(c))
	if !ok {
		return
	}

	limit := 10
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			h.errHandler.HandleError(c, errorx.ErrInvalidLimit)
			return
		}
		limit = parsed
	}

	top, err := agg.TopScores(c.Request.Context(), limit)
	if err != nil {
		h.errHandler.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"scores": top})
}

// Statistics returns the aggregate statistics snapshot for a scholarship.
func (h *Handler) Statistics(c *gin.Context) {
	agg, ok := h.aggregatorFor(c, h.guardFor(c))
	if !ok {
		return
	}

	start := time.Now()
	snapshot, err := agg.Statistics(c.Request.Context())
	if err != nil {
		h.errHandler.HandleError(c, err)
		return
	}
	h.metrics.AggregationDone("statistics", start)
	c.JSON(http.StatusOK, snapshot)
}
