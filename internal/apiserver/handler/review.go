package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cappelaere/wai-bee/internal/common/cnst"
	"github.com/cappelaere/wai-bee/internal/common/errorx"
)

type submitReviewRequest struct {
	WAINumber string `json:"wai_number" binding:"required"`
	Score     int    `json:"score" binding:"required"`
	Comment   string `json:"comment"`
}

// SubmitReview records the caller's score for one application.
func (h *Handler) SubmitReview(c *gin.Context) {
	var req submitReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errHandler.HandleError(c, errorx.ErrInvalidInput)
		return
	}

	g := h.guardFor(c)
	scholarshipID := c.Param("id")
	if !g.CanAccessScholarship(scholarshipID) {
		h.errHandler.HandleError(c, errorx.ErrScholarshipForbidden)
		return
	}
	if !g.HasPermission(cnst.PermissionWrite) {
		h.errHandler.HandleError(c, errorx.ErrForbidden)
		return
	}

	// Reviewer initials come from the directory, not the request body.
	account, err := h.dir.GetUser(g.Token().Username)
	if err != nil {
		h.errHandler.HandleError(c, err)
		return
	}
	if account.Initials == "" {
		h.errHandler.HandleError(c, errorx.ErrForbidden.WithDetail("reason", "account has no reviewer initials"))
		return
	}

	record, err := h.ledger.Submit(c.Request.Context(), scholarshipID, req.WAINumber,
		account.Username, account.Initials, req.Score, req.Comment)
	if err != nil {
		h.errHandler.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// MyReviews lists the caller's review records, optionally filtered to one
// scholarship via the scholarship query parameter.
func (h *Handler) MyReviews(c *gin.Context) {
	g := h.guardFor(c)
	scholarshipID := c.Query("scholarship")
	if scholarshipID != "" && !g.CanAccessScholarship(scholarshipID) {
		h.errHandler.HandleError(c, errorx.ErrScholarshipForbidden)
		return
	}

	account, err := h.dir.GetUser(g.Token().Username)
	if err != nil {
		h.errHandler.HandleError(c, err)
		return
	}

	records, err := h.ledger.ListForReviewer(c.Request.Context(), account.Username, account.Initials, scholarshipID)
	if err != nil {
		h.errHandler.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reviews": records})
}

// ReviewSummary aggregates every reviewer's scores for a scholarship into
// the ranked summary and persists it.
func (h *Handler) ReviewSummary(c *gin.Context) {
	g := h.guardFor(c)
	scholarshipID := c.Param("id")
	if !g.CanAccessScholarship(scholarshipID) {
		h.errHandler.HandleError(c, errorx.ErrScholarshipForbidden)
		return
	}
	if !g.HasPermission(cnst.PermissionRead) {
		h.errHandler.HandleError(c, errorx.ErrForbidden)
		return
	}

	start := time.Now()
	location, count, rows, err := h.ledger.Aggregate(c.Request.Context(), scholarshipID)
	if err != nil {
		h.errHandler.HandleError(c, err)
		return
	}
	h.metrics.AggregationDone("reviews", start)

	c.JSON(http.StatusOK, gin.H{
		"location": location,
		"count":    count,
		"rows":     rows,
	})
}
