package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cappelaere/wai-bee/internal/apiserver/middleware"
	"github.com/cappelaere/wai-bee/internal/common/cnst"
	"github.com/cappelaere/wai-bee/internal/common/errorx"
)

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type selectScholarshipRequest struct {
	Scholarship string `json:"scholarship" binding:"required"`
}

// Login authenticates a user and issues a session token. The token is
// returned in the body and also set as a cookie for browser callers.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errHandler.HandleError(c, errorx.ErrInvalidInput)
		return
	}

	if !h.authService.Authenticate(req.Username, req.Password) {
		h.metrics.AuthAttempt("failed")
		h.errHandler.HandleError(c, errorx.ErrUnauthorized)
		return
	}
	h.metrics.AuthAttempt("ok")

	token, err := h.authService.Issue(c.Request.Context(), req.Username)
	if err != nil {
		h.errHandler.HandleError(c, err)
		return
	}

	c.SetCookie(cnst.SessionCookieName, token.ID, 0, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{
		"token": token.ID,
		"user": gin.H{
			"username":     token.Username,
			"role":         token.Role,
			"scholarships": token.Scholarships,
			"permissions":  token.Permissions,
		},
	})
}

// Logout revokes the current session. Revoking an already-gone token still
// succeeds.
func (h *Handler) Logout(c *gin.Context) {
	tokenID := middleware.ExtractToken(c)
	h.authService.Revoke(c.Request.Context(), tokenID)
	c.SetCookie(cnst.SessionCookieName, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"status": "logged out"})
}

// Me returns the session snapshot for the presented token.
func (h *Handler) Me(c *gin.Context) {
	token := sessionFrom(c)
	c.JSON(http.StatusOK, gin.H{
		"username":     token.Username,
		"role":         token.Role,
		"scholarships": token.Scholarships,
		"permissions":  token.Permissions,
		"scholarship":  token.Scholarship,
	})
}

// SelectScholarship records the caller's chosen scholarship after checking
// access.
func (h *Handler) SelectScholarship(c *gin.Context) {
	var req selectScholarshipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errHandler.HandleError(c, errorx.ErrInvalidInput)
		return
	}

	g := h.guardFor(c)
	if !g.CanAccessScholarship(req.Scholarship) {
		h.errHandler.HandleError(c, errorx.ErrScholarshipForbidden)
		return
	}

	tokenID := middleware.ExtractToken(c)
	if err := h.authService.SelectScholarship(c.Request.Context(), tokenID, req.Scholarship); err != nil {
		h.errHandler.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"scholarship": req.Scholarship})
}
