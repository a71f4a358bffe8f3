package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nikodemkorbiel18-create/scale-5000/internal/audit"
	"github.com/nikodemkorbiel18-create/scale-5000/internal/export"
	"github.com/nikodemkorbiel18-create/scale-5000/pkg/logger"
	"github.com/nikodemkorbiel18-create/scale-5000/pkg/middleware"
)

// AuditHandler serves audit generation, history and publishing.
type AuditHandler struct {
	svc *audit.Service
	pub *export.Publisher
}

func NewAuditHandler(svc *audit.Service, pub *export.Publisher) *AuditHandler {
	if pub == nil {
		pub = export.NewPublisher(nil, 0)
	}
	return &AuditHandler{svc: svc, pub: pub}
}

// Register mounts the audit routes behind requireAuth. limit, when non-nil,
// throttles audit generation only.
func (h *AuditHandler) Register(rg *gin.RouterGroup, requireAuth gin.HandlerFunc, limit gin.HandlerFunc) {
	auth := rg.Group("", requireAuth)
	if limit != nil {
		auth.POST("/audit", limit, h.Create)
	} else {
		auth.POST("/audit", h.Create)
	}
	auth.GET("/audits", h.List)
	auth.POST("/publish-audit", h.Publish)
}

// AuditResponse is returned by POST /audit.
type AuditResponse struct {
	Success bool                    `json:"success"`
	Audit   string                  `json:"audit"`
	AuditID string                  `json:"auditId"`
	Result  *audit.StructuredResult `json:"result,omitempty"`
}

// Create generates and stores an audit for the caller.
func (h *AuditHandler) Create(c *gin.Context) {
	var in audit.Intake
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Business description required"})
		return
	}
	rec, err := h.svc.Submit(c.Request.Context(), middleware.IdentityFrom(c), in)
	if err != nil {
		switch {
		case errors.Is(err, audit.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Business description required"})
		case errors.Is(err, audit.ErrMissingIdentity):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		case errors.Is(err, audit.ErrStorageUnavailable):
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save audit"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate audit"})
		}
		return
	}
	c.JSON(http.StatusOK, AuditResponse{Success: true, Audit: rec.Response, AuditID: rec.ID, Result: rec.Result})
}

// List returns the caller's audits newest first.
func (h *AuditHandler) List(c *gin.Context) {
	recs, err := h.svc.History(c.Request.Context(), middleware.IdentityFrom(c))
	if err != nil {
		if errors.Is(err, audit.ErrMissingIdentity) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		logger.Errorf("get audits error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch audits"})
		return
	}
	c.JSON(http.StatusOK, recs)
}

// PublishRequest is the body of POST /publish-audit. AuditContent is
// accepted for compatibility; the stored audit text is what gets published.
type PublishRequest struct {
	AuditID      string `json:"auditId"`
	AuditContent string `json:"auditContent,omitempty"`
}

// Publish exports one of the caller's audits.
func (h *AuditHandler) Publish(c *gin.Context) {
	var req PublishRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.AuditID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "auditId required"})
		return
	}
	if !h.pub.Configured() {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "Publishing is not configured"})
		return
	}
	ctx := c.Request.Context()
	rec, err := h.svc.Get(ctx, middleware.IdentityFrom(c), req.AuditID)
	if err != nil {
		switch {
		case errors.Is(err, audit.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Audit not found"})
		case errors.Is(err, audit.ErrMissingIdentity):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		default:
			logger.Errorf("publish lookup error: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		}
		return
	}
	loc, err := h.pub.Publish(ctx, rec.ID, rec.Response)
	if err != nil {
		if errors.Is(err, export.ErrNotConfigured) {
			c.JSON(http.StatusNotImplemented, gin.H{"error": "Publishing is not configured"})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to publish audit"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "location": loc})
}
