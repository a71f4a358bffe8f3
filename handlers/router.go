package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/nikodemkorbiel18-create/scale-5000/internal/audit"
	"github.com/nikodemkorbiel18-create/scale-5000/internal/export"
	"github.com/nikodemkorbiel18-create/scale-5000/internal/sessions"
	"github.com/nikodemkorbiel18-create/scale-5000/pkg/middleware"
)

// API bundles what the /api routes need.
type API struct {
	Gate      *sessions.Gate
	Audits    *audit.Service
	Publisher *export.Publisher
	Cookie    CookieConfig
	// RateLimit, when set, throttles POST /api/audit per identity.
	RateLimit gin.HandlerFunc
}

// RegisterAPI mounts every /api route on r.
func RegisterAPI(r *gin.Engine, api API) {
	auth := NewAuthHandler(api.Gate, api.Cookie)
	g := r.Group("/api")
	auth.Register(g)

	requireAuth := middleware.RequireIdentity(api.Gate, auth.cookie.Name)
	NewAuditHandler(api.Audits, api.Publisher).Register(g, requireAuth, api.RateLimit)
}
