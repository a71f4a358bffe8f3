package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nikodemkorbiel18-create/scale-5000/internal/sessions"
	"github.com/nikodemkorbiel18-create/scale-5000/internal/users"
	"github.com/nikodemkorbiel18-create/scale-5000/pkg/logger"
)

// CredentialsRequest is the body of signup and login.
type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// CookieConfig controls the session cookie.
type CookieConfig struct {
	Name   string
	Secure bool
	MaxAge time.Duration
}

// AuthHandler holds dependencies
type AuthHandler struct {
	gate   *sessions.Gate
	cookie CookieConfig
}

func NewAuthHandler(gate *sessions.Gate, cookie CookieConfig) *AuthHandler {
	if cookie.Name == "" {
		cookie.Name = "sid"
	}
	if cookie.MaxAge <= 0 {
		cookie.MaxAge = gate.TTL()
	}
	return &AuthHandler{gate: gate, cookie: cookie}
}

// Register routes under the given group
func (h *AuthHandler) Register(rg *gin.RouterGroup) {
	rg.POST("/signup", h.Signup)
	rg.POST("/login", h.Login)
	rg.POST("/logout", h.Logout)
	rg.GET("/me", h.Me)
}

func (h *AuthHandler) bindCredentials(c *gin.Context) (CredentialsRequest, bool) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password required"})
		return req, false
	}
	return req, true
}

// Signup creates an account and logs it in.
func (h *AuthHandler) Signup(c *gin.Context) {
	req, ok := h.bindCredentials(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	id, err := h.gate.Register(ctx, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, users.ErrDuplicateEmail):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Email already exists"})
		case errors.Is(err, users.ErrMissingCredentials):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password required"})
		default:
			logger.Errorf("signup error: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		}
		return
	}
	token, err := h.gate.Login(ctx, id)
	if err != nil {
		logger.Errorf("signup session error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}
	h.setCookie(c, token)
	c.JSON(http.StatusOK, gin.H{"success": true, "userId": id})
}

// Login verifies credentials and opens a session.
func (h *AuthHandler) Login(c *gin.Context) {
	req, ok := h.bindCredentials(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	id, err := h.gate.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, users.ErrInvalidCredentials):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		case errors.Is(err, users.ErrMissingCredentials):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password required"})
		default:
			logger.Errorf("login error: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		}
		return
	}
	token, err := h.gate.Login(ctx, id)
	if err != nil {
		logger.Errorf("login session error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}
	h.setCookie(c, token)
	c.JSON(http.StatusOK, gin.H{"success": true, "userId": id})
}

// Logout destroys the session and clears the cookie. It always succeeds.
func (h *AuthHandler) Logout(c *gin.Context) {
	if token, err := c.Cookie(h.cookie.Name); err == nil && token != "" {
		if err := h.gate.Logout(c.Request.Context(), token); err != nil {
			logger.Warnf("logout: failed to delete session: %v", err)
		}
	}
	h.clearCookie(c)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Me returns the current account.
func (h *AuthHandler) Me(c *gin.Context) {
	token, _ := c.Cookie(h.cookie.Name)
	u, err := h.gate.CurrentUser(c.Request.Context(), token)
	if err != nil {
		if errors.Is(err, sessions.ErrUnauthenticated) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			return
		}
		logger.Errorf("get user error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *AuthHandler) setCookie(c *gin.Context, token string) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.cookie.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearCookie(c *gin.Context) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
