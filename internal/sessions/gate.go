package sessions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nikodemkorbiel18-create/scale-5000/internal/models"
	"github.com/nikodemkorbiel18-create/scale-5000/internal/tokens"
	"github.com/nikodemkorbiel18-create/scale-5000/internal/users"
	"github.com/nikodemkorbiel18-create/scale-5000/pkg/logger"
)

// ErrUnauthenticated means the request carries no valid session.
var ErrUnauthenticated = errors.New("unauthenticated")

// Gate turns credentials into sessions and session tokens into identities.
type Gate struct {
	users    *users.Service
	sessions *Service
	secret   string
	ttl      time.Duration
}

func NewGate(u *users.Service, s *Service, secret string, ttl time.Duration) *Gate {
	return &Gate{users: u, sessions: s, secret: secret, ttl: ttl}
}

// TTL is the session lifetime, also used for the cookie Max-Age.
func (g *Gate) TTL() time.Duration { return g.ttl }

// Register creates an account. The caller logs it in separately.
func (g *Gate) Register(ctx context.Context, email, password string) (models.Identity, error) {
	u, err := g.users.Signup(ctx, email, password)
	if err != nil {
		return "", err
	}
	logger.Infof("signup user=%s", u.ID)
	return u.Identity(), nil
}

// Authenticate verifies credentials. It returns users.ErrInvalidCredentials
// for an unknown email or a wrong password.
func (g *Gate) Authenticate(ctx context.Context, email, password string) (models.Identity, error) {
	u, err := g.users.Authenticate(ctx, email, password)
	if err != nil {
		return "", err
	}
	return u.Identity(), nil
}

// Login opens a server-side session for id and returns the signed cookie token.
func (g *Gate) Login(ctx context.Context, id models.Identity) (string, error) {
	if id.IsZero() {
		return "", ErrUnauthenticated
	}
	sess, err := g.sessions.CreateSession(ctx, id.String(), g.ttl)
	if err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	token, err := tokens.GenerateSessionToken(g.secret, sess.ID, id.String(), g.ttl)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	logger.Debugf("session opened user=%s", id)
	return token, nil
}

// CurrentIdentity resolves a session token to the identity that owns it.
// Missing, forged, expired and logged-out tokens all yield ErrUnauthenticated.
func (g *Gate) CurrentIdentity(ctx context.Context, token string) (models.Identity, error) {
	if token == "" {
		return "", ErrUnauthenticated
	}
	claims, err := tokens.ParseSessionToken(g.secret, token)
	if err != nil {
		return "", ErrUnauthenticated
	}
	sess, err := g.sessions.Validate(ctx, claims.SessionID)
	if err != nil {
		return "", fmt.Errorf("load session: %w", err)
	}
	if sess == nil || sess.UserID != claims.Subject {
		return "", ErrUnauthenticated
	}
	return models.Identity(sess.UserID), nil
}

// CurrentUser returns the account behind a session token.
func (g *Gate) CurrentUser(ctx context.Context, token string) (*models.User, error) {
	id, err := g.CurrentIdentity(ctx, token)
	if err != nil {
		return nil, err
	}
	u, err := g.users.Get(ctx, id.String())
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}
	return u, nil
}

// Logout deletes the session named by token. Invalid or unknown tokens are
// ignored.
func (g *Gate) Logout(ctx context.Context, token string) error {
	claims, err := tokens.ParseSessionToken(g.secret, token)
	if err != nil {
		return nil
	}
	return g.sessions.Delete(ctx, claims.SessionID)
}
