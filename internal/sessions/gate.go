package sessions

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/acompanha/acompanha/internal/models"
	"github.com/acompanha/acompanha/internal/tokens"
	"github.com/gin-gonic/gin"
)

const (
	SessionCookie = "token"
	CSRFCookie    = "csrf"
	CSRFHeader    = "X-CSRF-Token"

	DefaultTTL = 2 * time.Hour
)

var (
	// ErrAuth means the session token is absent, malformed, forged or expired.
	ErrAuth = errors.New("not authenticated")
	// ErrCSRF means the anti-forgery cookie and header are absent or differ.
	ErrCSRF = errors.New("csrf token mismatch")
)

// Identity is what a valid session token proves about its holder.
type Identity struct {
	UserID string `json:"-"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

// Credentials are the two values handed to a client at login.
type Credentials struct {
	SessionToken string
	CSRFToken    string
	ExpiresAt    time.Time
}

type Config struct {
	Secret string
	TTL    time.Duration
	// Secure marks both cookies Secure (HTTPS only).
	Secure bool
	Now    func() time.Time
}

// Gate issues and verifies session and anti-forgery credentials. It holds no
// per-session state: the session token is self-contained and the CSRF check
// compares the cookie with the header.
type Gate struct {
	secret string
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

func NewGate(cfg Config) (*Gate, error) {
	if cfg.Secret == "" {
		return nil, tokens.ErrEmptySecret
	}
	g := &Gate{secret: cfg.Secret, ttl: cfg.TTL, secure: cfg.Secure, now: cfg.Now}
	if g.ttl <= 0 {
		g.ttl = DefaultTTL
	}
	if g.now == nil {
		g.now = time.Now
	}
	return g, nil
}

func (g *Gate) TTL() time.Duration { return g.ttl }

// Issue creates a session token for u and a fresh CSRF token.
func (g *Gate) Issue(u models.User) (Credentials, error) {
	now := g.now()
	tok, err := tokens.GenerateAccessToken(g.secret, u, now, g.ttl)
	if err != nil {
		return Credentials{}, fmt.Errorf("sign session: %w", err)
	}
	csrf, err := newCSRFToken()
	if err != nil {
		return Credentials{}, fmt.Errorf("csrf token: %w", err)
	}
	return Credentials{SessionToken: tok, CSRFToken: csrf, ExpiresAt: now.Add(g.ttl)}, nil
}

// VerifySession returns the identity bound to token. Every failure wraps ErrAuth.
func (g *Gate) VerifySession(token string) (Identity, error) {
	if token == "" {
		return Identity{}, ErrAuth
	}
	claims, err := tokens.ParseAccessToken(g.secret, token, g.now())
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrAuth, err)
	}
	if claims.Subject == "" {
		return Identity{}, fmt.Errorf("%w: token has no subject", ErrAuth)
	}
	return Identity{UserID: claims.Subject, Email: claims.Email, Role: claims.Role}, nil
}

// VerifyCSRF requires both values present and byte-for-byte equal.
func (g *Gate) VerifyCSRF(cookieToken, headerToken string) error {
	if cookieToken == "" || headerToken == "" {
		return ErrCSRF
	}
	if subtle.ConstantTimeCompare([]byte(cookieToken), []byte(headerToken)) != 1 {
		return ErrCSRF
	}
	return nil
}

// SetCookies writes both credentials. The session cookie is HttpOnly; the
// CSRF cookie must stay readable by the client so it can echo it.
func (g *Gate) SetCookies(c *gin.Context, cr Credentials) {
	maxAge := int(g.ttl / time.Second)
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(SessionCookie, cr.SessionToken, maxAge, "/", "", g.secure, true)
	c.SetCookie(CSRFCookie, cr.CSRFToken, maxAge, "/", "", g.secure, false)
}

// Revoke clears both cookies. Tokens already copied elsewhere stay valid
// until they expire.
func (g *Gate) Revoke(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(SessionCookie, "", -1, "/", "", g.secure, true)
	c.SetCookie(CSRFCookie, "", -1, "/", "", g.secure, false)
}

func newCSRFToken() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
