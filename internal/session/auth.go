package session

import (
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"

	"github.com/JaimeStill/promptrepo/internal/config"
)

const (
	issuer         = "promptrepo"
	limiterEntries = 4096
	limiterIdle    = 15 * time.Minute
)

// Authenticator verifies the shared console password and issues signed
// session tokens.
type Authenticator struct {
	password     []byte
	passwordHash []byte
	secret       []byte
	ttl          time.Duration
	rate         rate.Limit
	burst        int
	limitersMu   sync.Mutex
	limiters     *expirable.LRU[string, *rate.Limiter]
	logger       *slog.Logger
	now          func() time.Time
}

// NewAuthenticator creates an Authenticator from cfg. When no session secret
// is configured a random one is generated, so tokens do not survive a restart.
func NewAuthenticator(cfg *config.AuthConfig, logger *slog.Logger) (*Authenticator, error) {
	logger = logger.With("system", "auth")

	secret := []byte(cfg.SessionSecret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("generate session secret: %w", err)
		}
		logger.Warn("no session secret configured; sessions end when the server restarts")
	}

	a := &Authenticator{
		password:     []byte(cfg.Password),
		passwordHash: []byte(cfg.PasswordHash),
		secret:       secret,
		ttl:          cfg.SessionTTLDuration(),
		rate:         rate.Limit(cfg.LoginRate),
		burst:        cfg.LoginBurst,
		limiters:     expirable.NewLRU[string, *rate.Limiter](limiterEntries, nil, limiterIdle),
		logger:       logger,
		now:          time.Now,
	}

	if !a.Configured() {
		logger.Warn("console password is not configured; logins will fail")
	}
	return a, nil
}

// Configured reports whether a password or password hash is set.
func (a *Authenticator) Configured() bool {
	return len(a.password) > 0 || len(a.passwordHash) > 0
}

// TTL is the lifetime of issued tokens.
func (a *Authenticator) TTL() time.Duration {
	return a.ttl
}

// Login checks password for a client identified by remote. Attempts are
// throttled per client.
func (a *Authenticator) Login(remote, password string) error {
	if !a.Configured() {
		return ErrPasswordNotConfigured
	}
	if !a.limiter(remote).Allow() {
		a.logger.Warn("login throttled", "remote", remote)
		return ErrTooManyAttempts
	}

	if len(a.passwordHash) > 0 {
		if err := bcrypt.CompareHashAndPassword(a.passwordHash, []byte(password)); err != nil {
			return ErrInvalidPassword
		}
		return nil
	}

	if subtle.ConstantTimeCompare(a.password, []byte(password)) != 1 {
		return ErrInvalidPassword
	}
	return nil
}

// Issue returns a signed token for sessionID and its expiry.
func (a *Authenticator) Issue(sessionID string) (string, time.Time, error) {
	now := a.now()
	expires := now.Add(a.ttl)

	claims := jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   sessionID,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session token: %w", err)
	}
	return token, expires, nil
}

// Verify validates token and returns the session id it carries.
func (a *Authenticator) Verify(token string) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("%w: token expired", ErrUnauthenticated)
		}
		return "", fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: token has no subject", ErrUnauthenticated)
	}
	return claims.Subject, nil
}

// HashPassword returns the bcrypt hash stored in auth.password_hash.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (a *Authenticator) limiter(remote string) *rate.Limiter {
	a.limitersMu.Lock()
	defer a.limitersMu.Unlock()

	if l, ok := a.limiters.Get(remote); ok {
		return l
	}
	l := rate.NewLimiter(a.rate, a.burst)
	a.limiters.Add(remote, l)
	return l
}
