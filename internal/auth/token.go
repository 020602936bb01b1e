package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/hongminglow/auth-recovery-be/internal/models"
)

// ErrInvalidToken is returned for any token that fails verification. Callers
// must not tell clients which check failed.
var ErrInvalidToken = errors.New("invalid or expired token")

// Purpose restricts what a token may be used for.
type Purpose string

const (
	PurposeSession  Purpose = "session"
	PurposeReset    Purpose = "reset"
	PurposeRecovery Purpose = "recovery"
)

// Claims is the payload carried by every token this package issues.
type Claims struct {
	Purpose  Purpose `json:"purpose"`
	Username string  `json:"username,omitempty"`
	jwt.RegisteredClaims
}

// UserID parses the subject back into a store identifier.
func (c Claims) UserID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return 0, ErrInvalidToken
	}
	return id, nil
}

// Remaining reports how long the token stays valid after now.
func (c Claims) Remaining(now time.Time) time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	return c.ExpiresAt.Sub(now)
}

// TTLs holds the lifetime of each token purpose.
type TTLs struct {
	Session  time.Duration
	Reset    time.Duration
	Recovery time.Duration
}

// DefaultTTLs are the lifetimes used when none are configured.
var DefaultTTLs = TTLs{
	Session:  time.Hour,
	Reset:    15 * time.Minute,
	Recovery: 10 * time.Minute,
}

// TokenManager issues and verifies signed JWTs.
type TokenManager struct {
	secret []byte
	issuer string
	ttls   TTLs
	now    func() time.Time
}

// NewTokenManager creates a manager with the provided secret, issuer, and lifetimes.
// Zero lifetimes fall back to DefaultTTLs.
func NewTokenManager(secret, issuer string, ttls TTLs) *TokenManager {
	if ttls.Session <= 0 {
		ttls.Session = DefaultTTLs.Session
	}
	if ttls.Reset <= 0 {
		ttls.Reset = DefaultTTLs.Reset
	}
	if ttls.Recovery <= 0 {
		ttls.Recovery = DefaultTTLs.Recovery
	}
	return &TokenManager{
		secret: []byte(secret),
		issuer: issuer,
		ttls:   ttls,
		now:    time.Now,
	}
}

// WithClock returns a copy of the manager that reads time from now.
func (t *TokenManager) WithClock(now func() time.Time) *TokenManager {
	cp := *t
	cp.now = now
	return &cp
}

// Now exposes the manager's clock so callers compute remaining validity consistently.
func (t *TokenManager) Now() time.Time {
	return t.now()
}

// IssueSession signs a one-hour session token carrying id and username.
func (t *TokenManager) IssueSession(user models.User) (string, error) {
	return t.issue(user, PurposeSession, t.ttls.Session)
}

// IssueReset signs a token for the emailed reset link. The payload names the user id only.
func (t *TokenManager) IssueReset(user models.User) (string, error) {
	return t.issue(user, PurposeReset, t.ttls.Reset)
}

// IssueRecovery signs the token handed out after a correct secret answer.
func (t *TokenManager) IssueRecovery(user models.User) (string, error) {
	return t.issue(user, PurposeRecovery, t.ttls.Recovery)
}

func (t *TokenManager) issue(user models.User, purpose Purpose, ttl time.Duration) (string, error) {
	now := t.now()
	claims := Claims{
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.issuer,
			Subject:   strconv.FormatInt(user.ID, 10),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if purpose == PurposeSession {
		claims.Username = user.Username
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, algorithm, issuer, expiry, and purpose.
func (t *TokenManager) Verify(tokenString string, purpose Purpose) (Claims, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims,
		func(*jwt.Token) (any, error) { return t.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(t.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil || !token.Valid {
		return Claims{}, ErrInvalidToken
	}
	if claims.Purpose != purpose || claims.ID == "" {
		return Claims{}, ErrInvalidToken
	}
	if _, err := claims.UserID(); err != nil {
		return Claims{}, err
	}
	return claims, nil
}
