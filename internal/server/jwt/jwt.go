package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Ошибки проверки токена
var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

const issuer = "readshare"

// Claims represents JWT claims. The principal ID is the only custom claim.
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// Config содержит секреты и время жизни токенов.
// Access и refresh подписываются разными секретами.
type Config struct {
	AccessSecret    []byte
	RefreshSecret   []byte
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

// Issuer выпускает и проверяет access и refresh токены
type Issuer struct {
	cfg Config
	now func() time.Time
}

// NewIssuer creates a token issuer.
func NewIssuer(cfg Config) *Issuer {
	return &Issuer{cfg: cfg, now: time.Now}
}

// WithClock подменяет источник времени (для тестов)
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	i.now = now
	return i
}

// AccessTTL returns the configured access-token lifetime.
func (i *Issuer) AccessTTL() time.Duration {
	return i.cfg.AccessTokenTTL
}

// IssueAccess mints a short-lived access token for the principal.
// Returns the token and its expiry.
func (i *Issuer) IssueAccess(userID string) (string, time.Time, error) {
	return i.issue(userID, i.cfg.AccessSecret, i.cfg.AccessTokenTTL)
}

// IssueRefresh mints a refresh token for the principal.
// Every token gets a unique jti, so two logins in the same second never collide.
func (i *Issuer) IssueRefresh(userID string) (string, time.Time, error) {
	return i.issue(userID, i.cfg.RefreshSecret, i.cfg.RefreshTokenTTL)
}

// VerifyAccess проверяет подпись и срок действия access токена
func (i *Issuer) VerifyAccess(token string) (*Claims, error) {
	return i.verify(token, i.cfg.AccessSecret)
}

// VerifyRefresh проверяет подпись и срок действия refresh токена.
// Членство в наборе пользователя проверяется отдельно, в хранилище.
func (i *Issuer) VerifyRefresh(token string) (*Claims, error) {
	return i.verify(token, i.cfg.RefreshSecret)
}

func (i *Issuer) issue(userID string, secret []byte, ttl time.Duration) (string, time.Time, error) {
	if userID == "" {
		return "", time.Time{}, fmt.Errorf("user id cannot be empty")
	}

	now := i.now()
	expiresAt := now.Add(ttl)

	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, expiresAt, nil
}

func (i *Issuer) verify(tokenString string, secret []byte) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrTokenInvalid
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", ErrTokenExpired, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	if !token.Valid || claims.UserID == "" {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}
