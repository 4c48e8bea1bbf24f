package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Ошибки токенов сессии.
var (
	// ErrNotConfigured — секрет JWT не задан.
	ErrNotConfigured = errors.New("jwt secret is not configured")

	// ErrInvalidToken — токен повреждён, подписан другим ключом или истёк.
	ErrInvalidToken = errors.New("invalid admin token")
)

// Session — проверенная сессия администратора.
type Session struct {
	Username  string
	ExpiresAt time.Time
}

// TokenIssuer выпускает и проверяет токены сессии.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer создаёт TokenIssuer. now == nil — time.Now.
func NewTokenIssuer(secret string, ttl time.Duration, now func() time.Time) *TokenIssuer {
	if now == nil {
		now = time.Now
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: now}
}

// TTL возвращает время жизни сессии.
func (i *TokenIssuer) TTL() time.Duration {
	return i.ttl
}

// Issue выпускает токен для username.
func (i *TokenIssuer) Issue(username string) (string, error) {
	if len(i.secret) == 0 {
		return "", ErrNotConfigured
	}
	now := i.now()
	claims := jwt.RegisteredClaims{
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign admin token: %w", err)
	}
	return token, nil
}

// Parse проверяет подпись и срок действия токена.
func (i *TokenIssuer) Parse(raw string) (*Session, error) {
	if len(i.secret) == 0 {
		return nil, ErrNotConfigured
	}

	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(raw, &claims,
		func(*jwt.Token) (any, error) { return i.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: empty subject", ErrInvalidToken)
	}

	return &Session{Username: claims.Subject, ExpiresAt: claims.ExpiresAt.Time}, nil
}
