// Package crypto содержит криптографические примитивы сервера:
//   - хэширование и проверку паролей (bcrypt, argon2id);
//   - генерацию идентификаторов сессий;
//   - подпись значения session cookie (HS256 JWT), чтобы поддельные cookie
//     отбрасывались без похода в хранилище сессий.
package crypto

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidCookie — подпись, срок или claims cookie не прошли проверку.
var ErrInvalidCookie = errors.New("invalid session cookie")

// CookieConfig описывает параметры подписи session cookie.
type CookieConfig struct {
	// Issuer — значение поля iss.
	Issuer string
	// Audience — значение поля aud.
	Audience string
	// SigningKey — секрет для HS256.
	SigningKey string
	// TTL — срок жизни cookie, совпадает со сроком жизни сессии.
	TTL time.Duration
}

// SignSessionCookie заворачивает id сессии в подписанный JWT (id кладётся в jti).
func SignSessionCookie(sessionID string, cfg CookieConfig) (string, error) {
	now := time.Now()

	claims := jwt.RegisteredClaims{
		ID:       sessionID,
		Issuer:   cfg.Issuer,
		IssuedAt: jwt.NewNumericDate(now),
	}
	if cfg.Audience != "" {
		claims.Audience = jwt.ClaimStrings{cfg.Audience}
	}
	if cfg.TTL != 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(cfg.TTL))
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(cfg.SigningKey))
}

// ParseSessionCookie проверяет подпись и claims и возвращает id сессии.
func ParseSessionCookie(value string, cfg CookieConfig) (string, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name})}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.NewParser(opts...).ParseWithClaims(value, claims, func(t *jwt.Token) (any, error) {
		return []byte(cfg.SigningKey), nil
	})
	if err != nil {
		return "", ErrInvalidCookie
	}

	id := strings.TrimSpace(claims.ID)
	if id == "" {
		return "", ErrInvalidCookie
	}
	return id, nil
}
