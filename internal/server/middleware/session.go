// Package middleware содержит HTTP middleware сервера.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/IvanChernomyrdin/go-geoauth/internal/server/crypto"
)

// ctxKey используется как тип ключа для хранения значений в context.Context.
// Отдельный тип предотвращает коллизии ключей между пакетами.
type ctxKey string

// sessionIDKey — ключ контекста, под которым хранится id сессии из cookie.
const sessionIDKey ctxKey = "session_id"

// SessionVerifier проверяет подписанную session cookie.
//
// Используется в HTTP middleware для:
//   - чтения cookie с заданным именем
//   - проверки подписи, срока и issuer/audience
//   - извлечения id сессии из claims
type SessionVerifier struct {
	Cookie     crypto.CookieConfig
	CookieName string
}

// NewSessionVerifier создаёт новый SessionVerifier.
func NewSessionVerifier(cfg crypto.CookieConfig, cookieName string) *SessionVerifier {
	return &SessionVerifier{Cookie: cfg, CookieName: cookieName}
}

// SessionIDFromContext извлекает id сессии из контекста.
//
// Возвращает:
//   - id сессии
//   - false, если валидной cookie в запросе не было
func SessionIDFromContext(ctx context.Context) (string, bool) {
	s, ok := ctx.Value(sessionIDKey).(string)
	return s, ok && s != ""
}

// WithSessionID кладёт id сессии в контекст.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDKey, id)
}

// SessionID возвращает id сессии из cookie запроса или "", если cookie
// нет либо она не прошла проверку.
func (v *SessionVerifier) SessionID(r *http.Request) string {
	c, err := r.Cookie(v.CookieName)
	if err != nil {
		return ""
	}
	value := strings.TrimSpace(c.Value)
	if value == "" {
		return ""
	}
	id, err := crypto.ParseSessionCookie(value, v.Cookie)
	if err != nil {
		return ""
	}
	return id
}

// LoadSession возвращает middleware, которое кладёт id сессии в контекст.
//
// Запрос без cookie или с поддельной cookie пропускается дальше
// без id: решение об ответе 401 принимает обработчик.
func (v *SessionVerifier) LoadSession() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if id := v.SessionID(r); id != "" {
				r = r.WithContext(WithSessionID(r.Context(), id))
			}
			next.ServeHTTP(w, r)
		})
	}
}
