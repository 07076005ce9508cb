// Package api реализует HTTP-слой сервера geoauth.
//
// Пакет отвечает за:
//   - обработку входящих запросов и формирование ответов (JSON, статусы);
//   - выдачу и очистку session cookie;
//   - определение IP клиента для геолокации;
//   - маппинг доменных ошибок (service/repository) в HTTP-коды и сообщения.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/IvanChernomyrdin/go-geoauth/internal/server/middleware"
	"github.com/IvanChernomyrdin/go-geoauth/internal/server/service"
	serr "github.com/IvanChernomyrdin/go-geoauth/internal/shared/errors"
	"github.com/IvanChernomyrdin/go-geoauth/internal/shared/logger"
	"github.com/IvanChernomyrdin/go-geoauth/internal/shared/models"
)

// Каждый метод если будет возвращать ответ то будет это делать в JSON
// Вынес Content-Type и JSON для удобства
const (
	JsonContentType string = "application/json"
	FormContentType string = "application/x-www-form-urlencoded"
	ContentType     string = "Content-Type"
)

// DefaultMaxBodyBytes — лимит тела запроса, если в конфиге не задан.
const DefaultMaxBodyBytes int64 = 1 << 20

// Pinger — проверка доступности хранилища для /healthz (*sql.DB подходит).
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Options — настройки HTTP-слоя из конфига сервера.
type Options struct {
	// TrustProxy — брать IP клиента из X-Forwarded-For.
	TrustProxy bool
	// SecureCookie — ставить cookie флаг Secure.
	SecureCookie bool
	// MaxBodyBytes — лимит тела запроса. 0 — DefaultMaxBodyBytes.
	MaxBodyBytes int64
	// DB — для /healthz. nil — хранилище не проверяется.
	DB Pinger
}

// Handler агрегирует зависимости HTTP-слоя и предоставляет методы-хендлеры.
//
// Handler содержит:
//   - Svc: сервисный слой (бизнес-логика);
//   - Log: логгер для записи событий и ошибок;
//   - Verifier: проверка подписи session cookie.
//
// Методы Handler используются роутером для обработки HTTP-запросов.
type Handler struct {
	Svc      *service.Services
	Log      *logger.HTTPLogger
	Verifier *middleware.SessionVerifier
	Opts     Options
}

// NewHandler создаёт экземпляр Handler с переданными зависимостями.
//
// svc — набор сервисов приложения,
// log — логгер,
// verifier — проверка и подпись session cookie,
// opts — настройки HTTP-слоя.
func NewHandler(svc *service.Services, log *logger.HTTPLogger, verifier *middleware.SessionVerifier, opts Options) *Handler {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	return &Handler{
		Svc:      svc,
		Log:      log,
		Verifier: verifier,
		Opts:     opts,
	}
}

// Healthz отвечает 200, если хранилище доступно, иначе 503.
//
// @Summary      Health check
// @Tags         service
// @Produce      json
// @Success      200 {object} models.StatusResponse
// @Failure      503 {object} models.ErrorResponse "Store unavailable"
// @Router       /healthz [get]
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	if h.Opts.DB != nil {
		if err := h.Opts.DB.PingContext(r.Context()); err != nil {
			h.Log.Sugar().Errorf("healthz: %v", err)
			WriteError(w, http.StatusServiceUnavailable, serr.ErrStoreUnavailable)
			return
		}
	}
	writeJSON(w, http.StatusOK, models.StatusResponse{Status: "ok"})
}

// Вспомогательная функция вывода ошибки
func WriteError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, models.ErrorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set(ContentType, JsonContentType)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
