// Package http реализует маршрутизацию HTTP-слоя сервера geoauth.
//
// Пакет отвечает за:
//   - регистрацию HTTP-маршрутов и настройку роутера (chi);
//   - логирование выполнения HTTP-запросов;
//   - чтение session cookie для всех маршрутов;
//   - раздачу статики и служебных эндпоинтов (swagger, метрики).
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/IvanChernomyrdin/go-geoauth/internal/server/api"
	"github.com/IvanChernomyrdin/go-geoauth/internal/server/metrics"
	"github.com/IvanChernomyrdin/go-geoauth/internal/server/middleware"
	"github.com/IvanChernomyrdin/go-geoauth/internal/shared/logger"
)

// Options — необязательные части роутера.
type Options struct {
	// Logger — логгер запросов. nil — логгер по умолчанию.
	Logger *logger.HTTPLogger
	// Gatherer — источник метрик. nil — эндпоинт метрик не регистрируется.
	Gatherer prometheus.Gatherer
	// MetricsPath — путь эндпоинта метрик.
	MetricsPath string
	// StaticDir — каталог со статическими страницами. Пусто — статика не раздаётся.
	StaticDir string
}

// NewRouter создаёт и настраивает HTTP-роутер сервера.
//
// Роутер использует chi.Router и регистрирует:
//   - middleware логирования и чтения session cookie для всех запросов;
//   - эндпоинты /signup, /login, /user, /logout;
//   - /healthz, swagger и, если включено, метрики;
//   - раздачу статики из opts.StaticDir.
func NewRouter(h *api.Handler, opts Options) http.Handler {
	r := chi.NewRouter()
	// логирование всех запросов
	r.Use(middleware.LoggerMiddleware(opts.Logger))
	// id сессии из cookie кладётся в контекст
	r.Use(h.Verifier.LoadSession())

	// добавляем swagger
	r.Get("/swagger/*", httpSwagger.WrapHandler)
	r.Get("/healthz", h.Healthz)
	if opts.Gatherer != nil && opts.MetricsPath != "" {
		r.Handle(opts.MetricsPath, metrics.Handler(opts.Gatherer))
	}

	r.Post("/signup", h.Signup)
	r.Post("/login", h.Login)
	r.Get("/user", h.CurrentUser)
	// выход работает и по ссылке, и из формы
	r.Get("/logout", h.Logout)
	r.Post("/logout", h.Logout)

	if opts.StaticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(opts.StaticDir)))
	}

	return r
}
