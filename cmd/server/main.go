// @title           geoauth API
// @version         1.0
// @description     Email/password authentication with server-side sessions.
// @description     Approximate location (city, coordinates) is detected by client IP at signup.

// @contact.name   Ivan Chernomyrdin
// @contact.url    https://github.com/IvanChernomyrdin

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /
// @schemes http https
//
// Package main содержит точку входа серверного приложения geoauth.
//
// Пакет отвечает за инициализацию и жизненный цикл HTTP(S)-сервера, а именно:
//   - загрузку переменных окружения из файла .env (если он присутствует);
//   - загрузку конфигурации сервера из файла ./configs/server.yaml;
//   - инициализацию подключения к базе данных и миграции;
//   - выбор хранилища сессий (db или memory) и периодическую очистку просроченных;
//   - создание репозиториев, сервисов, middleware и HTTP-обработчиков;
//   - настройку и запуск HTTP(S)-сервера с заданными таймаутами;
//   - обработку системных сигналов завершения (SIGINT, SIGTERM, SIGQUIT);
//   - корректное (graceful) завершение работы сервера с таймаутом.
//
// Пакет не содержит бизнес-логики и не предназначен для unit-тестирования.
// HTTP API сервера реализовано в пакете internal/server/api и документируется с помощью OpenAPI (Swagger).
package main

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/IvanChernomyrdin/go-geoauth/internal/server/api"
	"github.com/IvanChernomyrdin/go-geoauth/internal/server/config"
	"github.com/IvanChernomyrdin/go-geoauth/internal/server/crypto"
	"github.com/IvanChernomyrdin/go-geoauth/internal/server/geo"
	"github.com/IvanChernomyrdin/go-geoauth/internal/server/metrics"
	"github.com/IvanChernomyrdin/go-geoauth/internal/server/middleware"
	h "github.com/IvanChernomyrdin/go-geoauth/internal/server/net/http"
	"github.com/IvanChernomyrdin/go-geoauth/internal/server/repository"
	"github.com/IvanChernomyrdin/go-geoauth/internal/server/service"
	"github.com/IvanChernomyrdin/go-geoauth/internal/shared/logger"

	_ "github.com/IvanChernomyrdin/go-geoauth/swagger/docs"
)

// janitorInterval — как часто чистить просроченные сессии.
const janitorInterval = 10 * time.Minute

// sessionStore — хранилище сессий с очисткой просроченных записей.
type sessionStore interface {
	service.SessionsRepo
	DeleteExpired(ctx context.Context) (int64, error)
}

func main() {
	boot := logger.NewHTTPLogger().Sugar()

	if err := godotenv.Load(); err != nil {
		boot.Warnf("no .env file loaded, error: %v", err)
	}

	cfg, err := config.Load("./configs/server.yaml")
	if err != nil {
		boot.Fatal(err)
	}

	httpLogger := logger.New(logger.Options{Dir: cfg.Log.Dir, Level: cfg.Log.Level})
	defer httpLogger.Sync()
	sugar := httpLogger.Sugar()

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)
	defer stop()

	// подключаем базу данных и применяем миграции
	db, err := config.OpenDB(ctx, cfg, sugar)
	if err != nil {
		sugar.Fatal(err)
	}
	// делаем отложенное закрытие бд
	defer db.Close()

	// создаём репы
	usersRepo := repository.NewUsersRepository(db)
	var sessions sessionStore
	switch cfg.Session.Store {
	case "memory":
		sessions = repository.NewMemorySessions()
	default:
		sessions = repository.NewSessionsRepository(db)
	}
	sugar.Infof("session store: %s", cfg.Session.Store)

	repos := service.Repositories{
		Users:    usersRepo,
		Sessions: sessions,
	}

	// геолокация по IP
	resolver := geo.NewResolver(geo.Config{
		BaseURL:    cfg.Geo.BaseURL,
		Timeout:    cfg.Geo.Timeout,
		FallbackIP: cfg.Geo.FallbackIP,
	}, &http.Client{}, httpLogger.Logger)

	// создаём сервис
	svc := service.NewServices(repos, resolver, cfg, httpLogger.Logger)

	// проверка подписи session cookie
	verifier := middleware.NewSessionVerifier(crypto.CookieConfig{
		Issuer:     cfg.Session.Issuer,
		Audience:   cfg.Session.Audience,
		SigningKey: cfg.Session.SigningKey,
		TTL:        cfg.Session.TTL,
	}, cfg.Session.CookieName)

	// создаём хандлер
	handler := api.NewHandler(svc, httpLogger, verifier, api.Options{
		TrustProxy:   cfg.Server.TrustProxy,
		SecureCookie: cfg.Session.Secure,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
		DB:           db,
	})

	routerOpts := h.Options{
		Logger:    httpLogger,
		StaticDir: cfg.Server.StaticDir,
	}
	if cfg.Observability.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metrics.RegisterMetrics(reg)
		routerOpts.Gatherer = reg
		routerOpts.MetricsPath = cfg.Observability.Metrics.Path
	}

	// создаём роутер
	router := h.NewRouter(handler, routerOpts)

	//создаём сервер
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)

	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		MaxHeaderBytes:    cfg.Server.MaxHeaderBytes,
	}
	if cfg.TLS.Enabled {
		server.TLSConfig = &tls.Config{MinVersion: tlsVersion(cfg.TLS.MinVersion)}
	}

	g, ctx := errgroup.WithContext(ctx)

	// запускаем сервер
	g.Go(func() error {
		var err error
		if cfg.TLS.Enabled {
			sugar.Infof("server started on https://%s", addr)
			err = server.ListenAndServeTLS(cfg.TLS.CertFile, cfg.TLS.KeyFile)
		} else {
			sugar.Infof("server started on http://%s", addr)
			err = server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// чистим просроченные сессии
	g.Go(func() error {
		t := time.NewTicker(janitorInterval)
		defer t.Stop()

		for {
			select {
			case <-ctx.Done():
				return nil
			case <-t.C:
				n, err := sessions.DeleteExpired(ctx)
				if err != nil {
					sugar.Warnf("delete expired sessions: %v", err)
					continue
				}
				if n > 0 {
					sugar.Debugf("deleted %d expired sessions", n)
				}
			}
		}
	})

	// graceful shutdown с таймаутом из конфига
	g.Go(func() error {
		<-ctx.Done()

		sugar.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			cfg.Server.ShutdownTimeout,
		)
		defer cancel()

		return server.Shutdown(shutdownCtx)
	})

	// ожидание и единная обработка ошибок
	if err := g.Wait(); err != nil {
		sugar.Desugar().Fatal("server stopped with error", zap.Error(err))
	}
	sugar.Info("server gracefully stopped")
}

func tlsVersion(v string) uint16 {
	if v == "1.3" {
		return tls.VersionTLS13
	}
	return tls.VersionTLS12
}
