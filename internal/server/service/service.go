// Package service содержит бизнес-логику приложения (geoauth).
// Это прослойка между HTTP-обработчиками (api) и хранилищами (repository, geo).
package service

//go:generate mockgen -source=service.go -destination=mocks/mock_service.go -package=mocks

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/IvanChernomyrdin/go-geoauth/internal/server/config"
	"github.com/IvanChernomyrdin/go-geoauth/internal/server/models"
)

// Repositories — набор интерфейсов, которые сервисный слой ожидает от слоя repository.
type Repositories struct {
	Users    UsersRepo
	Sessions SessionsRepo
}

// Services — агрегатор всех сервисов приложения.
type Services struct {
	Auth *AuthService
}

// NewServices собирает все сервисы приложения.
func NewServices(repos Repositories, geo GeoResolver, cfg *config.Config, log *zap.Logger) *Services {
	return &Services{
		Auth: NewAuthService(repos.Users, repos.Sessions, geo, cfg, log),
	}
}

// UsersRepo — хранилище учётных записей.
type UsersRepo interface {
	// FindByEmail возвращает serr.ErrNotFound, если пользователя нет.
	FindByEmail(ctx context.Context, email string) (models.User, error)
	// Insert возвращает serr.ErrDuplicateKey при занятом email.
	Insert(ctx context.Context, u models.NewUser) (models.User, error)
}

// SessionsRepo — key-value хранилище сессий. Ключ — хэш id сессии.
type SessionsRepo interface {
	Create(ctx context.Context, key []byte, payload models.SessionPayload, expiresAt time.Time) error
	// Get возвращает serr.ErrNotFound для отсутствующей или просроченной сессии.
	Get(ctx context.Context, key []byte) (models.SessionPayload, error)
	Destroy(ctx context.Context, key []byte) error
}

// GeoResolver определяет локацию по IP. nil — локация неизвестна.
type GeoResolver interface {
	Resolve(ctx context.Context, ip string) *models.Location
}
