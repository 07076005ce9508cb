// Package repository содержит реализации слоя доступа к данным (Repository layer).
//
// Репозитории инкапсулируют работу с хранилищами и не содержат бизнес-логики.
// Все ошибки приводятся к доменным ошибкам из internal/shared/errors.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgconn"

	"github.com/IvanChernomyrdin/go-geoauth/internal/server/models"
	serr "github.com/IvanChernomyrdin/go-geoauth/internal/shared/errors"
)

// pgUniqueViolation — код ошибки postgres unique_violation.
const pgUniqueViolation = "23505"

// UsersRepository хранит записи пользователей в таблице users.
// Уникальность email обеспечивается индексом в БД.
type UsersRepository struct {
	db *sql.DB
}

func NewUsersRepository(db *sql.DB) *UsersRepository {
	return &UsersRepository{db: db}
}

// FindByEmail возвращает пользователя по email.
//
// Ошибки:
//   - ErrNotFound, если пользователя нет
//   - ErrStoreUnavailable при любой другой ошибке БД
func (r *UsersRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	var u models.User

	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, email, password, location, latitude, longitude, created_at
		   FROM users
		  WHERE email=$1`,
		email,
	).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Location, &u.Latitude, &u.Longitude, &u.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, serr.ErrNotFound
		}
		return models.User{}, fmt.Errorf("%w: find user: %v", serr.ErrStoreUnavailable, err)
	}
	return u, nil
}

// Insert сохраняет нового пользователя.
//
// Отсутствующая локация (nil) записывается как "Unknown", "", "".
//
// Ошибки:
//   - ErrInvalidInput, если email пустой
//   - ErrDuplicateKey при нарушении уникальности email
//   - ErrStoreUnavailable при любой другой ошибке БД
func (r *UsersRepository) Insert(ctx context.Context, nu models.NewUser) (models.User, error) {
	if strings.TrimSpace(nu.Email) == "" {
		return models.User{}, serr.ErrInvalidInput
	}

	city, lat, lon := models.LocationColumns(nu.Location)
	u := models.User{
		Name:         nu.Name,
		Email:        nu.Email,
		PasswordHash: nu.PasswordHash,
		Location:     city,
		Latitude:     lat,
		Longitude:    lon,
	}

	err := r.db.QueryRowContext(ctx,
		`INSERT INTO users (name, email, password, location, latitude, longitude)
		 VALUES ($1,$2,$3,$4,$5,$6)
		 RETURNING id, created_at`,
		u.Name, u.Email, u.PasswordHash, u.Location, u.Latitude, u.Longitude,
	).Scan(&u.ID, &u.CreatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return models.User{}, serr.ErrDuplicateKey
		}
		return models.User{}, fmt.Errorf("%w: insert user: %v", serr.ErrStoreUnavailable, err)
	}

	return u, nil
}
