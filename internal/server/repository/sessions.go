package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/IvanChernomyrdin/go-geoauth/internal/server/models"
	serr "github.com/IvanChernomyrdin/go-geoauth/internal/shared/errors"
)

// SessionsRepository хранит серверные сессии в таблице sessions.
//
// Ключ сессии — SHA-256 от идентификатора из cookie, payload хранится как jsonb.
// Просроченные сессии при чтении считаются отсутствующими и вычищаются DeleteExpired.
type SessionsRepository struct {
	db *sql.DB
}

// NewSessionsRepository создает новый SessionsRepository.
func NewSessionsRepository(db *sql.DB) *SessionsRepository {
	return &SessionsRepository{db: db}
}

// Create сохраняет новую сессию.
func (r *SessionsRepository) Create(ctx context.Context, key []byte, payload models.SessionPayload, expiresAt time.Time) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal session payload: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO sessions (id_hash, payload, expires_at)
		 VALUES ($1,$2,$3)`,
		key, raw, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("%w: create session: %v", serr.ErrStoreUnavailable, err)
	}
	return nil
}

// Get возвращает payload активной сессии.
//
// Ошибки:
//   - ErrNotFound, если сессии нет или она просрочена
//   - ErrStoreUnavailable при ошибке БД или битом payload
func (r *SessionsRepository) Get(ctx context.Context, key []byte) (models.SessionPayload, error) {
	var raw []byte

	err := r.db.QueryRowContext(ctx,
		`SELECT payload
		   FROM sessions
		  WHERE id_hash=$1
		    AND expires_at > now()`,
		key,
	).Scan(&raw)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.SessionPayload{}, serr.ErrNotFound
		}
		return models.SessionPayload{}, fmt.Errorf("%w: get session: %v", serr.ErrStoreUnavailable, err)
	}

	var p models.SessionPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return models.SessionPayload{}, fmt.Errorf("%w: decode session payload: %v", serr.ErrStoreUnavailable, err)
	}
	return p, nil
}

// Destroy удаляет сессию. Отсутствие сессии ошибкой не считается.
func (r *SessionsRepository) Destroy(ctx context.Context, key []byte) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id_hash=$1`, key)
	if err != nil {
		return fmt.Errorf("%w: destroy session: %v", serr.ErrStoreUnavailable, err)
	}
	return nil
}

// DeleteExpired удаляет просроченные сессии и возвращает их количество.
func (r *SessionsRepository) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= now()`)
	if err != nil {
		return 0, fmt.Errorf("%w: delete expired sessions: %v", serr.ErrStoreUnavailable, err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
