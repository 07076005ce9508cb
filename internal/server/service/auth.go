package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/IvanChernomyrdin/go-geoauth/internal/server/config"
	"github.com/IvanChernomyrdin/go-geoauth/internal/server/crypto"
	"github.com/IvanChernomyrdin/go-geoauth/internal/server/metrics"
	"github.com/IvanChernomyrdin/go-geoauth/internal/server/models"
	serr "github.com/IvanChernomyrdin/go-geoauth/internal/shared/errors"
)

var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// AuthService реализует регистрацию, вход и управление серверными сессиями.
//
// Ответственность:
//   - регистрация пользователя с геолокацией по IP
//   - аутентификация (логин) и выдача сессии
//   - чтение текущей сессии
//   - выход (уничтожение сессии)
type AuthService struct {
	users    UsersRepo
	sessions SessionsRepo
	geo      GeoResolver
	log      *zap.Logger

	hasher     crypto.PasswordHasher
	sessionTTL time.Duration
	now        func() time.Time

	// хэш-пустышка для проверки пароля несуществующего пользователя
	dummyOnce sync.Once
	dummyHash string
}

// SignupInput — данные регистрации.
type SignupInput struct {
	Name     string
	Email    string
	Password string
	// ClientIP — IP клиента, если его удалось определить. Пусто — будет fallback IP.
	ClientIP string
}

// LoginResult — выданная сессия.
type LoginResult struct {
	// SessionID отдаётся клиенту (в cookie). В хранилище лежит только его хэш.
	SessionID string
	Payload   models.SessionPayload
	ExpiresAt time.Time
}

// NewAuthService создаёт AuthService с зависимостями и настройками из конфига.
func NewAuthService(users UsersRepo, sessions SessionsRepo, geo GeoResolver, cfg *config.Config, log *zap.Logger) *AuthService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthService{
		users:    users,
		sessions: sessions,
		geo:      geo,
		log:      log,

		hasher: crypto.PasswordHasher{
			Algorithm:  cfg.Password.Hasher,
			BcryptCost: cfg.Password.Bcrypt.Cost,
			Argon2: crypto.Argon2Params{
				Time:      cfg.Password.Argon2.Time,
				MemoryKiB: cfg.Password.Argon2.MemoryKiB,
				Threads:   cfg.Password.Argon2.Threads,
				KeyLen:    cfg.Password.Argon2.KeyLen,
				SaltLen:   cfg.Password.Argon2.SaltLen,
			},
		},
		sessionTTL: cfg.Session.TTL,
		now:        time.Now,
	}
}

// SetClock подменяет часы сервиса (для тестов).
func (s *AuthService) SetClock(now func() time.Time) {
	s.now = now
}

// Signup регистрирует нового пользователя.
//
// Порядок: проверка email -> хэш пароля -> геолокация -> запись.
// Проверка и запись не атомарны: при гонке двух регистраций
// уникальный индекс вернёт ErrDuplicateKey, который тоже становится ErrAlreadyExists.
//
// Ошибки:
//   - ErrInvalidInput
//   - ErrAlreadyExists
//   - ошибки хранилища (ErrStoreUnavailable) пробрасываются как есть
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (err error) {
	defer func() { metrics.RecordAuth("signup", signupResult(err)) }()

	name := strings.TrimSpace(in.Name)
	email := normalizeEmail(in.Email)
	if name == "" || email == "" || in.Password == "" || !emailRe.MatchString(email) {
		return serr.ErrInvalidInput
	}

	_, err = s.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return serr.ErrAlreadyExists
	case !errors.Is(err, serr.ErrNotFound):
		return err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		if errors.Is(err, crypto.ErrPasswordTooLong) || errors.Is(err, crypto.ErrEmptyPassword) {
			return serr.ErrInvalidInput
		}
		return fmt.Errorf("%w: hash password: %v", serr.ErrInternal, err)
	}

	// геолокация не блокирует регистрацию: nil -> "Unknown"
	loc := s.geo.Resolve(ctx, in.ClientIP)

	_, err = s.users.Insert(ctx, models.NewUser{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Location:     loc,
	})
	if err != nil {
		if errors.Is(err, serr.ErrDuplicateKey) {
			return serr.ErrAlreadyExists
		}
		return err
	}

	s.log.Info("user signed up", zap.String("email", email), zap.Bool("located", loc != nil))
	return nil
}

// Login проверяет email и пароль и создаёт сессию.
//
// Не раскрывает факт существования email: и отсутствующий пользователь,
// и неверный пароль дают ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (res LoginResult, err error) {
	defer func() { metrics.RecordAuth("login", loginResult(err)) }()

	email = normalizeEmail(email)
	if email == "" || password == "" {
		return LoginResult{}, serr.ErrInvalidCredentials
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, serr.ErrNotFound) {
			// тратим столько же времени, сколько на настоящую проверку
			_, _ = crypto.VerifyPassword(password, s.dummy())
			return LoginResult{}, serr.ErrInvalidCredentials
		}
		return LoginResult{}, err
	}

	ok, err := crypto.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		s.log.Error("stored password hash is unreadable", zap.String("email", email), zap.Error(err))
		return LoginResult{}, serr.ErrInvalidCredentials
	}
	if !ok {
		return LoginResult{}, serr.ErrInvalidCredentials
	}

	id, err := crypto.NewSessionID()
	if err != nil {
		return LoginResult{}, fmt.Errorf("%w: session id: %v", serr.ErrInternal, err)
	}

	payload := models.PayloadFromUser(user)
	expiresAt := s.now().Add(s.sessionTTL)
	if err := s.sessions.Create(ctx, crypto.HashSessionID(id), payload, expiresAt); err != nil {
		return LoginResult{}, err
	}

	return LoginResult{SessionID: id, Payload: payload, ExpiresAt: expiresAt}, nil
}

// CurrentSession возвращает payload активной сессии.
//
// Ошибки:
//   - ErrUnauthenticated, если сессии нет, она просрочена или id пустой
func (s *AuthService) CurrentSession(ctx context.Context, sessionID string) (models.SessionPayload, error) {
	if sessionID == "" {
		return models.SessionPayload{}, serr.ErrUnauthenticated
	}

	p, err := s.sessions.Get(ctx, crypto.HashSessionID(sessionID))
	if err != nil {
		if errors.Is(err, serr.ErrNotFound) {
			return models.SessionPayload{}, serr.ErrUnauthenticated
		}
		return models.SessionPayload{}, err
	}
	return p, nil
}

// Logout уничтожает сессию. Отсутствие сессии ошибкой не считается.
//
// Ошибки:
//   - ErrLogoutFailed, если хранилище не смогло удалить сессию
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		metrics.RecordAuth("logout", metrics.ResultOK)
		return nil
	}

	if err := s.sessions.Destroy(ctx, crypto.HashSessionID(sessionID)); err != nil {
		metrics.RecordAuth("logout", metrics.ResultError)
		s.log.Error("destroy session failed", zap.Error(err))
		return fmt.Errorf("%w: %v", serr.ErrLogoutFailed, err)
	}

	metrics.RecordAuth("logout", metrics.ResultOK)
	return nil
}

func (s *AuthService) dummy() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.hasher.Hash("geoauth-dummy-password")
	})
	return s.dummyHash
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func signupResult(err error) string {
	switch {
	case err == nil:
		return metrics.ResultOK
	case errors.Is(err, serr.ErrAlreadyExists):
		return metrics.ResultAlreadyExists
	case errors.Is(err, serr.ErrInvalidInput):
		return metrics.ResultInvalidInput
	default:
		return metrics.ResultError
	}
}

func loginResult(err error) string {
	switch {
	case err == nil:
		return metrics.ResultOK
	case errors.Is(err, serr.ErrInvalidCredentials):
		return metrics.ResultInvalidCredentials
	default:
		return metrics.ResultError
	}
}
