package tests

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/IvanChernomyrdin/go-geoauth/internal/server/config"
	"github.com/IvanChernomyrdin/go-geoauth/internal/server/crypto"
	"github.com/IvanChernomyrdin/go-geoauth/internal/server/models"
	"github.com/IvanChernomyrdin/go-geoauth/internal/server/repository"
	"github.com/IvanChernomyrdin/go-geoauth/internal/server/service"
	"github.com/IvanChernomyrdin/go-geoauth/internal/server/service/mocks"
	serr "github.com/IvanChernomyrdin/go-geoauth/internal/shared/errors"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Password.Hasher = "bcrypt"
	cfg.Password.Bcrypt.Cost = 4
	cfg.Session.TTL = time.Hour
	cfg.Session.SigningKey = "supersecretkeysupersecretkey123456"
	return cfg
}

type deps struct {
	users    *mocks.MockUsersRepo
	sessions *mocks.MockSessionsRepo
	geo      *mocks.MockGeoResolver
}

// создаём сервис на моках
func newAuthService(t *testing.T) (*service.AuthService, deps) {
	t.Helper()

	ctrl := gomock.NewController(t)
	d := deps{
		users:    mocks.NewMockUsersRepo(ctrl),
		sessions: mocks.NewMockSessionsRepo(ctrl),
		geo:      mocks.NewMockGeoResolver(ctrl),
	}
	return service.NewAuthService(d.users, d.sessions, d.geo, testConfig(), nil), d
}

func hashed(t *testing.T, pw string) string {
	t.Helper()
	h, err := crypto.HashPasswordBcrypt(pw, 4)
	require.NoError(t, err)
	return h
}

var pune = &models.Location{City: "Pune", Latitude: "18.5196", Longitude: "73.8553"}

func TestSignup_OK(t *testing.T) {
	ctx := context.Background()
	svc, d := newAuthService(t)

	d.users.EXPECT().FindByEmail(ctx, "alice@x.com").Return(models.User{}, serr.ErrNotFound)
	d.geo.EXPECT().Resolve(ctx, "203.0.113.7").Return(pune)
	d.users.EXPECT().Insert(ctx, gomock.Any()).DoAndReturn(func(_ context.Context, u models.NewUser) (models.User, error) {
		require.Equal(t, "Alice", u.Name)
		require.Equal(t, "alice@x.com", u.Email)
		require.Equal(t, pune, u.Location)
		require.NotEqual(t, "pw1", u.PasswordHash)
		require.True(t, strings.HasPrefix(u.PasswordHash, "$2"))

		ok, err := crypto.VerifyPassword("pw1", u.PasswordHash)
		require.NoError(t, err)
		require.True(t, ok)
		return models.User{ID: uuid.New()}, nil
	})

	err := svc.Signup(ctx, service.SignupInput{
		Name: "Alice", Email: "alice@x.com", Password: "pw1", ClientIP: "203.0.113.7",
	})
	require.NoError(t, err)
}

func TestSignup_NormalizesEmail(t *testing.T) {
	ctx := context.Background()
	svc, d := newAuthService(t)

	d.users.EXPECT().FindByEmail(ctx, "alice@x.com").Return(models.User{}, serr.ErrNotFound)
	d.geo.EXPECT().Resolve(ctx, "").Return(nil)
	d.users.EXPECT().Insert(ctx, gomock.Any()).Return(models.User{}, nil)

	require.NoError(t, svc.Signup(ctx, service.SignupInput{
		Name: " Alice ", Email: "  Alice@X.com ", Password: "pw1",
	}))
}

func TestSignup_AlreadyExists_NoInsert(t *testing.T) {
	ctx := context.Background()
	svc, d := newAuthService(t)

	d.users.EXPECT().FindByEmail(ctx, "alice@x.com").Return(models.User{Email: "alice@x.com"}, nil)
	// Resolve и Insert не вызываются: контроллер упадёт на неожиданном вызове

	err := svc.Signup(ctx, service.SignupInput{Name: "Alice", Email: "alice@x.com", Password: "pw2"})
	require.ErrorIs(t, err, serr.ErrAlreadyExists)
}

func TestSignup_DuplicateKeyOnInsert_IsAlreadyExists(t *testing.T) {
	ctx := context.Background()
	svc, d := newAuthService(t)

	d.users.EXPECT().FindByEmail(ctx, "alice@x.com").Return(models.User{}, serr.ErrNotFound)
	d.geo.EXPECT().Resolve(ctx, gomock.Any()).Return(pune)
	d.users.EXPECT().Insert(ctx, gomock.Any()).Return(models.User{}, serr.ErrDuplicateKey)

	err := svc.Signup(ctx, service.SignupInput{Name: "Alice", Email: "alice@x.com", Password: "pw1"})
	require.ErrorIs(t, err, serr.ErrAlreadyExists)
}

func TestSignup_GeoUnavailable_StillInserts(t *testing.T) {
	ctx := context.Background()
	svc, d := newAuthService(t)

	d.users.EXPECT().FindByEmail(ctx, "bob@x.com").Return(models.User{}, serr.ErrNotFound)
	d.geo.EXPECT().Resolve(ctx, "198.51.100.1").Return(nil)
	d.users.EXPECT().Insert(ctx, gomock.Any()).DoAndReturn(func(_ context.Context, u models.NewUser) (models.User, error) {
		require.Nil(t, u.Location)
		return models.User{}, nil
	})

	err := svc.Signup(ctx, service.SignupInput{Name: "Bob", Email: "bob@x.com", Password: "pw", ClientIP: "198.51.100.1"})
	require.NoError(t, err)
}

func TestSignup_InvalidInput(t *testing.T) {
	cases := []struct {
		name string
		in   service.SignupInput
	}{
		{"empty name", service.SignupInput{Email: "a@x.com", Password: "pw"}},
		{"blank name", service.SignupInput{Name: "   ", Email: "a@x.com", Password: "pw"}},
		{"empty email", service.SignupInput{Name: "A", Password: "pw"}},
		{"bad email", service.SignupInput{Name: "A", Email: "not-an-email", Password: "pw"}},
		{"empty password", service.SignupInput{Name: "A", Email: "a@x.com"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, _ := newAuthService(t)
			err := svc.Signup(context.Background(), tc.in)
			require.ErrorIs(t, err, serr.ErrInvalidInput)
		})
	}
}

func TestSignup_PasswordTooLong(t *testing.T) {
	ctx := context.Background()
	svc, d := newAuthService(t)

	d.users.EXPECT().FindByEmail(ctx, "a@x.com").Return(models.User{}, serr.ErrNotFound)

	err := svc.Signup(ctx, service.SignupInput{Name: "A", Email: "a@x.com", Password: strings.Repeat("x", 100)})
	require.ErrorIs(t, err, serr.ErrInvalidInput)
}

func TestSignup_StoreErrorPropagates(t *testing.T) {
	ctx := context.Background()
	svc, d := newAuthService(t)

	storeErr := errors.Join(serr.ErrStoreUnavailable, errors.New("connection refused"))
	d.users.EXPECT().FindByEmail(ctx, "a@x.com").Return(models.User{}, storeErr)

	err := svc.Signup(ctx, service.SignupInput{Name: "A", Email: "a@x.com", Password: "pw"})
	require.ErrorIs(t, err, serr.ErrStoreUnavailable)
	require.NotErrorIs(t, err, serr.ErrAlreadyExists)
}

func TestLogin_OK(t *testing.T) {
	ctx := context.Background()
	svc, d := newAuthService(t)

	now := time.Date(2026, 1, 16, 12, 0, 0, 0, time.UTC)
	svc.SetClock(func() time.Time { return now })

	user := models.User{
		ID: uuid.New(), Name: "Alice", Email: "alice@x.com", PasswordHash: hashed(t, "pw1"),
		Location: "Pune", Latitude: "18.5196", Longitude: "73.8553",
	}
	want := models.SessionPayload{Name: "Alice", Email: "alice@x.com", Location: "Pune", Latitude: "18.5196", Longitude: "73.8553"}

	d.users.EXPECT().FindByEmail(ctx, "alice@x.com").Return(user, nil)

	var storedKey []byte
	d.sessions.EXPECT().Create(ctx, gomock.Any(), want, now.Add(time.Hour)).
		DoAndReturn(func(_ context.Context, key []byte, _ models.SessionPayload, _ time.Time) error {
			storedKey = key
			return nil
		})

	res, err := svc.Login(ctx, "alice@x.com", "pw1")
	require.NoError(t, err)
	require.Equal(t, want, res.Payload)
	require.Equal(t, now.Add(time.Hour), res.ExpiresAt)
	require.NotEmpty(t, res.SessionID)

	// в хранилище лежит хэш id, а не сам id
	require.Equal(t, crypto.HashSessionID(res.SessionID), storedKey)
	require.NotEqual(t, []byte(res.SessionID), storedKey)
}

func TestLogin_UnknownEmailAndWrongPassword_SameError(t *testing.T) {
	ctx := context.Background()
	svc, d := newAuthService(t)

	d.users.EXPECT().FindByEmail(ctx, "ghost@x.com").Return(models.User{}, serr.ErrNotFound)
	d.users.EXPECT().FindByEmail(ctx, "alice@x.com").Return(models.User{Email: "alice@x.com", PasswordHash: hashed(t, "pw1")}, nil)

	_, errUnknown := svc.Login(ctx, "ghost@x.com", "whatever")
	_, errWrong := svc.Login(ctx, "alice@x.com", "wrong")

	require.ErrorIs(t, errUnknown, serr.ErrInvalidCredentials)
	require.ErrorIs(t, errWrong, serr.ErrInvalidCredentials)
	require.Equal(t, errUnknown.Error(), errWrong.Error())
}

func TestLogin_EmptyInput(t *testing.T) {
	svc, _ := newAuthService(t)

	_, err := svc.Login(context.Background(), "", "pw")
	require.ErrorIs(t, err, serr.ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), "a@x.com", "")
	require.ErrorIs(t, err, serr.ErrInvalidCredentials)
}

func TestLogin_CorruptHash_IsInvalidCredentials(t *testing.T) {
	ctx := context.Background()
	svc, d := newAuthService(t)

	d.users.EXPECT().FindByEmail(ctx, "a@x.com").Return(models.User{PasswordHash: "plain-text"}, nil)
	// argon2id без хэша после соли
	d.users.EXPECT().FindByEmail(ctx, "b@x.com").Return(models.User{PasswordHash: "argon2id$v=19$m=64,t=1,p=1$c2FsdA$"}, nil)

	_, err := svc.Login(ctx, "a@x.com", "plain-text")
	require.ErrorIs(t, err, serr.ErrInvalidCredentials)

	_, err = svc.Login(ctx, "b@x.com", "anything")
	require.ErrorIs(t, err, serr.ErrInvalidCredentials)
}

func argon2Config() *config.Config {
	cfg := testConfig()
	cfg.Password.Hasher = "argon2id"
	cfg.Password.Argon2.Time = 1
	cfg.Password.Argon2.MemoryKiB = 64
	cfg.Password.Argon2.Threads = 1
	return cfg
}

// key_len/salt_len не заданы и дефолты не применены: ошибка вместо паники
func TestSignup_Argon2WithoutLengths_FailsWithoutInsert(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	users := mocks.NewMockUsersRepo(ctrl)
	svc := service.NewAuthService(users, mocks.NewMockSessionsRepo(ctrl), mocks.NewMockGeoResolver(ctrl), argon2Config(), nil)

	users.EXPECT().FindByEmail(ctx, "a@x.com").Return(models.User{}, serr.ErrNotFound)

	err := svc.Signup(ctx, service.SignupInput{Name: "Alice", Email: "a@x.com", Password: "pw123", ClientIP: "1.2.3.4"})
	require.ErrorIs(t, err, serr.ErrInternal)
}

// с дефолтами из конфига argon2id даёт соленый хэш, по которому потом можно войти
func TestSignup_Argon2WithDefaults_HashIsSalted(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	users := mocks.NewMockUsersRepo(ctrl)
	geo := mocks.NewMockGeoResolver(ctrl)

	cfg := argon2Config()
	config.ApplyDefaults(cfg)
	svc := service.NewAuthService(users, mocks.NewMockSessionsRepo(ctrl), geo, cfg, nil)

	users.EXPECT().FindByEmail(ctx, "a@x.com").Return(models.User{}, serr.ErrNotFound)
	geo.EXPECT().Resolve(ctx, "1.2.3.4").Return(nil)
	users.EXPECT().Insert(ctx, gomock.Any()).DoAndReturn(func(_ context.Context, nu models.NewUser) (models.User, error) {
		require.True(t, strings.HasPrefix(nu.PasswordHash, "argon2id$"), nu.PasswordHash)
		ok, err := crypto.VerifyPassword("pw123", nu.PasswordHash)
		require.NoError(t, err)
		require.True(t, ok)
		return models.User{Name: nu.Name, Email: nu.Email}, nil
	})

	err := svc.Signup(ctx, service.SignupInput{Name: "Alice", Email: "a@x.com", Password: "pw123", ClientIP: "1.2.3.4"})
	require.NoError(t, err)
}

func TestLogin_SessionStoreError(t *testing.T) {
	ctx := context.Background()
	svc, d := newAuthService(t)

	d.users.EXPECT().FindByEmail(ctx, "a@x.com").Return(models.User{PasswordHash: hashed(t, "pw")}, nil)
	d.sessions.EXPECT().Create(ctx, gomock.Any(), gomock.Any(), gomock.Any()).Return(serr.ErrStoreUnavailable)

	_, err := svc.Login(ctx, "a@x.com", "pw")
	require.ErrorIs(t, err, serr.ErrStoreUnavailable)
}

func TestCurrentSession_NoID(t *testing.T) {
	svc, _ := newAuthService(t)

	_, err := svc.CurrentSession(context.Background(), "")
	require.ErrorIs(t, err, serr.ErrUnauthenticated)
}

func TestLogout_NoSession_OK(t *testing.T) {
	svc, _ := newAuthService(t)
	require.NoError(t, svc.Logout(context.Background(), ""))
}

func TestLogout_StoreFailure(t *testing.T) {
	ctx := context.Background()
	svc, d := newAuthService(t)

	d.sessions.EXPECT().Destroy(ctx, crypto.HashSessionID("sid")).Return(errors.New("db down"))

	err := svc.Logout(ctx, "sid")
	require.ErrorIs(t, err, serr.ErrLogoutFailed)
}

// fakeUsers — хранилище пользователей в памяти с уникальностью email.
type fakeUsers struct {
	mu    sync.Mutex
	users map[string]models.User
}

func newFakeUsers() *fakeUsers { return &fakeUsers{users: map[string]models.User{}} }

func (f *fakeUsers) FindByEmail(_ context.Context, email string) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[email]
	if !ok {
		return models.User{}, serr.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsers) Insert(_ context.Context, nu models.NewUser) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[nu.Email]; ok {
		return models.User{}, serr.ErrDuplicateKey
	}
	city, lat, lon := models.LocationColumns(nu.Location)
	u := models.User{
		ID: uuid.New(), Name: nu.Name, Email: nu.Email, PasswordHash: nu.PasswordHash,
		Location: city, Latitude: lat, Longitude: lon, CreatedAt: time.Now(),
	}
	f.users[nu.Email] = u
	return u, nil
}

type staticGeo struct{ loc *models.Location }

func (g staticGeo) Resolve(context.Context, string) *models.Location { return g.loc }

func TestAuthFlow_SignupLoginSessionLogout(t *testing.T) {
	ctx := context.Background()
	users := newFakeUsers()
	sessions := repository.NewMemorySessions()
	svc := service.NewAuthService(users, sessions, staticGeo{loc: pune}, testConfig(), nil)

	require.NoError(t, svc.Signup(ctx, service.SignupInput{Name: "Alice", Email: "alice@x.com", Password: "pw1"}))
	require.ErrorIs(t,
		svc.Signup(ctx, service.SignupInput{Name: "Alice2", Email: "alice@x.com", Password: "pw2"}),
		serr.ErrAlreadyExists)

	// вторая регистрация не изменила запись
	stored, err := users.FindByEmail(ctx, "alice@x.com")
	require.NoError(t, err)
	require.Equal(t, "Alice", stored.Name)

	_, err = svc.Login(ctx, "alice@x.com", "pw2")
	require.ErrorIs(t, err, serr.ErrInvalidCredentials)

	res, err := svc.Login(ctx, "alice@x.com", "pw1")
	require.NoError(t, err)

	got, err := svc.CurrentSession(ctx, res.SessionID)
	require.NoError(t, err)
	require.Equal(t, models.SessionPayload{
		Name: "Alice", Email: "alice@x.com", Location: "Pune", Latitude: "18.5196", Longitude: "73.8553",
	}, got)

	require.NoError(t, svc.Logout(ctx, res.SessionID))

	_, err = svc.CurrentSession(ctx, res.SessionID)
	require.ErrorIs(t, err, serr.ErrUnauthenticated)
}

func TestAuthFlow_UnknownLocation(t *testing.T) {
	ctx := context.Background()
	svc := service.NewAuthService(newFakeUsers(), repository.NewMemorySessions(), staticGeo{}, testConfig(), nil)

	require.NoError(t, svc.Signup(ctx, service.SignupInput{Name: "Bob", Email: "bob@x.com", Password: "pw"}))

	res, err := svc.Login(ctx, "bob@x.com", "pw")
	require.NoError(t, err)
	require.Equal(t, "Unknown", res.Payload.Location)
	require.Empty(t, res.Payload.Latitude)
	require.Empty(t, res.Payload.Longitude)
}

func TestAuthFlow_ExpiredSession(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	sessions := repository.NewMemorySessionsWithClock(func() time.Time { return now })

	svc := service.NewAuthService(newFakeUsers(), sessions, staticGeo{loc: pune}, testConfig(), nil)
	svc.SetClock(func() time.Time { return now })

	require.NoError(t, svc.Signup(ctx, service.SignupInput{Name: "A", Email: "a@x.com", Password: "pw"}))
	res, err := svc.Login(ctx, "a@x.com", "pw")
	require.NoError(t, err)

	now = now.Add(2 * time.Hour)

	_, err = svc.CurrentSession(ctx, res.SessionID)
	require.ErrorIs(t, err, serr.ErrUnauthenticated)
}
