// Package config отвечает за:
// - чтение server.yaml
// - подстановку переменных окружения вида ${SESSION_SECRET}
// - переопределение отдельных полей переменными окружения (SERVER_PORT и т.д.)
// - проставление дефолтов
// - валидацию (чтобы сервер не стартовал с дырявыми настройками)
package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Значения по умолчанию.
const (
	DefaultPort           = 8080
	DefaultCookieName     = "geoauth.sid"
	DefaultSessionTTL     = 24 * time.Hour
	DefaultBcryptCost     = 10
	DefaultArgon2KeyLen   = 32
	DefaultArgon2SaltLen  = 16
	DefaultGeoBaseURL     = "https://ipapi.co"
	DefaultGeoTimeout     = 3 * time.Second
	DefaultGeoFallbackIP  = "103.57.85.0"
	DefaultMigrationsPath = "file://migrations/postgres"
	DefaultMetricsPath    = "/metrics"
	DefaultShutdown       = 10 * time.Second
)

// Config — корневая структура всего конфига сервера.
type Config struct {
	Env           string              `yaml:"env"` // dev|stage|prod
	Server        ServerConfig        `yaml:"server"`
	TLS           TLSConfig           `yaml:"tls"`
	DB            DBConfig            `yaml:"db"`
	Migrations    MigrationsConfig    `yaml:"migrations"`
	Session       SessionConfig       `yaml:"session"`
	Password      PasswordConfig      `yaml:"password"`
	Geo           GeoConfig           `yaml:"geo"`
	Log           LogConfig           `yaml:"log"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig — настройки HTTP-сервера.
type ServerConfig struct {
	Host              string        `yaml:"host"`
	Port              int           `yaml:"port" env:"SERVER_PORT"`
	TrustProxy        bool          `yaml:"trust_proxy"` // доверять ли заголовку X-Forwarded-For
	StaticDir         string        `yaml:"static_dir"`  // каталог со статикой (login.html и т.д.), пусто — не раздаём
	ReadTimeout       time.Duration `yaml:"read_timeout"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
	WriteTimeout      time.Duration `yaml:"write_timeout"`
	IdleTimeout       time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"` // время на graceful shutdown
	MaxHeaderBytes    int           `yaml:"max_header_bytes"`
	MaxBodyBytes      int64         `yaml:"max_body_bytes"` // лимит размера тела запроса
}

// TLSConfig — настройки HTTPS.
type TLSConfig struct {
	Enabled    bool   `yaml:"enabled"`
	CertFile   string `yaml:"cert_file"`
	KeyFile    string `yaml:"key_file"`
	MinVersion string `yaml:"min_version"` // "1.2"|"1.3"
}

// DBConfig — настройки подключения к базе данных.
type DBConfig struct {
	DSN             string        `yaml:"dsn" env:"DATABASE_DSN"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
	QueryTimeout    time.Duration `yaml:"query_timeout"` // таймаут на запросы к БД
}

// MigrationsConfig — настройки миграций БД.
type MigrationsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// SessionConfig — настройки серверных сессий и cookie.
type SessionConfig struct {
	Store      string        `yaml:"store"` // db|memory
	CookieName string        `yaml:"cookie_name"`
	TTL        time.Duration `yaml:"ttl"`
	Secure     bool          `yaml:"secure"` // Secure-флаг cookie
	Issuer     string        `yaml:"issuer"`
	Audience   string        `yaml:"audience"`
	// SigningKey — ключ подписи cookie (HS256), может содержать ${SESSION_SECRET}
	SigningKey string `yaml:"signing_key" env:"SESSION_SECRET"`
}

// PasswordConfig — настройки хэширования паролей пользователей.
type PasswordConfig struct {
	Hasher string       `yaml:"hasher"` // bcrypt|argon2id
	Argon2 Argon2Config `yaml:"argon2"`
	Bcrypt BcryptConfig `yaml:"bcrypt"`
}

// Argon2Config — параметры argon2id.
type Argon2Config struct {
	Time      uint32 `yaml:"time"`
	MemoryKiB uint32 `yaml:"memory_kib"`
	Threads   uint8  `yaml:"threads"`
	KeyLen    uint32 `yaml:"key_len"`
	SaltLen   uint32 `yaml:"salt_len"`
}

// BcryptConfig — параметры bcrypt.
type BcryptConfig struct {
	Cost int `yaml:"cost"`
}

// GeoConfig — внешний сервис геолокации по IP.
type GeoConfig struct {
	BaseURL string        `yaml:"base_url" env:"GEO_BASE_URL"`
	Timeout time.Duration `yaml:"timeout"`
	// FallbackIP используется, когда IP клиента определить не удалось.
	// Значение зависит от окружения, поэтому задаётся только конфигом.
	FallbackIP string `yaml:"fallback_ip" env:"GEO_FALLBACK_IP"`
}

// LogConfig — настройки логирования (zap).
type LogConfig struct {
	Level string `yaml:"level" env:"LOG_LEVEL"` // debug|info|warn|error
	Dir   string `yaml:"dir"`
}

// ObservabilityConfig — метрики.
type ObservabilityConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Load читает YAML, подставляет переменные окружения вида ${VAR},
// затем парсит в структуру, применяет env-переопределения,
// проставляет дефолты и валидирует.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("не удалось прочитать конфиг: %w", err)
	}

	// signing_key: "${SESSION_SECRET}" -> signing_key: "реальное_значение"
	raw = []byte(ExpandEnvStrict(string(raw)))

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("не удалось распарсить yaml: %w", err)
	}

	if err := cfg.ApplyEnvOverrides(); err != nil {
		return nil, err
	}

	ApplyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var envPlaceholder = regexp.MustCompile(`\$\{([A-Z0-9_]+)\}`)

// ExpandEnvStrict заменяет ${VAR} на значение из окружения.
// Если переменная не задана — оставляем ${VAR} как есть,
// а потом Validate() упадёт с понятной ошибкой.
func ExpandEnvStrict(s string) string {
	return envPlaceholder.ReplaceAllStringFunc(s, func(m string) string {
		sub := envPlaceholder.FindStringSubmatch(m)
		if len(sub) != 2 {
			return m
		}
		if val, ok := os.LookupEnv(sub[1]); ok {
			return val
		}
		return m
	})
}

// ApplyEnvOverrides переопределяет поля с тегом env из переменных окружения.
// Например SERVER_PORT=9090 переопределит server.port.
// Незаданные переменные значения из yaml не трогают.
func (c *Config) ApplyEnvOverrides() error {
	if err := env.Parse(c); err != nil {
		return fmt.Errorf("не удалось применить переменные окружения: %w", err)
	}
	return nil
}

// ApplyDefaults — дефолтные значения, если в yaml поле не задано.
func ApplyDefaults(cfg *Config) {
	if cfg.Env == "" {
		cfg.Env = "dev"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultPort
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdown
	}
	if cfg.Migrations.Path == "" {
		cfg.Migrations.Path = DefaultMigrationsPath
	}
	if cfg.Session.Store == "" {
		cfg.Session.Store = "db"
	}
	if cfg.Session.CookieName == "" {
		cfg.Session.CookieName = DefaultCookieName
	}
	if cfg.Session.TTL == 0 {
		cfg.Session.TTL = DefaultSessionTTL
	}
	if cfg.Password.Hasher == "" {
		cfg.Password.Hasher = "bcrypt"
	}
	if cfg.Password.Bcrypt.Cost == 0 {
		cfg.Password.Bcrypt.Cost = DefaultBcryptCost
	}
	if cfg.Password.Argon2.KeyLen == 0 {
		cfg.Password.Argon2.KeyLen = DefaultArgon2KeyLen
	}
	if cfg.Password.Argon2.SaltLen == 0 {
		cfg.Password.Argon2.SaltLen = DefaultArgon2SaltLen
	}
	if cfg.Geo.BaseURL == "" {
		cfg.Geo.BaseURL = DefaultGeoBaseURL
	}
	if cfg.Geo.Timeout == 0 {
		cfg.Geo.Timeout = DefaultGeoTimeout
	}
	if cfg.Geo.FallbackIP == "" {
		cfg.Geo.FallbackIP = DefaultGeoFallbackIP
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Observability.Metrics.Path == "" {
		cfg.Observability.Metrics.Path = DefaultMetricsPath
	}
}

// Validate проверяет, что конфиг заполнен корректно и безопасно.
// Если что-то не так — возвращаем ошибку и сервер НЕ стартует.
func (c *Config) Validate() error {
	if c.Server.Host == "" {
		return errors.New("server.host обязателен")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port некорректен: %d", c.Server.Port)
	}

	if c.TLS.Enabled {
		if c.TLS.CertFile == "" || c.TLS.KeyFile == "" {
			return errors.New("tls.cert_file и tls.key_file обязательны при tls.enabled=true")
		}
		if c.TLS.MinVersion == "" {
			c.TLS.MinVersion = "1.2"
		}
		// TLS 1.0/1.1 считаются небезопасными — запрещаем
		if c.TLS.MinVersion == "1.0" || c.TLS.MinVersion == "1.1" {
			return fmt.Errorf("tls.min_version=%s небезопасен; используй 1.2 или 1.3", c.TLS.MinVersion)
		}
	}

	if c.Session.Store != "db" && c.Session.Store != "memory" {
		return fmt.Errorf("session.store должен быть db|memory (сейчас %q)", c.Session.Store)
	}
	// пользователи всегда живут в postgres, даже при session.store=memory
	if c.DB.DSN == "" {
		return errors.New("db.dsn обязателен")
	}

	key := strings.TrimSpace(c.Session.SigningKey)
	if key == "" {
		return errors.New("session.signing_key обязателен (через ${SESSION_SECRET} или прямо строкой)")
	}
	// Если ${SESSION_SECRET} не подставился — значит переменная окружения не задана
	if strings.Contains(key, "${") && strings.Contains(key, "}") {
		return fmt.Errorf("session.signing_key содержит неподставленную переменную: %q (нужно задать SESSION_SECRET)", key)
	}
	if len(key) < 32 {
		return fmt.Errorf("session.signing_key слишком короткий (%d символов); нужно >= 32", len(key))
	}
	if c.Session.TTL < 0 {
		return errors.New("session.ttl не может быть отрицательным")
	}

	switch strings.ToLower(c.Password.Hasher) {
	case "argon2id":
		if c.Password.Argon2.Time == 0 || c.Password.Argon2.MemoryKiB == 0 || c.Password.Argon2.Threads == 0 {
			return errors.New("password.argon2 должен быть настроен для argon2id")
		}
		if c.Password.Argon2.KeyLen < 16 || c.Password.Argon2.SaltLen < 16 {
			return fmt.Errorf("password.argon2.key_len и salt_len должны быть >= 16 (сейчас %d и %d)",
				c.Password.Argon2.KeyLen, c.Password.Argon2.SaltLen)
		}
	case "bcrypt":
		if c.Password.Bcrypt.Cost < 4 || c.Password.Bcrypt.Cost > 31 {
			return fmt.Errorf("password.bcrypt.cost должен быть в диапазоне 4..31 (сейчас %d)", c.Password.Bcrypt.Cost)
		}
	default:
		return fmt.Errorf("password.hasher должен быть argon2id|bcrypt (сейчас %q)", c.Password.Hasher)
	}

	u, err := url.Parse(c.Geo.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("geo.base_url некорректен: %q", c.Geo.BaseURL)
	}
	if c.Geo.Timeout <= 0 {
		return errors.New("geo.timeout должен быть > 0")
	}
	if net.ParseIP(c.Geo.FallbackIP) == nil {
		return fmt.Errorf("geo.fallback_ip не является IP-адресом: %q", c.Geo.FallbackIP)
	}

	return nil
}
