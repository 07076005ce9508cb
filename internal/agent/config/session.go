// Package config содержит функции для работы с локальным состоянием CLI-клиента.
//
// Состояние хранит session cookie, выданную сервером при логине, и размещается
// в домашней директории пользователя в файле:
//
//	~/.geoauth/session.json
//
// Пакет предоставляет функции для получения пути по умолчанию, загрузки, сохранения
// и удаления состояния в JSON формате.
package config

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// Session содержит сохранённую сессию CLI-клиента.
type Session struct {
	// ServerURL — сервер, выдавший cookie. Cookie не отправляется на другой сервер.
	ServerURL string `json:"server_url,omitempty"`
	// Email — под кем выполнен вход (для вывода).
	Email string `json:"email,omitempty"`
	// CookieName и CookieValue — session cookie как её выдал сервер.
	CookieName  string    `json:"cookie_name,omitempty"`
	CookieValue string    `json:"cookie_value,omitempty"`
	ExpiresAt   time.Time `json:"expires_at,omitempty"`
}

// LoggedIn — есть ли сохранённая cookie для сервера serverURL.
func (s *Session) LoggedIn(serverURL string) bool {
	if s == nil || s.CookieName == "" || s.CookieValue == "" {
		return false
	}
	if s.ServerURL != "" && s.ServerURL != serverURL {
		return false
	}
	return s.ExpiresAt.IsZero() || time.Now().Before(s.ExpiresAt)
}

// Cookie возвращает сохранённую cookie для отправки на сервер.
func (s *Session) Cookie() *http.Cookie {
	return &http.Cookie{Name: s.CookieName, Value: s.CookieValue}
}

// DefaultPath возвращает путь к файлу сессии в домашней директории пользователя.
//
// Формат пути:
//
//	<home>/.geoauth/session.json
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".geoauth", "session.json"), nil
}

// Load загружает сессию из указанного файла.
//
// Если файл не существует, возвращает пустую сессию без ошибки.
// Если файл существует, но содержит некорректный JSON, возвращает ошибку.
func Load(path string) (*Session, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Session{}, nil
		}
		return nil, err
	}
	var s Session
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Save сохраняет сессию в указанный файл в JSON формате.
//
// При необходимости создаёт директорию назначения с правами 0700.
// Файл записывается с правами 0600: в нём лежит действующая cookie.
func Save(path string, s *Session) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o600)
}

// Clear удаляет файл сессии. Отсутствие файла ошибкой не считается.
func Clear(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
