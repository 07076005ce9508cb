// В этом файле описаны методы клиента для работы с эндпоинтами
// аутентификации: регистрация, вход, текущий пользователь и выход.
package api

import (
	"errors"
	"net/http"

	"github.com/IvanChernomyrdin/go-geoauth/internal/shared/models"
)

// ErrNoSessionCookie — сервер ответил 200 на логин, но cookie не выставил.
var ErrNoSessionCookie = errors.New("server did not set a session cookie")

// Signup регистрирует пользователя на сервере (POST /signup).
// Локацию сервер определяет сам по IP запроса.
func (c *Client) Signup(name, email, password string) error {
	return c.PostJSON("/signup", models.SignupRequest{Name: name, Email: email, Password: password}, nil, nil)
}

// Login выполняет вход (POST /login) и возвращает данные сессии
// вместе с выданной сервером session cookie.
func (c *Client) Login(email, password string) (models.SessionResponse, *http.Cookie, error) {
	var resp models.SessionResponse
	cookies, err := c.do(http.MethodPost, "/login", models.LoginRequest{Email: email, Password: password}, &resp, nil)
	if err != nil {
		return models.SessionResponse{}, nil, err
	}

	for _, ck := range cookies {
		if ck.Value != "" && ck.MaxAge >= 0 {
			return resp, ck, nil
		}
	}
	return models.SessionResponse{}, nil, ErrNoSessionCookie
}

// Me возвращает данные текущей сессии (GET /user).
func (c *Client) Me(session *http.Cookie) (models.SessionResponse, error) {
	var resp models.SessionResponse
	err := c.GetJSON("/user", &resp, session)
	return resp, err
}

// Logout уничтожает сессию на сервере (POST /logout).
func (c *Client) Logout(session *http.Cookie) error {
	return c.PostJSON("/logout", nil, nil, session)
}
