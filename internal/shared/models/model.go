// Package models содержит модели HTTP API, общие для сервера и CLI-клиента.
package models

// SignupRequest — запрос на регистрацию пользователя.
//
// Используется в:
//
//	POST /signup
//
// Тело принимается как JSON или как application/x-www-form-urlencoded
// (формы статических страниц).
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest — запрос на вход пользователя.
//
// Используется в:
//
//	POST /login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SessionResponse — данные активной сессии.
//
// Возвращается из POST /login и GET /user. Это снимок записи пользователя
// на момент логина, а не живая ссылка на неё.
type SessionResponse struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Location  string `json:"location"`
	Latitude  string `json:"latitude"`
	Longitude string `json:"longitude"`
}

// StatusResponse — простой ответ об успехе.
//
// Возможный контракт:
//
//	{"status": "ok"}
type StatusResponse struct {
	Status string `json:"status"`
}

// ErrorResponse — тело ответа с ошибкой.
type ErrorResponse struct {
	Error string `json:"error"`
}
