// Package errors содержит общие доменные ошибки приложения.
//
// Ошибки используются в service, repository и geo слоях
// и маппятся на HTTP-статусы в api слое. CLI-клиент использует
// их для сравнения ответов сервера.
package errors

import "errors"

var (
	// Входные данные невалидны (пустые поля, неправильный формат email и т.п.)
	ErrInvalidInput = errors.New("invalid input")
	// Полученные JSON/form данные с ошибками
	ErrBadBody = errors.New("bad request body")
	// Неверные учётные данные. Одна и та же ошибка для "нет такого email" и "не тот пароль"
	ErrInvalidCredentials = errors.New("invalid credentials")
	// Нет активной сессии
	ErrUnauthenticated = errors.New("not logged in")
	// Пользователь с таким email уже зарегистрирован
	ErrAlreadyExists = errors.New("user already exists")
	// Ресурс не найден
	ErrNotFound = errors.New("not found")
	// Нарушение уникального ключа на уровне хранилища
	ErrDuplicateKey = errors.New("duplicate key")
	// Хранилище недоступно или вернуло непредвиденную ошибку
	ErrStoreUnavailable = errors.New("store unavailable")
	// Геолокация не получена, наружу не отдаётся
	ErrGeolocationUnavailable = errors.New("geolocation unavailable")
	// Не удалось уничтожить сессию
	ErrLogoutFailed = errors.New("error logging out")
	// Получена непредвиденная ошибка
	ErrInternal = errors.New("internal error")
)
