// Серверные модели пользователя, локации и сессии
package models

import (
	"time"

	"github.com/google/uuid"
)

// Значения колонок, которыми в БД обозначается неопределённая локация.
const (
	UnknownCity = "Unknown"
	NoCoord     = ""
)

// Location — приблизительное местоположение, полученное по IP.
//
// Внутри сервиса локация всегда передаётся как *Location:
// nil означает, что геолокацию определить не удалось.
type Location struct {
	City      string
	Latitude  string
	Longitude string
}

// LocationColumns раскладывает локацию в значения колонок location/latitude/longitude.
// Для nil возвращает "Unknown", "", "".
func LocationColumns(loc *Location) (city, latitude, longitude string) {
	if loc == nil {
		return UnknownCity, NoCoord, NoCoord
	}
	return loc.City, loc.Latitude, loc.Longitude
}

// User — сохранённая запись пользователя.
type User struct {
	ID           uuid.UUID
	Name         string
	Email        string
	PasswordHash string
	Location     string
	Latitude     string
	Longitude    string
	CreatedAt    time.Time
}

// NewUser — данные для создания пользователя.
type NewUser struct {
	Name         string
	Email        string
	PasswordHash string
	Location     *Location
}

// SessionPayload — снимок данных пользователя, который хранится в сессии.
type SessionPayload struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Location  string `json:"location"`
	Latitude  string `json:"latitude"`
	Longitude string `json:"longitude"`
}

// PayloadFromUser копирует поля пользователя в payload сессии.
func PayloadFromUser(u User) SessionPayload {
	return SessionPayload{
		Name:      u.Name,
		Email:     u.Email,
		Location:  u.Location,
		Latitude:  u.Latitude,
		Longitude: u.Longitude,
	}
}
