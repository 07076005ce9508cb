// Хэширование паролей
package crypto

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// Поддерживаемые алгоритмы хэширования.
const (
	AlgBcrypt   = "bcrypt"
	AlgArgon2id = "argon2id"
)

var (
	// ErrEmptyPassword — хэшировать пустой пароль нельзя.
	ErrEmptyPassword = errors.New("empty password")
	// ErrPasswordTooLong — bcrypt принимает не больше 72 байт.
	ErrPasswordTooLong = bcrypt.ErrPasswordTooLong
	// ErrUnknownHashFormat — строка хэша не похожа ни на bcrypt, ни на argon2id.
	ErrUnknownHashFormat = errors.New("invalid hash format")
	// ErrInvalidArgon2Params — параметры argon2id не заданы (нулевые).
	ErrInvalidArgon2Params = errors.New("invalid argon2id params")
)

// Argon2Params — параметры argon2id. Все поля должны быть ненулевыми.
type Argon2Params struct {
	Time      uint32
	MemoryKiB uint32
	Threads   uint8
	KeyLen    uint32
	SaltLen   uint32
}

// PasswordHasher хэширует пароли выбранным алгоритмом.
// Проверка (VerifyPassword) определяет алгоритм по самому хэшу,
// поэтому смена Algorithm не ломает вход старых пользователей.
type PasswordHasher struct {
	Algorithm  string
	BcryptCost int
	Argon2     Argon2Params
}

// Hash возвращает соленый хэш пароля.
func (h PasswordHasher) Hash(password string) (string, error) {
	switch strings.ToLower(h.Algorithm) {
	case AlgArgon2id:
		return HashPassword(password, h.Argon2)
	case AlgBcrypt, "":
		return HashPasswordBcrypt(password, h.BcryptCost)
	default:
		return "", fmt.Errorf("unknown hasher %q", h.Algorithm)
	}
}

// HashPasswordBcrypt возвращает bcrypt-хэш ($2a$<cost>$...).
// cost <= 0 означает bcrypt.DefaultCost (10).
func HashPasswordBcrypt(password string, cost int) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// HashPassword возвращает строку формата:
// argon2id$v=19$m=65536,t=3,p=2$<salt_b64>$<hash_b64>
func HashPassword(password string, p Argon2Params) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	if p.Time == 0 || p.MemoryKiB == 0 || p.Threads == 0 || p.KeyLen == 0 || p.SaltLen == 0 {
		return "", ErrInvalidArgon2Params
	}

	salt := make([]byte, p.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("read salt: %w", err)
	}

	hash := argon2.IDKey([]byte(password), salt, p.Time, p.MemoryKiB, p.Threads, p.KeyLen)

	encoded := fmt.Sprintf(
		"argon2id$v=19$m=%d,t=%d,p=%d$%s$%s",
		p.MemoryKiB, p.Time, p.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	)
	return encoded, nil
}

// VerifyPassword сверяет пароль с хэшем bcrypt или argon2id.
//
// Несовпадение пароля — (false, nil). Ошибка возвращается только
// для битого хэша.
func VerifyPassword(password, encoded string) (bool, error) {
	switch {
	case strings.HasPrefix(encoded, "$2"):
		err := bcrypt.CompareHashAndPassword([]byte(encoded), []byte(password))
		if err == nil {
			return true, nil
		}
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		return false, err
	case strings.HasPrefix(encoded, AlgArgon2id+"$"):
		return verifyArgon2(password, encoded)
	default:
		return false, ErrUnknownHashFormat
	}
}

func verifyArgon2(password, encoded string) (bool, error) {
	// argon2id $ v=19 $ m=...,t=...,p=... $ salt $ hash
	parts := strings.Split(encoded, "$")
	if len(parts) != 5 {
		return false, ErrUnknownHashFormat
	}

	var memory, time uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[2], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return false, errors.New("invalid params format")
	}
	if memory == 0 || time == 0 || threads == 0 {
		return false, ErrUnknownHashFormat
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[3])
	if err != nil {
		return false, errors.New("invalid salt")
	}

	wantHash, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, errors.New("invalid hash")
	}
	if len(salt) == 0 || len(wantHash) == 0 {
		return false, ErrUnknownHashFormat
	}

	got := argon2.IDKey([]byte(password), salt, time, memory, threads, uint32(len(wantHash)))
	return subtle.ConstantTimeCompare(got, wantHash) == 1, nil
}
