// Package api содержит HTTP-клиент для взаимодействия с сервером geoauth.
//
// Клиент инкапсулирует базовый URL сервера и настроенный http.Client,
// предоставляя методы для отправки JSON-запросов (POST/GET) с авторизацией
// через session cookie.
//
// Особенности:
//   - baseURL нормализуется (обрезаются завершающие "/").
//   - По умолчанию добавляется заголовок Accept: application/json.
//   - Заголовок Content-Type: application/json добавляется только при наличии тела запроса.
//   - Редиректы не выполняются: для JSON-запросов сервер их не отдаёт.
//   - Пустое тело ответа (EOF при декодировании) не считается ошибкой.
//   - При ошибочных ответах (не 2xx) возвращается ошибка с текстом поля "error"
//     из тела ответа (если тела нет — используется res.Status).
//
// ВНИМАНИЕ: для https NewClient включает InsecureSkipVerify=true (TLS сертификат не проверяется).
// Это допустимо только для разработки и локального окружения.
package api

import (
	"bytes"
	"crypto/tls"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	serr "github.com/IvanChernomyrdin/go-geoauth/internal/shared/errors"
	"github.com/IvanChernomyrdin/go-geoauth/internal/shared/models"
)

// известные ошибки сервера: текст ответа -> доменная ошибка
var knownErrors = []error{
	serr.ErrInvalidInput,
	serr.ErrBadBody,
	serr.ErrInvalidCredentials,
	serr.ErrUnauthenticated,
	serr.ErrAlreadyExists,
	serr.ErrLogoutFailed,
	serr.ErrInternal,
}

// Client реализует HTTP-клиент для общения с сервером geoauth.
//
// Поля:
//   - baseURL: базовый адрес сервера без завершающего слэша.
//   - http: настроенный http.Client (таймаут, транспорт, TLS).
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient создаёт новый HTTP-клиент для общения с сервером.
//
// Параметры:
//   - baseURL: базовый адрес сервера (например: "http://127.0.0.1:8080").
//
// Поведение:
//   - обрезает завершающий "/" у baseURL;
//   - создаёт http.Client с таймаутом 10 секунд, который не ходит по редиректам.
func NewClient(baseURL string) *Client {
	tr := &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, // только для dev
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   10 * time.Second,
			Transport: tr,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// readAPIErrorBody читает тело ответа сервера и возвращает ошибку.
//
// Если текст совпадает с известной доменной ошибкой, возвращается она
// (чтобы вызывающий мог проверить errors.Is).
func readAPIErrorBody(res *http.Response) error {
	raw, _ := io.ReadAll(res.Body)

	msg := strings.TrimSpace(string(raw))
	var body models.ErrorResponse
	if json.Unmarshal(raw, &body) == nil && body.Error != "" {
		msg = body.Error
	}
	if msg == "" {
		msg = res.Status
	}

	for _, known := range knownErrors {
		if strings.EqualFold(msg, known.Error()) {
			return known
		}
	}
	return errors.New(msg)
}

// decodeJSONOrOK декодирует JSON из r в resp. resp == nil — ничего не делает.
// Пустое тело (io.EOF) ошибкой не считается.
func decodeJSONOrOK(r io.Reader, resp any) error {
	if resp == nil {
		return nil
	}
	err := json.NewDecoder(r).Decode(resp)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// do выполняет запрос и возвращает cookie, выставленные сервером.
func (c *Client) do(method, path string, req, resp any, session *http.Cookie) ([]*http.Cookie, error) {
	var body io.Reader
	if req != nil {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(req); err != nil {
			return nil, err
		}
		body = &buf
	}

	r, err := http.NewRequest(method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	r.Header.Set("Accept", "application/json")
	if req != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	if session != nil {
		r.AddCookie(session)
	}

	res, err := c.http.Do(r)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, readAPIErrorBody(res)
	}

	if res.StatusCode == http.StatusNoContent {
		return res.Cookies(), nil
	}
	return res.Cookies(), decodeJSONOrOK(res.Body, resp)
}

// PostJSON выполняет POST-запрос к серверу, сериализуя req в JSON.
//
// Параметры:
//   - path: путь относительно baseURL (например: "/login").
//   - req: объект для сериализации в JSON. Если req == nil, тело не отправляется
//     и Content-Type не устанавливается.
//   - resp: указатель для декодирования JSON-ответа. nil — ответ не декодируется.
//   - session: session cookie. nil — запрос без сессии.
func (c *Client) PostJSON(path string, req any, resp any, session *http.Cookie) error {
	_, err := c.do(http.MethodPost, path, req, resp, session)
	return err
}

// GetJSON выполняет GET-запрос к серверу и (опционально) декодирует JSON-ответ.
//
// Параметры:
//   - path: путь относительно baseURL (например: "/user").
//   - resp: указатель для декодирования JSON-ответа. nil — ответ не декодируется.
//   - session: session cookie. nil — запрос без сессии.
func (c *Client) GetJSON(path string, resp any, session *http.Cookie) error {
	_, err := c.do(http.MethodGet, path, nil, resp, session)
	return err
}
