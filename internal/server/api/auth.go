// HTTP-хендлеры регистрации, логина, текущего пользователя и выхода
package api

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/IvanChernomyrdin/go-geoauth/internal/server/crypto"
	"github.com/IvanChernomyrdin/go-geoauth/internal/server/middleware"
	"github.com/IvanChernomyrdin/go-geoauth/internal/server/service"
	smodels "github.com/IvanChernomyrdin/go-geoauth/internal/server/models"
	serr "github.com/IvanChernomyrdin/go-geoauth/internal/shared/errors"
	"github.com/IvanChernomyrdin/go-geoauth/internal/shared/models"
)

// Страницы статики, на которые ведут редиректы после отправки HTML-форм.
const (
	SignupPage    = "/signup.html"
	LoginPage     = "/login.html"
	DashboardPage = "/dashboard.html"
)

// Signup обрабатывает регистрацию пользователя.
//
// Тело принимается как JSON или как форма (name, email, password).
// После отправки формы браузер перенаправляется на страницу логина,
// а при ошибке обратно на страницу регистрации с ?error=<текст ошибки>.
// Локация определяется по IP клиента и на исход регистрации не влияет.
//
// Ответы:
//   - 201 Created: регистрация успешна;
//   - 303 See Other: ответ на отправку формы (успех или ошибка);
//   - 400 Bad Request: неверное тело или невалидные входные данные;
//   - 409 Conflict: пользователь уже существует;
//   - 500 Internal Server Error: прочие ошибки.
//
// @Summary      Sign up
// @Description  Creates a user. Location is detected by client IP and never blocks signup.
// @Tags         auth
// @Accept       json
// @Accept       x-www-form-urlencoded
// @Produce      json
// @Param        request body models.SignupRequest true "Signup request"
// @Success      201 {object} models.StatusResponse
// @Failure      400 {object} models.ErrorResponse "Invalid input or bad body"
// @Failure      409 {object} models.ErrorResponse "User already exists"
// @Failure      500 {object} models.ErrorResponse "Internal server error"
// @Router       /signup [post]
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req models.SignupRequest
	if err := h.decode(w, r, &req, func(get func(string) string) {
		req.Name, req.Email, req.Password = get("name"), get("email"), get("password")
	}); err != nil {
		h.fail(w, r, SignupPage, http.StatusBadRequest, serr.ErrBadBody)
		return
	}

	err := h.Svc.Auth.Signup(r.Context(), service.SignupInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		ClientIP: ClientIP(r, h.Opts.TrustProxy),
	})
	if err != nil {
		switch {
		case errors.Is(err, serr.ErrInvalidInput):
			h.fail(w, r, SignupPage, http.StatusBadRequest, serr.ErrInvalidInput)
		case errors.Is(err, serr.ErrAlreadyExists):
			h.fail(w, r, SignupPage, http.StatusConflict, serr.ErrAlreadyExists)
		default:
			h.Log.Sugar().Errorf("signup failed: %v", err)
			h.fail(w, r, SignupPage, http.StatusInternalServerError, serr.ErrInternal)
		}
		return
	}

	if isForm(r) {
		http.Redirect(w, r, LoginPage, http.StatusSeeOther)
		return
	}
	writeJSON(w, http.StatusCreated, models.StatusResponse{Status: "ok"})
}

// Login обрабатывает вход пользователя и выдачу session cookie.
//
// Ответы:
//   - 200 OK: успешный вход, в теле данные сессии;
//   - 303 See Other: ответ на отправку формы (dashboard или login.html?error=...);
//   - 400 Bad Request: неверное тело запроса;
//   - 401 Unauthorized: неверные учётные данные;
//   - 500 Internal Server Error: прочие ошибки.
//
// @Summary      Log in
// @Description  Verifies credentials, creates a server-side session and sets the session cookie.
// @Tags         auth
// @Accept       json
// @Accept       x-www-form-urlencoded
// @Produce      json
// @Param        request body models.LoginRequest true "Login request"
// @Success      200 {object} models.SessionResponse
// @Failure      400 {object} models.ErrorResponse "Bad body"
// @Failure      401 {object} models.ErrorResponse "Invalid credentials"
// @Failure      500 {object} models.ErrorResponse "Internal server error"
// @Router       /login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := h.decode(w, r, &req, func(get func(string) string) {
		req.Email, req.Password = get("email"), get("password")
	}); err != nil {
		h.fail(w, r, LoginPage, http.StatusBadRequest, serr.ErrBadBody)
		return
	}

	res, err := h.Svc.Auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, serr.ErrInvalidCredentials):
			h.fail(w, r, LoginPage, http.StatusUnauthorized, serr.ErrInvalidCredentials)
		default:
			h.Log.Sugar().Errorf("login failed: %v", err)
			h.fail(w, r, LoginPage, http.StatusInternalServerError, serr.ErrInternal)
		}
		return
	}

	value, err := crypto.SignSessionCookie(res.SessionID, h.Verifier.Cookie)
	if err != nil {
		h.Log.Sugar().Errorf("sign session cookie: %v", err)
		h.fail(w, r, LoginPage, http.StatusInternalServerError, serr.ErrInternal)
		return
	}

	http.SetCookie(w, h.sessionCookie(value, res.ExpiresAt))
	if isForm(r) {
		http.Redirect(w, r, DashboardPage, http.StatusSeeOther)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse(res.Payload))
}

// CurrentUser возвращает данные активной сессии.
//
// Ответы:
//   - 200 OK: данные сессии;
//   - 401 Unauthorized: сессии нет;
//   - 500 Internal Server Error: хранилище недоступно.
//
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Success      200 {object} models.SessionResponse
// @Failure      401 {object} models.ErrorResponse "Not logged in"
// @Failure      500 {object} models.ErrorResponse "Internal server error"
// @Router       /user [get]
func (h *Handler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	p, err := h.Svc.Auth.CurrentSession(r.Context(), h.sessionID(r))
	if err != nil {
		switch {
		case errors.Is(err, serr.ErrUnauthenticated):
			WriteError(w, http.StatusUnauthorized, serr.ErrUnauthenticated)
		default:
			h.Log.Sugar().Errorf("read session failed: %v", err)
			WriteError(w, http.StatusInternalServerError, serr.ErrInternal)
		}
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse(p))
}

// Logout уничтожает сессию и очищает cookie. Без сессии тоже 200.
//
// Ответы:
//   - 200 OK: сессия уничтожена;
//   - 303 See Other: выход из браузера, редирект на страницу логина;
//   - 500 Internal Server Error: не удалось удалить сессию.
//
// @Summary      Log out
// @Tags         auth
// @Produce      json
// @Success      200 {object} models.StatusResponse
// @Failure      500 {object} models.ErrorResponse "Error logging out"
// @Router       /logout [get]
// @Router       /logout [post]
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.Svc.Auth.Logout(r.Context(), h.sessionID(r)); err != nil {
		h.Log.Sugar().Errorf("logout failed: %v", err)
		WriteError(w, http.StatusInternalServerError, serr.ErrLogoutFailed)
		return
	}

	http.SetCookie(w, h.clearCookie())
	if wantsHTML(r) {
		http.Redirect(w, r, LoginPage, http.StatusSeeOther)
		return
	}
	writeJSON(w, http.StatusOK, models.StatusResponse{Status: "ok"})
}

// sessionID берёт id из контекста (LoadSession) или проверяет cookie сам.
func (h *Handler) sessionID(r *http.Request) string {
	if id, ok := middleware.SessionIDFromContext(r.Context()); ok {
		return id
	}
	return h.Verifier.SessionID(r)
}

// decode читает JSON или форму в зависимости от Content-Type.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any, fromForm func(get func(string) string)) error {
	r.Body = http.MaxBytesReader(w, r.Body, h.Opts.MaxBodyBytes)

	if isForm(r) {
		if err := r.ParseForm(); err != nil {
			return err
		}
		fromForm(r.PostForm.Get)
		return nil
	}

	return json.NewDecoder(r.Body).Decode(dst)
}

// fail отвечает ошибкой: JSON-клиенту статусом и телом {"error"},
// HTML-форме редиректом обратно на page с текстом ошибки в ?error=.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, page string, status int, err error) {
	if isForm(r) {
		http.Redirect(w, r, page+"?error="+url.QueryEscape(err.Error()), http.StatusSeeOther)
		return
	}
	WriteError(w, status, err)
}

// isForm — запрос пришёл из HTML-формы.
func isForm(r *http.Request) bool {
	ct, _, _ := mime.ParseMediaType(r.Header.Get(ContentType))
	return ct == FormContentType
}

// wantsHTML — запрос от браузера (переход по ссылке).
func wantsHTML(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

func (h *Handler) sessionCookie(value string, expiresAt time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     h.Verifier.CookieName,
		Value:    value,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   h.Opts.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	}
}

func (h *Handler) clearCookie() *http.Cookie {
	return &http.Cookie{
		Name:     h.Verifier.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.Opts.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	}
}

func sessionResponse(p smodels.SessionPayload) models.SessionResponse {
	return models.SessionResponse{
		Name:      p.Name,
		Email:     p.Email,
		Location:  p.Location,
		Latitude:  p.Latitude,
		Longitude: p.Longitude,
	}
}
