package tests

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/IvanChernomyrdin/go-geoauth/internal/agent/api"
	serr "github.com/IvanChernomyrdin/go-geoauth/internal/shared/errors"
	"github.com/IvanChernomyrdin/go-geoauth/internal/shared/models"
)

func TestClient_Signup_Success(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/signup", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req models.SignupRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, models.SignupRequest{Name: "Alice", Email: "alice@x.com", Password: "pw1"}, req)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(models.StatusResponse{Status: "ok"})
	})

	srv := httptest.NewTLSServer(mux)
	defer srv.Close()

	require.NoError(t, api.NewClient(srv.URL).Signup("Alice", "alice@x.com", "pw1"))
}

func TestClient_Signup_AlreadyExists(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/signup", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(models.ErrorResponse{Error: serr.ErrAlreadyExists.Error()})
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	err := api.NewClient(srv.URL).Signup("Alice", "alice@x.com", "pw1")
	require.ErrorIs(t, err, serr.ErrAlreadyExists)
}

func TestClient_Login_ReturnsPayloadAndCookie(t *testing.T) {
	want := models.SessionResponse{Name: "Alice", Email: "alice@x.com", Location: "Pune", Latitude: "18.5196", Longitude: "73.8553"}

	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		var req models.LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "alice@x.com", req.Email)

		http.SetCookie(w, &http.Cookie{Name: "geoauth.sid", Value: "signed-1", Path: "/", HttpOnly: true})
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(want)
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	got, cookie, err := api.NewClient(srv.URL).Login("alice@x.com", "pw1")
	require.NoError(t, err)
	require.Equal(t, want, got)
	require.Equal(t, "geoauth.sid", cookie.Name)
	require.Equal(t, "signed-1", cookie.Value)
}

func TestClient_Login_NoCookie(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	_, _, err := api.NewClient(srv.URL).Login("alice@x.com", "pw1")
	require.ErrorIs(t, err, api.ErrNoSessionCookie)
}

func TestClient_Login_InvalidCredentials(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(models.ErrorResponse{Error: serr.ErrInvalidCredentials.Error()})
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	_, _, err := api.NewClient(srv.URL).Login("alice@x.com", "bad")
	require.ErrorIs(t, err, serr.ErrInvalidCredentials)
}

func TestClient_MeAndLogout_SendCookie(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		c, err := r.Cookie("geoauth.sid")
		require.NoError(t, err)
		require.Equal(t, "signed-1", c.Value)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(models.SessionResponse{Name: "Alice", Location: "Unknown"})
	})
	mux.HandleFunc("/logout", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		_, err := r.Cookie("geoauth.sid")
		require.NoError(t, err)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(models.StatusResponse{Status: "ok"})
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := api.NewClient(srv.URL)
	session := &http.Cookie{Name: "geoauth.sid", Value: "signed-1"}

	me, err := c.Me(session)
	require.NoError(t, err)
	require.Equal(t, "Unknown", me.Location)

	require.NoError(t, c.Logout(session))
}
