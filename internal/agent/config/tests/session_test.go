package tests

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/IvanChernomyrdin/go-geoauth/internal/agent/config"
)

func TestDefaultPath_UnderHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)

	p, err := config.DefaultPath()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(home, ".geoauth", "session.json"), p)
}

func TestLoad_MissingFile_ReturnsEmpty(t *testing.T) {
	s, err := config.Load(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	require.NotNil(t, s)
	require.False(t, s.LoggedIn("http://x"))
}

func TestLoad_BadJSON(t *testing.T) {
	p := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(p, []byte("{bad"), 0o600))

	_, err := config.Load(p)
	require.Error(t, err)
}

func TestSaveLoadClear_RoundTrip(t *testing.T) {
	p := filepath.Join(t.TempDir(), "nested", "session.json")
	in := &config.Session{
		ServerURL:   "http://127.0.0.1:8080",
		Email:       "alice@x.com",
		CookieName:  "geoauth.sid",
		CookieValue: "signed",
		ExpiresAt:   time.Now().Add(time.Hour).UTC().Truncate(time.Second),
	}
	require.NoError(t, config.Save(p, in))

	if runtime.GOOS != "windows" {
		fi, err := os.Stat(p)
		require.NoError(t, err)
		require.Equal(t, os.FileMode(0o600), fi.Mode().Perm())
	}

	out, err := config.Load(p)
	require.NoError(t, err)
	require.Equal(t, in.CookieValue, out.CookieValue)
	require.True(t, in.ExpiresAt.Equal(out.ExpiresAt))
	require.True(t, out.LoggedIn("http://127.0.0.1:8080"))
	require.Equal(t, "geoauth.sid", out.Cookie().Name)

	require.NoError(t, config.Clear(p))
	require.NoError(t, config.Clear(p))
	_, err = os.Stat(p)
	require.True(t, os.IsNotExist(err))
}

func TestSession_LoggedIn(t *testing.T) {
	s := &config.Session{ServerURL: "http://a", CookieName: "c", CookieValue: "v"}
	require.True(t, s.LoggedIn("http://a"))
	require.False(t, s.LoggedIn("http://b"))

	s.ExpiresAt = time.Now().Add(-time.Minute)
	require.False(t, s.LoggedIn("http://a"))

	var nilSession *config.Session
	require.False(t, nilSession.LoggedIn("http://a"))
}
