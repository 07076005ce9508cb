package tests

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/IvanChernomyrdin/go-geoauth/internal/server/api"
)

func TestClientIP(t *testing.T) {
	cases := []struct {
		name       string
		remoteAddr string
		xff        string
		trust      bool
		want       string
	}{
		{"remote addr", "203.0.113.7:5000", "", false, "203.0.113.7"},
		{"xff ignored without trust", "203.0.113.7:5000", "198.51.100.1", false, "203.0.113.7"},
		{"first xff entry", "10.0.0.1:5000", " 198.51.100.1 , 10.0.0.2", true, "198.51.100.1"},
		{"empty xff falls back", "203.0.113.7:5000", "", true, "203.0.113.7"},
		{"ipv6", "[2001:db8::1]:5000", "", false, "2001:db8::1"},
		{"ipv4 mapped", "[::ffff:203.0.113.7]:5000", "", false, "203.0.113.7"},
		{"loopback passed as is", "127.0.0.1:5000", "", false, "127.0.0.1"},
		{"garbage xff", "10.0.0.1:5000", "unknown", true, ""},
		{"garbage remote", "pipe", "", false, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/signup", nil)
			req.RemoteAddr = tc.remoteAddr
			if tc.xff != "" {
				req.Header.Set("X-Forwarded-For", tc.xff)
			}
			require.Equal(t, tc.want, api.ClientIP(req, tc.trust))
		})
	}
}
