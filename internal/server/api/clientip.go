package api

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// ClientIP определяет IP клиента.
//
// При trustProxy берётся первый адрес из X-Forwarded-For, иначе хост из RemoteAddr.
// Нераспознанный адрес даёт "": сервис геолокации тогда использует fallback IP.
func ClientIP(r *http.Request, trustProxy bool) string {
	var raw string
	if trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			raw, _, _ = strings.Cut(xff, ",")
		}
	}
	if strings.TrimSpace(raw) == "" {
		raw = r.RemoteAddr
		if host, _, err := net.SplitHostPort(raw); err == nil {
			raw = host
		}
	}

	addr, err := netip.ParseAddr(strings.Trim(strings.TrimSpace(raw), "[]"))
	if err != nil {
		return ""
	}
	return addr.Unmap().WithZone("").String()
}
