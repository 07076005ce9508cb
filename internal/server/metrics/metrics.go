// Package metrics содержит prometheus-метрики сервера.
//
// Метрики объявлены на уровне пакета (так принято в prometheus) и начинают
// отдаваться только после RegisterMetrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Результаты операций для label "result".
const (
	ResultOK                 = "ok"
	ResultAlreadyExists      = "already_exists"
	ResultInvalidInput       = "invalid_input"
	ResultInvalidCredentials = "invalid_credentials"
	ResultUnauthenticated    = "unauthenticated"
	ResultFallback           = "fallback"
	ResultError              = "error"
)

// AuthOperations — счётчик операций auth-сервиса.
var AuthOperations = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "geoauth_auth_operations_total",
		Help: "Total number of auth operations by operation and result",
	},
	[]string{"operation", "result"},
)

// GeoLookups — счётчик обращений к сервису геолокации.
var GeoLookups = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "geoauth_geo_lookups_total",
		Help: "Total number of geo-IP lookups by result",
	},
	[]string{"result"},
)

// GeoLookupDuration — длительность обращений к сервису геолокации.
var GeoLookupDuration = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "geoauth_geo_lookup_duration_seconds",
		Help:    "Geo-IP lookup duration in seconds",
		Buckets: prometheus.DefBuckets,
	},
)

// RegisterMetrics регистрирует метрики пакета в reg.
// Паникует при повторной регистрации (конвенция prometheus).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(AuthOperations)
	reg.MustRegister(GeoLookups)
	reg.MustRegister(GeoLookupDuration)
}

// Handler отдаёт метрики из g в формате prometheus.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func RecordAuth(operation, result string) {
	AuthOperations.WithLabelValues(operation, result).Inc()
}

func RecordGeoLookup(result string, d time.Duration) {
	GeoLookups.WithLabelValues(result).Inc()
	GeoLookupDuration.Observe(d.Seconds())
}
