// Package geo реализует best-effort определение местоположения по IP
// через внешний сервис (по умолчанию https://ipapi.co).
//
// Сервис считается ненадёжным: любая ошибка (таймаут, не-2xx ответ, битый JSON,
// ответ с error=true) превращается в отсутствующую локацию. Регистрация из-за
// геолокации никогда не падает. Повторных попыток нет.
package geo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/IvanChernomyrdin/go-geoauth/internal/server/metrics"
	"github.com/IvanChernomyrdin/go-geoauth/internal/server/models"
	serr "github.com/IvanChernomyrdin/go-geoauth/internal/shared/errors"
	"github.com/IvanChernomyrdin/go-geoauth/internal/shared/utils"
)

// maxBodyBytes ограничивает размер читаемого ответа сервиса.
const maxBodyBytes = 64 << 10

// Config — параметры резолвера.
type Config struct {
	// BaseURL — адрес сервиса, запрос уходит на <BaseURL>/<ip>/json/.
	BaseURL string
	// Timeout — ограничение на весь запрос.
	Timeout time.Duration
	// FallbackIP — IP, который используется, если IP клиента неизвестен.
	FallbackIP string
}

// Resolver ходит во внешний geo-IP сервис.
type Resolver struct {
	baseURL    string
	timeout    time.Duration
	fallbackIP string
	http       *http.Client
	log        *zap.Logger
}

// NewResolver создаёт резолвер. client == nil — используется отдельный http.Client
// (таймаут задаётся через context, а не через http.Client.Timeout).
func NewResolver(cfg Config, client *http.Client, log *zap.Logger) *Resolver {
	if client == nil {
		client = &http.Client{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		timeout:    cfg.Timeout,
		fallbackIP: cfg.FallbackIP,
		http:       client,
		log:        log,
	}
}

// ipapiResponse — интересующие нас поля ответа ipapi.co.
type ipapiResponse struct {
	City      string `json:"city"`
	Latitude  coord  `json:"latitude"`
	Longitude coord  `json:"longitude"`
	Error     bool   `json:"error"`
	Reason    string `json:"reason"`
}

// coord принимает координату и числом, и строкой.
type coord string

func (c *coord) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*c = ""
		return nil
	}

	s := string(b)
	if len(b) > 0 && b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s = strings.TrimSpace(s); s == "" {
			*c = ""
			return nil
		}
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("bad coordinate %q", s)
	}
	*c = coord(strconv.FormatFloat(f, 'f', -1, 64))
	return nil
}

// Lookup делает один запрос к сервису и возвращает локацию или ошибку,
// обёрнутую в ErrGeolocationUnavailable.
//
// Пустой ip заменяется на FallbackIP. Пустой city при наличии координат
// превращается в "Unknown".
func (r *Resolver) Lookup(ctx context.Context, ip string) (models.Location, error) {
	ip = utils.FirstNonEmpty(ip, r.fallbackIP)
	if ip == "" {
		return models.Location{}, fmt.Errorf("%w: no ip to look up", serr.ErrGeolocationUnavailable)
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	endpoint := r.baseURL + "/" + url.PathEscape(ip) + "/json/"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return models.Location{}, fmt.Errorf("%w: %v", serr.ErrGeolocationUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	res, err := r.http.Do(req)
	if err != nil {
		return models.Location{}, fmt.Errorf("%w: %v", serr.ErrGeolocationUnavailable, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		// дочитываем, чтобы соединение вернулось в пул
		_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, maxBodyBytes))
		return models.Location{}, fmt.Errorf("%w: status %s", serr.ErrGeolocationUnavailable, res.Status)
	}

	var body ipapiResponse
	if err := json.NewDecoder(io.LimitReader(res.Body, maxBodyBytes)).Decode(&body); err != nil {
		return models.Location{}, fmt.Errorf("%w: decode: %v", serr.ErrGeolocationUnavailable, err)
	}
	if body.Error {
		return models.Location{}, fmt.Errorf("%w: provider error: %s", serr.ErrGeolocationUnavailable, body.Reason)
	}
	if body.Latitude == "" || body.Longitude == "" {
		return models.Location{}, fmt.Errorf("%w: no coordinates in response", serr.ErrGeolocationUnavailable)
	}

	city := strings.TrimSpace(body.City)
	if city == "" {
		city = models.UnknownCity
	}

	return models.Location{
		City:      city,
		Latitude:  string(body.Latitude),
		Longitude: string(body.Longitude),
	}, nil
}

// Resolve — Lookup, который никогда не падает: при любой ошибке возвращает nil.
func (r *Resolver) Resolve(ctx context.Context, ip string) *models.Location {
	start := time.Now()

	loc, err := r.Lookup(ctx, ip)
	if err != nil {
		metrics.RecordGeoLookup(metrics.ResultFallback, time.Since(start))
		r.log.Warn("error detecting location", zap.String("ip", ip), zap.Error(err))
		return nil
	}

	metrics.RecordGeoLookup(metrics.ResultOK, time.Since(start))
	return utils.Ptr(loc)
}
