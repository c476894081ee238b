package external

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"windalert/internal/types"
)

const openMeteoAPIBase = "https://api.open-meteo.com"

// OpenMeteoConfig holds the configuration for creating an OpenMeteoClient.
type OpenMeteoConfig struct {
	BaseURL   string // defaults to openMeteoAPIBase
	Latitude  float64
	Longitude float64
	Logger    *slog.Logger
}

// openMeteoResponse is the subset of the forecast response we read. The
// hourly series are pointers so a JSON null is distinguishable from zero.
type openMeteoResponse struct {
	Hourly struct {
		Time          []string   `json:"time"`
		WindSpeed10m  []*float64 `json:"wind_speed_10m"`
		WindDirection []*float64 `json:"wind_direction_10m"`
	} `json:"hourly"`
}

// OpenMeteoClient reads the current-hour 10 m wind from the Open-Meteo
// forecast API.
type OpenMeteoClient struct {
	base    *BaseClient
	baseURL string
	lat     float64
	lon     float64
	logger  *slog.Logger
}

// NewOpenMeteoClient creates an OpenMeteoClient with the default retry policy.
func NewOpenMeteoClient(httpClient *http.Client, cfg OpenMeteoConfig) *OpenMeteoClient {
	return NewOpenMeteoClientWithBase(
		NewBaseClient(httpClient, "open-meteo", DefaultRetryPolicy(), UserAgent),
		cfg,
	)
}

// NewOpenMeteoClientWithBase creates an OpenMeteoClient around an existing
// BaseClient.
func NewOpenMeteoClientWithBase(base *BaseClient, cfg OpenMeteoConfig) *OpenMeteoClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = openMeteoAPIBase
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &OpenMeteoClient{
		base:    base,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		lat:     cfg.Latitude,
		lon:     cfg.Longitude,
		logger:  logger,
	}
}

// Name identifies the provider in samples and logs.
func (c *OpenMeteoClient) Name() string { return "open-meteo" }

// Fetch requests a one-hour forecast and returns the first hourly wind speed
// (km/h) and direction (degrees). A missing or null value in either series is
// a malformed payload.
func (c *OpenMeteoClient) Fetch(ctx context.Context) (types.WindSample, error) {
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(c.lat, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(c.lon, 'f', -1, 64))
	q.Set("hourly", "wind_speed_10m,wind_direction_10m")
	q.Set("wind_speed_unit", "kmh")
	q.Set("forecast_hours", "1")

	endpoint := c.baseURL + "/v1/forecast?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return types.WindSample{}, types.NewAppError(
			types.ErrCodeInternalUnexpected,
			"failed to create Open-Meteo request",
			err,
		)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.base.Do(req)
	if err != nil {
		return types.WindSample{}, wrapProviderError("Open-Meteo", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.Warn("Open-Meteo API error",
			"status_code", resp.StatusCode,
			"response_body", string(body),
		)
		return types.WindSample{}, types.NewAppError(
			types.ErrCodeUpstreamUnavailable,
			fmt.Sprintf("Open-Meteo returned %d", resp.StatusCode),
			fmt.Errorf("open-meteo: %s", string(body)),
		)
	}

	var payload openMeteoResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return types.WindSample{}, types.NewAppError(
			types.ErrCodeUpstreamMalformedPayload,
			"failed to decode Open-Meteo response",
			err,
		)
	}

	speed := firstValue(payload.Hourly.WindSpeed10m)
	dir := firstValue(payload.Hourly.WindDirection)
	if speed == nil || dir == nil {
		return types.WindSample{}, types.NewAppError(
			types.ErrCodeUpstreamMalformedPayload,
			"missing wind data in Open-Meteo response",
			nil,
		)
	}

	sample := types.WindSample{
		SpeedKmh:     *speed,
		DirectionDeg: *dir,
		Provider:     c.Name(),
	}
	if len(payload.Hourly.Time) > 0 {
		// Open-Meteo returns local ISO times without a zone when no timezone
		// parameter is sent; those are GMT.
		if t, err := time.Parse("2006-01-02T15:04", payload.Hourly.Time[0]); err == nil {
			sample.ObservedAt = t.UTC()
		}
	}

	c.logger.Debug("fetched Open-Meteo wind",
		"speed_kmh", sample.SpeedKmh,
		"direction_deg", sample.DirectionDeg,
	)
	return sample, nil
}

func firstValue(series []*float64) *float64 {
	if len(series) == 0 {
		return nil
	}
	return series[0]
}

// wrapProviderError prefixes a BaseClient error with the vendor name while
// keeping its code, so transient failures stay transient.
func wrapProviderError(vendor string, err error) error {
	var appErr *types.AppError
	if isAppError(err, &appErr) {
		return types.NewAppError(
			appErr.Code,
			fmt.Sprintf("%s: %s", vendor, appErr.Message),
			appErr.Err,
		)
	}
	return types.NewAppError(
		types.ErrCodeUpstreamUnavailable,
		fmt.Sprintf("%s request failed", vendor),
		err,
	)
}
