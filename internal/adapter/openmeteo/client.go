// Package openmeteo implements domain.WeatherProvider against the Open-Meteo
// forecast API.
package openmeteo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/floodplan-service/internal/domain"
	"github.com/couchcryptid/floodplan-service/internal/observability"
	"golang.org/x/time/rate"
)

const providerName = "open-meteo"

// Client fetches daily forecasts.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a client allowing rps requests per second.
func NewClient(baseURL string, timeout time.Duration, rps float64, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		metrics:    metrics,
		logger:     logger,
	}
}

// DailyForecast returns up to days daily precipitation and temperature
// totals for point, in inches and Fahrenheit.
func (c *Client) DailyForecast(ctx context.Context, point domain.Geo, days int) ([]domain.WeatherDay, error) {
	params := url.Values{
		"latitude":           {strconv.FormatFloat(point.Lat, 'f', 4, 64)},
		"longitude":          {strconv.FormatFloat(point.Lon, 'f', 4, 64)},
		"daily":              {"precipitation_sum,temperature_2m_max,temperature_2m_min"},
		"precipitation_unit": {"inch"},
		"temperature_unit":   {"fahrenheit"},
		"timezone":           {"auto"},
		"forecast_days":      {strconv.Itoa(days)},
	}

	var resp forecastResponse
	if err := c.get(ctx, c.baseURL+"/v1/forecast?"+params.Encode(), &resp); err != nil {
		return nil, domain.NewProviderError(providerName, err)
	}
	out, err := resp.days()
	if err != nil {
		return nil, domain.NewProviderError(providerName, err)
	}
	if len(out) > days {
		out = out[:days]
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, fullURL string, into any) (err error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}

	start := time.Now()
	defer func() {
		c.metrics.ProviderDuration.WithLabelValues(providerName).Observe(time.Since(start).Seconds())
		outcome := "success"
		if err != nil {
			outcome = "error"
		}
		c.metrics.ProviderRequests.WithLabelValues(providerName, outcome).Inc()
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("forecast request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("status %d: %s", resp.StatusCode, body)
	}
	if err := json.NewDecoder(resp.Body).Decode(into); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	c.logger.Debug("weather forecast fetched", "url", req.URL.Path)
	return nil
}

// Open-Meteo API response types.

type forecastResponse struct {
	Daily struct {
		Time             []string  `json:"time"`
		PrecipitationSum []float64 `json:"precipitation_sum"`
		TempMax          []float64 `json:"temperature_2m_max"`
		TempMin          []float64 `json:"temperature_2m_min"`
	} `json:"daily"`
}

func (r forecastResponse) days() ([]domain.WeatherDay, error) {
	d := r.Daily
	n := len(d.Time)
	if len(d.PrecipitationSum) != n || len(d.TempMax) != n || len(d.TempMin) != n {
		return nil, fmt.Errorf("daily arrays have mismatched lengths (%d time, %d precipitation)", n, len(d.PrecipitationSum))
	}
	out := make([]domain.WeatherDay, n)
	for i, s := range d.Time {
		date, err := time.Parse(time.DateOnly, s)
		if err != nil {
			return nil, fmt.Errorf("parse day %q: %w", s, err)
		}
		out[i] = domain.WeatherDay{
			Date:            date,
			PrecipitationIn: d.PrecipitationSum[i],
			TempMaxF:        d.TempMax[i],
			TempMinF:        d.TempMin[i],
		}
	}
	return out, nil
}
