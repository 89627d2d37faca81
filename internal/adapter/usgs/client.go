// Package usgs implements domain.StreamflowProvider against the USGS Water
// Services instantaneous values API.
package usgs

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

	"github.com/couchcryptid/floodplan-service/internal/domain"
	"github.com/couchcryptid/floodplan-service/internal/observability"
	"golang.org/x/time/rate"
)

const (
	providerName = "usgs"

	// Discharge, cubic feet per second.
	parameterDischarge = "00060"
)

// Client fetches the latest discharge readings for gauge sites.
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

// LatestDischarge returns the most recent discharge per site. Sites with no
// valid reading are absent from the map.
func (c *Client) LatestDischarge(ctx context.Context, sites []string) (map[string]float64, error) {
	params := url.Values{
		"format":      {"json"},
		"sites":       {strings.Join(sites, ",")},
		"parameterCd": {parameterDischarge},
		"siteStatus":  {"active"},
	}

	resp, err := c.fetch(ctx, c.baseURL+"/nwis/iv/?"+params.Encode())
	if err != nil {
		return nil, domain.NewProviderError(providerName, err)
	}
	return resp.latest(c.logger), nil
}

func (c *Client) fetch(ctx context.Context, fullURL string) (_ *ivResponse, err error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
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
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("instantaneous values request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, body)
	}
	var out ivResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &out, nil
}

// USGS instantaneous values (WaterML JSON) response types.

type ivResponse struct {
	Value struct {
		TimeSeries []timeSeries `json:"timeSeries"`
	} `json:"value"`
}

type timeSeries struct {
	SourceInfo struct {
		SiteCode []struct {
			Value string `json:"value"`
		} `json:"siteCode"`
	} `json:"sourceInfo"`
	Variable struct {
		NoDataValue float64 `json:"noDataValue"`
	} `json:"variable"`
	Values []struct {
		Value []struct {
			Value    string `json:"value"`
			DateTime string `json:"dateTime"`
		} `json:"value"`
	} `json:"values"`
}

func (r *ivResponse) latest(logger *slog.Logger) map[string]float64 {
	out := make(map[string]float64, len(r.Value.TimeSeries))
	for _, ts := range r.Value.TimeSeries {
		if len(ts.SourceInfo.SiteCode) == 0 || len(ts.Values) == 0 {
			continue
		}
		site := ts.SourceInfo.SiteCode[0].Value
		readings := ts.Values[0].Value
		if len(readings) == 0 {
			continue
		}
		last := readings[len(readings)-1]
		v, err := strconv.ParseFloat(last.Value, 64)
		if err != nil {
			logger.Warn("skipping unparseable discharge", "site", site, "value", last.Value)
			continue
		}
		if v == ts.Variable.NoDataValue || v < 0 {
			continue
		}
		out[site] = v
	}
	return out
}
