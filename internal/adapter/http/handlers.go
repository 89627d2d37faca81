package http

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/floodplan-service/internal/dashboard"
	"github.com/couchcryptid/floodplan-service/internal/domain"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/gorilla/mux"
)

const maxForecastDays = 16

type dashboardHandler func(w http.ResponseWriter, r *http.Request, d *dashboard.Dashboard)

func (s *Server) withDashboard(h dashboardHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		d, ok := s.dashboards[id]
		if !ok {
			writeError(w, http.StatusNotFound, fmt.Sprintf("dashboard %q not found", id))
			return
		}
		h(w, r, d)
	}
}

type dashboardSummary struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Live     bool   `json:"live"`
	Interval string `json:"jitter_interval"`
}

func (s *Server) handleList(w http.ResponseWriter, _ *http.Request) {
	out := make([]dashboardSummary, 0, len(s.order))
	for _, id := range s.order {
		d := s.dashboards[id]
		out = append(out, dashboardSummary{
			ID:       d.ID(),
			Title:    d.Title(),
			Live:     d.Live(),
			Interval: d.Interval().String(),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type dashboardDetail struct {
	Snapshot    domain.Snapshot   `json:"snapshot"`
	Live        bool              `json:"live"`
	Thresholds  domain.Thresholds `json:"thresholds"`
	LastRefresh *time.Time        `json:"last_refresh,omitempty"`
}

func (s *Server) handleDashboard(w http.ResponseWriter, _ *http.Request, d *dashboard.Dashboard) {
	snap, err := d.Snapshot()
	if err != nil {
		s.internalError(w, d, err)
		return
	}
	detail := dashboardDetail{Snapshot: snap, Live: d.Live(), Thresholds: d.Thresholds()}
	if t := d.LastRefresh(); !t.IsZero() {
		detail.LastRefresh = &t
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleClosest(w http.ResponseWriter, r *http.Request, d *dashboard.Dashboard) {
	q := r.URL.Query()
	lat, err := parseFloat(q, "lat")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	lon, err := parseFloat(q, "lon")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	c, err := d.Closest(r.Context(), lat, lon)
	if err != nil {
		s.internalError(w, d, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleScore(w http.ResponseWriter, r *http.Request, d *dashboard.Dashboard) {
	month, err := parseMonth(r.URL.Query(), d.Now().Month())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	score, err := d.Score(mux.Vars(r)["region"], month)
	if errors.Is(err, domain.ErrRegionNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		s.internalError(w, d, err)
		return
	}
	writeJSON(w, http.StatusOK, score)
}

func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request, d *dashboard.Dashboard) {
	q := r.URL.Query()
	var req dashboard.ForecastRequest
	if q.Has("days") {
		days, err := strconv.Atoi(q.Get("days"))
		if err != nil || days < 1 || days > maxForecastDays {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("days must be an integer in [1,%d]", maxForecastDays))
			return
		}
		req.Days = days
	}
	if q.Has("start") {
		start, err := parseFloat(q, "start")
		if err != nil || start < 0 || start > 100 {
			writeError(w, http.StatusBadRequest, "start must be a number in [0,100]")
			return
		}
		req.Start = &start
	}
	writeJSON(w, http.StatusOK, d.Forecast(req))
}

func (s *Server) handleMap(w http.ResponseWriter, _ *http.Request, d *dashboard.Dashboard) {
	layer, err := d.MapLayer()
	if err != nil {
		s.internalError(w, d, err)
		return
	}
	writeJSON(w, http.StatusOK, layer)
}

func (s *Server) handleCharts(w http.ResponseWriter, r *http.Request, d *dashboard.Dashboard) {
	month, err := parseMonth(r.URL.Query(), d.Now().Month())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	specs, err := d.Charts(month)
	if err != nil {
		s.internalError(w, d, err)
		return
	}
	writeJSON(w, http.StatusOK, specs)
}

func (s *Server) handleChartsHTML(w http.ResponseWriter, r *http.Request, d *dashboard.Dashboard) {
	month, err := parseMonth(r.URL.Query(), d.Now().Month())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	specs, err := d.Charts(month)
	if err != nil {
		s.internalError(w, d, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.charts.RenderOrPlaceholder(w, d.ID(), d.Title(), specs); err != nil {
		s.logger.Error("write chart page", "dashboard", d.ID(), "error", err)
	}
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request, d *dashboard.Dashboard) {
	snap, err := d.Refresh(r.Context())
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, snap)
	case errors.Is(err, dashboard.ErrRefreshInProgress):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, dashboard.ErrClosed), errors.Is(err, dashboard.ErrStaleRefresh):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		s.internalError(w, d, err)
	}
}

func (s *Server) internalError(w http.ResponseWriter, d *dashboard.Dashboard, err error) {
	s.logger.Error("request failed", "dashboard", d.ID(), "error", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

func parseFloat(q url.Values, key string) (float64, error) {
	v, err := strconv.ParseFloat(q.Get(key), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return v, nil
}

// parseMonth reads ?month=1..12, defaulting to def when absent.
func parseMonth(q url.Values, def time.Month) (time.Month, error) {
	if !q.Has("month") {
		return def, nil
	}
	m, err := strconv.Atoi(q.Get("month"))
	if err != nil || m < 1 || m > 12 {
		return 0, errors.New("month must be an integer in [1,12]")
	}
	return time.Month(m), nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	sharedobs.WriteJSON(w, status, v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	sharedobs.WriteJSON(w, status, map[string]string{"error": msg})
}
