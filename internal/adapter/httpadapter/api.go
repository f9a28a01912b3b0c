package httpadapter

import (
	"context"
	"net/http"
	"strconv"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"golang.org/x/time/rate"

	"github.com/couchcryptid/covid-stats-service/internal/domain"
	"github.com/couchcryptid/covid-stats-service/internal/pipeline"
	"github.com/couchcryptid/covid-stats-service/internal/snapshot"
	"github.com/couchcryptid/covid-stats-service/internal/view"
)

// SnapshotReader returns the latest applied fetch-cycle outcome.
type SnapshotReader interface {
	Current() snapshot.State
}

// Refresher runs one fetch cycle on demand.
type Refresher interface {
	RunCycle(ctx context.Context) pipeline.CycleResult
}

// API wires the data routes. Limiter throttles POST /api/v1/refresh; a nil
// limiter allows every request.
type API struct {
	Snapshots SnapshotReader
	Refresher Refresher
	Limiter   *rate.Limiter
}

type errorResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type refreshResponse struct {
	Status    string    `json:"status"`
	Cycle     uint64    `json:"cycle"`
	Applied   bool      `json:"applied"`
	Countries int       `json:"countries"`
	FetchedAt time.Time `json:"fetched_at"`
}

// refreshTimeout bounds a manual cycle once the client has gone away.
const refreshTimeout = 45 * time.Second

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	snap, ok := s.snapshot(w)
	if !ok {
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, snap)
}

func (s *Server) handleMarkers(w http.ResponseWriter, r *http.Request) {
	metric, ok := parseMetric(w, r)
	if !ok {
		return
	}
	snap, ok := s.snapshot(w)
	if !ok {
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, view.Markers(snap, metric))
}

func (s *Server) handleTreemap(w http.ResponseWriter, r *http.Request) {
	metric, ok := parseMetric(w, r)
	if !ok {
		return
	}
	snap, ok := s.snapshot(w)
	if !ok {
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, view.Treemap(snap, metric))
}

func (s *Server) handleTable(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query, err := view.ParseQuery(q.Get("sort"), q.Get("order"), q.Get("page"), q.Get("page_size"))
	if err != nil {
		sharedobs.WriteJSON(w, http.StatusBadRequest, errorResponse{Status: "bad request", Error: err.Error()})
		return
	}
	snap, ok := s.snapshot(w)
	if !ok {
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, view.Table(snap, query))
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if s.api.Refresher == nil {
		sharedobs.WriteJSON(w, http.StatusNotImplemented, errorResponse{Status: "unavailable", Error: "refresh is not enabled"})
		return
	}
	if s.api.Limiter != nil {
		res := s.api.Limiter.Reserve()
		if delay := res.Delay(); delay > 0 {
			res.Cancel()
			w.Header().Set("Retry-After", strconv.Itoa(int(delay.Seconds())+1))
			sharedobs.WriteJSON(w, http.StatusTooManyRequests, errorResponse{Status: "throttled", Error: "refresh rate limit exceeded"})
			return
		}
	}

	// A client disconnect must not turn into a failed cycle.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), refreshTimeout)
	defer cancel()

	result := s.api.Refresher.RunCycle(ctx)
	if result.Err != nil {
		s.logger.Warn("manual refresh failed", "cycle", result.Cycle, "error", result.Err)
		sharedobs.WriteJSON(w, http.StatusBadGateway, errorResponse{Status: "error", Error: result.Err.Error()})
		return
	}

	sharedobs.WriteJSON(w, http.StatusOK, refreshResponse{
		Status:    "ok",
		Cycle:     result.Cycle,
		Applied:   result.Applied,
		Countries: len(result.Snapshot.Stats),
		FetchedAt: result.Snapshot.FetchedAt,
	})
}

// snapshot writes the error response and returns false unless the latest
// applied cycle succeeded.
func (s *Server) snapshot(w http.ResponseWriter) (*domain.Snapshot, bool) {
	state := s.api.Snapshots.Current()
	switch {
	case state.Err != nil:
		sharedobs.WriteJSON(w, http.StatusBadGateway, errorResponse{Status: "error", Error: state.Err.Error()})
		return nil, false
	case !state.Ready():
		sharedobs.WriteJSON(w, http.StatusServiceUnavailable, errorResponse{Status: "loading"})
		return nil, false
	}
	return state.Snapshot, true
}

func parseMetric(w http.ResponseWriter, r *http.Request) (domain.Metric, bool) {
	m, err := domain.ParseMetric(r.PathValue("metric"))
	if err != nil {
		sharedobs.WriteJSON(w, http.StatusBadRequest, errorResponse{Status: "bad request", Error: err.Error()})
		return "", false
	}
	return m, true
}
