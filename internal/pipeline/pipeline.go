package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/covid-stats-service/internal/domain"
	"github.com/couchcryptid/covid-stats-service/internal/observability"
	"github.com/couchcryptid/covid-stats-service/internal/snapshot"
)

// Source reads the grouped rows of one category.
type Source interface {
	FetchCategory(ctx context.Context, category domain.Category) ([]domain.RawLocationRow, error)
}

// Publisher forwards committed snapshots to an external sink.
type Publisher interface {
	PublishSnapshot(ctx context.Context, snap *domain.Snapshot) error
}

// CycleResult is the typed outcome of one fetch cycle.
type CycleResult struct {
	Cycle    uint64
	Snapshot *domain.Snapshot
	Err      error
	// Applied is false when a newer cycle was already published.
	Applied bool
}

// Succeeded reports whether the cycle produced a snapshot.
func (r CycleResult) Succeeded() bool {
	return r.Err == nil && r.Snapshot != nil
}

// Pipeline runs fetch cycles: fetch all categories, merge, derive, publish.
type Pipeline struct {
	source     Source
	aggregator *domain.Aggregator
	store      *snapshot.Store
	publisher  Publisher
	geocoder   domain.Geocoder
	logger     *slog.Logger
	metrics    *observability.Metrics
	clock      clockwork.Clock
	interval   time.Duration
	seq        atomic.Uint64
	publishMu  sync.Mutex
}

// Option customises a Pipeline.
type Option func(*Pipeline)

// WithPublisher forwards committed snapshots to pub, oldest cycle first.
func WithPublisher(pub Publisher) Option {
	return func(p *Pipeline) { p.publisher = pub }
}

// WithGeocoder fills in positions for countries whose source coordinates
// did not parse.
func WithGeocoder(g domain.Geocoder) Option {
	return func(p *Pipeline) { p.geocoder = g }
}

// WithRefreshInterval makes Run repeat the cycle every d. Zero disables
// periodic refresh.
func WithRefreshInterval(d time.Duration) Option {
	return func(p *Pipeline) { p.interval = d }
}

// WithClock replaces the clock driving the refresh ticker.
func WithClock(c clockwork.Clock) Option {
	return func(p *Pipeline) { p.clock = c }
}

// New creates a Pipeline.
func New(src Source, agg *domain.Aggregator, store *snapshot.Store, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Pipeline {
	p := &Pipeline{
		source:     src,
		aggregator: agg,
		store:      store,
		logger:     logger,
		metrics:    metrics,
		clock:      clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// CheckReadiness returns nil once at least one cycle has committed a snapshot.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if p.store.LastGood() == nil {
		return errors.New("no snapshot has been published yet")
	}
	return nil
}

// Run executes one cycle immediately and then one per refresh interval until
// the context is cancelled. Cycle failures are logged, never returned.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "refresh_interval", p.interval)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	p.RunCycle(ctx)

	if p.interval <= 0 {
		<-ctx.Done()
		p.logger.Info("pipeline stopping", "reason", ctx.Err())
		return nil
	}

	ticker := p.clock.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		case <-ticker.Chan():
			p.RunCycle(ctx)
		}
	}
}

// RunCycle performs one complete fetch cycle and applies its outcome to the
// store. Cycles may overlap; each takes the next sequence number and an
// outcome older than the applied one is discarded.
func (p *Pipeline) RunCycle(ctx context.Context) CycleResult {
	cycle := p.seq.Add(1)
	start := time.Now()
	logger := p.logger.With("cycle", cycle)

	result := p.execute(ctx, cycle)
	p.metrics.CycleDuration.Observe(time.Since(start).Seconds())

	if result.Err != nil {
		result.Applied = p.store.Fail(cycle, result.Err)
		p.recordOutcome("failure", result.Applied)
		logger.Error("fetch cycle failed", "error", result.Err, "applied", result.Applied)
		return result
	}

	result.Applied = p.store.Commit(result.Snapshot)
	p.recordOutcome("success", result.Applied)
	if !result.Applied {
		logger.Warn("discarding stale fetch cycle", "countries", len(result.Snapshot.Stats))
		return result
	}

	p.metrics.SnapshotCountries.Set(float64(len(result.Snapshot.Stats)))
	p.metrics.SnapshotCycle.Set(float64(cycle))
	logger.Info("snapshot published",
		"countries", len(result.Snapshot.Stats),
		"total_active", result.Snapshot.Totals.Active,
		"duration", time.Since(start),
	)

	p.publish(ctx, logger, result.Snapshot)
	return result
}

// publish forwards snap unless a newer cycle has been applied since it was
// committed. Publishes are serialised so the sink sees cycles in order.
func (p *Pipeline) publish(ctx context.Context, logger *slog.Logger, snap *domain.Snapshot) {
	if p.publisher == nil {
		return
	}
	p.publishMu.Lock()
	defer p.publishMu.Unlock()

	if current := p.store.Current().Cycle; current != snap.Cycle {
		logger.Debug("skipping publish of superseded snapshot", "current_cycle", current)
		return
	}
	if err := p.publisher.PublishSnapshot(ctx, snap); err != nil {
		p.metrics.SnapshotPublishErrors.Inc()
		logger.Warn("snapshot sink publish failed", "error", err)
	}
}

func (p *Pipeline) recordOutcome(outcome string, applied bool) {
	if !applied {
		outcome = "stale"
	}
	p.metrics.CyclesTotal.WithLabelValues(outcome).Inc()
}

// execute converts every failure, including a panic, into CycleResult.Err.
func (p *Pipeline) execute(ctx context.Context, cycle uint64) (res CycleResult) {
	res.Cycle = cycle
	defer func() {
		if r := recover(); r != nil {
			res.Snapshot = nil
			res.Err = eris.Errorf("cycle %d: panic: %v", cycle, r)
		}
	}()

	rows, err := p.fetchAll(ctx)
	if err != nil {
		res.Err = eris.Wrapf(err, "cycle %d", cycle)
		return res
	}

	stats := p.aggregator.Aggregate(rows)
	if p.geocoder != nil {
		report := domain.FillMissingGeometry(ctx, stats, p.geocoder, p.logger)
		p.metrics.GeometryBackfills.WithLabelValues("filled").Add(float64(report.Filled))
		p.metrics.GeometryBackfills.WithLabelValues("unresolved").Add(float64(report.Unresolved))
	}
	res.Snapshot = domain.NewSnapshot(cycle, stats)
	return res
}

// fetchAll requests every category concurrently and waits for all three to
// settle before joining. A failure does not cancel the sibling requests, and
// a panicking Source becomes that category's failure.
func (p *Pipeline) fetchAll(ctx context.Context) (domain.CategoryRows, error) {
	var (
		g         errgroup.Group
		confirmed Result[[]domain.RawLocationRow]
		death     Result[[]domain.RawLocationRow]
		recovered Result[[]domain.RawLocationRow]
	)

	fetch := func(category domain.Category, out *Result[[]domain.RawLocationRow]) {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = eris.Errorf("%s: panic: %v", category, r)
					*out = Failed[[]domain.RawLocationRow](err)
				}
			}()
			rows, err := p.source.FetchCategory(ctx, category)
			if err != nil {
				*out = Failed[[]domain.RawLocationRow](err)
				return err
			}
			*out = OK(rows)
			return nil
		})
	}
	fetch(domain.CategoryConfirmed, &confirmed)
	fetch(domain.CategoryDeath, &death)
	fetch(domain.CategoryRecovered, &recovered)

	if err := g.Wait(); err != nil {
		// Wait returns whichever failure settled first; the cycle reports the
		// first in category order.
		_, _, _, err = Join3(confirmed, death, recovered)
		return domain.CategoryRows{}, err
	}
	c, d, r, err := Join3(confirmed, death, recovered)
	if err != nil {
		return domain.CategoryRows{}, err
	}
	return domain.CategoryRows{Confirmed: c, Death: d, Recovered: r}, nil
}
