// Package loader fetches every location file, parses it into observations and
// joins the results into one dataset.
package loader

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"

	"github.com/jszwec/csvutil"
	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/precip-chart/internal/domain"
	"github.com/couchcryptid/precip-chart/internal/observability"
)

// ErrNotReady is reported by CheckReadiness until a dataset has loaded.
var ErrNotReady = errors.New("dataset has not been loaded yet")

// Fetcher returns the raw bytes of one location file.
type Fetcher interface {
	Fetch(ctx context.Context, name string) ([]byte, error)
}

// Loader loads datasets with join-all semantics: either every location loads
// or the whole load fails.
type Loader struct {
	fetcher Fetcher
	logger  *slog.Logger
	metrics *observability.Metrics
	dataset atomic.Pointer[domain.Dataset]
}

// New creates a Loader reading files through fetcher.
func New(fetcher Fetcher, logger *slog.Logger, metrics *observability.Metrics) *Loader {
	return &Loader{
		fetcher: fetcher,
		logger:  logger,
		metrics: metrics,
	}
}

// CheckReadiness returns nil once a dataset has been loaded.
func (l *Loader) CheckReadiness(_ context.Context) error {
	if l.dataset.Load() == nil {
		return ErrNotReady
	}
	return nil
}

// Dataset returns the last loaded dataset, or nil.
func (l *Loader) Dataset() *domain.Dataset {
	return l.dataset.Load()
}

// Load fetches and parses every location concurrently. Observations are
// merged in location-list order regardless of completion order. The first
// failure cancels the remaining fetches and is returned as a *domain.LoadError.
func (l *Loader) Load(ctx context.Context, locations []domain.Location) (*domain.Dataset, error) {
	start := domain.Now()

	results := make([][]domain.Observation, len(locations))
	g, gctx := errgroup.WithContext(ctx)
	for i, loc := range locations {
		g.Go(func() error {
			obs, err := l.loadLocation(gctx, loc)
			if err != nil {
				l.metrics.FilesLoaded.WithLabelValues("error").Inc()
				return &domain.LoadError{Location: loc, Err: err}
			}
			l.metrics.FilesLoaded.WithLabelValues("success").Inc()
			results[i] = obs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		l.logger.Error("dataset load failed", "error", err)
		return nil, err
	}

	var n int
	for _, r := range results {
		n += len(r)
	}
	merged := make([]domain.Observation, 0, n)
	for _, r := range results {
		merged = append(merged, r...)
	}

	ds := domain.NewDataset(merged)
	l.dataset.Store(ds)

	elapsed := domain.Now().Sub(start)
	l.metrics.ObservationsLoaded.Add(float64(n))
	l.metrics.LoadDuration.Observe(elapsed.Seconds())
	l.metrics.DatasetLoaded.Set(1)
	l.logger.Info("dataset loaded",
		"locations", len(locations),
		"observations", n,
		"duration", elapsed,
	)
	return ds, nil
}

func (l *Loader) loadLocation(ctx context.Context, loc domain.Location) ([]domain.Observation, error) {
	b, err := l.fetcher.Fetch(ctx, loc.File)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	obs, err := Parse(loc.Code, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	l.countInvalid(obs)
	l.logger.Debug("location loaded", "location", loc.Code, "file", loc.File, "rows", len(obs))
	return obs, nil
}

func (l *Loader) countInvalid(obs []domain.Observation) {
	for _, o := range obs {
		if !o.HasDate() {
			l.metrics.InvalidValues.WithLabelValues("date").Inc()
			continue
		}
		for _, f := range domain.Fields {
			if !o.Defined(f) {
				l.metrics.InvalidValues.WithLabelValues(string(f)).Inc()
			}
		}
	}
}

// Parse decodes a location CSV with a header row. Columns are matched by name;
// missing columns and malformed cells become NaN values or a zero date. An
// empty input yields no observations.
func Parse(location string, r io.Reader) ([]domain.Observation, error) {
	dec, err := csvutil.NewDecoder(csv.NewReader(r))
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("create csv decoder: %w", err)
	}

	var rows []domain.RawRow
	if err := dec.Decode(&rows); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode csv: %w", err)
	}

	obs := make([]domain.Observation, 0, len(rows))
	for _, row := range rows {
		obs = append(obs, domain.ParseObservation(location, row))
	}
	return obs, nil
}
