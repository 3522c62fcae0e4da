package lookup

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/careguide/careguide/pkg/types"
	"github.com/careguide/careguide/server/internal/catalog"
	"github.com/careguide/careguide/server/internal/metrics"
	"github.com/careguide/careguide/server/internal/upstream"
)

// Fetcher retrieves guideline items from an external source.
// *upstream.Client implements it.
type Fetcher interface {
	Fetch(ctx context.Context, q types.Query) ([]json.RawMessage, error)
}

// fetcherRef boxes a Fetcher so it can live in an atomic.Pointer.
type fetcherRef struct {
	f Fetcher
}

// Service resolves queries against the upstream API or the sample catalog.
type Service struct {
	catalog  *catalog.Catalog
	metrics  *metrics.Metrics
	upstream atomic.Pointer[fetcherRef]
}

// New returns a Service answering from cat. f may be nil, meaning no upstream
// is configured. m may be nil.
func New(cat *catalog.Catalog, f Fetcher, m *metrics.Metrics) *Service {
	s := &Service{catalog: cat, metrics: m}
	s.SetUpstream(f)
	return s
}

// SetUpstream installs f as the upstream for subsequent lookups. A nil f
// switches the service to sample-only mode.
func (s *Service) SetUpstream(f Fetcher) {
	if f == nil {
		s.upstream.Store(nil)
		return
	}
	s.upstream.Store(&fetcherRef{f: f})
}

// UpstreamConfigured reports whether an upstream is currently installed.
func (s *Service) UpstreamConfigured() bool {
	return s.upstream.Load() != nil
}

// Lookup answers q. It never fails: upstream errors are logged and counted,
// and the answer comes from the sample catalog instead.
func (s *Service) Lookup(ctx context.Context, q types.Query) types.Envelope {
	if ref := s.upstream.Load(); ref != nil {
		start := time.Now()
		items, err := ref.f.Fetch(ctx, q)
		if err == nil {
			s.metrics.ObserveUpstream(time.Since(start), "")
			return s.answer(types.ExternalEnvelope(items))
		}

		class := upstream.Classify(err)
		s.metrics.ObserveUpstream(time.Since(start), class)
		slog.Warn("lookup: upstream fetch failed, using sample data",
			"class", class,
			"species", q.Species,
			"topic", q.Topic,
			"err", err,
		)
	}
	return s.answer(types.SampleEnvelope(s.catalog.Filter(q)))
}

func (s *Service) answer(env types.Envelope) types.Envelope {
	s.metrics.ObserveLookup(env.Source)
	return env
}
