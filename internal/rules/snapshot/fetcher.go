package snapshot

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/qiniu/ruleview/internal/rules/metrics"
	"github.com/qiniu/ruleview/internal/rules/model"
)

// DeclaredSource provides the declared rule groups of one source.
type DeclaredSource interface {
	Rules(ctx context.Context) (model.RulerSnapshot, error)
}

// EvaluatedSource provides the evaluated rule groups of one source.
type EvaluatedSource interface {
	Rules(ctx context.Context) ([]model.PromNamespace, error)
}

// Target wires one rule source to its two upstreams. Either side may be nil,
// in which case it is always empty.
type Target struct {
	Source    model.RuleSource
	Declared  DeclaredSource
	Evaluated EvaluatedSource
}

// Fetcher collects all targets into a Snapshot. Failures never abort a
// fetch; the failing side falls back to its last-known copy, else to empty.
type Fetcher struct {
	targets     []Target
	timeout     time.Duration
	concurrency int
	lastKnown   LastKnownStore
	metrics     *metrics.Metrics
}

type FetcherOption func(*Fetcher)

// WithTimeout bounds each upstream call.
func WithTimeout(d time.Duration) FetcherOption { return func(f *Fetcher) { f.timeout = d } }

func WithLastKnownStore(s LastKnownStore) FetcherOption {
	return func(f *Fetcher) {
		if s != nil {
			f.lastKnown = s
		}
	}
}

func WithMetrics(m *metrics.Metrics) FetcherOption { return func(f *Fetcher) { f.metrics = m } }

// WithConcurrency limits the number of upstream calls in flight.
func WithConcurrency(n int) FetcherOption { return func(f *Fetcher) { f.concurrency = n } }

func NewFetcher(targets []Target, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		targets:     targets,
		timeout:     10 * time.Second,
		concurrency: 8,
		lastKnown:   NoopStore{},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Sources lists the configured rule sources in order.
func (f *Fetcher) Sources() []model.RuleSource {
	out := make([]model.RuleSource, 0, len(f.targets))
	for _, t := range f.targets {
		out = append(out, t.Source)
	}
	return out
}

// Fetch builds a sealed snapshot. It only fails when ctx is done.
func (f *Fetcher) Fetch(ctx context.Context) (*Snapshot, error) {
	declared := make([]model.RulerSnapshot, len(f.targets))
	evaluated := make([][]model.PromNamespace, len(f.targets))

	var (
		mu   sync.Mutex
		errs []FetchError
	)
	record := func(fe *FetchError) {
		if fe == nil {
			return
		}
		mu.Lock()
		errs = append(errs, *fe)
		mu.Unlock()
	}

	var g errgroup.Group
	g.SetLimit(f.concurrency)
	for i, t := range f.targets {
		g.Go(func() error {
			var src rulesSource[model.RulerSnapshot]
			if t.Declared != nil {
				src = t.Declared
			}
			snap, fe := fetchSide(ctx, f, t.Source, metrics.SideDeclared, src)
			declared[i] = snap
			record(fe)
			return nil
		})
		g.Go(func() error {
			var src rulesSource[[]model.PromNamespace]
			if t.Evaluated != nil {
				src = t.Evaluated
			}
			ns, fe := fetchSide(ctx, f, t.Source, metrics.SideEvaluated, src)
			evaluated[i] = ns
			record(fe)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := &Snapshot{
		Sources:   f.Sources(),
		Declared:  make(map[string]model.RulerSnapshot, len(f.targets)),
		Evaluated: make(map[string][]model.PromNamespace, len(f.targets)),
		FetchedAt: time.Now(),
		Errors:    errs,
	}
	for i, t := range f.targets {
		key := t.Source.Key()
		s.Declared[key] = declared[i]
		s.Evaluated[key] = evaluated[i]
	}
	if err := s.Seal(); err != nil {
		return nil, err
	}
	return s, nil
}

// rulesSource is satisfied by both DeclaredSource and EvaluatedSource.
type rulesSource[T any] interface {
	Rules(ctx context.Context) (T, error)
}

func fetchSide[T any](ctx context.Context, f *Fetcher, source model.RuleSource, side string, src rulesSource[T]) (T, *FetchError) {
	var zero T
	if src == nil {
		return zero, nil
	}
	key := lastKnownKey(side, source.Key())

	callCtx, cancel := context.WithTimeout(ctx, f.timeout)
	v, err := src.Rules(callCtx)
	cancel()
	if err == nil {
		if serr := f.lastKnown.Save(ctx, key, v); serr != nil {
			log.Warn().Err(serr).Str("source", source.Name).Str("side", side).Msg("failed to save last known rules")
		}
		return v, nil
	}

	f.metrics.FetchError(source.Name, side)
	fe := &FetchError{Source: source.Name, Side: side, Message: err.Error(), Fallback: FallbackEmpty}
	var stale T
	found, lerr := f.lastKnown.Load(ctx, key, &stale)
	if lerr != nil {
		log.Warn().Err(lerr).Str("source", source.Name).Str("side", side).Msg("failed to load last known rules")
	}
	if found {
		fe.Fallback = FallbackLastKnown
		v = stale
	} else {
		v = zero
	}
	log.Error().
		Err(err).
		Str("source", source.Name).
		Str("side", side).
		Str("fallback", fe.Fallback).
		Msg("failed to fetch rules")
	return v, fe
}
