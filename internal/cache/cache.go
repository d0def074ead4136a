// Package cache keeps a small set of named datasets in memory for a fixed time to live.
//
// A [Dataset] serves its cached value while it is fresh and calls its loader otherwise. When a load fails and an
// earlier value exists, the earlier value is returned (even if expired) and the failure is only recorded. Without
// an earlier value the failure is returned wrapped with [shared.ErrEmptyCache].
//
// Concurrent fetches for one dataset each call the loader unless coalescing is enabled. Results are stored in the
// order their fetches started, so a slow older fetch never overwrites a newer one.
package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/stacks/internal/shared"
	"golang.org/x/sync/singleflight"
)

// DefaultTTL is how long a fetched value stays fresh.
const DefaultTTL = 5 * time.Minute

// Entry is the cached state of one dataset. A zero Timestamp means no data has been fetched.
type Entry[T any] struct {
	Data      T
	Timestamp time.Time
	Loading   bool
	Err       error
}

// HasData reports whether a fetch has ever succeeded.
func (e Entry[T]) HasData() bool {
	return !e.Timestamp.IsZero()
}

// IsValid reports whether entry holds data younger than ttl at now.
func IsValid[T any](entry Entry[T], now time.Time, ttl time.Duration) bool {
	return entry.HasData() && now.Sub(entry.Timestamp) < ttl
}

// Loader fetches a dataset from the backend using the given auth token.
type Loader[T any] func(ctx context.Context, token string) (T, error)

// Stats counts how a dataset has been served.
type Stats struct {
	Hits      int `json:"hits"`
	Fetches   int `json:"fetches"`
	Failures  int `json:"failures"`
	Fallbacks int `json:"fallbacks"`
}

// Option configures a [Dataset].
type Option func(*options)

type options struct {
	now      func() time.Time
	logger   *log.Logger
	coalesce bool
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func WithLogger(l *log.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithCoalescing makes concurrent fetches of the same dataset share one loader call.
func WithCoalescing(on bool) Option {
	return func(o *options) { o.coalesce = on }
}

// Dataset is one cached, named dataset.
type Dataset[T any] struct {
	key    string
	load   Loader[T]
	ttl    time.Duration
	now    func() time.Time
	logger *log.Logger
	group  *singleflight.Group

	mu       sync.Mutex
	entry    Entry[T]
	inflight int
	started  uint64 // sequence number of the latest fetch to start
	stored   uint64 // sequence number of the fetch that produced entry.Data
	stats    Stats
}

// New creates an empty dataset named key.
func New[T any](key string, load Loader[T], opts ...Option) *Dataset[T] {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = shared.NewLogger(nil)
	}

	d := &Dataset[T]{
		key:    key,
		load:   load,
		ttl:    DefaultTTL,
		now:    o.now,
		logger: shared.WithLogger(o.logger, "dataset", key),
	}
	if o.coalesce {
		d.group = &singleflight.Group{}
	}
	return d
}

func (d *Dataset[T]) Key() string { return d.key }

// Fetch returns the cached value while fresh. Otherwise, or when force is set, it calls the loader.
func (d *Dataset[T]) Fetch(ctx context.Context, token string, force bool) (T, error) {
	d.mu.Lock()
	if !force && IsValid(d.entry, d.now(), d.ttl) {
		d.stats.Hits++
		data := d.entry.Data
		d.mu.Unlock()
		d.logger.Debug("cache hit")
		return data, nil
	}

	d.started++
	seq := d.started
	d.inflight++
	d.stats.Fetches++
	d.entry.Loading = true
	d.entry.Err = nil
	d.mu.Unlock()

	data, err := d.call(ctx, token)

	d.mu.Lock()
	defer d.mu.Unlock()

	d.inflight--
	d.entry.Loading = d.inflight > 0

	if err != nil {
		d.stats.Failures++
		if seq >= d.stored {
			d.entry.Err = err
		}
		if d.entry.HasData() {
			d.stats.Fallbacks++
			d.logger.Warn("fetch failed, serving stale data", "age", d.now().Sub(d.entry.Timestamp), "error", err)
			return d.entry.Data, nil
		}
		var zero T
		return zero, fmt.Errorf("%w: %s: %w", shared.ErrEmptyCache, d.key, err)
	}

	if seq < d.stored {
		d.logger.Debug("discarding result of an older fetch", "seq", seq, "stored", d.stored)
		return data, nil
	}
	d.stored = seq
	d.entry.Data = data
	d.entry.Timestamp = d.now()
	d.entry.Err = nil
	return data, nil
}

// Refresh fetches bypassing the cache.
func (d *Dataset[T]) Refresh(ctx context.Context, token string) (T, error) {
	return d.Fetch(ctx, token, true)
}

// Clear drops data, timestamp and error. Fetches already in flight still store their result.
func (d *Dataset[T]) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.entry = Entry[T]{Loading: d.inflight > 0}
}

// Entry returns a copy of the cached state.
func (d *Dataset[T]) Entry() Entry[T] {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.entry
}

// Valid reports whether the cached data is fresh.
func (d *Dataset[T]) Valid() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return IsValid(d.entry, d.now(), d.ttl)
}

func (d *Dataset[T]) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}

// Summary describes the dataset without exposing its data type.
func (d *Dataset[T]) Summary() Summary {
	d.mu.Lock()
	defer d.mu.Unlock()

	s := Summary{
		Key:     d.key,
		Cached:  d.entry.HasData(),
		Valid:   IsValid(d.entry, d.now(), d.ttl),
		Loading: d.entry.Loading,
		Stats:   d.stats,
	}
	if s.Cached {
		s.FetchedAt = d.entry.Timestamp
		s.Age = d.now().Sub(d.entry.Timestamp)
	}
	if d.entry.Err != nil {
		s.Error = d.entry.Err.Error()
	}
	return s
}

func (d *Dataset[T]) call(ctx context.Context, token string) (T, error) {
	if d.group == nil {
		return d.load(ctx, token)
	}

	// The shared load outlives any single caller; each caller still stops waiting on its own ctx.
	ch := d.group.DoChan(d.key, func() (any, error) {
		return d.load(context.WithoutCancel(ctx), token)
	})

	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Shared {
			d.logger.Debug("joined in-flight fetch")
		}
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}
