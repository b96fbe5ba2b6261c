// Package timeseries aggregates the rows of a segment into one result per
// time bucket.
package timeseries

import (
	"context"
	"encoding/binary"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/influxdata/colstore/filter"
	"github.com/influxdata/colstore/granularity"
	"github.com/influxdata/colstore/kit/platform/errors"
	"github.com/influxdata/colstore/kit/tracing"
	"github.com/influxdata/colstore/logger"
	"github.com/influxdata/colstore/query"
	"github.com/influxdata/colstore/query/aggregation"
	"github.com/influxdata/colstore/storage"
	"go.uber.org/zap"
)

// Query is a timeseries aggregation over one segment.
type Query struct {
	// Filter selects the rows to aggregate. A nil filter selects every row.
	Filter       filter.Filter
	Interval     granularity.Interval
	Granularity  granularity.Granularity
	Aggregations []aggregation.AggregatorFactory
}

func (q *Query) validate() error {
	if q.Granularity == nil {
		return &errors.Error{Code: errors.EInvalid, Op: "timeseries.Run", Msg: "query has no granularity"}
	}
	if len(q.Aggregations) == 0 {
		return &errors.Error{Code: errors.EInvalid, Op: "timeseries.Run", Msg: "query has no aggregations"}
	}
	names := make(map[string]struct{}, len(q.Aggregations))
	for _, agg := range q.Aggregations {
		if _, ok := names[agg.Name()]; ok {
			return errors.Errorf(errors.EInvalid, "timeseries.Run", "duplicate aggregation name %q", agg.Name())
		}
		names[agg.Name()] = struct{}{}
	}
	return nil
}

// Digest identifies the results of q over a given segment. Queries with
// equal digests produce equal results. Cache keys do not carry the null
// handling of a factory, so the digest records it separately.
func (q *Query) Digest() uint64 {
	d := xxhash.New()
	var b [8]byte
	writeString := func(s string) {
		binary.LittleEndian.PutUint64(b[:], uint64(len(s)))
		_, _ = d.Write(b[:])
		_, _ = d.WriteString(s)
	}

	if q.Filter != nil {
		writeString(q.Filter.String())
	} else {
		writeString("")
	}
	binary.LittleEndian.PutUint64(b[:], uint64(q.Interval.Start))
	_, _ = d.Write(b[:])
	binary.LittleEndian.PutUint64(b[:], uint64(q.Interval.End))
	_, _ = d.Write(b[:])
	writeString(q.Granularity.String())

	for _, agg := range q.Aggregations {
		writeString(agg.Name())
		if agg.Nullable() {
			_, _ = d.Write([]byte{1})
		} else {
			_, _ = d.Write([]byte{0})
		}
	}
	binary.LittleEndian.PutUint64(b[:], aggregation.CacheKeyDigest(q.Aggregations...))
	_, _ = d.Write(b[:])
	return d.Sum64()
}

// MaxIntermediateSize returns the buffer size a bucket of q needs.
func (q *Query) MaxIntermediateSize() int {
	n := 0
	for _, f := range q.Aggregations {
		n += f.MaxIntermediateSize()
	}
	return n
}

// Result holds the finalized aggregations of one bucket.
type Result struct {
	Time   int64
	Values map[string]interface{}
}

func (r Result) clone() Result {
	values := make(map[string]interface{}, len(r.Values))
	for k, v := range r.Values {
		values[k] = v
	}
	return Result{Time: r.Time, Values: values}
}

func cloneResults(results []Result) []Result {
	out := make([]Result, len(results))
	for i, r := range results {
		out[i] = r.clone()
	}
	return out
}

// An Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger of the engine.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// Engine runs timeseries queries against one segment.
type Engine struct {
	adapter *storage.StorageAdapter
	logger  *zap.Logger

	mu    sync.Mutex
	cache *resultCache
}

// NewEngine returns an engine reading adapter.
func NewEngine(adapter *storage.StorageAdapter, c Config, opts ...Option) *Engine {
	e := &Engine{
		adapter: adapter,
		logger:  zap.NewNop(),
		cache:   newResultCache(c.ResultCacheSize),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run returns one result per non-empty bucket of q, in time order. A logger
// stored in ctx takes precedence over the engine's.
func (e *Engine) Run(ctx context.Context, q Query) ([]Result, error) {
	span, ctx := tracing.StartSpanFromContext(ctx)
	defer span.Finish()

	if err := q.validate(); err != nil {
		tms.Queries.WithLabelValues("invalid").Inc()
		return nil, tracing.LogError(span, err)
	}

	key := q.Digest()
	span.SetTag("digest", fmt.Sprintf("%016x", key))
	e.mu.Lock()
	cached, ok := e.cache.get(key)
	e.mu.Unlock()
	span.SetTag("cache_hit", ok)
	if ok {
		tms.CacheHits.Inc()
		tms.Queries.WithLabelValues("ok").Inc()
		span.SetTag("buckets", len(cached))
		return cloneResults(cached), nil
	}
	tms.CacheMisses.Inc()

	results, stats, err := e.run(ctx, q)
	if err != nil {
		tms.Queries.WithLabelValues("error").Inc()
		return nil, tracing.LogError(span, err)
	}
	tms.Queries.WithLabelValues("ok").Inc()
	span.SetTag("buckets", len(results))
	span.SetTag("scanned_rows", stats.ScannedRows)

	e.mu.Lock()
	e.cache.add(key, results)
	e.mu.Unlock()
	return cloneResults(results), nil
}

func (e *Engine) run(ctx context.Context, q Query) ([]Result, query.CursorStats, error) {
	start := time.Now()
	var (
		results []Result
		stats   query.CursorStats
	)

	scan := tracing.StartChildSpan(ctx, "storage.MakeCursors")
	defer scan.Finish()
	for cursor := range e.adapter.MakeCursors(q.Filter, q.Interval, q.Granularity) {
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}
		if cursor.IsDone() {
			continue
		}

		r, err := aggregateBucket(cursor, q.Aggregations)
		if err != nil {
			return nil, stats, tracing.LogError(scan, err)
		}
		stats.Add(cursor.Stats())
		tms.Buckets.Inc()
		results = append(results, r)
	}
	scan.SetTag("scanned_rows", stats.ScannedRows)

	log := e.logger
	if l := logger.FromContext(ctx); l != nil {
		log = l
	}
	log.Debug("Timeseries query finished",
		zap.Stringer("interval", q.Interval),
		zap.Stringer("granularity", q.Granularity),
		zap.Int("buckets", len(results)),
		zap.Int("scanned_rows", stats.ScannedRows),
		zap.Duration("elapsed", time.Since(start)))
	return results, stats, nil
}

// aggregateBucket runs every row of cursor through buffered aggregators laid
// out back to back in a single buffer.
func aggregateBucket(cursor query.Cursor, factories []aggregation.AggregatorFactory) (Result, error) {
	aggs := make([]aggregation.BufferAggregator, len(factories))
	positions := make([]int, len(factories))
	size := 0
	for i, f := range factories {
		agg, err := f.BuildBufferAggregator(cursor)
		if err != nil {
			return Result{}, err
		}
		aggs[i] = agg
		positions[i] = size
		size += f.MaxIntermediateSize()
	}

	buf := make([]byte, size)
	for i, agg := range aggs {
		agg.Init(buf, positions[i])
	}
	for ; !cursor.IsDone(); cursor.Advance() {
		for i, agg := range aggs {
			agg.Aggregate(buf, positions[i])
		}
	}

	r := Result{Time: cursor.Time(), Values: make(map[string]interface{}, len(aggs))}
	for i, agg := range aggs {
		r.Values[factories[i].Name()] = agg.Get(buf, positions[i])
	}
	return r, nil
}

// Merge combines partial results of the same query, typically computed over
// different segments, into one result per bucket.
func Merge(factories []aggregation.AggregatorFactory, partials ...[]Result) []Result {
	byTime := make(map[int64][]Result)
	for _, results := range partials {
		for _, r := range results {
			byTime[r.Time] = append(byTime[r.Time], r)
		}
	}

	times := make([]int64, 0, len(byTime))
	for t := range byTime {
		times = append(times, t)
	}
	sort.Slice(times, func(i, j int) bool { return times[i] < times[j] })

	merged := make([]Result, 0, len(times))
	for _, t := range times {
		rs := byTime[t]
		r := Result{Time: t, Values: make(map[string]interface{}, len(factories))}
		for _, f := range factories {
			c := f.BuildCombiner()
			for i, partial := range rs {
				in := query.ValueSelector{V: partial.Values[f.Name()]}
				if i == 0 {
					c.Reset(in)
					continue
				}
				c.Fold(in)
			}
			r.Values[f.Name()] = c.Get()
		}
		merged = append(merged, r)
	}
	return merged
}
