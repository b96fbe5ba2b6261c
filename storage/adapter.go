// Package storage iterates the rows of a segment as a sequence of
// time-bucketed cursors.
package storage

import (
	"iter"

	"github.com/RoaringBitmap/roaring"
	"github.com/influxdata/colstore/filter"
	"github.com/influxdata/colstore/granularity"
	"github.com/influxdata/colstore/kit/platform/errors"
	"github.com/influxdata/colstore/query"
	"github.com/influxdata/colstore/segment"
	"go.uber.org/zap"
)

// An Option configures a StorageAdapter.
type Option func(*StorageAdapter)

// WithLogger sets the logger used to report reader cleanup failures.
func WithLogger(logger *zap.Logger) Option {
	return func(a *StorageAdapter) {
		a.logger = logger
	}
}

// StorageAdapter exposes a segment to query operators.
type StorageAdapter struct {
	index  segment.Index
	logger *zap.Logger
}

// NewStorageAdapter returns an adapter reading idx.
func NewStorageAdapter(idx segment.Index, opts ...Option) *StorageAdapter {
	a := &StorageAdapter{
		index:  idx,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// NumRows returns the number of rows in the segment.
func (a *StorageAdapter) NumRows() int { return a.index.NumRows() }

// AvailableDimensions returns the dictionary-encoded columns of the segment.
func (a *StorageAdapter) AvailableDimensions() []string { return a.index.AvailableDimensions() }

// BitmapIndex returns the bitmap index of dimension, or nil when the segment
// has no such index.
func (a *StorageAdapter) BitmapIndex(dimension string) segment.BitmapIndex {
	col := a.index.Column(segment.NormalizeName(dimension))
	if col == nil || !col.Capabilities().HasBitmapIndexes {
		return nil
	}
	return col.BitmapIndex()
}

// MinTime returns the timestamp of the first row.
func (a *StorageAdapter) MinTime() (int64, error) {
	return a.timeAt("storage.MinTime", 0)
}

// MaxTime returns the timestamp of the last row.
func (a *StorageAdapter) MaxTime() (int64, error) {
	return a.timeAt("storage.MaxTime", a.index.NumRows()-1)
}

// Interval returns [MinTime, MaxTime+1). An empty segment has an empty
// interval.
func (a *StorageAdapter) Interval() granularity.Interval {
	minTime, err := a.MinTime()
	if err != nil {
		return granularity.Interval{}
	}
	maxTime, _ := a.MaxTime()
	return granularity.NewInterval(minTime, maxTime+1)
}

func (a *StorageAdapter) timeAt(op string, row int) (int64, error) {
	if a.index.NumRows() == 0 {
		return 0, &errors.Error{Code: errors.ENotFound, Op: op, Msg: "segment has no rows"}
	}
	col := a.index.TimeColumn()
	if col == nil || col.GenericColumn() == nil {
		return 0, &errors.Error{Code: errors.EInternal, Op: op, Msg: "segment has no time column"}
	}
	ts := col.GenericColumn()
	defer func() { _ = ts.Close() }()
	return ts.LongAt(row), nil
}

// DimensionCardinality returns the number of distinct values of dimension.
// Missing dimensions have cardinality 0.
func (a *StorageAdapter) DimensionCardinality(dimension string) (int, error) {
	col := a.index.Column(segment.NormalizeName(dimension))
	if col == nil {
		return 0, nil
	}
	if !col.Capabilities().DictionaryEncoded {
		return 0, &errors.Error{
			Code: errors.ENotImplemented,
			Op:   "storage.DimensionCardinality",
			Msg:  "cardinality is only known for dictionary encoded columns",
		}
	}
	dict := col.DictionaryEncoding()
	defer func() { _ = dict.Close() }()
	return dict.Cardinality(), nil
}

// MakeCursors returns the cursors over the rows matching f within interval,
// one per bucket of gran. A nil filter matches every row.
//
// The cursors of one iteration share state: each cursor must be consumed
// before the next one is requested and none may be retained once the
// iteration ends. Every column reader opened by the cursors is released
// when the iteration ends, however it ends.
func (a *StorageAdapter) MakeCursors(f filter.Filter, interval granularity.Interval, gran granularity.Granularity) iter.Seq[query.Cursor] {
	return func(yield func(query.Cursor) bool) {
		if a.index.NumRows() == 0 {
			return
		}

		p := newPass(a.index, a.logger)
		defer p.release()
		if p.timestamps == nil {
			a.logger.Warn("Segment has no readable time column")
			return
		}

		minTime, maxTime := p.timestamp(0), p.timestamp(p.numRows-1)
		data := granularity.NewInterval(minTime, gran.Next(maxTime))
		if !interval.Overlaps(data) {
			return
		}
		interval = interval.Clip(data)

		if f == nil {
			a.rowCursors(p, interval, gran, yield)
			return
		}

		bm := f.Bitmap(a)
		var base Offset
		if bm.GetCardinality() == uint64(p.numRows) {
			base = NewNoFilterOffset(p.numRows)
		} else {
			base = NewBitmapOffset(bm)
		}
		a.offsetCursors(p, base, interval, gran, yield)
	}
}

func (a *StorageAdapter) offsetCursors(p *pass, base Offset, interval granularity.Interval, gran granularity.Granularity, yield func(query.Cursor) bool) {
	for _, bucket := range gran.Iterate(interval.Start, interval.End) {
		start := max(interval.Start, bucket)
		for base.WithinBounds() && p.timestamp(base.Offset()) < start {
			base.Increment()
		}

		offset := &timestampCheckingOffset{
			base:       base,
			timestamps: p.timestamps,
			threshold:  min(interval.End, gran.Next(bucket)),
		}
		sms.Cursors.Inc()
		if !yield(newOffsetCursor(p, bucket, offset)) {
			return
		}
	}
}

func (a *StorageAdapter) rowCursors(p *pass, interval granularity.Interval, gran granularity.Granularity, yield func(query.Cursor) bool) {
	for _, bucket := range gran.Iterate(interval.Start, interval.End) {
		start := max(interval.Start, bucket)
		for p.currRow < p.numRows && p.timestamp(p.currRow) < start {
			p.currRow++
		}

		sms.Cursors.Inc()
		if !yield(newRowCursor(p, bucket, min(interval.End, gran.Next(bucket)))) {
			return
		}
	}
}

// FilterBitmap returns the rows of the segment matching f.
func (a *StorageAdapter) FilterBitmap(f filter.Filter) *roaring.Bitmap {
	return f.Bitmap(a)
}
