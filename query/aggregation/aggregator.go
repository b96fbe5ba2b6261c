// Package aggregation builds the aggregation state used by query operators
// from immutable factories.
package aggregation

import (
	"github.com/influxdata/colstore/query"
)

// AggregatorFactory describes one aggregation. Factories are immutable and
// safe to share; every state object they build is owned by its caller.
type AggregatorFactory interface {
	Name() string

	// TypeName returns the type of the finalized values: "float", "double"
	// or "long".
	TypeName() string

	BuildAggregator(columns query.ColumnSelectorFactory) (Aggregator, error)
	BuildBufferAggregator(columns query.ColumnSelectorFactory) (BufferAggregator, error)
	BuildCombiner() AggregateCombiner

	// Combine merges two finalized values. A nil value is absent and the
	// other value is returned unchanged.
	Combine(lhs, rhs interface{}) interface{}

	// CombiningFactory returns a factory that aggregates the finalized values
	// of this one, reading them from a column named after this factory.
	CombiningFactory() AggregatorFactory

	// RequiredColumns returns the factories whose output this one consumes.
	RequiredColumns() []AggregatorFactory

	CacheKey() []byte

	// Nullable reports whether finalized values may be nil. Factories with
	// equal cache keys produce different results when this differs.
	Nullable() bool

	// MaxIntermediateSize is the number of bytes a BufferAggregator needs at
	// each position.
	MaxIntermediateSize() int
}

// Aggregator accumulates the current row of a cursor each time Aggregate is
// called.
type Aggregator interface {
	Aggregate()
	Get() interface{}
	Reset()
}

// BufferAggregator keeps its state in a caller-owned buffer, at a caller
// chosen position. Init must be called on a position before it is
// aggregated into.
type BufferAggregator interface {
	Init(buf []byte, position int)
	Aggregate(buf []byte, position int)
	Get(buf []byte, position int) interface{}
}

// AggregateCombiner folds finalized values read from a selector. The
// combined value is itself readable as a selector.
type AggregateCombiner interface {
	query.NumericSelector
	query.ObjectSelector

	// Reset replaces the combined value with the value of in.
	Reset(in query.ObjectSelector)
	Fold(in query.ObjectSelector)
}

// NullHandling selects how aggregations treat null inputs.
type NullHandling struct {
	// ReplaceWithDefault reads null inputs as the zero value of the
	// aggregation type. When false, aggregations ignore null inputs and
	// produce nil when no input was non-null.
	ReplaceWithDefault bool
}

// DefaultNullHandling replaces null inputs with zero.
var DefaultNullHandling = NullHandling{ReplaceWithDefault: true}
