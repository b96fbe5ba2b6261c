package aggregation

import (
	"encoding/binary"
	"math"

	"github.com/influxdata/colstore/query"
)

type number interface {
	float32 | float64 | int64
}

// kind holds what differs between the numeric aggregations. The state of
// an aggregation of kind[T] is a single T in every representation.
type kind[T number] struct {
	typ      string // configuration type, e.g. "floatSum"
	typeName string // finalized value type
	id       byte   // cache key tag
	size     int

	read  func(query.NumericSelector) T
	load  func(b []byte) T
	store func(b []byte, v T)

	// count aggregations count rows instead of reading a column. They are
	// never null.
	count bool

	// combining is the kind used to merge finalized values. nil means the
	// kind itself.
	combining *kind[T]
}

func (k *kind[T]) combiner() *kind[T] {
	if k.combining != nil {
		return k.combining
	}
	return k
}

func (k *kind[T]) add(acc T, sel query.NumericSelector) T {
	if k.count {
		return acc + 1
	}
	return acc + k.read(sel)
}

var floatSum = &kind[float32]{
	typ:      "floatSum",
	typeName: "float",
	id:       0x1D,
	size:     4,
	read:     func(s query.NumericSelector) float32 { return s.Float() },
	load:     func(b []byte) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(b)) },
	store:    func(b []byte, v float32) { binary.LittleEndian.PutUint32(b, math.Float32bits(v)) },
}

var doubleSum = &kind[float64]{
	typ:      "doubleSum",
	typeName: "double",
	id:       0x02,
	size:     8,
	read:     func(s query.NumericSelector) float64 { return s.Double() },
	load:     func(b []byte) float64 { return math.Float64frombits(binary.LittleEndian.Uint64(b)) },
	store:    func(b []byte, v float64) { binary.LittleEndian.PutUint64(b, math.Float64bits(v)) },
}

var longSum = &kind[int64]{
	typ:      "longSum",
	typeName: "long",
	id:       0x01,
	size:     8,
	read:     func(s query.NumericSelector) int64 { return s.Long() },
	load:     func(b []byte) int64 { return int64(binary.LittleEndian.Uint64(b)) },
	store:    func(b []byte, v int64) { binary.LittleEndian.PutUint64(b, uint64(v)) },
}

var count = &kind[int64]{
	typ:       "count",
	typeName:  "long",
	id:        0x00,
	size:      8,
	load:      longSum.load,
	store:     longSum.store,
	count:     true,
	combining: longSum,
}

// convert reads a finalized value as T. Values of any other type read as
// zero.
func convert[T number](v interface{}) T {
	switch v := v.(type) {
	case float32:
		return T(v)
	case float64:
		return T(v)
	case int64:
		return T(v)
	case int:
		return T(v)
	}
	return 0
}

type sumAggregator[T number] struct {
	kind *kind[T]
	sel  query.NumericSelector
	acc  T
}

func (a *sumAggregator[T]) Aggregate()       { a.acc = a.kind.add(a.acc, a.sel) }
func (a *sumAggregator[T]) Get() interface{} { return a.acc }
func (a *sumAggregator[T]) Reset()           { a.acc = 0 }

type sumBufferAggregator[T number] struct {
	kind *kind[T]
	sel  query.NumericSelector
}

func (a *sumBufferAggregator[T]) Init(buf []byte, position int) {
	a.kind.store(buf[position:], 0)
}

func (a *sumBufferAggregator[T]) Aggregate(buf []byte, position int) {
	b := buf[position:]
	a.kind.store(b, a.kind.add(a.kind.load(b), a.sel))
}

func (a *sumBufferAggregator[T]) Get(buf []byte, position int) interface{} {
	return a.kind.load(buf[position:])
}

type sumCombiner[T number] struct {
	acc T
}

func (c *sumCombiner[T]) Reset(in query.ObjectSelector) { c.acc = convert[T](in.Get()) }
func (c *sumCombiner[T]) Fold(in query.ObjectSelector)  { c.acc += convert[T](in.Get()) }
func (c *sumCombiner[T]) Get() interface{}              { return c.acc }
func (c *sumCombiner[T]) Float() float32                { return float32(c.acc) }
func (c *sumCombiner[T]) Double() float64               { return float64(c.acc) }
func (c *sumCombiner[T]) Long() int64                   { return int64(c.acc) }
func (c *sumCombiner[T]) IsNull() bool                  { return false }
