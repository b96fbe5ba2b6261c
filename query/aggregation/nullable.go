package aggregation

import (
	"github.com/influxdata/colstore/query"
)

// The nullable wrappers ignore null inputs and report a nil value until a
// non-null input has been aggregated.

type nullableAggregator struct {
	inner Aggregator
	sel   query.NumericSelector
	seen  bool
}

func (a *nullableAggregator) Aggregate() {
	if a.sel.IsNull() {
		return
	}
	a.seen = true
	a.inner.Aggregate()
}

func (a *nullableAggregator) Get() interface{} {
	if !a.seen {
		return nil
	}
	return a.inner.Get()
}

func (a *nullableAggregator) Reset() {
	a.seen = false
	a.inner.Reset()
}

const (
	stateNull    byte = 0
	stateNotNull byte = 1
)

// nullableBufferAggregator keeps a state byte at position and the inner
// state right after it.
type nullableBufferAggregator struct {
	inner BufferAggregator
	sel   query.NumericSelector
}

func (a *nullableBufferAggregator) Init(buf []byte, position int) {
	buf[position] = stateNull
	a.inner.Init(buf, position+1)
}

func (a *nullableBufferAggregator) Aggregate(buf []byte, position int) {
	if a.sel.IsNull() {
		return
	}
	buf[position] = stateNotNull
	a.inner.Aggregate(buf, position+1)
}

func (a *nullableBufferAggregator) Get(buf []byte, position int) interface{} {
	if buf[position] == stateNull {
		return nil
	}
	return a.inner.Get(buf, position+1)
}

type nullableCombiner struct {
	inner  AggregateCombiner
	isNull bool
}

func (c *nullableCombiner) Reset(in query.ObjectSelector) {
	if in.Get() == nil {
		c.isNull = true
		return
	}
	c.isNull = false
	c.inner.Reset(in)
}

func (c *nullableCombiner) Fold(in query.ObjectSelector) {
	if in.Get() == nil {
		return
	}
	if c.isNull {
		c.isNull = false
		c.inner.Reset(in)
		return
	}
	c.inner.Fold(in)
}

func (c *nullableCombiner) Get() interface{} {
	if c.isNull {
		return nil
	}
	return c.inner.Get()
}

func (c *nullableCombiner) IsNull() bool { return c.isNull }

func (c *nullableCombiner) Float() float32 {
	if c.isNull {
		return 0
	}
	return c.inner.Float()
}

func (c *nullableCombiner) Double() float64 {
	if c.isNull {
		return 0
	}
	return c.inner.Double()
}

func (c *nullableCombiner) Long() int64 {
	if c.isNull {
		return 0
	}
	return c.inner.Long()
}
