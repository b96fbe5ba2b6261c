package storage

import (
	"errors"
	"testing"

	"github.com/influxdata/colstore/query"
	"github.com/influxdata/colstore/segment"
	"github.com/retailnext/hllpp"
	"github.com/stretchr/testify/require"
)

const hour = int64(3600 * 1000)

// newTestIndex returns a six row segment spanning four hourly buckets. The
// third bucket holds no rows.
func newTestIndex(t *testing.T) *segment.MemIndex {
	t.Helper()

	sketch := hllpp.New()
	sketch.Add([]byte("alice"))

	b := segment.NewBuilder()
	for _, r := range []segment.Row{
		{Timestamp: 0, Dimensions: map[string][]string{"host": {"a"}, "tags": {"x", "y"}}, Metrics: map[string]interface{}{"value": 1.0, "count": int64(1), "users": sketch}},
		{Timestamp: 10, Dimensions: map[string][]string{"host": {"b"}, "tags": {"x"}}, Metrics: map[string]interface{}{"value": 2.0, "count": int64(2)}},
		{Timestamp: hour + 5, Dimensions: map[string][]string{"host": {"a"}}, Metrics: map[string]interface{}{"value": 3.0, "count": int64(3)}},
		{Timestamp: hour + 6, Dimensions: map[string][]string{"host": {"c"}}, Metrics: map[string]interface{}{"count": int64(4)}},
		{Timestamp: 3 * hour, Dimensions: map[string][]string{"host": {"b"}}, Metrics: map[string]interface{}{"value": 5.0, "count": int64(5)}},
		{Timestamp: 3*hour + 1, Dimensions: map[string][]string{"host": {"a"}}, Metrics: map[string]interface{}{"value": 6.0, "count": int64(6)}},
	} {
		b.Add(r)
	}
	idx, err := b.Build()
	require.NoError(t, err)
	return idx
}

// bucket is the drained content of one cursor.
type bucket struct {
	Time  int64
	Times []int64
}

func drain(c query.Cursor) bucket {
	b := bucket{Time: c.Time()}
	ts := c.MakeNumericSelector(segment.TimeColumnName)
	for ; !c.IsDone(); c.Advance() {
		b.Times = append(b.Times, ts.Long())
	}
	return b
}

// trackingIndex wraps an index and records every reader it hands out.
type trackingIndex struct {
	segment.Index
	opened map[string]int
	closed map[string]int

	closeErr     map[string]error
	panicOnClose map[string]bool
}

func newTrackingIndex(idx segment.Index) *trackingIndex {
	return &trackingIndex{
		Index:        idx,
		opened:       make(map[string]int),
		closed:       make(map[string]int),
		closeErr:     make(map[string]error),
		panicOnClose: make(map[string]bool),
	}
}

func (ti *trackingIndex) TimeColumn() segment.Column {
	return &trackingColumn{Column: ti.Index.TimeColumn(), name: segment.TimeColumnName, index: ti}
}

func (ti *trackingIndex) Column(name string) segment.Column {
	c := ti.Index.Column(name)
	if c == nil {
		return nil
	}
	return &trackingColumn{Column: c, name: name, index: ti}
}

func (ti *trackingIndex) reader(name string) *trackingCloser {
	ti.opened[name]++
	return &trackingCloser{name: name, index: ti}
}

type trackingColumn struct {
	segment.Column
	name  string
	index *trackingIndex
}

func (c *trackingColumn) GenericColumn() segment.GenericColumn {
	g := c.Column.GenericColumn()
	if g == nil {
		return nil
	}
	return &trackingGeneric{g, c.index.reader(c.name)}
}

func (c *trackingColumn) DictionaryEncoding() segment.DictionaryEncodedColumn {
	d := c.Column.DictionaryEncoding()
	if d == nil {
		return nil
	}
	return &trackingDictionary{d, c.index.reader(c.name)}
}

func (c *trackingColumn) ComplexColumn() segment.ComplexColumn {
	x := c.Column.ComplexColumn()
	if x == nil {
		return nil
	}
	return &trackingComplex{x, c.index.reader(c.name)}
}

type trackingGeneric struct {
	segment.GenericColumn
	closer *trackingCloser
}

func (g *trackingGeneric) Close() error { return g.closer.Close() }

type trackingDictionary struct {
	segment.DictionaryEncodedColumn
	closer *trackingCloser
}

func (d *trackingDictionary) Close() error { return d.closer.Close() }

type trackingComplex struct {
	segment.ComplexColumn
	closer *trackingCloser
}

func (x *trackingComplex) Close() error { return x.closer.Close() }

type trackingCloser struct {
	name  string
	index *trackingIndex
}

func (c *trackingCloser) Close() error {
	c.index.closed[c.name]++
	if c.index.panicOnClose[c.name] {
		panic("close " + c.name)
	}
	return c.index.closeErr[c.name]
}

var errClose = errors.New("disk on fire")
