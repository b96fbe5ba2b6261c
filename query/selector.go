// Package query defines the contracts between the storage layer and the
// operators that consume its rows.
package query

import (
	"github.com/influxdata/colstore/segment"
)

// DimensionSelector reads the dictionary ids of the current row of a
// dimension.
type DimensionSelector interface {
	Row() segment.IndexedInts
	ValueCardinality() int
	LookupName(id int) string
	LookupID(name string) int
}

// NumericSelector reads the current row of a numeric column. Null rows read
// as the zero value and report IsNull.
type NumericSelector interface {
	Float() float32
	Double() float64
	Long() int64
	IsNull() bool
}

// ComplexSelector reads the decoded value of the current row of a complex
// column.
type ComplexSelector interface {
	TypeName() string
	Get() interface{}
}

// ObjectSelector reads the current row of any single-valued column as a Go
// value: float32, int64, string or the decoded complex value. Absent values
// read as nil.
type ObjectSelector interface {
	Get() interface{}
}

// ColumnSelectorFactory hands out selectors bound to a row position.
type ColumnSelectorFactory interface {
	MakeDimensionSelector(name string) DimensionSelector
	MakeNumericSelector(name string) NumericSelector
	MakeComplexSelector(name string) ComplexSelector
	// MakeObjectSelector fails when the column holds multiple values per
	// row.
	MakeObjectSelector(name string) (ObjectSelector, error)
}

// Cursor iterates over the rows of one time bucket.
type Cursor interface {
	ColumnSelectorFactory

	// Time returns the start of the bucket.
	Time() int64
	Advance()
	IsDone() bool
	// Reset rewinds the cursor to the first row of its bucket.
	Reset()
	Stats() CursorStats
}

// CursorStats represents stats collected by a cursor.
type CursorStats struct {
	ScannedRows int // number of rows the cursor advanced over
}

// Add adds other to s and updates s.
func (s *CursorStats) Add(other CursorStats) {
	s.ScannedRows += other.ScannedRows
}

// ValueSelector is a NumericSelector and ObjectSelector over a fixed value,
// typically a finalized aggregation result. A nil value is null.
type ValueSelector struct {
	V interface{}
}

func (s ValueSelector) Float() float32 {
	switch v := s.V.(type) {
	case float32:
		return v
	case float64:
		return float32(v)
	case int64:
		return float32(v)
	}
	return 0
}

func (s ValueSelector) Double() float64 {
	switch v := s.V.(type) {
	case float32:
		return float64(v)
	case float64:
		return v
	case int64:
		return float64(v)
	}
	return 0
}

func (s ValueSelector) Long() int64 {
	switch v := s.V.(type) {
	case float32:
		return int64(v)
	case float64:
		return int64(v)
	case int64:
		return v
	}
	return 0
}

func (s ValueSelector) IsNull() bool     { return s.V == nil }
func (s ValueSelector) Get() interface{} { return s.V }
