// Package segment defines the read interface of an immutable columnar
// segment together with an in-memory implementation of it.
package segment

import "strings"

// TimeColumnName is the name of the timestamp column of every segment.
const TimeColumnName = "__time"

// ValueType is the logical type of the values stored in a column.
type ValueType int

const (
	Float ValueType = iota
	Long
	String
	Complex
)

func (t ValueType) String() string {
	switch t {
	case Float:
		return "float"
	case Long:
		return "long"
	case String:
		return "string"
	case Complex:
		return "complex"
	default:
		return "unknown"
	}
}

// Capabilities describes how a column is typed and encoded.
type Capabilities struct {
	Type              ValueType
	DictionaryEncoded bool
	HasMultipleValues bool
	HasBitmapIndexes  bool
}

// NormalizeName returns the canonical form of a column name. Column lookups
// are case-insensitive.
func NormalizeName(name string) string {
	return strings.ToLower(name)
}

// IndexedInts is a read-only list of dictionary ids for one row.
type IndexedInts interface {
	Len() int
	Get(i int) int
}

// SingleIndexedInts is the row of a single-valued dictionary column.
type SingleIndexedInts int

func (v SingleIndexedInts) Len() int { return 1 }

func (v SingleIndexedInts) Get(i int) int {
	if i != 0 {
		panic("index out of range")
	}
	return int(v)
}

// ArrayIndexedInts is the row of a multi-valued dictionary column.
type ArrayIndexedInts []int

func (a ArrayIndexedInts) Len() int      { return len(a) }
func (a ArrayIndexedInts) Get(i int) int { return a[i] }
