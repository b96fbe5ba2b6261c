package segment

import (
	"io"

	"github.com/RoaringBitmap/roaring"
)

// GenericColumn reads raw (not dictionary encoded) values by row.
type GenericColumn interface {
	io.Closer
	Type() ValueType
	Len() int
	FloatAt(row int) float32
	LongAt(row int) int64
	StringAt(row int) string
	// IsNull reports whether the row holds no value. Typed accessors return
	// the zero value for null rows.
	IsNull(row int) bool
}

// DictionaryEncodedColumn reads dictionary ids by row and translates
// between ids and values.
type DictionaryEncodedColumn interface {
	io.Closer
	Len() int
	HasMultipleValues() bool
	Cardinality() int
	SingleValueRow(row int) int
	MultiValueRow(row int) IndexedInts
	LookupName(id int) string
	// LookupID returns the id of name, or a negative number when the value is
	// not in the dictionary.
	LookupID(name string) int
}

// ComplexColumn reads opaque serialized values by row.
type ComplexColumn interface {
	io.Closer
	TypeName() string
	Len() int
	RowValue(row int) interface{}
}

// BitmapIndex maps each dictionary value of a column to the rows holding it.
type BitmapIndex interface {
	Cardinality() int
	Value(id int) string
	Bitmap(id int) *roaring.Bitmap
	// BitmapFor returns the rows holding value; an empty bitmap when the value
	// does not occur.
	BitmapFor(value string) *roaring.Bitmap
}

// Column gives access to the readers of a single column. Only the readers
// matching the column's capabilities are non-nil. Each returned reader must
// be closed by the caller.
type Column interface {
	Capabilities() Capabilities
	GenericColumn() GenericColumn
	DictionaryEncoding() DictionaryEncodedColumn
	ComplexColumn() ComplexColumn
	BitmapIndex() BitmapIndex
}

// Index is an immutable, time-ordered columnar segment.
type Index interface {
	NumRows() int
	TimeColumn() Column
	// Column returns nil when the segment has no column with the given
	// normalized name.
	Column(name string) Column
	ColumnNames() []string
	AvailableDimensions() []string
}
