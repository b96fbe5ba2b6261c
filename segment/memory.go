package segment

import (
	"sort"

	"github.com/RoaringBitmap/roaring"
	"github.com/golang/snappy"
)

// MemIndex is an Index held entirely in memory. It is immutable once built
// and safe for concurrent readers.
type MemIndex struct {
	numRows int
	time    *memColumn
	columns map[string]*memColumn
	names   []string
	dims    []string
}

var _ Index = (*MemIndex)(nil)

// NumRows returns the number of rows in the segment.
func (idx *MemIndex) NumRows() int { return idx.numRows }

// TimeColumn returns the timestamp column.
func (idx *MemIndex) TimeColumn() Column { return idx.time }

// Column returns the named column or nil.
func (idx *MemIndex) Column(name string) Column {
	if name == TimeColumnName {
		return idx.time
	}
	c, ok := idx.columns[NormalizeName(name)]
	if !ok {
		return nil
	}
	return c
}

// ColumnNames returns the names of all non-time columns in sorted order.
func (idx *MemIndex) ColumnNames() []string {
	return append([]string(nil), idx.names...)
}

// AvailableDimensions returns the names of the dictionary encoded columns.
func (idx *MemIndex) AvailableDimensions() []string {
	return append([]string(nil), idx.dims...)
}

// memColumn holds the values of one column. Only the fields matching caps
// are populated.
type memColumn struct {
	caps Capabilities
	n    int

	floats  []float32
	longs   []int64
	strings []string
	nulls   *roaring.Bitmap

	dict    []string
	single  []int
	multi   [][]int
	bitmaps []*roaring.Bitmap

	serde ComplexSerde
	blobs [][]byte // snappy compressed serde output
}

func (c *memColumn) Capabilities() Capabilities { return c.caps }

func (c *memColumn) GenericColumn() GenericColumn {
	if c.caps.DictionaryEncoded || c.caps.Type == Complex {
		return nil
	}
	return &memGenericColumn{c: c}
}

func (c *memColumn) DictionaryEncoding() DictionaryEncodedColumn {
	if !c.caps.DictionaryEncoded {
		return nil
	}
	return &memDictionaryColumn{c: c}
}

func (c *memColumn) ComplexColumn() ComplexColumn {
	if c.caps.Type != Complex {
		return nil
	}
	return &memComplexColumn{c: c}
}

func (c *memColumn) BitmapIndex() BitmapIndex {
	if !c.caps.HasBitmapIndexes {
		return nil
	}
	return &memBitmapIndex{c: c}
}

type memGenericColumn struct {
	c *memColumn
}

func (g *memGenericColumn) Close() error    { return nil }
func (g *memGenericColumn) Type() ValueType { return g.c.caps.Type }
func (g *memGenericColumn) Len() int        { return g.c.n }

func (g *memGenericColumn) IsNull(row int) bool {
	return g.c.nulls != nil && g.c.nulls.Contains(uint32(row))
}

func (g *memGenericColumn) FloatAt(row int) float32 {
	switch g.c.caps.Type {
	case Float:
		return g.c.floats[row]
	case Long:
		return float32(g.c.longs[row])
	}
	return 0
}

func (g *memGenericColumn) LongAt(row int) int64 {
	switch g.c.caps.Type {
	case Float:
		return int64(g.c.floats[row])
	case Long:
		return g.c.longs[row]
	}
	return 0
}

func (g *memGenericColumn) StringAt(row int) string {
	if g.c.caps.Type != String {
		return ""
	}
	return g.c.strings[row]
}

type memDictionaryColumn struct {
	c *memColumn
}

func (d *memDictionaryColumn) Close() error            { return nil }
func (d *memDictionaryColumn) Len() int                { return d.c.n }
func (d *memDictionaryColumn) HasMultipleValues() bool { return d.c.caps.HasMultipleValues }
func (d *memDictionaryColumn) Cardinality() int        { return len(d.c.dict) }

func (d *memDictionaryColumn) SingleValueRow(row int) int {
	if d.c.caps.HasMultipleValues {
		if ids := d.c.multi[row]; len(ids) > 0 {
			return ids[0]
		}
		return 0
	}
	return d.c.single[row]
}

func (d *memDictionaryColumn) MultiValueRow(row int) IndexedInts {
	if !d.c.caps.HasMultipleValues {
		return SingleIndexedInts(d.c.single[row])
	}
	return ArrayIndexedInts(d.c.multi[row])
}

func (d *memDictionaryColumn) LookupName(id int) string {
	if id < 0 || id >= len(d.c.dict) {
		return ""
	}
	return d.c.dict[id]
}

func (d *memDictionaryColumn) LookupID(name string) int {
	return lookupID(d.c.dict, name)
}

func lookupID(dict []string, name string) int {
	i := sort.SearchStrings(dict, name)
	if i < len(dict) && dict[i] == name {
		return i
	}
	return -(i + 1)
}

type memComplexColumn struct {
	c *memColumn
}

func (x *memComplexColumn) Close() error     { return nil }
func (x *memComplexColumn) TypeName() string { return x.c.serde.TypeName() }
func (x *memComplexColumn) Len() int         { return x.c.n }

// RowValue decodes the value stored at row. Rows without a value, or whose
// stored bytes fail to decode, read as nil.
func (x *memComplexColumn) RowValue(row int) interface{} {
	blob := x.c.blobs[row]
	if blob == nil {
		return nil
	}
	b, err := snappy.Decode(nil, blob)
	if err != nil {
		return nil
	}
	v, err := x.c.serde.Decode(b)
	if err != nil {
		return nil
	}
	return v
}

type memBitmapIndex struct {
	c *memColumn
}

func (b *memBitmapIndex) Cardinality() int { return len(b.c.dict) }

func (b *memBitmapIndex) Value(id int) string {
	if id < 0 || id >= len(b.c.dict) {
		return ""
	}
	return b.c.dict[id]
}

// Bitmap returns the rows holding the value with the given id. The returned
// bitmap is shared and must not be modified.
func (b *memBitmapIndex) Bitmap(id int) *roaring.Bitmap {
	if id < 0 || id >= len(b.c.bitmaps) {
		return roaring.New()
	}
	return b.c.bitmaps[id]
}

func (b *memBitmapIndex) BitmapFor(value string) *roaring.Bitmap {
	return b.Bitmap(lookupID(b.c.dict, value))
}
