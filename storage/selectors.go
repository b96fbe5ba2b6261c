package storage

import (
	"github.com/influxdata/colstore/kit/platform/errors"
	"github.com/influxdata/colstore/query"
	"github.com/influxdata/colstore/segment"
)

// rowPosition reports the row a cursor currently points at. Selectors call
// it on every read so they follow the cursor through Advance and Reset.
type rowPosition interface {
	row() int
}

// selectorFactory implements query.ColumnSelectorFactory for one cursor on
// top of the pass-wide column cache.
type selectorFactory struct {
	pos   rowPosition
	cache *columnCache
}

func (f selectorFactory) MakeDimensionSelector(name string) query.DimensionSelector {
	col := f.cache.get(name)
	if col.kind != kindDictionary {
		return nullDimensionSelector{}
	}
	if col.caps.HasMultipleValues {
		return &multiValueDimensionSelector{pos: f.pos, dict: col.dict}
	}
	return &dimensionSelector{pos: f.pos, dict: col.dict}
}

func (f selectorFactory) MakeNumericSelector(name string) query.NumericSelector {
	col := f.cache.get(name)
	switch col.kind {
	case kindFloat, kindLong:
		return &numericSelector{pos: f.pos, col: col.generic}
	}
	return query.ValueSelector{V: int64(0)}
}

func (f selectorFactory) MakeComplexSelector(name string) query.ComplexSelector {
	col := f.cache.get(name)
	if col.kind != kindComplex {
		return nilComplexSelector{}
	}
	return &complexSelector{pos: f.pos, col: col.complex}
}

func (f selectorFactory) MakeObjectSelector(name string) (query.ObjectSelector, error) {
	col := f.cache.get(name)
	if col.caps.HasMultipleValues {
		return nil, &errors.Error{
			Code: errors.ENotImplemented,
			Op:   "storage.MakeObjectSelector",
			Msg:  "object selectors do not support multi-valued column " + segment.NormalizeName(name),
		}
	}

	switch col.kind {
	case kindFloat:
		return &floatObjectSelector{pos: f.pos, col: col.generic}, nil
	case kindLong:
		return &longObjectSelector{pos: f.pos, col: col.generic}, nil
	case kindString:
		return &stringObjectSelector{pos: f.pos, col: col.generic}, nil
	case kindDictionary:
		return &dictionaryObjectSelector{pos: f.pos, dict: col.dict}, nil
	case kindComplex:
		return &complexSelector{pos: f.pos, col: col.complex}, nil
	}
	return nilObjectSelector{}, nil
}

type dimensionSelector struct {
	pos  rowPosition
	dict segment.DictionaryEncodedColumn
}

func (s *dimensionSelector) Row() segment.IndexedInts {
	return segment.SingleIndexedInts(s.dict.SingleValueRow(s.pos.row()))
}

func (s *dimensionSelector) ValueCardinality() int    { return s.dict.Cardinality() }
func (s *dimensionSelector) LookupName(id int) string { return s.dict.LookupName(id) }
func (s *dimensionSelector) LookupID(name string) int { return s.dict.LookupID(name) }

type multiValueDimensionSelector struct {
	pos  rowPosition
	dict segment.DictionaryEncodedColumn
}

func (s *multiValueDimensionSelector) Row() segment.IndexedInts {
	return s.dict.MultiValueRow(s.pos.row())
}

func (s *multiValueDimensionSelector) ValueCardinality() int    { return s.dict.Cardinality() }
func (s *multiValueDimensionSelector) LookupName(id int) string { return s.dict.LookupName(id) }
func (s *multiValueDimensionSelector) LookupID(name string) int { return s.dict.LookupID(name) }

// nullDimensionSelector stands in for dimensions the segment does not have.
// Every row holds the single value "".
type nullDimensionSelector struct{}

func (nullDimensionSelector) Row() segment.IndexedInts { return segment.SingleIndexedInts(0) }
func (nullDimensionSelector) ValueCardinality() int    { return 1 }
func (nullDimensionSelector) LookupName(int) string    { return "" }

func (nullDimensionSelector) LookupID(name string) int {
	if name == "" {
		return 0
	}
	return -1
}

type numericSelector struct {
	pos rowPosition
	col segment.GenericColumn
}

func (s *numericSelector) Float() float32 { return s.col.FloatAt(s.pos.row()) }
func (s *numericSelector) Long() int64    { return s.col.LongAt(s.pos.row()) }
func (s *numericSelector) IsNull() bool   { return s.col.IsNull(s.pos.row()) }

func (s *numericSelector) Double() float64 {
	if s.col.Type() == segment.Long {
		return float64(s.col.LongAt(s.pos.row()))
	}
	return float64(s.col.FloatAt(s.pos.row()))
}

type complexSelector struct {
	pos rowPosition
	col segment.ComplexColumn
}

func (s *complexSelector) TypeName() string { return s.col.TypeName() }
func (s *complexSelector) Get() interface{} { return s.col.RowValue(s.pos.row()) }

type nilComplexSelector struct{}

func (nilComplexSelector) TypeName() string { return "" }
func (nilComplexSelector) Get() interface{} { return nil }

type floatObjectSelector struct {
	pos rowPosition
	col segment.GenericColumn
}

func (s *floatObjectSelector) Get() interface{} {
	row := s.pos.row()
	if s.col.IsNull(row) {
		return nil
	}
	return s.col.FloatAt(row)
}

type longObjectSelector struct {
	pos rowPosition
	col segment.GenericColumn
}

func (s *longObjectSelector) Get() interface{} {
	row := s.pos.row()
	if s.col.IsNull(row) {
		return nil
	}
	return s.col.LongAt(row)
}

type stringObjectSelector struct {
	pos rowPosition
	col segment.GenericColumn
}

func (s *stringObjectSelector) Get() interface{} {
	row := s.pos.row()
	if s.col.IsNull(row) {
		return nil
	}
	return s.col.StringAt(row)
}

type dictionaryObjectSelector struct {
	pos  rowPosition
	dict segment.DictionaryEncodedColumn
}

func (s *dictionaryObjectSelector) Get() interface{} {
	return s.dict.LookupName(s.dict.SingleValueRow(s.pos.row()))
}

type nilObjectSelector struct{}

func (nilObjectSelector) Get() interface{} { return nil }
