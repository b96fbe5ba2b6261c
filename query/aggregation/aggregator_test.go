package aggregation_test

import (
	"testing"

	"github.com/influxdata/colstore/kit/platform/errors"
	"github.com/influxdata/colstore/query"
	"github.com/influxdata/colstore/query/aggregation"
	"github.com/stretchr/testify/require"
)

// rows is a ColumnSelectorFactory over in-memory columns. Selectors read the
// row at pos.
type rows struct {
	pos   int
	cols  map[string][]interface{}
	reads int // object reads, one per row per column an expression names
}

func (r *rows) value(name string) interface{} {
	col, ok := r.cols[name]
	if !ok {
		return nil
	}
	return col[r.pos]
}

func (r *rows) MakeDimensionSelector(name string) query.DimensionSelector { return nil }
func (r *rows) MakeComplexSelector(name string) query.ComplexSelector     { return nil }

func (r *rows) MakeNumericSelector(name string) query.NumericSelector {
	return &rowSelector{rows: r, name: name}
}

func (r *rows) MakeObjectSelector(name string) (query.ObjectSelector, error) {
	if name == "tags" {
		return nil, &errors.Error{Code: errors.ENotImplemented, Msg: "multi-valued"}
	}
	return &rowSelector{rows: r, name: name}, nil
}

type rowSelector struct {
	rows *rows
	name string
}

func (s *rowSelector) Get() interface{} {
	s.rows.reads++
	return s.rows.value(s.name)
}

func (s *rowSelector) v() query.ValueSelector { return query.ValueSelector{V: s.rows.value(s.name)} }
func (s *rowSelector) Float() float32         { return s.v().Float() }
func (s *rowSelector) Double() float64        { return s.v().Double() }
func (s *rowSelector) Long() int64            { return s.v().Long() }
func (s *rowSelector) IsNull() bool           { return s.v().IsNull() }

// aggregate runs every row of columns through the row, buffered and
// combining paths of f and returns the three finalized values.
func aggregate(t *testing.T, f aggregation.AggregatorFactory, cols map[string][]interface{}) (row, buffered, combined interface{}) {
	t.Helper()

	n := 0
	for _, col := range cols {
		n = len(col)
	}
	r := &rows{cols: cols}

	agg, err := f.BuildAggregator(r)
	require.NoError(t, err)
	bagg, err := f.BuildBufferAggregator(r)
	require.NoError(t, err)

	// Aggregate at a non-zero position with a neighbour on each side.
	size := f.MaxIntermediateSize()
	buf := make([]byte, 3*size)
	for i := 0; i < 3; i++ {
		bagg.Init(buf, i*size)
	}

	per := make([]interface{}, n)
	for r.pos = 0; r.pos < n; r.pos++ {
		agg.Aggregate()
		bagg.Aggregate(buf, size)

		single, err := f.BuildAggregator(r)
		require.NoError(t, err)
		single.Aggregate()
		per[r.pos] = single.Get()
	}
	require.Equal(t, bagg.Get(buf, 0), bagg.Get(buf, 2*size))

	c := f.BuildCombiner()
	for i, v := range per {
		if i == 0 {
			c.Reset(query.ValueSelector{V: v})
			continue
		}
		c.Fold(query.ValueSelector{V: v})
	}
	return agg.Get(), bagg.Get(buf, size), c.Get()
}

func TestNullHandling(t *testing.T) {
	values := map[string][]interface{}{"x": {nil, 3.0, nil, 4.0}}
	nulls := map[string][]interface{}{"x": {nil, nil}}

	for _, tt := range []struct {
		name    string
		factory func(nulls aggregation.NullHandling) (aggregation.AggregatorFactory, error)
		sum     interface{}
		zero    interface{}
	}{
		{
			name: "floatSum",
			factory: func(nulls aggregation.NullHandling) (aggregation.AggregatorFactory, error) {
				return aggregation.NewFloatSum("out", "x", "", nulls)
			},
			sum:  float32(7),
			zero: float32(0),
		},
		{
			name: "doubleSum",
			factory: func(nulls aggregation.NullHandling) (aggregation.AggregatorFactory, error) {
				return aggregation.NewDoubleSum("out", "x", "", nulls)
			},
			sum:  7.0,
			zero: 0.0,
		},
		{
			name: "longSum",
			factory: func(nulls aggregation.NullHandling) (aggregation.AggregatorFactory, error) {
				return aggregation.NewLongSum("out", "x", "", nulls)
			},
			sum:  int64(7),
			zero: int64(0),
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			off, err := tt.factory(aggregation.NullHandling{})
			require.NoError(t, err)
			on, err := tt.factory(aggregation.NullHandling{ReplaceWithDefault: true})
			require.NoError(t, err)

			for _, f := range []aggregation.AggregatorFactory{off, on} {
				row, buffered, combined := aggregate(t, f, values)
				require.Equal(t, tt.sum, row)
				require.Equal(t, tt.sum, buffered)
				require.Equal(t, tt.sum, combined)
			}

			row, buffered, combined := aggregate(t, off, nulls)
			require.Nil(t, row)
			require.Nil(t, buffered)
			require.Nil(t, combined)

			row, buffered, combined = aggregate(t, on, nulls)
			require.Equal(t, tt.zero, row)
			require.Equal(t, tt.zero, buffered)
			require.Equal(t, tt.zero, combined)

			require.Equal(t, on.MaxIntermediateSize()+1, off.MaxIntermediateSize())
		})
	}
}

func TestPathsAgree(t *testing.T) {
	cols := map[string][]interface{}{"x": {0.1, 0.2, 1e10, -3.3, nil, 7.25, 1e-7, 0.3}}

	for _, nulls := range []aggregation.NullHandling{{}, {ReplaceWithDefault: true}} {
		for _, spec := range []aggregation.Spec{
			{Type: "floatSum", Name: "out", FieldName: "x"},
			{Type: "doubleSum", Name: "out", FieldName: "x"},
			{Type: "longSum", Name: "out", FieldName: "x"},
			{Type: "doubleSum", Name: "out", Expression: "x * 3 + 1"},
			{Type: "count", Name: "out"},
		} {
			f, err := aggregation.New(spec, nulls)
			require.NoError(t, err)

			row, buffered, combined := aggregate(t, f, cols)
			require.Equal(t, row, buffered, "%s buffered", spec.Type)
			require.Equal(t, row, combined, "%s combined", spec.Type)
		}
	}
}

func TestCount(t *testing.T) {
	f, err := aggregation.NewCount("rows", aggregation.NullHandling{})
	require.NoError(t, err)
	require.Equal(t, "long", f.TypeName())
	require.Equal(t, 8, f.MaxIntermediateSize())

	row, buffered, combined := aggregate(t, f, map[string][]interface{}{"x": {nil, 1.0, nil}})
	require.Equal(t, int64(3), row)
	require.Equal(t, int64(3), buffered)
	require.Equal(t, int64(3), combined)

	cf := f.CombiningFactory()
	require.Equal(t, []byte{0x01, 'r', 'o', 'w', 's', 0xFF}, cf.CacheKey())
	row, _, _ = aggregate(t, cf, map[string][]interface{}{"rows": {int64(3), int64(4)}})
	require.Equal(t, int64(7), row)
}

func TestCombine(t *testing.T) {
	for _, spec := range []aggregation.Spec{
		{Type: "floatSum", Name: "out", FieldName: "x"},
		{Type: "doubleSum", Name: "out", FieldName: "x"},
		{Type: "longSum", Name: "out", FieldName: "x"},
		{Type: "count", Name: "out"},
	} {
		t.Run(spec.Type, func(t *testing.T) {
			f, err := aggregation.New(spec, aggregation.NullHandling{})
			require.NoError(t, err)

			typed := func(v interface{}) interface{} {
				c := f.BuildCombiner()
				c.Reset(query.ValueSelector{V: v})
				return c.Get()
			}
			values := []interface{}{typed(1.5), typed(-2.0), typed(40.25), nil}

			for _, a := range values {
				require.Equal(t, a, f.Combine(a, nil))
				require.Equal(t, a, f.Combine(nil, a))
				for _, b := range values {
					require.Equal(t, f.Combine(a, b), f.Combine(b, a))
					for _, c := range values {
						require.Equal(t, f.Combine(f.Combine(a, b), c), f.Combine(a, f.Combine(b, c)))
					}
				}
			}

			// The combiner follows the same law as Combine.
			c := f.BuildCombiner()
			c.Reset(query.ValueSelector{V: values[3]})
			want := values[3]
			for _, v := range values {
				c.Fold(query.ValueSelector{V: v})
				want = f.Combine(want, v)
			}
			require.Equal(t, want, c.Get())
		})
	}
}

func TestCombiner_Null(t *testing.T) {
	f, err := aggregation.NewDoubleSum("out", "x", "", aggregation.NullHandling{})
	require.NoError(t, err)

	c := f.BuildCombiner()
	c.Reset(query.ValueSelector{})
	require.True(t, c.IsNull())
	require.Nil(t, c.Get())
	require.Zero(t, c.Double())

	c.Fold(query.ValueSelector{V: 2.5})
	require.False(t, c.IsNull())
	require.Equal(t, 2.5, c.Get())
	require.Equal(t, float32(2.5), c.Float())
	require.Equal(t, int64(2), c.Long())
}

func TestAggregator_Reset(t *testing.T) {
	f, err := aggregation.NewLongSum("out", "x", "", aggregation.NullHandling{})
	require.NoError(t, err)

	r := &rows{cols: map[string][]interface{}{"x": {int64(5)}}}
	agg, err := f.BuildAggregator(r)
	require.NoError(t, err)

	agg.Aggregate()
	require.Equal(t, int64(5), agg.Get())
	agg.Reset()
	require.Nil(t, agg.Get())
	agg.Aggregate()
	require.Equal(t, int64(5), agg.Get())
}

func TestExpression(t *testing.T) {
	cols := map[string][]interface{}{
		"a": {1.5, nil, float32(2)},
		"b": {int64(1), int64(2), int64(3)},
	}

	for _, tt := range []struct {
		spec aggregation.Spec
		want interface{}
	}{
		{spec: aggregation.Spec{Type: "doubleSum", Name: "out", Expression: `a * 2`}, want: 7.0},
		{spec: aggregation.Spec{Type: "doubleSum", Name: "out", Expression: `a + b`}, want: 7.5},
		{spec: aggregation.Spec{Type: "longSum", Name: "out", Expression: `b * b`}, want: int64(14)},
		{spec: aggregation.Spec{Type: "floatSum", Name: "out", Expression: `"b" / 2`}, want: float32(3)},
		{spec: aggregation.Spec{Type: "doubleSum", Name: "out", Expression: `missing + 1`}, want: nil},
	} {
		t.Run(tt.spec.Expression, func(t *testing.T) {
			f, err := aggregation.New(tt.spec, aggregation.NullHandling{})
			require.NoError(t, err)

			row, buffered, combined := aggregate(t, f, cols)
			require.Equal(t, tt.want, row)
			require.Equal(t, tt.want, buffered)
			require.Equal(t, tt.want, combined)
		})
	}
}

func TestExpression_MultiValuedColumn(t *testing.T) {
	f, err := aggregation.NewDoubleSum("out", "", "tags + 1", aggregation.DefaultNullHandling)
	require.NoError(t, err)

	_, err = f.BuildAggregator(&rows{})
	require.Equal(t, errors.ENotImplemented, errors.ErrorCode(err))
	_, err = f.BuildBufferAggregator(&rows{})
	require.Equal(t, errors.ENotImplemented, errors.ErrorCode(err))
}

func TestNew_Errors(t *testing.T) {
	for _, tt := range []struct {
		name string
		spec aggregation.Spec
	}{
		{name: "unknown type", spec: aggregation.Spec{Type: "median", Name: "out", FieldName: "x"}},
		{name: "no name", spec: aggregation.Spec{Type: "doubleSum", FieldName: "x"}},
		{name: "no input", spec: aggregation.Spec{Type: "doubleSum", Name: "out"}},
		{name: "both inputs", spec: aggregation.Spec{Type: "longSum", Name: "out", FieldName: "x", Expression: "x + 1"}},
		{name: "invalid field name", spec: aggregation.Spec{Type: "floatSum", Name: "out", FieldName: "x\xff"}},
		{name: "invalid expression", spec: aggregation.Spec{Type: "floatSum", Name: "out", Expression: "x +"}},
		{name: "count with field", spec: aggregation.Spec{Type: "count", Name: "out", FieldName: "x"}},
		{name: "count without name", spec: aggregation.Spec{Type: "count"}},
	} {
		t.Run(tt.name, func(t *testing.T) {
			f, err := aggregation.New(tt.spec, aggregation.DefaultNullHandling)
			require.Error(t, err)
			require.Nil(t, f)
			require.Equal(t, errors.EInvalid, errors.ErrorCode(err))
		})
	}
}

func TestCombiningFactory(t *testing.T) {
	f, err := aggregation.NewFloatSum("total", "value", "", aggregation.NullHandling{})
	require.NoError(t, err)

	cf := f.CombiningFactory()
	require.Equal(t, "total", cf.Name())
	require.Equal(t, "float", cf.TypeName())
	require.Equal(t, append([]byte{0x1D}, "total\xff"...), cf.CacheKey())
	require.Equal(t, f.MaxIntermediateSize(), cf.MaxIntermediateSize())

	row, _, _ := aggregate(t, cf, map[string][]interface{}{"total": {float32(1.5), nil, float32(2)}})
	require.Equal(t, float32(3.5), row)
}

func TestRequiredColumns(t *testing.T) {
	f, err := aggregation.NewLongSum("total", "value", "", aggregation.NullHandling{})
	require.NoError(t, err)

	req := f.RequiredColumns()
	require.Len(t, req, 1)
	require.Equal(t, "value", req[0].Name())
	require.Equal(t, f.CacheKey(), req[0].CacheKey())

	f, err = aggregation.NewLongSum("total", "", "value * 2", aggregation.NullHandling{})
	require.NoError(t, err)

	req = f.RequiredColumns()
	require.Len(t, req, 1)
	require.Equal(t, "total", req[0].Name())
	require.Equal(t, f.CacheKey(), req[0].CacheKey())
}

func TestMaxIntermediateSize(t *testing.T) {
	for _, tt := range []struct {
		typ     string
		on, off int
	}{
		{typ: "floatSum", on: 4, off: 5},
		{typ: "doubleSum", on: 8, off: 9},
		{typ: "longSum", on: 8, off: 9},
	} {
		spec := aggregation.Spec{Type: tt.typ, Name: "out", FieldName: "x"}
		on, err := aggregation.New(spec, aggregation.NullHandling{ReplaceWithDefault: true})
		require.NoError(t, err)
		off, err := aggregation.New(spec, aggregation.NullHandling{})
		require.NoError(t, err)

		require.Equal(t, tt.on, on.MaxIntermediateSize())
		require.Equal(t, tt.off, off.MaxIntermediateSize())
		require.False(t, on.Nullable())
		require.True(t, off.Nullable())
		require.Equal(t, on.CacheKey(), off.CacheKey())
	}

	c, err := aggregation.NewCount("rows", aggregation.NullHandling{})
	require.NoError(t, err)
	require.False(t, c.Nullable())
}

func TestExpression_EvaluatedOncePerRow(t *testing.T) {
	for _, nulls := range []aggregation.NullHandling{{ReplaceWithDefault: true}, {}} {
		f, err := aggregation.NewDoubleSum("doubled", "", "x * 2", nulls)
		require.NoError(t, err)

		r := &rows{cols: map[string][]interface{}{"x": {1.0, nil, 3.0}}}
		agg, err := f.BuildAggregator(r)
		require.NoError(t, err)
		bagg, err := f.BuildBufferAggregator(r)
		require.NoError(t, err)
		buf := make([]byte, f.MaxIntermediateSize())
		bagg.Init(buf, 0)

		for r.pos = 0; r.pos < 3; r.pos++ {
			agg.Aggregate()
			bagg.Aggregate(buf, 0)
		}
		require.Equal(t, 6, r.reads, "nulls %+v", nulls)
		require.Equal(t, 8.0, agg.Get())
		require.Equal(t, 8.0, bagg.Get(buf, 0))
	}
}
