package storage

import (
	"testing"

	"github.com/influxdata/colstore/granularity"
	"github.com/influxdata/colstore/kit/platform/errors"
	"github.com/influxdata/colstore/query"
	"github.com/influxdata/colstore/segment"
	"github.com/retailnext/hllpp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// firstCursor runs fn against the single cursor covering the whole segment.
func firstCursor(t *testing.T, fn func(c query.Cursor)) {
	t.Helper()
	a := NewStorageAdapter(newTestIndex(t))
	for c := range a.MakeCursors(nil, granularity.Eternity, granularity.All{}) {
		fn(c)
	}
}

func TestSelectors_Dimension(t *testing.T) {
	firstCursor(t, func(c query.Cursor) {
		host := c.MakeDimensionSelector("Host")
		tags := c.MakeDimensionSelector("tags")
		missing := c.MakeDimensionSelector("missing")

		var hosts []string
		for ; !c.IsDone(); c.Advance() {
			row := host.Row()
			require.Equal(t, 1, row.Len())
			hosts = append(hosts, host.LookupName(row.Get(0)))

			row = missing.Row()
			require.Equal(t, 1, row.Len())
			require.Equal(t, "", missing.LookupName(row.Get(0)))
		}
		require.Equal(t, []string{"a", "b", "a", "c", "b", "a"}, hosts)
		require.Equal(t, 3, host.ValueCardinality())
		require.Equal(t, host.LookupName(host.LookupID("c")), "c")

		c.Reset()
		row := tags.Row()
		require.Equal(t, 2, row.Len())
		require.Equal(t, []string{"x", "y"}, []string{tags.LookupName(row.Get(0)), tags.LookupName(row.Get(1))})

		require.Equal(t, 1, missing.ValueCardinality())
		require.Equal(t, 0, missing.LookupID(""))
		require.Less(t, missing.LookupID("a"), 0)
	})
}

func TestSelectors_Numeric(t *testing.T) {
	firstCursor(t, func(c query.Cursor) {
		value := c.MakeNumericSelector("value")
		count := c.MakeNumericSelector("count")
		missing := c.MakeNumericSelector("host")

		var values []float64
		var nulls []bool
		var counts []int64
		for ; !c.IsDone(); c.Advance() {
			values = append(values, value.Double())
			nulls = append(nulls, value.IsNull())
			counts = append(counts, count.Long())

			assert.False(t, missing.IsNull())
			assert.Zero(t, missing.Long())
		}
		require.Equal(t, []float64{1, 2, 3, 0, 5, 6}, values)
		require.Equal(t, []bool{false, false, false, true, false, false}, nulls)
		require.Equal(t, []int64{1, 2, 3, 4, 5, 6}, counts)
	})
}

func TestSelectors_Complex(t *testing.T) {
	firstCursor(t, func(c query.Cursor) {
		users := c.MakeComplexSelector("users")
		require.Equal(t, segment.HyperUniqueTypeName, users.TypeName())

		sketch, ok := users.Get().(*hllpp.HLLPP)
		require.True(t, ok)
		require.Equal(t, uint64(1), sketch.Count())

		c.Advance()
		require.Nil(t, users.Get())

		missing := c.MakeComplexSelector("value")
		require.Equal(t, "", missing.TypeName())
		require.Nil(t, missing.Get())
	})
}

func TestSelectors_Object(t *testing.T) {
	firstCursor(t, func(c query.Cursor) {
		get := func(name string) query.ObjectSelector {
			s, err := c.MakeObjectSelector(name)
			require.NoError(t, err)
			return s
		}
		value, count, host, ts, users, missing := get("value"), get("count"), get("host"), get("__time"), get("users"), get("missing")

		var got [][]interface{}
		for ; !c.IsDone(); c.Advance() {
			got = append(got, []interface{}{value.Get(), count.Get(), host.Get(), ts.Get(), missing.Get()})
		}
		require.Equal(t, []interface{}{float32(1), int64(1), "a", int64(0), nil}, got[0])
		require.Equal(t, []interface{}{nil, int64(4), "c", hour + 6, nil}, got[3])

		c.Reset()
		require.IsType(t, &hllpp.HLLPP{}, users.Get())
	})
}

func TestSelectors_ObjectMultiValue(t *testing.T) {
	firstCursor(t, func(c query.Cursor) {
		_, err := c.MakeObjectSelector("Tags")
		require.Error(t, err)
		require.Equal(t, errors.ENotImplemented, errors.ErrorCode(err))
	})
}
