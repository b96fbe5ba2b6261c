package segment

import (
	"sort"

	"github.com/RoaringBitmap/roaring"
	"github.com/golang/snappy"
	"github.com/pkg/errors"
	"github.com/retailnext/hllpp"
)

// Row is a single input row of a Builder.
type Row struct {
	Timestamp  int64 // milliseconds since epoch
	Dimensions map[string][]string
	// Metrics maps column names to float32, float64, int, int64, uint64,
	// bool, string or *hllpp.HLLPP values. A nil or missing value is null.
	Metrics map[string]interface{}
}

// Builder accumulates rows and produces an immutable MemIndex.
type Builder struct {
	rows []Row
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Add appends r to the segment. Rows may be added in any time order.
func (b *Builder) Add(r Row) {
	b.rows = append(b.rows, r)
}

// Len returns the number of rows added so far.
func (b *Builder) Len() int { return len(b.rows) }

// Build sorts the rows by time and encodes every column.
func (b *Builder) Build() (*MemIndex, error) {
	rows := append([]Row(nil), b.rows...)
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Timestamp < rows[j].Timestamp })

	idx := &MemIndex{
		numRows: len(rows),
		columns: make(map[string]*memColumn),
	}

	ts := make([]int64, len(rows))
	for i := range rows {
		ts[i] = rows[i].Timestamp
	}
	idx.time = &memColumn{caps: Capabilities{Type: Long}, n: len(rows), longs: ts}

	dims, metrics, err := collectNames(rows)
	if err != nil {
		return nil, err
	}

	for _, name := range dims {
		idx.columns[name] = buildDimension(rows, name)
		idx.dims = append(idx.dims, name)
	}
	for _, name := range metrics {
		c, err := buildMetric(rows, name)
		if err != nil {
			return nil, err
		}
		idx.columns[name] = c
	}

	idx.names = append(append(idx.names, dims...), metrics...)
	sort.Strings(idx.names)
	return idx, nil
}

// collectNames returns the sorted, normalized dimension and metric names.
func collectNames(rows []Row) (dims, metrics []string, err error) {
	dimSet := make(map[string]struct{})
	metricSet := make(map[string]struct{})
	for _, r := range rows {
		for k := range r.Dimensions {
			dimSet[NormalizeName(k)] = struct{}{}
		}
		for k := range r.Metrics {
			metricSet[NormalizeName(k)] = struct{}{}
		}
	}
	for k := range dimSet {
		if k == TimeColumnName {
			return nil, nil, errors.Errorf("column name %q is reserved", k)
		}
		if _, ok := metricSet[k]; ok {
			return nil, nil, errors.Errorf("column %q is both a dimension and a metric", k)
		}
		dims = append(dims, k)
	}
	for k := range metricSet {
		if k == TimeColumnName {
			return nil, nil, errors.Errorf("column name %q is reserved", k)
		}
		metrics = append(metrics, k)
	}
	sort.Strings(dims)
	sort.Strings(metrics)
	return dims, metrics, nil
}

func lookupDimension(r Row, name string) []string {
	if v, ok := r.Dimensions[name]; ok {
		return v
	}
	for k, v := range r.Dimensions {
		if NormalizeName(k) == name {
			return v
		}
	}
	return nil
}

func lookupMetric(r Row, name string) interface{} {
	if v, ok := r.Metrics[name]; ok {
		return v
	}
	for k, v := range r.Metrics {
		if NormalizeName(k) == name {
			return v
		}
	}
	return nil
}

func buildDimension(rows []Row, name string) *memColumn {
	values := make([][]string, len(rows))
	multi := false
	set := make(map[string]struct{})
	for i, r := range rows {
		v := lookupDimension(r, name)
		if len(v) > 1 {
			multi = true
		}
		values[i] = v
		for _, s := range v {
			set[s] = struct{}{}
		}
	}
	if !multi {
		// Rows without a value hold the empty string.
		for _, v := range values {
			if len(v) == 0 {
				set[""] = struct{}{}
				break
			}
		}
	}

	dict := make([]string, 0, len(set))
	for s := range set {
		dict = append(dict, s)
	}
	sort.Strings(dict)

	c := &memColumn{
		caps: Capabilities{
			Type:              String,
			DictionaryEncoded: true,
			HasMultipleValues: multi,
			HasBitmapIndexes:  true,
		},
		n:       len(rows),
		dict:    dict,
		bitmaps: make([]*roaring.Bitmap, len(dict)),
	}
	for i := range c.bitmaps {
		c.bitmaps[i] = roaring.New()
	}

	if multi {
		c.multi = make([][]int, len(rows))
		for row, v := range values {
			ids := make([]int, len(v))
			for j, s := range v {
				ids[j] = lookupID(dict, s)
				c.bitmaps[ids[j]].Add(uint32(row))
			}
			c.multi[row] = ids
		}
		return c
	}

	c.single = make([]int, len(rows))
	for row, v := range values {
		s := ""
		if len(v) == 1 {
			s = v[0]
		}
		id := lookupID(dict, s)
		c.single[row] = id
		c.bitmaps[id].Add(uint32(row))
	}
	return c
}

// metricType infers the column type from the non-null values of a metric.
// Integer columns holding any floating point value are promoted to Float.
func metricType(rows []Row, name string) (ValueType, error) {
	typ, seen := Long, false
	for _, r := range rows {
		var t ValueType
		switch v := lookupMetric(r, name).(type) {
		case nil:
			continue
		case float32, float64:
			t = Float
		case int, int64, uint64, bool:
			t = Long
		case string:
			t = String
		case *hllpp.HLLPP:
			t = Complex
		default:
			return 0, errors.Errorf("column %q: unsupported value type %T", name, v)
		}

		switch {
		case !seen:
			typ, seen = t, true
		case typ == t:
		case typ == Long && t == Float:
			typ = Float
		case typ == Float && t == Long:
		default:
			return 0, errors.Errorf("column %q: conflicting value types %s and %s", name, typ, t)
		}
	}
	return typ, nil
}

func buildMetric(rows []Row, name string) (*memColumn, error) {
	typ, err := metricType(rows, name)
	if err != nil {
		return nil, err
	}

	c := &memColumn{caps: Capabilities{Type: typ}, n: len(rows), nulls: roaring.New()}
	switch typ {
	case Float:
		c.floats = make([]float32, len(rows))
	case Long:
		c.longs = make([]int64, len(rows))
	case String:
		c.strings = make([]string, len(rows))
	case Complex:
		serde, _ := LookupComplexSerde(HyperUniqueTypeName)
		c.serde = serde
		c.blobs = make([][]byte, len(rows))
	}

	for row, r := range rows {
		v := lookupMetric(r, name)
		if v == nil {
			c.nulls.Add(uint32(row))
			continue
		}
		switch typ {
		case Float:
			c.floats[row] = toFloat32(v)
		case Long:
			c.longs[row] = toInt64(v)
		case String:
			c.strings[row] = v.(string)
		case Complex:
			b, err := c.serde.Encode(v)
			if err != nil {
				return nil, errors.Wrapf(err, "column %q row %d", name, row)
			}
			c.blobs[row] = snappy.Encode(nil, b)
		}
	}
	return c, nil
}

func toFloat32(v interface{}) float32 {
	switch v := v.(type) {
	case float32:
		return v
	case float64:
		return float32(v)
	default:
		return float32(toInt64(v))
	}
}

func toInt64(v interface{}) int64 {
	switch v := v.(type) {
	case int:
		return int64(v)
	case int64:
		return v
	case uint64:
		return int64(v)
	case bool:
		if v {
			return 1
		}
	}
	return 0
}
