// Package filter turns boolean predicates over dimension values into row
// bitmaps using a segment's bitmap indexes.
package filter

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/RoaringBitmap/roaring"
	"github.com/influxdata/colstore/segment"
	"github.com/influxdata/influxql"
)

// BitmapIndexSelector gives filters access to the bitmap indexes of a
// segment.
type BitmapIndexSelector interface {
	NumRows() int
	// BitmapIndex returns nil when the dimension does not exist or has no
	// bitmap index.
	BitmapIndex(dimension string) segment.BitmapIndex
}

// Filter computes the set of rows matching a predicate. The returned bitmap
// is owned by the caller.
type Filter interface {
	Bitmap(s BitmapIndexSelector) *roaring.Bitmap
	String() string
}

func allRows(s BitmapIndexSelector) *roaring.Bitmap {
	bm := roaring.New()
	bm.AddRange(0, uint64(s.NumRows()))
	return bm
}

// Selector matches rows whose dimension holds Value. A missing dimension
// holds the empty string on every row.
type Selector struct {
	Dimension string
	Value     string
}

func (f *Selector) Bitmap(s BitmapIndexSelector) *roaring.Bitmap {
	bi := s.BitmapIndex(f.Dimension)
	if bi == nil {
		if f.Value == "" {
			return allRows(s)
		}
		return roaring.New()
	}
	return bi.BitmapFor(f.Value).Clone()
}

func (f *Selector) String() string {
	return fmt.Sprintf("%s = %q", influxql.QuoteIdent(f.Dimension), f.Value)
}

// In matches rows whose dimension holds any of Values.
type In struct {
	Dimension string
	Values    []string
}

func (f *In) Bitmap(s BitmapIndexSelector) *roaring.Bitmap {
	bms := make([]*roaring.Bitmap, 0, len(f.Values))
	for _, v := range f.Values {
		sel := Selector{Dimension: f.Dimension, Value: v}
		bms = append(bms, sel.Bitmap(s))
	}
	return roaring.FastOr(bms...)
}

func (f *In) String() string {
	quoted := make([]string, len(f.Values))
	for i, v := range f.Values {
		quoted[i] = fmt.Sprintf("%q", v)
	}
	return fmt.Sprintf("%s IN (%s)", influxql.QuoteIdent(f.Dimension), strings.Join(quoted, ", "))
}

// Regex matches rows holding any dimension value matched by Pattern.
type Regex struct {
	Dimension string
	Pattern   *regexp.Regexp
}

func (f *Regex) Bitmap(s BitmapIndexSelector) *roaring.Bitmap {
	bi := s.BitmapIndex(f.Dimension)
	if bi == nil {
		if f.Pattern.MatchString("") {
			return allRows(s)
		}
		return roaring.New()
	}

	var bms []*roaring.Bitmap
	for id := 0; id < bi.Cardinality(); id++ {
		if f.Pattern.MatchString(bi.Value(id)) {
			bms = append(bms, bi.Bitmap(id))
		}
	}
	return roaring.FastOr(bms...)
}

func (f *Regex) String() string {
	return fmt.Sprintf("%s =~ %q", influxql.QuoteIdent(f.Dimension), f.Pattern.String())
}

// And matches rows matched by every filter. An empty And matches all rows.
type And struct {
	Filters []Filter
}

func (f *And) Bitmap(s BitmapIndexSelector) *roaring.Bitmap {
	if len(f.Filters) == 0 {
		return allRows(s)
	}
	bms := make([]*roaring.Bitmap, len(f.Filters))
	for i, child := range f.Filters {
		bms[i] = child.Bitmap(s)
	}
	if len(bms) == 1 {
		return bms[0]
	}
	return roaring.FastAnd(bms...)
}

func (f *And) String() string { return join(f.Filters, " AND ") }

// Or matches rows matched by any filter. An empty Or matches no rows.
type Or struct {
	Filters []Filter
}

func (f *Or) Bitmap(s BitmapIndexSelector) *roaring.Bitmap {
	bms := make([]*roaring.Bitmap, len(f.Filters))
	for i, child := range f.Filters {
		bms[i] = child.Bitmap(s)
	}
	return roaring.FastOr(bms...)
}

func (f *Or) String() string { return join(f.Filters, " OR ") }

// Not matches rows not matched by Filter.
type Not struct {
	Filter Filter
}

func (f *Not) Bitmap(s BitmapIndexSelector) *roaring.Bitmap {
	return roaring.Flip(f.Filter.Bitmap(s), 0, uint64(s.NumRows()))
}

func (f *Not) String() string { return "NOT (" + f.Filter.String() + ")" }

// True matches every row.
type True struct{}

func (True) Bitmap(s BitmapIndexSelector) *roaring.Bitmap { return allRows(s) }
func (True) String() string                               { return "true" }

func join(filters []Filter, sep string) string {
	parts := make([]string, len(filters))
	for i, f := range filters {
		parts[i] = "(" + f.String() + ")"
	}
	return strings.Join(parts, sep)
}
