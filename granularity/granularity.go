// Package granularity partitions time ranges into ordered, non-overlapping
// buckets. All timestamps are milliseconds since the Unix epoch.
package granularity

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Interval is the half-open time range [Start, End).
type Interval struct {
	Start int64
	End   int64
}

// Eternity covers every representable timestamp.
var Eternity = Interval{Start: math.MinInt64, End: math.MaxInt64}

// NewInterval returns the interval [start, end).
func NewInterval(start, end int64) Interval {
	return Interval{Start: start, End: end}
}

// Overlaps reports whether i and other share at least one instant.
func (i Interval) Overlaps(other Interval) bool {
	return i.Start < other.End && other.Start < i.End
}

// Contains reports whether ts falls within the interval.
func (i Interval) Contains(ts int64) bool {
	return ts >= i.Start && ts < i.End
}

// Clip returns i restricted to bounds.
func (i Interval) Clip(bounds Interval) Interval {
	if i.Start < bounds.Start {
		i.Start = bounds.Start
	}
	if i.End > bounds.End {
		i.End = bounds.End
	}
	return i
}

func (i Interval) String() string {
	return fmt.Sprintf("[%d, %d)", i.Start, i.End)
}

// Granularity is a bucketing function over time.
type Granularity interface {
	// BucketStart returns the start of the bucket containing ts.
	BucketStart(ts int64) int64
	// Next returns the first bucket boundary after the bucket containing ts.
	Next(ts int64) int64
	// Iterate returns the start of every bucket overlapping [start, end) in
	// increasing order.
	Iterate(start, end int64) []int64
	String() string
}

// Period is a fixed-width granularity aligned to Origin.
type Period struct {
	Name   string
	Width  int64 // milliseconds
	Origin int64
}

// NewPeriod returns a fixed-width granularity of the given duration aligned
// to the Unix epoch.
func NewPeriod(d time.Duration) Period {
	return Period{Width: d.Milliseconds()}
}

func (p Period) BucketStart(ts int64) int64 {
	m := (ts - p.Origin) % p.Width
	if m < 0 {
		m += p.Width
	}
	return ts - m
}

func (p Period) Next(ts int64) int64 {
	start := p.BucketStart(ts)
	if start > math.MaxInt64-p.Width {
		return math.MaxInt64
	}
	return start + p.Width
}

func (p Period) Iterate(start, end int64) []int64 {
	var buckets []int64
	for t := p.BucketStart(start); t < end; {
		buckets = append(buckets, t)
		next := p.Next(t)
		if next <= t {
			break
		}
		t = next
	}
	return buckets
}

func (p Period) String() string {
	if p.Name != "" {
		return p.Name
	}
	return (time.Duration(p.Width) * time.Millisecond).String()
}

// All places every timestamp in a single bucket that starts at the query
// interval start.
type All struct{}

func (All) BucketStart(int64) int64 { return math.MinInt64 }
func (All) Next(int64) int64        { return math.MaxInt64 }
func (All) String() string          { return "all" }

func (All) Iterate(start, end int64) []int64 {
	if start >= end {
		return nil
	}
	return []int64{start}
}

// Calendar buckets by calendar months in UTC. Months is the bucket width.
type Calendar struct {
	Name   string
	Months int
}

func (c Calendar) BucketStart(ts int64) int64 {
	t := time.UnixMilli(ts).UTC()
	months := t.Year()*12 + int(t.Month()) - 1
	months -= mod(months, c.Months)
	return time.Date(months/12, time.Month(months%12+1), 1, 0, 0, 0, 0, time.UTC).UnixMilli()
}

func (c Calendar) Next(ts int64) int64 {
	t := time.UnixMilli(c.BucketStart(ts)).UTC()
	return t.AddDate(0, c.Months, 0).UnixMilli()
}

func (c Calendar) Iterate(start, end int64) []int64 {
	var buckets []int64
	for t := c.BucketStart(start); t < end; t = c.Next(t) {
		buckets = append(buckets, t)
	}
	return buckets
}

func (c Calendar) String() string { return c.Name }

func mod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

var (
	None          = Period{Name: "none", Width: 1}
	Second        = Period{Name: "second", Width: 1000}
	Minute        = Period{Name: "minute", Width: 60 * 1000}
	FifteenMinute = Period{Name: "fifteen_minute", Width: 15 * 60 * 1000}
	ThirtyMinute  = Period{Name: "thirty_minute", Width: 30 * 60 * 1000}
	Hour          = Period{Name: "hour", Width: 60 * 60 * 1000}
	Day           = Period{Name: "day", Width: 24 * 60 * 60 * 1000}

	// Week buckets start on Monday; 1970-01-05 was a Monday.
	Week    = Period{Name: "week", Width: 7 * 24 * 60 * 60 * 1000, Origin: 4 * 24 * 60 * 60 * 1000}
	Month   = Calendar{Name: "month", Months: 1}
	Quarter = Calendar{Name: "quarter", Months: 3}
	Year    = Calendar{Name: "year", Months: 12}
)

// Parse returns the granularity with the given name. Besides the named
// granularities it accepts any Go duration such as "5m".
func Parse(s string) (Granularity, error) {
	switch strings.ToLower(s) {
	case "all":
		return All{}, nil
	case "none":
		return None, nil
	case "second":
		return Second, nil
	case "minute":
		return Minute, nil
	case "fifteen_minute":
		return FifteenMinute, nil
	case "thirty_minute":
		return ThirtyMinute, nil
	case "hour":
		return Hour, nil
	case "day":
		return Day, nil
	case "week":
		return Week, nil
	case "month":
		return Month, nil
	case "quarter":
		return Quarter, nil
	case "year":
		return Year, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return nil, fmt.Errorf("unknown granularity %q", s)
	}
	if d < time.Millisecond {
		return nil, fmt.Errorf("granularity %q is finer than a millisecond", s)
	}
	return NewPeriod(d), nil
}
