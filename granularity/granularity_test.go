package granularity

import (
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestPeriod(t *testing.T) {
	p := Period{Width: 100}
	require.Equal(t, int64(100), p.BucketStart(150))
	require.Equal(t, int64(200), p.Next(150))
	require.Equal(t, int64(-100), p.BucketStart(-1))
	require.Equal(t, int64(200), p.BucketStart(200))

	if got, want := p.Iterate(120, 300), []int64{100, 200}; !cmp.Equal(got, want) {
		t.Fatalf("unexpected buckets -got/+want:\n%s", cmp.Diff(got, want))
	}
	require.Empty(t, p.Iterate(300, 300))
}

func TestPeriod_NextSaturates(t *testing.T) {
	p := Period{Width: 1000}
	require.Equal(t, int64(math.MaxInt64), p.Next(math.MaxInt64-10))
}

func TestWeek_StartsOnMonday(t *testing.T) {
	// Wednesday 2020-01-08
	ts := time.Date(2020, 1, 8, 12, 0, 0, 0, time.UTC).UnixMilli()
	start := time.UnixMilli(Week.BucketStart(ts)).UTC()
	require.Equal(t, time.Monday, start.Weekday())
	require.Equal(t, 6, start.Day())
}

func TestCalendar(t *testing.T) {
	ts := time.Date(2021, 5, 17, 3, 0, 0, 0, time.UTC).UnixMilli()

	require.Equal(t, time.Date(2021, 5, 1, 0, 0, 0, 0, time.UTC).UnixMilli(), Month.BucketStart(ts))
	require.Equal(t, time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC).UnixMilli(), Month.Next(ts))
	require.Equal(t, time.Date(2021, 4, 1, 0, 0, 0, 0, time.UTC).UnixMilli(), Quarter.BucketStart(ts))
	require.Equal(t, time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC).UnixMilli(), Year.Next(ts))

	buckets := Month.Iterate(ts, time.Date(2021, 8, 1, 0, 0, 0, 0, time.UTC).UnixMilli())
	require.Len(t, buckets, 3)
}

func TestAll(t *testing.T) {
	require.Equal(t, []int64{10}, All{}.Iterate(10, 20))
	require.Empty(t, All{}.Iterate(20, 20))
	require.Equal(t, int64(math.MaxInt64), All{}.Next(5))
}

func TestParse(t *testing.T) {
	for _, tt := range []struct {
		s    string
		want Granularity
	}{
		{s: "all", want: All{}},
		{s: "HOUR", want: Hour},
		{s: "week", want: Week},
		{s: "month", want: Month},
		{s: "5m", want: Period{Width: 5 * 60 * 1000}},
	} {
		t.Run(tt.s, func(t *testing.T) {
			got, err := Parse(tt.s)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}

	_, err := Parse("fortnightly")
	require.Error(t, err)
	_, err = Parse("10us")
	require.Error(t, err)
}

func TestInterval(t *testing.T) {
	i := NewInterval(100, 300)
	require.True(t, i.Overlaps(NewInterval(299, 400)))
	require.False(t, i.Overlaps(NewInterval(300, 400)))
	require.False(t, i.Overlaps(NewInterval(0, 100)))
	require.True(t, i.Contains(100))
	require.False(t, i.Contains(300))
	require.Equal(t, NewInterval(150, 300), NewInterval(150, 500).Clip(i))
}
