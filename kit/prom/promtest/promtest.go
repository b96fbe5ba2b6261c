// Package promtest provides helpers for finding gathered prometheus metrics
// in tests.
package promtest

import (
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// MustGather gathers g, failing tb on error.
func MustGather(tb testing.TB, g prometheus.Gatherer) []*dto.MetricFamily {
	tb.Helper()
	mfs, err := g.Gather()
	if err != nil {
		tb.Fatalf("gathering metrics: %v", err)
	}
	return mfs
}

// FindMetric returns the metric of family name whose labels equal labels,
// or nil.
func FindMetric(mfs []*dto.MetricFamily, name string, labels map[string]string) *dto.Metric {
	_, m := find(mfs, name, labels)
	return m
}

// MustFindMetric is FindMetric failing tb, with a listing of what was
// gathered, when nothing matches.
func MustFindMetric(tb testing.TB, mfs []*dto.MetricFamily, name string, labels map[string]string) *dto.Metric {
	tb.Helper()
	fam, m := find(mfs, name, labels)
	switch {
	case fam == nil:
		names := make([]string, 0, len(mfs))
		for _, mf := range mfs {
			names = append(names, mf.GetName())
		}
		tb.Fatalf("no metric family %q, have %s", name, strings.Join(names, ", "))
	case m == nil:
		sets := make([]string, 0, len(fam.Metric))
		for _, m := range fam.Metric {
			sets = append(sets, labelString(m))
		}
		tb.Fatalf("no %q metric with labels %v, have %s", name, labels, strings.Join(sets, " "))
	}
	return m
}

// CounterValue gathers g and returns the value of the matching counter.
func CounterValue(tb testing.TB, g prometheus.Gatherer, name string, labels map[string]string) float64 {
	tb.Helper()
	return MustFindMetric(tb, MustGather(tb, g), name, labels).GetCounter().GetValue()
}

func find(mfs []*dto.MetricFamily, name string, labels map[string]string) (*dto.MetricFamily, *dto.Metric) {
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.Metric {
			if matches(m, labels) {
				return mf, m
			}
		}
		return mf, nil
	}
	return nil, nil
}

func matches(m *dto.Metric, labels map[string]string) bool {
	if len(m.Label) != len(labels) {
		return false
	}
	for _, l := range m.Label {
		if v, ok := labels[l.GetName()]; !ok || v != l.GetValue() {
			return false
		}
	}
	return true
}

func labelString(m *dto.Metric) string {
	pairs := make([]string, 0, len(m.Label))
	for _, l := range m.Label {
		pairs = append(pairs, fmt.Sprintf("%s=%q", l.GetName(), l.GetValue()))
	}
	sort.Strings(pairs)
	return "{" + strings.Join(pairs, ",") + "}"
}
