// Package prom collects the prometheus metrics of colstore components.
package prom

import (
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"go.uber.org/zap"
)

// PrometheusCollector is the interface for a type to expose prometheus metrics.
type PrometheusCollector interface {
	PrometheusCollectors() []prometheus.Collector
}

// Registry is a prometheus registry that logs rather than fails on
// gathering errors.
type Registry struct {
	*prometheus.Registry
	log *zap.Logger
}

// NewRegistry returns an empty registry.
func NewRegistry(log *zap.Logger) *Registry {
	return &Registry{
		Registry: prometheus.NewRegistry(),
		log:      log,
	}
}

// MustRegisterCollectors registers the collectors of every element of cs.
func (r *Registry) MustRegisterCollectors(cs ...PrometheusCollector) {
	for _, c := range cs {
		r.MustRegister(c.PrometheusCollectors()...)
	}
}

// WriteText writes every gathered metric family to w in the prometheus text
// format.
func (r *Registry) WriteText(w io.Writer) error {
	mfs, err := r.Gather()
	if err != nil {
		r.log.Warn("Error while gathering metrics", zap.Error(err))
	}
	for _, mf := range mfs {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}

// CollectorFunc exposes a function returning collectors as a
// PrometheusCollector.
type CollectorFunc func() []prometheus.Collector

// PrometheusCollectors calls f.
func (f CollectorFunc) PrometheusCollectors() []prometheus.Collector { return f() }
