// Package testing installs in-memory tracers for tests.
package testing

import (
	"github.com/opentracing/opentracing-go"
	"github.com/uber/jaeger-client-go"
)

// SetupInMemoryTracing sets the global tracer to an in memory Jaeger instance
// and returns the reporter collecting its finished spans. The returned
// function restores the previous global tracer.
func SetupInMemoryTracing(name string) (*jaeger.InMemoryReporter, func()) {
	var (
		old            = opentracing.GlobalTracer()
		reporter       = jaeger.NewInMemoryReporter()
		tracer, closer = jaeger.NewTracer(name,
			jaeger.NewConstSampler(true),
			reporter,
		)
	)

	opentracing.SetGlobalTracer(tracer)
	return reporter, func() {
		_ = closer.Close()
		opentracing.SetGlobalTracer(old)
	}
}
