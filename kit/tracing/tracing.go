// Package tracing starts opentracing spans for query execution.
package tracing

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/log"
)

// LogError adds a span log for an error.
// Returns unchanged error, so useful to wrap as in:
//
//	return nil, tracing.LogError(span, err)
func LogError(span opentracing.Span, err error) error {
	span.LogFields(log.Error(err))
	return err
}

// StartSpanFromContext starts a span named after the calling function, as a
// child of the span carried by ctx if there is one. The span logs the
// caller's file:line.
func StartSpanFromContext(ctx context.Context) (opentracing.Span, context.Context) {
	pc, _, _, ok := runtime.Caller(1)
	if !ok {
		span, ctx := opentracing.StartSpanFromContext(ctx, "unknown")
		span.LogFields(log.Error(errors.New("failed to get calling frame")))
		return span, ctx
	}

	frame, _ := runtime.CallersFrames([]uintptr{pc}).Next()

	span, ctx := opentracing.StartSpanFromContext(ctx, frame.Function)
	span.LogFields(log.String("location", fmt.Sprintf("%s:%d", frame.File, frame.Line)))

	return span, ctx
}

// StartChildSpan starts a span called operationName below the span of ctx.
// Without a parent span it returns a no-op span, so stages of a query are
// only traced when the query is.
func StartChildSpan(ctx context.Context, operationName string) opentracing.Span {
	parent := opentracing.SpanFromContext(ctx)
	if parent == nil {
		return opentracing.NoopTracer{}.StartSpan(operationName)
	}
	return parent.Tracer().StartSpan(operationName, opentracing.ChildOf(parent.Context()))
}
