package transport

import (
	"context"
	"errors"

	"github.com/chinmay1088/mempool/api"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/chinmay1088/mempool/transport"

// Tracing wraps another transport and records one client span per request
type Tracing struct {
	next   api.Transport
	tracer trace.Tracer
}

var _ api.Transport = (*Tracing)(nil)

// NewTracing returns a transport that traces every request sent through next
func NewTracing(next api.Transport, tp trace.TracerProvider) *Tracing {
	return &Tracing{
		next:   next,
		tracer: tp.Tracer(tracerName),
	}
}

// Send implements api.Transport
func (t *Tracing) Send(ctx context.Context, method api.Method, url string, body []byte) ([]byte, error) {
	ctx, span := t.tracer.Start(ctx, "mempool "+method.String(),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method.String()),
			attribute.String("url.full", url),
			attribute.Int("http.request.body.size", len(body)),
		),
	)
	defer span.End()

	data, err := t.next.Send(ctx, method, url, body)
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		span.SetAttributes(attribute.Int("http.response.status_code", statusErr.StatusCode))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("http.response.body.size", len(data)))
	return data, nil
}
