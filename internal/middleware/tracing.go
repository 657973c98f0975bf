package middleware

import (
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/soaringjerry/Talentflow/internal/telemetry"
)

var tracer = telemetry.GetTracer("talentflow/internal/middleware")

// Trace starts a server span per request, continuing any W3C trace context in the headers.
// Spans are named after the route in routes that will serve the request, or the raw path
// when routes is nil or nothing matches.
func Trace(routes *http.ServeMux) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			name := r.Method + " " + r.URL.Path
			if routes != nil {
				if _, pattern := routes.Handler(r); pattern != "" {
					name = pattern
				}
			}
			serveTraced(w, r, name, next)
		})
	}
}

func serveTraced(w http.ResponseWriter, r *http.Request, name string, next http.Handler) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
	ctx, span := tracer.Start(ctx, name, trace.WithSpanKind(trace.SpanKindServer))
	defer span.End()

	rec := &statusRecorder{ResponseWriter: w}
	r = r.WithContext(ctx)
	next.ServeHTTP(rec, r)
	if rec.status == 0 {
		rec.status = http.StatusOK
	}
	span.SetAttributes(
		telemetry.String("http.method", r.Method),
		telemetry.String("http.target", r.URL.Path),
		telemetry.Int("http.status_code", rec.status),
		telemetry.String("request.id", RequestIDFromContext(ctx)),
	)
	if rec.status >= 500 {
		span.SetStatus(codes.Error, http.StatusText(rec.status))
	}
}
