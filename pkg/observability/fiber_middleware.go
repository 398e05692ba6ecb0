package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/Alijeyrad/simorq_sessions/pkg/reqctx"
)

const tracerName = "github.com/Alijeyrad/simorq_sessions/pkg/observability"

// routeParams are copied onto the server span when the matched route has them.
var routeParams = []string{"id"}

// FiberMiddleware opens a server span per request, continuing any incoming
// W3C trace context, and records request count and latency. It must run
// before the request id middleware so request metadata links to the span.
func FiberMiddleware(serviceName string) fiber.Handler {
	tracer := otel.Tracer(tracerName)
	meter := otel.Meter(tracerName)

	requests, _ := meter.Int64Counter(
		"http_server_requests_total",
		metric.WithDescription("HTTP requests by route and status"),
		metric.WithUnit("{request}"),
	)
	latency, _ := meter.Float64Histogram(
		"http_server_request_duration_seconds",
		metric.WithDescription("HTTP request latency"),
		metric.WithUnit("s"),
	)

	return func(c fiber.Ctx) error {
		ctx := otel.GetTextMapPropagator().Extract(c.Context(), propagation.HeaderCarrier(c.GetReqHeaders()))
		ctx, span := tracer.Start(ctx, c.Method(),
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("service.name", serviceName),
				attribute.String("http.request.method", c.Method()),
				attribute.String("url.path", c.Path()),
				attribute.String("client.address", c.IP()),
				attribute.String("user_agent.original", c.Get(fiber.HeaderUserAgent)),
			),
		)
		defer span.End()

		c.SetContext(ctx)
		if sc := span.SpanContext(); sc.HasTraceID() {
			c.Set("X-Trace-Id", sc.TraceID().String())
		}

		start := time.Now()
		err := c.Next()
		elapsed := time.Since(start).Seconds()

		// the matched route is only known once the chain has run
		route := c.Route().Path
		status := c.Response().StatusCode()
		span.SetName(c.Method() + " " + route)
		span.SetAttributes(
			attribute.String("http.route", route),
			attribute.Int("http.response.status_code", status),
		)
		for _, name := range routeParams {
			if v := c.Params(name); v != "" {
				span.SetAttributes(attribute.String("http.route.param."+name, v))
			}
		}
		if rid := reqctx.RequestIDFromContext(c.Context()); rid != "" {
			span.SetAttributes(attribute.String("http.request.id", rid))
		}

		switch {
		case status >= http.StatusInternalServerError:
			span.SetStatus(codes.Error, strconv.Itoa(status)+" "+http.StatusText(status))
			if err != nil {
				span.RecordError(err)
			}
		case err != nil:
			span.RecordError(err)
		}

		attrs := metric.WithAttributes(
			attribute.String("method", c.Method()),
			attribute.String("route", route),
			attribute.Int("status", status),
		)
		requests.Add(ctx, 1, attrs)
		latency.Record(ctx, elapsed, attrs)

		return err
	}
}
