// Package middleware provides the HTTP middleware chain of the ledger API.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// MaxRequestIDLength caps the request ID copied onto spans
const MaxRequestIDLength = 128

// TracingConfig holds configuration for the tracing middleware
type TracingConfig struct {
	ServiceName string
	Enabled     bool
	// TracerProvider defaults to the global provider
	TracerProvider trace.TracerProvider
}

// Tracing wraps otelgin. Spans are named after the route pattern; before the
// span ends it is enriched with the request ID and the authenticated actor,
// and client errors are marked as span errors. Register it with Use(Tracing(cfg)...).
func Tracing(cfg TracingConfig) gin.HandlersChain {
	if !cfg.Enabled {
		return gin.HandlersChain{func(c *gin.Context) { c.Next() }}
	}

	var opts []otelgin.Option
	if cfg.TracerProvider != nil {
		opts = append(opts, otelgin.WithTracerProvider(cfg.TracerProvider))
	}
	return gin.HandlersChain{
		otelgin.Middleware(cfg.ServiceName, opts...),
		func(c *gin.Context) {
			c.Next()

			span := trace.SpanFromContext(c.Request.Context())
			if !span.IsRecording() {
				return
			}
			enrichSpan(c, span)
			markSpanStatus(span, c.Writer.Status())
		},
	}
}

func enrichSpan(c *gin.Context, span trace.Span) {
	if requestID := c.GetString(RequestIDKey); requestID != "" {
		if len(requestID) > MaxRequestIDLength {
			requestID = requestID[:MaxRequestIDLength]
		}
		span.SetAttributes(attribute.String("request_id", requestID))
	}
	if actor := GetActor(c); actor != nil {
		span.SetAttributes(
			attribute.String("user_id", actor.UserID().String()),
			attribute.String("role", actor.Role().String()),
		)
	}
}

func markSpanStatus(span trace.Span, status int) {
	if status < http.StatusBadRequest {
		return
	}
	span.SetAttributes(attribute.Int("http.status_code", status))
	span.SetStatus(codes.Error, http.StatusText(status))
}
