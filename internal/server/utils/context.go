package utils

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	SpanContextKey = "span_context"
	RequestIDKey   = "request_id"
)

// GetSpanFromGinContext extracts the span context from Gin context
func GetSpanFromGinContext(c *gin.Context) trace.Span {
	return trace.SpanFromContext(GetContextFromGinContext(c))
}

// GetContextFromGinContext returns the traced request context. Widget
// updates started from it are cancelled when the client goes away.
func GetContextFromGinContext(c *gin.Context) context.Context {
	if spanCtx, exists := c.Get(SpanContextKey); exists {
		if ctx, ok := spanCtx.(context.Context); ok {
			return ctx
		}
	}
	return c.Request.Context()
}

// GetRequestIDFromGinContext extracts request ID from Gin context
func GetRequestIDFromGinContext(c *gin.Context) string {
	return c.GetString(RequestIDKey)
}

// RequestLogger returns logger tagged with the request id and, on widget
// routes, the session id.
func RequestLogger(logger *zap.Logger, c *gin.Context) *zap.Logger {
	fields := []zap.Field{zap.String("request_id", GetRequestIDFromGinContext(c))}
	if id := c.Param("id"); id != "" {
		fields = append(fields, zap.String("session_id", id))
	}
	return logger.With(fields...)
}
