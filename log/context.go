package log

import (
	"context"

	"github.com/google/uuid"
)

type correlationIdType int

const (
	RequestIdKey correlationIdType = iota
	RequestFieldsKey
)

// WithRequestId returns a context which knows its request ID.
// A request ID tracks the lifecycle of a single reconciliation run across
// all the rounds it takes, so every round's log line can be correlated
// back to the run that produced it.
// This requires a requestId string, and optionally, other LoggableFields that are added to
// context and printed in contextual logs.
func WithRequestId(ctx context.Context, requestId string, fields ...LoggableField) context.Context {
	ctx = context.WithValue(ctx, RequestIdKey, requestId)
	if len(fields) > 0 {
		ctx = context.WithValue(ctx, RequestFieldsKey, fields)
	}
	return ctx
}

// WithNewRequestId does the same thing as WithRequestId but generates a new, random requestId.
// It can be used when there isn't a single, clear, unique id associated with a request.
func WithNewRequestId(ctx context.Context, fields ...LoggableField) context.Context {
	return WithRequestId(ctx, uuid.NewString(), fields...)
}

// ExtractRequestId extracts the request id from a context object.
func ExtractRequestId(ctx context.Context) (string, bool) {
	if ctxRequestId, ok := ctx.Value(RequestIdKey).(string); ok {
		return ctxRequestId, true
	}
	return "", false
}

// ExtractRequestFields extracts the extra fields attached alongside a request id.
func ExtractRequestFields(ctx context.Context) (fields []LoggableField) {
	if requestFields, ok := ctx.Value(RequestFieldsKey).([]LoggableField); ok {
		fields = requestFields
	}
	return
}
