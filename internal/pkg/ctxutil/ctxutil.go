// Package ctxutil carries per-request caller and trace data on a context.
package ctxutil

import (
	"context"

	"github.com/google/uuid"
)

type (
	requestDataKey struct{}
	traceDataKey   struct{}
)

// RequestData is what the auth middleware learned about the caller.
type RequestData struct {
	IDToken      string
	RefreshToken string
	AccountID    uuid.UUID
	Email        string
	Role         string
}

func (rd *RequestData) IsAdmin() bool {
	return rd != nil && rd.Role == "admin"
}

type TraceData struct {
	TraceID   string
	RequestID string
}

// Default returns context.Background() when ctx is nil.
func Default(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
	return context.WithValue(Default(ctx), requestDataKey{}, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
	if rd, ok := Default(ctx).Value(requestDataKey{}).(*RequestData); ok {
		return rd
	}
	return nil
}

func WithTraceData(ctx context.Context, td *TraceData) context.Context {
	return context.WithValue(Default(ctx), traceDataKey{}, td)
}

func GetTraceData(ctx context.Context) *TraceData {
	if td, ok := Default(ctx).Value(traceDataKey{}).(*TraceData); ok {
		return td
	}
	return nil
}

// LogFields returns the trace, request and account ids present on ctx as
// logger key/value pairs. account_id is hashed by the logger.
func LogFields(ctx context.Context) []interface{} {
	var out []interface{}
	if td := GetTraceData(ctx); td != nil {
		if td.TraceID != "" {
			out = append(out, "trace_id", td.TraceID)
		}
		if td.RequestID != "" {
			out = append(out, "request_id", td.RequestID)
		}
	}
	if rd := GetRequestData(ctx); rd != nil && rd.AccountID != uuid.Nil {
		out = append(out, "account_id", rd.AccountID.String())
	}
	return out
}
