package ctxutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func TestRequestDataRoundTrip(t *testing.T) {
	id := uuid.New()
	ctx := WithRequestData(context.Background(), &RequestData{AccountID: id, Role: "admin"})

	rd := GetRequestData(ctx)
	if rd == nil {
		t.Fatalf("expected request data")
	}
	if rd.AccountID != id {
		t.Fatalf("account id mismatch: %s vs %s", rd.AccountID, id)
	}
	if !rd.IsAdmin() {
		t.Fatalf("expected admin")
	}
}

func TestGetRequestDataMissing(t *testing.T) {
	if rd := GetRequestData(context.Background()); rd != nil {
		t.Fatalf("expected nil, got %+v", rd)
	}
	if (*RequestData)(nil).IsAdmin() {
		t.Fatalf("nil request data must not be admin")
	}
}

func TestTraceData(t *testing.T) {
	//nolint:staticcheck // nil context is tolerated by Default
	ctx := WithTraceData(Default(nil), &TraceData{TraceID: "t", RequestID: "r"})
	td := GetTraceData(ctx)
	if td == nil || td.TraceID != "t" || td.RequestID != "r" {
		t.Fatalf("unexpected trace data: %+v", td)
	}
}

func TestLogFields(t *testing.T) {
	if got := LogFields(context.Background()); len(got) != 0 {
		t.Fatalf("expected no fields, got %v", got)
	}
	id := uuid.New()
	ctx := WithTraceData(context.Background(), &TraceData{TraceID: "t1", RequestID: "r1"})
	ctx = WithRequestData(ctx, &RequestData{AccountID: id})
	got := LogFields(ctx)
	want := []interface{}{"trace_id", "t1", "request_id", "r1", "account_id", id.String()}
	if len(got) != len(want) {
		t.Fatalf("LogFields = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("LogFields[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}
