package requestctx

import (
	"context"
	"testing"
)

func TestAccountIDRoundTrip(t *testing.T) {
	ctx := WithAccountID(context.Background(), "account-42")
	if got := AccountID(ctx); got != "account-42" {
		t.Fatalf("AccountID = %q, want %q", got, "account-42")
	}
}

func TestAccountIDWithoutSession(t *testing.T) {
	if got := AccountID(context.Background()); got != "" {
		t.Fatalf("expected empty id, got %q", got)
	}
	if got := AccountID(nil); got != "" {
		t.Fatalf("expected empty id for nil context, got %q", got)
	}
}

func TestWithAccountIDNilContext(t *testing.T) {
	ctx := WithAccountID(nil, "account-99")
	if ctx == nil {
		t.Fatal("expected non-nil context")
	}
	if got := AccountID(ctx); got != "account-99" {
		t.Fatalf("AccountID = %q, want %q", got, "account-99")
	}
}
