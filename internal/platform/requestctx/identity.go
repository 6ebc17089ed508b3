// Package requestctx carries the authenticated caller identity through a
// request's context so handler signatures stay narrow.
package requestctx

import "context"

type accountIDKey struct{}

// WithAccountID returns a context carrying the session's account id.
func WithAccountID(ctx context.Context, accountID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, accountIDKey{}, accountID)
}

// AccountID returns the account id carried by ctx. It is empty when the
// request opened no session.
func AccountID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	accountID, _ := ctx.Value(accountIDKey{}).(string)
	return accountID
}
