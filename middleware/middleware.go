package middleware

import (
	"context"
	"net/http"

	"github.com/pborman/uuid"
)

// type to create context.Context key
type CtxTransactionKeyType string

// context.Context key to get the transaction ID from the request context
const CtxTransactionKey CtxTransactionKeyType = "ctxTransaction"

// NewTransactionID tags each request with a transaction ID. The ID ties the
// request log to change_log rows written while serving it.
func NewTransactionID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r = r.WithContext(context.WithValue(r.Context(), CtxTransactionKey, uuid.New()))
		next.ServeHTTP(w, r)
	})
}

// TransactionID returns the request's transaction ID, or the empty string
// outside a request context.
func TransactionID(ctx context.Context) string {
	id, _ := ctx.Value(CtxTransactionKey).(string)
	return id
}
