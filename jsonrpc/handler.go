package jsonrpc

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/habiliai/agentrouter/internal/mylog"
)

// NewHandler serves rpc with panic recovery. Each call gets its own
// cancelable context.
func NewHandler(logger *slog.Logger, rpc http.Handler) http.Handler {
	if logger == nil {
		logger = mylog.Discard()
	}

	return NewRecoveryHandler(logger)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithCancel(r.Context())
			defer cancel()

			ctx = context.WithValue(ctx, startTimeCtxKey, time.Now())
			rpc.ServeHTTP(w, r.WithContext(ctx))
		}),
	)
}
