package jsonrpc

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/habiliai/agentrouter/internal/mylog"
)

func NewRecoveryHandler(logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = mylog.Discard()
	}
	return handlers.RecoveryHandler(
		handlers.RecoveryLogger(slog.NewLogLogger(logger.Handler(), slog.LevelError)),
		handlers.PrintRecoveryStack(true),
	)
}
