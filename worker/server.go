package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/habiliai/agentrouter/config"
	"github.com/habiliai/agentrouter/errors"
	"github.com/habiliai/agentrouter/internal/mylog"
	"github.com/habiliai/agentrouter/jsonrpc"
)

// NewHandler exposes w over HTTP: the card at cardPath, JSON-RPC on "/" and
// a health probe.
func NewHandler(w *Worker, cardPath string, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = mylog.Discard()
	}
	if cardPath == "" {
		cardPath = config.DefaultAgentCardPath
	}

	rpc := jsonrpc.NewServer(logger)
	if err := rpc.Register(NewA2AService(w), "A2A", A2AMethods); err != nil {
		panic(err)
	}

	router := mux.NewRouter()
	router.HandleFunc(cardPath, func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(rw).Encode(w.Card()); err != nil {
			logger.Warn("failed to write agent card", mylog.Err(err))
		}
	}).Methods(http.MethodGet)
	router.HandleFunc("/health", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(http.StatusOK)
		if _, err := rw.Write([]byte("OK")); err != nil {
			logger.Warn("failed to write health response", mylog.Err(err))
		}
	}).Methods(http.MethodGet)
	router.Handle("/", jsonrpc.NewHandler(logger, rpc)).Methods(http.MethodPost)

	return router
}

// Serve runs the worker until ctx is done.
func Serve(ctx context.Context, conf *config.AgentConfig, w *Worker, logger *slog.Logger) error {
	if logger == nil {
		logger = mylog.Discard()
	}

	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", conf.Host, conf.Port),
		Handler: NewHandler(w, config.DefaultAgentCardPath, logger),
		BaseContext: func(l net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		<-ctx.Done()
		if err := server.Shutdown(context.WithoutCancel(ctx)); err != nil {
			logger.Error("failed to shutdown server", mylog.Err(err))
		}
	}()

	logger.Info("agent started", "name", conf.Name, "addr", server.Addr, "url", conf.URL)
	defer logger.Info("agent stopped", "name", conf.Name)

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrapf(err, "failed to serve %s", conf.Name)
	}
	return nil
}
