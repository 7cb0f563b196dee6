package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/habiliai/agentrouter"
	"github.com/habiliai/agentrouter/entity"
	"github.com/habiliai/agentrouter/errors"
	"github.com/habiliai/agentrouter/internal/mylog"
	"github.com/spf13/cobra"
)

type (
	sendMessageBody struct {
		AgentName string         `json:"agent_name"`
		Task      string         `json:"task"`
		Metadata  map[string]any `json:"metadata,omitempty"`
	}

	sendMessageReply struct {
		Outcome     *entity.TaskOutcome `json:"outcome"`
		Description string              `json:"description,omitempty"`
	}

	sessionReply struct {
		SessionKey    string  `json:"session_key"`
		SessionID     string  `json:"session_id,omitempty"`
		SessionActive bool    `json:"session_active"`
		ActiveAgent   string  `json:"active_agent"`
		TaskID        *string `json:"task_id"`
		ContextID     *string `json:"context_id"`
	}
)

func newServeCmd(flags *rootFlags) *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the router HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			router, conf, logger, err := newRouter(ctx, flags)
			if err != nil {
				return err
			}
			defer router.Close()

			if port > 0 {
				conf.Port = port
			}

			server := &http.Server{
				Addr:    fmt.Sprintf("%s:%d", conf.Host, conf.Port),
				Handler: newServerHandler(router, logger),
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

			logger.Info("server started", "addr", server.Addr, "agents", len(router.ListAgents()))
			defer logger.Info("server stopped")

			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "port to listen on; overrides PORT")

	return cmd
}

func newServerHandler(router *agentrouter.Router, logger *slog.Logger) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			logger.Warn("failed to write health response", mylog.Err(err))
		}
	}).Methods("GET")

	r.HandleFunc("/agents", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, logger, http.StatusOK, router.ListAgents())
	}).Methods("GET")

	r.HandleFunc("/agents/summary", func(w http.ResponseWriter, req *http.Request) {
		summary, err := router.Summary()
		if err != nil {
			writeError(w, logger, err)
			return
		}
		w.Header().Set("Content-Type", "application/x-ndjson")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(summary)); err != nil {
			logger.Warn("failed to write summary", mylog.Err(err))
		}
	}).Methods("GET")

	r.HandleFunc("/agents/refresh", func(w http.ResponseWriter, req *http.Request) {
		if err := router.Rebuild(req.Context()); err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, router.ListAgents())
	}).Methods("POST")

	r.HandleFunc("/sessions/{key}/messages", func(w http.ResponseWriter, req *http.Request) {
		var body sendMessageBody
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeError(w, logger, errors.Wrapf(errors.ErrInvalidRequest, "invalid body: %v", err))
			return
		}
		if body.AgentName == "" || body.Task == "" {
			writeError(w, logger, errors.Wrapf(errors.ErrInvalidRequest, "agent_name and task are required"))
			return
		}

		outcome, err := router.SendMessage(req.Context(), agentrouter.SendMessageRequest{
			SessionKey: mux.Vars(req)["key"],
			AgentName:  body.AgentName,
			Task:       body.Task,
			Metadata:   body.Metadata,
		})
		if err != nil {
			writeError(w, logger, err)
			return
		}

		reply := sendMessageReply{Outcome: outcome}
		if outcome != nil {
			reply.Description = outcome.Describe(body.AgentName)
		}
		writeJSON(w, logger, http.StatusOK, reply)
	}).Methods("POST")

	r.HandleFunc("/sessions/{key}", func(w http.ResponseWriter, req *http.Request) {
		state, err := router.Session(req.Context(), mux.Vars(req)["key"])
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, sessionReply{
			SessionKey:    state.SessionKey,
			SessionID:     state.SessionID,
			SessionActive: state.SessionActive,
			ActiveAgent:   state.ActiveAgentLabel(),
			TaskID:        state.TaskID,
			ContextID:     state.ContextID,
		})
	}).Methods("GET")

	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{"GET", "POST", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)
	recovery := handlers.RecoveryHandler(handlers.PrintRecoveryStack(true), handlers.RecoveryLogger(slog.NewLogLogger(logger.Handler(), slog.LevelError)))

	handler := http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithCancel(req.Context())
		defer cancel()

		r.ServeHTTP(w, req.WithContext(ctx))
	})

	return cors(recovery(handler))
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, errors.ErrUnknownAgent):
		return http.StatusNotFound
	case errors.Is(err, errors.ErrConnectionUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, errors.ErrDispatchFailed):
		return http.StatusBadGateway
	case errors.Is(err, errors.ErrInvalidRequest), errors.Is(err, errors.ErrInvalidParams):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "status", status, mylog.Err(err))
	}
	writeJSON(w, logger, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("failed to write response", mylog.Err(err))
	}
}
