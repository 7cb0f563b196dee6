package mytesting

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/habiliai/agentrouter/config"
	"github.com/habiliai/agentrouter/entity"
)

type (
	// RPCRequest is what a FakeAgent decoded from one JSON-RPC call.
	RPCRequest struct {
		ID     any                      `json:"id"`
		Method string                   `json:"method"`
		Params entity.MessageSendParams `json:"params"`
	}

	// RespondFunc returns the HTTP status and the JSON body for one call.
	RespondFunc func(req *RPCRequest) (int, any)

	// FakeAgent is an httptest server that speaks just enough A2A for the
	// router: it serves a card and answers JSON-RPC calls on "/".
	FakeAgent struct {
		*httptest.Server

		Card entity.AgentCard

		mtx      sync.Mutex
		respond  RespondFunc
		requests []RPCRequest
	}
)

func NewFakeAgent(name, description string, respond RespondFunc) *FakeAgent {
	a := &FakeAgent{
		Card: entity.AgentCard{
			Name:               name,
			Description:        description,
			Version:            "1.0.0",
			DefaultInputModes:  []string{"text"},
			DefaultOutputModes: []string{"text"},
		},
		respond: respond,
	}

	mux := http.NewServeMux()
	mux.HandleFunc(config.DefaultAgentCardPath, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, a.Card)
	})
	mux.HandleFunc("/", a.serveRPC)

	a.Server = httptest.NewServer(mux)
	a.Card.URL = a.Server.URL
	return a
}

func (a *FakeAgent) serveRPC(w http.ResponseWriter, r *http.Request) {
	var req RPCRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusOK, ErrorEnvelope(nil, -32700, "parse error"))
		return
	}

	a.mtx.Lock()
	a.requests = append(a.requests, req)
	respond := a.respond
	a.mtx.Unlock()

	if respond == nil {
		writeJSON(w, http.StatusOK, ErrorEnvelope(req.ID, -32601, "method not found"))
		return
	}
	status, body := respond(&req)
	if raw, ok := body.(string); ok {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(raw))
		return
	}
	writeJSON(w, status, body)
}

func (a *FakeAgent) SetRespond(respond RespondFunc) {
	a.mtx.Lock()
	defer a.mtx.Unlock()
	a.respond = respond
}

func (a *FakeAgent) Requests() []RPCRequest {
	a.mtx.Lock()
	defer a.mtx.Unlock()
	return append([]RPCRequest(nil), a.requests...)
}

func (a *FakeAgent) LastRequest() *RPCRequest {
	a.mtx.Lock()
	defer a.mtx.Unlock()
	if len(a.requests) == 0 {
		return nil
	}
	req := a.requests[len(a.requests)-1]
	return &req
}

func ResultEnvelope(id any, result any) map[string]any {
	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"result":  result,
	}
}

func ErrorEnvelope(id any, code int, message string) map[string]any {
	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	}
}

// RespondTask answers every call with task.
func RespondTask(task *entity.Task) RespondFunc {
	return func(req *RPCRequest) (int, any) {
		return http.StatusOK, ResultEnvelope(req.ID, task)
	}
}

func TaskWithState(id, contextID string, state entity.TaskState) *entity.Task {
	return &entity.Task{
		ID:        id,
		ContextID: contextID,
		Kind:      entity.KindTask,
		Status:    &entity.TaskStatus{State: state},
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
