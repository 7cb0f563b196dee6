package worker

import (
	"net/http"

	"github.com/habiliai/agentrouter/entity"
)

// A2AService is the JSON-RPC face of a Worker.
type A2AService struct {
	worker *Worker
}

func NewA2AService(w *Worker) *A2AService {
	return &A2AService{worker: w}
}

// A2AMethods maps A2A wire methods to A2AService methods.
var A2AMethods = map[string]string{
	entity.MethodSendMessage: "SendMessage",
	MethodGetTask:            "GetTask",
}

func (s *A2AService) SendMessage(r *http.Request, args *entity.MessageSendParams, reply *entity.Task) error {
	task, err := s.worker.SendMessage(r.Context(), args)
	if err != nil {
		return err
	}
	*reply = *task
	return nil
}

func (s *A2AService) GetTask(r *http.Request, args *GetTaskParams, reply *entity.Task) error {
	task, err := s.worker.GetTask(r.Context(), args)
	if err != nil {
		return err
	}
	*reply = *task
	return nil
}
