package dispatcher

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/habiliai/agentrouter/entity"
	"github.com/habiliai/agentrouter/errors"
	"github.com/habiliai/agentrouter/internal/mylog"
	"github.com/habiliai/agentrouter/network"
	"github.com/mitchellh/mapstructure"
	"github.com/ybbus/jsonrpc/v3"
)

type (
	// Directory is the part of network.Directory the dispatcher reads.
	Directory interface {
		Connection(name string) (network.Connection, error)
	}

	Dispatcher struct {
		directory Directory
		logger    *slog.Logger
	}

	inputMetadata struct {
		MessageID string `mapstructure:"message_id"`
	}
)

func New(directory Directory, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = mylog.Discard()
	}
	return &Dispatcher{
		directory: directory,
		logger:    logger,
	}
}

// Send delegates task to agentName and folds the reply into state.
//
// A nil outcome with a nil error means the agent answered with something
// other than a task; state is left as it was apart from the active agent.
func (d *Dispatcher) Send(ctx context.Context, agentName, task string, state *entity.SessionState) (*entity.TaskOutcome, error) {
	conn, err := d.directory.Connection(agentName)
	if errors.Is(err, errors.ErrUnknownAgent) {
		return nil, err
	}

	if prev := state.ActiveAgentName(); prev != "" && prev != agentName {
		d.logger.Debug("agent switched, starting a new context", "from", prev, "to", agentName)
		state.ClearTaskContext()
	}
	state.SetActiveAgent(agentName)

	if err != nil {
		return nil, err
	}

	params := d.buildParams(task, state)
	d.logger.Debug("send task",
		"agent", agentName,
		"message_id", params.Message.MessageID,
		"task_id", params.Message.TaskID,
		"context_id", params.Message.ContextID,
	)

	resp, err := conn.SendMessage(ctx, params)
	if err != nil {
		var httpErr *jsonrpc.HTTPError
		if resp != nil && errors.As(err, &httpErr) {
			d.logger.Warn("received non-success response, dropping reply",
				"agent", agentName, "status", httpErr.Code, mylog.Err(err))
			return nil, nil
		}
		return nil, errors.Wrapf(errors.ErrDispatchFailed, "failed to send task to %s: %v", agentName, err)
	}

	remote, err := parseTask(resp)
	if err != nil {
		d.logger.Warn("dropping reply", "agent", agentName, mylog.Err(err))
		return nil, nil
	}

	d.logger.Debug("received task",
		"agent", agentName,
		"task_id", remote.ID,
		"context_id", remote.ContextID,
		"state", remote.Status.State,
	)

	switch remote.Status.State {
	case entity.TaskStateInputRequired:
		state.SetTask(remote.ID, remote.ContextID)

		question, ok := remote.StatusText()
		if !ok {
			question = entity.DefaultInputQuestion
		}
		return entity.NeedsInput(question), nil
	case entity.TaskStateCompleted:
		state.TaskID = nil
		state.ContextID = &remote.ContextID

		result, _ := remote.ResultText()
		return entity.Completed(result), nil
	default:
		state.SetTask(remote.ID, remote.ContextID)
		return entity.InProgress(string(remote.Status.State)), nil
	}
}

func (d *Dispatcher) buildParams(task string, state *entity.SessionState) *entity.MessageSendParams {
	msg := entity.Message{
		Role:      entity.RoleUser,
		Parts:     []entity.Part{entity.NewTextPart(task)},
		MessageID: d.messageID(state),
	}
	if state.TaskID != nil {
		msg.TaskID = *state.TaskID
	}
	if state.ContextID != nil && *state.ContextID != "" {
		msg.ContextID = *state.ContextID
	} else {
		msg.ContextID = uuid.NewString()
	}

	return &entity.MessageSendParams{Message: msg}
}

func (d *Dispatcher) messageID(state *entity.SessionState) string {
	if len(state.InputMessageMetadata) > 0 {
		var meta inputMetadata
		if err := mapstructure.WeakDecode(map[string]any(state.InputMessageMetadata), &meta); err != nil {
			d.logger.Warn("ignoring unreadable input message metadata", mylog.Err(err))
		} else if meta.MessageID != "" {
			return meta.MessageID
		}
	}
	return uuid.NewString()
}

func parseTask(resp *jsonrpc.RPCResponse) (*entity.Task, error) {
	if resp.Error != nil {
		return nil, errors.Wrapf(errors.ErrMalformedResponse, "non-success response: %v", resp.Error)
	}

	var task entity.Task
	if err := resp.GetObject(&task); err != nil {
		return nil, errors.Wrapf(errors.ErrMalformedResponse, "result is not a task: %v", err)
	}
	if !task.IsWellFormed() {
		return nil, errors.Wrapf(errors.ErrMalformedResponse, "result is not a task")
	}

	return &task, nil
}
