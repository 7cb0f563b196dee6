package worker

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/habiliai/agentrouter/config"
	"github.com/habiliai/agentrouter/entity"
	"github.com/habiliai/agentrouter/errors"
	"github.com/habiliai/agentrouter/internal/mylog"
	"github.com/habiliai/agentrouter/skill"
	"github.com/samber/lo"
)

const (
	DefaultQuestion = "Which company should I analyze? Please give its ticker symbol, for example AAPL."

	MethodGetTask = "tasks/get"
)

type (
	// Runner is the data-fetch capability behind a worker.
	Runner interface {
		Run(ctx context.Context, ticker string) (string, bool)
	}

	// Worker answers A2A `message/send` calls for one statement kind.
	Worker struct {
		card     entity.AgentCard
		runner   Runner
		label    string
		question string
		logger   *slog.Logger

		tasks *taskStore

		// one in-flight message per task id
		locksMtx  sync.Mutex
		taskLocks map[string]*taskLock
	}

	taskLock struct {
		mtx  sync.Mutex
		refs int
	}

	GetTaskParams struct {
		ID            string `json:"id"`
		HistoryLength *int   `json:"historyLength,omitempty"`
	}
)

func New(conf *config.AgentConfig, s *skill.Skill, logger *slog.Logger) *Worker {
	card := entity.AgentCard{
		Name:               conf.Name,
		Description:        conf.Description,
		URL:                conf.URL,
		Version:            conf.Version,
		Capabilities:       entity.AgentCapabilities{},
		DefaultInputModes:  []string{"text"},
		DefaultOutputModes: []string{"text"},
		Skills: []entity.AgentSkill{{
			ID:          string(s.Statement),
			Name:        s.Name,
			Description: s.Description,
			Tags:        conf.Tags,
			Examples:    conf.Examples,
		}},
	}
	return NewWithRunner(card, s, s.Name, logger)
}

// NewWithRunner builds a worker around any Runner. label names the data in
// status messages.
func NewWithRunner(card entity.AgentCard, runner Runner, label string, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = mylog.Discard()
	}
	return &Worker{
		card:     card,
		runner:   runner,
		label:    label,
		question: DefaultQuestion,
		logger:   logger.With("agent", card.Name),
		tasks:    newTaskStore(),

		taskLocks: make(map[string]*taskLock),
	}
}

func (w *Worker) Card() entity.AgentCard {
	return w.card
}

// lockTask serializes messages for one task. The lock is dropped once
// nobody holds or waits for it.
func (w *Worker) lockTask(id string) func() {
	w.locksMtx.Lock()
	l, ok := w.taskLocks[id]
	if !ok {
		l = &taskLock{}
		w.taskLocks[id] = l
	}
	l.refs++
	w.locksMtx.Unlock()

	l.mtx.Lock()
	return func() {
		l.mtx.Unlock()

		w.locksMtx.Lock()
		defer w.locksMtx.Unlock()
		l.refs--
		if l.refs == 0 {
			delete(w.taskLocks, id)
		}
	}
}

// SendMessage starts a new task, or continues the task named by the
// message's taskId when that task is waiting for input.
func (w *Worker) SendMessage(ctx context.Context, params *entity.MessageSendParams) (*entity.Task, error) {
	msg := params.Message
	text := strings.Join(lo.FilterMap(msg.Parts, func(p entity.Part, _ int) (string, bool) {
		return p.Text, p.IsText() && p.Text != ""
	}), "\n")
	if text == "" {
		return nil, errors.Wrapf(errors.ErrInvalidParams, "message has no text part")
	}

	var task entity.Task
	if msg.TaskID != "" {
		unlock := w.lockTask(msg.TaskID)
		defer unlock()

		var err error
		if task, err = w.tasks.get(msg.TaskID); err != nil {
			return nil, err
		}
		if task.Status.State != entity.TaskStateInputRequired {
			return nil, errors.Wrapf(errors.ErrInvalidRequest, "task %s is %s and cannot take more input", task.ID, task.Status.State)
		}
		if msg.ContextID != "" && msg.ContextID != task.ContextID {
			return nil, errors.Wrapf(errors.ErrInvalidParams, "task %s belongs to another context", task.ID)
		}
	} else {
		task = entity.Task{
			ID:        uuid.NewString(),
			ContextID: lo.Ternary(msg.ContextID != "", msg.ContextID, uuid.NewString()),
			Kind:      entity.KindTask,
		}
	}

	msg.TaskID = task.ID
	msg.ContextID = task.ContextID
	msg.Kind = entity.KindMessage
	task.History = append(task.History, msg)

	w.logger.Info("task received", "task_id", task.ID, "context_id", task.ContextID)

	ticker, ok := ExtractTicker(text)
	switch {
	case !ok:
		task.Status = w.status(entity.TaskStateInputRequired, task, w.question)
	default:
		data, found := w.runner.Run(ctx, ticker)
		if !found {
			task.Status = w.status(entity.TaskStateFailed, task,
				fmt.Sprintf("Unable to retrieve %s data for %s right now. Please try again later.", strings.ToLower(w.label), ticker))
			break
		}
		task.Status = w.status(entity.TaskStateCompleted, task, "")
		task.Artifacts = []entity.Artifact{{
			ArtifactID:  uuid.NewString(),
			Name:        fmt.Sprintf("%s %s", ticker, strings.ToLower(w.label)),
			Description: fmt.Sprintf("%s data for %s", w.label, ticker),
			Parts:       []entity.Part{entity.NewTextPart(data)},
		}}
	}

	w.tasks.put(task)
	w.logger.Info("task updated", "task_id", task.ID, "state", task.Status.State)

	return &task, nil
}

func (w *Worker) GetTask(_ context.Context, params *GetTaskParams) (*entity.Task, error) {
	if params.ID == "" {
		return nil, errors.Wrapf(errors.ErrInvalidParams, "task id is required")
	}
	task, err := w.tasks.get(params.ID)
	if err != nil {
		return nil, err
	}
	if params.HistoryLength != nil && *params.HistoryLength >= 0 && len(task.History) > *params.HistoryLength {
		task.History = task.History[len(task.History)-*params.HistoryLength:]
	}
	return &task, nil
}

func (w *Worker) status(state entity.TaskState, task entity.Task, text string) *entity.TaskStatus {
	status := &entity.TaskStatus{
		State:     state,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if text != "" {
		status.Message = &entity.Message{
			Role:      entity.RoleAgent,
			Parts:     []entity.Part{entity.NewTextPart(text)},
			MessageID: uuid.NewString(),
			TaskID:    task.ID,
			ContextID: task.ContextID,
			Kind:      entity.KindMessage,
		}
	}
	return status
}
