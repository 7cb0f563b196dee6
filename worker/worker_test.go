package worker_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/habiliai/agentrouter/config"
	"github.com/habiliai/agentrouter/dispatcher"
	"github.com/habiliai/agentrouter/entity"
	"github.com/habiliai/agentrouter/internal/mytesting"
	"github.com/habiliai/agentrouter/jsonrpc"
	"github.com/habiliai/agentrouter/network"
	"github.com/habiliai/agentrouter/skill"
	"github.com/habiliai/agentrouter/worker"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	ybbus "github.com/ybbus/jsonrpc/v3"
)

type (
	fakeRunner struct {
		mtx     sync.Mutex
		data    map[string]string
		tickers []string
	}

	WorkerTestSuite struct {
		mytesting.Suite

		runner *fakeRunner
		server *httptest.Server
		client ybbus.RPCClient
	}
)

func (r *fakeRunner) Run(_ context.Context, ticker string) (string, bool) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	r.tickers = append(r.tickers, ticker)
	data, ok := r.data[ticker]
	return data, ok
}

func (s *WorkerTestSuite) SetupTest() {
	s.Suite.SetupTest()

	s.runner = &fakeRunner{data: map[string]string{"AAPL": `[{"symbol":"AAPL"}]`}}
	w := worker.NewWithRunner(entity.AgentCard{
		Name:        "Balance_Sheet_Agent",
		Description: "Balance sheet analysis",
		Version:     "1.0.0",
	}, s.runner, "Balance sheet", s.Logger)

	s.server = httptest.NewServer(worker.NewHandler(w, config.DefaultAgentCardPath, s.Logger))
	s.client = ybbus.NewClientWithOpts(s.server.URL, &ybbus.RPCClientOpts{
		HTTPClient:         s.server.Client(),
		AllowUnknownFields: true,
	})
}

func (s *WorkerTestSuite) TearDownTest() {
	s.server.Close()
	s.Suite.TearDownTest()
}

func (s *WorkerTestSuite) send(text, taskID, contextID string) (*entity.Task, *ybbus.RPCError) {
	resp, err := s.client.Call(s, entity.MethodSendMessage, &entity.MessageSendParams{
		Message: entity.Message{
			Role:      entity.RoleUser,
			Parts:     []entity.Part{entity.NewTextPart(text)},
			MessageID: "m1",
			TaskID:    taskID,
			ContextID: contextID,
		},
	})
	s.Require().NoError(err)
	if resp.Error != nil {
		return nil, resp.Error
	}

	var task entity.Task
	s.Require().NoError(resp.GetObject(&task))
	return &task, nil
}

func (s *WorkerTestSuite) TestCard() {
	resp, err := s.server.Client().Get(s.server.URL + config.DefaultAgentCardPath)
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)

	resolver := network.NewCardResolver(s.server.Client(), "", 0)
	card, err := resolver.Resolve(s, s.server.URL)
	s.Require().NoError(err)
	s.Equal("Balance_Sheet_Agent", card.Name)
	s.Equal("Balance sheet analysis", card.Description)
}

func (s *WorkerTestSuite) TestHealth() {
	resp, err := s.server.Client().Get(s.server.URL + "/health")
	s.Require().NoError(err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Equal("OK", string(body))
}

func (s *WorkerTestSuite) TestCompletedWithTicker() {
	task, rpcErr := s.send("Analyze the balance sheet of AAPL", "", "ctx-1")
	s.Require().Nil(rpcErr)

	s.True(task.IsWellFormed())
	s.Equal("ctx-1", task.ContextID)
	s.Equal(entity.TaskStateCompleted, task.Status.State)
	text, ok := task.ResultText()
	s.True(ok)
	s.Equal(`[{"symbol":"AAPL"}]`, text)
}

func (s *WorkerTestSuite) TestInputRequiredThenResume() {
	task, rpcErr := s.send("Analyze the balance sheet", "", "")
	s.Require().Nil(rpcErr)
	s.Equal(entity.TaskStateInputRequired, task.Status.State)
	s.NotEmpty(task.ContextID)
	question, ok := task.StatusText()
	s.True(ok)
	s.Equal(worker.DefaultQuestion, question)

	resumed, rpcErr := s.send("AAPL", task.ID, task.ContextID)
	s.Require().Nil(rpcErr)
	s.Equal(task.ID, resumed.ID)
	s.Equal(task.ContextID, resumed.ContextID)
	s.Equal(entity.TaskStateCompleted, resumed.Status.State)
	s.Len(resumed.History, 2)

	// a finished task does not take more input
	_, rpcErr = s.send("MSFT", task.ID, task.ContextID)
	s.Require().NotNil(rpcErr)
	s.Equal(jsonrpc.CodeInvalidRequest, rpcErr.Code)
}

func (s *WorkerTestSuite) TestUnknownTask() {
	_, rpcErr := s.send("AAPL", "missing", "")
	s.Require().NotNil(rpcErr)
	s.Equal(jsonrpc.CodeTaskNotFound, rpcErr.Code)
}

func (s *WorkerTestSuite) TestUpstreamFailure() {
	task, rpcErr := s.send("Analyze TSLA", "", "")
	s.Require().Nil(rpcErr)
	s.Equal(entity.TaskStateFailed, task.Status.State)
	text, ok := task.StatusText()
	s.True(ok)
	s.Contains(text, "TSLA")
	s.Empty(task.Artifacts)
}

func (s *WorkerTestSuite) TestEmptyMessageIsInvalidParams() {
	resp, err := s.client.Call(s, entity.MethodSendMessage, &entity.MessageSendParams{
		Message: entity.Message{Role: entity.RoleUser, MessageID: "m1"},
	})
	s.Require().NoError(err)
	s.Require().NotNil(resp.Error)
	s.Equal(jsonrpc.CodeInvalidParams, resp.Error.Code)
}

func (s *WorkerTestSuite) TestUnknownMethod() {
	resp, err := s.client.Call(s, "tasks/cancel", map[string]string{"id": "x"})
	s.Require().NoError(err)
	s.Require().NotNil(resp.Error)
	s.Equal(jsonrpc.CodeMethodNotFound, resp.Error.Code)
}

func (s *WorkerTestSuite) TestGetTask() {
	task, rpcErr := s.send("Analyze the balance sheet", "", "")
	s.Require().Nil(rpcErr)
	_, rpcErr = s.send("AAPL", task.ID, "")
	s.Require().Nil(rpcErr)

	var got entity.Task
	s.Require().NoError(s.client.CallFor(s, &got, worker.MethodGetTask, &worker.GetTaskParams{
		ID:            task.ID,
		HistoryLength: func() *int { n := 1; return &n }(),
	}))
	s.Equal(entity.TaskStateCompleted, got.Status.State)
	s.Require().Len(got.History, 1)
	s.Equal("AAPL", got.History[0].Parts[0].Text)
}

// The router side drives a worker through a clarification round trip.
func (s *WorkerTestSuite) TestDispatcherRoundTrip() {
	directory := network.NewDirectory(s.Logger, network.WithHTTPClient(s.server.Client()))
	s.Require().NoError(directory.Rebuild(s, []string{s.server.URL}))
	d := dispatcher.New(directory, s.Logger)
	state := entity.NewSessionState("s1")

	outcome, err := d.Send(s, "Balance_Sheet_Agent", "Analyze the balance sheet", state)
	s.Require().NoError(err)
	s.Equal(entity.NeedsInput(worker.DefaultQuestion), outcome)
	s.Require().NotNil(state.TaskID)
	contextID := *state.ContextID

	outcome, err = d.Send(s, "Balance_Sheet_Agent", "AAPL", state)
	s.Require().NoError(err)
	s.Equal(entity.Completed(`[{"symbol":"AAPL"}]`), outcome)
	s.Nil(state.TaskID)
	s.Equal(contextID, *state.ContextID)
}

func TestWorker(t *testing.T) {
	suite.Run(t, new(WorkerTestSuite))
}

func TestHandlerWithoutLogger(t *testing.T) {
	w := worker.NewWithRunner(entity.AgentCard{Name: "Alpha", Description: "Balance sheet analysis"},
		&fakeRunner{data: map[string]string{"AAPL": "data for AAPL"}}, "Balance sheet", nil)

	var handler http.Handler
	require.NotPanics(t, func() {
		handler = worker.NewHandler(w, "", nil)
	})
	server := httptest.NewServer(handler)
	defer server.Close()

	card, err := network.NewCardResolver(server.Client(), "", 0).Resolve(t.Context(), server.URL)
	require.NoError(t, err)
	require.Equal(t, "Alpha", card.Name)

	directory := network.NewDirectory(nil, network.WithHTTPClient(server.Client()))
	require.NoError(t, directory.Rebuild(t.Context(), []string{server.URL}))
	d := dispatcher.New(directory, nil)
	state := entity.NewSessionState("s1")

	outcome, err := d.Send(t.Context(), "Alpha", "Analyze the balance sheet", state)
	require.NoError(t, err)
	require.Equal(t, entity.NeedsInput(worker.DefaultQuestion), outcome)
	require.NotNil(t, state.TaskID)
	contextID := *state.ContextID

	outcome, err = d.Send(t.Context(), "Alpha", "AAPL", state)
	require.NoError(t, err)
	require.Equal(t, entity.Completed("data for AAPL"), outcome)
	require.Nil(t, state.TaskID)
	require.Equal(t, contextID, *state.ContextID)
}

func TestNewFromConfig(t *testing.T) {
	conf, err := config.LoadAgentFromFile("../config/testdata/balance_sheet.agent.yaml")
	require.NoError(t, err)

	s, err := skill.New(skill.Statement(conf.Skill), skill.NewClient(config.NewFMPConfig(), nil), nil)
	require.NoError(t, err)

	card := worker.New(&conf, s, nil).Card()
	require.Equal(t, "Balance_Sheet_Agent", card.Name)
	require.Equal(t, "http://localhost:10001", card.URL)
	require.Len(t, card.Skills, 1)
	require.Equal(t, "balance_sheet", card.Skills[0].ID)
	require.Equal(t, []string{"Analyze the balance sheet of AAPL"}, card.Skills[0].Examples)
}
