package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/habiliai/agentrouter"
	"github.com/habiliai/agentrouter/entity"
	"github.com/habiliai/agentrouter/internal/mytesting"
	"github.com/habiliai/agentrouter/network"
	"github.com/stretchr/testify/suite"
)

type ServerTestSuite struct {
	mytesting.Suite

	alpha   *mytesting.FakeAgent
	router  *agentrouter.Router
	handler http.Handler
}

func (s *ServerTestSuite) SetupTest() {
	s.Suite.SetupTest()

	s.alpha = mytesting.NewFakeAgent("Alpha", "Balance sheet analysis", func(req *mytesting.RPCRequest) (int, any) {
		task := mytesting.TaskWithState("T1", req.Params.Message.ContextID, entity.TaskStateCompleted)
		task.Artifacts = []entity.Artifact{{Parts: []entity.Part{entity.NewTextPart("Q1 revenue up 5%")}}}
		return http.StatusOK, mytesting.ResultEnvelope(req.ID, task)
	})

	var err error
	s.router, err = agentrouter.NewRouter(s,
		agentrouter.WithLogger(s.Logger),
		agentrouter.WithAddresses(s.alpha.URL),
	)
	s.Require().NoError(err)
	s.handler = newServerHandler(s.router, s.Logger)
}

func (s *ServerTestSuite) TearDownTest() {
	s.Require().NoError(s.router.Close())
	s.alpha.Close()
	s.Suite.TearDownTest()
}

func (s *ServerTestSuite) do(method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequestWithContext(s, method, path, &buf)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *ServerTestSuite) TestHealth() {
	rec := s.do(http.MethodGet, "/health", nil)
	s.Equal(http.StatusOK, rec.Code)
	s.Equal("OK", rec.Body.String())
}

func (s *ServerTestSuite) TestListAgents() {
	rec := s.do(http.MethodGet, "/agents", nil)
	s.Require().Equal(http.StatusOK, rec.Code)

	var agents []network.AgentInfo
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &agents))
	s.Equal([]network.AgentInfo{{Name: "Alpha", Description: "Balance sheet analysis"}}, agents)

	rec = s.do(http.MethodGet, "/agents/summary", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal(`{"name":"Alpha","description":"Balance sheet analysis"}`, rec.Body.String())

	rec = s.do(http.MethodPost, "/agents/refresh", nil)
	s.Equal(http.StatusOK, rec.Code)
}

func (s *ServerTestSuite) TestSendMessage() {
	rec := s.do(http.MethodPost, "/sessions/s1/messages", sendMessageBody{
		AgentName: "Alpha",
		Task:      "analyze Q1",
	})
	s.Require().Equal(http.StatusOK, rec.Code)

	var reply sendMessageReply
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &reply))
	s.Require().NotNil(reply.Outcome)
	s.Equal(entity.Completed("Q1 revenue up 5%"), reply.Outcome)
	s.Equal("Response from Alpha: Q1 revenue up 5%", reply.Description)

	rec = s.do(http.MethodGet, "/sessions/s1", nil)
	s.Require().Equal(http.StatusOK, rec.Code)

	var state sessionReply
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &state))
	s.Equal("s1", state.SessionKey)
	s.True(state.SessionActive)
	s.Equal("Alpha", state.ActiveAgent)
	s.Nil(state.TaskID)
	s.Require().NotNil(state.ContextID)
}

func (s *ServerTestSuite) TestSendMessageDroppedReply() {
	s.alpha.SetRespond(func(req *mytesting.RPCRequest) (int, any) {
		return http.StatusOK, mytesting.ErrorEnvelope(req.ID, -32603, "boom")
	})

	rec := s.do(http.MethodPost, "/sessions/s1/messages", sendMessageBody{AgentName: "Alpha", Task: "x"})
	s.Require().Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"outcome":null}`, rec.Body.String())
}

func (s *ServerTestSuite) TestSendMessageErrors() {
	rec := s.do(http.MethodPost, "/sessions/s1/messages", sendMessageBody{AgentName: "Gamma", Task: "x"})
	s.Equal(http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodPost, "/sessions/s1/messages", sendMessageBody{AgentName: "Alpha"})
	s.Equal(http.StatusBadRequest, rec.Code)

	req := httptest.NewRequestWithContext(s, http.MethodPost, "/sessions/s1/messages", bytes.NewBufferString("{"))
	raw := httptest.NewRecorder()
	s.handler.ServeHTTP(raw, req)
	s.Equal(http.StatusBadRequest, raw.Code)

	s.alpha.SetRespond(func(req *mytesting.RPCRequest) (int, any) {
		return http.StatusOK, "not json"
	})
	rec = s.do(http.MethodPost, "/sessions/s1/messages", sendMessageBody{AgentName: "Alpha", Task: "x"})
	s.Equal(http.StatusBadGateway, rec.Code)
}

func (s *ServerTestSuite) TestUnknownSession() {
	rec := s.do(http.MethodGet, "/sessions/nobody", nil)
	s.Require().Equal(http.StatusOK, rec.Code)

	var state sessionReply
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &state))
	s.False(state.SessionActive)
	s.Equal(entity.NoActiveAgent, state.ActiveAgent)
}

func TestServer(t *testing.T) {
	suite.Run(t, new(ServerTestSuite))
}
