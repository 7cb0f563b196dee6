package network_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/habiliai/agentrouter/entity"
	"github.com/habiliai/agentrouter/errors"
	"github.com/habiliai/agentrouter/internal/mytesting"
	"github.com/habiliai/agentrouter/network"
	"github.com/stretchr/testify/suite"
)

type DirectoryTestSuite struct {
	mytesting.Suite

	alpha *mytesting.FakeAgent
	beta  *mytesting.FakeAgent
}

func (s *DirectoryTestSuite) SetupTest() {
	s.Suite.SetupTest()

	s.alpha = mytesting.NewFakeAgent("Alpha", "Balance sheet analysis", nil)
	s.beta = mytesting.NewFakeAgent("Beta", "Cash flow analysis", nil)
}

func (s *DirectoryTestSuite) TearDownTest() {
	s.alpha.Close()
	s.beta.Close()
	s.Suite.TearDownTest()
}

func (s *DirectoryTestSuite) TestBuildSkipsUnreachable() {
	down := httptest.NewServer(http.NotFoundHandler())
	down.Close()

	dir := network.NewDirectory(s.Logger, network.WithCardTimeout(2*time.Second))
	s.Require().NoError(dir.Rebuild(s, []string{s.alpha.URL, down.URL, s.beta.URL}))

	s.Equal([]network.AgentInfo{
		{Name: "Alpha", Description: "Balance sheet analysis"},
		{Name: "Beta", Description: "Cash flow analysis"},
	}, dir.ListAgents())
}

func (s *DirectoryTestSuite) TestBuildSkipsBadCards() {
	notFound := httptest.NewServer(http.NotFoundHandler())
	defer notFound.Close()
	garbage := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>not a card</html>"))
	}))
	defer garbage.Close()
	nameless := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"description":"no name"}`))
	}))
	defer nameless.Close()

	dir := network.NewDirectory(s.Logger)
	s.Require().NoError(dir.Rebuild(s, []string{notFound.URL, garbage.URL, nameless.URL, s.alpha.URL}))

	s.Equal(1, dir.Len())
	_, ok := dir.Card("Alpha")
	s.True(ok)
}

func (s *DirectoryTestSuite) TestEmptyDirectory() {
	dir := network.NewDirectory(s.Logger)
	s.Require().NoError(dir.Rebuild(s, nil))

	s.Empty(dir.ListAgents())
	_, err := dir.Connection("Alpha")
	s.ErrorIs(err, errors.ErrUnknownAgent)
}

func (s *DirectoryTestSuite) TestDuplicateNameLaterAddressWins() {
	// the first address answers slowly so that it settles last
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name":"Alpha","description":"first"}`))
	}))
	defer slow.Close()

	dir := network.NewDirectory(s.Logger)
	s.Require().NoError(dir.Rebuild(s, []string{slow.URL, s.alpha.URL}))

	s.Equal([]network.AgentInfo{{Name: "Alpha", Description: "Balance sheet analysis"}}, dir.ListAgents())

	conn, err := dir.Connection("Alpha")
	s.Require().NoError(err)
	s.Equal(s.alpha.URL, conn.(*network.RemoteConnection).Addr())
}

func (s *DirectoryTestSuite) TestRebuildReplacesContents() {
	dir := network.NewDirectory(s.Logger)
	s.Require().NoError(dir.Rebuild(s, []string{s.alpha.URL}))
	s.Equal(1, dir.Len())

	s.Require().NoError(dir.Rebuild(s, []string{s.beta.URL}))
	s.Equal([]network.AgentInfo{{Name: "Beta", Description: "Cash flow analysis"}}, dir.ListAgents())
}

func (s *DirectoryTestSuite) TestRebuildCanceledKeepsContents() {
	dir := network.NewDirectory(s.Logger)
	s.Require().NoError(dir.Rebuild(s, []string{s.alpha.URL}))

	ctx, cancel := context.WithCancel(s)
	cancel()
	s.Error(dir.Rebuild(ctx, []string{s.beta.URL}))

	_, ok := dir.Card("Alpha")
	s.True(ok)
}

func (s *DirectoryTestSuite) TestConnectionUnavailable() {
	dir := network.NewDirectory(s.Logger)
	dir.Register(&entity.AgentCard{Name: "Ghost"}, nil)

	_, err := dir.Connection("Ghost")
	s.ErrorIs(err, errors.ErrConnectionUnavailable)
}

func (s *DirectoryTestSuite) TestListAgentsStripsControlCharacters() {
	dir := network.NewDirectory(s.Logger)
	dir.Register(&entity.AgentCard{Name: "Alpha", Description: "Balance\x00 sheet\x1b analysis"}, nil)

	s.Equal([]network.AgentInfo{{Name: "Alpha", Description: "Balance sheet analysis"}}, dir.ListAgents())
}

func (s *DirectoryTestSuite) TestSendMessage() {
	s.alpha.SetRespond(mytesting.RespondTask(mytesting.TaskWithState("t1", "c1", entity.TaskStateWorking)))

	dir := network.NewDirectory(s.Logger)
	s.Require().NoError(dir.Rebuild(s, []string{s.alpha.URL}))

	conn, err := dir.Connection("Alpha")
	s.Require().NoError(err)
	s.Equal("Alpha", conn.Card().Name)

	resp, err := conn.SendMessage(s, &entity.MessageSendParams{
		Message: entity.Message{
			Role:      entity.RoleUser,
			Parts:     []entity.Part{entity.NewTextPart("hello")},
			MessageID: "m1",
		},
	})
	s.Require().NoError(err)
	s.Nil(resp.Error)

	var task entity.Task
	s.Require().NoError(resp.GetObject(&task))
	s.Equal("t1", task.ID)
	s.Equal(entity.TaskStateWorking, task.Status.State)

	req := s.alpha.LastRequest()
	s.Require().NotNil(req)
	s.Equal(entity.MethodSendMessage, req.Method)
	s.Equal("m1", req.Params.Message.MessageID)
	s.Empty(req.Params.Message.TaskID)
	s.Empty(req.Params.Message.ContextID)
	text, _ := entity.FirstText(req.Params.Message.Parts)
	s.Equal("hello", text)
}

func (s *DirectoryTestSuite) TestRefresherPicksUpNewAgents() {
	dir := network.NewDirectory(s.Logger)
	s.Require().NoError(dir.Rebuild(s, nil))

	ctx, cancel := context.WithCancel(s)
	done := make(chan struct{})
	go func() {
		defer close(done)
		dir.RunRefresher(ctx, []string{s.alpha.URL, s.beta.URL}, 20*time.Millisecond)
	}()

	s.Eventually(func() bool {
		return dir.Len() == 2
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	<-done
}

func TestDirectory(t *testing.T) {
	suite.Run(t, new(DirectoryTestSuite))
}
