package tool

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/habiliai/agentrouter"
	"github.com/habiliai/agentrouter/entity"
	"github.com/habiliai/agentrouter/internal/mylog"
	"github.com/habiliai/agentrouter/network"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

type (
	// Router is what the tools delegate to; *agentrouter.Router satisfies it.
	Router interface {
		SendMessage(ctx context.Context, req agentrouter.SendMessageRequest) (*entity.TaskOutcome, error)
		ListAgents() []network.AgentInfo
		Summary() (string, error)
		ActiveAgent(ctx context.Context, sessionKey string) (string, error)
	}

	// Tools exposes the router to an LLM host as MCP tools.
	Tools struct {
		router Router
		logger *slog.Logger
	}
)

var _ Router = (*agentrouter.Router)(nil)

func NewTools(router Router, logger *slog.Logger) *Tools {
	if logger == nil {
		logger = mylog.Discard()
	}
	return &Tools{
		router: router,
		logger: logger,
	}
}

func (t *Tools) ServerTools() []server.ServerTool {
	return []server.ServerTool{
		{
			Tool: mcp.NewToolWithRawSchema(
				"send_message",
				"Sends a task to a remote agent and returns its answer, its follow-up question, or the task status.",
				inputSchema(&SendMessageArgs{}),
			),
			Handler: t.SendMessage,
		},
		{
			Tool: mcp.NewToolWithRawSchema(
				"list_remote_agents",
				"Lists the remote agents available for delegation, one JSON object per line.",
				inputSchema(&ListRemoteAgentsArgs{}),
			),
			Handler: t.ListRemoteAgents,
		},
		{
			Tool: mcp.NewToolWithRawSchema(
				"active_agent",
				"Returns the name of the agent the conversation is currently talking to, or None.",
				inputSchema(&ActiveAgentArgs{}),
			),
			Handler: t.ActiveAgent,
		},
	}
}

func (t *Tools) SendMessage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args SendMessageArgs
	if err := decodeArgs(req.GetArguments(), &args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if args.AgentName == "" || args.Task == "" {
		return mcp.NewToolResultError("agent_name and task are required"), nil
	}
	if args.SessionID == "" {
		args.SessionID = DefaultSessionID
	}

	outcome, err := t.router.SendMessage(ctx, agentrouter.SendMessageRequest{
		SessionKey: args.SessionID,
		AgentName:  args.AgentName,
		Task:       args.Task,
	})
	if err != nil {
		t.logger.Warn("delegation failed", "agent", args.AgentName, "session", args.SessionID, mylog.Err(err))
		return mcp.NewToolResultError(err.Error()), nil
	}
	if outcome == nil {
		return mcp.NewToolResultText(fmt.Sprintf("No usable response from %s.", args.AgentName)), nil
	}

	return mcp.NewToolResultText(outcome.Describe(args.AgentName)), nil
}

func (t *Tools) ListRemoteAgents(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	summary, err := t.router.Summary()
	if err != nil {
		return nil, err
	}
	if summary == "" {
		return mcp.NewToolResultText("No remote agents are available."), nil
	}
	return mcp.NewToolResultText(summary), nil
}

func (t *Tools) ActiveAgent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args ActiveAgentArgs
	if err := decodeArgs(req.GetArguments(), &args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if args.SessionID == "" {
		args.SessionID = DefaultSessionID
	}

	label, err := t.router.ActiveAgent(ctx, args.SessionID)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(label), nil
}

// NewServer returns an MCP server carrying the router tools.
func NewServer(router Router, logger *slog.Logger, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"agentrouter",
		version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)
	s.AddTools(NewTools(router, logger).ServerTools()...)
	return s
}
