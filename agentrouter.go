package agentrouter

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/habiliai/agentrouter/config"
	"github.com/habiliai/agentrouter/dispatcher"
	"github.com/habiliai/agentrouter/entity"
	"github.com/habiliai/agentrouter/errors"
	"github.com/habiliai/agentrouter/internal/db"
	"github.com/habiliai/agentrouter/internal/mylog"
	"github.com/habiliai/agentrouter/network"
	"github.com/habiliai/agentrouter/session"
	"gorm.io/gorm"
)

type (
	Router struct {
		directory  *network.Directory
		sessions   *session.Manager
		dispatcher *dispatcher.Dispatcher
		logger     *slog.Logger

		config     *config.RouterConfig
		addresses  []string
		httpClient *http.Client
		store      session.Store
		db         *gorm.DB

		cancel context.CancelFunc
	}
	Option func(*Router)

	SendMessageRequest struct {
		SessionKey string
		AgentName  string
		Task       string
		// Metadata of the inbound user message. A "message_id" entry is reused
		// as the outgoing message id.
		Metadata map[string]any
	}
)

// NewRouter builds the agent directory and returns a router ready to
// delegate. Agents that cannot be reached are left out of the directory.
func NewRouter(ctx context.Context, optionFuncs ...Option) (*Router, error) {
	r := &Router{
		config:     config.NewRouterConfig(),
		httpClient: http.DefaultClient,
	}
	for _, f := range optionFuncs {
		f(r)
	}

	if err := r.config.Validate(); err != nil {
		return nil, err
	}
	if r.logger == nil {
		r.logger = mylog.NewLogger(r.config.LogLevel, r.config.LogHandler)
	}
	if r.addresses == nil {
		r.addresses = r.config.Addresses()
	}

	if r.store == nil {
		if r.config.DatabasePath != "" {
			gdb, err := db.OpenDB(r.config.DatabasePath)
			if err != nil {
				return nil, err
			}
			store, err := session.NewGormStore(ctx, gdb)
			if err != nil {
				_ = db.CloseDB(gdb)
				return nil, err
			}
			r.db = gdb
			r.store = store
		} else {
			r.store = session.NewInMemoryStore()
		}
	}

	r.sessions = session.NewManager(r.store, r.logger)
	r.directory = network.NewDirectory(
		r.logger,
		network.WithHTTPClient(r.httpClient),
		network.WithCardPath(r.config.AgentCardPath),
		network.WithCardTimeout(r.config.AgentCardTimeout),
		network.WithSendTimeout(r.config.AgentSendTimeout),
	)
	r.dispatcher = dispatcher.New(r.directory, r.logger)

	if err := r.directory.Rebuild(ctx, r.addresses); err != nil {
		_ = r.Close()
		return nil, err
	}
	if r.directory.Len() == 0 {
		r.logger.Warn("no remote agents available, delegation disabled until the directory is rebuilt", "addresses", r.addresses)
	}

	if interval := r.config.DirectoryRefreshInterval; interval > 0 {
		refreshCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		r.cancel = cancel
		go r.directory.RunRefresher(refreshCtx, r.addresses, interval)
	}

	return r, nil
}

// SendMessage activates the session and delegates req.Task to req.AgentName.
// A nil outcome with a nil error means the agent's reply was dropped.
func (r *Router) SendMessage(ctx context.Context, req SendMessageRequest) (*entity.TaskOutcome, error) {
	if req.SessionKey == "" {
		return nil, errors.Wrapf(errors.ErrInvalidParams, "session key is required")
	}

	var outcome *entity.TaskOutcome
	err := r.sessions.Update(ctx, req.SessionKey, func(state *entity.SessionState) error {
		state.Activate()
		state.InputMessageMetadata = req.Metadata

		var err error
		outcome, err = r.dispatcher.Send(ctx, req.AgentName, req.Task, state)
		return err
	})
	if err != nil {
		return nil, err
	}

	return outcome, nil
}

func (r *Router) ListAgents() []network.AgentInfo {
	return r.directory.ListAgents()
}

func (r *Router) Summary() (string, error) {
	return r.directory.Summary()
}

func (r *Router) ActiveAgent(ctx context.Context, sessionKey string) (string, error) {
	return r.sessions.ActiveAgentLabel(ctx, sessionKey)
}

func (r *Router) Session(ctx context.Context, sessionKey string) (*entity.SessionState, error) {
	return r.sessions.Get(ctx, sessionKey)
}

// Rebuild re-resolves the configured addresses.
func (r *Router) Rebuild(ctx context.Context) error {
	return r.directory.Rebuild(ctx, r.addresses)
}

func (r *Router) Addresses() []string {
	return append([]string(nil), r.addresses...)
}

func (r *Router) Directory() *network.Directory {
	return r.directory
}

func (r *Router) Close() error {
	if r.cancel != nil {
		r.cancel()
	}
	return db.CloseDB(r.db)
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) {
		r.logger = logger
	}
}

func WithConfig(conf *config.RouterConfig) Option {
	return func(r *Router) {
		r.config = conf
	}
}

// WithAddresses overrides the addresses taken from the config.
func WithAddresses(addrs ...string) Option {
	return func(r *Router) {
		r.addresses = addrs
	}
}

func WithSessionStore(store session.Store) Option {
	return func(r *Router) {
		r.store = store
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(r *Router) {
		r.httpClient = httpClient
	}
}
