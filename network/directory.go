package network

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/habiliai/agentrouter/config"
	"github.com/habiliai/agentrouter/entity"
	"github.com/habiliai/agentrouter/errors"
	"github.com/habiliai/agentrouter/internal/mylog"
	"github.com/habiliai/agentrouter/internal/stringutils"
	"golang.org/x/sync/errgroup"
)

type (
	AgentInfo struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}

	// Directory indexes the reachable remote agents by card name.
	Directory struct {
		logger      *slog.Logger
		resolver    *CardResolver
		httpClient  *http.Client
		sendTimeout time.Duration

		mtx     sync.RWMutex
		entries map[string]directoryEntry
	}

	directoryEntry struct {
		card *entity.AgentCard
		conn Connection
	}

	DirectoryOption func(*directoryOptions)

	directoryOptions struct {
		httpClient  *http.Client
		cardPath    string
		cardTimeout time.Duration
		sendTimeout time.Duration
	}
)

func WithHTTPClient(httpClient *http.Client) DirectoryOption {
	return func(o *directoryOptions) {
		o.httpClient = httpClient
	}
}

func WithCardPath(path string) DirectoryOption {
	return func(o *directoryOptions) {
		o.cardPath = path
	}
}

func WithCardTimeout(timeout time.Duration) DirectoryOption {
	return func(o *directoryOptions) {
		o.cardTimeout = timeout
	}
}

func WithSendTimeout(timeout time.Duration) DirectoryOption {
	return func(o *directoryOptions) {
		o.sendTimeout = timeout
	}
}

func NewDirectory(logger *slog.Logger, opts ...DirectoryOption) *Directory {
	o := directoryOptions{
		httpClient:  http.DefaultClient,
		cardPath:    config.DefaultAgentCardPath,
		cardTimeout: config.DefaultAgentTimeout,
		sendTimeout: config.DefaultAgentTimeout,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if logger == nil {
		logger = mylog.Discard()
	}

	return &Directory{
		logger:      logger,
		resolver:    NewCardResolver(o.httpClient, o.cardPath, o.cardTimeout),
		httpClient:  o.httpClient,
		sendTimeout: o.sendTimeout,
		entries:     map[string]directoryEntry{},
	}
}

// Rebuild resolves every address concurrently and replaces the directory
// contents once all attempts have settled. Unreachable addresses are logged
// and skipped. When two addresses resolve to the same name the one listed
// later wins. The only error returned is ctx's, in which case the current
// contents are kept.
func (d *Directory) Rebuild(ctx context.Context, addrs []string) error {
	cards := make([]*entity.AgentCard, len(addrs))

	var eg errgroup.Group
	for i, addr := range addrs {
		eg.Go(func() error {
			card, err := d.resolver.Resolve(ctx, addr)
			if err != nil {
				d.logger.Warn("skip unreachable agent", "addr", addr, mylog.Err(err))
				return nil
			}
			cards[i] = card
			return nil
		})
	}
	_ = eg.Wait()

	if err := ctx.Err(); err != nil {
		return errors.WithStack(err)
	}

	entries := make(map[string]directoryEntry, len(addrs))
	for i, card := range cards {
		if card == nil {
			continue
		}
		if prev, ok := entries[card.Name]; ok {
			d.logger.Warn("agent name registered twice, later address wins",
				"name", card.Name, "addr", addrs[i], "prev_url", prev.card.URL)
		}
		entries[card.Name] = directoryEntry{
			card: card,
			conn: NewRemoteConnection(card, addrs[i], d.httpClient, d.sendTimeout),
		}
	}

	d.mtx.Lock()
	d.entries = entries
	d.mtx.Unlock()

	d.logger.Info("agent directory built", "addresses", len(addrs), "agents", len(entries))
	return nil
}

// Register adds or replaces a single entry.
func (d *Directory) Register(card *entity.AgentCard, conn Connection) {
	d.mtx.Lock()
	defer d.mtx.Unlock()

	d.entries[card.Name] = directoryEntry{card: card, conn: conn}
}

func (d *Directory) Len() int {
	d.mtx.RLock()
	defer d.mtx.RUnlock()

	return len(d.entries)
}

// ListAgents returns the registered agents ordered by name.
func (d *Directory) ListAgents() []AgentInfo {
	d.mtx.RLock()
	agents := make([]AgentInfo, 0, len(d.entries))
	for _, e := range d.entries {
		agents = append(agents, AgentInfo{
			Name:        e.card.Name,
			Description: stringutils.StripControl(e.card.Description),
		})
	}
	d.mtx.RUnlock()

	sort.Slice(agents, func(i, j int) bool {
		return agents[i].Name < agents[j].Name
	})
	return agents
}

func (d *Directory) Card(name string) (*entity.AgentCard, bool) {
	d.mtx.RLock()
	defer d.mtx.RUnlock()

	e, ok := d.entries[name]
	if !ok {
		return nil, false
	}
	return e.card, true
}

func (d *Directory) Connection(name string) (Connection, error) {
	d.mtx.RLock()
	e, ok := d.entries[name]
	d.mtx.RUnlock()

	if !ok {
		return nil, errors.Wrapf(errors.ErrUnknownAgent, "agent %s not found", name)
	}
	if e.conn == nil {
		return nil, errors.Wrapf(errors.ErrConnectionUnavailable, "client not available for %s", name)
	}
	return e.conn, nil
}

func (d *Directory) Summary() (string, error) {
	return Summarize(d.ListAgents())
}
