package network

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/habiliai/agentrouter/config"
	"github.com/habiliai/agentrouter/entity"
	"github.com/habiliai/agentrouter/errors"
)

// CardResolver fetches the AgentCard an agent publishes at a well-known path.
type CardResolver struct {
	httpClient *http.Client
	cardPath   string
	timeout    time.Duration
}

func NewCardResolver(httpClient *http.Client, cardPath string, timeout time.Duration) *CardResolver {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if cardPath == "" {
		cardPath = config.DefaultAgentCardPath
	}
	if timeout <= 0 {
		timeout = config.DefaultAgentTimeout
	}
	return &CardResolver{
		httpClient: httpClient,
		cardPath:   cardPath,
		timeout:    timeout,
	}
}

func (r *CardResolver) Resolve(ctx context.Context, addr string) (*entity.AgentCard, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cardURL := strings.TrimSuffix(addr, "/") + r.cardPath
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cardURL, nil)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrAgentUnreachable, "invalid agent address %q: %v", addr, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrAgentUnreachable, "failed to fetch agent card from %s: %v", cardURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Wrapf(errors.ErrAgentUnreachable, "agent card request to %s returned %s", cardURL, resp.Status)
	}

	var card entity.AgentCard
	if err := json.NewDecoder(resp.Body).Decode(&card); err != nil {
		return nil, errors.Wrapf(errors.ErrAgentUnreachable, "failed to decode agent card from %s: %v", cardURL, err)
	}
	if card.Name == "" {
		return nil, errors.Wrapf(errors.ErrAgentUnreachable, "agent card from %s has no name", cardURL)
	}

	return &card, nil
}
