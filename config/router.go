package config

import (
	"strings"
	"time"

	"github.com/habiliai/agentrouter/errors"
	"github.com/samber/lo"
)

const (
	DefaultAgentCardPath = "/.well-known/agent.json"
	DefaultAgentTimeout  = 30 * time.Second
)

type RouterConfig struct {
	LogConfig

	Host string `env:"HOST"`
	Port int    `env:"PORT"`

	// AgentAddresses overrides the per-agent URLs below when set.
	AgentAddresses          []string `env:"AGENT_ADDRESSES"`
	BalanceSheetAgentURL    string   `env:"BALANCE_SHEET_AGENT_URL"`
	CashFlowAgentURL        string   `env:"CASH_FLOW_AGENT_URL"`
	IncomeStatementAgentURL string   `env:"INCOME_STATEMENT_AGENT_URL"`

	AgentCardPath            string        `env:"AGENT_CARD_PATH"`
	AgentCardTimeout         time.Duration `env:"AGENT_CARD_TIMEOUT"`
	AgentSendTimeout         time.Duration `env:"AGENT_SEND_TIMEOUT"`
	DirectoryRefreshInterval time.Duration `env:"DIRECTORY_REFRESH_INTERVAL"`

	// DatabasePath enables the sqlite session store. Empty keeps sessions in memory.
	DatabasePath string `env:"DATABASE_PATH"`
}

func NewRouterConfig() *RouterConfig {
	return &RouterConfig{
		LogConfig:               *NewLogConfig(),
		Host:                    "0.0.0.0",
		Port:                    10080,
		BalanceSheetAgentURL:    "http://localhost:10001",
		CashFlowAgentURL:        "http://localhost:10002",
		IncomeStatementAgentURL: "http://localhost:10003",
		AgentCardPath:           DefaultAgentCardPath,
		AgentCardTimeout:        DefaultAgentTimeout,
		AgentSendTimeout:        DefaultAgentTimeout,
	}
}

func ResolveRouterConfig() (*RouterConfig, error) {
	conf := NewRouterConfig()
	if err := resolveConfig(conf, false); err != nil {
		return nil, err
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

// Addresses returns the remote agent addresses to build the directory from.
func (c *RouterConfig) Addresses() []string {
	addrs := c.AgentAddresses
	if len(lo.Compact(addrs)) == 0 {
		addrs = []string{c.BalanceSheetAgentURL, c.CashFlowAgentURL, c.IncomeStatementAgentURL}
	}
	return lo.Compact(lo.Map(addrs, func(addr string, _ int) string {
		return strings.TrimRight(strings.TrimSpace(addr), "/")
	}))
}

func (c *RouterConfig) Validate() error {
	if c.AgentCardTimeout <= 0 {
		return errors.Wrapf(errors.ErrInvalidConfig, "AGENT_CARD_TIMEOUT must be positive")
	}
	if c.AgentSendTimeout <= 0 {
		return errors.Wrapf(errors.ErrInvalidConfig, "AGENT_SEND_TIMEOUT must be positive")
	}
	if c.DirectoryRefreshInterval < 0 {
		return errors.Wrapf(errors.ErrInvalidConfig, "DIRECTORY_REFRESH_INTERVAL must not be negative")
	}
	if !strings.HasPrefix(c.AgentCardPath, "/") {
		return errors.Wrapf(errors.ErrInvalidConfig, "AGENT_CARD_PATH must start with '/'")
	}
	return nil
}
