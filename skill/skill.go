package skill

import (
	"context"
	"log/slog"
	"sort"

	"github.com/habiliai/agentrouter/errors"
	"github.com/habiliai/agentrouter/internal/mylog"
)

// Skill fetches one kind of statement for a worker agent.
type Skill struct {
	Statement   Statement
	Name        string
	Description string

	client *Client
	logger *slog.Logger
}

var descriptions = map[Statement]struct{ name, description string }{
	StatementBalanceSheet: {
		name:        "Balance sheet",
		description: "Retrieves the balance sheet statements of the company with the given ticker",
	},
	StatementCashFlow: {
		name:        "Cash flow statement",
		description: "Retrieves the as-reported cash flow statements of the company with the given ticker",
	},
	StatementIncomeStatement: {
		name:        "Income statement",
		description: "Retrieves the income statements of the company with the given ticker",
	},
}

func New(statement Statement, client *Client, logger *slog.Logger) (*Skill, error) {
	d, ok := descriptions[statement]
	if !ok {
		return nil, errors.Wrapf(errors.ErrInvalidParams, "unknown skill %q", statement)
	}
	if logger == nil {
		logger = mylog.Discard()
	}
	return &Skill{
		Statement:   statement,
		Name:        d.name,
		Description: d.description,
		client:      client,
		logger:      logger,
	}, nil
}

// Statements lists the supported statements in a stable order.
func Statements() []Statement {
	statements := make([]Statement, 0, len(endpoints))
	for s := range endpoints {
		statements = append(statements, s)
	}
	sort.Slice(statements, func(i, j int) bool { return statements[i] < statements[j] })
	return statements
}

// Run returns the statement data, or false when the upstream could not
// provide it. Failures are logged, not returned.
func (s *Skill) Run(ctx context.Context, ticker string) (string, bool) {
	data, err := s.client.Fetch(ctx, s.Statement, ticker)
	if err != nil {
		s.logger.Error("fmp request failed", "statement", s.Statement, "ticker", ticker, mylog.Err(err))
		return "", false
	}
	return data, true
}
