package skill

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/habiliai/agentrouter/config"
	"github.com/habiliai/agentrouter/errors"
)

type (
	// Statement is a financial statement kind served by one worker agent.
	Statement string

	// Client talks to the Financial Modeling Prep statements API.
	Client struct {
		httpClient *http.Client
		baseURL    string
		apiKey     string
		timeout    time.Duration
	}

	// fmpError is what FMP answers with, under a 200, when the key or symbol
	// is rejected.
	fmpError struct {
		ErrorMessage string `json:"Error Message"`
	}
)

const (
	StatementBalanceSheet    Statement = "balance_sheet"
	StatementCashFlow        Statement = "cash_flow"
	StatementIncomeStatement Statement = "income_statement"
)

var endpoints = map[Statement]string{
	StatementBalanceSheet:    "balance-sheet-statement",
	StatementCashFlow:        "cash-flow-statement-as-reported",
	StatementIncomeStatement: "income-statement",
}

func (s Statement) Endpoint() (string, bool) {
	endpoint, ok := endpoints[s]
	return endpoint, ok
}

func NewClient(conf *config.FMPConfig, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimSuffix(conf.BaseURL, "/"),
		apiKey:     conf.APIKey,
		timeout:    conf.Timeout,
	}
}

// Fetch returns the raw JSON statement for ticker. Any failure to get a
// usable answer from FMP is reported as errors.ErrUpstreamUnavailable.
func (c *Client) Fetch(ctx context.Context, statement Statement, ticker string) (string, error) {
	endpoint, ok := statement.Endpoint()
	if !ok {
		return "", errors.Wrapf(errors.ErrInvalidParams, "unknown statement %q", statement)
	}
	if ticker == "" {
		return "", errors.Wrapf(errors.ErrInvalidParams, "ticker is required")
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	params := url.Values{}
	params.Set("symbol", ticker)
	params.Set("apikey", c.apiKey)
	reqURL := fmt.Sprintf("%s/%s?%s", c.baseURL, endpoint, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", errors.Wrapf(errors.ErrUpstreamUnavailable, "invalid request: %v", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", errors.Wrapf(errors.ErrUpstreamUnavailable, "%s request failed: %v", endpoint, redact(err.Error(), c.apiKey))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrapf(errors.ErrUpstreamUnavailable, "failed to read %s response: %v", endpoint, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", errors.Wrapf(errors.ErrUpstreamUnavailable, "%s request failed: %s", endpoint, resp.Status)
	}

	if trimmed := bytes.TrimSpace(body); bytes.HasPrefix(trimmed, []byte("{")) {
		var apiErr fmpError
		if err := json.Unmarshal(trimmed, &apiErr); err == nil && apiErr.ErrorMessage != "" {
			return "", errors.Wrapf(errors.ErrUpstreamUnavailable, "%s: %s", endpoint, apiErr.ErrorMessage)
		}
	}

	return string(body), nil
}

func redact(s, secret string) string {
	if secret == "" {
		return s
	}
	return strings.ReplaceAll(s, secret, "***")
}
