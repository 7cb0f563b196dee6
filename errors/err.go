package errors

import (
	"fmt"
)

var (
	ErrInvalidConfig  = fmt.Errorf("agentrouter: invalid config")
	ErrNotFound       = fmt.Errorf("agentrouter: not found")
	ErrInvalidParams  = fmt.Errorf("agentrouter: invalid params")
	ErrInternal       = fmt.Errorf("agentrouter: internal error")
	ErrInvalidRequest = fmt.Errorf("agentrouter: invalid request")

	ErrUnknownAgent          = fmt.Errorf("agentrouter: unknown agent")
	ErrConnectionUnavailable = fmt.Errorf("agentrouter: connection unavailable")
	ErrDispatchFailed        = fmt.Errorf("agentrouter: dispatch failed")
	ErrMalformedResponse     = fmt.Errorf("agentrouter: malformed response")
	ErrAgentUnreachable      = fmt.Errorf("agentrouter: agent unreachable")
	ErrUpstreamUnavailable   = fmt.Errorf("agentrouter: upstream unavailable")
)
