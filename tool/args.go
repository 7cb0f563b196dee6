package tool

import (
	"encoding/json"

	"github.com/habiliai/agentrouter/errors"
	"github.com/invopop/jsonschema"
	"github.com/mitchellh/mapstructure"
)

const DefaultSessionID = "default"

type (
	SendMessageArgs struct {
		AgentName string `json:"agent_name" jsonschema:"required,description=Name of the remote agent to delegate to. Must be one of the names returned by list_remote_agents"`
		Task      string `json:"task" jsonschema:"required,description=Self-contained summary of the conversation context and the goal the remote agent should achieve"`
		SessionID string `json:"session_id,omitempty" jsonschema:"description=Conversation the delegation belongs to,default=default"`
	}

	ListRemoteAgentsArgs struct{}

	ActiveAgentArgs struct {
		SessionID string `json:"session_id,omitempty" jsonschema:"description=Conversation to inspect,default=default"`
	}
)

var reflector = jsonschema.Reflector{
	DoNotReference: true,
	ExpandedStruct: true,
}

func inputSchema(v any) json.RawMessage {
	schema := reflector.Reflect(v)
	schema.Version = ""

	raw, err := json.Marshal(schema)
	if err != nil {
		panic(errors.Wrapf(err, "failed to marshal input schema for %T", v))
	}
	return raw
}

func decodeArgs(in any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return errors.WithStack(err)
	}
	if err := decoder.Decode(in); err != nil {
		return errors.Wrapf(errors.ErrInvalidParams, "invalid arguments: %v", err)
	}
	return nil
}
