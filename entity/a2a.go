package entity

// AgentProvider represents the service provider of an agent.
type AgentProvider struct {
	// Agent provider's organization name.
	Organization string `json:"organization"`
	// Agent provider's URL.
	URL string `json:"url"`
}

// AgentCapabilities defines optional capabilities supported by an agent.
type AgentCapabilities struct {
	Streaming              bool `json:"streaming,omitempty"`
	PushNotifications      bool `json:"pushNotifications,omitempty"`
	StateTransitionHistory bool `json:"stateTransitionHistory,omitempty"`
}

// AgentSkill represents a unit of capability that an agent advertises on its card.
type AgentSkill struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tags        []string `json:"tags,omitempty"`
	Examples    []string `json:"examples,omitempty"`
	InputModes  []string `json:"inputModes,omitempty"`
	OutputModes []string `json:"outputModes,omitempty"`
}

// AgentCard conveys key information about an agent:
// - Overall details (version, name, description, uses)
// - Skills: A set of capabilities the agent can perform
// - Default modalities/content types supported by the agent.
type AgentCard struct {
	// Human readable name of the agent. It is the directory key on the router side.
	// Example: "Balance_Sheet_Agent"
	Name string `json:"name"`
	// A human-readable description of the agent. Used to assist users and
	// other agents in understanding what the agent can do.
	Description string `json:"description"`
	// A URL to the address the agent is hosted at.
	URL string `json:"url"`
	// The service provider of the agent.
	Provider *AgentProvider `json:"provider,omitempty"`
	// The version of the agent - format is up to the provider.
	// Example: "1.0.0"
	Version string `json:"version"`
	// A URL to documentation for the agent.
	DocumentationURL *string `json:"documentationUrl,omitempty"`
	// Optional capabilities supported by the agent.
	Capabilities AgentCapabilities `json:"capabilities"`
	// Supported media types for input.
	DefaultInputModes []string `json:"defaultInputModes"`
	// Supported media types for output.
	DefaultOutputModes []string `json:"defaultOutputModes"`
	// Skills are a unit of capability that an agent can perform.
	Skills []AgentSkill `json:"skills"`
}

const (
	RoleUser  = "user"
	RoleAgent = "agent"

	PartKindText = "text"

	KindTask    = "task"
	KindMessage = "message"

	MethodSendMessage = "message/send"
)

// Part is one piece of message or artifact content. Only text parts are produced
// by the router; `type` and `kind` are both written so that older and newer A2A
// peers recognise the part.
type Part struct {
	Type string `json:"type,omitempty"`
	Kind string `json:"kind,omitempty"`
	Text string `json:"text,omitempty"`
	Data any    `json:"data,omitempty"`
}

func NewTextPart(text string) Part {
	return Part{
		Type: PartKindText,
		Kind: PartKindText,
		Text: text,
	}
}

func (p Part) IsText() bool {
	switch {
	case p.Type == PartKindText, p.Kind == PartKindText:
		return true
	case p.Type == "" && p.Kind == "":
		return p.Text != ""
	default:
		return false
	}
}

// FirstText returns the text of the first text part, if any.
func FirstText(parts []Part) (string, bool) {
	for _, p := range parts {
		if p.IsText() {
			return p.Text, true
		}
	}
	return "", false
}

type Message struct {
	Role      string         `json:"role"`
	Parts     []Part         `json:"parts"`
	MessageID string         `json:"messageId"`
	TaskID    string         `json:"taskId,omitempty"`
	ContextID string         `json:"contextId,omitempty"`
	Kind      string         `json:"kind,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// MessageSendParams is the params object of a `message/send` call.
type MessageSendParams struct {
	Message  Message        `json:"message"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type TaskState string

const (
	TaskStateSubmitted     TaskState = "submitted"
	TaskStateWorking       TaskState = "working"
	TaskStateInputRequired TaskState = "input-required"
	TaskStateCompleted     TaskState = "completed"
	TaskStateCanceled      TaskState = "canceled"
	TaskStateFailed        TaskState = "failed"
	TaskStateRejected      TaskState = "rejected"
	TaskStateAuthRequired  TaskState = "auth-required"
	TaskStateUnknown       TaskState = "unknown"
)

type TaskStatus struct {
	State     TaskState `json:"state"`
	Message   *Message  `json:"message,omitempty"`
	Timestamp string    `json:"timestamp,omitempty"`
}

type Artifact struct {
	ArtifactID  string `json:"artifactId,omitempty"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Parts       []Part `json:"parts"`
}

type Task struct {
	ID        string         `json:"id"`
	ContextID string         `json:"contextId"`
	Status    *TaskStatus    `json:"status"`
	Artifacts []Artifact     `json:"artifacts,omitempty"`
	History   []Message      `json:"history,omitempty"`
	Kind      string         `json:"kind,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// IsWellFormed reports whether t carries everything the router needs to
// interpret it as a task: an id, a status with a state, and no foreign kind.
func (t *Task) IsWellFormed() bool {
	if t == nil || t.ID == "" || t.Status == nil || t.Status.State == "" {
		return false
	}
	return t.Kind == "" || t.Kind == KindTask
}

// StatusText returns the first text part of the task's status message.
func (t *Task) StatusText() (string, bool) {
	if t.Status == nil || t.Status.Message == nil {
		return "", false
	}
	return FirstText(t.Status.Message.Parts)
}

// ResultText returns the first text part of the first artifact.
func (t *Task) ResultText() (string, bool) {
	if len(t.Artifacts) == 0 {
		return "", false
	}
	return FirstText(t.Artifacts[0].Parts)
}
