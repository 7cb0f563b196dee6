package entity

import (
	"github.com/google/uuid"
	"github.com/habiliai/agentrouter/errors"
	"github.com/samber/lo"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const NoActiveAgent = "None"

// SessionState is the per-conversation delegation record. Optional identifiers
// are nil when unset.
type SessionState struct {
	gorm.Model

	SessionKey    string `gorm:"index:idx_session_key_uniq,unique,where:deleted_at IS NULL"`
	SessionID     string
	SessionActive bool

	ActiveAgent *string
	TaskID      *string
	ContextID   *string

	InputMessageMetadata datatypes.JSONMap
}

func NewSessionState(key string) *SessionState {
	return &SessionState{
		SessionKey: key,
	}
}

// Activate assigns a session id and marks the session active. It is a no-op
// once the session is active.
func (s *SessionState) Activate() {
	if s.SessionActive {
		return
	}
	if s.SessionID == "" {
		s.SessionID = uuid.NewString()
	}
	s.SessionActive = true
}

// ActiveAgentLabel is for display only.
func (s *SessionState) ActiveAgentLabel() string {
	if s.SessionID != "" && s.SessionActive && s.ActiveAgent != nil {
		return *s.ActiveAgent
	}
	return NoActiveAgent
}

func (s *SessionState) ActiveAgentName() string {
	return lo.FromPtr(s.ActiveAgent)
}

func (s *SessionState) SetActiveAgent(name string) {
	s.ActiveAgent = lo.ToPtr(name)
}

// ClearTaskContext forgets the in-flight task and its context.
func (s *SessionState) ClearTaskContext() {
	s.TaskID = nil
	s.ContextID = nil
}

func (s *SessionState) SetTask(taskID, contextID string) {
	s.TaskID = lo.ToPtr(taskID)
	s.ContextID = lo.ToPtr(contextID)
}

// Clone returns a deep copy suitable for handing out to readers.
func (s *SessionState) Clone() *SessionState {
	c := *s
	c.ActiveAgent = clonePtr(s.ActiveAgent)
	c.TaskID = clonePtr(s.TaskID)
	c.ContextID = clonePtr(s.ContextID)
	if s.InputMessageMetadata != nil {
		c.InputMessageMetadata = make(datatypes.JSONMap, len(s.InputMessageMetadata))
		for k, v := range s.InputMessageMetadata {
			c.InputMessageMetadata[k] = v
		}
	}
	return &c
}

func clonePtr(p *string) *string {
	if p == nil {
		return nil
	}
	return lo.ToPtr(*p)
}

func (s *SessionState) Save(db *gorm.DB) error {
	return errors.Wrapf(db.Save(s).Error, "failed to save session state")
}

func (s *SessionState) Delete(db *gorm.DB) error {
	return errors.Wrapf(db.Delete(s).Error, "failed to delete session state")
}
