package entity

import "fmt"

type OutcomeKind string

const (
	OutcomeNeedsInput OutcomeKind = "needs_input"
	OutcomeCompleted  OutcomeKind = "completed"
	OutcomeInProgress OutcomeKind = "in_progress"

	DefaultInputQuestion = "Input required"
)

// TaskOutcome is the interpreted result of one dispatch. Text holds the
// question for NeedsInput, the result for Completed and the raw status label
// for InProgress.
type TaskOutcome struct {
	Kind OutcomeKind `json:"kind"`
	Text string      `json:"text"`
}

func NeedsInput(question string) *TaskOutcome {
	return &TaskOutcome{Kind: OutcomeNeedsInput, Text: question}
}

func Completed(result string) *TaskOutcome {
	return &TaskOutcome{Kind: OutcomeCompleted, Text: result}
}

func InProgress(status string) *TaskOutcome {
	return &TaskOutcome{Kind: OutcomeInProgress, Text: status}
}

// Describe renders the outcome as the sentence handed back to the caller
// that delegated to agentName.
func (o *TaskOutcome) Describe(agentName string) string {
	switch o.Kind {
	case OutcomeNeedsInput:
		return fmt.Sprintf("The %s agent needs more information: %s", agentName, o.Text)
	case OutcomeCompleted:
		return fmt.Sprintf("Response from %s: %s", agentName, o.Text)
	default:
		return fmt.Sprintf("Task sent to %s. Status: %s", agentName, o.Text)
	}
}
