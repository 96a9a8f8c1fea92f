package expenseagent

import "fmt"

// AgentError is returned by Run when a turn cannot complete. The conversation
// returned alongside it is the one the turn started from.
type AgentError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *AgentError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AgentError) Unwrap() error {
	return e.Err
}

type ErrorKind string

const (
	LanguageModelErrorKind ErrorKind = "language_model_error"
	InvariantErrorKind     ErrorKind = "invariant_error"
	ToolExecutionErrorKind ErrorKind = "tool_execution_error"
	MaxTurnsExceededKind   ErrorKind = "max_turns_exceeded"
)

func NewLanguageModelError(err error) *AgentError {
	return &AgentError{
		Kind:    LanguageModelErrorKind,
		Message: "language model error",
		Err:     err,
	}
}

func NewInvariantError(msg string) *AgentError {
	return &AgentError{
		Kind:    InvariantErrorKind,
		Message: fmt.Sprintf("invariant: %s", msg),
	}
}

func NewToolExecutionError(toolName string, err error) *AgentError {
	return &AgentError{
		Kind:    ToolExecutionErrorKind,
		Message: fmt.Sprintf("tool %s failed", toolName),
		Err:     err,
	}
}

func NewMaxTurnsExceededError(turns uint) *AgentError {
	return &AgentError{
		Kind:    MaxTurnsExceededKind,
		Message: fmt.Sprintf("the maximum number of turns (%d) has been exceeded", turns),
	}
}
