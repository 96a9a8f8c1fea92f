package expenseagent

import (
	"strings"
	"time"
)

// InstructionParam is one piece of the system prompt, either fixed or
// rendered for the current day.
type InstructionParam struct {
	String *string
	Func   func(today time.Time) string
}

func getPrompt(instructions []InstructionParam, today time.Time) string {
	prompts := make([]string, 0, len(instructions))
	for _, param := range instructions {
		if param.String != nil {
			prompts = append(prompts, *param.String)
		} else if param.Func != nil {
			prompts = append(prompts, param.Func(today))
		}
	}

	return strings.Join(prompts, "\n")
}
