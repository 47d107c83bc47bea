package lifecycle

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sparkq/sparkq"
	"github.com/sparkq/sparkq/model"
)

// QuickAddMode selects one of the two quick-add input shapes (§4.2).
type QuickAddMode string

const (
	QuickAddLLM    QuickAddMode = "llm"
	QuickAddScript QuickAddMode = "script"
)

// QuickAddInput is the convenience shape accepted by QuickAdd. Only the
// fields relevant to Mode need be set.
type QuickAddInput struct {
	Mode       QuickAddMode
	Prompt     string
	ToolName   string
	ScriptPath string
	ScriptArgs []string
}

type llmPayload struct {
	Mode     string `json:"mode"`
	Prompt   string `json:"prompt"`
	ToolName string `json:"tool_name"`
}

type scriptPayload struct {
	Mode       string   `json:"mode"`
	ScriptPath string   `json:"script_path"`
	ScriptArgs []string `json:"script_args,omitempty"`
}

// DeriveQuickAdd is the pure function (§9 Design Notes) converting a
// quick-add input plus the current tool catalog into the tool_name,
// task_class, and canonical payload that Enqueue needs. Payload uses
// JSON, matching the boundary convention in §3 ("payload... by
// convention JSON"); this one conversion does not warrant pulling in an
// ecosystem serialization library on top of encoding/json.
func DeriveQuickAdd(input QuickAddInput, tools []*model.Tool) (toolName, taskClass, payload string, err error) {
	switch input.Mode {
	case QuickAddLLM:
		if strings.TrimSpace(input.Prompt) == "" {
			return "", "", "", sparkq.NewValidationError("QuickAdd", "prompt", "must be non-empty")
		}
		toolName = input.ToolName
		if strings.TrimSpace(toolName) == "" {
			return "", "", "", sparkq.NewValidationError("QuickAdd", "tool_name", "must be non-empty")
		}
		taskClass = lookupTaskClass(tools, toolName)
		blob, marshalErr := json.Marshal(llmPayload{Mode: string(QuickAddLLM), Prompt: input.Prompt, ToolName: toolName})
		if marshalErr != nil {
			return "", "", "", sparkq.NewInternalError("QuickAdd", marshalErr)
		}
		payload = string(blob)
	case QuickAddScript:
		if strings.TrimSpace(input.ScriptPath) == "" {
			return "", "", "", sparkq.NewValidationError("QuickAdd", "script_path", "must be non-empty")
		}
		toolName = input.ToolName
		if strings.TrimSpace(toolName) == "" {
			toolName = "run-script"
		}
		taskClass = lookupTaskClass(tools, toolName)
		blob, marshalErr := json.Marshal(scriptPayload{Mode: string(QuickAddScript), ScriptPath: input.ScriptPath, ScriptArgs: input.ScriptArgs})
		if marshalErr != nil {
			return "", "", "", sparkq.NewInternalError("QuickAdd", marshalErr)
		}
		payload = string(blob)
	default:
		return "", "", "", sparkq.NewValidationError("QuickAdd", "mode", fmt.Sprintf("unrecognized quick-add mode %q", input.Mode))
	}
	return toolName, taskClass, payload, nil
}

func lookupTaskClass(tools []*model.Tool, toolName string) string {
	for _, t := range tools {
		if t.Name == toolName {
			return t.TaskClass
		}
	}
	return ""
}

// QuickAdd derives enqueue parameters from input via DeriveQuickAdd and
// delegates to Enqueue with no explicit timeout, so the normal
// resolution policy applies.
func (l *Lifecycle) QuickAdd(ctx context.Context, queueId string, input QuickAddInput) (*model.Task, error) {
	tools, err := l.config.Tools(ctx)
	if err != nil {
		return nil, err
	}
	toolName, taskClass, payload, err := DeriveQuickAdd(input, tools)
	if err != nil {
		return nil, err
	}
	return l.Enqueue(ctx, queueId, toolName, taskClass, 0, payload)
}
