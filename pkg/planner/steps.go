package planner

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Mindburn-Labs/toolplan/pkg/contracts"
	"github.com/Mindburn-Labs/toolplan/pkg/json5"
	"github.com/Mindburn-Labs/toolplan/pkg/pathutil"
)

// rawPlanStep is the shape of one model-authored plan entry, before
// identifier assignment and reference normalization.
type rawPlanStep struct {
	ToolName  string         `json:"toolName"`
	Arguments map[string]any `json:"arguments"`
	Thought   string         `json:"thought,omitempty"`
}

// ParsePlanSteps is the entry point for both model-originated text and
// callers who already have raw JSON. Parsing failures are fatal: they are
// returned as errors, never collected.
func ParsePlanSteps(text string) ([]contracts.Step, error) {
	payload, err := locatePayload(text)
	if err != nil {
		return nil, err
	}

	strict := json5.ToStrictJSON(payload)

	var decoded []rawPlanStep
	if err := json.Unmarshal([]byte(strict), &decoded); err != nil {
		return nil, fmt.Errorf("invalid json parsing: %w", err)
	}

	idOfIndex := make(map[int]string, len(decoded))
	steps := make([]contracts.Step, len(decoded))
	for i, raw := range decoded {
		if raw.ToolName == "" {
			return nil, fmt.Errorf("invalid json parsing: step %d missing toolName", i)
		}
		id := uuid.New().String()
		idOfIndex[i] = id
		steps[i] = contracts.Step{
			ID:       id,
			ToolName: raw.ToolName,
			Thought:  raw.Thought,
		}
	}

	for i, raw := range decoded {
		args, err := transformParamsValue(raw.Arguments, idOfIndex)
		if err != nil {
			return nil, err
		}
		argsMap, ok := args.(map[string]any)
		if !ok {
			argsMap = map[string]any{}
		}
		steps[i].Arguments = argsMap
	}

	return steps, nil
}

// locatePayload finds the span from the first opening bracket ('{' or
// '[') to the last closing bracket ('}' or ']'), trimming stray
// surrounding characters (fence markers, prose) left by the model.
func locatePayload(text string) (string, error) {
	trimmed := strings.TrimSpace(text)

	startBrace := strings.IndexByte(trimmed, '{')
	startBracket := strings.IndexByte(trimmed, '[')
	start := minIgnoringAbsent(startBrace, startBracket)

	endBrace := strings.LastIndexByte(trimmed, '}')
	endBracket := strings.LastIndexByte(trimmed, ']')
	end := maxIgnoringAbsent(endBrace, endBracket)

	if start == -1 || end == -1 || end < start {
		return "", fmt.Errorf("invalid json parsing: no JSON payload found")
	}
	return trimmed[start : end+1], nil
}

func minIgnoringAbsent(a, b int) int {
	if a == -1 {
		return b
	}
	if b == -1 {
		return a
	}
	if a < b {
		return a
	}
	return b
}

func maxIgnoringAbsent(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// transformParamsValue recursively lowers a decoded arguments tree into
// its normalized form: strings become template references where the
// template compiler finds bound placeholders; raw dependency reference
// objects ({fromStep: int, outputKey: string}) are rewritten to the
// normalized {$fromStep, $outputKey} shape; everything else recurses or
// passes through unchanged.
func transformParamsValue(v any, idOfIndex map[int]string) (any, error) {
	switch node := v.(type) {
	case []any:
		out := make([]any, len(node))
		for i, elem := range node {
			t, err := transformParamsValue(elem, idOfIndex)
			if err != nil {
				return nil, err
			}
			out[i] = t
		}
		return out, nil
	case string:
		if tmpl, ok := compileTemplate(node, idOfIndex); ok {
			return tmpl, nil
		}
		return node, nil
	case map[string]any:
		if fromStep, outputKey, ok := rawDependencyRef(node); ok {
			id, known := idOfIndex[fromStep]
			if !known {
				return nil, fmt.Errorf("invalid dependency reference: step index %d not found in plan", fromStep)
			}
			return contracts.NewDependencyRef(id, pathutil.Normalize(outputKey)), nil
		}
		out := make(map[string]any, len(node))
		for k, elem := range node {
			t, err := transformParamsValue(elem, idOfIndex)
			if err != nil {
				return nil, err
			}
			out[k] = t
		}
		return out, nil
	default:
		// primitives: number (float64), bool, nil.
		return node, nil
	}
}

// rawDependencyRef recognizes the pre-normalization shape a model may
// emit: {"fromStep": <integer>, "outputKey": <string>}.
func rawDependencyRef(m map[string]any) (fromStep int, outputKey string, ok bool) {
	fs, hasFS := m[contracts.RawDependencyFromStep]
	ok_, hasOK := m[contracts.RawDependencyOutputKey]
	if !hasFS || !hasOK {
		return 0, "", false
	}
	outStr, outOk := ok_.(string)
	if !outOk {
		return 0, "", false
	}
	switch n := fs.(type) {
	case float64:
		if n != float64(int(n)) {
			return 0, "", false
		}
		return int(n), outStr, true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, "", false
		}
		return int(i), outStr, true
	case int:
		return n, outStr, true
	default:
		return 0, "", false
	}
}
