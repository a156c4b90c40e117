package executor

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/Mindburn-Labs/toolplan/pkg/pathutil"
)

// maxResolveDepth bounds recursion over an argument tree during
// resolution, mirroring pathutil's traversal depth guard.
const maxResolveDepth = 128

// resolveValue lowers a step's argument tree to concrete values by
// substituting dependency and template references with data from
// completed steps' outputs. The executor only ever dispatches a step
// whose dependencies are already done, so a missing output here is
// defensive, not an expected path.
func resolveValue(v any, st *state) (any, error) {
	return resolveValueDepth(v, st, 0)
}

func resolveValueDepth(v any, st *state, depth int) (any, error) {
	if depth > maxResolveDepth {
		return nil, fmt.Errorf("argument tree exceeds maximum nesting depth")
	}
	switch node := v.(type) {
	case []any:
		out := make([]any, len(node))
		for i, elem := range node {
			r, err := resolveValueDepth(elem, st, depth+1)
			if err != nil {
				return nil, err
			}
			out[i] = r
		}
		return out, nil
	case map[string]any:
		if fromStep, outputKey, ok := pathutil.IsDependencyRef(node); ok {
			return resolveDependency(fromStep, outputKey, st)
		}
		if tmpl, values, ok := pathutil.IsTemplateRef(node); ok {
			return resolveTemplate(tmpl, values, st, depth)
		}
		out := make(map[string]any, len(node))
		for k, elem := range node {
			r, err := resolveValueDepth(elem, st, depth+1)
			if err != nil {
				return nil, err
			}
			out[k] = r
		}
		return out, nil
	default:
		return node, nil
	}
}

func resolveDependency(fromStep, outputKey string, st *state) (any, error) {
	output, ok := st.getOutput(fromStep)
	if !ok {
		return nil, fmt.Errorf("Step %s output not found", fromStep)
	}
	value, _ := pathutil.GetNestedValue(output, pathutil.Parse(outputKey))
	return value, nil
}

// resolveTemplate resolves every entry of values (each itself a
// dependency reference or nested structure), stringifies it, and
// substitutes the first remaining occurrence of "{i}" in the
// accumulator, left to right.
func resolveTemplate(tmpl string, values []any, st *state, depth int) (any, error) {
	acc := tmpl
	for i, v := range values {
		resolved, err := resolveValueDepth(v, st, depth+1)
		if err != nil {
			return nil, err
		}
		placeholder := "{" + strconv.Itoa(i) + "}"
		acc = strings.Replace(acc, placeholder, stringify(resolved), 1)
	}
	return acc, nil
}

// stringify renders a resolved value the way it would be spliced into a
// template string: primitives render as their natural text form, objects
// and arrays render as compact JSON.
func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(b)
	}
}
