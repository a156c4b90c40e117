// Package planner converts a loosely-structured model response into a
// normalized, typed Plan: it extracts the <think>/<plan> payload,
// tolerates JSON5 and code-fence noise, assigns fresh step identifiers,
// and rewrites raw numeric references and template strings into the
// normalized reference shapes the validator and executor expect.
package planner

import (
	"regexp"
	"strings"
)

var (
	thinkPattern = regexp.MustCompile(`(?s)<think>(.*?)</think>`)
	planPattern  = regexp.MustCompile(`(?s)<plan>(.*?)</plan>`)
)

// ModelOutput is the think/plan payload extracted from raw model text.
type ModelOutput struct {
	Think string
	Plan  string
	// HasPlan distinguishes an empty <plan></plan> block (HasPlan=true,
	// Plan="") from a model response that never emitted a plan tag at
	// all (HasPlan=false) — the model may legitimately refuse to plan.
	HasPlan bool
}

// ParseModelOutput extracts the text between <think>...</think> and
// <plan>...</plan> using non-greedy matching across newlines. If the
// plan tag is absent, HasPlan is false (not an error). Extracted
// segments are trimmed.
func ParseModelOutput(raw string) ModelOutput {
	out := ModelOutput{}
	if m := thinkPattern.FindStringSubmatch(raw); m != nil {
		out.Think = strings.TrimSpace(m[1])
	}
	if m := planPattern.FindStringSubmatch(raw); m != nil {
		out.Plan = strings.TrimSpace(m[1])
		out.HasPlan = true
	}
	return out
}
