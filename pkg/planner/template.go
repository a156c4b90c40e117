package planner

import (
	"regexp"
	"strconv"

	"github.com/Mindburn-Labs/toolplan/pkg/contracts"
	"github.com/Mindburn-Labs/toolplan/pkg/pathutil"
)

// templatePattern matches {n} or {n.dotted.path[0]}: integer n names a
// step by its original, pre-identifier index.
var templatePattern = regexp.MustCompile(`\{(\d+)(?:\.([^}]+))?\}`)

// compileTemplate lowers the authoring notation "Hello {0.name}" into a
// uniform positional-template form. For each match whose index is not in
// idOfIndex, the match text is left verbatim in the output. If the scan
// produces zero successfully-bound values, it returns (nil, false) and
// the caller keeps the original string unchanged — this is a deliberate
// spec inconsistency (an all-unresolvable template is not distinguished
// from a plain string) that must be preserved.
func compileTemplate(s string, idOfIndex map[int]string) (any, bool) {
	matches := templatePattern.FindAllStringSubmatchIndex(s, -1)
	if len(matches) == 0 {
		return nil, false
	}

	var values []any
	var out []byte
	last := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		out = append(out, s[last:start]...)

		idxStr := s[m[2]:m[3]]
		n, err := strconv.Atoi(idxStr)
		hasPath := m[4] != -1
		var pathStr string
		if hasPath {
			pathStr = s[m[4]:m[5]]
		}

		var id string
		var known bool
		if err == nil {
			id, known = idOfIndex[n]
		}
		if !known {
			out = append(out, s[start:end]...)
			last = end
			continue
		}

		outputKey := ""
		if hasPath {
			outputKey = pathutil.Normalize(pathStr)
		}
		values = append(values, contracts.NewDependencyRef(id, outputKey))
		out = append(out, '{')
		out = append(out, []byte(strconv.Itoa(len(values)-1))...)
		out = append(out, '}')
		last = end
	}
	out = append(out, s[last:]...)

	if len(values) == 0 {
		return nil, false
	}
	return contracts.NewTemplateRef(string(out), values), true
}
