// Package pathutil parses and formats the dotted-with-brackets path
// notation used to address nested values inside a step's arguments or a
// tool's output, and walks argument trees to find embedded references.
package pathutil

import (
	"strconv"
	"strings"
)

// Segment is one element of a Path: either a string object key or a
// non-negative integer array index.
type Segment struct {
	Key     string
	Index   int
	IsIndex bool
}

// Path is an ordered sequence of Segments.
type Path []Segment

func stringSeg(s string) Segment { return Segment{Key: s} }
func indexSeg(i int) Segment     { return Segment{Index: i, IsIndex: true} }

// IsNumericString reports whether s consists only of decimal digits
// (and is non-empty). A naked numeric dotted segment stays a string at
// parse time; callers who must treat it as an index call this explicitly.
func IsNumericString(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Parse accepts mixed notation: a.b, a[0], a["k"], a['k'], a.0.b.
// Numeric bracket segments become integer indices; quoted bracket
// segments become string keys. Empty segments (leading, trailing,
// repeated dots) are discarded. A naked numeric dotted segment like "0"
// stays a string.
func Parse(s string) Path {
	var path Path
	var buf strings.Builder
	flushDotted := func() {
		if buf.Len() > 0 {
			path = append(path, stringSeg(buf.String()))
			buf.Reset()
		}
	}

	runes := []rune(s)
	i := 0
	for i < len(runes) {
		r := runes[i]
		switch {
		case r == '.':
			flushDotted()
			i++
		case r == '[':
			flushDotted()
			j := i + 1
			for j < len(runes) && runes[j] != ']' {
				j++
			}
			inner := string(runes[i+1 : j])
			path = append(path, parseBracketSegment(inner))
			if j < len(runes) {
				j++ // skip ']'
			}
			i = j
		default:
			buf.WriteRune(r)
			i++
		}
	}
	flushDotted()
	return path
}

func parseBracketSegment(inner string) Segment {
	trimmed := strings.TrimSpace(inner)
	if len(trimmed) >= 2 {
		if (trimmed[0] == '"' && trimmed[len(trimmed)-1] == '"') ||
			(trimmed[0] == '\'' && trimmed[len(trimmed)-1] == '\'') {
			return stringSeg(trimmed[1 : len(trimmed)-1])
		}
	}
	if n, err := strconv.Atoi(trimmed); err == nil && n >= 0 && IsNumericString(trimmed) {
		return indexSeg(n)
	}
	return stringSeg(trimmed)
}

// Format renders a Path back to its canonical mixed notation. Integer
// segments render as [i]; string segments render with "." separators
// (the first segment has no leading dot).
func Format(p Path) string {
	var b strings.Builder
	for i, seg := range p {
		if seg.IsIndex {
			b.WriteByte('[')
			b.WriteString(strconv.Itoa(seg.Index))
			b.WriteByte(']')
			continue
		}
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(seg.Key)
	}
	return b.String()
}

// Normalize canonicalizes a path string's bracket/quote notation to the
// canonical mixed form: Format(Parse(s)).
func Normalize(s string) string {
	return Format(Parse(s))
}

// GetNestedValue walks object keys and array indices. It returns
// (nil, false) on any missing key, null/undefined intermediate,
// out-of-range index, or negative index.
func GetNestedValue(value any, p Path) (any, bool) {
	cur := value
	for _, seg := range p {
		if cur == nil {
			return nil, false
		}
		switch node := cur.(type) {
		case []any:
			idx, ok := segAsIndex(seg)
			if !ok || idx < 0 || idx >= len(node) {
				return nil, false
			}
			cur = node[idx]
		case map[string]any:
			key := seg.Key
			if seg.IsIndex {
				key = strconv.Itoa(seg.Index)
			}
			v, ok := node[key]
			if !ok {
				return nil, false
			}
			cur = v
		default:
			return nil, false
		}
	}
	return cur, true
}

// segAsIndex resolves a segment against an array/tuple node: an integer
// segment is used directly; a string segment of decimal digits is
// coerced to an index.
func segAsIndex(seg Segment) (int, bool) {
	if seg.IsIndex {
		return seg.Index, true
	}
	if IsNumericString(seg.Key) {
		n, err := strconv.Atoi(seg.Key)
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

// DependencyRef and TemplateRef mirror the shapes recognized by shape,
// not static type, per the spec's reference-recognition rule: a map
// with both "$fromStep" and "$outputKey" keys is a dependency reference;
// a map with both "$fromTemplateString" and an array "$values" is a
// template reference. Arrays and nil are never references.

// IsDependencyRef reports whether v is shaped like a dependency reference.
func IsDependencyRef(v any) (fromStep string, outputKey string, ok bool) {
	m, isMap := v.(map[string]any)
	if !isMap {
		return "", "", false
	}
	fs, hasFS := m["$fromStep"]
	ok_, hasOK := m["$outputKey"]
	if !hasFS || !hasOK {
		return "", "", false
	}
	fsStr, fsOk := fs.(string)
	okStr, okOk := ok_.(string)
	if !fsOk || !okOk {
		return "", "", false
	}
	return fsStr, okStr, true
}

// IsTemplateRef reports whether v is shaped like a template reference.
func IsTemplateRef(v any) (tmpl string, values []any, ok bool) {
	m, isMap := v.(map[string]any)
	if !isMap {
		return "", nil, false
	}
	t, hasT := m["$fromTemplateString"]
	vals, hasV := m["$values"]
	if !hasT || !hasV {
		return "", nil, false
	}
	tStr, tOk := t.(string)
	valsArr, valsOk := vals.([]any)
	if !tOk || !valsOk {
		return "", nil, false
	}
	return tStr, valsArr, true
}

// TraverseReferences recursively visits value. If value is shaped like a
// dependency reference, onDependency fires and the visitor does not
// descend. If it is shaped like a template reference, onTemplate fires
// and the visitor does not descend. Arrays and objects recurse into
// their elements/entries; primitives and nil are ignored. The root value
// itself may match, in which case the callback fires with an empty path.
func TraverseReferences(value any, onDependency func(fromStep, outputKey string, path Path), onTemplate func(tmpl string, values []any, path Path)) {
	traverse(value, onDependency, onTemplate, Path{}, 0)
}

// maxTraverseDepth bounds recursion over argument trees. References can't
// actually cycle (they carry step identifiers by value, not pointers), but
// a pathologically deep literal value — however it got there — shouldn't
// be able to blow the stack.
const maxTraverseDepth = 128

func traverse(value any, onDependency func(fromStep, outputKey string, path Path), onTemplate func(tmpl string, values []any, path Path), path Path, depth int) {
	if depth > maxTraverseDepth {
		return
	}
	if fromStep, outputKey, ok := IsDependencyRef(value); ok {
		onDependency(fromStep, outputKey, path)
		return
	}
	if tmpl, values, ok := IsTemplateRef(value); ok {
		onTemplate(tmpl, values, path)
		return
	}
	switch node := value.(type) {
	case []any:
		for i, elem := range node {
			traverse(elem, onDependency, onTemplate, append(append(Path{}, path...), indexSeg(i)), depth+1)
		}
	case map[string]any:
		for k, v := range node {
			traverse(v, onDependency, onTemplate, append(append(Path{}, path...), stringSeg(k)), depth+1)
		}
	}
}

// ExtractDependencyStepIds collects the $fromStep of every dependency
// reference and every entry of every template reference's $values,
// preserving order of first occurrence and removing duplicates.
func ExtractDependencyStepIds(args map[string]any) []string {
	seen := make(map[string]bool)
	var order []string
	add := func(id string) {
		if !seen[id] {
			seen[id] = true
			order = append(order, id)
		}
	}
	TraverseReferences(args, func(fromStep, _ string, _ Path) {
		add(fromStep)
	}, func(_ string, values []any, _ Path) {
		for _, v := range values {
			if fromStep, _, ok := IsDependencyRef(v); ok {
				add(fromStep)
			}
		}
	})
	return order
}
