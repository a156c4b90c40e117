// Package json5 widens strict JSON's grammar to the tolerant dialect the
// spec requires in two places: model-authored plan text and tool schema
// documents. No third-party JSON5 parser appears anywhere in the
// retrieval pack (see DESIGN.md), so this is a small hand-rolled lexer.
package json5

import (
	"regexp"
	"strings"
)

// ToStrictJSON accepts unquoted identifier keys, trailing commas,
// single-quoted strings, and line/block comments, and rewrites them down
// to strict JSON that encoding/json can decode.
//
// It first splits the input into string-literal and code segments (so
// later rewrites never touch string contents), normalizes every string
// literal to a double-quoted JSON string, then regex-rewrites the
// remaining code segments for unquoted keys and trailing commas.
func ToStrictJSON(s string) string {
	segs := splitSegments(s)
	var b strings.Builder
	for _, seg := range segs {
		if seg.isString {
			b.WriteString(toJSONStringLiteral(seg.text))
		} else {
			b.WriteString(rewriteCode(seg.text))
		}
	}
	return b.String()
}

type segment struct {
	isString bool
	text     string // for strings: raw inner content (escapes intact); for code: as-is
}

// splitSegments separates string literals (single- or double-quoted,
// respecting backslash escapes) from surrounding code, and strips line
// (//) and block (/* */) comments that appear outside of strings.
func splitSegments(s string) []segment {
	var segs []segment
	var code strings.Builder
	flush := func() {
		if code.Len() > 0 {
			segs = append(segs, segment{text: code.String()})
			code.Reset()
		}
	}

	n := len(s)
	i := 0
	for i < n {
		c := s[i]
		switch {
		case c == '"' || c == '\'':
			flush()
			quote := c
			j := i + 1
			var str strings.Builder
			for j < n {
				if s[j] == '\\' && j+1 < n {
					str.WriteByte(s[j])
					str.WriteByte(s[j+1])
					j += 2
					continue
				}
				if s[j] == quote {
					break
				}
				str.WriteByte(s[j])
				j++
			}
			segs = append(segs, segment{isString: true, text: str.String()})
			i = j + 1
		case c == '/' && i+1 < n && s[i+1] == '/':
			j := i + 2
			for j < n && s[j] != '\n' {
				j++
			}
			i = j
		case c == '/' && i+1 < n && s[i+1] == '*':
			j := i + 2
			for j+1 < n && !(s[j] == '*' && s[j+1] == '/') {
				j++
			}
			i = j + 2
		default:
			code.WriteByte(c)
			i++
		}
	}
	flush()
	return segs
}

// toJSONStringLiteral renders the raw inner content of a single- or
// double-quoted source literal as a valid double-quoted JSON string.
func toJSONStringLiteral(raw string) string {
	raw = strings.ReplaceAll(raw, `\'`, `'`)
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		switch {
		case c == '"':
			b.WriteString(`\"`)
		case c == '\\' && i+1 < len(raw):
			b.WriteByte(c)
			b.WriteByte(raw[i+1])
			i++
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
	return b.String()
}

var (
	unquotedKeyPattern = regexp.MustCompile(`([{,]\s*)([A-Za-z_$][A-Za-z0-9_$]*)(\s*):`)
	trailingCommaRe    = regexp.MustCompile(`,(\s*)([}\]])`)
)

// rewriteCode quotes unquoted object keys and drops trailing commas in a
// code segment (string contents never reach this function).
func rewriteCode(code string) string {
	code = unquotedKeyPattern.ReplaceAllString(code, `$1"$2"$3:`)
	code = trailingCommaRe.ReplaceAllString(code, `$1$2`)
	return code
}
