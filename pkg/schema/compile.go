package schema

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/Mindburn-Labs/toolplan/pkg/json5"
)

// CompileText parses raw schema text JSON5-tolerantly, sanity-checks it
// against the JSON-Schema meta-schema using jsonschema.Compiler, then
// compiles the decoded document into a Node tree. The jsonschema.Compiler
// pass exists purely as a gate against malformed or structurally invalid
// schemas — the actual Node tree is built by the hand-rolled walk below,
// since the validator needs the schema as a structural type, not a
// validate(data) callable.
func CompileText(name, schemaText string) (*Node, error) {
	strict := json5.ToStrictJSON(schemaText)
	resourceURL := fmt.Sprintf("https://toolplan.local/schema/%s.schema.json", name)

	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(resourceURL, bytes.NewReader([]byte(strict))); err != nil {
		return nil, fmt.Errorf("schema_parse_error: %s: %w", name, err)
	}
	if _, err := compiler.Compile(resourceURL); err != nil {
		return nil, fmt.Errorf("schema_parse_error: %s: %w", name, err)
	}

	var doc map[string]any
	if err := json.Unmarshal([]byte(strict), &doc); err != nil {
		return nil, fmt.Errorf("schema_parse_error: %s: %w", name, err)
	}
	return Compile(doc)
}

// Compile turns a decoded JSON-Schema document into a Node tree.
func Compile(raw any) (*Node, error) {
	switch v := raw.(type) {
	case bool:
		if v {
			return &Node{Kind: KindAny}, nil
		}
		return &Node{Kind: KindUnknown}, nil
	case map[string]any:
		return compileObject(v)
	case nil:
		return &Node{Kind: KindAny}, nil
	default:
		return nil, fmt.Errorf("schema_parse_error: schema node must be an object or boolean, got %T", raw)
	}
}

func compileObject(m map[string]any) (*Node, error) {
	node, err := compileBase(m)
	if err != nil {
		return nil, err
	}
	if def, ok := m["default"]; ok {
		node = &Node{Kind: KindDefault, Inner: node, Default: def}
	}
	return node, nil
}

func compileBase(m map[string]any) (*Node, error) {
	if constVal, ok := m["const"]; ok {
		return &Node{Kind: KindLiteral, Literal: constVal}, nil
	}
	if enumVal, ok := m["enum"]; ok {
		values, ok := enumVal.([]any)
		if !ok {
			return nil, fmt.Errorf("schema_parse_error: enum must be an array")
		}
		return &Node{Kind: KindEnum, EnumValues: values}, nil
	}
	if anyOf, ok := m["anyOf"]; ok {
		opts, err := compileList(anyOf)
		if err != nil {
			return nil, err
		}
		return &Node{Kind: KindUnion, Options: opts}, nil
	}
	if oneOf, ok := m["oneOf"]; ok {
		opts, err := compileList(oneOf)
		if err != nil {
			return nil, err
		}
		return &Node{Kind: KindExclusiveUnion, Options: opts}, nil
	}

	switch t := m["type"].(type) {
	case string:
		return compileTypeKeyword(t, m)
	case []any:
		return compileTypeArray(t, m)
	case nil:
		return compileUntyped(m)
	default:
		return nil, fmt.Errorf("schema_parse_error: unsupported type keyword %T", t)
	}
}

// compileUntyped handles schemas that omit "type" but imply one via
// "properties" (object) or "items"/"prefixItems" (array), or otherwise
// impose no constraint at all (the empty schema {}).
func compileUntyped(m map[string]any) (*Node, error) {
	if _, ok := m["properties"]; ok {
		return compileTypeKeyword("object", m)
	}
	if _, ok := m["items"]; ok {
		return compileTypeKeyword("array", m)
	}
	if _, ok := m["prefixItems"]; ok {
		return compileTypeKeyword("array", m)
	}
	if len(m) == 0 {
		return &Node{Kind: KindAny}, nil
	}
	return &Node{Kind: KindAny}, nil
}

func compileList(raw any) ([]*Node, error) {
	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("schema_parse_error: expected array of schemas")
	}
	out := make([]*Node, len(list))
	for i, entry := range list {
		n, err := Compile(entry)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

// compileTypeArray handles JSON-Schema's "type": [...] form. The common
// two-entry ["X", "null"] shape collapses to KindNullable(X); anything
// wider becomes a plain union of each named primitive type, "null"
// included, which the union machinery already handles correctly.
func compileTypeArray(types []any, m map[string]any) (*Node, error) {
	names := make([]string, 0, len(types))
	for _, t := range types {
		s, ok := t.(string)
		if !ok {
			return nil, fmt.Errorf("schema_parse_error: type array entries must be strings")
		}
		names = append(names, s)
	}

	hasNull := false
	others := names[:0:0]
	for _, n := range names {
		if n == "null" {
			hasNull = true
		} else {
			others = append(others, n)
		}
	}

	if hasNull && len(others) == 1 {
		inner, err := compileTypeKeyword(others[0], m)
		if err != nil {
			return nil, err
		}
		return &Node{Kind: KindNullable, Inner: inner}, nil
	}

	opts := make([]*Node, 0, len(names))
	for _, n := range names {
		opt, err := compileTypeKeyword(n, m)
		if err != nil {
			return nil, err
		}
		opts = append(opts, opt)
	}
	return &Node{Kind: KindUnion, Options: opts}, nil
}

func compileTypeKeyword(t string, m map[string]any) (*Node, error) {
	switch t {
	case "string":
		return &Node{Kind: KindString}, nil
	case "number", "integer":
		return &Node{Kind: KindNumber}, nil
	case "boolean":
		return &Node{Kind: KindBoolean}, nil
	case "null":
		return &Node{Kind: KindNull}, nil
	case "array":
		return compileArray(m)
	case "object":
		return compileObjectType(m)
	default:
		return nil, fmt.Errorf("schema_parse_error: unsupported type %q", t)
	}
}

func compileArray(m map[string]any) (*Node, error) {
	if prefixItems, ok := m["prefixItems"]; ok {
		entries, err := compileList(prefixItems)
		if err != nil {
			return nil, err
		}
		union := &Node{Kind: KindUnion, Options: entries}
		if len(entries) == 1 {
			union = entries[0]
		}
		return &Node{Kind: KindTuple, Tuple: entries, Element: union}, nil
	}
	if items, ok := m["items"]; ok {
		el, err := Compile(items)
		if err != nil {
			return nil, err
		}
		return &Node{Kind: KindArray, Element: el}, nil
	}
	return &Node{Kind: KindArray, Element: &Node{Kind: KindAny}}, nil
}

func compileObjectType(m map[string]any) (*Node, error) {
	required := map[string]bool{}
	if reqRaw, ok := m["required"]; ok {
		list, ok := reqRaw.([]any)
		if !ok {
			return nil, fmt.Errorf("schema_parse_error: required must be an array")
		}
		for _, r := range list {
			if s, ok := r.(string); ok {
				required[s] = true
			}
		}
	}

	fields := map[string]*Node{}
	if propsRaw, ok := m["properties"]; ok {
		props, ok := propsRaw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("schema_parse_error: properties must be an object")
		}
		for key, propSchema := range props {
			child, err := Compile(propSchema)
			if err != nil {
				return nil, fmt.Errorf("schema_parse_error: property %q: %w", key, err)
			}
			if !required[key] {
				child = &Node{Kind: KindOptional, Inner: child}
			}
			fields[key] = child
		}
	}

	node := &Node{Kind: KindObject, Fields: fields}

	switch ap := m["additionalProperties"].(type) {
	case bool:
		if ap {
			node.Catchall = &Node{Kind: KindAny}
		}
	case map[string]any:
		child, err := compileObject(ap)
		if err != nil {
			return nil, err
		}
		node.Catchall = child
	case nil:
		if len(fields) == 0 {
			node.Catchall = &Node{Kind: KindAny}
		}
	}

	return node, nil
}

