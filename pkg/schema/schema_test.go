package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mindburn-Labs/toolplan/pkg/pathutil"
)

func mustCompile(t *testing.T, text string) *Node {
	t.Helper()
	n, err := CompileText("t", text)
	require.NoError(t, err)
	return n
}

func TestCompileObjectWithRequiredAndOptional(t *testing.T) {
	n := mustCompile(t, `{"type":"object","properties":{"a":{"type":"string"},"b":{"type":"number"}},"required":["a"]}`)
	require.Equal(t, KindObject, n.Kind)
	assert.Equal(t, KindString, n.Fields["a"].Kind)
	assert.Equal(t, KindOptional, n.Fields["b"].Kind)
	assert.Equal(t, KindNumber, n.Fields["b"].Inner.Kind)
}

func TestCompileNullableFromTypeArray(t *testing.T) {
	n := mustCompile(t, `{"type":["string","null"]}`)
	require.Equal(t, KindNullable, n.Kind)
	assert.Equal(t, KindString, n.Inner.Kind)
}

func TestCompileTupleElementIsUnionOfPrefixEntries(t *testing.T) {
	n := mustCompile(t, `{"type":"array","prefixItems":[{"type":"string"},{"type":"number"}]}`)
	require.Equal(t, KindTuple, n.Kind)
	require.Equal(t, KindUnion, n.Element.Kind)
	require.Len(t, n.Element.Options, 2)
}

func TestResolveAtPathUnwrapsWrappers(t *testing.T) {
	n := mustCompile(t, `{"type":"object","properties":{"a":{"type":"string","default":"x"}}}`)
	resolved, ok := ResolveAtPath(n, pathutil.Parse("a"))
	require.True(t, ok)
	assert.Equal(t, KindString, resolved.Kind)
}

func TestResolveAtPathUnionCollapsesToSingleSurvivor(t *testing.T) {
	n := mustCompile(t, `{"type":"object","properties":{"platformInfo":{"anyOf":[
		{"type":"object","properties":{"contractAddress":{"type":"string"}},"required":["contractAddress"]},
		{"type":"null"}
	]}}}`)
	resolved, ok := ResolveAtPath(n, pathutil.Parse("platformInfo.contractAddress"))
	require.True(t, ok)
	assert.Equal(t, KindString, resolved.Kind)
}

func TestResolveAtPathCatchallPermitsUnknownKey(t *testing.T) {
	n := mustCompile(t, `{"type":"object"}`)
	resolved, ok := ResolveAtPath(n, pathutil.Parse("anything"))
	require.True(t, ok)
	assert.Equal(t, KindAny, resolved.Kind)
}

func TestResolveAtPathFailsPastPrimitive(t *testing.T) {
	n := mustCompile(t, `{"type":"object","properties":{"a":{"type":"string"}},"required":["a"]}`)
	_, ok := ResolveAtPath(n, pathutil.Parse("a.b"))
	assert.False(t, ok)
}

func TestResolveAtPathArrayIndexAdvancesToElement(t *testing.T) {
	n := mustCompile(t, `{"type":"array","items":{"type":"number"}}`)
	resolved, ok := ResolveAtPath(n, pathutil.Parse("[0]"))
	require.True(t, ok)
	assert.Equal(t, KindNumber, resolved.Kind)
}

func TestAssignableAnyAbsorbsEverything(t *testing.T) {
	assert.True(t, Assignable(&Node{Kind: KindAny}, &Node{Kind: KindString}))
	assert.True(t, Assignable(&Node{Kind: KindString}, &Node{Kind: KindAny}))
}

func TestAssignableExpectedUnionSucceedsOnOneOption(t *testing.T) {
	expected := &Node{Kind: KindUnion, Options: []*Node{{Kind: KindString}, {Kind: KindNumber}}}
	assert.True(t, Assignable(expected, &Node{Kind: KindNumber}))
	assert.False(t, Assignable(expected, &Node{Kind: KindBoolean}))
}

func TestAssignableObjectRequiredFieldMustBePresent(t *testing.T) {
	expected := &Node{Kind: KindObject, Fields: map[string]*Node{
		"a": {Kind: KindString},
	}}
	actual := &Node{Kind: KindObject, Fields: map[string]*Node{}}
	assert.False(t, Assignable(expected, actual))
}

func TestAssignableObjectOptionalFieldNotRequired(t *testing.T) {
	expected := &Node{Kind: KindObject, Fields: map[string]*Node{
		"a": {Kind: KindOptional, Inner: &Node{Kind: KindString}},
	}}
	actual := &Node{Kind: KindObject, Fields: map[string]*Node{}}
	assert.True(t, Assignable(expected, actual))
}

func TestAssignableObjectExtraActualFieldsAllowed(t *testing.T) {
	expected := &Node{Kind: KindObject, Fields: map[string]*Node{}}
	actual := &Node{Kind: KindObject, Fields: map[string]*Node{
		"extra": {Kind: KindString},
	}}
	assert.True(t, Assignable(expected, actual))
}

func TestAssignableArrayElementsCompared(t *testing.T) {
	expected := &Node{Kind: KindArray, Element: &Node{Kind: KindString}}
	actual := &Node{Kind: KindArray, Element: &Node{Kind: KindNumber}}
	assert.False(t, Assignable(expected, actual))
}

func TestTypesOfEnumOfStringsCountsAsString(t *testing.T) {
	n := &Node{Kind: KindEnum, EnumValues: []any{"a", "b", "c"}}
	set := TypesOf(n)
	assert.True(t, set["string"])
	assert.Len(t, set, 1)
}

func TestTypesOfUnionIsUnionOfOptionTypes(t *testing.T) {
	n := &Node{Kind: KindUnion, Options: []*Node{{Kind: KindString}, {Kind: KindNull}}}
	set := TypesOf(n)
	assert.True(t, set["string"])
	assert.True(t, set["null"])
}
