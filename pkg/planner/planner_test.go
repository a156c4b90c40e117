package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mindburn-Labs/toolplan/pkg/contracts"
)

func TestParseModelOutputBothTags(t *testing.T) {
	raw := "prelude <think>reasoning here</think> junk <plan>[{\"toolName\":\"x\",\"arguments\":{}}]</plan> trailer"
	out := ParseModelOutput(raw)
	assert.Equal(t, "reasoning here", out.Think)
	assert.True(t, out.HasPlan)
	assert.Equal(t, `[{"toolName":"x","arguments":{}}]`, out.Plan)
}

func TestParseModelOutputNoPlanTag(t *testing.T) {
	out := ParseModelOutput("<think>I refuse</think>")
	assert.False(t, out.HasPlan)
	assert.Equal(t, "", out.Plan)
}

func TestParsePlanStepsBasic(t *testing.T) {
	text := `[{"toolName": "getWeather", "arguments": {"city": "Oslo"}}]`
	steps, err := ParsePlanSteps(text)
	require.NoError(t, err)
	require.Len(t, steps, 1)
	assert.Equal(t, "getWeather", steps[0].ToolName)
	assert.NotEmpty(t, steps[0].ID)
	assert.Equal(t, "Oslo", steps[0].Arguments["city"])
}

func TestParsePlanStepsJSON5Tolerant(t *testing.T) {
	text := "```json\n" + `[
  { // a comment
    toolName: 'getWeather',
    arguments: { city: 'Oslo', tags: ['a', 'b',], },
  },
]` + "\n```"
	steps, err := ParsePlanSteps(text)
	require.NoError(t, err)
	require.Len(t, steps, 1)
	assert.Equal(t, "getWeather", steps[0].ToolName)
	assert.Equal(t, "Oslo", steps[0].Arguments["city"])
	tags, ok := steps[0].Arguments["tags"].([]any)
	require.True(t, ok)
	assert.Equal(t, []any{"a", "b"}, tags)
}

func TestParsePlanStepsNoPayload(t *testing.T) {
	_, err := ParsePlanSteps("no brackets here")
	require.Error(t, err)
}

func TestParsePlanStepsRawDependencyReference(t *testing.T) {
	text := `[
		{"toolName": "getWeather", "arguments": {"city": "Oslo"}},
		{"toolName": "sendEmail", "arguments": {"body": {"fromStep": 0, "outputKey": "temperature"}}}
	]`
	steps, err := ParsePlanSteps(text)
	require.NoError(t, err)
	require.Len(t, steps, 2)

	ref, ok := steps[1].Arguments["body"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, steps[0].ID, ref[contracts.DependencyFromStepKey])
	assert.Equal(t, "temperature", ref[contracts.DependencyOutputKeyKey])
}

func TestParsePlanStepsRawDependencyMissingIndex(t *testing.T) {
	text := `[{"toolName": "sendEmail", "arguments": {"body": {"fromStep": 5, "outputKey": "x"}}}]`
	_, err := ParsePlanSteps(text)
	require.Error(t, err)
}

func TestParsePlanStepsNoRawReferencesRemain(t *testing.T) {
	text := `[
		{"toolName": "a", "arguments": {}},
		{"toolName": "b", "arguments": {"x": {"fromStep": 0, "outputKey": "y"}}}
	]`
	steps, err := ParsePlanSteps(text)
	require.NoError(t, err)
	ref, ok := steps[1].Arguments["x"].(map[string]any)
	require.True(t, ok)
	_, hasRaw := ref["fromStep"]
	assert.False(t, hasRaw)
	_, hasNormalized := ref[contracts.DependencyFromStepKey]
	assert.True(t, hasNormalized)
}

func TestTemplateRewrite(t *testing.T) {
	idOfIndex := map[int]string{0: "sid-A"}
	v, ok := compileTemplate("Price: {0.price} USD ({0.currency})", idOfIndex)
	require.True(t, ok)
	m := v.(map[string]any)
	assert.Equal(t, "Price: {0} USD ({1})", m[contracts.TemplateStringKey])
	values := m[contracts.TemplateValuesKey].([]any)
	require.Len(t, values, 2)
	assert.Equal(t, contracts.NewDependencyRef("sid-A", "price"), values[0])
	assert.Equal(t, contracts.NewDependencyRef("sid-A", "currency"), values[1])
}

func TestTemplateAllUnresolvedReturnsOriginal(t *testing.T) {
	_, ok := compileTemplate("See {9} for details", map[int]string{0: "sid-A"})
	assert.False(t, ok)
}

func TestTemplateNoPlaceholdersUnchanged(t *testing.T) {
	_, ok := compileTemplate("just a string", map[int]string{0: "sid-A"})
	assert.False(t, ok)
}

func TestTemplateDuplicatePathYieldsTwoEntries(t *testing.T) {
	v, ok := compileTemplate("{0.x} and {0.x}", map[int]string{0: "sid-A"})
	require.True(t, ok)
	m := v.(map[string]any)
	values := m[contracts.TemplateValuesKey].([]any)
	require.Len(t, values, 2)
	assert.Equal(t, values[0], values[1])
	assert.Equal(t, "{0} and {1}", m[contracts.TemplateStringKey])
}
