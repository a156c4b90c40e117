// Package validator implements IsValidPlan: a pure, side-effect-free
// check that every dependency and template reference in a plan resolves
// to a tool that exists, a step that exists, and an output type
// assignable to the consuming argument's declared type.
package validator

// Code identifies the class of a validation failure.
type Code string

const (
	CodeSchemaParseError      Code = "schema_parse_error"
	CodeToolNotFound          Code = "tool_not_found"
	CodeDependencyStepMissing Code = "dependency_step_missing"
	CodeInputKeyMissing       Code = "input_key_missing"
	CodeOutputKeyMissing      Code = "output_key_missing"
	CodeTypeMismatch          Code = "type_mismatch"
)

// Error is one reported violation. Fields beyond Code and Message are
// populated when applicable to that error's class.
type Error struct {
	Code         Code     `json:"code"`
	Message      string   `json:"message"`
	StepID       string   `json:"stepId,omitempty"`
	ToolName     string   `json:"toolName,omitempty"`
	ArgumentPath string   `json:"argumentPath,omitempty"`
	FromStepID   string   `json:"fromStepId,omitempty"`
	OutputPath   string   `json:"outputPath,omitempty"`
	ExpectedType []string `json:"expectedType,omitempty"`
	ActualType   []string `json:"actualType,omitempty"`
}

// Result is the outcome of IsValidPlan: Valid is the conjunction of every
// collected error's absence; Errors is never nil-checked for emptiness by
// callers, only Valid is.
type Result struct {
	Valid  bool    `json:"valid"`
	Errors []Error `json:"errors"`
}
