package validator

import (
	"fmt"

	"github.com/Mindburn-Labs/toolplan/pkg/contracts"
	"github.com/Mindburn-Labs/toolplan/pkg/pathutil"
	"github.com/Mindburn-Labs/toolplan/pkg/schema"
)

// compiledSchemas is the cached {input, output} pair for one tool.
type compiledSchemas struct {
	input     *schema.Node
	inputErr  error
	output    *schema.Node
	outputErr error
}

// stringCoercible is the expected type used when checking a value that
// will be stringified and spliced into a template: any of these actual
// types may flow into a template placeholder.
func stringCoercible() *schema.Node {
	return &schema.Node{Kind: schema.KindUnion, Options: []*schema.Node{
		{Kind: schema.KindString},
		{Kind: schema.KindNumber},
		{Kind: schema.KindBoolean},
		{Kind: schema.KindObject},
		{Kind: schema.KindArray, Element: &schema.Node{Kind: schema.KindAny}},
	}}
}

// IsValidPlan checks every dependency and template reference in steps
// against tools' declared schemas. It never fails fast: every structural
// problem in every step is collected and returned.
func IsValidPlan(steps []contracts.Step, tools map[string]contracts.Tool) Result {
	stepsByID := make(map[string]contracts.Step, len(steps))
	for _, s := range steps {
		stepsByID[s.ID] = s
	}

	schemasByTool := make(map[string]*compiledSchemas, len(tools))
	for name, tool := range tools {
		pair := &compiledSchemas{}
		pair.input, pair.inputErr = schema.CompileText(name+".input", tool.InputSchema)
		pair.output, pair.outputErr = schema.CompileText(name+".output", tool.OutputSchema)
		schemasByTool[name] = pair
	}

	var errs []Error
	for _, step := range steps {
		tool, ok := tools[step.ToolName]
		if !ok {
			errs = append(errs, Error{
				Code:     CodeToolNotFound,
				Message:  fmt.Sprintf("tool %q not found", step.ToolName),
				StepID:   step.ID,
				ToolName: step.ToolName,
			})
			continue
		}
		pair := schemasByTool[tool.Name]
		if pair.inputErr != nil {
			errs = append(errs, Error{
				Code:     CodeSchemaParseError,
				Message:  pair.inputErr.Error(),
				StepID:   step.ID,
				ToolName: step.ToolName,
			})
			continue
		}

		pathutil.TraverseReferences(step.Arguments,
			func(fromStep, outputKey string, path pathutil.Path) {
				errs = append(errs, depCheck(step, pair.input, fromStep, outputKey, path, stepsByID, schemasByTool)...)
			},
			func(tmpl string, values []any, path pathutil.Path) {
				errs = append(errs, templateCheck(step, pair.input, values, path, stepsByID, schemasByTool)...)
			},
		)
	}

	return Result{Valid: len(errs) == 0, Errors: errs}
}

// depCheck implements the spec's Dep-Check: resolve the consumer's
// expected type at path P, resolve the source step's declared output
// type at $outputKey, and check assignability between them.
func depCheck(
	step contracts.Step,
	inputSchema *schema.Node,
	fromStep, outputKey string,
	path pathutil.Path,
	stepsByID map[string]contracts.Step,
	schemasByTool map[string]*compiledSchemas,
) []Error {
	argumentPath := pathutil.Format(path)

	expected, ok := schema.ResolveAtPath(inputSchema, path)
	if !ok {
		return []Error{{
			Code:         CodeInputKeyMissing,
			Message:      fmt.Sprintf("no input schema at %q for tool %q", argumentPath, step.ToolName),
			StepID:       step.ID,
			ToolName:     step.ToolName,
			ArgumentPath: argumentPath,
		}}
	}

	sourceStep, ok := stepsByID[fromStep]
	if !ok {
		return []Error{{
			Code:         CodeDependencyStepMissing,
			Message:      fmt.Sprintf("dependency step %q not found in plan", fromStep),
			StepID:       step.ID,
			ToolName:     step.ToolName,
			ArgumentPath: argumentPath,
			FromStepID:   fromStep,
		}}
	}

	sourcePair := schemasByTool[sourceStep.ToolName]
	if sourcePair == nil || sourcePair.outputErr != nil {
		msg := fmt.Sprintf("output schema for tool %q is unavailable", sourceStep.ToolName)
		if sourcePair != nil {
			msg = sourcePair.outputErr.Error()
		}
		return []Error{{
			Code:         CodeSchemaParseError,
			Message:      msg,
			StepID:       step.ID,
			ToolName:     step.ToolName,
			ArgumentPath: argumentPath,
			FromStepID:   fromStep,
		}}
	}

	outputPath := pathutil.Normalize(outputKey)
	actual, ok := schema.ResolveAtPath(sourcePair.output, pathutil.Parse(outputKey))
	if !ok {
		return []Error{{
			Code:         CodeOutputKeyMissing,
			Message:      fmt.Sprintf("no output schema at %q for tool %q", outputPath, sourceStep.ToolName),
			StepID:       step.ID,
			ToolName:     step.ToolName,
			ArgumentPath: argumentPath,
			FromStepID:   fromStep,
			OutputPath:   outputPath,
		}}
	}

	if !schema.Assignable(expected, actual) {
		return []Error{{
			Code:         CodeTypeMismatch,
			Message:      fmt.Sprintf("%q expects a type incompatible with %s.%s", argumentPath, sourceStep.ToolName, outputPath),
			StepID:       step.ID,
			ToolName:     step.ToolName,
			ArgumentPath: argumentPath,
			FromStepID:   fromStep,
			OutputPath:   outputPath,
			ExpectedType: typeNames(schema.TypesOf(expected)),
			ActualType:   typeNames(schema.TypesOf(actual)),
		}}
	}
	return nil
}

// templateCheck implements the spec's Template-Check: the placeholder
// position itself must accept a string, and every interpolated value
// must resolve to something string-coercible.
func templateCheck(
	step contracts.Step,
	inputSchema *schema.Node,
	values []any,
	path pathutil.Path,
	stepsByID map[string]contracts.Step,
	schemasByTool map[string]*compiledSchemas,
) []Error {
	argumentPath := pathutil.Format(path)

	expected, ok := schema.ResolveAtPath(inputSchema, path)
	if !ok {
		return []Error{{
			Code:         CodeInputKeyMissing,
			Message:      fmt.Sprintf("no input schema at %q for tool %q", argumentPath, step.ToolName),
			StepID:       step.ID,
			ToolName:     step.ToolName,
			ArgumentPath: argumentPath,
		}}
	}

	var errs []Error
	if !schema.Assignable(expected, &schema.Node{Kind: schema.KindString}) {
		errs = append(errs, Error{
			Code:         CodeTypeMismatch,
			Message:      fmt.Sprintf("%q does not accept a templated string", argumentPath),
			StepID:       step.ID,
			ToolName:     step.ToolName,
			ArgumentPath: argumentPath,
			ExpectedType: typeNames(schema.TypesOf(expected)),
			ActualType:   []string{"string"},
		})
	}

	coercible := stringCoercible()
	for _, v := range values {
		fromStep, outputKey, ok := pathutil.IsDependencyRef(v)
		if !ok {
			continue
		}
		errs = append(errs, depCheckAgainst(step, coercible, fromStep, outputKey, path, stepsByID, schemasByTool)...)
	}
	return errs
}

// depCheckAgainst runs the output-side half of Dep-Check against a
// caller-supplied expected type, used by Template-Check where the
// expected type is the fixed string-coercible set rather than a schema
// lookup.
func depCheckAgainst(
	step contracts.Step,
	expected *schema.Node,
	fromStep, outputKey string,
	path pathutil.Path,
	stepsByID map[string]contracts.Step,
	schemasByTool map[string]*compiledSchemas,
) []Error {
	argumentPath := pathutil.Format(path)

	sourceStep, ok := stepsByID[fromStep]
	if !ok {
		return []Error{{
			Code:         CodeDependencyStepMissing,
			Message:      fmt.Sprintf("dependency step %q not found in plan", fromStep),
			StepID:       step.ID,
			ToolName:     step.ToolName,
			ArgumentPath: argumentPath,
			FromStepID:   fromStep,
		}}
	}

	sourcePair := schemasByTool[sourceStep.ToolName]
	if sourcePair == nil || sourcePair.outputErr != nil {
		msg := fmt.Sprintf("output schema for tool %q is unavailable", sourceStep.ToolName)
		if sourcePair != nil {
			msg = sourcePair.outputErr.Error()
		}
		return []Error{{
			Code:         CodeSchemaParseError,
			Message:      msg,
			StepID:       step.ID,
			ToolName:     step.ToolName,
			ArgumentPath: argumentPath,
			FromStepID:   fromStep,
		}}
	}

	outputPath := pathutil.Normalize(outputKey)
	actual, ok := schema.ResolveAtPath(sourcePair.output, pathutil.Parse(outputKey))
	if !ok {
		return []Error{{
			Code:         CodeOutputKeyMissing,
			Message:      fmt.Sprintf("no output schema at %q for tool %q", outputPath, sourceStep.ToolName),
			StepID:       step.ID,
			ToolName:     step.ToolName,
			ArgumentPath: argumentPath,
			FromStepID:   fromStep,
			OutputPath:   outputPath,
		}}
	}

	if !schema.Assignable(expected, actual) {
		return []Error{{
			Code:         CodeTypeMismatch,
			Message:      fmt.Sprintf("templated value at %q expects a string-coercible type incompatible with %s.%s", argumentPath, sourceStep.ToolName, outputPath),
			StepID:       step.ID,
			ToolName:     step.ToolName,
			ArgumentPath: argumentPath,
			FromStepID:   fromStep,
			OutputPath:   outputPath,
			ExpectedType: typeNames(schema.TypesOf(expected)),
			ActualType:   typeNames(schema.TypesOf(actual)),
		}}
	}
	return nil
}

func typeNames(set schema.TypeSet) []string {
	out := make([]string, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	return out
}
