// Package executor runs a validated plan to completion: a single-producer
// wave scheduler that dispatches every currently-ready step concurrently,
// awaits the wave, and recomputes readiness until nothing more can run.
package executor

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/Mindburn-Labs/toolplan/pkg/contracts"
	"github.com/Mindburn-Labs/toolplan/pkg/pathutil"
)

func dependencyIDs(s contracts.Step) []string {
	return pathutil.ExtractDependencyStepIds(s.Arguments)
}

// Option configures an ExecutePlan call.
type Option func(*options)

type options struct {
	maxConcurrency int
}

// WithMaxConcurrency caps how many steps a single wave dispatches at
// once. n <= 0 leaves a wave unbounded (every ready step launches
// together), the spec's default.
func WithMaxConcurrency(n int) Option {
	return func(o *options) { o.maxConcurrency = n }
}

// ExecutePlan runs steps against tools to completion and returns results
// ordered to match the input step order, regardless of completion order.
func ExecutePlan(ctx context.Context, steps []contracts.Step, tools map[string]contracts.Tool, opts ...Option) []contracts.StepResult {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	st := newState(steps)

	for {
		ready := st.readySet(steps)
		if len(ready) == 0 {
			break
		}

		// errgroup.WithContext cancels gctx if any goroutine returns a
		// non-nil error; dispatch always returns nil regardless of the
		// step's outcome, so one step's failure never cancels its
		// unrelated siblings already in flight — only its dependents are
		// excluded from later waves via readySet.
		g, gctx := errgroup.WithContext(ctx)
		if o.maxConcurrency > 0 {
			g.SetLimit(o.maxConcurrency)
		}
		for _, step := range ready {
			step := step
			g.Go(func() error {
				dispatch(gctx, step, tools, st)
				return nil
			})
		}
		_ = g.Wait()
	}

	for _, s := range steps {
		if st.getStatus(s.ID) != contracts.StatusPending {
			continue
		}
		st.finish(s.ID, contracts.StatusSkipped, contracts.StepResult{
			StepID:    s.ID,
			ToolName:  s.ToolName,
			Arguments: s.Arguments,
			Output:    nil,
			Error:     "Skipped: dependencies not satisfied",
		})
	}

	out := make([]contracts.StepResult, len(steps))
	for i, s := range steps {
		out[i] = st.results[s.ID]
	}
	return out
}

// dispatch runs a single ready step: look up its tool, resolve its
// arguments, invoke the handler, and record the outcome. Every exit path
// calls st.finish exactly once.
func dispatch(ctx context.Context, step contracts.Step, tools map[string]contracts.Tool, st *state) {
	tool, ok := tools[step.ToolName]
	if !ok {
		st.finish(step.ID, contracts.StatusSkipped, contracts.StepResult{
			StepID:    step.ID,
			ToolName:  step.ToolName,
			Arguments: map[string]any{},
			Output:    nil,
			Error:     fmt.Sprintf("Tool %q not found", step.ToolName),
		})
		return
	}

	resolved, err := resolveValue(step.Arguments, st)
	if err != nil {
		st.finish(step.ID, contracts.StatusSkipped, contracts.StepResult{
			StepID:    step.ID,
			ToolName:  step.ToolName,
			Arguments: map[string]any{},
			Output:    nil,
			Error:     fmt.Sprintf("Failed to resolve arguments: %s", err),
		})
		return
	}
	resolvedArgs, _ := resolved.(map[string]any)
	if resolvedArgs == nil {
		resolvedArgs = map[string]any{}
	}

	st.setStatus(step.ID, contracts.StatusExecuting)

	output, err := tool.Handler(ctx, resolvedArgs)
	if err != nil {
		st.finish(step.ID, contracts.StatusFailed, contracts.StepResult{
			StepID:    step.ID,
			ToolName:  step.ToolName,
			Arguments: resolvedArgs,
			Output:    nil,
			Error:     err.Error(),
		})
		return
	}

	st.setOutput(step.ID, output)
	st.finish(step.ID, contracts.StatusDone, contracts.StepResult{
		StepID:    step.ID,
		ToolName:  step.ToolName,
		Arguments: resolvedArgs,
		Output:    output,
	})
}
