package executor

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mindburn-Labs/toolplan/pkg/contracts"
)

func handler(fn func(ctx context.Context, args map[string]any) (any, error)) contracts.Tool {
	return contracts.Tool{Handler: fn}
}

func TestExecutePlanLinearDependency(t *testing.T) {
	steps := []contracts.Step{
		{ID: "s1", ToolName: "getWeather", Arguments: map[string]any{"city": "Oslo"}},
		{ID: "s2", ToolName: "sendEmail", Arguments: map[string]any{
			"body": contracts.NewDependencyRef("s1", "temperature"),
		}},
	}
	tools := map[string]contracts.Tool{
		"getWeather": handler(func(ctx context.Context, args map[string]any) (any, error) {
			return map[string]any{"temperature": 9.5}, nil
		}),
		"sendEmail": handler(func(ctx context.Context, args map[string]any) (any, error) {
			return map[string]any{"sent": true}, nil
		}),
	}

	results := ExecutePlan(context.Background(), steps, tools)
	require.Len(t, results, 2)
	assert.Equal(t, "s1", results[0].StepID)
	assert.Equal(t, "s2", results[1].StepID)
	assert.Equal(t, 9.5, results[1].Arguments["body"])
	assert.Empty(t, results[0].Error)
	assert.Empty(t, results[1].Error)
}

func TestExecutePlanToolNotFoundSkipsStep(t *testing.T) {
	steps := []contracts.Step{{ID: "s1", ToolName: "missing", Arguments: map[string]any{}}}
	results := ExecutePlan(context.Background(), steps, map[string]contracts.Tool{})
	require.Len(t, results, 1)
	assert.Equal(t, `Tool "missing" not found`, results[0].Error)
	assert.Nil(t, results[0].Output)
}

func TestExecutePlanHandlerFailurePropagatesAndSkipsDependents(t *testing.T) {
	steps := []contracts.Step{
		{ID: "s1", ToolName: "fails", Arguments: map[string]any{}},
		{ID: "s2", ToolName: "sendEmail", Arguments: map[string]any{
			"body": contracts.NewDependencyRef("s1", "x"),
		}},
	}
	tools := map[string]contracts.Tool{
		"fails": handler(func(ctx context.Context, args map[string]any) (any, error) {
			return nil, fmt.Errorf("boom")
		}),
		"sendEmail": handler(func(ctx context.Context, args map[string]any) (any, error) {
			return nil, nil
		}),
	}

	results := ExecutePlan(context.Background(), steps, tools)
	require.Len(t, results, 2)
	assert.Equal(t, "boom", results[0].Error)
	assert.Equal(t, "Skipped: dependencies not satisfied", results[1].Error)
}

func TestExecutePlanIndependentStepsRunConcurrently(t *testing.T) {
	var inFlight int32
	var maxObserved int32
	track := handler(func(ctx context.Context, args map[string]any) (any, error) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			cur := atomic.LoadInt32(&maxObserved)
			if n <= cur || atomic.CompareAndSwapInt32(&maxObserved, cur, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return nil, nil
	})

	steps := []contracts.Step{
		{ID: "a", ToolName: "track", Arguments: map[string]any{}},
		{ID: "b", ToolName: "track", Arguments: map[string]any{}},
		{ID: "c", ToolName: "track", Arguments: map[string]any{}},
	}
	tools := map[string]contracts.Tool{"track": track}

	ExecutePlan(context.Background(), steps, tools)
	assert.Equal(t, int32(3), maxObserved)
}

func TestExecutePlanTemplateSubstitution(t *testing.T) {
	steps := []contracts.Step{
		{ID: "s1", ToolName: "getWeather", Arguments: map[string]any{}},
		{ID: "s2", ToolName: "sendEmail", Arguments: map[string]any{
			"body": contracts.NewTemplateRef("It is {0} degrees", []any{
				contracts.NewDependencyRef("s1", "temperature"),
			}),
		}},
	}
	tools := map[string]contracts.Tool{
		"getWeather": handler(func(ctx context.Context, args map[string]any) (any, error) {
			return map[string]any{"temperature": 12.0}, nil
		}),
		"sendEmail": handler(func(ctx context.Context, args map[string]any) (any, error) {
			return nil, nil
		}),
	}

	results := ExecutePlan(context.Background(), steps, tools)
	require.Len(t, results, 2)
	assert.Equal(t, "It is 12 degrees", results[1].Arguments["body"])
}

func TestExecutePlanMaxConcurrencyLimitsWaveSize(t *testing.T) {
	var inFlight int32
	var maxObserved int32
	track := handler(func(ctx context.Context, args map[string]any) (any, error) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			cur := atomic.LoadInt32(&maxObserved)
			if n <= cur || atomic.CompareAndSwapInt32(&maxObserved, cur, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return nil, nil
	})

	steps := []contracts.Step{
		{ID: "a", ToolName: "track", Arguments: map[string]any{}},
		{ID: "b", ToolName: "track", Arguments: map[string]any{}},
		{ID: "c", ToolName: "track", Arguments: map[string]any{}},
	}
	tools := map[string]contracts.Tool{"track": track}

	ExecutePlan(context.Background(), steps, tools, WithMaxConcurrency(1))
	assert.Equal(t, int32(1), maxObserved)
}

func TestExecutePlanResultsOrderedByInputPosition(t *testing.T) {
	steps := []contracts.Step{
		{ID: "first", ToolName: "noop", Arguments: map[string]any{}},
		{ID: "second", ToolName: "noop", Arguments: map[string]any{}},
	}
	tools := map[string]contracts.Tool{
		"noop": handler(func(ctx context.Context, args map[string]any) (any, error) { return nil, nil }),
	}
	results := ExecutePlan(context.Background(), steps, tools)
	require.Len(t, results, 2)
	assert.Equal(t, "first", results[0].StepID)
	assert.Equal(t, "second", results[1].StepID)
}
