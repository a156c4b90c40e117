package toolplan

import (
	"context"
	"fmt"

	"github.com/Mindburn-Labs/toolplan/pkg/contracts"
	"github.com/Mindburn-Labs/toolplan/pkg/executor"
	"github.com/Mindburn-Labs/toolplan/pkg/planner"
	"github.com/Mindburn-Labs/toolplan/pkg/validator"
)

// SDK is the single entry point gluing the three core components
// together: parse model output into steps, validate every reference
// against the catalog's schemas, then execute.
type SDK struct {
	catalog        *Catalog
	maxConcurrency int
}

// Option configures an SDK.
type Option func(*SDK)

// WithMaxWaveConcurrency caps how many steps a single execution wave
// dispatches at once (see EXECUTOR_MAX_WAVE_CONCURRENCY in
// internal/config). 0 leaves waves unbounded.
func WithMaxWaveConcurrency(n int) Option {
	return func(s *SDK) { s.maxConcurrency = n }
}

// New builds an SDK bound to catalog. The catalog may keep being
// registered into after SDK construction; each Run call snapshots it.
func New(catalog *Catalog, opts ...Option) *SDK {
	s := &SDK{catalog: catalog}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Plan parses model-originated text into normalized plan steps.
func (s *SDK) Plan(modelText string) ([]contracts.Step, error) {
	out := planner.ParseModelOutput(modelText)
	if !out.HasPlan {
		return nil, fmt.Errorf("toolplan: model output has no <plan> block")
	}
	return planner.ParsePlanSteps(out.Plan)
}

// Validate checks steps against the catalog's current tools.
func (s *SDK) Validate(steps []contracts.Step) validator.Result {
	return validator.IsValidPlan(steps, s.catalog.Snapshot())
}

// Execute runs steps to completion against the catalog's current tools.
func (s *SDK) Execute(ctx context.Context, steps []contracts.Step) []contracts.StepResult {
	var opts []executor.Option
	if s.maxConcurrency > 0 {
		opts = append(opts, executor.WithMaxConcurrency(s.maxConcurrency))
	}
	return executor.ExecutePlan(ctx, steps, s.catalog.Snapshot(), opts...)
}

// Run is the full pipeline: parse, validate, and — only if valid —
// execute. A validation failure returns the collected errors without
// dispatching anything.
func (s *SDK) Run(ctx context.Context, modelText string) ([]contracts.StepResult, validator.Result, error) {
	steps, err := s.Plan(modelText)
	if err != nil {
		return nil, validator.Result{}, err
	}

	result := s.Validate(steps)
	if !result.Valid {
		return nil, result, nil
	}

	return s.Execute(ctx, steps), result, nil
}
