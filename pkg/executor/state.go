package executor

import (
	"sync"

	"github.com/Mindburn-Labs/toolplan/pkg/contracts"
)

// state is the shared, mutex-protected bookkeeping a wave-based execution
// reads and writes. A given step's entries are written only by the
// goroutine running that step; readers always observe a write after the
// writer's wave has joined, so the mutex exists only to make concurrent
// map access safe, not to order anything across steps.
type state struct {
	mu      sync.Mutex
	outputs map[string]any
	status  map[string]contracts.StepStatus
	results map[string]contracts.StepResult
}

func newState(steps []contracts.Step) *state {
	st := &state{
		outputs: make(map[string]any, len(steps)),
		status:  make(map[string]contracts.StepStatus, len(steps)),
		results: make(map[string]contracts.StepResult, len(steps)),
	}
	for _, s := range steps {
		st.status[s.ID] = contracts.StatusPending
	}
	return st
}

func (st *state) setStatus(id string, s contracts.StepStatus) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.status[id] = s
}

func (st *state) getStatus(id string) contracts.StepStatus {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.status[id]
}

func (st *state) setOutput(id string, output any) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.outputs[id] = output
}

func (st *state) getOutput(id string) (any, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	v, ok := st.outputs[id]
	return v, ok
}

// finish records a step's terminal status and result atomically so a
// concurrent reader never observes one without the other.
func (st *state) finish(id string, status contracts.StepStatus, result contracts.StepResult) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.status[id] = status
	st.results[id] = result
}

// readySet returns every pending step whose extracted dependency ids have
// all reached StatusDone.
func (st *state) readySet(steps []contracts.Step) []contracts.Step {
	st.mu.Lock()
	defer st.mu.Unlock()

	var ready []contracts.Step
	for _, s := range steps {
		if st.status[s.ID] != contracts.StatusPending {
			continue
		}
		allDone := true
		for _, depID := range dependencyIDs(s) {
			if st.status[depID] != contracts.StatusDone {
				allDone = false
				break
			}
		}
		if allDone {
			ready = append(ready, s)
		}
	}
	return ready
}
