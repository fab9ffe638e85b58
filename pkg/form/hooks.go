package form

import (
	"context"
	"fmt"
)

// HookPhase names an orchestrator extension point.
type HookPhase string

const (
	PhaseSubmitted HookPhase = "submitted"
	PhaseSaving    HookPhase = "saving"
	PhaseSaved     HookPhase = "saved"
	PhaseEditing   HookPhase = "editing"
	PhaseDeleting  HookPhase = "deleting"
	PhaseDeleted   HookPhase = "deleted"
)

var knownPhases = map[HookPhase]bool{
	PhaseSubmitted: true,
	PhaseSaving:    true,
	PhaseSaved:     true,
	PhaseEditing:   true,
	PhaseDeleting:  true,
	PhaseDeleted:   true,
}

// HookEvent carries the in-progress state a hook may inspect or mutate.
type HookEvent struct {
	Input  map[string]interface{}
	Record Record
}

// HookResult is the explicit continue-or-short-circuit outcome of a hook.
type HookResult struct {
	response *Response
}

// Continue lets the orchestrator proceed to the next hook and phase.
func Continue() HookResult {
	return HookResult{}
}

// ShortCircuit stops the operation immediately and returns r to the caller,
// skipping all later hooks and remaining write steps.
func ShortCircuit(r *Response) HookResult {
	return HookResult{response: r}
}

// Response returns the short-circuit response, or nil.
func (hr HookResult) Response() *Response {
	return hr.response
}

// Hook is a side-effecting callback. It never transforms data; it may only
// short-circuit via its result.
type Hook func(ctx context.Context, e *HookEvent) HookResult

// Hooks holds registered callbacks per phase, executed in registration order.
type Hooks struct {
	callbacks map[HookPhase][]Hook
}

// NewHooks creates an empty hook set.
func NewHooks() *Hooks {
	return &Hooks{callbacks: make(map[HookPhase][]Hook)}
}

// On registers a hook for a phase. An unrecognized phase is a programmer
// error and panics.
func (h *Hooks) On(phase HookPhase, hook Hook) {
	if !knownPhases[phase] {
		panic(fmt.Sprintf("unknown hook phase %q", phase))
	}
	if hook == nil {
		return
	}
	h.callbacks[phase] = append(h.callbacks[phase], hook)
}

// fire runs a phase's hooks in order; the first short-circuit wins.
func (h *Hooks) fire(ctx context.Context, phase HookPhase, e *HookEvent) HookResult {
	for _, hook := range h.callbacks[phase] {
		if res := hook(ctx, e); res.response != nil {
			return res
		}
	}
	return Continue()
}
