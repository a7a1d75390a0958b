// Package container implements the Kakshya container interface (spec §4.C):
// N-D data access, read-head streaming, looping, region groups, reader
// tracking, locking, and the processing state machine (spec §4.H).
package container

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// ProcessingState is the per-container state machine (spec §3).
type ProcessingState int32

const (
	Idle ProcessingState = iota
	Ready
	Processing
	Processed
	NeedsRemoval
	Error
)

func (s ProcessingState) String() string {
	switch s {
	case Idle:
		return "IDLE"
	case Ready:
		return "READY"
	case Processing:
		return "PROCESSING"
	case Processed:
		return "PROCESSED"
	case NeedsRemoval:
		return "NEEDS_REMOVAL"
	case Error:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// StateError is spec's StateError taxonomy row: an operation refused
// because of the current processing state or a contested token.
type StateError struct {
	Operation string
	From      ProcessingState
	To        ProcessingState
}

func (e *StateError) Error() string {
	return fmt.Sprintf("container: %s: illegal transition %s -> %s", e.Operation, e.From, e.To)
}

// validTransition enforces spec §3's state machine: IDLE->READY on data
// ready; READY->PROCESSING on acquire; PROCESSING->PROCESSED on success or
// PROCESSING->ERROR on failure; PROCESSED->READY on new input;
// PROCESSED->PROCESSING for the next cycle; ERROR->READY on recovery;
// READY<->IDLE and PROCESSED->IDLE on mutation through set_region_data or
// reset; any->NEEDS_REMOVAL on teardown.
func validTransition(from, to ProcessingState) bool {
	if to == NeedsRemoval {
		return true
	}
	switch from {
	case Idle:
		return to == Ready
	case Ready:
		return to == Processing || to == Idle
	case Processing:
		return to == Processed || to == Error
	case Processed:
		return to == Ready || to == Processing || to == Idle
	case Error:
		return to == Ready
	default:
		return false
	}
}

// StateChangeCallback is invoked after a state transition commits, from
// the goroutine that performed it (spec §5's ordering guarantee).
type StateChangeCallback func(old, new ProcessingState)

// stateMachine is embedded by containers to provide the processing state
// machine, its callbacks, and the "ready for processing" latch.
type stateMachine struct {
	state atomic.Int32

	mu        sync.Mutex
	callbacks map[int]StateChangeCallback
	nextCBID  int

	readyForProcessing atomic.Bool
}

func newStateMachine() stateMachine {
	sm := stateMachine{callbacks: make(map[int]StateChangeCallback)}
	sm.state.Store(int32(Idle))
	return sm
}

func (sm *stateMachine) GetProcessingState() ProcessingState {
	return ProcessingState(sm.state.Load())
}

// UpdateProcessingState attempts the transition, firing callbacks on
// success. Returns StateError on a disallowed transition and leaves the
// state unchanged, matching spec §7's "no state change" policy.
func (sm *stateMachine) UpdateProcessingState(to ProcessingState) error {
	from := ProcessingState(sm.state.Load())
	if !validTransition(from, to) {
		return &StateError{Operation: "update-processing-state", From: from, To: to}
	}
	sm.state.Store(int32(to))

	sm.mu.Lock()
	cbs := make([]StateChangeCallback, 0, len(sm.callbacks))
	for _, cb := range sm.callbacks {
		cbs = append(cbs, cb)
	}
	sm.mu.Unlock()
	for _, cb := range cbs {
		cb(from, to)
	}
	return nil
}

func (sm *stateMachine) RegisterStateChangeCallback(cb StateChangeCallback) int {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	id := sm.nextCBID
	sm.nextCBID++
	sm.callbacks[id] = cb
	return id
}

func (sm *stateMachine) UnregisterStateChangeCallback(id int) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	delete(sm.callbacks, id)
}

func (sm *stateMachine) IsReadyForProcessing() bool {
	return sm.readyForProcessing.Load()
}

func (sm *stateMachine) MarkReadyForProcessing(ready bool) {
	sm.readyForProcessing.Store(ready)
}
