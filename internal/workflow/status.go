// internal/workflow/status.go
package workflow

import "fmt"

// Status is the linear progression of a mint-and-register run. Transitions
// only move forward; Success and Errored are terminal.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusPreparing Status = "preparing"
	StatusSigning   Status = "signing"
	StatusPending   Status = "pending"
	StatusSuccess   Status = "success"
	StatusErrored   Status = "error"
)

var transitions = map[Status][]Status{
	StatusIdle:      {StatusPreparing},
	StatusPreparing: {StatusSigning, StatusErrored},
	StatusSigning:   {StatusPending, StatusErrored},
	StatusPending:   {StatusSuccess, StatusErrored},
	StatusSuccess:   {},
	StatusErrored:   {},
}

func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusErrored
}

// CanTransition reports whether moving from s to next is legal.
func (s Status) CanTransition(next Status) bool {
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// Tracker holds the current status and an error message that is only
// populated in the Errored state, so an in-flight status can never carry a
// failure message.
type Tracker struct {
	status  Status
	failure string
	watcher func(Status)
}

func NewTracker(watcher func(Status)) *Tracker {
	return &Tracker{status: StatusIdle, watcher: watcher}
}

func (t *Tracker) Status() Status {
	return t.status
}

// Failure returns the terminal error message, empty unless Errored.
func (t *Tracker) Failure() string {
	if t.status != StatusErrored {
		return ""
	}
	return t.failure
}

// Advance moves to next, panicking on an illegal transition: the progression
// is hard-coded in the orchestrator, so a bad edge is a programming error.
func (t *Tracker) Advance(next Status) {
	if !t.status.CanTransition(next) {
		panic(fmt.Sprintf("illegal workflow transition %s -> %s", t.status, next))
	}
	t.status = next
	if t.watcher != nil {
		t.watcher(next)
	}
}

// Fail moves to the terminal error state with a message.
func (t *Tracker) Fail(message string) {
	if t.status.Terminal() {
		panic(fmt.Sprintf("workflow already terminal in %s", t.status))
	}
	t.status = StatusErrored
	t.failure = message
	if t.watcher != nil {
		t.watcher(StatusErrored)
	}
}
