// Package emittest provides an in-memory emit.Writer for tests.
package emittest

import (
	"fmt"
	"strings"
)

// Action is one recorded write.
type Action struct {
	Code    uint16
	Pressed bool
	Sync    bool
}

func (a Action) String() string {
	if a.Sync {
		return "sync"
	}
	if a.Pressed {
		return fmt.Sprintf("+%d", a.Code)
	}
	return fmt.Sprintf("-%d", a.Code)
}

// Recorder records every write. Setting Err makes the next write fail.
type Recorder struct {
	Actions []Action
	Err     error
}

// WriteKey records a key transition.
func (r *Recorder) WriteKey(code uint16, pressed bool) error {
	if r.Err != nil {
		return r.Err
	}
	r.Actions = append(r.Actions, Action{Code: code, Pressed: pressed})
	return nil
}

// Sync records a report barrier.
func (r *Recorder) Sync() error {
	if r.Err != nil {
		return r.Err
	}
	r.Actions = append(r.Actions, Action{Sync: true})
	return nil
}

// Reset forgets recorded actions.
func (r *Recorder) Reset() {
	r.Actions = nil
}

// Count returns how many presses of code were recorded.
func (r *Recorder) Count(code uint16) int {
	n := 0
	for _, a := range r.Actions {
		if !a.Sync && a.Pressed && a.Code == code {
			n++
		}
	}
	return n
}

// String renders the actions compactly, e.g. "+14 -14 sync".
func (r *Recorder) String() string {
	parts := make([]string, len(r.Actions))
	for i, a := range r.Actions {
		parts[i] = a.String()
	}
	return strings.Join(parts, " ")
}
