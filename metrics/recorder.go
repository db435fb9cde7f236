package metrics

import (
	"sync"
	"time"
)

// Snapshot is a copy of the in-memory counters.
type Snapshot struct {
	Requests      int
	ServerErrors  int
	Transitions   map[string]int
	PhaseCloses   int
	Reassignments int
}

// Recorder keeps process-local counters and forwards to OpenTelemetry when it is configured.
// A nil *Recorder is valid and records nothing.
type Recorder struct {
	mu   sync.Mutex
	snap Snapshot
	otel *instruments
}

func NewRecorder() *Recorder {
	return newRecorder(nil)
}

func newRecorder(inst *instruments) *Recorder {
	return &Recorder{
		snap: Snapshot{Transitions: make(map[string]int)},
		otel: inst,
	}
}

func (r *Recorder) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.snap.Requests++
	if status >= 500 {
		r.snap.ServerErrors++
	}
	r.mu.Unlock()
	r.otel.recordHTTPRequest(method, route, status, duration)
}

func (r *Recorder) RecordMatchTransition(status string) {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.snap.Transitions[status]++
	r.mu.Unlock()
	r.otel.recordTransition(status)
}

func (r *Recorder) RecordPhaseClosed(phaseCode string, reassignments int) {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.snap.PhaseCloses++
	r.snap.Reassignments += reassignments
	r.mu.Unlock()
	r.otel.recordPhaseClosed(phaseCode, reassignments)
}

func (r *Recorder) Snapshot() Snapshot {
	if r == nil {
		return Snapshot{Transitions: map[string]int{}}
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	out := r.snap
	out.Transitions = make(map[string]int, len(r.snap.Transitions))
	for k, v := range r.snap.Transitions {
		out.Transitions[k] = v
	}
	return out
}
