package ecsim

import (
	"bytes"
	"encoding/json"
)

// Intermediate is a single intermediate value computed inside a formula,
// in the order the formula computed it.
type Intermediate struct {
	Name  string `json:"name"`
	Value []byte `json:"value"`
}

// Event records one formula invocation performed during a simulated
// operation. Field elements serialize as fixed-length big-endian byte
// strings sized to the modulus bit-length.
type Event struct {
	Index         int            `json:"op_index"`
	Formula       string         `json:"formula_name"`
	Kind          string         `json:"operation_kind"`
	Inputs        [][]byte       `json:"inputs"`
	Outputs       [][]byte       `json:"outputs"`
	Intermediates []Intermediate `json:"intermediates,omitempty"`
}

// Recorder receives events as they are produced. A nil Recorder is valid
// and records nothing.
type Recorder interface {
	Record(ev Event)
}

// Trace is the ordered record of formula invocations produced while
// executing one configuration against one cryptographic operation.
// A Trace is produced fresh per simulation call and owned exclusively
// by the caller; it is never mutated after the call returns.
type Trace struct {
	Events []Event
}

// NewTrace creates an empty trace.
func NewTrace() *Trace {
	return &Trace{}
}

// Record appends an event, assigning its call-order index.
func (t *Trace) Record(ev Event) {
	ev.Index = len(t.Events)
	t.Events = append(t.Events, ev)
}

// Len returns the number of recorded events.
func (t *Trace) Len() int {
	return len(t.Events)
}

// Equal reports whether two traces are byte-identical.
func (t *Trace) Equal(other *Trace) bool {
	if t.Len() != other.Len() {
		return false
	}
	for i := range t.Events {
		if !eventEqual(&t.Events[i], &other.Events[i]) {
			return false
		}
	}
	return true
}

func eventEqual(a, b *Event) bool {
	if a.Index != b.Index || a.Formula != b.Formula || a.Kind != b.Kind {
		return false
	}
	if !byteSlicesEqual(a.Inputs, b.Inputs) || !byteSlicesEqual(a.Outputs, b.Outputs) {
		return false
	}
	if len(a.Intermediates) != len(b.Intermediates) {
		return false
	}
	for i := range a.Intermediates {
		if a.Intermediates[i].Name != b.Intermediates[i].Name ||
			!bytes.Equal(a.Intermediates[i].Value, b.Intermediates[i].Value) {
			return false
		}
	}
	return true
}

func byteSlicesEqual(a, b [][]byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !bytes.Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

// Export serializes the trace into the JSON export format consumed by
// the external trace-processing tooling.
func (t *Trace) Export() ([]byte, error) {
	return json.Marshal(t.Events)
}
