// Package session owns per-blank input state and derives validation status
// from it. A Machine holds the runtime state for one attempt at one exercise;
// the Store keeps live machines keyed by session ID.
package session

import (
	"strings"

	"github.com/starford/lacuna/internal/cloze"
)

// BlankState is the runtime state of a single blank.
type BlankState struct {
	Value     string `json:"value"`
	Touched   bool   `json:"touched"`
	Blurred   bool   `json:"blurred"`
	HintShown bool   `json:"hint_shown"`
}

// Status is the derived validation status of a single blank. It is recomputed
// from BlankState plus the blank's answer on demand, never stored.
type Status struct {
	Index          int    `json:"index"`
	Value          string `json:"value"`
	Touched        bool   `json:"touched"`
	Blurred        bool   `json:"blurred"`
	HintShown      bool   `json:"hint_shown"`
	IsCorrect      bool   `json:"is_correct"`
	IsWrong        bool   `json:"is_wrong"`
	ShowValidation bool   `json:"show_validation"`
	IsPartial      bool   `json:"is_partial"`
}

// Machine is the validation state machine for one exercise attempt. Blank
// specs and states share the index as their sole join key and are always the
// same length.
type Machine struct {
	specs     []cloze.BlankSpec
	states    []BlankState
	submitted bool
}

// NewMachine creates a machine sized to the given specs, all blanks empty.
func NewMachine(specs []cloze.BlankSpec) *Machine {
	return &Machine{
		specs:  specs,
		states: make([]BlankState, len(specs)),
	}
}

// Len returns the number of blanks.
func (m *Machine) Len() int {
	return len(m.states)
}

// Submitted reports whether SubmitAll or RevealAll has been called.
func (m *Machine) Submitted() bool {
	return m.submitted
}

// SetValue records typed or selected text for a blank. It marks the blank
// touched and clears blurred: once text changes after a blur, stale red/green
// state must not show until the field is exited again.
func (m *Machine) SetValue(i int, value string) {
	if i < 0 || i >= len(m.states) {
		return
	}
	m.states[i].Value = value
	m.states[i].Touched = true
	m.states[i].Blurred = false
}

// MarkBlurred records that focus left a blank. Idempotent.
func (m *Machine) MarkBlurred(i int) {
	if i < 0 || i >= len(m.states) {
		return
	}
	m.states[i].Blurred = true
}

// ToggleHint flips hint visibility for a blank.
func (m *Machine) ToggleHint(i int) {
	if i < 0 || i >= len(m.states) {
		return
	}
	m.states[i].HintShown = !m.states[i].HintShown
}

// SubmitAll forces validation display for every blank regardless of
// touched/blurred state.
func (m *Machine) SubmitAll() {
	m.submitted = true
}

// RevealAll fills every blank with its answer and implies submission.
func (m *Machine) RevealAll() {
	for i := range m.states {
		m.states[i].Value = m.specs[i].Answer
	}
	m.submitted = true
}

// Reset clears the submitted flag and returns every blank to its default
// state, blurred included.
func (m *Machine) Reset() {
	m.submitted = false
	for i := range m.states {
		m.states[i] = BlankState{}
	}
}

// Status derives the validation status for one blank. The partial-match rule
// suppresses the wrong flag while the in-progress text is still a prefix of
// the answer and the field has not been blurred, so a correct answer being
// typed never flashes red.
func (m *Machine) Status(i int) Status {
	st := m.states[i]
	spec := m.specs[i]

	value := cloze.Normalize(st.Value)
	answer := cloze.Normalize(spec.Answer)

	isCorrect := value == answer
	isPartial := value != "" && strings.HasPrefix(answer, value)
	showValidation := m.submitted || (st.Touched && value != "")
	isWrong := showValidation && !isCorrect && (m.submitted || st.Blurred || !isPartial)

	return Status{
		Index:          i,
		Value:          st.Value,
		Touched:        st.Touched,
		Blurred:        st.Blurred,
		HintShown:      st.HintShown,
		IsCorrect:      isCorrect,
		IsWrong:        isWrong,
		ShowValidation: showValidation,
		IsPartial:      isPartial,
	}
}

// Statuses derives the status of every blank in index order.
func (m *Machine) Statuses() []Status {
	out := make([]Status, len(m.states))
	for i := range m.states {
		out[i] = m.Status(i)
	}
	return out
}

// AllCorrect reports whether every blank matches its answer. Vacuously true
// when there are no blanks.
func (m *Machine) AllCorrect() bool {
	for i := range m.states {
		if cloze.Normalize(m.states[i].Value) != cloze.Normalize(m.specs[i].Answer) {
			return false
		}
	}
	return true
}
