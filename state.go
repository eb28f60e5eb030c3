package mathtex

import (
	"errors"
	"strings"
)

// GenericFailureMessage is the only failure text shown to users, whatever
// went wrong underneath.
const GenericFailureMessage = "Something went wrong. Try again."

// Request is a validated conversion request: trimmed and non-empty.
type Request struct {
	text string
}

// NewRequest trims text and rejects it when nothing is left.
func NewRequest(text string) (Request, error) {
	t := strings.TrimSpace(text)
	if t == "" {
		return Request{}, ErrEmptyInput
	}
	return Request{text: t}, nil
}

// Text returns the trimmed description.
func (r Request) Text() string {
	return r.text
}

// Result is a successful conversion.
// LaTeX never carries surrounding math-mode delimiters; display mode is
// applied at render time only.
type Result struct {
	LaTeX       string `json:"latex"`
	Explanation string `json:"explanation"`
}

// ErrorKind classifies conversion failures for diagnostics.
type ErrorKind int

const (
	KindNone ErrorKind = iota
	KindTransport
	KindParse
	KindRender // classifies Outcome.Cause; never a controller state
	KindUnknown
)

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindTransport:
		return "transport"
	case KindParse:
		return "parse"
	case KindRender:
		return "render"
	default:
		return "unknown"
	}
}

// KindOf reports which failure kind err belongs to.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrTransport):
		return KindTransport
	case errors.Is(err, ErrParse):
		return KindParse
	case errors.Is(err, ErrRender):
		return KindRender
	default:
		return KindUnknown
	}
}

// Phase is the tag of a State.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseSucceeded
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseSucceeded:
		return "succeeded"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// State is the conversion state owned by a Controller.
// Which fields are meaningful depends on Phase:
//   - Succeeded: Result
//   - Failed: Kind, Message (always GenericFailureMessage) and Err
//
// Seq is the request sequence the state belongs to (0 for Idle).
type State struct {
	Phase   Phase
	Seq     uint64
	Result  Result
	Kind    ErrorKind
	Message string
	Err     error
}

// Settled reports whether the state is a final outcome.
func (s State) Settled() bool {
	return s.Phase == PhaseSucceeded || s.Phase == PhaseFailed
}

func idleState() State {
	return State{Phase: PhaseIdle}
}

func loadingState(seq uint64) State {
	return State{Phase: PhaseLoading, Seq: seq}
}

func succeededState(seq uint64, r Result) State {
	return State{Phase: PhaseSucceeded, Seq: seq, Result: r}
}

func failedState(seq uint64, err error) State {
	kind := KindOf(err)
	if kind == KindNone {
		kind = KindUnknown
	}
	return State{
		Phase:   PhaseFailed,
		Seq:     seq,
		Kind:    kind,
		Message: GenericFailureMessage,
		Err:     err,
	}
}
