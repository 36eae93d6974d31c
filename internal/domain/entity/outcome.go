package entity

// Phase is the active member of an OutcomeState.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseSuccess
	PhaseFailure
)

// String returns the lower-case phase name.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseSuccess:
		return "success"
	case PhaseFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// OutcomeState is the tagged state of one panel: Idle, Loading, Success(payload)
// or Failure(kind, message). Only the member selected by Phase is meaningful.
type OutcomeState[T any] struct {
	Phase   Phase
	Payload T
	Failure *Failure
}

// IdleState returns an empty state.
func IdleState[T any]() OutcomeState[T] {
	return OutcomeState[T]{Phase: PhaseIdle}
}

// LoadingState returns a loading state with no content.
func LoadingState[T any]() OutcomeState[T] {
	return OutcomeState[T]{Phase: PhaseLoading}
}

// SuccessState returns a success state holding payload.
func SuccessState[T any](payload T) OutcomeState[T] {
	return OutcomeState[T]{Phase: PhaseSuccess, Payload: payload}
}

// FailureState returns a failure state. Any previous payload is dropped.
func FailureState[T any](f *Failure) OutcomeState[T] {
	return OutcomeState[T]{Phase: PhaseFailure, Failure: f}
}

func (s OutcomeState[T]) IsIdle() bool    { return s.Phase == PhaseIdle }
func (s OutcomeState[T]) IsLoading() bool { return s.Phase == PhaseLoading }
func (s OutcomeState[T]) IsSuccess() bool { return s.Phase == PhaseSuccess }
func (s OutcomeState[T]) IsFailure() bool { return s.Phase == PhaseFailure }
