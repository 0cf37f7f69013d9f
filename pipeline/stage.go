package pipeline

import "fmt"

// Stage identifies a step of the ingestion state machine. An ingestion
// either reaches StageComplete or terminates with a StageError naming the
// stage it failed in.
type Stage int

const (
	StageReceived Stage = iota
	StageValidated
	StageTextExtracted
	StageEmbedded
	StageStored
	StageIndexed
	StageComplete
)

// String returns a string representation of the Stage.
func (s Stage) String() string {
	switch s {
	case StageReceived:
		return "Received"
	case StageValidated:
		return "Validated"
	case StageTextExtracted:
		return "TextExtracted"
	case StageEmbedded:
		return "Embedded"
	case StageStored:
		return "Stored"
	case StageIndexed:
		return "Indexed"
	case StageComplete:
		return "Complete"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// StageError is the terminal failure state of an ingestion: the stage that
// failed plus a human-readable reason. The underlying cause is available
// via errors.Unwrap and matches the package's sentinel errors.
type StageError struct {
	Stage  Stage
	Reason string
	Err    error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("ingestion failed at %s: %s", e.Stage, e.Reason)
}

func (e *StageError) Unwrap() error { return e.Err }

func failf(stage Stage, err error, format string, args ...any) *StageError {
	return &StageError{
		Stage:  stage,
		Reason: fmt.Sprintf(format, args...),
		Err:    err,
	}
}
