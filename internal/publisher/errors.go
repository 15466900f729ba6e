package publisher

import "fmt"

// Stage identifies where in the pipeline a fatal error occurred. Every
// failure is fatal and unrecoverable within a run; there is no retry.
type Stage string

const (
	StageConfig  Stage = "config"
	StageBinary  Stage = "binary"
	StageLaunch  Stage = "launch"
	StageExtract Stage = "extract"
	StageFetch   Stage = "fetch"
	StagePush    Stage = "push"
)

// StageError wraps an error with the pipeline stage it happened in
type StageError struct {
	Stage   Stage  // The stage where the error occurred
	Message string // Human-readable error message
	Err     error  // Original error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Stage, e.Message, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func NewStageError(stage Stage, message string, err error) error {
	return &StageError{
		Stage:   stage,
		Message: message,
		Err:     err,
	}
}
