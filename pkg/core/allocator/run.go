package allocator

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Phase is a stage of the generation run state machine
type Phase string

const (
	PhaseCollectingInput Phase = "COLLECTING_INPUT"
	PhaseScoring         Phase = "SCORING"
	PhaseAssigning       Phase = "ASSIGNING"
	PhaseCommitted       Phase = "COMMITTED"
	PhaseFailed          Phase = "FAILED"
)

var nextPhase = map[Phase]Phase{
	PhaseCollectingInput: PhaseScoring,
	PhaseScoring:         PhaseAssigning,
	PhaseAssigning:       PhaseCommitted,
}

var (
	ErrIllegalPhase        = errors.New("illegal run phase transition")
	ErrConstraintViolation = errors.New("hard constraint violated")
)

// RunError is the single terminal error of a failed run
type RunError struct {
	RunID string
	Phase Phase
	Err   error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("generation run %s failed during %s: %v", e.RunID, e.Phase, e.Err)
}

func (e *RunError) Unwrap() error {
	return e.Err
}

// Run tracks one generation run: its phase, its log, and its identity
type Run struct {
	ID        string
	StartedAt time.Time
	Log       *RunLog

	phase  Phase
	logger *zap.Logger
}

// NewRun starts a run in COLLECTING_INPUT
func NewRun(logger *zap.Logger) *Run {
	id := uuid.NewString()
	logger = logger.With(zap.String("run_id", id))
	r := &Run{
		ID:        id,
		StartedAt: time.Now().UTC(),
		Log:       NewRunLog(logger),
		phase:     PhaseCollectingInput,
		logger:    logger,
	}
	r.Log.Info(CodePhase, "run started in "+string(PhaseCollectingInput), nil)
	return r
}

// Phase returns the current phase
func (r *Run) Phase() Phase {
	return r.phase
}

// Advance moves the run to the next phase; phases cannot be skipped or revisited
func (r *Run) Advance(to Phase) error {
	if next, ok := nextPhase[r.phase]; !ok || next != to {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalPhase, r.phase, to)
	}
	r.phase = to
	r.Log.Info(CodePhase, "entered "+string(to), nil)
	return nil
}

// Fail moves the run to FAILED and wraps the cause in a RunError
func (r *Run) Fail(err error) *RunError {
	runErr := &RunError{RunID: r.ID, Phase: r.phase, Err: err}
	if r.phase != PhaseFailed {
		r.phase = PhaseFailed
		r.Log.Error(CodeRunFailed, runErr.Error(), nil)
	}
	return runErr
}
