package harness

import (
	"github.com/roach88/prelude/internal/provenance"
	"github.com/roach88/prelude/internal/replay"
)

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every paste verdict and assertion held.
	Pass bool

	// Errors holds one message per failed check.
	Errors []string

	// Start is the epoch ms the scenario's offsets are relative to.
	Start int64

	// Verdicts lists the guard's decision for each paste step, in order.
	Verdicts []provenance.Verdict

	// Dirty is the tracker's changed-since-submission flag after the last step.
	Dirty bool

	// Replay is the stored session loaded back for playback.
	Replay *replay.Session
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:     true,
		Errors:   []string{},
		Verdicts: []provenance.Verdict{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
