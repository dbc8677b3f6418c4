package tuning

import (
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/baldhumanity/evo-go/evo"
)

// Result is the outcome of one tuning run.
type Result struct {
	ID             string        `json:"id"`
	Algorithm      evo.Algorithm `json:"algorithm"`
	Parameters     Params        `json:"parameters"`
	RunID          int           `json:"run_id"`
	Seed           uint64        `json:"seed"`
	MaxFitness     float64       `json:"max_fitness"`
	ExecutionTime  float64       `json:"execution_time"` // Seconds
	Score          float64       `json:"score"`
	Converged      bool          `json:"converged"`
	Generations    int           `json:"generations"`
	TimeoutReached bool          `json:"timeout_reached"`
	CreatedAt      time.Time     `json:"created_at"`
}

// NewResult creates a result with a fresh ID. The score is derived from
// maxFitness and elapsed.
func NewResult(algorithm evo.Algorithm, params Params, runID int, maxFitness float64, elapsed time.Duration) *Result {
	r := &Result{
		ID:            ulid.Make().String(),
		Algorithm:     algorithm,
		Parameters:    params,
		RunID:         runID,
		MaxFitness:    maxFitness,
		ExecutionTime: elapsed.Seconds(),
		CreatedAt:     time.Now().UTC(),
	}
	r.Score = Score(r.MaxFitness, r.ExecutionTime)
	return r
}

// Score rewards reaching a high fitness quickly: fitness per second, or 0
// when no time was measured.
func Score(maxFitness, seconds float64) float64 {
	if seconds <= 0 {
		return 0
	}
	return maxFitness / seconds
}
