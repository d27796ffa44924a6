// internal/scoring/types.go
//
// Type definitions for the scoring engine.
// Defines:
//   - Color: display tier derived from a 0–10 score.
//   - Guess: a player's four estimates.
//   - FieldScore / Result: the per-metric and averaged outcome of one submission.

package scoring

// Color is the qualitative tier shown next to a score.
//   - "green":  score >= 8
//   - "orange": score >= 5
//   - "red":    anything lower
type Color string

const (
	ColorGreen  Color = "green"
	ColorOrange Color = "orange"
	ColorRed    Color = "red"
)

// MaxScore is the best per-field score.
const MaxScore = 10

// Guess holds a player's estimates for one property.
type Guess struct {
	ARV     float64 `json:"arv"`
	Repairs float64 `json:"repairs"`
	MAO     float64 `json:"mao"`
	LAO     float64 `json:"lao"`
}

// FieldScore is the outcome for one metric.
// PercentDiff is rounded to one decimal; it is nil when the ground truth is
// zero and the guess is not, since the ratio is undefined there.
type FieldScore struct {
	Score       int      `json:"score"`
	Color       Color    `json:"color"`
	PercentDiff *float64 `json:"percentDiff"`
}

// Result is the full outcome of one submission.
type Result struct {
	ARV          FieldScore `json:"arv"`
	Repairs      FieldScore `json:"repairs"`
	MAO          FieldScore `json:"mao"`
	LAO          FieldScore `json:"lao"`
	AverageScore float64    `json:"averageScore"`
}

// Fields returns the four field scores in display order.
func (r Result) Fields() []FieldScore {
	return []FieldScore{r.ARV, r.Repairs, r.MAO, r.LAO}
}
