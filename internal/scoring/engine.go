// internal/scoring/engine.go
//
// Scoring engine: compares a Guess against a property's ground truth.
//
// Per field:
//   percentDiff = |guess - truth| * 100 / |truth|
//   score       = first band whose upper bound >= percentDiff (inclusive)
//
// Arithmetic is done in decimal so that values sitting exactly on a band
// boundary (5%, 10%, ... 100%) land in the better band instead of drifting
// past it through binary floating-point error.
//
// A zero ground truth has no ratio: a zero guess scores 10, anything else 0.

package scoring

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/robalobadob/deal-detective/apps/go-server/internal/apperr"
	"github.com/robalobadob/deal-detective/apps/go-server/internal/catalog"
)

// band maps percentDiff <= upper to score.
type band struct {
	upper decimal.Decimal
	score int
}

var bands = []band{
	{decimal.NewFromInt(5), 10},
	{decimal.NewFromInt(10), 9},
	{decimal.NewFromInt(15), 8},
	{decimal.NewFromInt(20), 7},
	{decimal.NewFromInt(25), 6},
	{decimal.NewFromInt(30), 5},
	{decimal.NewFromInt(40), 4},
	{decimal.NewFromInt(50), 3},
	{decimal.NewFromInt(75), 2},
	{decimal.NewFromInt(100), 1},
}

var hundred = decimal.NewFromInt(100)

// Evaluate scores all four fields of g against truth.
func Evaluate(g Guess, truth catalog.PropertyRecord) (Result, error) {
	if err := Validate(g); err != nil {
		return Result{}, err
	}

	res := Result{
		ARV:     scoreField(g.ARV, truth.AfterRepairValue),
		Repairs: scoreField(g.Repairs, truth.RepairCost),
		MAO:     scoreField(g.MAO, truth.MaxAllowableOffer),
		LAO:     scoreField(g.LAO, truth.LowestAllowableOffer),
	}
	res.AverageScore = Average(res.ARV.Score, res.Repairs.Score, res.MAO.Score, res.LAO.Score)
	return res, nil
}

// Validate rejects guesses that are not finite, non-negative amounts.
func Validate(g Guess) error {
	for _, f := range []struct {
		name string
		v    float64
	}{{"arv", g.ARV}, {"repairs", g.Repairs}, {"mao", g.MAO}, {"lao", g.LAO}} {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return apperr.Invalid("invalid_answer", f.name+" must be a number")
		}
		if f.v < 0 {
			return apperr.Invalid("invalid_answer", f.name+" must not be negative")
		}
	}
	return nil
}

// scoreField computes the FieldScore for one metric.
func scoreField(guess, truth float64) FieldScore {
	if truth == 0 {
		if guess == 0 {
			zero := 0.0
			return FieldScore{Score: MaxScore, Color: ColorFor(MaxScore), PercentDiff: &zero}
		}
		return FieldScore{Score: 0, Color: ColorFor(0)}
	}

	pd := percentDiff(guess, truth)
	s := BandScore(pd)
	rounded := pd.Round(1).InexactFloat64()
	return FieldScore{Score: s, Color: ColorFor(s), PercentDiff: &rounded}
}

// percentDiff returns |guess - truth| * 100 / |truth|. truth must be non-zero.
func percentDiff(guess, truth float64) decimal.Decimal {
	g := decimal.NewFromFloat(guess)
	t := decimal.NewFromFloat(truth)
	return g.Sub(t).Abs().Mul(hundred).Div(t.Abs())
}

// PercentDiff is the float form of the relative error, for callers outside
// the engine. It returns +Inf when truth is zero and guess is not.
func PercentDiff(guess, truth float64) float64 {
	if truth == 0 {
		if guess == 0 {
			return 0
		}
		return math.Inf(1)
	}
	return percentDiff(guess, truth).InexactFloat64()
}

// BandScore maps a percent difference to 0..10.
// Bands are inclusive on their upper bound and checked in ascending order.
func BandScore(pd decimal.Decimal) int {
	for _, b := range bands {
		if pd.LessThanOrEqual(b.upper) {
			return b.score
		}
	}
	return 0
}

// ScoreForPercent is BandScore for float inputs.
func ScoreForPercent(pd float64) int {
	if math.IsNaN(pd) || math.IsInf(pd, 0) {
		return 0
	}
	return BandScore(decimal.NewFromFloat(pd))
}

// ColorFor maps a score to its display tier.
func ColorFor(score int) Color {
	switch {
	case score >= 8:
		return ColorGreen
	case score >= 5:
		return ColorOrange
	default:
		return ColorRed
	}
}

// Average returns the arithmetic mean of scores rounded half away from zero
// to one decimal. An empty input averages to 0.
func Average(scores ...int) float64 {
	if len(scores) == 0 {
		return 0
	}
	sum := decimal.Zero
	for _, s := range scores {
		sum = sum.Add(decimal.NewFromInt(int64(s)))
	}
	return sum.Div(decimal.NewFromInt(int64(len(scores)))).Round(1).InexactFloat64()
}

// MeanOf averages already-rounded averages (the session report), again to
// one decimal.
func MeanOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := decimal.Zero
	for _, v := range values {
		sum = sum.Add(decimal.NewFromFloat(v))
	}
	return sum.Div(decimal.NewFromInt(int64(len(values)))).Round(1).InexactFloat64()
}
