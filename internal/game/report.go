package game

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/robalobadob/deal-detective/apps/go-server/internal/scoring"
)

const ruleWidth = 50

// Report is the end-of-session summary.
type Report struct {
	Rounds         []Round
	OverallAverage float64
}

// NewReport computes the overall average as the mean of per-round averages.
func NewReport(rounds []Round) Report {
	avgs := lo.Map(rounds, func(r Round, _ int) float64 { return r.Result.AverageScore })
	return Report{Rounds: rounds, OverallAverage: scoring.MeanOf(avgs)}
}

// Verdict is the closing message for the overall average.
func (r Report) Verdict() string { return FinalVerdict(r.OverallAverage) }

// RoundVerdict is the message shown next to a single property's result.
func RoundVerdict(avg float64) string {
	switch {
	case avg >= 9:
		return "Arrr! Ye be a legendary pirate!"
	case avg >= 7:
		return "Well done, ye salty sea dog!"
	case avg >= 5:
		return "Not bad, but ye need more practice!"
	default:
		return "Walk the plank! Better luck next time!"
	}
}

// FinalVerdict is the message shown with the session report.
func FinalVerdict(avg float64) string {
	switch {
	case avg >= 9:
		return "Ye be a master of the seven seas!"
	case avg >= 7:
		return "A fine pirate ye are! Keep it up!"
	case avg >= 5:
		return "Ye be improving, sailor! Practice makes perfect!"
	default:
		return "Back to pirate school with ye!"
	}
}

// WriteText renders the plain-text report.
func (r Report) WriteText(w io.Writer) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "Deal Detective - Score Report\n")
	fmt.Fprintf(bw, "%s\n\n", strings.Repeat("=", ruleWidth))
	fmt.Fprintf(bw, "Overall Average Score: %.1f/10\n\n", r.OverallAverage)
	fmt.Fprintf(bw, "Property Breakdown:\n")
	fmt.Fprintf(bw, "%s\n\n", strings.Repeat("-", ruleWidth))

	for i, round := range r.Rounds {
		res := round.Result
		fmt.Fprintf(bw, "Property %d:\n", i+1)
		if round.Property.Address != "" {
			fmt.Fprintf(bw, "  Address: %s\n", round.Property.Address)
		}
		writeFieldLine(bw, "ARV", res.ARV)
		writeFieldLine(bw, "Repairs", res.Repairs)
		writeFieldLine(bw, "MAO", res.MAO)
		writeFieldLine(bw, "LAO", res.LAO)
		fmt.Fprintf(bw, "  Average: %.1f/10\n\n", res.AverageScore)
	}
	return bw.Flush()
}

func writeFieldLine(w io.Writer, label string, fs scoring.FieldScore) {
	fmt.Fprintf(w, "  %s Score: %d/%d (%s off)\n", label, fs.Score, scoring.MaxScore, FormatPercent(fs.PercentDiff))
}

// FormatPercent renders a percent difference, "n/a" when there is none.
func FormatPercent(pd *float64) string {
	if pd == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.1f%%", *pd)
}

// ReportFileName is the export name for a report written at t.
func ReportFileName(t time.Time) string {
	return fmt.Sprintf("deal-detective-report-%d.txt", t.UnixMilli())
}
