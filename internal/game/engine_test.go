package game

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/deal-detective/apps/go-server/internal/catalog"
	"github.com/robalobadob/deal-detective/apps/go-server/internal/properties"
	"github.com/robalobadob/deal-detective/apps/go-server/internal/scoring"
)

// fakeClient scores locally against a fixed catalog.
type fakeClient struct {
	records   []catalog.PropertyRecord
	listErr   error
	submitErr error
	lists     int
	submits   []int
}

func (f *fakeClient) ListProperties(context.Context) ([]properties.PublicProperty, error) {
	f.lists++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return lo.Map(f.records, func(r catalog.PropertyRecord, i int) properties.PublicProperty {
		return properties.PublicProperty{ID: i, Address: r.Address, ContractPrice: r.ContractPrice}
	}), nil
}

func (f *fakeClient) Submit(_ context.Context, p properties.PublicProperty, g scoring.Guess) (scoring.Result, error) {
	id := p.ID
	f.submits = append(f.submits, id)
	if f.submitErr != nil {
		return scoring.Result{}, f.submitErr
	}
	return scoring.Evaluate(g, f.records[id])
}

func record(addr string) catalog.PropertyRecord {
	return catalog.PropertyRecord{
		Address:              addr,
		ContractPrice:        105000,
		AfterRepairValue:     150000,
		RepairCost:           15000,
		MaxAllowableOffer:    105000,
		LowestAllowableOffer: 73500,
	}
}

var exact = scoring.Guess{ARV: 150000, Repairs: 15000, MAO: 105000, LAO: 73500}

func loaded(t *testing.T, n int) (*Session, *fakeClient) {
	t.Helper()
	recs := make([]catalog.PropertyRecord, n)
	for i := range recs {
		recs[i] = record(strings.Repeat("x", i+1))
	}
	fc := &fakeClient{records: recs}
	s := NewSession(fc)
	require.NoError(t, s.Load(context.Background()))
	return s, fc
}

func TestLoadEntersFirstProperty(t *testing.T) {
	rq := require.New(t)
	s := NewSession(&fakeClient{records: []catalog.PropertyRecord{record("a")}})
	rq.Equal(PhaseLoading, s.Phase())
	_, ok := s.Current()
	rq.False(ok)

	rq.NoError(s.Load(context.Background()))
	rq.Equal(PhasePlaying, s.Phase())
	rq.Equal(0, s.Index())
	p, ok := s.Current()
	rq.True(ok)
	rq.Equal("a", p.Address)

	rq.ErrorIs(s.Load(context.Background()), ErrWrongPhase)
}

func TestLoadFailureIsTerminal(t *testing.T) {
	cases := []struct {
		name string
		fc   *fakeClient
		want error
	}{
		{"fetch error", &fakeClient{listErr: errors.New("connection refused")}, nil},
		{"empty catalog", &fakeClient{}, ErrNoProperties},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rq := require.New(t)
			s := NewSession(tc.fc)
			rq.Error(s.Load(context.Background()))
			rq.Equal(PhaseFailed, s.Phase())
			rq.Error(s.Err())
			if tc.want != nil {
				rq.ErrorIs(s.Err(), tc.want)
			}

			// No retry from Failed.
			rq.ErrorIs(s.Load(context.Background()), ErrWrongPhase)
			rq.Equal(1, tc.fc.lists)
			rq.ErrorIs(s.Set(FieldARV, 1), ErrWrongPhase)
		})
	}
}

func TestSubmitRequiresAllFour(t *testing.T) {
	rq := require.New(t)
	s, fc := loaded(t, 1)

	rq.NoError(s.Set(FieldARV, 150000))
	rq.NoError(s.Set(FieldRepairs, 15000))
	rq.NoError(s.Set(FieldMAO, 105000))
	rq.Equal([]Field{FieldLAO}, s.Draft().Missing())

	_, err := s.Submit(context.Background())
	rq.ErrorIs(err, ErrIncompleteGuess)
	rq.Empty(fc.submits)
	rq.Equal(PhasePlaying, s.Phase())

	rq.NoError(s.Set(FieldLAO, 73500))
	res, err := s.Submit(context.Background())
	rq.NoError(err)
	rq.Equal(10.0, res.AverageScore)
	rq.Equal(PhaseScored, s.Phase())
}

func TestSetRejectsBadAmounts(t *testing.T) {
	rq := require.New(t)
	s, _ := loaded(t, 1)

	for _, v := range []float64{-1, math.NaN(), math.Inf(1)} {
		rq.ErrorIs(s.Set(FieldARV, v), ErrInvalidAmount)
	}
	rq.ErrorIs(s.Set(Field("deal"), 1), ErrUnknownField)
	rq.NoError(s.Set(FieldARV, 0))
}

func TestSubmitFailureKeepsDraftForRetry(t *testing.T) {
	rq := require.New(t)
	s, fc := loaded(t, 2)
	rq.NoError(s.SetGuess(exact))

	fc.submitErr = errors.New("network down")
	_, err := s.Submit(context.Background())
	rq.Error(err)
	rq.Equal(PhasePlaying, s.Phase())
	rq.Equal(0, s.Index())
	rq.Empty(s.Draft().Missing())
	rq.Empty(s.Rounds())

	fc.submitErr = nil
	res, err := s.Submit(context.Background())
	rq.NoError(err)
	rq.Equal(10.0, res.AverageScore)
	rq.Equal([]int{0, 0}, fc.submits)
	rq.Len(s.Rounds(), 1)
}

func TestCatalogChangeEndsSession(t *testing.T) {
	rq := require.New(t)
	s, fc := loaded(t, 2)
	rq.NoError(s.SetGuess(exact))

	fc.submitErr = fmt.Errorf("api: %w", catalog.ErrCatalogChanged)
	_, err := s.Submit(context.Background())
	rq.ErrorIs(err, catalog.ErrCatalogChanged)
	rq.Equal(PhaseFailed, s.Phase())
	rq.ErrorIs(s.Err(), catalog.ErrCatalogChanged)
	rq.Empty(s.Rounds())

	_, err = s.Submit(context.Background())
	rq.ErrorIs(err, ErrWrongPhase)
	rq.Equal([]int{0}, fc.submits)
}

func TestFullPlaythroughAndRestart(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()
	s, fc := loaded(t, 3)

	guesses := []scoring.Guess{
		exact,
		{ARV: 157500, Repairs: 15750, MAO: 110250, LAO: 77175}, // 10.0
		{ARV: 300000, Repairs: 15000, MAO: 105000, LAO: 73500}, // 7.8
	}
	for i, g := range guesses {
		rq.Equal(PhasePlaying, s.Phase())
		rq.Equal(i, s.Index())
		rq.ErrorIs(s.Next(), ErrWrongPhase)

		rq.NoError(s.SetGuess(g))
		_, err := s.Submit(ctx)
		rq.NoError(err)

		last, ok := s.LastResult()
		rq.True(ok)
		rq.Equal(s.Rounds()[i].Result, last)

		rq.NoError(s.Next())
	}
	rq.Equal(PhaseComplete, s.Phase())
	rq.Equal([]int{0, 1, 2}, fc.submits)

	rep := s.Report()
	rq.Len(rep.Rounds, 3)
	rq.Equal(9.3, rep.OverallAverage) // (10 + 10 + 7.8) / 3 = 9.27
	rq.Equal("Ye be a master of the seven seas!", rep.Verdict())

	rq.NoError(s.Restart())
	rq.Equal(PhasePlaying, s.Phase())
	rq.Equal(0, s.Index())
	rq.Empty(s.Rounds())
	rq.Len(s.Draft().Missing(), 4)
	rq.Equal(1, fc.lists)
}

func TestRestartOnlyWhenComplete(t *testing.T) {
	rq := require.New(t)
	s, _ := loaded(t, 2)
	rq.ErrorIs(s.Restart(), ErrWrongPhase)
}

func TestNewDraftPerProperty(t *testing.T) {
	rq := require.New(t)
	s, _ := loaded(t, 2)

	rq.NoError(s.SetGuess(exact))
	_, err := s.Submit(context.Background())
	rq.NoError(err)
	rq.NoError(s.Next())

	rq.Len(s.Draft().Missing(), 4)
}

func TestVerdicts(t *testing.T) {
	rq := require.New(t)
	rq.Equal("Arrr! Ye be a legendary pirate!", RoundVerdict(9))
	rq.Equal("Well done, ye salty sea dog!", RoundVerdict(8.9))
	rq.Equal("Not bad, but ye need more practice!", RoundVerdict(5))
	rq.Equal("Walk the plank! Better luck next time!", RoundVerdict(4.9))

	rq.Equal("A fine pirate ye are! Keep it up!", FinalVerdict(7))
	rq.Equal("Ye be improving, sailor! Practice makes perfect!", FinalVerdict(6.9))
	rq.Equal("Back to pirate school with ye!", FinalVerdict(0))
}

func TestReportText(t *testing.T) {
	rq := require.New(t)

	five := 5.0
	zero := 0.0
	rounds := []Round{{
		Property: properties.PublicProperty{Address: "274 Kenwood Ave"},
		Result: scoring.Result{
			ARV:          scoring.FieldScore{Score: 10, Color: scoring.ColorGreen, PercentDiff: &five},
			Repairs:      scoring.FieldScore{Score: 10, Color: scoring.ColorGreen, PercentDiff: &zero},
			MAO:          scoring.FieldScore{Score: 7, Color: scoring.ColorOrange, PercentDiff: lo.ToPtr(17.5)},
			LAO:          scoring.FieldScore{Score: 0, Color: scoring.ColorRed},
			AverageScore: 6.8,
		},
	}}

	var buf bytes.Buffer
	rq.NoError(NewReport(rounds).WriteText(&buf))
	out := buf.String()

	rq.True(strings.HasPrefix(out, "Deal Detective - Score Report\n"+strings.Repeat("=", 50)+"\n"))
	rq.Contains(out, "Overall Average Score: 6.8/10")
	rq.Contains(out, "Property 1:\n  Address: 274 Kenwood Ave\n")
	rq.Contains(out, "  ARV Score: 10/10 (5.0% off)\n")
	rq.Contains(out, "  Repairs Score: 10/10 (0.0% off)\n")
	rq.Contains(out, "  MAO Score: 7/10 (17.5% off)\n")
	rq.Contains(out, "  LAO Score: 0/10 (n/a off)\n")
	rq.Contains(out, "  Average: 6.8/10\n")
}

func TestEmptyReport(t *testing.T) {
	rq := require.New(t)
	rep := NewReport(nil)
	rq.Equal(0.0, rep.OverallAverage)

	var buf bytes.Buffer
	rq.NoError(rep.WriteText(&buf))
	rq.Contains(buf.String(), "Overall Average Score: 0.0/10")
}

func TestReportFileName(t *testing.T) {
	ts := time.UnixMilli(1760000000123)
	require.Equal(t, "deal-detective-report-1760000000123.txt", ReportFileName(ts))
}
