package main

import (
	"bufio"
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/deal-detective/apps/go-server/internal/apiclient"
	"github.com/robalobadob/deal-detective/apps/go-server/internal/catalog"
	"github.com/robalobadob/deal-detective/apps/go-server/internal/game"
	"github.com/robalobadob/deal-detective/apps/go-server/internal/httpserver"
	"github.com/robalobadob/deal-detective/apps/go-server/internal/properties"
	"github.com/robalobadob/deal-detective/apps/go-server/internal/scoring"
)

func newPlayer(t *testing.T, input string) (*player, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	return &player{
		in:     bufio.NewScanner(strings.NewReader(input)),
		out:    &out,
		outDir: t.TempDir(),
		now:    func() time.Time { return time.UnixMilli(1760000000000) },
	}, &out
}

func sampleSession(t *testing.T) *game.Session {
	t.Helper()
	s, _ := sampleSessionWithHolder(t)
	return s
}

func sampleSessionWithHolder(t *testing.T) (*game.Session, *catalog.Holder) {
	t.Helper()
	h := catalog.NewHolder(catalog.Sample())
	nop := zerolog.Nop()
	ts := httptest.NewServer(httpserver.New(h, properties.NewService(h, nil), httpserver.Options{Logger: &nop}).Router())
	t.Cleanup(ts.Close)
	return game.NewSession(apiclient.New(ts.URL, nil)), h
}

func TestScriptedGameSavesReport(t *testing.T) {
	rq := require.New(t)
	input := strings.Join([]string{
		"$157,500", "oops", "15750", "110250", "77175", // guesses, one rejected
		"",  // continue
		"s", // save
		"q",
	}, "\n") + "\n"

	p, out := newPlayer(t, input)
	err := p.play(context.Background(), sampleSession(t))
	rq.ErrorIs(err, errQuit)

	text := out.String()
	rq.Contains(text, "Contract price: $105,000")
	rq.Contains(text, "Repairs needs a non-negative number")
	rq.Contains(text, "Average  10.0/10  Arrr! Ye be a legendary pirate!")
	rq.Contains(text, "Overall average: 10.0/10")

	path := filepath.Join(p.outDir, "deal-detective-report-1760000000000.txt")
	rq.Contains(text, "Report written to "+path)
	b, err := os.ReadFile(path)
	rq.NoError(err)
	rq.Contains(string(b), "  ARV Score: 10/10 (5.0% off)")
}

func TestScriptedGameRestart(t *testing.T) {
	rq := require.New(t)
	input := strings.Join([]string{
		"150000", "15000", "105000", "73500", "", "r",
		"300000", "15000", "105000", "73500", "", "q",
	}, "\n") + "\n"

	p, out := newPlayer(t, input)
	rq.ErrorIs(p.play(context.Background(), sampleSession(t)), errQuit)

	text := out.String()
	rq.Equal(2, strings.Count(text, "--- Property 1 of 1 ---"))
	rq.Contains(text, "Overall average: 7.8/10")
}

func TestBlankLineAtFinalPromptAsksAgain(t *testing.T) {
	rq := require.New(t)
	input := strings.Join([]string{
		"150000", "15000", "105000", "73500", "",
		"",  // stray Enter at the final prompt
		"s", // still gets to save
	}, "\n") + "\n"

	p, out := newPlayer(t, input)
	rq.ErrorIs(p.play(context.Background(), sampleSession(t)), errQuit)

	path := filepath.Join(p.outDir, "deal-detective-report-1760000000000.txt")
	rq.Contains(out.String(), "Report written to "+path)
	_, err := os.Stat(path)
	rq.NoError(err)
}

func TestCatalogReloadMidGame(t *testing.T) {
	rq := require.New(t)
	s, h := sampleSessionWithHolder(t)

	rq.NoError(s.Load(context.Background()))
	rq.NoError(s.SetGuess(scoring.Guess{ARV: 150000, Repairs: 15000, MAO: 105000, LAO: 73500}))
	h.Swap(catalog.Sample())

	p, out := newPlayer(t, "")
	p.interactive = true
	rq.NoError(p.playRound(context.Background(), s))
	rq.Equal(game.PhaseFailed, s.Phase())
	rq.ErrorIs(s.Err(), catalog.ErrCatalogChanged)
	rq.NotContains(out.String(), "Retry?")
}

func TestLoadFailure(t *testing.T) {
	rq := require.New(t)
	ts := httptest.NewServer(nil)
	url := ts.URL
	ts.Close()

	p, out := newPlayer(t, "")
	err := p.play(context.Background(), game.NewSession(apiclient.New(url, nil)))
	rq.Error(err)
	rq.Contains(out.String(), "Could not load properties")
}

func TestMoney(t *testing.T) {
	rq := require.New(t)
	rq.Equal("$0", money(0))
	rq.Equal("$999", money(999))
	rq.Equal("$1,000", money(1000))
	rq.Equal("$105,000", money(105000))
	rq.Equal("$1,234,567", money(1234567))
}
