// cmd/detective/main.go
//
// Terminal client for Deal Detective.
// Fetches the property list from a running server, walks the player through
// each property, and offers a plain-text report at the end.
//
// Usage:
//
//	detective [-api http://localhost:3001] [-out .]
//
// Stdin may be a pipe; prompts are only printed for an interactive terminal.

package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"

	"github.com/robalobadob/deal-detective/apps/go-server/internal/apiclient"
	"github.com/robalobadob/deal-detective/apps/go-server/internal/catalog"
	"github.com/robalobadob/deal-detective/apps/go-server/internal/game"
	"github.com/robalobadob/deal-detective/apps/go-server/internal/scoring"
)

const defaultAPI = "http://localhost:3001"

var errQuit = errors.New("quit")

func main() {
	api := flag.String("api", envOr("DETECTIVE_API_URL", defaultAPI), "Deal Detective server base URL")
	outDir := flag.String("out", ".", "directory for exported reports")
	verbose := flag.Bool("v", false, "log API calls")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p := &player{
		in:          bufio.NewScanner(os.Stdin),
		out:         os.Stdout,
		interactive: term.IsTerminal(int(os.Stdin.Fd())),
		outDir:      *outDir,
		now:         time.Now,
	}
	s := game.NewSession(apiclient.New(*api, nil))
	if err := p.play(ctx, s); err != nil && !errors.Is(err, errQuit) && !errors.Is(err, io.EOF) {
		log.Error().Err(err).Msg("game ended")
		os.Exit(1)
	}
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// player drives a game.Session from line-oriented input.
type player struct {
	in          *bufio.Scanner
	out         io.Writer
	interactive bool
	outDir      string
	now         func() time.Time
}

func (p *player) play(ctx context.Context, s *game.Session) error {
	fmt.Fprintln(p.out, "Loading properties...")
	if err := s.Load(ctx); err != nil {
		fmt.Fprintf(p.out, "Could not load properties: %v\n", err)
		return err
	}

	for {
		var err error
		switch s.Phase() {
		case game.PhasePlaying:
			err = p.playRound(ctx, s)
		case game.PhaseScored:
			err = p.showScore(s)
		case game.PhaseComplete:
			err = p.finish(s)
		case game.PhaseFailed:
			fmt.Fprintln(p.out, "The property list changed on the server. Start a new game to play it.")
			return s.Err()
		default:
			return fmt.Errorf("unexpected phase %q", s.Phase())
		}
		if err != nil {
			return err
		}
	}
}

func (p *player) playRound(ctx context.Context, s *game.Session) error {
	prop, _ := s.Current()
	fmt.Fprintf(p.out, "\n--- Property %d of %d ---\n", s.Index()+1, s.Total())
	fmt.Fprintf(p.out, "Address:        %s\n", prop.Address)
	fmt.Fprintf(p.out, "Notes:          %s\n", prop.Notes)
	if prop.Pictures != "" {
		fmt.Fprintf(p.out, "Pictures:       %s\n", prop.Pictures)
	}
	fmt.Fprintf(p.out, "Contract price: %s\n", money(prop.ContractPrice))
	if prop.Lat != nil && prop.Lng != nil {
		fmt.Fprintf(p.out, "Location:       %.5f, %.5f\n", *prop.Lat, *prop.Lng)
	}

	for _, f := range s.Draft().Missing() {
		if err := p.askAmount(s, f); err != nil {
			return err
		}
	}

	_, err := s.Submit(ctx)
	if err == nil || s.Phase() == game.PhaseFailed {
		return nil
	}
	fmt.Fprintf(p.out, "Submission failed: %v\n", err)
	line, err := p.prompt("Retry? [Y/n] ")
	if err != nil {
		return err
	}
	if strings.EqualFold(strings.TrimSpace(line), "n") {
		return errQuit
	}
	return nil
}

func (p *player) askAmount(s *game.Session, f game.Field) error {
	for {
		line, err := p.prompt(fmt.Sprintf("Your %s estimate: ", f.Label()))
		if err != nil {
			return err
		}
		v, err := catalog.ParseAmount(line)
		if err == nil {
			err = s.Set(f, v)
		}
		if err == nil {
			return nil
		}
		fmt.Fprintf(p.out, "  %s needs a non-negative number (e.g. 150000 or $150,000)\n", f.Label())
	}
}

func (p *player) showScore(s *game.Session) error {
	res, _ := s.LastResult()
	fmt.Fprintln(p.out)
	for i, fs := range res.Fields() {
		fmt.Fprintf(p.out, "  %-8s %2d/%d  %-6s  %s off\n",
			game.Fields[i].Label(), fs.Score, scoring.MaxScore, fs.Color, game.FormatPercent(fs.PercentDiff))
	}
	fmt.Fprintf(p.out, "  Average  %.1f/10  %s\n", res.AverageScore, game.RoundVerdict(res.AverageScore))

	if _, err := p.prompt("Press Enter to continue "); err != nil {
		return err
	}
	return s.Next()
}

func (p *player) finish(s *game.Session) error {
	rep := s.Report()
	fmt.Fprintf(p.out, "\n=== Final Results ===\nOverall average: %.1f/10\n%s\n", rep.OverallAverage, rep.Verdict())
	for i, r := range rep.Rounds {
		fmt.Fprintf(p.out, "  %d. %-40s %.1f/10\n", i+1, r.Property.Address, r.Result.AverageScore)
	}

	for {
		line, err := p.prompt("[s]ave report, [r]estart, [q]uit: ")
		if errors.Is(err, io.EOF) {
			return errQuit
		}
		if err != nil {
			return err
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "s", "save":
			path, err := p.save(rep)
			if err != nil {
				fmt.Fprintf(p.out, "Could not save report: %v\n", err)
				continue
			}
			fmt.Fprintf(p.out, "Report written to %s\n", path)
		case "r", "restart":
			return s.Restart()
		case "q", "quit":
			return errQuit
		}
	}
}

func (p *player) save(rep game.Report) (string, error) {
	path := filepath.Join(p.outDir, game.ReportFileName(p.now()))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := rep.WriteText(f); err != nil {
		_ = f.Close()
		return "", err
	}
	return path, f.Close()
}

// prompt prints msg on a terminal and reads one line. io.EOF ends the game.
func (p *player) prompt(msg string) (string, error) {
	if p.interactive {
		fmt.Fprint(p.out, msg)
	}
	if !p.in.Scan() {
		if err := p.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return p.in.Text(), nil
}

func money(v float64) string {
	s := fmt.Sprintf("%.0f", v)
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return "$" + b.String()
}
