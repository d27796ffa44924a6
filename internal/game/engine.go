// internal/game/engine.go
//
// Game flow for a single Deal Detective session.
// Responsibilities:
//   - Fetch the public catalog once (Loading → Playing(0), or Failed).
//   - Collect a guess for the current property and submit it for scoring.
//   - Track state transitions: playing → scored → playing(i+1) … → complete.
//   - Restart without re-fetching the catalog.
//
// Notes:
//   - A failed submission leaves the session in Playing(i) with the draft kept,
//     so the player can retry. The exception is catalog.ErrCatalogChanged: the
//     server reloaded its catalog, every id we hold is stale, and the session
//     moves to Failed.
//   - A Session is driven by one goroutine; it is not safe for concurrent use.

package game

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/samber/lo"

	"github.com/robalobadob/deal-detective/apps/go-server/internal/catalog"
	"github.com/robalobadob/deal-detective/apps/go-server/internal/properties"
	"github.com/robalobadob/deal-detective/apps/go-server/internal/scoring"
)

// Session is the client-owned state of one playthrough.
type Session struct {
	client  Client
	phase   Phase
	catalog []properties.PublicProperty
	index   int
	draft   Draft
	rounds  []Round
	err     error
}

// NewSession constructs a session in the Loading phase.
func NewSession(c Client) *Session {
	return &Session{client: c, phase: PhaseLoading}
}

// Load fetches the catalog. Any failure is terminal.
func (s *Session) Load(ctx context.Context) error {
	if s.phase != PhaseLoading {
		return ErrWrongPhase
	}
	list, err := s.client.ListProperties(ctx)
	if err == nil && len(list) == 0 {
		err = ErrNoProperties
	}
	if err != nil {
		s.phase, s.err = PhaseFailed, err
		return fmt.Errorf("load catalog: %w", err)
	}
	s.catalog = list
	s.enterPlaying(0)
	return nil
}

// Phase reports the current phase.
func (s *Session) Phase() Phase { return s.phase }

// Err returns the error that put the session in PhaseFailed.
func (s *Session) Err() error { return s.err }

// Index is the position of the current property (0-based).
func (s *Session) Index() int { return s.index }

// Total is the number of properties in the session.
func (s *Session) Total() int { return len(s.catalog) }

// Current returns the property being played or shown.
func (s *Session) Current() (properties.PublicProperty, bool) {
	if s.phase != PhasePlaying && s.phase != PhaseScored {
		return properties.PublicProperty{}, false
	}
	return s.catalog[s.index], true
}

// Draft returns a copy of the in-progress guess.
func (s *Session) Draft() Draft { return s.draft }

// Set records one estimate for the current property.
func (s *Session) Set(f Field, v float64) error {
	if s.phase != PhasePlaying {
		return ErrWrongPhase
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return ErrInvalidAmount
	}
	p, err := s.draft.slot(f)
	if err != nil {
		return err
	}
	*p = lo.ToPtr(v)
	return nil
}

// SetGuess fills all four estimates at once.
func (s *Session) SetGuess(g scoring.Guess) error {
	for _, fv := range []struct {
		f Field
		v float64
	}{{FieldARV, g.ARV}, {FieldRepairs, g.Repairs}, {FieldMAO, g.MAO}, {FieldLAO, g.LAO}} {
		if err := s.Set(fv.f, fv.v); err != nil {
			return err
		}
	}
	return nil
}

// Submit scores the draft for the current property.
// On success the session moves to Scored(i); on error it stays in Playing(i),
// unless the server's catalog changed since Load.
func (s *Session) Submit(ctx context.Context) (scoring.Result, error) {
	if s.phase != PhasePlaying {
		return scoring.Result{}, ErrWrongPhase
	}
	g, err := s.draft.Guess()
	if err != nil {
		return scoring.Result{}, err
	}
	prop := s.catalog[s.index]
	res, err := s.client.Submit(ctx, prop, g)
	if err != nil {
		err = fmt.Errorf("submit property %d: %w", prop.ID, err)
		if errors.Is(err, catalog.ErrCatalogChanged) {
			s.phase, s.err = PhaseFailed, err
		}
		return scoring.Result{}, err
	}
	s.rounds = append(s.rounds, Round{Property: prop, Guess: g, Result: res})
	s.phase = PhaseScored
	return res, nil
}

// LastResult is the result shown in Scored(i).
func (s *Session) LastResult() (scoring.Result, bool) {
	if s.phase != PhaseScored || len(s.rounds) == 0 {
		return scoring.Result{}, false
	}
	return s.rounds[len(s.rounds)-1].Result, true
}

// Next advances from Scored(i) to Playing(i+1), or to Complete after the last property.
func (s *Session) Next() error {
	if s.phase != PhaseScored {
		return ErrWrongPhase
	}
	if s.index+1 < len(s.catalog) {
		s.enterPlaying(s.index + 1)
		return nil
	}
	s.phase = PhaseComplete
	return nil
}

// Restart clears the accumulated rounds and returns to Playing(0).
// The catalog is reused as fetched.
func (s *Session) Restart() error {
	if s.phase != PhaseComplete {
		return ErrWrongPhase
	}
	s.rounds = nil
	s.enterPlaying(0)
	return nil
}

// Rounds returns a copy of the scored rounds so far.
func (s *Session) Rounds() []Round {
	out := make([]Round, len(s.rounds))
	copy(out, s.rounds)
	return out
}

// Report summarizes the rounds so far.
func (s *Session) Report() Report {
	return NewReport(s.Rounds())
}

func (s *Session) enterPlaying(i int) {
	s.index = i
	s.draft = Draft{}
	s.phase = PhasePlaying
}
