// internal/game/types.go
//
// Core type definitions for the Deal Detective game flow.
// Defines:
//   - Phase: where a session is in Loading → Playing(i) → Scored(i) → Complete.
//   - Field: the four metrics a player estimates.
//   - Draft: the in-progress guess for the current property.
//   - Round: one scored property.

package game

import (
	"context"
	"errors"

	"github.com/robalobadob/deal-detective/apps/go-server/internal/properties"
	"github.com/robalobadob/deal-detective/apps/go-server/internal/scoring"
)

// Phase is the coarse session state.
//   - "loading":  catalog not fetched yet.
//   - "playing":  collecting a guess for the current property.
//   - "scored":   showing the result for the current property.
//   - "complete": every property scored; report available.
//   - "failed":   catalog fetch failed, or the server's catalog changed
//     under the session (terminal).
type Phase string

const (
	PhaseLoading  Phase = "loading"
	PhasePlaying  Phase = "playing"
	PhaseScored   Phase = "scored"
	PhaseComplete Phase = "complete"
	PhaseFailed   Phase = "failed"
)

// Field names one estimated metric.
type Field string

const (
	FieldARV     Field = "arv"
	FieldRepairs Field = "repairs"
	FieldMAO     Field = "mao"
	FieldLAO     Field = "lao"
)

// Fields lists the metrics in prompt order.
var Fields = []Field{FieldARV, FieldRepairs, FieldMAO, FieldLAO}

// Label is the human name of the field.
func (f Field) Label() string {
	switch f {
	case FieldARV:
		return "ARV"
	case FieldRepairs:
		return "Repairs"
	case FieldMAO:
		return "MAO"
	case FieldLAO:
		return "LAO"
	}
	return string(f)
}

var (
	ErrWrongPhase      = errors.New("action not allowed in current phase")
	ErrIncompleteGuess = errors.New("all four estimates are required")
	ErrInvalidAmount   = errors.New("estimate must be a non-negative number")
	ErrUnknownField    = errors.New("unknown field")
	ErrNoProperties    = errors.New("no properties to play")
)

// Client is the subset of the API the game needs.
type Client interface {
	ListProperties(ctx context.Context) ([]properties.PublicProperty, error)
	Submit(ctx context.Context, p properties.PublicProperty, g scoring.Guess) (scoring.Result, error)
}

// Draft holds the player's estimates as they are entered.
// A nil field has not been filled in yet.
type Draft struct {
	ARV     *float64
	Repairs *float64
	MAO     *float64
	LAO     *float64
}

func (d *Draft) slot(f Field) (**float64, error) {
	switch f {
	case FieldARV:
		return &d.ARV, nil
	case FieldRepairs:
		return &d.Repairs, nil
	case FieldMAO:
		return &d.MAO, nil
	case FieldLAO:
		return &d.LAO, nil
	}
	return nil, ErrUnknownField
}

// Missing returns the fields not filled in yet.
func (d Draft) Missing() []Field {
	var out []Field
	for _, f := range Fields {
		p, _ := d.slot(f)
		if *p == nil {
			out = append(out, f)
		}
	}
	return out
}

// Guess converts a complete draft.
func (d Draft) Guess() (scoring.Guess, error) {
	if len(d.Missing()) > 0 {
		return scoring.Guess{}, ErrIncompleteGuess
	}
	return scoring.Guess{ARV: *d.ARV, Repairs: *d.Repairs, MAO: *d.MAO, LAO: *d.LAO}, nil
}

// Round is one scored property.
type Round struct {
	Property properties.PublicProperty
	Guess    scoring.Guess
	Result   scoring.Result
}
