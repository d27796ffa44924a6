// internal/httpserver/handlers.go
//
// Handlers for the game endpoints.
//
// GET  /api/properties  -> []PublicProperty (ground truth never included)
// POST /api/submit      -> scoring.Result for {propertyId, answers}
//
// Status mapping: malformed body or answers 400, unknown propertyId 404,
// catalogVersion from a catalog no longer served 409, anything else 500 with
// a generic message.

package httpserver

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/hlog"

	"github.com/robalobadob/deal-detective/apps/go-server/internal/apperr"
	"github.com/robalobadob/deal-detective/apps/go-server/internal/catalog"
	"github.com/robalobadob/deal-detective/apps/go-server/internal/metrics"
	"github.com/robalobadob/deal-detective/apps/go-server/internal/scoring"
)

const maxBodyBytes = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ----- DTOs -----

type answersReq struct {
	ARV     *float64 `json:"arv" validate:"required,gte=0"`
	Repairs *float64 `json:"repairs" validate:"required,gte=0"`
	MAO     *float64 `json:"mao" validate:"required,gte=0"`
	LAO     *float64 `json:"lao" validate:"required,gte=0"`
}

type submitReq struct {
	PropertyID     *int        `json:"propertyId" validate:"required"`
	CatalogVersion string      `json:"catalogVersion"`
	Answers        *answersReq `json:"answers" validate:"required"`
}

func (a *answersReq) guess() scoring.Guess {
	return scoring.Guess{ARV: *a.ARV, Repairs: *a.Repairs, MAO: *a.MAO, LAO: *a.LAO}
}

type healthRes struct {
	OK         bool `json:"ok"`
	Properties int  `json:"properties"`
}

// ----- handlers -----

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, healthRes{OK: true, Properties: s.catalogs.Current().Len()})
}

func (s *Server) handleProperties(w http.ResponseWriter, r *http.Request) {
	list, err := s.lister.ListPublicFrom(r.Context(), s.catalogs.Current())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, list)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	req, err := decodeSubmit(w, r)
	if err != nil {
		metrics.Submissions.WithLabelValues(metrics.SubmissionInvalid).Inc()
		writeError(w, r, err)
		return
	}

	truth, err := s.catalogs.Current().GetVersioned(*req.PropertyID, req.CatalogVersion)
	if err != nil {
		outcome := metrics.SubmissionNotFound
		if errors.Is(err, catalog.ErrCatalogChanged) {
			outcome = metrics.SubmissionStale
		}
		metrics.Submissions.WithLabelValues(outcome).Inc()
		writeError(w, r, err)
		return
	}

	res, err := scoring.Evaluate(req.Answers.guess(), truth)
	if err != nil {
		outcome := metrics.SubmissionFailed
		if apperr.KindOf(err) == apperr.KindInvalid {
			outcome = metrics.SubmissionInvalid
		}
		metrics.Submissions.WithLabelValues(outcome).Inc()
		writeError(w, r, err)
		return
	}

	metrics.Submissions.WithLabelValues(metrics.SubmissionScored).Inc()
	metrics.AverageScores.Observe(res.AverageScore)
	hlog.FromRequest(r).Debug().
		Int("property_id", *req.PropertyID).
		Float64("average", res.AverageScore).
		Msg("answer scored")
	writeJSON(w, r, http.StatusOK, res)
}

// decodeSubmit reads and validates the submit body.
func decodeSubmit(w http.ResponseWriter, r *http.Request) (submitReq, error) {
	var req submitReq
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return req, apperr.Wrap(err, apperr.KindInvalid, "invalid_body", "Request body could not be read")
	}
	if err := json.Unmarshal(body, &req); err != nil {
		return req, apperr.Wrap(err, apperr.KindInvalid, "invalid_body", "Request body must be a JSON object with propertyId and answers")
	}
	if err := validate.Struct(req); err != nil {
		return req, apperr.Wrap(err, apperr.KindInvalid, "invalid_answer", describeValidation(err))
	}
	return req, nil
}

// describeValidation turns validator errors into "answers.arv is required; ...".
func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "Invalid request"
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), "submitReq.")
		switch fe.Tag() {
		case "required":
			parts = append(parts, field+" is required")
		case "gte":
			parts = append(parts, field+" must not be negative")
		default:
			parts = append(parts, fmt.Sprintf("%s failed %s", field, fe.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}
