package httpserver

import (
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/hlog"

	"github.com/robalobadob/deal-detective/apps/go-server/internal/apperr"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("encode response")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Internal server error","code":"internal"}`))
		return
	}
	w.WriteHeader(status)
	_, _ = w.Write(b)
}

// writeError maps err to a status code and a player-safe message.
// Unclassified errors are logged and reported as a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	body := errorBody{RequestID: chimw.GetReqID(r.Context())}
	status := http.StatusInternalServerError

	e, ok := apperr.As(err)
	switch {
	case ok && e.Kind == apperr.KindInvalid:
		status = http.StatusBadRequest
		body.Error, body.Code = e.Message, e.Code
	case ok && e.Kind == apperr.KindNotFound:
		status = http.StatusNotFound
		body.Error, body.Code = e.Message, e.Code
	case ok && e.Kind == apperr.KindConflict:
		status = http.StatusConflict
		body.Error, body.Code = e.Message, e.Code
	default:
		hlog.FromRequest(r).Error().Err(err).Msg("request failed")
		body.Error, body.Code = "Internal server error", "internal"
	}
	writeJSON(w, r, status, body)
}
