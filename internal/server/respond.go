package server

import (
	"errors"
	"net"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/gusttavosants/StarWars/pkg/apperr"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	StatusCode int    `json:"status_code"`
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		zerolog.Ctx(r.Context()).Debug().Err(err).Msg("Failed to write JSON response")
	}
}

// writeError maps err onto an ErrorResponse. Errors outside the apperr
// taxonomy are reported as a generic 500 without leaking their text.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	resp := ErrorResponse{
		Error:      string(apperr.KindInternal),
		Message:    "internal server error",
		StatusCode: http.StatusInternalServerError,
	}

	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		resp.Error = string(appErr.Kind)
		resp.Message = appErr.Message
		resp.StatusCode = appErr.Status
	}

	noteFailure(r, resp.Error, resp.Message)

	logger := zerolog.Ctx(r.Context())
	if resp.StatusCode >= http.StatusInternalServerError {
		logger.Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
	} else {
		logger.Debug().Err(err).Str("path", r.URL.Path).Msg("Request rejected")
	}

	writeJSON(w, r, resp.StatusCode, resp)
}

// clientIP returns the remote address without its port. chi's RealIP
// middleware has already applied any forwarding headers.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
