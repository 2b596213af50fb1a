package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"birdwatch/internal/domain"
	"birdwatch/internal/projection"
	"birdwatch/internal/service"
	"birdwatch/internal/views"
)

// timeNow is swapped in tests.
var timeNow = time.Now

// APIError is the body of every non-2xx response.
type APIError struct {
	Error string `json:"error"`
	Time  string `json:"time"`
}

// statusFor maps service and projection errors onto HTTP status codes.
// Anything else, projection configuration errors included, is a 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, views.ErrUnknownView):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrAlreadyRunning):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err as an APIError. Server-side failures are logged with
// the request ID; their message is not echoed back.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		s.logger.Printf("[API] %s %s %s: %v", w.Header().Get(requestIDHeader), r.Method, r.URL.Path, err)
		msg = http.StatusText(status)
		if projection.IsConfigError(err) {
			msg = "view configuration error"
		}
	}
	writeError(w, status, msg)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIError{
		Error: msg,
		Time:  timeNow().UTC().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(true)
	_ = enc.Encode(v)
}
