package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/swimline/heatsheet/internal/common"
)

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("http.encode_failed", "error", err)
	}
}

// writeError maps pipeline errors onto HTTP statuses. Client mistakes are
// 4xx, a broken cache store is 503, a misbehaving model provider is 502.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	code := "INTERNAL"
	msg := "internal error"

	var appErr *common.AppError
	var emptyErr *common.EmptyModelResponseError
	var malformedErr *common.MalformedOutputError

	switch {
	case errors.Is(err, common.ErrInvalidInput):
		status = http.StatusBadRequest
		code = "INVALID_INPUT"
		msg = err.Error()
		if errors.As(err, &appErr) {
			msg = appErr.Message
		}
	case errors.Is(err, common.ErrNotFound):
		status = http.StatusNotFound
		code = "NOT_FOUND"
		msg = "not found"
		if errors.As(err, &appErr) {
			msg = appErr.Message
		}
	case errors.Is(err, common.ErrCacheUnavailable):
		status = http.StatusServiceUnavailable
		code = "CACHE_UNAVAILABLE"
		msg = "cache store unavailable, try again later"
	case errors.As(err, &emptyErr), errors.As(err, &malformedErr), common.IsTransient(err):
		status = http.StatusBadGateway
		code = "UPSTREAM_FAILED"
		msg = "model provider failed to produce a usable result"
	}

	s.log.Error("http.request_failed",
		"req_id", common.RequestIDFromContext(r.Context()),
		"path", r.URL.Path,
		"status", status,
		"error", err,
	)
	s.writeJSON(w, status, errorBody{Error: msg, Code: code})
}
