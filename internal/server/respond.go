package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/BubDublin/solar-proforma/internal/domain"
	"github.com/BubDublin/solar-proforma/internal/projection"
	"github.com/BubDublin/solar-proforma/internal/storage"
)

// errorResponse is the JSON body of every non-2xx API response.
type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Printf("encode response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	s.writeJSON(w, status, errorResponse{
		Error:     err.Error(),
		RequestID: RequestID(r.Context()),
	})
}

// statusFor maps errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, projection.ErrInvalidInput):
		return http.StatusUnprocessableEntity
	case errors.Is(err, errDecode):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

var errDecode = errors.New("malformed request body")

// decodeJSON decodes a single JSON document, rejecting unknown fields.
func decodeJSON(r io.Reader, v interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errDecode, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data after JSON document", errDecode)
	}
	return nil
}

// normalize applies input defaults; InstallYear defaults to the current year.
func (s *Server) normalize(in domain.ProjectInput) domain.ProjectInput {
	in = in.WithDefaults()
	if in.InstallYear == 0 {
		in.InstallYear = s.now().Year()
	}
	return in
}
