package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ternarybob/abacus/pkg/calc"
	"github.com/ternarybob/abacus/pkg/keypad"
	"github.com/ternarybob/abacus/pkg/session"
)

// version is set via -ldflags at build time
var version = "dev"

// maxBodyBytes bounds press and eval request bodies.
const maxBodyBytes = 64 << 10

// SetVersion sets the version string (called from main).
func SetVersion(v string) {
	version = v
}

// Response types

// HealthResponse is the response for /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// VersionResponse is the response for /version.
type VersionResponse struct {
	Version string `json:"version"`
	Service string `json:"service"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StateResponse describes a calculator state.
type StateResponse struct {
	ID            string `json:"id,omitempty"`
	Display       string `json:"display"`
	Accumulator   string `json:"accumulator"`
	Operand       string `json:"operand"`
	Pending       string `json:"pending"`
	JustCommitted bool   `json:"just_committed"`
}

// NewStateResponse builds the response for a state.
func NewStateResponse(id string, s calc.State) StateResponse {
	return StateResponse{
		ID:            id,
		Display:       calc.Display(s),
		Accumulator:   s.Accumulator,
		Operand:       s.Operand,
		Pending:       s.Pending.String(),
		JustCommitted: s.JustCommitted,
	}
}

// PressRequest is the request body for /eval and /sessions/{id}/press.
// Keys is a key string such as "12+3="; Inputs lists individual key
// labels. When both are set, Inputs are applied after Keys.
type PressRequest struct {
	Keys   string   `json:"keys,omitempty"`
	Inputs []string `json:"inputs,omitempty"`
}

// inputs parses the request into calculator inputs.
func (p PressRequest) inputs() ([]calc.Input, error) {
	fromKeys, err := keypad.ParseSequence(p.Keys)
	if err != nil {
		return nil, err
	}
	fromLabels, err := keypad.ParseAll(p.Inputs)
	if err != nil {
		return nil, err
	}
	return append(fromKeys, fromLabels...), nil
}

// SessionListResponse lists session ids.
type SessionListResponse struct {
	Sessions []string `json:"sessions"`
	Total    int      `json:"total"`
}

// KeypadResponse describes the keypad layout.
type KeypadResponse struct {
	Rows [][]keypad.Button `json:"rows"`
}

// Handlers

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, VersionResponse{
		Version: version,
		Service: "abacus-service",
	})
}

func (s *Server) handleKeypad(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, KeypadResponse{Rows: keypad.Layout()})
}

func (s *Server) handleEval(w http.ResponseWriter, r *http.Request) {
	req, ok := decodePress(w, r)
	if !ok {
		return
	}

	inputs, err := req.inputs()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	state := calc.Apply(calc.Initial(), inputs...)
	writeJSON(w, http.StatusOK, NewStateResponse("", state))
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	ids := s.store.List()
	writeJSON(w, http.StatusOK, SessionListResponse{Sessions: ids, Total: len(ids)})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.store.Create()
	if err != nil {
		if errors.Is(err, session.ErrStoreFull) {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		s.logger.Error().Err(err).Msg("Failed to create session")
		writeError(w, http.StatusInternalServerError, "Failed to create session")
		return
	}

	s.logger.Info().Str("session_id", sess.ID()).Msg("Session created")
	writeJSON(w, http.StatusCreated, NewStateResponse(sess.ID(), sess.State()))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, NewStateResponse(sess.ID(), sess.State()))
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.store.Delete(id); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.logger.Info().Str("session_id", id).Msg("Session deleted")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePress(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}

	req, ok := decodePress(w, r)
	if !ok {
		return
	}

	inputs, err := req.inputs()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	state, err := sess.Press(inputs...)
	if err != nil {
		s.logger.Error().Err(err).Str("session_id", sess.ID()).Msg("Failed to save session")
		writeError(w, http.StatusInternalServerError, "Failed to save session")
		return
	}
	writeJSON(w, http.StatusOK, NewStateResponse(sess.ID(), state))
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	state, err := sess.Reset()
	if err != nil {
		s.logger.Error().Err(err).Str("session_id", sess.ID()).Msg("Failed to save session")
		writeError(w, http.StatusInternalServerError, "Failed to save session")
		return
	}
	writeJSON(w, http.StatusOK, NewStateResponse(sess.ID(), state))
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (session.Session, bool) {
	sess, err := s.store.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Session not found")
		return nil, false
	}
	return sess, true
}

func decodePress(w http.ResponseWriter, r *http.Request) (PressRequest, bool) {
	var req PressRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return req, false
		}
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return req, false
	}
	if req.Keys == "" && len(req.Inputs) == 0 {
		writeError(w, http.StatusBadRequest, "Keys or inputs are required")
		return req, false
	}
	return req, true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}
