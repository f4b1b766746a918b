/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: handlers.go
Description: Request handlers and error mapping for the HTTP surface.
*/

package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/kleascm/magicsniff/pkg/core"
	"github.com/kleascm/magicsniff/pkg/detect"
	"github.com/kleascm/magicsniff/pkg/sniff"
	"github.com/sirupsen/logrus"
)

type inferResponse struct {
	Type sniff.Optional `json:"type"`
}

type matchResponse struct {
	Matches bool `json:"matches"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// POST /v1/infer
func (s *Server) handleInferBuffer(w http.ResponseWriter, r *http.Request) {
	data, ok := s.readBody(w, r)
	if !ok {
		return
	}

	id, err := s.client.Infer(r.Context(), data)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, inferResponse{Type: sniff.Some(id)})
}

// GET /v1/infer?path=
func (s *Server) handleInferPath(w http.ResponseWriter, r *http.Request) {
	path, ok := s.requirePath(w, r)
	if !ok {
		return
	}

	got, err := s.client.InferPath(r.Context(), path)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, inferResponse{Type: got})
}

// POST /v1/match?type=
func (s *Server) handleMatchBuffer(w http.ResponseWriter, r *http.Request) {
	claim, ok := requireQuery(w, r, "type")
	if !ok {
		return
	}
	data, ok := s.readBody(w, r)
	if !ok {
		return
	}

	matches, err := s.client.Match(r.Context(), claim, data)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, matchResponse{Matches: matches})
}

// GET /v1/match?type=&path=
func (s *Server) handleMatchPath(w http.ResponseWriter, r *http.Request) {
	claim, ok := requireQuery(w, r, "type")
	if !ok {
		return
	}
	path, ok := s.requirePath(w, r)
	if !ok {
		return
	}

	matches, err := s.client.MatchFile(r.Context(), claim, path)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, matchResponse{Matches: matches})
}

// GET /v1/stats
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.client.Stats())
}

func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "request body too large"})
			return nil, false
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "failed to read request body"})
		return nil, false
	}
	return data, true
}

func requireQuery(w http.ResponseWriter, r *http.Request, key string) (string, bool) {
	v := r.URL.Query().Get(key)
	if v == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing query parameter: " + key})
		return "", false
	}
	return v, true
}

// requirePath reads the path parameter and confines it to the served root
func (s *Server) requirePath(w http.ResponseWriter, r *http.Request) (string, bool) {
	raw, ok := requireQuery(w, r, "path")
	if !ok {
		return "", false
	}
	path, err := s.confine(raw)
	if err != nil {
		writeJSON(w, http.StatusForbidden, errorResponse{Error: err.Error()})
		return "", false
	}
	return path, true
}

// statusFor maps operation errors onto HTTP statuses
func statusFor(err error) int {
	switch {
	case errors.Is(err, detect.ErrUnreadable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrSchedulerClosed),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.WithFields(logrus.Fields{
			"path":   r.URL.Path,
			"status": status,
		}).WithError(err).Error("Request failed")
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
