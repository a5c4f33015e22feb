package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/contact-extractor/internal/db"
	"github.com/jonathan/contact-extractor/internal/pipeline"
	"github.com/jonathan/contact-extractor/internal/types"
)

// persistTimeout bounds saving a finished run.
const persistTimeout = 10 * time.Second

// ExtractRequest represents the request body for /extract and /extract/stream
type ExtractRequest struct {
	PageLimit int `json:"page_limit"`
}

// RunResponse represents the response for /runs/{id}
type RunResponse struct {
	Run      *db.Run               `json:"run"`
	Contacts []types.ContactRecord `json:"contacts"`
}

// handlePing reports that the runner is ready
func (s *Server) handlePing(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": s.runner.Ping()})
}

// decodeExtractRequest reads the run parameters. An empty body means an
// unbounded run.
func decodeExtractRequest(r *http.Request) (ExtractRequest, error) {
	var req ExtractRequest
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			return req, &ErrValidation{Field: "body", Message: err.Error()}
		}
	}
	if req.PageLimit < 0 {
		return req, &ErrValidation{Field: "page_limit", Message: "must be zero or positive"}
	}
	return req, nil
}

// handleExtract runs an extraction to completion and returns its result
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	req, err := decodeExtractRequest(r)
	if err != nil {
		s.jsonResponse(w, HTTPStatus(err), types.RunResult{Contacts: []types.ContactRecord{}, Error: err.Error()})
		return
	}

	started := time.Now()
	report, err := s.runner.Run(r.Context(), pipeline.RunOptions{PageLimit: req.PageLimit})
	s.persist(r.Context(), report, err, started)

	status := http.StatusOK
	if err != nil {
		status = HTTPStatus(err)
	}
	s.jsonResponse(w, status, report.Result(err))
}

// handleExtractStream runs an extraction and streams its events via SSE,
// ending with a result or error event.
func (s *Server) handleExtractStream(w http.ResponseWriter, r *http.Request) {
	req, err := decodeExtractRequest(r)
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	started := time.Now()
	report, err := s.runner.Run(r.Context(), pipeline.RunOptions{
		PageLimit: req.PageLimit,
		OnEvent: func(ev pipeline.Event) {
			if err := sse.WriteEvent(string(ev.Type), ev); err != nil {
				s.logger.Warn("failed to write SSE event", zap.String("event", string(ev.Type)), zap.Error(err))
			}
		},
	})
	s.persist(r.Context(), report, err, started)

	if err != nil {
		if werr := sse.WriteError(err.Error()); werr != nil {
			s.logger.Warn("failed to write SSE error", zap.Error(werr))
		}
		return
	}
	if werr := sse.WriteResult(report.Result(nil)); werr != nil {
		s.logger.Warn("failed to write SSE result", zap.Error(werr))
	}
}

// handleGetRun returns a stored run with its contacts
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.errorResponse(w, &ErrStoreUnavailable{})
		return
	}

	runID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, &ErrValidation{Field: "id", Message: "invalid run ID format"})
		return
	}

	run, err := s.store.GetRun(r.Context(), runID)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	if run == nil {
		s.errorResponse(w, &ErrRunNotFound{RunID: runID})
		return
	}

	contacts, err := s.store.ListContacts(r.Context(), runID)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, RunResponse{Run: run, Contacts: contacts})
}

// persist stores the outcome of a run when a store is configured. Storage
// failures are logged; they never change the run's response.
func (s *Server) persist(ctx context.Context, report *pipeline.Report, runErr error, started time.Time) {
	if s.store == nil || report == nil || report.RunID == uuid.Nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	run := db.NewRun(report.RunID, s.sourceURL, report.PageLimit, report.TotalPages, started, runErr)
	if err := s.store.SaveRun(ctx, run, report.Contacts); err != nil {
		s.logger.Warn("failed to persist run", zap.String("run_id", report.RunID.String()), zap.Error(err))
	}
}
