package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/privasee/privasee/internal/gate"
	"github.com/privasee/privasee/internal/model"
	"github.com/privasee/privasee/internal/photos"
	"github.com/privasee/privasee/internal/pipeline"
	"github.com/privasee/privasee/internal/review"
)

// pendingView is a flagged item as shown to the browser.
type pendingView struct {
	ID             string         `json:"id"`
	BaseURL        string         `json:"baseUrl"`
	MimeType       string         `json:"mimeType"`
	Filename       string         `json:"filename,omitempty"`
	Tag            model.Category `json:"tag"`
	SensitiveValue string         `json:"sensitiveValue"`
}

type scanView struct {
	ScanID   string        `json:"scanId"`
	Items    []pendingView `json:"items"`
	Selected string        `json:"selected,omitempty"`
}

func viewOf(c *review.Controller) scanView {
	pending := c.Pending()
	v := scanView{ScanID: c.ScanID(), Items: make([]pendingView, len(pending))}
	for i, f := range pending {
		v.Items[i] = pendingView{
			ID:             f.ID(),
			BaseURL:        f.Item.BaseURL,
			MimeType:       f.Item.MimeType,
			Filename:       f.Item.Filename,
			Tag:            f.Classification.Category,
			SensitiveValue: f.Classification.Value,
		}
	}
	if sel, ok := c.Selected(); ok {
		v.Selected = sel.ID()
	}
	return v
}

// newScanPipeline builds the pipeline for one server-side scan.
func (s *Server) newScanPipeline() *pipeline.Pipeline {
	return pipeline.NewScan(pipeline.Deps{
		Walker: photos.NewWalker(s.deps.Photos,
			photos.WithMaxItems(s.cfg.MaxItems),
			photos.WithWalkLogger(s.logger),
		),
		Decisions: s.deps.Store,
		Gate: gate.New(s.deps.Extractor, s.deps.Classifier,
			gate.WithMaxFindings(s.cfg.MaxFindings),
			gate.WithLogger(s.logger),
			gate.WithTracker(s.deps.Tracker),
		),
		Tracker: s.deps.Tracker,
		Saver:   s.deps.Store,
	}, pipeline.WithLogger(s.logger))
}

func (s *Server) handleCreateScan(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AccessToken string `json:"accessToken"`
		UserName    string `json:"userName"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	session := model.Session{AccessToken: req.AccessToken, UserName: req.UserName}
	if !session.HasCredential() {
		writeError(w, http.StatusBadRequest, "Missing accessToken")
		return
	}

	// The scan is bound to the request: a client that goes away cancels it
	// and nothing is kept.
	ctx := r.Context()
	if s.cfg.ScanTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.ScanTimeout)
		defer cancel()
	}

	report := model.NewScanReport(uuid.NewString(), session.DisplayName())
	if err := s.newScanPipeline().Execute(ctx, session, report); err != nil {
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			writeError(w, http.StatusGatewayTimeout, "Scan timed out")
		case errors.Is(err, context.Canceled):
			// Client went away; nothing to answer.
		default:
			writeError(w, http.StatusBadGateway, "Scan failed")
		}
		return
	}

	c := review.New(report.ID, report.Flagged, s.deps.Store, s.deps.Photos,
		review.WithRedactor(s.deps.Redactor),
		review.WithTracker(s.deps.Tracker),
		review.WithLogger(s.logger),
	)
	s.sessions.Put(c)
	writeJSON(w, http.StatusCreated, viewOf(c))
}

func (s *Server) controller(w http.ResponseWriter, r *http.Request) (*review.Controller, bool) {
	c, err := s.sessions.Get(mux.Vars(r)["scanID"])
	if err != nil {
		writeError(w, http.StatusNotFound, "Unknown scan")
		return nil, false
	}
	return c, true
}

func (s *Server) handleGetScan(w http.ResponseWriter, r *http.Request) {
	c, ok := s.controller(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, viewOf(c))
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	c, ok := s.controller(w, r)
	if !ok {
		return
	}
	if err := c.Select(mux.Vars(r)["imageID"]); err != nil {
		writeError(w, http.StatusNotFound, "Item is not pending")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearSelection(w http.ResponseWriter, r *http.Request) {
	c, ok := s.controller(w, r)
	if !ok {
		return
	}
	c.ClearSelection()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSensitive(w http.ResponseWriter, r *http.Request) {
	c, ok := s.controller(w, r)
	if !ok {
		return
	}
	id := mux.Vars(r)["imageID"]
	accepted, err := c.Accept(r.Context(), id)
	persisted := err == nil
	if err != nil && !errors.Is(err, review.ErrPersist) {
		writeTransitionError(w, err)
		return
	}

	// The image still goes out when only storing the decision failed; the
	// item stays pending so the client can retry.
	a := accepted.Artifact
	h := w.Header()
	h.Set("X-Privasee-Persisted", strconv.FormatBool(persisted))
	h.Set("Content-Type", a.ContentType)
	h.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", a.Filename))
	h.Set("X-Content-Sha3-256", a.Digest)
	h.Set("X-Privasee-Redacted", strconv.FormatBool(a.Redacted))
	if !accepted.Metadata.Empty() {
		kinds := make([]string, 0, len(accepted.Metadata.Tags))
		seen := make(map[string]bool)
		for _, t := range accepted.Metadata.Tags {
			if !seen[string(t.Kind)] {
				seen[string(t.Kind)] = true
				kinds = append(kinds, string(t.Kind))
			}
		}
		h.Set("X-Privasee-Metadata", strings.Join(kinds, ","))
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(a.Data)
}

func (s *Server) handleNotSensitive(w http.ResponseWriter, r *http.Request) {
	c, ok := s.controller(w, r)
	if !ok {
		return
	}
	if err := c.Dismiss(r.Context(), mux.Vars(r)["imageID"]); err != nil {
		writeTransitionError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeTransitionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, review.ErrNotPending):
		writeError(w, http.StatusNotFound, "Item is not pending")
	case errors.Is(err, review.ErrInFlight):
		writeError(w, http.StatusConflict, "Item is being processed")
	case errors.Is(err, review.ErrRedact):
		writeError(w, http.StatusBadGateway, "Failed to redact image")
	default:
		writeError(w, http.StatusInternalServerError, "Failed to save decision")
	}
}
