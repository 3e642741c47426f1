package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"slices"
	"strings"

	"github.com/privasee/privasee/internal/model"
	"github.com/privasee/privasee/internal/photos"
	"github.com/privasee/privasee/internal/store"
	"github.com/privasee/privasee/internal/telemetry"
)

// maxRequestBody bounds JSON request bodies.
const maxRequestBody = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "OK\n")
}

func (s *Server) handleAuthRedirect(w http.ResponseWriter, r *http.Request) {
	if s.deps.Auth == nil {
		writeError(w, http.StatusServiceUnavailable, "OAuth is not configured")
		return
	}
	http.Redirect(w, r, s.deps.Auth.AuthURL(r.URL.Query().Get("state")), http.StatusFound)
}

func (s *Server) handleAuthCallback(w http.ResponseWriter, r *http.Request) {
	if s.deps.Auth == nil {
		writeError(w, http.StatusServiceUnavailable, "OAuth is not configured")
		return
	}
	var req struct {
		Code string `json:"code"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	tokens, err := s.deps.Auth.Exchange(r.Context(), req.Code)
	if err != nil {
		s.logger.Warn("token exchange failed", "error", err)
		writeError(w, http.StatusBadRequest, "Exchange failed")
		return
	}
	writeJSON(w, http.StatusOK, tokens)
}

func (s *Server) handleVerifyToken(w http.ResponseWriter, r *http.Request) {
	if s.deps.Auth == nil {
		writeError(w, http.StatusServiceUnavailable, "OAuth is not configured")
		return
	}
	var req struct {
		IDToken string `json:"idToken"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	claims, err := s.deps.Auth.VerifyIDToken(r.Context(), req.IDToken)
	if err != nil {
		s.logger.Warn("token verification failed", "error", err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Token verification failed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"verified": true, "user": claims})
}

func (s *Server) handlePhotos(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AccessToken string `json:"accessToken"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	page, err := s.deps.Photos.ListPage(r.Context(), model.Session{AccessToken: req.AccessToken}, "")
	if errors.Is(err, photos.ErrNoCredential) {
		writeError(w, http.StatusBadRequest, "Missing accessToken")
		return
	}
	if err != nil {
		s.logger.Error("failed to fetch photos", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch photos")
		return
	}
	writeJSON(w, http.StatusOK, page.Items)
}

// ocrWord is the wire shape the browser client expects for a fragment.
type ocrWord struct {
	Text         string `json:"text"`
	BoundingPoly struct {
		Vertices []model.Vertex `json:"vertices"`
	} `json:"boundingPoly"`
}

func toOCRWords(frags []model.TextFragment) []ocrWord {
	words := make([]ocrWord, len(frags))
	for i, f := range frags {
		words[i].Text = f.Text
		words[i].BoundingPoly.Vertices = f.Vertices
	}
	return words
}

func (s *Server) handleOCR(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ImageURL string `json:"imageUrl"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	extraction, err := s.deps.Extractor.DetectText(r.Context(), req.ImageURL)
	if err != nil {
		s.logger.Error("OCR failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "OCR failed"})
		return
	}
	s.deps.Tracker.Track(r.Context(), telemetry.EventOCRCompleted, map[string]any{
		"char_count":     len(extraction.FullText),
		"fragment_count": len(extraction.Fragments),
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"fullText":       extraction.FullText,
		"sensitiveWords": toOCRWords(extraction.Fragments),
	})
}

func (s *Server) handleCheckSensitiveText(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	c, err := s.deps.Classifier.Classify(r.Context(), req.Text)
	if err != nil {
		s.logger.Error("classification failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to classify text")
		return
	}
	s.deps.Tracker.Track(r.Context(), telemetry.EventClassified, map[string]any{"type": c.Category.String()})
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleMarkSensitive(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ImageID string `json:"imageId"`
		Status  string `json:"status"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ImageID == "" || req.Status == "" {
		writeError(w, http.StatusBadRequest, "Missing imageId or status")
		return
	}
	status, err := model.ParseStatus(req.Status)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rec := model.DecisionRecord{ImageID: req.ImageID, Status: status}
	if err := s.deps.Store.Upsert(r.Context(), rec); err != nil {
		if errors.Is(err, store.ErrEmptyImageID) {
			writeError(w, http.StatusBadRequest, "Missing imageId or status")
			return
		}
		s.logger.Error("failed to store decision", "image_id", req.ImageID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to save image")
		return
	}
	s.deps.Tracker.Track(r.Context(), telemetry.EventImageMarked, map[string]any{"status": string(status)})
	writeJSON(w, http.StatusOK, map[string]string{"message": "Image marked"})
}

func (s *Server) handleGetMarkedImages(w http.ResponseWriter, r *http.Request) {
	ids, err := s.deps.Store.DecidedIDs(r.Context())
	if err != nil {
		s.logger.Error("failed to read decisions", "error", err)
		writeError(w, http.StatusInternalServerError, "Fetch failed")
		return
	}
	marked := make([]string, 0, len(ids))
	for id := range ids {
		marked = append(marked, id)
	}
	slices.Sort(marked)
	writeJSON(w, http.StatusOK, map[string][]string{"marked": marked})
}

func (s *Server) handleFrontendLog(w http.ResponseWriter, r *http.Request) {
	var ev telemetry.FrontendEvent
	if err := decodeJSON(w, r, &ev); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	ev.Source = strings.TrimSpace(ev.Source)
	ev.Event = strings.TrimSpace(ev.Event)
	if err := telemetry.LogFrontendEvent(s.logger, ev); err != nil {
		writeError(w, http.StatusBadRequest, "Missing fields")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged"})
}
