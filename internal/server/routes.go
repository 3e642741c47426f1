package server

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	r.HandleFunc("/auth/google", s.handleAuthRedirect).Methods(http.MethodGet)
	r.HandleFunc("/auth/google/callback", s.handleAuthCallback).Methods(http.MethodPost)
	r.HandleFunc("/auth/google/token", s.handleVerifyToken).Methods(http.MethodPost)

	r.HandleFunc("/photos", s.handlePhotos).Methods(http.MethodPost)
	r.HandleFunc("/ocr", s.handleOCR).Methods(http.MethodPost)
	r.HandleFunc("/checkSensitiveText", s.handleCheckSensitiveText).Methods(http.MethodPost)
	r.HandleFunc("/mark-sensitive", s.handleMarkSensitive).Methods(http.MethodPost)
	r.HandleFunc("/get-marked-images", s.handleGetMarkedImages).Methods(http.MethodGet)
	r.HandleFunc("/proxy", s.handleProxy).Methods(http.MethodGet)
	r.HandleFunc("/log/frontend", s.handleFrontendLog).Methods(http.MethodPost)

	r.HandleFunc("/scans", s.handleCreateScan).Methods(http.MethodPost)
	r.HandleFunc("/scans/{scanID}", s.handleGetScan).Methods(http.MethodGet)
	r.HandleFunc("/scans/{scanID}/selection", s.handleClearSelection).Methods(http.MethodDelete)
	r.HandleFunc("/scans/{scanID}/items/{imageID}/select", s.handleSelect).Methods(http.MethodPost)
	r.HandleFunc("/scans/{scanID}/items/{imageID}/sensitive", s.handleSensitive).Methods(http.MethodPost)
	r.HandleFunc("/scans/{scanID}/items/{imageID}/not-sensitive", s.handleNotSensitive).Methods(http.MethodPost)

	if h, ok := newSPAHandler(s.cfg.StaticDir); ok {
		r.PathPrefix("/").Handler(h).Methods(http.MethodGet, http.MethodHead)
	} else if s.cfg.StaticDir != "" {
		s.logger.Warn("static directory has no index.html, frontend will not be served", "dir", s.cfg.StaticDir)
	}

	return r
}

// statusRecorder captures the response status for logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
	})
}

// cors allows the browser client to call the API from any origin.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		h.Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		h.Set("Access-Control-Expose-Headers", "Content-Disposition, X-Content-Sha3-256, X-Privasee-Redacted, X-Privasee-Metadata")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
