package server

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// proxyDomains are the registrable domains the image proxy may fetch from.
var proxyDomains = map[string]struct{}{
	"googleusercontent.com": {},
	"ggpht.com":             {},
}

var errProxyForbidden = errors.New("host not allowed")

// checkProxyURL validates raw as an https URL on an allowed domain.
func checkProxyURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "https" || u.User != nil || u.Port() != "" {
		return nil, errProxyForbidden
	}
	host := strings.ToLower(u.Hostname())
	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return nil, errProxyForbidden
	}
	if _, ok := proxyDomains[domain]; !ok {
		return nil, errProxyForbidden
	}
	return u, nil
}

func (s *Server) handleProxy(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("url")
	if raw == "" {
		http.Error(w, "Missing URL", http.StatusBadRequest)
		return
	}
	u, err := checkProxyURL(raw)
	if err != nil {
		http.Error(w, "URL not allowed", http.StatusForbidden)
		return
	}

	data, err := s.proxy.GetBytes(r.Context(), u.String(), nil)
	if err != nil {
		s.logger.Error("failed to proxy image", "host", u.Hostname(), "error", err)
		http.Error(w, "Failed to load image", http.StatusInternalServerError)
		return
	}

	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		contentType = "image/jpeg"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "private, max-age=300")
	_, _ = w.Write(data)
}
