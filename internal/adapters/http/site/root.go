// Package site serves the embedded dashboard page and its assets.
package site

import (
	"context"
	"errors"
	"net/http"

	"github.com/okian/careboard/pkg/logger"
)

// Error constants
var (
	ErrServe = errors.New("dashboard serve failed")
)

// Register attaches the dashboard routes to mux: the page at exactly "/"
// and its assets under /static/.
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}

	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(FS())))
	mux.HandleFunc("/", NewRootHandler().HandleRoot)
}

// RootHandler handles root path requests
type RootHandler struct {
	logger logger.Logger
}

// NewRootHandler creates a new root handler
func NewRootHandler() *RootHandler {
	return &RootHandler{logger: logger.Named("site")}
}

// HandleRoot handles GET / requests. Every other unmatched path is 404.
func (h *RootHandler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" || (r.Method != http.MethodGet && r.Method != http.MethodHead) {
		http.NotFound(w, r)
		return
	}
	page, err := staticFS.ReadFile(indexFile)
	if err != nil {
		h.logger.Error(r.Context(), "reading dashboard page", logger.Error(errors.Join(ErrServe, err)))
		http.Error(w, ErrServe.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(page)
}
