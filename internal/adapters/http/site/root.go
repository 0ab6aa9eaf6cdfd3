// Package site serves the landing page at the root path.
package site

import (
	"context"
	"net/http"
)

// Register attaches the landing page to mux. Only the exact root path is
// served; every other unknown path stays a 404.
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.Handle("GET /{$}", NewRootHandler())
}

// RootHandler handles root path requests.
type RootHandler struct{}

// NewRootHandler creates a new root handler.
func NewRootHandler() *RootHandler {
	return &RootHandler{}
}

// ServeHTTP handles GET / requests.
func (h *RootHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(indexHTML))
}

const indexHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8">
    <title>Funding Outreach</title>
  </head>
  <body>
    <h1>Funding Outreach</h1>
    <ul>
      <li><a href="/api-docs">API reference</a></li>
      <li><a href="/priority?limit=25">Top 25 filings by priority</a></li>
      <li><a href="/stats">Service statistics</a></li>
      <li><a href="/metrics">Prometheus metrics</a></li>
    </ul>
  </body>
</html>`
