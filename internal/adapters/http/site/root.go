// Package site serves the embedded browser client of the live search
// session.
package site

import (
	"context"
	"net/http"
)

// Prefix is the path the client is mounted under.
const Prefix = "/app/"

// Register attaches the embedded client routes to mux.
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}

	files := http.StripPrefix(Prefix, http.FileServer(FS()))
	mux.Handle(Prefix, files)
	mux.Handle("/app", http.RedirectHandler(Prefix, http.StatusMovedPermanently))
}
