// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package endpoints implements the plain HTTP testing endpoints that share
// the service with the realtime routes: status codes, request echo, static
// assets and outbound requests to dynamic backends.
package endpoints

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Deps are the collaborators of the endpoint handlers.
type Deps struct {
	Assets  *Assets
	Dynamic *DynamicBackend
}

// NewRouter returns the collaborator mux. Paths nothing claims answer 200
// with an empty body.
func NewRouter(d Deps) *chi.Mux {
	r := chi.NewRouter()
	r.Use(StatusOverride)

	r.Get("/", d.Assets.Index)

	r.HandleFunc("/status", Status)
	r.HandleFunc("/status/", Status)
	r.HandleFunc("/status/{code}", Status)
	r.HandleFunc("/status/{code}/*", Status)

	r.HandleFunc("/anything", Anything)
	r.HandleFunc("/anything/*", Anything)

	r.HandleFunc("/static-assets/*", d.Assets.ByName)
	r.HandleFunc("/forms/post", d.Assets.ByName)
	r.HandleFunc("/forms/post/*", d.Assets.ByName)

	r.Method(http.MethodPost, "/dynamic_backend", d.Dynamic)

	r.NotFound(Unmatched)
	r.MethodNotAllowed(Unmatched)
	return r
}

// Unmatched answers 200 with an empty body.
func Unmatched(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}
