// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package endpoints

import (
	"errors"
	"net/http"
	"path"
	"strconv"

	"github.com/httpme/httpme/internal/api/problem"
	"github.com/httpme/httpme/internal/assets"
	"github.com/httpme/httpme/internal/log"
)

// IndexKey is the asset served at "/".
const IndexKey = "static-assets/swagger.html"

// Assets serves bodies from an asset store.
type Assets struct {
	store assets.Store
}

// NewAssets creates asset handlers over store.
func NewAssets(store assets.Store) *Assets {
	return &Assets{store: store}
}

// Index serves the API explorer page.
func (a *Assets) Index(w http.ResponseWriter, r *http.Request) {
	a.serve(w, r, IndexKey, "text/html; charset=utf-8")
}

// ByName serves the asset named by the last path segment, so
// /static-assets/app.js and /forms/post resolve to "app.js" and "post".
func (a *Assets) ByName(w http.ResponseWriter, r *http.Request) {
	name := path.Base(r.URL.Path)
	key, err := assets.NormalizeKey(name)
	if err != nil || name == "/" || name == "." {
		a.notFound(w, r, name)
		return
	}
	a.serve(w, r, key, assets.ContentType(key))
}

func (a *Assets) serve(w http.ResponseWriter, r *http.Request, key, contentType string) {
	body, err := a.store.Get(r.Context(), key)
	switch {
	case errors.Is(err, assets.ErrNotFound):
		a.notFound(w, r, key)
		return
	case err != nil:
		logger := log.WithComponentFromContext(r.Context(), "endpoints")
		logger.Error().Err(err).Str(log.FieldEvent, "asset.lookup_failed").Str("key", key).Msg("asset lookup failed")
		problem.Write(w, r, http.StatusServiceUnavailable, "assets/unavailable", "Service Unavailable", "ASSET_STORE_UNAVAILABLE",
			"The asset store could not be reached.", nil)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		_, _ = w.Write(body)
	}
}

func (a *Assets) notFound(w http.ResponseWriter, r *http.Request, key string) {
	problem.Write(w, r, http.StatusNotFound, "assets/not_found", "Not Found", "ASSET_NOT_FOUND",
		"No asset named "+strconv.Quote(key)+".", nil)
}
