// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package openapi embeds and serves the service's OpenAPI document.
package openapi

import (
	"context"
	_ "embed"
	"fmt"
	"net/http"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/oasdiff/yaml"

	"github.com/httpme/httpme/internal/log"
)

//go:embed openapi.yaml
var document []byte

var jsonDocument = sync.OnceValues(func() ([]byte, error) {
	return yaml.YAMLToJSON(document)
})

// YAML returns the raw document.
func YAML() []byte { return document }

// JSON returns the document converted to JSON.
func JSON() ([]byte, error) { return jsonDocument() }

// Load parses and validates the document.
func Load(ctx context.Context) (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	loader.Context = ctx
	doc, err := loader.LoadFromData(document)
	if err != nil {
		return nil, fmt.Errorf("load openapi document: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("validate openapi document: %w", err)
	}
	return doc, nil
}

// ServeYAML serves the document as YAML.
func ServeYAML(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(document)
}

// ServeJSON serves the document as JSON.
func ServeJSON(w http.ResponseWriter, r *http.Request) {
	body, err := JSON()
	if err != nil {
		logger := log.WithComponentFromContext(r.Context(), "openapi")
		logger.Error().Err(err).Str(log.FieldEvent, "openapi.convert_failed").Msg("openapi document conversion failed")
		http.Error(w, "openapi document unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(body)
}
