// Package handlers implements the HTTP API surface.
package handlers

import (
	"encoding/json"
	"net/http"

	"easyads/internal/compliance"
	"easyads/internal/infra"
	"easyads/internal/jobs"
	"easyads/internal/pipeline"
	"easyads/internal/storage"
)

// App bundles the dependencies the handlers need.
type App struct {
	Logger       infra.Logger
	Jobs         *jobs.Store
	Orchestrator *pipeline.Orchestrator
	Runner       *pipeline.Runner
	Checker      *compliance.BrandChecker
	Store        *storage.FileStore
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, map[string]any{
		"error": map[string]string{"code": code, "message": message},
	})
}
