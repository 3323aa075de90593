package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"

	"easyads/internal/campaign"
	"easyads/internal/jobs"
	"easyads/pkg/zip"
)

type generateResponse struct {
	JobID   string `json:"job_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

type statusResponse struct {
	JobID    string         `json:"job_id"`
	Status   jobs.Status    `json:"status"`
	Progress *jobs.Progress `json:"progress,omitempty"`
	Result   *jobs.Result   `json:"result,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// CampaignsGenerate accepts a campaign brief and schedules banner generation
// in the background. The response carries the job id to poll.
func (a *App) CampaignsGenerate(w http.ResponseWriter, r *http.Request) {
	var brief campaign.Brief
	if err := json.NewDecoder(r.Body).Decode(&brief); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if err := brief.Validate(); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	jobID := a.Jobs.Create()
	a.Runner.Go(func(ctx context.Context) {
		if err := a.Orchestrator.Run(ctx, jobID, &brief); err != nil {
			a.Logger.Error().Err(err).Str("job_id", jobID).Msg("campaign run failed")
		}
	}, func() {
		// Walk the job through processing so the transition stays legal.
		if err := a.Jobs.Start(jobID); err == nil {
			_ = a.Jobs.Fail(jobID, "service shutting down")
		}
	})

	a.Logger.Info().Str("job_id", jobID).Str("target_market", brief.TargetMarket).Msg("campaign scheduled")
	a.json(w, http.StatusAccepted, generateResponse{
		JobID:   jobID,
		Status:  string(jobs.StatusPending),
		Message: "banner generation started",
	})
}

// CampaignStatus reports the current state of a generation job.
func (a *App) CampaignStatus(w http.ResponseWriter, r *http.Request) {
	snap, ok := a.loadJob(w, r)
	if !ok {
		return
	}
	a.json(w, http.StatusOK, statusResponse{
		JobID:    snap.ID,
		Status:   snap.Status,
		Progress: snap.Progress,
		Result:   snap.Result,
		Error:    snap.Error,
	})
}

// CampaignImages lists the generated banners of a completed job.
func (a *App) CampaignImages(w http.ResponseWriter, r *http.Request) {
	snap, ok := a.loadJob(w, r)
	if !ok {
		return
	}
	if snap.Status != jobs.StatusCompleted {
		a.error(w, http.StatusBadRequest, "not_ready", "job not completed yet")
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"job_id":     snap.ID,
		"images":     snap.Result.Images,
		"output_dir": snap.Result.OutputDir,
	})
}

// CampaignImagesZip streams all banners of a completed job as one archive.
func (a *App) CampaignImagesZip(w http.ResponseWriter, r *http.Request) {
	snap, ok := a.loadJob(w, r)
	if !ok {
		return
	}
	if snap.Status != jobs.StatusCompleted {
		a.error(w, http.StatusBadRequest, "not_ready", "job not completed yet")
		return
	}

	var assets []zip.Asset
	for _, img := range snap.Result.Images {
		if !a.Store.Exists(img.Path) {
			a.Logger.Warn().Str("path", img.Path).Msg("banner missing from storage")
			continue
		}
		data, err := a.Store.Read(r.Context(), img.Path)
		if err != nil {
			a.Logger.Warn().Err(err).Str("path", img.Path).Msg("reading banner")
			continue
		}
		name := path.Join(strings.ReplaceAll(img.AspectRatio, ":", "_"), path.Base(img.Path))
		assets = append(assets, zip.Asset{Filename: name, MIME: "image/png", Data: data})
	}
	if len(assets) == 0 {
		a.error(w, http.StatusNotFound, "not_found", "no banner files on disk")
		return
	}

	archive := zip.ArchiveAssets(assets)
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=banners-%s.zip", snap.ID))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(archive)
}

func (a *App) loadJob(w http.ResponseWriter, r *http.Request) (jobs.Snapshot, bool) {
	jobID := chi.URLParam(r, "job_id")
	if jobID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "job_id required")
		return jobs.Snapshot{}, false
	}
	snap, err := a.Jobs.Get(jobID)
	if err != nil {
		if errors.Is(err, jobs.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "job not found")
		} else {
			a.error(w, http.StatusInternalServerError, "internal", "failed to load job")
		}
		return jobs.Snapshot{}, false
	}
	return snap, true
}
