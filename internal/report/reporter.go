// Package report records per-step execution results for a campaign run and
// persists them as a JSON report next to the generated banners.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"easyads/internal/campaign"
	"easyads/internal/infra"
	"easyads/internal/storage"
)

// Step statuses.
const (
	StepSuccess = "success"
	StepFailed  = "failed"
	StepSkipped = "skipped"
)

// Step is the recorded outcome of one pipeline step.
type Step struct {
	StepName        string         `json:"step_name"`
	Status          string         `json:"status"`
	StartTime       string         `json:"start_time"`
	EndTime         string         `json:"end_time,omitempty"`
	DurationSeconds float64        `json:"duration_seconds"`
	Details         map[string]any `json:"details"`
	ErrorMessage    string         `json:"error_message,omitempty"`
}

// Report is the full execution record of one campaign run.
type Report struct {
	CampaignID      string         `json:"campaign_id"`
	StartTime       string         `json:"start_time"`
	EndTime         string         `json:"end_time,omitempty"`
	DurationSeconds float64        `json:"duration_seconds"`
	Status          string         `json:"status"`
	Steps           []Step         `json:"steps"`
	CampaignDetails map[string]any `json:"campaign_details"`
	OutputFiles     []string       `json:"output_files"`
}

// Reporter accumulates steps for one run. It is used by a single pipeline
// goroutine and is not safe for concurrent use.
type Reporter struct {
	report  Report
	brief   *campaign.Brief
	current *Step
	started time.Time
	stepAt  time.Time
	now     func() time.Time
	logger  infra.Logger
}

// NewReporter starts a report for the given brief. The campaign id is the
// market slug joined with a timestamp so report files sort chronologically.
func NewReporter(brief *campaign.Brief, logger infra.Logger) *Reporter {
	return newReporter(brief, logger, time.Now)
}

func newReporter(brief *campaign.Brief, logger infra.Logger, now func() time.Time) *Reporter {
	start := now()
	campaignID := fmt.Sprintf("%s_%s", campaign.Slug(brief.TargetMarket), start.Format("20060102_150405"))
	return &Reporter{
		report: Report{
			CampaignID:  campaignID,
			StartTime:   start.Format(time.RFC3339),
			Status:      "running",
			Steps:       []Step{},
			OutputFiles: []string{},
		},
		brief:   brief,
		started: start,
		now:     now,
		logger:  logger,
	}
}

// campaignDetails reads the brief at call time so fields the pipeline fills
// in later, like a generated brand name, land in the persisted report.
func (r *Reporter) campaignDetails() map[string]any {
	return map[string]any{
		"brand_name":       r.brief.BrandName,
		"products":         r.brief.Products,
		"target_market":    r.brief.TargetMarket,
		"target_audience":  r.brief.TargetAudience,
		"campaign_message": r.brief.CampaignMessage,
	}
}

// CampaignID returns the identifier assigned to this run.
func (r *Reporter) CampaignID() string {
	return r.report.CampaignID
}

// StartStep opens a new step. An unfinished previous step is closed as
// failed first.
func (r *Reporter) StartStep(name string, details map[string]any) {
	if r.current != nil {
		r.EndStep(StepFailed, nil, "step interrupted by "+name)
	}
	if details == nil {
		details = map[string]any{}
	}
	r.stepAt = r.now()
	r.current = &Step{
		StepName:  name,
		Status:    "running",
		StartTime: r.stepAt.Format(time.RFC3339),
		Details:   details,
	}
	r.logger.Info().Str("step", name).Msg("pipeline step started")
}

// EndStep closes the active step with a status, optional extra details and
// an optional error message.
func (r *Reporter) EndStep(status string, details map[string]any, errorMessage string) {
	if r.current == nil {
		return
	}
	end := r.now()
	r.current.EndTime = end.Format(time.RFC3339)
	r.current.DurationSeconds = end.Sub(r.stepAt).Seconds()
	r.current.Status = status
	r.current.ErrorMessage = errorMessage
	for k, v := range details {
		r.current.Details[k] = v
	}

	var evt *zerolog.Event
	if status == StepFailed {
		evt = r.logger.Error()
	} else {
		evt = r.logger.Info()
	}
	evt.Str("step", r.current.StepName).
		Str("status", status).
		Float64("duration_seconds", r.current.DurationSeconds).
		Msg("pipeline step finished")

	r.report.Steps = append(r.report.Steps, *r.current)
	r.current = nil
}

// AddOutputFile registers a produced file path in the report.
func (r *Reporter) AddOutputFile(path string) {
	r.report.OutputFiles = append(r.report.OutputFiles, path)
}

// Finalize closes the report with a final status and writes it to the store
// as report_{campaign_id}.json. A still-open step is closed as failed.
func (r *Reporter) Finalize(ctx context.Context, store *storage.FileStore, status string) (Report, error) {
	if r.current != nil {
		r.EndStep(StepFailed, nil, "pipeline ended with active step")
	}
	end := r.now()
	r.report.EndTime = end.Format(time.RFC3339)
	r.report.DurationSeconds = end.Sub(r.started).Seconds()
	r.report.Status = status
	r.report.CampaignDetails = r.campaignDetails()

	data, err := json.MarshalIndent(r.report, "", "  ")
	if err != nil {
		return r.report, fmt.Errorf("report: marshal: %w", err)
	}
	key := fmt.Sprintf("report_%s.json", r.report.CampaignID)
	if _, err := store.Write(ctx, key, data); err != nil {
		return r.report, fmt.Errorf("report: persist: %w", err)
	}
	r.logger.Info().
		Str("campaign_id", r.report.CampaignID).
		Str("status", status).
		Int("steps", len(r.report.Steps)).
		Msg("execution report saved")
	return r.report, nil
}

// Snapshot returns the report accumulated so far.
func (r *Reporter) Snapshot() Report {
	snap := r.report
	snap.CampaignDetails = r.campaignDetails()
	return snap
}
