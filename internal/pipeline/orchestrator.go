// Package pipeline orchestrates a full campaign run: validation, compliance
// filtering, text generation, prompt optimization, image generation and
// reporting.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"easyads/internal/assets"
	"easyads/internal/campaign"
	"easyads/internal/compliance"
	"easyads/internal/infra"
	"easyads/internal/jobs"
	"easyads/internal/providers/atlas"
	"easyads/internal/providers/openai"
	"easyads/internal/report"
	"easyads/internal/storage"
)

// Generator produces a single banner image for a prompt and aspect ratio.
type Generator interface {
	Generate(ctx context.Context, prompt, aspectRatio string) (*atlas.Image, error)
}

const maxFolderSlug = 30

// Orchestrator runs campaign briefs end to end. All fields must be set.
type Orchestrator struct {
	Jobs          *jobs.Store
	Text          openai.Completer
	Images        Generator
	Store         *storage.FileStore
	Assets        *assets.Loader
	Logger        infra.Logger
	AspectRatios  []string
	PublicBaseURL string

	now func() time.Time
}

func (o *Orchestrator) clock() time.Time {
	if o.now != nil {
		return o.now()
	}
	return time.Now()
}

// Run executes the pipeline for one job. The job always reaches a terminal
// state: completed when at least one banner was generated, failed otherwise.
// A non-nil return mirrors the failure recorded on the job.
func (o *Orchestrator) Run(ctx context.Context, jobID string, brief *campaign.Brief) (err error) {
	logger := o.Logger.With().Str("job_id", jobID).Logger()
	reporter := report.NewReporter(brief, logger)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pipeline: panic: %v", r)
			logger.Error().Interface("panic", r).Msg("pipeline panicked")
			o.fail(ctx, jobID, reporter, err.Error())
		}
	}()

	if startErr := o.Jobs.Start(jobID); startErr != nil {
		return startErr
	}

	reporter.StartStep("Campaign Validation", map[string]any{"target_market": brief.TargetMarket})
	if vErr := brief.Validate(); vErr != nil {
		reporter.EndStep(report.StepFailed, nil, vErr.Error())
		o.fail(ctx, jobID, reporter, vErr.Error())
		return vErr
	}
	reporter.EndStep(report.StepSuccess, nil, "")

	// The prohibited-term gate runs on the raw brief, blank fields included,
	// so a rejected campaign never triggers a paid model call.
	reporter.StartStep("Legal Compliance Check", nil)
	if _, cErr := compliance.Check(map[string]string{
		"brand_name":       brief.BrandName,
		"campaign_message": brief.CampaignMessage,
		"target_audience":  brief.TargetAudience,
		"products":         brief.ProductsText(),
	}); cErr != nil {
		reporter.EndStep(report.StepFailed, nil, cErr.Error())
		o.fail(ctx, jobID, reporter, cErr.Error())
		return cErr
	}
	reporter.EndStep(report.StepSuccess, nil, "")

	if bErr := o.generateBrandName(ctx, jobID, reporter, brief); bErr != nil {
		o.fail(ctx, jobID, reporter, bErr.Error())
		return bErr
	}
	if mErr := o.generateCampaignMessage(ctx, jobID, reporter, brief); mErr != nil {
		o.fail(ctx, jobID, reporter, mErr.Error())
		return mErr
	}

	_ = o.Jobs.SetProgress(jobID, "Loading assets", 30)
	reporter.StartStep("Load Assets", nil)
	loaded, aErr := o.Assets.LoadTextAssets()
	if aErr != nil {
		// Assets only enrich prompts; a broken assets directory is logged
		// but never fails the campaign.
		logger.Warn().Err(aErr).Msg("loading assets failed")
		reporter.EndStep(report.StepFailed, nil, aErr.Error())
		loaded = map[string]string{}
	} else {
		reporter.EndStep(report.StepSuccess, map[string]any{"text_assets_count": len(loaded)}, "")
	}
	assetsContext := assets.FormatForPrompt(loaded)

	_ = o.Jobs.SetProgress(jobID, "Optimizing prompt", 40)
	reporter.StartStep("Generate Optimized Prompt", map[string]any{"has_assets": assetsContext != ""})
	opt, oErr := campaign.OptimizePrompt(ctx, o.Text, brief, assetsContext)
	if oErr != nil {
		reporter.EndStep(report.StepFailed, nil, oErr.Error())
		o.fail(ctx, jobID, reporter, oErr.Error())
		return oErr
	}
	brief.TranslatedCampaignMessage = opt.TranslatedCampaignMessage
	reporter.EndStep(report.StepSuccess, map[string]any{
		"prompt_length":      len(opt.ImagePrompt),
		"translated_message": opt.TranslatedCampaignMessage,
		"fallback":           opt.Fallback,
	}, "")

	_ = o.Jobs.SetProgress(jobID, "Initializing generator", 50)
	generated, genErrs := o.generateBanners(ctx, jobID, reporter, brief, opt.ImagePrompt)

	if len(generated) == 0 {
		message := "all image generations failed"
		if len(genErrs) > 0 {
			message = genErrs[0].Error()
		}
		o.fail(ctx, jobID, reporter, message)
		return errors.New(message)
	}

	result := jobs.Result{
		BrandName:                 brief.BrandName,
		CampaignMessage:           brief.CampaignMessage,
		TranslatedCampaignMessage: opt.TranslatedCampaignMessage,
		Images:                    generated,
		OutputDir:                 outputDirPrefix(generated[0].Path),
	}
	if cErr := o.Jobs.Complete(jobID, result); cErr != nil {
		return cErr
	}
	if len(genErrs) > 0 {
		logger.Warn().Int("errors", len(genErrs)).Msg("campaign completed with partial failures")
	}
	if _, fErr := reporter.Finalize(ctx, o.Store, "completed"); fErr != nil {
		logger.Error().Err(fErr).Msg("saving execution report failed")
	}
	return nil
}

func (o *Orchestrator) generateBrandName(ctx context.Context, jobID string, reporter *report.Reporter, brief *campaign.Brief) error {
	if strings.TrimSpace(brief.BrandName) != "" {
		return nil
	}
	_ = o.Jobs.SetProgress(jobID, "Generating brand name", 10)
	reporter.StartStep("Brand Name Generation", nil)
	name, err := campaign.GenerateBrandName(ctx, o.Text, brief)
	if err != nil {
		reporter.EndStep(report.StepFailed, nil, err.Error())
		return err
	}
	brief.BrandName = name
	reporter.EndStep(report.StepSuccess, map[string]any{"brand_name": name}, "")
	return nil
}

func (o *Orchestrator) generateCampaignMessage(ctx context.Context, jobID string, reporter *report.Reporter, brief *campaign.Brief) error {
	if strings.TrimSpace(brief.CampaignMessage) != "" {
		return nil
	}
	_ = o.Jobs.SetProgress(jobID, "Generating campaign message", 20)
	reporter.StartStep("Campaign Message Generation", nil)
	message, err := campaign.GenerateCampaignMessage(ctx, o.Text, brief)
	if err != nil {
		reporter.EndStep(report.StepFailed, nil, err.Error())
		return err
	}
	brief.CampaignMessage = message
	reporter.EndStep(report.StepSuccess, map[string]any{"campaign_message": message}, "")
	return nil
}

// generateBanners renders one banner per aspect ratio under a fresh output
// directory. A single failed ratio never aborts the loop.
func (o *Orchestrator) generateBanners(ctx context.Context, jobID string, reporter *report.Reporter, brief *campaign.Brief, prompt string) ([]jobs.Image, []error) {
	ratios := o.AspectRatios
	if len(ratios) == 0 {
		ratios = []string{"1:1", "9:16", "16:9"}
	}

	folderSlug := campaign.TruncateSlug(campaign.Slug(brief.BrandName), maxFolderSlug)
	if folderSlug == "" {
		folderSlug = campaign.TruncateSlug(campaign.Slug(brief.Products[0]), maxFolderSlug)
	}
	outputDir := fmt.Sprintf("%s_%s", folderSlug, o.clock().Format("20060102_150405"))
	marketSlug := campaign.Slug(brief.TargetMarket)

	var (
		generated []jobs.Image
		failures  []error
	)
	for idx, ratio := range ratios {
		percent := 50 + (idx+1)*40/len(ratios)
		_ = o.Jobs.SetProgress(jobID, fmt.Sprintf("Generating %s banner", ratio), percent)

		reporter.StartStep(fmt.Sprintf("Generate %s Image", ratio), map[string]any{"aspect_ratio": ratio})
		img, err := o.Images.Generate(ctx, prompt, ratio)
		if err != nil {
			reporter.EndStep(report.StepFailed, nil, err.Error())
			o.Logger.Error().Err(err).Str("aspect_ratio", ratio).Msg("banner generation failed")
			failures = append(failures, err)
			continue
		}

		key := fmt.Sprintf("%s/%s/banner_%s.png", outputDir, strings.ReplaceAll(ratio, ":", "_"), marketSlug)
		storedKey, err := o.Store.Write(ctx, key, img.Data)
		if err != nil {
			reporter.EndStep(report.StepFailed, nil, err.Error())
			o.Logger.Error().Err(err).Str("key", key).Msg("saving banner failed")
			failures = append(failures, err)
			continue
		}
		reporter.AddOutputFile(storedKey)
		reporter.EndStep(report.StepSuccess, map[string]any{
			"output_path":     storedKey,
			"image_size":      fmt.Sprintf("%dx%d", img.Width, img.Height),
			"file_size_bytes": len(img.Data),
		}, "")

		generated = append(generated, jobs.Image{
			AspectRatio: ratio,
			Path:        storedKey,
			URL:         strings.TrimRight(o.PublicBaseURL, "/") + "/" + storedKey,
			Width:       img.Width,
			Height:      img.Height,
		})
	}
	return generated, failures
}

func (o *Orchestrator) fail(ctx context.Context, jobID string, reporter *report.Reporter, message string) {
	if err := o.Jobs.Fail(jobID, message); err != nil {
		o.Logger.Error().Err(err).Str("job_id", jobID).Msg("marking job failed")
	}
	if _, err := reporter.Finalize(ctx, o.Store, "failed"); err != nil {
		o.Logger.Error().Err(err).Str("job_id", jobID).Msg("saving execution report failed")
	}
}

func outputDirPrefix(key string) string {
	if i := strings.IndexByte(key, '/'); i > 0 {
		return key[:i]
	}
	return key
}
