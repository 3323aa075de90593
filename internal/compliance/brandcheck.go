package compliance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"easyads/internal/providers/openai"
)

const brandCheckSystemPrompt = `You are an expert brand compliance checker for advertising banners.
Your task is to analyze images and verify brand compliance by:
1. Detecting ALL text visible in the image (using OCR/vision capabilities)
2. Checking if the brand name appears in the detected text
3. Identifying if a brand logo is visible in the image
4. Verifying the overall brand presence and compliance

Be thorough and accurate in your analysis. Report all text you can see, even if partially visible.`

// Analysis is the structured outcome of a vision pass over generated banners.
type Analysis struct {
	DetectedText     []string `json:"detected_text"`
	BrandNameFound   bool     `json:"brand_name_found"`
	BrandNameMatches []string `json:"brand_name_matches"`
	LogoVisible      bool     `json:"logo_visible"`
	LogoDescription  string   `json:"logo_description"`
	ComplianceStatus string   `json:"compliance_status"`
	ComplianceNotes  string   `json:"compliance_notes"`
}

// Compliant reports whether the brand name was found in the banner text.
// A visible logo is optional and never affects the outcome.
func (a Analysis) Compliant() bool {
	return a.BrandNameFound
}

// BrandChecker verifies that generated banners actually show the brand.
type BrandChecker struct {
	completer openai.Completer
}

// NewBrandChecker wraps a vision-capable completion client.
func NewBrandChecker(c openai.Completer) *BrandChecker {
	return &BrandChecker{completer: c}
}

// Check sends the banner images to the vision model and parses its verdict.
// An unparseable model response degrades to a "unknown" analysis rather than
// an error so a flaky model never fails an otherwise finished campaign.
func (b *BrandChecker) Check(ctx context.Context, images []openai.ImageAttachment, brandName, campaignMessage string) (Analysis, error) {
	if len(images) == 0 {
		return Analysis{}, errors.New("compliance: at least one image is required")
	}
	if strings.TrimSpace(brandName) == "" {
		return Analysis{}, errors.New("compliance: brand name is required")
	}

	raw, err := b.completer.Complete(ctx, openai.CompletionRequest{
		System:      brandCheckSystemPrompt,
		Prompt:      buildBrandCheckPrompt(brandName, campaignMessage),
		Images:      images,
		Temperature: 0.3,
		MaxTokens:   2048,
		JSONMode:    true,
	})
	if err != nil {
		return Analysis{}, fmt.Errorf("compliance: brand check: %w", err)
	}

	cleaned := openai.RepairJSON(openai.ExtractJSONObject(raw))
	var analysis Analysis
	if err := json.Unmarshal([]byte(cleaned), &analysis); err != nil {
		return Analysis{
			DetectedText:     []string{},
			BrandNameMatches: []string{},
			LogoDescription:  "Unable to parse response",
			ComplianceStatus: "unknown",
			ComplianceNotes:  fmt.Sprintf("Failed to parse model response: %v", err),
		}, nil
	}
	if analysis.ComplianceStatus == "" {
		if analysis.BrandNameFound {
			analysis.ComplianceStatus = "compliant"
		} else {
			analysis.ComplianceStatus = "non-compliant"
		}
	}
	return analysis, nil
}

func buildBrandCheckPrompt(brandName, campaignMessage string) string {
	sb := &strings.Builder{}
	fmt.Fprintf(sb, `Brand Name to Check: %q

Please analyze the provided image(s) and:
1. Detect and list ALL text visible in the image(s) (use your vision capabilities to read any text in ALL languages, including non-Latin scripts like Japanese, Chinese, etc.)
2. Check if the brand name %q appears in the detected text (exact match or close variations)
3. Identify if a brand logo is visible in the image(s) (look for logo symbols, icons, or brand marks - separate from text)
4. Assess overall brand presence and compliance

COMPLIANCE RULES:
- The image is COMPLIANT if the brand name is present in the text, even if there is no separate logo visible
- The image is NON-COMPLIANT only if the brand name is NOT found in the text
- A logo is optional and does not affect compliance status

Return your analysis in the following JSON format:
{
    "detected_text": ["list", "of", "all", "text", "found", "in", "image"],
    "brand_name_found": true/false,
    "brand_name_matches": ["exact", "matches", "or", "close", "variations"],
    "logo_visible": true/false,
    "logo_description": "description of logo if visible, or 'none' if not visible",
    "compliance_status": "compliant" or "non-compliant",
    "compliance_notes": "detailed explanation of compliance status"
}`, brandName, brandName)
	if campaignMessage != "" {
		fmt.Fprintf(sb, "\n\nAdditionally, check if the campaign message %q appears in the detected text.", campaignMessage)
	}
	return sb.String()
}
