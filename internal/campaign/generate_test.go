package campaign

import (
	"context"
	"strings"
	"testing"

	"easyads/internal/providers/openai"
)

type fakeCompleter struct {
	responses []string
	requests  []openai.CompletionRequest
}

func (f *fakeCompleter) Complete(ctx context.Context, req openai.CompletionRequest) (string, error) {
	f.requests = append(f.requests, req)
	if len(f.responses) == 0 {
		return "", nil
	}
	resp := f.responses[0]
	if len(f.responses) > 1 {
		f.responses = f.responses[1:]
	}
	return resp, nil
}

func testBrief() *Brief {
	return &Brief{
		Products:       []string{"Trail Shoes", "Water Bottle"},
		TargetMarket:   "Japan",
		TargetAudience: "hikers",
	}
}

func TestGenerateBrandNameStripsQuotes(t *testing.T) {
	completer := &fakeCompleter{responses: []string{"\"TrailCraft\"\n"}}
	name, err := GenerateBrandName(context.Background(), completer, testBrief())
	if err != nil {
		t.Fatalf("GenerateBrandName returned error: %v", err)
	}
	if name != "TrailCraft" {
		t.Fatalf("name = %q, want TrailCraft", name)
	}
	if len(completer.requests) != 1 {
		t.Fatalf("requests = %d, want 1", len(completer.requests))
	}
	if !strings.Contains(completer.requests[0].Prompt, "Trail Shoes, Water Bottle") {
		t.Fatalf("prompt missing products: %q", completer.requests[0].Prompt)
	}
}

func TestGenerateBrandNameRejectsEmpty(t *testing.T) {
	completer := &fakeCompleter{responses: []string{"  \"\"  "}}
	if _, err := GenerateBrandName(context.Background(), completer, testBrief()); err == nil {
		t.Fatalf("expected error for empty brand name")
	}
}

func TestGenerateCampaignMessageIncludesBrandContext(t *testing.T) {
	brief := testBrief()
	brief.BrandName = "TrailCraft"
	completer := &fakeCompleter{responses: []string{"Go Beyond the Trail"}}
	message, err := GenerateCampaignMessage(context.Background(), completer, brief)
	if err != nil {
		t.Fatalf("GenerateCampaignMessage returned error: %v", err)
	}
	if message != "Go Beyond the Trail" {
		t.Fatalf("message = %q", message)
	}
	if !strings.Contains(completer.requests[0].Prompt, "Brand Name: TrailCraft") {
		t.Fatalf("prompt missing brand context: %q", completer.requests[0].Prompt)
	}
}

func TestOptimizePromptParsesStructuredResponse(t *testing.T) {
	brief := testBrief()
	brief.BrandName = "TrailCraft"
	brief.CampaignMessage = "Run Further"
	completer := &fakeCompleter{responses: []string{
		`{"image_prompt":"An advertising banner for the Japan market showing \"TrailCraft\" gear with the text \"走り続ける\"","translated_campaign_message":"走り続ける","brand_mentions":2,"includes_logo":true,"includes_campaign_message":true}`,
	}}

	opt, err := OptimizePrompt(context.Background(), completer, brief, "")
	if err != nil {
		t.Fatalf("OptimizePrompt returned error: %v", err)
	}
	if opt.Fallback {
		t.Fatalf("structured response should not fall back")
	}
	if opt.TranslatedCampaignMessage != "走り続ける" {
		t.Fatalf("translated message = %q", opt.TranslatedCampaignMessage)
	}
	if opt.BrandMentions != 2 || !opt.IncludesLogo {
		t.Fatalf("structured fields lost: %#v", opt)
	}
	if !completer.requests[0].JSONMode {
		t.Fatalf("optimization must request JSON mode")
	}
}

func TestOptimizePromptFallsBackOnMalformedJSON(t *testing.T) {
	brief := testBrief()
	brief.CampaignMessage = "Run Further"
	raw := "A cinematic banner of trail shoes at sunrise"
	completer := &fakeCompleter{responses: []string{raw}}

	opt, err := OptimizePrompt(context.Background(), completer, brief, "")
	if err != nil {
		t.Fatalf("fallback must not surface an error: %v", err)
	}
	if !opt.Fallback {
		t.Fatalf("expected fallback for unparseable response")
	}
	if opt.ImagePrompt != raw {
		t.Fatalf("prompt = %q, want raw text", opt.ImagePrompt)
	}
	if opt.TranslatedCampaignMessage != "Run Further" {
		t.Fatalf("translated message should keep the original: %q", opt.TranslatedCampaignMessage)
	}
}

func TestOptimizePromptRepairsTrailingQuotes(t *testing.T) {
	brief := testBrief()
	brief.CampaignMessage = "Run Further"
	completer := &fakeCompleter{responses: []string{
		`{"image_prompt":"banner prompt"","translated_campaign_message":"走り続ける""}`,
	}}

	opt, err := OptimizePrompt(context.Background(), completer, brief, "")
	if err != nil {
		t.Fatalf("OptimizePrompt returned error: %v", err)
	}
	if opt.Fallback {
		t.Fatalf("repairable response should parse")
	}
	if opt.ImagePrompt != "banner prompt" || opt.TranslatedCampaignMessage != "走り続ける" {
		t.Fatalf("unexpected parse: %#v", opt)
	}
}

func TestOptimizePromptIncludesAssetsContext(t *testing.T) {
	brief := testBrief()
	brief.CampaignMessage = "Run Further"
	completer := &fakeCompleter{responses: []string{`{"image_prompt":"p","translated_campaign_message":"t"}`}}

	if _, err := OptimizePrompt(context.Background(), completer, brief, "Use muted colors."); err != nil {
		t.Fatalf("OptimizePrompt returned error: %v", err)
	}
	if !strings.Contains(completer.requests[0].Prompt, "Use muted colors.") {
		t.Fatalf("assets context missing from prompt")
	}
}
