package campaign

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"easyads/internal/providers/openai"
)

// OptimizedPrompt is the structured output of the prompt-optimization call.
type OptimizedPrompt struct {
	ImagePrompt               string `json:"image_prompt"`
	TranslatedCampaignMessage string `json:"translated_campaign_message"`
	BrandMentions             int    `json:"brand_mentions"`
	IncludesLogo              bool   `json:"includes_logo"`
	IncludesCampaignMessage   bool   `json:"includes_campaign_message"`
	// Fallback is set when the model response could not be parsed and the
	// raw text was used as the prompt verbatim.
	Fallback bool `json:"-"`
}

const brandNameSystemPrompt = "You are an expert brand strategist. Generate a compelling, memorable brand name that fits the products and target market."

const campaignMessageSystemPrompt = "You are an expert copywriter specializing in advertising slogans and campaign messages. Generate compelling, memorable campaign messages that resonate with target audiences."

const optimizeSystemPrompt = `You are an expert creative strategist for advertising banners, optimizing prompts for a text-to-image model with global market expertise.

PROMPT RULES:
1. Use coherent natural language describing subject, action and environment.
2. ALWAYS wrap text that should appear rendered in the image in double quotation marks.
3. Show every listed product together in one cohesive scene.
4. Describe brand logo placement clearly (typically a top corner).
5. State that this is an advertising banner for the target market.
6. Be specific about lighting, colors, composition and atmosphere.

LOCALIZATION RULES:
- For the US, UK, Australia and Canada keep the campaign message in English exactly as provided.
- For every other market translate the campaign message into that market's primary language and use the translation inside the prompt.
- Adapt visual style, color symbolism and composition to the target market's cultural preferences.
- Keep brand names in English unless culturally inappropriate.

Respond strictly with JSON: {"image_prompt": string, "translated_campaign_message": string, "brand_mentions": number, "includes_logo": boolean, "includes_campaign_message": boolean}. translated_campaign_message must be the campaign message exactly as it appears inside image_prompt.`

// GenerateBrandName asks the text model for a brand name fitting the brief.
func GenerateBrandName(ctx context.Context, c openai.Completer, brief *Brief) (string, error) {
	prompt := fmt.Sprintf(`Generate a brand name for the following products:
Products: %s
Target Market: %s
Target Audience: %s

Generate a single, compelling brand name (2-3 words maximum) that is memorable and brandable, fits the products and works well in the %s market.
Return ONLY the brand name, nothing else.`,
		brief.ProductsText(), brief.TargetMarket, brief.TargetAudience, brief.TargetMarket)

	raw, err := c.Complete(ctx, openai.CompletionRequest{
		System:      brandNameSystemPrompt,
		Prompt:      prompt,
		Temperature: 0.8,
		MaxTokens:   50,
	})
	if err != nil {
		return "", fmt.Errorf("campaign: generate brand name: %w", err)
	}
	name := trimQuoted(raw)
	if name == "" {
		return "", fmt.Errorf("campaign: generated brand name is empty")
	}
	return name, nil
}

// GenerateCampaignMessage asks the text model for an English slogan. The
// brand name, when present, is context only and must not appear in the
// message itself.
func GenerateCampaignMessage(ctx context.Context, c openai.Completer, brief *Brief) (string, error) {
	brandSection := ""
	if brief.BrandName != "" {
		brandSection = "Brand Name: " + brief.BrandName + "\n"
	}
	prompt := fmt.Sprintf(`Generate a compelling campaign message/slogan for the following:
%sProducts: %s
Target Market: %s
Target Audience: %s

Generate a single campaign message (3-6 words) that is memorable, highlights key benefits or emotional appeal and works well on advertising banners. Write it in English; it will be translated later if needed. Do NOT include the brand name in the message.
Return ONLY the campaign message, nothing else.`,
		brandSection, brief.ProductsText(), brief.TargetMarket, brief.TargetAudience)

	raw, err := c.Complete(ctx, openai.CompletionRequest{
		System:      campaignMessageSystemPrompt,
		Prompt:      prompt,
		Temperature: 0.8,
		MaxTokens:   50,
	})
	if err != nil {
		return "", fmt.Errorf("campaign: generate campaign message: %w", err)
	}
	message := trimQuoted(raw)
	if message == "" {
		return "", fmt.Errorf("campaign: generated campaign message is empty")
	}
	return message, nil
}

// OptimizePrompt turns a complete brief into a detailed, localized image
// prompt. A malformed model response never fails the call: the raw text
// becomes the prompt and the original campaign message is kept untranslated.
func OptimizePrompt(ctx context.Context, c openai.Completer, brief *Brief, assetsContext string) (OptimizedPrompt, error) {
	prompt := buildOptimizeUserPrompt(brief, assetsContext)
	raw, err := c.Complete(ctx, openai.CompletionRequest{
		System:      optimizeSystemPrompt,
		Prompt:      prompt,
		Temperature: 0.7,
		MaxTokens:   600,
		JSONMode:    true,
	})
	if err != nil {
		return OptimizedPrompt{}, fmt.Errorf("campaign: optimize prompt: %w", err)
	}

	cleaned := openai.RepairJSON(openai.ExtractJSONObject(raw))
	var opt OptimizedPrompt
	if err := json.Unmarshal([]byte(cleaned), &opt); err != nil || strings.TrimSpace(opt.ImagePrompt) == "" {
		return OptimizedPrompt{
			ImagePrompt:               strings.TrimSpace(raw),
			TranslatedCampaignMessage: brief.CampaignMessage,
			Fallback:                  true,
		}, nil
	}
	if strings.TrimSpace(opt.TranslatedCampaignMessage) == "" {
		opt.TranslatedCampaignMessage = brief.CampaignMessage
	}
	return opt, nil
}

func buildOptimizeUserPrompt(brief *Brief, assetsContext string) string {
	sb := &strings.Builder{}
	fmt.Fprintf(sb, "Campaign Brief:\nProducts: %s\nTarget Market: %s\nTarget Audience: %s\nCampaign Message (ORIGINAL ENGLISH): %q\n",
		brief.ProductsText(), brief.TargetMarket, brief.TargetAudience, brief.CampaignMessage)
	if brief.BrandName != "" {
		fmt.Fprintf(sb, "Brand Name: %q\n- The brand name %q must appear in double quotes multiple times in your prompt.\n- Include the %q logo prominently visible in the image.\n",
			brief.BrandName, brief.BrandName, brief.BrandName)
	} else {
		sb.WriteString("Brand Name: Not specified\n- Generate an appropriate brand name for these products and market, use it in double quotes multiple times and include its logo prominently.\n")
	}
	if assetsContext != "" {
		fmt.Fprintf(sb, "\nADDITIONAL CREATIVE GUIDANCE:\n%s\nThese guidelines should inform the visual style, mood and creative approach of the banner.\n", assetsContext)
	}
	fmt.Fprintf(sb, "\nCreate a detailed, optimized prompt for a professional advertising banner for the %s market that showcases all products together, translated and culturally adapted per the localization rules, targeting the %s audience.",
		brief.TargetMarket, brief.TargetAudience)
	return sb.String()
}

func trimQuoted(raw string) string {
	return strings.Trim(strings.TrimSpace(raw), "\"'")
}
