// Package campaign holds the campaign brief model and the text-generation
// steps that fill in its blanks: brand name, campaign message and the
// optimized image prompt with its localized message.
package campaign

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Brief is the caller-supplied description of a campaign. BrandName and
// CampaignMessage may be blank and are generated during the run;
// TranslatedCampaignMessage is derived during prompt optimization.
type Brief struct {
	Products                  []string `json:"products" yaml:"products"`
	TargetMarket              string   `json:"target_market" yaml:"target_market"`
	TargetAudience            string   `json:"target_audience" yaml:"target_audience"`
	BrandName                 string   `json:"brand_name,omitempty" yaml:"brand_name"`
	CampaignMessage           string   `json:"campaign_message,omitempty" yaml:"campaign_message"`
	TranslatedCampaignMessage string   `json:"translated_campaign_message,omitempty" yaml:"-"`
}

// ValidationError reports a malformed brief.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "campaign: " + e.Reason
}

// Validate checks the brief's required fields. A valid brief has a target
// market, a target audience and at least two products.
func (b *Brief) Validate() error {
	if strings.TrimSpace(b.TargetMarket) == "" {
		return &ValidationError{Reason: "missing required field: target_market"}
	}
	if strings.TrimSpace(b.TargetAudience) == "" {
		return &ValidationError{Reason: "missing required field: target_audience"}
	}
	products := 0
	for _, p := range b.Products {
		if strings.TrimSpace(p) != "" {
			products++
		}
	}
	if products < 2 {
		return &ValidationError{Reason: fmt.Sprintf("campaign must have at least 2 products (found %d)", products)}
	}
	return nil
}

// ProductsText joins the product list for prompts and compliance scans.
func (b *Brief) ProductsText() string {
	return strings.Join(b.Products, ", ")
}

// LoadBrief reads a campaign brief from a JSON or YAML file, then validates it.
func LoadBrief(path string) (*Brief, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("campaign: read brief: %w", err)
	}
	var brief Brief
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &brief); err != nil {
			return nil, fmt.Errorf("campaign: parse brief: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &brief); err != nil {
			return nil, fmt.Errorf("campaign: parse brief: %w", err)
		}
	}
	if err := brief.Validate(); err != nil {
		return nil, err
	}
	return &brief, nil
}
