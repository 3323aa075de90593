package handlers

import (
	"encoding/json"
	"net/http"
	"path"
	"strings"

	"easyads/internal/providers/openai"
)

type complianceRequest struct {
	ImagePaths      []string `json:"image_paths"`
	BrandName       string   `json:"brand_name"`
	CampaignMessage string   `json:"campaign_message"`
}

// CheckCompliance runs the vision model over previously generated banners and
// reports whether the brand name is actually visible in them.
func (a *App) CheckCompliance(w http.ResponseWriter, r *http.Request) {
	var req complianceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if len(req.ImagePaths) == 0 {
		a.error(w, http.StatusBadRequest, "bad_request", "image_paths required")
		return
	}
	if strings.TrimSpace(req.BrandName) == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "brand_name required")
		return
	}

	images := make([]openai.ImageAttachment, 0, len(req.ImagePaths))
	for _, p := range req.ImagePaths {
		data, err := a.Store.Read(r.Context(), p)
		if err != nil {
			a.error(w, http.StatusNotFound, "not_found", "image not found: "+p)
			return
		}
		images = append(images, openai.ImageAttachment{Data: data, MIME: mimeForImage(p)})
	}

	analysis, err := a.Checker.Check(r.Context(), images, req.BrandName, req.CampaignMessage)
	if err != nil {
		a.Logger.Error().Err(err).Msg("brand compliance check failed")
		a.error(w, http.StatusBadGateway, "upstream", "compliance check failed")
		return
	}
	a.json(w, http.StatusOK, analysis)
}

func mimeForImage(p string) string {
	switch strings.ToLower(path.Ext(p)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	default:
		return "image/png"
	}
}
