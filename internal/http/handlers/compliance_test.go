package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"easyads/internal/compliance"
)

func TestCheckComplianceHappyPath(t *testing.T) {
	srv, app := newTestServer(t, &fakeGenerator{})
	if _, err := app.Store.Write(context.Background(), "camp/1_1/banner_japan.png", []byte("png-bytes")); err != nil {
		t.Fatalf("seeding banner: %v", err)
	}

	resp := postJSON(t, srv.URL+"/api/check-compliance", `{
		"image_paths": ["camp/1_1/banner_japan.png"],
		"brand_name": "TrailCraft",
		"campaign_message": "Run Further"
	}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var analysis compliance.Analysis
	decodeBody(t, resp, &analysis)
	if !analysis.BrandNameFound || analysis.ComplianceStatus != "compliant" {
		t.Fatalf("analysis = %#v", analysis)
	}
}

func TestCheckComplianceValidation(t *testing.T) {
	srv, _ := newTestServer(t, &fakeGenerator{})

	resp := postJSON(t, srv.URL+"/api/check-compliance", `{"image_paths":[],"brand_name":"X"}`)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("empty paths status = %d, want 400", resp.StatusCode)
	}

	resp = postJSON(t, srv.URL+"/api/check-compliance", `{"image_paths":["a.png"],"brand_name":""}`)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("blank brand status = %d, want 400", resp.StatusCode)
	}
}

func TestCheckComplianceMissingImage(t *testing.T) {
	srv, _ := newTestServer(t, &fakeGenerator{})

	resp := postJSON(t, srv.URL+"/api/check-compliance", `{"image_paths":["nope/missing.png"],"brand_name":"TrailCraft"}`)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decoding error body: %v", err)
	}
	if body.Error.Code != "not_found" {
		t.Fatalf("error code = %q", body.Error.Code)
	}
}
