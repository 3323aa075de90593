package compliance

import (
	"errors"
	"testing"
)

func TestCheckCleanFieldsPass(t *testing.T) {
	result, err := Check(map[string]string{
		"brand_name":       "TrailCraft",
		"campaign_message": "Run Further",
		"target_audience":  "hikers and trail runners",
		"products":         "Trail Shoes, Water Bottle",
	})
	if err != nil {
		t.Fatalf("Check returned error: %v", err)
	}
	if !result.IsCompliant {
		t.Fatalf("expected compliant result, got %#v", result)
	}
	if len(result.ProhibitedWordsFound) != 0 {
		t.Fatalf("expected no prohibited words, got %v", result.ProhibitedWordsFound)
	}
}

func TestCheckWholeWordMatch(t *testing.T) {
	result, err := Check(map[string]string{
		"campaign_message": "Results guaranteed or your money back",
	})
	if err == nil {
		t.Fatalf("expected rejection")
	}
	var rejection *Rejection
	if !errors.As(err, &rejection) {
		t.Fatalf("error type = %T, want *Rejection", err)
	}
	if len(rejection.Words) != 1 || rejection.Words[0] != "guaranteed" {
		t.Fatalf("rejection words = %v, want [guaranteed]", rejection.Words)
	}
	if result.IsCompliant {
		t.Fatalf("result should not be compliant")
	}
}

func TestCheckDoesNotMatchSubstrings(t *testing.T) {
	// "guard" must not trigger "guaranteed", "cascade" must not trigger anything.
	result, err := Check(map[string]string{
		"campaign_message": "A trusted guard for every cascade adventure",
	})
	if err != nil {
		t.Fatalf("Check returned error: %v", err)
	}
	if !result.IsCompliant {
		t.Fatalf("substring should not trigger a term: %#v", result)
	}
}

func TestCheckCaseInsensitive(t *testing.T) {
	for _, text := range []string{"GUARANTEED wins", "Guaranteed wins", "guaranteed wins"} {
		_, err := Check(map[string]string{"campaign_message": text})
		if err == nil {
			t.Fatalf("expected rejection for %q", text)
		}
	}
}

func TestCheckMultiWordPhraseContiguity(t *testing.T) {
	if _, err := Check(map[string]string{"products": "our get rich quick seminar kit"}); err == nil {
		t.Fatalf("expected contiguous phrase to match")
	}
	// Words present but separated must not match.
	if _, err := Check(map[string]string{"products": "get your rich flavors quick to enjoy"}); err != nil {
		t.Fatalf("non-contiguous words should not match: %v", err)
	}
}

func TestCheckAggregatesAcrossFields(t *testing.T) {
	result, err := Check(map[string]string{
		"brand_name":       "Casino Royale Gear",
		"campaign_message": "Guaranteed jackpot energy",
	})
	if err == nil {
		t.Fatalf("expected rejection")
	}
	var rejection *Rejection
	if !errors.As(err, &rejection) {
		t.Fatalf("error type = %T, want *Rejection", err)
	}
	want := []string{"casino", "guaranteed", "jackpot"}
	if len(rejection.Words) != len(want) {
		t.Fatalf("rejection words = %v, want %v", rejection.Words, want)
	}
	for i, w := range want {
		if rejection.Words[i] != w {
			t.Fatalf("rejection words not sorted: %v", rejection.Words)
		}
	}
	if len(result.Violations["brand_name"]) != 1 {
		t.Fatalf("brand_name violations = %v", result.Violations["brand_name"])
	}
	if len(result.Violations["campaign_message"]) != 2 {
		t.Fatalf("campaign_message violations = %v", result.Violations["campaign_message"])
	}
}

func TestCheckHyphenatedTerm(t *testing.T) {
	if _, err := Check(map[string]string{"campaign_message": "A risk-free trial for everyone"}); err == nil {
		t.Fatalf("expected hyphenated term to match")
	}
}
