package ai

import (
	"errors"
	"strings"
	"testing"
)

func TestBuildResumePrompt_EmbedsText(t *testing.T) {
	prompt := BuildResumePrompt("Senior Go developer at Acme")
	if !strings.Contains(prompt, "Senior Go developer at Acme") {
		t.Error("prompt must contain the resume text")
	}
	if !strings.Contains(prompt, "resume_keywords") {
		t.Error("prompt must name the required output keys")
	}
}

func TestBuildResumePrompt_TrimsOversizedText(t *testing.T) {
	long := strings.Repeat("a", MaxResumeChars+5000)
	prompt := BuildResumePrompt(long)
	if strings.Contains(prompt, strings.Repeat("a", MaxResumeChars+1)) {
		t.Error("resume text was not trimmed to the budget")
	}
}

func TestBuildResumePrompt_DoesNotSplitRunes(t *testing.T) {
	// Multi-byte runes right at the cut point must not be split.
	long := strings.Repeat("é", MaxResumeChars) // 2 bytes each
	prompt := BuildResumePrompt(long)
	if !strings.Contains(prompt, "é") {
		t.Fatal("expected trimmed text to survive")
	}
	if strings.Contains(prompt, "�") {
		t.Error("trimming produced an invalid UTF-8 boundary")
	}
}

func TestParseFeatures_ValidResponse(t *testing.T) {
	raw := `{
		"resume_text": "full text",
		"resume_summary": "Platform engineer",
		"resume_keywords": ["Go", "Terraform"],
		"resume_key_skills": ["infrastructure"]
	}`
	features, err := ParseFeatures([]byte(raw))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if features.ResumeSummary != "Platform engineer" {
		t.Errorf("unexpected summary: %s", features.ResumeSummary)
	}
	if len(features.ResumeKeywords) != 2 || features.ResumeKeywords[0] != "Go" {
		t.Errorf("unexpected keywords: %v", features.ResumeKeywords)
	}
}

func TestParseFeatures_StripsMarkdownFence(t *testing.T) {
	raw := "```json\n{\"resume_text\":\"t\",\"resume_summary\":\"s\",\"resume_keywords\":[],\"resume_key_skills\":[]}\n```"
	features, err := ParseFeatures([]byte(raw))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if features.ResumeSummary != "s" {
		t.Errorf("unexpected summary: %s", features.ResumeSummary)
	}
}

func TestParseFeatures_RejectsUnknownKeys(t *testing.T) {
	raw := `{"resume_text":"t","resume_summary":"s","resume_keywords":[],"resume_key_skills":[],"extra":"no"}`
	_, err := ParseFeatures([]byte(raw))
	if !errors.Is(err, ErrInvalidResponse) {
		t.Fatalf("expected ErrInvalidResponse, got %v", err)
	}
}

func TestParseFeatures_RejectsWrongTypes(t *testing.T) {
	raw := `{"resume_text":"t","resume_summary":"s","resume_keywords":"not-a-list","resume_key_skills":[]}`
	_, err := ParseFeatures([]byte(raw))
	if !errors.Is(err, ErrInvalidResponse) {
		t.Fatalf("expected ErrInvalidResponse, got %v", err)
	}
}

func TestParseFeatures_RejectsEmpty(t *testing.T) {
	for _, raw := range []string{"", "   ", "\n"} {
		if _, err := ParseFeatures([]byte(raw)); !errors.Is(err, ErrInvalidResponse) {
			t.Errorf("input %q: expected ErrInvalidResponse, got %v", raw, err)
		}
	}
}

func TestParseFeatures_RejectsTrailingData(t *testing.T) {
	raw := `{"resume_text":"t","resume_summary":"s","resume_keywords":[],"resume_key_skills":[]} {"another":1}`
	_, err := ParseFeatures([]byte(raw))
	if !errors.Is(err, ErrInvalidResponse) {
		t.Fatalf("expected ErrInvalidResponse, got %v", err)
	}
}

func TestParseFeatures_RejectsNonJSON(t *testing.T) {
	_, err := ParseFeatures([]byte("Sorry, I cannot parse this resume."))
	if !errors.Is(err, ErrInvalidResponse) {
		t.Fatalf("expected ErrInvalidResponse, got %v", err)
	}
}
