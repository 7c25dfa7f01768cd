package ai

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/nmoreno/careerhub/pkg/models"
)

// MaxResumeChars bounds the resume text embedded in a prompt, capping request
// size and cost for very long documents.
const MaxResumeChars = 60_000

const promptTemplate = `You are an ATS-grade resume parser and job-search keyword strategist.
Extract structured keywords and signals from the resume text to power online job searches.

# OUTPUT REQUIREMENTS (CRITICAL)
- Output MUST be valid JSON with exactly these keys:
  "resume_text" (string), "resume_summary" (string),
  "resume_keywords" (list of strings), "resume_key_skills" (list of strings).
- Do NOT include markdown, comments, explanations, or extra keys.
- If a field is unknown, use an empty string or an empty list.
- NEVER invent employers, dates, degrees, certifications, tools, or titles not present in the resume.
- Prefer exact phrasing from the resume for keywords.

# NORMALIZATION RULES
- Deduplicate keywords.
- Keep keyword casing as commonly used (e.g., "AWS", "SQL", "FastAPI").
- Do not output soft skills unless they appear repeatedly and are job-relevant.

# RESUME TEXT (SOURCE OF TRUTH)
%s
`

// BuildResumePrompt renders the extraction prompt, trimming oversized resumes
// to MaxResumeChars without splitting a UTF-8 rune.
func BuildResumePrompt(resumeText string) string {
	safe := strings.TrimSpace(resumeText)
	if len(safe) > MaxResumeChars {
		cut := MaxResumeChars
		for cut > 0 && !utf8.RuneStart(safe[cut]) {
			cut--
		}
		safe = safe[:cut]
	}
	return fmt.Sprintf(promptTemplate, safe)
}

// ParseFeatures validates a raw provider response against the fixed
// ResumeFeatures contract. Anything that does not conform — bad JSON, wrong
// types, unknown keys — is rejected with ErrInvalidResponse rather than
// best-effort field access.
func ParseFeatures(raw []byte) (models.ResumeFeatures, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return models.ResumeFeatures{}, fmt.Errorf("%w: empty response", ErrInvalidResponse)
	}

	// Some models wrap JSON in a markdown fence despite instructions.
	trimmed = stripFence(trimmed)

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.DisallowUnknownFields()

	var features models.ResumeFeatures
	if err := dec.Decode(&features); err != nil {
		return models.ResumeFeatures{}, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if dec.More() {
		return models.ResumeFeatures{}, fmt.Errorf("%w: trailing data after JSON object", ErrInvalidResponse)
	}
	return features, nil
}

func stripFence(b []byte) []byte {
	s := strings.TrimSpace(string(b))
	if !strings.HasPrefix(s, "```") {
		return b
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return []byte(strings.TrimSpace(s))
}
