// Package models contains shared data models used across the careerhub codebase.
package models

import "context"

// AIProvider is the core interface that all LLM integrations must implement.
// Never call specific AI providers directly — always inject this interface.
type AIProvider interface {
	// Generate produces a completion for the prompt. Providers request JSON
	// output; schema validation happens in the caller.
	Generate(ctx context.Context, prompt string) (string, error)
	// Name returns the provider identifier (e.g., "gemini", "ollama").
	Name() string
}

// ResumeFeatures is the structured contract every provider response must
// conform to. Responses that do not validate against it are rejected.
type ResumeFeatures struct {
	ResumeText      string   `json:"resume_text"`
	ResumeSummary   string   `json:"resume_summary"`
	ResumeKeywords  []string `json:"resume_keywords"`
	ResumeKeySkills []string `json:"resume_key_skills"`
}
