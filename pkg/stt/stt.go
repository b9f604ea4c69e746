// Package stt provides speech-to-text engines for the VCT brain.
//
// Two engines are available: a rule-based recognizer that needs no external
// resources (the simulate-mode default), and a cloud engine backed by the
// OpenAI transcription API for live deployments.
package stt

import (
	"context"
	"errors"
	"strings"
)

// ErrAPIKeyMissing is returned when a cloud engine is built without credentials.
var ErrAPIKeyMissing = errors.New("API key is required")

// Engine converts a recorded audio clip into text.
type Engine interface {
	// Transcribe returns the text transcription for the given WAV file.
	// An empty string with a nil error means nothing was recognized.
	Transcribe(ctx context.Context, wavPath string) (string, error)

	// Name returns the engine identifier.
	Name() string
}

// defaultKeywords maps filename tokens to recognized phrases for the
// rule-based engine.
var defaultKeywords = map[string]string{
	"sit":  "sit",
	"down": "lie down",
	"come": "come here",
	"bark": "speak",
}

// RuleBased is a keyword recognizer kept as a lightweight, offline fallback.
// It matches known tokens against the clip's file name.
type RuleBased struct {
	keywords map[string]string
}

// NewRuleBased creates a rule-based engine. A nil keyword map selects the
// built-in defaults.
func NewRuleBased(keywords map[string]string) *RuleBased {
	if keywords == nil {
		keywords = defaultKeywords
	}
	return &RuleBased{keywords: keywords}
}

// Name returns "rule-based".
func (r *RuleBased) Name() string { return "rule-based" }

// Transcribe matches keyword tokens against the lowercased file name.
func (r *RuleBased) Transcribe(_ context.Context, wavPath string) (string, error) {
	if wavPath == "" {
		return "", nil
	}
	name := strings.ToLower(wavPath)
	for token, phrase := range r.keywords {
		if strings.Contains(name, token) {
			return phrase, nil
		}
	}
	return "", nil
}
