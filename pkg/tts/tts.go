// Package tts provides text-to-speech engines for the VCT brain.
//
// Console output is the simulate-mode default; the OpenAI speech API backs
// live deployments.
package tts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrAPIKeyMissing is returned when a cloud engine is built without credentials.
var ErrAPIKeyMissing = errors.New("API key is required")

// Engine speaks a phrase to the operator or trainee.
type Engine interface {
	// Speak renders the text. Implementations must treat empty text as a no-op.
	Speak(ctx context.Context, text string) error

	// Name returns the engine identifier.
	Name() string
}

// Console writes the phrase to a writer instead of synthesizing audio.
type Console struct {
	out   io.Writer
	label string
}

// NewConsole creates a console engine. A nil writer defaults to stdout;
// an empty label defaults to "TTS".
func NewConsole(out io.Writer, label string) *Console {
	if out == nil {
		out = os.Stdout
	}
	if label == "" {
		label = "TTS"
	}
	return &Console{out: out, label: label}
}

// Name returns "console".
func (c *Console) Name() string { return "console" }

// Speak prints the phrase with the engine label.
func (c *Console) Speak(_ context.Context, text string) error {
	if text == "" {
		return nil
	}
	_, err := fmt.Fprintf(c.out, "[%s] %s\n", c.label, text)
	return err
}
