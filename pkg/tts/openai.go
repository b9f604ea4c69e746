package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/vctlabs/vct/pkg/logging"
)

const (
	openAIDefaultEndpoint = "https://api.openai.com/v1"
	openAIDefaultModel    = "gpt-4o-mini-tts"
	openAIDefaultVoice    = "alloy"
	openAITimeout         = 30 * time.Second
)

// OpenAIConfig configures the cloud speech engine.
type OpenAIConfig struct {
	// APIKey is the OpenAI API key. Required.
	APIKey string

	// Voice selects the synthesis voice. Defaults to alloy.
	Voice string

	// Model selects the speech model. Defaults to gpt-4o-mini-tts.
	Model string

	// Endpoint overrides the API base URL, mainly for tests.
	Endpoint string

	// Logger receives diagnostics about persisted audio. Optional.
	Logger *slog.Logger
}

// OpenAI synthesizes speech through the OpenAI audio API. The returned
// audio is persisted to a temporary WAV file whose path is logged; playback
// is delegated to the deployment environment.
type OpenAI struct {
	apiKey     string
	voice      string
	model      string
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
}

// NewOpenAI creates a cloud speech engine.
func NewOpenAI(cfg OpenAIConfig) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w for speech synthesis", ErrAPIKeyMissing)
	}
	baseURL := cfg.Endpoint
	if baseURL == "" {
		baseURL = openAIDefaultEndpoint
	}
	voice := cfg.Voice
	if voice == "" {
		voice = openAIDefaultVoice
	}
	model := cfg.Model
	if model == "" {
		model = openAIDefaultModel
	}
	log := cfg.Logger
	if log == nil {
		log = logging.Nop()
	}
	return &OpenAI{
		apiKey:  cfg.APIKey,
		voice:   voice,
		model:   model,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: openAITimeout,
		},
		log: log,
	}, nil
}

// Name returns "openai".
func (o *OpenAI) Name() string { return "openai" }

type speechRequest struct {
	Model  string `json:"model"`
	Voice  string `json:"voice"`
	Input  string `json:"input"`
	Format string `json:"format"`
}

// Speak synthesizes the phrase and persists the audio to a temp WAV file.
func (o *OpenAI) Speak(ctx context.Context, text string) error {
	if text == "" {
		return nil
	}

	payload, err := json.Marshal(speechRequest{
		Model:  o.model,
		Voice:  o.voice,
		Input:  text,
		Format: "wav",
	})
	if err != nil {
		return fmt.Errorf("failed to encode speech request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		o.baseURL+"/audio/speech", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+o.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("speech request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("speech API returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read synthesized audio: %w", err)
	}
	if len(audio) == 0 {
		return fmt.Errorf("speech API returned empty audio")
	}

	path, err := persistAudio(audio)
	if err != nil {
		return err
	}
	o.log.InfoContext(ctx, "synthesized speech saved", "voice", o.voice, "path", path)
	return nil
}

func persistAudio(audio []byte) (string, error) {
	f, err := os.CreateTemp("", "vct-tts-*.wav")
	if err != nil {
		return "", fmt.Errorf("failed to create audio file: %w", err)
	}
	defer func() { _ = f.Close() }()
	if _, err := f.Write(audio); err != nil {
		return "", fmt.Errorf("failed to write audio file: %w", err)
	}
	return f.Name(), nil
}
