package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	whisperDefaultEndpoint = "https://api.openai.com/v1"
	whisperDefaultModel    = "whisper-1"
	whisperTimeout         = 60 * time.Second
)

// WhisperConfig configures the cloud transcription engine.
type WhisperConfig struct {
	// APIKey is the OpenAI API key. Required.
	APIKey string

	// Model is the transcription model. Defaults to whisper-1.
	Model string

	// Endpoint overrides the API base URL, mainly for tests.
	Endpoint string
}

// Whisper transcribes audio through the OpenAI transcription API.
type Whisper struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewWhisper creates a cloud transcription engine.
func NewWhisper(cfg WhisperConfig) (*Whisper, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w for transcription", ErrAPIKeyMissing)
	}
	baseURL := cfg.Endpoint
	if baseURL == "" {
		baseURL = whisperDefaultEndpoint
	}
	model := cfg.Model
	if model == "" {
		model = whisperDefaultModel
	}
	return &Whisper{
		apiKey:  cfg.APIKey,
		model:   model,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: whisperTimeout,
		},
	}, nil
}

// Name returns "whisper".
func (w *Whisper) Name() string { return "whisper" }

// Transcribe uploads the WAV file and returns the recognized text.
func (w *Whisper) Transcribe(ctx context.Context, wavPath string) (string, error) {
	if wavPath == "" {
		return "", nil
	}

	file, err := os.Open(wavPath)
	if err != nil {
		return "", fmt.Errorf("failed to open audio clip: %w", err)
	}
	defer func() { _ = file.Close() }()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filepath.Base(wavPath))
	if err != nil {
		return "", fmt.Errorf("failed to build upload: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", fmt.Errorf("failed to read audio clip: %w", err)
	}
	if err := writer.WriteField("model", w.model); err != nil {
		return "", fmt.Errorf("failed to build upload: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		w.baseURL+"/audio/transcriptions", &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+w.apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("transcription request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("transcription API returned %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	var parsed struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode transcription response: %w", err)
	}
	return strings.TrimSpace(parsed.Text), nil
}
