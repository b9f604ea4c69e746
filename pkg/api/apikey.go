// API key authentication for the trainer API.

package api

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/vctlabs/vct/pkg/mode"
)

const (
	// APIKeyLength is the length of generated API keys in bytes.
	APIKeyLength = 32

	// APIKeyPrefix makes generated keys identifiable in logs and configs.
	APIKeyPrefix = "vct_"

	// APIKeyHeader is the HTTP header for API key authentication.
	APIKeyHeader = "X-API-Key"

	// EnvAPIKey is the environment variable holding the API key.
	EnvAPIKey = "VCT_API_KEY"
)

// APIKeyConfig holds configuration for API key authentication.
type APIKeyConfig struct {
	// Enabled controls whether API key authentication is required.
	// If false, all requests are allowed without authentication.
	Enabled bool

	// Key is the API key. If empty and Enabled is true, the key is read
	// from VCT_API_KEY; in simulate mode a random key is generated when
	// the environment has none.
	Key string

	// ExemptPaths are URL paths that don't require authentication.
	// Health check is always exempt.
	ExemptPaths []string
}

// DefaultAPIKeyConfig returns the default API key configuration.
func DefaultAPIKeyConfig() APIKeyConfig {
	return APIKeyConfig{
		Enabled:     true,
		ExemptPaths: []string{"/health"},
	}
}

// apiKeyAuth handles API key authentication state and validation.
type apiKeyAuth struct {
	config  APIKeyConfig
	key     string
	keyHash []byte
	mu      sync.RWMutex
	log     *slog.Logger
}

// newAPIKeyAuth creates a new API key authenticator. In live mode a key
// must come from config or environment; generating one would silently
// mint credentials for a reachable robot.
func newAPIKeyAuth(config APIKeyConfig, m mode.Mode, log *slog.Logger) (*apiKeyAuth, error) {
	auth := &apiKeyAuth{
		config: config,
		log:    log,
	}

	if !config.Enabled {
		return auth, nil
	}

	if config.Key != "" {
		auth.setKey(config.Key)
		return auth, nil
	}

	if envKey := os.Getenv(EnvAPIKey); envKey != "" {
		auth.setKey(envKey)
		auth.log.Info("using API key from environment", "var", EnvAPIKey)
		return auth, nil
	}

	if !m.IsSimulate() {
		return nil, fmt.Errorf("live mode requires an API key: set %s or pass one explicitly", EnvAPIKey)
	}

	key, err := generateAPIKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate API key: %w", err)
	}
	auth.setKey(key)

	// Print to stderr so the key is discoverable even with JSON logging.
	fmt.Fprintf(os.Stderr, "API key: %s\n", key)
	fmt.Fprintf(os.Stderr, "  Set %s or use --no-auth to skip authentication.\n", EnvAPIKey)

	return auth, nil
}

// generateAPIKey returns a new random API key with the standard prefix.
func generateAPIKey() (string, error) {
	buf := make([]byte, APIKeyLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return APIKeyPrefix + hex.EncodeToString(buf), nil
}

// setKey sets the API key and precomputes the comparison bytes.
func (a *apiKeyAuth) setKey(key string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.key = key
	a.keyHash = []byte(key)
}

// getKey returns the current API key.
func (a *apiKeyAuth) getKey() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.key
}

// validate checks if the provided key is valid.
func (a *apiKeyAuth) validate(providedKey string) bool {
	a.mu.RLock()
	keyHash := a.keyHash
	a.mu.RUnlock()

	if len(keyHash) == 0 {
		return false
	}

	// Constant-time comparison to prevent timing attacks.
	return subtle.ConstantTimeCompare([]byte(providedKey), keyHash) == 1
}

// isExempt checks if a path is exempt from authentication.
func (a *apiKeyAuth) isExempt(path string) bool {
	if path == "/health" {
		return true
	}
	for _, exempt := range a.config.ExemptPaths {
		if path == exempt || strings.HasPrefix(path, exempt+"/") {
			return true
		}
	}
	return false
}

// middleware returns an HTTP middleware that enforces API key authentication.
func (a *apiKeyAuth) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.config.Enabled {
			next.ServeHTTP(w, r)
			return
		}
		if a.isExempt(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		apiKey := r.Header.Get(APIKeyHeader)
		if apiKey == "" {
			auth := r.Header.Get("Authorization")
			if strings.HasPrefix(auth, "Bearer ") {
				apiKey = strings.TrimPrefix(auth, "Bearer ")
			}
		}
		if apiKey == "" {
			apiKey = r.URL.Query().Get("api_key")
		}

		if apiKey == "" {
			writeError(w, http.StatusUnauthorized, "missing_api_key",
				"API key required. Provide via X-API-Key header, Authorization: Bearer <key>, or api_key query parameter.")
			return
		}
		if !a.validate(apiKey) {
			writeError(w, http.StatusUnauthorized, "invalid_api_key", "Invalid API key")
			return
		}

		next.ServeHTTP(w, r)
	})
}
