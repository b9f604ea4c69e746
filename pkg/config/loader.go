package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Common errors for configuration loading/saving.
var (
	ErrFileNotFound      = errors.New("configuration file not found")
	ErrPermissionDenied  = errors.New("permission denied")
	ErrEmptyFile         = errors.New("configuration file is empty")
	ErrUnsupportedFormat = errors.New("unsupported configuration format")
)

// Load reads Settings from a YAML, JSON, or TOML file. The format is
// detected from the file extension; files without an extension are parsed
// as YAML. Defaults are applied and the result is normalized.
func Load(path string) (*Settings, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		if os.IsPermission(err) {
			return nil, fmt.Errorf("%w: %s", ErrPermissionDenied, path)
		}
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("path is a directory, not a file: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsPermission(err) {
			return nil, fmt.Errorf("%w: %s", ErrPermissionDenied, path)
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyFile, path)
	}

	// Decode over the defaults so an absent key keeps its default while an
	// explicit zero (cooldown 0, min score 0) survives.
	settings := DefaultSettings()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml", "":
		if err := yaml.Unmarshal(data, settings); err != nil {
			return nil, fmt.Errorf("invalid YAML in %s: %w", path, err)
		}
	case ".json":
		if err := json.Unmarshal(data, settings); err != nil {
			return nil, fmt.Errorf("invalid JSON in %s: %w", path, err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, settings); err != nil {
			return nil, fmt.Errorf("invalid TOML in %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}

	if err := settings.Normalize(); err != nil {
		return nil, err
	}
	return settings, nil
}

// Save writes Settings to a file using an atomic rename. The format is
// determined by the file extension, mirroring Load. Parent directories are
// created if missing.
func Save(path string, settings *Settings) error {
	if settings == nil {
		return errors.New("settings cannot be nil")
	}

	var data []byte
	var err error
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml", "":
		data, err = yaml.Marshal(settings)
	case ".json":
		data, err = json.MarshalIndent(settings, "", "  ")
	case ".toml":
		data, err = toml.Marshal(settings)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write temporary file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}
	return nil
}
