// Package config loads whisper client configuration from layered sources.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/DeanoC/AIWhisperer-sub003/pkg/types"
)

// DefaultServer is used when no source names a backend.
const DefaultServer = "http://127.0.0.1:8000"

// Load loads configuration from multiple sources (priority order, later
// wins):
//  1. Global config (~/.config/whisper/)
//  2. Project config (<directory>/.whisper/)
//  3. WHISPER_CONFIG file
//  4. Environment variables
//
// Files may be whisper.json, whisper.jsonc, or whisper.yaml; JSON variants
// accept comments.
func Load(directory string) (*types.Config, error) {
	config := &types.Config{Server: DefaultServer}

	if home := os.Getenv("HOME"); home != "" {
		loadDir(filepath.Join(home, ".config", "whisper"), config)
	}
	if directory != "" {
		loadDir(filepath.Join(directory, ".whisper"), config)
	}
	if path := os.Getenv("WHISPER_CONFIG"); path != "" {
		if err := loadFile(path, config); err != nil {
			return nil, fmt.Errorf("WHISPER_CONFIG %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)
	return config, nil
}

// loadDir tries each recognized filename inside dir; missing files are
// skipped, malformed ones too (a broken config file must not take the
// client down).
func loadDir(dir string, config *types.Config) {
	for _, name := range []string{"whisper.json", "whisper.jsonc", "whisper.yaml"} {
		_ = loadFile(filepath.Join(dir, name), config)
	}
}

func loadFile(path string, config *types.Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var fileConfig types.Config
	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		if err := yaml.Unmarshal(data, &fileConfig); err != nil {
			return err
		}
	} else {
		if err := json.Unmarshal(jsonc.ToJSON(data), &fileConfig); err != nil {
			return err
		}
	}

	merge(config, &fileConfig)
	return nil
}

// merge overlays src onto dst, field by field; zero values in src do not
// clobber dst.
func merge(dst, src *types.Config) {
	if src.Server != "" {
		dst.Server = src.Server
	}
	if src.LogLevel != "" {
		dst.LogLevel = src.LogLevel
	}
	if src.Visibility.ShowAnalysis {
		dst.Visibility.ShowAnalysis = true
	}
	if src.Visibility.ShowCommentary {
		dst.Visibility.ShowCommentary = true
	}
	if src.Save.ForceDirect {
		dst.Save.ForceDirect = true
	}
	if len(src.Save.ForceDirectPatterns) > 0 {
		dst.Save.ForceDirectPatterns = append(dst.Save.ForceDirectPatterns, src.Save.ForceDirectPatterns...)
	}
}

// applyEnvOverrides applies environment variables, the highest-priority
// source.
func applyEnvOverrides(config *types.Config) {
	if v := os.Getenv("WHISPER_SERVER"); v != "" {
		config.Server = v
	}
	if v := os.Getenv("WHISPER_LOG_LEVEL"); v != "" {
		config.LogLevel = v
	}
	if v := os.Getenv("WHISPER_SHOW_ANALYSIS"); v != "" {
		config.Visibility.ShowAnalysis = isTruthy(v)
	}
	if v := os.Getenv("WHISPER_SHOW_COMMENTARY"); v != "" {
		config.Visibility.ShowCommentary = isTruthy(v)
	}
	if v := os.Getenv("WHISPER_FORCE_DIRECT_SAVE"); v != "" {
		config.Save.ForceDirect = isTruthy(v)
	}
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
