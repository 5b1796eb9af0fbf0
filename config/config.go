// Copyright 2026 The Codemem Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package config loads YAML application configuration for the CLI.
// Components themselves are configured through functional options; this
// package only maps a config file onto those options.
package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// AIConfig configures the embedding and agent hosts.
type AIConfig struct {
	EmbeddingHost  string `yaml:"embedding_host"`
	AgentHost      string `yaml:"agent_host"`
	EmbeddingModel string `yaml:"embedding_model"`
	AgentModel     string `yaml:"agent_model"`
	EmbeddingDim   int    `yaml:"embedding_dim"`
}

// IngestionConfig configures the ingestion pipeline.
type IngestionConfig struct {
	Workers int `yaml:"workers"`
}

// SearchConfig configures query defaults.
type SearchConfig struct {
	TopK     int     `yaml:"top_k"`
	MinScore float32 `yaml:"min_score"`
}

// OrchestrationConfig configures the orchestrator.
type OrchestrationConfig struct {
	Workers     int    `yaml:"workers"`
	TimeoutSecs int    `yaml:"timeout_secs"`
	MergePolicy string `yaml:"merge_policy"` // "strict" or "best_effort"
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	DatabasePath  string              `yaml:"database_path"`
	AI            AIConfig            `yaml:"ai"`
	Ingestion     IngestionConfig     `yaml:"ingestion"`
	Search        SearchConfig        `yaml:"search"`
	Orchestration OrchestrationConfig `yaml:"orchestration"`
}

// Load reads a config from the specified path. If the file does not exist,
// returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, err
	}

	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./codemem.yaml first, then ~/.config/codemem/config.yaml.
// If neither exists it returns defaults without writing anything.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "codemem.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}

	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}

	return defaultConfig(), "", nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "codemem", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{DatabasePath: "codemem.db"}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *AppConfig) {
	if cfg.DatabasePath == "" {
		cfg.DatabasePath = "codemem.db"
	}
	if cfg.Search.TopK == 0 {
		cfg.Search.TopK = 5
	}
	if cfg.Orchestration.TimeoutSecs == 0 {
		cfg.Orchestration.TimeoutSecs = 120
	}
	if cfg.Orchestration.MergePolicy == "" {
		cfg.Orchestration.MergePolicy = "strict"
	}
}
