package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// RulesFile is the optional YAML file referenced by REVIEW_RULES_FILE.
//
//	include_patterns: ["src/**", "/cmd/*.go"]
//	ignore_patterns: ["*.lock"]
//	max_patch_length: 2000
type RulesFile struct {
	IncludePatterns []string `yaml:"include_patterns"`
	IgnorePatterns  []string `yaml:"ignore_patterns"`
	MaxPatchLength  int      `yaml:"max_patch_length"`
}

// LoadRulesFile reads and parses a rules file
func LoadRulesFile(path string) (*RulesFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rules file: %w", err)
	}

	var rules RulesFile
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("parsing rules file %s: %w", path, err)
	}
	return &rules, nil
}

// applyTo fills fields the environment left unset
func (r *RulesFile) applyTo(cfg *ReviewConfig) {
	if len(cfg.IncludePatterns) == 0 && len(r.IncludePatterns) > 0 {
		cfg.IncludePatterns = r.IncludePatterns
	}
	if len(cfg.IgnorePatterns) == 0 && len(r.IgnorePatterns) > 0 {
		cfg.IgnorePatterns = r.IgnorePatterns
	}
	if os.Getenv("MAX_PATCH_LENGTH") == "" && r.MaxPatchLength > 0 {
		cfg.MaxPatchLength = r.MaxPatchLength
	}
}
