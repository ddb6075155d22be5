// Package project provides project lifecycle management.
package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/seojin/sceneweaver/internal/storage"
	"github.com/seojin/sceneweaver/pkg/types"
)

var (
	ErrConfigNotFound = errors.New("configuration file not found")
)

// LoadProjectConfig loads a project's configuration.
func LoadProjectConfig(projectPath string) (*types.ProjectConfig, error) {
	configPath := filepath.Join(projectPath, ".sceneweaver", "config.yaml")

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, fmt.Errorf("failed to read project config: %w", err)
	}

	var config types.ProjectConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse project config: %w", err)
	}

	return &config, nil
}

// SaveProjectConfig saves a project's configuration.
func SaveProjectConfig(projectPath string, config *types.ProjectConfig) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal project config: %w", err)
	}

	configPath := filepath.Join(projectPath, ".sceneweaver", "config.yaml")
	if err := storage.AtomicWriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write project config: %w", err)
	}

	return nil
}
