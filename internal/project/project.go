// Package project provides project lifecycle management.
package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/seojin/sceneweaver/internal/storage"
	"github.com/seojin/sceneweaver/pkg/types"
)

var (
	ErrProjectNotFound = errors.New("project not found")
	ErrProjectExists   = errors.New("project already exists")
	ErrInvalidName     = errors.New("invalid project name")
)

// Manager handles project lifecycle operations.
type Manager struct {
	projectsDir string
}

// NewManager creates a new project manager.
func NewManager(projectsDir string) (*Manager, error) {
	// Expand ~ if present
	if strings.HasPrefix(projectsDir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		projectsDir = filepath.Join(home, projectsDir[2:])
	}

	if err := os.MkdirAll(projectsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create projects directory: %w", err)
	}

	return &Manager{
		projectsDir: projectsDir,
	}, nil
}

// Project represents an open screenplay project. All characters, scenes and
// timeline events live in the project store; deleting the project directory
// removes everything it owns.
type Project struct {
	Info   *types.Project
	Config *types.ProjectConfig
	Store  *storage.Store
	path   string
}

// Create creates a new project and opens it.
func (m *Manager) Create(name string, config *types.ProjectConfig) (*Project, error) {
	if !isValidName(name) {
		return nil, ErrInvalidName
	}

	projectPath := filepath.Join(m.projectsDir, name)

	if _, err := os.Stat(projectPath); err == nil {
		return nil, ErrProjectExists
	}

	dirs := []string{
		".sceneweaver",
		"exports",
		"references",
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(filepath.Join(projectPath, dir), 0755); err != nil {
			os.RemoveAll(projectPath)
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	if err := SaveProjectConfig(projectPath, config); err != nil {
		os.RemoveAll(projectPath)
		return nil, fmt.Errorf("failed to save project config: %w", err)
	}

	readme := fmt.Sprintf("# %s\n\nA %s video project created with Sceneweaver.\n\nCreated: %s\n",
		config.Name, config.Style.Display(), config.CreatedAt.Format("2006-01-02"))

	if err := storage.AtomicWriteFile(filepath.Join(projectPath, "README.md"), []byte(readme), 0644); err != nil {
		os.RemoveAll(projectPath)
		return nil, fmt.Errorf("failed to create README: %w", err)
	}

	return m.Open(name)
}

// Open opens an existing project.
func (m *Manager) Open(name string) (*Project, error) {
	projectPath := filepath.Join(m.projectsDir, name)

	if _, err := os.Stat(projectPath); os.IsNotExist(err) {
		return nil, ErrProjectNotFound
	}

	config, err := LoadProjectConfig(projectPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load project config: %w", err)
	}

	store, err := storage.NewStore(projectPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	return &Project{
		Info: &types.Project{
			Name:      config.Name,
			Path:      projectPath,
			Style:     config.Style,
			CreatedAt: config.CreatedAt,
			UpdatedAt: time.Now(),
		},
		Config: config,
		Store:  store,
		path:   projectPath,
	}, nil
}

// Exists reports whether a project directory with a valid config exists.
func (m *Manager) Exists(name string) bool {
	configPath := filepath.Join(m.projectsDir, name, ".sceneweaver", "config.yaml")
	_, err := os.Stat(configPath)
	return err == nil
}

// List returns all available projects.
func (m *Manager) List() ([]*types.Project, error) {
	entries, err := os.ReadDir(m.projectsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []*types.Project{}, nil
		}
		return nil, err
	}

	var projects []*types.Project
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		projectPath := filepath.Join(m.projectsDir, entry.Name())
		if !m.Exists(entry.Name()) {
			continue
		}

		config, err := LoadProjectConfig(projectPath)
		if err != nil {
			continue // Skip invalid projects
		}

		info, _ := entry.Info()
		projects = append(projects, &types.Project{
			Name:      config.Name,
			Path:      projectPath,
			Style:     config.Style,
			CreatedAt: config.CreatedAt,
			UpdatedAt: info.ModTime(),
		})
	}

	return projects, nil
}

// Delete removes a project and everything it owns, including its character
// roster, scenes and exports.
func (m *Manager) Delete(name string) error {
	projectPath := filepath.Join(m.projectsDir, name)

	if _, err := os.Stat(projectPath); os.IsNotExist(err) {
		return ErrProjectNotFound
	}

	return os.RemoveAll(projectPath)
}

// isValidName checks if a project name is valid.
func isValidName(name string) bool {
	if name == "" || len(name) > 100 {
		return false
	}

	invalid := []string{"/", "\\", ":", "*", "?", "\"", "<", ">", "|", "..", " "}
	for _, char := range invalid {
		if strings.Contains(name, char) {
			return false
		}
	}

	reserved := []string{".", "..", "con", "prn", "aux", "nul"}
	nameLower := strings.ToLower(name)
	for _, r := range reserved {
		if nameLower == r {
			return false
		}
	}

	return true
}

// Path returns the project's filesystem path.
func (p *Project) Path() string {
	return p.path
}

// Close releases project resources.
func (p *Project) Close() error {
	if p.Store != nil {
		return p.Store.Close()
	}
	return nil
}

// SaveConfig persists the in-memory project config.
func (p *Project) SaveConfig() error {
	return SaveProjectConfig(p.path, p.Config)
}

// Characters returns the project roster in insertion order.
func (p *Project) Characters() ([]*types.Character, error) {
	return p.Store.ListCharacters()
}

// Scenes returns the project's scenes in insertion order.
func (p *Project) Scenes() ([]*types.Scene, error) {
	return p.Store.ListScenes()
}

// AddReferenceImage copies an image file into the project's references
// directory and records the project-relative path on the character.
func (p *Project) AddReferenceImage(c *types.Character, srcPath string) error {
	ext := filepath.Ext(srcPath)
	relPath := filepath.Join("references", c.ID+ext)

	if err := storage.AtomicCopyFile(srcPath, filepath.Join(p.path, relPath)); err != nil {
		return fmt.Errorf("failed to copy reference image: %w", err)
	}

	c.ReferenceImage = relPath
	return p.Store.SaveCharacter(c)
}

// ExportPath returns the path for a named export file.
func (p *Project) ExportPath(filename string) string {
	return filepath.Join(p.path, "exports", filename)
}
