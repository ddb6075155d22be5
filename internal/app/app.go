// Package app provides application lifecycle management.
package app

import (
	"context"
	"fmt"
	"os"

	"github.com/seojin/sceneweaver/internal/llm"
	"github.com/seojin/sceneweaver/internal/llm/adapters"
	"github.com/seojin/sceneweaver/internal/project"
	"github.com/seojin/sceneweaver/pkg/types"
)

// App represents the main application instance.
type App struct {
	Config         *ConfigManager
	ProjectManager *project.Manager
	CurrentProject *project.Project
}

// New creates a new application instance.
func New() (*App, error) {
	configManager, err := NewConfigManager()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize config manager: %w", err)
	}

	globalConfig, err := configManager.LoadGlobalConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load global config: %w", err)
	}

	projectManager, err := project.NewManager(globalConfig.ProjectsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize project manager: %w", err)
	}

	return &App{
		Config:         configManager,
		ProjectManager: projectManager,
	}, nil
}

// OpenProject opens an existing project by name.
func (a *App) OpenProject(name string) error {
	proj, err := a.ProjectManager.Open(name)
	if err != nil {
		return fmt.Errorf("failed to open project: %w", err)
	}
	a.CurrentProject = proj
	return nil
}

// CreateProject creates a new project with the given video style.
func (a *App) CreateProject(name string, style types.VideoStyle) error {
	config := types.DefaultProjectConfig(name, style)
	proj, err := a.ProjectManager.Create(name, config)
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}
	a.CurrentProject = proj
	return nil
}

// ListProjects returns all available projects.
func (a *App) ListProjects() ([]*types.Project, error) {
	return a.ProjectManager.List()
}

// Close cleans up application resources.
func (a *App) Close() error {
	if a.CurrentProject != nil {
		return a.CurrentProject.Close()
	}
	return nil
}

// apiKeyEnvVars maps provider names to the environment variables checked
// when the config carries no key.
var apiKeyEnvVars = map[string][]string{
	"openai":    {"OPENAI_API_KEY"},
	"gemini":    {"GEMINI_API_KEY", "GOOGLE_API_KEY"},
	"anthropic": {"ANTHROPIC_API_KEY"},
}

// resolveAPIKey returns the key from the provider config, falling back to
// the provider's environment variables.
func resolveAPIKey(providerName string, cfg *types.ProviderConfig) string {
	if cfg != nil && cfg.APIKey != "" {
		return cfg.APIKey
	}
	for _, envVar := range apiKeyEnvVars[providerName] {
		if key := os.Getenv(envVar); key != "" {
			return key
		}
	}
	return ""
}

// BuildProvider constructs the LLM provider named in the current project's
// config, or the global default when no project is open. An empty model
// falls back to the provider config's default model, then to the adapter's
// own default.
func (a *App) BuildProvider(ctx context.Context) (llm.Provider, error) {
	providerName := ""
	model := ""
	if a.CurrentProject != nil {
		providerName = a.CurrentProject.Config.LLM.Provider
		model = a.CurrentProject.Config.LLM.Model
	}

	globalConfig, err := a.Config.LoadGlobalConfig()
	if err != nil {
		return nil, err
	}
	if providerName == "" {
		providerName = globalConfig.Defaults.Provider
	}
	if providerName == "" {
		return nil, fmt.Errorf("no provider configured")
	}

	providerConfig := globalConfig.Providers[providerName]
	if model == "" && providerConfig != nil {
		model = providerConfig.DefaultModel
	}

	apiKey := resolveAPIKey(providerName, providerConfig)
	if apiKey == "" {
		return nil, fmt.Errorf("no API key for provider %q: set it in the config or the environment", providerName)
	}

	switch providerName {
	case "openai":
		var opts []adapters.OpenAIOption
		if providerConfig != nil && providerConfig.BaseURL != "" {
			opts = append(opts, adapters.WithOpenAIBaseURL(providerConfig.BaseURL))
		}
		return adapters.NewOpenAIAdapter(apiKey, model, opts...)

	case "gemini":
		return adapters.NewGeminiAdapter(ctx, apiKey, model)

	case "anthropic":
		var opts []adapters.AnthropicOption
		if providerConfig != nil && providerConfig.BaseURL != "" {
			opts = append(opts, adapters.WithAnthropicBaseURL(providerConfig.BaseURL))
		}
		return adapters.NewAnthropicAdapter(apiKey, model, opts...)

	default:
		return nil, fmt.Errorf("unknown provider %q", providerName)
	}
}
