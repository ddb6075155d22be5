package main

import (
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/seojin/sceneweaver/internal/app"
	"github.com/seojin/sceneweaver/pkg/types"
)

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Configure LLM provider authentication",
		RunE:  runAuthCmd,
	}
	cmd.Flags().BoolP("list", "l", false, "List configured providers")
	cmd.Flags().StringP("remove", "r", "", "Remove a provider configuration")
	cmd.Flags().String("provider", "", "Configure a specific provider")
	return cmd
}

func runAuthCmd(cmd *cobra.Command, args []string) error {
	listFlag, _ := cmd.Flags().GetBool("list")
	removeFlag, _ := cmd.Flags().GetString("remove")
	providerFlag, _ := cmd.Flags().GetString("provider")

	application, err := openApp()
	if err != nil {
		return err
	}
	defer application.Close()

	if listFlag {
		return listProviders(application)
	}
	if removeFlag != "" {
		return removeProvider(application, removeFlag)
	}

	if providerFlag == "" {
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewSelect[string]().
					Title("Select provider to configure").
					Options(
						huh.NewOption("OpenAI", "openai"),
						huh.NewOption("Anthropic Claude", "anthropic"),
						huh.NewOption("Google Gemini", "gemini"),
					).
					Value(&providerFlag),
			),
		)
		if err := form.Run(); err != nil {
			return fmt.Errorf("provider selection failed: %w", err)
		}
	}

	return setupProvider(application, providerFlag)
}

func listProviders(application *app.App) error {
	config, err := application.Config.LoadGlobalConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	fmt.Println("Configured providers:")
	fmt.Println()

	providers := []struct {
		name  string
		label string
	}{
		{"openai", "OpenAI"},
		{"anthropic", "Anthropic Claude"},
		{"gemini", "Google Gemini"},
	}

	hasAny := false
	for _, p := range providers {
		providerConfig, exists := config.Providers[p.name]
		if !exists || (providerConfig.APIKey == "" && providerConfig.BaseURL == "") {
			continue
		}

		hasAny = true
		defaultMark := ""
		if config.Defaults.Provider == p.name {
			defaultMark = " (default)"
		}

		fmt.Printf("  %s%s\n", p.label, defaultMark)
		if providerConfig.APIKey != "" {
			fmt.Printf("    API Key: %s\n", maskAPIKey(providerConfig.APIKey))
		}
		if providerConfig.DefaultModel != "" {
			fmt.Printf("    Model: %s\n", providerConfig.DefaultModel)
		}
		if providerConfig.BaseURL != "" {
			fmt.Printf("    Base URL: %s\n", providerConfig.BaseURL)
		}
		fmt.Println()
	}

	if !hasAny {
		fmt.Println("  No providers configured.")
		fmt.Println()
		fmt.Println("Run 'sceneweaver auth' to configure a provider.")
	}

	return nil
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

func removeProvider(application *app.App, providerName string) error {
	config, err := application.Config.LoadGlobalConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if _, exists := config.Providers[providerName]; !exists {
		return fmt.Errorf("provider '%s' is not configured", providerName)
	}

	delete(config.Providers, providerName)

	if config.Defaults.Provider == providerName {
		config.Defaults.Provider = ""
		for name := range config.Providers {
			config.Defaults.Provider = name
			break
		}
	}

	if err := application.Config.SaveGlobalConfig(config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Printf("Provider '%s' removed.\n", providerName)
	return nil
}

// providerModels lists the selectable default models per provider.
var providerModels = map[string][]huh.Option[string]{
	"openai": {
		huh.NewOption("GPT-4o (recommended)", "gpt-4o"),
		huh.NewOption("GPT-4o Mini", "gpt-4o-mini"),
		huh.NewOption("GPT-4 Turbo", "gpt-4-turbo"),
		huh.NewOption("o1", "o1"),
	},
	"anthropic": {
		huh.NewOption("Claude Sonnet 4.5 (recommended)", "claude-sonnet-4-5"),
		huh.NewOption("Claude Opus 4.1", "claude-opus-4-1"),
		huh.NewOption("Claude 3.5 Haiku", "claude-3-5-haiku-latest"),
	},
	"gemini": {
		huh.NewOption("Gemini 2.5 Flash (recommended)", "gemini-2.5-flash"),
		huh.NewOption("Gemini 2.5 Pro", "gemini-2.5-pro"),
		huh.NewOption("Gemini 2.0 Flash", "gemini-2.0-flash"),
	},
}

var providerKeyHints = map[string]string{
	"openai":    "sk-...",
	"anthropic": "sk-ant-...",
	"gemini":    "Get from ai.google.dev",
}

func setupProvider(application *app.App, providerName string) error {
	models, ok := providerModels[providerName]
	if !ok {
		return fmt.Errorf("unknown provider: %s (supported: openai, anthropic, gemini)", providerName)
	}

	config, err := application.Config.LoadGlobalConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	providerConfig := config.Providers[providerName]
	if providerConfig == nil {
		providerConfig = &types.ProviderConfig{}
	}

	currentKey := ""
	if providerConfig.APIKey != "" {
		currentKey = " (current: " + maskAPIKey(providerConfig.APIKey) + ")"
	}

	var apiKey, model string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("API Key"+currentKey).
				Placeholder(providerKeyHints[providerName]).
				Value(&apiKey),
			huh.NewSelect[string]().
				Title("Default model").
				Options(models...).
				Value(&model),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("%s setup failed: %w", providerName, err)
	}

	if apiKey != "" {
		providerConfig.APIKey = apiKey
	}
	if model != "" {
		providerConfig.DefaultModel = model
	}

	var setDefault bool
	defaultForm := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Set as default provider?").
				Value(&setDefault),
		),
	)
	if err := defaultForm.Run(); err != nil {
		return fmt.Errorf("default selection failed: %w", err)
	}

	if config.Providers == nil {
		config.Providers = make(map[string]*types.ProviderConfig)
	}
	config.Providers[providerName] = providerConfig
	if setDefault {
		config.Defaults.Provider = providerName
	}

	if err := application.Config.SaveGlobalConfig(config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Printf("\n%s configured.\n", providerName)
	return nil
}
