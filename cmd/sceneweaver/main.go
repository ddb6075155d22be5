// Package main provides the entry point for the sceneweaver CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/seojin/sceneweaver/internal/app"
	"github.com/seojin/sceneweaver/internal/project"
	"github.com/seojin/sceneweaver/pkg/types"
)

var (
	version       = "0.1.0"
	globalProject string
)

func main() {
	// A local .env may carry provider API keys; missing is fine.
	_ = godotenv.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	rootCmd := &cobra.Command{
		Use:   "sceneweaver",
		Short: "Build AI-video screenplay projects from characters and scenes",
		Long: `Sceneweaver is a terminal tool for building AI-video screenplays.
It manages characters and scenes per project, generates scripts through
LLM providers, and exports structured video-generation prompts.`,
		Version: version,
	}

	rootCmd.PersistentFlags().StringVarP(&globalProject, "project", "p", "", "Project to operate on")

	rootCmd.AddCommand(
		newNewCmd(),
		newListCmd(),
		newDeleteCmd(),
		newCharacterCmd(),
		newSceneCmd(),
		newExportCmd(),
		newSearchCmd(),
		newAuthCmd(),
	)

	return rootCmd.ExecuteContext(ctx)
}

// openApp initializes the application.
func openApp() (*app.App, error) {
	application, err := app.New()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize app: %w", err)
	}
	return application, nil
}

// openProject opens the project named by --project.
func openProject() (*app.App, *project.Project, error) {
	if globalProject == "" {
		return nil, nil, fmt.Errorf("no project selected: pass --project <name>")
	}

	application, err := openApp()
	if err != nil {
		return nil, nil, err
	}

	if err := application.OpenProject(globalProject); err != nil {
		application.Close()
		return nil, nil, err
	}

	return application, application.CurrentProject, nil
}

// parseStyle maps a style argument to a VideoStyle. Unknown values become
// a custom style carrying the raw text.
func parseStyle(text string) types.VideoStyle {
	switch text {
	case "", "cinematic":
		return types.VideoStyle{Kind: types.StyleCinematic}
	case "realistic":
		return types.VideoStyle{Kind: types.StyleRealistic}
	case "animation":
		return types.VideoStyle{Kind: types.StyleAnimation}
	case "anime":
		return types.VideoStyle{Kind: types.StyleAnime}
	case "documentary":
		return types.VideoStyle{Kind: types.StyleDocumentary}
	default:
		return types.VideoStyle{Kind: types.StyleCustom, Custom: text}
	}
}
