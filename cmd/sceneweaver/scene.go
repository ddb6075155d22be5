package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/seojin/sceneweaver/internal/llm"
	"github.com/seojin/sceneweaver/internal/project"
	"github.com/seojin/sceneweaver/internal/script"
	"github.com/seojin/sceneweaver/internal/tui"
	"github.com/seojin/sceneweaver/pkg/types"
)

func newSceneCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scene",
		Short: "Generate, import and inspect scenes",
	}

	cmd.AddCommand(
		newSceneGenerateCmd(),
		newSceneImportCmd(),
		newSceneListCmd(),
		newSceneShowCmd(),
		newSceneRemoveCmd(),
	)
	return cmd
}

func newSceneGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate <concept>",
		Short: "Generate scenes from a story concept",
		Long: `Generate asks the configured LLM provider for a screenplay in the
scene-marker format, parses it, and saves the resulting scenes to the
project. The project's character roster is injected into the request so
generated events reference existing characters.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runSceneGenerate,
	}
	cmd.Flags().String("setting", "", "Shared setting for the generated scenes")
	cmd.Flags().Int("scenes", 0, "Number of scenes (default from project config)")
	cmd.Flags().Bool("plain", false, "Print the stream to stdout instead of the interactive view")
	return cmd
}

func runSceneGenerate(cmd *cobra.Command, args []string) error {
	concept := strings.Join(args, " ")
	setting, _ := cmd.Flags().GetString("setting")
	sceneCount, _ := cmd.Flags().GetInt("scenes")
	plain, _ := cmd.Flags().GetBool("plain")

	application, proj, err := openProject()
	if err != nil {
		return err
	}
	defer application.Close()

	ctx := cmd.Context()
	provider, err := application.BuildProvider(ctx)
	if err != nil {
		return err
	}
	defer provider.Close()

	roster, err := proj.Characters()
	if err != nil {
		return err
	}

	if sceneCount == 0 {
		sceneCount = proj.Config.Generation.SceneCount
	}

	generator, err := llm.NewScriptGenerator(provider)
	if err != nil {
		return err
	}

	req := llm.ScriptRequest{
		Concept:     concept,
		Setting:     setting,
		SceneCount:  sceneCount,
		Style:       proj.Config.Style,
		Characters:  roster,
		Temperature: proj.Config.Generation.Temperature,
		MaxTokens:   proj.Config.Generation.MaxTokens,
	}

	var scriptText string
	if plain || !provider.Capabilities().SupportsStreaming {
		scriptText, err = generatePlain(ctx, generator, req)
	} else {
		scriptText, err = generateStreaming(generator, req, proj.Info.Name, concept)
	}
	if err != nil {
		return err
	}

	scenes := script.ParseScenes(scriptText, setting, roster)
	if len(scenes) == 0 {
		return fmt.Errorf("no scenes found in the generated script")
	}

	for _, scene := range scenes {
		if err := proj.Store.SaveScene(scene); err != nil {
			return fmt.Errorf("failed to save scene '%s': %w", scene.Title, err)
		}
	}

	fmt.Printf("\nSaved %d scene(s):\n", len(scenes))
	for _, scene := range scenes {
		fmt.Printf("  - %s (%d events)\n", scene.Title, len(scene.Timeline))
	}
	return nil
}

// generatePlain streams the script to stdout without the interactive view.
func generatePlain(ctx context.Context, generator *llm.ScriptGenerator, req llm.ScriptRequest) (string, error) {
	chunks, err := generator.GenerateStream(ctx, req)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for chunk := range chunks {
		if chunk.Error != nil {
			return "", chunk.Error
		}
		fmt.Print(chunk.Delta)
		sb.WriteString(chunk.Delta)
		if chunk.Done {
			break
		}
	}
	fmt.Println()
	return sb.String(), nil
}

// generateStreaming runs the Bubble Tea streaming view, restarting the
// stream on transient failures. User cancellation and timeouts are final.
func generateStreaming(generator *llm.ScriptGenerator, req llm.ScriptRequest, projectName, concept string) (string, error) {
	retry := tui.NewRetryableStream(tui.DefaultStreamConfig())
	for {
		scriptText, err := streamOnce(generator, req, projectName, concept)
		if err == nil {
			return scriptText, nil
		}
		if !retry.ShouldRetry(err) {
			return "", err
		}
		fmt.Printf("Stream interrupted (%v), retrying (attempt %d)...\n", err, retry.Attempt())
		retry.WaitForRetry()
	}
}

// streamOnce runs a single streaming attempt. The provider call runs under
// the handler's context so cancelling the view aborts it.
func streamOnce(generator *llm.ScriptGenerator, req llm.ScriptRequest, projectName, concept string) (string, error) {
	handler := tui.NewStreamHandler(tui.DefaultStreamConfig())

	chunks, err := generator.GenerateStream(handler.Context(), req)
	if err != nil {
		handler.Cancel()
		return "", err
	}
	go handler.Pump(chunks)

	model := tui.NewGenerationModel(projectName, concept, handler)
	return tui.RunGeneration(model)
}

func newSceneImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import an existing script as structured scenes",
		Long: `Import reads a script file ('-' for stdin), asks the configured
provider to restructure it into scene and character data, and saves the
result. Providers with structured-output support are pinned to the exact
schema; others fall back to JSON extraction from the response text.`,
		Args: cobra.ExactArgs(1),
		RunE: runSceneImport,
	}
}

func runSceneImport(cmd *cobra.Command, args []string) error {
	scriptText, err := readTextSource(args[0])
	if err != nil {
		return err
	}

	application, proj, err := openProject()
	if err != nil {
		return err
	}
	defer application.Close()

	ctx := cmd.Context()
	provider, err := application.BuildProvider(ctx)
	if err != nil {
		return err
	}
	defer provider.Close()

	generator, err := llm.NewScriptGenerator(provider)
	if err != nil {
		return err
	}

	chatReq, err := generator.BuildConvertRequest(scriptText, proj.Config.Generation.MaxTokens)
	if err != nil {
		return err
	}
	if provider.Capabilities().SupportsJSONSchema {
		chatReq = llm.WithResponseSchema(chatReq, "script_import", script.ImportSchema())
	}

	fmt.Println("Restructuring script...")

	resp, err := provider.Chat(ctx, chatReq)
	if err != nil {
		return err
	}

	result, err := script.ParseImport(resp.Message.Content)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	return saveImportResult(proj, result)
}

// saveImportResult persists an import batch, characters first so scene
// events can reference them.
func saveImportResult(proj *project.Project, result *script.ImportResult) error {
	for _, c := range result.Characters {
		if err := proj.Store.SaveCharacter(c); err != nil {
			return fmt.Errorf("failed to save character '%s': %w", c.Basic.Name, err)
		}
	}
	for _, scene := range result.Scenes {
		if err := proj.Store.SaveScene(scene); err != nil {
			return fmt.Errorf("failed to save scene '%s': %w", scene.Title, err)
		}
	}

	fmt.Printf("Imported %d character(s) and %d scene(s).\n", len(result.Characters), len(result.Scenes))
	return nil
}

func newSceneListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the project's scenes",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, proj, err := openProject()
			if err != nil {
				return err
			}
			defer application.Close()

			scenes, err := proj.Scenes()
			if err != nil {
				return err
			}

			if len(scenes) == 0 {
				fmt.Println("No scenes yet. Generate some with 'sceneweaver scene generate'.")
				return nil
			}

			for i, scene := range scenes {
				fmt.Println(sceneSummaryLine(i+1, scene))
			}
			return nil
		},
	}
}

func newSceneShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <title>",
		Short: "Show a scene's formatted prompt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			application, proj, err := openProject()
			if err != nil {
				return err
			}
			defer application.Close()

			scene, characters, err := findScene(proj, args[0])
			if err != nil {
				return err
			}

			fmt.Println(formatSceneForProject(proj, scene, characters))
			return nil
		},
	}
}

func newSceneRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <title>",
		Short: "Remove a scene and its timeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			application, proj, err := openProject()
			if err != nil {
				return err
			}
			defer application.Close()

			scene, _, err := findScene(proj, args[0])
			if err != nil {
				return err
			}

			if err := proj.Store.DeleteScene(scene.ID); err != nil {
				return fmt.Errorf("failed to remove scene: %w", err)
			}

			fmt.Printf("Removed scene '%s'.\n", scene.Title)
			return nil
		},
	}
}

// sceneSummaryLine renders one entry of the scene list.
func sceneSummaryLine(n int, scene *types.Scene) string {
	return fmt.Sprintf("  %d. %s - %s, %d events", n, scene.Title, scene.Emotion.Display(), len(scene.Timeline))
}

// findScene resolves a scene by exact title and loads the roster alongside.
func findScene(proj *project.Project, title string) (*types.Scene, []*types.Character, error) {
	scenes, err := proj.Scenes()
	if err != nil {
		return nil, nil, err
	}

	characters, err := proj.Characters()
	if err != nil {
		return nil, nil, err
	}

	for _, scene := range scenes {
		if scene.Title == title {
			return scene, characters, nil
		}
	}
	return nil, nil, fmt.Errorf("scene '%s' not found", title)
}
