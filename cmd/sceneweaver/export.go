package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/seojin/sceneweaver/internal/project"
	"github.com/seojin/sceneweaver/internal/prompt"
	"github.com/seojin/sceneweaver/internal/storage"
	"github.com/seojin/sceneweaver/pkg/types"
)

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export video-generation prompts",
	}

	cmd.AddCommand(
		newExportSceneCmd(),
		newExportProjectCmd(),
		newExportCharacterCmd(),
	)
	return cmd
}

// writeExport prints the text or writes it into the project's exports dir.
func writeExport(proj *project.Project, text, filename string) error {
	if filename == "" {
		fmt.Println(text)
		return nil
	}

	path := proj.ExportPath(filename)
	if err := storage.AtomicWriteFile(path, []byte(text+"\n"), 0644); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	fmt.Printf("Exported to %s\n", path)
	return nil
}

// formatSceneForProject renders one scene with the project's style.
func formatSceneForProject(proj *project.Project, scene *types.Scene, characters []*types.Character) string {
	return prompt.FormatScene(scene, characters, proj.Config.Style)
}

func newExportSceneCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scene <title>",
		Short: "Export a single scene prompt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output, _ := cmd.Flags().GetString("output")

			application, proj, err := openProject()
			if err != nil {
				return err
			}
			defer application.Close()

			scene, characters, err := findScene(proj, args[0])
			if err != nil {
				return err
			}

			return writeExport(proj, formatSceneForProject(proj, scene, characters), output)
		},
	}
	cmd.Flags().StringP("output", "o", "", "File name inside the project's exports directory")
	return cmd
}

func newExportProjectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Export the full project prompt",
		RunE: func(cmd *cobra.Command, args []string) error {
			output, _ := cmd.Flags().GetString("output")

			application, proj, err := openProject()
			if err != nil {
				return err
			}
			defer application.Close()

			scenes, err := proj.Scenes()
			if err != nil {
				return err
			}
			characters, err := proj.Characters()
			if err != nil {
				return err
			}

			text := prompt.FormatProject(scenes, characters, proj.Config.Style)
			return writeExport(proj, text, output)
		},
	}
	cmd.Flags().StringP("output", "o", "", "File name inside the project's exports directory")
	return cmd
}

func newExportCharacterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "character <name>",
		Short: "Export a character description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output, _ := cmd.Flags().GetString("output")

			application, proj, err := openProject()
			if err != nil {
				return err
			}
			defer application.Close()

			character, err := proj.Store.FindCharacterByName(args[0])
			if err != nil {
				return err
			}
			if character == nil {
				return fmt.Errorf("character '%s' not found", args[0])
			}

			return writeExport(proj, prompt.FormatCharacter(character), output)
		},
	}
	cmd.Flags().StringP("output", "o", "", "File name inside the project's exports directory")
	return cmd
}
