package main

import (
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/seojin/sceneweaver/pkg/types"
)

func newNewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "new <name>",
		Short: "Create a new screenplay project",
		Args:  cobra.ExactArgs(1),
		RunE:  runNewCmd,
	}
	cmd.Flags().String("style", "", "Video style (cinematic, realistic, animation, anime, documentary, or custom text)")
	return cmd
}

func runNewCmd(cmd *cobra.Command, args []string) error {
	name := args[0]
	styleFlag, _ := cmd.Flags().GetString("style")

	application, err := openApp()
	if err != nil {
		return err
	}
	defer application.Close()

	if application.ProjectManager.Exists(name) {
		return fmt.Errorf("project '%s' already exists", name)
	}

	var style types.VideoStyle
	if styleFlag != "" {
		style = parseStyle(styleFlag)
	} else {
		style, err = selectStyle()
		if err != nil {
			return err
		}
	}

	if err := application.CreateProject(name, style); err != nil {
		return err
	}

	proj := application.CurrentProject
	fmt.Printf("Created project '%s' at %s\n", name, proj.Path())
	fmt.Printf("Style: %s\n", style.Display())
	fmt.Printf("\nAdd characters with 'sceneweaver character add -p %s'\n", name)
	return nil
}

// selectStyle asks for the video style interactively.
func selectStyle() (types.VideoStyle, error) {
	var kind types.VideoStyleKind
	var custom string

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[types.VideoStyleKind]().
				Title("Select video style").
				Options(
					huh.NewOption("Cinematic", types.StyleCinematic),
					huh.NewOption("Photorealistic", types.StyleRealistic),
					huh.NewOption("3D Animation", types.StyleAnimation),
					huh.NewOption("Anime", types.StyleAnime),
					huh.NewOption("Documentary", types.StyleDocumentary),
					huh.NewOption("Custom", types.StyleCustom),
				).
				Value(&kind),
		),
	)
	if err := form.Run(); err != nil {
		return types.VideoStyle{}, fmt.Errorf("style selection failed: %w", err)
	}

	if kind == types.StyleCustom {
		customForm := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Describe the style").
					Placeholder("e.g., watercolor, noir comic panels").
					Value(&custom),
			),
		)
		if err := customForm.Run(); err != nil {
			return types.VideoStyle{}, fmt.Errorf("style input failed: %w", err)
		}
	}

	return types.VideoStyle{Kind: kind, Custom: custom}, nil
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all screenplay projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := openApp()
			if err != nil {
				return err
			}
			defer application.Close()

			projects, err := application.ListProjects()
			if err != nil {
				return fmt.Errorf("failed to list projects: %w", err)
			}

			if len(projects) == 0 {
				fmt.Println("No projects found. Create one with: sceneweaver new <name>")
				return nil
			}

			fmt.Println("Projects:")
			for _, p := range projects {
				fmt.Printf("  - %s (%s) - %s\n", p.Name, p.Style.Display(), p.Path)
			}
			return nil
		},
	}
}

func newDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a screenplay project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			force, _ := cmd.Flags().GetBool("force")

			application, err := openApp()
			if err != nil {
				return err
			}
			defer application.Close()

			if !application.ProjectManager.Exists(name) {
				return fmt.Errorf("project '%s' not found", name)
			}

			if !force {
				var confirm string
				fmt.Printf("This will permanently delete project '%s' and all its files.\n", name)
				fmt.Printf("Type the project name to confirm: ")
				fmt.Scanln(&confirm)

				if confirm != name {
					fmt.Println("Deletion cancelled.")
					return nil
				}
			}

			if err := application.ProjectManager.Delete(name); err != nil {
				return fmt.Errorf("failed to delete project: %w", err)
			}

			fmt.Printf("Project '%s' deleted.\n", name)
			return nil
		},
	}
	cmd.Flags().BoolP("force", "f", false, "Delete without confirmation")
	return cmd
}
