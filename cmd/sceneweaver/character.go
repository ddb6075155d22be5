package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/seojin/sceneweaver/internal/llm"
	"github.com/seojin/sceneweaver/internal/prompt"
	"github.com/seojin/sceneweaver/pkg/types"
)

func newCharacterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "character",
		Short: "Manage a project's character roster",
	}

	cmd.AddCommand(
		newCharacterAddCmd(),
		newCharacterListCmd(),
		newCharacterShowCmd(),
		newCharacterExtractCmd(),
		newCharacterImageCmd(),
		newCharacterRemoveCmd(),
	)
	return cmd
}

func newCharacterAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add",
		Short: "Add a character through a guided form",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, proj, err := openProject()
			if err != nil {
				return err
			}
			defer application.Close()

			character, err := characterForm()
			if err != nil {
				return err
			}

			if existing, err := proj.Store.FindCharacterByName(character.Basic.Name); err != nil {
				return err
			} else if existing != nil {
				return fmt.Errorf("character '%s' already exists", character.Basic.Name)
			}

			if err := proj.Store.SaveCharacter(character); err != nil {
				return fmt.Errorf("failed to save character: %w", err)
			}

			fmt.Printf("Added character '%s'\n", character.Basic.Name)
			return nil
		},
	}
}

// characterForm collects a character's attribute groups interactively.
func characterForm() (*types.Character, error) {
	c := &types.Character{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("name is required")
					}
					return nil
				}).
				Value(&c.Basic.Name),
			huh.NewInput().Title("Age").Value(&c.Basic.Age),
			huh.NewInput().Title("Gender").Value(&c.Basic.Gender),
			huh.NewInput().Title("Ethnicity").Value(&c.Basic.Ethnicity),
		),
		huh.NewGroup(
			huh.NewInput().Title("Face shape").Value(&c.Facial.FaceShape),
			huh.NewInput().Title("Eyes").Value(&c.Facial.Eyes),
			huh.NewInput().Title("Distinctive features").Value(&c.Facial.DistinctiveFeatures),
		),
		huh.NewGroup(
			huh.NewInput().Title("Hair color").Value(&c.Hair.Color),
			huh.NewInput().Title("Hair length").Value(&c.Hair.Length),
			huh.NewInput().Title("Hair style").Value(&c.Hair.Style),
		),
		huh.NewGroup(
			huh.NewInput().Title("Height").Value(&c.Body.Height),
			huh.NewInput().Title("Build").Value(&c.Body.Build),
			huh.NewInput().Title("Posture").Value(&c.Body.Posture),
		),
		huh.NewGroup(
			huh.NewInput().Title("Outfit").Value(&c.Clothing.Outfit),
			huh.NewInput().Title("Accessories").Value(&c.Clothing.Accessories),
		),
		huh.NewGroup(
			huh.NewInput().Title("Personality traits").Value(&c.Personality.Traits),
			huh.NewInput().Title("Mannerisms").Value(&c.Personality.Mannerisms),
			huh.NewText().Title("Consistency notes").
				Description("Anything that must stay identical across scenes.").
				Value(&c.Notes),
		),
	)

	if err := form.Run(); err != nil {
		return nil, fmt.Errorf("character form failed: %w", err)
	}

	c.Basic.Name = strings.TrimSpace(c.Basic.Name)
	return c, nil
}

func newCharacterListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the project's characters",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, proj, err := openProject()
			if err != nil {
				return err
			}
			defer application.Close()

			characters, err := proj.Characters()
			if err != nil {
				return err
			}

			if len(characters) == 0 {
				fmt.Println("No characters yet. Add one with 'sceneweaver character add'.")
				return nil
			}

			for _, c := range characters {
				fmt.Printf("  - %s\n", c.ShortDescription())
			}
			return nil
		},
	}
}

func newCharacterShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Show a character's full prompt description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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

			fmt.Println(prompt.FormatCharacter(character))
			if character.ReferenceImage != "" {
				fmt.Printf("\nReference image: %s\n", character.ReferenceImage)
			}
			return nil
		},
	}
}

func newCharacterExtractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract [description]",
		Short: "Derive structured characters from a free-form description",
		Long: `Extract sends a free-form description to the configured LLM provider
and saves the structured characters it finds. The description comes from
the argument, --from <file>, or stdin with --from -.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runCharacterExtract,
	}
	cmd.Flags().String("from", "", "Read the description from a file ('-' for stdin)")
	return cmd
}

func runCharacterExtract(cmd *cobra.Command, args []string) error {
	fromFlag, _ := cmd.Flags().GetString("from")

	var description string
	switch {
	case fromFlag != "":
		text, err := readTextSource(fromFlag)
		if err != nil {
			return err
		}
		description = text
	case len(args) == 1:
		description = args[0]
	default:
		return fmt.Errorf("provide a description argument or --from <file>")
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

	fmt.Println("Extracting characters...")

	extractor := llm.NewCharacterExtractor(provider)
	characters, err := extractor.Extract(ctx, description)
	if err != nil {
		if errors.Is(err, llm.ErrToolsNotSupported) {
			return fmt.Errorf("the configured model does not support character extraction")
		}
		return err
	}

	if len(characters) == 0 {
		fmt.Println("No characters found in the description.")
		return nil
	}

	for _, c := range characters {
		if err := proj.Store.SaveCharacter(c); err != nil {
			return fmt.Errorf("failed to save '%s': %w", c.Basic.Name, err)
		}
		fmt.Printf("  + %s\n", c.ShortDescription())
	}
	fmt.Printf("Saved %d character(s).\n", len(characters))
	return nil
}

func newCharacterImageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "image <name> <path>",
		Short: "Attach a reference image to a character",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
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

			if err := proj.AddReferenceImage(character, args[1]); err != nil {
				return fmt.Errorf("failed to attach image: %w", err)
			}

			fmt.Printf("Attached %s to '%s'\n", character.ReferenceImage, character.Basic.Name)
			return nil
		},
	}
}

func newCharacterRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove a character from the roster",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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

			if err := proj.Store.DeleteCharacter(character.ID); err != nil {
				return fmt.Errorf("failed to remove character: %w", err)
			}

			fmt.Printf("Removed '%s'. Scenes that referenced them keep playing without the reference.\n", character.Basic.Name)
			return nil
		},
	}
}

// readTextSource reads from a file path or stdin when path is "-".
func readTextSource(path string) (string, error) {
	if path == "-" {
		return readFromStdin()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read file %s: %w", path, err)
	}
	return strings.TrimSpace(string(data)), nil
}

// readFromStdin reads all content from stdin.
func readFromStdin() (string, error) {
	reader := bufio.NewReader(os.Stdin)
	var builder strings.Builder

	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				builder.WriteString(line)
				break
			}
			return "", fmt.Errorf("error reading stdin: %w", err)
		}
		builder.WriteString(line)
	}

	return strings.TrimSpace(builder.String()), nil
}
