package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/seojin/sceneweaver/pkg/types"
)

// Extraction errors.
var (
	// ErrNoToolCall is returned when the AI response contains no tool calls.
	ErrNoToolCall = errors.New("no tool call in response")

	// ErrWrongTool is returned when the AI called the wrong tool.
	ErrWrongTool = errors.New("unexpected tool called")

	// ErrInvalidArguments is returned when tool call arguments are invalid.
	ErrInvalidArguments = errors.New("invalid tool call arguments")

	// ErrEmptyPrompt is returned when the input prompt is empty.
	ErrEmptyPrompt = errors.New("prompt cannot be empty")
)

// ToolExtractCharacters is the tool name used for character extraction.
const ToolExtractCharacters = "extract_characters"

// CharacterExtractor turns free-form character descriptions into structured
// roster entries using a forced tool call.
type CharacterExtractor struct {
	provider Provider
}

// NewCharacterExtractor creates an extractor backed by the given provider.
func NewCharacterExtractor(provider Provider) *CharacterExtractor {
	return &CharacterExtractor{provider: provider}
}

// Extract parses a free-form description and returns the characters it
// mentions, fully structured. Unmentioned attributes stay empty.
func (e *CharacterExtractor) Extract(ctx context.Context, prompt string) ([]*types.Character, error) {
	if prompt == "" {
		return nil, ErrEmptyPrompt
	}

	if !e.provider.Capabilities().SupportsTools {
		return nil, ErrToolsNotSupported
	}

	req := ChatRequest{
		Messages: []ChatMessage{
			NewSystemMessage(extractionSystemPrompt),
			NewUserMessage(prompt),
		},
		Tools:       []ToolDefinition{extractCharactersTool()},
		ToolChoice:  "required",
		Temperature: 0.3,
		MaxTokens:   2000,
	}

	resp, err := e.provider.Chat(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("provider error: %w", err)
	}

	return parseExtractionResponse(resp)
}

const extractionSystemPrompt = `You are a casting assistant for AI-generated video. Analyze the user's description and extract every character it mentions.

For each character fill in whatever the description states or strongly implies: name, age, gender, ethnicity, face shape, eyes, distinctive features, hair color, hair length, hair style, height, build, posture, outfit, accessories, personality traits and mannerisms. Leave anything unmentioned empty; never invent attributes.

You MUST use the extract_characters tool to provide your response.`

// extractCharactersTool returns the extraction tool definition.
func extractCharactersTool() ToolDefinition {
	stringProp := func(desc string) map[string]interface{} {
		p := map[string]interface{}{"type": "string"}
		if desc != "" {
			p["description"] = desc
		}
		return p
	}

	return NewToolDefinition(
		ToolExtractCharacters,
		"Extract structured character descriptions from a free-form casting note.",
		map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"characters": map[string]interface{}{
					"type": "array",
					"items": map[string]interface{}{
						"type": "object",
						"properties": map[string]interface{}{
							"name":                 stringProp("Character name"),
							"age":                  stringProp("Approximate age, e.g. 'late 20s'"),
							"gender":               stringProp(""),
							"ethnicity":            stringProp(""),
							"face_shape":           stringProp(""),
							"eyes":                 stringProp(""),
							"distinctive_features": stringProp("Scars, tattoos, glasses and the like"),
							"hair_color":           stringProp(""),
							"hair_length":          stringProp(""),
							"hair_style":           stringProp(""),
							"height":               stringProp(""),
							"build":                stringProp(""),
							"posture":              stringProp(""),
							"outfit":               stringProp("What they wear"),
							"accessories":          stringProp(""),
							"traits":               stringProp("Personality traits as a short phrase"),
							"mannerisms":           stringProp(""),
						},
						"required": []string{"name"},
					},
				},
			},
			"required": []string{"characters"},
		},
	)
}

// rawExtractedCharacter matches the JSON structure from the AI tool call.
type rawExtractedCharacter struct {
	Name                string `json:"name"`
	Age                 string `json:"age"`
	Gender              string `json:"gender"`
	Ethnicity           string `json:"ethnicity"`
	FaceShape           string `json:"face_shape"`
	Eyes                string `json:"eyes"`
	DistinctiveFeatures string `json:"distinctive_features"`
	HairColor           string `json:"hair_color"`
	HairLength          string `json:"hair_length"`
	HairStyle           string `json:"hair_style"`
	Height              string `json:"height"`
	Build               string `json:"build"`
	Posture             string `json:"posture"`
	Outfit              string `json:"outfit"`
	Accessories         string `json:"accessories"`
	Traits              string `json:"traits"`
	Mannerisms          string `json:"mannerisms"`
}

// parseExtractionResponse extracts the character list from the AI response.
func parseExtractionResponse(resp *ChatResponse) ([]*types.Character, error) {
	if !resp.Message.HasToolCalls() {
		return nil, ErrNoToolCall
	}

	toolCall := resp.Message.ToolCalls[0]
	if toolCall.Function.Name != ToolExtractCharacters {
		return nil, fmt.Errorf("%w: expected %s, got %s",
			ErrWrongTool, ToolExtractCharacters, toolCall.Function.Name)
	}

	var raw struct {
		Characters []rawExtractedCharacter `json:"characters"`
	}
	if err := json.Unmarshal([]byte(toolCall.Function.Arguments), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}

	characters := make([]*types.Character, 0, len(raw.Characters))
	for _, rc := range raw.Characters {
		if rc.Name == "" {
			continue
		}
		characters = append(characters, &types.Character{
			ID: uuid.NewString(),
			Basic: types.BasicInfo{
				Name:      rc.Name,
				Age:       rc.Age,
				Gender:    rc.Gender,
				Ethnicity: rc.Ethnicity,
			},
			Facial: types.FacialFeatures{
				FaceShape:           rc.FaceShape,
				Eyes:                rc.Eyes,
				DistinctiveFeatures: rc.DistinctiveFeatures,
			},
			Hair: types.HairAttributes{
				Color:  rc.HairColor,
				Length: rc.HairLength,
				Style:  rc.HairStyle,
			},
			Body: types.BodyAttributes{
				Height:  rc.Height,
				Build:   rc.Build,
				Posture: rc.Posture,
			},
			Clothing: types.ClothingAttributes{
				Outfit:      rc.Outfit,
				Accessories: rc.Accessories,
			},
			Personality: types.PersonalityAttributes{
				Traits:     rc.Traits,
				Mannerisms: rc.Mannerisms,
			},
		})
	}

	return characters, nil
}
