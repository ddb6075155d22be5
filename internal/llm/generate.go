package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/seojin/sceneweaver/internal/token"
	"github.com/seojin/sceneweaver/pkg/types"
)

// Generation errors.
var (
	// ErrEmptyConcept is returned when the story concept is empty.
	ErrEmptyConcept = errors.New("story concept cannot be empty")
)

// ScriptRequest describes one script generation run.
type ScriptRequest struct {
	// Concept is the user's free-form story idea.
	Concept string

	// Setting describes where the scenes take place.
	Setting string

	// SceneCount is the number of scenes to ask for.
	SceneCount int

	// Style is the project's video style, surfaced to the model as tone
	// guidance.
	Style types.VideoStyle

	// Characters is the project roster. Names are injected verbatim so the
	// generated markers resolve against it.
	Characters []*types.Character

	// Temperature and MaxTokens override the project generation config
	// when non-zero.
	Temperature float64
	MaxTokens   int

	// JSONMode asks for the structured import payload instead of the
	// line-marker format.
	JSONMode bool
}

// ScriptGenerator builds and runs script generation requests against a
// provider.
type ScriptGenerator struct {
	provider Provider
	counter  *token.Counter
}

// NewScriptGenerator creates a generator for the given provider. The token
// counter follows the provider's tokenizer where tiktoken supports it.
func NewScriptGenerator(provider Provider) (*ScriptGenerator, error) {
	counter, err := token.NewCounter(provider.Capabilities().TokenizerType)
	if err != nil {
		return nil, fmt.Errorf("failed to create token counter: %w", err)
	}

	return &ScriptGenerator{
		provider: provider,
		counter:  counter,
	}, nil
}

// BuildRequest assembles the chat request for a script run. Returns
// ErrContextTooLong when the prompt plus the output budget cannot fit the
// provider's context window.
func (g *ScriptGenerator) BuildRequest(req ScriptRequest) (ChatRequest, error) {
	if strings.TrimSpace(req.Concept) == "" {
		return ChatRequest{}, ErrEmptyConcept
	}

	sceneCount := req.SceneCount
	if sceneCount <= 0 {
		sceneCount = 3
	}

	var system string
	if req.JSONMode {
		system = buildImportSystemPrompt(sceneCount)
	} else {
		system = buildScriptSystemPrompt(sceneCount, req.Characters)
	}

	user := buildScriptUserPrompt(req)

	messages := []ChatMessage{
		NewSystemMessage(system),
		NewUserMessage(user),
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4096
	}

	caps := g.provider.Capabilities()
	promptTokens := g.counter.CountMessages(toTokenMessages(messages))
	if !token.FitsContext(promptTokens, maxTokens, caps.MaxContextTokens) {
		return ChatRequest{}, fmt.Errorf("%w: prompt is %d tokens with a %d token output budget",
			ErrContextTooLong, promptTokens, maxTokens)
	}

	chatReq := ChatRequest{
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: req.Temperature,
	}

	return chatReq, nil
}

// Generate runs a script request and returns the raw response text. The
// caller parses it with the script package.
func (g *ScriptGenerator) Generate(ctx context.Context, req ScriptRequest) (string, error) {
	chatReq, err := g.BuildRequest(req)
	if err != nil {
		return "", err
	}

	resp, err := g.provider.Chat(ctx, chatReq)
	if err != nil {
		return "", fmt.Errorf("provider error: %w", err)
	}

	return resp.Message.Content, nil
}

// GenerateStream runs a script request and streams the raw response text.
func (g *ScriptGenerator) GenerateStream(ctx context.Context, req ScriptRequest) (<-chan StreamChunk, error) {
	chatReq, err := g.BuildRequest(req)
	if err != nil {
		return nil, err
	}

	return g.provider.Stream(ctx, chatReq)
}

// WithResponseSchema attaches a JSON schema to a built request for providers
// that support structured output.
func WithResponseSchema(req ChatRequest, name string, schema map[string]interface{}) ChatRequest {
	if schema == nil {
		return req
	}
	req.ResponseFormat = &ResponseFormat{
		Name:   name,
		Schema: schema,
		Strict: true,
	}
	return req
}

// buildScriptSystemPrompt teaches the model the line-marker script format.
func buildScriptSystemPrompt(sceneCount int, characters []*types.Character) string {
	var b strings.Builder

	fmt.Fprintf(&b, `You are a screenwriter for short AI-generated videos. Write exactly %d scenes in the following plain-text format. Do not use markdown, headings or commentary outside the format.

Each scene starts with a marker line:

SCENE 1: <one-line summary>

followed by these lines, each on its own line:

TITLE: <scene title>
DESCRIPTION: <what happens in the scene>
EMOTION: <one of: Dramatic, Joyful, Tense, Melancholic, Romantic, Mysterious, Peaceful>
ESTABLISHING_SHOT: <one of: Wide Angle, Close-Up, Medium Shot, Aerial View, Over-the-Shoulder, Point of View>
TIMELINE_EVENTS:
<event lines>

Each event line uses one of these prefixes:

CHARACTER_DIALOGUE: <Name>: "<spoken line>"
CHARACTER_ACTION: <Name>: <what they do>
ACTING_NOTE: <Name>: <how they should play the moment>
ENVIRONMENT_ACTION: <what happens around them>
CAMERA_ACTION: <camera movement or framing>

`, sceneCount)

	if len(characters) > 0 {
		b.WriteString("Use ONLY these character names, spelled exactly as given:\n\n")
		for _, c := range characters {
			fmt.Fprintf(&b, "- %s\n", c.ComprehensiveDescription())
		}
		b.WriteString("\n")
	}

	b.WriteString("Every scene must contain at least three timeline events and at least one line of dialogue.")

	return b.String()
}

// importPayloadDescription describes the JSON payload the import parser
// accepts. Shared by generation-in-JSON-mode and script conversion.
const importPayloadDescription = `The object has two keys:

"characters": an array of objects with "name", "age", "gender", "ethnicity", "description" and "personality". Include every character that appears in any scene.

"scenes": an array of objects with "title", "description", "setting", "emotion", "establishing_shot" and "timeline_events". Each timeline event has "event_type" (one of: dialogue, character_action, acting_note, environment_action, camera_action), "content", and, for character events, "character_name" matching a name from the characters array. Dialogue events may add "dialogue_manner" (says, shouts, whispers, murmurs) and any event may add "connecting_word" (Then, Meanwhile, Cut to, Suddenly, Later).`

// buildImportSystemPrompt asks for the structured JSON payload instead.
func buildImportSystemPrompt(sceneCount int) string {
	return fmt.Sprintf(`You are a screenwriter for short AI-generated videos. Respond with a single JSON object and nothing else, containing exactly %d scenes.

%s`, sceneCount, importPayloadDescription)
}

// BuildConvertRequest builds a request that restructures an existing script
// into the JSON import payload, keeping whatever scenes it already has.
func (g *ScriptGenerator) BuildConvertRequest(scriptText string, maxTokens int) (ChatRequest, error) {
	scriptText = strings.TrimSpace(scriptText)
	if scriptText == "" {
		return ChatRequest{}, fmt.Errorf("%w: empty script", ErrEmptyConcept)
	}

	system := `You convert screenplays into structured data. Respond with a single JSON object and nothing else, covering every scene in the input script.

` + importPayloadDescription

	messages := []ChatMessage{
		NewSystemMessage(system),
		NewUserMessage("Convert the following script:\n\n" + scriptText),
	}

	if maxTokens == 0 {
		maxTokens = 4096
	}

	caps := g.provider.Capabilities()
	promptTokens := g.counter.CountMessages(toTokenMessages(messages))
	if !token.FitsContext(promptTokens, maxTokens, caps.MaxContextTokens) {
		return ChatRequest{}, fmt.Errorf("%w: script is %d tokens with a %d token output budget",
			ErrContextTooLong, promptTokens, maxTokens)
	}

	return ChatRequest{
		Messages:  messages,
		MaxTokens: maxTokens,
	}, nil
}

// buildScriptUserPrompt renders the concept and generation settings.
func buildScriptUserPrompt(req ScriptRequest) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Story concept: %s\n", strings.TrimSpace(req.Concept))
	if req.Setting != "" {
		fmt.Fprintf(&b, "Setting: %s\n", req.Setting)
	}
	fmt.Fprintf(&b, "Video style: %s\n", req.Style.Display())

	return b.String()
}

// toTokenMessages converts chat messages for the token counter.
func toTokenMessages(messages []ChatMessage) []token.ChatMessage {
	out := make([]token.ChatMessage, len(messages))
	for i, msg := range messages {
		out[i] = token.ChatMessage{
			Role:       msg.Role,
			Content:    msg.Content,
			Name:       msg.Name,
			ToolCallID: msg.ToolCallID,
		}
	}
	return out
}
