package script

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/invopop/jsonschema"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gmtext "github.com/yuin/goldmark/text"

	"github.com/seojin/sceneweaver/pkg/types"
)

// ImportError is the single terminal failure of JSON import mode: the
// response contained no decodable JSON document of the expected shape.
// Field-level absences inside a decoded document are tolerated instead.
type ImportError struct {
	Err error
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("script import: no parsable JSON in response: %v", e.Err)
}

func (e *ImportError) Unwrap() error { return e.Err }

// ImportResult holds the characters and scenes decoded from one import
// response. Event character references are resolved against Characters, the
// batch created from the same response, never against a pre-existing roster.
type ImportResult struct {
	Characters []*types.Character
	Scenes     []*types.Scene
}

// importPayload is the fixed JSON schema the import prompt requests.
type importPayload struct {
	Characters []importCharacter `json:"characters"`
	Scenes     []importScene     `json:"scenes"`
}

type importCharacter struct {
	Name        string `json:"name" jsonschema_description:"Character name exactly as used in timeline events"`
	Age         string `json:"age,omitempty" jsonschema_description:"Approximate age, e.g. 'early 30s'"`
	Gender      string `json:"gender,omitempty"`
	Ethnicity   string `json:"ethnicity,omitempty"`
	Description string `json:"description,omitempty" jsonschema_description:"Physical appearance and wardrobe"`
	Personality string `json:"personality,omitempty"`
}

type importScene struct {
	Title            string        `json:"title"`
	Description      string        `json:"description,omitempty"`
	Setting          string        `json:"setting,omitempty"`
	Emotion          string        `json:"emotion,omitempty"`
	EstablishingShot string        `json:"establishing_shot,omitempty"`
	TimelineEvents   []importEvent `json:"timeline_events"`
}

type importEvent struct {
	CharacterName  string `json:"character_name,omitempty"`
	EventType      string `json:"event_type" jsonschema_description:"One of: dialogue, character_action, acting_note, environment_action, camera_action"`
	Content        string `json:"content"`
	ConnectingWord string `json:"connecting_word,omitempty"`
	DialogueManner string `json:"dialogue_manner,omitempty"`
}

// ImportSchema returns the JSON schema of the import payload, for providers
// that support structured output. Providers without schema support get the
// same shape described in the prompt text and ParseImport digs the JSON out
// of whatever comes back.
func ImportSchema() map[string]interface{} {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	schema := reflector.Reflect(&importPayload{})

	data, err := json.Marshal(schema)
	if err != nil {
		return nil
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil
	}
	return m
}

// eventTypeTable maps normalized event_type values to event kinds. Values
// not in the table default to a character action.
var eventTypeTable = map[string]types.EventKind{
	"dialogue":           types.EventDialogue,
	"character_dialogue": types.EventDialogue,
	"character_action":   types.EventCharacterAction,
	"action":             types.EventCharacterAction,
	"acting_note":        types.EventActingNote,
	"environment_action": types.EventEnvironmentAction,
	"environment":        types.EventEnvironmentAction,
	"camera_action":      types.EventCameraAction,
	"camera":             types.EventCameraAction,
}

// ParseImport decodes an import response into characters and scenes. The
// JSON object may be wrapped in code fences or surrounded by prose; see
// extractPayload for the extraction order. The only error condition is a
// response from which no document of the expected shape can be decoded.
func ParseImport(raw string) (*ImportResult, error) {
	payload, err := extractPayload(raw)
	if err != nil {
		return nil, &ImportError{Err: err}
	}

	result := &ImportResult{}
	byName := make(map[string]string, len(payload.Characters))

	for _, ic := range payload.Characters {
		c := &types.Character{
			ID: uuid.NewString(),
			Basic: types.BasicInfo{
				Name:      ic.Name,
				Age:       ic.Age,
				Gender:    ic.Gender,
				Ethnicity: ic.Ethnicity,
			},
			Personality: types.PersonalityAttributes{Traits: ic.Personality},
			Notes:       ic.Description,
		}
		result.Characters = append(result.Characters, c)
		if _, taken := byName[ic.Name]; !taken {
			byName[ic.Name] = c.ID
		}
	}

	for _, is := range payload.Scenes {
		scene := &types.Scene{
			ID:               uuid.NewString(),
			Title:            is.Title,
			Description:      is.Description,
			Setting:          is.Setting,
			Emotion:          types.ParseTone(is.Emotion),
			EstablishingShot: types.ParseShot(is.EstablishingShot),
			ShotMode:         types.ShotModeSingle,
		}

		for _, ie := range is.TimelineEvents {
			ev := types.TimelineEvent{
				ID:        uuid.NewString(),
				Kind:      mapEventType(ie.EventType),
				Content:   ie.Content,
				Connector: parseConnector(ie.ConnectingWord),
			}
			if ev.Kind.RequiresCharacter() {
				ev.CharacterID = byName[ie.CharacterName]
			}
			if ev.Kind == types.EventDialogue {
				ev.Manner = parseManner(ie.DialogueManner)
			}
			scene.AddTimelineEvent(ev)
		}

		result.Scenes = append(result.Scenes, scene)
	}

	return result, nil
}

// extractPayload tries, in order: each fenced code block, the substring from
// the first '{' to the last '}', and the whole string. The first candidate
// that decodes into the expected shape wins.
func extractPayload(raw string) (*importPayload, error) {
	var lastErr error

	for _, candidate := range jsonCandidates(raw) {
		var payload importPayload
		if err := json.Unmarshal([]byte(candidate), &payload); err != nil {
			lastErr = err
			continue
		}
		return &payload, nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("empty response")
	}
	return nil, lastErr
}

// jsonCandidates collects candidate JSON texts from a response that may mix
// prose and markdown.
func jsonCandidates(raw string) []string {
	var candidates []string

	candidates = append(candidates, fencedBlocks(raw)...)

	if start, end := strings.Index(raw, "{"), strings.LastIndex(raw, "}"); start >= 0 && end > start {
		candidates = append(candidates, raw[start:end+1])
	}

	if trimmed := strings.TrimSpace(raw); trimmed != "" {
		candidates = append(candidates, trimmed)
	}

	return candidates
}

// fencedBlocks returns the contents of every fenced code block in the
// response, in document order.
func fencedBlocks(raw string) []string {
	src := []byte(raw)
	doc := goldmark.New().Parser().Parse(gmtext.NewReader(src))

	var blocks []string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		fence, ok := n.(*ast.FencedCodeBlock)
		if !ok || !entering {
			return ast.WalkContinue, nil
		}

		var buf bytes.Buffer
		for i := 0; i < fence.Lines().Len(); i++ {
			seg := fence.Lines().At(i)
			buf.Write(seg.Value(src))
		}
		blocks = append(blocks, buf.String())
		return ast.WalkContinue, nil
	})

	return blocks
}

// mapEventType maps a free-text event_type, case-insensitively and
// whitespace-stripped, to an event kind.
func mapEventType(value string) types.EventKind {
	key := strings.ToLower(strings.TrimSpace(value))
	if kind, ok := eventTypeTable[key]; ok {
		return kind
	}
	return types.EventCharacterAction
}

// parseConnector maps a connecting-word string to its enum variant. Known
// display strings map to their built-in kind; any other non-empty text
// becomes a custom word.
func parseConnector(value string) types.ConnectingWord {
	value = strings.TrimSpace(value)
	if value == "" || strings.EqualFold(value, "none") {
		return types.ConnectingWord{Kind: types.ConnectNone}
	}

	builtin := []types.ConnectingWordKind{
		types.ConnectThen,
		types.ConnectMeanwhile,
		types.ConnectCutTo,
		types.ConnectSuddenly,
		types.ConnectLater,
	}
	for _, kind := range builtin {
		if strings.EqualFold(value, (types.ConnectingWord{Kind: kind}).Display()) {
			return types.ConnectingWord{Kind: kind}
		}
	}

	return types.CustomConnector(value)
}

// parseManner maps a dialogue-manner string to its enum variant, defaulting
// to "says".
func parseManner(value string) types.DialogueManner {
	value = strings.TrimSpace(value)
	if value == "" {
		return types.DialogueManner{Kind: types.MannerSays}
	}

	builtin := []types.DialogueMannerKind{
		types.MannerSays,
		types.MannerShouts,
		types.MannerWhispers,
		types.MannerMurmurs,
	}
	for _, kind := range builtin {
		if strings.EqualFold(value, string(kind)) {
			return types.DialogueManner{Kind: kind}
		}
	}

	return types.DialogueManner{Kind: types.MannerCustom, Custom: value}
}
