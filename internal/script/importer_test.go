package script

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seojin/sceneweaver/pkg/types"
)

const minimalImport = `{"characters":[{"name":"Ana"}],"scenes":[{"title":"S1","timeline_events":[{"character_name":"Ana","event_type":"Dialogue","content":"Hi"}]}]}`

func TestParseImport(t *testing.T) {
	result, err := ParseImport(minimalImport)
	require.NoError(t, err)

	require.Len(t, result.Characters, 1)
	ana := result.Characters[0]
	assert.Equal(t, "Ana", ana.Basic.Name)
	assert.NotEmpty(t, ana.ID)

	require.Len(t, result.Scenes, 1)
	scene := result.Scenes[0]
	assert.Equal(t, "S1", scene.Title)

	require.Len(t, scene.Timeline, 1)
	ev := scene.Timeline[0]
	assert.Equal(t, types.EventDialogue, ev.Kind)
	assert.Equal(t, "Hi", ev.Content)
	assert.Equal(t, ana.ID, ev.CharacterID)
}

func TestParseImportExtraction(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{
			name: "bare JSON",
			raw:  minimalImport,
		},
		{
			name: "fenced code block",
			raw:  "Here is the structured script:\n\n```json\n" + minimalImport + "\n```\n\nLet me know if you need changes.",
		},
		{
			name: "unlabeled fence",
			raw:  "```\n" + minimalImport + "\n```",
		},
		{
			name: "prose around a brace-delimited object",
			raw:  "Sure! " + minimalImport + " Hope that helps.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParseImport(tt.raw)
			require.NoError(t, err)
			require.Len(t, result.Scenes, 1)
			assert.Equal(t, "S1", result.Scenes[0].Title)
		})
	}
}

func TestParseImportFailure(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "empty response", raw: ""},
		{name: "no JSON at all", raw: "I could not process that script."},
		{name: "broken JSON", raw: `{"characters": [}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParseImport(tt.raw)
			assert.Nil(t, result)

			var importErr *ImportError
			require.ErrorAs(t, err, &importErr)
		})
	}
}

func TestMapEventType(t *testing.T) {
	tests := []struct {
		value string
		want  types.EventKind
	}{
		{"dialogue", types.EventDialogue},
		{"  DIALOGUE  ", types.EventDialogue},
		{"Character_Action", types.EventCharacterAction},
		{"acting_note", types.EventActingNote},
		{"environment_action", types.EventEnvironmentAction},
		{"camera", types.EventCameraAction},
		{"interpretive dance", types.EventCharacterAction},
		{"", types.EventCharacterAction},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, mapEventType(tt.value), "event_type %q", tt.value)
	}
}

func TestParseImportBatchScopedResolution(t *testing.T) {
	// character_name resolves against the batch's own characters only; a
	// name missing from the batch leaves the reference absent even if the
	// caller's project knows it.
	raw := `{"characters":[{"name":"Ana"}],"scenes":[{"title":"S1","timeline_events":[` +
		`{"character_name":"Zoe","event_type":"dialogue","content":"Who am I?"}]}]}`

	result, err := ParseImport(raw)
	require.NoError(t, err)
	require.Len(t, result.Scenes[0].Timeline, 1)
	assert.Empty(t, result.Scenes[0].Timeline[0].CharacterID)
}

func TestParseImportOptionalFields(t *testing.T) {
	raw := `{"characters":[{"name":"Ana","age":"29","gender":"female","description":"red coat"}],` +
		`"scenes":[{"title":"S1","setting":"harbor at dawn","emotion":"Tense","establishing_shot":"Aerial View",` +
		`"timeline_events":[{"character_name":"Ana","event_type":"dialogue","content":"Hi","dialogue_manner":"whispers","connecting_word":"Suddenly"}]}]}`

	result, err := ParseImport(raw)
	require.NoError(t, err)

	ana := result.Characters[0]
	assert.Equal(t, "29", ana.Basic.Age)
	assert.Equal(t, "red coat", ana.Notes)

	scene := result.Scenes[0]
	assert.Equal(t, "harbor at dawn", scene.Setting)
	assert.Equal(t, types.ToneTense, scene.Emotion.Kind)
	assert.Equal(t, types.ShotAerialView, scene.EstablishingShot.Kind)

	ev := scene.Timeline[0]
	assert.Equal(t, types.MannerWhispers, ev.Manner.Kind)
	assert.Equal(t, types.ConnectSuddenly, ev.Connector.Kind)

	// The selected-character hint grows as events are appended.
	assert.Equal(t, []string{ana.ID}, scene.SelectedCharacters)
}

func TestParseConnector(t *testing.T) {
	assert.Equal(t, types.ConnectNone, parseConnector("").Kind)
	assert.Equal(t, types.ConnectNone, parseConnector("None").Kind)
	assert.Equal(t, types.ConnectCutTo, parseConnector("cut to").Kind)

	custom := parseConnector("Hours later")
	assert.Equal(t, types.ConnectCustom, custom.Kind)
	assert.Equal(t, "Hours later", custom.Custom)
}

func TestImportErrorUnwraps(t *testing.T) {
	_, err := ParseImport("not json")
	require.Error(t, err)

	var importErr *ImportError
	require.ErrorAs(t, err, &importErr)
	assert.Error(t, errors.Unwrap(importErr))
}
