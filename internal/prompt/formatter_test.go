package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seojin/sceneweaver/pkg/types"
)

func fullCharacter() *types.Character {
	return &types.Character{
		ID: "ana-id",
		Basic: types.BasicInfo{
			Name:      "Ana",
			Age:       "29",
			Gender:    "female",
			Ethnicity: "Brazilian",
		},
		Hair:        types.HairAttributes{Color: "black", Length: "shoulder-length"},
		Body:        types.BodyAttributes{Build: "athletic"},
		Clothing:    types.ClothingAttributes{Outfit: "a red raincoat"},
		Personality: types.PersonalityAttributes{Traits: "guarded"},
	}
}

func testScene(events ...types.TimelineEvent) *types.Scene {
	return &types.Scene{
		ID:               "scene-id",
		Title:            "Night Arrival",
		Setting:          "a rain-soaked harbor",
		Emotion:          types.DefaultTone(),
		EstablishingShot: types.DefaultShot(),
		ShotMode:         types.ShotModeSingle,
		Timeline:         events,
	}
}

func TestFormatSceneEmptyTimeline(t *testing.T) {
	got := FormatScene(testScene(), nil, types.VideoStyle{Kind: types.StyleCinematic})

	want := "Style: Cinematic\n" +
		"Setting: a rain-soaked harbor\n" +
		"Lighting: Natural\n" +
		"Initial Camera Setup: Wide Angle, single continuous shot\n" +
		"\n" +
		"\n" +
		"(Keep character consistency)"
	assert.Equal(t, want, got)
}

func TestFormatSceneLighting(t *testing.T) {
	scene := testScene()
	scene.Cinematography.Lighting = "harsh sodium lamps"

	got := FormatScene(scene, nil, types.VideoStyle{Kind: types.StyleCinematic})
	assert.Contains(t, got, "Lighting: harsh sodium lamps\n")
}

func TestFormatSceneCharacterIntroduction(t *testing.T) {
	ana := fullCharacter()
	scene := testScene(
		types.TimelineEvent{
			Kind:        types.EventDialogue,
			CharacterID: ana.ID,
			Content:     "We shouldn't be here.",
			Manner:      types.DialogueManner{Kind: types.MannerSays},
			Connector:   types.ConnectingWord{Kind: types.ConnectNone},
		},
		types.TimelineEvent{
			Kind:        types.EventDialogue,
			CharacterID: ana.ID,
			Content:     "Listen.",
			Manner:      types.DialogueManner{Kind: types.MannerWhispers},
			Connector:   types.ConnectingWord{Kind: types.ConnectNone},
		},
	)

	got := FormatScene(scene, []*types.Character{ana}, types.VideoStyle{Kind: types.StyleCinematic})
	lines := strings.Split(got, "\n")

	// Header block is four lines plus a blank; events follow.
	require.True(t, len(lines) >= 7)
	first := lines[5]
	second := lines[6]

	assert.Equal(t, `Ana (29, female, Brazilian; athletic; black, shoulder-length hair; wearing a red raincoat; guarded) says "We shouldn't be here."`, first)
	assert.Equal(t, `Ana (29, female) whispers "Listen."`, second)
	assert.Less(t, len(second), len(first), "reappearance must not repeat the full description")
}

func TestFormatSceneConnectingWord(t *testing.T) {
	ana := fullCharacter()
	scene := testScene(
		types.TimelineEvent{
			Kind:        types.EventCharacterAction,
			CharacterID: ana.ID,
			Content:     "freezes mid-step",
			Connector:   types.ConnectingWord{Kind: types.ConnectSuddenly},
		},
		types.TimelineEvent{
			Kind:      types.EventEnvironmentAction,
			Content:   "The harbor lights flicker out.",
			Connector: types.ConnectingWord{Kind: types.ConnectNone},
		},
	)

	got := FormatScene(scene, []*types.Character{ana}, types.VideoStyle{Kind: types.StyleCinematic})
	lines := strings.Split(got, "\n")

	require.True(t, len(lines) >= 9)
	assert.Contains(t, lines[5], "freezes mid-step")
	assert.Equal(t, "Suddenly", lines[6], "connecting word renders on its own line")
	assert.Equal(t, "", lines[7])
	assert.Equal(t, "The harbor lights flicker out.", lines[8])
}

func TestFormatSceneConnectorEdgeCases(t *testing.T) {
	t.Run("blank custom word emits nothing", func(t *testing.T) {
		scene := testScene(
			types.TimelineEvent{Kind: types.EventEnvironmentAction, Content: "Wind howls.", Connector: types.CustomConnector("")},
			types.TimelineEvent{Kind: types.EventEnvironmentAction, Content: "A door slams.", Connector: types.ConnectingWord{Kind: types.ConnectNone}},
		)
		got := FormatScene(scene, nil, types.VideoStyle{Kind: types.StyleCinematic})
		assert.Contains(t, got, "Wind howls.\nA door slams.")
	})

	t.Run("custom word renders its text", func(t *testing.T) {
		scene := testScene(
			types.TimelineEvent{Kind: types.EventEnvironmentAction, Content: "Wind howls.", Connector: types.CustomConnector("Hours later")},
			types.TimelineEvent{Kind: types.EventEnvironmentAction, Content: "A door slams.", Connector: types.ConnectingWord{Kind: types.ConnectNone}},
		)
		got := FormatScene(scene, nil, types.VideoStyle{Kind: types.StyleCinematic})
		assert.Contains(t, got, "Wind howls.\nHours later\n\nA door slams.")
	})

	t.Run("last event's connector is never rendered", func(t *testing.T) {
		scene := testScene(
			types.TimelineEvent{Kind: types.EventEnvironmentAction, Content: "Wind howls.", Connector: types.ConnectingWord{Kind: types.ConnectThen}},
		)
		got := FormatScene(scene, nil, types.VideoStyle{Kind: types.StyleCinematic})
		assert.NotContains(t, got, "Then")
	})
}

func TestFormatSceneEventKinds(t *testing.T) {
	ana := fullCharacter()
	index := []*types.Character{ana}
	style := types.VideoStyle{Kind: types.StyleCinematic}

	t.Run("camera content keeps its own Camera prefix", func(t *testing.T) {
		scene := testScene(types.TimelineEvent{Kind: types.EventCameraAction, Content: "camera pans left"})
		got := FormatScene(scene, index, style)
		assert.Contains(t, got, "\ncamera pans left\n")
		assert.NotContains(t, got, "Camera camera")
	})

	t.Run("camera content gets prefixed otherwise", func(t *testing.T) {
		scene := testScene(types.TimelineEvent{Kind: types.EventCameraAction, Content: "slow dolly in"})
		got := FormatScene(scene, index, style)
		assert.Contains(t, got, "\nCamera slow dolly in\n")
	})

	t.Run("environment and camera never name a character", func(t *testing.T) {
		scene := testScene(
			types.TimelineEvent{Kind: types.EventEnvironmentAction, CharacterID: ana.ID, Content: "Rain falls."},
			types.TimelineEvent{Kind: types.EventCameraAction, CharacterID: ana.ID, Content: "Camera tilts up."},
		)
		got := FormatScene(scene, index, style)
		assert.NotContains(t, got, "Ana")
	})

	t.Run("acting note uses a colon separator", func(t *testing.T) {
		scene := testScene(types.TimelineEvent{Kind: types.EventActingNote, CharacterID: ana.ID, Content: "barely holding back tears"})
		got := FormatScene(scene, index, style)
		assert.Contains(t, got, "): barely holding back tears")
	})
}

func TestFormatSceneUnresolvedCharacter(t *testing.T) {
	style := types.VideoStyle{Kind: types.StyleCinematic}

	t.Run("dialogue keeps the manner and the quoted line", func(t *testing.T) {
		scene := testScene(types.TimelineEvent{
			Kind:        types.EventDialogue,
			CharacterID: "deleted-id",
			Content:     "Hello?",
			Manner:      types.DialogueManner{Kind: types.MannerSays},
		})
		got := FormatScene(scene, nil, style)
		assert.Contains(t, got, "\nsays \"Hello?\"\n")
	})

	t.Run("character action renders bare content", func(t *testing.T) {
		scene := testScene(types.TimelineEvent{
			Kind:        types.EventCharacterAction,
			CharacterID: "deleted-id",
			Content:     "walks away",
		})
		got := FormatScene(scene, nil, style)
		assert.Contains(t, got, "\nwalks away\n")
	})
}

func TestFormatProject(t *testing.T) {
	ana := fullCharacter()
	ben := &types.Character{ID: "ben-id", Basic: types.BasicInfo{Name: "Ben"}}

	sceneOne := testScene(types.TimelineEvent{Kind: types.EventCharacterAction, CharacterID: ana.ID, Content: "waits alone"})
	sceneOne.Title = "Harbor"
	// Stale hint naming a character the timeline never references.
	sceneOne.SelectedCharacters = []string{ana.ID, ben.ID}

	sceneTwo := testScene(types.TimelineEvent{Kind: types.EventCharacterAction, CharacterID: ben.ID, Content: "arrives late"})
	sceneTwo.Title = "Warehouse"

	got := FormatProject([]*types.Scene{sceneOne, sceneTwo}, []*types.Character{ana, ben}, types.VideoStyle{Kind: types.StyleCinematic})

	assert.Contains(t, got, "--- SCENE 1: Harbor ---")
	assert.Contains(t, got, "--- SCENE 2: Warehouse ---")

	// Participants come from the timeline, not the stale hint: Ben must not
	// appear anywhere in scene one's block.
	blocks := strings.Split(got, "--- SCENE 2")
	require.Len(t, blocks, 2)
	assert.NotContains(t, blocks[0], "Ben")
	assert.Contains(t, blocks[1], "Ben")
}

func TestFormatCharacter(t *testing.T) {
	t.Run("strips the name wrapper from the details", func(t *testing.T) {
		got := FormatCharacter(fullCharacter())
		assert.Equal(t, "Ana: 29, female, Brazilian; athletic; black, shoulder-length hair; wearing a red raincoat; guarded", got)
	})

	t.Run("no-op when the description has no wrapper", func(t *testing.T) {
		bare := &types.Character{ID: "x", Basic: types.BasicInfo{Name: "Ben"}}
		assert.Equal(t, "Ben: Ben", FormatCharacter(bare))
	})
}
