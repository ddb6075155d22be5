// Package prompt renders structured scenes into video-generation prompts.
//
// Formatting is deterministic and pure: the only state is the per-call set
// of characters already introduced, which drives the full-description-on-
// first-appearance rule. Character references that fail to resolve are
// silently absorbed; the formatter never fails.
package prompt

import (
	"fmt"
	"strings"

	"github.com/seojin/sceneweaver/pkg/types"
)

// consistencyNote closes every formatted scene.
const consistencyNote = "(Keep character consistency)"

// FormatScene renders one scene and its participating characters into a
// single prompt string. The character list is expected to be pre-filtered to
// the scene's actual participants, but this is not enforced: resolution is
// by id and misses degrade to an omitted character reference.
func FormatScene(scene *types.Scene, characters []*types.Character, style types.VideoStyle) string {
	index := types.CharacterIndex(characters)

	lighting := strings.TrimSpace(scene.Cinematography.Lighting)
	if lighting == "" {
		lighting = "Natural"
	}

	lines := []string{
		"Style: " + style.Display(),
		"Setting: " + scene.Setting,
		"Lighting: " + lighting,
		"Initial Camera Setup: " + scene.EstablishingShot.Display() + ", " + scene.ShotMode.Display(),
		"",
	}

	introduced := make(map[string]bool)
	for i, ev := range scene.Timeline {
		if i > 0 {
			prev := scene.Timeline[i-1].Connector
			if prev.Kind != types.ConnectNone {
				if word := prev.Display(); word != "" {
					lines = append(lines, word, "")
				}
			}
		}
		lines = append(lines, renderEvent(ev, index, introduced))
	}

	lines = append(lines, "", consistencyNote)
	return strings.Join(lines, "\n")
}

// renderEvent renders one timeline event line. Environment and camera events
// never reference a character, regardless of what the event carries.
func renderEvent(ev types.TimelineEvent, index map[string]*types.Character, introduced map[string]bool) string {
	switch ev.Kind {
	case types.EventEnvironmentAction:
		return ev.Content
	case types.EventCameraAction:
		if strings.HasPrefix(strings.ToLower(ev.Content), "camera") {
			return ev.Content
		}
		return "Camera " + ev.Content
	}

	ref := characterRef(ev.CharacterID, index, introduced)

	switch ev.Kind {
	case types.EventDialogue:
		spoken := ev.Manner.Display() + ` "` + ev.Content + `"`
		if ref == "" {
			return spoken
		}
		return ref + " " + spoken
	case types.EventActingNote:
		return ref + ": " + ev.Content
	default:
		if ref == "" {
			return ev.Content
		}
		return ref + " " + ev.Content
	}
}

// characterRef resolves an event's character reference. The first resolved
// appearance in a formatting call gets the comprehensive description;
// subsequent appearances get the abbreviated one. Unset ids and lookup
// misses yield the empty string.
func characterRef(id string, index map[string]*types.Character, introduced map[string]bool) string {
	if id == "" {
		return ""
	}
	c, ok := index[id]
	if !ok {
		return ""
	}
	if introduced[id] {
		return c.ShortDescription()
	}
	introduced[id] = true
	return c.ComprehensiveDescription()
}

// FormatProject renders every scene in order, each prefixed with a numbered
// header. Per-scene participants are recomputed from the timeline rather
// than read from the scene's SelectedCharacters hint, which may be stale.
func FormatProject(scenes []*types.Scene, characters []*types.Character, style types.VideoStyle) string {
	index := types.CharacterIndex(characters)

	blocks := make([]string, 0, len(scenes))
	for n, scene := range scenes {
		var cast []*types.Character
		for _, id := range scene.ParticipantIDs() {
			if c, ok := index[id]; ok {
				cast = append(cast, c)
			}
		}

		header := fmt.Sprintf("--- SCENE %d: %s ---", n+1, scene.Title)
		blocks = append(blocks, header+"\n"+FormatScene(scene, cast, style))
	}

	return strings.Join(blocks, "\n\n")
}

// FormatCharacter renders a standalone character reference as "name:
// details". The redundant leading "name (" and trailing ")" are stripped
// from the comprehensive description when present; the strip is purely
// string-level and has no effect otherwise.
func FormatCharacter(c *types.Character) string {
	details := c.ComprehensiveDescription()
	prefix := c.Basic.Name + " ("
	if strings.HasPrefix(details, prefix) && strings.HasSuffix(details, ")") {
		details = strings.TrimSuffix(strings.TrimPrefix(details, prefix), ")")
	}
	return c.Basic.Name + ": " + details
}
