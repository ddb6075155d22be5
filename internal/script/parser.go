// Package script converts screenplay-style text into structured scenes.
//
// Two independent parsing modes are provided: the line-marker format used
// when generating new script text (ParseScenes) and the JSON format used
// when importing an existing script (ParseImport). Line-marker parsing is
// maximal-effort and never fails; the upstream text comes from a
// non-deterministic model, so unparseable input degrades to defaults.
package script

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/seojin/sceneweaver/pkg/types"
)

// sceneMarker opens a scene block, e.g. "SCENE 1:".
var sceneMarker = regexp.MustCompile(`^SCENE\s+\d+\s*:`)

// Metadata line prefixes. Case-sensitive, matched exactly.
const (
	markerTitle       = "TITLE:"
	markerDescription = "DESCRIPTION:"
	markerEmotion     = "EMOTION:"
	markerShot        = "ESTABLISHING_SHOT:"
	markerTimeline    = "TIMELINE_EVENTS:"
)

// eventMarkers lists the event line prefixes in their fixed priority order;
// the first match wins.
var eventMarkers = []struct {
	prefix string
	kind   types.EventKind
}{
	{"CHARACTER_DIALOGUE:", types.EventDialogue},
	{"CHARACTER_ACTION:", types.EventCharacterAction},
	{"ACTING_NOTE:", types.EventActingNote},
	{"ENVIRONMENT_ACTION:", types.EventEnvironmentAction},
	{"CAMERA_ACTION:", types.EventCameraAction},
}

// ParseScenes parses line-marker-format script text into scenes. Every scene
// takes its setting from the caller-supplied setting and its selected
// character set from the full roster given here, not from parsed content.
// Lines matching no marker are silently discarded; this parser never fails.
func ParseScenes(text, setting string, roster []*types.Character) []*types.Scene {
	var scenes []*types.Scene
	for _, block := range splitBlocks(text) {
		scenes = append(scenes, parseBlock(block, setting, roster))
	}
	return scenes
}

// splitBlocks partitions the input into scene blocks, discarding any
// preamble before the first scene marker.
func splitBlocks(text string) [][]string {
	var blocks [][]string
	var current []string
	inBlock := false

	for _, line := range strings.Split(text, "\n") {
		if sceneMarker.MatchString(strings.TrimSpace(line)) {
			if inBlock {
				blocks = append(blocks, current)
			}
			current = nil
			inBlock = true
			continue
		}
		if inBlock {
			current = append(current, line)
		}
	}
	if inBlock {
		blocks = append(blocks, current)
	}

	return blocks
}

// parseBlock scans one scene block's lines in order. Metadata prefixes may
// legally interleave before the timeline marker and reset the timeline flag
// when matched; once inside the timeline section only event lines and blank
// lines are expected.
func parseBlock(lines []string, setting string, roster []*types.Character) *types.Scene {
	scene := &types.Scene{
		ID:               uuid.NewString(),
		Emotion:          types.DefaultTone(),
		EstablishingShot: types.DefaultShot(),
		ShotMode:         types.ShotModeSingle,
	}

	parsingTimeline := false

	for _, raw := range lines {
		line := strings.TrimSpace(raw)

		switch {
		case strings.HasPrefix(line, markerTitle):
			scene.Title = strings.TrimSpace(strings.TrimPrefix(line, markerTitle))
			parsingTimeline = false
		case strings.HasPrefix(line, markerDescription):
			scene.Description = strings.TrimSpace(strings.TrimPrefix(line, markerDescription))
			parsingTimeline = false
		case strings.HasPrefix(line, markerEmotion):
			scene.Emotion = types.ParseTone(strings.TrimPrefix(line, markerEmotion))
			parsingTimeline = false
		case strings.HasPrefix(line, markerShot):
			scene.EstablishingShot = types.ParseShot(strings.TrimPrefix(line, markerShot))
			parsingTimeline = false
		case strings.HasPrefix(line, markerTimeline):
			parsingTimeline = true
		case parsingTimeline && line != "":
			if ev, ok := parseEventLine(line, roster); ok {
				scene.Timeline = append(scene.Timeline, ev)
			}
		}
	}

	scene.Setting = setting
	scene.SelectedCharacters = rosterIDs(roster)

	return scene
}

// parseEventLine matches one timeline line against the event markers.
// Unrecognized lines report ok=false and are dropped by the caller.
func parseEventLine(line string, roster []*types.Character) (types.TimelineEvent, bool) {
	for _, marker := range eventMarkers {
		if !strings.HasPrefix(line, marker.prefix) {
			continue
		}

		content := strings.TrimSpace(strings.TrimPrefix(line, marker.prefix))
		ev := types.TimelineEvent{
			ID:        uuid.NewString(),
			Kind:      marker.kind,
			Connector: types.ConnectingWord{Kind: types.ConnectNone},
		}

		if marker.kind.RequiresCharacter() {
			// The substring before the first colon is a character display
			// name; without a colon the whole remainder is content and the
			// character reference stays absent.
			if idx := strings.Index(content, ":"); idx >= 0 {
				name := strings.TrimSpace(content[:idx])
				if c := resolveByName(roster, name); c != nil {
					ev.CharacterID = c.ID
				}
				content = strings.TrimSpace(content[idx+1:])
			}
		}

		if marker.kind == types.EventDialogue {
			content = strings.Trim(content, `"`)
			ev.Manner = types.DialogueManner{Kind: types.MannerSays}
		}

		ev.Content = content
		return ev, true
	}

	return types.TimelineEvent{}, false
}

// resolveByName finds a roster character by exact, case-sensitive name match.
func resolveByName(roster []*types.Character, name string) *types.Character {
	for _, c := range roster {
		if c.Basic.Name == name {
			return c
		}
	}
	return nil
}

// rosterIDs returns the ids of every roster character, in order.
func rosterIDs(roster []*types.Character) []string {
	if len(roster) == 0 {
		return nil
	}
	ids := make([]string, len(roster))
	for i, c := range roster {
		ids[i] = c.ID
	}
	return ids
}
