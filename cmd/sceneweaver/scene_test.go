package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/seojin/sceneweaver/pkg/types"
)

// ============================================================================
// Scene Listing Tests
// ============================================================================

func TestSceneSummaryLine(t *testing.T) {
	t.Run("renders tone and event count", func(t *testing.T) {
		scene := &types.Scene{
			Title:   "The Rooftop",
			Emotion: types.EmotionalTone{Kind: types.ToneTense},
			Timeline: []types.TimelineEvent{
				{Kind: types.EventEnvironmentAction, Content: "Rain hammers the skylight"},
				{Kind: types.EventDialogue, Content: "We can't stay here"},
			},
		}

		assert.Equal(t, "  1. The Rooftop - Tense, 2 events", sceneSummaryLine(1, scene))
	})

	t.Run("custom tone uses its label", func(t *testing.T) {
		scene := &types.Scene{
			Title:   "Interlude",
			Emotion: types.EmotionalTone{Kind: types.ToneCustom, Custom: "Wistful"},
		}

		assert.Equal(t, "  3. Interlude - Wistful, 0 events", sceneSummaryLine(3, scene))
	})
}
