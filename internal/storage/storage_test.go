//go:build cgo && fts5

package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seojin/sceneweaver/pkg/types"
)

// setupTestStore creates a temporary project database for testing.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err, "failed to create test store")
	t.Cleanup(func() { store.Close() })

	return store
}

func testCharacter(name string) *types.Character {
	return &types.Character{
		ID: uuid.NewString(),
		Basic: types.BasicInfo{
			Name:   name,
			Age:    "29",
			Gender: "female",
		},
		Hair:     types.HairAttributes{Color: "black", Length: "shoulder-length"},
		Clothing: types.ClothingAttributes{Outfit: "a red raincoat"},
	}
}

func testScene(title string) *types.Scene {
	return &types.Scene{
		ID:               uuid.NewString(),
		Title:            title,
		Description:      "Two strangers meet at night.",
		Setting:          "a rain-soaked alley",
		Emotion:          types.DefaultTone(),
		EstablishingShot: types.DefaultShot(),
		ShotMode:         types.ShotModeSingle,
	}
}

// =============================================================================
// TestAtomicWriteFile
// =============================================================================

func TestAtomicWriteFile(t *testing.T) {
	t.Run("writes file and verifies content", func(t *testing.T) {
		tempDir := t.TempDir()
		targetPath := filepath.Join(tempDir, "export.txt")
		expectedContent := []byte("Video Style: Cinematic")

		err := AtomicWriteFile(targetPath, expectedContent, 0644)
		require.NoError(t, err)

		actualContent, err := os.ReadFile(targetPath)
		require.NoError(t, err)
		assert.Equal(t, expectedContent, actualContent)
	})

	t.Run("overwrites existing file", func(t *testing.T) {
		tempDir := t.TempDir()
		targetPath := filepath.Join(tempDir, "overwrite.txt")

		err := AtomicWriteFile(targetPath, []byte("original content"), 0644)
		require.NoError(t, err)

		newContent := []byte("new content")
		err = AtomicWriteFile(targetPath, newContent, 0644)
		require.NoError(t, err)

		actualContent, err := os.ReadFile(targetPath)
		require.NoError(t, err)
		assert.Equal(t, newContent, actualContent)
	})

	t.Run("creates parent directories if they do not exist", func(t *testing.T) {
		tempDir := t.TempDir()
		targetPath := filepath.Join(tempDir, "nested", "dirs", "export.txt")

		err := AtomicWriteFile(targetPath, []byte("content"), 0644)
		require.NoError(t, err)

		actualContent, err := os.ReadFile(targetPath)
		require.NoError(t, err)
		assert.Equal(t, []byte("content"), actualContent)
	})

	t.Run("applies requested permissions", func(t *testing.T) {
		tempDir := t.TempDir()
		targetPath := filepath.Join(tempDir, "secret.yaml")

		err := AtomicWriteFile(targetPath, []byte("api_key: shhh"), 0600)
		require.NoError(t, err)

		info, err := os.Stat(targetPath)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	})
}

// =============================================================================
// TestAtomicWriter
// =============================================================================

func TestAtomicWriter(t *testing.T) {
	t.Run("Write and Commit flow", func(t *testing.T) {
		tempDir := t.TempDir()
		targetPath := filepath.Join(tempDir, "atomic.txt")

		writer, err := NewAtomicWriter(targetPath, 0644)
		require.NoError(t, err)

		_, err = writer.Write([]byte("SCENE 1: "))
		require.NoError(t, err)

		_, err = writer.Write([]byte("Arrival"))
		require.NoError(t, err)

		err = writer.Commit()
		require.NoError(t, err)

		content, err := os.ReadFile(targetPath)
		require.NoError(t, err)
		assert.Equal(t, "SCENE 1: Arrival", string(content))
	})

	t.Run("Abort cleans up temp file", func(t *testing.T) {
		tempDir := t.TempDir()
		targetPath := filepath.Join(tempDir, "aborted.txt")

		writer, err := NewAtomicWriter(targetPath, 0644)
		require.NoError(t, err)

		_, err = writer.Write([]byte("should be aborted"))
		require.NoError(t, err)

		err = writer.Abort()
		require.NoError(t, err)

		_, err = os.Stat(targetPath)
		assert.True(t, os.IsNotExist(err), "target file should not exist after abort")

		entries, err := os.ReadDir(tempDir)
		require.NoError(t, err)
		for _, entry := range entries {
			assert.False(t, filepath.HasPrefix(entry.Name(), ".tmp-"),
				"temp file should be cleaned up after abort")
		}
	})
}

// =============================================================================
// TestAtomicCopyFile
// =============================================================================

func TestAtomicCopyFile(t *testing.T) {
	t.Run("copies file atomically", func(t *testing.T) {
		tempDir := t.TempDir()
		srcPath := filepath.Join(tempDir, "ana.png")
		dstPath := filepath.Join(tempDir, "references", "ana.png")

		srcContent := []byte("not actually a png")
		require.NoError(t, os.WriteFile(srcPath, srcContent, 0644))

		err := AtomicCopyFile(srcPath, dstPath)
		require.NoError(t, err)

		dstContent, err := os.ReadFile(dstPath)
		require.NoError(t, err)
		assert.Equal(t, srcContent, dstContent)
	})

	t.Run("returns error for non-existent source", func(t *testing.T) {
		tempDir := t.TempDir()
		err := AtomicCopyFile(filepath.Join(tempDir, "missing.png"), filepath.Join(tempDir, "dest.png"))
		assert.Error(t, err)
	})
}

// =============================================================================
// TestStore characters
// =============================================================================

func TestStoreCharacters(t *testing.T) {
	t.Run("SaveCharacter and GetCharacter round-trip", func(t *testing.T) {
		store := setupTestStore(t)

		ana := testCharacter("Ana")
		ana.Personality.Traits = "guarded"
		require.NoError(t, store.SaveCharacter(ana))

		got, err := store.GetCharacter(ana.ID)
		require.NoError(t, err)
		require.NotNil(t, got)

		assert.Equal(t, "Ana", got.Basic.Name)
		assert.Equal(t, "29", got.Basic.Age)
		assert.Equal(t, "black", got.Hair.Color)
		assert.Equal(t, "a red raincoat", got.Clothing.Outfit)
		assert.Equal(t, "guarded", got.Personality.Traits)
		assert.False(t, got.CreatedAt.IsZero())
	})

	t.Run("GetCharacter returns nil for unknown id", func(t *testing.T) {
		store := setupTestStore(t)

		got, err := store.GetCharacter("no-such-id")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("ListCharacters preserves insertion order", func(t *testing.T) {
		store := setupTestStore(t)

		for _, name := range []string{"Ana", "Ben", "Cleo"} {
			require.NoError(t, store.SaveCharacter(testCharacter(name)))
		}

		characters, err := store.ListCharacters()
		require.NoError(t, err)
		require.Len(t, characters, 3)

		assert.Equal(t, "Ana", characters[0].Basic.Name)
		assert.Equal(t, "Ben", characters[1].Basic.Name)
		assert.Equal(t, "Cleo", characters[2].Basic.Name)
	})

	t.Run("SaveCharacter update keeps position", func(t *testing.T) {
		store := setupTestStore(t)

		ana := testCharacter("Ana")
		ben := testCharacter("Ben")
		require.NoError(t, store.SaveCharacter(ana))
		require.NoError(t, store.SaveCharacter(ben))

		ana.Notes = "updated"
		require.NoError(t, store.SaveCharacter(ana))

		characters, err := store.ListCharacters()
		require.NoError(t, err)
		require.Len(t, characters, 2)
		assert.Equal(t, "Ana", characters[0].Basic.Name)
		assert.Equal(t, "updated", characters[0].Notes)
	})

	t.Run("FindCharacterByName matches exactly", func(t *testing.T) {
		store := setupTestStore(t)
		require.NoError(t, store.SaveCharacter(testCharacter("Ana")))

		got, err := store.FindCharacterByName("Ana")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "Ana", got.Basic.Name)

		missing, err := store.FindCharacterByName("ana")
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("DeleteCharacter leaves timeline references dangling", func(t *testing.T) {
		store := setupTestStore(t)

		ana := testCharacter("Ana")
		require.NoError(t, store.SaveCharacter(ana))

		scene := testScene("Arrival")
		scene.Timeline = []types.TimelineEvent{{
			ID:          uuid.NewString(),
			Kind:        types.EventDialogue,
			CharacterID: ana.ID,
			Content:     "We shouldn't be here.",
			Manner:      types.DialogueManner{Kind: types.MannerSays},
		}}
		require.NoError(t, store.SaveScene(scene))

		require.NoError(t, store.DeleteCharacter(ana.ID))

		got, err := store.GetScene(scene.ID)
		require.NoError(t, err)
		require.Len(t, got.Timeline, 1)
		assert.Equal(t, ana.ID, got.Timeline[0].CharacterID, "event should keep the dangling id")

		gone, err := store.GetCharacter(ana.ID)
		require.NoError(t, err)
		assert.Nil(t, gone)
	})
}

// =============================================================================
// TestStore scenes
// =============================================================================

func TestStoreScenes(t *testing.T) {
	t.Run("SaveScene and GetScene round-trip with timeline", func(t *testing.T) {
		store := setupTestStore(t)

		scene := testScene("Arrival")
		scene.Emotion = types.EmotionalTone{Kind: types.ToneTense}
		scene.EstablishingShot = types.EstablishingShot{Kind: types.ShotCloseUp}
		scene.Cinematography.Lighting = "Moonlight"
		scene.SelectedCharacters = []string{"char-1", "char-2"}
		scene.Timeline = []types.TimelineEvent{
			{
				ID:          uuid.NewString(),
				Kind:        types.EventDialogue,
				CharacterID: "char-1",
				Content:     "Hello there.",
				Manner:      types.DialogueManner{Kind: types.MannerWhispers},
			},
			{
				ID:        uuid.NewString(),
				Kind:      types.EventEnvironmentAction,
				Content:   "Thunder rolls in the distance.",
				Connector: types.ConnectingWord{Kind: types.ConnectSuddenly},
			},
		}
		require.NoError(t, store.SaveScene(scene))

		got, err := store.GetScene(scene.ID)
		require.NoError(t, err)
		require.NotNil(t, got)

		assert.Equal(t, "Arrival", got.Title)
		assert.Equal(t, types.ToneTense, got.Emotion.Kind)
		assert.Equal(t, types.ShotCloseUp, got.EstablishingShot.Kind)
		assert.Equal(t, "Moonlight", got.Cinematography.Lighting)
		assert.Equal(t, []string{"char-1", "char-2"}, got.SelectedCharacters)

		require.Len(t, got.Timeline, 2)
		assert.Equal(t, types.EventDialogue, got.Timeline[0].Kind)
		assert.Equal(t, types.MannerWhispers, got.Timeline[0].Manner.Kind)
		assert.Equal(t, types.EventEnvironmentAction, got.Timeline[1].Kind)
		assert.Equal(t, types.ConnectSuddenly, got.Timeline[1].Connector.Kind)
	})

	t.Run("SaveScene update replaces timeline", func(t *testing.T) {
		store := setupTestStore(t)

		scene := testScene("Arrival")
		scene.Timeline = []types.TimelineEvent{
			{ID: uuid.NewString(), Kind: types.EventEnvironmentAction, Content: "Rain falls."},
			{ID: uuid.NewString(), Kind: types.EventEnvironmentAction, Content: "Wind howls."},
		}
		require.NoError(t, store.SaveScene(scene))

		scene.Timeline = scene.Timeline[:1]
		require.NoError(t, store.SaveScene(scene))

		got, err := store.GetScene(scene.ID)
		require.NoError(t, err)
		require.Len(t, got.Timeline, 1)
		assert.Equal(t, "Rain falls.", got.Timeline[0].Content)
	})

	t.Run("ListScenes preserves insertion order", func(t *testing.T) {
		store := setupTestStore(t)

		for _, title := range []string{"Arrival", "Confrontation", "Departure"} {
			require.NoError(t, store.SaveScene(testScene(title)))
		}

		scenes, err := store.ListScenes()
		require.NoError(t, err)
		require.Len(t, scenes, 3)
		assert.Equal(t, "Arrival", scenes[0].Title)
		assert.Equal(t, "Confrontation", scenes[1].Title)
		assert.Equal(t, "Departure", scenes[2].Title)
	})

	t.Run("DeleteScene cascades to timeline events", func(t *testing.T) {
		store := setupTestStore(t)

		scene := testScene("Arrival")
		scene.Timeline = []types.TimelineEvent{
			{ID: uuid.NewString(), Kind: types.EventEnvironmentAction, Content: "Rain falls."},
		}
		require.NoError(t, store.SaveScene(scene))
		require.NoError(t, store.DeleteScene(scene.ID))

		got, err := store.GetScene(scene.ID)
		require.NoError(t, err)
		assert.Nil(t, got)

		var count int
		err = store.db.QueryRow("SELECT COUNT(*) FROM timeline_events").Scan(&count)
		require.NoError(t, err)
		assert.Zero(t, count)
	})
}

// =============================================================================
// TestStore search
// =============================================================================

func TestStoreSearch(t *testing.T) {
	t.Run("finds characters by description", func(t *testing.T) {
		store := setupTestStore(t)

		ana := testCharacter("Ana")
		require.NoError(t, store.SaveCharacter(ana))
		require.NoError(t, store.SaveCharacter(testCharacter("Ben")))

		results, err := store.Search("raincoat", 10)
		require.NoError(t, err)
		require.NotEmpty(t, results)
		assert.Equal(t, "character", results[0].Kind)
		assert.Equal(t, ana.ID, results[0].RefID)
	})

	t.Run("finds scenes by timeline content", func(t *testing.T) {
		store := setupTestStore(t)

		scene := testScene("Arrival")
		scene.Timeline = []types.TimelineEvent{
			{ID: uuid.NewString(), Kind: types.EventEnvironmentAction, Content: "Thunder rolls over the harbor."},
		}
		require.NoError(t, store.SaveScene(scene))

		results, err := store.Search("thunder", 10)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "scene", results[0].Kind)
		assert.Equal(t, scene.ID, results[0].RefID)
	})

	t.Run("returns empty for no matches", func(t *testing.T) {
		store := setupTestStore(t)
		require.NoError(t, store.SaveCharacter(testCharacter("Ana")))

		results, err := store.Search("xyz123nonexistent", 10)
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("reindexes after update", func(t *testing.T) {
		store := setupTestStore(t)

		ana := testCharacter("Ana")
		require.NoError(t, store.SaveCharacter(ana))

		ana.Clothing.Outfit = "a leather jacket"
		require.NoError(t, store.SaveCharacter(ana))

		results, err := store.Search("raincoat", 10)
		require.NoError(t, err)
		assert.Empty(t, results, "stale index entries should be replaced")

		results, err = store.Search("leather", 10)
		require.NoError(t, err)
		assert.Len(t, results, 1)
	})

	t.Run("deleted entities drop out of the index", func(t *testing.T) {
		store := setupTestStore(t)

		ana := testCharacter("Ana")
		require.NoError(t, store.SaveCharacter(ana))
		require.NoError(t, store.DeleteCharacter(ana.ID))

		results, err := store.Search("raincoat", 10)
		require.NoError(t, err)
		assert.Empty(t, results)
	})
}
