package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seojin/sceneweaver/pkg/types"
)

func cinematic() types.VideoStyle {
	return types.VideoStyle{Kind: types.StyleCinematic}
}

// TestManager tests the project Manager lifecycle operations.
func TestManager(t *testing.T) {
	t.Run("Create creates project structure", func(t *testing.T) {
		tmpDir := t.TempDir()
		manager, err := NewManager(tmpDir)
		require.NoError(t, err)

		config := types.DefaultProjectConfig("Night Harbor", cinematic())
		proj, err := manager.Create("night-harbor", config)
		require.NoError(t, err)
		require.NotNil(t, proj)
		defer proj.Close()

		assert.Equal(t, "Night Harbor", proj.Info.Name)
		assert.Equal(t, types.StyleCinematic, proj.Info.Style.Kind)

		projectPath := filepath.Join(tmpDir, "night-harbor")
		assert.DirExists(t, filepath.Join(projectPath, ".sceneweaver"))
		assert.DirExists(t, filepath.Join(projectPath, "exports"))
		assert.DirExists(t, filepath.Join(projectPath, "references"))

		assert.FileExists(t, filepath.Join(projectPath, ".sceneweaver", "config.yaml"))
		assert.FileExists(t, filepath.Join(projectPath, "README.md"))
		assert.FileExists(t, filepath.Join(projectPath, ".sceneweaver", "store.db"))
	})

	t.Run("Create fails for invalid names", func(t *testing.T) {
		tmpDir := t.TempDir()
		manager, err := NewManager(tmpDir)
		require.NoError(t, err)

		invalidNames := []string{
			"",
			"name/with/slash",
			"name\\with\\backslash",
			"name:with:colon",
			"name with spaces",
			"name..with..dots",
			".",
			"..",
			"con",
			"nul",
		}

		config := types.DefaultProjectConfig("Test", cinematic())
		for _, name := range invalidNames {
			proj, err := manager.Create(name, config)
			assert.ErrorIs(t, err, ErrInvalidName, "expected ErrInvalidName for name: %q", name)
			assert.Nil(t, proj)
		}
	})

	t.Run("Create fails for existing project", func(t *testing.T) {
		tmpDir := t.TempDir()
		manager, err := NewManager(tmpDir)
		require.NoError(t, err)

		config := types.DefaultProjectConfig("Night Harbor", cinematic())

		proj1, err := manager.Create("existing-project", config)
		require.NoError(t, err)
		require.NotNil(t, proj1)
		proj1.Close()

		proj2, err := manager.Create("existing-project", config)
		assert.ErrorIs(t, err, ErrProjectExists)
		assert.Nil(t, proj2)
	})

	t.Run("Open loads project correctly", func(t *testing.T) {
		tmpDir := t.TempDir()
		manager, err := NewManager(tmpDir)
		require.NoError(t, err)

		config := types.DefaultProjectConfig("Night Harbor", types.VideoStyle{Kind: types.StyleAnime})

		proj, err := manager.Create("night-harbor", config)
		require.NoError(t, err)
		proj.Close()

		opened, err := manager.Open("night-harbor")
		require.NoError(t, err)
		require.NotNil(t, opened)
		defer opened.Close()

		assert.Equal(t, "Night Harbor", opened.Info.Name)
		assert.Equal(t, types.StyleAnime, opened.Info.Style.Kind)
	})

	t.Run("Open fails for missing project", func(t *testing.T) {
		tmpDir := t.TempDir()
		manager, err := NewManager(tmpDir)
		require.NoError(t, err)

		proj, err := manager.Open("does-not-exist")
		assert.ErrorIs(t, err, ErrProjectNotFound)
		assert.Nil(t, proj)
	})

	t.Run("Exists reflects config presence", func(t *testing.T) {
		tmpDir := t.TempDir()
		manager, err := NewManager(tmpDir)
		require.NoError(t, err)

		assert.False(t, manager.Exists("night-harbor"))

		proj, err := manager.Create("night-harbor", types.DefaultProjectConfig("Night Harbor", cinematic()))
		require.NoError(t, err)
		proj.Close()

		assert.True(t, manager.Exists("night-harbor"))

		// A bare directory without a config is not a project
		require.NoError(t, os.MkdirAll(filepath.Join(tmpDir, "random-dir"), 0755))
		assert.False(t, manager.Exists("random-dir"))
	})

	t.Run("List skips non-project directories", func(t *testing.T) {
		tmpDir := t.TempDir()
		manager, err := NewManager(tmpDir)
		require.NoError(t, err)

		for _, name := range []string{"alpha", "beta"} {
			proj, err := manager.Create(name, types.DefaultProjectConfig(name, cinematic()))
			require.NoError(t, err)
			proj.Close()
		}
		require.NoError(t, os.MkdirAll(filepath.Join(tmpDir, "not-a-project"), 0755))

		projects, err := manager.List()
		require.NoError(t, err)
		assert.Len(t, projects, 2)
	})

	t.Run("Delete removes the whole project", func(t *testing.T) {
		tmpDir := t.TempDir()
		manager, err := NewManager(tmpDir)
		require.NoError(t, err)

		proj, err := manager.Create("doomed", types.DefaultProjectConfig("Doomed", cinematic()))
		require.NoError(t, err)

		ana := &types.Character{ID: uuid.NewString(), Basic: types.BasicInfo{Name: "Ana"}}
		require.NoError(t, proj.Store.SaveCharacter(ana))
		proj.Close()

		require.NoError(t, manager.Delete("doomed"))

		_, err = os.Stat(filepath.Join(tmpDir, "doomed"))
		assert.True(t, os.IsNotExist(err))

		err = manager.Delete("doomed")
		assert.ErrorIs(t, err, ErrProjectNotFound)
	})
}

func TestProject(t *testing.T) {
	t.Run("SaveConfig persists edits", func(t *testing.T) {
		tmpDir := t.TempDir()
		manager, err := NewManager(tmpDir)
		require.NoError(t, err)

		proj, err := manager.Create("night-harbor", types.DefaultProjectConfig("Night Harbor", cinematic()))
		require.NoError(t, err)

		proj.Config.Generation.SceneCount = 7
		require.NoError(t, proj.SaveConfig())
		proj.Close()

		reopened, err := manager.Open("night-harbor")
		require.NoError(t, err)
		defer reopened.Close()

		assert.Equal(t, 7, reopened.Config.Generation.SceneCount)
	})

	t.Run("AddReferenceImage copies into references", func(t *testing.T) {
		tmpDir := t.TempDir()
		manager, err := NewManager(tmpDir)
		require.NoError(t, err)

		proj, err := manager.Create("night-harbor", types.DefaultProjectConfig("Night Harbor", cinematic()))
		require.NoError(t, err)
		defer proj.Close()

		srcPath := filepath.Join(t.TempDir(), "ana.png")
		require.NoError(t, os.WriteFile(srcPath, []byte("image bytes"), 0644))

		ana := &types.Character{ID: uuid.NewString(), Basic: types.BasicInfo{Name: "Ana"}}
		require.NoError(t, proj.Store.SaveCharacter(ana))

		require.NoError(t, proj.AddReferenceImage(ana, srcPath))

		assert.Equal(t, filepath.Join("references", ana.ID+".png"), ana.ReferenceImage)
		assert.FileExists(t, filepath.Join(proj.Path(), ana.ReferenceImage))

		stored, err := proj.Store.GetCharacter(ana.ID)
		require.NoError(t, err)
		assert.Equal(t, ana.ReferenceImage, stored.ReferenceImage)
	})
}
