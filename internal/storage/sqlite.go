// Package storage provides file and database handling.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/seojin/sceneweaver/pkg/types"
)

// Store manages the SQLite database for a project. Characters and scenes
// are owned by the project database; timeline events are owned by their
// scene (ON DELETE CASCADE). Event character references are plain ids with
// no foreign key, so a deleted character leaves dangling ids behind by
// design.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens or creates the project database.
func NewStore(projectPath string) (*Store, error) {
	dir := filepath.Join(projectPath, ".sceneweaver")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create project directory: %w", err)
	}
	dbPath := filepath.Join(dir, "store.db")

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=ON")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{
		db:   db,
		path: dbPath,
	}

	if err := store.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return store, nil
}

// initialize creates the required tables if they don't exist.
func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS characters (
		id TEXT PRIMARY KEY,
		position INTEGER NOT NULL,
		name TEXT NOT NULL,
		age TEXT NOT NULL DEFAULT '',
		gender TEXT NOT NULL DEFAULT '',
		ethnicity TEXT NOT NULL DEFAULT '',
		face_shape TEXT NOT NULL DEFAULT '',
		eyes TEXT NOT NULL DEFAULT '',
		distinctive_features TEXT NOT NULL DEFAULT '',
		hair_color TEXT NOT NULL DEFAULT '',
		hair_length TEXT NOT NULL DEFAULT '',
		hair_style TEXT NOT NULL DEFAULT '',
		height TEXT NOT NULL DEFAULT '',
		build TEXT NOT NULL DEFAULT '',
		posture TEXT NOT NULL DEFAULT '',
		outfit TEXT NOT NULL DEFAULT '',
		accessories TEXT NOT NULL DEFAULT '',
		traits TEXT NOT NULL DEFAULT '',
		mannerisms TEXT NOT NULL DEFAULT '',
		notes TEXT NOT NULL DEFAULT '',
		reference_image TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS scenes (
		id TEXT PRIMARY KEY,
		position INTEGER NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		setting TEXT NOT NULL DEFAULT '',
		emotion_kind TEXT NOT NULL DEFAULT 'dramatic',
		emotion_custom TEXT NOT NULL DEFAULT '',
		shot_kind TEXT NOT NULL DEFAULT 'wide_angle',
		shot_custom TEXT NOT NULL DEFAULT '',
		shot_mode TEXT NOT NULL DEFAULT 'single',
		lighting TEXT NOT NULL DEFAULT '',
		camera_angle TEXT NOT NULL DEFAULT '',
		lens TEXT NOT NULL DEFAULT '',
		focal_length TEXT NOT NULL DEFAULT '',
		movement TEXT NOT NULL DEFAULT '',
		color_grading TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	-- Timeline events are owned by their scene; character_id is a weak
	-- reference with no constraint.
	CREATE TABLE IF NOT EXISTS timeline_events (
		id TEXT PRIMARY KEY,
		scene_id TEXT NOT NULL REFERENCES scenes(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		kind TEXT NOT NULL,
		character_id TEXT NOT NULL DEFAULT '',
		content TEXT NOT NULL DEFAULT '',
		connector_kind TEXT NOT NULL DEFAULT 'none',
		connector_custom TEXT NOT NULL DEFAULT '',
		manner_kind TEXT NOT NULL DEFAULT '',
		manner_custom TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_timeline_events_scene
	ON timeline_events(scene_id, position);

	CREATE TABLE IF NOT EXISTS scene_characters (
		scene_id TEXT NOT NULL REFERENCES scenes(id) ON DELETE CASCADE,
		character_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		PRIMARY KEY (scene_id, character_id)
	);

	-- FTS5 virtual table for full-text search over characters and scenes
	CREATE VIRTUAL TABLE IF NOT EXISTS script_fts USING fts5(
		content,
		kind,
		ref_id,
		tokenize='porter unicode61'
	);

	-- Schema version for migrations
	CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY
	);

	INSERT OR IGNORE INTO schema_version (version) VALUES (1);
	`

	_, err := s.db.Exec(schema)
	return err
}

// SaveCharacter inserts or overwrites a character. New characters are
// appended at the end of the roster order; edits keep their position.
func (s *Store) SaveCharacter(c *types.Character) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	position, err := nextPosition(tx, "characters", c.ID)
	if err != nil {
		return err
	}

	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	c.UpdatedAt = time.Now()

	_, err = tx.Exec(`
		INSERT OR REPLACE INTO characters (
			id, position, name, age, gender, ethnicity,
			face_shape, eyes, distinctive_features,
			hair_color, hair_length, hair_style,
			height, build, posture,
			outfit, accessories, traits, mannerisms,
			notes, reference_image, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, position, c.Basic.Name, c.Basic.Age, c.Basic.Gender, c.Basic.Ethnicity,
		c.Facial.FaceShape, c.Facial.Eyes, c.Facial.DistinctiveFeatures,
		c.Hair.Color, c.Hair.Length, c.Hair.Style,
		c.Body.Height, c.Body.Build, c.Body.Posture,
		c.Clothing.Outfit, c.Clothing.Accessories, c.Personality.Traits, c.Personality.Mannerisms,
		c.Notes, c.ReferenceImage, c.CreatedAt.Unix(), c.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to save character: %w", err)
	}

	if err := reindex(tx, "character", c.ID, c.ComprehensiveDescription()); err != nil {
		return err
	}

	return tx.Commit()
}

// nextPosition returns the row's existing position, or one past the current
// maximum for new rows.
func nextPosition(tx *sql.Tx, table, id string) (int, error) {
	var position int
	err := tx.QueryRow("SELECT position FROM "+table+" WHERE id = ?", id).Scan(&position)
	if err == nil {
		return position, nil
	}
	if err != sql.ErrNoRows {
		return 0, err
	}

	err = tx.QueryRow("SELECT COALESCE(MAX(position), 0) + 1 FROM " + table).Scan(&position)
	return position, err
}

// reindex replaces the FTS rows for one entity.
func reindex(tx *sql.Tx, kind, refID, content string) error {
	if _, err := tx.Exec("DELETE FROM script_fts WHERE kind = ? AND ref_id = ?", kind, refID); err != nil {
		return fmt.Errorf("failed to clear search index: %w", err)
	}
	if content == "" {
		return nil
	}
	if _, err := tx.Exec("INSERT INTO script_fts (content, kind, ref_id) VALUES (?, ?, ?)", content, kind, refID); err != nil {
		return fmt.Errorf("failed to update search index: %w", err)
	}
	return nil
}

const characterColumns = `id, name, age, gender, ethnicity,
	face_shape, eyes, distinctive_features,
	hair_color, hair_length, hair_style,
	height, build, posture,
	outfit, accessories, traits, mannerisms,
	notes, reference_image, created_at, updated_at`

// scanCharacter reads one character row.
func scanCharacter(row interface{ Scan(...any) error }) (*types.Character, error) {
	var c types.Character
	var createdAt, updatedAt int64

	err := row.Scan(
		&c.ID, &c.Basic.Name, &c.Basic.Age, &c.Basic.Gender, &c.Basic.Ethnicity,
		&c.Facial.FaceShape, &c.Facial.Eyes, &c.Facial.DistinctiveFeatures,
		&c.Hair.Color, &c.Hair.Length, &c.Hair.Style,
		&c.Body.Height, &c.Body.Build, &c.Body.Posture,
		&c.Clothing.Outfit, &c.Clothing.Accessories, &c.Personality.Traits, &c.Personality.Mannerisms,
		&c.Notes, &c.ReferenceImage, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.CreatedAt = time.Unix(createdAt, 0)
	c.UpdatedAt = time.Unix(updatedAt, 0)
	return &c, nil
}

// ListCharacters returns the roster in insertion order.
func (s *Store) ListCharacters() ([]*types.Character, error) {
	rows, err := s.db.Query("SELECT " + characterColumns + " FROM characters ORDER BY position")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var characters []*types.Character
	for rows.Next() {
		c, err := scanCharacter(rows)
		if err != nil {
			return nil, err
		}
		characters = append(characters, c)
	}

	return characters, rows.Err()
}

// GetCharacter returns a character by id, or nil when not found.
func (s *Store) GetCharacter(id string) (*types.Character, error) {
	c, err := scanCharacter(s.db.QueryRow("SELECT "+characterColumns+" FROM characters WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return c, err
}

// FindCharacterByName returns the first character with an exact name match,
// or nil when none matches.
func (s *Store) FindCharacterByName(name string) (*types.Character, error) {
	c, err := scanCharacter(s.db.QueryRow("SELECT "+characterColumns+" FROM characters WHERE name = ? ORDER BY position LIMIT 1", name))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return c, err
}

// DeleteCharacter removes a character. Timeline events referencing it keep
// their now-dangling ids; lookups treat those as "no character".
func (s *Store) DeleteCharacter(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM characters WHERE id = ?", id); err != nil {
		return err
	}
	if err := reindex(tx, "character", id, ""); err != nil {
		return err
	}

	return tx.Commit()
}

// SaveScene inserts or overwrites a scene together with its timeline and
// selected-character rows.
func (s *Store) SaveScene(scene *types.Scene) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	position, err := nextPosition(tx, "scenes", scene.ID)
	if err != nil {
		return err
	}

	if scene.CreatedAt.IsZero() {
		scene.CreatedAt = time.Now()
	}
	scene.UpdatedAt = time.Now()

	_, err = tx.Exec(`
		INSERT OR REPLACE INTO scenes (
			id, position, title, description, setting,
			emotion_kind, emotion_custom, shot_kind, shot_custom, shot_mode,
			lighting, camera_angle, lens, focal_length, movement, color_grading,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		scene.ID, position, scene.Title, scene.Description, scene.Setting,
		string(scene.Emotion.Kind), scene.Emotion.Custom,
		string(scene.EstablishingShot.Kind), scene.EstablishingShot.Custom,
		string(scene.ShotMode),
		scene.Cinematography.Lighting, scene.Cinematography.CameraAngle,
		scene.Cinematography.Lens, scene.Cinematography.FocalLength,
		scene.Cinematography.Movement, scene.Cinematography.ColorGrading,
		scene.CreatedAt.Unix(), scene.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to save scene: %w", err)
	}

	if _, err := tx.Exec("DELETE FROM timeline_events WHERE scene_id = ?", scene.ID); err != nil {
		return err
	}
	for i, ev := range scene.Timeline {
		_, err := tx.Exec(`
			INSERT INTO timeline_events (
				id, scene_id, position, kind, character_id, content,
				connector_kind, connector_custom, manner_kind, manner_custom
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			ev.ID, scene.ID, i, string(ev.Kind), ev.CharacterID, ev.Content,
			string(ev.Connector.Kind), ev.Connector.Custom,
			string(ev.Manner.Kind), ev.Manner.Custom,
		)
		if err != nil {
			return fmt.Errorf("failed to save timeline event: %w", err)
		}
	}

	if _, err := tx.Exec("DELETE FROM scene_characters WHERE scene_id = ?", scene.ID); err != nil {
		return err
	}
	for i, id := range scene.SelectedCharacters {
		_, err := tx.Exec(
			"INSERT OR IGNORE INTO scene_characters (scene_id, character_id, position) VALUES (?, ?, ?)",
			scene.ID, id, i,
		)
		if err != nil {
			return err
		}
	}

	if err := reindex(tx, "scene", scene.ID, sceneSearchText(scene)); err != nil {
		return err
	}

	return tx.Commit()
}

// sceneSearchText flattens a scene's searchable text.
func sceneSearchText(scene *types.Scene) string {
	text := scene.Title + "\n" + scene.Description + "\n" + scene.Setting
	for _, ev := range scene.Timeline {
		text += "\n" + ev.Content
	}
	return text
}

// sceneColumns lists the scalar scene columns in scan order.
const sceneColumns = `id, title, description, setting,
	emotion_kind, emotion_custom, shot_kind, shot_custom, shot_mode,
	lighting, camera_angle, lens, focal_length, movement, color_grading,
	created_at, updated_at`

// scanScene reads one scene row without its timeline.
func scanScene(row interface{ Scan(...any) error }) (*types.Scene, error) {
	var scene types.Scene
	var emotionKind, shotKind, shotMode string
	var createdAt, updatedAt int64

	err := row.Scan(
		&scene.ID, &scene.Title, &scene.Description, &scene.Setting,
		&emotionKind, &scene.Emotion.Custom, &shotKind, &scene.EstablishingShot.Custom, &shotMode,
		&scene.Cinematography.Lighting, &scene.Cinematography.CameraAngle,
		&scene.Cinematography.Lens, &scene.Cinematography.FocalLength,
		&scene.Cinematography.Movement, &scene.Cinematography.ColorGrading,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	scene.Emotion.Kind = types.EmotionalToneKind(emotionKind)
	scene.EstablishingShot.Kind = types.EstablishingShotKind(shotKind)
	scene.ShotMode = types.ShotMode(shotMode)
	scene.CreatedAt = time.Unix(createdAt, 0)
	scene.UpdatedAt = time.Unix(updatedAt, 0)
	return &scene, nil
}

// loadSceneChildren fills a scene's timeline and selected-character rows.
func (s *Store) loadSceneChildren(scene *types.Scene) error {
	rows, err := s.db.Query(`
		SELECT id, kind, character_id, content,
			connector_kind, connector_custom, manner_kind, manner_custom
		FROM timeline_events
		WHERE scene_id = ?
		ORDER BY position`, scene.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var ev types.TimelineEvent
		var kind, connectorKind, mannerKind string
		if err := rows.Scan(&ev.ID, &kind, &ev.CharacterID, &ev.Content,
			&connectorKind, &ev.Connector.Custom, &mannerKind, &ev.Manner.Custom); err != nil {
			return err
		}
		ev.Kind = types.EventKind(kind)
		ev.Connector.Kind = types.ConnectingWordKind(connectorKind)
		ev.Manner.Kind = types.DialogueMannerKind(mannerKind)
		scene.Timeline = append(scene.Timeline, ev)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	charRows, err := s.db.Query(
		"SELECT character_id FROM scene_characters WHERE scene_id = ? ORDER BY position", scene.ID)
	if err != nil {
		return err
	}
	defer charRows.Close()

	for charRows.Next() {
		var id string
		if err := charRows.Scan(&id); err != nil {
			return err
		}
		scene.SelectedCharacters = append(scene.SelectedCharacters, id)
	}
	return charRows.Err()
}

// ListScenes returns all scenes with their timelines, in insertion order.
func (s *Store) ListScenes() ([]*types.Scene, error) {
	rows, err := s.db.Query("SELECT " + sceneColumns + " FROM scenes ORDER BY position")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scenes []*types.Scene
	for rows.Next() {
		scene, err := scanScene(rows)
		if err != nil {
			return nil, err
		}
		scenes = append(scenes, scene)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, scene := range scenes {
		if err := s.loadSceneChildren(scene); err != nil {
			return nil, err
		}
	}
	return scenes, nil
}

// GetScene returns one scene with its timeline, or nil when not found.
func (s *Store) GetScene(id string) (*types.Scene, error) {
	scene, err := scanScene(s.db.QueryRow("SELECT "+sceneColumns+" FROM scenes WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := s.loadSceneChildren(scene); err != nil {
		return nil, err
	}
	return scene, nil
}

// DeleteScene removes a scene; its timeline events cascade.
func (s *Store) DeleteScene(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM scenes WHERE id = ?", id); err != nil {
		return err
	}
	if err := reindex(tx, "scene", id, ""); err != nil {
		return err
	}

	return tx.Commit()
}

// SearchResult represents a full-text search hit.
type SearchResult struct {
	Kind    string
	RefID   string
	Content string
	Score   float64
}

// Search performs a full-text search over indexed characters and scenes.
func (s *Store) Search(query string, limit int) ([]SearchResult, error) {
	rows, err := s.db.Query(`
		SELECT content, kind, ref_id, bm25(script_fts) AS score
		FROM script_fts
		WHERE script_fts MATCH ?
		ORDER BY score
		LIMIT ?`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("search query failed: %w", err)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.Content, &r.Kind, &r.RefID, &r.Score); err != nil {
			return nil, err
		}
		results = append(results, r)
	}

	return results, rows.Err()
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
