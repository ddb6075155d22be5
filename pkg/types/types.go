// Package types provides shared data models for sceneweaver.
package types

import (
	"strings"
	"time"
)

// Project represents a video screenplay project.
type Project struct {
	Name      string     `yaml:"name" json:"name"`
	Path      string     `yaml:"-" json:"path"`
	Style     VideoStyle `yaml:"style" json:"style"`
	CreatedAt time.Time  `yaml:"created_at" json:"created_at"`
	UpdatedAt time.Time  `yaml:"updated_at" json:"updated_at"`
}

// ProjectConfig is the per-project configuration stored in .sceneweaver/config.yaml.
type ProjectConfig struct {
	Version    int              `yaml:"version"`
	Name       string           `yaml:"name"`
	Style      VideoStyle       `yaml:"style"`
	CreatedAt  time.Time        `yaml:"created_at"`
	LLM        LLMConfig        `yaml:"llm"`
	Generation GenerationConfig `yaml:"generation"`
}

// LLMConfig specifies the LLM provider settings.
type LLMConfig struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
}

// GenerationConfig controls script generation requests.
type GenerationConfig struct {
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
	SceneCount  int     `yaml:"scene_count"`
}

// GlobalConfig is the user-wide configuration at ~/.config/sceneweaver/config.yaml.
type GlobalConfig struct {
	Version     int                        `yaml:"version"`
	ProjectsDir string                     `yaml:"projects_dir"`
	Providers   map[string]*ProviderConfig `yaml:"providers"`
	Defaults    DefaultsConfig             `yaml:"defaults"`
}

// ProviderConfig holds API configuration for an LLM provider.
type ProviderConfig struct {
	APIKey       string `yaml:"api_key"`
	DefaultModel string `yaml:"default_model"`
	BaseURL      string `yaml:"base_url,omitempty"`
}

// DefaultsConfig specifies default settings.
type DefaultsConfig struct {
	Provider string `yaml:"provider"`
}

// BasicInfo groups a character's demographic attributes.
type BasicInfo struct {
	Name      string `yaml:"name" json:"name"`
	Age       string `yaml:"age,omitempty" json:"age,omitempty"`
	Gender    string `yaml:"gender,omitempty" json:"gender,omitempty"`
	Ethnicity string `yaml:"ethnicity,omitempty" json:"ethnicity,omitempty"`
}

// FacialFeatures groups a character's facial attributes.
type FacialFeatures struct {
	FaceShape           string `yaml:"face_shape,omitempty" json:"face_shape,omitempty"`
	Eyes                string `yaml:"eyes,omitempty" json:"eyes,omitempty"`
	DistinctiveFeatures string `yaml:"distinctive_features,omitempty" json:"distinctive_features,omitempty"`
}

// HairAttributes groups a character's hair attributes.
type HairAttributes struct {
	Color  string `yaml:"color,omitempty" json:"color,omitempty"`
	Length string `yaml:"length,omitempty" json:"length,omitempty"`
	Style  string `yaml:"style,omitempty" json:"style,omitempty"`
}

// BodyAttributes groups a character's physical-build attributes.
type BodyAttributes struct {
	Height  string `yaml:"height,omitempty" json:"height,omitempty"`
	Build   string `yaml:"build,omitempty" json:"build,omitempty"`
	Posture string `yaml:"posture,omitempty" json:"posture,omitempty"`
}

// ClothingAttributes groups a character's wardrobe attributes.
type ClothingAttributes struct {
	Outfit      string `yaml:"outfit,omitempty" json:"outfit,omitempty"`
	Accessories string `yaml:"accessories,omitempty" json:"accessories,omitempty"`
}

// PersonalityAttributes groups a character's behavioral attributes.
type PersonalityAttributes struct {
	Traits     string `yaml:"traits,omitempty" json:"traits,omitempty"`
	Mannerisms string `yaml:"mannerisms,omitempty" json:"mannerisms,omitempty"`
}

// Character represents a named entity that can appear in scene timelines.
// The ID is stable and unique within a project; edits overwrite in place.
type Character struct {
	ID             string                `yaml:"id" json:"id"`
	Basic          BasicInfo             `yaml:"basic" json:"basic"`
	Facial         FacialFeatures        `yaml:"facial" json:"facial"`
	Hair           HairAttributes        `yaml:"hair" json:"hair"`
	Body           BodyAttributes        `yaml:"body" json:"body"`
	Clothing       ClothingAttributes    `yaml:"clothing" json:"clothing"`
	Personality    PersonalityAttributes `yaml:"personality" json:"personality"`
	Notes          string                `yaml:"notes,omitempty" json:"notes,omitempty"`
	ReferenceImage string                `yaml:"reference_image,omitempty" json:"reference_image,omitempty"`
	CreatedAt      time.Time             `yaml:"created_at" json:"created_at"`
	UpdatedAt      time.Time             `yaml:"updated_at" json:"updated_at"`
}

// Name returns the character's display name.
func (c *Character) Name() string {
	return c.Basic.Name
}

// joinNonEmpty joins the non-empty parts with sep, so empty fields never
// leave stray separators behind.
func joinNonEmpty(sep string, parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, strings.TrimSpace(p))
		}
	}
	return strings.Join(kept, sep)
}

// descriptionPhrases assembles the attribute-group phrases in their fixed
// order: demographics, build, hair, facial features, distinctive features,
// clothing, accessories, posture, mannerisms, consistency notes. Groups with
// no non-empty field contribute nothing.
func (c *Character) descriptionPhrases() []string {
	var phrases []string

	add := func(phrase string) {
		if phrase != "" {
			phrases = append(phrases, phrase)
		}
	}

	add(joinNonEmpty(", ", c.Basic.Age, c.Basic.Gender, c.Basic.Ethnicity))
	add(joinNonEmpty(", ", c.Body.Height, c.Body.Build))
	if hair := joinNonEmpty(", ", c.Hair.Color, c.Hair.Length, c.Hair.Style); hair != "" {
		add(hair + " hair")
	}
	add(joinNonEmpty(", ", c.Facial.FaceShape, c.Facial.Eyes))
	add(strings.TrimSpace(c.Facial.DistinctiveFeatures))
	if outfit := strings.TrimSpace(c.Clothing.Outfit); outfit != "" {
		add("wearing " + outfit)
	}
	add(strings.TrimSpace(c.Clothing.Accessories))
	add(strings.TrimSpace(c.Body.Posture))
	add(joinNonEmpty(", ", c.Personality.Traits, c.Personality.Mannerisms))
	add(strings.TrimSpace(c.Notes))

	return phrases
}

// ComprehensiveDescription renders the full character description used on a
// character's first appearance in a formatted scene: the name followed by a
// parenthesized, semicolon-joined list of every non-empty attribute group.
func (c *Character) ComprehensiveDescription() string {
	phrases := c.descriptionPhrases()
	if len(phrases) == 0 {
		return c.Basic.Name
	}
	return c.Basic.Name + " (" + strings.Join(phrases, "; ") + ")"
}

// ShortDescription renders the abbreviated reference used on subsequent
// appearances: the name, parenthesized with age and gender when present.
func (c *Character) ShortDescription() string {
	hints := joinNonEmpty(", ", c.Basic.Age, c.Basic.Gender)
	if hints == "" {
		return c.Basic.Name
	}
	return c.Basic.Name + " (" + hints + ")"
}

// TimelineEvent is one atomic beat in a scene's timeline. CharacterID is a
// weak, by-identifier reference into the project roster: the event holds an
// id, not a live reference, and lookup misses are tolerated everywhere.
type TimelineEvent struct {
	ID          string         `yaml:"id" json:"id"`
	Kind        EventKind      `yaml:"kind" json:"kind"`
	CharacterID string         `yaml:"character_id,omitempty" json:"character_id,omitempty"`
	Content     string         `yaml:"content" json:"content"`
	Connector   ConnectingWord `yaml:"connector" json:"connector"`
	Manner      DialogueManner `yaml:"manner,omitempty" json:"manner,omitempty"`
}

// Cinematography holds the free-text camera and grading settings of a scene.
type Cinematography struct {
	Lighting     string `yaml:"lighting,omitempty" json:"lighting,omitempty"`
	CameraAngle  string `yaml:"camera_angle,omitempty" json:"camera_angle,omitempty"`
	Lens         string `yaml:"lens,omitempty" json:"lens,omitempty"`
	FocalLength  string `yaml:"focal_length,omitempty" json:"focal_length,omitempty"`
	Movement     string `yaml:"movement,omitempty" json:"movement,omitempty"`
	ColorGrading string `yaml:"color_grading,omitempty" json:"color_grading,omitempty"`
}

// Scene is a unit of a project containing an ordered timeline and shot
// metadata.
type Scene struct {
	ID               string           `yaml:"id" json:"id"`
	Title            string           `yaml:"title" json:"title"`
	Description      string           `yaml:"description,omitempty" json:"description,omitempty"`
	Setting          string           `yaml:"setting,omitempty" json:"setting,omitempty"`
	Emotion          EmotionalTone    `yaml:"emotion" json:"emotion"`
	EstablishingShot EstablishingShot `yaml:"establishing_shot" json:"establishing_shot"`
	ShotMode         ShotMode         `yaml:"shot_mode" json:"shot_mode"`
	Cinematography   Cinematography   `yaml:"cinematography" json:"cinematography"`
	Timeline         []TimelineEvent  `yaml:"timeline" json:"timeline"`

	// SelectedCharacters is a non-authoritative hint of the characters in
	// the scene. It only grows, via AddTimelineEvent, and is never
	// reconciled after event edits or deletions; anything that needs the
	// true participant set must call ParticipantIDs.
	SelectedCharacters []string `yaml:"selected_characters,omitempty" json:"selected_characters,omitempty"`

	CreatedAt time.Time `yaml:"created_at" json:"created_at"`
	UpdatedAt time.Time `yaml:"updated_at" json:"updated_at"`
}

// AddTimelineEvent appends an event and records its character in
// SelectedCharacters when not already present.
func (s *Scene) AddTimelineEvent(ev TimelineEvent) {
	s.Timeline = append(s.Timeline, ev)
	if ev.CharacterID == "" {
		return
	}
	for _, id := range s.SelectedCharacters {
		if id == ev.CharacterID {
			return
		}
	}
	s.SelectedCharacters = append(s.SelectedCharacters, ev.CharacterID)
}

// ParticipantIDs derives the set of character ids actually referenced by the
// timeline, in first-appearance order.
func (s *Scene) ParticipantIDs() []string {
	seen := make(map[string]bool)
	var ids []string
	for _, ev := range s.Timeline {
		if ev.CharacterID == "" || seen[ev.CharacterID] {
			continue
		}
		seen[ev.CharacterID] = true
		ids = append(ids, ev.CharacterID)
	}
	return ids
}

// CharacterIndex builds a by-id lookup over a character roster.
func CharacterIndex(characters []*Character) map[string]*Character {
	index := make(map[string]*Character, len(characters))
	for _, c := range characters {
		index[c.ID] = c
	}
	return index
}

// DefaultProjectConfig returns a new ProjectConfig with sensible defaults.
func DefaultProjectConfig(name string, style VideoStyle) *ProjectConfig {
	return &ProjectConfig{
		Version:   1,
		Name:      name,
		Style:     style,
		CreatedAt: time.Now(),
		LLM: LLMConfig{
			Provider: "openai",
			Model:    "gpt-4o",
		},
		Generation: GenerationConfig{
			MaxTokens:   4000,
			Temperature: 0.7,
			SceneCount:  3,
		},
	}
}

// DefaultGlobalConfig returns a new GlobalConfig with sensible defaults.
func DefaultGlobalConfig() *GlobalConfig {
	return &GlobalConfig{
		Version:     1,
		ProjectsDir: "~/sceneweaver-projects",
		Providers:   make(map[string]*ProviderConfig),
		Defaults: DefaultsConfig{
			Provider: "openai",
		},
	}
}
