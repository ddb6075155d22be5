// Package types provides shared data models for sceneweaver.
package types

import "strings"

// EventKind identifies the kind of a timeline event.
type EventKind string

// Timeline event kinds.
const (
	EventDialogue          EventKind = "dialogue"
	EventCharacterAction   EventKind = "character_action"
	EventActingNote        EventKind = "acting_note"
	EventEnvironmentAction EventKind = "environment_action"
	EventCameraAction      EventKind = "camera_action"
)

// RequiresCharacter reports whether events of this kind must carry a
// character reference. Environment and camera events never do.
func (k EventKind) RequiresCharacter() bool {
	switch k {
	case EventDialogue, EventCharacterAction, EventActingNote:
		return true
	default:
		return false
	}
}

// ConnectingWordKind enumerates the built-in transition words.
type ConnectingWordKind string

// Connecting word kinds.
const (
	ConnectNone      ConnectingWordKind = "none"
	ConnectThen      ConnectingWordKind = "then"
	ConnectMeanwhile ConnectingWordKind = "meanwhile"
	ConnectCutTo     ConnectingWordKind = "cut_to"
	ConnectSuddenly  ConnectingWordKind = "suddenly"
	ConnectLater     ConnectingWordKind = "later"
	ConnectCustom    ConnectingWordKind = "custom"
)

// ConnectingWord describes the narrative link between a timeline event and
// the event that follows it. The custom variant carries its text in Custom;
// for every other kind Custom is ignored.
type ConnectingWord struct {
	Kind   ConnectingWordKind `yaml:"kind" json:"kind"`
	Custom string             `yaml:"custom,omitempty" json:"custom,omitempty"`
}

// CustomConnector returns a connecting word with user-provided text.
func CustomConnector(text string) ConnectingWord {
	return ConnectingWord{Kind: ConnectCustom, Custom: text}
}

// Display returns the text rendered between two events. The none sentinel
// and a custom word left blank both render as the empty string.
func (w ConnectingWord) Display() string {
	switch w.Kind {
	case ConnectThen:
		return "Then"
	case ConnectMeanwhile:
		return "Meanwhile"
	case ConnectCutTo:
		return "Cut to"
	case ConnectSuddenly:
		return "Suddenly"
	case ConnectLater:
		return "Later"
	case ConnectCustom:
		return w.Custom
	default:
		return ""
	}
}

// DialogueMannerKind enumerates the built-in delivery manners.
type DialogueMannerKind string

// Dialogue delivery manners.
const (
	MannerSays     DialogueMannerKind = "says"
	MannerShouts   DialogueMannerKind = "shouts"
	MannerWhispers DialogueMannerKind = "whispers"
	MannerMurmurs  DialogueMannerKind = "murmurs"
	MannerCustom   DialogueMannerKind = "custom"
)

// DialogueManner describes how a line of dialogue is delivered.
type DialogueManner struct {
	Kind   DialogueMannerKind `yaml:"kind" json:"kind"`
	Custom string             `yaml:"custom,omitempty" json:"custom,omitempty"`
}

// Display returns the verb placed between the speaker and the quoted line.
// An unset manner defaults to "says".
func (m DialogueManner) Display() string {
	switch m.Kind {
	case MannerShouts:
		return "shouts"
	case MannerWhispers:
		return "whispers"
	case MannerMurmurs:
		return "murmurs"
	case MannerCustom:
		if m.Custom != "" {
			return m.Custom
		}
		return "says"
	default:
		return "says"
	}
}

// EmotionalToneKind enumerates the built-in scene tones.
type EmotionalToneKind string

// Emotional tones.
const (
	ToneDramatic    EmotionalToneKind = "dramatic"
	ToneJoyful      EmotionalToneKind = "joyful"
	ToneTense       EmotionalToneKind = "tense"
	ToneMelancholic EmotionalToneKind = "melancholic"
	ToneRomantic    EmotionalToneKind = "romantic"
	ToneMysterious  EmotionalToneKind = "mysterious"
	TonePeaceful    EmotionalToneKind = "peaceful"
	ToneCustom      EmotionalToneKind = "custom"
)

// EmotionalTone is the scene's dominant mood. The custom variant carries its
// text in Custom.
type EmotionalTone struct {
	Kind   EmotionalToneKind `yaml:"kind" json:"kind"`
	Custom string            `yaml:"custom,omitempty" json:"custom,omitempty"`
}

// DefaultTone is used when parsed metadata matches no known tone.
func DefaultTone() EmotionalTone { return EmotionalTone{Kind: ToneDramatic} }

// Display returns the human-readable tone name.
func (t EmotionalTone) Display() string {
	switch t.Kind {
	case ToneJoyful:
		return "Joyful"
	case ToneTense:
		return "Tense"
	case ToneMelancholic:
		return "Melancholic"
	case ToneRomantic:
		return "Romantic"
	case ToneMysterious:
		return "Mysterious"
	case TonePeaceful:
		return "Peaceful"
	case ToneCustom:
		return t.Custom
	default:
		return "Dramatic"
	}
}

// builtinTones lists every non-custom tone for display-string matching.
var builtinTones = []EmotionalTone{
	{Kind: ToneDramatic},
	{Kind: ToneJoyful},
	{Kind: ToneTense},
	{Kind: ToneMelancholic},
	{Kind: ToneRomantic},
	{Kind: ToneMysterious},
	{Kind: TonePeaceful},
}

// ParseTone matches text against the built-in tone display strings and falls
// back to Dramatic when nothing matches.
func ParseTone(text string) EmotionalTone {
	text = strings.TrimSpace(text)
	for _, t := range builtinTones {
		if strings.EqualFold(text, t.Display()) {
			return t
		}
	}
	return DefaultTone()
}

// EstablishingShotKind enumerates the built-in opening framings.
type EstablishingShotKind string

// Establishing shot kinds.
const (
	ShotWideAngle       EstablishingShotKind = "wide_angle"
	ShotCloseUp         EstablishingShotKind = "close_up"
	ShotMediumShot      EstablishingShotKind = "medium_shot"
	ShotAerialView      EstablishingShotKind = "aerial_view"
	ShotOverTheShoulder EstablishingShotKind = "over_the_shoulder"
	ShotPointOfView     EstablishingShotKind = "point_of_view"
	ShotCustom          EstablishingShotKind = "custom"
)

// EstablishingShot is the camera framing chosen for the opening of a scene.
type EstablishingShot struct {
	Kind   EstablishingShotKind `yaml:"kind" json:"kind"`
	Custom string               `yaml:"custom,omitempty" json:"custom,omitempty"`
}

// DefaultShot is used when parsed metadata matches no known framing.
func DefaultShot() EstablishingShot { return EstablishingShot{Kind: ShotWideAngle} }

// Display returns the human-readable framing name.
func (s EstablishingShot) Display() string {
	switch s.Kind {
	case ShotCloseUp:
		return "Close-Up"
	case ShotMediumShot:
		return "Medium Shot"
	case ShotAerialView:
		return "Aerial View"
	case ShotOverTheShoulder:
		return "Over-the-Shoulder"
	case ShotPointOfView:
		return "Point of View"
	case ShotCustom:
		return s.Custom
	default:
		return "Wide Angle"
	}
}

// builtinShots lists every non-custom framing for display-string matching.
var builtinShots = []EstablishingShot{
	{Kind: ShotWideAngle},
	{Kind: ShotCloseUp},
	{Kind: ShotMediumShot},
	{Kind: ShotAerialView},
	{Kind: ShotOverTheShoulder},
	{Kind: ShotPointOfView},
}

// ParseShot matches text against the built-in framing display strings and
// falls back to Wide Angle when nothing matches.
func ParseShot(text string) EstablishingShot {
	text = strings.TrimSpace(text)
	for _, s := range builtinShots {
		if strings.EqualFold(text, s.Display()) {
			return s
		}
	}
	return DefaultShot()
}

// ShotMode selects between a single continuous take and a multi-shot scene.
type ShotMode string

// Shot modes.
const (
	ShotModeSingle ShotMode = "single"
	ShotModeMulti  ShotMode = "multi"
)

// Display returns the text used in the prompt's camera setup line.
func (m ShotMode) Display() string {
	if m == ShotModeMulti {
		return "multiple shots"
	}
	return "single continuous shot"
}

// VideoStyleKind enumerates the built-in rendering styles.
type VideoStyleKind string

// Video styles.
const (
	StyleCinematic   VideoStyleKind = "cinematic"
	StyleRealistic   VideoStyleKind = "realistic"
	StyleAnimation   VideoStyleKind = "animation"
	StyleAnime       VideoStyleKind = "anime"
	StyleDocumentary VideoStyleKind = "documentary"
	StyleCustom      VideoStyleKind = "custom"
)

// VideoStyle is the project-wide rendering style applied when formatting.
type VideoStyle struct {
	Kind   VideoStyleKind `yaml:"kind" json:"kind"`
	Custom string         `yaml:"custom,omitempty" json:"custom,omitempty"`
}

// Display returns the human-readable style name.
func (v VideoStyle) Display() string {
	switch v.Kind {
	case StyleRealistic:
		return "Photorealistic"
	case StyleAnimation:
		return "3D Animation"
	case StyleAnime:
		return "Anime"
	case StyleDocumentary:
		return "Documentary"
	case StyleCustom:
		return v.Custom
	default:
		return "Cinematic"
	}
}
