package internal

import (
	"fmt"
	"time"
)

// Rendition is a complete alternative version of a media item mapped onto
// the same playback slot.
type Rendition int

const (
	RenditionDefault Rendition = iota
	RenditionDescribed
	RenditionSignLanguageMain
)

func (r Rendition) String() string {
	switch r {
	case RenditionDefault:
		return "default"
	case RenditionDescribed:
		return "described"
	case RenditionSignLanguageMain:
		return "signLanguageMain"
	default:
		return "unknown"
	}
}

// Family identifies an alternate rendition that can be toggled on top of the
// default rendition.
type Family int

const (
	FamilyDescribed Family = iota + 1
	FamilySignLanguage
)

func (f Family) String() string {
	switch f {
	case FamilyDescribed:
		return "described"
	case FamilySignLanguage:
		return "signLanguage"
	default:
		return fmt.Sprintf("family(%d)", int(f))
	}
}

// Rendition returns the rendition that is authoritative when the family is on.
func (f Family) Rendition() Rendition {
	switch f {
	case FamilyDescribed:
		return RenditionDescribed
	case FamilySignLanguage:
		return RenditionSignLanguageMain
	default:
		return RenditionDefault
	}
}

// ParseFamily maps a user-facing name to a Family.
func ParseFamily(name string) (Family, error) {
	switch name {
	case "described", "description", "audio-description", "ad":
		return FamilyDescribed, nil
	case "sign", "signLanguage", "sign-language", "asl":
		return FamilySignLanguage, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownFamily, name)
	}
}

// SwapIntent is the latest requested state of a family. It is replaced on
// every request and never queued.
type SwapIntent struct {
	DesiredEnabled  bool
	DesiredLanguage string
}

// matches reports whether the intent is satisfied by an applied state.
func (si SwapIntent) matches(enabled bool, language string) bool {
	if si.DesiredEnabled != enabled {
		return false
	}
	if !enabled || si.DesiredLanguage == "" {
		return true
	}
	return si.DesiredLanguage == language
}

// PlaybackSnapshot captures the viewer-perceived state right before a swap.
type PlaybackSnapshot struct {
	Time              time.Duration
	WasPlaying        bool
	WasMuted          bool
	Volume            float64
	ActiveCaptionText string
	CaptionKind       TrackKind
	CaptionLanguage   string
	PosterVisible     bool
}

// MatchMethod tells how a SyncAnchor was found.
type MatchMethod int

const (
	MatchNone MatchMethod = iota
	MatchExact
	MatchFuzzy
)

func (m MatchMethod) String() string {
	switch m {
	case MatchExact:
		return "exact"
	case MatchFuzzy:
		return "fuzzy"
	default:
		return "none"
	}
}

// SyncAnchor is the result of resynchronizing a playback time into a new
// rendition. MatchedTargetTime is nil when the source time is used verbatim.
type SyncAnchor struct {
	SourceTime        time.Duration
	MatchedTargetTime *time.Duration
	MatchConfidence   float64
	Method            MatchMethod
}

// Target returns the time to seek to in the new rendition.
func (a SyncAnchor) Target() time.Duration {
	if a.MatchedTargetTime != nil {
		return *a.MatchedTargetTime
	}
	return a.SourceTime
}

// EventType is the kind of a committed switcher event.
type EventType int

const (
	EventRenditionEnabled EventType = iota
	EventRenditionDisabled
	EventLanguageChanged
)

func (e EventType) String() string {
	switch e {
	case EventRenditionEnabled:
		return "rendition-enabled"
	case EventRenditionDisabled:
		return "rendition-disabled"
	case EventLanguageChanged:
		return "language-changed"
	default:
		return "unknown"
	}
}

// Event is delivered to observers after a successful commit only.
type Event struct {
	Type      EventType
	Family    Family
	Rendition Rendition
	Language  string
	Anchor    SyncAnchor
}

// Observer receives committed events.
type Observer func(Event)
