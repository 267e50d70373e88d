package internal

import (
	"context"
	"slices"
	"strings"
)

// TrackKind is the kind of a text track on the playback element.
type TrackKind string

const (
	KindCaptions     TrackKind = "captions"
	KindSubtitles    TrackKind = "subtitles"
	KindChapters     TrackKind = "chapters"
	KindDescriptions TrackKind = "descriptions"
	KindMetadata     TrackKind = "metadata"
)

// IsCaption reports whether cues of this kind are shown as captions.
func (k TrackKind) IsCaption() bool {
	return k == KindCaptions || k == KindSubtitles
}

// TrackMode is the display mode of a text track.
type TrackMode string

const (
	ModeDisabled TrackMode = "disabled"
	ModeHidden   TrackMode = "hidden"
	ModeShowing  TrackMode = "showing"
)

// SourceDescriptor maps a playable candidate to its original and described
// counterparts. Several descriptors form the source set of a media item.
type SourceDescriptor struct {
	URL          string `json:"url"`
	MimeType     string `json:"mimeType,omitempty"`
	OriginalURL  string `json:"originalUrl,omitempty"`
	DescribedURL string `json:"describedUrl,omitempty"`
	SignURL      string `json:"signUrl,omitempty"`
}

// DescribedVariant returns the descriptor pointing at its described URL.
// Descriptors without a described URL are returned unchanged.
func (sd SourceDescriptor) DescribedVariant() SourceDescriptor {
	if sd.DescribedURL == "" {
		return sd
	}
	out := sd
	if out.OriginalURL == "" {
		out.OriginalURL = sd.URL
	}
	out.URL = sd.DescribedURL
	return out
}

// OriginalVariant returns the descriptor pointing at its original URL.
func (sd SourceDescriptor) OriginalVariant() SourceDescriptor {
	out := sd
	if sd.OriginalURL != "" {
		out.URL = sd.OriginalURL
	}
	return out
}

// TrackInfo holds the declarative attributes of a text track.
type TrackInfo struct {
	Kind         TrackKind `json:"kind"`
	Language     string    `json:"lang,omitempty"`
	Label        string    `json:"label,omitempty"`
	Src          string    `json:"src"`
	OriginalSrc  string    `json:"originalSrc,omitempty"`
	DescribedSrc string    `json:"describedSrc,omitempty"`
	SignSrc      string    `json:"signSrc,omitempty"`
	Authored     bool      `json:"authored,omitempty"`
	Default      bool      `json:"default,omitempty"`
}

// TextTrack is a caption/subtitle/chapter/description track owned by the
// playback element.
type TextTrack interface {
	Info() TrackInfo
	Mode() TrackMode
	SetMode(mode TrackMode)
	Cues() CueList
	// Loaded delivers nil once the cues are available, or the load error.
	Loaded() <-chan error
}

// TrackHost is the declarative source and track surface of the playback
// element. It is exclusively owned by the switcher during a pipeline run.
type TrackHost interface {
	Sources() []SourceDescriptor
	SetSources(sources []SourceDescriptor)
	Tracks() []TextTrack
	// ReplaceTrack structurally replaces old with a track loading src while
	// keeping kind, language, label and default-ness.
	ReplaceTrack(ctx context.Context, old TextTrack, src string) (TextTrack, error)
}

// TrackDescriptor is the registry view of one text track.
type TrackDescriptor struct {
	Track        TextTrack
	Kind         TrackKind
	Language     string
	Label        string
	URL          string
	OriginalURL  string
	DescribedURL string
	SignURL      string
	Authored     bool
	Default      bool
}

func newTrackDescriptor(t TextTrack) TrackDescriptor {
	info := t.Info()
	orig := info.OriginalSrc
	if orig == "" {
		orig = info.Src
	}
	return TrackDescriptor{
		Track:        t,
		Kind:         info.Kind,
		Language:     canonicalLanguage(info.Language),
		Label:        info.Label,
		URL:          info.Src,
		OriginalURL:  orig,
		DescribedURL: info.DescribedSrc,
		SignURL:      info.SignSrc,
		Authored:     info.Authored,
		Default:      info.Default,
	}
}

// IsDescribed reports whether the track currently points at its described URL.
func (td TrackDescriptor) IsDescribed() bool {
	return td.DescribedURL != "" && td.URL == td.DescribedURL
}

// SignLanguageSourceMap maps language codes to sign-language video URLs.
type SignLanguageSourceMap struct {
	Entries map[string]string
	Current string
}

// URL returns the sign-language URL for lang, falling back to the current entry.
func (m SignLanguageSourceMap) URL(lang string) (string, bool) {
	if len(m.Entries) == 0 {
		return "", false
	}
	if lang != "" {
		if u, ok := m.Entries[canonicalLanguage(lang)]; ok {
			return u, true
		}
	}
	u, ok := m.Entries[m.Current]
	return u, ok
}

// Languages returns the languages with a sign-language source.
func (m SignLanguageSourceMap) Languages() []string {
	out := make([]string, 0, len(m.Entries))
	for lang := range m.Entries {
		out = append(out, lang)
	}
	slices.Sort(out)
	return out
}

func isAdaptiveMime(mime string) bool {
	switch strings.ToLower(mime) {
	case "application/x-mpegurl", "application/vnd.apple.mpegurl", "application/dash+xml":
		return true
	}
	return false
}
