package internal

import (
	"strings"
	"sync"

	"golang.org/x/text/language"
)

// TrackRegistry is a memoized view over the tracks and sources of a
// TrackHost. Every structural mutation of the host must be followed by
// Invalidate before the next read.
type TrackRegistry struct {
	mu      sync.Mutex
	host    TrackHost
	dirty   bool
	tracks  []TrackDescriptor
	sources []SourceDescriptor
}

// NewTrackRegistry creates a registry over host.
func NewTrackRegistry(host TrackHost) *TrackRegistry {
	return &TrackRegistry{host: host, dirty: true}
}

// Reset rebinds the registry to the host of a new media item and discards
// the previous enumeration.
func (r *TrackRegistry) Reset(host TrackHost) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.host = host
	r.tracks = nil
	r.sources = nil
	r.dirty = true
}

// Invalidate marks the memoized enumeration stale.
func (r *TrackRegistry) Invalidate() {
	r.mu.Lock()
	r.dirty = true
	r.mu.Unlock()
}

// Host returns the bound host.
func (r *TrackRegistry) Host() TrackHost {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.host
}

// Tracks returns the tracks of the given kind and language in element order.
// Empty kind or language matches everything.
func (r *TrackRegistry) Tracks(kind TrackKind, lang string) []TrackDescriptor {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refreshLocked()
	want := canonicalLanguage(lang)
	out := make([]TrackDescriptor, 0, len(r.tracks))
	for _, td := range r.tracks {
		if kind != "" && td.Kind != kind {
			continue
		}
		if want != "" && td.Language != want {
			continue
		}
		out = append(out, td)
	}
	return out
}

// CaptionTracks returns captions and subtitles tracks.
func (r *TrackRegistry) CaptionTracks() []TrackDescriptor {
	all := r.Tracks("", "")
	out := all[:0]
	for _, td := range all {
		if td.Kind.IsCaption() {
			out = append(out, td)
		}
	}
	return out
}

// Sources returns the current source set.
func (r *TrackRegistry) Sources() []SourceDescriptor {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refreshLocked()
	out := make([]SourceDescriptor, len(r.sources))
	copy(out, r.sources)
	return out
}

func (r *TrackRegistry) refreshLocked() {
	if !r.dirty || r.host == nil {
		return
	}
	tracks := r.host.Tracks()
	r.tracks = make([]TrackDescriptor, 0, len(tracks))
	for _, t := range tracks {
		r.tracks = append(r.tracks, newTrackDescriptor(t))
	}
	r.sources = r.host.Sources()
	r.dirty = false
}

// canonicalLanguage returns the BCP 47 canonical form of a language code.
// Unparseable codes are lowercased and returned as-is.
func canonicalLanguage(lang string) string {
	lang = strings.TrimSpace(lang)
	if lang == "" {
		return ""
	}
	tag, err := language.Parse(lang)
	if err != nil {
		return strings.ToLower(lang)
	}
	return tag.String()
}
