package internal

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ManifestVersion is the playlist manifest format version.
const ManifestVersion = 1

// Manifest is a JSON playlist of media items. Each item declares its
// sources and text tracks the way a media element would.
type Manifest struct {
	// Version of the manifest format. Required.
	Version int `json:"version"`

	// Items in playback order. Required, at least one.
	Items []MediaItem `json:"items"`
}

// MediaItem is one entry of the playlist.
type MediaItem struct {
	// Name identifies the item. Required and unique.
	Name string `json:"name"`

	// Poster is an optional image shown before playback starts.
	Poster string `json:"poster,omitempty"`

	// Sources is the default source set. Required.
	Sources []SourceDescriptor `json:"sources"`

	// Tracks are the declared text tracks.
	Tracks []TrackInfo `json:"tracks,omitempty"`
}

// GetItemByName returns the item called name or nil.
func (m *Manifest) GetItemByName(name string) *MediaItem {
	for i := range m.Items {
		if m.Items[i].Name == name {
			return &m.Items[i]
		}
	}
	return nil
}

// String returns an indented JSON representation of the manifest.
func (m *Manifest) String() string {
	jsonBytes, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Sprintf("Error marshaling manifest: %v", err)
	}
	return string(jsonBytes)
}

// ParseManifest unmarshals and checks a manifest.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal manifest: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// LoadManifest reads a manifest file. Relative source and track URLs are
// resolved against the manifest's directory.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	m, err := ParseManifest(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	m.resolveRelative(filepath.Dir(path))
	return m, nil
}

// Validate checks the required fields.
func (m *Manifest) Validate() error {
	if m.Version != ManifestVersion {
		return fmt.Errorf("unsupported manifest version %d", m.Version)
	}
	if len(m.Items) == 0 {
		return fmt.Errorf("manifest has no items")
	}
	seen := make(map[string]bool, len(m.Items))
	for i, it := range m.Items {
		if it.Name == "" {
			return fmt.Errorf("item %d: missing name", i)
		}
		if seen[it.Name] {
			return fmt.Errorf("item %d: duplicate name %q", i, it.Name)
		}
		seen[it.Name] = true
		if len(it.Sources) == 0 {
			return fmt.Errorf("item %q: no sources", it.Name)
		}
		for j, sd := range it.Sources {
			if sd.URL == "" {
				return fmt.Errorf("item %q: source %d has no url", it.Name, j)
			}
		}
		for j, ti := range it.Tracks {
			if ti.Src == "" {
				return fmt.Errorf("item %q: track %d has no src", it.Name, j)
			}
			if ti.Kind == "" {
				return fmt.Errorf("item %q: track %d has no kind", it.Name, j)
			}
		}
	}
	return nil
}

func (m *Manifest) resolveRelative(dir string) {
	for i := range m.Items {
		it := &m.Items[i]
		for j := range it.Sources {
			sd := &it.Sources[j]
			sd.URL = resolveAgainst(dir, sd.URL)
			sd.OriginalURL = resolveAgainst(dir, sd.OriginalURL)
			sd.DescribedURL = resolveAgainst(dir, sd.DescribedURL)
			sd.SignURL = resolveAgainst(dir, sd.SignURL)
		}
		for j := range it.Tracks {
			ti := &it.Tracks[j]
			ti.Src = resolveAgainst(dir, ti.Src)
			ti.OriginalSrc = resolveAgainst(dir, ti.OriginalSrc)
			ti.DescribedSrc = resolveAgainst(dir, ti.DescribedSrc)
			ti.SignSrc = resolveAgainst(dir, ti.SignSrc)
		}
	}
}

func resolveAgainst(dir, ref string) string {
	if ref == "" || isHTTPURL(ref) || strings.HasPrefix(ref, "file://") || filepath.IsAbs(ref) {
		return ref
	}
	return filepath.Join(dir, ref)
}
