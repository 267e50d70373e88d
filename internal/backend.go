package internal

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"
	"sync"
	"time"
)

// Transport is the kind of playback backend used for a media item.
type Transport int

const (
	TransportProgressive Transport = iota
	TransportAdaptive
	TransportEmbedded
)

func (t Transport) String() string {
	switch t {
	case TransportProgressive:
		return "progressive"
	case TransportAdaptive:
		return "adaptive"
	case TransportEmbedded:
		return "embedded"
	default:
		return "unknown"
	}
}

// Backend is the playback capability the switcher drives. One adapter per
// transport is selected once per media item.
type Backend interface {
	Transport() Transport
	Play() error
	Pause()
	Paused() bool
	// Seek starts a seek; the returned channel closes when it has settled.
	Seek(t time.Duration) <-chan struct{}
	CurrentTime() time.Duration
	SetVolume(v float64)
	Volume() float64
	SetMuted(muted bool)
	Muted() bool
	SetSpeed(rate float64)
	Qualities() []string
	SwitchQuality(q string) error
	// Load reloads the element with sources. Readiness of the load is
	// reported on the channel returned by Ready.
	Load(ctx context.Context, sources []SourceDescriptor) error
	// Ready delivers nil once the last load can seek reliably, or its error.
	Ready() <-chan error
	Dispose()
}

// MediaElement is the primitive surface of a native playback element.
type MediaElement interface {
	TrackHost
	Play() error
	Pause()
	Paused() bool
	CurrentTime() time.Duration
	SetCurrentTime(t time.Duration) <-chan struct{}
	Volume() float64
	SetVolume(v float64)
	Muted() bool
	SetMuted(muted bool)
	SetPlaybackRate(rate float64)
	// Load reloads the current source set.
	Load() <-chan error
}

// StreamController is an adaptive streaming engine attached to a MediaElement.
type StreamController interface {
	LoadSource(url string) <-chan error
	Levels() []string
	CurrentLevel() int
	SetLevel(index int)
	Detach()
}

// EmbeddedPlayer is a third-party player API addressed by video id.
type EmbeddedPlayer interface {
	CueVideo(id string, start time.Duration) <-chan error
	PlayVideo()
	PauseVideo()
	IsPlaying() bool
	SeekTo(t time.Duration)
	CurrentTime() time.Duration
	SetVolume(percent int)
	Volume() int
	Mute()
	Unmute()
	IsMuted() bool
	SetPlaybackRate(rate float64)
	AvailableQualityLevels() []string
	SetPlaybackQuality(q string)
	Destroy()
}

// PosterController is implemented by hosts that show a poster image.
type PosterController interface {
	PosterVisible() bool
	SetPosterVisible(visible bool)
}

// BackendDeps holds the primitives an adapter may wrap.
type BackendDeps struct {
	Element  MediaElement
	Stream   StreamController
	Embedded EmbeddedPlayer
}

// DetectTransport picks the transport from the declared sources.
func DetectTransport(sources []SourceDescriptor) Transport {
	for _, sd := range sources {
		mime := strings.ToLower(sd.MimeType)
		switch {
		case strings.HasPrefix(mime, "video/youtube"), strings.HasPrefix(mime, "video/vimeo"),
			isEmbeddedURL(sd.URL):
			return TransportEmbedded
		case isAdaptiveMime(mime), isAdaptiveURL(sd.URL):
			return TransportAdaptive
		}
	}
	return TransportProgressive
}

// NewBackend creates the adapter for kind.
func NewBackend(kind Transport, deps BackendDeps) (Backend, error) {
	switch kind {
	case TransportProgressive:
		if deps.Element == nil {
			return nil, fmt.Errorf("%w: progressive backend needs a media element", ErrUnsupportedTransport)
		}
		return &progressiveBackend{el: deps.Element, ready: closedErrChan()}, nil
	case TransportAdaptive:
		if deps.Element == nil || deps.Stream == nil {
			return nil, fmt.Errorf("%w: adaptive backend needs an element and a stream controller", ErrUnsupportedTransport)
		}
		return &adaptiveBackend{
			progressiveBackend: progressiveBackend{el: deps.Element, ready: closedErrChan()},
			ctl:                deps.Stream,
		}, nil
	case TransportEmbedded:
		if deps.Embedded == nil {
			return nil, fmt.Errorf("%w: embedded backend needs a player", ErrUnsupportedTransport)
		}
		return &embeddedBackend{p: deps.Embedded, ready: closedErrChan()}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedTransport, kind)
	}
}

func closedErrChan() chan error {
	ch := make(chan error)
	close(ch)
	return ch
}

func closedChan() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

// progressiveBackend drives a native element playing progressive files.
type progressiveBackend struct {
	mu    sync.Mutex
	el    MediaElement
	ready <-chan error
}

func (b *progressiveBackend) Transport() Transport           { return TransportProgressive }
func (b *progressiveBackend) Play() error                    { return b.el.Play() }
func (b *progressiveBackend) Pause()                         { b.el.Pause() }
func (b *progressiveBackend) Paused() bool                   { return b.el.Paused() }
func (b *progressiveBackend) CurrentTime() time.Duration     { return b.el.CurrentTime() }
func (b *progressiveBackend) SetVolume(v float64)            { b.el.SetVolume(clampVolume(v)) }
func (b *progressiveBackend) Volume() float64                { return b.el.Volume() }
func (b *progressiveBackend) SetMuted(muted bool)            { b.el.SetMuted(muted) }
func (b *progressiveBackend) Muted() bool                    { return b.el.Muted() }
func (b *progressiveBackend) SetSpeed(rate float64)          { b.el.SetPlaybackRate(rate) }
func (b *progressiveBackend) Qualities() []string            { return nil }
func (b *progressiveBackend) Seek(t time.Duration) <-chan struct{} {
	return b.el.SetCurrentTime(t)
}

func (b *progressiveBackend) SwitchQuality(q string) error {
	return fmt.Errorf("%w: progressive sources have no quality levels", ErrUnsupportedTransport)
}

func (b *progressiveBackend) Load(ctx context.Context, sources []SourceDescriptor) error {
	b.el.SetSources(sources)
	ch := b.el.Load()
	b.mu.Lock()
	b.ready = ch
	b.mu.Unlock()
	return nil
}

func (b *progressiveBackend) Ready() <-chan error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ready
}

func (b *progressiveBackend) Dispose() {
	b.el.Pause()
	b.el.SetSources(nil)
}

// adaptiveBackend drives an element through an adaptive streaming
// controller. The selected quality level survives reloads.
type adaptiveBackend struct {
	progressiveBackend
	ctl     StreamController
	quality string
}

func (b *adaptiveBackend) Transport() Transport { return TransportAdaptive }
func (b *adaptiveBackend) Qualities() []string  { return b.ctl.Levels() }

func (b *adaptiveBackend) SwitchQuality(q string) error {
	for i, l := range b.ctl.Levels() {
		if l == q {
			b.ctl.SetLevel(i)
			b.mu.Lock()
			b.quality = q
			b.mu.Unlock()
			return nil
		}
	}
	return fmt.Errorf("%w: quality %q", ErrResourceUnavailable, q)
}

func (b *adaptiveBackend) Load(ctx context.Context, sources []SourceDescriptor) error {
	manifest := ""
	for _, sd := range sources {
		if isAdaptiveMime(sd.MimeType) || isAdaptiveURL(sd.URL) {
			manifest = sd.URL
			break
		}
	}
	if manifest == "" {
		return fmt.Errorf("%w: no adaptive manifest in source set", ErrResourceUnavailable)
	}
	b.el.SetSources(sources)
	parsed := b.ctl.LoadSource(manifest)
	ready := make(chan error, 1)
	b.mu.Lock()
	b.ready = ready
	quality := b.quality
	b.mu.Unlock()
	go func() {
		defer close(ready)
		select {
		case err := <-parsed:
			if err == nil && quality != "" {
				for i, l := range b.ctl.Levels() {
					if l == quality {
						b.ctl.SetLevel(i)
						break
					}
				}
			}
			ready <- err
		case <-ctx.Done():
			ready <- ctx.Err()
		}
	}()
	return nil
}

func (b *adaptiveBackend) Dispose() {
	b.ctl.Detach()
	b.progressiveBackend.Dispose()
}

// embeddedBackend drives a third-party player. Volume is mapped between
// 0..1 and the player's 0..100 scale.
type embeddedBackend struct {
	mu    sync.Mutex
	p     EmbeddedPlayer
	ready <-chan error
}

func (b *embeddedBackend) Transport() Transport       { return TransportEmbedded }
func (b *embeddedBackend) Play() error                { b.p.PlayVideo(); return nil }
func (b *embeddedBackend) Pause()                     { b.p.PauseVideo() }
func (b *embeddedBackend) Paused() bool               { return !b.p.IsPlaying() }
func (b *embeddedBackend) CurrentTime() time.Duration { return b.p.CurrentTime() }
func (b *embeddedBackend) Volume() float64            { return float64(b.p.Volume()) / 100 }
func (b *embeddedBackend) Muted() bool                { return b.p.IsMuted() }
func (b *embeddedBackend) SetSpeed(rate float64)      { b.p.SetPlaybackRate(rate) }
func (b *embeddedBackend) Qualities() []string        { return b.p.AvailableQualityLevels() }
func (b *embeddedBackend) Dispose()                   { b.p.Destroy() }

func (b *embeddedBackend) Seek(t time.Duration) <-chan struct{} {
	// The embedded API has no seeked notification.
	b.p.SeekTo(t)
	return closedChan()
}

func (b *embeddedBackend) SetVolume(v float64) {
	b.p.SetVolume(int(clampVolume(v)*100 + 0.5))
}

func (b *embeddedBackend) SetMuted(muted bool) {
	if muted {
		b.p.Mute()
	} else {
		b.p.Unmute()
	}
}

func (b *embeddedBackend) SwitchQuality(q string) error {
	for _, l := range b.p.AvailableQualityLevels() {
		if l == q {
			b.p.SetPlaybackQuality(q)
			return nil
		}
	}
	return fmt.Errorf("%w: quality %q", ErrResourceUnavailable, q)
}

func (b *embeddedBackend) Load(ctx context.Context, sources []SourceDescriptor) error {
	if len(sources) == 0 {
		return fmt.Errorf("%w: empty source set", ErrResourceUnavailable)
	}
	id := EmbeddedVideoID(sources[0].URL)
	if id == "" {
		return fmt.Errorf("%w: no video id in %s", ErrResourceUnavailable, sources[0].URL)
	}
	ch := b.p.CueVideo(id, b.p.CurrentTime())
	b.mu.Lock()
	b.ready = ch
	b.mu.Unlock()
	return nil
}

func (b *embeddedBackend) Ready() <-chan error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ready
}

// EmbeddedVideoID extracts the video id from an embedded-player URL. Bare
// ids are returned unchanged.
func EmbeddedVideoID(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		if strings.ContainsAny(raw, "/?") {
			return ""
		}
		return raw
	}
	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	switch {
	case host == "youtu.be":
		return strings.Trim(u.Path, "/")
	case strings.HasSuffix(host, "youtube.com"):
		if v := u.Query().Get("v"); v != "" {
			return v
		}
		return path.Base(u.Path)
	case strings.HasSuffix(host, "vimeo.com"):
		return path.Base(u.Path)
	}
	return ""
}

func isEmbeddedURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	return host == "youtu.be" || strings.HasSuffix(host, "youtube.com") || strings.HasSuffix(host, "vimeo.com")
}

func isAdaptiveURL(raw string) bool {
	ext := strings.ToLower(path.Ext(stripQuery(raw)))
	return ext == ".m3u8" || ext == ".mpd"
}

func clampVolume(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
