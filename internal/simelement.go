package internal

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// CueFetcher loads the cues of a track URL.
type CueFetcher func(ctx context.Context, url string) (CueList, error)

// SimElement is an in-memory media element. It implements MediaElement and
// PosterController and is used by the simulate command and in tests.
// Time only moves through Advance.
type SimElement struct {
	mu        sync.Mutex
	sources   []SourceDescriptor
	tracks    []*simTrack
	fetch     CueFetcher
	time      time.Duration
	paused    bool
	volume    float64
	muted     bool
	rate      float64
	poster    bool
	loads     int
	missing   map[string]bool
	loadDelay time.Duration
	durations map[string]time.Duration
}

// NewSimElement creates an element declaring sources and tracks. fetch
// resolves track URLs to cues; nil gives empty tracks.
func NewSimElement(sources []SourceDescriptor, tracks []TrackInfo, fetch CueFetcher) *SimElement {
	if fetch == nil {
		fetch = func(context.Context, string) (CueList, error) { return nil, nil }
	}
	e := &SimElement{
		sources:   append([]SourceDescriptor(nil), sources...),
		fetch:     fetch,
		paused:    true,
		volume:    1,
		rate:      1,
		poster:    true,
		missing:   make(map[string]bool),
		durations: make(map[string]time.Duration),
	}
	for _, info := range tracks {
		mode := ModeDisabled
		if info.Default && info.Kind.IsCaption() {
			mode = ModeShowing
		}
		// Declared tracks are loaded before the element is handed out.
		cues, err := fetch(context.Background(), info.Src)
		t := &simTrack{info: info, mode: mode, cues: cues, loaded: make(chan error, 1)}
		t.loaded <- err
		close(t.loaded)
		e.tracks = append(e.tracks, t)
	}
	return e
}

// SetMissing marks url as failing to load.
func (e *SimElement) SetMissing(url string) {
	e.mu.Lock()
	e.missing[url] = true
	e.mu.Unlock()
}

// SetLoadDelay delays readiness after each Load.
func (e *SimElement) SetLoadDelay(d time.Duration) {
	e.mu.Lock()
	e.loadDelay = d
	e.mu.Unlock()
}

// SetDuration declares the media duration of a source URL; seeks clamp to it.
func (e *SimElement) SetDuration(url string, d time.Duration) {
	e.mu.Lock()
	e.durations[url] = d
	e.mu.Unlock()
}

// Advance moves playback forward by d when playing.
func (e *SimElement) Advance(d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.paused {
		e.time = e.clampLocked(e.time + d)
	}
}

// Loads returns how many times the element was reloaded.
func (e *SimElement) Loads() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loads
}

func (e *SimElement) Sources() []SourceDescriptor {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]SourceDescriptor(nil), e.sources...)
}

func (e *SimElement) SetSources(sources []SourceDescriptor) {
	e.mu.Lock()
	e.sources = append([]SourceDescriptor(nil), sources...)
	e.mu.Unlock()
}

func (e *SimElement) Tracks() []TextTrack {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]TextTrack, len(e.tracks))
	for i, t := range e.tracks {
		out[i] = t
	}
	return out
}

func (e *SimElement) ReplaceTrack(ctx context.Context, old TextTrack, src string) (TextTrack, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, t := range e.tracks {
		if TextTrack(t) != old {
			continue
		}
		info := t.Info()
		if info.OriginalSrc == "" {
			info.OriginalSrc = info.Src
		}
		info.Src = src
		nt := newSimTrack(ctx, info, ModeDisabled, e.fetch)
		e.tracks[i] = nt
		return nt, nil
	}
	return nil, fmt.Errorf("%w: track not on element", ErrResourceUnavailable)
}

func (e *SimElement) Play() error {
	e.mu.Lock()
	e.paused = false
	e.poster = false
	e.mu.Unlock()
	return nil
}

func (e *SimElement) Pause() {
	e.mu.Lock()
	e.paused = true
	e.mu.Unlock()
}

func (e *SimElement) Paused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.paused
}

func (e *SimElement) CurrentTime() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.time
}

func (e *SimElement) SetCurrentTime(t time.Duration) <-chan struct{} {
	e.mu.Lock()
	e.time = e.clampLocked(t)
	e.mu.Unlock()
	return closedChan()
}

func (e *SimElement) Volume() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.volume
}

func (e *SimElement) SetVolume(v float64) {
	e.mu.Lock()
	e.volume = v
	e.mu.Unlock()
}

func (e *SimElement) Muted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.muted
}

func (e *SimElement) SetMuted(muted bool) {
	e.mu.Lock()
	e.muted = muted
	e.mu.Unlock()
}

func (e *SimElement) SetPlaybackRate(rate float64) {
	e.mu.Lock()
	e.rate = rate
	e.mu.Unlock()
}

func (e *SimElement) PosterVisible() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.poster
}

func (e *SimElement) SetPosterVisible(visible bool) {
	e.mu.Lock()
	e.poster = visible
	e.mu.Unlock()
}

// Load reloads the source set like a native element: playback pauses, time
// returns to zero and the poster shows again. The first source decides
// success.
func (e *SimElement) Load() <-chan error {
	e.mu.Lock()
	e.loads++
	e.paused = true
	e.poster = true
	e.time = 0
	var err error
	if len(e.sources) == 0 {
		err = fmt.Errorf("%w: empty source set", ErrResourceUnavailable)
	} else if e.missing[e.sources[0].URL] {
		err = fmt.Errorf("%w: %s", ErrResourceUnavailable, e.sources[0].URL)
	}
	delay := e.loadDelay
	e.mu.Unlock()

	ch := make(chan error, 1)
	if delay <= 0 {
		ch <- err
		close(ch)
		return ch
	}
	time.AfterFunc(delay, func() {
		ch <- err
		close(ch)
	})
	return ch
}

func (e *SimElement) clampLocked(t time.Duration) time.Duration {
	if t < 0 {
		return 0
	}
	if len(e.sources) > 0 {
		if d, ok := e.durations[e.sources[0].URL]; ok && t > d {
			return d
		}
	}
	return t
}

// simTrack is a text track of a SimElement.
type simTrack struct {
	mu     sync.Mutex
	info   TrackInfo
	mode   TrackMode
	cues   CueList
	loaded chan error
}

func newSimTrack(ctx context.Context, info TrackInfo, mode TrackMode, fetch CueFetcher) *simTrack {
	t := &simTrack{info: info, mode: mode, loaded: make(chan error, 1)}
	go func() {
		cues, err := fetch(ctx, info.Src)
		t.mu.Lock()
		t.cues = cues
		t.mu.Unlock()
		t.loaded <- err
		close(t.loaded)
	}()
	return t
}

func (t *simTrack) Info() TrackInfo {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.info
}

func (t *simTrack) Mode() TrackMode {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.mode
}

func (t *simTrack) SetMode(mode TrackMode) {
	t.mu.Lock()
	t.mode = mode
	t.mu.Unlock()
}

func (t *simTrack) Cues() CueList {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cues
}

func (t *simTrack) Loaded() <-chan error { return t.loaded }
