package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SwapState is the pipeline step the switcher is in.
type SwapState int

const (
	StateSettled SwapState = iota
	StateSwappingSources
	StateAwaitingReady
	StateResyncing
	StateRestoringPlayback
)

func (s SwapState) String() string {
	switch s {
	case StateSettled:
		return "settled"
	case StateSwappingSources:
		return "swappingSources"
	case StateAwaitingReady:
		return "awaitingReady"
	case StateResyncing:
		return "resyncing"
	case StateRestoringPlayback:
		return "restoringPlayback"
	default:
		return "unknown"
	}
}

// Item is one media item as seen by the switcher: its declarative host and
// the backend selected for it.
type Item struct {
	Name    string
	Host    TrackHost
	Backend Backend
}

// NewItem selects the backend for host once, from its declared sources.
func NewItem(name string, host TrackHost, deps BackendDeps) (Item, error) {
	kind := DetectTransport(host.Sources())
	b, err := NewBackend(kind, deps)
	if err != nil {
		return Item{}, fmt.Errorf("item %s: %w", name, err)
	}
	return Item{Name: name, Host: host, Backend: b}, nil
}

// familyState tracks one alternate family. applied is what the element
// mechanically shows, committed what observers were told.
type familyState struct {
	intent        SwapIntent
	applied       bool
	appliedLang   string
	committed     bool
	committedLang string
}

// Switcher is the source swap state machine. Requests only replace the
// per-family intent; a single pipeline converges the element toward the
// latest intents and re-checks them before committing. Enabling one family
// drives the other one's intent off, so at most one alternate is applied.
type Switcher struct {
	cfg       Config
	logger    *slog.Logger
	registry  *TrackRegistry
	validator *Validator
	resync    *ResyncEngine

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu          sync.Mutex
	item        Item
	resolution  Resolution
	families    map[Family]*familyState
	// itemSources is the original source set of the loaded item.
	itemSources []SourceDescriptor
	state       SwapState
	running     bool
	idle        chan struct{}
	closed      bool
	observers   map[int]Observer
	nextObsID   int
}

// SwitcherOption configures a Switcher.
type SwitcherOption func(*switcherOptions)

type switcherOptions struct {
	logger *slog.Logger
	prober Prober
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) SwitcherOption {
	return func(o *switcherOptions) { o.logger = l }
}

// WithProber replaces the HTTP existence prober.
func WithProber(p Prober) SwitcherOption {
	return func(o *switcherOptions) { o.prober = p }
}

// NewSwitcher creates a Switcher. cfg nil selects DefaultConfig.
func NewSwitcher(cfg *Config, opts ...SwitcherOption) *Switcher {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	o := switcherOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = discardLogger()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Switcher{
		cfg:       *cfg,
		logger:    o.logger,
		registry:  NewTrackRegistry(nil),
		validator: NewValidator(o.prober, cfg.Probe, o.logger),
		resync:    NewResyncEngine(cfg.Resync, o.logger),
		ctx:       ctx,
		cancel:    cancel,
		families: map[Family]*familyState{
			FamilyDescribed:    {},
			FamilySignLanguage: {},
		},
		idle:      closedChan(),
		observers: make(map[int]Observer),
	}
	return s
}

// Subscribe registers o for committed events and returns a function that
// removes it.
func (s *Switcher) Subscribe(o Observer) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextObsID
	s.nextObsID++
	s.observers[id] = o
	return func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.mu.Unlock()
	}
}

// LoadItem binds the switcher to a new media item after the current
// pipeline settles. Families that were on are re-applied when the new item
// offers them and switched off otherwise.
func (s *Switcher) LoadItem(ctx context.Context, item Item) error {
	s.mu.Lock()
	// Requests arriving while we wait may start another run, so the item is
	// only replaced once no run holds the element and s.mu is held.
	for s.running {
		idle := s.idle
		s.mu.Unlock()
		select {
		case <-idle:
		case <-ctx.Done():
			return ctx.Err()
		}
		s.mu.Lock()
	}
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	prev := s.item.Backend
	s.item = item
	s.registry.Reset(item.Host)
	s.validator.Forget()
	s.itemSources = originalSources(s.registry.Sources())
	s.resolution = Resolve(s.itemSources, s.registry.Tracks("", "")).ForTransport(transportOf(item.Backend))

	var events []Event
	for _, f := range []Family{FamilyDescribed, FamilySignLanguage} {
		fs := s.families[f]
		fs.applied = false
		fs.appliedLang = ""
		if !fs.intent.DesiredEnabled && !fs.committed {
			continue
		}
		if s.resolution.IsAvailable(f) {
			fs.intent.DesiredEnabled = true
			if _, ok := s.resolution.SignLanguage.Entries[fs.intent.DesiredLanguage]; f == FamilySignLanguage && !ok {
				fs.intent.DesiredLanguage = ""
			}
			continue
		}
		fs.intent = SwapIntent{}
		if fs.committed {
			fs.committed = false
			fs.committedLang = ""
			events = append(events, Event{Type: EventRenditionDisabled, Family: f, Rendition: RenditionDefault})
		}
	}
	s.startLocked()
	res := s.resolution
	observers := s.observersLocked()
	s.mu.Unlock()

	if prev != nil && prev != item.Backend {
		prev.Dispose()
	}
	s.logger.Info("media item loaded",
		"item", item.Name,
		"transport", transportName(item.Backend),
		"described", res.IsAvailable(FamilyDescribed),
		"signLanguage", res.IsAvailable(FamilySignLanguage))
	notify(observers, events)
	return nil
}

// EnableOption configures Enable.
type EnableOption func(*SwapIntent)

// WithLanguage preselects the language of a sign-language rendition.
func WithLanguage(lang string) EnableOption {
	return func(si *SwapIntent) { si.DesiredLanguage = canonicalLanguage(lang) }
}

// Enable requests the family's rendition.
func (s *Switcher) Enable(f Family, opts ...EnableOption) error {
	intent := SwapIntent{DesiredEnabled: true}
	for _, opt := range opts {
		opt(&intent)
	}
	return s.request(f, func(SwapIntent) SwapIntent { return intent })
}

// Disable requests the default rendition for the family.
func (s *Switcher) Disable(f Family) error {
	return s.request(f, func(SwapIntent) SwapIntent { return SwapIntent{} })
}

// Toggle flips the latest intent of the family.
func (s *Switcher) Toggle(f Family) error {
	return s.request(f, func(cur SwapIntent) SwapIntent {
		return SwapIntent{DesiredEnabled: !cur.DesiredEnabled, DesiredLanguage: cur.DesiredLanguage}
	})
}

// SwitchLanguage selects the sign-language language. An applied rendition
// is re-pointed without a full swap; otherwise it is enabled with lang.
func (s *Switcher) SwitchLanguage(f Family, lang string) error {
	return s.request(f, func(SwapIntent) SwapIntent {
		return SwapIntent{DesiredEnabled: true, DesiredLanguage: canonicalLanguage(lang)}
	})
}

func (s *Switcher) request(f Family, next func(SwapIntent) SwapIntent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	fs, ok := s.families[f]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownFamily, f)
	}
	if s.item.Backend == nil {
		return ErrNoMediaItem
	}
	intent := next(fs.intent)
	if f != FamilySignLanguage {
		intent.DesiredLanguage = ""
	}
	if intent.DesiredEnabled && !s.resolution.IsAvailable(f) {
		return fmt.Errorf("%w: %s", ErrRenditionUnavailable, f)
	}
	if intent.DesiredEnabled && intent.DesiredLanguage != "" {
		if _, ok := s.resolution.SignLanguage.Entries[intent.DesiredLanguage]; !ok {
			return fmt.Errorf("%w: %s language %s", ErrRenditionUnavailable, f, intent.DesiredLanguage)
		}
	}
	fs.intent = intent
	if intent.DesiredEnabled {
		for g, other := range s.families {
			if g != f && other.intent.DesiredEnabled {
				s.logger.Debug("switching off other rendition", "family", g.String(), "for", f.String())
				other.intent = SwapIntent{}
			}
		}
	}
	s.startLocked()
	return nil
}

// startLocked spawns the pipeline unless one is running or every family
// already matches its intent.
func (s *Switcher) startLocked() {
	if s.running {
		return
	}
	if _, ok := s.nextLocked(); !ok {
		return
	}
	s.running = true
	s.idle = make(chan struct{})
	s.wg.Add(1)
	go s.run()
}

// nextLocked picks the family to converge next. Families being switched
// off go first so the element never carries two alternates.
func (s *Switcher) nextLocked() (Family, bool) {
	var pending []Family
	for _, f := range []Family{FamilyDescribed, FamilySignLanguage} {
		fs := s.families[f]
		if fs.intent.matches(fs.applied, fs.appliedLang) {
			continue
		}
		if fs.applied && !fs.intent.DesiredEnabled {
			return f, true
		}
		pending = append(pending, f)
	}
	if len(pending) == 0 {
		return 0, false
	}
	return pending[0], true
}

// WaitSettled blocks until no pipeline is in flight.
func (s *Switcher) WaitSettled(ctx context.Context) error {
	s.mu.Lock()
	idle := s.idle
	s.mu.Unlock()
	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsAvailable reports whether the loaded item offers the family.
func (s *Switcher) IsAvailable(f Family) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolution.IsAvailable(f)
}

// Resolution returns the alternate renditions of the loaded item.
func (s *Switcher) Resolution() Resolution {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolution
}

// Rendition returns the committed authoritative rendition.
func (s *Switcher) Rendition() Rendition {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.families[FamilyDescribed].committed:
		return RenditionDescribed
	case s.families[FamilySignLanguage].committed:
		return RenditionSignLanguageMain
	default:
		return RenditionDefault
	}
}

// Language returns the committed language of the family.
func (s *Switcher) Language(f Family) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fs, ok := s.families[f]; ok {
		return fs.committedLang
	}
	return ""
}

// State returns the current pipeline step.
func (s *Switcher) State() SwapState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Close stops the switcher and disposes the backend of the loaded item.
func (s *Switcher) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	backend := s.item.Backend
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
	if backend != nil {
		backend.Dispose()
	}
}

func (s *Switcher) setState(st SwapState) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// run converges the families toward their intents, one pipeline at a time.
func (s *Switcher) run() {
	defer s.wg.Done()
	for {
		s.mu.Lock()
		f, ok := s.nextLocked()
		if s.ctx.Err() != nil || !ok {
			s.settleLocked()
			s.mu.Unlock()
			return
		}
		fs := s.families[f]
		intent := fs.intent
		item := s.item
		applied := fs.applied
		s.mu.Unlock()

		logger := s.logger.With(
			"family", f.String(),
			"swapID", uuid.NewString(),
			"item", item.Name)

		var (
			anchor SyncAnchor
			lang   string
			err    error
		)
		if intent.DesiredEnabled && applied && f == FamilySignLanguage {
			lang, anchor, err = s.repoint(item, intent.DesiredLanguage, logger)
		} else {
			lang, anchor, err = s.swap(item, f, intent, logger)
		}

		s.mu.Lock()
		if err != nil {
			logger.Warn("swap failed, staying on previous rendition", "error", err)
			if fs.intent == intent {
				fs.intent = SwapIntent{DesiredEnabled: fs.applied, DesiredLanguage: fs.appliedLang}
			}
			if fs.applied && !intent.DesiredEnabled {
				// The family could not be switched off; whatever waited on
				// it stays on its previous rendition too.
				s.yieldLocked(f)
			}
			s.mu.Unlock()
			continue
		}
		fs.applied = intent.DesiredEnabled
		fs.appliedLang = lang
		if !fs.intent.matches(fs.applied, fs.appliedLang) {
			logger.Info("intent changed during swap, reconciling",
				"reached", fs.applied,
				"desired", fs.intent.DesiredEnabled,
				"reason", ErrIntentSuperseded)
			s.mu.Unlock()
			continue
		}
		events := s.commitLocked(f, fs, anchor)
		observers := s.observersLocked()
		s.mu.Unlock()

		for _, ev := range events {
			logger.Info("rendition committed",
				"event", ev.Type.String(),
				"rendition", ev.Rendition.String(),
				"lang", ev.Language,
				"anchor", ev.Anchor.Target(),
				"match", ev.Anchor.Method.String())
		}
		notify(observers, events)
	}
}

// yieldLocked drops the pending enables of every family but f.
func (s *Switcher) yieldLocked(f Family) {
	for g, other := range s.families {
		if g != f && !other.applied && other.intent.DesiredEnabled {
			other.intent = SwapIntent{}
		}
	}
}

func (s *Switcher) settleLocked() {
	s.state = StateSettled
	if s.running {
		s.running = false
		close(s.idle)
	}
}

// commitLocked records the applied state as committed and returns the
// events announcing the change.
func (s *Switcher) commitLocked(f Family, fs *familyState, anchor SyncAnchor) []Event {
	var events []Event
	switch {
	case fs.committed != fs.applied && fs.applied:
		events = append(events, Event{
			Type: EventRenditionEnabled, Family: f, Rendition: f.Rendition(),
			Language: fs.appliedLang, Anchor: anchor,
		})
	case fs.committed != fs.applied:
		events = append(events, Event{
			Type: EventRenditionDisabled, Family: f, Rendition: RenditionDefault, Anchor: anchor,
		})
	case fs.applied && fs.committedLang != fs.appliedLang:
		events = append(events, Event{
			Type: EventLanguageChanged, Family: f, Rendition: f.Rendition(),
			Language: fs.appliedLang, Anchor: anchor,
		})
	}
	fs.committed = fs.applied
	fs.committedLang = fs.appliedLang
	return events
}

func (s *Switcher) observersLocked() []Observer {
	out := make([]Observer, 0, len(s.observers))
	for i := 0; i < s.nextObsID; i++ {
		if o, ok := s.observers[i]; ok {
			out = append(out, o)
		}
	}
	return out
}

func notify(observers []Observer, events []Event) {
	for _, ev := range events {
		for _, o := range observers {
			o(ev)
		}
	}
}

// swap runs the full pipeline toward intent and returns the applied
// language and the resync anchor. On failure the element is rolled back.
func (s *Switcher) swap(item Item, f Family, intent SwapIntent, logger *slog.Logger) (string, SyncAnchor, error) {
	ctx := s.ctx
	b := item.Backend
	snap := s.capture(item)
	logger.Info("starting swap",
		"enable", intent.DesiredEnabled,
		"time", snap.Time,
		"playing", snap.WasPlaying,
		"caption", snap.ActiveCaptionText)

	s.setState(StateSwappingSources)
	prevSources := s.registry.Sources()
	prevTracks := s.registry.Tracks("", "")
	sources, batch, lang, err := s.plan(f, intent, prevSources, prevTracks)
	if err != nil {
		return "", SyncAnchor{}, err
	}

	b.Pause()
	if s.cfg.Swap.MuteDuringSwap {
		b.SetMuted(true)
	}
	report := s.validator.SwapTracks(ctx, item.Host, batch)
	s.registry.Invalidate()
	if len(report.Skipped) > 0 {
		logger.Info("some caption tracks kept their current source",
			"swapped", len(report.Swapped),
			"skipped", len(report.Skipped))
	}

	reload := !sameSources(prevSources, sources)
	if reload {
		if err := b.Load(ctx, sources); err != nil {
			s.rollback(item, snap, prevSources, prevTracks, logger)
			return "", SyncAnchor{}, err
		}
		s.registry.Invalidate()
		s.setState(StateAwaitingReady)
		if err := waitSignal(ctx, b.Ready(), s.cfg.Swap.ReadyTimeout.Duration); err != nil {
			switch {
			case errors.Is(err, ErrReadyTimeout):
				logger.Warn("backend not ready in time, continuing", "timeout", s.cfg.Swap.ReadyTimeout.Duration)
			case ctx.Err() != nil:
				return "", SyncAnchor{}, fmt.Errorf("%w: %v", ErrClosed, err)
			default:
				s.rollback(item, snap, prevSources, prevTracks, logger)
				return "", SyncAnchor{}, err
			}
		}
	}

	s.setState(StateResyncing)
	anchor := SyncAnchor{SourceTime: snap.Time}
	if f == FamilyDescribed && (reload || len(report.Swapped) > 0) {
		anchor = s.resync.Resync(snap, s.targetTrack(snap))
	}

	s.setState(StateRestoringPlayback)
	s.restore(item, snap, anchor.Target(), logger)
	return lang, anchor, nil
}

// repoint switches an applied sign-language rendition to another language
// without touching caption tracks.
func (s *Switcher) repoint(item Item, lang string, logger *slog.Logger) (string, SyncAnchor, error) {
	ctx := s.ctx
	b := item.Backend
	s.mu.Lock()
	url, ok := s.resolution.SignLanguage.URL(lang)
	s.mu.Unlock()
	if !ok {
		return "", SyncAnchor{}, fmt.Errorf("%w: sign language %s", ErrRenditionUnavailable, lang)
	}
	snap := s.capture(item)
	anchor := SyncAnchor{SourceTime: snap.Time}
	prevSources := s.registry.Sources()
	sources := []SourceDescriptor{{URL: url, MimeType: mimeFromURL(url)}}
	if sameSources(prevSources, sources) {
		return lang, anchor, nil
	}
	logger.Info("re-pointing sign language source", "lang", lang, "url", url)

	s.setState(StateSwappingSources)
	b.Pause()
	if err := b.Load(ctx, sources); err != nil {
		s.rollback(item, snap, prevSources, nil, logger)
		return "", SyncAnchor{}, err
	}
	s.registry.Invalidate()
	s.setState(StateAwaitingReady)
	if err := waitSignal(ctx, b.Ready(), s.cfg.Swap.ReadyTimeout.Duration); err != nil {
		switch {
		case errors.Is(err, ErrReadyTimeout):
			logger.Warn("backend not ready in time, continuing", "timeout", s.cfg.Swap.ReadyTimeout.Duration)
		case ctx.Err() != nil:
			return "", SyncAnchor{}, fmt.Errorf("%w: %v", ErrClosed, err)
		default:
			s.rollback(item, snap, prevSources, nil, logger)
			return "", SyncAnchor{}, err
		}
	}
	s.setState(StateRestoringPlayback)
	s.restore(item, snap, snap.Time, logger)
	return lang, anchor, nil
}

// plan computes the target source set and caption batch for intent.
func (s *Switcher) plan(f Family, intent SwapIntent, sources []SourceDescriptor,
	tracks []TrackDescriptor) ([]SourceDescriptor, []TrackSwap, string, error) {
	switch f {
	case FamilyDescribed:
		out := make([]SourceDescriptor, len(sources))
		var batch []TrackSwap
		for i, sd := range sources {
			if intent.DesiredEnabled {
				out[i] = sd.DescribedVariant()
			} else {
				out[i] = sd.OriginalVariant()
			}
		}
		for _, td := range tracks {
			switch {
			case intent.DesiredEnabled && td.Authored && td.DescribedURL != "" && td.URL != td.DescribedURL:
				batch = append(batch, TrackSwap{Track: td, URL: td.DescribedURL, Validate: true})
			case !intent.DesiredEnabled && td.OriginalURL != "" && td.URL != td.OriginalURL:
				batch = append(batch, TrackSwap{Track: td, URL: td.OriginalURL})
			}
		}
		return out, batch, "", nil
	case FamilySignLanguage:
		s.mu.Lock()
		defer s.mu.Unlock()
		if !intent.DesiredEnabled {
			return slices.Clone(s.itemSources), nil, "", nil
		}
		lang := intent.DesiredLanguage
		if lang == "" {
			lang = s.resolution.SignLanguage.Current
		}
		url, ok := s.resolution.SignLanguage.URL(lang)
		if !ok {
			return nil, nil, "", fmt.Errorf("%w: sign language %s", ErrRenditionUnavailable, lang)
		}
		return []SourceDescriptor{{URL: url, MimeType: mimeFromURL(url)}}, nil, lang, nil
	default:
		return nil, nil, "", fmt.Errorf("%w: %s", ErrUnknownFamily, f)
	}
}

// capture takes the playback snapshot before any mutation.
func (s *Switcher) capture(item Item) PlaybackSnapshot {
	b := item.Backend
	snap := PlaybackSnapshot{
		Time:       b.CurrentTime(),
		WasPlaying: !b.Paused(),
		WasMuted:   b.Muted(),
		Volume:     b.Volume(),
	}
	if pc, ok := item.Host.(PosterController); ok {
		snap.PosterVisible = pc.PosterVisible()
	}
	if td, ok := s.activeCaptionTrack(); ok {
		if cue, ok := td.Track.Cues().ActiveAt(snap.Time); ok {
			snap.ActiveCaptionText = cue.Text
			snap.CaptionKind = td.Kind
			snap.CaptionLanguage = td.Language
		}
	}
	return snap
}

// activeCaptionTrack prefers a showing caption track, then a hidden one,
// then any caption track.
func (s *Switcher) activeCaptionTrack() (TrackDescriptor, bool) {
	tracks := s.registry.CaptionTracks()
	for _, mode := range []TrackMode{ModeShowing, ModeHidden} {
		for _, td := range tracks {
			if td.Track.Mode() == mode {
				return td, true
			}
		}
	}
	if len(tracks) > 0 {
		return tracks[0], true
	}
	return TrackDescriptor{}, false
}

// targetTrack finds the (possibly swapped) track matching the snapshot's caption.
func (s *Switcher) targetTrack(snap PlaybackSnapshot) TextTrack {
	if snap.ActiveCaptionText == "" {
		return nil
	}
	tracks := s.registry.Tracks(snap.CaptionKind, snap.CaptionLanguage)
	for _, td := range tracks {
		if td.Track.Mode() == ModeShowing {
			return td.Track
		}
	}
	if len(tracks) > 0 {
		return tracks[0].Track
	}
	return nil
}

// restore seeks to t and puts back play state, volume, mute and poster
// exactly as captured.
func (s *Switcher) restore(item Item, snap PlaybackSnapshot, t time.Duration, logger *slog.Logger) {
	b := item.Backend
	seeked := b.Seek(t)
	timer := time.NewTimer(s.cfg.Swap.SeekTimeout.Duration)
	select {
	case <-seeked:
	case <-timer.C:
		logger.Warn("seek not settled in time, continuing", "target", t)
	case <-s.ctx.Done():
	}
	timer.Stop()
	b.SetVolume(snap.Volume)
	b.SetMuted(snap.WasMuted)
	if snap.WasPlaying {
		if err := b.Play(); err != nil {
			logger.Warn("could not resume playback", "error", err)
		}
	} else {
		b.Pause()
	}
	if pc, ok := item.Host.(PosterController); ok {
		pc.SetPosterVisible(snap.PosterVisible)
	}
}

// rollback puts the previous source and track sets back and restores the
// snapshot. Errors are logged only.
func (s *Switcher) rollback(item Item, snap PlaybackSnapshot, sources []SourceDescriptor,
	tracks []TrackDescriptor, logger *slog.Logger) {
	ctx := s.ctx
	if tracks != nil {
		current := s.registry.Tracks("", "")
		var batch []TrackSwap
		for i, td := range current {
			if i < len(tracks) && td.URL != tracks[i].URL {
				batch = append(batch, TrackSwap{Track: td, URL: tracks[i].URL})
			}
		}
		s.validator.SwapTracks(ctx, item.Host, batch)
		s.registry.Invalidate()
	}
	b := item.Backend
	if err := b.Load(ctx, sources); err != nil {
		logger.Error("rollback reload failed", "error", err)
	} else if err := waitSignal(ctx, b.Ready(), s.cfg.Swap.ReadyTimeout.Duration); err != nil {
		logger.Warn("rollback reload not confirmed", "error", err)
	}
	s.registry.Invalidate()
	s.restore(item, snap, snap.Time, logger)
}

func sameSources(a, b []SourceDescriptor) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].URL != b[i].URL {
			return false
		}
	}
	return true
}

// originalSources returns the set with every descriptor on its original URL.
func originalSources(sources []SourceDescriptor) []SourceDescriptor {
	out := make([]SourceDescriptor, len(sources))
	for i, sd := range sources {
		out[i] = sd.OriginalVariant()
	}
	return out
}

func mimeFromURL(url string) string {
	switch {
	case isEmbeddedURL(url) && strings.Contains(strings.ToLower(url), "vimeo"):
		return "video/vimeo"
	case isEmbeddedURL(url):
		return "video/youtube"
	case isAdaptiveURL(url) && strings.HasSuffix(strings.ToLower(stripQuery(url)), ".mpd"):
		return "application/dash+xml"
	case isAdaptiveURL(url):
		return "application/x-mpegURL"
	case strings.HasSuffix(strings.ToLower(stripQuery(url)), ".webm"):
		return "video/webm"
	default:
		return "video/mp4"
	}
}

func transportName(b Backend) string {
	if b == nil {
		return "none"
	}
	return b.Transport().String()
}

func transportOf(b Backend) Transport {
	if b == nil {
		return TransportProgressive
	}
	return b.Transport()
}
