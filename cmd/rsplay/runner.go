package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/Eyevinn/renditionsync/internal"
	"github.com/urfave/cli/v3"
)

// runner holds the state shared by the command actions.
type runner struct {
	cfg    *internal.Config
	logger *slog.Logger
}

func (r *runner) setup(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	cfg := internal.DefaultConfig()
	if path := cmd.String("config"); path != "" {
		loaded, err := internal.LoadConfig(path)
		if err != nil {
			return ctx, err
		}
		cfg = loaded
	}
	if level := cmd.String("log-level"); level != "" {
		cfg.Log.Level = level
	}
	if format := cmd.String("log-format"); format != "" {
		cfg.Log.Format = format
	}
	r.cfg = cfg
	r.logger = internal.NewLogger(os.Stderr, cfg.Log.Format, cfg.Log.Level)
	return ctx, nil
}

// Simulate loads a manifest into a simulated element and applies the steps.
func (r *runner) Simulate(ctx context.Context, cmd *cli.Command) error {
	path := cmd.Args().First()
	if path == "" {
		return fmt.Errorf("missing manifest argument")
	}
	m, err := internal.LoadManifest(path)
	if err != nil {
		return err
	}
	steps, err := parseSteps(cmd.StringSlice("step"))
	if err != nil {
		return err
	}
	idx := 0
	if name := cmd.String("item"); name != "" {
		idx = -1
		for i, it := range m.Items {
			if it.Name == name {
				idx = i
				break
			}
		}
		if idx < 0 {
			return fmt.Errorf("no item %q in %s", name, path)
		}
	}

	out := cmd.Root().Writer
	sw := internal.NewSwitcher(r.cfg, internal.WithLogger(r.logger))
	defer sw.Close()
	sw.Subscribe(func(ev internal.Event) {
		fmt.Fprintf(out, "event %s family=%s rendition=%s lang=%s anchor=%s match=%s\n",
			ev.Type, ev.Family, ev.Rendition, ev.Language, ev.Anchor.Target(), ev.Anchor.Method)
	})

	sim := &simulation{
		manifest: m,
		sw:       sw,
		loader:   &internal.CueLoader{},
		settle:   cmd.Duration("settle"),
		out:      out,
	}
	if err := sim.load(ctx, idx); err != nil {
		return err
	}
	<-sim.el.SetCurrentTime(cmd.Duration("at"))
	if err := sim.el.Play(); err != nil {
		return err
	}
	sim.printState()
	for _, st := range steps {
		if err := sim.apply(ctx, st); err != nil {
			return fmt.Errorf("step %s: %w", st, err)
		}
		sim.printState()
	}
	return nil
}

// Probe validates every alternate resource declared in a manifest.
func (r *runner) Probe(ctx context.Context, cmd *cli.Command) error {
	path := cmd.Args().First()
	if path == "" {
		return fmt.Errorf("missing manifest argument")
	}
	m, err := internal.LoadManifest(path)
	if err != nil {
		return err
	}
	type probeResult struct {
		Item string `json:"item"`
		Role string `json:"role"`
		URL  string `json:"url"`
		OK   bool   `json:"ok"`
	}
	var results []probeResult
	var urls []string
	for _, it := range m.Items {
		add := func(role, url string) {
			if url == "" {
				return
			}
			results = append(results, probeResult{Item: it.Name, Role: role, URL: url})
			urls = append(urls, url)
		}
		for _, sd := range it.Sources {
			add("describedSource", sd.DescribedURL)
			add("signSource", sd.SignURL)
		}
		for _, ti := range it.Tracks {
			add("describedTrack:"+ti.Language, ti.DescribedSrc)
			add("signTrack:"+ti.Language, ti.SignSrc)
		}
	}

	v := internal.NewValidator(&internal.HTTPProber{}, r.cfg.Probe, r.logger)
	valid := v.ValidateAll(ctx, urls)
	missing := 0
	for i := range results {
		results[i].OK = valid[results[i].URL]
		if !results[i].OK {
			missing++
		}
	}

	out := cmd.Root().Writer
	if cmd.Bool("json") {
		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))
	} else {
		for _, res := range results {
			status := "ok"
			if !res.OK {
				status = "MISSING"
			}
			fmt.Fprintf(out, "%-8s %-12s %-22s %s\n", status, res.Item, res.Role, res.URL)
		}
	}
	if missing > 0 {
		return fmt.Errorf("%w: %d of %d resources", internal.ErrResourceUnavailable, missing, len(results))
	}
	return nil
}

// Resync maps --at from the source caption file onto the target one.
func (r *runner) Resync(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 2 {
		return fmt.Errorf("need source and target caption files")
	}
	loader := &internal.CueLoader{}
	src, err := loader.Load(ctx, cmd.Args().Get(0))
	if err != nil {
		return err
	}
	target, err := loader.Load(ctx, cmd.Args().Get(1))
	if err != nil {
		return err
	}
	at := cmd.Duration("at")
	out := cmd.Root().Writer
	cue, ok := src.ActiveAt(at)
	if !ok {
		fmt.Fprintf(out, "no caption active at %s, target=%s match=none\n", at, at)
		return nil
	}
	engine := internal.NewResyncEngine(r.cfg.Resync, r.logger)
	anchor := engine.ResyncCues(at, cue.Text, target)
	fmt.Fprintf(out, "source=%s text=%q target=%s match=%s confidence=%.2f\n",
		at, internal.NormalizeCueText(cue.Text), anchor.Target(), anchor.Method, anchor.MatchConfidence)
	return nil
}

// Version prints the version.
func (r *runner) Version(ctx context.Context, cmd *cli.Command) error {
	fmt.Fprintf(cmd.Root().Writer, "%s %s\n", appName, internal.GetVersion())
	return nil
}

// step is one simulate instruction.
type step struct {
	op     string
	family internal.Family
	lang   string
	dur    time.Duration
}

func (s step) String() string {
	switch s.op {
	case "advance":
		return fmt.Sprintf("advance:%s", s.dur)
	case "next":
		return "next"
	}
	if s.lang != "" {
		return fmt.Sprintf("%s:%s:%s", s.op, s.family, s.lang)
	}
	return fmt.Sprintf("%s:%s", s.op, s.family)
}

func parseSteps(raw []string) ([]step, error) {
	steps := make([]step, 0, len(raw))
	for _, r := range raw {
		st, err := parseStep(r)
		if err != nil {
			return nil, err
		}
		steps = append(steps, st)
	}
	return steps, nil
}

func parseStep(raw string) (step, error) {
	parts := strings.Split(raw, ":")
	st := step{op: parts[0]}
	switch st.op {
	case "next":
		if len(parts) != 1 {
			return step{}, fmt.Errorf("invalid step %q", raw)
		}
		return st, nil
	case "advance":
		if len(parts) != 2 {
			return step{}, fmt.Errorf("invalid step %q", raw)
		}
		d, err := time.ParseDuration(parts[1])
		if err != nil {
			return step{}, fmt.Errorf("invalid step %q: %w", raw, err)
		}
		st.dur = d
		return st, nil
	case "enable", "disable", "toggle", "lang":
		if len(parts) < 2 || len(parts) > 3 {
			return step{}, fmt.Errorf("invalid step %q", raw)
		}
		f, err := internal.ParseFamily(parts[1])
		if err != nil {
			return step{}, err
		}
		st.family = f
		if len(parts) == 3 {
			st.lang = parts[2]
		}
		if st.op == "lang" && st.lang == "" {
			return step{}, fmt.Errorf("invalid step %q: missing language", raw)
		}
		return st, nil
	default:
		return step{}, fmt.Errorf("unknown step %q", raw)
	}
}

// simulation drives one Switcher over the items of a manifest.
type simulation struct {
	manifest *internal.Manifest
	sw       *internal.Switcher
	loader   *internal.CueLoader
	settle   time.Duration
	out      io.Writer
	idx      int
	el       *internal.SimElement
}

func (s *simulation) load(ctx context.Context, idx int) error {
	it := s.manifest.Items[idx]
	el := internal.NewSimElement(it.Sources, it.Tracks, s.loader.Load)
	item, err := internal.NewItem(it.Name, el, internal.BackendDeps{Element: el, Stream: &simStream{}})
	if err != nil {
		return err
	}
	if err := s.sw.LoadItem(ctx, item); err != nil {
		return err
	}
	s.idx = idx
	s.el = el
	return s.wait(ctx)
}

func (s *simulation) apply(ctx context.Context, st step) error {
	var err error
	switch st.op {
	case "enable":
		var opts []internal.EnableOption
		if st.lang != "" {
			opts = append(opts, internal.WithLanguage(st.lang))
		}
		err = s.sw.Enable(st.family, opts...)
	case "disable":
		err = s.sw.Disable(st.family)
	case "toggle":
		err = s.sw.Toggle(st.family)
	case "lang":
		err = s.sw.SwitchLanguage(st.family, st.lang)
	case "advance":
		s.el.Advance(st.dur)
		return nil
	case "next":
		if s.idx+1 >= len(s.manifest.Items) {
			return fmt.Errorf("no item after %q", s.manifest.Items[s.idx].Name)
		}
		return s.load(ctx, s.idx+1)
	}
	if err != nil {
		return err
	}
	return s.wait(ctx)
}

func (s *simulation) wait(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.settle)
	defer cancel()
	return s.sw.WaitSettled(ctx)
}

func (s *simulation) printState() {
	src := ""
	if sources := s.el.Sources(); len(sources) > 0 {
		src = sources[0].URL
	}
	fmt.Fprintf(s.out, "state item=%s rendition=%s time=%s playing=%t source=%s\n",
		s.manifest.Items[s.idx].Name, s.sw.Rendition(), s.el.CurrentTime(), !s.el.Paused(), src)
}

// simStream stands in for an adaptive streaming controller when simulating.
type simStream struct {
	level int
}

func (s *simStream) LoadSource(url string) <-chan error {
	ch := make(chan error, 1)
	ch <- nil
	close(ch)
	return ch
}

func (s *simStream) Levels() []string  { return []string{"auto"} }
func (s *simStream) CurrentLevel() int { return s.level }
func (s *simStream) SetLevel(i int)    { s.level = i }
func (s *simStream) Detach()           {}
