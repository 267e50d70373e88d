package internal

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/asticode/go-astisub"
)

// Cue is one timed caption entry.
type Cue struct {
	ID    string
	Start time.Duration
	End   time.Duration
	Text  string
}

// CueList is an ordered sequence of cues.
type CueList []Cue

// ActiveAt returns the cue showing at t. When cues overlap the one that
// started last wins.
func (cl CueList) ActiveAt(t time.Duration) (Cue, bool) {
	var found Cue
	ok := false
	for _, c := range cl {
		if c.Start > t {
			break
		}
		if t < c.End && (!ok || c.Start >= found.Start) {
			found = c
			ok = true
		}
	}
	return found, ok
}

// Sort orders cues by start time, then end time.
func (cl CueList) Sort() {
	sort.SliceStable(cl, func(i, j int) bool {
		if cl[i].Start == cl[j].Start {
			return cl[i].End < cl[j].End
		}
		return cl[i].Start < cl[j].Start
	})
}

// CueLoader fetches and parses caption cues from a local path, a file:// URL
// or an HTTP(S) URL.
type CueLoader struct {
	Client *http.Client
}

// Load reads the resource at src and parses it by extension: .mp4, .m4s and
// .cmft are WVTT fragments, everything else is WebVTT or SRT text.
func (l *CueLoader) Load(ctx context.Context, src string) (CueList, error) {
	data, err := l.read(ctx, src)
	if err != nil {
		return nil, err
	}
	return ParseCues(data, src)
}

// ParseCues parses data using the format implied by name.
func ParseCues(data []byte, name string) (CueList, error) {
	switch strings.ToLower(filepath.Ext(stripQuery(name))) {
	case ".mp4", ".m4s", ".cmft":
		return DecodeWvttCues(data)
	case ".vtt", ".srt", ".txt", "":
		return ParseWebVTT(bytes.NewReader(data))
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCueFormat, name)
	}
}

func (l *CueLoader) read(ctx context.Context, src string) ([]byte, error) {
	if !isHTTPURL(src) {
		data, err := os.ReadFile(localPath(src))
		if err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("%w: %s", ErrResourceUnavailable, src)
			}
			return nil, fmt.Errorf("read cues %s: %w", src, err)
		}
		return data, nil
	}
	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch cues %s: %w", src, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s returned %d", ErrResourceUnavailable, src, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// ParseWebVTT parses WebVTT text. Input without a WEBVTT signature is read
// as SRT.
func ParseWebVTT(r io.Reader) (CueList, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read cues: %w", err)
	}
	var subs *astisub.Subtitles
	if bytes.HasPrefix(bytes.TrimPrefix(bytes.TrimSpace(data), utf8BOM), []byte("WEBVTT")) {
		subs, err = astisub.ReadFromWebVTT(bytes.NewReader(data))
	} else {
		subs, err = astisub.ReadFromSRT(bytes.NewReader(data))
	}
	if err != nil {
		return nil, fmt.Errorf("parse cues: %w", err)
	}
	cues := make(CueList, 0, len(subs.Items))
	for _, it := range subs.Items {
		cue := Cue{Start: it.StartAt, End: it.EndAt, Text: cueText(it)}
		if it.Index > 0 {
			cue.ID = strconv.Itoa(it.Index)
		}
		cues = append(cues, cue)
	}
	cues.Sort()
	return cues, nil
}

var utf8BOM = []byte{0xef, 0xbb, 0xbf}

// cueText joins the lines of it with newlines, dropping inline styling.
func cueText(it *astisub.Item) string {
	lines := make([]string, 0, len(it.Lines))
	for _, l := range it.Lines {
		var parts []string
		for _, li := range l.Items {
			parts = append(parts, li.Text)
		}
		if line := strings.Join(strings.Fields(strings.Join(parts, " ")), " "); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

// FormatCueTimestamp formats d as a WebVTT timestamp.
func FormatCueTimestamp(d time.Duration) string {
	ms := int(d / time.Millisecond)
	hours := ms / 3600_000
	ms %= 3600_000
	minutes := ms / 60_000
	ms %= 60_000
	seconds := ms / 1_000
	ms %= 1_000
	return fmt.Sprintf("%02d:%02d:%02d.%03d", hours, minutes, seconds, ms)
}

func isHTTPURL(src string) bool {
	lower := strings.ToLower(src)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

func localPath(src string) string {
	return strings.TrimPrefix(src, "file://")
}

func stripQuery(name string) string {
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		return name[:i]
	}
	return name
}
