package internal

import (
	"log/slog"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/text/cases"
)

// Resync defaults. Neither figure has a derivation behind it; they are kept
// configurable.
const (
	DefaultFuzzyThreshold = 0.8
	DefaultMinWordLength  = 3
)

// ResyncEngine maps a playback time in one rendition onto another rendition
// by locating the caption cue that was active at swap time.
type ResyncEngine struct {
	threshold     float64
	minWordLength int
	logger        *slog.Logger
}

// NewResyncEngine creates a ResyncEngine. Zero values in cfg select the defaults.
func NewResyncEngine(cfg ResyncConfig, logger *slog.Logger) *ResyncEngine {
	if logger == nil {
		logger = discardLogger()
	}
	re := &ResyncEngine{
		threshold:     cfg.FuzzyThreshold,
		minWordLength: cfg.MinWordLength,
		logger:        logger,
	}
	if re.threshold <= 0 {
		re.threshold = DefaultFuzzyThreshold
	}
	if re.minWordLength <= 0 {
		re.minWordLength = DefaultMinWordLength
	}
	return re
}

// Resync computes the anchor for snap in target. A nil target or an empty
// active caption yields the source time verbatim.
func (re *ResyncEngine) Resync(snap PlaybackSnapshot, target TextTrack) SyncAnchor {
	anchor := SyncAnchor{SourceTime: snap.Time, Method: MatchNone}
	if target == nil || strings.TrimSpace(snap.ActiveCaptionText) == "" {
		return anchor
	}
	return re.ResyncCues(snap.Time, snap.ActiveCaptionText, target.Cues())
}

// ResyncCues is Resync over an explicit cue list.
func (re *ResyncEngine) ResyncCues(at time.Duration, text string, cues CueList) SyncAnchor {
	anchor := SyncAnchor{SourceTime: at, Method: MatchNone}
	want := NormalizeCueText(text)
	if want == "" || len(cues) == 0 {
		return anchor
	}

	for _, c := range cues {
		if NormalizeCueText(c.Text) == want {
			start := c.Start
			anchor.MatchedTargetTime = &start
			anchor.MatchConfidence = 1
			anchor.Method = MatchExact
			return anchor
		}
	}

	srcWords := significantWords(want, re.minWordLength)
	if len(srcWords) > 0 {
		for _, c := range cues {
			ratio := overlapRatio(srcWords, significantWords(NormalizeCueText(c.Text), re.minWordLength))
			if ratio >= re.threshold {
				start := c.Start
				anchor.MatchedTargetTime = &start
				anchor.MatchConfidence = ratio
				anchor.Method = MatchFuzzy
				return anchor
			}
		}
	}

	re.logger.Info("low-confidence resync, keeping source time",
		"time", at,
		"text", want,
		"reason", ErrNoResyncMatch)
	return anchor
}

// NormalizeCueText strips markup, collapses whitespace and case-folds.
func NormalizeCueText(text string) string {
	plain := stripMarkup(text)
	return cases.Fold().String(strings.Join(strings.Fields(plain), " "))
}

// cueTimestampTag matches WebVTT karaoke timestamps such as <00:01.500>.
var cueTimestampTag = regexp.MustCompile(`<\d[\d:.]*>`)

// stripMarkup drops WebVTT/HTML tags and unescapes entities.
func stripMarkup(text string) string {
	if !strings.ContainsAny(text, "<&") {
		return text
	}
	text = cueTimestampTag.ReplaceAllString(text, " ")
	z := html.NewTokenizer(strings.NewReader(text))
	var b strings.Builder
	for {
		switch z.Next() {
		case html.ErrorToken:
			return b.String()
		case html.TextToken:
			b.Write(z.Text())
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			// Tags such as <br> separate words.
			b.WriteByte(' ')
		}
	}
}

// significantWords splits normalized text into words of at least minLen runes.
func significantWords(text string, minLen int) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
	out := fields[:0]
	for _, f := range fields {
		if utf8.RuneCountInString(f) >= minLen {
			out = append(out, f)
		}
	}
	return out
}

// overlapRatio returns the share of src words present in target.
func overlapRatio(src, target []string) float64 {
	if len(src) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(target))
	for _, w := range target {
		set[w] = struct{}{}
	}
	matching := 0
	for _, w := range src {
		if _, ok := set[w]; ok {
			matching++
		}
	}
	return float64(matching) / float64(len(src))
}
