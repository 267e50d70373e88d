package internal

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTrackRegistryQueries(t *testing.T) {
	el := NewSimElement(
		[]SourceDescriptor{{URL: "media/a.mp4"}},
		[]TrackInfo{
			{Kind: KindCaptions, Language: "EN", Src: "en.vtt", Default: true},
			{Kind: KindSubtitles, Language: "pt-br", Src: "pt.vtt"},
			{Kind: KindChapters, Language: "en", Src: "chapters.vtt"},
			{Kind: KindCaptions, Language: "en", Src: "en-sdh.vtt"},
		}, nil)
	reg := NewTrackRegistry(el)

	testCases := []struct {
		desc string
		kind TrackKind
		lang string
		want []string
	}{
		{desc: "all", want: []string{"en.vtt", "pt.vtt", "chapters.vtt", "en-sdh.vtt"}},
		{desc: "captions", kind: KindCaptions, want: []string{"en.vtt", "en-sdh.vtt"}},
		{desc: "english", lang: "en", want: []string{"en.vtt", "chapters.vtt", "en-sdh.vtt"}},
		{desc: "canonical language", kind: KindSubtitles, lang: "PT-BR", want: []string{"pt.vtt"}},
		{desc: "no match", kind: KindMetadata, want: []string{}},
	}
	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			got := []string{}
			for _, td := range reg.Tracks(tc.kind, tc.lang) {
				got = append(got, td.URL)
			}
			require.Equal(t, tc.want, got)
		})
	}
	require.Len(t, reg.CaptionTracks(), 3)
	require.Equal(t, "pt-BR", reg.Tracks(KindSubtitles, "")[0].Language)
}

func TestTrackRegistryInvalidate(t *testing.T) {
	el := NewSimElement([]SourceDescriptor{{URL: "media/a.mp4"}},
		[]TrackInfo{{Kind: KindCaptions, Language: "en", Src: "en.vtt"}}, nil)
	reg := NewTrackRegistry(el)
	require.Equal(t, "media/a.mp4", reg.Sources()[0].URL)

	el.SetSources([]SourceDescriptor{{URL: "media/b.mp4"}})
	old := reg.Tracks("", "")[0].Track
	_, err := el.ReplaceTrack(context.Background(), old, "en-ad.vtt")
	require.NoError(t, err)
	require.Equal(t, "media/a.mp4", reg.Sources()[0].URL, "enumeration is memoized")

	reg.Invalidate()
	require.Equal(t, "media/b.mp4", reg.Sources()[0].URL)
	td := reg.Tracks("", "")[0]
	require.Equal(t, "en-ad.vtt", td.URL)
	require.Equal(t, "en.vtt", td.OriginalURL)

	other := NewSimElement([]SourceDescriptor{{URL: "media/c.mp4"}}, nil, nil)
	reg.Reset(other)
	require.Equal(t, other, reg.Host())
	require.Empty(t, reg.Tracks("", ""))
	require.Equal(t, "media/c.mp4", reg.Sources()[0].URL)
}

func TestCanonicalLanguage(t *testing.T) {
	testCases := []struct {
		in   string
		want string
	}{
		{in: "en", want: "en"},
		{in: " EN ", want: "en"},
		{in: "en-us", want: "en-US"},
		{in: "", want: ""},
		{in: "not a language", want: "not a language"},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			require.Equal(t, tc.want, canonicalLanguage(tc.in))
		})
	}
}
