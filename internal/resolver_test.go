package internal

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func descriptorsFor(infos ...TrackInfo) []TrackDescriptor {
	el := NewSimElement(nil, infos, nil)
	return NewTrackRegistry(el).Tracks("", "")
}

func TestResolve(t *testing.T) {
	testCases := []struct {
		desc          string
		sources       []SourceDescriptor
		tracks        []TrackDescriptor
		wantDescribed bool
		wantSign      []string
		wantCurrent   string
	}{
		{
			desc:    "nothing declared",
			sources: []SourceDescriptor{{URL: "a.mp4"}},
			tracks:  descriptorsFor(TrackInfo{Kind: KindCaptions, Language: "en", Src: "en.vtt"}),
		},
		{
			desc:          "described source",
			sources:       []SourceDescriptor{{URL: "a.mp4", DescribedURL: "a-ad.mp4"}},
			wantDescribed: true,
		},
		{
			desc:    "described track without authored flag",
			sources: []SourceDescriptor{{URL: "a.mp4"}},
			tracks: descriptorsFor(TrackInfo{
				Kind: KindCaptions, Language: "en", Src: "en.vtt", DescribedSrc: "en-ad.vtt",
			}),
		},
		{
			desc:    "authored described track",
			sources: []SourceDescriptor{{URL: "a.mp4"}},
			tracks: descriptorsFor(TrackInfo{
				Kind: KindCaptions, Language: "en", Src: "en.vtt", DescribedSrc: "en-ad.vtt", Authored: true,
			}),
			wantDescribed: true,
		},
		{
			desc:    "sign per track language",
			sources: []SourceDescriptor{{URL: "a.mp4"}},
			tracks: descriptorsFor(
				TrackInfo{Kind: KindCaptions, Language: "sv", Src: "sv.vtt", SignSrc: "sign-sv.mp4"},
				TrackInfo{Kind: KindCaptions, Language: "fi", Src: "fi.vtt", SignSrc: "sign-fi.mp4", Default: true},
			),
			wantSign:    []string{"fi", "sv"},
			wantCurrent: "fi",
		},
		{
			desc:        "sign on source without tracks",
			sources:     []SourceDescriptor{{URL: "a.mp4", SignURL: "sign.mp4"}},
			wantSign:    []string{"und"},
			wantCurrent: "und",
		},
		{
			desc:    "sign on source uses caption language",
			sources: []SourceDescriptor{{URL: "a.mp4", SignURL: "sign.mp4"}},
			tracks: descriptorsFor(
				TrackInfo{Kind: KindChapters, Language: "de", Src: "ch.vtt"},
				TrackInfo{Kind: KindSubtitles, Language: "nl", Src: "nl.vtt"},
			),
			wantSign:    []string{"nl"},
			wantCurrent: "nl",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			res := Resolve(tc.sources, tc.tracks)
			require.Equal(t, tc.wantDescribed, res.IsAvailable(FamilyDescribed))
			require.Equal(t, len(tc.wantSign) > 0, res.IsAvailable(FamilySignLanguage))
			if len(tc.wantSign) > 0 {
				require.Equal(t, tc.wantSign, res.SignLanguage.Languages())
				require.Equal(t, tc.wantCurrent, res.SignLanguage.Current)
			}
		})
	}
}

func TestResolutionDescribedAudio(t *testing.T) {
	res := Resolve([]SourceDescriptor{
		{URL: "a.webm"},
		{URL: "a.mp4", DescribedURL: "a-ad.mp4"},
	}, nil)
	sd, ok := res.DescribedAudio()
	require.True(t, ok)
	require.Equal(t, "a-ad.mp4", sd.DescribedURL)
	require.False(t, res.IsAvailable(Family(0)))

	_, ok = Resolve(nil, nil).DescribedAudio()
	require.False(t, ok)
}

func TestResolutionForTransport(t *testing.T) {
	tracks := descriptorsFor(
		TrackInfo{Kind: KindCaptions, Language: "en", Src: "en.vtt", SignSrc: "sign/en.mp4", Default: true},
		TrackInfo{Kind: KindCaptions, Language: "sv", Src: "sv.vtt", SignSrc: "https://youtu.be/svSign"},
	)
	res := Resolve([]SourceDescriptor{{URL: "https://www.youtube.com/watch?v=main"}}, tracks)
	require.Equal(t, "en", res.SignLanguage.Current)

	testCases := []struct {
		desc        string
		transport   Transport
		wantLangs   []string
		wantCurrent string
	}{
		{desc: "progressive keeps all", transport: TransportProgressive, wantLangs: []string{"en", "sv"}, wantCurrent: "en"},
		{desc: "embedded keeps embedded urls", transport: TransportEmbedded, wantLangs: []string{"sv"}, wantCurrent: "sv"},
	}
	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			got := res.ForTransport(tc.transport)
			require.Equal(t, tc.wantLangs, got.SignLanguage.Languages())
			require.Equal(t, tc.wantCurrent, got.SignLanguage.Current)
		})
	}

	none := Resolve(nil, descriptorsFor(
		TrackInfo{Kind: KindCaptions, Language: "en", Src: "en.vtt", SignSrc: "sign/en.mp4"},
	)).ForTransport(TransportEmbedded)
	require.False(t, none.IsAvailable(FamilySignLanguage))
}
