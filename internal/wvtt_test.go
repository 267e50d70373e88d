package internal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWvttRoundTrip(t *testing.T) {
	cues := CueList{
		{ID: "intro", Start: 2 * time.Second, End: 4 * time.Second, Text: "Welcome back"},
		{Start: 5 * time.Second, End: 7 * time.Second, Text: "we begin here"},
		{Start: 6500 * time.Millisecond, End: 8 * time.Second, Text: "overlapping"},
	}
	data, err := EncodeWvtt(cues, "en")
	require.NoError(t, err)

	got, lang, err := DecodeWvtt(data)
	require.NoError(t, err)
	require.Equal(t, "en", lang)
	require.Len(t, got, 3)

	require.Equal(t, "intro", got[0].ID)
	require.Equal(t, 2*time.Second, got[0].Start)
	require.Equal(t, 4*time.Second, got[0].End)
	require.Equal(t, "we begin here", got[1].Text)
	// The overlapping cue is clipped to start where the previous one ends.
	require.Equal(t, 7*time.Second, got[2].Start)
	require.Equal(t, 8*time.Second, got[2].End)

	viaParse, err := ParseCues(data, "captions/en.cmft")
	require.NoError(t, err)
	require.Equal(t, got, viaParse)
}

func TestWvttEmpty(t *testing.T) {
	data, err := EncodeWvtt(nil, "")
	require.NoError(t, err)
	got, lang, err := DecodeWvtt(data)
	require.NoError(t, err)
	require.Empty(t, got)
	require.Equal(t, "und", lang)
}

func TestDecodeWvttGarbage(t *testing.T) {
	_, _, err := DecodeWvtt([]byte{0, 0, 0, 3})
	require.Error(t, err)
}

func TestWvttTimescales(t *testing.T) {
	cues := CueList{
		{Start: 151 * time.Second, End: 153 * time.Second, Text: "We begin here"},
		{Start: 3600 * time.Second, End: 3602500 * time.Millisecond, Text: "one hour in"},
	}
	testCases := []struct {
		desc      string
		timescale uint32
	}{
		{desc: "milliseconds", timescale: 1000},
		{desc: "90 kHz", timescale: 90000},
		{desc: "10 MHz", timescale: 10000000},
	}
	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			data, err := EncodeWvttTimescale(cues, "en", tc.timescale)
			require.NoError(t, err)
			got, _, err := DecodeWvtt(data)
			require.NoError(t, err)
			require.Len(t, got, 2)
			require.Equal(t, 151*time.Second, got[0].Start)
			require.Equal(t, 153*time.Second, got[0].End)
			require.Equal(t, 3600*time.Second, got[1].Start)
			require.Equal(t, 3602500*time.Millisecond, got[1].End)
		})
	}
}
