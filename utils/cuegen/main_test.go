package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Eyevinn/renditionsync/internal"
	"github.com/stretchr/testify/require"
)

func TestLanguageFromName(t *testing.T) {
	testCases := []struct {
		name string
		want string
	}{
		{name: "lecture.en.vtt", want: "en"},
		{name: "dir/lecture.en-ad.vtt", want: "en-ad"},
		{name: "plain.vtt", want: "und"},
		{name: "trailing..vtt", want: "und"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, languageFromName(tc.name))
		})
	}
}

func TestConvert(t *testing.T) {
	out, nrCues, err := convert("../../internal/testdata/lecture.en.vtt", t.TempDir(), "en")
	require.NoError(t, err)
	require.Equal(t, 3, nrCues)
	require.Equal(t, "lecture.en.cmft", filepath.Base(out))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	cues, lang, err := internal.DecodeWvtt(data)
	require.NoError(t, err)
	require.Equal(t, "en", lang)
	require.Len(t, cues, 3)
	require.Equal(t, "we begin here", cues[1].Text)
}

func TestCollectInputs(t *testing.T) {
	inputs, err := collectInputs([]string{"../../internal/testdata"})
	require.NoError(t, err)
	require.Len(t, inputs, 3)
}
