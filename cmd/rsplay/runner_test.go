package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/Eyevinn/renditionsync/internal"
	"github.com/stretchr/testify/require"
)

const testManifest = "../../internal/testdata/manifest.json"

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	app := newApp(&runner{})
	app.Writer = &buf
	err := app.Run(context.Background(), append([]string{appName, "--log-level", "error"}, args...))
	return buf.String(), err
}

func TestParseStep(t *testing.T) {
	testCases := []struct {
		desc    string
		raw     string
		want    step
		wantErr bool
	}{
		{desc: "enable", raw: "enable:described", want: step{op: "enable", family: internal.FamilyDescribed}},
		{desc: "enable with language", raw: "enable:signLanguage:sv", want: step{op: "enable", family: internal.FamilySignLanguage, lang: "sv"}},
		{desc: "language", raw: "lang:signLanguage:en", want: step{op: "lang", family: internal.FamilySignLanguage, lang: "en"}},
		{desc: "advance", raw: "advance:10s", want: step{op: "advance", dur: 10 * time.Second}},
		{desc: "next", raw: "next", want: step{op: "next"}},
		{desc: "language missing", raw: "lang:sign", wantErr: true},
		{desc: "bad family", raw: "enable:dubbed", wantErr: true},
		{desc: "bad duration", raw: "advance:later", wantErr: true},
		{desc: "unknown", raw: "rewind", wantErr: true},
	}
	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			got, err := parseStep(tc.raw)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
			require.Equal(t, tc.raw, got.String())
		})
	}
}

func TestSimulateCommand(t *testing.T) {
	out, err := runApp(t, "simulate", "--at", "123s",
		"--step", "enable:described",
		"--step", "advance:2s",
		"--step", "disable:described",
		testManifest)
	require.NoError(t, err)
	require.Contains(t, out, "event rendition-enabled family=described rendition=described lang= anchor=2m31s match=exact")
	require.Contains(t, out, "state item=lecture rendition=described time=2m33s playing=true")
	require.Contains(t, out, "event rendition-disabled family=described rendition=default")
}

func TestSimulateUnknownItem(t *testing.T) {
	_, err := runApp(t, "simulate", "--item", "nope", testManifest)
	require.ErrorContains(t, err, `no item "nope"`)
}

func TestResyncCommand(t *testing.T) {
	out, err := runApp(t, "resync", "--at", "2m3s",
		"../../internal/testdata/lecture.en.vtt",
		"../../internal/testdata/lecture.en-ad.vtt")
	require.NoError(t, err)
	require.Contains(t, out, `text="we begin here" target=2m31s match=exact`)

	out, err = runApp(t, "resync", "--at", "10s",
		"../../internal/testdata/lecture.en.vtt",
		"../../internal/testdata/lecture.en-ad.vtt")
	require.NoError(t, err)
	require.Contains(t, out, "no caption active at 10s")
}

func TestProbeCommand(t *testing.T) {
	out, err := runApp(t, "probe", testManifest)
	require.ErrorIs(t, err, internal.ErrResourceUnavailable)
	require.Contains(t, out, "lecture.en-ad.vtt")
	require.Contains(t, out, "MISSING")
}

func TestVersionCommand(t *testing.T) {
	out, err := runApp(t, "version")
	require.NoError(t, err)
	require.Contains(t, out, appName+" ")
}
