package internal

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadManifest(t *testing.T) {
	m, err := LoadManifest("testdata/manifest.json")
	require.NoError(t, err)
	require.Len(t, m.Items, 2)

	lecture := m.GetItemByName("lecture")
	require.NotNil(t, lecture)
	require.Equal(t, filepath.Join("testdata", "media/lecture.mp4"), lecture.Sources[0].URL)
	require.Equal(t, filepath.Join("testdata", "media/lecture-ad.mp4"), lecture.Sources[0].DescribedURL)
	require.Equal(t, filepath.Join("testdata", "lecture.en-ad.vtt"), lecture.Tracks[0].DescribedSrc)
	require.True(t, lecture.Tracks[0].Authored)

	keynote := m.GetItemByName("keynote")
	require.NotNil(t, keynote)
	require.Equal(t, "https://cdn.example.com/keynote/master.m3u8", keynote.Sources[0].URL)
	require.Equal(t, TransportAdaptive, DetectTransport(keynote.Sources))

	require.Nil(t, m.GetItemByName("missing"))
	require.Contains(t, m.String(), `"describedUrl"`)
}

func TestParseManifestErrors(t *testing.T) {
	testCases := []struct {
		desc    string
		data    string
		wantErr string
	}{
		{desc: "not json", data: "{", wantErr: "unmarshal manifest"},
		{desc: "version", data: `{"version": 2, "items": [{"name": "a", "sources": [{"url": "a.mp4"}]}]}`, wantErr: "unsupported manifest version"},
		{desc: "no items", data: `{"version": 1}`, wantErr: "no items"},
		{desc: "no name", data: `{"version": 1, "items": [{"sources": [{"url": "a.mp4"}]}]}`, wantErr: "missing name"},
		{desc: "duplicate", data: `{"version": 1, "items": [{"name": "a", "sources": [{"url": "a.mp4"}]}, {"name": "a", "sources": [{"url": "b.mp4"}]}]}`, wantErr: "duplicate name"},
		{desc: "no sources", data: `{"version": 1, "items": [{"name": "a"}]}`, wantErr: "no sources"},
		{desc: "track without src", data: `{"version": 1, "items": [{"name": "a", "sources": [{"url": "a.mp4"}], "tracks": [{"kind": "captions"}]}]}`, wantErr: "has no src"},
	}
	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			_, err := ParseManifest([]byte(tc.data))
			require.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestManifestItemsDriveSwitcher(t *testing.T) {
	m, err := LoadManifest("testdata/manifest.json")
	require.NoError(t, err)
	lecture := m.GetItemByName("lecture")
	loader := &CueLoader{}
	el := NewSimElement(lecture.Sources, lecture.Tracks, loader.Load)
	<-el.SetCurrentTime(123 * time.Second)

	prober := mapProber{lecture.Tracks[0].DescribedSrc: true}
	sw := NewSwitcher(testConfig(), WithProber(prober))
	defer sw.Close()
	rec := &eventRecorder{}
	sw.Subscribe(rec.observe)
	item, err := NewItem(lecture.Name, el, BackendDeps{Element: el})
	require.NoError(t, err)
	require.NoError(t, sw.LoadItem(t.Context(), item))
	require.NoError(t, sw.Enable(FamilyDescribed))
	waitSettled(t, sw)

	require.Equal(t, RenditionDescribed, sw.Rendition())
	require.Equal(t, 151*time.Second, el.CurrentTime())
	require.Len(t, rec.list(), 1)
}
