package internal

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/Eyevinn/mp4ff/bits"
	"github.com/Eyevinn/mp4ff/mp4"
)

// WVTT constants
const (
	WvttTimescale = 1000 // 1ms resolution
)

// vtte is an empty VTT cue box used to fill gaps between cues.
var vtte = []byte{0, 0, 0, 8, 0x76, 0x74, 0x74, 0x65}

// EncodeWvtt builds a CMAF caption file (init segment followed by one media
// segment) carrying cues as WVTT samples.
func EncodeWvtt(cues CueList, lang string) ([]byte, error) {
	return EncodeWvttTimescale(cues, lang, WvttTimescale)
}

// EncodeWvttTimescale is EncodeWvtt with an explicit media timescale.
func EncodeWvttTimescale(cues CueList, lang string, timescale uint32) ([]byte, error) {
	if timescale == 0 {
		timescale = WvttTimescale
	}
	init := createWvttInitSegment(lang, timescale)
	seg := mp4.NewMediaSegment()
	frag, err := mp4.CreateFragment(1, 1)
	if err != nil {
		return nil, err
	}
	seg.AddFragment(frag)

	sorted := make(CueList, len(cues))
	copy(sorted, cues)
	sorted.Sort()

	var currEnd uint64
	nrSamples := 0
	for _, c := range sorted {
		if c.Start < 0 || c.End <= c.Start {
			continue
		}
		start := toTicks(c.Start, timescale)
		end := toTicks(c.End, timescale)
		if end <= start {
			continue
		}
		// Overlapping cues are clipped; WVTT samples must not overlap.
		if start < currEnd {
			start = currEnd
			if end <= start {
				continue
			}
		}
		pl, err := makeWvttCuePayload(c)
		if err != nil {
			return nil, err
		}
		// Sample durations are 32 bits, so long gaps take several empty samples.
		for currEnd < start {
			gapEnd := min(start, currEnd+math.MaxUint32)
			frag.AddFullSample(fullSample(currEnd, gapEnd, vtte))
			nrSamples++
			currEnd = gapEnd
		}
		frag.AddFullSample(fullSample(start, end, pl))
		nrSamples++
		currEnd = end
	}
	if nrSamples == 0 {
		frag.AddFullSample(fullSample(0, uint64(timescale), vtte))
	}

	size := int(init.Size() + seg.Size())
	sw := bits.NewFixedSliceWriter(size)
	if err := init.EncodeSW(sw); err != nil {
		return nil, fmt.Errorf("failed to encode init segment: %w", err)
	}
	if err := seg.EncodeSW(sw); err != nil {
		return nil, fmt.Errorf("failed to encode media segment: %w", err)
	}
	return sw.Bytes(), nil
}

// DecodeWvtt returns the cues and language of a CMAF WVTT caption file.
// Media segments without an init segment are accepted; the language is then empty.
func DecodeWvtt(data []byte) (CueList, string, error) {
	sr := bits.NewFixedSliceReader(data)
	f, err := mp4.DecodeFileSR(sr)
	if err != nil {
		return nil, "", fmt.Errorf("decode wvtt file: %w", err)
	}
	lang := ""
	timescale := uint32(WvttTimescale)
	var trex *mp4.TrexBox
	if f.Init != nil && f.Init.Moov != nil && f.Init.Moov.Trak != nil {
		mdia := f.Init.Moov.Trak.Mdia
		if mdia.Elng != nil {
			lang = mdia.Elng.Language
		} else if mdia.Mdhd != nil {
			lang = mdia.Mdhd.GetLanguage()
		}
		if mdia.Mdhd != nil && mdia.Mdhd.Timescale != 0 {
			timescale = mdia.Mdhd.Timescale
		}
		if f.Init.Moov.Mvex != nil {
			trex = f.Init.Moov.Mvex.Trex
		}
	}
	var cues CueList
	for _, seg := range f.Segments {
		for _, frag := range seg.Fragments {
			fss, err := frag.GetFullSamples(trex)
			if err != nil {
				return nil, "", fmt.Errorf("get samples: %w", err)
			}
			for _, fs := range fss {
				c, ok, err := cueFromWvttSample(fs, timescale)
				if err != nil {
					return nil, "", err
				}
				if ok {
					cues = append(cues, c)
				}
			}
		}
	}
	cues.Sort()
	return cues, lang, nil
}

// DecodeWvttCues is DecodeWvtt without the language.
func DecodeWvttCues(data []byte) (CueList, error) {
	cues, _, err := DecodeWvtt(data)
	return cues, err
}

func cueFromWvttSample(fs mp4.FullSample, timescale uint32) (Cue, bool, error) {
	sr := bits.NewFixedSliceReader(fs.Data)
	var texts []string
	id := ""
	for sr.NrRemainingBytes() > 0 {
		box, err := mp4.DecodeBoxSR(0, sr)
		if err != nil {
			return Cue{}, false, fmt.Errorf("decode wvtt sample at %d: %w", fs.DecodeTime, err)
		}
		vttc, ok := box.(*mp4.VttcBox)
		if !ok {
			continue
		}
		for _, child := range vttc.Children {
			switch c := child.(type) {
			case *mp4.PaylBox:
				texts = append(texts, c.CueText)
			case *mp4.IdenBox:
				id = c.CueID
			}
		}
	}
	if len(texts) == 0 {
		return Cue{}, false, nil
	}
	start := fromTicks(fs.DecodeTime, timescale)
	return Cue{
		ID:    id,
		Start: start,
		End:   fromTicks(fs.DecodeTime+uint64(fs.Dur), timescale),
		Text:  strings.Join(texts, "\n"),
	}, true, nil
}

// createWvttInitSegment creates a WVTT init segment
func createWvttInitSegment(lang string, timescale uint32) *mp4.InitSegment {
	if lang == "" {
		lang = "und"
	}
	init := mp4.CreateEmptyInit()
	init.AddEmptyTrack(timescale, "wvtt", lang)
	trak := init.Moov.Trak
	_ = trak.SetWvttDescriptor("WEBVTT")
	return init
}

// makeWvttCuePayload creates a WVTT cue payload
func makeWvttCuePayload(c Cue) ([]byte, error) {
	vttc := mp4.VttcBox{}
	if c.ID != "" {
		vttc.AddChild(&mp4.IdenBox{CueID: c.ID})
	}
	vttc.AddChild(&mp4.PaylBox{CueText: c.Text})
	sw := bits.NewFixedSliceWriter(int(vttc.Size()))
	if err := vttc.EncodeSW(sw); err != nil {
		return nil, errors.Join(fmt.Errorf("cannot write vttc"), err)
	}
	return sw.Bytes(), nil
}

// toTicks converts d to media time. Whole seconds are scaled separately so
// 10 MHz timescales do not overflow.
func toTicks(d time.Duration, timescale uint32) uint64 {
	ts := uint64(timescale)
	secs := uint64(d / time.Second)
	rem := uint64(d % time.Second)
	return secs*ts + rem*ts/uint64(time.Second)
}

func fromTicks(ticks uint64, timescale uint32) time.Duration {
	ts := uint64(timescale)
	secs := ticks / ts
	rem := ticks % ts
	return time.Duration(secs)*time.Second + time.Duration(rem*uint64(time.Second)/ts)
}

// fullSample creates a FullSample from start/end ticks and data
func fullSample(start, end uint64, data []byte) mp4.FullSample {
	return mp4.FullSample{
		Sample: mp4.Sample{
			Flags: mp4.SyncSampleFlags,
			Dur:   uint32(end - start),
			Size:  uint32(len(data)),
		},
		DecodeTime: start,
		Data:       data,
	}
}
