package internal

// Resolution lists the alternate renditions a media item offers.
type Resolution struct {
	// DescribedSources holds the source descriptors declaring a described URL.
	DescribedSources []SourceDescriptor
	SignLanguage     SignLanguageSourceMap
	// DescribedTracks holds explicitly authored tracks paired to a described track.
	DescribedTracks []TrackDescriptor
}

// DescribedAudio returns the first described source, if any.
func (r Resolution) DescribedAudio() (SourceDescriptor, bool) {
	if len(r.DescribedSources) == 0 {
		return SourceDescriptor{}, false
	}
	return r.DescribedSources[0], true
}

// IsAvailable reports whether the family can be offered for this item.
func (r Resolution) IsAvailable(f Family) bool {
	switch f {
	case FamilyDescribed:
		return len(r.DescribedSources) > 0 || len(r.DescribedTracks) > 0
	case FamilySignLanguage:
		return len(r.SignLanguage.Entries) > 0
	default:
		return false
	}
}

// Resolve derives the available alternate renditions from the declared
// source and track candidates. Track pairings are never inferred: a track
// without an authored described URL does not count.
func Resolve(sources []SourceDescriptor, tracks []TrackDescriptor) Resolution {
	var res Resolution
	for _, sd := range sources {
		if sd.DescribedURL != "" {
			res.DescribedSources = append(res.DescribedSources, sd)
		}
	}

	entries := make(map[string]string)
	defaultLang := ""
	for _, td := range tracks {
		if td.Authored && td.DescribedURL != "" {
			res.DescribedTracks = append(res.DescribedTracks, td)
		}
		if td.Kind.IsCaption() && defaultLang == "" && td.Default {
			defaultLang = td.Language
		}
		if td.SignURL != "" && td.Language != "" {
			if _, ok := entries[td.Language]; !ok {
				entries[td.Language] = td.SignURL
			}
		}
	}
	if defaultLang == "" {
		for _, td := range tracks {
			if td.Kind.IsCaption() && td.Language != "" {
				defaultLang = td.Language
				break
			}
		}
	}
	for _, sd := range sources {
		if sd.SignURL == "" {
			continue
		}
		lang := defaultLang
		if lang == "" {
			lang = "und"
		}
		if _, ok := entries[lang]; !ok {
			entries[lang] = sd.SignURL
		}
		break
	}
	if len(entries) > 0 {
		res.SignLanguage.Entries = entries
		res.SignLanguage.Current = defaultLang
		if _, ok := entries[defaultLang]; !ok {
			res.SignLanguage.Current = res.SignLanguage.Languages()[0]
		}
	}
	return res
}

// ForTransport drops renditions the transport cannot play. An embedded
// player only cues videos of its own platform, so sign-language entries
// must be embedded URLs as well.
func (r Resolution) ForTransport(t Transport) Resolution {
	if t != TransportEmbedded || len(r.SignLanguage.Entries) == 0 {
		return r
	}
	entries := make(map[string]string)
	for lang, u := range r.SignLanguage.Entries {
		if isEmbeddedURL(u) {
			entries[lang] = u
		}
	}
	if len(entries) == 0 {
		r.SignLanguage = SignLanguageSourceMap{}
		return r
	}
	m := SignLanguageSourceMap{Entries: entries, Current: r.SignLanguage.Current}
	if _, ok := entries[m.Current]; !ok {
		m.Current = m.Languages()[0]
	}
	r.SignLanguage = m
	return r
}
