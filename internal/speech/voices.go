package speech

import "strings"

// SelectVoice picks the voice for an utterance.
//
// Precedence: an explicitly requested voice name wins; otherwise prefer a
// female-sounding voice for the session language, then any voice for the
// language, then the backend default, then the first voice available.
func SelectVoice(voices []Voice, name, lang string) Voice {
	if len(voices) == 0 {
		return Voice{}
	}
	if name != "" {
		for _, v := range voices {
			if v.Name == name {
				return v
			}
		}
	}

	prefix := langPrefix(lang)
	var forLang []Voice
	for _, v := range voices {
		if prefix == "" || strings.HasPrefix(strings.ToLower(v.Lang), prefix) {
			forLang = append(forLang, v)
		}
	}
	for _, v := range forLang {
		if strings.Contains(v.Name, "Female") {
			return v
		}
	}
	if len(forLang) > 0 {
		return forLang[0]
	}
	for _, v := range voices {
		if v.Default {
			return v
		}
	}
	return voices[0]
}

// langPrefix reduces a BCP 47 tag like "en-US" to its base language "en".
func langPrefix(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if i := strings.IndexByte(lang, '-'); i > 0 {
		return lang[:i]
	}
	return lang
}
