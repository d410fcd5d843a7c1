package voice

import (
	"errors"
	"strings"
)

// ErrNoVoices is returned when the engine exposes no voices at all
var ErrNoVoices = errors.New("no voices available")

// Voice is a selectable synthesis persona exposed by a speech engine
type Voice struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Languages []string `json:"languages"`
}

// Matches reports whether the voice's language tags, name or id contain
// lang, ignoring case.
func (v Voice) Matches(lang string) bool {
	lang = strings.ToLower(lang)
	if lang == "" {
		return false
	}

	for _, tag := range v.Languages {
		if strings.Contains(strings.ToLower(tag), lang) {
			return true
		}
	}

	return strings.Contains(strings.ToLower(v.Name), lang) ||
		strings.Contains(strings.ToLower(v.ID), lang)
}

// Select picks a voice id. An in-range index always wins; a negative or
// out-of-range index counts as not given. Otherwise the first voice, in
// enumeration order, matching lang is used, and failing that the first voice.
func Select(voices []Voice, index int, lang string) (string, error) {
	if len(voices) == 0 {
		return "", ErrNoVoices
	}

	if index >= 0 && index < len(voices) {
		return voices[index].ID, nil
	}

	if lang != "" {
		for _, v := range voices {
			if v.Matches(lang) {
				return v.ID, nil
			}
		}
	}

	return voices[0].ID, nil
}
