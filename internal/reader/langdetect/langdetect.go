// Package langdetect guesses the language of the text being read so that a
// matching voice can be picked.
package langdetect

import (
	"errors"
	"strings"

	"github.com/abadojack/whatlanggo"
	"github.com/sirupsen/logrus"
)

// ErrUndetermined is returned when no language can be told apart reliably
var ErrUndetermined = errors.New("language could not be determined")

// Detector returns an ISO 639-1 code for text
type Detector interface {
	Detect(text string) (string, error)
}

// DetectorFunc adapts a function to Detector
type DetectorFunc func(text string) (string, error)

func (f DetectorFunc) Detect(text string) (string, error) {
	return f(text)
}

// Whatlang detects languages with trigram statistics
type Whatlang struct {
	// AllowUnreliable accepts low-confidence guesses
	AllowUnreliable bool
}

func NewWhatlang() *Whatlang {
	return &Whatlang{}
}

func (w *Whatlang) Detect(text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrUndetermined
	}

	info := whatlanggo.Detect(text)
	if info.Lang < 0 || info.Script == nil {
		return "", ErrUndetermined
	}

	fields := logrus.Fields{
		"lang":       info.Lang.String(),
		"script":     whatlanggo.Scripts[info.Script],
		"confidence": info.Confidence,
	}
	if !info.IsReliable() && !w.AllowUnreliable {
		logrus.WithFields(fields).Debug("Language guess not reliable")
		return "", ErrUndetermined
	}

	code := info.Lang.Iso6391()
	if code == "" {
		return "", ErrUndetermined
	}

	logrus.WithFields(fields).Debug("Detected language")
	return code, nil
}
