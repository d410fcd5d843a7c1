// Package tts wraps the speech engines readaloud can drive.
package tts

import (
	"context"
	"errors"

	"readaloud/internal/domain/voice"
)

// DefaultRate is the speaking rate in words per minute
const DefaultRate = 150

var (
	// ErrUnsupportedEngine is returned by NewEngine for unknown or
	// platform-incompatible engine types
	ErrUnsupportedEngine = errors.New("unsupported TTS engine")
	// ErrEmptyUtterance is returned when asked to speak or render nothing
	ErrEmptyUtterance = errors.New("empty utterance")
)

type Config struct {
	Type string
	Rate int
	// Voice is an engine-specific voice id, empty for the engine default
	Voice string
	// CacheDir holds intermediate audio for engines that synthesize remotely
	CacheDir string
	// RequestsPerMinute limits remote synthesis calls, zero disables limiting
	RequestsPerMinute int
}

// Engine is a blocking text-to-speech engine. Speak and RenderToFile return
// only once the utterance has been fully spoken or written; neither can be
// interrupted part way through except by Stop, which is best effort.
type Engine interface {
	SetRate(wpm int) error
	SetVoice(id string) error
	Voices() ([]voice.Voice, error)
	Speak(text string) error
	RenderToFile(ctx context.Context, text, path string) error
	// Extension is the file extension, with dot, RenderToFile natively writes
	Extension() string
	Stop() error
}
