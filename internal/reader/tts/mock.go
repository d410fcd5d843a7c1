package tts

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"

	"readaloud/internal/domain/voice"
)

// MockEngine prints utterances instead of speaking them and records every
// call, which makes it the test double for playback and export.
type MockEngine struct {
	out io.Writer

	// OnSpeak runs inside Speak, before the utterance is recorded. Returning
	// an error fails the utterance.
	OnSpeak func(index int, text string) error
	// OnRender runs inside RenderToFile before anything is written
	OnRender func(path, text string) error

	mu      sync.Mutex
	rate    int
	voice   string
	voices  []voice.Voice
	spoken  []string
	renders []Render
	stops   int
}

// Render is one recorded RenderToFile call
type Render struct {
	Path string
	Text string
}

func NewMockEngine(out io.Writer) *MockEngine {
	return &MockEngine{
		out:  out,
		rate: DefaultRate,
		voices: []voice.Voice{
			{ID: "mock-en", Name: "Mock English", Languages: []string{"en"}},
			{ID: "mock-fr", Name: "Mock French", Languages: []string{"fr"}},
		},
	}
}

// WithVoices replaces the enumerated voice list
func (m *MockEngine) WithVoices(voices ...voice.Voice) *MockEngine {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.voices = voices
	return m
}

func (m *MockEngine) Speak(text string) error {
	m.mu.Lock()
	index := len(m.spoken)
	hook := m.OnSpeak
	m.mu.Unlock()

	if hook != nil {
		if err := hook(index, text); err != nil {
			return err
		}
	}

	if m.out != nil {
		color.New(color.FgYellow).Fprintf(m.out, "🔊 %s\n", text)
	}

	m.mu.Lock()
	m.spoken = append(m.spoken, text)
	m.mu.Unlock()
	return nil
}

// RenderToFile writes the utterance text itself to path
func (m *MockEngine) RenderToFile(ctx context.Context, text, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.OnRender != nil {
		if err := m.OnRender(path, text); err != nil {
			return err
		}
	}

	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	m.mu.Lock()
	m.renders = append(m.renders, Render{Path: path, Text: text})
	m.mu.Unlock()
	return nil
}

func (m *MockEngine) Extension() string {
	return ".wav"
}

func (m *MockEngine) SetVoice(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.voice = id
	return nil
}

func (m *MockEngine) SetRate(wpm int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rate = wpm
	return nil
}

func (m *MockEngine) Voices() ([]voice.Voice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]voice.Voice(nil), m.voices...), nil
}

func (m *MockEngine) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stops++
	return nil
}

// Spoken returns every utterance spoken so far, in order
func (m *MockEngine) Spoken() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.spoken...)
}

// Renders returns every file rendered so far, in order
func (m *MockEngine) Renders() []Render {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Render(nil), m.renders...)
}

// Stops returns how many times Stop was called
func (m *MockEngine) Stops() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stops
}

// Settings returns the current voice id and rate
func (m *MockEngine) Settings() (string, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.voice, m.rate
}
