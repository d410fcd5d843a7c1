package tts

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"readaloud/internal/domain/voice"
)

// SAPIEngine implements Windows SAPI TTS through PowerShell's System.Speech
type SAPIEngine struct {
	rate  int
	voice string
	mutex sync.RWMutex
	proc  process
}

// newSAPIEngine creates a new Windows SAPI TTS engine
func newSAPIEngine(config Config) (*SAPIEngine, error) {
	return &SAPIEngine{
		rate: config.Rate,
	}, nil
}

// script builds a PowerShell program that reads the utterance from stdin,
// so the text never has to be quoted into the script itself.
func (s *SAPIEngine) script(output string) string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var b strings.Builder
	b.WriteString("Add-Type -AssemblyName System.Speech; ")
	b.WriteString("$synth = New-Object System.Speech.Synthesis.SpeechSynthesizer; ")
	fmt.Fprintf(&b, "$synth.Rate = %d; ", sapiRate(s.rate))
	if s.voice != "" {
		fmt.Fprintf(&b, "$synth.SelectVoice(%s); ", psQuote(s.voice))
	}
	if output != "" {
		fmt.Fprintf(&b, "$synth.SetOutputToWaveFile(%s); ", psQuote(output))
	}
	b.WriteString("$text = [Console]::In.ReadToEnd(); ")
	b.WriteString("$synth.Speak($text); ")
	b.WriteString("$synth.Dispose()")
	return b.String()
}

func (s *SAPIEngine) Speak(text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyUtterance
	}
	return s.proc.run(context.Background(), strings.NewReader(text),
		"powershell", "-NoProfile", "-Command", s.script(""))
}

func (s *SAPIEngine) RenderToFile(ctx context.Context, text, path string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyUtterance
	}
	return s.proc.run(ctx, strings.NewReader(text),
		"powershell", "-NoProfile", "-Command", s.script(path))
}

func (s *SAPIEngine) Extension() string {
	return ".wav"
}

func (s *SAPIEngine) Stop() error {
	return s.proc.stop()
}

func (s *SAPIEngine) SetVoice(id string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.voice = id
	return nil
}

func (s *SAPIEngine) SetRate(wpm int) error {
	if wpm <= 0 {
		return fmt.Errorf("rate must be positive")
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.rate = wpm
	return nil
}

func (s *SAPIEngine) Voices() ([]voice.Voice, error) {
	script := "Add-Type -AssemblyName System.Speech; " +
		"(New-Object System.Speech.Synthesis.SpeechSynthesizer).GetInstalledVoices() | " +
		"ForEach-Object { $_.VoiceInfo.Name + '|' + $_.VoiceInfo.Culture.Name }"

	output, err := s.proc.output(context.Background(), "powershell", "-NoProfile", "-Command", script)
	if err != nil {
		return nil, err
	}
	return parseSAPIVoices(string(output)), nil
}

func parseSAPIVoices(output string) []voice.Voice {
	voices := make([]voice.Voice, 0)

	for _, line := range strings.Split(output, "\n") {
		name, culture, ok := strings.Cut(strings.TrimSpace(line), "|")
		if !ok || name == "" {
			continue
		}
		v := voice.Voice{ID: name, Name: name}
		if culture != "" {
			v.Languages = []string{culture}
		}
		voices = append(voices, v)
	}

	return voices
}

// sapiRate converts words per minute to SAPI's -10..10 scale, where 0 is
// roughly the default 150 wpm.
func sapiRate(wpm int) int {
	r := (wpm - DefaultRate) / 15
	if r < -10 {
		return -10
	}
	if r > 10 {
		return 10
	}
	return r
}

func psQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
