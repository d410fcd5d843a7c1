package tts

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"readaloud/internal/domain/voice"
)

// SayEngine implements macOS speech through the built-in 'say' command
type SayEngine struct {
	rate  int
	voice string
	mutex sync.RWMutex
	proc  process
}

// newSayEngine creates a new macOS TTS engine
func newSayEngine(config Config) (*SayEngine, error) {
	return &SayEngine{
		rate: config.Rate,
	}, nil
}

func (s *SayEngine) args(extra ...string) []string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	args := []string{"-r", strconv.Itoa(s.rate)}
	if s.voice != "" {
		args = append(args, "-v", s.voice)
	}
	args = append(args, extra...)
	return append(args, "-f", "-")
}

func (s *SayEngine) Speak(text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyUtterance
	}
	return s.proc.run(context.Background(), strings.NewReader(text), "say", s.args()...)
}

func (s *SayEngine) RenderToFile(ctx context.Context, text, path string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyUtterance
	}

	extra := []string{"-o", path}
	if strings.EqualFold(filepath.Ext(path), ".wav") {
		extra = append(extra, "--file-format=WAVE", "--data-format=LEI16@22050")
	}
	return s.proc.run(ctx, strings.NewReader(text), "say", s.args(extra...)...)
}

func (s *SayEngine) Extension() string {
	return ".aiff"
}

func (s *SayEngine) Stop() error {
	return s.proc.stop()
}

func (s *SayEngine) SetVoice(id string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.voice = id
	return nil
}

func (s *SayEngine) SetRate(wpm int) error {
	if wpm <= 0 {
		return fmt.Errorf("rate must be positive")
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.rate = wpm
	return nil
}

func (s *SayEngine) Voices() ([]voice.Voice, error) {
	output, err := s.proc.output(context.Background(), "say", "-v", "?")
	if err != nil {
		return nil, err
	}
	return parseSayVoices(string(output)), nil
}

// sayVoiceRegex matches "VoiceName    language    # description"; names may
// contain spaces and a parenthesised variant.
var sayVoiceRegex = regexp.MustCompile(`^(.+?)\s+([a-z]{2,3}[_-][A-Za-z0-9]+)\s+#`)

func parseSayVoices(output string) []voice.Voice {
	voices := make([]voice.Voice, 0)

	for _, line := range strings.Split(output, "\n") {
		m := sayVoiceRegex.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		name := strings.TrimSpace(m[1])
		voices = append(voices, voice.Voice{
			ID:        name,
			Name:      name,
			Languages: []string{m[2]},
		})
	}

	return voices
}
