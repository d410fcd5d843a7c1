// Cross-platform eSpeak implementation
package tts

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"readaloud/internal/domain/voice"
)

// ESpeakEngine implements TTS using eSpeak/eSpeak-NG
type ESpeakEngine struct {
	path  string
	rate  int
	voice string
	mutex sync.RWMutex
	proc  process
}

// newESpeakEngine creates a new eSpeak TTS engine
func newESpeakEngine(config Config) (*ESpeakEngine, error) {
	espeakPath, err := findESpeakExecutable()
	if err != nil {
		return nil, fmt.Errorf("eSpeak not found: %w", err)
	}

	if err := exec.Command(espeakPath, "--version").Run(); err != nil {
		return nil, fmt.Errorf("eSpeak test failed: %w", err)
	}

	return &ESpeakEngine{
		path: espeakPath,
		rate: config.Rate,
	}, nil
}

func findESpeakExecutable() (string, error) {
	candidates := []string{"espeak-ng", "espeak"}

	for _, candidate := range candidates {
		if path, err := exec.LookPath(candidate); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("eSpeak executable not found in PATH")
}

// args builds the shared rate/voice arguments. Text always arrives on stdin
// so that utterances starting with '-' are never parsed as flags.
func (e *ESpeakEngine) args(extra ...string) []string {
	e.mutex.RLock()
	defer e.mutex.RUnlock()

	args := []string{"-s", strconv.Itoa(e.rate)}
	if e.voice != "" {
		args = append(args, "-v", e.voice)
	}
	args = append(args, extra...)
	return append(args, "--stdin")
}

func (e *ESpeakEngine) Speak(text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyUtterance
	}
	return e.proc.run(context.Background(), strings.NewReader(text), e.path, e.args()...)
}

func (e *ESpeakEngine) RenderToFile(ctx context.Context, text, path string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyUtterance
	}
	return e.proc.run(ctx, strings.NewReader(text), e.path, e.args("-w", path)...)
}

func (e *ESpeakEngine) Extension() string {
	return ".wav"
}

func (e *ESpeakEngine) Stop() error {
	return e.proc.stop()
}

func (e *ESpeakEngine) SetVoice(id string) error {
	voices, err := e.Voices()
	if err != nil {
		return err
	}

	for _, v := range voices {
		if v.ID == id {
			e.mutex.Lock()
			e.voice = id
			e.mutex.Unlock()
			return nil
		}
	}

	return fmt.Errorf("voice '%s' not available", id)
}

func (e *ESpeakEngine) SetRate(wpm int) error {
	if wpm < 10 || wpm > 1000 {
		return fmt.Errorf("rate must be between 10 and 1000 words per minute")
	}

	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.rate = wpm
	return nil
}

func (e *ESpeakEngine) Voices() ([]voice.Voice, error) {
	output, err := e.proc.output(context.Background(), e.path, "--voices")
	if err != nil {
		return nil, err
	}

	return parseESpeakVoices(string(output)), nil
}

// parseESpeakVoices reads the `--voices` table:
//
//	Pty Language       Age/Gender VoiceName          File          Other Languages
//	 5  af              --/M      Afrikaans          gmw/af
//	 2  en-gb           --/M      English_(Great_Britain) gmw/en   (en 2)
func parseESpeakVoices(output string) []voice.Voice {
	lines := strings.Split(output, "\n")
	voices := make([]voice.Voice, 0)

	for i, line := range lines {
		if i == 0 || strings.TrimSpace(line) == "" {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 4 {
			continue
		}

		languages := []string{fields[1]}
		if len(fields) > 5 {
			for _, f := range fields[5:] {
				f = strings.Trim(f, "()")
				if f == "" || isDigits(f) {
					continue
				}
				languages = append(languages, f)
			}
		}

		voices = append(voices, voice.Voice{
			ID:        fields[1],
			Name:      strings.ReplaceAll(fields[3], "_", " "),
			Languages: languages,
		})
	}

	return voices
}

func isDigits(s string) bool {
	_, err := strconv.Atoi(s)
	return err == nil
}
