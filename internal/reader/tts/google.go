package tts

import (
	"bytes"
	"context"
	"crypto/md5"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"readaloud/internal/domain/voice"
)

const (
	googleDefaultVoice = "en-GB-Chirp3-HD-Umbriel"
	// googleChunkLimit stays a little under the 5000 byte request limit
	googleChunkLimit = 4800
)

// GoogleEngine synthesizes MP3 through Google Cloud Text-to-Speech and plays
// it locally with beep.
type GoogleEngine struct {
	client   *texttospeech.Client
	limiter  *rate.Limiter
	cacheDir string

	mu        sync.Mutex
	voice     string
	rate      int
	interrupt chan struct{}

	speakerRate beep.SampleRate
}

func newGoogleEngine(config Config) (*GoogleEngine, error) {
	client, err := texttospeech.NewClient(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to create TTS client: %w", err)
	}

	cacheDir := config.CacheDir
	if cacheDir == "" {
		cacheDir = filepath.Join(os.TempDir(), "readaloud")
	}
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache dir: %w", err)
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if config.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(config.RequestsPerMinute)), 1)
	}

	return &GoogleEngine{
		client:   client,
		limiter:  limiter,
		cacheDir: cacheDir,
		voice:    googleDefaultVoice,
		rate:     config.Rate,
	}, nil
}

func (g *GoogleEngine) SetVoice(id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.voice = id
	return nil
}

func (g *GoogleEngine) SetRate(wpm int) error {
	if wpm <= 0 {
		return fmt.Errorf("rate must be positive")
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rate = wpm
	return nil
}

func (g *GoogleEngine) Extension() string {
	return ".mp3"
}

func (g *GoogleEngine) Voices() ([]voice.Voice, error) {
	resp, err := g.client.ListVoices(context.Background(), &texttospeechpb.ListVoicesRequest{})
	if err != nil {
		return nil, err
	}

	voices := make([]voice.Voice, 0, len(resp.Voices))
	for _, v := range resp.Voices {
		voices = append(voices, voice.Voice{
			ID:        v.Name,
			Name:      v.Name,
			Languages: v.LanguageCodes,
		})
	}
	return voices, nil
}

// Speak synthesizes the utterance, reusing cached audio when the same text
// was spoken with the same voice and rate, then plays it to completion.
func (g *GoogleEngine) Speak(text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyUtterance
	}

	voiceName, wpm := g.settings()
	path := filepath.Join(g.cacheDir, fmt.Sprintf("utterance_%s.mp3", md5Sum(fmt.Sprintf("%s|%s|%d", text, voiceName, wpm))[:12]))

	if _, err := os.Stat(path); os.IsNotExist(err) {
		audio, err := g.synthesize(context.Background(), text)
		if err != nil {
			return err
		}
		if err := os.WriteFile(path, audio, 0644); err != nil {
			return fmt.Errorf("failed to cache audio %s: %w", path, err)
		}
	} else {
		logrus.WithField("file", path).Debug("Using cached utterance audio")
	}

	return g.play(path)
}

func (g *GoogleEngine) RenderToFile(ctx context.Context, text, path string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyUtterance
	}

	audio, err := g.synthesize(ctx, text)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, audio, 0644); err != nil {
		return fmt.Errorf("failed to write MP3 to %s: %w", path, err)
	}
	return nil
}

// Stop clears the speaker and releases a blocked Speak
func (g *GoogleEngine) Stop() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.interrupt != nil {
		speaker.Clear()
		close(g.interrupt)
		g.interrupt = nil
	}
	return nil
}

func (g *GoogleEngine) settings() (string, int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.voice, g.rate
}

// synthesize requests MP3 audio chunk by chunk. MP3 frames concatenate, so
// the chunks are simply appended.
func (g *GoogleEngine) synthesize(ctx context.Context, text string) ([]byte, error) {
	voiceName, wpm := g.settings()

	audioCfg := &texttospeechpb.AudioConfig{
		AudioEncoding: texttospeechpb.AudioEncoding_MP3,
	}
	// Chirp voices reject speakingRate
	if !strings.Contains(strings.ToLower(voiceName), "chirp") {
		audioCfg.SpeakingRate = float64(wpm) / DefaultRate
	}

	var out bytes.Buffer
	chunks := splitIntoChunks(text, googleChunkLimit)
	for i, chunk := range chunks {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		req := &texttospeechpb.SynthesizeSpeechRequest{
			Input: &texttospeechpb.SynthesisInput{
				InputSource: &texttospeechpb.SynthesisInput_Text{Text: chunk},
			},
			Voice: &texttospeechpb.VoiceSelectionParams{
				LanguageCode: languageCodeFromVoice(voiceName),
				Name:         voiceName,
			},
			AudioConfig: audioCfg,
		}
		resp, err := g.client.SynthesizeSpeech(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("failed to synthesize chunk %d/%d: %w", i+1, len(chunks), err)
		}
		out.Write(resp.AudioContent)
	}

	return out.Bytes(), nil
}

// play blocks until the file has been played or Stop is called
func (g *GoogleEngine) play(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open MP3 %s: %w", path, err)
	}

	streamer, format, err := mp3.Decode(f)
	if err != nil {
		f.Close()
		return fmt.Errorf("failed to decode MP3 %s: %w", path, err)
	}
	defer streamer.Close()

	done := make(chan struct{})
	interrupt := make(chan struct{})

	g.mu.Lock()
	if g.speakerRate != format.SampleRate {
		if err := speaker.Init(format.SampleRate, format.SampleRate.N(time.Second/10)); err != nil {
			g.mu.Unlock()
			return err
		}
		g.speakerRate = format.SampleRate
	}
	g.interrupt = interrupt
	g.mu.Unlock()

	speaker.Play(beep.Seq(streamer, beep.Callback(func() {
		close(done)
	})))

	select {
	case <-done:
	case <-interrupt:
	}

	g.mu.Lock()
	if g.interrupt == interrupt {
		g.interrupt = nil
	}
	g.mu.Unlock()

	return nil
}

// languageCodeFromVoice derives "en-US" from names like "en-US-Standard-C"
func languageCodeFromVoice(name string) string {
	parts := strings.SplitN(name, "-", 3)
	if len(parts) < 3 {
		return "en-US"
	}
	return parts[0] + "-" + parts[1]
}

func md5Sum(s string) string {
	h := md5.New()
	io.WriteString(h, s)
	return fmt.Sprintf("%x", h.Sum(nil))
}

// splitIntoChunks cuts text into pieces of at most limit bytes, never inside
// a UTF-8 sequence
func splitIntoChunks(text string, limit int) []string {
	var chunks []string
	for len(text) > limit {
		cut := limit
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		if cut == 0 {
			_, cut = utf8.DecodeRuneInString(text)
		}
		chunks = append(chunks, text[:cut])
		text = text[cut:]
	}
	if text != "" {
		chunks = append(chunks, text)
	}
	return chunks
}
