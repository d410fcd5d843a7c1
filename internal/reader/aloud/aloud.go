// Package aloud wires input, segmentation, voice selection and the playback
// or export pipeline into the commands the CLI exposes.
package aloud

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"readaloud/internal/cli/scheme/colours"
	"readaloud/internal/config"
	"readaloud/internal/domain/document"
	"readaloud/internal/domain/voice"
	"readaloud/internal/reader/export"
	"readaloud/internal/reader/keys"
	"readaloud/internal/reader/langdetect"
	"readaloud/internal/reader/playback"
	"readaloud/internal/reader/source"
	"readaloud/internal/reader/transcode"
	"readaloud/internal/reader/tts"
)

// Options is one invocation of the reader, usually built from CLI flags
type Options struct {
	Text      string
	File      string
	Clipboard bool

	WordIndicator bool
	Highlight     bool

	// Rate overrides the configured rate when positive
	Rate int
	// VoiceIndex picks a voice by position; negative means not given
	VoiceIndex int
	Lang       string
	NoDetect   bool

	Output    string
	Split     bool
	Transcode string

	// Engine overrides the configured engine when set
	Engine        string
	LineControls  bool
	RefreshVoices bool
}

// ReadAloud main application structure
type ReadAloud struct {
	settings config.Settings
	source   *source.Source
	detector langdetect.Detector
	out      io.Writer

	newEngine    func(tts.Config) (tts.Engine, tts.EngineType, error)
	openControls func(stdinConsumed, lineOnly bool) (*keys.Terminal, error)
}

func NewReadAloud(settings config.Settings) *ReadAloud {
	return &ReadAloud{
		settings:     settings,
		source:       source.New(),
		detector:     langdetect.NewWhatlang(),
		out:          os.Stdout,
		newEngine:    tts.NewEngine,
		openControls: keys.OpenTerminal,
	}
}

// ReadCommand is the root command handler
func (ra *ReadAloud) ReadCommand(cmd *cobra.Command, args []string) error {
	opts, err := optionsFromFlags(cmd, args)
	if err != nil {
		return err
	}

	if listVoices, _ := cmd.Flags().GetBool("list-voices"); listVoices {
		return ra.ListVoices(opts)
	}
	return ra.Run(cmd.Context(), opts)
}

// VoicesCommand is the voices subcommand handler
func (ra *ReadAloud) VoicesCommand(cmd *cobra.Command, args []string) error {
	opts, err := optionsFromFlags(cmd, nil)
	if err != nil {
		return err
	}
	return ra.ListVoices(opts)
}

func optionsFromFlags(cmd *cobra.Command, args []string) (Options, error) {
	flags := cmd.Flags()
	opts := Options{VoiceIndex: -1}

	// Lookups tolerate flags that a subcommand does not define
	str := func(name string) string {
		v, _ := flags.GetString(name)
		return v
	}
	boolean := func(name string) bool {
		v, _ := flags.GetBool(name)
		return v
	}

	opts.Text = str("text")
	if opts.Text == "" && len(args) > 0 {
		opts.Text = strings.Join(args, " ")
	}
	opts.File = str("file")
	opts.Clipboard = boolean("clipboard")
	opts.WordIndicator = boolean("word-indicator")
	opts.Highlight = boolean("highlight")
	opts.Lang = str("lang")
	opts.NoDetect = boolean("no-detect")
	opts.Output = str("output")
	opts.Split = boolean("split")
	opts.Transcode = str("transcode")
	opts.LineControls = boolean("line-controls")
	opts.RefreshVoices = boolean("refresh-voices")

	if f := flags.Lookup("voice"); f != nil && f.Changed {
		index, err := flags.GetInt("voice")
		if err != nil {
			return opts, err
		}
		opts.VoiceIndex = index
	}

	if opts.Split && opts.Output == "" {
		return opts, errors.New("--split needs --output")
	}
	if opts.Transcode != "" && opts.Output == "" {
		return opts, errors.New("--transcode needs --output")
	}
	return opts, nil
}

// Run reads the requested text aloud, or exports it when an output is given.
func (ra *ReadAloud) Run(ctx context.Context, opts Options) error {
	input, err := ra.source.Read(source.Request{
		Text:      opts.Text,
		File:      opts.File,
		Clipboard: opts.Clipboard,
	})
	if err != nil {
		return err
	}

	doc := document.Parse(input.Text)
	if doc.IsEmpty() {
		return fmt.Errorf("%w after removing markup and links", source.ErrEmptyInput)
	}

	logrus.WithFields(logrus.Fields{
		"origin": input.Origin.String(),
		"blocks": len(doc.Blocks),
		"words":  doc.TotalWords,
	}).Info("Document ready")

	engine, engineType, err := ra.engine(opts)
	if err != nil {
		return err
	}

	voiceID := ra.selectVoice(engine, engineType, doc, opts)

	if opts.Output != "" {
		defer func() {
			if err := engine.Stop(); err != nil {
				logrus.WithError(err).Debug("Failed to stop engine")
			}
		}()
		return ra.export(ctx, engine, doc, voiceID, opts)
	}
	return ra.play(ctx, engine, doc, voiceID, input.Origin == source.OriginStdin, opts)
}

// ListVoices prints the voices of the selected engine
func (ra *ReadAloud) ListVoices(opts Options) error {
	engine, engineType, err := ra.engine(opts)
	if err != nil {
		return err
	}
	defer engine.Stop()

	voices, err := ra.voices(engine, engineType, opts.RefreshVoices)
	if err != nil {
		return err
	}
	if len(voices) == 0 {
		return voice.ErrNoVoices
	}

	fmt.Fprintln(ra.out)
	colours.Title.Fprintf(ra.out, "🎤 Voices for %s 🎤\n", engineType)
	fmt.Fprintln(ra.out)
	for i, v := range voices {
		colours.Info.Fprintf(ra.out, "%d", i)
		fmt.Fprintf(ra.out, ": %s (%s) [%s]\n", v.Name, v.ID, strings.Join(v.Languages, ", "))
	}
	fmt.Fprintln(ra.out)
	colours.Success.Fprintf(ra.out, "✨ %d voices, pick one with --voice <index>\n", len(voices))
	return nil
}

func (ra *ReadAloud) engine(opts Options) (tts.Engine, tts.EngineType, error) {
	engineName := ra.settings.Engine
	if opts.Engine != "" {
		engineName = opts.Engine
	}
	rate := ra.settings.Rate
	if opts.Rate > 0 {
		rate = opts.Rate
	}

	engine, engineType, err := ra.newEngine(tts.Config{
		Type:              engineName,
		Rate:              rate,
		CacheDir:          ra.settings.CacheDir(),
		RequestsPerMinute: ra.settings.GoogleRPM,
	})
	if err != nil {
		if errors.Is(err, tts.ErrUnsupportedEngine) {
			return nil, engineType, fmt.Errorf("%w (available: %s)", err, availableEngines())
		}
		return nil, engineType, fmt.Errorf("failed to create TTS engine: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"engine": engineType.String(),
		"rate":   rate,
	}).Debug("Speech engine ready")
	return engine, engineType, nil
}

func availableEngines() string {
	var names []string
	for _, e := range tts.AvailableEngines() {
		names = append(names, e.String())
	}
	return strings.Join(names, ", ")
}

func (ra *ReadAloud) voices(engine tts.Engine, engineType tts.EngineType, refresh bool) ([]voice.Voice, error) {
	cache := voice.NewCache(ra.settings.CacheDir(), ra.settings.VoiceCacheTTL)
	if refresh {
		if err := cache.Clear(engineType.String()); err != nil {
			logrus.WithError(err).Warn("Failed to clear voice cache")
		}
	}
	return cache.Voices(engineType.String(), engine.Voices)
}

// selectVoice never fails the run: without voices the engine default is used
func (ra *ReadAloud) selectVoice(engine tts.Engine, engineType tts.EngineType, doc document.Document, opts Options) string {
	voices, err := ra.voices(engine, engineType, opts.RefreshVoices)
	if err != nil {
		logrus.WithError(err).Warn("Could not enumerate voices, using the engine default")
		return ""
	}

	// An out-of-range index counts as not given
	inRange := opts.VoiceIndex >= 0 && opts.VoiceIndex < len(voices)

	lang := opts.Lang
	if lang == "" && !opts.NoDetect && !inRange {
		detected, err := ra.detector.Detect(doc.Text())
		if err != nil {
			logrus.WithError(err).Debug("Language detection failed, using the first voice")
		} else {
			lang = detected
		}
	}

	id, err := voice.Select(voices, opts.VoiceIndex, lang)
	if err != nil {
		logrus.WithError(err).Warn("No voice to select, using the engine default")
		return ""
	}

	logrus.WithFields(logrus.Fields{
		"voice": id,
		"lang":  lang,
		"index": opts.VoiceIndex,
	}).Info("Voice selected")
	return id
}

func (ra *ReadAloud) play(ctx context.Context, engine tts.Engine, doc document.Document, voiceID string, stdinConsumed bool, opts Options) error {
	playOpts := playback.DefaultOptions()
	playOpts.VoiceID = voiceID
	playOpts.Rate = ra.settings.Rate
	if opts.Rate > 0 {
		playOpts.Rate = opts.Rate
	}
	if ra.settings.HeadingPause > 0 {
		playOpts.HeadingPause = ra.settings.HeadingPause
	}
	if ra.settings.SentencePause > 0 {
		playOpts.SentencePause = ra.settings.SentencePause
	}

	terminal, err := ra.openControls(stdinConsumed, opts.LineControls)
	if err != nil {
		logrus.WithError(err).Warn("Keyboard controls disabled")
		terminal = nil
	}

	raw := terminal != nil && terminal.Mode == keys.ModeRaw
	playOpts.Reporter = playback.NewConsoleReporter(ra.out, opts.WordIndicator, opts.Highlight, raw)
	session := playback.NewSession(engine, doc, playOpts)

	newline := "\n"
	if raw {
		newline = "\r\n"
	}

	listenCtx, stopListening := context.WithCancel(ctx)
	listenDone := make(chan struct{})
	if terminal != nil {
		listener := keys.NewListener(terminal.File, ra.out, terminal.Mode)
		colours.Info.Fprintf(ra.out, "💡 %s%s", listener.Hint(), newline)

		go func() {
			defer close(listenDone)
			if err := listener.Listen(listenCtx, session); err != nil {
				logrus.WithError(err).Warn("Keyboard controls stopped")
			}
		}()
	} else {
		close(listenDone)
	}

	colours.Success.Fprintf(ra.out, "🎵 Reading %d words...%s", doc.TotalWords, newline)
	runErr := session.Run(ctx)

	stopListening()
	if terminal != nil {
		if err := terminal.Close(); err != nil {
			logrus.WithError(err).Warn("Failed to restore terminal")
		}
	}
	<-listenDone

	if runErr != nil {
		return runErr
	}

	spoken, total := session.Progress()
	if session.State() == playback.StateStopped {
		colours.Warning.Fprintf(ra.out, "⏹️  Stopped after %d of %d words\n", spoken, total)
	} else {
		colours.Success.Fprintf(ra.out, "✅ Finished! %d words read\n", spoken)
	}
	return nil
}

func (ra *ReadAloud) export(ctx context.Context, engine tts.Engine, doc document.Document, voiceID string, opts Options) error {
	var transcoder transcode.Transcoder
	if opts.Transcode != "" {
		t, err := transcode.New(opts.Transcode)
		if err != nil {
			colours.Warning.Fprintf(ra.out, "⚠️  %v, keeping native audio\n", err)
		} else {
			transcoder = t
		}
	}

	rate := ra.settings.Rate
	if opts.Rate > 0 {
		rate = opts.Rate
	}

	exporter := export.New(engine, export.Options{
		VoiceID:          voiceID,
		Rate:             rate,
		Destination:      opts.Output,
		SplitPerSentence: opts.Split,
		Transcoder:       transcoder,
	})

	colours.Info.Fprintf(ra.out, "💾 Exporting %d words...\n", doc.TotalWords)
	artifacts, err := exporter.Export(ctx, doc)
	for _, a := range artifacts {
		fmt.Fprintf(ra.out, "  • %s (%s)\n", a.Path, a.HumanSize())
		if a.Transcoded != "" {
			fmt.Fprintf(ra.out, "    ↳ %s\n", a.Transcoded)
		}
	}
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	colours.Success.Fprintf(ra.out, "✅ Wrote %d file(s)\n", len(artifacts))
	return nil
}
