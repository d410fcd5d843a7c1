// Package export renders a document to audio files instead of speaking it.
package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"

	"readaloud/internal/domain/document"
	"readaloud/internal/reader/transcode"
	"readaloud/internal/reader/tts"
)

// DefaultDestination is used when no output path is given
const DefaultDestination = "readaloud"

// ErrNothingToExport is returned for documents without any sentence
var ErrNothingToExport = errors.New("document has no sentences to export")

// Renderer is the part of a speech engine needed to write audio files.
type Renderer interface {
	SetRate(wpm int) error
	SetVoice(id string) error
	RenderToFile(ctx context.Context, text, path string) error
	Extension() string
}

type Options struct {
	VoiceID string
	Rate    int
	// Destination is the output path. Without an extension the renderer's
	// native one is appended.
	Destination string
	// SplitPerSentence writes <base>_<n><ext> per sentence, n counting from 1
	// across the whole document.
	SplitPerSentence bool
	// Transcoder, when set, also converts every written file.
	Transcoder transcode.Transcoder
}

// Artifact is one written audio file
type Artifact struct {
	Path       string
	Transcoded string
	Size       int64
}

// HumanSize formats the size of the rendered file
func (a Artifact) HumanSize() string {
	return humanize.Bytes(uint64(a.Size))
}

type Exporter struct {
	renderer Renderer
	opts     Options
}

func New(renderer Renderer, opts Options) *Exporter {
	if opts.Rate <= 0 {
		opts.Rate = tts.DefaultRate
	}
	if strings.TrimSpace(opts.Destination) == "" {
		opts.Destination = DefaultDestination
	}
	return &Exporter{renderer: renderer, opts: opts}
}

// Export renders doc sequentially. The first render or transcode failure
// aborts the export; files already written are left in place. A transcoder
// that cannot handle the rendered format is skipped with a warning.
func (e *Exporter) Export(ctx context.Context, doc document.Document) ([]Artifact, error) {
	sentences := doc.Sentences()
	if len(sentences) == 0 {
		return nil, ErrNothingToExport
	}

	if err := e.renderer.SetRate(e.opts.Rate); err != nil {
		return nil, fmt.Errorf("failed to set rate: %w", err)
	}
	if e.opts.VoiceID != "" {
		if err := e.renderer.SetVoice(e.opts.VoiceID); err != nil {
			return nil, fmt.Errorf("failed to set voice: %w", err)
		}
	}

	dest := e.destination()
	if dir := filepath.Dir(dest); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	if !e.opts.SplitPerSentence {
		artifact, err := e.render(ctx, strings.Join(sentences, " "), dest)
		if err != nil {
			return nil, err
		}
		return []Artifact{artifact}, nil
	}

	ext := filepath.Ext(dest)
	base := strings.TrimSuffix(dest, ext)

	artifacts := make([]Artifact, 0, len(sentences))
	for i, sentence := range sentences {
		path := fmt.Sprintf("%s_%d%s", base, i+1, ext)
		artifact, err := e.render(ctx, sentence, path)
		if err != nil {
			return artifacts, fmt.Errorf("sentence %d of %d: %w", i+1, len(sentences), err)
		}
		artifacts = append(artifacts, artifact)
	}

	return artifacts, nil
}

// destination applies the renderer's extension when none was given
func (e *Exporter) destination() string {
	dest := e.opts.Destination
	if filepath.Ext(dest) == "" {
		dest += e.renderer.Extension()
	}
	return dest
}

func (e *Exporter) render(ctx context.Context, text, path string) (Artifact, error) {
	if err := ctx.Err(); err != nil {
		return Artifact{}, err
	}

	if err := e.renderer.RenderToFile(ctx, text, path); err != nil {
		return Artifact{}, fmt.Errorf("failed to render %s: %w", path, err)
	}

	artifact := Artifact{Path: path}
	if info, err := os.Stat(path); err == nil {
		artifact.Size = info.Size()
	}

	logrus.WithFields(logrus.Fields{
		"file":  path,
		"words": document.CountWords(text),
		"size":  artifact.HumanSize(),
	}).Debug("Rendered audio")

	if e.opts.Transcoder == nil {
		return artifact, nil
	}

	transcoded, err := e.opts.Transcoder.Transcode(ctx, path)
	switch {
	case errors.Is(err, transcode.ErrUnavailable):
		logrus.WithError(err).WithField("file", path).Warn("Skipping transcoding")
	case err != nil:
		return artifact, fmt.Errorf("failed to transcode %s: %w", path, err)
	default:
		artifact.Transcoded = transcoded
	}

	return artifact, nil
}
