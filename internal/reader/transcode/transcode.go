// Package transcode converts exported audio into another container format.
package transcode

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// ErrUnavailable is returned when no converter can produce the requested
// format from the given input.
var ErrUnavailable = errors.New("transcoding unavailable")

// Transcoder converts one audio file, writing the result next to it. The
// source file is left in place.
type Transcoder interface {
	Transcode(ctx context.Context, src string) (string, error)
	// Format is the target extension without the dot
	Format() string
}

// New returns the best converter for format: ffmpeg when it is installed,
// otherwise the built-in WAV encoder when format is wav.
func New(format string) (Transcoder, error) {
	format = normalizeFormat(format)
	if format == "" {
		return nil, fmt.Errorf("%w: no target format", ErrUnavailable)
	}

	if path, err := exec.LookPath("ffmpeg"); err == nil {
		logrus.WithFields(logrus.Fields{
			"ffmpeg": path,
			"format": format,
		}).Debug("Using ffmpeg for transcoding")
		return &FFmpeg{path: path, format: format}, nil
	}

	if format == "wav" {
		logrus.Debug("ffmpeg not found, using built-in WAV encoder")
		return &Beep{}, nil
	}

	return nil, fmt.Errorf("%w: %s needs ffmpeg on PATH", ErrUnavailable, format)
}

func normalizeFormat(format string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(format), "."))
}

// targetPath swaps the extension of src for format. same is set when src is
// already in that format.
func targetPath(src, format string) (dst string, same bool) {
	ext := filepath.Ext(src)
	if strings.EqualFold(strings.TrimPrefix(ext, "."), format) {
		return src, true
	}
	return strings.TrimSuffix(src, ext) + "." + format, false
}
