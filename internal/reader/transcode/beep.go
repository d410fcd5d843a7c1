package transcode

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/wav"
	"github.com/sirupsen/logrus"
)

// Beep re-encodes MP3 or WAV input as 16-bit WAV without external tools.
type Beep struct{}

func (b *Beep) Format() string {
	return "wav"
}

func (b *Beep) Transcode(ctx context.Context, src string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	dst, same := targetPath(src, b.Format())
	if same {
		return src, nil
	}

	if err := b.convert(src, dst); err != nil {
		return "", err
	}
	return dst, nil
}

func (b *Beep) convert(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}

	var (
		stream beep.StreamSeekCloser
		format beep.Format
	)
	switch ext := strings.ToLower(filepath.Ext(src)); ext {
	case ".mp3":
		stream, format, err = mp3.Decode(in)
	case ".wav":
		stream, format, err = wav.Decode(in)
	default:
		in.Close()
		return fmt.Errorf("%w: cannot decode %s without ffmpeg", ErrUnavailable, ext)
	}
	if err != nil {
		in.Close()
		return fmt.Errorf("failed to decode %s: %w", src, err)
	}
	defer stream.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	defer out.Close()

	format.Precision = 2
	if err := wav.Encode(out, stream, format); err != nil {
		return fmt.Errorf("failed to encode %s: %w", dst, err)
	}

	logrus.WithFields(logrus.Fields{
		"src":         src,
		"dst":         dst,
		"sample_rate": int(format.SampleRate),
		"channels":    format.NumChannels,
	}).Debug("Transcoded with beep")
	return nil
}
