package transcode

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/sirupsen/logrus"
)

// FFmpeg shells out to ffmpeg, which picks codecs from the file extensions.
type FFmpeg struct {
	path   string
	format string
}

func (f *FFmpeg) Format() string {
	return f.format
}

func (f *FFmpeg) Transcode(ctx context.Context, src string) (string, error) {
	dst, same := targetPath(src, f.format)
	if same {
		return src, nil
	}

	cmd := exec.CommandContext(ctx, f.path, "-y", "-i", src, dst)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("ffmpeg failed on %s: %w: %s", src, err, lastLine(msg))
		}
		return "", fmt.Errorf("ffmpeg failed on %s: %w", src, err)
	}

	logrus.WithFields(logrus.Fields{
		"src": src,
		"dst": dst,
	}).Debug("Transcoded with ffmpeg")
	return dst, nil
}

// lastLine keeps ffmpeg's banner out of error messages
func lastLine(s string) string {
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
