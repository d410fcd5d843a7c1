// Package source obtains the raw text to read aloud.
package source

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/sirupsen/logrus"

	"readaloud/internal/cli/scheme/colours"
)

// ErrEmptyInput is returned when the chosen source yields no text
var ErrEmptyInput = errors.New("no text to read")

// EndMarker ends interactive input when typed on a line of its own
const EndMarker = "^D"

// ClipboardReader returns the current clipboard contents
type ClipboardReader func() (string, error)

// Origin names where the text came from
type Origin int

const (
	OriginText Origin = iota
	OriginFile
	OriginClipboard
	OriginStdin
)

func (o Origin) String() string {
	switch o {
	case OriginText:
		return "text"
	case OriginFile:
		return "file"
	case OriginClipboard:
		return "clipboard"
	case OriginStdin:
		return "stdin"
	default:
		return "unknown"
	}
}

// Request selects the source. The first one set wins, in field order; with
// none set the text is read from stdin.
type Request struct {
	Text      string
	File      string
	Clipboard bool
}

type Input struct {
	Text   string
	Origin Origin
}

// Source reads text from its collaborators
type Source struct {
	Stdin     io.Reader
	Prompt    io.Writer
	Clipboard ClipboardReader
}

// New returns a source wired to the process stdin and the system clipboard
func New() *Source {
	return &Source{
		Stdin:     os.Stdin,
		Prompt:    os.Stderr,
		Clipboard: readSystemClipboard,
	}
}

func readSystemClipboard() (string, error) {
	if clipboard.Unsupported {
		return "", errors.New("clipboard access is not supported on this system")
	}
	return clipboard.ReadAll()
}

// Read fetches the requested text. Whitespace-only text is ErrEmptyInput.
func (s *Source) Read(req Request) (Input, error) {
	var (
		in  Input
		err error
	)

	switch {
	case req.Text != "":
		in = Input{Text: req.Text, Origin: OriginText}
	case req.File != "":
		in.Origin = OriginFile
		in.Text, err = readFile(req.File)
	case req.Clipboard:
		in.Origin = OriginClipboard
		in.Text, err = s.readClipboard()
	default:
		in.Origin = OriginStdin
		in.Text, err = s.readStdin()
	}
	if err != nil {
		return Input{}, err
	}

	logrus.WithFields(logrus.Fields{
		"origin": in.Origin.String(),
		"bytes":  len(in.Text),
	}).Debug("Read input")

	if strings.TrimSpace(in.Text) == "" {
		return Input{}, fmt.Errorf("%w from %s", ErrEmptyInput, in.Origin)
	}
	return in, nil
}

func readFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read file %s: %w", path, err)
	}
	return string(data), nil
}

func (s *Source) readClipboard() (string, error) {
	if s.Clipboard == nil {
		return "", errors.New("no clipboard reader configured")
	}
	text, err := s.Clipboard()
	if err != nil {
		return "", fmt.Errorf("failed to read clipboard: %w", err)
	}
	return text, nil
}

// readStdin reads lines until EOF or a line holding only EndMarker
func (s *Source) readStdin() (string, error) {
	if s.Stdin == nil {
		return "", ErrEmptyInput
	}
	if s.Prompt != nil {
		colours.Prompt.Fprintf(s.Prompt, "📝 Enter text, then Ctrl+D or a line with %s to finish:\n", EndMarker)
	}

	var lines []string
	scanner := bufio.NewScanner(s.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == EndMarker {
			break
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}

	return strings.Join(lines, "\n"), nil
}
