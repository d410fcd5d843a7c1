package export

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"readaloud/internal/domain/document"
	"readaloud/internal/reader/transcode"
	"readaloud/internal/reader/tts"
)

const interleaved = "PART ONE\n\nFirst sentence. Second one!\n\nPART TWO\n\nThird and last?"

// recordingTranscoder copies the file under a new extension
type recordingTranscoder struct {
	calls []string
	err   error
}

func (r *recordingTranscoder) Format() string { return "ogg" }

func (r *recordingTranscoder) Transcode(_ context.Context, src string) (string, error) {
	r.calls = append(r.calls, src)
	if r.err != nil {
		return "", r.err
	}
	dst := strings.TrimSuffix(src, filepath.Ext(src)) + ".ogg"
	data, err := os.ReadFile(src)
	if err != nil {
		return "", err
	}
	return dst, os.WriteFile(dst, data, 0644)
}

func TestExportSplit(t *testing.T) {
	dir := t.TempDir()
	engine := tts.NewMockEngine(io.Discard)

	e := New(engine, Options{
		VoiceID:          "mock-fr",
		Rate:             120,
		Destination:      filepath.Join(dir, "book"),
		SplitPerSentence: true,
	})

	artifacts, err := e.Export(context.Background(), document.Parse(interleaved))
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	want := []string{
		filepath.Join(dir, "book_1.wav"),
		filepath.Join(dir, "book_2.wav"),
		filepath.Join(dir, "book_3.wav"),
	}
	var got []string
	for _, a := range artifacts {
		got = append(got, a.Path)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("artifact paths = %v, want %v", got, want)
	}

	texts := []string{"First sentence.", "Second one!", "Third and last?"}
	for i, r := range engine.Renders() {
		if r.Text != texts[i] {
			t.Errorf("render %d text = %q, want %q", i, r.Text, texts[i])
		}
		if artifacts[i].Size != int64(len(texts[i])) {
			t.Errorf("artifact %d size = %d, want %d", i, artifacts[i].Size, len(texts[i]))
		}
	}

	if id, rate := engine.Settings(); id != "mock-fr" || rate != 120 {
		t.Errorf("engine settings = %q/%d, want mock-fr/120", id, rate)
	}
}

func TestExportSingleFile(t *testing.T) {
	dir := t.TempDir()
	engine := tts.NewMockEngine(io.Discard)
	dest := filepath.Join(dir, "nested", "out.audio")

	artifacts, err := New(engine, Options{Destination: dest}).Export(context.Background(), document.Parse(interleaved))
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if len(artifacts) != 1 || artifacts[0].Path != dest {
		t.Fatalf("artifacts = %+v, want one at %s", artifacts, dest)
	}

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if want := "First sentence. Second one! Third and last?"; string(data) != want {
		t.Errorf("rendered text = %q, want %q", data, want)
	}
	if artifacts[0].HumanSize() != "43 B" {
		t.Errorf("HumanSize() = %q, want 43 B", artifacts[0].HumanSize())
	}
}

func TestExportAbortsOnFirstFailure(t *testing.T) {
	dir := t.TempDir()
	engine := tts.NewMockEngine(io.Discard)
	boom := errors.New("synthesis quota exceeded")
	engine.OnRender = func(path, _ string) error {
		if strings.HasSuffix(path, "_2.wav") {
			return boom
		}
		return nil
	}

	e := New(engine, Options{Destination: filepath.Join(dir, "x.wav"), SplitPerSentence: true})
	artifacts, err := e.Export(context.Background(), document.Parse(interleaved))
	if !errors.Is(err, boom) {
		t.Fatalf("Export() error = %v, want %v", err, boom)
	}
	if len(artifacts) != 1 {
		t.Errorf("got %d artifacts, want the one written before the failure", len(artifacts))
	}
	if len(engine.Renders()) != 1 {
		t.Errorf("renders = %d, nothing may be rendered after a failure", len(engine.Renders()))
	}
	if _, err := os.Stat(filepath.Join(dir, "x_1.wav")); err != nil {
		t.Errorf("first file should be left in place: %v", err)
	}
}

func TestExportTranscodes(t *testing.T) {
	dir := t.TempDir()
	tr := &recordingTranscoder{}

	e := New(tts.NewMockEngine(io.Discard), Options{
		Destination:      filepath.Join(dir, "t"),
		SplitPerSentence: true,
		Transcoder:       tr,
	})
	artifacts, err := e.Export(context.Background(), document.Parse("One. Two."))
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	if len(tr.calls) != 2 {
		t.Fatalf("transcoder calls = %v, want 2", tr.calls)
	}
	for _, a := range artifacts {
		if filepath.Ext(a.Transcoded) != ".ogg" {
			t.Errorf("Transcoded = %q, want an .ogg path", a.Transcoded)
		}
		if _, err := os.Stat(a.Path); err != nil {
			t.Errorf("original %s should be kept: %v", a.Path, err)
		}
	}
}

func TestExportTranscodeErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr bool
	}{
		{"unavailable is skipped", transcode.ErrUnavailable, false},
		{"failure aborts", errors.New("ffmpeg crashed"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := &recordingTranscoder{err: tt.err}
			e := New(tts.NewMockEngine(io.Discard), Options{
				Destination:      filepath.Join(t.TempDir(), "t.wav"),
				SplitPerSentence: true,
				Transcoder:       tr,
			})

			artifacts, err := e.Export(context.Background(), document.Parse("One. Two."))
			if (err != nil) != tt.wantErr {
				t.Fatalf("Export() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if len(tr.calls) != 1 {
					t.Errorf("transcoder calls = %d, want 1", len(tr.calls))
				}
				return
			}
			if len(artifacts) != 2 || artifacts[0].Transcoded != "" {
				t.Errorf("artifacts = %+v, want two untranscoded files", artifacts)
			}
		})
	}
}

func TestExportNothing(t *testing.T) {
	e := New(tts.NewMockEngine(io.Discard), Options{Destination: filepath.Join(t.TempDir(), "h")})
	if _, err := e.Export(context.Background(), document.Parse("ONLY A HEADING")); !errors.Is(err, ErrNothingToExport) {
		t.Errorf("Export() error = %v, want ErrNothingToExport", err)
	}
}

func TestExportCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	engine := tts.NewMockEngine(io.Discard)
	e := New(engine, Options{Destination: filepath.Join(t.TempDir(), "c"), SplitPerSentence: true})
	if _, err := e.Export(ctx, document.Parse("One. Two.")); !errors.Is(err, context.Canceled) {
		t.Errorf("Export() error = %v, want context.Canceled", err)
	}
	if len(engine.Renders()) != 0 {
		t.Errorf("renders = %d, want none", len(engine.Renders()))
	}
}
