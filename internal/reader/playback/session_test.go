package playback

import (
	"context"
	"errors"
	"io"
	"reflect"
	"sync"
	"testing"
	"time"

	"readaloud/internal/domain/document"
	"readaloud/internal/reader/tts"
)

const sampleText = "One two three. Four five! Six seven eight nine?\n\nTen eleven. Twelve."

func testOptions() Options {
	return Options{Rate: 180, VoiceID: "mock-fr"}
}

// waitFor polls cond until it holds or two seconds pass.
func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(time.Millisecond)
	}
	return true
}

func wordsOf(sentences []string) int {
	n := 0
	for _, s := range sentences {
		n += document.CountWords(s)
	}
	return n
}

type recordingReporter struct {
	mu       sync.Mutex
	headings []string
	speaking []string
	progress [][2]int
}

func (r *recordingReporter) Heading(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.headings = append(r.headings, text)
}

func (r *recordingReporter) Speaking(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.speaking = append(r.speaking, text)
}

func (r *recordingReporter) Spoken(spoken, total int, _ string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.progress = append(r.progress, [2]int{spoken, total})
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state    State
		expected string
	}{
		{StateRunning, "running"},
		{StatePaused, "paused"},
		{StateStopped, "stopped"},
		{State(42), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.expected {
			t.Errorf("State.String() = %v, want %v", got, tt.expected)
		}
	}
}

func TestTransitions(t *testing.T) {
	s := NewSession(tts.NewMockEngine(io.Discard), document.Parse(sampleText), testOptions())

	if s.Resume() {
		t.Error("Resume() from running should be rejected")
	}
	if !s.Pause() {
		t.Error("Pause() from running should succeed")
	}
	if s.Pause() {
		t.Error("Pause() from paused should be rejected")
	}
	if !s.Resume() {
		t.Error("Resume() from paused should succeed")
	}

	s.Quit()
	if s.State() != StateStopped {
		t.Fatalf("State() = %v, want stopped", s.State())
	}
	if s.Pause() || s.Resume() {
		t.Error("no transition may leave the stopped state")
	}
	s.Quit() // idempotent
}

func TestRunCompletes(t *testing.T) {
	doc := document.Parse(sampleText)
	engine := tts.NewMockEngine(io.Discard)
	reporter := &recordingReporter{}

	opts := testOptions()
	opts.Reporter = reporter
	s := NewSession(engine, doc, opts)

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if got := engine.Spoken(); !reflect.DeepEqual(got, doc.Sentences()) {
		t.Errorf("Spoken() = %#v, want %#v", got, doc.Sentences())
	}

	spoken, total := s.Progress()
	if spoken != total || total != 12 {
		t.Errorf("Progress() = %d/%d, want 12/12", spoken, total)
	}

	if id, rate := engine.Settings(); id != "mock-fr" || rate != 180 {
		t.Errorf("engine settings = %q/%d, want mock-fr/180", id, rate)
	}
	if engine.Stops() != 1 {
		t.Errorf("Stops() = %d, want 1", engine.Stops())
	}
	if s.State() != StateRunning {
		t.Errorf("State() = %v, want running after completion", s.State())
	}

	wantProgress := [][2]int{{3, 12}, {5, 12}, {9, 12}, {11, 12}, {12, 12}}
	if !reflect.DeepEqual(reporter.progress, wantProgress) {
		t.Errorf("progress = %v, want %v", reporter.progress, wantProgress)
	}
	if !reflect.DeepEqual(reporter.speaking, doc.Sentences()) {
		t.Errorf("speaking = %v, want %v", reporter.speaking, doc.Sentences())
	}
}

func TestRunQuitAfterN(t *testing.T) {
	doc := document.Parse(sampleText)
	sentences := doc.Sentences()

	for n := 1; n <= len(sentences); n++ {
		engine := tts.NewMockEngine(io.Discard)
		s := NewSession(engine, doc, testOptions())

		engine.OnSpeak = func(index int, _ string) error {
			if index == n-1 {
				s.Quit()
			}
			return nil
		}

		if err := s.Run(context.Background()); err != nil {
			t.Fatalf("n=%d: Run() error = %v", n, err)
		}

		if got := engine.Spoken(); !reflect.DeepEqual(got, sentences[:n]) {
			t.Errorf("n=%d: Spoken() = %#v, want %#v", n, got, sentences[:n])
		}
		if spoken, _ := s.Progress(); spoken != wordsOf(sentences[:n]) {
			t.Errorf("n=%d: spoken = %d, want %d", n, spoken, wordsOf(sentences[:n]))
		}
		if s.State() != StateStopped {
			t.Errorf("n=%d: State() = %v, want stopped", n, s.State())
		}
	}
}

func TestRunPauseResumeSpeaksEverything(t *testing.T) {
	doc := document.Parse(sampleText)
	engine := tts.NewMockEngine(io.Discard)
	s := NewSession(engine, doc, testOptions())

	engine.OnSpeak = func(index int, _ string) error {
		if index == 1 {
			s.Pause()
		}
		return nil
	}

	resumed := make(chan struct{})
	go func() {
		defer close(resumed)
		if !waitFor(func() bool { return len(engine.Spoken()) == 2 }) {
			t.Error("second sentence never dispatched")
			s.Resume()
			return
		}
		time.Sleep(20 * time.Millisecond)
		if got := len(engine.Spoken()); got != 2 {
			t.Errorf("dispatched %d sentences while paused, want 2", got)
		}
		s.Resume()
	}()

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	<-resumed

	if got := engine.Spoken(); !reflect.DeepEqual(got, doc.Sentences()) {
		t.Errorf("Spoken() = %#v, want %#v", got, doc.Sentences())
	}
	if spoken, total := s.Progress(); spoken != total {
		t.Errorf("Progress() = %d/%d, pausing must not skip words", spoken, total)
	}
}

func TestRunQuitWhilePaused(t *testing.T) {
	doc := document.Parse(sampleText)
	engine := tts.NewMockEngine(io.Discard)
	s := NewSession(engine, doc, testOptions())

	engine.OnSpeak = func(index int, _ string) error {
		if index == 0 {
			s.Pause()
		}
		return nil
	}

	go func() {
		if !waitFor(func() bool { return len(engine.Spoken()) == 1 }) {
			t.Error("first sentence never dispatched")
		}
		s.Quit()
	}()

	done := make(chan error, 1)
	go func() { done <- s.Run(context.Background()) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() still blocked after Quit")
	}

	if got := engine.Spoken(); len(got) != 1 {
		t.Errorf("Spoken() = %#v, want only the first sentence", got)
	}
	if spoken, _ := s.Progress(); spoken != 3 {
		t.Errorf("spoken = %d, want 3", spoken)
	}
}

func TestRunContextCancel(t *testing.T) {
	doc := document.Parse(sampleText)
	engine := tts.NewMockEngine(io.Discard)
	s := NewSession(engine, doc, testOptions())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	engine.OnSpeak = func(index int, _ string) error {
		if index == 2 {
			cancel()
			if !waitFor(func() bool { return s.State() == StateStopped }) {
				return errors.New("cancel did not stop the session")
			}
		}
		return nil
	}

	if err := s.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := len(engine.Spoken()); got != 3 {
		t.Errorf("dispatched %d sentences, want 3", got)
	}
}

func TestRunEngineFailure(t *testing.T) {
	doc := document.Parse(sampleText)
	engine := tts.NewMockEngine(io.Discard)
	s := NewSession(engine, doc, testOptions())

	boom := errors.New("audio device lost")
	engine.OnSpeak = func(index int, _ string) error {
		if index == 1 {
			return boom
		}
		return nil
	}

	err := s.Run(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("Run() error = %v, want %v", err, boom)
	}
	if engine.Stops() != 1 {
		t.Errorf("Stops() = %d, engine must be released on failure", engine.Stops())
	}
	if spoken, _ := s.Progress(); spoken != 3 {
		t.Errorf("spoken = %d, failed sentence must not be counted", spoken)
	}
}

func TestRunHeadingsAreAnnouncedNotSpoken(t *testing.T) {
	doc := document.Parse("CHAPTER 1\n\nHello there. General Kenobi.\n\nTHE END")
	engine := tts.NewMockEngine(io.Discard)
	reporter := &recordingReporter{}

	opts := testOptions()
	opts.Reporter = reporter
	opts.HeadingPause = time.Millisecond
	s := NewSession(engine, doc, opts)

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if !reflect.DeepEqual(reporter.headings, []string{"CHAPTER 1", "THE END"}) {
		t.Errorf("headings = %v", reporter.headings)
	}
	if got := engine.Spoken(); !reflect.DeepEqual(got, []string{"Hello there.", "General Kenobi."}) {
		t.Errorf("Spoken() = %#v", got)
	}
	spoken, total := s.Progress()
	if spoken != 4 || total != 8 {
		t.Errorf("Progress() = %d/%d, want 4/8", spoken, total)
	}
}

func TestRunQuitCutsPauseShort(t *testing.T) {
	doc := document.Parse("One. Two.")
	engine := tts.NewMockEngine(io.Discard)

	opts := testOptions()
	opts.SentencePause = time.Hour
	s := NewSession(engine, doc, opts)

	engine.OnSpeak = func(index int, _ string) error {
		go func() {
			time.Sleep(10 * time.Millisecond)
			s.Quit()
		}()
		return nil
	}

	done := make(chan error, 1)
	go func() { done <- s.Run(context.Background()) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return after Quit during a pause")
	}
}

func TestRunTwice(t *testing.T) {
	s := NewSession(tts.NewMockEngine(io.Discard), document.Parse("Hi."), testOptions())
	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("first Run() error = %v", err)
	}
	if err := s.Run(context.Background()); !errors.Is(err, ErrAlreadyRan) {
		t.Errorf("second Run() error = %v, want ErrAlreadyRan", err)
	}
}

func TestRunReportsUnclampedProgress(t *testing.T) {
	doc := document.Document{
		Blocks:     []document.Block{{Kind: document.KindParagraph, Text: "One two three."}},
		TotalWords: 1,
	}
	reporter := &recordingReporter{}
	opts := testOptions()
	opts.Reporter = reporter

	s := NewSession(tts.NewMockEngine(io.Discard), doc, opts)
	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if spoken, total := s.Progress(); spoken != 3 || total != 1 {
		t.Errorf("Progress() = %d/%d, want the dispatched 3 words against 1", spoken, total)
	}
	if !reflect.DeepEqual(reporter.progress, [][2]int{{3, 1}}) {
		t.Errorf("progress = %v, want [[3 1]]", reporter.progress)
	}
}
