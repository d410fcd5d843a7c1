// Package playback narrates a segmented document through a blocking speech
// engine while honouring pause, resume and quit requests from another
// goroutine.
//
// Cancellation points exist only between utterances: a sentence handed to the
// engine is always allowed to finish, and Stop on the engine is only used when
// the session is torn down.
package playback

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"readaloud/internal/domain/document"
	"readaloud/internal/reader/tts"
)

// ErrAlreadyRan is returned when Run is called twice on the same session.
var ErrAlreadyRan = errors.New("playback session already ran")

// Speaker is the part of a speech engine a playback session drives.
type Speaker interface {
	SetRate(wpm int) error
	SetVoice(id string) error
	Speak(text string) error
	Stop() error
}

// Options configures a playback session.
type Options struct {
	VoiceID       string
	Rate          int
	HeadingPause  time.Duration
	SentencePause time.Duration
	Reporter      Reporter
}

// DefaultOptions returns the pacing used by the CLI.
func DefaultOptions() Options {
	return Options{
		Rate:          tts.DefaultRate,
		HeadingPause:  500 * time.Millisecond,
		SentencePause: 100 * time.Millisecond,
	}
}

// Session is one narration of one document. The goroutine calling Run owns
// the speaker; any other goroutine may call Pause, Resume and Quit.
type Session struct {
	speaker Speaker
	doc     document.Document
	opts    Options

	mu      sync.Mutex
	cond    *sync.Cond
	state   State
	spoken  int
	block   int
	line    int
	ran     bool
	stopped chan struct{}
}

// NewSession prepares a session in the running state.
func NewSession(speaker Speaker, doc document.Document, opts Options) *Session {
	if opts.Reporter == nil {
		opts.Reporter = nopReporter{}
	}
	if opts.Rate <= 0 {
		opts.Rate = tts.DefaultRate
	}

	s := &Session{
		speaker: speaker,
		doc:     doc,
		opts:    opts,
		state:   StateRunning,
		stopped: make(chan struct{}),
	}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Pause holds dispatch of the next sentence. It only applies while running.
func (s *Session) Pause() bool {
	return s.transition(StatePaused)
}

// Resume releases a paused session.
func (s *Session) Resume() bool {
	return s.transition(StateRunning)
}

// Quit stops the session for good and wakes a paused speaker so it can see
// the stop immediately.
func (s *Session) Quit() {
	s.transition(StateStopped)
}

// State returns the current control state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Progress returns the spoken and total word counts.
func (s *Session) Progress() (spoken, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.spoken, s.doc.TotalWords
}

// Cursor returns the block and sentence index currently being narrated.
func (s *Session) Cursor() (block, sentence int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.block, s.line
}

func (s *Session) transition(to State) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	from := s.state
	if !canTransition(from, to) {
		return false
	}

	s.state = to
	if to == StateStopped {
		close(s.stopped)
	}
	s.cond.Broadcast()

	logrus.WithFields(logrus.Fields{
		"from": from.String(),
		"to":   to.String(),
	}).Debug("Playback state changed")
	return true
}

// Run narrates the document until every block has been walked or the
// session is stopped. Cancelling ctx is the same as Quit. The speaker is
// stopped when Run returns, whatever the outcome.
func (s *Session) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.ran {
		s.mu.Unlock()
		return ErrAlreadyRan
	}
	s.ran = true
	s.mu.Unlock()

	release := context.AfterFunc(ctx, s.Quit)
	defer release()

	defer func() {
		if err := s.speaker.Stop(); err != nil {
			logrus.WithError(err).Warn("Failed to release speech engine")
		}
	}()

	if err := s.speaker.SetRate(s.opts.Rate); err != nil {
		return fmt.Errorf("failed to set rate: %w", err)
	}
	if s.opts.VoiceID != "" {
		if err := s.speaker.SetVoice(s.opts.VoiceID); err != nil {
			return fmt.Errorf("failed to set voice: %w", err)
		}
	}

	for bi, block := range s.doc.Blocks {
		if s.State() == StateStopped {
			return nil
		}
		s.setCursor(bi, 0)

		if block.IsHeading() {
			s.opts.Reporter.Heading(block.Text)
			s.sleep(s.opts.HeadingPause)
			continue
		}

		for si, sentence := range block.Sentences() {
			s.setCursor(bi, si)
			if !s.awaitRunning() {
				return nil
			}

			s.opts.Reporter.Speaking(sentence)
			if err := s.speaker.Speak(sentence); err != nil {
				return fmt.Errorf("speech engine failed on block %d sentence %d: %w", bi+1, si+1, err)
			}

			words := document.CountWords(sentence)
			spoken, total := s.addSpoken(words)
			logrus.WithFields(logrus.Fields{
				"block":    bi,
				"sentence": si,
				"words":    words,
				"spoken":   spoken,
			}).Debug("Sentence spoken")

			s.opts.Reporter.Spoken(spoken, total, sentence)
			s.sleep(s.opts.SentencePause)
		}
	}

	return nil
}

// awaitRunning blocks while the session is paused and reports whether the
// next sentence may be dispatched.
func (s *Session) awaitRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateStopped {
		return false
	}
	for s.state == StatePaused {
		s.cond.Wait()
	}
	return s.state != StateStopped
}

func (s *Session) addSpoken(words int) (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.spoken += words
	if s.spoken > s.doc.TotalWords {
		logrus.WithFields(logrus.Fields{
			"spoken": s.spoken,
			"total":  s.doc.TotalWords,
		}).Warn("Spoken words exceed the document total")
	}
	return s.spoken, s.doc.TotalWords
}

func (s *Session) setCursor(block, sentence int) {
	s.mu.Lock()
	s.block, s.line = block, sentence
	s.mu.Unlock()
}

// sleep waits for d, returning early once the session is stopped.
func (s *Session) sleep(d time.Duration) {
	if d <= 0 {
		return
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-s.stopped:
	}
}
