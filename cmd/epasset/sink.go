package main

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"epasset/internal/export"
)

// consoleSink renders runner progress to the terminal. Interactive sessions
// get a progress bar; non-interactive output degrades to one line per
// message change.
type consoleSink struct {
	out io.Writer
	bar *progressbar.ProgressBar

	mu      sync.Mutex
	lastMsg string
	outcome export.Outcome
	done    chan struct{}
}

func newConsoleSink(out io.Writer, interactive bool) *consoleSink {
	sink := &consoleSink{out: out, done: make(chan struct{})}
	if interactive {
		sink.bar = progressbar.NewOptions(100,
			progressbar.OptionSetWriter(out),
			progressbar.OptionSetDescription("starting"),
			progressbar.OptionSetWidth(30),
			progressbar.OptionClearOnFinish(),
		)
	}
	return sink
}

func stderrIsInteractive() bool {
	fd := os.Stderr.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func (s *consoleSink) Progress(percent int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bar != nil {
		s.bar.Describe(message)
		_ = s.bar.Set(percent)
		return
	}
	if message != s.lastMsg {
		fmt.Fprintf(s.out, "[%3d%%] %s\n", percent, message)
		s.lastMsg = message
	}
}

func (s *consoleSink) Terminal(outcome export.Outcome) {
	s.mu.Lock()
	if s.bar != nil {
		_ = s.bar.Finish()
	}
	s.outcome = outcome
	s.mu.Unlock()
	close(s.done)
}

// wait blocks until the batch resolves and returns its outcome.
func (s *consoleSink) wait() export.Outcome {
	<-s.done
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outcome
}
