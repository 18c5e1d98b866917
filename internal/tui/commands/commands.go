// Package commands provides TUI command constructors and message types.
package commands

import (
	"context"
	"fmt"
	"sync"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
)

// ErrMsg is sent when an error occurs.
type ErrMsg struct {
	Err error
}

// StatusMsgCmd is sent for temporary status messages.
type StatusMsgCmd struct {
	Msg string
}

// ClearStatusMsg is sent to clear the status message.
type ClearStatusMsg struct{}

// PersistedMsg is sent when a queued write finished.
type PersistedMsg struct {
	Label string
	Err   error
}

// WriteFunc makes an in-memory change durable.
type WriteFunc func(ctx context.Context) error

// queueSize bounds both pending writes and undelivered results.
const queueSize = 64

type job struct {
	label string
	write WriteFunc
}

// Writer runs writes one at a time in the order they were queued, so a later
// snapshot never lands before an earlier one.
type Writer struct {
	ctx     context.Context
	log     zerolog.Logger
	jobs    chan job
	results chan PersistedMsg
	done    chan struct{}
	once    sync.Once
}

// NewWriter starts the background writer. Failed writes are logged to log
// as well as delivered through Wait.
func NewWriter(ctx context.Context, log zerolog.Logger) *Writer {
	w := &Writer{
		ctx:     ctx,
		log:     log,
		jobs:    make(chan job, queueSize),
		results: make(chan PersistedMsg, queueSize),
		done:    make(chan struct{}),
	}
	go w.run()
	return w
}

func (w *Writer) run() {
	defer close(w.done)
	for j := range w.jobs {
		msg := PersistedMsg{Label: j.label, Err: j.write(w.ctx)}
		if msg.Err != nil {
			w.log.Error().Err(msg.Err).Str("event", "write_failed").Str("label", j.label).Msg("background write failed")
		}
		select {
		case w.results <- msg:
		default:
			w.log.Warn().Err(msg.Err).Str("event", "write_result_dropped").Str("label", j.label).Msg("result queue full")
		}
	}
}

// Enqueue queues a write. It must not be called after Close.
func (w *Writer) Enqueue(label string, write WriteFunc) {
	w.jobs <- job{label: label, write: write}
}

// Wait returns a command that delivers the next finished write.
func (w *Writer) Wait() tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-w.results
		if !ok {
			return nil
		}
		return msg
	}
}

// Close flushes pending writes and stops the writer.
func (w *Writer) Close() {
	w.once.Do(func() {
		close(w.jobs)
		<-w.done
		close(w.results)
	})
}

// CopyToClipboard copies text to the system clipboard.
func CopyToClipboard(text, what string) tea.Cmd {
	return func() tea.Msg {
		if err := clipboard.WriteAll(text); err != nil {
			return ErrMsg{Err: fmt.Errorf("copying %s: %w", what, err)}
		}
		return StatusMsgCmd{Msg: "Copied " + what + " to clipboard"}
	}
}
