package sim

import (
	"context"
	"sync"

	"github.com/okian/slalom/internal/domain/model"
)

// RecorderOption applies a configuration option to the Recorder.
type RecorderOption func(*Recorder)

// WithKeep retains only the last n commands. Count still reports the total.
func WithKeep(n int) RecorderOption {
	return func(r *Recorder) {
		if n > 0 {
			r.keep = n
		}
	}
}

// Recorder is a command sink that keeps dispatched commands in memory.
type Recorder struct {
	mu       sync.Mutex
	commands []model.SpeedCommand
	total    int
	keep     int
	err      error
}

// NewRecorder creates an empty recorder that keeps every command.
func NewRecorder(opts ...RecorderOption) *Recorder {
	r := &Recorder{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Dispatch records cmd, or returns the configured failure.
func (r *Recorder) Dispatch(_ context.Context, cmd model.SpeedCommand) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.commands = append(r.commands, cmd)
	if r.keep > 0 && len(r.commands) > r.keep {
		r.commands = append(r.commands[:0], r.commands[len(r.commands)-r.keep:]...)
	}
	r.total++
	return nil
}

// FailWith makes every later Dispatch return err. A nil err restores normal operation.
func (r *Recorder) FailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

// Commands returns a copy of the retained commands, oldest first.
func (r *Recorder) Commands() []model.SpeedCommand {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.SpeedCommand(nil), r.commands...)
}

// Count returns the number of commands dispatched successfully.
func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.total
}
