package serial

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/okian/slalom/internal/domain/model"
)

// Sink writes speed commands to the drive controller.
type Sink struct {
	mu sync.Mutex
	w  io.WriteCloser
}

// NewSink wraps an open port.
func NewSink(w io.WriteCloser) *Sink {
	return &Sink{w: w}
}

// FormatCommand renders cmd the way the drive controller parses it.
func FormatCommand(cmd model.SpeedCommand) string {
	return fmt.Sprintf("%.4f,%.4f\n", cmd.Linear, cmd.Angular)
}

// Dispatch writes one command line.
func (s *Sink) Dispatch(ctx context.Context, cmd model.SpeedCommand) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := io.WriteString(s.w, FormatCommand(cmd)); err != nil {
		return fmt.Errorf("write command: %w", err)
	}
	return nil
}

// Close closes the port.
func (s *Sink) Close() error {
	return s.w.Close()
}
