package serial

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/okian/slalom/internal/adapters/mq/queue"
	"github.com/okian/slalom/internal/domain/model"
	"github.com/okian/slalom/pkg/logger"
	"github.com/okian/slalom/pkg/metrics"
)

const transportName = "serial"

// maxLineBytes fits 360 readings with generous precision.
const maxLineBytes = 64 * 1024

// ParseScanLine parses one revolution of comma separated ranges.
func ParseScanLine(line string, ts time.Time) (model.RawScan, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return model.RawScan{}, fmt.Errorf("%w: empty line", model.ErrMalformedScan)
	}
	fields := strings.Split(line, ",")
	ranges := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return model.RawScan{}, fmt.Errorf("%w: bin %d: %w", model.ErrMalformedScan, i, err)
		}
		ranges[i] = v
	}
	return model.NewRawScan(ranges, ts)
}

// Source reads scan lines from a port in the background and hands the
// freshest one to Fetch.
type Source struct {
	port   io.ReadCloser
	scans  *queue.Latest[model.RawScan]
	logger logger.Logger

	mu      sync.Mutex
	readErr error
	done    chan struct{}
}

// NewSource starts reading from port. buffer bounds the scans waiting for Fetch.
func NewSource(port io.ReadCloser, buffer int, l logger.Logger) *Source {
	if l == nil {
		l = logger.Get().Named("serial")
	}
	s := &Source{
		port:   port,
		scans:  queue.NewLatest[model.RawScan](buffer),
		logger: l,
		done:   make(chan struct{}),
	}
	go s.readLoop()
	return s
}

func (s *Source) readLoop() {
	defer close(s.done)
	defer s.scans.Close()

	sc := bufio.NewScanner(s.port)
	sc.Buffer(make([]byte, 0, 8*1024), maxLineBytes)
	for sc.Scan() {
		scan, err := ParseScanLine(sc.Text(), time.Now())
		if err != nil {
			metrics.RecordScanMalformed(transportName)
			s.logger.Debug(context.Background(), "dropping scan line", logger.Error(err))
			continue
		}
		metrics.RecordScanReceived(transportName)
		for i := s.scans.Offer(scan); i > 0; i-- {
			metrics.RecordScanDropped(transportName)
		}
	}

	err := sc.Err()
	if err == nil {
		err = io.EOF
	}
	s.mu.Lock()
	s.readErr = err
	s.mu.Unlock()
}

// Fetch blocks until a scan is available. Once the port stops producing it
// returns the read error wrapped in ErrClosed.
func (s *Source) Fetch(ctx context.Context) (model.RawScan, error) {
	scan, err := s.scans.Take(ctx)
	if errors.Is(err, queue.ErrClosed) {
		s.mu.Lock()
		defer s.mu.Unlock()
		return model.RawScan{}, fmt.Errorf("%w: %w", ErrClosed, s.readErr)
	}
	return scan, err
}

// Close closes the port and waits for the reader to stop.
func (s *Source) Close() error {
	err := s.port.Close()
	<-s.done
	return err
}
