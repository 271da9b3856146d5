package hil

import (
	"bytes"
	"context"
	"sync"
	"time"

	"cdr.dev/slog/v3"
	"github.com/coder/quartz"
	"github.com/google/uuid"
	"golang.org/x/xerrors"

	"github.com/rqou/openfpga/hid"
)

// Session is an exclusively-owned connection to one platform board. All I/O
// on the underlying handle is serialized internally, so a Session may be
// shared between goroutines. Close is idempotent and releases the handle on
// every exit path.
type Session struct {
	ID uuid.UUID

	dev        hid.Device
	log        slog.Logger
	clock      quartz.Clock
	reportSize int

	mu     sync.Mutex
	closed bool
}

func newSession(dev hid.Device, log slog.Logger, clock quartz.Clock, reportSize int) *Session {
	return &Session{
		ID:         uuid.New(),
		dev:        dev,
		log:        log,
		clock:      clock,
		reportSize: reportSize,
	}
}

// Info returns the descriptor the session's device was opened from.
func (s *Session) Info() hid.DeviceInfo {
	return s.dev.Info()
}

// Read waits up to timeout for the next input report. A zero timeout polls.
func (s *Session) Read(ctx context.Context, timeout time.Duration) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readLocked(ctx, timeout)
}

// Write sends one output report to the board.
func (s *Session) Write(ctx context.Context, p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeLocked(ctx, p)
}

// Exchange writes one report and waits up to timeout for the response. The
// write and read happen under one lock, so concurrent exchanges on the same
// session cannot interleave.
func (s *Session) Exchange(ctx context.Context, out []byte, timeout time.Duration) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.writeLocked(ctx, out); err != nil {
		return nil, err
	}
	return s.readLocked(ctx, timeout)
}

// Loopback exchanges payload with a loopback-capable board and verifies the
// echoed bytes match.
func (s *Session) Loopback(ctx context.Context, payload []byte, timeout time.Duration) error {
	if len(payload) == 0 {
		return xerrors.New("hil: empty loopback payload")
	}
	if len(payload) > s.reportSize {
		return xerrors.Errorf("hil: loopback payload %d bytes exceeds report size %d", len(payload), s.reportSize)
	}
	start := s.clock.Now()
	got, err := s.Exchange(ctx, payload, timeout)
	if err != nil {
		return xerrors.Errorf("loopback %s: %w", s.Info().Path, err)
	}
	if len(got) < len(payload) || !bytes.Equal(got[:len(payload)], payload) {
		return xerrors.Errorf("loopback mismatch on %s: sent %x, got %x", s.Info().Path, payload, got)
	}
	s.log.Debug(ctx, "loopback ok",
		slog.F("path", s.Info().Path),
		slog.F("bytes", len(payload)),
		slog.F("elapsed", s.clock.Now().Sub(start)),
	)
	return nil
}

// Close releases the device handle. The second and later calls are no-ops.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.dev.Close()
}

func (s *Session) readLocked(ctx context.Context, timeout time.Duration) ([]byte, error) {
	if s.closed {
		return nil, hid.ErrDeviceClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	buf := make([]byte, s.reportSize)
	n, err := s.dev.Read(buf, timeout)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}

func (s *Session) writeLocked(ctx context.Context, p []byte) (int, error) {
	if s.closed {
		return 0, hid.ErrDeviceClosed
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return s.dev.Write(p)
}
