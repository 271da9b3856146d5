// Package hil drives the hardware-in-loop test platform over its HID control
// channel. The controller consumes only the hid transport interfaces and
// never touches backend-specific symbols, so it behaves identically on every
// supported target.
package hil

import (
	"context"
	"time"

	"cdr.dev/slog/v3"
	"github.com/coder/quartz"
	"github.com/coder/retry"
	"golang.org/x/sync/errgroup"
	"golang.org/x/xerrors"

	"github.com/rqou/openfpga/hid"
)

// DefaultReportSize is the largest report the platform's control interface
// exchanges when the config does not say otherwise.
const DefaultReportSize = 64

// Config describes the platform boards the controller should look for.
// There are no default IDs; the vendor and product of the board revision in
// use must be supplied by the caller.
type Config struct {
	// VendorID of the platform's control interface. Required.
	VendorID uint16
	// ProductID of the platform's control interface. Zero matches any
	// product under VendorID.
	ProductID uint16
	// ReportSize is the report buffer size in bytes. Defaults to
	// DefaultReportSize.
	ReportSize int

	Logger slog.Logger
	// Clock is used for timing measurements. Defaults to the real clock.
	Clock quartz.Clock
}

// Controller discovers platform boards and opens sessions to them.
type Controller struct {
	transport  hid.Transport
	vendorID   uint16
	productID  uint16
	reportSize int
	log        slog.Logger
	clock      quartz.Clock
}

func New(transport hid.Transport, cfg Config) (*Controller, error) {
	if transport == nil {
		return nil, xerrors.New("hil: transport is required")
	}
	if cfg.VendorID == 0 {
		return nil, xerrors.New("hil: vendor ID is required")
	}
	if cfg.ReportSize < 0 {
		return nil, xerrors.Errorf("hil: invalid report size %d", cfg.ReportSize)
	}
	reportSize := cfg.ReportSize
	if reportSize == 0 {
		reportSize = DefaultReportSize
	}
	clock := cfg.Clock
	if clock == nil {
		clock = quartz.NewReal()
	}
	return &Controller{
		transport:  transport,
		vendorID:   cfg.VendorID,
		productID:  cfg.ProductID,
		reportSize: reportSize,
		log:        cfg.Logger,
		clock:      clock,
	}, nil
}

// Devices lists the attached platform boards. The returned descriptors are
// only guaranteed valid until the next unplug; Open re-checks.
func (c *Controller) Devices(ctx context.Context) ([]hid.DeviceInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	infos, err := c.transport.Enumerate(c.vendorID, c.productID)
	if err != nil {
		return nil, xerrors.Errorf("enumerate platform devices: %w", err)
	}
	c.log.Debug(ctx, "enumerated platform devices", slog.F("count", len(infos)))
	return infos, nil
}

// openAttempts bounds the re-tries for an enumerate/open race against a
// replug. ErrNotFound still surfaces once the device is genuinely gone.
const openAttempts = 3

// Open connects to the board a previous Devices call described and wraps the
// handle in a Session. The transport itself never retries; the one transient
// condition handled here is a board that re-enumerated between Devices and
// Open.
func (c *Controller) Open(ctx context.Context, info hid.DeviceInfo) (*Session, error) {
	var lastErr error
	r := retry.New(25*time.Millisecond, 250*time.Millisecond)
	for attempt := 0; attempt < openAttempts; attempt++ {
		if attempt > 0 && !r.Wait(ctx) {
			return nil, ctx.Err()
		}
		dev, err := c.transport.Open(info)
		if err == nil {
			sess := newSession(dev, c.log, c.clock, c.reportSize)
			c.log.Debug(ctx, "opened platform device",
				slog.F("path", info.Path),
				slog.F("session_id", sess.ID),
			)
			return sess, nil
		}
		lastErr = err
		if !xerrors.Is(err, hid.ErrNotFound) {
			return nil, err
		}
	}
	return nil, lastErr
}

// OpenPath opens the board enumerated at the given transport path.
func (c *Controller) OpenPath(ctx context.Context, path string) (*Session, error) {
	infos, err := c.Devices(ctx)
	if err != nil {
		return nil, err
	}
	for _, info := range infos {
		if info.Path == path {
			return c.Open(ctx, info)
		}
	}
	return nil, xerrors.Errorf("no platform device at %s: %w", path, hid.ErrNotFound)
}

// LoopbackAll runs the loopback self-test against every attached board
// concurrently. Sessions are independent handles, so the per-handle
// serialization rule is not violated.
func (c *Controller) LoopbackAll(ctx context.Context, payload []byte, timeout time.Duration) error {
	infos, err := c.Devices(ctx)
	if err != nil {
		return err
	}
	eg, ctx := errgroup.WithContext(ctx)
	for _, info := range infos {
		eg.Go(func() error {
			sess, err := c.Open(ctx, info)
			if err != nil {
				return err
			}
			defer sess.Close()
			return sess.Loopback(ctx, payload, timeout)
		})
	}
	return eg.Wait()
}
