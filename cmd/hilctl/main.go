// hilctl exercises GreenPak hardware-in-loop test platform boards over their
// HID control channel.
package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"cdr.dev/slog/v3"
	"cdr.dev/slog/v3/sloggers/sloghuman"
	"github.com/coder/serpent"
	"golang.org/x/xerrors"

	"github.com/rqou/openfpga/hid"
	"github.com/rqou/openfpga/hil"
	"github.com/rqou/openfpga/usb"
)

func main() {
	cmd := &serpent.Command{
		Use:   "hilctl",
		Short: "Control GreenPak HIL test platform boards over HID",
		Children: []*serpent.Command{
			listCmd(),
			loopbackCmd(),
			readCmd(),
			writeCmd(),
		},
	}

	err := cmd.Invoke().WithOS().Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// parseID parses a USB vendor or product ID written in hex, with or without
// a 0x prefix. Empty means "match any".
func parseID(s string) (uint16, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.ParseUint(strings.TrimPrefix(s, "0x"), 16, 16)
	if err != nil {
		return 0, xerrors.Errorf("invalid USB ID %q: %w", s, err)
	}
	return uint16(n), nil
}

func parsePayload(s string) ([]byte, error) {
	payload, err := hex.DecodeString(s)
	if err != nil {
		return nil, xerrors.Errorf("invalid payload %q: %w", s, err)
	}
	return payload, nil
}

func makeLogger(inv *serpent.Invocation, verbose bool) slog.Logger {
	logger := slog.Make(sloghuman.Sink(inv.Stderr))
	if verbose {
		logger = logger.Leveled(slog.LevelDebug)
	}
	return logger
}

func makeController(inv *serpent.Invocation, vendor, product string, verbose bool) (*hil.Controller, error) {
	vendorID, err := parseID(vendor)
	if err != nil {
		return nil, err
	}
	productID, err := parseID(product)
	if err != nil {
		return nil, err
	}
	if !hid.Supported() {
		return nil, hid.ErrUnsupportedPlatform
	}
	return hil.New(hid.New(), hil.Config{
		VendorID:  vendorID,
		ProductID: productID,
		Logger:    makeLogger(inv, verbose),
	})
}

func listCmd() *serpent.Command {
	var (
		vendor  string
		product string
		raw     bool
	)
	return &serpent.Command{
		Use:   "list",
		Short: "List attached platform boards",
		Options: serpent.OptionSet{
			{
				Flag:        "vendor",
				Description: "Filter by USB vendor ID (hex).",
				Value:       serpent.StringOf(&vendor),
			},
			{
				Flag:        "product",
				Description: "Filter by USB product ID (hex).",
				Value:       serpent.StringOf(&product),
			},
			{
				Flag:        "raw",
				Description: "List raw USB descriptors through libusb instead of HID devices.",
				Value:       serpent.BoolOf(&raw),
			},
		},
		Handler: func(inv *serpent.Invocation) error {
			vendorID, err := parseID(vendor)
			if err != nil {
				return err
			}
			productID, err := parseID(product)
			if err != nil {
				return err
			}

			if raw {
				descs, err := usb.Enumerate(vendorID, productID)
				if err != nil {
					return err
				}
				for _, d := range descs {
					fmt.Fprintln(inv.Stdout, d)
				}
				return nil
			}

			if !hid.Supported() {
				return hid.ErrUnsupportedPlatform
			}
			infos, err := hid.New().Enumerate(vendorID, productID)
			if err != nil {
				return err
			}
			for _, info := range infos {
				fmt.Fprintf(inv.Stdout, "%s %04x:%04x %s %s\n",
					info.Path, info.VendorID, info.ProductID, info.Manufacturer, info.Product)
			}
			return nil
		},
	}
}

func loopbackCmd() *serpent.Command {
	var (
		vendor  string
		product string
		path    string
		payload string
		timeout time.Duration
		count   int64
		verbose bool
	)
	return &serpent.Command{
		Use:   "loopback",
		Short: "Run the loopback self-test against attached boards",
		Options: serpent.OptionSet{
			{
				Flag:        "vendor",
				Description: "USB vendor ID of the platform (hex). Required.",
				Required:    true,
				Value:       serpent.StringOf(&vendor),
			},
			{
				Flag:        "product",
				Description: "USB product ID of the platform (hex).",
				Value:       serpent.StringOf(&product),
			},
			{
				Flag:        "path",
				Description: "Test a single board at this transport path instead of all boards.",
				Value:       serpent.StringOf(&path),
			},
			{
				Flag:        "payload",
				Description: "Hex payload to echo. The first byte is the report ID.",
				Default:     "00deadbeef",
				Value:       serpent.StringOf(&payload),
			},
			{
				Flag:        "timeout",
				Description: "Per-exchange read timeout.",
				Default:     "1s",
				Value:       serpent.DurationOf(&timeout),
			},
			{
				Flag:        "count",
				Description: "Number of loopback iterations.",
				Default:     "1",
				Value:       serpent.Int64Of(&count),
			},
			{
				Flag:        "verbose",
				Description: "Enable debug logging.",
				Value:       serpent.BoolOf(&verbose),
			},
		},
		Handler: func(inv *serpent.Invocation) error {
			ctx := inv.Context()
			ctrl, err := makeController(inv, vendor, product, verbose)
			if err != nil {
				return err
			}
			data, err := parsePayload(payload)
			if err != nil {
				return err
			}

			for i := int64(0); i < count; i++ {
				if path != "" {
					sess, err := ctrl.OpenPath(ctx, path)
					if err != nil {
						return err
					}
					err = sess.Loopback(ctx, data, timeout)
					_ = sess.Close()
					if err != nil {
						return err
					}
				} else if err := ctrl.LoopbackAll(ctx, data, timeout); err != nil {
					return err
				}
			}
			fmt.Fprintf(inv.Stdout, "loopback ok (%d iteration(s), %d bytes)\n", count, len(data))
			return nil
		},
	}
}

func readCmd() *serpent.Command {
	var (
		vendor  string
		product string
		path    string
		timeout time.Duration
		verbose bool
	)
	return &serpent.Command{
		Use:   "read",
		Short: "Read one input report from a board",
		Options: serpent.OptionSet{
			{
				Flag:        "vendor",
				Description: "USB vendor ID of the platform (hex). Required.",
				Required:    true,
				Value:       serpent.StringOf(&vendor),
			},
			{
				Flag:        "product",
				Description: "USB product ID of the platform (hex).",
				Value:       serpent.StringOf(&product),
			},
			{
				Flag:        "path",
				Description: "Transport path of the board. Required.",
				Required:    true,
				Value:       serpent.StringOf(&path),
			},
			{
				Flag:        "timeout",
				Description: "Read timeout. Negative blocks until a report arrives.",
				Default:     "1s",
				Value:       serpent.DurationOf(&timeout),
			},
			{
				Flag:        "verbose",
				Description: "Enable debug logging.",
				Value:       serpent.BoolOf(&verbose),
			},
		},
		Handler: func(inv *serpent.Invocation) error {
			ctx := inv.Context()
			ctrl, err := makeController(inv, vendor, product, verbose)
			if err != nil {
				return err
			}
			sess, err := ctrl.OpenPath(ctx, path)
			if err != nil {
				return err
			}
			defer sess.Close()

			report, err := sess.Read(ctx, timeout)
			if err != nil {
				return err
			}
			fmt.Fprintf(inv.Stdout, "%x\n", report)
			return nil
		},
	}
}

func writeCmd() *serpent.Command {
	var (
		vendor  string
		product string
		path    string
		payload string
		verbose bool
	)
	return &serpent.Command{
		Use:   "write",
		Short: "Write one output report to a board",
		Options: serpent.OptionSet{
			{
				Flag:        "vendor",
				Description: "USB vendor ID of the platform (hex). Required.",
				Required:    true,
				Value:       serpent.StringOf(&vendor),
			},
			{
				Flag:        "product",
				Description: "USB product ID of the platform (hex).",
				Value:       serpent.StringOf(&product),
			},
			{
				Flag:        "path",
				Description: "Transport path of the board. Required.",
				Required:    true,
				Value:       serpent.StringOf(&path),
			},
			{
				Flag:        "payload",
				Description: "Hex report to send. The first byte is the report ID.",
				Required:    true,
				Value:       serpent.StringOf(&payload),
			},
			{
				Flag:        "verbose",
				Description: "Enable debug logging.",
				Value:       serpent.BoolOf(&verbose),
			},
		},
		Handler: func(inv *serpent.Invocation) error {
			ctx := inv.Context()
			ctrl, err := makeController(inv, vendor, product, verbose)
			if err != nil {
				return err
			}
			data, err := parsePayload(payload)
			if err != nil {
				return err
			}
			sess, err := ctrl.OpenPath(ctx, path)
			if err != nil {
				return err
			}
			defer sess.Close()

			n, err := sess.Write(ctx, data)
			if err != nil {
				return err
			}
			fmt.Fprintf(inv.Stdout, "wrote %d bytes\n", n)
			return nil
		},
	}
}
