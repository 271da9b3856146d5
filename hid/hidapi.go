//go:build cgo && (linux || darwin || windows)

package hid

import (
	"strings"
	"sync"
	"time"

	hidapi "github.com/bearsh/hid"
	"golang.org/x/xerrors"
)

// hidapiTransport is the default backend on cgo targets, wrapping the
// hidapi C library through github.com/bearsh/hid.
type hidapiTransport struct{}

func newTransport() Transport {
	return hidapiTransport{}
}

// Supported reports whether this backend can actually reach HID devices on
// the running host.
func Supported() bool {
	return hidapi.Supported()
}

func (hidapiTransport) Enumerate(vendorID, productID uint16) ([]DeviceInfo, error) {
	if !hidapi.Supported() {
		return nil, ErrUnsupportedPlatform
	}
	var infos []DeviceInfo
	for _, di := range hidapi.Enumerate(vendorID, productID) {
		infos = append(infos, DeviceInfo{
			Path:         di.Path,
			VendorID:     di.VendorID,
			ProductID:    di.ProductID,
			Release:      di.Release,
			Serial:       di.Serial,
			Manufacturer: di.Manufacturer,
			Product:      di.Product,
			UsagePage:    di.UsagePage,
			Usage:        di.Usage,
			Interface:    di.Interface,
		})
	}
	return infos, nil
}

func (hidapiTransport) Open(info DeviceInfo) (Device, error) {
	if !hidapi.Supported() {
		return nil, ErrUnsupportedPlatform
	}
	// hidapi opens by path, but only paths from a live enumeration are
	// valid, so the device is looked up again before opening.
	for _, di := range hidapi.Enumerate(info.VendorID, info.ProductID) {
		if di.Path != info.Path {
			continue
		}
		handle, err := di.Open()
		if err != nil {
			if strings.Contains(strings.ToLower(err.Error()), "permission") {
				return nil, ErrPermissionDenied
			}
			return nil, xerrors.Errorf("open %s: %w", info.Path, err)
		}
		return &hidapiDevice{info: info, handle: handle}, nil
	}
	return nil, ErrNotFound
}

type hidapiDevice struct {
	info   DeviceInfo
	handle *hidapi.Device

	mu     sync.Mutex
	closed bool
}

func (d *hidapiDevice) Info() DeviceInfo {
	return d.info
}

func (d *hidapiDevice) Read(p []byte, timeout time.Duration) (int, error) {
	if d.isClosed() {
		return 0, ErrDeviceClosed
	}
	ms := -1
	if timeout >= 0 {
		ms = int(timeout / time.Millisecond)
	}
	n, err := d.handle.ReadTimeout(p, ms)
	if err != nil {
		return 0, ErrDeviceDisconnected
	}
	// hidapi signals an expired timeout as a zero-length read.
	if n == 0 && timeout >= 0 {
		return 0, ErrTimeout
	}
	return n, nil
}

func (d *hidapiDevice) Write(p []byte) (int, error) {
	if d.isClosed() {
		return 0, ErrDeviceClosed
	}
	n, err := d.handle.Write(p)
	if err != nil {
		return n, ErrDeviceDisconnected
	}
	return n, nil
}

func (d *hidapiDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	_ = d.handle.Close()
	return nil
}

func (d *hidapiDevice) isClosed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}
