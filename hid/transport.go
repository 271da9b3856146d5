// Package hid provides the HID transport used to talk to the test platform's
// control channel. Exactly one platform backend is compiled per target; the
// rest of the tree consumes only the interfaces defined here.
package hid

import "time"

// DeviceInfo describes an attached HID device as reported by enumeration.
// The Path is the platform-specific identifier used to open the device and is
// only guaranteed stable within a single enumeration.
type DeviceInfo struct {
	Path         string // platform-specific device path
	VendorID     uint16 // USB vendor identifier
	ProductID    uint16 // USB product identifier
	Release      uint16 // device release number in BCD
	Serial       string
	Manufacturer string
	Product      string
	UsagePage    uint16 // usage page, Windows/macOS only
	Usage        uint16 // usage, Windows/macOS only
	Interface    int    // USB interface number, Linux only
}

// Device is an open, exclusively-owned HID connection. A Device is not safe
// for concurrent reads and writes; callers serialize access per handle.
// Close is idempotent, and all I/O on a closed handle returns ErrDeviceClosed.
type Device interface {
	// Info returns the descriptor this device was opened from.
	Info() DeviceInfo
	// Read fills p with the next input report. A negative timeout blocks
	// until data arrives; a zero timeout polls and returns ErrTimeout
	// immediately when no report is pending.
	Read(p []byte, timeout time.Duration) (int, error)
	// Write sends an output report. The first byte of p is the report ID.
	Write(p []byte) (int, error)
	// Close releases the underlying OS handle.
	Close() error
}

// Transport enumerates and opens HID devices on the host.
// Enumerate may be called concurrently with I/O on unrelated handles.
type Transport interface {
	// Enumerate lists attached devices matching the vendor and product IDs.
	// A zero vendorID or productID matches any value.
	Enumerate(vendorID, productID uint16) ([]DeviceInfo, error)
	// Open connects to the device a previous Enumerate described.
	Open(info DeviceInfo) (Device, error)
}

// New returns the transport backend selected for this target at build time.
func New() Transport {
	return newTransport()
}
