//go:build !linux && (!cgo || (!darwin && !windows))

package hid

// stubTransport compiles on targets with no HID backend. Programs can gate
// on Supported() at startup; every operation otherwise reports
// ErrUnsupportedPlatform.
type stubTransport struct{}

func newTransport() Transport {
	return stubTransport{}
}

// Supported reports whether this backend can actually reach HID devices on
// the running host.
func Supported() bool {
	return false
}

func (stubTransport) Enumerate(vendorID, productID uint16) ([]DeviceInfo, error) {
	return nil, ErrUnsupportedPlatform
}

func (stubTransport) Open(info DeviceInfo) (Device, error) {
	return nil, ErrUnsupportedPlatform
}
