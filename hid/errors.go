package hid

import "golang.org/x/xerrors"

var (
	// ErrNotFound is returned by Open when the enumerated device has
	// disappeared before it could be opened.
	ErrNotFound = xerrors.New("hid: device not found")

	// ErrPermissionDenied is returned by Open when the OS refuses access
	// to the device node (udev rules, elevated privileges).
	ErrPermissionDenied = xerrors.New("hid: permission denied")

	// ErrTimeout is returned by Read when no report arrived within the
	// requested timeout.
	ErrTimeout = xerrors.New("hid: read timeout")

	// ErrDeviceDisconnected is returned by Read and Write when the device
	// was unplugged while the handle was open.
	ErrDeviceDisconnected = xerrors.New("hid: device disconnected")

	// ErrDeviceClosed is returned by Read and Write after Close.
	ErrDeviceClosed = xerrors.New("hid: device closed")

	// ErrUnsupportedPlatform is returned by every operation on targets
	// compiled with the stub backend.
	ErrUnsupportedPlatform = xerrors.New("hid: unsupported platform")
)
