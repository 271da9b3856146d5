//go:build linux && !cgo

package hid

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sys/unix"
	"golang.org/x/xerrors"
)

// hidrawTransport is the pure-Go Linux backend. It enumerates through
// /sys/class/hidraw and performs I/O directly on the /dev/hidraw nodes, so
// it works without cgo and without the hidapi C library.
type hidrawTransport struct{}

func newTransport() Transport {
	return hidrawTransport{}
}

// Supported reports whether this backend can actually reach HID devices on
// the running host.
func Supported() bool {
	return true
}

const sysHidraw = "/sys/class/hidraw"

func (hidrawTransport) Enumerate(vendorID, productID uint16) ([]DeviceInfo, error) {
	entries, err := os.ReadDir(sysHidraw)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, xerrors.Errorf("enumerate hidraw: %w", err)
	}
	var infos []DeviceInfo
	for _, entry := range entries {
		info, err := readHidrawInfo(entry.Name())
		if err != nil {
			// Device may have vanished mid-enumeration.
			continue
		}
		if vendorID != 0 && info.VendorID != vendorID {
			continue
		}
		if productID != 0 && info.ProductID != productID {
			continue
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// readHidrawInfo builds a descriptor for a /sys/class/hidraw entry. The HID
// bus/vendor/product triple comes from the uevent of the underlying HID
// device; interface and string descriptors come from the USB parents.
func readHidrawInfo(name string) (DeviceInfo, error) {
	devDir := filepath.Join(sysHidraw, name, "device")
	uevent, err := os.ReadFile(filepath.Join(devDir, "uevent"))
	if err != nil {
		return DeviceInfo{}, err
	}
	info := DeviceInfo{Path: "/dev/" + name}
	for _, line := range strings.Split(string(uevent), "\n") {
		key, value, ok := strings.Cut(strings.TrimSpace(line), "=")
		if !ok {
			continue
		}
		switch key {
		case "HID_ID":
			// Formatted as bus:vendor:product, e.g. 0003:000004D8:0000F372.
			parts := strings.Split(value, ":")
			if len(parts) != 3 {
				return DeviceInfo{}, xerrors.Errorf("malformed HID_ID %q", value)
			}
			vendor, err := strconv.ParseUint(parts[1], 16, 32)
			if err != nil {
				return DeviceInfo{}, err
			}
			product, err := strconv.ParseUint(parts[2], 16, 32)
			if err != nil {
				return DeviceInfo{}, err
			}
			info.VendorID = uint16(vendor)
			info.ProductID = uint16(product)
		case "HID_UNIQ":
			info.Serial = value
		case "HID_NAME":
			info.Product = value
		}
	}
	// The HID device's parent is the USB interface, its grandparent the USB
	// device. All of these are best-effort; not every HID device is on USB.
	if b, err := os.ReadFile(filepath.Join(devDir, "..", "bInterfaceNumber")); err == nil {
		if n, err := strconv.ParseUint(strings.TrimSpace(string(b)), 16, 8); err == nil {
			info.Interface = int(n)
		}
	}
	if b, err := os.ReadFile(filepath.Join(devDir, "..", "..", "manufacturer")); err == nil {
		info.Manufacturer = strings.TrimSpace(string(b))
	}
	if b, err := os.ReadFile(filepath.Join(devDir, "..", "..", "product")); err == nil {
		info.Product = strings.TrimSpace(string(b))
	}
	if b, err := os.ReadFile(filepath.Join(devDir, "..", "..", "bcdDevice")); err == nil {
		if n, err := strconv.ParseUint(strings.TrimSpace(string(b)), 16, 16); err == nil {
			info.Release = uint16(n)
		}
	}
	return info, nil
}

func (hidrawTransport) Open(info DeviceInfo) (Device, error) {
	fd, err := unix.Open(info.Path, unix.O_RDWR, 0)
	if err != nil {
		switch err {
		case unix.ENOENT, unix.ENODEV, unix.ENXIO:
			return nil, ErrNotFound
		case unix.EACCES, unix.EPERM:
			return nil, ErrPermissionDenied
		}
		return nil, xerrors.Errorf("open %s: %w", info.Path, err)
	}
	return &hidrawDevice{info: info, fd: fd}, nil
}

type hidrawDevice struct {
	info DeviceInfo

	mu     sync.Mutex
	fd     int
	closed bool
}

func (d *hidrawDevice) Info() DeviceInfo {
	return d.info
}

func (d *hidrawDevice) Read(p []byte, timeout time.Duration) (int, error) {
	fd, ok := d.handle()
	if !ok {
		return 0, ErrDeviceClosed
	}
	ms := -1
	if timeout >= 0 {
		ms = int(timeout / time.Millisecond)
	}
	for {
		fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
		n, err := unix.Poll(fds, ms)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return 0, xerrors.Errorf("poll %s: %w", d.info.Path, err)
		}
		if n == 0 {
			return 0, ErrTimeout
		}
		if fds[0].Revents&(unix.POLLERR|unix.POLLHUP) != 0 {
			return 0, ErrDeviceDisconnected
		}
		break
	}
	n, err := unix.Read(fd, p)
	if err != nil {
		switch err {
		case unix.ENODEV, unix.EIO:
			return 0, ErrDeviceDisconnected
		}
		return 0, xerrors.Errorf("read %s: %w", d.info.Path, err)
	}
	return n, nil
}

func (d *hidrawDevice) Write(p []byte) (int, error) {
	fd, ok := d.handle()
	if !ok {
		return 0, ErrDeviceClosed
	}
	n, err := unix.Write(fd, p)
	if err != nil {
		switch err {
		case unix.ENODEV, unix.EIO:
			return 0, ErrDeviceDisconnected
		}
		return 0, xerrors.Errorf("write %s: %w", d.info.Path, err)
	}
	return n, nil
}

func (d *hidrawDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	_ = unix.Close(d.fd)
	return nil
}

func (d *hidrawDevice) handle() (int, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.fd, !d.closed
}
