// Package hidtest provides an in-memory loopback implementation of the HID
// transport for tests. Attached devices echo every written report back to
// the reader, and can be detached mid-test to simulate unplugging.
package hidtest

import (
	"sync"
	"time"

	"github.com/rqou/openfpga/hid"
)

// Transport implements hid.Transport over a set of fake loopback devices.
type Transport struct {
	mu      sync.Mutex
	devices map[string]*fakeDevice
	openErr map[string]error
}

func NewTransport() *Transport {
	return &Transport{
		devices: make(map[string]*fakeDevice),
		openErr: make(map[string]error),
	}
}

// Attach registers a loopback device under info.Path.
func (t *Transport) Attach(info hid.DeviceInfo) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.devices[info.Path] = &fakeDevice{
		info: info,
		recv: make(chan []byte, 64),
		gone: make(chan struct{}),
	}
}

// Detach removes the device from enumeration and fails all pending and
// future I/O on open handles with hid.ErrDeviceDisconnected.
func (t *Transport) Detach(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if d, ok := t.devices[path]; ok {
		d.disconnect()
		delete(t.devices, path)
	}
}

// FailOpen forces Open on path to return err instead of a handle.
func (t *Transport) FailOpen(path string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.openErr[path] = err
}

func (t *Transport) Enumerate(vendorID, productID uint16) ([]hid.DeviceInfo, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	var infos []hid.DeviceInfo
	for _, d := range t.devices {
		if vendorID != 0 && d.info.VendorID != vendorID {
			continue
		}
		if productID != 0 && d.info.ProductID != productID {
			continue
		}
		infos = append(infos, d.info)
	}
	return infos, nil
}

func (t *Transport) Open(info hid.DeviceInfo) (hid.Device, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err, ok := t.openErr[info.Path]; ok {
		return nil, err
	}
	d, ok := t.devices[info.Path]
	if !ok {
		return nil, hid.ErrNotFound
	}
	return &fakeHandle{dev: d}, nil
}

type fakeDevice struct {
	info hid.DeviceInfo
	recv chan []byte

	once sync.Once
	gone chan struct{}
}

func (d *fakeDevice) disconnect() {
	d.once.Do(func() { close(d.gone) })
}

// fakeHandle is one open connection to a fakeDevice. Close only affects the
// handle; the device itself stays attached.
type fakeHandle struct {
	dev *fakeDevice

	mu     sync.Mutex
	closed bool
}

func (h *fakeHandle) Info() hid.DeviceInfo {
	return h.dev.info
}

func (h *fakeHandle) Read(p []byte, timeout time.Duration) (int, error) {
	if h.isClosed() {
		return 0, hid.ErrDeviceClosed
	}
	select {
	case <-h.dev.gone:
		return 0, hid.ErrDeviceDisconnected
	default:
	}
	if timeout == 0 {
		select {
		case b := <-h.dev.recv:
			return copy(p, b), nil
		default:
			return 0, hid.ErrTimeout
		}
	}
	var expire <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expire = timer.C
	}
	select {
	case b := <-h.dev.recv:
		return copy(p, b), nil
	case <-h.dev.gone:
		return 0, hid.ErrDeviceDisconnected
	case <-expire:
		return 0, hid.ErrTimeout
	}
}

func (h *fakeHandle) Write(p []byte) (int, error) {
	if h.isClosed() {
		return 0, hid.ErrDeviceClosed
	}
	select {
	case <-h.dev.gone:
		return 0, hid.ErrDeviceDisconnected
	default:
	}
	b := make([]byte, len(p))
	copy(b, p)
	h.dev.recv <- b
	return len(p), nil
}

func (h *fakeHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	return nil
}

func (h *fakeHandle) isClosed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}
