// Package usb lists raw USB descriptors through libusb. It complements the
// HID transport: a board whose control interface has the wrong driver bound
// still shows up here, which makes "device present but not openable"
// diagnosable from the CLI.
package usb

import "fmt"

// Description identifies a USB device on the bus. Bus and Address are only
// stable until the device is re-plugged.
type Description struct {
	Bus       int
	Address   int
	VendorID  uint16
	ProductID uint16
}

// String formats the description the way lsusb does.
func (d Description) String() string {
	return fmt.Sprintf("bus %03d addr %03d %04x:%04x", d.Bus, d.Address, d.VendorID, d.ProductID)
}

// Enumerate lists attached USB devices matching the vendor and product IDs.
// A zero vendorID or productID matches any value. No interface is claimed
// and no device is left open.
func Enumerate(vendorID, productID uint16) ([]Description, error) {
	return enumerate(vendorID, productID)
}
