//go:build cgo

package usb

import (
	"github.com/google/gousb"
	"golang.org/x/xerrors"
)

func enumerate(vendorID, productID uint16) ([]Description, error) {
	ctx := gousb.NewContext()
	defer ctx.Close()

	var descs []Description
	// The predicate always declines, so OpenDevices degrades into a pure
	// enumeration pass.
	devices, err := ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		if vendorID != 0 && uint16(desc.Vendor) != vendorID {
			return false
		}
		if productID != 0 && uint16(desc.Product) != productID {
			return false
		}
		descs = append(descs, Description{
			Bus:       desc.Bus,
			Address:   desc.Address,
			VendorID:  uint16(desc.Vendor),
			ProductID: uint16(desc.Product),
		})
		return false
	})
	for _, dev := range devices {
		_ = dev.Close()
	}
	if err != nil {
		return nil, xerrors.Errorf("enumerate usb: %w", err)
	}
	return descs, nil
}
