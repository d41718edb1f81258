//
// Copyright (c) 2014-2019 Cesanta Software Limited
// All rights reserved
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// +build !no_libudev

package common

import (
	"strings"

	"github.com/golang/glog"
	"github.com/google/gousb"
	"github.com/juju/errors"
)

// USBProbe describes a CMSIS-DAP capable USB device.
type USBProbe struct {
	VID          uint16
	PID          uint16
	Bus          int
	Address      int
	Manufacturer string
	Product      string
	Serial       string
}

// ListUSBProbes returns USB devices whose product string mentions CMSIS-DAP,
// which is how CMSIS-DAP probes identify themselves.
func ListUSBProbes() ([]USBProbe, error) {
	uctx := gousb.NewContext()
	defer uctx.Close()
	devs, err := uctx.OpenDevices(func(dd *gousb.DeviceDesc) bool {
		glog.V(1).Infof("Dev %+v", dd)
		return true
	})
	// OpenDevices may fail overall but still return results. Only fail if no devices were returned.
	if err != nil && len(devs) == 0 {
		return nil, errors.Annotatef(err, "failed to enumerate USB devices")
	}
	var res []USBProbe
	for _, dev := range devs {
		product, _ := dev.Product()
		if strings.Contains(product, "CMSIS-DAP") {
			mfr, _ := dev.Manufacturer()
			sn, _ := dev.SerialNumber()
			res = append(res, USBProbe{
				VID:          uint16(dev.Desc.Vendor),
				PID:          uint16(dev.Desc.Product),
				Bus:          dev.Desc.Bus,
				Address:      dev.Desc.Address,
				Manufacturer: mfr,
				Product:      product,
				Serial:       sn,
			})
		}
		dev.Close()
	}
	return res, nil
}
