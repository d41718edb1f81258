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
// +build no_libudev

package common

import (
	"github.com/juju/errors"
)

type USBProbe struct {
	VID          uint16
	PID          uint16
	Bus          int
	Address      int
	Manufacturer string
	Product      string
	Serial       string
}

func ListUSBProbes() ([]USBProbe, error) {
	return nil, errors.NotSupportedf("USB enumeration in this build")
}
