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
package dap

import (
	"context"

	"github.com/juju/errors"
)

var (
	swdLineReset = []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}
	swdIdle      = []byte{0, 0}
	jtagToSWD    = []byte{0x9e, 0xe7}
)

// InitSWD connects the probe in SWD mode and brings the wire protocol up:
// line reset, JTAG-to-SWD switch, line reset again.
func InitSWD(ctx context.Context, c Client, clockHz uint32) error {
	if err := c.Connect(ctx, ConnectModeSWD); err != nil {
		return errors.Annotatef(err, "failed to connect to debug probe in SWD mode")
	}
	if err := c.SWJClock(ctx, clockHz); err != nil {
		return errors.Annotatef(err, "failed to set clock")
	}
	if err := c.SWDConfigure(ctx, 0); err != nil {
		return errors.Annotatef(err, "failed to configure SWD")
	}
	seq := []struct {
		bits int
		data []byte
	}{
		// 50+ ones, 8+ zeroes.
		{64, swdLineReset},
		{16, swdIdle},
		{64, swdLineReset},
		{16, jtagToSWD},
		{64, swdLineReset},
		{16, swdIdle},
	}
	for i, s := range seq {
		if err := c.SWJSequence(ctx, s.bits, s.data); err != nil {
			return errors.Annotatef(err, "SWD reset sequence failed (step %d)", i)
		}
	}
	if err := c.TransferConfigure(ctx, 0, 100, 100); err != nil {
		return errors.Annotatef(err, "failed to configure transfers")
	}
	return nil
}
