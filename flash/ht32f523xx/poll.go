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
package ht32f523xx

import (
	"context"

	"github.com/golang/glog"
	"github.com/juju/errors"

	"github.com/hitsmaxft/ht32flash/flash/common"
	"github.com/hitsmaxft/ht32flash/flash/nor"
)

// waitReady polls OPCR until the controller reports finished or start.
// With a budget of n retries OPCR is read at most n+1 times and the driver
// sleeps n times.
func (d *Driver) waitReady(ctx context.Context, t common.TargetRegReader, retries int) error {
	left := retries
	for {
		opcr, err := readReg(ctx, t, regOPCR)
		if err != nil {
			return errors.Trace(err)
		}
		if decodeStatus(opcr).Ready() {
			glog.V(3).Infof("FMC ready after %d retries: %s", retries-left, statusString(opcr))
			return nil
		}
		if left <= 0 {
			glog.Errorf("Timed out waiting for FMC, status %s", statusString(opcr))
			return errors.Trace(&nor.TimeoutError{Status: opcr, Retries: retries})
		}
		left--
		if err := d.opts.Sleep(ctx, d.opts.PollInterval); err != nil {
			return errors.Trace(err)
		}
	}
}
