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

	"github.com/hitsmaxft/ht32flash/flash/nor"
)

// MassErase erases the whole array. Sector state is left to the caller.
func (d *Driver) MassErase(ctx context.Context, b *nor.Bank) error {
	if err := d.checkHalted(ctx, b.Target); err != nil {
		return errors.Trace(err)
	}
	if d.opts.CheckBusyBeforeMassErase {
		if err := d.waitReady(ctx, b.Target, d.opts.Timeout); err != nil {
			return errors.Annotatef(err, "controller busy")
		}
	}
	glog.V(1).Infof("Mass erase")
	if err := writeRegs(ctx, b.Target,
		[2]uint32{regOCMR, cmdMassErase},
		[2]uint32{regOPCR, opmCommit},
	); err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(d.waitReady(ctx, b.Target, d.opts.Timeout))
}
