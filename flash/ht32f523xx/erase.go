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

func (d *Driver) Erase(ctx context.Context, b *nor.Bank, first, last int) error {
	if err := d.checkHalted(ctx, b.Target); err != nil {
		return errors.Trace(err)
	}
	if err := nor.CheckSectorRange(b, first, last); err != nil {
		return errors.Trace(err)
	}
	for i := first; i <= last; i++ {
		if err := d.erasePage(ctx, b, i); err != nil {
			return errors.Annotatef(err, "sector %d", i)
		}
		b.Sectors[i].Erased = nor.Erased
	}
	return nil
}

func (d *Driver) erasePage(ctx context.Context, b *nor.Bank, i int) error {
	addr := b.Sectors[i].Offset
	glog.V(1).Infof("Erasing page %d @ 0x%x", i, addr)
	if err := writeRegs(ctx, b.Target,
		[2]uint32{regTADR, addr},
		[2]uint32{regOCMR, cmdPageErase},
		[2]uint32{regOPCR, opmCommit},
	); err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(d.waitReady(ctx, b.Target, d.opts.Timeout))
}
