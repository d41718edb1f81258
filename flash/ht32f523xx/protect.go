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

// Each page protection bit covers two pages.
const (
	pagesPerBit = 2
	maxPairs    = obPPWords * 32
)

// ProtectCheck reads the option byte page protection words and updates the
// Protected flag of every sector they cover. A cleared bit means protected.
func (d *Driver) ProtectCheck(ctx context.Context, b *nor.Bank) error {
	var pp [obPPWords]uint32
	for i := range pp {
		v, err := readReg(ctx, b.Target, obPP+uint32(i)*wordSize)
		if err != nil {
			return errors.Annotatef(err, "failed to read OB_PP[%d]", i)
		}
		pp[i] = v
	}
	cp, err := readReg(ctx, b.Target, obCP)
	if err != nil {
		return errors.Annotatef(err, "failed to read OB_CP")
	}
	glog.V(1).Infof("OB_PP: %08x %08x %08x %08x, OB_CP: %08x", pp[0], pp[1], pp[2], pp[3], cp)

	pairs := (len(b.Sectors) + pagesPerBit - 1) / pagesPerBit
	if pairs > maxPairs {
		glog.Warningf("%s: %d pages but only %d protection bits, last %d pages left as is",
			b.Name, len(b.Sectors), maxPairs, len(b.Sectors)-maxPairs*pagesPerBit)
		pairs = maxPairs
	}
	for i := 0; i < pairs; i++ {
		protected := d.protectionBit(pp, i) == 0
		for j := i * pagesPerBit; j < (i+1)*pagesPerBit && j < len(b.Sectors); j++ {
			b.Sectors[j].Protected = protected
		}
	}
	return nil
}

func (d *Driver) protectionBit(pp [obPPWords]uint32, i int) uint32 {
	w, n := pp[i/32], uint(i%32)
	if d.opts.ProtectionDecode == ProtectionDecodeBitwise {
		return (w >> n) & 1
	}
	return (w << n) & 1
}
