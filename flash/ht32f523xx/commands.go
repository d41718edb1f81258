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

	"github.com/juju/errors"

	"github.com/hitsmaxft/ht32flash/flash/nor"
)

const testWriteLen = 32

func (d *Driver) Commands() []nor.Command {
	return []nor.Command{
		{
			Name:    "mass_erase",
			Help:    "Erase the entire flash array and mark all pages erased",
			Handler: d.massEraseCmd,
		},
		{
			Name:    "test_write",
			Help:    "Erase page 0 and write bytes 0..31 to it",
			Handler: d.testWriteCmd,
		},
	}
}

func (d *Driver) massEraseCmd(ctx context.Context, b *nor.Bank) error {
	if err := d.MassErase(ctx, b); err != nil {
		return errors.Trace(err)
	}
	nor.MarkAllErased(b)
	return nil
}

func (d *Driver) testWriteCmd(ctx context.Context, b *nor.Bank) error {
	if err := d.Erase(ctx, b, 0, 0); err != nil {
		return errors.Trace(err)
	}
	buf := make([]byte, testWriteLen)
	for i := range buf {
		buf[i] = byte(i)
	}
	return errors.Trace(d.Write(ctx, b, 0, buf))
}
