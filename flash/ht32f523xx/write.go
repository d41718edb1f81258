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
	"encoding/binary"

	"github.com/golang/glog"
	"github.com/juju/errors"

	"github.com/hitsmaxft/ht32flash/flash/nor"
)

func (d *Driver) Write(ctx context.Context, b *nor.Bank, offset uint32, data []byte) error {
	if err := d.checkHalted(ctx, b.Target); err != nil {
		return errors.Trace(err)
	}
	if offset%wordSize != 0 {
		glog.Errorf("Offset 0x%x is not word-aligned", offset)
		return errors.Trace(&nor.AlignmentError{What: "offset", Value: offset, Align: wordSize})
	}
	if len(data)%wordSize != 0 {
		glog.Errorf("Size %d is not a multiple of %d", len(data), wordSize)
		return errors.Trace(&nor.AlignmentError{What: "size", Value: uint32(len(data)), Align: wordSize})
	}
	glog.V(1).Infof("Writing %d bytes @ 0x%x", len(data), offset)
	addr := b.Base + offset
	for i := 0; i < len(data); i += wordSize {
		word := binary.LittleEndian.Uint32(data[i : i+wordSize])
		if err := d.programWord(ctx, b, addr, word); err != nil {
			return errors.Annotatef(err, "word @ 0x%x", addr)
		}
		if d.opts.MarkWrittenNotErased {
			markNotErased(b, addr-b.Base)
		}
		addr += wordSize
	}
	return nil
}

func (d *Driver) programWord(ctx context.Context, b *nor.Bank, addr, word uint32) error {
	glog.V(3).Infof("Program 0x%08x @ 0x%x", word, addr)
	if err := writeRegs(ctx, b.Target,
		[2]uint32{regTADR, addr},
		[2]uint32{regWRDR, word},
		[2]uint32{regOCMR, cmdWordProg},
		[2]uint32{regOPCR, opmCommit},
	); err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(d.waitReady(ctx, b.Target, d.opts.Timeout))
}

func markNotErased(b *nor.Bank, offset uint32) {
	if s := nor.SectorAt(b.Sectors, offset); s >= 0 {
		b.Sectors[s].Erased = nor.NotErased
	}
}
