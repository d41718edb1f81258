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
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hitsmaxft/ht32flash/flash/nor"
)

func TestWriteMisaligned(t *testing.T) {
	cases := []struct {
		offset uint32
		size   int
		what   string
		value  uint32
	}{
		{offset: 1, size: 4, what: "offset", value: 1},
		{offset: 2, size: 8, what: "offset", value: 2},
		{offset: 0x203, size: 3, what: "offset", value: 0x203},
		{offset: 0, size: 3, what: "size", value: 3},
		{offset: 4, size: 1, what: "size", value: 1},
		{offset: 0x100, size: 33, what: "size", value: 33},
	}
	for _, c := range cases {
		rig := newRig(t, 4*PageSize)
		err := rig.drv.Write(context.Background(), rig.bank, c.offset, make([]byte, c.size))
		require.True(t, nor.IsAlignment(err), "%+v: %v", c, err)
		ae := errors.Cause(err).(*nor.AlignmentError)
		assert.Equal(t, c.what, ae.What)
		assert.Equal(t, c.value, ae.Value)
		assert.Equal(t, uint32(4), ae.Align)
		assert.Empty(t, rig.tgt.ops, "%+v", c)
	}
}

func TestEraseThenWrite32(t *testing.T) {
	rig := newRig(t, 4*PageSize)
	ctx := context.Background()
	require.NoError(t, rig.drv.Erase(ctx, rig.bank, 0, 0))
	rig.tgt.ops = nil

	data := make([]byte, 32)
	for i := range data {
		data[i] = byte(i)
	}
	require.NoError(t, rig.drv.Write(ctx, rig.bank, 0, data))

	var want []regOp
	words := []uint32{
		0x03020100, 0x07060504, 0x0b0a0908, 0x0f0e0d0c,
		0x13121110, 0x17161514, 0x1b1a1918, 0x1f1e1d1c,
	}
	for i, word := range words {
		want = append(want,
			wr(regTADR, uint32(i*4)),
			wr(regWRDR, word),
			wr(regOCMR, 0x4),
			wr(regOPCR, 0x14),
			rd(regOPCR, 0x1C),
		)
	}
	checkTrace(t, want, rig.tgt.ops)
	assert.Equal(t, 0, rig.sleep.calls)
	// Erased state is not cleared by programming.
	assert.Equal(t, nor.Erased, rig.bank.Sectors[0].Erased)
}

func TestWriteEmpty(t *testing.T) {
	rig := newRig(t, 4*PageSize)
	require.NoError(t, rig.drv.Write(context.Background(), rig.bank, 0x10, nil))
	assert.Empty(t, rig.tgt.ops)
}

func TestWriteMarkNotErased(t *testing.T) {
	rig := newRig(t, 4*PageSize, WithMarkWrittenNotErased(true))
	ctx := context.Background()
	require.NoError(t, rig.drv.Erase(ctx, rig.bank, 0, 3))
	// Straddles sectors 1 and 2.
	require.NoError(t, rig.drv.Write(ctx, rig.bank, 0x3fc, make([]byte, 8)))
	assert.Equal(t, nor.Erased, rig.bank.Sectors[0].Erased)
	assert.Equal(t, nor.NotErased, rig.bank.Sectors[1].Erased)
	assert.Equal(t, nor.NotErased, rig.bank.Sectors[2].Erased)
	assert.Equal(t, nor.Erased, rig.bank.Sectors[3].Erased)
}

func TestWriteAbortsOnTimeout(t *testing.T) {
	rig := newRig(t, 4*PageSize, WithTimeout(2), WithMarkWrittenNotErased(true))
	rig.tgt.opcr = append([]uint32{0x1C}, repeat(0x14, 5)...)
	err := rig.drv.Write(context.Background(), rig.bank, 0x200, make([]byte, 16))
	require.True(t, nor.IsTimeout(err), "%s", err)
	// First word done, second word issued, nothing after.
	assert.Len(t, rig.tgt.writes(), 8)
	assert.Equal(t, uint32(0x204), rig.tgt.mem[regTADR])
	assert.Equal(t, nor.NotErased, rig.bank.Sectors[1].Erased)
}

func TestWriteLinkFailureMidway(t *testing.T) {
	rig := newRig(t, 4*PageSize)
	rig.tgt.wfailAfter = 7
	err := rig.drv.Write(context.Background(), rig.bank, 0, make([]byte, 16))
	require.True(t, nor.IsLink(err), "%s", err)
	assert.Len(t, rig.tgt.writes(), 6)
}

func TestWritePastLastPage(t *testing.T) {
	rig := newRig(t, 4*PageSize+100)
	ctx := context.Background()
	require.Len(t, rig.bank.Sectors, 4)

	err := rig.bank.Write(ctx, 4*PageSize, []byte{1, 2, 3, 4})
	assert.True(t, errors.IsNotValid(err), "%s", err)
	assert.Empty(t, rig.tgt.writes())
}
