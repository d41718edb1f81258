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

func setOptionBytes(tgt *simTarget, pp [4]uint32, cp uint32) {
	for i, v := range pp {
		tgt.mem[obPP+uint32(i)*4] = v
	}
	tgt.mem[obCP] = cp
}

func protectedMask(b *nor.Bank) []bool {
	var res []bool
	for _, s := range b.Sectors {
		res = append(res, s.Protected)
	}
	return res
}

func TestProtectCheckAllZero(t *testing.T) {
	for _, d := range []ProtectionDecode{ProtectionDecodeLegacy, ProtectionDecodeBitwise} {
		rig := newRig(t, 0x20000, WithProtectionDecode(d))
		for i := range rig.bank.Sectors {
			rig.bank.Sectors[i].Protected = false
		}
		setOptionBytes(rig.tgt, [4]uint32{}, 0)
		require.NoError(t, rig.drv.ProtectCheck(context.Background(), rig.bank))
		for i, s := range rig.bank.Sectors {
			assert.True(t, s.Protected, "%s: sector %d", d, i)
		}
		assert.Empty(t, rig.tgt.writes())
	}
}

func TestProtectCheckAllOnesBitwise(t *testing.T) {
	rig := newRig(t, 0x20000, WithProtectionDecode(ProtectionDecodeBitwise))
	setOptionBytes(rig.tgt, [4]uint32{0xFFFFFFFF, 0xFFFFFFFF, 0xFFFFFFFF, 0xFFFFFFFF}, 0)
	require.NoError(t, rig.drv.ProtectCheck(context.Background(), rig.bank))
	for i, s := range rig.bank.Sectors {
		assert.False(t, s.Protected, "sector %d", i)
	}
	checkTrace(t, []regOp{
		rd(0x1FF00000, 0xFFFFFFFF),
		rd(0x1FF00004, 0xFFFFFFFF),
		rd(0x1FF00008, 0xFFFFFFFF),
		rd(0x1FF0000C, 0xFFFFFFFF),
		rd(0x1FF00010, 0),
	}, rig.tgt.ops)
}

func TestProtectCheckBitwisePairs(t *testing.T) {
	rig := newRig(t, 10*PageSize, WithProtectionDecode(ProtectionDecodeBitwise))
	// Pairs 0 and 3 unprotected.
	setOptionBytes(rig.tgt, [4]uint32{0x9, 0, 0, 0}, 0)
	require.NoError(t, rig.drv.ProtectCheck(context.Background(), rig.bank))
	assert.Equal(t, []bool{
		false, false,
		true, true,
		true, true,
		false, false,
		true, true,
	}, protectedMask(rig.bank))
}

func TestProtectCheckBitwiseSecondWord(t *testing.T) {
	rig := newRig(t, 0x20000, WithProtectionDecode(ProtectionDecodeBitwise))
	// Pair 33 is bit 1 of the second word.
	setOptionBytes(rig.tgt, [4]uint32{0, 0x2, 0, 0}, 0)
	require.NoError(t, rig.drv.ProtectCheck(context.Background(), rig.bank))
	for i, s := range rig.bank.Sectors {
		assert.Equal(t, i != 66 && i != 67, s.Protected, "sector %d", i)
	}
}

func TestProtectCheckLegacyDecode(t *testing.T) {
	rig := newRig(t, 0x20000)
	setOptionBytes(rig.tgt, [4]uint32{0xFFFFFFFF, 0xFFFFFFFF, 0xFFFFFFFF, 0xFFFFFFFF}, 0)
	require.NoError(t, rig.drv.ProtectCheck(context.Background(), rig.bank))
	// Only bit 0 of each word is ever observed, and only for the first pair
	// that word covers.
	for i, s := range rig.bank.Sectors {
		pair := i / 2
		assert.Equal(t, pair%32 != 0, s.Protected, "sector %d", i)
	}
}

func TestProtectCheckOddSectorCount(t *testing.T) {
	rig := newRig(t, 5*PageSize, WithProtectionDecode(ProtectionDecodeBitwise))
	setOptionBytes(rig.tgt, [4]uint32{0x4, 0, 0, 0}, 0)
	require.NoError(t, rig.drv.ProtectCheck(context.Background(), rig.bank))
	assert.Equal(t, []bool{true, true, true, true, false}, protectedMask(rig.bank))
}

func TestProtectCheckPastLastBit(t *testing.T) {
	// 300 pages, only 256 covered by option bytes.
	rig := newRig(t, 300*PageSize, WithProtectionDecode(ProtectionDecodeBitwise))
	setOptionBytes(rig.tgt, [4]uint32{0xFFFFFFFF, 0xFFFFFFFF, 0xFFFFFFFF, 0xFFFFFFFF}, 0)
	rig.bank.Sectors[299].Protected = false
	require.NoError(t, rig.drv.ProtectCheck(context.Background(), rig.bank))
	for i, s := range rig.bank.Sectors {
		switch {
		case i < 256:
			assert.False(t, s.Protected, "sector %d", i)
		case i == 299:
			assert.False(t, s.Protected, "sector %d", i)
		default:
			assert.True(t, s.Protected, "sector %d", i)
		}
	}
}

func TestProtectCheckReadFailure(t *testing.T) {
	for _, addr := range []uint32{obPP, obPP + 8, obCP} {
		rig := newRig(t, 16*PageSize, WithProtectionDecode(ProtectionDecodeBitwise))
		setOptionBytes(rig.tgt, [4]uint32{0xFFFFFFFF, 0, 0, 0}, 0)
		rig.tgt.rfail[addr] = errors.New("FAULT response")
		err := rig.drv.ProtectCheck(context.Background(), rig.bank)
		require.True(t, nor.IsLink(err), "0x%x: %v", addr, err)
		for i, s := range rig.bank.Sectors {
			assert.True(t, s.Protected, "0x%x: sector %d", addr, i)
		}
	}
}

func TestProtectUnsupported(t *testing.T) {
	rig := newRig(t, 4*PageSize)
	for _, set := range []bool{true, false} {
		err := rig.drv.Protect(context.Background(), rig.bank, set, 0, 1)
		assert.True(t, errors.IsNotSupported(err), "%s", err)
	}
	assert.Empty(t, rig.tgt.ops)
}
