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
package memap

import (
	"context"
	"fmt"

	"github.com/golang/glog"
	"github.com/juju/errors"

	"github.com/hitsmaxft/ht32flash/flash/common"
	"github.com/hitsmaxft/ht32flash/flash/common/cmsis-dap/dp"
)

type Reg uint8

const (
	CSW  Reg = 0x00
	TAR  Reg = 0x04
	DRW  Reg = 0x0c
	BD0  Reg = 0x10
	BD1  Reg = 0x14
	BD2  Reg = 0x18
	BD3  Reg = 0x1c
	BASE Reg = 0xf8
	IDR  Reg = 0xfc
)

const (
	cswDeviceEn = 0x40
	// Master type debug, HPROT data access, single auto-increment, word size.
	cswWordIncr = 0x23000052

	// TAR auto-increment is only guaranteed within a 1 KiB block.
	autoIncrWrap = 0x400
)

type Client interface {
	common.TargetMemReaderWriter

	Init(ctx context.Context) error
	ReadReg(ctx context.Context, reg Reg) (uint32, error)
	WriteReg(ctx context.Context, reg Reg, value uint32) error
}

type client struct {
	dpc   dp.Client
	apSel uint8
}

func NewClient(dpc dp.Client, apSel uint8) Client {
	return &client{dpc: dpc, apSel: apSel}
}

func (c *client) ReadReg(ctx context.Context, reg Reg) (uint32, error) {
	value, err := c.dpc.ReadAPReg(ctx, c.apSel, uint8(reg))
	glog.V(4).Infof("%s == 0x%08x", reg, value)
	return value, err
}

func (c *client) WriteReg(ctx context.Context, reg Reg, value uint32) error {
	glog.V(4).Infof("%s = 0x%08x", reg, value)
	return c.dpc.WriteAPReg(ctx, c.apSel, uint8(reg), value)
}

func (c *client) Init(ctx context.Context) error {
	csw, err := c.ReadReg(ctx, CSW)
	if err != nil {
		return errors.Trace(err)
	}
	if csw&cswDeviceEn == 0 {
		return errors.Errorf("MEM-AP is disabled")
	}
	return errors.Trace(c.WriteReg(ctx, CSW, cswWordIncr))
}

func (c *client) ReadTargetReg(ctx context.Context, addr uint32) (uint32, error) {
	if err := c.WriteReg(ctx, TAR, addr); err != nil {
		return 0, errors.Trace(err)
	}
	value, err := c.ReadReg(ctx, DRW)
	if err != nil {
		return 0, errors.Trace(err)
	}
	glog.V(4).Infof("ReadTargetReg(0x%08x) == 0x%08x", addr, value)
	return value, nil
}

func (c *client) WriteTargetReg(ctx context.Context, addr uint32, value uint32) error {
	if err := c.WriteReg(ctx, TAR, addr); err != nil {
		return errors.Trace(err)
	}
	glog.V(4).Infof("WriteTargetReg(0x%08x, 0x%08x)", addr, value)
	return errors.Trace(c.WriteReg(ctx, DRW, value))
}

// chunkLen returns how many words can be transferred starting at addr
// before TAR has to be reloaded.
func chunkLen(addr uint32, remaining int) int {
	cl := int((autoIncrWrap - addr&(autoIncrWrap-1)) / 4)
	if cl > remaining {
		cl = remaining
	}
	return cl
}

func (c *client) ReadTargetMem(ctx context.Context, addr uint32, length int) ([]uint32, error) {
	glog.V(4).Infof("ReadTargetMem(0x%08x, %d)", addr, length)
	if addr%4 != 0 {
		return nil, errors.Errorf("addr must be word-aligned, got 0x%x", addr)
	}
	res := make([]uint32, 0, length)
	for len(res) < length {
		if err := c.WriteReg(ctx, TAR, addr); err != nil {
			return nil, errors.Trace(err)
		}
		cl := chunkLen(addr, length-len(res))
		values, err := c.dpc.ReadAPRegMulti(ctx, c.apSel, uint8(DRW), cl)
		if err != nil {
			return nil, errors.Annotatef(err, "failed to read %d words @ 0x%08x", cl, addr)
		}
		res = append(res, values...)
		addr += uint32(cl * 4)
	}
	return res, nil
}

func (c *client) WriteTargetMem(ctx context.Context, addr uint32, data []uint32) error {
	glog.V(4).Infof("WriteTargetMem(0x%08x, %d)", addr, len(data))
	if addr%4 != 0 {
		return errors.Errorf("addr must be word-aligned, got 0x%x", addr)
	}
	for len(data) > 0 {
		if err := c.WriteReg(ctx, TAR, addr); err != nil {
			return errors.Trace(err)
		}
		cl := chunkLen(addr, len(data))
		if err := c.dpc.WriteAPRegMulti(ctx, c.apSel, uint8(DRW), data[:cl]); err != nil {
			return errors.Annotatef(err, "failed to write %d words @ 0x%08x", cl, addr)
		}
		data = data[cl:]
		addr += uint32(cl * 4)
	}
	return nil
}

func (r Reg) String() string {
	switch r {
	case CSW:
		return "CSW"
	case TAR:
		return "TAR"
	case DRW:
		return "DRW"
	case BD0:
		return "BD0"
	case BD1:
		return "BD1"
	case BD2:
		return "BD2"
	case BD3:
		return "BD3"
	case BASE:
		return "BASE"
	case IDR:
		return "IDR"
	}
	return fmt.Sprintf("0x%x", uint8(r))
}
