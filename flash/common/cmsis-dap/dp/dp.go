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
package dp

import (
	"context"
	"fmt"

	"github.com/golang/glog"
	"github.com/juju/errors"

	"github.com/hitsmaxft/ht32flash/flash/common/cmsis-dap/dap"
)

type Reg uint8

const (
	DPIDR      Reg = 0x00
	DPCTRLSTAT Reg = 0x04
	DPSELECT   Reg = 0x08
	DPRDBUFF   Reg = 0x0c
)

const (
	ctrlCDBGPWRUPREQ = 1 << 28
	ctrlCDBGPWRUPACK = 1 << 29
	ctrlCSYSPWRUPREQ = 1 << 30
	ctrlCSYSPWRUPACK = 1 << 31
	ctrlCDBGRSTREQ   = 1 << 26
	ctrlCDBGRSTACK   = 1 << 27

	// STICKYERR, STICKYCMP, STICKYORUN, WDATAERR clear bits plus power-up requests.
	ctrlClearErrors = 0x50000f00
)

// Handshakes with the DP (power-up, debug reset) give up after this many polls.
const maxHandshakePolls = 100

type Client interface {
	Init(ctx context.Context) error
	GetIDR(ctx context.Context) (IDRValue, error)
	DbgReset(ctx context.Context) error
	SetDbgPower(ctx context.Context, dbg, sys bool) error
	ReadDPReg(ctx context.Context, reg Reg) (uint32, error)
	WriteDPReg(ctx context.Context, reg Reg, value uint32) error
	ReadAPReg(ctx context.Context, apSel, apReg uint8) (uint32, error)
	ReadAPRegMulti(ctx context.Context, apSel, apReg uint8, length int) ([]uint32, error)
	WriteAPReg(ctx context.Context, apSel, apReg uint8, value uint32) error
	WriteAPRegMulti(ctx context.Context, apSel, apReg uint8, values []uint32) error
}

func NewClient(dapc dap.Client) Client {
	return &client{dapc: dapc}
}

type client struct {
	dapc dap.Client

	selectValue uint32
}

func (dpc *client) readReg(ctx context.Context, reg uint8, ap bool) (uint32, error) {
	_, data, err := dpc.dapc.Transfer(ctx, 0, []dap.TransferRequest{
		{Op: dap.OpRead, AP: ap, Reg: reg},
	})
	if err != nil {
		return 0, errors.Annotatef(err, "failed to read reg 0x%x (ap %t)", reg, ap)
	}
	if len(data) != 1 {
		return 0, errors.Errorf("expected 1 value, got %d", len(data))
	}
	return data[0], nil
}

func (dpc *client) readRegMulti(ctx context.Context, reg uint8, ap bool, length int) ([]uint32, error) {
	maxChunkSize := dpc.dapc.GetTransferBlockMaxSize()
	var res []uint32
	for length > 0 {
		chunkSize := length
		if chunkSize > maxChunkSize {
			chunkSize = maxChunkSize
		}
		chunk, err := dpc.dapc.TransferBlockRead(ctx, 0, ap, reg, chunkSize)
		if err != nil {
			return nil, errors.Trace(err)
		}
		res = append(res, chunk...)
		length -= chunkSize
	}
	return res, nil
}

func (dpc *client) writeReg(ctx context.Context, reg uint8, ap bool, value uint32) error {
	_, _, err := dpc.dapc.Transfer(ctx, 0, []dap.TransferRequest{
		{Op: dap.OpWrite, AP: ap, Reg: reg, Data: value},
	})
	return errors.Annotatef(err, "failed to write reg 0x%x (ap %t)", reg, ap)
}

func (dpc *client) writeRegMulti(ctx context.Context, reg uint8, ap bool, values []uint32) error {
	maxChunkSize := dpc.dapc.GetTransferBlockMaxSize()
	for len(values) > 0 {
		chunk := values
		if len(chunk) > maxChunkSize {
			chunk = chunk[:maxChunkSize]
		}
		if err := dpc.dapc.TransferBlockWrite(ctx, 0, ap, reg, chunk); err != nil {
			return errors.Trace(err)
		}
		values = values[len(chunk):]
	}
	return nil
}

func (dpc *client) ReadDPReg(ctx context.Context, reg Reg) (uint32, error) {
	value, err := dpc.readReg(ctx, uint8(reg), false /* ap */)
	glog.V(4).Infof("%s == 0x%08x", reg, value)
	return value, err
}

func (dpc *client) WriteDPReg(ctx context.Context, reg Reg, value uint32) error {
	glog.V(4).Infof("%s = 0x%08x", reg, value)
	return errors.Trace(dpc.writeReg(ctx, uint8(reg), false /* ap */, value))
}

func (dpc *client) Init(ctx context.Context) error {
	if _, err := dpc.GetIDR(ctx); err != nil {
		return errors.Annotatef(err, "failed to read DP ID")
	}
	if err := dpc.WriteDPReg(ctx, DPSELECT, 0); err != nil {
		return errors.Trace(err)
	}
	dpc.selectValue = 0
	if err := dpc.SetDbgPower(ctx, true, true); err != nil {
		return errors.Trace(err)
	}
	if err := dpc.WriteDPReg(ctx, DPCTRLSTAT, ctrlClearErrors); err != nil {
		return errors.Trace(err)
	}
	return nil
}

func (dpc *client) GetIDR(ctx context.Context) (IDRValue, error) {
	v, err := dpc.ReadDPReg(ctx, DPIDR)
	if err != nil {
		return 0, errors.Annotatef(err, "failed to read DPIDR")
	}
	return IDRValue(v), nil
}

func (dpc *client) SetDbgPower(ctx context.Context, dbg, sys bool) error {
	var reqMask, ackMask uint32
	if dbg {
		reqMask |= ctrlCDBGPWRUPREQ
		ackMask |= ctrlCDBGPWRUPACK
	}
	if sys {
		reqMask |= ctrlCSYSPWRUPREQ
		ackMask |= ctrlCSYSPWRUPACK
	}
	for i := 0; i < maxHandshakePolls; i++ {
		statValue, err := dpc.ReadDPReg(ctx, DPCTRLSTAT)
		if err != nil {
			return errors.Annotatef(err, "failed to read DPCTRLSTAT")
		}
		if statValue&0xf0000000 == (reqMask | ackMask) {
			return nil
		}
		ctrlValue := (statValue & 0x07ffffff) | reqMask
		if err := dpc.WriteDPReg(ctx, DPCTRLSTAT, ctrlValue); err != nil {
			return errors.Annotatef(err, "failed to write DPCTRLSTAT")
		}
	}
	return errors.Errorf("debug power-up not acknowledged")
}

func (dpc *client) waitCtrlStat(ctx context.Context, mask uint32, set bool) (uint32, error) {
	for i := 0; i < maxHandshakePolls; i++ {
		statValue, err := dpc.ReadDPReg(ctx, DPCTRLSTAT)
		if err != nil {
			return 0, errors.Annotatef(err, "failed to read DPCTRLSTAT")
		}
		if (statValue&mask != 0) == set {
			return statValue, nil
		}
	}
	return 0, errors.Errorf("DPCTRLSTAT 0x%08x did not become %t", mask, set)
}

func (dpc *client) DbgReset(ctx context.Context) error {
	statValue, err := dpc.ReadDPReg(ctx, DPCTRLSTAT)
	if err != nil {
		return errors.Annotatef(err, "failed to read DPCTRLSTAT")
	}
	ctrlValue := (statValue &^ (ctrlCDBGRSTREQ | ctrlCDBGRSTACK)) | ctrlCDBGRSTREQ
	if err := dpc.WriteDPReg(ctx, DPCTRLSTAT, ctrlValue); err != nil {
		return errors.Annotatef(err, "failed to write DPCTRLSTAT")
	}
	if statValue, err = dpc.waitCtrlStat(ctx, ctrlCDBGRSTACK, true); err != nil {
		return errors.Trace(err)
	}
	ctrlValue = statValue &^ (ctrlCDBGRSTREQ | ctrlCDBGRSTACK)
	if err := dpc.WriteDPReg(ctx, DPCTRLSTAT, ctrlValue); err != nil {
		return errors.Annotatef(err, "failed to write DPCTRLSTAT")
	}
	_, err = dpc.waitCtrlStat(ctx, ctrlCDBGRSTACK, false)
	return errors.Trace(err)
}

func (dpc *client) selectAP(ctx context.Context, apSel, apBank uint8) error {
	sv := (dpc.selectValue & 0x00ffff0f) | (uint32(apSel) << 24) | ((uint32(apBank) & 0xf) << 4)
	if sv == dpc.selectValue {
		return nil
	}
	if err := dpc.WriteDPReg(ctx, DPSELECT, sv); err != nil {
		return errors.Annotatef(err, "failed to select AP %d bank %d", apSel, apBank)
	}
	dpc.selectValue = sv
	return nil
}

func (dpc *client) ReadAPReg(ctx context.Context, apSel, apReg uint8) (uint32, error) {
	if err := dpc.selectAP(ctx, apSel, apReg/16); err != nil {
		return 0, errors.Trace(err)
	}
	return dpc.readReg(ctx, apReg%16, true /* ap */)
}

func (dpc *client) ReadAPRegMulti(ctx context.Context, apSel, apReg uint8, length int) ([]uint32, error) {
	if err := dpc.selectAP(ctx, apSel, apReg/16); err != nil {
		return nil, errors.Trace(err)
	}
	return dpc.readRegMulti(ctx, apReg%16, true /* ap */, length)
}

func (dpc *client) WriteAPReg(ctx context.Context, apSel, apReg uint8, value uint32) error {
	if err := dpc.selectAP(ctx, apSel, apReg/16); err != nil {
		return errors.Trace(err)
	}
	return dpc.writeReg(ctx, apReg%16, true /* ap */, value)
}

func (dpc *client) WriteAPRegMulti(ctx context.Context, apSel, apReg uint8, values []uint32) error {
	if err := dpc.selectAP(ctx, apSel, apReg/16); err != nil {
		return errors.Trace(err)
	}
	return dpc.writeRegMulti(ctx, apReg%16, true /* ap */, values)
}

type IDRValue uint32

type Designer uint16

func (v IDRValue) Designer() Designer {
	return Designer((v >> 1) & 0x7ff)
}

func (v IDRValue) Version() uint8 {
	return uint8((v >> 12) & 0xf)
}

func (v IDRValue) Minimal() bool {
	return (v>>16)&1 != 0
}

func (v IDRValue) PartNumber() uint8 {
	return uint8((v >> 20) & 0xff)
}

func (v IDRValue) Revision() uint8 {
	return uint8((v >> 28) & 0xf)
}

func (v IDRValue) String() string {
	return fmt.Sprintf("DP v%d rev%d (%s), minimal? %t", v.Version(), v.Revision(), v.Designer(), v.Minimal())
}

func (v Designer) String() string {
	// JEP106 continuation 4, identity 0x3b.
	if v == 0x23b {
		return "ARM"
	}
	return fmt.Sprintf("0x%03x", uint16(v))
}

func (r Reg) String() string {
	switch r {
	case DPIDR:
		return "DPIDR"
	case DPCTRLSTAT:
		return "DPCTRLSTAT"
	case DPSELECT:
		return "DPSELECT"
	case DPRDBUFF:
		return "DPRDBUFF"
	}
	return fmt.Sprintf("0x%x", uint8(r))
}
