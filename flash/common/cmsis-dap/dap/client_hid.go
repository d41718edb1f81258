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
// +build !no_libudev

package dap

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/hex"
	"time"

	"github.com/cesanta/hid"
	"github.com/golang/glog"
	"github.com/juju/errors"
)

type cmd uint8

const (
	cmdInfo              cmd = 0x00
	cmdSetHostStatus     cmd = 0x01
	cmdConnect           cmd = 0x02
	cmdDisconnect        cmd = 0x03
	cmdTransferConfigure cmd = 0x04
	cmdTransfer          cmd = 0x05
	cmdTransferBlock     cmd = 0x06
	cmdDelay             cmd = 0x09
	cmdResetTarget       cmd = 0x0a
	cmdSWJClock          cmd = 0x11
	cmdSWJSequence       cmd = 0x12
	cmdSWDConfigure      cmd = 0x13
)

// Transfers answered with WAIT are reissued this many times.
const transferWaitRetries = 5

type hidClient struct {
	d             hid.Device
	di            *hid.DeviceInfo
	maxPacketSize int
}

// Open finds the first HID device matching opts and negotiates the packet size.
func Open(ctx context.Context, opts Options) (Client, error) {
	devs, err := hid.Devices()
	if err != nil {
		return nil, errors.Annotatef(err, "failed to enumerate HID devices")
	}
	for i, di := range devs {
		glog.V(1).Infof("%d: %04x:%04x %s", i, di.VendorID, di.ProductID, di.Path)
		if di.VendorID != opts.VID || di.ProductID != opts.PID {
			continue
		}
		d, err := di.Open()
		if err != nil {
			return nil, errors.Annotatef(err, "failed to open device %04x:%04x (%s)", di.VendorID, di.ProductID, di.Path)
		}
		glog.Infof("Opened %04x:%04x (%s)", di.VendorID, di.ProductID, di.Path)
		c := &hidClient{
			di:            di,
			d:             d,
			maxPacketSize: 8, // Start with a conservative guess
		}
		resp, err := c.GetInfo(ctx, InfoPacketSize)
		if err != nil {
			c.Close(ctx)
			return nil, errors.Annotatef(err, "failed to get max packet size")
		}
		var rl uint8
		var mps uint16
		if binary.Read(resp, binary.LittleEndian, &rl) != nil || binary.Read(resp, binary.LittleEndian, &mps) != nil {
			c.Close(ctx)
			return nil, errors.Errorf("short packet size response")
		}
		c.maxPacketSize = int(mps)
		glog.V(2).Infof("max packet size: %d", c.maxPacketSize)
		return c, nil
	}
	return nil, errors.NotFoundf("device %04x:%04x", opts.VID, opts.PID)
}

func newCmd(c cmd) *bytes.Buffer {
	return bytes.NewBuffer([]uint8{
		0, // HID report number (unused)
		uint8(c),
	})
}

func (c *hidClient) exec(ctx context.Context, args *bytes.Buffer) (*bytes.Buffer, error) {
	glog.V(4).Infof(" => %s", hex.EncodeToString(args.Bytes()[1:]))
	if args.Len() > c.maxPacketSize {
		return nil, errors.Errorf("packet too long (max %d, got %d)", c.maxPacketSize, args.Len())
	}
	if err := c.d.Write(args.Bytes()); err != nil {
		return nil, errors.Annotatef(err, "device write failed")
	}
	select {
	case <-ctx.Done():
		return nil, errors.Annotatef(ctx.Err(), "DAP exec")
	case resp, ok := <-c.d.ReadCh():
		if !ok {
			return nil, errors.Annotatef(c.d.ReadError(), "device read failed")
		}
		glog.V(4).Infof("<=  %s", hex.EncodeToString(resp))
		want := args.Bytes()[1]
		if len(resp) == 0 || resp[0] != want {
			return nil, errors.Errorf("response to wrong command (want 0x%02x, got %q)", want, resp)
		}
		return bytes.NewBuffer(resp[1:]), nil
	}
}

func (c *hidClient) execCheckStatus(ctx context.Context, args *bytes.Buffer) error {
	cmd := args.Bytes()[1]
	resp, err := c.exec(ctx, args)
	if err != nil {
		return errors.Trace(err)
	}
	if resp.Len() == 0 {
		return errors.Errorf("command 0x%02x: empty response", cmd)
	}
	if status := resp.Bytes()[0]; status != 0 {
		return errors.Errorf("command 0x%02x returned error (0x%02x)", cmd, status)
	}
	return nil
}

func (c *hidClient) GetInfo(ctx context.Context, id InfoID) (*bytes.Buffer, error) {
	glog.V(3).Infof("GetInfo(%d)", id)
	args := newCmd(cmdInfo)
	args.WriteByte(uint8(id))
	resp, err := c.exec(ctx, args)
	if err != nil {
		return nil, errors.Annotatef(err, "failed to get info 0x%02x", id)
	}
	return resp, nil
}

func (c *hidClient) GetInfoString(ctx context.Context, id InfoID) (string, error) {
	resp, err := c.GetInfo(ctx, id)
	if err != nil {
		return "", errors.Trace(err)
	}
	sl, err := resp.ReadByte()
	if err != nil {
		return "", errors.Errorf("empty info 0x%02x response", id)
	}
	s := resp.Next(int(sl))
	return string(bytes.TrimRight(s, "\x00")), nil
}

func (c *hidClient) Describe(ctx context.Context) (*ProbeInfo, error) {
	var pi ProbeInfo
	for _, e := range []struct {
		id  InfoID
		dst *string
	}{
		{InfoVendor, &pi.Vendor},
		{InfoProduct, &pi.Product},
		{InfoSerialNumber, &pi.Serial},
		{InfoFirmwareVersion, &pi.FirmwareVersion},
		{InfoTargetVendor, &pi.TargetVendor},
		{InfoTargetName, &pi.TargetName},
	} {
		s, err := c.GetInfoString(ctx, e.id)
		if err != nil {
			return nil, errors.Trace(err)
		}
		*e.dst = s
	}
	return &pi, nil
}

func (c *hidClient) SetHostStatus(ctx context.Context, st StatusType, value bool) error {
	args := newCmd(cmdSetHostStatus)
	args.WriteByte(uint8(st))
	v := uint8(0)
	if value {
		v = 1
	}
	args.WriteByte(v)
	return errors.Trace(c.execCheckStatus(ctx, args))
}

func (c *hidClient) Connect(ctx context.Context, mode ConnectMode) error {
	glog.V(3).Infof("Connect(%d)", mode)
	args := newCmd(cmdConnect)
	args.WriteByte(uint8(mode))
	resp, err := c.exec(ctx, args)
	if err != nil {
		return errors.Trace(err)
	}
	if resp.Len() == 0 || resp.Bytes()[0] == 0 {
		return errors.Errorf("connect error")
	}
	return nil
}

func (c *hidClient) Disconnect(ctx context.Context) error {
	return errors.Trace(c.execCheckStatus(ctx, newCmd(cmdDisconnect)))
}

func (c *hidClient) TransferConfigure(ctx context.Context, idleCycles uint8, waitRetry uint16, matchRetry uint16) error {
	glog.V(3).Infof("TransferConfigure(%d, %d, %d)", idleCycles, waitRetry, matchRetry)
	args := newCmd(cmdTransferConfigure)
	binary.Write(args, binary.LittleEndian, idleCycles)
	binary.Write(args, binary.LittleEndian, waitRetry)
	binary.Write(args, binary.LittleEndian, matchRetry)
	return errors.Trace(c.execCheckStatus(ctx, args))
}

func transferRequestByte(reg uint8, ap bool, op TransferOp) uint8 {
	treq := reg & 0xc
	if ap {
		treq |= 1 << 0
	}
	switch op {
	case OpRead:
		treq |= 1 << 1
	case OpReadMatch:
		treq |= 1<<1 | 1<<4
	case OpWriteMatch:
		treq |= 1 << 5
	}
	return treq
}

func (c *hidClient) doTransfer(ctx context.Context, dapIndex uint8, reqs []TransferRequest) (TransferStatus, []uint32, error) {
	args := newCmd(cmdTransfer)
	args.WriteByte(dapIndex)
	args.WriteByte(uint8(len(reqs)))
	for i, req := range reqs {
		if req.Reg&3 != 0 {
			return 0, nil, errors.Errorf("treq %d invalid reg 0x%x", i, req.Reg)
		}
		args.WriteByte(transferRequestByte(req.Reg, req.AP, req.Op))
		if req.Op != OpRead {
			binary.Write(args, binary.LittleEndian, req.Data)
		}
	}
	resp, err := c.exec(ctx, args)
	if err != nil {
		return 0, nil, errors.Trace(err)
	}
	var tc uint8
	var st TransferStatus
	if binary.Read(resp, binary.LittleEndian, &tc) != nil ||
		binary.Read(resp, binary.LittleEndian, &st) != nil {
		return st, nil, errors.Errorf("response is too short")
	}
	if !st.Ok() {
		return st, nil, errors.Errorf("transfer failed (tc %d/%d st 0x%02x)", tc, len(reqs), st)
	}
	if int(tc) != len(reqs) {
		return st, nil, errors.Errorf("not all transfers completed (%d/%d)", tc, len(reqs))
	}
	var data []uint32
	for _, req := range reqs {
		if req.Op != OpRead {
			continue
		}
		var d uint32
		if binary.Read(resp, binary.LittleEndian, &d) != nil {
			return st, nil, errors.Errorf("response is too short")
		}
		data = append(data, d)
	}
	return st, data, nil
}

func (c *hidClient) Transfer(ctx context.Context, dapIndex uint8, reqs []TransferRequest) (TransferStatus, []uint32, error) {
	for i := 0; i < transferWaitRetries; i++ {
		st, res, err := c.doTransfer(ctx, dapIndex, reqs)
		if err != nil && st.AckValue() == uint8(TransferStatusWait) {
			glog.V(3).Infof("transfer WAIT, retrying (%d)", i)
			continue
		}
		return st, res, err
	}
	return TransferStatusWait, nil, errors.Errorf("transfer timeout")
}

func (c *hidClient) GetTransferBlockMaxSize() int {
	headerLen := 1 /* op */ + 1 /* dap index */ + 2 /* transfer count */ + 1 /* request */
	return (c.maxPacketSize - headerLen) / 4
}

func (c *hidClient) transferBlockHeader(dapIndex uint8, ap bool, reg uint8, length int, op TransferOp) (*bytes.Buffer, error) {
	if reg&3 != 0 {
		return nil, errors.Errorf("invalid reg 0x%x", reg)
	}
	args := newCmd(cmdTransferBlock)
	args.WriteByte(dapIndex)
	binary.Write(args, binary.LittleEndian, uint16(length))
	args.WriteByte(transferRequestByte(reg, ap, op))
	return args, nil
}

func readBlockStatus(resp *bytes.Buffer, want int) error {
	var tc uint16
	var st TransferStatus
	if binary.Read(resp, binary.LittleEndian, &tc) != nil ||
		binary.Read(resp, binary.LittleEndian, &st) != nil {
		return errors.Errorf("response is too short")
	}
	if !st.Ok() {
		return errors.Errorf("transfer failed (tc %d/%d st 0x%02x)", tc, want, st)
	}
	if int(tc) != want {
		return errors.Errorf("not all transfers completed (%d/%d)", tc, want)
	}
	return nil
}

func (c *hidClient) TransferBlockRead(ctx context.Context, dapIndex uint8, ap bool, reg uint8, length int) ([]uint32, error) {
	glog.V(3).Infof("TransferBlockRead(%d, %t, 0x%x, %d)", dapIndex, ap, reg, length)
	if length > c.GetTransferBlockMaxSize() {
		return nil, errors.Errorf("request too big (max %d, got %d)", c.GetTransferBlockMaxSize(), length)
	}
	args, err := c.transferBlockHeader(dapIndex, ap, reg, length, OpRead)
	if err != nil {
		return nil, errors.Trace(err)
	}
	resp, err := c.exec(ctx, args)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if err := readBlockStatus(resp, length); err != nil {
		return nil, errors.Trace(err)
	}
	res := make([]uint32, length)
	if binary.Read(resp, binary.LittleEndian, res) != nil {
		return nil, errors.Errorf("response is too short")
	}
	return res, nil
}

func (c *hidClient) TransferBlockWrite(ctx context.Context, dapIndex uint8, ap bool, reg uint8, data []uint32) error {
	glog.V(3).Infof("TransferBlockWrite(%d, %t, 0x%x, %d)", dapIndex, ap, reg, len(data))
	args, err := c.transferBlockHeader(dapIndex, ap, reg, len(data), OpWrite)
	if err != nil {
		return errors.Trace(err)
	}
	binary.Write(args, binary.LittleEndian, data)
	resp, err := c.exec(ctx, args)
	if err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(readBlockStatus(resp, len(data)))
}

func (c *hidClient) Delay(ctx context.Context, delay time.Duration) error {
	delayMicros := delay.Nanoseconds() / 1000
	if delayMicros > 65535 {
		return errors.Errorf("delay too large (%d)", delayMicros)
	}
	glog.V(3).Infof("Delay(%d)", delayMicros)
	args := newCmd(cmdDelay)
	binary.Write(args, binary.LittleEndian, uint16(delayMicros))
	return errors.Trace(c.execCheckStatus(ctx, args))
}

func (c *hidClient) ResetTarget(ctx context.Context) error {
	return errors.Trace(c.execCheckStatus(ctx, newCmd(cmdResetTarget)))
}

func (c *hidClient) SWJClock(ctx context.Context, clockHz uint32) error {
	glog.V(3).Infof("SWJClock(%d)", clockHz)
	args := newCmd(cmdSWJClock)
	binary.Write(args, binary.LittleEndian, clockHz)
	return errors.Trace(c.execCheckStatus(ctx, args))
}

func (c *hidClient) SWJSequence(ctx context.Context, numBits int, data []uint8) error {
	glog.V(3).Infof("SWJSequence(%d, %v)", numBits, data)
	if numBits < 1 || numBits > 256 {
		return errors.Errorf("length must be between 1 and 256 (got %d)", numBits)
	}
	args := newCmd(cmdSWJSequence)
	// 256 is encoded as 0.
	args.WriteByte(uint8(numBits))
	args.Write(data)
	return errors.Trace(c.execCheckStatus(ctx, args))
}

func (c *hidClient) SWDConfigure(ctx context.Context, config uint8) error {
	glog.V(3).Infof("SWDConfigure(0x%02x)", config)
	args := newCmd(cmdSWDConfigure)
	args.WriteByte(config)
	return errors.Trace(c.execCheckStatus(ctx, args))
}

func (c *hidClient) Close(ctx context.Context) error {
	if c.d != nil {
		c.d.Close()
		c.d = nil
	}
	return nil
}
