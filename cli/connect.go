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
package main

import (
	"context"

	"github.com/golang/glog"
	"github.com/juju/errors"

	"github.com/hitsmaxft/ht32flash/cli/ourutil"
	"github.com/hitsmaxft/ht32flash/flash/common"
	"github.com/hitsmaxft/ht32flash/flash/common/cmsis-dap/dap"
	"github.com/hitsmaxft/ht32flash/flash/common/cmsis-dap/dp"
	"github.com/hitsmaxft/ht32flash/flash/common/cmsis-dap/memap"
	"github.com/hitsmaxft/ht32flash/flash/common/cortex"
	"github.com/hitsmaxft/ht32flash/flash/nor"
)

// flashTarget is what flash drivers see of the target: the MEM-AP for
// register access and the core debug block for halt state.
type flashTarget struct {
	common.TargetRegReaderWriter
	common.HaltStater
}

// session is an open connection to the target through the probe.
type session struct {
	lock   *common.ProbeLock
	dapc   dap.Client
	mem    common.TargetMemReaderWriter
	dbg    cortex.CortexDebug
	bank   *nor.Bank
	status bool
}

func openSession(ctx context.Context, e *env) (*session, error) {
	bc, err := e.cfg.Bank(e.bankName)
	if err != nil {
		return nil, errors.Trace(err)
	}
	drv, err := e.reg.New(bc.Driver, bc.Options)
	if err != nil {
		return nil, errors.Annotatef(err, "bank %s", bc.Name)
	}
	p := e.cfg.Probe
	lock, err := common.LockProbe(e.lockDir(), p.VID, p.PID)
	if err != nil {
		return nil, errors.Trace(err)
	}
	s := &session{lock: lock}
	ok := false
	defer func() {
		if !ok {
			s.Close()
		}
	}()

	s.dapc, err = dap.Open(ctx, dap.Options{VID: p.VID, PID: p.PID})
	if err != nil {
		return nil, errors.Annotatef(err, "failed to open debug probe")
	}
	if pi, err := s.dapc.Describe(ctx); err == nil {
		ourutil.Reportf("CMSIS-DAP probe %s %s v%s S/N %s", pi.Vendor, pi.Product, pi.FirmwareVersion, pi.Serial)
	} else {
		glog.Warningf("Failed to get probe info: %s", err)
	}
	if err := dap.InitSWD(ctx, s.dapc, p.SWDClock); err != nil {
		return nil, errors.Trace(err)
	}
	dpc := dp.NewClient(s.dapc)
	if err := dpc.Init(ctx); err != nil {
		return nil, errors.Annotatef(err, "failed to init DP, is the target connected and powered on?")
	}
	dpidr, err := dpc.GetIDR(ctx)
	if err != nil {
		return nil, errors.Annotatef(err, "failed to read DP ID")
	}
	mapc := memap.NewClient(dpc, 0 /* apSel */)
	if err := mapc.Init(ctx); err != nil {
		return nil, errors.Annotatef(err, "failed to init AP")
	}
	s.mem = mapc
	tgtName, err := cortex.GetTargetName(ctx, mapc)
	if err != nil {
		return nil, errors.Annotatef(err, "failed to get target name")
	}
	ourutil.Reportf("Core: %s, DP %s", tgtName, dpidr)
	s.dbg = cortex.NewDebug(mapc)
	if err := s.dbg.Init(ctx); err != nil {
		return nil, errors.Annotatef(err, "failed to init core debug")
	}
	if err := s.dapc.SetHostStatus(ctx, dap.StatusConnected, true); err == nil {
		s.status = true
	}
	if err := stopCore(ctx, s.dbg, e.halt, e.resetHalt); err != nil {
		return nil, errors.Trace(err)
	}
	s.bank = nor.NewBank(bc.Name, bc.Size, drv, &flashTarget{
		TargetRegReaderWriter: mapc,
		HaltStater:            s.dbg,
	})
	ok = true
	return s, nil
}

// stopCore halts the core where it runs or, with resetHalt, resets it and
// halts it on the reset vector.
func stopCore(ctx context.Context, dbg cortex.CortexDebug, halt, resetHalt bool) error {
	switch {
	case resetHalt:
		if err := dbg.ResetHalt(ctx); err != nil {
			return errors.Annotatef(err, "failed to reset and halt the core")
		}
		glog.V(1).Infof("Core reset and halted")
	case halt:
		if err := dbg.Halt(ctx); err != nil {
			return errors.Annotatef(err, "failed to halt the core")
		}
		glog.V(1).Infof("Core halted")
	}
	return nil
}

// resetRun resets the target and lets it run.
func (s *session) resetRun(ctx context.Context) error {
	if s.dbg == nil {
		return errors.NotSupportedf("reset without core debug")
	}
	return errors.Annotatef(s.dbg.ResetRun(ctx), "failed to reset the core")
}

// verify reads back data written at offset within the bank.
func (s *session) verify(ctx context.Context, offset uint32, data []byte) error {
	return errors.Trace(verifyMem(ctx, s.mem, s.bank.Base+offset, data))
}

func (s *session) Close() {
	ctx := context.Background()
	if s.dapc != nil {
		if s.status {
			s.dapc.SetHostStatus(ctx, dap.StatusConnected, false)
		}
		s.dapc.Disconnect(ctx)
		s.dapc.Close(ctx)
		s.dapc = nil
	}
	if s.lock != nil {
		if err := s.lock.Unlock(); err != nil {
			glog.Errorf("%s", err)
		}
		s.lock = nil
	}
}
