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
package cortex

import (
	"context"

	"github.com/golang/glog"
	"github.com/juju/errors"

	"github.com/hitsmaxft/ht32flash/flash/common"
)

// Waiting for halt gives up after this many DHCSR reads.
const maxDHCSRPolls = 1000

func NewDebug(tmrw common.TargetRegReaderWriter) CortexDebug {
	return &cmDebug{tmrw: tmrw}
}

type cmDebug struct {
	tmrw common.TargetRegReaderWriter
}

func (d *cmDebug) Init(ctx context.Context) error {
	cpuid, err := d.tmrw.ReadTargetReg(ctx, regCPUID)
	if err != nil {
		return errors.Annotatef(err, "failed to get CPUID")
	}
	if cpuid>>24 != 0x41 {
		return errors.Errorf("target is not an ARM core (CPUID 0x%08x)", cpuid)
	}
	if _, ok := partNames[(cpuid>>4)&0xfff]; !ok {
		return errors.Errorf("target is not a Cortex-M core (CPUID 0x%08x)", cpuid)
	}
	return nil
}

func (d *cmDebug) dhcsr(ctx context.Context) (uint32, error) {
	dhcsr, err := d.tmrw.ReadTargetReg(ctx, regDHCSR)
	if err != nil {
		return 0, errors.Annotatef(err, "failed to get DHCSR")
	}
	glog.V(4).Infof("DHCSR 0x%08x", dhcsr)
	return dhcsr, nil
}

func (d *cmDebug) IsHalted(ctx context.Context) (bool, error) {
	dhcsr, err := d.dhcsr(ctx)
	if err != nil {
		return false, errors.Trace(err)
	}
	return dhcsr&dhcsrSHalt != 0, nil
}

func (d *cmDebug) Halt(ctx context.Context) error {
	if err := d.tmrw.WriteTargetReg(ctx, regDHCSR, regDHCSRKey|dhcsrCHalt|dhcsrCDebugEn); err != nil {
		return errors.Annotatef(err, "failed to set DHCSR")
	}
	return errors.Trace(d.WaitHalt(ctx))
}

func (d *cmDebug) reset(ctx context.Context, dhcsr, demcr uint32) error {
	if err := d.tmrw.WriteTargetReg(ctx, regDHCSR, dhcsr); err != nil {
		return errors.Annotatef(err, "failed to set DHCSR")
	}
	if err := d.tmrw.WriteTargetReg(ctx, regDEMCR, demcr); err != nil {
		return errors.Annotatef(err, "failed to set DEMCR")
	}
	return d.tmrw.WriteTargetReg(ctx, regAIRCR, regAIRCRKey|aircrSysResetReq)
}

func (d *cmDebug) ResetHalt(ctx context.Context) error {
	// Enable debug, trap on core reset, then reset.
	if err := d.reset(ctx, regDHCSRKey|dhcsrCDebugEn, demcrVCCoreReset); err != nil {
		return errors.Annotatef(err, "failed to reset the core")
	}
	return d.WaitHalt(ctx)
}

func (d *cmDebug) ResetRun(ctx context.Context) error {
	// Reset with debug disabled.
	return d.reset(ctx, regDHCSRKey, 0)
}

func (d *cmDebug) waitDHCSR(ctx context.Context, mask uint32) error {
	for i := 0; i < maxDHCSRPolls; i++ {
		dhcsr, err := d.dhcsr(ctx)
		if err != nil {
			return errors.Trace(err)
		}
		if dhcsr&mask != 0 {
			return nil
		}
	}
	return errors.Errorf("timed out waiting for DHCSR & 0x%08x", mask)
}

func (d *cmDebug) WaitHalt(ctx context.Context) error {
	return errors.Annotatef(d.waitDHCSR(ctx, dhcsrSHalt), "waiting for halt")
}
