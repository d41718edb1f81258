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
	"fmt"

	"github.com/golang/glog"
	"github.com/juju/errors"

	"github.com/hitsmaxft/ht32flash/flash/common"
)

// Doc: ARMv6-M and ARMv7-M Architecture Reference Manuals, debug chapters.

type CortexDebug interface {
	common.HaltStater

	Init(ctx context.Context) error
	Halt(ctx context.Context) error
	ResetHalt(ctx context.Context) error
	ResetRun(ctx context.Context) error
	WaitHalt(ctx context.Context) error
}

const (
	regCPUID    uint32 = 0xE000ED00
	regAIRCR    uint32 = 0xE000ED0C
	regAIRCRKey uint32 = 0x05FA0000

	regDHCSR    uint32 = 0xE000EDF0
	regDHCSRKey uint32 = 0xA05F0000
	regDEMCR    uint32 = 0xE000EDFC
	regPID0     uint32 = 0xE000EFE0
)

const (
	dhcsrCDebugEn = 1 << 0
	dhcsrCHalt    = 1 << 1
	dhcsrSHalt    = 1 << 17

	aircrSysResetReq = 1 << 2

	demcrVCCoreReset = 1 << 0
)

const (
	partM0     = 0xc20
	partM1     = 0xc21
	partM3     = 0xc23
	partM4     = 0xc24
	partM7     = 0xc27
	partM0Plus = 0xc60
)

var partNames = map[uint32]string{
	partM0:     "Cortex-M0",
	partM0Plus: "Cortex-M0+",
	partM1:     "Cortex-M1",
	partM3:     "Cortex-M3",
	partM4:     "Cortex-M4",
	partM7:     "Cortex-M7",
}

func TargetName(cpuid, pid0 uint32) string {
	glog.V(1).Infof("CPUID: 0x%08x, PID0: 0x%08x", cpuid, pid0)
	vendor := ""
	if cpuid>>24 == 0x41 {
		vendor = "ARM"
	}
	patch := cpuid & 0xf
	partno := (cpuid >> 4) & 0xfff
	rev := (cpuid >> 20) & 0xf
	part := partNames[partno]
	fpu := ""
	if pid0 == 0xc {
		fpu = "F"
	}
	return fmt.Sprintf("%s %s%s r%dp%d", vendor, part, fpu, rev, patch)
}

func GetTargetName(ctx context.Context, tmr common.TargetRegReader) (string, error) {
	cpuid, err := tmr.ReadTargetReg(ctx, regCPUID)
	if err != nil {
		return "", errors.Annotatef(err, "failed to get CPUID")
	}
	pid0, err := tmr.ReadTargetReg(ctx, regPID0)
	if err != nil {
		return "", errors.Annotatef(err, "failed to get PID0")
	}
	return TargetName(cpuid, pid0), nil
}
