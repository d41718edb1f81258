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
	"fmt"
	"time"
)

// Flash Memory Controller (FMC) registers.
const (
	fmcBase = 0x40080000

	regTADR  = fmcBase + 0x000 // target address
	regWRDR  = fmcBase + 0x004 // write data
	regOCMR  = fmcBase + 0x00C // operation command
	regOPCR  = fmcBase + 0x010 // operation control
	regOIER  = fmcBase + 0x014 // interrupt enable
	regOISR  = fmcBase + 0x018 // interrupt status
	regPPSR  = fmcBase + 0x020 // page erase/program protection status
	regCPSR  = fmcBase + 0x030 // security protection status
	regVMCR  = fmcBase + 0x100 // vector mapping control
	regMDID  = fmcBase + 0x180 // manufacturer and device ID
	regPNSR  = fmcBase + 0x184 // page number status
	regPSSR  = fmcBase + 0x188 // page size status
	regCFCR  = fmcBase + 0x200 // cache and prefetch control
	regCIDR0 = fmcBase + 0x310 // custom ID 0-3
)

// OPCR operation mode field.
const (
	opmMask     = 0x1E
	opmCommit   = 0xA << 1
	opmStart    = 0x6 << 1
	opmFinished = 0xE << 1
)

// OCMR commands.
const (
	cmdMask      = 0xF
	cmdWordProg  = 0x4
	cmdPageErase = 0x8
	cmdMassErase = 0xA
)

// Option bytes.
const (
	optionByteBase = 0x1FF00000
	obPP           = optionByteBase + 0x000 // page protection, 4 words
	obCP           = optionByteBase + 0x010 // chip protection

	obPPWords = 4
)

const (
	PageSize = 512
	wordSize = 4

	// DefaultTimeout is the polling budget for one erase or program
	// transaction, in retries.
	DefaultTimeout      = 1000
	DefaultPollInterval = 10 * time.Millisecond
)

// OpStatus is the operation mode field of OPCR.
type OpStatus int

const (
	OpBusy OpStatus = iota
	OpCommitting
	OpStart
	OpFinished
)

func decodeStatus(opcr uint32) OpStatus {
	switch opcr & opmMask {
	case opmFinished:
		return OpFinished
	case opmStart:
		return OpStart
	case opmCommit:
		return OpCommitting
	}
	return OpBusy
}

// Ready reports whether the controller accepts a new command. Both "finished"
// and "start" count as ready.
func (s OpStatus) Ready() bool {
	return s == OpFinished || s == OpStart
}

func (s OpStatus) String() string {
	switch s {
	case OpFinished:
		return "finished"
	case OpStart:
		return "start"
	case OpCommitting:
		return "committing"
	}
	return "busy"
}

func statusString(opcr uint32) string {
	return fmt.Sprintf("0x%04x (%s)", opcr, decodeStatus(opcr))
}
