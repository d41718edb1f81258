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
package flags

import (
	flag "github.com/spf13/pflag"

	"github.com/hitsmaxft/ht32flash/cli/config"
)

var (
	Config = flag.String("config", "", "Probe and flash bank description file (.yaml, .yml or .ini). "+
		"If not given, a single ht32f523xx bank named flash0 is assumed.")
	Bank     = flag.String("bank", config.DefaultBankName, "Flash bank to operate on")
	BankSize = flag.Uint32("bank-size", 0, "Override the size of the bank, in bytes")

	ProbeVID = flag.Uint16("probe-vid", 0, "USB vendor ID of the CMSIS-DAP probe (default from config)")
	ProbePID = flag.Uint16("probe-pid", 0, "USB product ID of the CMSIS-DAP probe (default from config)")
	SWDClock = flag.Uint32("swd-clock", 0, "SWD clock, Hz (default from config)")
	LockDir  = flag.String("lock-dir", "", "Directory for probe lock files (default: system temp dir)")

	Halt             = flag.Bool("halt", true, "Halt the core before operating on flash")
	ResetHalt        = flag.Bool("reset-halt", false, "Reset the target and halt it on the reset vector instead of halting it where it runs")
	ResetAfter       = flag.Bool("reset-after", false, "Reset and run the target after a successful write")
	Verify           = flag.Bool("verify", false, "Read back written data and compare")
	ProtectionDecode = flag.String("protection-decode", "", "How to decode page protection option bytes: legacy or bitwise")
)

// Changed reports whether the flag was given on the command line or in the
// environment.
func Changed(name string) bool {
	return flag.CommandLine.Changed(name)
}
