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
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/juju/errors"

	"github.com/hitsmaxft/ht32flash/flash/common"
)

func listProbes(ctx context.Context, e *env, args []string) error {
	probes, err := common.ListUSBProbes()
	if err != nil {
		return errors.Trace(err)
	}
	if len(probes) == 0 {
		fmt.Fprintf(os.Stderr, "No CMSIS-DAP probes found\n")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "VID:PID\tBUS:ADDR\tPRODUCT\tSERIAL\n")
	for _, p := range probes {
		fmt.Fprintf(w, "%04x:%04x\t%d:%d\t%s %s\t%s\n", p.VID, p.PID, p.Bus, p.Address, p.Manufacturer, p.Product, p.Serial)
	}
	return errors.Trace(w.Flush())
}

func listBanks(ctx context.Context, e *env, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "NAME\tDRIVER\tSIZE\tOPTIONS\n")
	for _, b := range e.cfg.Banks {
		mark := ""
		if b.Name == e.bankName {
			mark = " *"
		}
		fmt.Fprintf(w, "%s%s\t%s\t0x%x\t%v\n", b.Name, mark, b.Driver, b.Size, b.Options)
	}
	fmt.Fprintf(w, "\nProbe %04x:%04x, SWD clock %d Hz, drivers: %v\n",
		e.cfg.Probe.VID, e.cfg.Probe.PID, e.cfg.Probe.SWDClock, e.reg.Names())
	return errors.Trace(w.Flush())
}
