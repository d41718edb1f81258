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
	"strings"

	"github.com/fatih/color"
	"github.com/golang/glog"
	"github.com/juju/errors"
	flag "github.com/spf13/pflag"

	"github.com/hitsmaxft/ht32flash/common/pflagenv"
	"github.com/hitsmaxft/ht32flash/version"
)

const (
	envPrefix = "HT32FLASH_"
)

var (
	verbose     = flag.Bool("verbose", false, "Verbose output")
	versionFlag = flag.Bool("version", false, "Print version and exit")
	helpFull    = flag.Bool("helpfull", false, "Show full help, including advanced flags")
)

type handler func(ctx context.Context, e *env, args []string) error

type command struct {
	name    string
	handler handler
	args    string
	short   string
	minArgs int
	maxArgs int
}

var commands []command

func init() {
	commands = []command{
		{"probe", probeBank, "", `Read the flash geometry of the bank`, 0, 0},
		{"info", bankInfo, "", `Show the bank, its driver and the state of every sector`, 0, 0},
		{"erase", eraseSectors, "FIRST [LAST]", `Erase a range of sectors, both ends inclusive`, 1, 2},
		{"write", writeImage, "OFFSET FILE", `Write a .bin or .hex image. .bin is placed at OFFSET within the bank`, 2, 2},
		{"mass-erase", massErase, "", `Erase the whole flash array`, 0, 0},
		{"reset", resetTarget, "", `Reset the target and let it run`, 0, 0},
		{"protect-check", protectCheck, "", `Read page protection from the option bytes`, 0, 0},
		{"protect", protect, "on|off FIRST LAST", `Change page protection`, 3, 3},
		{"driver-cmd", driverCmd, "[NAME]", `Run a driver specific command, or list them`, 0, 1},
		{"run-script", runScript, "FILE", `Run commands from a file, one per line`, 1, 1},
		{"list-probes", listProbes, "", `List attached CMSIS-DAP probes`, 0, 0},
		{"banks", listBanks, "", `List configured flash banks`, 0, 0},
	}
}

func findCommand(name string) *command {
	for i := range commands {
		if commands[i].name == name {
			return &commands[i]
		}
	}
	return nil
}

func runCommand(ctx context.Context, e *env, args []string) error {
	if len(args) == 0 {
		usage()
		return nil
	}
	c := findCommand(args[0])
	if c == nil {
		return errors.NotFoundf("command %q", args[0])
	}
	cargs := args[1:]
	if len(cargs) < c.minArgs || len(cargs) > c.maxArgs {
		return errors.Errorf("usage: %s %s", c.name, c.args)
	}
	glog.V(1).Infof("Running %s", strings.Join(args, " "))
	return errors.Trace(c.handler(ctx, e, cargs))
}

func main() {
	initFlags()
	flag.Parse()
	defer glog.Flush()
	if err := pflagenv.Parse(envPrefix); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
	if *verbose && !flag.CommandLine.Changed("v") {
		flag.Set("v", "1")
	}

	if *helpFull {
		unhideFlags()
		usage()
		return
	} else if *versionFlag {
		fmt.Println(version.String())
		return
	}

	ctx := context.Background()
	e, err := newEnv()
	if err == nil {
		err = runCommand(ctx, e, flag.Args())
		e.Close()
	}
	if err != nil {
		glog.Infof("Error: %+v", err)
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %s\n", err)
		glog.Flush()
		os.Exit(1)
	}
}
