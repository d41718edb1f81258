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
	"os"
	"strconv"

	"github.com/juju/errors"

	"github.com/hitsmaxft/ht32flash/cli/config"
	"github.com/hitsmaxft/ht32flash/cli/flags"
	"github.com/hitsmaxft/ht32flash/flash/ht32f523xx"
	"github.com/hitsmaxft/ht32flash/flash/nor"
)

// env is what command handlers run in: the configuration, the known drivers
// and, once a command needs the target, the probe session.
type env struct {
	cfg        *config.Config
	reg        *nor.Registry
	bankName   string
	halt       bool
	resetHalt  bool
	resetAfter bool
	verify     bool

	sess *session
	// open connects to the target; replaced in tests.
	open func(ctx context.Context, e *env) (*session, error)
}

func newRegistry() *nor.Registry {
	reg := nor.NewRegistry()
	if err := reg.Register(ht32f523xx.Name, ht32f523xx.Factory); err != nil {
		panic(err)
	}
	return reg
}

// overrides are configuration values given as flags.
type overrides struct {
	vid, pid         *uint16
	swdClock         *uint32
	lockDir          *string
	bankSize         *uint32
	protectionDecode *string
}

func flagOverrides() overrides {
	var o overrides
	if flags.Changed("probe-vid") {
		o.vid = flags.ProbeVID
	}
	if flags.Changed("probe-pid") {
		o.pid = flags.ProbePID
	}
	if flags.Changed("swd-clock") {
		o.swdClock = flags.SWDClock
	}
	if flags.Changed("lock-dir") {
		o.lockDir = flags.LockDir
	}
	if flags.Changed("bank-size") {
		o.bankSize = flags.BankSize
	}
	if flags.Changed("protection-decode") {
		o.protectionDecode = flags.ProtectionDecode
	}
	return o
}

func applyOverrides(cfg *config.Config, bankName string, o overrides) error {
	if o.vid != nil {
		cfg.Probe.VID = *o.vid
	}
	if o.pid != nil {
		cfg.Probe.PID = *o.pid
	}
	if o.swdClock != nil {
		cfg.Probe.SWDClock = *o.swdClock
	}
	if o.lockDir != nil {
		cfg.Probe.LockDir = *o.lockDir
	}
	if o.bankSize == nil && o.protectionDecode == nil {
		return nil
	}
	b, err := cfg.Bank(bankName)
	if err != nil {
		return errors.Trace(err)
	}
	if o.bankSize != nil {
		b.Size = *o.bankSize
	}
	if o.protectionDecode != nil {
		if b.Options == nil {
			b.Options = map[string]string{}
		}
		b.Options[ht32f523xx.OptProtectionDecode] = *o.protectionDecode
	}
	return errors.Trace(cfg.Validate())
}

func newEnv() (*env, error) {
	cfg := config.Default()
	if *flags.Config != "" {
		var err error
		if cfg, err = config.Load(*flags.Config); err != nil {
			return nil, errors.Trace(err)
		}
	}
	if err := applyOverrides(cfg, *flags.Bank, flagOverrides()); err != nil {
		return nil, errors.Trace(err)
	}
	return &env{
		cfg:        cfg,
		reg:        newRegistry(),
		bankName:   *flags.Bank,
		halt:       *flags.Halt,
		resetHalt:  *flags.ResetHalt,
		resetAfter: *flags.ResetAfter,
		verify:     *flags.Verify,
		open:       openSession,
	}, nil
}

// session returns the probe session, connecting on first use.
func (e *env) session(ctx context.Context) (*session, error) {
	if e.sess == nil {
		s, err := e.open(ctx, e)
		if err != nil {
			return nil, errors.Trace(err)
		}
		e.sess = s
	}
	return e.sess, nil
}

func (e *env) bank(ctx context.Context) (*nor.Bank, error) {
	s, err := e.session(ctx)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return s.bank, nil
}

func (e *env) lockDir() string {
	if e.cfg.Probe.LockDir != "" {
		return e.cfg.Probe.LockDir
	}
	return os.TempDir()
}

func (e *env) Close() {
	if e.sess != nil {
		e.sess.Close()
		e.sess = nil
	}
}

func parseUint32(what, s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, errors.NotValidf("%s %q", what, s)
	}
	return uint32(v), nil
}

func parseIndex(what, s string) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return 0, errors.NotValidf("%s %q", what, s)
	}
	return v, nil
}
