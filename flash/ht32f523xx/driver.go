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
// Package ht32f523xx drives the Flash Memory Controller of the Holtek
// HT32F523xx family. All flash operations are a sequence of writes to the
// FMC registers followed by polling OPCR until the controller is ready again.
package ht32f523xx

import (
	"context"

	"github.com/golang/glog"
	"github.com/juju/errors"

	"github.com/hitsmaxft/ht32flash/flash/common"
	"github.com/hitsmaxft/ht32flash/flash/nor"
)

const Name = "ht32f523xx"

type Driver struct {
	opts Options
}

func New(opts ...Option) *Driver {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Driver{opts: o}
}

// Factory creates a driver from bank configuration options.
func Factory(m map[string]string) (nor.Driver, error) {
	opts, err := OptionsFromMap(m)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return New(opts...), nil
}

func (d *Driver) Name() string {
	return Name
}

func (d *Driver) Options() Options {
	return d.opts
}

func (d *Driver) Info(b *nor.Bank) string {
	return Name
}

func (d *Driver) AutoProbe(ctx context.Context, b *nor.Bank) error {
	if len(b.Sectors) > 0 {
		return nil
	}
	return errors.Trace(d.Probe(ctx, b))
}

// Protect is not supported: protection bits can only be reported.
func (d *Driver) Protect(ctx context.Context, b *nor.Bank, set bool, first, last int) error {
	return errors.NotSupportedf("%s: changing page protection", Name)
}

func (d *Driver) checkHalted(ctx context.Context, t common.HaltStater) error {
	halted, err := t.IsHalted(ctx)
	if err != nil {
		return errors.Annotatef(err, "failed to read halt state")
	}
	if !halted {
		glog.Errorf("Target not halted")
		return errors.Trace(nor.ErrTargetNotHalted)
	}
	return nil
}

func readReg(ctx context.Context, t common.TargetRegReader, addr uint32) (uint32, error) {
	v, err := t.ReadTargetReg(ctx, addr)
	if err != nil {
		return 0, &nor.LinkError{Op: "read", Addr: addr, Err: err}
	}
	glog.V(4).Infof("%08x -> %08x", addr, v)
	return v, nil
}

func writeReg(ctx context.Context, t common.TargetRegWriter, addr, value uint32) error {
	glog.V(4).Infof("%08x <- %08x", addr, value)
	if err := t.WriteTargetReg(ctx, addr, value); err != nil {
		return &nor.LinkError{Op: "write", Addr: addr, Err: err}
	}
	return nil
}

// writeRegs performs register writes in order, stopping at the first failure.
func writeRegs(ctx context.Context, t common.TargetRegWriter, regs ...[2]uint32) error {
	for _, r := range regs {
		if err := writeReg(ctx, t, r[0], r[1]); err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}
