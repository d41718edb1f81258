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
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/juju/errors"
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/hitsmaxft/ht32flash/flash/nor"
)

type regOp struct {
	write bool
	addr  uint32
	value uint32
}

func (o regOp) String() string {
	if o.write {
		return fmt.Sprintf("W %08x %08x", o.addr, o.value)
	}
	return fmt.Sprintf("R %08x %08x", o.addr, o.value)
}

// simTarget simulates the FMC register space. OPCR reads return scripted
// values first and then "finished".
type simTarget struct {
	halted  bool
	haltErr error

	opcr  []uint32
	mem   map[uint32]uint32
	ops   []regOp
	rfail map[uint32]error
	wfail map[uint32]error
	// wfailAfter fails the write with this index (1-based) when non-zero.
	wfailAfter int
}

func newSimTarget() *simTarget {
	return &simTarget{
		halted: true,
		mem:    map[uint32]uint32{},
		rfail:  map[uint32]error{},
		wfail:  map[uint32]error{},
	}
}

func (s *simTarget) IsHalted(ctx context.Context) (bool, error) {
	return s.halted, s.haltErr
}

func (s *simTarget) ReadTargetReg(ctx context.Context, addr uint32) (uint32, error) {
	if err := s.rfail[addr]; err != nil {
		return 0, err
	}
	v := s.mem[addr]
	if addr == regOPCR {
		v = opmFinished
		if len(s.opcr) > 0 {
			v, s.opcr = s.opcr[0], s.opcr[1:]
		}
	}
	s.ops = append(s.ops, regOp{addr: addr, value: v})
	return v, nil
}

func (s *simTarget) WriteTargetReg(ctx context.Context, addr uint32, value uint32) error {
	if err := s.wfail[addr]; err != nil {
		return err
	}
	if s.wfailAfter > 0 && len(s.writes())+1 == s.wfailAfter {
		return errors.New("link stalled")
	}
	s.ops = append(s.ops, regOp{write: true, addr: addr, value: value})
	s.mem[addr] = value
	return nil
}

func (s *simTarget) writes() []regOp {
	var res []regOp
	for _, o := range s.ops {
		if o.write {
			res = append(res, o)
		}
	}
	return res
}

func (s *simTarget) reads(addr uint32) int {
	n := 0
	for _, o := range s.ops {
		if !o.write && o.addr == addr {
			n++
		}
	}
	return n
}

type fakeSleeper struct {
	calls int
	total time.Duration
	err   error
}

func (f *fakeSleeper) sleep(ctx context.Context, d time.Duration) error {
	f.calls++
	f.total += d
	return f.err
}

type testRig struct {
	bank  *nor.Bank
	drv   *Driver
	tgt   *simTarget
	sleep *fakeSleeper
}

func newRig(t *testing.T, size uint32, opts ...Option) *testRig {
	rig := &testRig{tgt: newSimTarget(), sleep: &fakeSleeper{}}
	rig.drv = New(append([]Option{WithSleep(rig.sleep.sleep)}, opts...)...)
	rig.bank = nor.NewBank("flash0", size, rig.drv, rig.tgt)
	if err := rig.drv.Probe(context.Background(), rig.bank); err != nil {
		t.Fatalf("probe: %s", err)
	}
	return rig
}

func traceString(ops []regOp) string {
	var lines []string
	for _, o := range ops {
		lines = append(lines, o.String())
	}
	return strings.Join(lines, "\n") + "\n"
}

func checkTrace(t *testing.T, want, got []regOp) {
	t.Helper()
	ws, gs := traceString(want), traceString(got)
	if ws != gs {
		dmp := diffmatchpatch.New()
		diffs := dmp.DiffMain(ws, gs, false)
		t.Errorf("register trace mismatch:\n%s", dmp.DiffPrettyText(diffs))
	}
}

func wr(addr, value uint32) regOp {
	return regOp{write: true, addr: addr, value: value}
}

func rd(addr, value uint32) regOp {
	return regOp{addr: addr, value: value}
}
