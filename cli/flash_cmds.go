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
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/golang/glog"
	"github.com/juju/errors"

	"github.com/hitsmaxft/ht32flash/cli/ourutil"
	"github.com/hitsmaxft/ht32flash/flash/common"
	"github.com/hitsmaxft/ht32flash/flash/image"
	"github.com/hitsmaxft/ht32flash/flash/nor"
)

var (
	stateColor = map[nor.ErasedState]*color.Color{
		nor.ErasedUnknown: color.New(color.FgYellow),
		nor.Erased:        color.New(color.FgGreen),
		nor.NotErased:     color.New(),
	}
	protectedColor = color.New(color.FgRed)
)

func probeBank(ctx context.Context, e *env, args []string) error {
	b, err := e.bank(ctx)
	if err != nil {
		return errors.Trace(err)
	}
	if err := b.Probe(ctx); err != nil {
		return errors.Trace(err)
	}
	ss := b.Snapshot()
	ourutil.Reportf("%s: %s, %d bytes in %d sectors", b.Name, b.Info(), b.Size, len(ss))
	return nil
}

func bankInfo(ctx context.Context, e *env, args []string) error {
	b, err := e.bank(ctx)
	if err != nil {
		return errors.Trace(err)
	}
	ss := b.Snapshot()
	if len(ss) == 0 {
		if err := b.Probe(ctx); err != nil {
			return errors.Trace(err)
		}
		ss = b.Snapshot()
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 1, ' ', 0)
	fmt.Fprintf(w, "#%d: %s at 0x%08x, size 0x%08x\n", 0, b.Info(), b.Base, b.Size)
	for i, s := range ss {
		fmt.Fprintf(w, "  #%3d:\t0x%06x\t(0x%x %dkB)\t", i, s.Offset, s.Size, s.Size>>10)
		stateColor[s.Erased].Fprintf(w, "%s", s.Erased)
		if s.Protected {
			protectedColor.Fprintf(w, ", protected\n")
		} else {
			fmt.Fprintf(w, ", not protected\n")
		}
	}
	return errors.Trace(w.Flush())
}

func eraseSectors(ctx context.Context, e *env, args []string) error {
	first, err := parseIndex("first sector", args[0])
	if err != nil {
		return errors.Trace(err)
	}
	last := first
	if len(args) > 1 {
		if last, err = parseIndex("last sector", args[1]); err != nil {
			return errors.Trace(err)
		}
	}
	b, err := e.bank(ctx)
	if err != nil {
		return errors.Trace(err)
	}
	ourutil.Reportf("Erasing sectors %d-%d...", first, last)
	start := time.Now()
	if err := b.Erase(ctx, first, last); err != nil {
		return errors.Trace(err)
	}
	ourutil.Reportf("Erased sectors %d-%d in %.3fs", first, last, time.Since(start).Seconds())
	return nil
}

func writeImage(ctx context.Context, e *env, args []string) error {
	offset, err := parseUint32("offset", args[0])
	if err != nil {
		return errors.Trace(err)
	}
	b, err := e.bank(ctx)
	if err != nil {
		return errors.Trace(err)
	}
	img, err := image.LoadFile(args[1], b.Base+offset)
	if err != nil {
		return errors.Annotatef(err, "failed to load image")
	}
	if err := img.Rebase(b.Base); err != nil {
		return errors.Trace(err)
	}
	img.Align(4, image.DefaultFill)
	start := time.Now()
	for _, seg := range img.Segments {
		first, last, err := b.SectorsFor(ctx, seg.Addr, uint32(len(seg.Data)))
		if err != nil {
			return errors.Trace(err)
		}
		ourutil.Reportf("Writing %d @ 0x%x (sectors %d-%d)...", len(seg.Data), seg.Addr, first, last)
		if err := b.Write(ctx, seg.Addr, seg.Data); err != nil {
			return errors.Trace(err)
		}
		if e.verify {
			s, err := e.session(ctx)
			if err != nil {
				return errors.Trace(err)
			}
			if err := s.verify(ctx, seg.Addr, seg.Data); err != nil {
				return errors.Trace(err)
			}
			glog.V(1).Infof("Verified %d @ 0x%x", len(seg.Data), seg.Addr)
		}
	}
	ourutil.Reportf("Wrote %d bytes in %.3fs", img.Size(), time.Since(start).Seconds())
	if e.resetAfter {
		return errors.Trace(resetTarget(ctx, e, nil))
	}
	return nil
}

func resetTarget(ctx context.Context, e *env, args []string) error {
	s, err := e.session(ctx)
	if err != nil {
		return errors.Trace(err)
	}
	if err := s.resetRun(ctx); err != nil {
		return errors.Trace(err)
	}
	ourutil.Reportf("Target reset")
	return nil
}

func verifyMem(ctx context.Context, mr common.TargetMemReader, addr uint32, data []byte) error {
	if addr%4 != 0 || len(data)%4 != 0 {
		return errors.Errorf("verify region 0x%x+%d is not word aligned", addr, len(data))
	}
	words, err := mr.ReadTargetMem(ctx, addr, len(data)/4)
	if err != nil {
		return errors.Annotatef(err, "failed to read back 0x%x+%d", addr, len(data))
	}
	got := make([]byte, len(data))
	for i, w := range words {
		binary.LittleEndian.PutUint32(got[i*4:], w)
	}
	if bytes.Equal(got, data) {
		return nil
	}
	for i := range data {
		if got[i] != data[i] {
			return errors.Errorf("verify failed @ 0x%x: want 0x%02x, got 0x%02x", addr+uint32(i), data[i], got[i])
		}
	}
	return nil
}

func massErase(ctx context.Context, e *env, args []string) error {
	b, err := e.bank(ctx)
	if err != nil {
		return errors.Trace(err)
	}
	ourutil.Reportf("Erasing %s...", b.Name)
	if err := b.MassErase(ctx); err != nil {
		return errors.Trace(err)
	}
	ourutil.Reportf("Mass erase complete")
	return nil
}

func protectCheck(ctx context.Context, e *env, args []string) error {
	b, err := e.bank(ctx)
	if err != nil {
		return errors.Trace(err)
	}
	if err := b.ProtectCheck(ctx); err != nil {
		return errors.Trace(err)
	}
	ss := b.Snapshot()
	n := 0
	for _, s := range ss {
		if s.Protected {
			n++
		}
	}
	ourutil.Reportf("%d of %d sectors protected", n, len(ss))
	return nil
}

func protect(ctx context.Context, e *env, args []string) error {
	var set bool
	switch args[0] {
	case "on":
		set = true
	case "off":
	default:
		return errors.NotValidf("protection state %q (want on or off)", args[0])
	}
	first, err := parseIndex("first sector", args[1])
	if err != nil {
		return errors.Trace(err)
	}
	last, err := parseIndex("last sector", args[2])
	if err != nil {
		return errors.Trace(err)
	}
	b, err := e.bank(ctx)
	if err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(b.Protect(ctx, set, first, last))
}

func driverCmd(ctx context.Context, e *env, args []string) error {
	b, err := e.bank(ctx)
	if err != nil {
		return errors.Trace(err)
	}
	if len(args) == 0 {
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 1, ' ', 0)
		for _, c := range b.Driver.Commands() {
			fmt.Fprintf(w, "  %s\t%s\n", c.Name, c.Help)
		}
		return errors.Trace(w.Flush())
	}
	ourutil.Reportf("Running %s %s...", b.Driver.Name(), args[0])
	return errors.Trace(b.Run(ctx, args[0]))
}
