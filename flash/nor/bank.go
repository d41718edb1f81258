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
package nor

import (
	"context"
	"sync"

	"github.com/golang/glog"
	"github.com/juju/errors"

	"github.com/hitsmaxft/ht32flash/flash/common"
)

// Bank is one flash region managed by a single driver. All operations hold the
// bank lock for their full duration, polling included: the controller has a
// single pending-command slot.
type Bank struct {
	Name    string
	Base    uint32
	Size    uint32
	Sectors []Sector

	Driver Driver
	Target common.FlashTarget

	mu sync.Mutex
}

func NewBank(name string, size uint32, d Driver, t common.FlashTarget) *Bank {
	return &Bank{Name: name, Size: size, Driver: d, Target: t}
}

// CheckSectorRange validates an inclusive sector range against the current
// sector list.
func CheckSectorRange(b *Bank, first, last int) error {
	if first < 0 || first > last || last >= len(b.Sectors) {
		return errors.NotValidf("sector range %d-%d (bank %s has %d sectors)", first, last, b.Name, len(b.Sectors))
	}
	return nil
}

func (b *Bank) Probe(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return errors.Annotatef(b.Driver.Probe(ctx, b), "%s: probe", b.Name)
}

func (b *Bank) autoProbe(ctx context.Context) error {
	return errors.Annotatef(b.Driver.AutoProbe(ctx, b), "%s: auto probe", b.Name)
}

func (b *Bank) Erase(ctx context.Context, first, last int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.autoProbe(ctx); err != nil {
		return errors.Trace(err)
	}
	glog.V(1).Infof("%s: erase %d-%d", b.Name, first, last)
	return errors.Annotatef(b.Driver.Erase(ctx, b, first, last), "%s: erase %d-%d", b.Name, first, last)
}

func (b *Bank) Write(ctx context.Context, offset uint32, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.autoProbe(ctx); err != nil {
		return errors.Trace(err)
	}
	if end := b.sectorsEnd(); uint64(offset)+uint64(len(data)) > uint64(end) {
		return errors.NotValidf("write of %d bytes @ 0x%x past the last sector of bank %s (0x%x)", len(data), offset, b.Name, end)
	}
	glog.V(1).Infof("%s: write %d @ 0x%x", b.Name, len(data), offset)
	return errors.Annotatef(b.Driver.Write(ctx, b, offset, data), "%s: write @ 0x%x", b.Name, offset)
}

// sectorsEnd returns the offset just past the last sector. A tail of the bank
// shorter than a sector is not part of any sector and stays unaddressed.
func (b *Bank) sectorsEnd() uint32 {
	if len(b.Sectors) == 0 {
		return 0
	}
	last := b.Sectors[len(b.Sectors)-1]
	return last.Offset + last.Size
}

// MassErase erases the whole bank and, on success, marks every sector erased.
func (b *Bank) MassErase(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.autoProbe(ctx); err != nil {
		return errors.Trace(err)
	}
	if err := b.Driver.MassErase(ctx, b); err != nil {
		return errors.Annotatef(err, "%s: mass erase", b.Name)
	}
	MarkAllErased(b)
	return nil
}

// MarkAllErased sets every sector of b to Erased. The caller must hold the
// bank (i.e. be running inside a bank operation).
func MarkAllErased(b *Bank) {
	for i := range b.Sectors {
		b.Sectors[i].Erased = Erased
	}
}

func (b *Bank) ProtectCheck(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.autoProbe(ctx); err != nil {
		return errors.Trace(err)
	}
	return errors.Annotatef(b.Driver.ProtectCheck(ctx, b), "%s: protect check", b.Name)
}

func (b *Bank) Protect(ctx context.Context, set bool, first, last int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return errors.Annotatef(b.Driver.Protect(ctx, b, set, first, last), "%s: protect", b.Name)
}

func (b *Bank) Info() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.Driver.Info(b)
}

// Run executes the driver command called name.
func (b *Bank) Run(ctx context.Context, name string) error {
	for _, c := range b.Driver.Commands() {
		if c.Name != name {
			continue
		}
		b.mu.Lock()
		defer b.mu.Unlock()
		if err := b.autoProbe(ctx); err != nil {
			return errors.Trace(err)
		}
		return errors.Annotatef(c.Handler(ctx, b), "%s: %s", b.Name, name)
	}
	return errors.NotFoundf("%s command %q", b.Driver.Name(), name)
}

// SectorsFor returns the range of sectors covering size bytes at offset.
func (b *Bank) SectorsFor(ctx context.Context, offset, size uint32) (int, int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.autoProbe(ctx); err != nil {
		return 0, 0, errors.Trace(err)
	}
	if size == 0 || uint64(offset)+uint64(size) > uint64(b.Size) {
		return 0, 0, errors.NotValidf("region of %d bytes @ 0x%x in bank %s (0x%x)", size, offset, b.Name, b.Size)
	}
	first := SectorAt(b.Sectors, offset)
	last := SectorAt(b.Sectors, offset+size-1)
	if first < 0 || last < 0 {
		return 0, 0, errors.NotValidf("region of %d bytes @ 0x%x not covered by sectors of bank %s", size, offset, b.Name)
	}
	return first, last, nil
}

// Snapshot returns a copy of the current sector list.
func (b *Bank) Snapshot() []Sector {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Sector(nil), b.Sectors...)
}
