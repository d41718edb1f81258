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
	"sort"
	"strings"

	"github.com/juju/errors"
)

// Driver is implemented once per flash controller family. Drivers check their
// own hardware preconditions and sector ranges (see CheckSectorRange). Bank
// auto-probes, checks write bounds and holds the lock before calling the
// driver.
type Driver interface {
	Name() string
	// Probe rebuilds b.Sectors from scratch.
	Probe(ctx context.Context, b *Bank) error
	// AutoProbe probes only if the bank has not been probed yet.
	AutoProbe(ctx context.Context, b *Bank) error
	Erase(ctx context.Context, b *Bank, first, last int) error
	Write(ctx context.Context, b *Bank, offset uint32, data []byte) error
	// MassErase erases the whole bank. It does not touch sector state.
	MassErase(ctx context.Context, b *Bank) error
	ProtectCheck(ctx context.Context, b *Bank) error
	Protect(ctx context.Context, b *Bank, set bool, first, last int) error
	Info(b *Bank) string
	// Commands returns driver-specific operations.
	Commands() []Command
}

// Command is a driver-specific operation on a bank, run with the bank locked.
type Command struct {
	Name    string
	Help    string
	Handler func(ctx context.Context, b *Bank) error
}

// Factory creates a driver from its configuration options.
type Factory func(opts map[string]string) (Driver, error)

// Registry maps flash family names to driver factories.
type Registry struct {
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: map[string]Factory{}}
}

func (r *Registry) Register(name string, f Factory) error {
	name = strings.ToLower(name)
	if _, ok := r.factories[name]; ok {
		return errors.AlreadyExistsf("flash driver %q", name)
	}
	r.factories[name] = f
	return nil
}

// New instantiates the driver registered as name.
func (r *Registry) New(name string, opts map[string]string) (Driver, error) {
	f, ok := r.factories[strings.ToLower(name)]
	if !ok {
		return nil, errors.NotFoundf("flash driver %q (known: %s)", name, strings.Join(r.Names(), ", "))
	}
	d, err := f(opts)
	if err != nil {
		return nil, errors.Annotatef(err, "%s", name)
	}
	return d, nil
}

func (r *Registry) Names() []string {
	var names []string
	for n := range r.factories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
