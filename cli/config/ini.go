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
package config

import (
	"strconv"
	"strings"

	"github.com/go-ini/ini"
	"github.com/juju/errors"
)

const (
	iniProbeSection = "probe"
	iniBankPrefix   = "bank "
)

// ParseINI reads the INI form of the configuration:
//
//   [probe]
//   vid = 0x04d9
//   pid = 0x8004
//
//   [bank flash0]
//   driver = ht32f523xx
//   size = 0x10000
//   protection_decode = bitwise
//
// Bank keys other than driver and size are passed to the driver as options.
func ParseINI(data []byte) (*Config, error) {
	f, err := ini.Load(data)
	if err != nil {
		return nil, errors.Annotatef(err, "invalid INI config")
	}
	c := &Config{Probe: Default().Probe}
	for _, s := range f.Sections() {
		name := s.Name()
		switch {
		case name == ini.DEFAULT_SECTION:
			if len(s.Keys()) > 0 {
				return nil, errors.NotValidf("keys outside of a section")
			}
		case name == iniProbeSection:
			if err := parseINIProbe(s, &c.Probe); err != nil {
				return nil, errors.Trace(err)
			}
		case strings.HasPrefix(name, iniBankPrefix):
			b, err := parseINIBank(strings.TrimSpace(strings.TrimPrefix(name, iniBankPrefix)), s)
			if err != nil {
				return nil, errors.Trace(err)
			}
			c.Banks = append(c.Banks, b)
		default:
			return nil, errors.NotValidf("section [%s]", name)
		}
	}
	if err := c.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return c, nil
}

func parseUint(k *ini.Key, bits int) (uint64, error) {
	v, err := strconv.ParseUint(k.String(), 0, bits)
	if err != nil {
		return 0, errors.NotValidf("%s = %q", k.Name(), k.String())
	}
	return v, nil
}

func parseINIProbe(s *ini.Section, p *Probe) error {
	for _, k := range s.Keys() {
		switch k.Name() {
		case "vid", "pid":
			v, err := parseUint(k, 16)
			if err != nil {
				return errors.Trace(err)
			}
			if k.Name() == "vid" {
				p.VID = uint16(v)
			} else {
				p.PID = uint16(v)
			}
		case "swd_clock":
			v, err := parseUint(k, 32)
			if err != nil {
				return errors.Trace(err)
			}
			p.SWDClock = uint32(v)
		case "lock_dir":
			p.LockDir = k.String()
		default:
			return errors.NotValidf("probe key %q", k.Name())
		}
	}
	return nil
}

func parseINIBank(name string, s *ini.Section) (*Bank, error) {
	b := &Bank{Name: name}
	for _, k := range s.Keys() {
		switch k.Name() {
		case "driver":
			b.Driver = k.String()
		case "size":
			v, err := parseUint(k, 32)
			if err != nil {
				return nil, errors.Annotatef(err, "bank %q", name)
			}
			b.Size = uint32(v)
		default:
			if b.Options == nil {
				b.Options = map[string]string{}
			}
			b.Options[k.Name()] = k.String()
		}
	}
	return b, nil
}
