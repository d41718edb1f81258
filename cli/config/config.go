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
// Package config describes the probe and the flash banks ht32flash works
// with. The description can be kept in a YAML or an INI file.
package config

import (
	"fmt"
	"io/ioutil"
	"path/filepath"
	"strings"

	"github.com/juju/errors"
	yaml "gopkg.in/yaml.v2"

	"github.com/hitsmaxft/ht32flash/common/multierror"
)

const (
	DefaultVID      = 0x04d9
	DefaultPID      = 0x8004
	DefaultSWDClock = 1000000
	DefaultBankName = "flash0"
	DefaultDriver   = "ht32f523xx"
	DefaultBankSize = 0x20000
)

type Probe struct {
	VID      uint16 `yaml:"vid"`
	PID      uint16 `yaml:"pid"`
	SWDClock uint32 `yaml:"swd_clock"`
	// LockDir holds probe lock files. Empty means the system temp dir.
	LockDir string `yaml:"lock_dir,omitempty"`
}

// Bank is one flash bank: a region of target flash handled by one driver.
type Bank struct {
	Name    string            `yaml:"name"`
	Driver  string            `yaml:"driver"`
	Size    uint32            `yaml:"size"`
	Options map[string]string `yaml:"options,omitempty"`
}

func (b *Bank) String() string {
	return fmt.Sprintf("%s: %s, 0x%x", b.Name, b.Driver, b.Size)
}

type Config struct {
	Probe Probe   `yaml:"probe"`
	Banks []*Bank `yaml:"banks"`
}

// Default describes a single HT32F523xx bank on a Holtek e-Link32 probe.
func Default() *Config {
	return &Config{
		Probe: Probe{VID: DefaultVID, PID: DefaultPID, SWDClock: DefaultSWDClock},
		Banks: []*Bank{{Name: DefaultBankName, Driver: DefaultDriver, Size: DefaultBankSize}},
	}
}

// Load reads a configuration file; the format is picked by extension.
func Load(fname string) (*Config, error) {
	data, err := ioutil.ReadFile(fname)
	if err != nil {
		return nil, errors.Trace(err)
	}
	var c *Config
	switch strings.ToLower(filepath.Ext(fname)) {
	case ".yaml", ".yml":
		c, err = ParseYAML(data)
	case ".ini":
		c, err = ParseINI(data)
	default:
		return nil, errors.NotSupportedf("config format of %q", fname)
	}
	if err != nil {
		return nil, errors.Annotatef(err, "%s", fname)
	}
	return c, nil
}

func ParseYAML(data []byte) (*Config, error) {
	c := &Config{Probe: Default().Probe}
	if err := yaml.UnmarshalStrict(data, c); err != nil {
		return nil, errors.Annotatef(err, "invalid YAML config")
	}
	if err := c.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return c, nil
}

// Bank returns the bank with the given name.
func (c *Config) Bank(name string) (*Bank, error) {
	for _, b := range c.Banks {
		if b.Name == name {
			return b, nil
		}
	}
	return nil, errors.NotFoundf("bank %q", name)
}

// Validate reports all problems with the configuration at once.
func (c *Config) Validate() error {
	var err error
	if len(c.Banks) == 0 {
		err = multierror.Append(err, errors.NotValidf("config with no banks"))
	}
	seen := map[string]bool{}
	for i, b := range c.Banks {
		switch {
		case b.Name == "":
			err = multierror.Append(err, errors.NotValidf("bank %d with no name", i))
		case seen[b.Name]:
			err = multierror.Append(err, errors.NotValidf("duplicate bank %q", b.Name))
		}
		seen[b.Name] = true
		if b.Driver == "" {
			err = multierror.Append(err, errors.NotValidf("bank %q with no driver", b.Name))
		}
		if b.Size == 0 {
			err = multierror.Append(err, errors.NotValidf("bank %q size 0", b.Name))
		}
	}
	return err
}

func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	return data, errors.Trace(err)
}
