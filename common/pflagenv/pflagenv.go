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
// Package pflagenv lets every command line flag be given through the
// environment as well.
package pflagenv

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/juju/errors"
	"github.com/spf13/pflag"

	"github.com/hitsmaxft/ht32flash/common/multierror"
)

// ParseFlagSet sets every flag not given on the command line from the
// environment variable named envPrefix + upper-cased flag name, with dashes
// replaced by underscores. It must be called after fs.Parse. Values that do
// not parse are reported together.
func ParseFlagSet(fs *pflag.FlagSet, envPrefix string) error {
	// pflag can't tell "set to default" from "not set", so collect all
	// flags and drop the ones that were visited as set.
	nonset := make(map[string]*pflag.Flag)
	fs.VisitAll(func(f *pflag.Flag) {
		nonset[f.Name] = f
	})
	fs.Visit(func(f *pflag.Flag) {
		delete(nonset, f.Name)
	})
	return setFromEnv(nonset, envPrefix)
}

// Parse is ParseFlagSet on pflag.CommandLine.
func Parse(envPrefix string) error {
	return ParseFlagSet(pflag.CommandLine, envPrefix)
}

func setFromEnv(nonset map[string]*pflag.Flag, envPrefix string) error {
	var names []string
	for name := range nonset {
		names = append(names, name)
	}
	sort.Strings(names)
	var err error
	for _, name := range names {
		f := nonset[name]
		envName := EnvName(name, envPrefix)
		v, ok := os.LookupEnv(envName)
		if !ok || v == "" {
			continue
		}
		// Some Values store what they parsed before failing.
		orig := f.Value.String()
		if serr := f.Value.Set(v); serr != nil {
			f.Value.Set(orig)
			err = multierror.Append(err, errors.Annotatef(serr, "%s", envName))
			continue
		}
		f.Changed = true
	}
	return err
}

// EnvName returns the environment variable consulted for flagName.
func EnvName(flagName, envPrefix string) string {
	flagName = strings.ToUpper(flagName)
	flagName = strings.Replace(flagName, "-", "_", -1)
	return fmt.Sprint(envPrefix, flagName)
}
