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
	"bufio"
	"context"
	"os"
	"strings"

	"github.com/juju/errors"
	shellwords "github.com/mattn/go-shellwords"

	"github.com/hitsmaxft/ht32flash/cli/ourutil"
)

// runScript runs a file of commands in a single probe session. Blank lines
// and lines starting with # are skipped. The first failing command stops the
// script.
func runScript(ctx context.Context, e *env, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return errors.Trace(err)
	}
	defer f.Close()
	return errors.Annotatef(runScriptLines(ctx, e, bufio.NewScanner(f)), "%s", args[0])
}

func runScriptLines(ctx context.Context, e *env, scanner *bufio.Scanner) error {
	p := shellwords.NewParser()
	p.ParseEnv = true
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words, err := p.Parse(line)
		if err != nil {
			return errors.Annotatef(err, "line %d", lineNo)
		}
		if len(words) == 0 {
			continue
		}
		if words[0] == "run-script" {
			return errors.NotSupportedf("line %d: nested run-script", lineNo)
		}
		ourutil.Reportf("> %s", line)
		if err := runCommand(ctx, e, words); err != nil {
			return errors.Annotatef(err, "line %d", lineNo)
		}
	}
	return errors.Trace(scanner.Err())
}
