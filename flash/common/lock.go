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
package common

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang/glog"
	"github.com/juju/errors"
	flock "github.com/theckman/go-flock"
)

// ProbeLock keeps other processes off a debug probe: the flash controller has
// a single pending-command slot, so operations must not interleave.
type ProbeLock struct {
	fl *flock.Flock
}

func probeLockName(dir string, vid, pid uint16) string {
	return filepath.Join(dir, fmt.Sprintf("ht32flash-%04x-%04x.lock", vid, pid))
}

// LockProbe takes the lock for the probe vid:pid without waiting.
func LockProbe(dir string, vid, pid uint16) (*ProbeLock, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Annotatef(err, "failed to create lock dir")
	}
	name := probeLockName(dir, vid, pid)
	fl := flock.NewFlock(name)
	locked, err := fl.TryLock()
	if err != nil {
		return nil, errors.Annotatef(err, "failed to lock %s", name)
	}
	if !locked {
		return nil, errors.Errorf("probe %04x:%04x is in use by another process (%s)", vid, pid, name)
	}
	glog.V(1).Infof("Locked %s", name)
	return &ProbeLock{fl: fl}, nil
}

func (pl *ProbeLock) Unlock() error {
	glog.V(1).Infof("Unlocking %s", pl.fl.Path())
	return errors.Trace(pl.fl.Unlock())
}
