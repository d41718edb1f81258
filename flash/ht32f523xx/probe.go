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

	"github.com/golang/glog"

	"github.com/hitsmaxft/ht32flash/flash/nor"
)

// Probe lays out the bank as uniform pages. The erased state of every page
// is unknown and every page is assumed protected until ProtectCheck says
// otherwise. A trailing partial page is ignored.
func (d *Driver) Probe(ctx context.Context, b *nor.Bank) error {
	n := int(b.Size / PageSize)
	sectors := make([]nor.Sector, n)
	for i := range sectors {
		sectors[i] = nor.Sector{
			Offset:    uint32(i) * PageSize,
			Size:      PageSize,
			Erased:    nor.ErasedUnknown,
			Protected: true,
		}
	}
	b.Base = 0
	b.Sectors = sectors
	glog.V(1).Infof("%s: %d pages of %d bytes", b.Name, n, PageSize)
	return nil
}
