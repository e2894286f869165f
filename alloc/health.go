/*
 * Copyright 2025 SREDiag Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package alloc

import (
	"fmt"

	"github.com/heptiolabs/healthcheck"
)

// RegionCheck returns a liveness probe for a shared region, suitable for
// registering on a healthcheck handler. It fails once the handle is closed,
// the backing object disappears, or the holder count drops to zero.
func RegionCheck(r *Region) healthcheck.Check {
	return func() error {
		if r == nil || r.closed.Load() {
			return ErrRegionClosed
		}
		if ref := r.RefCount(); ref == 0 {
			return fmt.Errorf("region %q has no holders", r.name)
		}
		if !pathExists(r.mapping.Path) {
			return fmt.Errorf("region %q backing object %s is gone", r.name, r.mapping.Path)
		}
		return nil
	}
}
