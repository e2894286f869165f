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
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/heptiolabs/healthcheck"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegionCheck(t *testing.T) {
	skipWithoutShm(t)
	r, err := CreateRegion("shmalloc-test-health", 4096)
	require.NoError(t, err)

	check := RegionCheck(r)
	assert.NoError(t, check())

	require.NoError(t, r.Close())
	assert.ErrorIs(t, check(), ErrRegionClosed)

	assert.ErrorIs(t, RegionCheck(nil)(), ErrRegionClosed)
}

func TestRegionCheckOnHandler(t *testing.T) {
	skipWithoutShm(t)
	r, err := CreateRegion("shmalloc-test-health-http", 4096)
	require.NoError(t, err)
	defer func() { require.NoError(t, r.Close()) }()

	health := healthcheck.NewHandler()
	health.AddLivenessCheck("shm-region", RegionCheck(r))

	req := httptest.NewRequest(http.MethodGet, "/live", nil)
	rw := httptest.NewRecorder()
	health.ServeHTTP(rw, req)
	assert.Equal(t, http.StatusOK, rw.Code)
}
