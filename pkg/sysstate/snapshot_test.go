/*
 * Copyright 2025 Carver Automation Corporation.
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

package sysstate

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ncsid/ncsid/pkg/models"
)

func TestSnapshotStore_RoundTrip(t *testing.T) {
	store := NewFileSnapshotStore(filepath.Join(t.TempDir(), "ncsid"))

	exists, err := store.Exists()
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = store.Load()
	assert.ErrorIs(t, err, models.ErrSnapshotMissing)

	snapshot := &models.StateSnapshot{
		ID:         "b2c1a6de-0000-4000-8000-000000000001",
		CapturedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Hosts:      models.HostsEntry{Present: true, IP: "13.107.4.52"},
		Registry: map[string]models.RegistryValue{
			regValueProbeHost: {Present: true, Value: "www.msftconnecttest.com"},
			regValueProbePath: {},
		},
	}

	require.NoError(t, store.Save(snapshot))

	exists, err = store.Exists()
	require.NoError(t, err)
	assert.True(t, exists)

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, snapshot, loaded)

	require.NoError(t, store.Delete())

	_, err = store.Load()
	assert.ErrorIs(t, err, models.ErrSnapshotMissing)

	// Deleting twice is fine.
	require.NoError(t, store.Delete())
}
