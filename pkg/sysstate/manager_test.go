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
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ncsid/ncsid/pkg/models"
)

type fakeRegistry struct {
	values  map[string]string
	failSet map[string]error
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{values: make(map[string]string), failSet: make(map[string]error)}
}

func (r *fakeRegistry) Get(name string) (models.RegistryValue, error) {
	value, ok := r.values[name]

	return models.RegistryValue{Present: ok, Value: value}, nil
}

func (r *fakeRegistry) Set(name, value string) error {
	if err := r.failSet[name]; err != nil {
		return err
	}

	r.values[name] = value

	return nil
}

func (r *fakeRegistry) Delete(name string) error {
	delete(r.values, name)

	return nil
}

type fakeHosts struct {
	entries map[string]string
}

func newFakeHosts() *fakeHosts {
	return &fakeHosts{entries: make(map[string]string)}
}

func (h *fakeHosts) Lookup(domain string) (models.HostsEntry, error) {
	ip, ok := h.entries[domain]

	return models.HostsEntry{Present: ok, IP: ip}, nil
}

func (h *fakeHosts) Set(domain, ip string) error {
	h.entries[domain] = ip

	return nil
}

func (h *fakeHosts) Remove(domain string) error {
	delete(h.entries, domain)

	return nil
}

type memSnapshots struct {
	snapshot *models.StateSnapshot
}

func (s *memSnapshots) Load() (*models.StateSnapshot, error) {
	if s.snapshot == nil {
		return nil, models.ErrSnapshotMissing
	}

	copied := *s.snapshot

	return &copied, nil
}

func (s *memSnapshots) Save(snapshot *models.StateSnapshot) error {
	copied := *snapshot
	s.snapshot = &copied

	return nil
}

func (s *memSnapshots) Delete() error {
	s.snapshot = nil

	return nil
}

func (s *memSnapshots) Exists() (bool, error) {
	return s.snapshot != nil, nil
}

type fixture struct {
	manager   *Manager
	registry  *fakeRegistry
	hosts     *fakeHosts
	snapshots *memSnapshots
}

func newFixture(_ *testing.T) *fixture {
	registry := newFakeRegistry()
	hosts := newFakeHosts()
	snapshots := &memSnapshots{}

	manager := NewManagerWithStores(models.StateConfig{}, registry, hosts, snapshots, nil)

	return &fixture{manager: manager, registry: registry, hosts: hosts, snapshots: snapshots}
}

func TestApply_MutatesHostsAndRegistry(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.manager.Apply(context.Background()))

	assert.Equal(t, "127.0.0.1", f.hosts.entries[models.DefaultProbeDomain])
	assert.Equal(t, "127.0.0.1", f.registry.values[regValueProbeHost])
	assert.Equal(t, models.DefaultProbePath, f.registry.values[regValueProbePath])

	exists, err := f.snapshots.Exists()
	require.NoError(t, err)
	assert.True(t, exists, "apply must leave a snapshot behind")
}

func TestApply_SnapshotCapturesOriginalState(t *testing.T) {
	f := newFixture(t)
	f.hosts.entries[models.DefaultProbeDomain] = "13.107.4.52"
	f.registry.values[regValueProbeHost] = "www.msftconnecttest.com"

	require.NoError(t, f.manager.Apply(context.Background()))

	snapshot, err := f.snapshots.Load()
	require.NoError(t, err)
	assert.NotEmpty(t, snapshot.ID)
	assert.Equal(t, models.HostsEntry{Present: true, IP: "13.107.4.52"}, snapshot.Hosts)
	assert.Equal(t, models.RegistryValue{Present: true, Value: "www.msftconnecttest.com"}, snapshot.Registry[regValueProbeHost])
	assert.Equal(t, models.RegistryValue{}, snapshot.Registry[regValueProbePath])
}

func TestApply_FirstSnapshotWins(t *testing.T) {
	f := newFixture(t)
	f.hosts.entries[models.DefaultProbeDomain] = "13.107.4.52"

	require.NoError(t, f.manager.Apply(context.Background()))

	first, err := f.snapshots.Load()
	require.NoError(t, err)

	// A second apply sees the already-mutated hosts entry; the snapshot
	// must still describe the original state.
	require.NoError(t, f.manager.Apply(context.Background()))

	second, err := f.snapshots.Load()
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "13.107.4.52", second.Hosts.IP)
}

func TestApplyThenRevert_RestoresOriginalState(t *testing.T) {
	f := newFixture(t)
	f.hosts.entries[models.DefaultProbeDomain] = "13.107.4.52"
	f.registry.values[regValueProbeHost] = "www.msftconnecttest.com"
	f.registry.values[regValueProbePath] = "/connecttest.txt"

	ctx := context.Background()

	require.NoError(t, f.manager.Apply(ctx))
	require.NoError(t, f.manager.Revert(ctx))

	assert.Equal(t, map[string]string{models.DefaultProbeDomain: "13.107.4.52"}, f.hosts.entries)
	assert.Equal(t, "www.msftconnecttest.com", f.registry.values[regValueProbeHost])
	assert.Equal(t, "/connecttest.txt", f.registry.values[regValueProbePath])

	exists, err := f.snapshots.Exists()
	require.NoError(t, err)
	assert.False(t, exists, "revert must discard the snapshot")
}

func TestRevert_RemovesValuesAbsentInSnapshot(t *testing.T) {
	f := newFixture(t)

	ctx := context.Background()

	require.NoError(t, f.manager.Apply(ctx))
	require.NoError(t, f.manager.Revert(ctx))

	assert.Empty(t, f.hosts.entries)
	assert.Empty(t, f.registry.values)
}

func TestRevert_WithoutSnapshotFails(t *testing.T) {
	f := newFixture(t)

	err := f.manager.Revert(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrSnapshotMissing)
}

func TestApply_RegistryFailureRollsBackHosts(t *testing.T) {
	f := newFixture(t)
	f.hosts.entries[models.DefaultProbeDomain] = "13.107.4.52"
	f.registry.failSet[regValueProbeHost] = errors.New("access denied")
	f.registry.failSet[regValueProbePath] = errors.New("access denied")

	err := f.manager.Apply(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrStateWrite)

	assert.Equal(t, "13.107.4.52", f.hosts.entries[models.DefaultProbeDomain],
		"hosts entry must be rolled back after a registry failure")
}

func TestStatus_ReflectsAppliedState(t *testing.T) {
	f := newFixture(t)

	ctx := context.Background()

	status, err := f.manager.Status(ctx)
	require.NoError(t, err)
	assert.False(t, status.Applied)
	assert.False(t, status.SnapshotPresent)

	require.NoError(t, f.manager.Apply(ctx))

	status, err = f.manager.Status(ctx)
	require.NoError(t, err)
	assert.True(t, status.Applied)
	assert.True(t, status.SnapshotPresent)
	assert.Equal(t, "127.0.0.1", status.Hosts.IP)

	require.NoError(t, f.manager.Revert(ctx))

	status, err = f.manager.Status(ctx)
	require.NoError(t, err)
	assert.False(t, status.Applied)
	assert.False(t, status.SnapshotPresent)
}
