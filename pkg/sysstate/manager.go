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
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ncsid/ncsid/pkg/logger"
	"github.com/ncsid/ncsid/pkg/models"
)

const loopbackIP = "127.0.0.1"

// Status reports whether the probe redirection is currently in effect.
type Status struct {
	Applied         bool                            `json:"applied"`
	SnapshotPresent bool                            `json:"snapshot_present"`
	Hosts           models.HostsEntry               `json:"hosts"`
	Registry        map[string]models.RegistryValue `json:"registry"`
}

// Manager owns the two mutations that point the OS probes at the local
// responder. The ordering contract is snapshot first, mutate second: the
// original state is on disk before anything changes, and the snapshot is
// never overwritten while it exists, so repeated applies cannot capture
// already-mutated state as the baseline.
type Manager struct {
	cfg       models.StateConfig
	registry  RegistryStore
	hosts     HostsStore
	snapshots SnapshotStore
	logger    logger.Logger

	mu sync.Mutex
}

// NewManager wires the platform stores for cfg. Empty cfg fields fall
// back to the stock OS probe configuration.
func NewManager(cfg models.StateConfig, log logger.Logger) *Manager {
	return NewManagerWithStores(cfg,
		NewRegistryStore(),
		NewFileHostsStore(cfg.HostsPath),
		NewFileSnapshotStore(cfg.BackupDir),
		log)
}

// NewManagerWithStores injects explicit stores, used by tests.
func NewManagerWithStores(cfg models.StateConfig, reg RegistryStore, hosts HostsStore, snaps SnapshotStore, log logger.Logger) *Manager {
	if cfg.ProbeDomain == "" {
		cfg.ProbeDomain = models.DefaultProbeDomain
	}

	if cfg.ProbePath == "" {
		cfg.ProbePath = models.DefaultProbePath
	}

	if cfg.ProbeHost == "" {
		cfg.ProbeHost = loopbackIP
	}

	return &Manager{
		cfg:       cfg,
		registry:  reg,
		hosts:     hosts,
		snapshots: snaps,
		logger:    log,
	}
}

// Apply redirects the OS probes to the local responder. It is
// idempotent; a second apply rewrites the same values and leaves the
// original snapshot untouched.
func (m *Manager) Apply(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ensureSnapshot(); err != nil {
		return err
	}

	// Mutations roll back on partial failure so the system is never left
	// half-redirected.
	var undo []func() error

	rollback := func() {
		for i := len(undo) - 1; i >= 0; i-- {
			if err := undo[i](); err != nil && m.logger != nil {
				m.logger.Error().Err(err).Msg("Rollback step failed")
			}
		}
	}

	snapshot, err := m.snapshots.Load()
	if err != nil {
		return err
	}

	if err := m.hosts.Set(m.cfg.ProbeDomain, loopbackIP); err != nil {
		return fmt.Errorf("%w: %v", models.ErrStateWrite, err)
	}

	undo = append(undo, func() error { return m.restoreHosts(snapshot) })

	writes := map[string]string{
		regValueProbeHost: m.cfg.ProbeHost,
		regValueProbePath: m.cfg.ProbePath,
	}

	for name, value := range writes {
		if err := m.registry.Set(name, value); err != nil {
			rollback()

			return fmt.Errorf("%w: %v", models.ErrStateWrite, err)
		}

		undo = append(undo, func() error { return m.restoreRegistryValue(name, snapshot) })
	}

	if m.logger != nil {
		m.logger.Info().
			Str("domain", m.cfg.ProbeDomain).
			Str("probe_host", m.cfg.ProbeHost).
			Str("probe_path", m.cfg.ProbePath).
			Msg("Probe redirection applied")
	}

	return nil
}

// Revert restores the hosts file and registry exactly as snapshotted,
// then discards the snapshot. Reverting without a snapshot is an error:
// guessing at the original state risks wedging the machine's
// connectivity indicator.
func (m *Manager) Revert(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot, err := m.snapshots.Load()
	if err != nil {
		return err
	}

	if err := m.restoreHosts(snapshot); err != nil {
		return fmt.Errorf("%w: %v", models.ErrStateWrite, err)
	}

	for _, name := range []string{regValueProbeHost, regValueProbePath} {
		if err := m.restoreRegistryValue(name, snapshot); err != nil {
			return fmt.Errorf("%w: %v", models.ErrStateWrite, err)
		}
	}

	if err := m.snapshots.Delete(); err != nil {
		return err
	}

	if m.logger != nil {
		m.logger.Info().
			Str("snapshot_id", snapshot.ID).
			Msg("Probe redirection reverted")
	}

	return nil
}

// Status reports the live state without mutating anything.
func (m *Manager) Status(_ context.Context) (Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	status := Status{Registry: make(map[string]models.RegistryValue)}

	present, err := m.snapshots.Exists()
	if err != nil {
		return status, err
	}

	status.SnapshotPresent = present

	status.Hosts, err = m.hosts.Lookup(m.cfg.ProbeDomain)
	if err != nil {
		return status, err
	}

	for _, name := range []string{regValueProbeHost, regValueProbePath} {
		value, err := m.registry.Get(name)
		if err != nil {
			return status, err
		}

		status.Registry[name] = value
	}

	status.Applied = status.Hosts.Present && status.Hosts.IP == loopbackIP &&
		status.Registry[regValueProbeHost].Value == m.cfg.ProbeHost &&
		status.Registry[regValueProbePath].Value == m.cfg.ProbePath

	return status, nil
}

// ensureSnapshot captures the pre-mutation state once. An existing
// snapshot wins; it is the only record of the original configuration.
func (m *Manager) ensureSnapshot() error {
	exists, err := m.snapshots.Exists()
	if err != nil {
		return err
	}

	if exists {
		return nil
	}

	hosts, err := m.hosts.Lookup(m.cfg.ProbeDomain)
	if err != nil {
		return err
	}

	snapshot := &models.StateSnapshot{
		ID:         uuid.NewString(),
		CapturedAt: time.Now(),
		Hosts:      hosts,
		Registry:   make(map[string]models.RegistryValue),
	}

	for _, name := range []string{regValueProbeHost, regValueProbePath} {
		value, err := m.registry.Get(name)
		if err != nil {
			return err
		}

		snapshot.Registry[name] = value
	}

	if err := m.snapshots.Save(snapshot); err != nil {
		return err
	}

	if m.logger != nil {
		m.logger.Info().
			Str("snapshot_id", snapshot.ID).
			Msg("Captured pre-mutation state snapshot")
	}

	return nil
}

func (m *Manager) restoreHosts(snapshot *models.StateSnapshot) error {
	if snapshot.Hosts.Present {
		return m.hosts.Set(m.cfg.ProbeDomain, snapshot.Hosts.IP)
	}

	return m.hosts.Remove(m.cfg.ProbeDomain)
}

func (m *Manager) restoreRegistryValue(name string, snapshot *models.StateSnapshot) error {
	original := snapshot.Registry[name]

	if original.Present {
		return m.registry.Set(name, original.Value)
	}

	return m.registry.Delete(name)
}
