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

// Package sysstate redirects the OS connectivity probes to the local
// responder by rewriting the hosts file and the NLA probe registry
// values. Every mutation is preceded by a snapshot of the original
// state so the machine can always be put back exactly as it was.
package sysstate

import (
	"github.com/ncsid/ncsid/pkg/models"
)

// Registry value names under the NLA Internet probe key.
const (
	regValueProbeHost = "ActiveWebProbeHost"
	regValueProbePath = "ActiveWebProbePath"
)

// RegistryStore reads and writes string values of the NLA Internet probe
// key. The non-Windows implementation is a stub that reports
// unsupported.
type RegistryStore interface {
	// Get reports the value and whether it is present. Absence is not an
	// error; it becomes Present=false in the snapshot.
	Get(name string) (models.RegistryValue, error)
	Set(name, value string) error
	// Delete removes the value. Deleting an absent value is a no-op.
	Delete(name string) error
}

// HostsStore manages the single hosts-file mapping for the probe domain.
type HostsStore interface {
	// Lookup reports the current mapping for the domain, if any.
	Lookup(domain string) (models.HostsEntry, error)
	// Set maps the domain to the given IP, replacing any existing
	// mapping for it.
	Set(domain, ip string) error
	// Remove drops every mapping for the domain. Removing an absent
	// mapping is a no-op.
	Remove(domain string) error
}

// SnapshotStore persists the pre-mutation state snapshot.
type SnapshotStore interface {
	// Load returns the stored snapshot, or models.ErrSnapshotMissing
	// when none exists.
	Load() (*models.StateSnapshot, error)
	Save(snapshot *models.StateSnapshot) error
	Delete() error
	Exists() (bool, error)
}
