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

package models

import "time"

// RegistryValue records one registry value as it existed before mutation.
// Present distinguishes "set to empty string" from "absent".
type RegistryValue struct {
	Present bool   `json:"present"`
	Value   string `json:"value,omitempty"`
}

// HostsEntry records the hosts-file mapping for the probe domain as it
// existed before mutation.
type HostsEntry struct {
	Present bool   `json:"present"`
	IP      string `json:"ip,omitempty"`
}

// StateSnapshot is the authoritative record of pre-mutation system state.
// Exactly one snapshot exists per installation; it is captured before any
// write and re-applied on restore.
type StateSnapshot struct {
	ID         string                   `json:"id"`
	CapturedAt time.Time                `json:"captured_at"`
	Hosts      HostsEntry               `json:"hosts"`
	Registry   map[string]RegistryValue `json:"registry"`
}

// ServiceState is the lifecycle wrapper's externally observable state.
type ServiceState string

const (
	StateNotInstalled ServiceState = "not_installed"
	StateStopped      ServiceState = "stopped"
	StateStarting     ServiceState = "starting"
	StateRunning      ServiceState = "running"
	StateFailed       ServiceState = "failed"
)

func (s ServiceState) String() string {
	return string(s)
}
