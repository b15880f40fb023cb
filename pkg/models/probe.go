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

// Package models provides data models shared across the NCSI resolver services.
package models

import "time"

// ProbeMethod identifies one of the independent reachability check methods.
type ProbeMethod string

const (
	MethodICMP  ProbeMethod = "icmp"
	MethodDNS   ProbeMethod = "dns"
	MethodHTTP  ProbeMethod = "http"
	MethodHTTPS ProbeMethod = "https"
)

// ProbeTarget represents a single reachability probe destination.
// A target is immutable once loaded from configuration.
type ProbeTarget struct {
	Method ProbeMethod `json:"method"`
	// Host is the IP or hostname for ICMP and DNS targets.
	Host string `json:"host,omitempty"`
	// URL is the fetch target for HTTP and HTTPS probes.
	URL string `json:"url,omitempty"`
	// ExpectedIP optionally pins a DNS target to a known answer.
	ExpectedIP string `json:"expected_ip,omitempty"`
	// Timeout bounds the individual probe. Zero means the checker default.
	Timeout Duration `json:"timeout,omitempty"`
}

// MethodResult is the outcome of one reachability method for a single
// verdict computation.
type MethodResult struct {
	Method  ProbeMethod   `json:"method"`
	Success bool          `json:"success"`
	Target  string        `json:"target,omitempty"` // target that answered, or last one tried
	Latency time.Duration `json:"latency,omitempty"`
	Error   string        `json:"error,omitempty"`
}

// Verdict is the result of one reachability evaluation window. It is
// ephemeral: recomputed per request or served from a short-lived cache,
// never persisted.
type Verdict struct {
	Online    bool                          `json:"online"`
	Methods   map[ProbeMethod]*MethodResult `json:"methods"`
	CheckedAt time.Time                     `json:"checked_at"`
}
