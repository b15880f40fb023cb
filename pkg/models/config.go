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

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ncsid/ncsid/pkg/logger"
)

// Duration is a time.Duration that unmarshals from either a duration
// string ("2s") or a number of nanoseconds.
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		// parse numeric as nanoseconds
		*d = Duration(time.Duration(value))
		return nil
	case string:
		dur, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration: %w", err)
		}

		*d = Duration(dur)

		return nil
	default:
		return errInvalidDuration
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

const (
	// DefaultProbeTimeout bounds a single probe attempt.
	DefaultProbeTimeout = 2 * time.Second
	// DefaultCacheInterval is how long one verdict is served before a
	// recompute is triggered.
	DefaultCacheInterval = 15 * time.Second
	// DefaultListenPort is the port Windows issues NCSI probes against.
	DefaultListenPort = 80
	// DefaultProbeDomain is the hostname Windows contacts for its
	// connectivity checks.
	DefaultProbeDomain = "www.msftconnecttest.com"
	// DefaultProbePath is the probe path written to the NLA registry key.
	DefaultProbePath = "/ncsi.txt"
)

// CheckerConfig configures the reachability checker.
type CheckerConfig struct {
	// Methods lists the enabled probe methods. Empty enables all methods
	// that have targets configured.
	Methods      []ProbeMethod `json:"methods,omitempty"`
	ICMPTargets  []string      `json:"icmp_targets,omitempty"`
	DNSTargets   []DNSTarget   `json:"dns_targets,omitempty"`
	HTTPTargets  []string      `json:"http_targets,omitempty"`
	HTTPSTargets []string      `json:"https_targets,omitempty"`
	ProbeTimeout Duration      `json:"probe_timeout,omitempty"`
	// CacheInterval is how long a verdict stays fresh.
	CacheInterval Duration `json:"cache_interval,omitempty"`
}

// DNSTarget is a hostname to resolve, optionally pinned to an expected
// answer.
type DNSTarget struct {
	Hostname   string `json:"hostname"`
	ExpectedIP string `json:"expected_ip,omitempty"`
}

// ResponderConfig configures the probe responder HTTP listener.
type ResponderConfig struct {
	// Port is bound on all interfaces. Binding a single local IP is a
	// known failure mode when interfaces change.
	Port int `json:"port,omitempty"`
	// ConnectTestAliases are additional paths answered like
	// /connecttest.txt.
	ConnectTestAliases []string `json:"connecttest_aliases,omitempty"`
	// RedirectContentPath points at the HTML payload served on /redirect.
	// Empty uses the embedded default.
	RedirectContentPath string   `json:"redirect_content_path,omitempty"`
	ShutdownTimeout     Duration `json:"shutdown_timeout,omitempty"`
}

// StateConfig configures the system state mutation manager.
type StateConfig struct {
	ProbeDomain string `json:"probe_domain,omitempty"`
	ProbePath   string `json:"probe_path,omitempty"`
	// ProbeHost is the host written to the registry probe configuration.
	// Empty uses 127.0.0.1, where the local responder listens.
	ProbeHost string `json:"probe_host,omitempty"`
	HostsPath string `json:"hosts_path,omitempty"`
	BackupDir string `json:"backup_dir,omitempty"`
}

// ResolverConfig is the top-level service configuration.
type ResolverConfig struct {
	Checker   CheckerConfig   `json:"checker"`
	Responder ResponderConfig `json:"responder"`
	State     StateConfig     `json:"state"`
	Logging   *logger.Config  `json:"logging,omitempty"`
}

// Validate implements config.Validator.
func (c *ResolverConfig) Validate() error {
	if c.Responder.Port < 0 || c.Responder.Port > 65535 {
		return fmt.Errorf("%w: responder port %d out of range", ErrConfigInvalid, c.Responder.Port)
	}

	for _, m := range c.Checker.Methods {
		switch m {
		case MethodICMP, MethodDNS, MethodHTTP, MethodHTTPS:
		default:
			return fmt.Errorf("%w: unknown probe method %q", ErrConfigInvalid, m)
		}
	}

	for _, t := range c.Checker.DNSTargets {
		if t.Hostname == "" {
			return fmt.Errorf("%w: dns target without hostname", ErrConfigInvalid)
		}
	}

	if c.Checker.ProbeTimeout < 0 || c.Checker.CacheInterval < 0 {
		return fmt.Errorf("%w: negative interval", ErrConfigInvalid)
	}

	return nil
}

// Normalize fills zero values with defaults. It is called once after load;
// target lists are immutable afterwards.
func (c *ResolverConfig) Normalize() {
	if c.Responder.Port == 0 {
		c.Responder.Port = DefaultListenPort
	}

	if len(c.Responder.ConnectTestAliases) == 0 {
		c.Responder.ConnectTestAliases = []string{"/ncsi.txt"}
	}

	if c.Checker.ProbeTimeout == 0 {
		c.Checker.ProbeTimeout = Duration(DefaultProbeTimeout)
	}

	if c.Checker.CacheInterval == 0 {
		c.Checker.CacheInterval = Duration(DefaultCacheInterval)
	}

	if len(c.Checker.ICMPTargets) == 0 {
		c.Checker.ICMPTargets = []string{"8.8.8.8", "1.1.1.1", "4.2.2.1"}
	}

	if len(c.Checker.DNSTargets) == 0 {
		c.Checker.DNSTargets = []DNSTarget{
			{Hostname: "www.google.com"},
			{Hostname: "www.cloudflare.com"},
		}
	}

	if len(c.Checker.HTTPTargets) == 0 {
		c.Checker.HTTPTargets = []string{
			"http://www.gstatic.com/generate_204",
			"http://connectivitycheck.platform.hicloud.com/generate_204",
		}
	}

	if len(c.Checker.Methods) == 0 {
		c.Checker.Methods = []ProbeMethod{MethodICMP, MethodDNS, MethodHTTP}
		if len(c.Checker.HTTPSTargets) > 0 {
			c.Checker.Methods = append(c.Checker.Methods, MethodHTTPS)
		}
	}

	if c.State.ProbeDomain == "" {
		c.State.ProbeDomain = DefaultProbeDomain
	}

	if c.State.ProbePath == "" {
		c.State.ProbePath = DefaultProbePath
	}

	if c.State.ProbeHost == "" {
		c.State.ProbeHost = "127.0.0.1"
	}
}
