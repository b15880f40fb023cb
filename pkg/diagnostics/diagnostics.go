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

// Package diagnostics collects a point-in-time picture of why the
// connectivity indicator is in the state it is: the raw per-method
// reachability results, whether the local responder answers the way the
// OS expects, and the interface inventory.
package diagnostics

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shirou/gopsutil/v3/host"
	gopsnet "github.com/shirou/gopsutil/v3/net"

	"github.com/ncsid/ncsid/pkg/logger"
	"github.com/ncsid/ncsid/pkg/models"
	"github.com/ncsid/ncsid/pkg/netcheck"
	"github.com/ncsid/ncsid/pkg/responder"
)

const serviceProbeTimeout = 5 * time.Second

// Collector runs the diagnostic suite.
type Collector struct {
	cfg    models.CheckerConfig
	port   int
	logger logger.Logger

	// client overrides the service probe HTTP client, used by tests.
	client *http.Client
	// interfaces overrides the interface inventory, used by tests.
	interfaces func() (gopsnet.InterfaceStatList, error)
}

// NewCollector builds a collector probing the responder on port.
func NewCollector(cfg models.CheckerConfig, port int, log logger.Logger) *Collector {
	return &Collector{
		cfg:        cfg,
		port:       port,
		logger:     log,
		client:     &http.Client{Timeout: serviceProbeTimeout},
		interfaces: gopsnet.Interfaces,
	}
}

// Collect runs every diagnostic. Failures of individual collectors are
// folded into the report rather than aborting it; half a diagnosis is
// more useful than none when the network is broken.
func (c *Collector) Collect(ctx context.Context) *Report {
	report := &Report{GeneratedAt: time.Now()}

	if info, err := host.InfoWithContext(ctx); err == nil {
		report.Hostname = info.Hostname
		report.Platform = fmt.Sprintf("%s %s (%s)", info.Platform, info.PlatformVersion, info.KernelArch)
	} else if c.logger != nil {
		c.logger.Warn().Err(err).Msg("Host info unavailable")
	}

	checker := netcheck.NewChecker(c.cfg, c.logger)
	report.Verdict = checker.Check(ctx)

	report.Service = c.probeService(ctx)

	ifaces, err := c.interfaces()
	if err != nil {
		if c.logger != nil {
			c.logger.Warn().Err(err).Msg("Interface inventory unavailable")
		}
	} else {
		for _, iface := range ifaces {
			info := InterfaceInfo{
				Name: iface.Name,
				MTU:  iface.MTU,
				Up:   hasFlag(iface.Flags, "up"),
			}

			for _, addr := range iface.Addrs {
				info.Addrs = append(info.Addrs, addr.Addr)
			}

			report.Interfaces = append(report.Interfaces, info)
		}
	}

	return report
}

// probeService sends the request the redirected OS probe would send and
// checks the answer byte for byte.
func (c *Collector) probeService(ctx context.Context) ServiceProbe {
	url := fmt.Sprintf("http://127.0.0.1:%d/connecttest.txt", c.port)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return ServiceProbe{Error: err.Error()}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return ServiceProbe{Error: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1024))
	if err != nil {
		return ServiceProbe{Reachable: true, StatusCode: resp.StatusCode, Error: err.Error()}
	}

	return ServiceProbe{
		Reachable:  true,
		StatusCode: resp.StatusCode,
		BodyOK:     resp.StatusCode == http.StatusOK && string(body) == responder.ConnectTestBody,
	}
}

func hasFlag(flags []string, want string) bool {
	for _, flag := range flags {
		if flag == want {
			return true
		}
	}

	return false
}
