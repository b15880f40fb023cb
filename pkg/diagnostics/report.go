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

package diagnostics

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/ncsid/ncsid/pkg/models"
)

// InterfaceInfo is one network interface as seen at diagnosis time.
type InterfaceInfo struct {
	Name  string   `json:"name"`
	MTU   int      `json:"mtu"`
	Up    bool     `json:"up"`
	Addrs []string `json:"addrs,omitempty"`
}

// ServiceProbe is the result of probing the local responder the way the
// OS would.
type ServiceProbe struct {
	Reachable  bool   `json:"reachable"`
	StatusCode int    `json:"status_code,omitempty"`
	BodyOK     bool   `json:"body_ok"`
	Error      string `json:"error,omitempty"`
}

// Report bundles everything the diagnose command collects.
type Report struct {
	GeneratedAt time.Time       `json:"generated_at"`
	Hostname    string          `json:"hostname"`
	Platform    string          `json:"platform"`
	Verdict     models.Verdict  `json:"verdict"`
	Service     ServiceProbe    `json:"service"`
	Interfaces  []InterfaceInfo `json:"interfaces"`
}

// WriteText renders the report for a terminal.
func (r *Report) WriteText(w io.Writer) error {
	fmt.Fprintf(w, "NCSI diagnostics %s\n", r.GeneratedAt.Format(time.RFC1123))
	fmt.Fprintf(w, "Host: %s (%s)\n\n", r.Hostname, r.Platform)

	overall := "OFFLINE"
	if r.Verdict.Online {
		overall = "ONLINE"
	}

	fmt.Fprintf(w, "Connectivity: %s\n", overall)

	methods := make([]string, 0, len(r.Verdict.Methods))
	for method := range r.Verdict.Methods {
		methods = append(methods, string(method))
	}

	sort.Strings(methods)

	for _, method := range methods {
		result := r.Verdict.Methods[models.ProbeMethod(method)]

		if result.Success {
			fmt.Fprintf(w, "  %-6s ok     %s (%s)\n", method, result.Target, result.Latency.Round(time.Millisecond))

			continue
		}

		fmt.Fprintf(w, "  %-6s failed %s: %s\n", method, result.Target, result.Error)
	}

	fmt.Fprintf(w, "\nLocal responder: ")

	switch {
	case !r.Service.Reachable:
		fmt.Fprintf(w, "unreachable (%s)\n", r.Service.Error)
	case r.Service.BodyOK:
		fmt.Fprintf(w, "ok (status %d)\n", r.Service.StatusCode)
	default:
		fmt.Fprintf(w, "answering but wrong payload (status %d)\n", r.Service.StatusCode)
	}

	fmt.Fprintf(w, "\nInterfaces:\n")

	for _, iface := range r.Interfaces {
		state := "down"
		if iface.Up {
			state = "up"
		}

		fmt.Fprintf(w, "  %-16s %-4s mtu %d", iface.Name, state, iface.MTU)

		for _, addr := range iface.Addrs {
			fmt.Fprintf(w, " %s", addr)
		}

		fmt.Fprintln(w)
	}

	return nil
}
