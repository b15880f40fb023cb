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
	"bytes"
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	gopsnet "github.com/shirou/gopsutil/v3/net"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ncsid/ncsid/pkg/models"
	"github.com/ncsid/ncsid/pkg/responder"
)

func testCollector(t *testing.T, port int) *Collector {
	t.Helper()

	// No targets configured, so the verdict is offline without touching
	// the network.
	c := NewCollector(models.CheckerConfig{
		Methods:      []models.ProbeMethod{models.MethodHTTP},
		ProbeTimeout: models.Duration(100 * time.Millisecond),
	}, port, nil)

	c.interfaces = func() (gopsnet.InterfaceStatList, error) {
		return gopsnet.InterfaceStatList{
			{
				Name:  "eth0",
				MTU:   1500,
				Flags: []string{"up", "broadcast"},
				Addrs: gopsnet.InterfaceAddrList{{Addr: "192.168.1.5/24"}},
			},
			{Name: "wlan0", MTU: 1500, Flags: []string{"broadcast"}},
		}, nil
	}

	return c
}

func localPort(t *testing.T, srv *httptest.Server) int {
	t.Helper()

	_, portStr, err := net.SplitHostPort(srv.Listener.Addr().String())
	require.NoError(t, err)

	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	return port
}

func TestCollect_ServiceAnsweringCorrectly(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(responder.ConnectTestBody))
	}))
	defer srv.Close()

	c := testCollector(t, localPort(t, srv))
	report := c.Collect(context.Background())

	assert.True(t, report.Service.Reachable)
	assert.True(t, report.Service.BodyOK)
	assert.Equal(t, http.StatusOK, report.Service.StatusCode)
}

func TestCollect_ServiceWrongPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("<html>captive portal</html>"))
	}))
	defer srv.Close()

	c := testCollector(t, localPort(t, srv))
	report := c.Collect(context.Background())

	assert.True(t, report.Service.Reachable)
	assert.False(t, report.Service.BodyOK)
}

func TestCollect_ServiceDown(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	port := listener.Addr().(*net.TCPAddr).Port
	require.NoError(t, listener.Close())

	c := testCollector(t, port)
	report := c.Collect(context.Background())

	assert.False(t, report.Service.Reachable)
	assert.NotEmpty(t, report.Service.Error)
}

func TestCollect_InterfaceInventory(t *testing.T) {
	c := testCollector(t, 1)
	report := c.Collect(context.Background())

	require.Len(t, report.Interfaces, 2)
	assert.Equal(t, "eth0", report.Interfaces[0].Name)
	assert.True(t, report.Interfaces[0].Up)
	assert.Equal(t, []string{"192.168.1.5/24"}, report.Interfaces[0].Addrs)
	assert.False(t, report.Interfaces[1].Up)
}

func TestReport_WriteText(t *testing.T) {
	report := &Report{
		GeneratedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Hostname:    "testhost",
		Platform:    "Microsoft Windows 11 (x86_64)",
		Verdict: models.Verdict{
			Online: true,
			Methods: map[models.ProbeMethod]*models.MethodResult{
				models.MethodICMP: {Method: models.MethodICMP, Success: true, Target: "8.8.8.8", Latency: 12 * time.Millisecond},
				models.MethodDNS:  {Method: models.MethodDNS, Target: "www.google.com", Error: "lookup timed out"},
			},
			CheckedAt: time.Now(),
		},
		Service: ServiceProbe{Reachable: true, StatusCode: 200, BodyOK: true},
		Interfaces: []InterfaceInfo{
			{Name: "eth0", MTU: 1500, Up: true, Addrs: []string{"192.168.1.5/24"}},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, report.WriteText(&buf))

	out := buf.String()
	assert.Contains(t, out, "Connectivity: ONLINE")
	assert.Contains(t, out, "icmp")
	assert.Contains(t, out, "8.8.8.8")
	assert.Contains(t, out, "lookup timed out")
	assert.Contains(t, out, "ok (status 200)")
	assert.Contains(t, out, "eth0")
}
