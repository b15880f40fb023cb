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

package netcheck

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ncsid/ncsid/pkg/models"
)

var errProbeFailed = errors.New("probe failed")

// fixedProber succeeds or fails unconditionally.
type fixedProber struct {
	fail bool
}

func (p *fixedProber) Probe(_ context.Context, _ models.ProbeTarget) error {
	if p.fail {
		return errProbeFailed
	}

	return nil
}

// slowProber blocks until its context expires.
var slowProber = ProberFunc(func(ctx context.Context, _ models.ProbeTarget) error {
	<-ctx.Done()

	return ctx.Err()
})

func testConfig() models.CheckerConfig {
	return models.CheckerConfig{
		Methods:      []models.ProbeMethod{models.MethodICMP, models.MethodDNS, models.MethodHTTP},
		ICMPTargets:  []string{"192.0.2.1", "192.0.2.2", "192.0.2.3"},
		DNSTargets:   []models.DNSTarget{{Hostname: "a.example"}, {Hostname: "b.example"}},
		HTTPTargets:  []string{"http://a.example/gen204", "http://b.example/gen204"},
		ProbeTimeout: models.Duration(100 * time.Millisecond),
	}
}

func TestCheck_AnyOneMethodSucceeds(t *testing.T) {
	// Every proper subset of failing methods still yields an online
	// verdict; only all-fail is offline.
	tests := []struct {
		name    string
		failing map[models.ProbeMethod]bool
		online  bool
	}{
		{"all succeed", map[models.ProbeMethod]bool{}, true},
		{"icmp fails", map[models.ProbeMethod]bool{models.MethodICMP: true}, true},
		{"dns fails", map[models.ProbeMethod]bool{models.MethodDNS: true}, true},
		{"http fails", map[models.ProbeMethod]bool{models.MethodHTTP: true}, true},
		{"icmp+dns fail", map[models.ProbeMethod]bool{models.MethodICMP: true, models.MethodDNS: true}, true},
		{"icmp+http fail", map[models.ProbeMethod]bool{models.MethodICMP: true, models.MethodHTTP: true}, true},
		{"dns+http fail", map[models.ProbeMethod]bool{models.MethodDNS: true, models.MethodHTTP: true}, true},
		{"all fail", map[models.ProbeMethod]bool{models.MethodICMP: true, models.MethodDNS: true, models.MethodHTTP: true}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			probers := map[models.ProbeMethod]Prober{
				models.MethodICMP: &fixedProber{fail: tt.failing[models.MethodICMP]},
				models.MethodDNS:  &fixedProber{fail: tt.failing[models.MethodDNS]},
				models.MethodHTTP: &fixedProber{fail: tt.failing[models.MethodHTTP]},
			}

			checker := NewCheckerWithProbers(testConfig(), probers, nil)
			verdict := checker.Check(context.Background())

			assert.Equal(t, tt.online, verdict.Online)
			assert.Len(t, verdict.Methods, 3)
		})
	}
}

func TestCheck_MethodDetail(t *testing.T) {
	probers := map[models.ProbeMethod]Prober{
		models.MethodICMP: &fixedProber{fail: true},
		models.MethodDNS:  &fixedProber{},
		models.MethodHTTP: &fixedProber{},
	}

	checker := NewCheckerWithProbers(testConfig(), probers, nil)
	verdict := checker.Check(context.Background())

	require.True(t, verdict.Online)
	assert.False(t, verdict.Methods[models.MethodICMP].Success)
	assert.NotEmpty(t, verdict.Methods[models.MethodICMP].Error)
	assert.True(t, verdict.Methods[models.MethodDNS].Success)
	assert.Empty(t, verdict.Methods[models.MethodDNS].Error)
	assert.NotEmpty(t, verdict.Methods[models.MethodDNS].Target)
	assert.False(t, verdict.CheckedAt.IsZero())
}

func TestCheck_TimeoutsFoldIntoVerdict(t *testing.T) {
	// Hanging probes never raise an error; the check completes within
	// the per-probe timeout because methods run concurrently.
	probers := map[models.ProbeMethod]Prober{
		models.MethodICMP: slowProber,
		models.MethodDNS:  slowProber,
		models.MethodHTTP: slowProber,
	}

	checker := NewCheckerWithProbers(testConfig(), probers, nil)

	start := time.Now()
	verdict := checker.Check(context.Background())
	elapsed := time.Since(start)

	assert.False(t, verdict.Online)
	// Well under the sequential worst case of 7 targets x 100ms.
	assert.Less(t, elapsed, 500*time.Millisecond)
}

func TestCheck_DisabledMethodNotConsulted(t *testing.T) {
	cfg := testConfig()
	cfg.Methods = []models.ProbeMethod{models.MethodDNS}

	probers := map[models.ProbeMethod]Prober{
		models.MethodICMP: &fixedProber{},
		models.MethodDNS:  &fixedProber{fail: true},
		models.MethodHTTP: &fixedProber{},
	}

	checker := NewCheckerWithProbers(cfg, probers, nil)
	verdict := checker.Check(context.Background())

	assert.False(t, verdict.Online)
	assert.Len(t, verdict.Methods, 1)
	assert.Contains(t, verdict.Methods, models.MethodDNS)
}

func TestCheck_NoTargetsMeansOffline(t *testing.T) {
	cfg := models.CheckerConfig{
		Methods:      []models.ProbeMethod{models.MethodHTTP},
		ProbeTimeout: models.Duration(50 * time.Millisecond),
	}

	checker := NewCheckerWithProbers(cfg, map[models.ProbeMethod]Prober{
		models.MethodHTTP: &fixedProber{},
	}, nil)

	verdict := checker.Check(context.Background())
	assert.False(t, verdict.Online)
	assert.Empty(t, verdict.Methods)
}

func TestHTTPProber(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/gen204":
			w.WriteHeader(http.StatusNoContent)
		case "/portal":
			http.Redirect(w, r, "http://portal.example/login", http.StatusFound)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	prober := NewHTTPProber()

	target := models.ProbeTarget{Method: models.MethodHTTP, URL: srv.URL + "/gen204"}
	assert.NoError(t, prober.Probe(context.Background(), target))

	target.URL = srv.URL + "/portal"
	assert.Error(t, prober.Probe(context.Background(), target), "captive portal redirect must not count as online")

	target.URL = srv.URL + "/boom"
	assert.Error(t, prober.Probe(context.Background(), target))
}

func TestDNSProber_ExpectedIPMismatch(t *testing.T) {
	prober := &DNSProber{}

	target := models.ProbeTarget{
		Method:     models.MethodDNS,
		Host:       "localhost",
		ExpectedIP: "192.0.2.55",
	}

	err := prober.Probe(context.Background(), target)
	require.Error(t, err)
	assert.ErrorIs(t, err, errUnexpectedDNSAnswer)
}
