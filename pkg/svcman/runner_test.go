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

package svcman

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ncsid/ncsid/pkg/models"
	"github.com/ncsid/ncsid/pkg/responder"
)

type staticVerdicts struct {
	online bool
}

func (v *staticVerdicts) Get(_ context.Context) models.Verdict {
	return models.Verdict{Online: v.online, CheckedAt: time.Now()}
}

// fakeResponder fails on demand without binding anything.
type fakeResponder struct {
	startErr error
	stopped  bool
}

func (f *fakeResponder) Start(_ context.Context) error { return f.startErr }
func (f *fakeResponder) Stop(_ context.Context) error  { f.stopped = true; return nil }
func (f *fakeResponder) Addr() string                  { return "0.0.0.0:1" }

func newRealResponder(t *testing.T, online bool) *responder.Server {
	t.Helper()

	srv, err := responder.NewServer(models.ResponderConfig{Port: 0}, &staticVerdicts{online: online}, nil)
	require.NoError(t, err)

	return srv
}

func TestRunner_StartReachesRunning(t *testing.T) {
	resp := newRealResponder(t, true)
	runner := NewRunner(resp, &staticVerdicts{online: true}, nil)

	assert.Equal(t, models.StateStopped, runner.State())

	ctx := context.Background()
	require.NoError(t, runner.Start(ctx))
	assert.Equal(t, models.StateRunning, runner.State())

	require.NoError(t, runner.Stop(ctx))
	assert.Equal(t, models.StateStopped, runner.State())
}

func TestRunner_OfflineVerdictStillStarts(t *testing.T) {
	// Starting with no upstream connectivity is not a failure; the
	// responder correctly answers 503 and the service keeps checking.
	resp := newRealResponder(t, false)
	runner := NewRunner(resp, &staticVerdicts{online: false}, nil)

	ctx := context.Background()
	require.NoError(t, runner.Start(ctx))
	assert.Equal(t, models.StateRunning, runner.State())

	require.NoError(t, runner.Stop(ctx))
}

func TestRunner_PortInUseFailsDistinctly(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	defer listener.Close()

	port := listener.Addr().(*net.TCPAddr).Port

	srv, err := responder.NewServer(models.ResponderConfig{Port: port}, &staticVerdicts{online: true}, nil)
	require.NoError(t, err)

	runner := NewRunner(srv, &staticVerdicts{online: true}, nil)

	err = runner.Start(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrPortInUse)
	assert.Equal(t, models.StateFailed, runner.State())
}

func TestRunner_SelfTestFailureStopsResponder(t *testing.T) {
	// A responder whose verdict disagrees with its own answer would mask
	// captive portals; the runner must refuse to run and clean up.
	fake := &fakeResponder{}
	runner := NewRunner(fake, &staticVerdicts{online: true}, nil)

	err := runner.Start(context.Background())
	require.Error(t, err, "nothing listens on the fake's addr, self test must fail")
	assert.Equal(t, models.StateFailed, runner.State())
	assert.True(t, fake.stopped, "responder must be stopped after a failed self test")
}

func TestRunner_StopWhenStoppedIsNoop(t *testing.T) {
	runner := NewRunner(&fakeResponder{}, &staticVerdicts{online: true}, nil)

	require.NoError(t, runner.Stop(context.Background()))
	assert.Equal(t, models.StateStopped, runner.State())
}
