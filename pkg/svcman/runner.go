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

// Package svcman wraps the resolver components in a system service
// lifecycle. It owns the state machine the control surface reports
// (stopped, starting, running, failed) and refuses to declare the
// service running until a start-time self test has proven the responder
// actually answers on its port.
package svcman

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/ncsid/ncsid/pkg/logger"
	"github.com/ncsid/ncsid/pkg/models"
	"github.com/ncsid/ncsid/pkg/responder"
)

const selfTestTimeout = 5 * time.Second

// VerdictSource supplies reachability verdicts for the start-time self
// test.
type VerdictSource interface {
	Get(ctx context.Context) models.Verdict
}

// Responder is the subset of the probe server the runner drives.
type Responder interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Addr() string
}

// Runner drives the responder through the service lifecycle. State
// transitions are one-directional per attempt: starting goes to running
// only through a passing self test, any failure lands in failed, and
// stop always returns to stopped.
type Runner struct {
	responder Responder
	verdicts  VerdictSource
	logger    logger.Logger

	// selfTestClient overrides the HTTP client, used by tests.
	selfTestClient *http.Client

	mu    sync.Mutex
	state models.ServiceState
}

// NewRunner builds a runner in the stopped state.
func NewRunner(resp Responder, verdicts VerdictSource, log logger.Logger) *Runner {
	return &Runner{
		responder: resp,
		verdicts:  verdicts,
		logger:    log,
		state:     models.StateStopped,
	}
}

// State reports the current lifecycle state.
func (r *Runner) State() models.ServiceState {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.state
}

func (r *Runner) setState(state models.ServiceState) {
	r.mu.Lock()
	r.state = state
	r.mu.Unlock()
}

// Start brings the responder up and runs the self test. A port conflict
// surfaces as models.ErrPortInUse so callers can distinguish "another
// NCSI responder is already bound" from generic startup failure; either
// way the runner lands in the failed state.
func (r *Runner) Start(ctx context.Context) error {
	r.setState(models.StateStarting)

	if err := r.responder.Start(ctx); err != nil {
		r.setState(models.StateFailed)

		return err
	}

	if err := r.selfTest(ctx); err != nil {
		r.setState(models.StateFailed)

		if stopErr := r.responder.Stop(ctx); stopErr != nil && r.logger != nil {
			r.logger.Error().Err(stopErr).Msg("Failed to stop responder after failed self test")
		}

		return fmt.Errorf("start self test: %w", err)
	}

	r.setState(models.StateRunning)

	if r.logger != nil {
		r.logger.Info().
			Str("addr", r.responder.Addr()).
			Msg("Service running")
	}

	return nil
}

// Stop shuts the responder down. Stopping an already stopped or failed
// runner is a no-op.
func (r *Runner) Stop(ctx context.Context) error {
	if r.State() == models.StateStopped {
		return nil
	}

	if err := r.responder.Stop(ctx); err != nil {
		return err
	}

	r.setState(models.StateStopped)

	return nil
}

// selfTest proves the full request path works: one reachability check
// primes the verdict, then a real HTTP request is sent to the bound
// listener the way the OS probe client would. An offline verdict is not
// a failure; a responder that answers 503 is doing its job. What fails
// the test is a responder that cannot be reached or answers with the
// wrong payload.
func (r *Runner) selfTest(ctx context.Context) error {
	verdict := r.verdicts.Get(ctx)

	client := r.selfTestClient
	if client == nil {
		client = &http.Client{Timeout: selfTestTimeout}
	}

	// The responder binds all interfaces; the self test goes through
	// loopback the same way the redirected OS probe will.
	_, port, err := net.SplitHostPort(r.responder.Addr())
	if err != nil {
		return fmt.Errorf("parse responder addr: %w", err)
	}

	url := fmt.Sprintf("http://127.0.0.1:%s/connecttest.txt", port)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return err
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("probe endpoint unreachable: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1024))
	if err != nil {
		return fmt.Errorf("read self test response: %w", err)
	}

	switch {
	case verdict.Online && resp.StatusCode == http.StatusOK:
		if string(body) != responder.ConnectTestBody {
			return fmt.Errorf("unexpected probe body %q", string(body))
		}
	case !verdict.Online && resp.StatusCode == http.StatusServiceUnavailable:
		// Offline but correctly reported as such.
	default:
		return fmt.Errorf("unexpected self test status %d (online=%v)", resp.StatusCode, verdict.Online)
	}

	if r.logger != nil {
		r.logger.Info().
			Bool("online", verdict.Online).
			Int("status", resp.StatusCode).
			Msg("Start self test passed")
	}

	return nil
}
