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
	"errors"
	"fmt"

	"github.com/kardianos/service"

	"github.com/ncsid/ncsid/pkg/logger"
	"github.com/ncsid/ncsid/pkg/models"
)

const (
	// SvcName is the id the service manager knows us by.
	SvcName        = "ncsid"
	svcDisplayName = "NCSI Resolver"
	svcDescription = "Answers Windows connectivity probes locally and keeps the network status indicator accurate."
)

// program adapts the runner to the service manager callbacks. Start must
// not block; the runner's own Start is synchronous and fast (bind plus
// one self test), so it runs inline and start failures propagate to the
// service manager.
type program struct {
	runner *Runner
}

func (p *program) Start(_ service.Service) error {
	return p.runner.Start(context.Background())
}

func (p *program) Stop(_ service.Service) error {
	return p.runner.Stop(context.Background())
}

// Manager installs, removes and controls the system service entry.
type Manager struct {
	svc    service.Service
	runner *Runner
	logger logger.Logger
}

// NewManager registers the runner with the platform service manager.
// Arguments are the command line passed to the service binary when the
// OS starts it.
func NewManager(runner *Runner, arguments []string, log logger.Logger) (*Manager, error) {
	svcConfig := &service.Config{
		Name:        SvcName,
		DisplayName: svcDisplayName,
		Description: svcDescription,
		Arguments:   arguments,
	}

	svc, err := service.New(&program{runner: runner}, svcConfig)
	if err != nil {
		return nil, fmt.Errorf("create service: %w", err)
	}

	return &Manager{svc: svc, runner: runner, logger: log}, nil
}

// Run blocks serving the service main loop. Under a service manager it
// returns when the manager stops us; in a terminal it runs until
// interrupted.
func (m *Manager) Run() error {
	return m.svc.Run()
}

// Install registers the service with the OS.
func (m *Manager) Install() error {
	if err := m.svc.Install(); err != nil {
		return fmt.Errorf("install service: %w", err)
	}

	if m.logger != nil {
		m.logger.Info().Str("service", SvcName).Msg("Service installed")
	}

	return nil
}

// Uninstall removes the service registration.
func (m *Manager) Uninstall() error {
	if err := m.svc.Uninstall(); err != nil {
		if errors.Is(err, service.ErrNotInstalled) {
			return nil
		}

		return fmt.Errorf("uninstall service: %w", err)
	}

	if m.logger != nil {
		m.logger.Info().Str("service", SvcName).Msg("Service uninstalled")
	}

	return nil
}

// Start asks the service manager to start the installed service.
func (m *Manager) Start() error {
	if err := m.svc.Start(); err != nil {
		return fmt.Errorf("start service: %w", err)
	}

	return nil
}

// Stop asks the service manager to stop the installed service.
func (m *Manager) Stop() error {
	if err := m.svc.Stop(); err != nil {
		return fmt.Errorf("stop service: %w", err)
	}

	return nil
}

// State queries the service manager for the installed service's state.
// It reflects what the OS knows, not this process; use Runner.State for
// the in-process view.
func (m *Manager) State() (models.ServiceState, error) {
	status, err := m.svc.Status()
	if err != nil {
		if errors.Is(err, service.ErrNotInstalled) {
			return models.StateNotInstalled, nil
		}

		return models.StateFailed, fmt.Errorf("query service status: %w", err)
	}

	switch status {
	case service.StatusRunning:
		return models.StateRunning, nil
	case service.StatusStopped:
		return models.StateStopped, nil
	default:
		return models.StateStopped, nil
	}
}
