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

//go:build !windows

package sysstate

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/ncsid/ncsid/pkg/models"
)

var errRegistryUnsupported = errors.New("registry mutation is only supported on windows")

// stubRegistryStore stands in on platforms without a registry. Reads
// report absent values so status checks work during development; writes
// fail.
type stubRegistryStore struct{}

// NewRegistryStore returns the platform registry store.
func NewRegistryStore() RegistryStore {
	return stubRegistryStore{}
}

func (stubRegistryStore) Get(string) (models.RegistryValue, error) {
	return models.RegistryValue{}, nil
}

func (stubRegistryStore) Set(string, string) error {
	return fmt.Errorf("%w: %s", errRegistryUnsupported, runtime.GOOS)
}

func (stubRegistryStore) Delete(string) error {
	return fmt.Errorf("%w: %s", errRegistryUnsupported, runtime.GOOS)
}
