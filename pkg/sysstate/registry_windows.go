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

//go:build windows

package sysstate

import (
	"errors"
	"fmt"

	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/registry"

	"github.com/ncsid/ncsid/pkg/models"
)

// nlaInternetKeyPath is the key NlaSvc reads its active web probe
// configuration from.
const nlaInternetKeyPath = `SYSTEM\CurrentControlSet\Services\NlaSvc\Parameters\Internet`

// WindowsRegistryStore edits string values under the NLA Internet probe
// key in HKLM.
type WindowsRegistryStore struct {
	keyPath string
}

// NewRegistryStore returns the platform registry store.
func NewRegistryStore() RegistryStore {
	return &WindowsRegistryStore{keyPath: nlaInternetKeyPath}
}

func (s *WindowsRegistryStore) Get(name string) (models.RegistryValue, error) {
	key, err := registry.OpenKey(registry.LOCAL_MACHINE, s.keyPath, registry.QUERY_VALUE)
	if err != nil {
		return models.RegistryValue{}, s.wrapAccess("open", err)
	}
	defer key.Close()

	value, _, err := key.GetStringValue(name)
	if err != nil {
		if errors.Is(err, registry.ErrNotExist) {
			return models.RegistryValue{}, nil
		}

		return models.RegistryValue{}, s.wrapAccess("read", err)
	}

	return models.RegistryValue{Present: true, Value: value}, nil
}

func (s *WindowsRegistryStore) Set(name, value string) error {
	key, err := registry.OpenKey(registry.LOCAL_MACHINE, s.keyPath, registry.SET_VALUE)
	if err != nil {
		return s.wrapAccess("open", err)
	}
	defer key.Close()

	if err := key.SetStringValue(name, value); err != nil {
		return s.wrapAccess("write", err)
	}

	return nil
}

func (s *WindowsRegistryStore) Delete(name string) error {
	key, err := registry.OpenKey(registry.LOCAL_MACHINE, s.keyPath, registry.SET_VALUE)
	if err != nil {
		return s.wrapAccess("open", err)
	}
	defer key.Close()

	if err := key.DeleteValue(name); err != nil && !errors.Is(err, registry.ErrNotExist) {
		return s.wrapAccess("delete", err)
	}

	return nil
}

func (s *WindowsRegistryStore) wrapAccess(op string, err error) error {
	if errors.Is(err, windows.ERROR_ACCESS_DENIED) {
		return fmt.Errorf("%w: %s registry key %s", models.ErrPrivilegeRequired, op, s.keyPath)
	}

	return fmt.Errorf("%s registry key %s: %w", op, s.keyPath, err)
}
