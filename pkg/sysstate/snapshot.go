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

package sysstate

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/ncsid/ncsid/pkg/models"
)

const snapshotFileName = "state-snapshot.json"

// FileSnapshotStore keeps the pre-mutation snapshot as a JSON file. One
// snapshot at a time: the file either exists (state is mutated) or does
// not (state is pristine).
type FileSnapshotStore struct {
	dir string
}

// NewFileSnapshotStore uses the platform service data directory when dir
// is empty.
func NewFileSnapshotStore(dir string) *FileSnapshotStore {
	if dir == "" {
		if runtime.GOOS == "windows" {
			dir = filepath.Join(os.Getenv("ProgramData"), "NCSID")
		} else {
			dir = "/var/lib/ncsid"
		}
	}

	return &FileSnapshotStore{dir: dir}
}

func (s *FileSnapshotStore) path() string {
	return filepath.Join(s.dir, snapshotFileName)
}

func (s *FileSnapshotStore) Load() (*models.StateSnapshot, error) {
	data, err := os.ReadFile(s.path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", models.ErrSnapshotMissing, s.path())
		}

		return nil, fmt.Errorf("read snapshot %s: %w", s.path(), err)
	}

	var snapshot models.StateSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("parse snapshot %s: %w", s.path(), err)
	}

	return &snapshot, nil
}

func (s *FileSnapshotStore) Save(snapshot *models.StateSnapshot) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir %s: %w", s.dir, err)
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	tmp := s.path() + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write snapshot %s: %w", tmp, err)
	}

	if err := os.Rename(tmp, s.path()); err != nil {
		os.Remove(tmp)

		return fmt.Errorf("write snapshot %s: %w", s.path(), err)
	}

	return nil
}

func (s *FileSnapshotStore) Delete() error {
	if err := os.Remove(s.path()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete snapshot %s: %w", s.path(), err)
	}

	return nil
}

func (s *FileSnapshotStore) Exists() (bool, error) {
	_, err := os.Stat(s.path())
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}

		return false, fmt.Errorf("stat snapshot %s: %w", s.path(), err)
	}

	return true, nil
}
