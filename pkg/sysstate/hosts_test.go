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
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ncsid/ncsid/pkg/models"
)

const sampleHosts = `# Copyright (c) 1993-2009 Microsoft Corp.
#
# localhost name resolution is handled within DNS itself.
#	127.0.0.1       localhost

192.168.1.10 fileserver.local
`

func newHostsFile(t *testing.T, content string) *FileHostsStore {
	t.Helper()

	path := filepath.Join(t.TempDir(), "hosts")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return NewFileHostsStore(path)
}

func readHosts(t *testing.T, store *FileHostsStore) string {
	t.Helper()

	content, err := os.ReadFile(store.path)
	require.NoError(t, err)

	return string(content)
}

func TestHosts_SetAppendsEntry(t *testing.T) {
	store := newHostsFile(t, sampleHosts)

	require.NoError(t, store.Set("www.msftconnecttest.com", "127.0.0.1"))

	entry, err := store.Lookup("www.msftconnecttest.com")
	require.NoError(t, err)
	assert.Equal(t, models.HostsEntry{Present: true, IP: "127.0.0.1"}, entry)

	content := readHosts(t, store)
	assert.Contains(t, content, "192.168.1.10 fileserver.local", "unrelated lines must survive")
	assert.Contains(t, content, "127.0.0.1 www.msftconnecttest.com")
}

func TestHosts_SetReplacesExistingEntryWithoutDuplicating(t *testing.T) {
	store := newHostsFile(t, sampleHosts+"13.107.4.52 www.msftconnecttest.com\n")

	require.NoError(t, store.Set("www.msftconnecttest.com", "127.0.0.1"))
	require.NoError(t, store.Set("www.msftconnecttest.com", "127.0.0.1"))

	content := readHosts(t, store)
	assert.Equal(t, 1, strings.Count(content, "www.msftconnecttest.com"))
	assert.NotContains(t, content, "13.107.4.52")
}

func TestHosts_RemoveDropsOnlyDomainLines(t *testing.T) {
	store := newHostsFile(t, sampleHosts+"127.0.0.1 www.msftconnecttest.com\n")

	require.NoError(t, store.Remove("www.msftconnecttest.com"))

	entry, err := store.Lookup("www.msftconnecttest.com")
	require.NoError(t, err)
	assert.False(t, entry.Present)

	content := readHosts(t, store)
	assert.Contains(t, content, "fileserver.local")
	assert.Contains(t, content, "# localhost name resolution")
}

func TestHosts_RemoveAbsentIsNoop(t *testing.T) {
	store := newHostsFile(t, sampleHosts)

	require.NoError(t, store.Remove("www.msftconnecttest.com"))
	assert.Equal(t, sampleHosts, readHosts(t, store))
}

func TestHosts_LookupIgnoresSuffixMatches(t *testing.T) {
	// A mapping for a longer name that merely contains the domain must
	// not be mistaken for the probe entry.
	store := newHostsFile(t, "10.0.0.1 evil-www.msftconnecttest.com\n")

	entry, err := store.Lookup("www.msftconnecttest.com")
	require.NoError(t, err)
	assert.False(t, entry.Present)
}

func TestHosts_MissingFileReadsAsEmpty(t *testing.T) {
	store := NewFileHostsStore(filepath.Join(t.TempDir(), "hosts"))

	entry, err := store.Lookup("www.msftconnecttest.com")
	require.NoError(t, err)
	assert.False(t, entry.Present)

	require.NoError(t, store.Set("www.msftconnecttest.com", "127.0.0.1"))

	entry, err = store.Lookup("www.msftconnecttest.com")
	require.NoError(t, err)
	assert.True(t, entry.Present)
}
