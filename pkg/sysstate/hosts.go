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
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/ncsid/ncsid/pkg/models"
)

const windowsHostsPath = `C:\Windows\System32\drivers\etc\hosts`

// FileHostsStore edits the system hosts file in place, touching only the
// lines that map the probe domain and leaving everything else byte for
// byte as found.
type FileHostsStore struct {
	path string
}

// NewFileHostsStore uses the platform hosts file when path is empty.
func NewFileHostsStore(path string) *FileHostsStore {
	if path == "" {
		if runtime.GOOS == "windows" {
			path = windowsHostsPath
		} else {
			path = "/etc/hosts"
		}
	}

	return &FileHostsStore{path: path}
}

func hostsLinePattern(domain string) *regexp.Regexp {
	return regexp.MustCompile(`(?m)^\s*(\d+\.\d+\.\d+\.\d+)\s+` + regexp.QuoteMeta(domain) + `(\s|$)`)
}

// Lookup reports the first IPv4 mapping for the domain.
func (s *FileHostsStore) Lookup(domain string) (models.HostsEntry, error) {
	content, err := s.read()
	if err != nil {
		return models.HostsEntry{}, err
	}

	match := hostsLinePattern(domain).FindStringSubmatch(content)
	if match == nil {
		return models.HostsEntry{}, nil
	}

	return models.HostsEntry{Present: true, IP: match[1]}, nil
}

// Set maps the domain to the given IP. An existing mapping for the
// domain is replaced rather than duplicated.
func (s *FileHostsStore) Set(domain, ip string) error {
	content, err := s.read()
	if err != nil {
		return err
	}

	entry := ip + " " + domain

	pattern := hostsLinePattern(domain)
	if pattern.MatchString(content) {
		content = replaceDomainLines(content, domain, entry)
	} else {
		if content != "" && !strings.HasSuffix(content, "\n") {
			content += "\n"
		}

		content += entry + "\n"
	}

	return s.write(content)
}

// Remove drops every line mapping the domain.
func (s *FileHostsStore) Remove(domain string) error {
	content, err := s.read()
	if err != nil {
		return err
	}

	if !hostsLinePattern(domain).MatchString(content) {
		return nil
	}

	return s.write(replaceDomainLines(content, domain, ""))
}

// replaceDomainLines rewrites the hosts content line by line, swapping
// lines that map the domain for the replacement, or dropping them when
// the replacement is empty. Only the first match keeps a replacement;
// duplicates collapse.
func replaceDomainLines(content, domain, replacement string) string {
	pattern := hostsLinePattern(domain)
	lines := strings.Split(content, "\n")
	out := make([]string, 0, len(lines))
	replaced := false

	for _, line := range lines {
		if !pattern.MatchString(line) {
			out = append(out, line)

			continue
		}

		if replacement != "" && !replaced {
			out = append(out, replacement)
			replaced = true
		}
	}

	return strings.Join(out, "\n")
}

func (s *FileHostsStore) read() (string, error) {
	content, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}

		return "", s.wrapAccess("read", err)
	}

	return string(content), nil
}

// write replaces the hosts file atomically via a sibling temp file so a
// crash mid-write cannot leave a truncated hosts file.
func (s *FileHostsStore) write(content string) error {
	dir := filepath.Dir(s.path)

	tmp, err := os.CreateTemp(dir, ".hosts-*")
	if err != nil {
		return s.wrapAccess("write", err)
	}

	tmpName := tmp.Name()

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)

		return s.wrapAccess("write", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)

		return s.wrapAccess("write", err)
	}

	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)

		return s.wrapAccess("write", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)

		return s.wrapAccess("write", err)
	}

	return nil
}

func (s *FileHostsStore) wrapAccess(op string, err error) error {
	if errors.Is(err, os.ErrPermission) {
		return fmt.Errorf("%w: %s hosts file %s", models.ErrPrivilegeRequired, op, s.path)
	}

	return fmt.Errorf("%s hosts file %s: %w", op, s.path, err)
}
