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

package responder

import (
	_ "embed"
	"fmt"
	"os"
)

//go:embed redirect.html
var defaultRedirectContent []byte

// loadRedirectContent returns the payload for the redirect endpoint. An
// empty path selects the embedded default; a configured path that cannot
// be read is a configuration error, not a silent fallback.
func loadRedirectContent(path string) ([]byte, error) {
	if path == "" {
		return defaultRedirectContent, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read redirect content %s: %w", path, err)
	}

	return content, nil
}
