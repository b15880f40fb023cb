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
	"fmt"
	"io"
	"net/http"

	"github.com/ncsid/ncsid/pkg/models"
)

// HTTPProber fetches a URL and accepts 200 or 204 as proof of
// connectivity. Redirects are not followed: a captive portal answering
// 302 for a generate_204 URL must not count as online.
type HTTPProber struct {
	client *http.Client
}

func NewHTTPProber() *HTTPProber {
	return &HTTPProber{
		client: &http.Client{
			CheckRedirect: func(_ *http.Request, _ []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (p *HTTPProber) Probe(ctx context.Context, target models.ProbeTarget) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.URL, http.NoBody)
	if err != nil {
		return fmt.Errorf("http request %s: %w", target.URL, err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("http fetch %s: %w", target.URL, err)
	}

	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("http fetch %s: unexpected status %d", target.URL, resp.StatusCode)
	}

	return nil
}
