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

// Package netcheck verifies real internet reachability through independent
// probe methods and reduces them to a single verdict.
package netcheck

import (
	"context"

	"github.com/ncsid/ncsid/pkg/models"
)

// Prober performs a single reachability probe against one target. A nil
// error means the target answered.
type Prober interface {
	Probe(ctx context.Context, target models.ProbeTarget) error
}

// ProberFunc adapts a function to the Prober interface.
type ProberFunc func(ctx context.Context, target models.ProbeTarget) error

func (f ProberFunc) Probe(ctx context.Context, target models.ProbeTarget) error {
	return f(ctx, target)
}
