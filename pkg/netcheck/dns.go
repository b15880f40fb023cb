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
	"errors"
	"fmt"
	"net"

	"github.com/ncsid/ncsid/pkg/models"
)

var errUnexpectedDNSAnswer = errors.New("dns answer did not match expected IP")

// DNSProber resolves a hostname through the system resolver. An expected
// IP, when configured, guards against interception: a resolver that
// answers with the wrong address does not count as connectivity.
type DNSProber struct {
	// Resolver overrides the system resolver, used by tests.
	Resolver *net.Resolver
}

func (p *DNSProber) Probe(ctx context.Context, target models.ProbeTarget) error {
	resolver := p.Resolver
	if resolver == nil {
		resolver = net.DefaultResolver
	}

	addrs, err := resolver.LookupHost(ctx, target.Host)
	if err != nil {
		return fmt.Errorf("dns lookup %s: %w", target.Host, err)
	}

	if target.ExpectedIP == "" {
		return nil
	}

	for _, addr := range addrs {
		if addr == target.ExpectedIP {
			return nil
		}
	}

	return fmt.Errorf("%w: %s resolved to %v, expected %s",
		errUnexpectedDNSAnswer, target.Host, addrs, target.ExpectedIP)
}
