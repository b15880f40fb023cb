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
	"sync"
	"time"

	"github.com/ncsid/ncsid/pkg/logger"
	"github.com/ncsid/ncsid/pkg/models"
)

// Checker runs all enabled probe methods concurrently and assembles a
// reachability verdict. One working path is enough to call the host
// online; the verdict is false only when every enabled method fails
// within its timeout budget.
type Checker struct {
	cfg     models.CheckerConfig
	probers map[models.ProbeMethod]Prober
	logger  logger.Logger
}

// NewChecker builds a checker with the default probers for each method.
func NewChecker(cfg models.CheckerConfig, log logger.Logger) *Checker {
	return &Checker{
		cfg: cfg,
		probers: map[models.ProbeMethod]Prober{
			models.MethodICMP:  &ICMPProber{},
			models.MethodDNS:   &DNSProber{},
			models.MethodHTTP:  NewHTTPProber(),
			models.MethodHTTPS: NewHTTPProber(),
		},
		logger: log,
	}
}

// NewCheckerWithProbers builds a checker with explicit probers, used by
// tests and by diagnostics to substitute fakes.
func NewCheckerWithProbers(cfg models.CheckerConfig, probers map[models.ProbeMethod]Prober, log logger.Logger) *Checker {
	return &Checker{cfg: cfg, probers: probers, logger: log}
}

// Check computes a fresh verdict. It never returns an error: failures of
// the checker itself are absorbed as a negative verdict so callers always
// receive an answer.
func (c *Checker) Check(ctx context.Context) models.Verdict {
	verdict := models.Verdict{
		Methods:   make(map[models.ProbeMethod]*models.MethodResult),
		CheckedAt: time.Now(),
	}

	type methodOutcome struct {
		method models.ProbeMethod
		result *models.MethodResult
	}

	var wg sync.WaitGroup

	outcomes := make(chan methodOutcome, len(c.cfg.Methods))

	for _, method := range c.cfg.Methods {
		prober, ok := c.probers[method]
		if !ok {
			continue
		}

		targets := c.targetsFor(method)
		if len(targets) == 0 {
			continue
		}

		wg.Add(1)

		go func(method models.ProbeMethod, prober Prober, targets []models.ProbeTarget) {
			defer wg.Done()

			outcomes <- methodOutcome{
				method: method,
				result: c.runMethod(ctx, method, prober, targets),
			}
		}(method, prober, targets)
	}

	wg.Wait()
	close(outcomes)

	for o := range outcomes {
		verdict.Methods[o.method] = o.result

		if o.result.Success {
			verdict.Online = true
		}
	}

	if !verdict.Online && c.logger != nil {
		c.logger.Warn().Msg("All connectivity checks failed")
	}

	return verdict
}

// runMethod probes all targets of one method concurrently; the first
// success wins and cancels the siblings.
func (c *Checker) runMethod(ctx context.Context, method models.ProbeMethod, prober Prober, targets []models.ProbeTarget) *models.MethodResult {
	methodCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	type probeOutcome struct {
		target  string
		latency time.Duration
		err     error
	}

	results := make(chan probeOutcome, len(targets))

	for _, target := range targets {
		go func(target models.ProbeTarget) {
			timeout := target.Timeout.Duration()
			if timeout <= 0 {
				timeout = models.DefaultProbeTimeout
			}

			probeCtx, probeCancel := context.WithTimeout(methodCtx, timeout)
			defer probeCancel()

			start := time.Now()
			err := prober.Probe(probeCtx, target)

			results <- probeOutcome{
				target:  targetLabel(target),
				latency: time.Since(start),
				err:     err,
			}
		}(target)
	}

	result := &models.MethodResult{Method: method}

	for range targets {
		o := <-results

		if o.err == nil {
			result.Success = true
			result.Target = o.target
			result.Latency = o.latency
			result.Error = ""

			// Remaining probes for this method are moot.
			cancel()

			if c.logger != nil {
				c.logger.Debug().
					Str("method", string(method)).
					Str("target", o.target).
					Dur("latency", o.latency).
					Msg("Probe succeeded")
			}

			break
		}

		if !result.Success {
			result.Target = o.target
			result.Error = o.err.Error()
		}
	}

	return result
}

func (c *Checker) targetsFor(method models.ProbeMethod) []models.ProbeTarget {
	timeout := c.cfg.ProbeTimeout

	var targets []models.ProbeTarget

	switch method {
	case models.MethodICMP:
		for _, host := range c.cfg.ICMPTargets {
			targets = append(targets, models.ProbeTarget{
				Method: method, Host: host, Timeout: timeout,
			})
		}
	case models.MethodDNS:
		for _, t := range c.cfg.DNSTargets {
			targets = append(targets, models.ProbeTarget{
				Method: method, Host: t.Hostname, ExpectedIP: t.ExpectedIP, Timeout: timeout,
			})
		}
	case models.MethodHTTP:
		for _, url := range c.cfg.HTTPTargets {
			targets = append(targets, models.ProbeTarget{
				Method: method, URL: url, Timeout: timeout,
			})
		}
	case models.MethodHTTPS:
		for _, url := range c.cfg.HTTPSTargets {
			targets = append(targets, models.ProbeTarget{
				Method: method, URL: url, Timeout: timeout,
			})
		}
	}

	return targets
}

func targetLabel(target models.ProbeTarget) string {
	if target.URL != "" {
		return target.URL
	}

	return target.Host
}
