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
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/ncsid/ncsid/pkg/models"
)

// CheckFunc computes a fresh verdict.
type CheckFunc func(ctx context.Context) models.Verdict

// Cache serves a recent verdict without hammering probe targets under
// bursty OS polling. Invalidation is purely time-based. Readers load an
// immutable verdict snapshot through an atomic pointer, so a request can
// never observe a partially updated verdict. Concurrent recompute
// attempts collapse into one in-flight computation; while it runs, other
// requests keep reading the previous verdict instead of blocking.
type Cache struct {
	check   CheckFunc
	ttl     time.Duration
	now     func() time.Time
	current atomic.Pointer[models.Verdict]
	group   singleflight.Group
}

func NewCache(check CheckFunc, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = models.DefaultCacheInterval
	}

	return &Cache{
		check: check,
		ttl:   ttl,
		now:   time.Now,
	}
}

// Get returns the cached verdict, refreshing it when stale. Only the
// very first call (no verdict yet) blocks on a computation.
func (c *Cache) Get(ctx context.Context) models.Verdict {
	cached := c.current.Load()
	if cached != nil && c.now().Sub(cached.CheckedAt) < c.ttl {
		return *cached
	}

	ch := c.group.DoChan("verdict", func() (interface{}, error) {
		// The refresh outlives the request that triggered it.
		fresh := c.check(context.WithoutCancel(ctx))
		c.current.Store(&fresh)

		return fresh, nil
	})

	if cached != nil {
		return *cached
	}

	res := <-ch

	return res.Val.(models.Verdict)
}
