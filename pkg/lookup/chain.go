// RomHoard
// Copyright (c) 2026 The RomHoard Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of RomHoard.
//
// RomHoard is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// RomHoard is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with RomHoard.  If not, see <http://www.gnu.org/licenses/>.

package lookup

import (
	"context"
	"errors"
	"time"

	"github.com/cubicalbatch/romhoard-sub001/pkg/database/catalogdb"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

const pauseSettingPrefix = "pause_until:"

// Chain runs identification services in order. The first answer wins
// the name; later services still run when the answer carries no
// external ID, so the metadata index can backfill it.
type Chain struct {
	db       *catalogdb.CatalogDB
	clock    clockwork.Clock
	services []Service
}

// NewChain builds a chain over the given services, consulted in order.
func NewChain(db *catalogdb.CatalogDB, clock clockwork.Clock, services ...Service) *Chain {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Chain{db: db, clock: clock, services: services}
}

// Identify resolves a query through the chain. A nil result with a nil
// error means no service recognized the file. When a paused or
// freshly rate-limited service would have been consulted and nothing
// else answered, the rate-limited condition is returned with its
// remaining retry-after so the caller can reschedule instead of
// treating the file as unidentifiable.
func (c *Chain) Identify(ctx context.Context, query *Query) (*Result, error) {
	var result *Result
	var limited *RateLimitedError
	for _, svc := range c.services {
		if !svc.Available(query.Platform) {
			log.Debug().Str("service", svc.Name()).Msg("service unavailable, skipping")
			continue
		}

		remaining, err := c.pauseRemaining(svc.Name())
		if err != nil {
			return nil, err
		}
		if remaining > 0 {
			log.Debug().
				Str("service", svc.Name()).
				Dur("retry_after", remaining).
				Msg("service paused, skipping")
			if limited == nil {
				limited = &RateLimitedError{Service: svc.Name(), RetryAfter: remaining}
			}
			continue
		}

		answer, err := svc.Lookup(ctx, query)
		if err != nil {
			var rateLimited *RateLimitedError
			if errors.As(err, &rateLimited) {
				if pauseErr := c.pause(svc.Name(), rateLimited.RetryAfter); pauseErr != nil {
					return nil, pauseErr
				}
				log.Warn().
					Str("service", svc.Name()).
					Dur("retry_after", rateLimited.RetryAfter).
					Msg("service rate limited, paused")
				if limited == nil {
					limited = rateLimited
				}
				continue
			}
			return nil, err
		}
		if answer == nil {
			continue
		}

		if result == nil {
			result = answer
		} else if result.ExternalID == 0 {
			result.ExternalID = answer.ExternalID
		}
		if result.ExternalID != 0 {
			break
		}
	}
	if result == nil && limited != nil {
		return nil, limited
	}
	return result, nil
}

// pauseRemaining returns how much of a service's back-off window is
// still open, 0 when the service may be called.
func (c *Chain) pauseRemaining(service string) (time.Duration, error) {
	value, err := c.db.GetSetting(pauseSettingPrefix + service)
	if err != nil {
		return 0, err
	}
	if value == "" {
		return 0, nil
	}
	until, err := time.Parse(time.RFC3339, value)
	if err != nil {
		log.Warn().Str("service", service).Str("value", value).
			Msg("unreadable pause timestamp, ignoring")
		return 0, nil
	}
	remaining := until.Sub(c.clock.Now())
	if remaining < 0 {
		return 0, nil
	}
	return remaining, nil
}

// pause records a service back-off window so every worker honors it.
func (c *Chain) pause(service string, retryAfter time.Duration) error {
	until := c.clock.Now().Add(retryAfter).Format(time.RFC3339)
	return c.db.SetSetting(pauseSettingPrefix+service, until)
}
