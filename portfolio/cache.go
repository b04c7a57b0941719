// Copyright 2023-2024
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package portfolio

import (
	"fmt"
	"time"

	"github.com/GarderesG/PeaManager/common"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
)

// The performance cache is keyed by portfolio ID, event-log version, and the
// through date, so a changed transaction log or a new day can never serve a
// stale series. Old entries age out of the LRU (and expire from redis when
// that backend is enabled); no explicit invalidation is required.

func performanceCacheKey(p *Portfolio, through time.Time) string {
	return fmt.Sprintf("perf:%s:%s:%s", p.ID, p.LogVersion(), through.Format("2006-01-02"))
}

// CachedPerformance returns the cached series for the portfolio's current
// event log, if present
func CachedPerformance(p *Portfolio, through time.Time) (*Performance, bool) {
	raw, err := common.CacheGet(performanceCacheKey(p, through))
	if err != nil {
		return nil, false
	}

	perf := &Performance{}
	if err := json.Unmarshal(raw, perf); err != nil {
		log.Warn().Err(err).Str("PortfolioName", p.Name).Msg("could not deserialize cached performance")
		return nil, false
	}

	return perf, true
}

// StorePerformance caches the computed series under the portfolio's current
// event-log version
func StorePerformance(p *Portfolio, perf *Performance, through time.Time) error {
	raw, err := json.Marshal(perf)
	if err != nil {
		log.Error().Stack().Err(err).Str("PortfolioName", p.Name).Msg("could not serialize performance")
		return err
	}

	return common.CacheSet(performanceCacheKey(p, through), raw)
}
