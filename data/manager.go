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

package data

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/GarderesG/PeaManager/dataframe"
	lru "github.com/hashicorp/golang-lru"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Manager wraps a Provider with an LRU frame cache. It satisfies the Provider
// interface itself so callers do not care whether a frame came from the
// database or the cache.
type Manager struct {
	provider Provider
	frames   *lru.Cache
	locker   sync.RWMutex
}

var (
	managerOnce     sync.Once
	managerInstance *Manager
)

// GetManagerInstance returns the process-wide data manager backed by PeaDb
func GetManagerInstance() *Manager {
	managerOnce.Do(func() {
		if err := LoadSecuritiesFromDB(context.Background()); err != nil {
			log.Error().Err(err).Msg("could not load securities registry")
		}

		managerInstance = NewManager(NewPeaDb())
	})
	return managerInstance
}

// NewManager creates a manager around the given provider
func NewManager(provider Provider) *Manager {
	size := viper.GetInt("data.frame_cache_size")
	if size == 0 {
		size = 64
	}

	frames, err := lru.New(size)
	if err != nil {
		log.Panic().Err(err).Msg("could not create frame cache")
	}

	return &Manager{
		provider: provider,
		frames:   frames,
	}
}

// GetEOD returns close prices, serving repeated requests from the cache.
// A copy is returned so callers may mutate the frame.
func (m *Manager) GetEOD(ctx context.Context, securities []*Security, begin, end time.Time) (*dataframe.DataFrame, error) {
	return m.get(ctx, MetricNAV, securities, begin, end)
}

// GetDividends returns cash dividends, serving repeated requests from the cache
func (m *Manager) GetDividends(ctx context.Context, securities []*Security, begin, end time.Time) (*dataframe.DataFrame, error) {
	return m.get(ctx, MetricDividend, securities, begin, end)
}

func (m *Manager) get(ctx context.Context, metric Metric, securities []*Security, begin, end time.Time) (*dataframe.DataFrame, error) {
	key := frameKey(metric, securities, begin, end)

	m.locker.RLock()
	cached, ok := m.frames.Get(key)
	m.locker.RUnlock()
	if ok {
		return cached.(*dataframe.DataFrame).Copy(), nil
	}

	var df *dataframe.DataFrame
	var err error
	switch metric {
	case MetricNAV:
		df, err = m.provider.GetEOD(ctx, securities, begin, end)
	case MetricDividend:
		df, err = m.provider.GetDividends(ctx, securities, begin, end)
	}
	if err != nil {
		return nil, err
	}

	m.locker.Lock()
	m.frames.Add(key, df)
	m.locker.Unlock()

	return df.Copy(), nil
}

func frameKey(metric Metric, securities []*Security, begin, end time.Time) string {
	tickers := make([]string, 0, len(securities))
	for _, security := range securities {
		tickers = append(tickers, security.Ticker)
	}
	return fmt.Sprintf("%s|%s|%s|%s", metric, strings.Join(tickers, ","),
		begin.Format("2006-01-02"), end.Format("2006-01-02"))
}
