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
	"context"
	"math"
	"time"

	"github.com/GarderesG/PeaManager/data"
	"github.com/rs/zerolog/log"
)

// weightsLookbackDays bounds the price query when searching for the most
// recent quote on or before the requested date
const weightsLookbackDays = 7

// Weights returns the value weight of every open position at `date`, using
// each security's most recent quote on or before that date. Weights sum to
// 1 when the total valuation is positive.
func (pm *Model) Weights(ctx context.Context, date time.Time) (map[data.Security]float64, error) {
	holdings, err := pm.Portfolio.HoldingsAsOf(date)
	if err != nil {
		return nil, err
	}

	if len(holdings) == 0 {
		return map[data.Security]float64{}, nil
	}

	securities := holdings.Securities()
	prices, err := pm.dataProxy.GetEOD(ctx, securities, date.AddDate(0, 0, -weightsLookbackDays), date)
	if err != nil {
		return nil, err
	}

	sharesByTicker := holdings.SharesByTicker()

	amounts := make(map[data.Security]float64, len(securities))
	var total float64
	for _, security := range securities {
		colIdx := prices.ColIndex(security.Ticker)
		_, price := firstLastValid(prices.Vals[colIdx])
		if math.IsNaN(price) {
			log.Error().Stack().Str("Ticker", security.Ticker).Time("Date", date).Msg("no recent quote for security")
			return nil, data.ErrNoData
		}

		amount := price * float64(sharesByTicker[security.Ticker])
		amounts[*security] = amount
		total += amount
	}

	if total <= 0 {
		return nil, ErrDegenerateValuation
	}

	weights := make(map[data.Security]float64, len(amounts))
	for security, amount := range amounts {
		weights[security] = amount / total
	}

	return weights, nil
}
