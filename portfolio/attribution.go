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
	"github.com/GarderesG/PeaManager/observability/opentelemetry"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

// Attribution splits one instrument's return over a window into price
// appreciation and dividend yield.
//
// The decomposition is additive and approximate: dividends are not
// compounded at their payment date, and the yield denominator is the
// window-start price even for instruments that entered the portfolio
// mid-window. Callers should treat TotalReturn as indicative, not exact.
type Attribution struct {
	PriceReturn   float64 `json:"priceReturn"`
	DividendYield float64 `json:"dividendYield"`
	TotalReturn   float64 `json:"totalReturn"`
}

// Attribution decomposes the return of every instrument relevant to the
// window [begin, end]: instruments held at `begin` plus instruments traded
// strictly inside (begin, end]. The latter captures positions that entered
// or exited mid-window.
func (pm *Model) Attribution(ctx context.Context, begin, end time.Time) (map[data.Security]Attribution, error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "Attribution")
	defer span.End()

	subLog := log.With().Time("WindowBegin", begin).Time("WindowEnd", end).Logger()

	if end.Before(begin) {
		subLog.Error().Stack().Msg("attribution window is inverted")
		return nil, ErrTimeInverted
	}

	p := pm.Portfolio
	holdings, err := p.HoldingsAsOf(begin)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transaction replay failed")
		return nil, err
	}

	universe := make(map[data.Security]bool, len(holdings))
	for security := range holdings {
		universe[security] = true
	}
	for _, trx := range p.Transactions {
		if trx.Date.After(begin) && !trx.Date.After(end) {
			universe[trx.Security()] = true
		}
	}

	if len(universe) == 0 {
		return map[data.Security]Attribution{}, nil
	}

	asHoldings := make(Holdings, len(universe))
	for security := range universe {
		asHoldings[security] = &Position{Security: security}
	}
	securities := asHoldings.Securities()

	prices, err := pm.dataProxy.GetEOD(ctx, securities, begin, end)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "could not fetch window prices")
		return nil, err
	}

	dividends, err := pm.dataProxy.GetDividends(ctx, securities, begin, end)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "could not fetch window dividends")
		return nil, err
	}

	res := make(map[data.Security]Attribution, len(securities))
	for _, security := range securities {
		colIdx := prices.ColIndex(security.Ticker)
		if colIdx == -1 {
			subLog.Error().Stack().Str("Ticker", security.Ticker).Msg("price table has no column for security")
			return nil, data.ErrNoData
		}

		startPrice, endPrice := firstLastValid(prices.Vals[colIdx])
		if math.IsNaN(startPrice) {
			subLog.Error().Stack().Str("Ticker", security.Ticker).Msg("no usable price inside attribution window")
			return nil, data.ErrNoData
		}
		if startPrice == 0 {
			subLog.Error().Stack().Str("Ticker", security.Ticker).Msg("window-start price is zero; yield is undefined")
			return nil, ErrDegenerateValuation
		}

		// dividends paid strictly after the window start
		var paid float64
		divIdx := dividends.ColIndex(security.Ticker)
		if divIdx != -1 {
			for rowIdx, date := range dividends.Dates {
				if date.After(begin) {
					paid += dividends.Vals[divIdx][rowIdx]
				}
			}
		}

		priceReturn := endPrice/startPrice - 1.0
		dividendYield := paid / startPrice

		res[*security] = Attribution{
			PriceReturn:   priceReturn,
			DividendYield: dividendYield,
			TotalReturn:   priceReturn + dividendYield,
		}
	}

	return res, nil
}

// InstrumentReturn computes the close-to-close return of a single security
// over [begin, end], using the first and last quotes available inside the
// window
func (pm *Model) InstrumentReturn(ctx context.Context, security data.Security, begin, end time.Time) (float64, error) {
	prices, err := pm.dataProxy.GetEOD(ctx, []*data.Security{&security}, begin, end)
	if err != nil {
		return 0, err
	}

	colIdx := prices.ColIndex(security.Ticker)
	if colIdx == -1 {
		return 0, data.ErrNoData
	}

	startPrice, endPrice := firstLastValid(prices.Vals[colIdx])
	if math.IsNaN(startPrice) || startPrice == 0 {
		return 0, data.ErrNoData
	}

	return endPrice/startPrice - 1.0, nil
}

// firstLastValid returns the first and last non-NaN values of col; NaN, NaN
// when the column has no valid cell
func firstLastValid(col []float64) (float64, float64) {
	first := math.NaN()
	last := math.NaN()
	for _, v := range col {
		if math.IsNaN(v) {
			continue
		}
		if math.IsNaN(first) {
			first = v
		}
		last = v
	}
	return first, last
}
