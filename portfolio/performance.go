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
	"time"

	"github.com/GarderesG/PeaManager/dataframe"
	"github.com/GarderesG/PeaManager/observability/opentelemetry"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Performance holds the since-inception series of a portfolio.
//
// MarketValue and Returns share one gap-free date index (modulo non-trading
// days absent from the price source); the first date of history carries no
// return. GrowthOf1 is the compounded product of (1 + daily return) anchored
// at 1.0 on the inception date.
type Performance struct {
	PortfolioID uuid.UUID            `json:"portfolioID"`
	MarketValue *dataframe.DataFrame `json:"marketValue"`
	Returns     *dataframe.DataFrame `json:"returns"`
	GrowthOf1   *dataframe.DataFrame `json:"growthOf1"`
	ComputedOn  time.Time            `json:"computedOn"`
}

// CalculatePerformance replays the portfolio's history and stitches the
// per-segment series into full-history valuation, daily return, and growth
// factor series ending at `through`.
//
// Segment boundaries are the distinct trade dates plus `through`. Any
// segment failure aborts the whole computation; a value series with silent
// gaps would misstate performance.
func (pm *Model) CalculatePerformance(ctx context.Context, through time.Time) (*Performance, error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "CalculatePerformance")
	defer span.End()

	span.SetAttributes(
		attribute.KeyValue{
			Key:   "through",
			Value: attribute.StringValue(through.Format("2006-01-02")),
		},
	)

	p := pm.Portfolio
	tradeDates := p.TradeDates()
	if len(tradeDates) == 0 {
		log.Error().Stack().Str("PortfolioName", p.Name).Msg("cannot compute performance of portfolio with no transactions")
		return nil, ErrNoTransactions
	}

	if through.Before(tradeDates[0]) {
		log.Error().Stack().Time("Through", through).Time("Inception", tradeDates[0]).Msg("through date precedes inception")
		return nil, ErrTimeInverted
	}

	// boundary dates: every distinct trade date up to `through`, then
	// `through` itself so the final segment runs to the present
	bounds := make([]time.Time, 0, len(tradeDates)+1)
	for _, dt := range tradeDates {
		if dt.After(through) {
			break
		}
		bounds = append(bounds, dt)
	}
	bounds = append(bounds, through)

	values := &dataframe.DataFrame{}
	returns := &dataframe.DataFrame{}

	for i := 1; i < len(bounds); i++ {
		segStart := bounds[i-1]
		segEnd := bounds[i]
		final := i == len(bounds)-1

		holdings, err := p.HoldingsAsOf(segStart)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "transaction replay failed")
			return nil, err
		}

		if len(holdings) == 0 {
			// everything was liquidated before this segment; value and
			// return are undefined until the next purchase
			log.Debug().Time("SegmentBegin", segStart).Time("SegmentEnd", segEnd).Msg("no open positions inside segment")
			continue
		}

		segValues, segReturns, err := computeSegment(ctx, pm.dataProxy, holdings, segStart, segEnd, final)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "segment computation failed")
			return nil, err
		}

		values.Append(segValues)
		returns.Append(segReturns)
	}

	perf := &Performance{
		PortfolioID: p.ID,
		MarketValue: values,
		Returns:     returns,
		GrowthOf1:   growthOf1(tradeDates[0], returns),
		ComputedOn:  time.Now(),
	}

	return perf, nil
}

// growthOf1 prepends a synthetic 1.0 at the inception date and compounds
// (1 + r) into a growth factor series
func growthOf1(inception time.Time, returns *dataframe.DataFrame) *dataframe.DataFrame {
	growth := dataframe.New("growth")
	growth.InsertRow(inception, 1.0)

	if returns.ColIndex(ReturnCol) == -1 {
		return growth
	}

	compounded := returns.AddScalar(1.0).CumProd()
	compounded.ColNames = []string{"growth"}
	return growth.Append(compounded)
}

// MonthlyReturns resamples the growth series to month ends and computes
// month-over-month returns. The first month of history is measured from the
// inception anchor.
func (perf *Performance) MonthlyReturns() *dataframe.DataFrame {
	return perf.GrowthOf1.Frequency(dataframe.MonthEnd).PctChange()
}
