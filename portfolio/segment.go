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
	"github.com/GarderesG/PeaManager/dataframe"
	"github.com/rs/zerolog/log"
)

const (
	ValueCol  = "value"
	ReturnCol = "return"
)

// computeSegment computes the valuation and weighted daily return series of
// one holding period. Holdings are constant inside a segment by construction:
// segments are delimited by trade dates.
//
// Rows where any instrument's price is missing are dropped before computing
// returns; cross-sectional weights are ill-posed on a partial row. Weights
// are fixed by the previous day's valuation.
//
// For every segment except the final one the last valuation row is dropped:
// the next segment re-derives it as its own first row, and keeping both
// would double count the stitch point. The return for that date is still
// recorded once.
func computeSegment(ctx context.Context, provider data.Provider, holdings Holdings, begin, end time.Time, final bool) (*dataframe.DataFrame, *dataframe.DataFrame, error) {
	subLog := log.With().Time("SegmentBegin", begin).Time("SegmentEnd", end).Logger()

	securities := holdings.Securities()
	prices, err := provider.GetEOD(ctx, securities, begin, end)
	if err != nil {
		subLog.Error().Err(err).Msg("could not fetch segment prices")
		return nil, nil, err
	}

	// row-wise completeness is required for well-defined weights
	prices.Drop(math.NaN())
	if prices.Len() == 0 {
		subLog.Error().Stack().Msg("no complete price rows inside segment")
		return nil, nil, ErrMissingPriceData
	}

	// align a constant share frame with the price table's column order
	sharesByTicker := holdings.SharesByTicker()
	shares := &dataframe.DataFrame{
		Dates:    prices.Dates,
		ColNames: prices.ColNames,
		Vals:     make([][]float64, len(prices.ColNames)),
	}
	for colIdx, ticker := range prices.ColNames {
		col := make([]float64, prices.Len())
		for rowIdx := range col {
			col[rowIdx] = float64(sharesByTicker[ticker])
		}
		shares.Vals[colIdx] = col
	}

	// V[d] = sum_i price[d][i] * shares[i]
	values := prices.Mul(shares).RowSum()
	values.ColNames = []string{ValueCol}

	// every valuation that serves as a return denominator must be positive
	for rowIdx := 0; rowIdx < values.Len()-1; rowIdx++ {
		if values.Vals[0][rowIdx] <= 0 {
			subLog.Error().Stack().Time("Date", values.Dates[rowIdx+1]).Msg("prior-day valuation is not positive; weights are undefined")
			return nil, nil, ErrDegenerateValuation
		}
	}

	// holdings are constant inside the segment, so the prior-day-valuation
	// weighted instrument return collapses to the valuation's own period
	// return
	returns := values.PctChange()
	returns.ColNames = []string{ReturnCol}

	if !final {
		values = values.Trim(values.Start(), values.End().AddDate(0, 0, -1))
	}

	return values, returns, nil
}
