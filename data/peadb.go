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
	"math"
	"sort"
	"time"

	"github.com/GarderesG/PeaManager/common"
	"github.com/GarderesG/PeaManager/data/database"
	"github.com/GarderesG/PeaManager/dataframe"
	"github.com/GarderesG/PeaManager/observability/opentelemetry"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

// PeaDb is a Provider that reads the financial_data table. Rows are keyed by
// (isin, event_date, field) where field is NAV or Dividends, mirroring the
// layout populated by the quote import job.
type PeaDb struct {
}

// NewPeaDb creates a new PeaDb data provider
func NewPeaDb() *PeaDb {
	return &PeaDb{}
}

// GetEOD fetches close prices from the database. Missing cells are NaN; a
// security with no rows at all in the range is an error.
func (p *PeaDb) GetEOD(ctx context.Context, securities []*Security, begin, end time.Time) (*dataframe.DataFrame, error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "peadb.GetEOD")
	defer span.End()

	subLog := log.With().Time("Begin", begin).Time("End", end).Logger()

	cells, dates, err := p.query(ctx, securities, MetricNAV, begin, end)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "database query failed")
		return nil, err
	}

	for _, security := range securities {
		if len(cells[security.ISIN]) == 0 {
			span.SetStatus(codes.Error, "no price rows for security")
			subLog.Error().Stack().Str("Ticker", security.Ticker).Str("ISIN", security.ISIN).Msg("no price rows for security in range")
			return nil, ErrNoData
		}
	}

	return buildFrame(securities, dates, cells, math.NaN()), nil
}

// GetDividends fetches cash dividends from the database. The returned table
// is zero-filled; securities that paid nothing in the range simply have an
// all-zero column.
func (p *PeaDb) GetDividends(ctx context.Context, securities []*Security, begin, end time.Time) (*dataframe.DataFrame, error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "peadb.GetDividends")
	defer span.End()

	cells, dates, err := p.query(ctx, securities, MetricDividend, begin, end)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "database query failed")
		return nil, err
	}

	return buildFrame(securities, dates, cells, 0), nil
}

func (p *PeaDb) query(ctx context.Context, securities []*Security, metric Metric, begin, end time.Time) (map[string]map[time.Time]float64, []time.Time, error) {
	subLog := log.With().Time("Begin", begin).Time("End", end).Str("Metric", string(metric)).Logger()

	if end.Before(begin) {
		subLog.Warn().Stack().Msg("end before begin in call to peadb query")
		return nil, nil, ErrInvalidTimeRange
	}

	if len(securities) == 0 {
		subLog.Warn().Stack().Msg("no securities requested")
		return nil, nil, ErrEmptyUniverse
	}

	isins := make([]string, 0, len(securities))
	for _, security := range securities {
		isins = append(isins, security.ISIN)
	}

	trx, err := database.Trx(ctx)
	if err != nil {
		subLog.Error().Stack().Err(err).Msg("could not get transaction when querying financial data")
		return nil, nil, err
	}

	rows, err := trx.Query(ctx,
		"SELECT isin, event_date, value FROM financial_data WHERE isin = ANY($1) AND field = $2 AND event_date BETWEEN $3 AND $4 ORDER BY event_date",
		isins, string(metric), begin, end)
	if err != nil {
		subLog.Error().Stack().Err(err).Msg("could not query financial data")
		if err := trx.Rollback(ctx); err != nil {
			subLog.Error().Stack().Err(err).Msg("could not rollback transaction")
		}
		return nil, nil, err
	}

	cells := make(map[string]map[time.Time]float64, len(securities))
	dateSet := make(map[time.Time]bool)

	for rows.Next() {
		var isin string
		var dt time.Time
		var value float64
		if err := rows.Scan(&isin, &dt, &value); err != nil {
			subLog.Error().Stack().Err(err).Msg("could not scan database result")
			if err := trx.Rollback(ctx); err != nil {
				subLog.Error().Stack().Err(err).Msg("could not rollback transaction")
			}
			return nil, nil, err
		}

		dt = common.DateOnly(dt)
		if _, ok := cells[isin]; !ok {
			cells[isin] = make(map[time.Time]float64)
		}
		cells[isin][dt] = value
		dateSet[dt] = true
	}

	if err := trx.Commit(ctx); err != nil {
		subLog.Warn().Stack().Err(err).Msg("could not commit transaction")
	}

	dates := make([]time.Time, 0, len(dateSet))
	for dt := range dateSet {
		dates = append(dates, dt)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	return cells, dates, nil
}

func buildFrame(securities []*Security, dates []time.Time, cells map[string]map[time.Time]float64, fill float64) *dataframe.DataFrame {
	df := &dataframe.DataFrame{
		Dates:    dates,
		ColNames: make([]string, 0, len(securities)),
		Vals:     make([][]float64, 0, len(securities)),
	}

	for _, security := range securities {
		col := make([]float64, len(dates))
		for idx, dt := range dates {
			if v, ok := cells[security.ISIN][dt]; ok {
				col[idx] = v
			} else {
				col[idx] = fill
			}
		}
		df.ColNames = append(df.ColNames, security.Ticker)
		df.Vals = append(df.Vals, col)
	}

	return df
}
