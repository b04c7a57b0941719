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
	"time"

	"github.com/GarderesG/PeaManager/dataframe"
)

// Metric names the time series tracked per security. They match the `field`
// column of the financial_data table.
type Metric string

const (
	MetricNAV      Metric = "NAV"
	MetricDividend Metric = "Dividends"
)

// Provider supplies close price and dividend tables for a set of securities
// over a date range. Implementations batch one query per call; callers should
// request whole segments rather than single dates.
type Provider interface {
	// GetEOD returns a date-indexed close price table with one column per
	// security ticker. Cells where a security did not trade are NaN. Returns
	// ErrNoData when any requested security has zero rows in range.
	GetEOD(ctx context.Context, securities []*Security, begin, end time.Time) (*dataframe.DataFrame, error)

	// GetDividends returns a date-indexed table of cash dividend amounts with
	// one column per security ticker, zero-filled where no dividend was paid.
	// Absence of dividends is not an error.
	GetDividends(ctx context.Context, securities []*Security, begin, end time.Time) (*dataframe.DataFrame, error)
}
