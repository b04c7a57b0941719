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

	"github.com/GarderesG/PeaManager/data/database"
	"github.com/rs/zerolog/log"
)

// Security represents a tradeable asset. The ISIN is the canonical identifier
// for PEA eligible instruments; the ticker is what quote sources key on.
type Security struct {
	Ticker string `json:"ticker"`
	ISIN   string `json:"isin"`
}

// Category of tradeable assets tracked by the system
type Category string

const (
	CategoryStock    Category = "Stock"
	CategoryIndex    Category = "Index"
	CategoryETF      Category = "ETF"
	CategoryETFShare Category = "ETFShare"
)

// SecurityDetail carries the descriptive fields of a security that are not
// part of its identity
type SecurityDetail struct {
	Security Security
	Name     string
	Category Category
}

var (
	securitiesByISIN   = map[string]*SecurityDetail{}
	securitiesByTicker = map[string]*SecurityDetail{}
)

// LoadSecuritiesFromDB populates the in-memory security registry from the
// securities table
func LoadSecuritiesFromDB(ctx context.Context) error {
	trx, err := database.Trx(ctx)
	if err != nil {
		log.Error().Stack().Err(err).Msg("could not get transaction when creating securities list")
		return err
	}

	rows, err := trx.Query(ctx, "SELECT ticker, isin, name, category FROM securities")
	if err != nil {
		log.Error().Err(err).Msg("could not query securities from database")
		if err := trx.Rollback(ctx); err != nil {
			log.Error().Stack().Err(err).Msg("could not rollback transaction")
		}
		return err
	}

	for rows.Next() {
		var ticker, isin, name, category string
		if err := rows.Scan(&ticker, &isin, &name, &category); err != nil {
			log.Error().Err(err).Msg("could not scan database results")
			if err := trx.Rollback(ctx); err != nil {
				log.Error().Stack().Err(err).Msg("could not rollback transaction")
			}
			return err
		}

		s := &SecurityDetail{
			Security: Security{Ticker: ticker, ISIN: isin},
			Name:     name,
			Category: Category(category),
		}

		securitiesByISIN[isin] = s
		securitiesByTicker[ticker] = s
	}

	if err := trx.Commit(ctx); err != nil {
		log.Warn().Stack().Err(err).Msg("could not commit transaction")
	}

	return nil
}

// SecurityFromISIN looks up a security using the ISIN as the lookup key
func SecurityFromISIN(isin string) (*SecurityDetail, error) {
	if s, ok := securitiesByISIN[isin]; ok {
		return s, nil
	}
	return nil, ErrNotFound
}

// SecurityFromTicker looks up a security using the ticker as the lookup key
func SecurityFromTicker(ticker string) (*SecurityDetail, error) {
	if s, ok := securitiesByTicker[ticker]; ok {
		return s, nil
	}
	return nil, ErrNotFound
}
