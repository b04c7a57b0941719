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

	"github.com/GarderesG/PeaManager/common"
	"github.com/GarderesG/PeaManager/data/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog/log"
)

// LoadPortfolio reads a portfolio and its ordered transaction log from the
// database. Orders come back ascending by date with same-date ties broken by
// their sequence number, which is the ordering the replay depends on.
func LoadPortfolio(ctx context.Context, portfolioID uuid.UUID) (*Portfolio, error) {
	subLog := log.With().Str("PortfolioID", portfolioID.String()).Logger()

	trx, err := database.Trx(ctx)
	if err != nil {
		subLog.Error().Stack().Err(err).Msg("could not get transaction when loading portfolio")
		return nil, err
	}

	p := &Portfolio{
		ID:           portfolioID,
		Transactions: []*Transaction{},
	}

	row := trx.QueryRow(ctx, "SELECT name, owner FROM portfolios WHERE id=$1", portfolioID)
	if err := row.Scan(&p.Name, &p.Owner); err != nil {
		if err == pgx.ErrNoRows {
			subLog.Error().Msg("portfolio not found")
			if err := trx.Rollback(ctx); err != nil {
				subLog.Error().Stack().Err(err).Msg("could not rollback transaction")
			}
			return nil, ErrPortfolioNotFound
		}
		subLog.Error().Stack().Err(err).Msg("could not scan portfolio row")
		if err := trx.Rollback(ctx); err != nil {
			subLog.Error().Stack().Err(err).Msg("could not rollback transaction")
		}
		return nil, err
	}

	rows, err := trx.Query(ctx,
		"SELECT id, event_date, ticker, isin, direction, shares, price_per_share, total_fee FROM portfolio_orders WHERE portfolio_id=$1 ORDER BY event_date, seq_num",
		portfolioID)
	if err != nil {
		subLog.Error().Stack().Err(err).Msg("could not query portfolio orders")
		if err := trx.Rollback(ctx); err != nil {
			subLog.Error().Stack().Err(err).Msg("could not rollback transaction")
		}
		return nil, err
	}

	for rows.Next() {
		t := &Transaction{}
		if err := rows.Scan(&t.ID, &t.Date, &t.Ticker, &t.ISIN, &t.Kind, &t.Shares, &t.PricePerShare, &t.TotalFee); err != nil {
			subLog.Error().Stack().Err(err).Msg("could not scan order row")
			if err := trx.Rollback(ctx); err != nil {
				subLog.Error().Stack().Err(err).Msg("could not rollback transaction")
			}
			return nil, err
		}

		t.Date = common.DateOnly(t.Date)
		if err := computeTransactionSourceID(t); err != nil {
			subLog.Warn().Stack().Err(err).Time("TransactionDate", t.Date).Str("TransactionTicker", t.Ticker).Msg("couldn't compute SourceID for transaction")
		}
		p.Transactions = append(p.Transactions, t)
	}

	if err := trx.Commit(ctx); err != nil {
		subLog.Warn().Stack().Err(err).Msg("could not commit transaction")
	}

	return p, nil
}

// SavePortfolio writes the portfolio and its transaction log to the
// database. Existing orders are left untouched; the order log is append
// only and rows are keyed by their transaction id.
func SavePortfolio(ctx context.Context, p *Portfolio) error {
	subLog := log.With().Str("PortfolioID", p.ID.String()).Str("PortfolioName", p.Name).Logger()

	trx, err := database.Trx(ctx)
	if err != nil {
		subLog.Error().Stack().Err(err).Msg("could not get transaction when saving portfolio")
		return err
	}

	_, err = trx.Exec(ctx,
		"INSERT INTO portfolios (id, name, owner) VALUES ($1, $2, $3) ON CONFLICT (id) DO UPDATE SET name=$2, owner=$3",
		p.ID, p.Name, p.Owner)
	if err != nil {
		subLog.Error().Stack().Err(err).Msg("could not upsert portfolio row")
		if err := trx.Rollback(ctx); err != nil {
			subLog.Error().Stack().Err(err).Msg("could not rollback transaction")
		}
		return err
	}

	for seq, t := range p.Transactions {
		_, err = trx.Exec(ctx,
			"INSERT INTO portfolio_orders (id, portfolio_id, seq_num, event_date, ticker, isin, direction, shares, price_per_share, total_fee) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) ON CONFLICT (id) DO NOTHING",
			t.ID, p.ID, seq, t.Date, t.Ticker, t.ISIN, t.Kind, t.Shares, t.PricePerShare, t.TotalFee)
		if err != nil {
			subLog.Error().Stack().Err(err).Time("TransactionDate", t.Date).Str("TransactionTicker", t.Ticker).Msg("could not insert order row")
			if err := trx.Rollback(ctx); err != nil {
				subLog.Error().Stack().Err(err).Msg("could not rollback transaction")
			}
			return err
		}
	}

	if err := trx.Commit(ctx); err != nil {
		subLog.Error().Stack().Err(err).Msg("could not commit transaction")
		return err
	}

	return nil
}

// ListPortfolios returns the id, name and owner of every stored portfolio
func ListPortfolios(ctx context.Context) ([]*Portfolio, error) {
	trx, err := database.Trx(ctx)
	if err != nil {
		log.Error().Stack().Err(err).Msg("could not get transaction when listing portfolios")
		return nil, err
	}

	rows, err := trx.Query(ctx, "SELECT id, name, owner FROM portfolios ORDER BY owner, name")
	if err != nil {
		log.Error().Stack().Err(err).Msg("could not query portfolios")
		if err := trx.Rollback(ctx); err != nil {
			log.Error().Stack().Err(err).Msg("could not rollback transaction")
		}
		return nil, err
	}

	portfolios := make([]*Portfolio, 0, 8)
	for rows.Next() {
		p := &Portfolio{}
		if err := rows.Scan(&p.ID, &p.Name, &p.Owner); err != nil {
			log.Error().Stack().Err(err).Msg("could not scan portfolio row")
			if err := trx.Rollback(ctx); err != nil {
				log.Error().Stack().Err(err).Msg("could not rollback transaction")
			}
			return nil, err
		}
		portfolios = append(portfolios, p)
	}

	if err := trx.Commit(ctx); err != nil {
		log.Warn().Stack().Err(err).Msg("could not commit transaction")
	}

	return portfolios, nil
}
