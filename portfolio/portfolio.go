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
	"encoding/hex"
	"errors"
	"time"

	"github.com/GarderesG/PeaManager/data"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/zeebo/blake3"
)

var (
	ErrNoTransactions      = errors.New("portfolio has no transactions")
	ErrInvalidTransaction  = errors.New("sell exceeds held quantity or position does not exist")
	ErrMissingPriceData    = errors.New("price table has no complete rows inside segment")
	ErrDegenerateValuation = errors.New("total portfolio valuation is zero when computing weights")
	ErrTimeInverted        = errors.New("start date occurs after through date")
	ErrPortfolioNotFound   = errors.New("could not find portfolio ID in database")
)

// Portfolio is an account owner's ordered record of buy and sell orders.
// Transactions are sorted ascending by date; same-date orders keep their
// insertion order.
type Portfolio struct {
	ID           uuid.UUID      `json:"id"`
	Name         string         `json:"name"`
	Owner        string         `json:"owner"`
	Transactions []*Transaction `json:"transactions"`
}

// Model binds a portfolio to the price provider used for computations
type Model struct {
	Portfolio *Portfolio

	// private
	dataProxy data.Provider
}

// NewModel creates a computation model for the portfolio
func NewModel(p *Portfolio, provider data.Provider) *Model {
	return &Model{
		Portfolio: p,
		dataProxy: provider,
	}
}

// InceptionDate returns the date of the first transaction
func (p *Portfolio) InceptionDate() time.Time {
	if len(p.Transactions) == 0 {
		return time.Time{}
	}
	return p.Transactions[0].Date
}

// TradeDates returns the distinct transaction dates in ascending order
func (p *Portfolio) TradeDates() []time.Time {
	dates := make([]time.Time, 0, len(p.Transactions))
	var last time.Time
	for _, trx := range p.Transactions {
		if !trx.Date.Equal(last) {
			dates = append(dates, trx.Date)
			last = trx.Date
		}
	}
	return dates
}

// LogVersion computes a digest over the ordered transaction log. Any change
// to the log changes the version, which keys the external series cache.
func (p *Portfolio) LogVersion() string {
	h := blake3.New()
	for _, trx := range p.Transactions {
		if _, err := h.Write([]byte(trx.SourceID)); err != nil {
			log.Error().Stack().Err(err).Msg("could not write source id to blake3 hasher")
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}
