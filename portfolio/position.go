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
	"sort"
	"time"

	"github.com/GarderesG/PeaManager/data"
	"github.com/rs/zerolog/log"
)

// Position is one security's open quantity and average cost basis. The
// average cost (the French "PRU") is the per-share price at which the total
// investment, fees included, breaks even. It is 0 whenever Shares is 0.
type Position struct {
	Security    data.Security `json:"security"`
	Shares      int64         `json:"shares"`
	AverageCost float64       `json:"averageCost"`
}

// Holdings is the portfolio inventory as of a specific date; only open
// positions (Shares > 0) are present
type Holdings map[data.Security]*Position

// Securities returns the held securities sorted by ticker so that derived
// price tables have a deterministic column order
func (h Holdings) Securities() []*data.Security {
	securities := make([]*data.Security, 0, len(h))
	for k := range h {
		security := k
		securities = append(securities, &security)
	}
	sort.Slice(securities, func(i, j int) bool { return securities[i].Ticker < securities[j].Ticker })
	return securities
}

// HoldingsAsOf replays the transaction log filtered to date <= asOf and
// returns the resulting inventory. It is a pure function of the log prefix:
// calling it twice always yields identical holdings.
//
// A SELL with no open position, or for more shares than held, returns
// ErrInvalidTransaction; the accounting identity breaks down on an oversell
// so it is rejected rather than clamped.
func (p *Portfolio) HoldingsAsOf(asOf time.Time) (Holdings, error) {
	holdings := make(Holdings)

	for _, trx := range p.Transactions {
		if trx.Date.After(asOf) {
			break
		}

		security := trx.Security()
		pos := holdings[security]

		switch trx.Kind {
		case BuyTransaction:
			if pos == nil {
				holdings[security] = &Position{
					Security:    security,
					Shares:      trx.Shares,
					AverageCost: (float64(trx.Shares)*trx.PricePerShare + trx.TotalFee) / float64(trx.Shares),
				}
				continue
			}

			// blend the cost basis before updating the quantity
			pos.AverageCost = (pos.AverageCost*float64(pos.Shares) + float64(trx.Shares)*trx.PricePerShare + trx.TotalFee) / float64(pos.Shares+trx.Shares)
			pos.Shares += trx.Shares

		case SellTransaction:
			if pos == nil || trx.Shares > pos.Shares {
				log.Error().Stack().Str("Ticker", trx.Ticker).Time("Date", trx.Date).Int64("Shares", trx.Shares).Msg("sell exceeds held quantity")
				return nil, ErrInvalidTransaction
			}

			if trx.Shares == pos.Shares {
				// full liquidation; the exit fee hits realized PnL, not the
				// cost basis of a position that no longer exists
				delete(holdings, security)
				continue
			}

			pos.AverageCost = (pos.AverageCost*float64(pos.Shares) - float64(trx.Shares)*trx.PricePerShare + trx.TotalFee) / float64(pos.Shares-trx.Shares)
			pos.Shares -= trx.Shares
		}
	}

	return holdings, nil
}

// SharesByTicker flattens holdings into a ticker keyed quantity map
func (h Holdings) SharesByTicker() map[string]int64 {
	shares := make(map[string]int64, len(h))
	for security, pos := range h {
		shares[security.Ticker] = pos.Shares
	}
	return shares
}
