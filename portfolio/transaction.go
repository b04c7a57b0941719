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
	"encoding/binary"
	"encoding/hex"
	"math"
	"time"

	"github.com/GarderesG/PeaManager/data"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/zeebo/blake3"
)

const (
	BuyTransaction  = "BUY"
	SellTransaction = "SELL"
)

// Transaction is one immutable buy or sell order. Shares is a whole number
// of securities; TotalFee is the brokerage fee for the full order.
type Transaction struct {
	ID            uuid.UUID `json:"id"`
	SourceID      string    `json:"sourceID"`
	Date          time.Time `json:"date"`
	Ticker        string    `json:"ticker"`
	ISIN          string    `json:"isin"`
	Kind          string    `json:"kind"`
	Shares        int64     `json:"shares"`
	PricePerShare float64   `json:"pricePerShare"`
	TotalFee      float64   `json:"totalFee"`
}

// Security returns the security associated with the transaction
func (trx *Transaction) Security() data.Security {
	return data.Security{
		Ticker: trx.Ticker,
		ISIN:   trx.ISIN,
	}
}

// NewTransaction creates a transaction and assigns its ID and SourceID
func NewTransaction(date time.Time, security data.Security, kind string, shares int64, pricePerShare, totalFee float64) (*Transaction, error) {
	trx := &Transaction{
		ID:            uuid.New(),
		Date:          date,
		Ticker:        security.Ticker,
		ISIN:          security.ISIN,
		Kind:          kind,
		Shares:        shares,
		PricePerShare: pricePerShare,
		TotalFee:      totalFee,
	}

	if err := computeTransactionSourceID(trx); err != nil {
		log.Warn().Stack().Err(err).Time("TransactionDate", date).Str("TransactionTicker", security.Ticker).Str("TransactionType", kind).Msg("couldn't compute SourceID for transaction")
		return nil, err
	}

	return trx, nil
}

// computeTransactionSourceID assigns a deterministic digest of the
// transaction's identifying fields; reimporting the same order always yields
// the same SourceID
func computeTransactionSourceID(trx *Transaction) error {
	h := blake3.New()

	d, err := trx.Date.UTC().MarshalText()
	if err != nil {
		return err
	}

	if _, err := h.Write(d); err != nil {
		log.Error().Stack().Err(err).Msg("could not write date to blake3 hasher")
		return err
	}

	if _, err := h.Write([]byte(trx.ISIN)); err != nil {
		log.Error().Stack().Err(err).Msg("could not write isin to blake3 hasher")
		return err
	}

	if _, err := h.Write([]byte(trx.Ticker)); err != nil {
		log.Error().Stack().Err(err).Msg("could not write ticker to blake3 hasher")
		return err
	}

	if _, err := h.Write([]byte(trx.Kind)); err != nil {
		log.Error().Stack().Err(err).Msg("could not write kind to blake3 hasher")
		return err
	}

	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(trx.Shares))
	if _, err := h.Write(buf); err != nil {
		log.Error().Stack().Err(err).Msg("could not write shares to blake3 hasher")
		return err
	}

	binary.BigEndian.PutUint64(buf, math.Float64bits(trx.PricePerShare))
	if _, err := h.Write(buf); err != nil {
		log.Error().Stack().Err(err).Msg("could not write price to blake3 hasher")
		return err
	}

	binary.BigEndian.PutUint64(buf, math.Float64bits(trx.TotalFee))
	if _, err := h.Write(buf); err != nil {
		log.Error().Stack().Err(err).Msg("could not write fee to blake3 hasher")
		return err
	}

	trx.SourceID = hex.EncodeToString(h.Sum(nil))
	return nil
}
