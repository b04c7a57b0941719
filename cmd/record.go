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

package cmd

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/GarderesG/PeaManager/common"
	"github.com/GarderesG/PeaManager/data"
	"github.com/GarderesG/PeaManager/data/database"
	"github.com/GarderesG/PeaManager/portfolio"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/spf13/cobra"
)

var (
	recordCmdDate   string
	recordCmdTicker string
	recordCmdSell   bool
	recordCmdShares int64
	recordCmdPrice  float64
	recordCmdFee    float64
)

func init() {
	rootCmd.AddCommand(recordCmd)

	recordCmd.Flags().StringVar(&recordCmdDate, "date", "", "Trade date (YYYY-MM-DD); defaults to today")
	recordCmd.Flags().StringVar(&recordCmdTicker, "ticker", "", "Ticker of the traded security")
	recordCmd.Flags().BoolVar(&recordCmdSell, "sell", false, "Record a sale instead of a purchase")
	recordCmd.Flags().Int64Var(&recordCmdShares, "shares", 0, "Number of shares traded")
	recordCmd.Flags().Float64Var(&recordCmdPrice, "price", 0, "Price per share")
	recordCmd.Flags().Float64Var(&recordCmdFee, "fee", 0, "Total fee charged by the broker")

	recordCmd.MarkFlagRequired("ticker")
	recordCmd.MarkFlagRequired("shares")
	recordCmd.MarkFlagRequired("price")
}

var recordCmd = &cobra.Command{
	Use:        "record [flags] PortfolioID",
	Short:      "Record a buy or sell order in a portfolio's event log",
	Args:       cobra.ExactArgs(1),
	ArgAliases: []string{"PortfolioID"},
	Run: func(cmd *cobra.Command, args []string) {
		common.SetupLogging()
		ctx := context.Background()

		if err := database.Connect(ctx); err != nil {
			log.Fatal().Err(err).Msg("could not connect to database")
		}

		portfolioID, err := uuid.Parse(args[0])
		if err != nil {
			log.Fatal().Err(err).Str("PortfolioID", args[0]).Msg("could not parse portfolio id")
		}

		if err := data.LoadSecuritiesFromDB(ctx); err != nil {
			log.Fatal().Err(err).Msg("could not load securities registry")
		}
		detail, err := data.SecurityFromTicker(recordCmdTicker)
		if err != nil {
			log.Fatal().Err(err).Str("Ticker", recordCmdTicker).Msg("unknown security")
		}

		p, err := portfolio.LoadPortfolio(ctx, portfolioID)
		if err != nil {
			log.Fatal().Err(err).Msg("could not load portfolio from DB")
		}

		date := parseThrough(recordCmdDate)
		kind := portfolio.BuyTransaction
		if recordCmdSell {
			kind = portfolio.SellTransaction
		}

		trx, err := portfolio.NewTransaction(date, detail.Security, kind, recordCmdShares, recordCmdPrice, recordCmdFee)
		if err != nil {
			log.Fatal().Err(err).Msg("could not create transaction")
		}

		p.Transactions = append(p.Transactions, trx)
		sort.SliceStable(p.Transactions, func(i, j int) bool {
			return p.Transactions[i].Date.Before(p.Transactions[j].Date)
		})

		// replay the full log before persisting; an order that breaks the
		// accounting (e.g. an oversell) is rejected here
		lastDate := p.Transactions[len(p.Transactions)-1].Date
		if _, err := p.HoldingsAsOf(lastDate); err != nil {
			if errors.Is(err, portfolio.ErrInvalidTransaction) {
				log.Fatal().Err(err).Msg("order rejected: it would sell more shares than held")
			}
			log.Fatal().Err(err).Msg("could not replay order log")
		}

		if err := portfolio.SavePortfolio(ctx, p); err != nil {
			log.Fatal().Err(err).Msg("could not save portfolio")
		}

		fmt.Printf("Recorded %s %d %s @ %.2f (fee %.2f) on %s\n",
			kind, recordCmdShares, detail.Security.Ticker, recordCmdPrice, recordCmdFee,
			date.Format("2006-01-02"))
	},
}
