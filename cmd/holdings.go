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
	"strings"

	"github.com/GarderesG/PeaManager/common"
	"github.com/GarderesG/PeaManager/data"
	"github.com/GarderesG/PeaManager/data/database"
	"github.com/GarderesG/PeaManager/portfolio"
	"github.com/google/uuid"
	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog/log"

	"github.com/spf13/cobra"
)

var (
	holdingsCmdAsOf    string
	holdingsCmdWeights bool
)

func init() {
	rootCmd.AddCommand(holdingsCmd)

	holdingsCmd.Flags().StringVar(&holdingsCmdAsOf, "as-of", "", "Replay the order log through the given date (YYYY-MM-DD); defaults to today")
	holdingsCmd.Flags().BoolVar(&holdingsCmdWeights, "weights", false, "Also value the holdings and print portfolio weights")
}

var holdingsCmd = &cobra.Command{
	Use:        "holdings [flags] PortfolioID",
	Short:      "Print the open positions of a portfolio as of a date",
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

		p, err := portfolio.LoadPortfolio(ctx, portfolioID)
		if err != nil {
			log.Fatal().Err(err).Msg("could not load portfolio from DB")
		}

		asOf := parseThrough(holdingsCmdAsOf)
		holdings, err := p.HoldingsAsOf(asOf)
		if err != nil {
			log.Fatal().Stack().Err(err).Msg("could not replay order log")
		}

		var weights map[data.Security]float64
		if holdingsCmdWeights {
			pm := portfolio.NewModel(p, data.GetManagerInstance())
			weights, err = pm.Weights(ctx, asOf)
			if err != nil && !errors.Is(err, portfolio.ErrNoTransactions) {
				log.Fatal().Stack().Err(err).Msg("could not compute portfolio weights")
			}
		}

		s := &strings.Builder{}
		table := tablewriter.NewWriter(s)
		header := []string{"Ticker", "ISIN", "Shares", "Average Cost"}
		if holdingsCmdWeights {
			header = append(header, "Weight")
		}
		table.SetHeader(header)
		table.SetBorders(tablewriter.Border{Left: true, Top: true, Right: true, Bottom: true})
		for _, security := range holdings.Securities() {
			pos := holdings[*security]
			r := []string{
				security.Ticker,
				security.ISIN,
				fmt.Sprintf("%d", pos.Shares),
				fmt.Sprintf("%.2f", pos.AverageCost),
			}
			if holdingsCmdWeights {
				r = append(r, fmt.Sprintf("%.4f", weights[*security]))
			}
			table.Append(r)
		}
		table.Render()

		fmt.Printf("Portfolio: %s (%s)\n", p.Name, p.ID)
		fmt.Printf("As of: %s\n\n", asOf.Format("2006-01-02"))
		fmt.Println(s.String())
	},
}
