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
	"fmt"
	"sort"
	"strings"
	"time"

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
	attributionCmdBegin string
	attributionCmdEnd   string
)

func init() {
	rootCmd.AddCommand(attributionCmd)

	attributionCmd.Flags().StringVar(&attributionCmdBegin, "begin", "", "Start of the attribution window (YYYY-MM-DD); defaults to the portfolio inception")
	attributionCmd.Flags().StringVar(&attributionCmdEnd, "end", "", "End of the attribution window (YYYY-MM-DD); defaults to today")
}

var attributionCmd = &cobra.Command{
	Use:        "attribution [flags] PortfolioID",
	Short:      "Decompose each instrument's return into price and dividend components",
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

		begin := p.InceptionDate()
		if attributionCmdBegin != "" {
			begin, err = time.Parse("2006-01-02", attributionCmdBegin)
			if err != nil {
				log.Fatal().Err(err).Str("Begin", attributionCmdBegin).Msg("could not parse --begin date")
			}
			begin = common.DateOnly(begin)
		}
		end := parseThrough(attributionCmdEnd)

		pm := portfolio.NewModel(p, data.GetManagerInstance())
		attrib, err := pm.Attribution(ctx, begin, end)
		if err != nil {
			log.Fatal().Stack().Err(err).Msg("could not compute attribution")
		}

		securities := make([]data.Security, 0, len(attrib))
		for security := range attrib {
			securities = append(securities, security)
		}
		sort.Slice(securities, func(i, j int) bool {
			return securities[i].Ticker < securities[j].Ticker
		})

		s := &strings.Builder{}
		table := tablewriter.NewWriter(s)
		table.SetHeader([]string{"Ticker", "ISIN", "Price Return", "Dividend Yield", "Total Return"})
		table.SetBorders(tablewriter.Border{Left: true, Top: true, Right: true, Bottom: true})
		for _, security := range securities {
			a := attrib[security]
			table.Append([]string{
				security.Ticker,
				security.ISIN,
				fmt.Sprintf("%.4f", a.PriceReturn),
				fmt.Sprintf("%.4f", a.DividendYield),
				fmt.Sprintf("%.4f", a.TotalReturn),
			})
		}
		table.Render()

		fmt.Printf("Portfolio: %s (%s)\n", p.Name, p.ID)
		fmt.Printf("Window: %s to %s\n\n", begin.Format("2006-01-02"), end.Format("2006-01-02"))
		fmt.Println(s.String())
	},
}
