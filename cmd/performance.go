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
	"time"

	"github.com/GarderesG/PeaManager/common"
	"github.com/GarderesG/PeaManager/data"
	"github.com/GarderesG/PeaManager/data/database"
	"github.com/GarderesG/PeaManager/observability/opentelemetry"
	"github.com/GarderesG/PeaManager/portfolio"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/spf13/cobra"
)

var (
	performanceCmdThrough string
	performanceCmdMonthly bool
	performanceCmdNoCache bool
)

func init() {
	rootCmd.AddCommand(performanceCmd)

	performanceCmd.Flags().StringVar(&performanceCmdThrough, "through", "", "Compute performance through the given date (YYYY-MM-DD); defaults to today")
	performanceCmd.Flags().BoolVar(&performanceCmdMonthly, "monthly", false, "Print month-end returns instead of the daily series")
	performanceCmd.Flags().BoolVar(&performanceCmdNoCache, "no-cache", false, "Ignore any cached series and recompute")
}

// parseThrough resolves the optional --through flag, defaulting to today
func parseThrough(flag string) time.Time {
	if flag == "" {
		return common.Today()
	}
	through, err := time.Parse("2006-01-02", flag)
	if err != nil {
		log.Fatal().Err(err).Str("Through", flag).Msg("could not parse --through date")
	}
	return common.DateOnly(through)
}

var performanceCmd = &cobra.Command{
	Use:        "performance [flags] PortfolioID",
	Short:      "Compute the valuation, return and growth-of-1 series of a portfolio",
	Args:       cobra.ExactArgs(1),
	ArgAliases: []string{"PortfolioID"},
	Run: func(cmd *cobra.Command, args []string) {
		common.SetupLogging()
		common.SetupCache()
		ctx := context.Background()

		shutdown, err := opentelemetry.Setup()
		if err != nil {
			log.Warn().Err(err).Msg("could not initialize tracing")
		} else {
			defer func() {
				if err := shutdown(ctx); err != nil {
					log.Warn().Err(err).Msg("could not shutdown tracing")
				}
			}()
		}

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

		through := parseThrough(performanceCmdThrough)

		var perf *portfolio.Performance
		if !performanceCmdNoCache {
			if cached, ok := portfolio.CachedPerformance(p, through); ok {
				log.Info().Str("PortfolioID", portfolioID.String()).Msg("using cached performance")
				perf = cached
			}
		}

		if perf == nil {
			pm := portfolio.NewModel(p, data.GetManagerInstance())
			perf, err = pm.CalculatePerformance(ctx, through)
			if err != nil {
				log.Fatal().Stack().Err(err).Msg("could not calculate portfolio performance")
			}
			if err := portfolio.StorePerformance(p, perf, through); err != nil {
				log.Warn().Stack().Err(err).Msg("could not cache performance")
			}
		}

		fmt.Printf("Portfolio: %s (%s)\n", p.Name, p.ID)
		fmt.Printf("Inception: %s\n\n", p.InceptionDate().Format("2006-01-02"))

		if performanceCmdMonthly {
			monthly := perf.MonthlyReturns().MulScalar(100)
			monthly.ColNames = []string{"return %"}
			fmt.Println(monthly.Table())
			return
		}

		fmt.Println(perf.MarketValue.Table())
		fmt.Println(perf.Returns.Table())
		fmt.Println(perf.GrowthOf1.Table())
	},
}
