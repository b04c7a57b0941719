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

package portfolio_test

import (
	"context"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/GarderesG/PeaManager/data"
	"github.com/GarderesG/PeaManager/portfolio"
)

var _ = Describe("Performance cache", func() {
	var (
		cw8      data.Security
		p        *portfolio.Portfolio
		pm       *portfolio.Model
		provider *fakeProvider
	)

	day := func(d int) time.Time {
		return time.Date(2024, time.January, d, 0, 0, 0, 0, time.UTC)
	}

	BeforeEach(func() {
		cw8 = data.Security{Ticker: "CW8", ISIN: "LU1681043599"}
		provider = &fakeProvider{
			prices: map[string]map[time.Time]float64{
				"CW8": {day(2): 100, day(3): 102, day(4): 104},
			},
			dividends: map[string]map[time.Time]float64{},
		}

		trx, err := portfolio.NewTransaction(day(2), cw8, portfolio.BuyTransaction, 1, 100, 0)
		Expect(err).To(BeNil())
		p = &portfolio.Portfolio{
			ID:           uuid.New(),
			Name:         "Test PEA",
			Owner:        "tester",
			Transactions: []*portfolio.Transaction{trx},
		}
		pm = portfolio.NewModel(p, provider)
	})

	It("round-trips a computed series", func() {
		perf, err := pm.CalculatePerformance(context.Background(), day(4))
		Expect(err).To(BeNil())

		Expect(portfolio.StorePerformance(p, perf, day(4))).To(Succeed())

		cached, ok := portfolio.CachedPerformance(p, day(4))
		Expect(ok).To(BeTrue())
		Expect(cached.PortfolioID).To(Equal(p.ID))
		Expect(cached.MarketValue.Len()).To(Equal(perf.MarketValue.Len()))
		Expect(cached.GrowthOf1.AsMap("growth")).To(HaveLen(perf.GrowthOf1.Len()))
	})

	It("misses when the transaction log changes", func() {
		perf, err := pm.CalculatePerformance(context.Background(), day(4))
		Expect(err).To(BeNil())
		Expect(portfolio.StorePerformance(p, perf, day(4))).To(Succeed())

		trx, err := portfolio.NewTransaction(day(3), cw8, portfolio.BuyTransaction, 1, 102, 0)
		Expect(err).To(BeNil())
		p.Transactions = append(p.Transactions, trx)

		_, ok := portfolio.CachedPerformance(p, day(4))
		Expect(ok).To(BeFalse())
	})

	It("misses for a different through date", func() {
		perf, err := pm.CalculatePerformance(context.Background(), day(4))
		Expect(err).To(BeNil())
		Expect(portfolio.StorePerformance(p, perf, day(4))).To(Succeed())

		_, ok := portfolio.CachedPerformance(p, day(3))
		Expect(ok).To(BeFalse())
	})
})
