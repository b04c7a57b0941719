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
	"math"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/GarderesG/PeaManager/data"
	"github.com/GarderesG/PeaManager/dataframe"
	"github.com/GarderesG/PeaManager/portfolio"
)

// fakeProvider serves canned quote and dividend histories, keyed by ticker,
// the way the database-backed provider would: cells a ticker has no quote
// for are NaN in the price table and 0 in the dividend table, and a
// security with no quotes at all inside the range is an error.
type fakeProvider struct {
	prices    map[string]map[time.Time]float64
	dividends map[string]map[time.Time]float64
}

func (f *fakeProvider) GetEOD(_ context.Context, securities []*data.Security, begin, end time.Time) (*dataframe.DataFrame, error) {
	df := f.frame(f.prices, securities, begin, end, math.NaN())
	for _, security := range securities {
		colIdx := df.ColIndex(security.Ticker)
		hasData := false
		for _, v := range df.Vals[colIdx] {
			if !math.IsNaN(v) {
				hasData = true
				break
			}
		}
		if !hasData {
			return nil, data.ErrNoData
		}
	}
	return df, nil
}

func (f *fakeProvider) GetDividends(_ context.Context, securities []*data.Security, begin, end time.Time) (*dataframe.DataFrame, error) {
	return f.frame(f.dividends, securities, begin, end, 0), nil
}

func (f *fakeProvider) frame(source map[string]map[time.Time]float64, securities []*data.Security, begin, end time.Time, fill float64) *dataframe.DataFrame {
	dateSet := make(map[time.Time]bool)
	for _, security := range securities {
		for dt := range source[security.Ticker] {
			if !dt.Before(begin) && !dt.After(end) {
				dateSet[dt] = true
			}
		}
	}

	dates := make([]time.Time, 0, len(dateSet))
	for dt := range dateSet {
		dates = append(dates, dt)
	}
	for i := range dates {
		for j := i + 1; j < len(dates); j++ {
			if dates[j].Before(dates[i]) {
				dates[i], dates[j] = dates[j], dates[i]
			}
		}
	}

	df := dataframe.New()
	df.Dates = dates
	for _, security := range securities {
		col := make([]float64, len(dates))
		for idx, dt := range dates {
			if v, ok := source[security.Ticker][dt]; ok {
				col[idx] = v
			} else {
				col[idx] = fill
			}
		}
		df.Insert(security.Ticker, col)
	}
	return df
}

var _ = Describe("Performance calculation", func() {
	var (
		cw8      data.Security
		esE      data.Security
		p        *portfolio.Portfolio
		pm       *portfolio.Model
		provider *fakeProvider
	)

	day := func(d int) time.Time {
		return time.Date(2024, time.January, d, 0, 0, 0, 0, time.UTC)
	}

	mustTrx := func(date time.Time, security data.Security, kind string, shares int64, price, fee float64) *portfolio.Transaction {
		trx, err := portfolio.NewTransaction(date, security, kind, shares, price, fee)
		Expect(err).To(BeNil())
		return trx
	}

	BeforeEach(func() {
		cw8 = data.Security{Ticker: "CW8", ISIN: "LU1681043599"}
		esE = data.Security{Ticker: "ESE", ISIN: "FR0011550185"}
		provider = &fakeProvider{
			prices:    map[string]map[time.Time]float64{},
			dividends: map[string]map[time.Time]float64{},
		}
		p = &portfolio.Portfolio{Name: "Test PEA", Owner: "tester"}
	})

	Context("with a single holding period", func() {
		BeforeEach(func() {
			p.Transactions = []*portfolio.Transaction{
				mustTrx(day(2), cw8, portfolio.BuyTransaction, 1, 100, 0),
				mustTrx(day(2), esE, portfolio.BuyTransaction, 2, 50, 0),
			}
			provider.prices["CW8"] = map[time.Time]float64{
				day(2): 100, day(3): 110, day(4): 121,
			}
			provider.prices["ESE"] = map[time.Time]float64{
				day(2): 50, day(3): 45, day(4): 49.5,
			}
			pm = portfolio.NewModel(p, provider)
		})

		It("values the holdings on every quoted date", func() {
			perf, err := pm.CalculatePerformance(context.Background(), day(4))
			Expect(err).To(BeNil())

			values := perf.MarketValue.AsMap(portfolio.ValueCol)
			Expect(perf.MarketValue.Len()).To(Equal(3))
			Expect(values[day(2)]).To(BeNumerically("~", 200.0, 1e-9))
			Expect(values[day(3)]).To(BeNumerically("~", 200.0, 1e-9))
			Expect(values[day(4)]).To(BeNumerically("~", 220.0, 1e-9))
		})

		It("weights instrument returns by prior-day value", func() {
			perf, err := pm.CalculatePerformance(context.Background(), day(4))
			Expect(err).To(BeNil())

			// +10% and -10% moves on equal value cancel out
			returns := perf.Returns.AsMap(portfolio.ReturnCol)
			Expect(perf.Returns.Len()).To(Equal(2))
			Expect(returns[day(3)]).To(BeNumerically("~", 0.0, 1e-9))
			Expect(returns[day(4)]).To(BeNumerically("~", 0.1, 1e-9))
		})

		It("anchors the growth factor at 1.0 on the inception date", func() {
			perf, err := pm.CalculatePerformance(context.Background(), day(4))
			Expect(err).To(BeNil())

			growth := perf.GrowthOf1.AsMap("growth")
			Expect(perf.GrowthOf1.Len()).To(Equal(3))
			Expect(growth[day(2)]).To(BeNumerically("~", 1.0, 1e-9))
			Expect(growth[day(3)]).To(BeNumerically("~", 1.0, 1e-9))
			Expect(growth[day(4)]).To(BeNumerically("~", 1.1, 1e-9))
		})

		It("compounds each day's return into the growth factor", func() {
			perf, err := pm.CalculatePerformance(context.Background(), day(4))
			Expect(err).To(BeNil())

			growth := perf.GrowthOf1.AsMap("growth")
			returns := perf.Returns.AsMap(portfolio.ReturnCol)
			prev := growth[day(2)]
			for d := 3; d <= 4; d++ {
				Expect(growth[day(d)]).To(BeNumerically("~", prev*(1+returns[day(d)]), 1e-12))
				prev = growth[day(d)]
			}
		})
	})

	Context("with multiple holding periods", func() {
		BeforeEach(func() {
			p.Transactions = []*portfolio.Transaction{
				mustTrx(day(2), cw8, portfolio.BuyTransaction, 1, 100, 0),
				mustTrx(day(4), esE, portfolio.BuyTransaction, 1, 50, 0),
			}
			provider.prices["CW8"] = map[time.Time]float64{
				day(2): 100, day(3): 102, day(4): 104, day(5): 106, day(6): 108,
			}
			provider.prices["ESE"] = map[time.Time]float64{
				day(4): 50, day(5): 51, day(6): 52,
			}
			pm = portfolio.NewModel(p, provider)
		})

		It("stitches segments without double counting the boundary date", func() {
			perf, err := pm.CalculatePerformance(context.Background(), day(6))
			Expect(err).To(BeNil())

			Expect(perf.MarketValue.Len()).To(Equal(5))
			values := perf.MarketValue.AsMap(portfolio.ValueCol)
			Expect(values[day(2)]).To(BeNumerically("~", 100.0, 1e-9))
			Expect(values[day(3)]).To(BeNumerically("~", 102.0, 1e-9))
			// the trade-date valuation reflects the new holdings
			Expect(values[day(4)]).To(BeNumerically("~", 154.0, 1e-9))
			Expect(values[day(5)]).To(BeNumerically("~", 157.0, 1e-9))
			Expect(values[day(6)]).To(BeNumerically("~", 160.0, 1e-9))
		})

		It("records one return per date across the stitch point", func() {
			perf, err := pm.CalculatePerformance(context.Background(), day(6))
			Expect(err).To(BeNil())

			Expect(perf.Returns.Len()).To(Equal(4))
			returns := perf.Returns.AsMap(portfolio.ReturnCol)
			Expect(returns[day(3)]).To(BeNumerically("~", 0.02, 1e-9))
			Expect(returns[day(4)]).To(BeNumerically("~", 104.0/102.0-1.0, 1e-9))
			Expect(returns[day(5)]).To(BeNumerically("~", 3.0/154.0, 1e-9))
			Expect(returns[day(6)]).To(BeNumerically("~", 3.0/157.0, 1e-9))
		})
	})

	Context("with a full liquidation gap", func() {
		BeforeEach(func() {
			p.Transactions = []*portfolio.Transaction{
				mustTrx(day(2), cw8, portfolio.BuyTransaction, 1, 100, 0),
				mustTrx(day(4), cw8, portfolio.SellTransaction, 1, 104, 0),
				mustTrx(day(6), esE, portfolio.BuyTransaction, 1, 52, 0),
			}
			provider.prices["CW8"] = map[time.Time]float64{
				day(2): 100, day(3): 102, day(4): 104,
			}
			provider.prices["ESE"] = map[time.Time]float64{
				day(6): 52, day(7): 53, day(8): 54,
			}
			pm = portfolio.NewModel(p, provider)
		})

		It("leaves the out-of-market gap flat", func() {
			perf, err := pm.CalculatePerformance(context.Background(), day(8))
			Expect(err).To(BeNil())

			returns := perf.Returns.AsMap(portfolio.ReturnCol)
			Expect(perf.Returns.Len()).To(Equal(4))
			Expect(returns).NotTo(HaveKey(day(5)))
			Expect(returns).NotTo(HaveKey(day(6)))
			Expect(returns[day(7)]).To(BeNumerically("~", 1.0/52.0, 1e-9))

			growth := perf.GrowthOf1.AsMap("growth")
			Expect(growth[day(4)]).To(BeNumerically("~", 1.04, 1e-9))
			Expect(growth[day(7)]).To(BeNumerically("~", 1.04*53.0/52.0, 1e-9))
		})
	})

	Context("with degenerate inputs", func() {
		It("rejects an empty transaction log", func() {
			pm = portfolio.NewModel(p, provider)
			_, err := pm.CalculatePerformance(context.Background(), day(4))
			Expect(err).To(MatchError(portfolio.ErrNoTransactions))
		})

		It("rejects a through date before inception", func() {
			p.Transactions = []*portfolio.Transaction{
				mustTrx(day(4), cw8, portfolio.BuyTransaction, 1, 100, 0),
			}
			pm = portfolio.NewModel(p, provider)
			_, err := pm.CalculatePerformance(context.Background(), day(2))
			Expect(err).To(MatchError(portfolio.ErrTimeInverted))
		})

		It("fails when no date has a complete price row", func() {
			p.Transactions = []*portfolio.Transaction{
				mustTrx(day(2), cw8, portfolio.BuyTransaction, 1, 100, 0),
				mustTrx(day(2), esE, portfolio.BuyTransaction, 1, 50, 0),
			}
			// quote dates are disjoint so every row has a hole
			provider.prices["CW8"] = map[time.Time]float64{day(3): 102}
			provider.prices["ESE"] = map[time.Time]float64{day(4): 51}
			pm = portfolio.NewModel(p, provider)
			_, err := pm.CalculatePerformance(context.Background(), day(4))
			Expect(err).To(MatchError(portfolio.ErrMissingPriceData))
		})

		It("propagates a missing security error", func() {
			p.Transactions = []*portfolio.Transaction{
				mustTrx(day(2), cw8, portfolio.BuyTransaction, 1, 100, 0),
			}
			pm = portfolio.NewModel(p, provider)
			_, err := pm.CalculatePerformance(context.Background(), day(4))
			Expect(err).To(MatchError(data.ErrNoData))
		})

		It("fails when a prior-day valuation is zero", func() {
			p.Transactions = []*portfolio.Transaction{
				mustTrx(day(2), cw8, portfolio.BuyTransaction, 1, 100, 0),
			}
			// a zero quote survives the NaN drop but cannot anchor weights
			provider.prices["CW8"] = map[time.Time]float64{day(2): 0, day(3): 100}
			pm = portfolio.NewModel(p, provider)
			_, err := pm.CalculatePerformance(context.Background(), day(3))
			Expect(err).To(MatchError(portfolio.ErrDegenerateValuation))
		})
	})

	Context("monthly resampling", func() {
		BeforeEach(func() {
			p.Transactions = []*portfolio.Transaction{
				mustTrx(day(2), cw8, portfolio.BuyTransaction, 1, 100, 0),
			}
			provider.prices["CW8"] = map[time.Time]float64{
				day(2): 100, day(31): 110,
				time.Date(2024, time.February, 15, 0, 0, 0, 0, time.UTC): 121,
				time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC): 132,
			}
			pm = portfolio.NewModel(p, provider)
		})

		It("reports month-over-month returns from the growth series", func() {
			perf, err := pm.CalculatePerformance(context.Background(), time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC))
			Expect(err).To(BeNil())

			monthly := perf.MonthlyReturns()
			Expect(monthly.Len()).To(Equal(1))
			returns := monthly.AsMap("growth")
			Expect(returns[time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC)]).To(BeNumerically("~", 0.2, 1e-9))
		})
	})
})

var _ = Describe("Portfolio identity", func() {
	day := func(d int) time.Time {
		return time.Date(2024, time.January, d, 0, 0, 0, 0, time.UTC)
	}

	It("derives the log version from the transaction source ids", func() {
		cw8 := data.Security{Ticker: "CW8", ISIN: "LU1681043599"}
		trx, err := portfolio.NewTransaction(day(2), cw8, portfolio.BuyTransaction, 1, 100, 0)
		Expect(err).To(BeNil())

		a := &portfolio.Portfolio{Transactions: []*portfolio.Transaction{trx}}
		b := &portfolio.Portfolio{Transactions: []*portfolio.Transaction{trx}}
		Expect(a.LogVersion()).To(Equal(b.LogVersion()))

		trx2, err := portfolio.NewTransaction(day(3), cw8, portfolio.BuyTransaction, 1, 101, 0)
		Expect(err).To(BeNil())
		b.Transactions = append(b.Transactions, trx2)
		Expect(a.LogVersion()).NotTo(Equal(b.LogVersion()))
	})

	It("collapses same-day transactions into one trade date", func() {
		cw8 := data.Security{Ticker: "CW8", ISIN: "LU1681043599"}
		esE := data.Security{Ticker: "ESE", ISIN: "FR0011550185"}
		t1, err := portfolio.NewTransaction(day(2), cw8, portfolio.BuyTransaction, 1, 100, 0)
		Expect(err).To(BeNil())
		t2, err := portfolio.NewTransaction(day(2), esE, portfolio.BuyTransaction, 1, 50, 0)
		Expect(err).To(BeNil())

		p := &portfolio.Portfolio{Transactions: []*portfolio.Transaction{t1, t2}}
		Expect(p.TradeDates()).To(Equal([]time.Time{day(2)}))
		Expect(p.InceptionDate()).To(Equal(day(2)))
	})
})
