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

package dataframe_test

import (
	"math"
	"time"

	"github.com/GarderesG/PeaManager/dataframe"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("DataFrame math", func() {
	var df *dataframe.DataFrame

	day := func(d int) time.Time {
		return time.Date(2021, time.January, d, 0, 0, 0, 0, time.UTC)
	}

	BeforeEach(func() {
		df = dataframe.New("a", "b")
		df.InsertRow(day(1), 100.0, 50.0)
		df.InsertRow(day(2), 110.0, 45.0)
		df.InsertRow(day(3), 121.0, 49.5)
	})

	It("adds a scalar to every cell", func() {
		res := df.AddScalar(1.0)
		Expect(res.Vals[0]).To(Equal([]float64{101.0, 111.0, 122.0}))
		// original is untouched
		Expect(df.Vals[0][0]).To(Equal(100.0))
	})

	It("multiplies every cell by a scalar", func() {
		res := df.MulScalar(2.0)
		Expect(res.Vals[1]).To(Equal([]float64{100.0, 90.0, 99.0}))
	})

	It("divides matching columns", func() {
		res := df.Div(df.Copy())
		Expect(res.Vals[0]).To(Equal([]float64{1.0, 1.0, 1.0}))
	})

	It("multiplies matching columns", func() {
		res := df.Mul(df.Copy())
		Expect(res.Vals[0][1]).To(BeNumerically("~", 12100.0, 1e-9))
	})

	It("computes period-over-period returns", func() {
		rets := df.PctChange()
		Expect(rets.Len()).To(Equal(2))
		Expect(rets.Dates).To(Equal([]time.Time{day(2), day(3)}))
		Expect(rets.Vals[0][0]).To(BeNumerically("~", 0.10, 1e-9))
		Expect(rets.Vals[0][1]).To(BeNumerically("~", 0.10, 1e-9))
		Expect(rets.Vals[1][0]).To(BeNumerically("~", -0.10, 1e-9))
	})

	It("returns an empty frame when computing returns of a single row", func() {
		rets := df.Trim(day(1), day(1)).PctChange()
		Expect(rets.Len()).To(Equal(0))
	})

	It("propagates missing values into both adjacent returns", func() {
		df.Vals[0][1] = math.NaN()
		rets := df.PctChange()
		Expect(math.IsNaN(rets.Vals[0][0])).To(BeTrue())
		Expect(math.IsNaN(rets.Vals[0][1])).To(BeTrue())
		// the intact column is unaffected
		Expect(rets.Vals[1][0]).To(BeNumerically("~", -0.10, 1e-9))
	})

	It("lags values by n rows", func() {
		lagged := df.Lag(1)
		Expect(math.IsNaN(lagged.Vals[0][0])).To(BeTrue())
		Expect(lagged.Vals[0][1]).To(Equal(100.0))
		Expect(lagged.Vals[0][2]).To(Equal(110.0))
	})

	It("computes the cumulative product of each column", func() {
		growth := df.PctChange().AddScalar(1.0).CumProd()
		Expect(growth.Vals[0][1]).To(BeNumerically("~", 1.21, 1e-9))
	})

	It("sums across columns", func() {
		sums := df.RowSum()
		Expect(sums.ColNames).To(Equal([]string{"sum"}))
		Expect(sums.Vals[0]).To(Equal([]float64{150.0, 155.0, 170.5}))
	})
})
