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

package dataframe

import (
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
)

// AddScalar adds the scalar value to all columns in dataframe df and returns a new dataframe
func (df *DataFrame) AddScalar(scalar float64) *DataFrame {
	df = df.Copy()

	for colIdx := range df.ColNames {
		for rowIdx := range df.Vals[colIdx] {
			df.Vals[colIdx][rowIdx] += scalar
		}
	}
	return df
}

// MulScalar multiplies all columns in dataframe df by the scalar and returns a new dataframe
func (df *DataFrame) MulScalar(scalar float64) *DataFrame {
	df = df.Copy()

	for colIdx := range df.ColNames {
		floats.Scale(scalar, df.Vals[colIdx])
	}
	return df
}

// Div divides all columns in `df` by the corresponding column in `other` and
// returns a new dataframe. Rows must be equal.
func (df *DataFrame) Div(other *DataFrame) *DataFrame {
	df = df.Copy()

	otherMap := make(map[string]int, len(other.ColNames))
	for idx, val := range other.ColNames {
		otherMap[val] = idx
	}

	for idx, colName := range df.ColNames {
		if otherIdx, ok := otherMap[colName]; ok {
			floats.Div(df.Vals[idx], other.Vals[otherIdx])
		}
	}
	return df
}

// Mul multiplies all columns in dataframe df by the corresponding column in
// dataframe other and returns a new dataframe. Rows must be equal.
func (df *DataFrame) Mul(other *DataFrame) *DataFrame {
	df = df.Copy()

	otherMap := make(map[string]int, len(other.ColNames))
	for idx, val := range other.ColNames {
		otherMap[val] = idx
	}

	for idx, colName := range df.ColNames {
		if otherIdx, ok := otherMap[colName]; ok {
			floats.Mul(df.Vals[idx], other.Vals[otherIdx])
		}
	}
	return df
}

// Lag shifts the dataframe by the specified number of rows, replacing shifted
// values by math.NaN(), and returns a new dataframe
func (df *DataFrame) Lag(n int) *DataFrame {
	df = df.Copy()
	prepend := make([]float64, n)
	for idx := range prepend {
		prepend[idx] = math.NaN()
	}

	for idx := range df.Vals {
		l := len(df.Vals[idx])
		df.Vals[idx] = append(prepend, df.Vals[idx]...)[:l] //nolint:makezero
	}
	return df
}

// PctChange computes the period-over-period simple return of every column:
// vals[n]/vals[n-1] - 1. The first row of the input has no predecessor and is
// dropped from the result.
func (df *DataFrame) PctChange() *DataFrame {
	if df.Len() < 2 {
		res := &DataFrame{
			Dates:    []time.Time{},
			ColNames: df.ColNames,
			Vals:     make([][]float64, len(df.Vals)),
		}
		for colIdx := range res.Vals {
			res.Vals[colIdx] = []float64{}
		}
		return res
	}

	res := df.Div(df.Lag(1)).AddScalar(-1.0)

	// the first row divided by a NaN lag; drop it
	res.Dates = res.Dates[1:]
	for colIdx := range res.Vals {
		res.Vals[colIdx] = res.Vals[colIdx][1:]
	}

	return res
}

// CumProd computes the running product of every column and returns a new dataframe
func (df *DataFrame) CumProd() *DataFrame {
	df = df.Copy()

	for colIdx := range df.Vals {
		acc := 1.0
		for rowIdx, v := range df.Vals[colIdx] {
			acc *= v
			df.Vals[colIdx][rowIdx] = acc
		}
	}
	return df
}

// RowSum sums across columns for each row and returns a new single-column
// dataframe named `sum`
func (df *DataFrame) RowSum() *DataFrame {
	sums := make([]float64, df.Len())
	row := make([]float64, len(df.ColNames))

	for rowIdx := range df.Dates {
		for colIdx := range df.ColNames {
			row[colIdx] = df.Vals[colIdx][rowIdx]
		}
		sums[rowIdx] = floats.Sum(row)
	}

	return &DataFrame{
		Dates:    df.Dates,
		ColNames: []string{"sum"},
		Vals:     [][]float64{sums},
	}
}
