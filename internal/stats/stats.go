// Package stats holds the descriptive and inferential statistics used by the
// report and the charts. Degenerate inputs produce NaN results instead of
// errors so a thin group never stops an analysis run.
package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	Alpha      = 0.05
	Confidence = 0.95
)

// Summary describes one sample.
type Summary struct {
	N       int
	Mean    float64
	Median  float64
	StdDev  float64
	CILower float64
	CIUpper float64
}

// Describe computes the sample summary. The standard deviation is the n-1
// sample estimate and the interval is mean ± t(0.975, n-1) * SEM. Both are
// NaN when there are fewer than two values.
func Describe(values []float64) Summary {
	nan := math.NaN()
	s := Summary{N: len(values), Mean: nan, Median: nan, StdDev: nan, CILower: nan, CIUpper: nan}
	if s.N == 0 {
		return s
	}

	s.Mean = stat.Mean(values, nil)
	s.Median = median(values)
	if s.N < 2 {
		return s
	}

	s.StdDev = stat.StdDev(values, nil)
	sem := s.StdDev / math.Sqrt(float64(s.N))
	margin := studentsT(float64(s.N-1)).Quantile(1-(1-Confidence)/2) * sem
	s.CILower = s.Mean - margin
	s.CIUpper = s.Mean + margin
	return s
}

func median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

func studentsT(df float64) distuv.StudentsT {
	return distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
}

// TTest is the outcome of a two-sample test.
type TTest struct {
	Statistic float64
	DF        float64
	PValue    float64
}

func (t TTest) Significant() bool {
	return t.PValue < Alpha
}

// WelchTTest compares the means of a and b without assuming equal variances
// and returns a two-sided p-value.
func WelchTTest(a, b []float64) TTest {
	nan := math.NaN()
	if len(a) < 2 || len(b) < 2 {
		return TTest{Statistic: nan, DF: nan, PValue: nan}
	}

	na, nb := float64(len(a)), float64(len(b))
	meanA, varA := stat.MeanVariance(a, nil)
	meanB, varB := stat.MeanVariance(b, nil)
	seA, seB := varA/na, varB/nb

	denom := math.Sqrt(seA + seB)
	if denom == 0 {
		return TTest{Statistic: nan, DF: nan, PValue: nan}
	}

	t := (meanA - meanB) / denom
	df := (seA + seB) * (seA + seB) / (seA*seA/(na-1) + seB*seB/(nb-1))
	return TTest{
		Statistic: t,
		DF:        df,
		PValue:    2 * studentsT(df).Survival(math.Abs(t)),
	}
}

// ChiSquare is the outcome of a test of independence on a contingency table.
type ChiSquare struct {
	Statistic float64
	DF        int
	PValue    float64
	Expected  [][]float64
	// Corrected is set when the Yates continuity correction was applied.
	Corrected bool
}

func (c ChiSquare) Significant() bool {
	return c.PValue < Alpha
}

// ChiSquareTest runs Pearson's chi-square test of independence. Rows and
// columns that are entirely zero are dropped first. With a single degree of
// freedom the Yates correction is applied.
func ChiSquareTest(observed [][]float64) ChiSquare {
	table := dropEmpty(observed)
	nan := math.NaN()
	if len(table) == 0 {
		return ChiSquare{Statistic: nan, PValue: nan}
	}

	rows, cols := len(table), len(table[0])
	rowSums := make([]float64, rows)
	colSums := make([]float64, cols)
	var total float64
	for i, row := range table {
		for j, v := range row {
			rowSums[i] += v
			colSums[j] += v
			total += v
		}
	}

	expected := make([][]float64, rows)
	for i := range table {
		expected[i] = make([]float64, cols)
		for j := range table[i] {
			expected[i][j] = rowSums[i] * colSums[j] / total
		}
	}

	df := (rows - 1) * (cols - 1)
	result := ChiSquare{DF: df, Expected: expected}
	if df == 0 {
		result.PValue = 1
		return result
	}

	result.Corrected = df == 1
	for i := range table {
		for j, obs := range table[i] {
			diff := obs - expected[i][j]
			if result.Corrected {
				diff = math.Copysign(math.Max(0, math.Abs(diff)-0.5), diff)
			}
			result.Statistic += diff * diff / expected[i][j]
		}
	}
	result.PValue = distuv.ChiSquared{K: float64(df)}.Survival(result.Statistic)
	return result
}

func dropEmpty(table [][]float64) [][]float64 {
	if len(table) == 0 {
		return nil
	}
	width := 0
	for _, row := range table {
		width = max(width, len(row))
	}

	colUsed := make([]bool, width)
	var rows [][]float64
	for _, row := range table {
		var sum float64
		for j, v := range row {
			sum += v
			if v != 0 {
				colUsed[j] = true
			}
		}
		if sum > 0 {
			rows = append(rows, row)
		}
	}

	var out [][]float64
	for _, row := range rows {
		var kept []float64
		for j, used := range colUsed {
			if !used {
				continue
			}
			if j < len(row) {
				kept = append(kept, row[j])
			} else {
				kept = append(kept, 0)
			}
		}
		out = append(out, kept)
	}
	if len(out) == 0 || len(out[0]) == 0 {
		return nil
	}
	return out
}

// Correlation is a coefficient with its two-sided p-value.
type Correlation struct {
	N           int
	Coefficient float64
	PValue      float64
}

// Pearson is the linear correlation of x and y. The p-value comes from the t
// distribution with n-2 degrees of freedom.
func Pearson(x, y []float64) Correlation {
	c := Correlation{N: len(x), Coefficient: math.NaN(), PValue: math.NaN()}
	if len(x) != len(y) || len(x) < 2 || constant(x) || constant(y) {
		return c
	}

	r := stat.Correlation(x, y, nil)
	r = math.Max(-1, math.Min(1, r))
	c.Coefficient = r
	c.PValue = correlationPValue(r, len(x))
	return c
}

// Spearman is the Pearson correlation of the ranks, ties sharing their
// average rank.
func Spearman(x, y []float64) Correlation {
	if len(x) != len(y) {
		return Correlation{N: len(x), Coefficient: math.NaN(), PValue: math.NaN()}
	}
	return Pearson(Ranks(x), Ranks(y))
}

// Two points always lie on a line; the test has no degrees of freedom left
// and p is 1.
func correlationPValue(r float64, n int) float64 {
	if n == 2 {
		return 1
	}
	if math.Abs(r) == 1 {
		return 0
	}
	df := float64(n - 2)
	t := r * math.Sqrt(df/(1-r*r))
	return 2 * studentsT(df).Survival(math.Abs(t))
}

// Ranks returns 1-based ranks of values, averaging over ties.
func Ranks(values []float64) []float64 {
	idx := make([]int, len(values))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return values[idx[a]] < values[idx[b]] })

	ranks := make([]float64, len(values))
	for start := 0; start < len(idx); {
		end := start + 1
		for end < len(idx) && values[idx[end]] == values[idx[start]] {
			end++
		}
		// positions start..end-1 hold ranks start+1..end
		avg := float64(start+1+end) / 2
		for k := start; k < end; k++ {
			ranks[idx[k]] = avg
		}
		start = end
	}
	return ranks
}

func constant(values []float64) bool {
	for _, v := range values[1:] {
		if v != values[0] {
			return false
		}
	}
	return true
}
