package stats

import (
	"fmt"
	"math"
	"sort"

	"psycdata/domain/analysis"
	"psycdata/domain/core"
	"psycdata/domain/dataset"
	"psycdata/domain/table"

	mstats "github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// ReliabilityHeaders are the columns of a reliability result
var ReliabilityHeaders = []string{"Statistic", "Value"}

// Reliability computes the requested coefficient on listwise complete
// rows. The first row holds the coefficient, followed by item and case
// counts.
func (e *Engine) Reliability(ds dataset.Numeric, model analysis.Model) (table.Table, error) {
	rows := ds.Listwise()
	k := len(ds.Columns)
	if k < 2 || len(rows) < 2 {
		return table.Table{}, fmt.Errorf("%w: reliability needs at least 2 items and 2 complete rows (items %d, rows %d)",
			core.ErrInsufficientData, k, len(rows))
	}

	var (
		label string
		value float64
		err   error
	)
	switch model {
	case "", analysis.ModelAlpha:
		label = "Cronbach's alpha"
		value, err = CronbachAlpha(rows)
	case analysis.ModelOmega:
		label = "McDonald's omega"
		value, err = OmegaTotal(rows)
	default:
		return table.Table{}, fmt.Errorf("%w: %s", core.ErrUnsupportedModel, model)
	}
	if err != nil {
		return table.Table{}, err
	}

	return table.Table{
		Headers: append([]string(nil), ReliabilityHeaders...),
		Rows: [][]table.Cell{
			{table.Text(label), table.Text(Format3(value))},
			{table.Text("Items"), table.Number(float64(k))},
			{table.Text("N"), table.Number(float64(len(rows)))},
		},
	}, nil
}

func column(rows [][]float64, c int) []float64 {
	out := make([]float64, len(rows))
	for r, row := range rows {
		out[r] = row[c]
	}
	return out
}

// CronbachAlpha is k/(k-1) * (1 - Σ item variances / total variance)
func CronbachAlpha(rows [][]float64) (float64, error) {
	k := len(rows[0])
	totals := make([]float64, len(rows))
	for r, row := range rows {
		for _, v := range row {
			totals[r] += v
		}
	}

	itemVar := 0.0
	for c := 0; c < k; c++ {
		v, err := mstats.SampleVariance(column(rows, c))
		if err != nil {
			return 0, err
		}
		itemVar += v
	}
	totalVar, err := mstats.SampleVariance(totals)
	if err != nil {
		return 0, err
	}
	if totalVar == 0 {
		return 0, fmt.Errorf("%w: total score has no variance", core.ErrInsufficientData)
	}
	kf := float64(k)
	return kf / (kf - 1) * (1 - itemVar/totalVar), nil
}

// OmegaTotal approximates McDonald's omega from a single principal
// component of the item correlation matrix: loadings are the first
// eigenvector scaled by the root of its eigenvalue.
func OmegaTotal(rows [][]float64) (float64, error) {
	k := len(rows[0])
	data := mat.NewDense(len(rows), k, nil)
	for r, row := range rows {
		data.SetRow(r, row)
	}
	for c := 0; c < k; c++ {
		if v, _ := mstats.SampleVariance(column(rows, c)); v == 0 {
			return 0, fmt.Errorf("%w: item %d has no variance", core.ErrInsufficientData, c+1)
		}
	}

	corr := mat.NewSymDense(k, nil)
	stat.CorrelationMatrix(corr, data, nil)

	var eig mat.EigenSym
	if ok := eig.Factorize(corr, true); !ok {
		return 0, fmt.Errorf("%w: eigen decomposition failed", core.ErrInsufficientData)
	}
	values := eig.Values(nil)
	var vectors mat.Dense
	eig.VectorsTo(&vectors)

	idx := make([]int, len(values))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return values[idx[a]] > values[idx[b]] })
	top := idx[0]
	lambda := values[top]
	if lambda <= 0 {
		return 0, fmt.Errorf("%w: no common variance", core.ErrInsufficientData)
	}

	loadings := make([]float64, k)
	sum := 0.0
	for i := 0; i < k; i++ {
		loadings[i] = math.Sqrt(lambda) * vectors.At(i, top)
		sum += loadings[i]
	}
	if sum < 0 {
		sum = -sum
		for i := range loadings {
			loadings[i] = -loadings[i]
		}
	}

	unique := 0.0
	for _, l := range loadings {
		unique += math.Max(0, 1-l*l)
	}
	common := sum * sum
	return common / (common + unique), nil
}
