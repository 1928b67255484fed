package stats

import (
	"context"
	"math"

	"psycdata/domain/dataset"
	"psycdata/domain/table"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// PValueRow is the first cell of the row separating coefficients from
// p-values in a correlation result
const PValueRow = "p-value"

type pairResult struct {
	r, p float64
	n    int
}

// Pearson computes r and its two-sided p-value from Student's t on the
// pairwise complete observations. Fewer than three pairs, or a constant
// variable, give NaN.
func Pearson(x, y []float64) (r, p float64) {
	n := len(x)
	if n < 3 || n != len(y) {
		return math.NaN(), math.NaN()
	}
	r = stat.Correlation(x, y, nil)
	if math.IsNaN(r) {
		return r, math.NaN()
	}
	if math.Abs(r) >= 1 {
		return math.Copysign(1, r), 0
	}
	df := float64(n - 2)
	t := r * math.Sqrt(df/(1-r*r))
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	p = 2 * dist.Survival(math.Abs(t))
	return r, math.Min(1, p)
}

// Correlation builds the upper-triangular Pearson matrix for ds followed
// by a p-value sentinel row and the matching p-value matrix. Pairs are
// computed concurrently.
func (e *Engine) Correlation(ctx context.Context, ds dataset.Numeric) (table.Table, error) {
	k := len(ds.Columns)
	results := make([][]pairResult, k)
	for i := range results {
		results[i] = make([]pairResult, k)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i := 0; i < k; i++ {
		for j := i + 1; j < k; j++ {
			i, j := i, j
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				x, y := ds.Pairwise(i, j)
				r, p := Pearson(x, y)
				results[i][j] = pairResult{r: r, p: p, n: len(x)}
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return table.Table{}, err
	}

	headers := append([]string{"Variable"}, ds.Names()...)
	rows := make([][]table.Cell, 0, 2*k+1)
	for i, col := range ds.Columns {
		row := []table.Cell{table.Text(col.Name)}
		for j := 0; j < k; j++ {
			switch {
			case j < i:
				row = append(row, table.Text(""))
			case j == i:
				row = append(row, table.Text(Format3(1)))
			default:
				row = append(row, table.Text(Format3(results[i][j].r)))
			}
		}
		rows = append(rows, row)
	}

	sentinel := []table.Cell{table.Text(PValueRow)}
	for j := 0; j < k; j++ {
		sentinel = append(sentinel, table.Text(""))
	}
	rows = append(rows, sentinel)

	for i, col := range ds.Columns {
		row := []table.Cell{table.Text(col.Name)}
		for j := 0; j < k; j++ {
			if j <= i {
				row = append(row, table.Text(""))
				continue
			}
			row = append(row, table.Text(Format3(results[i][j].p)))
		}
		rows = append(rows, row)
	}
	return table.Table{Headers: headers, Rows: rows}, nil
}
