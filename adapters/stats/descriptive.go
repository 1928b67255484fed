package stats

import (
	"sort"

	"psycdata/domain/analysis"
	"psycdata/domain/dataset"
	"psycdata/domain/table"

	mstats "github.com/montanaflynn/stats"
)

// DescriptiveHeaders are the columns of a descriptive result
var DescriptiveHeaders = []string{"Variable", "N", "Mean", "SD", "Min", "Max"}

type summary struct {
	name               string
	n                  int
	mean, sd, min, max float64
	hasSD              bool
}

func summarize(col dataset.Column) (summary, error) {
	values := col.Complete()
	s := summary{name: col.Name, n: len(values)}

	var err error
	if s.mean, err = mstats.Mean(values); err != nil {
		return s, err
	}
	if s.min, err = mstats.Min(values); err != nil {
		return s, err
	}
	if s.max, err = mstats.Max(values); err != nil {
		return s, err
	}
	if len(values) > 1 {
		if s.sd, err = mstats.StandardDeviationSample(values); err != nil {
			return s, err
		}
		s.hasSD = true
	}
	return s, nil
}

// Descriptive summarizes every column of ds: N, mean, sample SD, min and
// max. Rows follow sheet order unless order sorts them by mean.
func (e *Engine) Descriptive(ds dataset.Numeric, order analysis.SortOrder) (table.Table, error) {
	summaries := make([]summary, 0, len(ds.Columns))
	for _, col := range ds.Columns {
		s, err := summarize(col)
		if err != nil {
			return table.Table{}, err
		}
		summaries = append(summaries, s)
	}

	switch order {
	case analysis.SortMeanAsc:
		sort.SliceStable(summaries, func(i, j int) bool { return summaries[i].mean < summaries[j].mean })
	case analysis.SortMeanDesc:
		sort.SliceStable(summaries, func(i, j int) bool { return summaries[i].mean > summaries[j].mean })
	}

	rows := make([][]table.Cell, 0, len(summaries))
	for _, s := range summaries {
		sd := table.Text(table.NASentinel)
		if s.hasSD {
			sd = table.Number(Round3(s.sd))
		}
		rows = append(rows, []table.Cell{
			table.Text(s.name),
			table.Number(float64(s.n)),
			table.Number(Round3(s.mean)),
			sd,
			table.Number(Round3(s.min)),
			table.Number(Round3(s.max)),
		})
	}
	return table.Table{Headers: append([]string(nil), DescriptiveHeaders...), Rows: rows}, nil
}
