package main

import (
	"os"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/ironsheep/region-tuner/internal/search"
	"github.com/pkg/errors"
)

// resultRow is one grid point of the results CSV.
type resultRow struct {
	Index      int     `csv:"index"`
	Params     string  `csv:"params"`
	MeanScore  float64 `csv:"mean_score"`
	FoldScores string  `csv:"fold_scores"`
	Best       bool    `csv:"best"`
}

func resultRows(r *search.Report) []*resultRow {
	rows := make([]*resultRow, 0, len(r.Results))
	for _, res := range r.Results {
		folds := make([]string, len(res.FoldScores))
		for i, s := range res.FoldScores {
			folds[i] = strconv.FormatFloat(s, 'g', 6, 64)
		}
		rows = append(rows, &resultRow{
			Index:      res.Index,
			Params:     res.Config.String(),
			MeanScore:  res.Score,
			FoldScores: strings.Join(folds, ";"),
			Best:       res.Index == r.Best.Index,
		})
	}
	return rows
}

// writeResults writes one CSV row per evaluated grid point, in enumeration order.
func writeResults(path string, r *search.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "creating results file")
	}
	rows := resultRows(r)
	if err := gocsv.MarshalFile(&rows, f); err != nil {
		f.Close()
		return errors.Wrapf(err, "writing %s", path)
	}
	return errors.Wrapf(f.Close(), "closing %s", path)
}
