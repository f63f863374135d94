// Package report summarises and renders evaluator output for the terminal.
package report

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/guptarohit/asciigraph"
	"github.com/pkg/errors"
	"github.com/san-kum/mppi/internal/dynamo"
	"gonum.org/v1/gonum/mat"
)

// Summary holds statistics of the per-sample total costs.
type Summary struct {
	Samples int
	Steps   int
	Min     float64
	Max     float64
	Mean    float64
	Std     float64
	Best    int
	Worst   int

	// BestFinalNorm is |x| at the last step of the best sample, when the
	// caller has the states.
	BestFinalNorm float64

	// NonFinite counts totals that are NaN or infinite; they are left out
	// of the statistics.
	NonFinite int
}

// Summarize reads a (steps, samples) per-step cost matrix and its
// (1, samples) totals.
func Summarize(costs, totals mat.Matrix) (Summary, error) {
	steps, samples := costs.Dims()
	r, c := totals.Dims()
	if r != 1 || c != samples {
		return Summary{}, errors.Wrapf(dynamo.ErrInvalidShape, "totals are (%d, %d), want (1, %d)", r, c, samples)
	}

	sum := Summary{Samples: samples, Steps: steps, Min: math.Inf(1), Max: math.Inf(-1)}
	for s := 0; s < samples; s++ {
		v := totals.At(0, s)
		if !finite(v) {
			sum.NonFinite++
			continue
		}
		sum.Mean += v
		if v < sum.Min {
			sum.Min, sum.Best = v, s
		}
		if v > sum.Max {
			sum.Max, sum.Worst = v, s
		}
	}
	n := samples - sum.NonFinite
	if n == 0 {
		return sum, errors.Errorf("all %d sample totals are non-finite", samples)
	}
	sum.Mean /= float64(n)

	for s := 0; s < samples; s++ {
		v := totals.At(0, s)
		if !finite(v) {
			continue
		}
		d := v - sum.Mean
		sum.Std += d * d
	}
	sum.Std = math.Sqrt(sum.Std / float64(n))

	return sum, nil
}

// Render writes a styled summary, the sorted total costs and the per-step
// cost of the best sample.
func Render(w io.Writer, title string, sum Summary, costs, totals mat.Matrix) error {
	var b strings.Builder
	b.WriteString(Title.Render(title) + "\n\n")

	rows := []struct {
		label string
		value string
	}{
		{"samples", fmt.Sprintf("%d", sum.Samples)},
		{"horizon", fmt.Sprintf("%d steps", sum.Steps)},
		{"min cost", fmt.Sprintf("%.6g (sample %d)", sum.Min, sum.Best)},
		{"max cost", fmt.Sprintf("%.6g (sample %d)", sum.Max, sum.Worst)},
		{"mean cost", fmt.Sprintf("%.6g", sum.Mean)},
		{"std dev", fmt.Sprintf("%.6g", sum.Std)},
		{"best final |x|", fmt.Sprintf("%.6g", sum.BestFinalNorm)},
	}
	for _, row := range rows {
		b.WriteString(Label.Render(row.label) + Value.Render(row.value) + "\n")
	}
	if sum.NonFinite > 0 {
		b.WriteString(Warn.Render(fmt.Sprintf("%d non-finite totals skipped", sum.NonFinite)) + "\n")
	}
	if _, err := fmt.Fprintln(w, Panel.Render(strings.TrimRight(b.String(), "\n"))); err != nil {
		return err
	}

	sorted := make([]float64, 0, sum.Samples)
	for s := 0; s < sum.Samples; s++ {
		if v := totals.At(0, s); finite(v) {
			sorted = append(sorted, v)
		}
	}
	sort.Float64s(sorted)
	if err := plot(w, sorted, "sample total costs (sorted)"); err != nil {
		return err
	}

	best := make([]float64, sum.Steps)
	for t := range best {
		best[t] = costs.At(t, sum.Best)
	}
	return plot(w, best, fmt.Sprintf("per-step cost of best sample %d", sum.Best))
}

func plot(w io.Writer, data []float64, caption string) error {
	// asciigraph needs at least two points to draw a line.
	if len(data) < 2 {
		data = append(data, data...)
	}
	graph := asciigraph.Plot(data,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption(caption),
	)
	_, err := fmt.Fprintf(w, "%s\n\n", graph)
	return err
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
