// Command psplines fits P-spline smoothers to CSV data.
//
// Usage:
//
//	psplines fit -in data.csv [-segments 10] [-degree 3] [-penalty 1] [-order 2]
//	             [-derivative 1] [-errors] [-plot fit.png] [-save model.gob.zst]
//	psplines predict -model model.gob.zst -in points.csv
//
// Both commands accept -log-level (debug, info, warn, error) and -log-format
// (json for zerolog lines, slog for log/slog records with stack traces).
//
// Input columns are x1..xk followed by y (fit only). Results are written
// to stdout as CSV.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/pspline/core/tensor"
	scigoErrors "github.com/YuminosukeSato/pspline/pkg/errors"
	"github.com/YuminosukeSato/pspline/pkg/log"
	"github.com/YuminosukeSato/pspline/plotting"
	"github.com/YuminosukeSato/pspline/preprocessing"
	"github.com/YuminosukeSato/pspline/psplines"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, "usage: psplines <fit|predict> [flags]")
		return 2
	}
	var err error
	switch args[0] {
	case "fit":
		err = runFit(args[1:], stdout, stderr)
	case "predict":
		err = runPredict(args[1:], stdout, stderr)
	default:
		fmt.Fprintf(stderr, "unknown command %q\n", args[0])
		return 2
	}
	if err != nil {
		fmt.Fprintln(stderr, "psplines:", err)
		return 1
	}
	return 0
}

func runFit(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("fit", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		in         = fs.String("in", "", "input CSV (x1..xk,y)")
		header     = fs.Bool("header", false, "skip the first CSV row")
		segments   = fs.String("segments", "10", "segments per dimension, comma separated")
		degree     = fs.String("degree", "3", "degree per dimension, comma separated")
		penalty    = fs.String("penalty", "1", "penalty per dimension, comma separated")
		order      = fs.Int("order", 2, "order of the difference penalty")
		derivative = fs.Int("derivative", 0, "also output the derivative of this order (1-D)")
		withErrors = fs.Bool("errors", false, "also output standard errors (1-D)")
		plotPath   = fs.String("plot", "", "write a plot of the fit to this file (1-D)")
		savePath   = fs.String("save", "", "save the fitted model to this file")
		logLevel   = fs.String("log-level", "warn", "log level (debug, info, warn, error)")
		logFormat  = fs.String("log-format", log.FormatJSON, "log backend (json, slog)")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := log.SetupLoggerFormat(stderr, *logLevel, *logFormat); err != nil {
		return err
	}
	if *in == "" {
		return scigoErrors.NewConfigError("psplines fit", "in", "is required", *in)
	}

	rows, err := readCSV(*in, *header)
	if err != nil {
		return err
	}
	if len(rows[0]) < 2 {
		return scigoErrors.NewValueError("psplines fit", "need at least one x column and a y column")
	}
	k := len(rows[0]) - 1
	X := mat.NewDense(len(rows), k, nil)
	y := make([]float64, len(rows))
	for i, r := range rows {
		X.SetRow(i, r[:k])
		y[i] = r[k]
	}

	var opts []psplines.ConfigOption
	s, err := parseInts(*segments)
	if err != nil {
		return err
	}
	d, err := parseInts(*degree)
	if err != nil {
		return err
	}
	p, err := parseFloats(*penalty)
	if err != nil {
		return err
	}
	opts = append(opts, psplines.WithSegments(s...), psplines.WithDegree(d...),
		psplines.WithPenalty(p...), psplines.WithPenaltyOrder(*order))
	cfg, err := psplines.NewConfig(opts...)
	if err != nil {
		return err
	}

	m, err := psplines.Fit(cfg, X, y)
	if err != nil {
		return err
	}
	if *savePath != "" {
		if err := m.Save(*savePath); err != nil {
			return err
		}
	}
	if *plotPath != "" {
		if err := writePlot(m, X, y, *plotPath, *withErrors); err != nil {
			return err
		}
	}
	return writePredictions(stdout, m, X, *withErrors, *derivative)
}

func runPredict(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("predict", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		in         = fs.String("in", "", "input CSV (x1..xk)")
		header     = fs.Bool("header", false, "skip the first CSV row")
		modelPath  = fs.String("model", "", "model written by fit -save")
		derivative = fs.Int("derivative", 0, "also output the derivative of this order (1-D)")
		withErrors = fs.Bool("errors", false, "also output standard errors (1-D)")
		logLevel   = fs.String("log-level", "warn", "log level (debug, info, warn, error)")
		logFormat  = fs.String("log-format", log.FormatJSON, "log backend (json, slog)")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := log.SetupLoggerFormat(stderr, *logLevel, *logFormat); err != nil {
		return err
	}
	if *in == "" || *modelPath == "" {
		return scigoErrors.NewConfigError("psplines predict", "in/model", "are required", *in+" "+*modelPath)
	}

	m, err := psplines.Load(*modelPath)
	if err != nil {
		return err
	}
	rows, err := readCSV(*in, *header)
	if err != nil {
		return err
	}
	X := mat.NewDense(len(rows), len(rows[0]), nil)
	for i, r := range rows {
		if len(r) != len(rows[0]) {
			return scigoErrors.NewDimensionError("psplines predict", len(rows[0]), len(r), 1)
		}
		X.SetRow(i, r)
	}
	return writePredictions(stdout, m, X, *withErrors, *derivative)
}

// writePredictions writes x, fit and optional columns for a 1-D model, or
// the prediction grid x1..xk,fit for higher dimensions.
func writePredictions(w io.Writer, m *psplines.Model, X *mat.Dense, withErrors bool, derivative int) error {
	pred, err := m.Predict(X)
	if err != nil {
		return err
	}
	out := csv.NewWriter(w)

	if m.Dimension() > 1 {
		axes, err := preprocessing.Axes(X)
		if err != nil {
			return err
		}
		header := make([]string, 0, len(axes)+1)
		for i := range axes {
			header = append(header, fmt.Sprintf("x%d", i+1))
		}
		if err := out.Write(append(header, "fit")); err != nil {
			return err
		}
		if err := writeGrid(out, axes, pred); err != nil {
			return err
		}
		out.Flush()
		return out.Error()
	}

	header := []string{"x", "fit"}
	cols := [][]float64{mat.Col(nil, 0, X), pred.Data()}
	if withErrors {
		se, err := m.Errors(X)
		if err != nil {
			return err
		}
		header = append(header, "se")
		cols = append(cols, se.RawVector().Data)
	}
	if derivative > 0 {
		d, err := m.Derivative(X, derivative)
		if err != nil {
			return err
		}
		header = append(header, fmt.Sprintf("d%d", derivative))
		cols = append(cols, d.RawVector().Data)
	}
	if err := out.Write(header); err != nil {
		return err
	}
	for i := range cols[0] {
		rec := make([]string, len(cols))
		for j, c := range cols {
			rec[j] = strconv.FormatFloat(c[i], 'g', -1, 64)
		}
		if err := out.Write(rec); err != nil {
			return err
		}
	}
	out.Flush()
	return out.Error()
}

func writeGrid(out *csv.Writer, axes [][]float64, pred *tensor.Tensor) error {
	idx := make([]int, len(axes))
	for cell := 0; cell < pred.Size(); cell++ {
		rem := cell
		for k := len(axes) - 1; k >= 0; k-- {
			idx[k] = rem % len(axes[k])
			rem /= len(axes[k])
		}
		rec := make([]string, 0, len(axes)+1)
		for k, a := range axes {
			rec = append(rec, strconv.FormatFloat(a[idx[k]], 'g', -1, 64))
		}
		rec = append(rec, strconv.FormatFloat(pred.At(idx...), 'g', -1, 64))
		if err := out.Write(rec); err != nil {
			return err
		}
	}
	return nil
}

func writePlot(m *psplines.Model, X *mat.Dense, y []float64, path string, band bool) error {
	var opts []plotting.Option
	if band {
		opts = append(opts, plotting.WithErrorBand(2))
	}
	p, err := plotting.Curve(m, 200, &plotting.Data{X: mat.Col(nil, 0, X), Y: y}, opts...)
	if err != nil {
		return err
	}
	return plotting.Save(p, path)
}

func readCSV(path string, skipHeader bool) ([][]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, scigoErrors.Wrap(err, "open input")
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, scigoErrors.Wrap(err, "read input")
	}
	if skipHeader && len(records) > 0 {
		records = records[1:]
	}
	if len(records) == 0 {
		return nil, scigoErrors.Wrap(scigoErrors.ErrEmptyData, "read input")
	}
	rows := make([][]float64, len(records))
	for i, rec := range records {
		rows[i] = make([]float64, len(rec))
		for j, field := range rec {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, scigoErrors.Wrapf(err, "row %d, column %d", i+1, j+1)
			}
			rows[i][j] = v
		}
	}
	return rows, nil
}

func parseInts(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	out := make([]int, len(parts))
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, scigoErrors.Wrapf(err, "parse %q", s)
		}
		out[i] = v
	}
	return out, nil
}

func parseFloats(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	out := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, scigoErrors.Wrapf(err, "parse %q", s)
		}
		out[i] = v
	}
	return out, nil
}
