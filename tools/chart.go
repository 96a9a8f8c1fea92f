package tools

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/hoangvvo/expense-agent/internal/logger"
	"github.com/hoangvvo/expense-agent/sandbox"
)

// Chart runs a model-written snippet that draws with plt and saves the figure
// to OUTPUT_PATH.
func (ts *Toolset) Chart() Tool {
	return newTypedTool(ChartName,
		"Genera un gráfico ejecutando un programa Starlark que vos escribís. "+
			"Variables disponibles: df, plt, date, today, timedelta, OUTPUT_PATH. "+
			`El programa SIEMPRE debe terminar con: fig.savefig(OUTPUT_PATH, dpi=150, bbox_inches="tight")`,
		ts.chart)
}

func (ts *Toolset) chart(ctx context.Context, p CodeParams) (Result, error) {
	log := logger.FromContext(ctx)

	table, ok, err := ts.loadTable(ctx)
	if err != nil {
		return Result{}, err
	}
	if !ok {
		return textResult(NoDataMessage), nil
	}

	if err := os.MkdirAll(ts.chartDir, 0o755); err != nil {
		return Result{}, fmt.Errorf("failed to create chart directory: %w", err)
	}
	path, err := ArtifactPath(ts.chartDir, ts.now())
	if err != nil {
		return Result{}, err
	}

	canvas := sandbox.NewCanvas(path)
	defer canvas.Reset()

	res := ts.executor.Exec(ctx, p.Code, table, canvas.Bindings())
	if !res.OK {
		log.Debug().Str("error", res.Error).Msg("chart snippet failed")
		_ = os.Remove(path)
		return errorResult(ExecErrorPrefix + res.Error), nil
	}
	if _, err := os.Stat(path); err != nil {
		return textResult(ChartMissingMessage), nil
	}
	log.Info().Str("path", path).Msg("chart generated")
	return textResult(ChartSuccessPrefix + path), nil
}

// ArtifactPath names a chart after t, appending _2, _3, ... when a chart
// from the same second already exists in dir.
func ArtifactPath(dir string, t time.Time) (string, error) {
	base := "chart_" + t.Format("20060102_150405")
	path := filepath.Join(dir, base+".png")
	for n := 2; ; n++ {
		_, err := os.Stat(path)
		if errors.Is(err, fs.ErrNotExist) {
			return path, nil
		}
		if err != nil {
			return "", fmt.Errorf("failed to check chart path: %w", err)
		}
		path = filepath.Join(dir, fmt.Sprintf("%s_%d.png", base, n))
	}
}
