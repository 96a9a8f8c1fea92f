package tools

import (
	"context"

	"github.com/hoangvvo/expense-agent/internal/logger"
	"go.starlark.net/starlark"
)

type CodeParams struct {
	Code string `json:"code" jsonschema:"Programa Starlark a ejecutar"`
}

// Query runs a model-written snippet against the ledger and returns the value
// the snippet stored in result.
func (ts *Toolset) Query() Tool {
	return newTypedTool(QueryName,
		"Consulta y analiza los gastos ejecutando un programa Starlark que vos escribís. "+
			"Variables disponibles: df (tabla con columnas date, category, description, amount), date, today, timedelta, time, math, json. "+
			"El programa SIEMPRE debe terminar asignando: result = \"...texto con la respuesta...\"",
		ts.query)
}

func (ts *Toolset) query(ctx context.Context, p CodeParams) (Result, error) {
	table, ok, err := ts.loadTable(ctx)
	if err != nil {
		return Result{}, err
	}
	if !ok {
		return textResult(NoDataMessage), nil
	}

	res := ts.executor.Exec(ctx, p.Code, table, starlark.StringDict{"result": starlark.String("")})
	if !res.OK {
		log := logger.FromContext(ctx)
		log.Debug().Str("error", res.Error).Msg("query snippet failed")
		return errorResult(ExecErrorPrefix + res.Error), nil
	}

	value, assigned := res.Globals["result"]
	if !assigned {
		return textResult(NoResultMessage), nil
	}
	if s, ok := value.(starlark.String); ok {
		return textResult(string(s)), nil
	}
	return textResult(value.String()), nil
}
