package tools

// Messages returned to the model. They are shown to the user nearly verbatim,
// hence Spanish.
const (
	NoDataMessage       = "No hay gastos registrados todavía."
	NoResultMessage     = "El código no asignó la variable 'result'."
	ExecErrorPrefix     = "Error ejecutando el código: "
	ChartSuccessPrefix  = "Gráfico generado correctamente: "
	ChartMissingMessage = "El código se ejecutó sin errores pero no se generó el archivo PNG. " +
		`Asegurate de terminar con fig.savefig(OUTPUT_PATH, dpi=150, bbox_inches="tight").`
)

const (
	AddExpenseName = "add_expense"
	QueryName      = "query_with_code"
	ChartName      = "generate_chart_with_code"
)
