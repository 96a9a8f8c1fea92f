package sandbox

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.starlark.net/starlark"
)

func TestTable_Queries(t *testing.T) {
	tests := []struct {
		name string
		code string
		want string
	}{
		{"len", "result = len(df)", "3"},
		{"column sum", `result = df["amount"].sum()`, "35.5"},
		{"column mean", `result = df["amount"].mean()`, "11.833333333333334"},
		{"column max", `result = df["amount"].max()`, "20.0"},
		{"column count", `result = df["category"].count()`, "3"},
		{"unique", `result = df["category"].unique()`, `["comida", "transporte"]`},
		{"indexing", `result = df["description"][1]`, `"cena"`},
		{"filter", `result = len(df.filter(lambda r: r.category == "comida"))`, "2"},
		{"row iteration", "result = sum([r.amount for r in df if r.date.month == 2])", "30.0"},
		{"nlargest", `result = df.nlargest(1, "amount").rows()[0].description`, `"cena"`},
		{"nsmallest", `result = df.nsmallest(2, "amount")["description"].to_list()`, `["taxi", "almuerzo"]`},
		{"sort", `result = df.sort("date")["description"].to_list()`, `["taxi", "almuerzo", "cena"]`},
		{"sort reverse", `result = df.sort("amount", reverse=True).head(1)["amount"].to_list()`, "[20.0]"},
		{"tail", `result = df.tail(1)["description"].to_list()`, `["taxi"]`},
		{"groupby sum", `result = df.groupby("category").sum("amount")`, `{"comida": 30.0, "transporte": 5.5}`},
		{"groupby count", `result = df.groupby("category").count()`, `{"comida": 2, "transporte": 1}`},
		{"groupby max", `result = df.groupby("category").max("amount")`, `{"comida": 20.0, "transporte": 5.5}`},
		{"columns", "result = df.columns", `["date", "category", "description", "amount"]`},
		{"fixed", `result = "$" + fixed(df["amount"].sum())`, `"$35.50"`},
		{"round", `result = round(df["amount"].mean(), 1)`, "11.8"},
		{"empty mean", `result = df.filter(lambda r: False)["amount"].mean()`, "None"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := exec(t, tt.code, nil)
			if !res.OK {
				t.Fatalf("Exec() failed: %s", res.Error)
			}
			if got := res.Globals["result"].String(); got != tt.want {
				t.Errorf("result = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestTable_Render(t *testing.T) {
	res := exec(t, `md = df.head(1).to_markdown()
txt = df.head(2).to_string()`, nil)
	if !res.OK {
		t.Fatalf("Exec() failed: %s", res.Error)
	}

	wantMarkdown := "| date | category | description | amount |\n" +
		"|---|---|---|---|\n" +
		"| 2026-02-15 | comida | almuerzo | 10.00 |"
	if diff := cmp.Diff(wantMarkdown, string(res.Globals["md"].(starlark.String))); diff != "" {
		t.Errorf("to_markdown() mismatch (-want +got):\n%s", diff)
	}

	wantText := "date        category  description  amount\n" +
		"2026-02-15  comida    almuerzo     10.00\n" +
		"2026-02-16  comida    cena         20.00"
	if diff := cmp.Diff(wantText, string(res.Globals["txt"].(starlark.String))); diff != "" {
		t.Errorf("to_string() mismatch (-want +got):\n%s", diff)
	}
}

func TestTable_SumRejectsText(t *testing.T) {
	res := exec(t, `result = df["description"].sum()`, nil)
	if res.OK {
		t.Fatal("Exec() succeeded, want failure")
	}
}
