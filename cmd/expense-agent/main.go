// Command expense-agent is a Spanish-speaking assistant that records expenses
// in a CSV ledger, answers questions about them and draws charts.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	cc "github.com/ivanpirog/coloredcobra"
	"github.com/spf13/cobra"
)

var version = "dev"

var (
	envFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:     "expense-agent",
	Short:   "Asistente conversacional de gastos",
	Long:    "Registra gastos, responde consultas sobre ellos y genera gráficos a partir de un libro CSV.",
	Version: version,
	// Chatting is the default.
	RunE:          runChat,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "archivo .env con la configuración")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "registra en nivel debug y vuelca el estado de la conversación")

	rootCmd.AddCommand(chatCmd, mcpCmd, addCmd, listCmd)
}

func main() {
	cc.Init(&cc.Config{
		RootCmd:         rootCmd,
		Headings:        cc.HiCyan + cc.Bold + cc.Underline,
		Commands:        cc.HiYellow + cc.Bold,
		Example:         cc.Italic,
		ExecName:        cc.Bold,
		Flags:           cc.Bold,
		NoExtraNewlines: true,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
