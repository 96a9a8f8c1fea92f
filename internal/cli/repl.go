// Package cli is the interactive chat loop of the expense assistant.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/hako/durafmt"
	expenseagent "github.com/hoangvvo/expense-agent"
	"github.com/rs/zerolog"
	"github.com/sanity-io/litter"
)

const (
	Goodbye  = "Hasta luego!"
	thinking = "Pensando..."
)

var exitWords = map[string]bool{"salir": true, "exit": true, "quit": true, "q": true}

// spanishUnits is durafmt's unit table in singular:plural pairs from years
// down to microseconds.
var spanishUnits, _ = durafmt.DefaultUnitsCoder.Decode(
	"año:años,semana:semanas,día:días,hora:horas,minuto:minutos,segundo:segundos,milisegundo:milisegundos,microsegundo:microsegundos",
)

// IsExitWord reports whether input ends the session.
func IsExitWord(input string) bool {
	return exitWords[strings.ToLower(strings.TrimSpace(input))]
}

// Runner runs one user turn. *expenseagent.Agent implements it.
type Runner interface {
	Run(ctx context.Context, conv expenseagent.Conversation, input string) (expenseagent.Conversation, *expenseagent.Response, error)
}

type Options struct {
	In  io.Reader
	Out io.Writer
	// Terminal enables colours, the thinking status and chart previews.
	Terminal bool
	// Width is the terminal width in columns. Zero means 80.
	Width int
	// Subtitle is shown under the banner title, e.g. the model in use.
	Subtitle string
	// TracingStatus is printed after the banner.
	TracingStatus string
	// Debug dumps the conversation after every turn.
	Debug  bool
	Logger zerolog.Logger
}

type REPL struct {
	runner Runner
	opts   Options
	theme  theme
	conv   expenseagent.Conversation
}

func New(runner Runner, opts Options) *REPL {
	if opts.Width <= 0 {
		opts.Width = defaultWidth
	}
	return &REPL{
		runner: runner,
		opts:   opts,
		theme:  newTheme(opts.Terminal),
	}
}

// Conversation returns the state accumulated so far.
func (r *REPL) Conversation() expenseagent.Conversation {
	return r.conv
}

// Run reads lines until an exit word, end of input, or ctx is done.
func (r *REPL) Run(ctx context.Context) error {
	out := r.opts.Out
	r.welcome()

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r.opts.In)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	for {
		fmt.Fprint(out, r.theme.prompt.Sprint("Tú"), ": ")

		var input string
		select {
		case <-ctx.Done():
			fmt.Fprintf(out, "\n%s\n", r.theme.err.Sprint(Goodbye))
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				fmt.Fprintf(out, "\n%s\n", r.theme.err.Sprint(Goodbye))
				select {
				case err := <-scanErr:
					return err
				default:
					return nil
				}
			}
			input = strings.TrimSpace(line)
		}

		if input == "" {
			continue
		}
		if IsExitWord(input) {
			fmt.Fprintf(out, "\n%s\n", r.theme.err.Sprint(Goodbye))
			return nil
		}
		r.turn(ctx, input)
	}
}

func (r *REPL) turn(ctx context.Context, input string) {
	out := r.opts.Out
	log := r.opts.Logger

	if r.opts.Terminal {
		fmt.Fprint(out, r.theme.status.Sprint(thinking))
	}
	start := time.Now()
	conv, res, err := r.runner.Run(ctx, r.conv, input)
	elapsed := time.Since(start)
	if r.opts.Terminal {
		fmt.Fprint(out, "\r\033[K")
	}

	if err != nil {
		log.Error().Err(err).Msg("turn failed")
		fmt.Fprintf(out, "\n%s %v\n\n", r.theme.err.Sprint("[Error]"), err)
		return
	}
	r.conv = conv

	fmt.Fprint(out, panel("Bot", res.Text(), r.theme.reply, r.opts.Width))
	fmt.Fprintln(out, r.theme.dim.Sprint(formatElapsed(elapsed)))
	fmt.Fprintln(out)

	if path := r.conv.TakeArtifact(); path != "" {
		r.showChart(path)
	}

	if r.opts.Debug {
		fmt.Fprintln(out, litter.Sdump(r.conv.Messages))
	}
}

func (r *REPL) showChart(path string) {
	out := r.opts.Out
	if r.opts.Terminal {
		art, err := renderChart(path, r.opts.Width-2, true)
		if err == nil {
			fmt.Fprintln(out)
			fmt.Fprint(out, art)
			fmt.Fprintln(out)
		} else {
			r.opts.Logger.Warn().Err(err).Str("path", path).Msg("chart preview failed")
		}
	}
	fmt.Fprintf(out, "%s %s\n\n", r.theme.dim.Sprint("Gráfico guardado en:"), r.theme.banner.Sprint(path))
}

func (r *REPL) welcome() {
	t := r.theme
	var b strings.Builder
	b.WriteString(t.banner.Sprint("Asistente de Gastos Financieros") + "\n")
	if r.opts.Subtitle != "" {
		b.WriteString(t.dim.Sprint(r.opts.Subtitle) + "\n")
	}
	b.WriteString("\n")
	b.WriteString("Puedo ayudarte a:\n")
	b.WriteString(t.reply.Sprint("  • Registrar tus gastos") + "\n")
	b.WriteString(t.reply.Sprint("  • Consultar cuánto gastaste") + "\n")
	b.WriteString(t.reply.Sprint("  • Generar gráficos de tus gastos") + "\n")
	b.WriteString("\n")
	b.WriteString(t.dim.Sprint("Escribí ") + t.err.Sprint("'salir'") + t.dim.Sprint(" para terminar."))

	fmt.Fprint(r.opts.Out, panel("", b.String(), t.banner, r.opts.Width))
	fmt.Fprintln(r.opts.Out)
	if r.opts.TracingStatus != "" {
		fmt.Fprintln(r.opts.Out, t.accent.Sprint(r.opts.TracingStatus))
		fmt.Fprintln(r.opts.Out)
	}
}

func formatElapsed(d time.Duration) string {
	d = d.Round(time.Millisecond)
	if d < time.Millisecond {
		d = time.Millisecond
	}
	f := durafmt.Parse(d).LimitFirstN(2)
	if spanishUnits != (durafmt.Units{}) {
		return "Tiempo: " + f.Format(spanishUnits)
	}
	return "Tiempo: " + f.String()
}
