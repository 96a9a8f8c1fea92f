package cli

import (
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"
)

const (
	minWidth     = 20
	defaultWidth = 80
)

type theme struct {
	banner *color.Color
	reply  *color.Color
	prompt *color.Color
	status *color.Color
	err    *color.Color
	dim    *color.Color
	accent *color.Color
}

func newTheme(enabled bool) theme {
	t := theme{
		banner: color.New(color.FgCyan, color.Bold),
		reply:  color.New(color.FgGreen, color.Bold),
		prompt: color.New(color.FgCyan, color.Bold),
		status: color.New(color.FgGreen, color.Bold),
		err:    color.New(color.FgRed, color.Bold),
		dim:    color.New(color.Faint),
		accent: color.New(color.FgYellow, color.Bold),
	}
	for _, c := range []*color.Color{t.banner, t.reply, t.prompt, t.status, t.err, t.dim, t.accent} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return t
}

// panel frames body in a box width columns wide. Long lines are wrapped on
// spaces; the right edge is left open so wide runes never break the frame.
func panel(title, body string, border *color.Color, width int) string {
	if width < minWidth {
		width = minWidth
	}

	var b strings.Builder
	head := "╭─"
	if title != "" {
		head += " " + title + " "
	}
	fill := width - 1 - utf8.RuneCountInString(head)
	if fill < 0 {
		fill = 0
	}
	b.WriteString(border.Sprint(head + strings.Repeat("─", fill) + "╮"))
	b.WriteByte('\n')

	for _, line := range wrap(body, width-4) {
		b.WriteString(border.Sprint("│"))
		b.WriteString(" ")
		b.WriteString(line)
		b.WriteByte('\n')
	}

	b.WriteString(border.Sprint("╰" + strings.Repeat("─", width-2) + "╯"))
	b.WriteByte('\n')
	return b.String()
}

func wrap(text string, width int) []string {
	var lines []string
	for _, raw := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		if utf8.RuneCountInString(raw) <= width {
			lines = append(lines, raw)
			continue
		}
		var current string
		for _, word := range strings.Fields(raw) {
			switch {
			case current == "":
				current = word
			case utf8.RuneCountInString(current)+1+utf8.RuneCountInString(word) > width:
				lines = append(lines, current)
				current = word
			default:
				current += " " + word
			}
		}
		lines = append(lines, current)
	}
	return lines
}
