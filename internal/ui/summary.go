package ui

import (
	"fmt"
	"strings"
	"time"
)

// RunSummary describes a finished synthetic run.
type RunSummary struct {
	Steps    int
	Sent     int
	Failed   int
	Target   string
	Elapsed  time.Duration
	Canceled bool
}

// RenderRunSummary renders the closing lines of 'trainwatch generate'.
func RenderRunSummary(s RunSummary) string {
	var b strings.Builder

	symbol, style := SymbolSuccess, SuccessStyle()
	switch {
	case s.Canceled:
		symbol, style = SymbolSkipped, WarningStyle()
	case s.Failed > 0 && s.Sent == 0:
		symbol, style = SymbolFail, ErrorStyle()
	case s.Failed > 0:
		symbol, style = SymbolFail, WarningStyle()
	}

	verb := "Generated"
	if s.Canceled {
		verb = "Stopped after"
	}
	b.WriteString(style.Render(fmt.Sprintf("%s %s %s, %s sent",
		symbol, verb, plural(s.Steps, "step"), plural(s.Sent, "event"))))
	b.WriteString(" ")
	b.WriteString(MutedStyle().Render(FormatDuration(s.Elapsed)))
	b.WriteString("\n")

	if s.Target != "" {
		b.WriteString("  ")
		b.WriteString(MutedStyle().Render("to " + s.Target))
		b.WriteString("\n")
	}
	if s.Failed > 0 {
		b.WriteString("  ")
		b.WriteString(ErrorStyle().Render(plural(s.Failed, "event") + " failed"))
		b.WriteString("\n")
	}
	return b.String()
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
