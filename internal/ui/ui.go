// Package ui provides line-oriented terminal output for the one-shot
// commands (status, plan, tail). The live view lives in package tui.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/Devious-Alcedo/EliteInfoPanel-sub000/internal/ansi"
)

// Printer writes styled lines to a writer.
type Printer struct {
	w     io.Writer
	color bool
}

// New returns a Printer writing to w. Color is disabled when NO_COLOR is set.
func New(w io.Writer, color bool) *Printer {
	if os.Getenv("NO_COLOR") != "" {
		color = false
	}
	return &Printer{w: w, color: color}
}

func (p *Printer) paint(s string, codes ...string) string {
	return ansi.Wrap(p.color, s, codes...)
}

func (p *Printer) line(format string, args ...any) {
	fmt.Fprintf(p.w, format+"\n", args...)
}

// Banner prints the program header.
func (p *Printer) Banner(dir string) {
	p.line("%s %s", p.paint("ELITEPANEL", ansi.Bold, ansi.Cyan), p.paint(dir, ansi.Dim))
}

// Section prints a heading.
func (p *Printer) Section(title string) {
	p.line("")
	p.line("%s", p.paint("── "+title+" ──", ansi.Bold, ansi.Magenta))
}

// Field prints one aligned label/value pair.
func (p *Printer) Field(label, value string) {
	p.line("  %s %s", p.paint(fmt.Sprintf("%-12s", label+":"), ansi.Dim), value)
}

// Info prints a de-emphasized line.
func (p *Printer) Info(msg string) {
	p.line("%s", p.paint(msg, ansi.Dim))
}

// Warn prints a highlighted warning line.
func (p *Printer) Warn(msg string) {
	p.line("%s %s", p.paint("⚠", ansi.Yellow, ansi.Bold), msg)
}

// Error prints an error line.
func (p *Printer) Error(msg string) {
	p.line("%s%s", p.paint("error: ", ansi.Red, ansi.Bold), msg)
}

// Tonnes formats a fuel or cargo mass.
func Tonnes(t float64) string {
	return humanize.FtoaWithDigits(t, 2) + " t"
}

// LightYears formats a distance.
func LightYears(ly float64) string {
	return fmt.Sprintf("%.2f ly", ly)
}

// Credits formats a credit balance with thousands separators.
func Credits(cr int64) string {
	return humanize.Comma(cr) + " cr"
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}
