// Package diag is the diagnostics sink shared by the frontend. The
// parser reports and keeps going; callers decide what to do with what
// accumulated.
package diag

import (
	"fmt"

	"github.com/tarn-cc/tarn-cc/pkg/lexer"
)

// Severity distinguishes recoverable errors from warnings
type Severity int

const (
	Error Severity = iota
	Warning
)

func (s Severity) String() string {
	if s == Warning {
		return "warning"
	}
	return "error"
}

// Diagnostic is one reported problem
type Diagnostic struct {
	Pos      lexer.Position
	Severity Severity
	Message  string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("line %d, col %d: %s: %s",
		d.Pos.Line, d.Pos.Column, d.Severity, d.Message)
}

// Reporter receives diagnostics. Implementations must not fail; the
// parser never inspects the outcome of a report.
type Reporter interface {
	Report(pos lexer.Position, sev Severity, msg string)
}

// Collector accumulates diagnostics in order of arrival
type Collector struct {
	all []Diagnostic
}

// NewCollector creates an empty Collector
func NewCollector() *Collector {
	return &Collector{}
}

// Report implements Reporter
func (c *Collector) Report(pos lexer.Position, sev Severity, msg string) {
	c.all = append(c.all, Diagnostic{Pos: pos, Severity: sev, Message: msg})
}

// All returns every diagnostic in arrival order
func (c *Collector) All() []Diagnostic {
	return c.all
}

// Errors returns only the error-severity diagnostics
func (c *Collector) Errors() []Diagnostic {
	var out []Diagnostic
	for _, d := range c.all {
		if d.Severity == Error {
			out = append(out, d)
		}
	}
	return out
}

// Warnings returns only the warning-severity diagnostics
func (c *Collector) Warnings() []Diagnostic {
	var out []Diagnostic
	for _, d := range c.all {
		if d.Severity == Warning {
			out = append(out, d)
		}
	}
	return out
}
