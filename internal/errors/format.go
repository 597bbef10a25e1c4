package errors

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	ansiReset = "\033[0m"
	ansiRed   = "\033[31m"
	ansiCyan  = "\033[36m"
	ansiGray  = "\033[90m"
	ansiBold  = "\033[1m"
)

// labelWidth aligns the values of Format's labelled lines.
const labelWidth = 8

// wrapWidth is the column Format wraps long values at.
const wrapWidth = 72

var colors = true

// DisableColors turns off ANSI escapes in Format and Fprint.
func DisableColors() { colors = false }

// EnableColors turns ANSI escapes back on.
func EnableColors() { colors = true }

func paint(code, text string) string {
	if !colors || code == "" || text == "" {
		return text
	}
	return code + text + ansiReset
}

// Format renders the error for a terminal:
//
//	ERROR E203 [route]: Malformed route pattern
//
//	  route   /files/{$ ({$)
//	  cause   unterminated brace
//	  hint    Close the brace
func (e *PathwayError) Format() string {
	var b strings.Builder

	b.WriteString("\n")
	head := "ERROR"
	if e.Code != "" {
		head += " " + e.Code
	}
	b.WriteString(paint(ansiRed+ansiBold, head))
	if e.Category != "" {
		b.WriteString(paint(ansiGray, " ["+string(e.Category)+"]"))
	}
	b.WriteString(": ")
	b.WriteString(paint(ansiBold, e.Message))
	b.WriteString("\n\n")

	if l := e.Location; l != nil {
		route := l.RouteID
		if l.Path != "" && l.Path != l.RouteID {
			route += " (" + l.Path + ")"
		}
		line(&b, "route", ansiCyan, route)
		line(&b, "source", ansiCyan, l.Source)
	}
	line(&b, "detail", "", e.Detail)
	if e.Wrapped != nil {
		line(&b, "cause", ansiGray, e.Wrapped.Error())
	}
	line(&b, "hint", ansiCyan, e.Suggestion)
	if t, ok := registry[e.Code]; ok && t.Detail != e.Detail {
		line(&b, "about", ansiGray, t.Detail)
	}
	b.WriteString("\n")

	return b.String()
}

func line(b *strings.Builder, label, code, value string) {
	if value == "" {
		return
	}
	pad := strings.Repeat(" ", labelWidth-len(label))
	for i, part := range wrap(value, wrapWidth-labelWidth) {
		b.WriteString("  ")
		if i == 0 {
			b.WriteString(paint(code, label))
			b.WriteString(pad)
		} else {
			b.WriteString(strings.Repeat(" ", labelWidth))
		}
		b.WriteString(part)
		b.WriteString("\n")
	}
}

// FormatCompact renders the error on one line, location first.
func (e *PathwayError) FormatCompact() string {
	parts := make([]string, 0, 3)
	if loc := e.Location.String(); loc != "" {
		parts = append(parts, loc+":")
	}
	if e.Code != "" {
		parts = append(parts, e.Code)
	}
	parts = append(parts, e.Message)
	s := strings.Join(parts, " ")
	if e.Detail != "" {
		s += " (" + e.Detail + ")"
	}
	return s
}

// wrap splits text into lines of at most width bytes, breaking at spaces.
// A single word longer than width gets a line of its own.
func wrap(text string, width int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	lines := []string{words[0]}
	for _, w := range words[1:] {
		last := &lines[len(lines)-1]
		if len(*last)+1+len(w) > width {
			lines = append(lines, w)
			continue
		}
		*last += " " + w
	}
	return lines
}

// Fprint writes err to w, using Format for a *PathwayError in its chain.
func Fprint(w io.Writer, err error) {
	var pe *PathwayError
	if errors.As(err, &pe) {
		fmt.Fprint(w, pe.Format())
		return
	}
	fmt.Fprintf(w, "\n%s %s\n\n", paint(ansiRed+ansiBold, "ERROR:"), err.Error())
}
