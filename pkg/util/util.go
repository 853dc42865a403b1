package util

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/xplshn/rcc/pkg/config"
)

// SourceFileRecord tracks the name and content of a single source file.
type SourceFileRecord struct {
	Name    string
	Content string
}

// Position converts a byte offset into a 1-based line and column.
func (r SourceFileRecord) Position(offset int) (line, col int) {
	if offset > len(r.Content) {
		offset = len(r.Content)
	}
	if offset < 0 {
		offset = 0
	}
	line = 1 + strings.Count(r.Content[:offset], "\n")
	col = offset - (strings.LastIndexByte(r.Content[:offset], '\n') + 1) + 1
	return line, col
}

// lineAt returns the text of the line containing offset and the offset it starts at.
func (r SourceFileRecord) lineAt(offset int) (string, int) {
	if offset > len(r.Content) {
		offset = len(r.Content)
	}
	start := strings.LastIndexByte(r.Content[:offset], '\n') + 1
	end := strings.IndexByte(r.Content[start:], '\n')
	if end < 0 {
		return r.Content[start:], start
	}
	return r.Content[start : start+end], start
}

type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

// Diagnostic is a message anchored at a byte span of one source file.
type Diagnostic struct {
	Severity  Severity
	FileIndex int
	Pos       int
	Len       int
	Msg       string
	Warning   config.Warning
}

// Reporter prints diagnostics in file:line:col form followed by the offending
// source line and a caret under the span.
type Reporter struct {
	out      io.Writer
	color    bool
	files    []SourceFileRecord
	errors   int
	warnings int
	cfg      *config.Config
}

func NewReporter(out io.Writer, cfg *config.Config) *Reporter {
	return &Reporter{out: out, cfg: cfg, color: useColor(out, cfg.Color)}
}

func useColor(out io.Writer, mode string) bool {
	switch mode {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	}
	f, ok := out.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// SetSourceFiles stores the source code for all input files for rich error messages
func (r *Reporter) SetSourceFiles(files []SourceFileRecord) { r.files = files }

func (r *Reporter) AddSourceFile(rec SourceFileRecord) int {
	r.files = append(r.files, rec)
	return len(r.files) - 1
}

func (r *Reporter) Counts() (errors, warnings int) { return r.errors, r.warnings }

func (r *Reporter) paint(code, s string) string {
	if !r.color {
		return s
	}
	return code + s + "\033[0m"
}

func (r *Reporter) Report(d Diagnostic) {
	label := r.paint("\033[31m", "error:")
	suffix := ""
	if d.Severity == SeverityWarning {
		label = r.paint("\033[33m", "warning:")
		suffix = fmt.Sprintf(" [-W%s]", r.cfg.Warnings[d.Warning].Name)
		r.warnings++
	} else {
		r.errors++
	}

	if d.FileIndex < 0 || d.FileIndex >= len(r.files) {
		fmt.Fprintf(r.out, "rcc: %s %s%s\n", label, d.Msg, suffix)
		return
	}

	rec := r.files[d.FileIndex]
	line, col := rec.Position(d.Pos)
	fmt.Fprintf(r.out, "%s:%d:%d: %s %s%s\n", rec.Name, line, col, label, d.Msg, suffix)
	r.printErrorLine(rec, d)
}

func (r *Reporter) printErrorLine(rec SourceFileRecord, d Diagnostic) {
	text, start := rec.lineAt(d.Pos)
	fmt.Fprintf(r.out, "  %s\n", text)

	// Keep tabs so the caret lines up with the echoed line.
	var pad strings.Builder
	for i := start; i < d.Pos && i < len(rec.Content); i++ {
		if rec.Content[i] == '\t' {
			pad.WriteByte('\t')
		} else {
			pad.WriteByte(' ')
		}
	}
	marker := "^"
	if d.Len > 1 {
		marker += strings.Repeat("~", d.Len-1)
	}
	fmt.Fprintf(r.out, "  %s%s\n", pad.String(), r.paint("\033[32m", marker))
}

// Error prints a formatted error message anchored at pos
func (r *Reporter) Error(fileIndex, pos, length int, format string, args ...any) {
	r.Report(Diagnostic{
		Severity: SeverityError, FileIndex: fileIndex, Pos: pos, Len: length,
		Msg: fmt.Sprintf(format, args...),
	})
}

// Info prints a driver status line that is not tied to a source position.
func (r *Reporter) Info(format string, args ...any) {
	fmt.Fprintf(r.out, "rcc: info: %s\n", fmt.Sprintf(format, args...))
}
