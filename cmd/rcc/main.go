package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/xplshn/rcc/pkg/cli"
	"github.com/xplshn/rcc/pkg/config"
	"github.com/xplshn/rcc/pkg/dump"
	"github.com/xplshn/rcc/pkg/lexer"
	"github.com/xplshn/rcc/pkg/token"
	"github.com/xplshn/rcc/pkg/util"
)

var errFailed = errors.New("tokenization failed")

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	app := cli.NewApp("rcc")
	app.Synopsis = "[options] <input.c> ..."
	app.Description = "Tokenizer for the rcc C subset. Prints the token stream of each input, or of the program given with -e."
	app.Authors = []string{"xplshn"}
	app.Stdout, app.Stderr = stdout, stderr

	var (
		expr        string
		format      string
		color       string
		configFile  string
		fingerprint bool
		warnFlags   []string
	)

	cfg := config.NewConfig()

	fs := app.FlagSet
	fs.String(&expr, "expr", "e", "", "Tokenize the given program text instead of files.", "program")
	fs.String(&format, "format", "f", "", "Output format: text or json (default text).", "format")
	fs.String(&color, "color", "", "", "Colorize diagnostics: auto, always or never.", "when")
	fs.String(&configFile, "config", "c", "", "Read settings from an rcc.toml file.", "file")
	fs.Bool(&fingerprint, "fingerprint", "", false, "Print only the fingerprint of each token stream.")
	fs.Special(&warnFlags, "W", "Enable (-W<name>) or disable (-Wno-<name>) a warning; also all and error.", "warning")

	var entries []cli.FlagGroupEntry
	for i := config.Warning(0); i < config.WarnCount; i++ {
		info := cfg.Warnings[i]
		entries = append(entries, cli.FlagGroupEntry{Name: info.Name, Usage: info.Description, Enabled: info.Enabled})
	}
	fs.AddFlagGroup(cli.FlagGroup{Name: "Warnings", Prefix: "-W", Entries: entries})

	app.Action = func(inputFiles []string) error {
		if configFile != "" {
			if err := cfg.LoadFile(configFile); err != nil {
				fmt.Fprintf(stderr, "rcc: error: %v\n", err)
				return err
			}
		}
		var wflags []string
		for _, w := range warnFlags {
			wflags = append(wflags, "-W"+w)
		}
		if err := cfg.ApplyFlags(wflags); err != nil {
			fmt.Fprintf(stderr, "rcc: error: %v\n", err)
			return err
		}
		if format != "" {
			if err := cfg.SetFormat(format); err != nil {
				fmt.Fprintf(stderr, "rcc: error: %v\n", err)
				return err
			}
		}
		if color != "" {
			if err := cfg.SetColor(color); err != nil {
				fmt.Fprintf(stderr, "rcc: error: %v\n", err)
				return err
			}
		}

		rep := util.NewReporter(stderr, cfg)
		records, err := readSources(expr, fs.Changed("expr"), inputFiles)
		if err != nil {
			rep.Error(-1, 0, 0, "%v", err)
			return err
		}
		if len(records) == 0 {
			rep.Error(-1, 0, 0, "no input files specified")
			return errFailed
		}
		rep.SetSourceFiles(records)

		return tokenizeAll(records, cfg, rep, stdout, fingerprint)
	}

	if err := app.Run(args); err != nil {
		return 1
	}
	return 0
}

// readSources prefers the -e program, which may be empty, over input files.
func readSources(expr string, hasExpr bool, paths []string) ([]util.SourceFileRecord, error) {
	if hasExpr {
		return []util.SourceFileRecord{{Name: "<expr>", Content: expr}}, nil
	}
	var records []util.SourceFileRecord
	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("could not read file '%s': %w", path, err)
		}
		records = append(records, util.SourceFileRecord{Name: path, Content: string(content)})
	}
	return records, nil
}

func tokenizeAll(records []util.SourceFileRecord, cfg *config.Config, rep *util.Reporter, out io.Writer, fingerprint bool) error {
	var files []dump.File
	failed := false

	for i, rec := range records {
		l := lexer.NewLexer(rec.Content, i, cfg)
		toks, err := l.Tokenize()
		for _, w := range l.Warnings() {
			rep.Report(w)
		}
		if err != nil {
			failed = true
			var lexErr *lexer.Error
			if errors.As(err, &lexErr) {
				rep.Report(lexErr.Diagnostic())
			} else {
				rep.Error(i, 0, 0, "%v", err)
			}
		}

		switch {
		case cfg.Format == config.FormatJSON:
			files = append(files, dump.Build(rec.Name, rec.Content, toks, l.Warnings(), err))
		case err != nil:
		case fingerprint:
			fmt.Fprintf(out, "%016x  %s\n", token.Fingerprint(rec.Content, toks), rec.Name)
		default:
			if len(records) > 1 {
				fmt.Fprintf(out, "==> %s <==\n", rec.Name)
			}
			if err := dump.WriteText(out, rec.Content, toks); err != nil {
				return err
			}
		}
	}

	if cfg.Format == config.FormatJSON {
		if err := dump.WriteJSON(out, files); err != nil {
			return err
		}
	}
	if failed {
		return errFailed
	}
	return nil
}
