package lexer

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/xplshn/rcc/pkg/config"
	"github.com/xplshn/rcc/pkg/token"
	"github.com/xplshn/rcc/pkg/util"
)

// Error is a fatal lexical error at a byte offset of the source.
type Error struct {
	FileIndex int
	Pos       int
	Len       int
	Msg       string
}

func (e *Error) Error() string { return fmt.Sprintf("%d: %s", e.Pos, e.Msg) }

func (e *Error) Diagnostic() util.Diagnostic {
	return util.Diagnostic{
		Severity: util.SeverityError, FileIndex: e.FileIndex,
		Pos: e.Pos, Len: e.Len, Msg: e.Msg,
	}
}

type Lexer struct {
	source    string
	fileIndex int
	pos       int
	cfg       *config.Config
	warnings  []util.Diagnostic
	done      bool
	err       error
}

// NewLexer returns a lexer over source. A nil cfg uses the defaults.
func NewLexer(source string, fileIndex int, cfg *config.Config) *Lexer {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	return &Lexer{source: source, fileIndex: fileIndex, cfg: cfg}
}

// Tokenize scans source with the default configuration.
func Tokenize(source string) ([]token.Token, error) {
	return NewLexer(source, 0, nil).Tokenize()
}

// Tokenize scans the remaining input and returns every token up to and including EOF.
func (l *Lexer) Tokenize() ([]token.Token, error) {
	var toks []token.Token
	for {
		tok, err := l.Next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			return toks, nil
		}
	}
}

// Warnings returns the non-fatal diagnostics collected so far.
func (l *Lexer) Warnings() []util.Diagnostic { return l.warnings }

// Next returns the next token. Once EOF has been returned it keeps returning
// EOF, and once an error has been returned it keeps returning that error.
func (l *Lexer) Next() (token.Token, error) {
	if l.err != nil {
		return token.Token{}, l.err
	}
	if l.done {
		return l.makeToken(token.EOF, len(l.source), 0), nil
	}

	for !l.isAtEnd() {
		ch := l.peek()
		if isSpace(ch) {
			l.pos++
			continue
		}

		rest := l.source[l.pos:]
		for _, sym := range token.Symbols {
			if strings.HasPrefix(rest, sym.Text) {
				return l.advanceToken(sym.Kind, len(sym.Text)), nil
			}
		}

		for _, kw := range token.Keywords {
			if strings.HasPrefix(rest, kw.Text) && !isIdent(l.peekAt(len(kw.Text))) {
				return l.advanceToken(kw.Kind, len(kw.Text)), nil
			}
		}

		if isDigit(ch) {
			return l.numberLiteral()
		}

		if isIdent(ch) {
			return l.identifier(), nil
		}

		return token.Token{}, l.fail(&Error{
			FileIndex: l.fileIndex, Pos: l.pos, Len: 1,
			Msg: "unrecognized character " + quoteByte(ch),
		})
	}

	l.done = true
	return l.makeToken(token.EOF, l.pos, 0), nil
}

func (l *Lexer) peek() byte { return l.peekAt(0) }

func (l *Lexer) peekAt(n int) byte {
	if l.pos+n >= len(l.source) {
		return 0
	}
	return l.source[l.pos+n]
}

func (l *Lexer) isAtEnd() bool { return l.pos >= len(l.source) }

func (l *Lexer) makeToken(kind token.Kind, pos, length int) token.Token {
	return token.Token{Kind: kind, Pos: pos, Len: length, FileIndex: l.fileIndex}
}

func (l *Lexer) advanceToken(kind token.Kind, length int) token.Token {
	tok := l.makeToken(kind, l.pos, length)
	l.pos += length
	return tok
}

func (l *Lexer) fail(err error) error {
	l.err = err
	return err
}

func (l *Lexer) identifier() token.Token {
	start := l.pos
	for isIdent(l.peek()) {
		l.pos++
	}
	return l.makeToken(token.Ident, start, l.pos-start)
}

func (l *Lexer) numberLiteral() (token.Token, error) {
	start := l.pos
	for isDigit(l.peek()) {
		l.pos++
	}
	tok := l.makeToken(token.Num, start, l.pos-start)
	text := tok.Text(l.source)

	if len(text) > 1 && text[0] == '0' {
		if err := l.warn(config.WarnLeadingZero, tok, "leading zero in decimal constant %s is not an octal prefix", text); err != nil {
			return token.Token{}, err
		}
	}

	val, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		var numErr *strconv.NumError
		if !errors.As(err, &numErr) || numErr.Err != strconv.ErrRange {
			return token.Token{}, l.fail(&Error{FileIndex: l.fileIndex, Pos: tok.Pos, Len: tok.Len, Msg: "invalid number literal: " + text})
		}
		val = math.MaxInt64
		if err := l.warn(config.WarnOverflow, tok, "integer constant overflow: %s saturated to %d", text, val); err != nil {
			return token.Token{}, err
		}
	}
	tok.Val = val
	return tok, nil
}

// warn records a warning at tok, or turns it into an error under -Werror.
func (l *Lexer) warn(wt config.Warning, tok token.Token, format string, args ...any) error {
	if !l.cfg.IsWarningEnabled(wt) {
		return nil
	}
	msg := fmt.Sprintf(format, args...)
	if l.cfg.WarningsAsErrors {
		return l.fail(&Error{
			FileIndex: l.fileIndex, Pos: tok.Pos, Len: tok.Len,
			Msg: fmt.Sprintf("%s [-Werror=%s]", msg, l.cfg.Warnings[wt].Name),
		})
	}
	l.warnings = append(l.warnings, util.Diagnostic{
		Severity: util.SeverityWarning, FileIndex: l.fileIndex,
		Pos: tok.Pos, Len: tok.Len, Msg: msg, Warning: wt,
	})
	return nil
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdent(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || isDigit(c) || c == '_'
}

func quoteByte(c byte) string { return strconv.QuoteToASCII(string([]byte{c})) }
