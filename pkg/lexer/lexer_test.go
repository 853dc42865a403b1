package lexer

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xplshn/rcc/pkg/config"
	"github.com/xplshn/rcc/pkg/token"
)

func tok(kind token.Kind, pos, length int) token.Token {
	return token.Token{Kind: kind, Pos: pos, Len: length}
}

func num(pos, length int, val int64) token.Token {
	return token.Token{Kind: token.Num, Pos: pos, Len: length, Val: val}
}

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []token.Token
	}{
		{"empty", "", []token.Token{tok(token.EOF, 0, 0)}},
		{"maximal munch", "<=", []token.Token{tok(token.Le, 0, 2), tok(token.EOF, 2, 0)}},
		{"keyword boundary", "ifx=1;", []token.Token{
			tok(token.Ident, 0, 3), tok(token.Assign, 3, 1), num(4, 1, 1), tok(token.Semi, 5, 1), tok(token.EOF, 6, 0),
		}},
		{"integers", "123+45", []token.Token{
			num(0, 3, 123), tok(token.Plus, 3, 1), num(4, 2, 45), tok(token.EOF, 6, 0),
		}},
		{"digit then letter", "1a", []token.Token{
			num(0, 1, 1), tok(token.Ident, 1, 1), tok(token.EOF, 2, 0),
		}},
		{"ident and number adjacency", "a1 1a", []token.Token{
			tok(token.Ident, 0, 2), num(3, 1, 1), tok(token.Ident, 4, 1), tok(token.EOF, 5, 0),
		}},
		{"keyword before paren", "return(x);", []token.Token{
			tok(token.Return, 0, 6), tok(token.LParen, 6, 1), tok(token.Ident, 7, 1),
			tok(token.RParen, 8, 1), tok(token.Semi, 9, 1), tok(token.EOF, 10, 0),
		}},
		{"keyword at end of input", "else", []token.Token{tok(token.Else, 0, 4), tok(token.EOF, 4, 0)}},
		{"underscore continues identifier", "int_x", []token.Token{tok(token.Ident, 0, 5), tok(token.EOF, 5, 0)}},
		{"assign after eq", "===", []token.Token{tok(token.Eq, 0, 2), tok(token.Assign, 2, 1), tok(token.EOF, 3, 0)}},
		{"whitespace skipped", " \t\n\v\f\r", []token.Token{tok(token.EOF, 6, 0)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Tokenize(tt.input)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Tokenize(%q) mismatch (-want +got):\n%s", tt.input, diff)
			}
		})
	}
}

func TestTokenizeAllKinds(t *testing.T) {
	input := `+ - * / & ( ) { } == != <= < >= > = , ; return sizeof if else while for int foo 42`
	want := []token.Kind{
		token.Plus, token.Minus, token.Mul, token.Div, token.And,
		token.LParen, token.RParen, token.LBrace, token.RBrace,
		token.Eq, token.Ne, token.Le, token.Lt, token.Ge, token.Gt,
		token.Assign, token.Comma, token.Semi,
		token.Return, token.Sizeof, token.If, token.Else, token.While, token.For, token.Int,
		token.Ident, token.Num, token.EOF,
	}

	got, err := Tokenize(input)
	require.NoError(t, err)
	assert.Equal(t, want, kinds(got))
}

func TestTokenizeProgram(t *testing.T) {
	src := "int main() {\n\tint x = 3;\n\tif (x >= 2) return &x - sizeof(x);\n\twhile (x != 0) x = x / 2;\n}\n"
	toks, err := Tokenize(src)
	require.NoError(t, err)

	var texts []string
	for _, tk := range toks {
		texts = append(texts, tk.Text(src))
	}
	want := []string{
		"int", "main", "(", ")", "{",
		"int", "x", "=", "3", ";",
		"if", "(", "x", ">=", "2", ")", "return", "&", "x", "-", "sizeof", "(", "x", ")", ";",
		"while", "(", "x", "!=", "0", ")", "x", "=", "x", "/", "2", ";",
		"}", "",
	}
	assert.Equal(t, want, texts)
	assert.Equal(t, token.Int, toks[0].Kind)
	assert.Equal(t, token.Ident, toks[1].Kind)
	assert.Equal(t, token.Sizeof, toks[20].Kind)
	assert.Equal(t, len(src), toks[len(toks)-1].Pos)
}

func TestTokenizeErrors(t *testing.T) {
	tests := []struct {
		input string
		pos   int
	}{
		{"x = 1 @ 2;", 6},
		{"!", 0},
		{"a !b", 2},
		{"@@", 0},
		{"a = \"s\";", 4},
		{"x\xc3\xa9", 1},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			toks, err := Tokenize(tt.input)
			require.Error(t, err)
			assert.Nil(t, toks)

			var lexErr *Error
			require.True(t, errors.As(err, &lexErr))
			assert.Equal(t, tt.pos, lexErr.Pos)
			assert.Equal(t, 1, lexErr.Len)
			assert.Contains(t, lexErr.Msg, "unrecognized character")
		})
	}
}

func TestNextAfterEnd(t *testing.T) {
	l := NewLexer("a", 0, nil)

	first, err := l.Next()
	require.NoError(t, err)
	assert.Equal(t, token.Ident, first.Kind)

	for i := 0; i < 3; i++ {
		eof, err := l.Next()
		require.NoError(t, err)
		assert.Equal(t, tok(token.EOF, 1, 0), eof)
	}
}

func TestNextAfterError(t *testing.T) {
	l := NewLexer("a $ b", 0, nil)

	_, err := l.Next()
	require.NoError(t, err)

	_, first := l.Next()
	require.Error(t, first)
	_, second := l.Next()
	assert.Same(t, first, second)
}

func TestFileIndex(t *testing.T) {
	toks, err := NewLexer("x;", 3, nil).Tokenize()
	require.NoError(t, err)
	for _, tk := range toks {
		assert.Equal(t, 3, tk.FileIndex)
	}

	_, err = NewLexer("#", 2, nil).Tokenize()
	var lexErr *Error
	require.ErrorAs(t, err, &lexErr)
	assert.Equal(t, 2, lexErr.Diagnostic().FileIndex)
}

func TestOverflowSaturates(t *testing.T) {
	src := "x = 99999999999999999999;"
	l := NewLexer(src, 0, nil)
	toks, err := l.Tokenize()
	require.NoError(t, err)

	require.Equal(t, token.Num, toks[2].Kind)
	assert.Equal(t, int64(math.MaxInt64), toks[2].Val)
	assert.Equal(t, "99999999999999999999", toks[2].Text(src))

	warnings := l.Warnings()
	require.Len(t, warnings, 1)
	assert.Equal(t, config.WarnOverflow, warnings[0].Warning)
	assert.Equal(t, 4, warnings[0].Pos)
	assert.Equal(t, 20, warnings[0].Len)
}

func TestMaxInt64Fits(t *testing.T) {
	toks, err := Tokenize("9223372036854775807")
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), toks[0].Val)
}

func TestOverflowWarningDisabled(t *testing.T) {
	cfg := config.NewConfig()
	require.NoError(t, cfg.ApplyFlag("-Wno-overflow"))

	l := NewLexer("18446744073709551616", 0, cfg)
	toks, err := l.Tokenize()
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), toks[0].Val)
	assert.Empty(t, l.Warnings())
}

func TestWarningsAsErrors(t *testing.T) {
	cfg := config.NewConfig()
	require.NoError(t, cfg.ApplyFlags([]string{"-Werror"}))

	_, err := NewLexer("y = 1 + 99999999999999999999;", 0, cfg).Tokenize()
	var lexErr *Error
	require.ErrorAs(t, err, &lexErr)
	assert.Equal(t, 8, lexErr.Pos)
	assert.Equal(t, 20, lexErr.Len)
	assert.Contains(t, lexErr.Msg, "[-Werror=overflow]")
}

func TestLeadingZero(t *testing.T) {
	l := NewLexer("010 0", 0, nil)
	toks, err := l.Tokenize()
	require.NoError(t, err)
	assert.Equal(t, int64(10), toks[0].Val)
	assert.Equal(t, int64(0), toks[1].Val)

	warnings := l.Warnings()
	require.Len(t, warnings, 1)
	assert.Equal(t, config.WarnLeadingZero, warnings[0].Warning)
	assert.Equal(t, 0, warnings[0].Pos)
}

func TestDeterminism(t *testing.T) {
	src := "int f(int a, int b) { return a*b + sizeof a; }"
	first, err := Tokenize(src)
	require.NoError(t, err)
	second, err := Tokenize(src)
	require.NoError(t, err)

	assert.Empty(t, cmp.Diff(first, second))
	assert.Equal(t, token.Fingerprint(src, first), token.Fingerprint(src, second))
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x80 && isSpace(byte(r)) {
			return -1
		}
		return r
	}, s)
}

func checkInvariants(t *testing.T, src string, toks []token.Token) {
	t.Helper()
	require.NotEmpty(t, toks)

	var sb strings.Builder
	prevEnd := 0
	for i, tk := range toks {
		require.GreaterOrEqual(t, tk.Pos, prevEnd, "token %d overlaps previous", i)
		assert.Equal(t, i == len(toks)-1, tk.Kind == token.EOF, "EOF must be the last token only")
		for _, c := range []byte(src[prevEnd:tk.Pos]) {
			require.True(t, isSpace(c), "non-whitespace byte %q skipped before token %d", c, i)
		}
		sb.WriteString(tk.Text(src))
		prevEnd = tk.End()
	}

	eof := toks[len(toks)-1]
	assert.Equal(t, len(src), eof.Pos)
	assert.Equal(t, 0, eof.Len)
	assert.Equal(t, stripSpace(src), sb.String())
}

func TestSpanReconstruction(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		"a=b==c!=d<=e<f>=g>h;",
		"for (i = 0; i < 10; i = i + 1) { x = x * 2; }",
		"while(1){if(x)return 0;else x=x-1;}",
		"int *p = &a, q;",
	}
	for _, src := range inputs {
		toks, err := Tokenize(src)
		require.NoError(t, err, src)
		checkInvariants(t, src, toks)
	}
}

func FuzzTokenize(f *testing.F) {
	for _, seed := range []string{"", "ifx=1;", "123+45", "1a", "<=>=!=", "x = 1 @ 2;", "int main() { return 0; }"} {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, src string) {
		toks, err := Tokenize(src)
		if err != nil {
			var lexErr *Error
			require.ErrorAs(t, err, &lexErr)
			require.Less(t, lexErr.Pos, len(src))
			return
		}
		checkInvariants(t, src, toks)
	})
}
