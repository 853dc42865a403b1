// Package dump renders token streams for the rcc driver and the golden runner.
package dump

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"github.com/segmentio/encoding/json"

	"github.com/xplshn/rcc/pkg/lexer"
	"github.com/xplshn/rcc/pkg/token"
	"github.com/xplshn/rcc/pkg/util"
)

type Entry struct {
	Kind  string `json:"kind"`
	Text  string `json:"text,omitempty"`
	Pos   int    `json:"pos"`
	Len   int    `json:"len"`
	Value *int64 `json:"value,omitempty"`
}

type Message struct {
	Pos int    `json:"pos"`
	Len int    `json:"len"`
	Msg string `json:"msg"`
}

// File is the dump of one source: either its tokens or the error that stopped it.
type File struct {
	Name        string    `json:"file"`
	SourceHash  string    `json:"source_hash"`
	Fingerprint string    `json:"fingerprint,omitempty"`
	Tokens      []Entry   `json:"tokens,omitempty"`
	Warnings    []Message `json:"warnings,omitempty"`
	Error       *Message  `json:"error,omitempty"`
}

func SourceHash(src string) string { return strconv.FormatUint(xxhash.Sum64String(src), 16) }

// Build converts the result of tokenizing src into a File.
func Build(name, src string, toks []token.Token, warnings []util.Diagnostic, err error) File {
	f := File{Name: name, SourceHash: SourceHash(src)}
	for _, w := range warnings {
		f.Warnings = append(f.Warnings, Message{Pos: w.Pos, Len: w.Len, Msg: w.Msg})
	}
	if err != nil {
		msg := Message{Msg: err.Error()}
		var lexErr *lexer.Error
		if errors.As(err, &lexErr) {
			msg = Message{Pos: lexErr.Pos, Len: lexErr.Len, Msg: lexErr.Msg}
		}
		f.Error = &msg
		return f
	}

	f.Fingerprint = strconv.FormatUint(token.Fingerprint(src, toks), 16)
	f.Tokens = make([]Entry, 0, len(toks))
	for _, tok := range toks {
		e := Entry{Kind: tok.Kind.String(), Text: tok.Text(src), Pos: tok.Pos, Len: tok.Len}
		if tok.Kind == token.Num {
			val := tok.Val
			e.Value = &val
		}
		f.Tokens = append(f.Tokens, e)
	}
	return f
}

// WriteText prints one token per line: KIND 'text' @pos, NUM adds = value.
func WriteText(w io.Writer, src string, toks []token.Token) error {
	for _, tok := range toks {
		var err error
		switch tok.Kind {
		case token.EOF:
			_, err = fmt.Fprintf(w, "%-9s @%d\n", tok.Kind, tok.Pos)
		case token.Num:
			_, err = fmt.Fprintf(w, "%-9s '%s' @%d = %d\n", tok.Kind, tok.Text(src), tok.Pos, tok.Val)
		default:
			_, err = fmt.Fprintf(w, "%-9s '%s' @%d\n", tok.Kind, tok.Text(src), tok.Pos)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func WriteJSON(w io.Writer, files []File) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(files)
}

func Marshal(f File) ([]byte, error) { return json.MarshalIndent(f, "", "  ") }

func Unmarshal(data []byte) (File, error) {
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return File{}, fmt.Errorf("failed to decode token dump: %w", err)
	}
	return f, nil
}
