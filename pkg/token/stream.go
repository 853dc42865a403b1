package token

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// Stream walks a token slice head to tail. The slice must end in EOF.
type Stream struct {
	toks []Token
	pos  int
}

func NewStream(toks []Token) *Stream {
	if len(toks) == 0 || toks[len(toks)-1].Kind != EOF {
		toks = append(toks[:len(toks):len(toks)], Token{Kind: EOF})
	}
	return &Stream{toks: toks}
}

func (s *Stream) Peek() Token { return s.toks[s.pos] }

// Next returns the current token and advances, stopping on EOF.
func (s *Stream) Next() Token {
	tok := s.toks[s.pos]
	if tok.Kind != EOF {
		s.pos++
	}
	return tok
}

func (s *Stream) Equal(k Kind) bool { return s.toks[s.pos].Kind == k }

// Consume advances past the current token only if it has kind k.
func (s *Stream) Consume(k Kind) bool {
	if !s.Equal(k) {
		return false
	}
	s.Next()
	return true
}

func (s *Stream) AtEOF() bool { return s.Equal(EOF) }

func (s *Stream) Len() int { return len(s.toks) - s.pos }

// Fingerprint hashes kinds, span text and values of toks. Positions are left out
// so reformatting whitespace does not change the result.
func Fingerprint(src string, toks []Token) uint64 {
	h := xxhash.New()
	var buf [8]byte
	for _, tok := range toks {
		binary.LittleEndian.PutUint64(buf[:], uint64(tok.Kind))
		h.Write(buf[:])
		h.WriteString(tok.Text(src))
		h.Write([]byte{0})
		if tok.Kind == Num {
			binary.LittleEndian.PutUint64(buf[:], uint64(tok.Val))
			h.Write(buf[:])
		}
	}
	return h.Sum64()
}
