package token

import "fmt"

type Kind int

const (
	Plus Kind = iota
	Minus
	Mul
	Div
	And
	LParen
	RParen
	LBrace
	RBrace
	Eq
	Ne
	Le
	Lt
	Ge
	Gt
	Assign
	Comma
	Semi
	Return
	Sizeof
	If
	Else
	While
	For
	Int
	Ident
	Num
	EOF
)

var kindNames = [...]string{
	Plus:   "PLUS",
	Minus:  "MINUS",
	Mul:    "MUL",
	Div:    "DIV",
	And:    "AND",
	LParen: "LPAREN",
	RParen: "RPAREN",
	LBrace: "LBRACE",
	RBrace: "RBRACE",
	Eq:     "EQ",
	Ne:     "NE",
	Le:     "LE",
	Lt:     "LT",
	Ge:     "GE",
	Gt:     "GT",
	Assign: "ASSIGN",
	Comma:  "COMMA",
	Semi:   "SEMICOLON",
	Return: "RETURN",
	Sizeof: "SIZEOF",
	If:     "IF",
	Else:   "ELSE",
	While:  "WHILE",
	For:    "FOR",
	Int:    "INT",
	Ident:  "IDENT",
	Num:    "NUM",
	EOF:    "EOF",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// KindByName maps a printed kind name back to its Kind.
var KindByName = make(map[string]Kind)

func init() {
	for k, name := range kindNames {
		KindByName[name] = Kind(k)
	}
}

// Entry pairs a literal with the kind it produces.
type Entry struct {
	Text string
	Kind Kind
}

// Symbols are matched in declaration order and the first prefix match wins,
// so every operator must come before any operator that is its prefix.
var Symbols = []Entry{
	{"+", Plus},
	{"-", Minus},
	{"*", Mul},
	{"/", Div},
	{"&", And},
	{"(", LParen},
	{")", RParen},
	{"{", LBrace},
	{"}", RBrace},
	{"==", Eq},
	{"!=", Ne},
	{"<=", Le},
	{"<", Lt},
	{">=", Ge},
	{">", Gt},
	{"=", Assign},
	{",", Comma},
	{";", Semi},
}

var Keywords = []Entry{
	{"return", Return},
	{"sizeof", Sizeof},
	{"if", If},
	{"else", Else},
	{"while", While},
	{"for", For},
	{"int", Int},
}

// Token is a view into the source it was scanned from; Pos and Len are byte offsets.
type Token struct {
	Kind      Kind
	Pos       int
	Len       int
	Val       int64
	FileIndex int
}

func (t Token) End() int { return t.Pos + t.Len }

// Text copies the token's span out of src.
func (t Token) Text(src string) string {
	if t.Pos < 0 || t.End() > len(src) {
		return ""
	}
	return src[t.Pos:t.End()]
}

func (t Token) Is(k Kind) bool { return t.Kind == k }
