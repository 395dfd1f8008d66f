package rangeexpr

import (
	"strconv"
	"unicode"
	"unicode/utf8"
)

// Type is the type of a lexical item.
//
type Type int

// Tokens
const (
	EOF Type = iota
	Raw
	Error
	BracketOpen
	BracketClose
	Comma
	Colon
	Int
	DotDot
)

var typeNames = [...]string{"end of input", "character", "error", "'['", "']'", "','", "':'", "integer", "'..'"}

func (t Type) String() string {
	if t < 0 || int(t) >= len(typeNames) {
		return "Type(" + strconv.Itoa(int(t)) + ")"
	}
	return typeNames[t]
}

// Item is a lexical item.
//
type Item struct {
	Type  Type
	Pos   int
	Value interface{}
}

func (i Item) String() string {
	switch i.Type {
	case Raw:
		return strconv.QuoteRune(i.Value.(rune))
	case Int:
		return strconv.FormatInt(i.Value.(int64), 10)
	case Error:
		return i.Value.(string)
	}
	return i.Type.String()
}

const eof = -1

type stateFn func(*Lexer) stateFn

// Lexer is a state function lexer. A state function returning nil resets
// the lexer to its initial state.
//
type Lexer struct {
	input string
	pos   int
	start int
	width int
	cur   rune
	state stateFn
	items []Item
}

// NewLexer returns a new lexer for input.
//
func NewLexer(input string) *Lexer {
	return &Lexer{input: input}
}

// Lex returns the next item in the input.
//
func (l *Lexer) Lex() Item {
	for len(l.items) == 0 {
		if l.state == nil {
			l.start = l.pos
			l.state = lexInit
		}
		l.state = l.state(l)
	}
	it := l.items[0]
	l.items = l.items[1:]
	return it
}

func (l *Lexer) next() rune {
	if l.pos >= len(l.input) {
		l.width = 0
		l.cur = eof
		return eof
	}
	r, w := utf8.DecodeRuneInString(l.input[l.pos:])
	l.pos += w
	l.width = w
	l.cur = r
	return r
}

func (l *Lexer) peek() rune {
	r := l.next()
	l.backup()
	return r
}

func (l *Lexer) backup() {
	l.pos -= l.width
	l.width = 0
}

func (l *Lexer) emit(t Type, v interface{}) {
	l.items = append(l.items, Item{Type: t, Pos: l.start, Value: v})
}

func isDigit(r rune) bool { return '0' <= r && r <= '9' }

func lexInit(l *Lexer) stateFn {
	r := l.next()
	switch {
	case r == eof:
		return lexEOF
	case unicode.IsSpace(r):
		for unicode.IsSpace(l.next()) {
		}
		l.backup()
	case r == '[':
		l.emit(BracketOpen, "[")
	case r == ']':
		l.emit(BracketClose, "]")
	case r == ',':
		l.emit(Comma, ",")
	case r == ':':
		l.emit(Colon, ":")
	case isDigit(r):
		return lexNumber
	case (r == '-' || r == '+') && isDigit(l.peek()):
		return lexNumber
	case r == '.':
		if l.next() == '.' {
			l.emit(DotDot, "..")
			break
		}
		l.backup()
		fallthrough
	default:
		l.emit(Raw, r)
		return lexEOF
	}
	return nil
}

// lexNumber accepts decimal, 0x, 0o and 0b prefixed integers with optional
// sign and underscores.
func lexNumber(l *Lexer) stateFn {
	r := l.next()
	for r == '_' || isDigit(r) || unicode.IsLetter(r) {
		r = l.next()
	}
	l.backup()
	s := l.input[l.start:l.pos]
	v, err := strconv.ParseInt(s, 0, 64)
	if err != nil {
		l.emit(Error, "invalid integer "+strconv.Quote(s))
		return lexEOF
	}
	l.emit(Int, v)
	return nil
}

// lexEOF places the lexer in End-Of-File state.
// Once in this state, the lexer will only emit EOF.
//
func lexEOF(l *Lexer) stateFn {
	l.start = l.pos
	l.emit(EOF, "end of input")
	return lexEOF
}
