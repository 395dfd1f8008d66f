// Package rangeexpr parses textual lists of integer ranges as found in
// coverage models:
//
//	0, 4..7, [10..20], [0x20:0x2f], -3
//
// Each element is a single value, a lo..hi range or a bracketed range using
// either ".." or ":" as separator. Bounds are inclusive.
//
package rangeexpr

import (
	"github.com/pkg/errors"
)

// Range is an inclusive range of values.
//
type Range struct {
	Lo, Hi int64
}

// Parser is a simplistic parser.
//
type Parser struct {
	Input string
	l     *Lexer
	i     Item
	state int
}

const (
	stateInit = iota
	stateStarted
	stateDone
)

// Parse parses all the ranges in input.
//
func Parse(input string) ([]Range, error) {
	var rs []Range
	p := Parser{Input: input}
	for {
		r, ok, err := p.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return rs, nil
		}
		rs = append(rs, r)
	}
}

// Next returns the next range in the input stream. It returns false once the
// input is exhausted.
//
func (p *Parser) Next() (Range, bool, error) {
	if p.state == stateDone {
		return Range{}, false, nil
	}
	if p.l == nil {
		p.l = NewLexer(p.Input)
	}

	p.i = p.l.Lex()
	if p.state == stateInit && p.i.Type == EOF {
		p.state = stateDone
		return Range{}, false, nil
	}
	p.state = stateStarted

	r, err := p.getRange()
	if err != nil {
		p.state = stateDone
		return Range{}, false, err
	}
	switch p.i.Type {
	case EOF:
		p.state = stateDone
		fallthrough
	case Comma:
		return r, true, nil
	}
	p.state = stateDone
	return Range{}, false, parseError(p.Input, p.i.Pos, "unexpected "+p.i.String())
}

func (p *Parser) getInt(msg string) (int64, error) {
	if p.i.Type != Int {
		if p.i.Type == Error {
			return 0, parseError(p.Input, p.i.Pos, p.i.String())
		}
		return 0, parseError(p.Input, p.i.Pos, msg)
	}
	v := p.i.Value.(int64)
	p.i = p.l.Lex()
	return v, nil
}

func (p *Parser) getRange() (Range, error) {
	bracket := p.i.Type == BracketOpen
	if bracket {
		p.i = p.l.Lex()
	}
	lo, err := p.getInt("integer value expected")
	if err != nil {
		return Range{}, err
	}
	hi := lo
	if p.i.Type == DotDot || bracket && p.i.Type == Colon {
		sep := p.i.String()
		p.i = p.l.Lex()
		if hi, err = p.getInt("integer value expected after " + sep); err != nil {
			return Range{}, err
		}
	}
	if bracket {
		if p.i.Type != BracketClose {
			return Range{}, parseError(p.Input, p.i.Pos, "closing ']' expected after range")
		}
		p.i = p.l.Lex()
	}
	return Range{lo, hi}, nil
}

func parseError(in string, pos int, msg string) error {
	return errors.Errorf("in %q at pos %d: %s", in, pos+1, msg)
}
