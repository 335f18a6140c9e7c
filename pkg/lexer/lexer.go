package lexer

import (
	"fmt"
	"strconv"

	"github.com/kartiknair/beginc/pkg/token"
)

type Lexer struct {
	source    string
	start     int
	current   int
	line      int
	lineBegin int
	tokens    []token.Token
}

type Error struct {
	Pos     token.Pos
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("lex-error: %s: %s", e.Pos, e.Message)
}

// Position lets diagnostics point at the offending character.
func (e *Error) Position() token.Pos {
	return e.Pos
}

func (l *Lexer) lexError(message string) error {
	return &Error{
		Pos:     token.Pos{Line: l.line, Column: l.start - l.lineBegin + 1},
		Message: message,
	}
}

func (l *Lexer) isAtEnd() bool {
	return l.current >= len(l.source)
}

func (l *Lexer) advance() byte {
	l.current++
	return l.source[l.current-1]
}

func (l *Lexer) match(c byte) bool {
	if l.isAtEnd() || l.source[l.current] != c {
		return false
	}
	l.current++
	return true
}

// peek returns 0 past the end of the source.
func (l *Lexer) peek() byte {
	if l.isAtEnd() {
		return 0
	}
	return l.source[l.current]
}

func (l *Lexer) addToken(typ token.TokenType) {
	l.tokens = append(l.tokens, token.Token{
		Lexeme: l.source[l.start:l.current],
		Type:   typ,
		Pos:    token.Pos{Line: l.line, Column: l.start - l.lineBegin + 1},
	})
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func isAlpha(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || b == '_'
}

func isAlphaNumeric(b byte) bool {
	return isAlpha(b) || isDigit(b)
}

func (l *Lexer) lexNumber() error {
	for isDigit(l.peek()) {
		l.advance()
	}

	if isAlpha(l.peek()) {
		return l.lexError(fmt.Sprintf("Malformed number: '%s%c'.", l.source[l.start:l.current], l.peek()))
	}

	if _, err := strconv.ParseInt(l.source[l.start:l.current], 10, 32); err != nil {
		return l.lexError(fmt.Sprintf("Number literal '%s' does not fit in 32 bits.", l.source[l.start:l.current]))
	}

	l.addToken(token.NUMBER)
	return nil
}

func (l *Lexer) lexIdent() {
	for isAlphaNumeric(l.peek()) {
		l.advance()
	}

	if kw, ok := token.Keywords[l.source[l.start:l.current]]; ok {
		l.addToken(kw)
		return
	}

	l.addToken(token.VARNAME)
}

func (l *Lexer) ScanToken() error {
	c := l.advance()

	switch c {
	case '(':
		l.addToken(token.LEFT_PAREN)
	case ')':
		l.addToken(token.RIGHT_PAREN)
	case ',':
		l.addToken(token.COMMA)
	case '+':
		l.addToken(token.PLUS)
	case '-':
		l.addToken(token.MINUS)
	case '*':
		l.addToken(token.STAR)
	case '=':
		l.addToken(token.EQUAL)
	case '<':
		l.addToken(token.LESSER)
	case '>':
		l.addToken(token.GREATER)
	case ':':
		if !l.match('=') {
			return l.lexError("Expect `=` after `:`.")
		}
		l.addToken(token.ASSIGN)
	case '/':
		if l.match('/') {
			// a comment goes until the end of the line.
			for l.peek() != '\n' && !l.isAtEnd() {
				l.advance()
			}
		} else {
			l.addToken(token.SLASH)
		}
	case ' ', '\r', '\t':
		// ignore whitespace.
	case '\n':
		l.line++
		l.lineBegin = l.current
	default:
		if isDigit(c) {
			return l.lexNumber()
		} else if isAlpha(c) {
			l.lexIdent()
		} else {
			return l.lexError(fmt.Sprintf("Unexpected character: %q", c))
		}
	}

	return nil
}

func Lex(source string) ([]token.Token, error) {
	l := Lexer{source: source, line: 1}

	for !l.isAtEnd() {
		// we are at the beginning of the next lexeme.
		l.start = l.current
		if err := l.ScanToken(); err != nil {
			return nil, err
		}
	}

	l.tokens = append(l.tokens, token.EndOfStream(l.tokens))
	return l.tokens, nil
}
