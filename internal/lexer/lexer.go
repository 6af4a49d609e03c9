// Package lexer converts Hexe source text into a stream of tokens.
package lexer

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/hexe-lang/hexe/internal/token"
)

// Error is a lexical error at a position in the input.
type Error struct {
	Msg          string
	Pos          token.Position
	Unterminated bool // an unterminated string literal
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s at %s", e.Msg, e.Pos)
}

// Lexer holds our object-state.
type Lexer struct {
	input     []rune
	position  int  // current character position
	readPos   int  // next character position
	ch        rune // current character
	line      int
	lineStart int
	column    int
	filename  string
}

// New returns a Lexer for the given input.
func New(input string) *Lexer {
	l := &Lexer{input: []rune(input), column: -1}
	l.readChar()
	return l
}

// SetFilename sets the filename recorded in token positions.
func (l *Lexer) SetFilename(filename string) {
	l.filename = filename
}

// Filename returns the filename recorded in token positions.
func (l *Lexer) Filename() string {
	return l.filename
}

func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.column = -1
		l.lineStart = l.readPos
	}
	if l.readPos >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.readPos]
	}
	l.position = l.readPos
	l.readPos++
	l.column++
}

func (l *Lexer) peekChar() rune {
	if l.readPos >= len(l.input) {
		return 0
	}
	return l.input[l.readPos]
}

func (l *Lexer) pos() token.Position {
	return token.Position{
		Char:      l.position,
		LineStart: l.lineStart,
		Line:      l.line,
		Column:    l.column,
		File:      l.filename,
	}
}

// Next returns the next token from the input. EOF is returned repeatedly once
// the input is exhausted.
func (l *Lexer) Next() (token.Token, error) {
	l.skipWhitespace()
	for l.ch == '/' && l.peekChar() == '/' {
		l.skipComment()
		l.skipWhitespace()
	}
	start := l.pos()
	tok := func(t token.Type, lit string) token.Token {
		return token.Token{Type: t, Literal: lit, StartPosition: start, EndPosition: l.pos()}
	}
	two := func(t token.Type) (token.Token, error) {
		lit := string([]rune{l.ch, l.peekChar()})
		l.readChar()
		l.readChar()
		return tok(t, lit), nil
	}
	one := func(t token.Type) (token.Token, error) {
		lit := string(l.ch)
		l.readChar()
		return tok(t, lit), nil
	}
	switch l.ch {
	case 0:
		return tok(token.EOF, ""), nil
	case '\n':
		return one(token.NEWLINE)
	case ';':
		return one(token.SEMICOLON)
	case ',':
		return one(token.COMMA)
	case ':':
		return one(token.COLON)
	case '(':
		return one(token.LPAREN)
	case ')':
		return one(token.RPAREN)
	case '{':
		return one(token.LBRACE)
	case '}':
		return one(token.RBRACE)
	case '=':
		if l.peekChar() == '=' {
			return two(token.EQ)
		}
		return one(token.ASSIGN)
	case '!':
		if l.peekChar() == '=' {
			return two(token.NOT_EQ)
		}
		return one(token.BANG)
	case '<':
		if l.peekChar() == '=' {
			return two(token.LT_EQUALS)
		}
		return one(token.LT)
	case '>':
		if l.peekChar() == '=' {
			return two(token.GT_EQUALS)
		}
		return one(token.GT)
	case '+':
		if l.peekChar() == '=' {
			return two(token.PLUS_EQUALS)
		}
		return one(token.PLUS)
	case '-':
		switch l.peekChar() {
		case '=':
			return two(token.MINUS_EQUALS)
		case '>':
			return two(token.ARROW)
		}
		return one(token.MINUS)
	case '*':
		if l.peekChar() == '=' {
			return two(token.ASTERISK_EQUALS)
		}
		return one(token.ASTERISK)
	case '/':
		if l.peekChar() == '=' {
			return two(token.SLASH_EQUALS)
		}
		return one(token.SLASH)
	case '%':
		if l.peekChar() == '=' {
			return two(token.MOD_EQUALS)
		}
		return one(token.MOD)
	case '&':
		if l.peekChar() == '&' {
			return two(token.AND)
		}
	case '|':
		if l.peekChar() == '|' {
			return two(token.OR)
		}
	case '.':
		if l.peekChar() == '.' {
			return two(token.DOTDOT)
		}
	case '"':
		s, err := l.readString()
		if err != nil {
			return tok(token.ILLEGAL, s), err
		}
		return tok(token.STRING, s), nil
	default:
		if isDigit(l.ch) {
			return l.readNumber(start)
		}
		if isIdentifierStart(l.ch) {
			ident := l.readIdentifier()
			return tok(token.LookupIdentifier(ident), ident), nil
		}
	}
	ch := l.ch
	l.readChar()
	return tok(token.ILLEGAL, string(ch)), &Error{Msg: fmt.Sprintf("unexpected character %q", ch), Pos: start}
}

func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\r' {
		l.readChar()
	}
}

func (l *Lexer) skipComment() {
	for l.ch != '\n' && l.ch != 0 {
		l.readChar()
	}
}

func (l *Lexer) readIdentifier() string {
	start := l.position
	for isIdentifierStart(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	return string(l.input[start:l.position])
}

// readNumber reads an integer, a uint (trailing "u") or a float literal. A
// ".." following digits is a range operator, not a decimal point.
func (l *Lexer) readNumber(start token.Position) (token.Token, error) {
	begin := l.position
	for isDigit(l.ch) || l.ch == '_' {
		l.readChar()
	}
	kind := token.INT
	if l.ch == '.' && isDigit(l.peekChar()) {
		kind = token.FLOAT
		l.readChar()
		for isDigit(l.ch) || l.ch == '_' {
			l.readChar()
		}
	}
	if l.ch == 'e' || l.ch == 'E' {
		kind = token.FLOAT
		l.readChar()
		if l.ch == '+' || l.ch == '-' {
			l.readChar()
		}
		if !isDigit(l.ch) {
			lit := string(l.input[begin:l.position])
			return token.Token{Type: token.ILLEGAL, Literal: lit, StartPosition: start, EndPosition: l.pos()},
				&Error{Msg: fmt.Sprintf("invalid float literal %q", lit), Pos: start}
		}
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	lit := strings.ReplaceAll(string(l.input[begin:l.position]), "_", "")
	if kind == token.INT && l.ch == 'u' && !isIdentifierStart(l.peekChar()) && !isDigit(l.peekChar()) {
		kind = token.UINT
		l.readChar()
	}
	return token.Token{Type: kind, Literal: lit, StartPosition: start, EndPosition: l.pos()}, nil
}

func (l *Lexer) readString() (string, error) {
	var sb strings.Builder
	l.readChar() // opening quote
	for {
		switch l.ch {
		case '"':
			l.readChar()
			return sb.String(), nil
		case 0, '\n':
			return sb.String(), &Error{Msg: "unterminated string literal", Pos: l.pos(), Unterminated: true}
		case '\\':
			l.readChar()
			switch l.ch {
			case 'n':
				sb.WriteRune('\n')
			case 't':
				sb.WriteRune('\t')
			case 'r':
				sb.WriteRune('\r')
			case '0':
				sb.WriteRune(0)
			case '\\':
				sb.WriteRune('\\')
			case '"':
				sb.WriteRune('"')
			default:
				return sb.String(), &Error{Msg: fmt.Sprintf("invalid escape sequence \\%c", l.ch), Pos: l.pos()}
			}
		default:
			sb.WriteRune(l.ch)
		}
		l.readChar()
	}
}

func isIdentifierStart(ch rune) bool {
	return ch == '_' || unicode.IsLetter(ch)
}

func isDigit(ch rune) bool {
	return '0' <= ch && ch <= '9'
}
