// Package token defines language keywords and tokens used when lexing source code.
package token

import "fmt"

// Type describes the type of a token as a string.
type Type string

// Position points to a particular location in an input string.
type Position struct {
	Char      int    // byte offset within the file
	LineStart int    // byte offset of the start of the current line
	Line      int    // 0-indexed line number
	Column    int    // 0-indexed column number
	File      string // filename
}

// LineNumber returns the 1-indexed line number for this position in the input.
func (p Position) LineNumber() int {
	return p.Line + 1
}

// ColumnNumber returns the 1-indexed column number for this position in the input.
func (p Position) ColumnNumber() int {
	return p.Column + 1
}

// IsValid returns true if this position has been set.
func (p Position) IsValid() bool {
	return p.File != "" || p.Line > 0 || p.Column > 0 || p.Char > 0
}

func (p Position) String() string {
	if p.File != "" {
		return fmt.Sprintf("%s:%d:%d", p.File, p.LineNumber(), p.ColumnNumber())
	}
	return fmt.Sprintf("%d:%d", p.LineNumber(), p.ColumnNumber())
}

// NoPos is the zero value Position, representing an invalid/unset position.
var NoPos = Position{}

// Token represents one token lexed from the input source code.
type Token struct {
	Type          Type
	Literal       string
	StartPosition Position
	EndPosition   Position
}

// Token types
const (
	AND             Type = "&&"
	ARROW           Type = "->"
	ASSIGN          Type = "="
	ASTERISK        Type = "*"
	ASTERISK_EQUALS Type = "*="
	BANG            Type = "!"
	BREAK           Type = "BREAK"
	COLON           Type = ":"
	COMMA           Type = ","
	CONST           Type = "CONST"
	DATA            Type = "DATA"
	DOTDOT          Type = ".."
	ELSE            Type = "ELSE"
	EOF             Type = "EOF"
	EQ              Type = "=="
	FALSE           Type = "FALSE"
	FLOAT           Type = "FLOAT"
	FN              Type = "FN"
	GT              Type = ">"
	GT_EQUALS       Type = ">="
	IDENT           Type = "IDENT"
	IF              Type = "IF"
	ILLEGAL         Type = "ILLEGAL"
	IN              Type = "IN"
	INT             Type = "INT"
	LBRACE          Type = "{"
	LOOP            Type = "LOOP"
	LPAREN          Type = "("
	LT              Type = "<"
	LT_EQUALS       Type = "<="
	MINUS           Type = "-"
	MINUS_EQUALS    Type = "-="
	MOD             Type = "%"
	MOD_EQUALS      Type = "%="
	MUT             Type = "MUT"
	NEWLINE         Type = "EOL"
	NOT_EQ          Type = "!="
	OR              Type = "||"
	PLUS            Type = "+"
	PLUS_EQUALS     Type = "+="
	PRINT           Type = "PRINT"
	RBRACE          Type = "}"
	RETURN          Type = "RETURN"
	RPAREN          Type = ")"
	SEMICOLON       Type = ";"
	SKIP            Type = "SKIP"
	SLASH           Type = "/"
	SLASH_EQUALS    Type = "/="
	STRING          Type = "STRING"
	TRUE            Type = "TRUE"
	UINT            Type = "UINT"
	WHILE           Type = "WHILE"
)

// Reserved keywords
var keywords = map[string]Type{
	"break":  BREAK,
	"const":  CONST,
	"data":   DATA,
	"else":   ELSE,
	"false":  FALSE,
	"fn":     FN,
	"if":     IF,
	"in":     IN,
	"loop":   LOOP,
	"mut":    MUT,
	"print":  PRINT,
	"return": RETURN,
	"skip":   SKIP,
	"true":   TRUE,
	"while":  WHILE,
}

// LookupIdentifier used to determinate whether identifier is keyword nor not
func LookupIdentifier(identifier string) Type {
	if tok, ok := keywords[identifier]; ok {
		return tok
	}
	return IDENT
}

// IsCompoundAssign reports whether t is one of the "op=" assignment tokens.
func IsCompoundAssign(t Type) bool {
	switch t {
	case PLUS_EQUALS, MINUS_EQUALS, ASTERISK_EQUALS, SLASH_EQUALS, MOD_EQUALS:
		return true
	}
	return false
}
