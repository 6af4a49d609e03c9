// Package parser is used to generate the abstract syntax tree (AST) for a
// Hexe program.
//
// A parser is created by calling New() with the source text. The parser
// should then be used only once, by calling Parse() to produce the tree.
package parser

import (
	"context"
	"fmt"

	"github.com/hexe-lang/hexe/ast"
	"github.com/hexe-lang/hexe/errors"
	"github.com/hexe-lang/hexe/internal/lexer"
	"github.com/hexe-lang/hexe/internal/token"
)

type (
	prefixParseFn func() ast.NodeID
	infixParseFn  func(ast.NodeID) ast.NodeID
)

// statementTerminators defines tokens that can end a statement.
//
// A trailing binary operator continues an expression onto the next line;
// a newline anywhere else ends the statement. Newlines are also allowed
// inside parentheses.
var statementTerminators = map[token.Type]bool{
	token.SEMICOLON: true,
	token.NEWLINE:   true,
	token.RBRACE:    true,
	token.EOF:       true,
}

// Parse the provided input as Hexe source code and return the tree. This is
// shorthand for New followed by Parse.
func Parse(ctx context.Context, input string, options ...Option) (*ast.Tree, error) {
	return New(input, options...).Parse(ctx)
}

// Option is a configuration function for a Parser.
type Option func(*Parser)

// WithFilename sets the file name recorded in positions and errors.
func WithFilename(filename string) Option {
	return func(p *Parser) {
		p.filename = filename
	}
}

// WithMaxDepth sets the maximum nesting depth for the parser.
// This prevents stack overflow on deeply nested input.
// The default is 500.
func WithMaxDepth(depth int) Option {
	return func(p *Parser) {
		p.maxDepth = depth
	}
}

// WithSink forwards every parse error to sink as it is found.
func WithSink(sink errors.Sink) Option {
	return func(p *Parser) {
		p.sink = sink
	}
}

// DefaultMaxDepth is the default maximum nesting depth for parsing.
const DefaultMaxDepth = 500

// MaxErrors is the maximum number of errors to collect before stopping.
const MaxErrors = 10

// Parser object
type Parser struct {
	l      *lexer.Lexer
	tree   *ast.Tree
	source string

	prevToken token.Token
	curToken  token.Token
	peekToken token.Token

	diagnostics *errors.Collector
	sink        errors.Sink

	prefixParseFns map[token.Type]prefixParseFn
	infixParseFns  map[token.Type]infixParseFn

	filename   string
	depth      int
	maxDepth   int
	blockDepth int
}

// New returns a Parser for the given source text.
func New(input string, options ...Option) *Parser {
	p := &Parser{
		source:         input,
		diagnostics:    errors.NewCollector(input),
		prefixParseFns: map[token.Type]prefixParseFn{},
		infixParseFns:  map[token.Type]infixParseFn{},
		maxDepth:       DefaultMaxDepth,
	}
	for _, opt := range options {
		opt(p)
	}
	p.l = lexer.New(input)
	p.l.SetFilename(p.filename)
	p.tree = ast.NewTree(input, p.filename)

	// Prime the token pump
	p.nextToken()
	p.nextToken()

	p.registerPrefix(token.BANG, p.parsePrefixExpr)
	p.registerPrefix(token.FALSE, p.parseBoolean)
	p.registerPrefix(token.FLOAT, p.parseFloat)
	p.registerPrefix(token.IDENT, p.parseIdent)
	p.registerPrefix(token.ILLEGAL, p.illegalToken)
	p.registerPrefix(token.INT, p.parseInt)
	p.registerPrefix(token.LPAREN, p.parseGroupedExpr)
	p.registerPrefix(token.MINUS, p.parsePrefixExpr)
	p.registerPrefix(token.STRING, p.parseString)
	p.registerPrefix(token.TRUE, p.parseBoolean)
	p.registerPrefix(token.UINT, p.parseUint)

	p.registerInfix(token.AND, p.parseInfixExpr)
	p.registerInfix(token.ASTERISK, p.parseInfixExpr)
	p.registerInfix(token.EQ, p.parseInfixExpr)
	p.registerInfix(token.GT, p.parseInfixExpr)
	p.registerInfix(token.GT_EQUALS, p.parseInfixExpr)
	p.registerInfix(token.LPAREN, p.parseCall)
	p.registerInfix(token.LT, p.parseInfixExpr)
	p.registerInfix(token.LT_EQUALS, p.parseInfixExpr)
	p.registerInfix(token.MINUS, p.parseInfixExpr)
	p.registerInfix(token.MOD, p.parseInfixExpr)
	p.registerInfix(token.NOT_EQ, p.parseInfixExpr)
	p.registerInfix(token.OR, p.parseInfixExpr)
	p.registerInfix(token.PLUS, p.parseInfixExpr)
	p.registerInfix(token.SLASH, p.parseInfixExpr)
	return p
}

// nextToken moves to the next token from the lexer, updating all of
// prevToken, curToken, and peekToken.
func (p *Parser) nextToken() {
	p.prevToken = p.curToken
	p.curToken = p.peekToken
	tok, err := p.l.Next()
	p.peekToken = tok
	if err == nil {
		return
	}
	// Lexer errors are reported once, when the bad token is first seen.
	code := errors.E1003
	pos := tok.StartPosition
	msg := err.Error()
	if lexErr, ok := err.(*lexer.Error); ok {
		pos = lexErr.Pos
		msg = lexErr.Msg
		if lexErr.Unterminated {
			code = errors.E1002
		}
	}
	p.addError(errors.NewCompileError(code, pos, "%s", msg))
}

// Parse the program. The tree is returned even when there are errors; it
// then contains only the statements that parsed successfully.
func (p *Parser) Parse(ctx context.Context) (*ast.Tree, error) {
	var statements []ast.NodeID
	for !p.curTokenIs(token.EOF) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if p.tooManyErrors() {
			break
		}
		switch p.curToken.Type {
		case token.NEWLINE, token.SEMICOLON:
			p.nextToken()
			continue
		case token.RBRACE:
			p.setTokenError(errors.E1001, p.curToken, "unexpected %s", tokenDescription(p.curToken))
			p.nextToken()
			continue
		}
		if stmt := p.parseStatementStrict(); stmt != ast.NoNode {
			statements = append(statements, stmt)
		}
	}
	p.tree.Root = p.tree.Add(ast.Node{Kind: ast.ProgramNode, Children: statements})
	return p.tree, p.diagnostics.Err()
}

// parseStatementStrict parses one statement and leaves curToken on the
// terminator that follows it. On error it skips to the next terminator.
func (p *Parser) parseStatementStrict() ast.NodeID {
	stmt := p.parseStatement()
	if stmt != ast.NoNode && !statementTerminators[p.peekToken.Type] {
		p.setTokenError(errors.E1001, p.peekToken, "unexpected %s following statement",
			tokenDescription(p.peekToken))
		stmt = ast.NoNode
	}
	if stmt == ast.NoNode {
		p.synchronize()
		return ast.NoNode
	}
	p.nextToken()
	return stmt
}

// synchronize skips tokens until curToken is a statement terminator. Outside
// of a block a closing brace cannot end anything, so it is skipped too.
func (p *Parser) synchronize() {
	for !statementTerminators[p.curToken.Type] || (p.curTokenIs(token.RBRACE) && p.blockDepth == 0) {
		p.nextToken()
	}
}

func (p *Parser) registerPrefix(tokenType token.Type, fn prefixParseFn) {
	p.prefixParseFns[tokenType] = fn
}

func (p *Parser) registerInfix(tokenType token.Type, fn infixParseFn) {
	p.infixParseFns[tokenType] = fn
}

func (p *Parser) addError(err *errors.CompileError) {
	p.diagnostics.Report(errors.LevelError, err)
	if p.sink != nil {
		p.sink.Report(errors.LevelError, err)
	}
}

func (p *Parser) errorCount() int {
	return len(p.diagnostics.Diagnostics())
}

func (p *Parser) tooManyErrors() bool {
	return p.errorCount() >= MaxErrors
}

func (p *Parser) setTokenError(code errors.ErrorCode, t token.Token, msg string, args ...any) ast.NodeID {
	err := errors.NewCompileError(code, t.StartPosition, msg, args...)
	if t.EndPosition.Line == t.StartPosition.Line && t.EndPosition.Column > t.StartPosition.Column {
		err.EndColumn = t.EndPosition.Column
	}
	p.addError(err)
	return ast.NoNode
}

// expectPeek advances if the next token has the expected type and records
// an error otherwise.
func (p *Parser) expectPeek(context string, t token.Type) bool {
	if p.peekTokenIs(t) {
		p.nextToken()
		return true
	}
	code := errors.E1001
	if t == token.IDENT {
		code = errors.E1006
	}
	p.setTokenError(code, p.peekToken, "unexpected %s while parsing %s (expected %s)",
		tokenDescription(p.peekToken), context, tokenTypeDescription(t))
	return false
}

func (p *Parser) curTokenIs(t token.Type) bool {
	return p.curToken.Type == t
}

func (p *Parser) peekTokenIs(t token.Type) bool {
	return p.peekToken.Type == t
}

func (p *Parser) eatNewlines() {
	for p.curTokenIs(token.NEWLINE) {
		p.nextToken()
	}
}

func (p *Parser) add(kind ast.Kind, tok token.Token, children ...ast.NodeID) ast.NodeID {
	return p.tree.Add(ast.Node{
		Kind:     kind,
		Pos:      tok.StartPosition,
		End:      p.curToken.EndPosition,
		Children: children,
	})
}

func tokenDescription(t token.Token) string {
	switch t.Type {
	case token.EOF:
		return "end of file"
	case token.NEWLINE:
		return "end of line"
	case token.IDENT:
		return fmt.Sprintf("identifier %q", t.Literal)
	case token.INT, token.UINT, token.FLOAT:
		return fmt.Sprintf("number %s", t.Literal)
	case token.STRING:
		return fmt.Sprintf("string %q", t.Literal)
	}
	return fmt.Sprintf("%q", t.Literal)
}

func tokenTypeDescription(t token.Type) string {
	switch t {
	case token.IDENT:
		return "an identifier"
	case token.LBRACE:
		return "'{'"
	case token.RBRACE:
		return "'}'"
	case token.LPAREN:
		return "'('"
	case token.RPAREN:
		return "')'"
	}
	return fmt.Sprintf("%q", string(t))
}
