package parser

import (
	"strconv"

	"github.com/hexe-lang/hexe/ast"
	"github.com/hexe-lang/hexe/errors"
	"github.com/hexe-lang/hexe/internal/token"
	"github.com/hexe-lang/hexe/object"
)

func (p *Parser) parseExpression(precedence int) ast.NodeID {
	p.depth++
	defer func() { p.depth-- }()
	if p.depth > p.maxDepth {
		return p.setTokenError(errors.E1009, p.curToken, "maximum nesting depth exceeded")
	}
	prefix := p.prefixParseFns[p.curToken.Type]
	if prefix == nil {
		return p.noPrefixParseFnError(p.curToken)
	}
	left := prefix()
	if left == ast.NoNode {
		return ast.NoNode
	}
	for !statementTerminators[p.peekToken.Type] && precedence < p.peekPrecedence() {
		infix := p.infixParseFns[p.peekToken.Type]
		if infix == nil {
			return left
		}
		p.nextToken()
		if left = infix(left); left == ast.NoNode {
			return ast.NoNode
		}
	}
	return left
}

func (p *Parser) noPrefixParseFnError(t token.Token) ast.NodeID {
	if statementTerminators[t.Type] || t.Type == token.RPAREN || t.Type == token.COMMA {
		return p.setTokenError(errors.E1004, t, "expected an expression, found %s", tokenDescription(t))
	}
	return p.setTokenError(errors.E1001, t, "unexpected %s", tokenDescription(t))
}

// illegalToken handles tokens the lexer already reported.
func (p *Parser) illegalToken() ast.NodeID {
	return ast.NoNode
}

func (p *Parser) literal(tok token.Token, value object.Value) ast.NodeID {
	id := p.add(ast.LiteralNode, tok)
	p.tree.Node(id).Value = value
	return id
}

func (p *Parser) parseIdent() ast.NodeID {
	id := p.add(ast.IdentNode, p.curToken)
	p.tree.Node(id).Text = p.curToken.Literal
	return id
}

func (p *Parser) parseInt() ast.NodeID {
	return p.parseSignedInt(p.curToken, p.curToken.Literal)
}

func (p *Parser) parseSignedInt(tok token.Token, lit string) ast.NodeID {
	value, err := strconv.ParseInt(lit, 10, 64)
	if err != nil {
		return p.setTokenError(errors.E1008, tok, "invalid integer literal %s", lit)
	}
	return p.literal(tok, object.NewInt(value))
}

func (p *Parser) parseUint() ast.NodeID {
	tok := p.curToken
	value, err := strconv.ParseUint(tok.Literal, 10, 64)
	if err != nil {
		return p.setTokenError(errors.E1008, tok, "invalid uint literal %su", tok.Literal)
	}
	return p.literal(tok, object.NewUint(value))
}

func (p *Parser) parseFloat() ast.NodeID {
	return p.parseSignedFloat(p.curToken, p.curToken.Literal)
}

func (p *Parser) parseSignedFloat(tok token.Token, lit string) ast.NodeID {
	value, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		return p.setTokenError(errors.E1008, tok, "invalid float literal %s", lit)
	}
	return p.literal(tok, object.NewFloat(value))
}

func (p *Parser) parseString() ast.NodeID {
	return p.literal(p.curToken, object.NewString(p.curToken.Literal))
}

func (p *Parser) parseBoolean() ast.NodeID {
	return p.literal(p.curToken, object.NewBool(p.curTokenIs(token.TRUE)))
}

// parsePrefixExpr parses "-x" and "!x". A minus directly followed by a
// number literal folds into a negative literal.
func (p *Parser) parsePrefixExpr() ast.NodeID {
	tok := p.curToken
	if tok.Type == token.MINUS {
		switch p.peekToken.Type {
		case token.INT:
			p.nextToken()
			return p.parseSignedInt(tok, "-"+p.curToken.Literal)
		case token.FLOAT:
			p.nextToken()
			return p.parseSignedFloat(tok, "-"+p.curToken.Literal)
		}
	}
	p.nextToken()
	operand := p.parseExpression(PREFIX)
	if operand == ast.NoNode {
		return ast.NoNode
	}
	id := p.add(ast.PrefixNode, tok, operand)
	p.tree.Node(id).Text = tok.Literal
	return id
}

func (p *Parser) parseInfixExpr(left ast.NodeID) ast.NodeID {
	tok := p.curToken
	precedence := p.currentPrecedence()
	p.nextToken()
	p.eatNewlines()
	right := p.parseExpression(precedence)
	if right == ast.NoNode {
		return ast.NoNode
	}
	id := p.add(ast.InfixNode, tok, left, right)
	n := p.tree.Node(id)
	n.Text = tok.Literal
	return id
}

func (p *Parser) parseGroupedExpr() ast.NodeID {
	p.nextToken()
	p.eatNewlines()
	expr := p.parseExpression(LOWEST)
	if expr == ast.NoNode {
		return ast.NoNode
	}
	for p.peekTokenIs(token.NEWLINE) {
		p.nextToken()
	}
	if !p.expectPeek("parenthesized expression", token.RPAREN) {
		return ast.NoNode
	}
	return expr
}

func (p *Parser) parseCall(callee ast.NodeID) ast.NodeID {
	if p.tree.Kind(callee) != ast.IdentNode {
		return p.setTokenError(errors.E1003, p.curToken, "only named functions can be called")
	}
	var args []ast.NodeID
	p.nextToken()
	p.eatNewlines()
	for !p.curTokenIs(token.RPAREN) {
		arg := p.parseExpression(LOWEST)
		if arg == ast.NoNode {
			return ast.NoNode
		}
		args = append(args, arg)
		for p.peekTokenIs(token.NEWLINE) {
			p.nextToken()
		}
		if p.peekTokenIs(token.COMMA) {
			p.nextToken()
			p.nextToken()
			p.eatNewlines()
			continue
		}
		if !p.expectPeek("call arguments", token.RPAREN) {
			return ast.NoNode
		}
	}
	id := p.add(ast.CallNode, p.curToken, args...)
	n := p.tree.Node(id)
	n.Text = p.tree.Name(callee)
	n.Pos = p.tree.Pos(callee)
	return id
}
