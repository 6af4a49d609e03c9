package parser

import (
	"github.com/hexe-lang/hexe/ast"
	"github.com/hexe-lang/hexe/errors"
	"github.com/hexe-lang/hexe/internal/token"
)

// parseStatement parses the statement starting at curToken and leaves
// curToken on its last token.
func (p *Parser) parseStatement() ast.NodeID {
	switch p.curToken.Type {
	case token.DATA, token.CONST:
		return p.parseDecl()
	case token.FN:
		return p.parseFunc()
	case token.IF:
		return p.parseIf()
	case token.LOOP:
		return p.parseLoop()
	case token.BREAK, token.SKIP:
		return p.parseLoopJump()
	case token.RETURN:
		return p.parseReturn()
	case token.PRINT:
		return p.parsePrint()
	case token.LBRACE:
		return p.parseBlock()
	case token.IDENT:
		if p.peekTokenIs(token.ASSIGN) || token.IsCompoundAssign(p.peekToken.Type) {
			return p.parseAssign()
		}
	}
	return p.parseExpressionStatement()
}

func (p *Parser) parseDecl() ast.NodeID {
	start := p.curToken
	isConst := p.curTokenIs(token.CONST)
	context := "data declaration"
	if isConst {
		context = "const declaration"
	}
	if !p.expectPeek(context, token.IDENT) {
		return ast.NoNode
	}
	name := p.curToken.Literal
	var typeName string
	if p.peekTokenIs(token.COLON) {
		p.nextToken()
		if !p.expectPeek(context, token.IDENT) {
			return ast.NoNode
		}
		typeName = p.curToken.Literal
	}
	if !p.expectPeek(context, token.ASSIGN) {
		return ast.NoNode
	}
	p.nextToken()
	value := p.parseExpression(LOWEST)
	if value == ast.NoNode {
		return ast.NoNode
	}
	id := p.add(ast.DeclNode, start, value)
	n := p.tree.Node(id)
	n.Text = name
	n.TypeName = typeName
	n.Const = isConst
	return id
}

func (p *Parser) parseAssign() ast.NodeID {
	start := p.curToken
	target := p.add(ast.IdentNode, start)
	p.tree.Node(target).Text = start.Literal
	p.nextToken()
	operator := p.curToken.Literal
	p.nextToken()
	value := p.parseExpression(LOWEST)
	if value == ast.NoNode {
		return ast.NoNode
	}
	id := p.add(ast.AssignNode, start, target, value)
	p.tree.Node(id).Text = operator
	return id
}

func (p *Parser) parseExpressionStatement() ast.NodeID {
	start := p.curToken
	expr := p.parseExpression(LOWEST)
	if expr == ast.NoNode {
		return ast.NoNode
	}
	if p.peekTokenIs(token.ASSIGN) || token.IsCompoundAssign(p.peekToken.Type) {
		return p.setTokenError(errors.E1005, p.peekToken, "invalid assignment target")
	}
	return p.add(ast.ExprStmtNode, start, expr)
}

// parseBlock parses "{ statements }" starting at the opening brace and
// leaves curToken on the closing brace.
func (p *Parser) parseBlock() ast.NodeID {
	start := p.curToken
	p.blockDepth++
	defer func() { p.blockDepth-- }()
	p.nextToken()
	var statements []ast.NodeID
	for !p.curTokenIs(token.RBRACE) && !p.curTokenIs(token.EOF) {
		if p.tooManyErrors() {
			return ast.NoNode
		}
		if p.curTokenIs(token.NEWLINE) || p.curTokenIs(token.SEMICOLON) {
			p.nextToken()
			continue
		}
		if stmt := p.parseStatementStrict(); stmt != ast.NoNode {
			statements = append(statements, stmt)
		}
	}
	if p.curTokenIs(token.EOF) {
		return p.setTokenError(errors.E1003, start, "unterminated block statement")
	}
	return p.add(ast.BlockNode, start, statements...)
}

func (p *Parser) parseIf() ast.NodeID {
	start := p.curToken
	p.nextToken()
	cond := p.parseExpression(LOWEST)
	if cond == ast.NoNode {
		return ast.NoNode
	}
	if !p.expectPeek("if statement", token.LBRACE) {
		return ast.NoNode
	}
	then := p.parseBlock()
	if then == ast.NoNode {
		return ast.NoNode
	}
	if !p.peekTokenIs(token.ELSE) {
		return p.add(ast.IfNode, start, cond, then)
	}
	p.nextToken()
	var alternative ast.NodeID
	if p.peekTokenIs(token.IF) {
		p.nextToken()
		alternative = p.parseIf()
	} else {
		if !p.expectPeek("else branch", token.LBRACE) {
			return ast.NoNode
		}
		alternative = p.parseBlock()
	}
	if alternative == ast.NoNode {
		return ast.NoNode
	}
	return p.add(ast.IfNode, start, cond, then, alternative)
}

func (p *Parser) parseLoop() ast.NodeID {
	start := p.curToken
	loop := func(shape ast.LoopShape, counter string, mutable bool, children ...ast.NodeID) ast.NodeID {
		for _, c := range children {
			if c == ast.NoNode {
				return ast.NoNode
			}
		}
		id := p.add(ast.LoopNode, start, children...)
		n := p.tree.Node(id)
		n.Shape = shape
		n.Text = counter
		n.Mutable = mutable
		return id
	}
	switch {
	case p.peekTokenIs(token.LBRACE):
		p.nextToken()
		body := p.parseBlock()
		if body == ast.NoNode {
			return ast.NoNode
		}
		if !p.peekTokenIs(token.WHILE) {
			return loop(ast.LoopInfinite, "", false, body)
		}
		p.nextToken()
		p.nextToken()
		cond := p.parseExpression(LOWEST)
		return loop(ast.LoopDoWhile, "", false, body, cond)

	case p.peekTokenIs(token.WHILE):
		p.nextToken()
		p.nextToken()
		cond := p.parseExpression(LOWEST)
		if cond == ast.NoNode || !p.expectPeek("loop", token.LBRACE) {
			return ast.NoNode
		}
		return loop(ast.LoopWhile, "", false, cond, p.parseBlock())

	case p.peekTokenIs(token.MUT):
		p.nextToken()
		if !p.expectPeek("range loop", token.IDENT) {
			return ast.NoNode
		}
		counter := p.curToken.Literal
		if !p.expectPeek("range loop", token.IN) {
			return ast.NoNode
		}
		return p.parseRangeTail(loop, counter, true)
	}

	p.nextToken()
	expr := p.parseExpression(LOWEST)
	if expr == ast.NoNode {
		return ast.NoNode
	}
	if p.peekTokenIs(token.IN) {
		if p.tree.Kind(expr) != ast.IdentNode {
			return p.setTokenError(errors.E1006, p.peekToken, "range loop counter must be an identifier")
		}
		p.nextToken()
		return p.parseRangeTail(loop, p.tree.Name(expr), false)
	}
	if !p.expectPeek("loop", token.LBRACE) {
		return ast.NoNode
	}
	return loop(ast.LoopCount, "", false, expr, p.parseBlock())
}

// parseRangeTail parses "a..b { body }" with curToken on the "in" keyword.
func (p *Parser) parseRangeTail(
	loop func(ast.LoopShape, string, bool, ...ast.NodeID) ast.NodeID,
	counter string,
	mutable bool,
) ast.NodeID {
	p.nextToken()
	from := p.parseExpression(LOWEST)
	if from == ast.NoNode || !p.expectPeek("range loop", token.DOTDOT) {
		return ast.NoNode
	}
	p.nextToken()
	to := p.parseExpression(LOWEST)
	if to == ast.NoNode || !p.expectPeek("range loop", token.LBRACE) {
		return ast.NoNode
	}
	return loop(ast.LoopRange, counter, mutable, from, to, p.parseBlock())
}

// parseLoopJump parses "break", "skip", "break if cond" and "skip if cond".
func (p *Parser) parseLoopJump() ast.NodeID {
	start := p.curToken
	kind := ast.BreakNode
	if p.curTokenIs(token.SKIP) {
		kind = ast.SkipNode
	}
	if !p.peekTokenIs(token.IF) {
		return p.add(kind, start)
	}
	p.nextToken()
	p.nextToken()
	cond := p.parseExpression(LOWEST)
	if cond == ast.NoNode {
		return ast.NoNode
	}
	return p.add(kind, start, cond)
}

func (p *Parser) parseReturn() ast.NodeID {
	start := p.curToken
	if statementTerminators[p.peekToken.Type] {
		return p.add(ast.ReturnNode, start)
	}
	p.nextToken()
	value := p.parseExpression(LOWEST)
	if value == ast.NoNode {
		return ast.NoNode
	}
	return p.add(ast.ReturnNode, start, value)
}

func (p *Parser) parsePrint() ast.NodeID {
	start := p.curToken
	if !p.expectPeek("print statement", token.LPAREN) {
		return ast.NoNode
	}
	p.nextToken()
	p.eatNewlines()
	value := p.parseExpression(LOWEST)
	if value == ast.NoNode {
		return ast.NoNode
	}
	for p.peekTokenIs(token.NEWLINE) {
		p.nextToken()
	}
	if !p.expectPeek("print statement", token.RPAREN) {
		return ast.NoNode
	}
	return p.add(ast.PrintNode, start, value)
}

func (p *Parser) parseFunc() ast.NodeID {
	start := p.curToken
	if p.blockDepth > 0 {
		return p.setTokenError(errors.E1003, start, "functions can only be declared at the top level")
	}
	if !p.expectPeek("function declaration", token.IDENT) {
		return ast.NoNode
	}
	name := p.curToken.Literal
	if !p.expectPeek("function declaration", token.LPAREN) {
		return ast.NoNode
	}
	var children []ast.NodeID
	if p.peekTokenIs(token.RPAREN) {
		p.nextToken()
	} else {
		for {
			if !p.expectPeek("function parameters", token.IDENT) {
				return ast.NoNode
			}
			paramTok := p.curToken
			if !p.expectPeek("function parameters", token.COLON) ||
				!p.expectPeek("function parameters", token.IDENT) {
				return ast.NoNode
			}
			param := p.add(ast.ParamNode, paramTok)
			n := p.tree.Node(param)
			n.Text = paramTok.Literal
			n.TypeName = p.curToken.Literal
			children = append(children, param)
			if !p.peekTokenIs(token.COMMA) {
				break
			}
			p.nextToken()
		}
		if !p.expectPeek("function parameters", token.RPAREN) {
			return ast.NoNode
		}
	}
	var returnType string
	if p.peekTokenIs(token.ARROW) {
		p.nextToken()
		if !p.expectPeek("function return type", token.IDENT) {
			return ast.NoNode
		}
		returnType = p.curToken.Literal
	}
	if !p.expectPeek("function declaration", token.LBRACE) {
		return ast.NoNode
	}
	body := p.parseBlock()
	if body == ast.NoNode {
		return ast.NoNode
	}
	children = append(children, body)
	id := p.add(ast.FuncNode, start, children...)
	n := p.tree.Node(id)
	n.Text = name
	n.TypeName = returnType
	return id
}
