package parser

import (
	"github.com/funvibe/exprjit/internal/ast"
	"github.com/funvibe/exprjit/internal/token"
)

// ParseProgram parses every statement. Bare expressions at top level are
// wrapped for immediate execution; statements that fail to parse become
// Error nodes so the driver can report them in order.
func (p *Parser) ParseProgram() *ast.Program {
	program := &ast.Program{}
	for !p.curTokenIs(token.EOF) {
		if p.curTokenIs(token.SEMICOLON) {
			p.nextToken()
			continue
		}
		program.Statements = ast.AppendStatement(program.Statements, p.parseTopLevelStatement())
		p.nextToken()
	}
	return program
}

func (p *Parser) parseTopLevelStatement() ast.Node {
	start, startPos := p.curToken, p.pos
	errs := len(p.errors)
	stmt := p.parseStatement()
	if len(p.errors) > errs {
		if start.Type == token.DEF {
			p.skipFunctionFrom(startPos)
		} else {
			p.skipToStatementBoundary()
		}
		return p.b.Error(start, p.errors[errs].Message)
	}
	if expr, ok := stmt.(ast.Expression); ok && !expr.Kind().IsAssignment() {
		stmt = p.b.TopLevel(expr)
	}
	p.consumeSemicolon()
	return stmt
}

// skipFunctionFrom rescans a failed definition from its first token and
// stops on the brace closing its body.
func (p *Parser) skipFunctionFrom(pos int) {
	p.pos = pos - 1
	p.nextToken()
	depth := 0
	for !p.curTokenIs(token.EOF) {
		switch p.curToken.Type {
		case token.LBRACE:
			depth++
		case token.RBRACE:
			depth--
			if depth <= 0 {
				return
			}
		case token.SEMICOLON:
			if depth == 0 {
				return
			}
		}
		p.nextToken()
	}
}

func (p *Parser) consumeSemicolon() {
	if p.peekTokenIs(token.SEMICOLON) {
		p.nextToken()
	}
}

func (p *Parser) parseStatement() ast.Node {
	switch p.curToken.Type {
	case token.DECLARE:
		return p.parseDeclaration()
	case token.DEF:
		return p.parseFunctionDef()
	case token.IMPORT:
		return p.parseImport()
	case token.RETURN:
		p.addError(p.curToken, "return is only allowed inside function bodies")
		return nil
	case token.IDENT:
		if p.peekTokenIs(token.ASSIGN) {
			return p.parseAssignment()
		}
	}
	expr := p.parseExpression(LOWEST)
	if expr == nil {
		return nil
	}
	return expr
}

// declare x | declare x = expr
func (p *Parser) parseDeclaration() ast.Node {
	tok := p.curToken
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	name := p.curToken.Lexeme
	if !p.peekTokenIs(token.ASSIGN) {
		return p.b.Declare(tok, name)
	}
	p.nextToken()
	p.nextToken()
	v := p.parseExpression(LOWEST)
	if v == nil {
		return nil
	}
	return p.b.DeclareAssign(tok, name, v)
}

// x = expr
func (p *Parser) parseAssignment() ast.Node {
	tok := p.curToken
	name := tok.Lexeme
	p.nextToken()
	p.nextToken()
	v := p.parseExpression(LOWEST)
	if v == nil {
		return nil
	}
	return p.b.Assign(tok, name, v)
}

// import "path"
func (p *Parser) parseImport() ast.Node {
	tok := p.curToken
	if !p.expectPeek(token.STRING) {
		return nil
	}
	return p.b.Import(tok, p.curToken.Lexeme, p.dir)
}

// def name(a, b = expr) { stmt; ... return expr; }
func (p *Parser) parseFunctionDef() ast.Node {
	tok := p.curToken
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	name := p.curToken.Lexeme
	if !p.expectPeek(token.LPAREN) {
		return nil
	}

	fs := p.b.BeginFunction(tok, name)
	params, ok := p.parseParams()
	if !ok || !p.expectPeek(token.LBRACE) {
		p.b.AbortFunction(fs)
		return nil
	}
	p.nextToken()

	var body []ast.Node
	var ret ast.Expression
	for !p.curTokenIs(token.RBRACE) {
		if p.curTokenIs(token.EOF) {
			p.addError(p.curToken, "unterminated body of %s", name)
			p.b.AbortFunction(fs)
			return nil
		}
		if p.curTokenIs(token.SEMICOLON) {
			p.nextToken()
			continue
		}
		if ret != nil {
			p.addError(p.curToken, "return must be the last statement of %s", name)
			p.b.AbortFunction(fs)
			return nil
		}
		if p.curTokenIs(token.RETURN) {
			p.nextToken()
			ret = p.parseExpression(LOWEST)
			if ret == nil {
				p.b.AbortFunction(fs)
				return nil
			}
		} else {
			stmt := p.parseStatement()
			if stmt == nil {
				p.b.AbortFunction(fs)
				return nil
			}
			body = ast.AppendStatement(body, stmt)
		}
		p.nextToken()
	}
	return p.b.EndFunction(fs, params, body, ret)
}

func (p *Parser) parseParams() ([]ast.Param, bool) {
	var params []ast.Param
	if p.peekTokenIs(token.RPAREN) {
		p.nextToken()
		return params, true
	}
	seen := make(map[string]bool)
	for {
		if !p.expectPeek(token.IDENT) {
			return nil, false
		}
		param := ast.Param{Name: p.curToken.Lexeme}
		if seen[param.Name] {
			p.addError(p.curToken, "duplicate parameter %s", param.Name)
			return nil, false
		}
		seen[param.Name] = true
		if p.peekTokenIs(token.ASSIGN) {
			p.nextToken()
			p.nextToken()
			param.Default = p.parseExpression(LOWEST)
			if param.Default == nil {
				return nil, false
			}
		} else if len(params) > 0 && params[len(params)-1].Default != nil {
			p.addError(p.curToken, "parameter %s without default follows a defaulted parameter", param.Name)
			return nil, false
		}
		params = append(params, param)
		if p.peekTokenIs(token.RPAREN) {
			p.nextToken()
			return params, true
		}
		if !p.expectPeek(token.COMMA) {
			return nil, false
		}
	}
}
