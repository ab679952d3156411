package parser

import (
	"github.com/funvibe/exprjit/internal/ast"
	"github.com/funvibe/exprjit/internal/token"
)

func (p *Parser) parseExpression(precedence int) ast.Expression {
	p.depth++
	defer func() { p.depth-- }()

	if p.depth > MaxRecursionDepth {
		p.addError(p.curToken, "expression too complex: recursion depth limit exceeded")
		return nil
	}

	prefix := p.prefixParseFns[p.curToken.Type]
	if prefix == nil {
		p.addError(p.curToken, "unexpected %s", describe(p.curToken))
		return nil
	}
	leftExp := prefix()
	if leftExp == nil {
		return nil
	}

	for !p.peekTokenIs(token.SEMICOLON) && precedence < p.peekPrecedence() {
		infix := p.infixParseFns[p.peekToken.Type]
		if infix == nil {
			return leftExp
		}
		p.nextToken()
		leftExp = infix(leftExp)
		if leftExp == nil {
			return nil
		}
	}
	return leftExp
}

func (p *Parser) parseIdentifier() ast.Expression {
	tok := p.curToken
	if !p.peekTokenIs(token.LPAREN) {
		return p.b.Variable(tok, tok.Lexeme)
	}
	p.nextToken()
	args, ok := p.parseCallArguments()
	if !ok {
		return nil
	}
	return p.b.Call(tok, tok.Lexeme, args)
}

func (p *Parser) parseCallArguments() ([]ast.Expression, bool) {
	var args []ast.Expression
	if p.peekTokenIs(token.RPAREN) {
		p.nextToken()
		return args, true
	}
	p.nextToken()
	for {
		arg := p.parseExpression(LOWEST)
		if arg == nil {
			return nil, false
		}
		args = append(args, arg)
		if !p.peekTokenIs(token.COMMA) {
			break
		}
		p.nextToken()
		p.nextToken()
	}
	if !p.expectPeek(token.RPAREN) {
		return nil, false
	}
	return args, true
}

func (p *Parser) parseNumber() ast.Expression {
	n := p.b.Number(p.curToken, p.curToken.Lexeme)
	if e, ok := n.(*ast.Error); ok {
		p.addError(p.curToken, "%s", e.Message)
		return nil
	}
	return n.(ast.Expression)
}

func (p *Parser) parseString() ast.Expression {
	return p.b.String(p.curToken, p.curToken.Lexeme)
}

func (p *Parser) parsePrefixExpression() ast.Expression {
	tok := p.curToken
	p.nextToken()
	operand := p.parseExpression(PREFIX)
	if operand == nil {
		return nil
	}
	return p.b.Unary(tok, tok.Lexeme, operand)
}

// ^ is right associative; the rest associate to the left.
func (p *Parser) parseInfixExpression(left ast.Expression) ast.Expression {
	tok := p.curToken
	precedence := p.curPrecedence()
	if tok.Type == token.CARET {
		precedence--
	}
	p.nextToken()
	right := p.parseExpression(precedence)
	if right == nil {
		return nil
	}
	return p.b.Binary(tok, tok.Lexeme, left, right)
}

func (p *Parser) parseGroupedExpression() ast.Expression {
	p.nextToken()
	exp := p.parseExpression(LOWEST)
	if exp == nil {
		return nil
	}
	if !p.expectPeek(token.RPAREN) {
		return nil
	}
	return exp
}
