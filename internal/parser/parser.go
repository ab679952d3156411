package parser

import (
	"fmt"

	"github.com/funvibe/exprjit/internal/ast"
	"github.com/funvibe/exprjit/internal/diagnostics"
	"github.com/funvibe/exprjit/internal/lexer"
	"github.com/funvibe/exprjit/internal/token"
)

// MaxRecursionDepth bounds expression nesting.
const MaxRecursionDepth = 512

const (
	_ int = iota
	LOWEST
	SUM     // + -
	PRODUCT // * /
	POWER   // ^
	PREFIX  // -x
	CALL    // f(x)
)

var precedences = map[token.TokenType]int{
	token.PLUS:     SUM,
	token.MINUS:    SUM,
	token.ASTERISK: PRODUCT,
	token.SLASH:    PRODUCT,
	token.CARET:    POWER,
	token.LPAREN:   CALL,
}

type (
	prefixParseFn func() ast.Expression
	infixParseFn  func(ast.Expression) ast.Expression
)

// Parser turns tokens into AST nodes through an ast.Builder.
type Parser struct {
	tokens []token.Token
	pos    int

	curToken  token.Token
	peekToken token.Token

	b   *ast.Builder
	dir string

	errors []*diagnostics.Error
	depth  int

	prefixParseFns map[token.TokenType]prefixParseFn
	infixParseFns  map[token.TokenType]infixParseFn
}

// New creates a parser over input. dir is the directory relative imports
// resolve against.
func New(input string, b *ast.Builder, dir string) *Parser {
	p := &Parser{
		tokens: lexer.New(input).Tokens(),
		b:      b,
		dir:    dir,
	}

	p.prefixParseFns = map[token.TokenType]prefixParseFn{
		token.IDENT:  p.parseIdentifier,
		token.NUMBER: p.parseNumber,
		token.STRING: p.parseString,
		token.MINUS:  p.parsePrefixExpression,
		token.BANG:   p.parsePrefixExpression,
		token.LPAREN: p.parseGroupedExpression,
	}
	p.infixParseFns = map[token.TokenType]infixParseFn{
		token.PLUS:     p.parseInfixExpression,
		token.MINUS:    p.parseInfixExpression,
		token.ASTERISK: p.parseInfixExpression,
		token.SLASH:    p.parseInfixExpression,
		token.CARET:    p.parseInfixExpression,
	}

	p.curToken = p.tokenAt(0)
	p.peekToken = p.tokenAt(1)
	return p
}

func (p *Parser) tokenAt(i int) token.Token {
	if i < len(p.tokens) {
		return p.tokens[i]
	}
	return p.tokens[len(p.tokens)-1]
}

func (p *Parser) nextToken() {
	p.pos++
	p.curToken = p.tokenAt(p.pos)
	p.peekToken = p.tokenAt(p.pos + 1)
}

func (p *Parser) curTokenIs(t token.TokenType) bool  { return p.curToken.Type == t }
func (p *Parser) peekTokenIs(t token.TokenType) bool { return p.peekToken.Type == t }

func (p *Parser) expectPeek(t token.TokenType) bool {
	if p.peekTokenIs(t) {
		p.nextToken()
		return true
	}
	p.peekError(t)
	return false
}

// Errors returns every syntax error found so far.
func (p *Parser) Errors() []*diagnostics.Error {
	return p.errors
}

func (p *Parser) addError(tok token.Token, format string, a ...interface{}) {
	p.errors = append(p.errors, diagnostics.NewAt(diagnostics.SyntaxError, tok, format, a...))
}

func (p *Parser) peekError(t token.TokenType) {
	p.addError(p.peekToken, "expected next token to be %s, got %s instead", t, describe(p.peekToken))
}

func describe(tok token.Token) string {
	if tok.Type == token.EOF {
		return "end of input"
	}
	if tok.Type == token.ILLEGAL {
		return fmt.Sprintf("illegal %q", tok.Lexeme)
	}
	return fmt.Sprintf("%q", tok.Lexeme)
}

func (p *Parser) peekPrecedence() int {
	if prec, ok := precedences[p.peekToken.Type]; ok {
		return prec
	}
	return LOWEST
}

func (p *Parser) curPrecedence() int {
	if prec, ok := precedences[p.curToken.Type]; ok {
		return prec
	}
	return LOWEST
}

// skipToStatementBoundary advances past the current statement after an error.
func (p *Parser) skipToStatementBoundary() {
	for !p.curTokenIs(token.SEMICOLON) && !p.curTokenIs(token.EOF) && !p.curTokenIs(token.RBRACE) {
		p.nextToken()
	}
}
