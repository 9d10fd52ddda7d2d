package parser

import (
	"github.com/funvibe/exprassert/internal/ast"
	"github.com/funvibe/exprassert/internal/token"
)

func (p *Parser) parseIntegerLiteral() ast.Expression {
	v, ok := p.curToken.Literal.(int64)
	if !ok {
		p.errorf(p.curToken, "could not parse %q as integer", p.curToken.Lexeme)
		return nil
	}
	return &ast.Literal{Value: int(v)}
}

func (p *Parser) parseFloatLiteral() ast.Expression {
	v, ok := p.curToken.Literal.(float64)
	if !ok {
		p.errorf(p.curToken, "could not parse %q as float", p.curToken.Lexeme)
		return nil
	}
	return &ast.Literal{Value: v}
}

func (p *Parser) parseStringLiteral() ast.Expression {
	s, _ := p.curToken.Literal.(string)
	return &ast.Literal{Value: s}
}

func (p *Parser) parseBoolean() ast.Expression {
	return &ast.Literal{Value: p.curTokenIs(token.TRUE)}
}

func (p *Parser) parseNil() ast.Expression {
	return &ast.Literal{Value: nil}
}

// negateLiteral folds -5 and -1.5 into a single literal.
func negateLiteral(e ast.Expression) (ast.Expression, bool) {
	lit, ok := e.(*ast.Literal)
	if !ok {
		return nil, false
	}
	switch v := lit.Value.(type) {
	case int:
		return &ast.Literal{Value: -v}, true
	case float64:
		return &ast.Literal{Value: -v}, true
	}
	return nil, false
}
