package parser

import (
	"github.com/funvibe/exprassert/internal/ast"
	"github.com/funvibe/exprassert/internal/token"
	"strconv"
)

func (p *Parser) parseExpression(precedence int) ast.Expression {
	p.depth++
	defer func() { p.depth-- }()

	if p.depth > MaxRecursionDepth {
		p.errorf(p.curToken, "expression too complex: recursion depth limit exceeded")
		return nil
	}

	prefix := p.prefixParseFns[p.curToken.Type]
	if prefix == nil {
		p.noPrefixParseFnError(p.curToken)
		return nil
	}
	leftExp := prefix()
	if leftExp == nil {
		return nil
	}

	for precedence < p.peekPrecedence() {
		infix := p.infixParseFns[p.peekToken.Type]
		if infix == nil {
			return leftExp
		}
		p.nextToken()
		nextExp := infix(leftExp)
		if nextExp == nil {
			return nil
		}
		leftExp = nextExp
	}

	return leftExp
}

func (p *Parser) parsePrefixExpression() ast.Expression {
	op := ast.OpNot
	if p.curTokenIs(token.MINUS) {
		op = ast.OpNegate
		// MinInt64 only fits with its sign
		if p.peekTokenIs(token.ILLEGAL) {
			if v, err := strconv.ParseInt("-"+p.peekToken.Lexeme, 0, 64); err == nil {
				p.nextToken()
				return &ast.Literal{Value: int(v)}
			}
		}
	}
	p.nextToken()
	operand := p.parseExpression(PREFIX)
	if operand == nil {
		return nil
	}
	if op == ast.OpNegate {
		if lit, ok := negateLiteral(operand); ok {
			return lit
		}
	}
	return &ast.Unary{Op: op, Operand: operand}
}

func (p *Parser) parseInfixExpression(left ast.Expression) ast.Expression {
	tok := p.curToken
	op, ok := ast.ParseBinaryOp(tok.Lexeme)
	if !ok {
		p.errorf(tok, "unknown operator %q", tok.Lexeme)
		return nil
	}

	precedence := p.curPrecedence()
	p.nextToken()
	right := p.parseExpression(precedence)
	if right == nil {
		return nil
	}
	return &ast.Binary{Op: op, Left: left, Right: right}
}

// parseGroupedOrLambda handles "(" which opens either a parenthesized
// expression or a lambda parameter list: (a, b) => ..., () => ...
func (p *Parser) parseGroupedOrLambda() ast.Expression {
	if params, ok := p.scanLambdaParams(); ok {
		return p.parseLambda(params)
	}

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
