package parser

import (
	"github.com/funvibe/exprassert/internal/ast"
	"github.com/funvibe/exprassert/internal/token"
)

// parseFunctionCall parses name(recv, args...). A registered Go function is
// called directly; any other name is looked up as an extension method.
func (p *Parser) parseFunctionCall(name string) ast.Expression {
	tok := p.curToken
	p.nextToken()
	args, variadic, ok := p.parseCallArguments()
	if !ok {
		return nil
	}
	if len(args) == 0 {
		p.errorf(tok, "%s needs at least one argument", name)
		return nil
	}
	call := &ast.MethodCall{Method: name, Args: args, Variadic: variadic}
	if fn, ok := p.names.Funcs[name]; ok {
		call.Func = fn
	}
	return call
}

// parseCallArguments parses a parenthesized argument list starting at "(".
// A trailing "..." passes the last argument as the variadic slice.
func (p *Parser) parseCallArguments() ([]ast.Expression, bool, bool) {
	args := []ast.Expression{}
	variadic := false

	if p.peekTokenIs(token.RPAREN) {
		p.nextToken()
		return args, false, true
	}

	p.nextToken()
	for {
		arg := p.parseExpression(LOWEST)
		if arg == nil {
			return nil, false, false
		}
		args = append(args, arg)

		if p.peekTokenIs(token.ELLIPSIS) {
			p.nextToken()
			variadic = true
			break
		}
		if !p.peekTokenIs(token.COMMA) {
			break
		}
		p.nextToken()
		p.nextToken()
	}

	if !p.expectPeek(token.RPAREN) {
		return nil, false, false
	}
	return args, variadic, true
}
