package parser

import (
	"github.com/funvibe/exprassert/internal/ast"
	"github.com/funvibe/exprassert/internal/token"
	"reflect"
)

// parseNewExpression parses
//
//	new T
//	new T(args)
//	new T(args) { A = x, B = y }
//
// T names a registered type, or a registered constructor function.
func (p *Parser) parseNewExpression() ast.Expression {
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	tok := p.curToken
	name := tok.Lexeme

	c := &ast.Construct{TypeName: name}
	if proto, ok := p.names.Types[name]; ok {
		c.Type = reflect.TypeOf(proto)
	} else if fn, ok := p.names.Funcs[name]; ok {
		c.New = fn
	} else {
		p.errorf(tok, "unknown type %q", name)
		return nil
	}

	if p.peekTokenIs(token.LPAREN) {
		p.nextToken()
		args, variadic, ok := p.parseCallArguments()
		if !ok {
			return nil
		}
		if variadic {
			p.errorf(tok, "constructor %s does not take a variadic slice", name)
			return nil
		}
		c.Args = args
	}

	if !p.peekTokenIs(token.LBRACE) {
		return c
	}
	p.nextToken()
	bindings, ok := p.parseBindings()
	if !ok {
		return nil
	}
	return &ast.MemberInit{Construct: c, Bindings: bindings}
}

// parseBindings parses "{ A = x, B = y }" keeping source order.
func (p *Parser) parseBindings() ([]ast.Binding, bool) {
	bindings := []ast.Binding{}
	if p.peekTokenIs(token.RBRACE) {
		p.nextToken()
		return bindings, true
	}

	for {
		if !p.expectPeek(token.IDENT) {
			return nil, false
		}
		member := p.curToken.Lexeme
		if !p.expectPeek(token.ASSIGN) {
			return nil, false
		}
		p.nextToken()
		value := p.parseExpression(LOWEST)
		if value == nil {
			return nil, false
		}
		bindings = append(bindings, ast.Binding{Member: member, Value: value})

		if !p.peekTokenIs(token.COMMA) {
			break
		}
		p.nextToken()
		// trailing comma
		if p.peekTokenIs(token.RBRACE) {
			break
		}
	}

	if !p.expectPeek(token.RBRACE) {
		return nil, false
	}
	return bindings, true
}
