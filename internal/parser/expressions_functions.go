package parser

import (
	"github.com/funvibe/exprassert/internal/ast"
	"github.com/funvibe/exprassert/internal/token"
)

// scanLambdaParams looks ahead from "(" for a parameter list followed by
// "=>". On a match it consumes the list and leaves curToken on the arrow.
func (p *Parser) scanLambdaParams() ([]string, bool) {
	at := func(i int) token.Token {
		if i == 0 {
			return p.peekToken
		}
		return p.peekN(i)
	}

	var params []string
	i := 0
	if at(0).Type != token.RPAREN {
		for {
			if at(i).Type != token.IDENT {
				return nil, false
			}
			params = append(params, at(i).Lexeme)
			i++
			if at(i).Type == token.COMMA {
				i++
				continue
			}
			if at(i).Type != token.RPAREN {
				return nil, false
			}
			break
		}
	}
	if at(i+1).Type != token.ARROW {
		return nil, false
	}
	for n := 0; n < i+2; n++ {
		p.nextToken()
	}
	if params == nil {
		params = []string{}
	}
	return params, true
}

// parseLambda parses the body after "=>" with params in scope.
func (p *Parser) parseLambda(params []string) ast.Expression {
	seen := make(map[string]bool, len(params))
	for _, name := range params {
		if seen[name] {
			p.errorf(p.curToken, "duplicate lambda parameter %q", name)
			return nil
		}
		seen[name] = true
	}

	p.params = append(p.params, params)
	defer func() { p.params = p.params[:len(p.params)-1] }()

	p.nextToken()
	body := p.parseExpression(LOWEST)
	if body == nil {
		return nil
	}
	return &ast.Lambda{Params: params, Body: body}
}
