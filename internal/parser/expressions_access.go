package parser

import (
	"github.com/funvibe/exprassert/internal/ast"
	"github.com/funvibe/exprassert/internal/token"
)

// parseIdentifier resolves a bare name. In order: a lambda, a function
// call, a lambda parameter, a var, and finally the subject itself.
func (p *Parser) parseIdentifier() ast.Expression {
	name := p.curToken.Lexeme

	if p.peekTokenIs(token.ARROW) {
		p.nextToken()
		return p.parseLambda([]string{name})
	}
	if p.peekTokenIs(token.LPAREN) {
		return p.parseFunctionCall(name)
	}
	if p.isLambdaParam(name) {
		return &ast.Parameter{Name: name}
	}
	if v, ok := p.names.Vars[name]; ok {
		return &ast.MemberAccess{
			Target: &ast.Literal{Value: ast.Scope{name: v}},
			Member: name,
			Kind:   ast.FieldMember,
		}
	}
	return &ast.Parameter{Name: name}
}

func (p *Parser) isLambdaParam(name string) bool {
	for i := len(p.params) - 1; i >= 0; i-- {
		for _, param := range p.params[i] {
			if param == name {
				return true
			}
		}
	}
	return false
}

// parseMemberAccess handles x.Name and x.Method(args).
func (p *Parser) parseMemberAccess(left ast.Expression) ast.Expression {
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	name := p.curToken.Lexeme

	if !p.peekTokenIs(token.LPAREN) {
		return &ast.MemberAccess{Target: left, Member: name, Kind: ast.PropertyMember}
	}
	p.nextToken()
	args, variadic, ok := p.parseCallArguments()
	if !ok {
		return nil
	}
	return &ast.MethodCall{Target: left, Method: name, Args: args, Variadic: variadic}
}
