// Package parser turns predicate source such as
//
//	p.Age >= minAge && p.Tags.Any(t => t.HasPrefix("go"))
//
// into expression trees. Identifiers that are not lambda parameters or
// known vars refer to the subject.
package parser

import (
	"fmt"
	"github.com/funvibe/exprassert/internal/ast"
	"github.com/funvibe/exprassert/internal/lexer"
	"github.com/funvibe/exprassert/internal/token"
	"strings"
)

// MaxRecursionDepth bounds nesting so hostile input cannot exhaust the stack.
const MaxRecursionDepth = 200

const (
	_ int = iota
	LOWEST
	LOGIC_OR    // ||
	LOGIC_AND   // &&
	EQUALS      // == !=
	LESSGREATER // < > <= >=
	BIT_OR      // |
	BIT_AND     // &
	SUM         // + -
	PRODUCT     // * / %
	PREFIX      // -x !x
	MEMBER      // x.y x.y()
)

var precedences = map[token.TokenType]int{
	token.OR:       LOGIC_OR,
	token.AND:      LOGIC_AND,
	token.EQ:       EQUALS,
	token.NOT_EQ:   EQUALS,
	token.LT:       LESSGREATER,
	token.LTE:      LESSGREATER,
	token.GT:       LESSGREATER,
	token.GTE:      LESSGREATER,
	token.PIPE:     BIT_OR,
	token.AMP:      BIT_AND,
	token.PLUS:     SUM,
	token.MINUS:    SUM,
	token.ASTERISK: PRODUCT,
	token.SLASH:    PRODUCT,
	token.PERCENT:  PRODUCT,
	token.DOT:      MEMBER,
}

// Names resolves identifiers during parsing.
type Names struct {
	// Vars are captured values, rendered by name.
	Vars map[string]any
	// Types are prototypes for new T { ... }; &T{} constructs pointers.
	Types map[string]any
	// Funcs are Go functions callable as f(recv, args...) and as
	// constructors in new f(args).
	Funcs map[string]any
}

// Error is a syntax error at a source position.
type Error struct {
	Line   int
	Column int
	Msg    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Msg)
}

// Errors collects every syntax error found in one source.
type Errors []*Error

func (es Errors) Error() string {
	msgs := make([]string, len(es))
	for i, e := range es {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

type (
	prefixParseFn func() ast.Expression
	infixParseFn  func(ast.Expression) ast.Expression
)

type Parser struct {
	tokens []token.Token
	pos    int
	names  *Names

	curToken  token.Token
	peekToken token.Token

	// params holds the lambda parameters in scope, innermost last
	params [][]string
	depth  int
	errors Errors

	prefixParseFns map[token.TokenType]prefixParseFn
	infixParseFns  map[token.TokenType]infixParseFn
}

func New(l *lexer.Lexer, names *Names) *Parser {
	if names == nil {
		names = &Names{}
	}
	p := &Parser{names: names}
	for {
		tok := l.NextToken()
		p.tokens = append(p.tokens, tok)
		if tok.Type == token.EOF {
			break
		}
	}

	p.prefixParseFns = map[token.TokenType]prefixParseFn{
		token.IDENT:  p.parseIdentifier,
		token.INT:    p.parseIntegerLiteral,
		token.FLOAT:  p.parseFloatLiteral,
		token.STRING: p.parseStringLiteral,
		token.TRUE:   p.parseBoolean,
		token.FALSE:  p.parseBoolean,
		token.NIL:    p.parseNil,
		token.BANG:   p.parsePrefixExpression,
		token.MINUS:  p.parsePrefixExpression,
		token.LPAREN: p.parseGroupedOrLambda,
		token.NEW:    p.parseNewExpression,
	}
	p.infixParseFns = make(map[token.TokenType]infixParseFn)
	for t := range precedences {
		p.infixParseFns[t] = p.parseInfixExpression
	}
	p.infixParseFns[token.DOT] = p.parseMemberAccess

	// Read two tokens, so curToken and peekToken are both set
	p.nextToken()
	p.nextToken()
	return p
}

// Parse parses a complete predicate expression.
func Parse(src string, names *Names) (ast.Expression, error) {
	p := New(lexer.New(src), names)
	e := p.ParseExpression()
	if len(p.errors) > 0 {
		return nil, p.errors
	}
	return e, nil
}

// ParseExpression parses one expression that must span the whole input.
func (p *Parser) ParseExpression() ast.Expression {
	e := p.parseExpression(LOWEST)
	if len(p.errors) == 0 && !p.peekTokenIs(token.EOF) {
		p.errorf(p.peekToken, "unexpected %s after expression", describe(p.peekToken))
	}
	return e
}

func (p *Parser) Errors() Errors { return p.errors }

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	if p.pos < len(p.tokens) {
		p.peekToken = p.tokens[p.pos]
		p.pos++
	}
}

// peekN returns the token n positions after peekToken.
func (p *Parser) peekN(n int) token.Token {
	i := p.pos + n - 1
	if i >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[i]
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

func (p *Parser) peekError(t token.TokenType) {
	p.errorf(p.peekToken, "expected %s, got %s", t, describe(p.peekToken))
}

func (p *Parser) peekPrecedence() int {
	if pr, ok := precedences[p.peekToken.Type]; ok {
		return pr
	}
	return LOWEST
}

func (p *Parser) curPrecedence() int {
	if pr, ok := precedences[p.curToken.Type]; ok {
		return pr
	}
	return LOWEST
}

func (p *Parser) noPrefixParseFnError(tok token.Token) {
	if tok.Type == token.ILLEGAL {
		p.errorf(tok, "%v", tok.Literal)
		return
	}
	p.errorf(tok, "unexpected %s", describe(tok))
}

func (p *Parser) errorf(tok token.Token, format string, a ...any) {
	p.errors = append(p.errors, &Error{Line: tok.Line, Column: tok.Column, Msg: fmt.Sprintf(format, a...)})
}

func describe(tok token.Token) string {
	if tok.Type == token.EOF {
		return "end of input"
	}
	return fmt.Sprintf("%q", tok.Lexeme)
}
