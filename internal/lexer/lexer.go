package lexer

import (
	"github.com/funvibe/exprassert/internal/token"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Lexer splits predicate source into tokens.
type Lexer struct {
	input        string
	position     int  // current position in input (points to current char)
	readPosition int  // current reading position in input (after current char)
	ch           rune // current char under examination
	line         int  // current line number
	column       int  // current column number
}

func New(input string) *Lexer {
	l := &Lexer{input: input, line: 1, column: 0}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.column = 0
	}

	if l.readPosition >= len(l.input) {
		l.ch = 0
	} else {
		r, w := utf8.DecodeRuneInString(l.input[l.readPosition:])
		l.ch = r
		l.position = l.readPosition
		l.readPosition += w
		l.column++
		return
	}

	l.position = l.readPosition
	l.readPosition++
	l.column++
}

// operators maps the first char of an operator to its one-char token and
// the two-char tokens it can begin.
var operators = map[rune]struct {
	single token.TokenType
	double map[rune]token.TokenType
}{
	'=': {token.ASSIGN, map[rune]token.TokenType{'=': token.EQ, '>': token.ARROW}},
	'!': {token.BANG, map[rune]token.TokenType{'=': token.NOT_EQ}},
	'<': {token.LT, map[rune]token.TokenType{'=': token.LTE}},
	'>': {token.GT, map[rune]token.TokenType{'=': token.GTE}},
	'&': {token.AMP, map[rune]token.TokenType{'&': token.AND}},
	'|': {token.PIPE, map[rune]token.TokenType{'|': token.OR}},
	'+': {single: token.PLUS},
	'-': {single: token.MINUS},
	'*': {single: token.ASTERISK},
	'/': {single: token.SLASH},
	'%': {single: token.PERCENT},
	',': {single: token.COMMA},
	'(': {single: token.LPAREN},
	')': {single: token.RPAREN},
	'{': {single: token.LBRACE},
	'}': {single: token.RBRACE},
}

func (l *Lexer) NextToken() token.Token {
	l.skipWhitespace()

	switch {
	case l.ch == 0:
		return token.Token{Type: token.EOF, Line: l.line, Column: l.column}
	case l.ch == '"' || l.ch == '`':
		return l.readString()
	case l.ch == '.':
		if l.peekChar() == '.' && l.peekChar2() == '.' {
			line, col := l.line, l.column
			l.readChar()
			l.readChar()
			l.readChar()
			return token.Token{Type: token.ELLIPSIS, Lexeme: "...", Literal: "...", Line: line, Column: col}
		}
	case isLetter(l.ch):
		line, col := l.line, l.column
		lexeme := l.readIdentifier()
		return token.Token{Type: token.LookupIdent(lexeme), Lexeme: lexeme, Literal: lexeme, Line: line, Column: col}
	case isDigit(l.ch):
		return l.readNumber()
	}

	typ := token.ILLEGAL
	if l.ch == '.' {
		typ = token.DOT
	} else if op, ok := operators[l.ch]; ok {
		if t, ok := op.double[l.peekChar()]; ok {
			tok := l.twoCharToken(t)
			l.readChar()
			return tok
		}
		typ = op.single
	}
	tok := newToken(typ, l.ch, l.line, l.column)
	l.readChar()
	return tok
}

func (l *Lexer) twoCharToken(t token.TokenType) token.Token {
	line, col := l.line, l.column
	ch := l.ch
	l.readChar()
	literal := string(ch) + string(l.ch)
	return token.Token{Type: t, Lexeme: literal, Literal: literal, Line: line, Column: col}
}

func (l *Lexer) readIdentifier() string {
	position := l.position
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	return l.input[position:l.position]
}

// readString reads a double-quoted string with Go escapes, or a raw
// backquoted one.
func (l *Lexer) readString() token.Token {
	startLine, startCol := l.line, l.column
	quote := l.ch
	position := l.position
	for {
		l.readChar()
		if l.ch == 0 {
			return token.Token{Type: token.ILLEGAL, Lexeme: l.input[position:], Literal: "unterminated string", Line: startLine, Column: startCol}
		}
		if quote == '"' && l.ch == '\\' {
			l.readChar()
			continue
		}
		if l.ch == quote {
			break
		}
	}
	lexeme := l.input[position : l.position+1]
	l.readChar()

	val, err := strconv.Unquote(lexeme)
	if err != nil {
		return token.Token{Type: token.ILLEGAL, Lexeme: lexeme, Literal: "invalid string literal", Line: startLine, Column: startCol}
	}
	return token.Token{Type: token.STRING, Lexeme: lexeme, Literal: val, Line: startLine, Column: startCol}
}

func (l *Lexer) readNumber() token.Token {
	startLine, startCol := l.line, l.column
	position := l.position
	isFloat := false

	// Check for base prefixes: 0x, 0b, 0o
	base := 10
	if l.ch == '0' {
		switch l.peekChar() {
		case 'x', 'X':
			base = 16
		case 'b', 'B':
			base = 2
		case 'o', 'O':
			base = 8
		}
		if base != 10 {
			l.readChar()
			l.readChar()
		}
	}

	for isHexDigit(l.ch) && (base == 16 || isDigit(l.ch)) || l.ch == '_' {
		l.readChar()
	}

	// Check for float dot (only if base 10)
	if base == 10 && l.ch == '.' && isDigit(l.peekChar()) {
		isFloat = true
		l.readChar() // .
		for isDigit(l.ch) || l.ch == '_' {
			l.readChar()
		}
	}
	if base == 10 && (l.ch == 'e' || l.ch == 'E') {
		isFloat = true
		l.readChar()
		if l.ch == '+' || l.ch == '-' {
			l.readChar()
		}
		for isDigit(l.ch) {
			l.readChar()
		}
	}

	lexeme := l.input[position:l.position]
	if isFloat {
		val, err := strconv.ParseFloat(strings.ReplaceAll(lexeme, "_", ""), 64)
		if err != nil {
			return token.Token{Type: token.ILLEGAL, Lexeme: lexeme, Literal: err.Error(), Line: startLine, Column: startCol}
		}
		return token.Token{Type: token.FLOAT, Lexeme: lexeme, Literal: val, Line: startLine, Column: startCol}
	}
	// strconv.ParseInt(s, 0, 64) auto-detects base
	val, err := strconv.ParseInt(lexeme, 0, 64)
	if err != nil {
		return token.Token{Type: token.ILLEGAL, Lexeme: lexeme, Literal: "integer out of range", Line: startLine, Column: startCol}
	}
	return token.Token{Type: token.INT, Lexeme: lexeme, Literal: val, Line: startLine, Column: startCol}
}

func isHexDigit(ch rune) bool {
	return isDigit(ch) || ('a' <= ch && ch <= 'f') || ('A' <= ch && ch <= 'F')
}

func isLetter(ch rune) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_' || (ch >= 0x80 && unicode.IsLetter(ch))
}

func isDigit(ch rune) bool {
	return '0' <= ch && ch <= '9'
}

func (l *Lexer) peekChar() rune {
	if l.readPosition >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPosition:])
	return r
}

func (l *Lexer) peekChar2() rune {
	if l.readPosition >= len(l.input) {
		return 0
	}
	_, w := utf8.DecodeRuneInString(l.input[l.readPosition:])
	pos2 := l.readPosition + w
	if pos2 >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[pos2:])
	return r
}

func newToken(tokenType token.TokenType, ch rune, line, col int) token.Token {
	literal := string(ch)
	return token.Token{Type: tokenType, Lexeme: literal, Literal: literal, Line: line, Column: col}
}

func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\r' || l.ch == '\n' {
		l.readChar()
	}
}
