package verify

import (
	"fmt"
	"github.com/funvibe/exprassert/internal/parser"
)

// Names resolves identifiers in parsed predicate source: captured vars,
// types for new T { ... } and Go functions callable by name.
type Names = parser.Names

// ParseExpr parses predicate source such as
//
//	p.Age >= minAge && p.Tags.Contains("vip")
//
// Identifiers that are neither lambda parameters nor vars refer to the
// subject. Syntax errors carry line and column.
func ParseExpr(src string, names *Names) (Expr, error) {
	node, err := parser.Parse(src, names)
	if err != nil {
		return Expr{}, fmt.Errorf("parsing %q: %w", src, err)
	}
	return Expr{node}, nil
}

// MustParseExpr is ParseExpr for sources known to be valid.
func MustParseExpr(src string, names *Names) Expr {
	e, err := ParseExpr(src, names)
	if err != nil {
		panic(err)
	}
	return e
}

// ThatSource parses src into a boolean predicate.
func ThatSource(src string, names *Names) (Predicate, error) {
	e, err := ParseExpr(src, names)
	if err != nil {
		return nil, err
	}
	return That(e), nil
}
