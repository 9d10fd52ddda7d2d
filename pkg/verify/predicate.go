package verify

import (
	"github.com/funvibe/exprassert/internal/ast"
)

// Predicate is one verification in a session: a boolean body over the
// subject, or an expected value the subject must equal.
type Predicate interface {
	String() string
	predicate()
}

// BooleanPredicate holds when Body evaluates to true for the subject.
type BooleanPredicate struct {
	Body ast.Expression
}

// EqualityPredicate holds when the subject matches the value Expected
// evaluates to.
type EqualityPredicate struct {
	Expected ast.Expression
}

// That builds a boolean predicate. body is usually an Expr built from
// Param; any other value becomes a constant.
func That(body any) Predicate {
	return BooleanPredicate{Body: toNode(body)}
}

// Equals builds an equality predicate. expected may be a plain Go value, a
// New(...).Set(...) initialization, or an Expr that does not reference the
// subject.
//
// Plain values are compared member by member in declaration order, skipping
// members whose expected value is a zero value or empty collection. An
// initialization compares exactly the members it sets.
func Equals(expected any) Predicate {
	return EqualityPredicate{Expected: toNode(expected)}
}

func (p BooleanPredicate) String() string { return render(p.Body) }
func (BooleanPredicate) predicate()       {}

func (p EqualityPredicate) String() string { return "== " + render(p.Expected) }
func (EqualityPredicate) predicate()       {}
