package prettyprinter

import (
	"bytes"
	"errors"
	"fmt"
	"github.com/funvibe/exprassert/internal/ast"
	"reflect"
	"strconv"
)

// --- Code Printer (Output looks like the predicate as it was written) ---

// ErrIncomplete is returned when a node is missing a required child.
var ErrIncomplete = errors.New("incomplete expression")

// Operator precedence (higher = binds tighter)
var operatorPrecedence = map[ast.BinaryOp]int{
	ast.OpOr:     1,
	ast.OpAnd:    2,
	ast.OpEq:     3,
	ast.OpNotEq:  3,
	ast.OpLt:     4,
	ast.OpGt:     4,
	ast.OpLe:     4,
	ast.OpGe:     4,
	ast.OpBitOr:  5,
	ast.OpBitAnd: 6,
	ast.OpAdd:    7,
	ast.OpSub:    7,
	ast.OpMul:    8,
	ast.OpDiv:    8,
	ast.OpMod:    8,
}

const (
	prefixPrecedence = 10
	memberPrecedence = 11
)

func getPrecedence(op ast.BinaryOp) int {
	if p, ok := operatorPrecedence[op]; ok {
		return p
	}
	return prefixPrecedence - 1
}

// CodePrinter renders expression trees back to source-like text.
type CodePrinter struct {
	buf bytes.Buffer
	err error
}

func NewCodePrinter() *CodePrinter {
	return &CodePrinter{}
}

// Render returns the textual form of e.
func Render(e ast.Expression) (string, error) {
	p := NewCodePrinter()
	p.printExpr(e, 0, false)
	if p.err != nil {
		return "", p.err
	}
	return p.String(), nil
}

// RenderCall renders the "Name(args)" segment of a method call, flattening
// a packed variadic tail the same way a full render does.
func RenderCall(method string, args []ast.Expression, variadic bool) (string, error) {
	p := NewCodePrinter()
	p.write(method)
	p.printArgs(args, variadic)
	if p.err != nil {
		return "", p.err
	}
	return p.String(), nil
}

func (p *CodePrinter) String() string {
	return p.buf.String()
}

func (p *CodePrinter) write(s string) {
	p.buf.WriteString(s)
}

func (p *CodePrinter) fail(format string, a ...any) {
	if p.err == nil {
		p.err = fmt.Errorf("%w: %s", ErrIncomplete, fmt.Sprintf(format, a...))
	}
	p.write("<???>")
}

func (p *CodePrinter) printExpr(expr ast.Expression, parentPrec int, isRight bool) {
	if isNilNode(expr) {
		p.fail("missing operand")
		return
	}
	switch e := expr.(type) {
	case *ast.Binary:
		prec := getPrecedence(e.Op)
		needParens := prec < parentPrec
		// Left-associative: equal precedence on the right keeps its grouping
		if prec == parentPrec && isRight {
			needParens = true
		}
		if needParens {
			p.write("(")
		}
		p.printExpr(e.Left, prec, false)
		p.write(" " + e.Op.Symbol() + " ")
		p.printExpr(e.Right, prec, true)
		if needParens {
			p.write(")")
		}
	case *ast.Unary, *ast.Lambda:
		if parentPrec > prefixPrecedence {
			p.write("(")
			expr.Accept(p)
			p.write(")")
			return
		}
		expr.Accept(p)
	default:
		expr.Accept(p)
	}
}

// printTarget writes the receiver of a member or method followed by a dot.
// Captured-variable containers print nothing at all.
func (p *CodePrinter) printTarget(target ast.Expression) {
	if lit, ok := target.(*ast.Literal); ok && lit.IsContainer() {
		return
	}
	p.printExpr(target, memberPrecedence, false)
	p.write(".")
}

func (p *CodePrinter) printArgs(args []ast.Expression, variadic bool) {
	args = expandVariadic(args, variadic)
	p.write("(")
	for i, arg := range args {
		if i > 0 {
			p.write(", ")
		}
		p.printExpr(arg, 0, false)
	}
	p.write(")")
}

// expandVariadic replaces a packed trailing slice literal with one literal
// per element so variadic calls render the way they were written.
func expandVariadic(args []ast.Expression, variadic bool) []ast.Expression {
	if !variadic || len(args) == 0 {
		return args
	}
	last, ok := args[len(args)-1].(*ast.Literal)
	if !ok || last.Value == nil {
		return args
	}
	v := reflect.ValueOf(last.Value)
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return args
	}
	out := make([]ast.Expression, 0, len(args)-1+v.Len())
	out = append(out, args[:len(args)-1]...)
	for i := 0; i < v.Len(); i++ {
		out = append(out, &ast.Literal{Value: v.Index(i).Interface()})
	}
	return out
}

func (p *CodePrinter) VisitLiteral(n *ast.Literal) {
	if n.IsContainer() {
		return
	}
	p.write(FormatLiteral(n.Value))
}

// FormatLiteral renders a constant value: strings quoted, bools lowercase,
// nil as "nil", everything else in its default textual form.
func FormatLiteral(v any) string {
	switch val := v.(type) {
	case nil:
		return "nil"
	case string:
		return `"` + val + `"`
	case bool:
		return strconv.FormatBool(val)
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		if rv.IsNil() {
			return "nil"
		}
	case reflect.String:
		if _, ok := v.(fmt.Stringer); !ok {
			return `"` + rv.String() + `"`
		}
	}
	return fmt.Sprint(v)
}

func (p *CodePrinter) VisitParameter(n *ast.Parameter) {
	p.write(n.Name)
}

func (p *CodePrinter) VisitMemberAccess(n *ast.MemberAccess) {
	if isNilNode(n.Target) {
		p.fail("member %s has no target", n.Member)
		return
	}
	p.printTarget(n.Target)
	p.write(n.Member)
}

func (p *CodePrinter) VisitMethodCall(n *ast.MethodCall) {
	if n.Target != nil {
		p.printTarget(n.Target)
	}
	p.write(n.Method)
	p.printArgs(n.Args, n.Variadic)
}

func (p *CodePrinter) VisitUnary(n *ast.Unary) {
	p.write(n.Op.Symbol())
	p.printExpr(n.Operand, prefixPrecedence, false)
}

func (p *CodePrinter) VisitBinary(n *ast.Binary) {
	p.printExpr(n, 0, false)
}

func (p *CodePrinter) VisitLambda(n *ast.Lambda) {
	switch len(n.Params) {
	case 1:
		p.write(n.Params[0])
	default:
		p.write("(")
		for i, param := range n.Params {
			if i > 0 {
				p.write(", ")
			}
			p.write(param)
		}
		p.write(")")
	}
	p.write(" => ")
	p.printExpr(n.Body, 0, false)
}

func (p *CodePrinter) VisitConstruct(n *ast.Construct) {
	p.write("new ")
	p.write(n.Name())
	p.printArgs(n.Args, false)
}

func (p *CodePrinter) VisitMemberInit(n *ast.MemberInit) {
	if n.Construct == nil {
		p.fail("member initialization without constructor")
		return
	}
	n.Construct.Accept(p)
	if len(n.Bindings) == 0 {
		return
	}
	p.write(" { ")
	for i, b := range n.Bindings {
		if i > 0 {
			p.write(", ")
		}
		p.write(b.Member)
		p.write(" = ")
		p.printExpr(b.Value, 0, false)
	}
	p.write(" }")
}

func isNilNode(e ast.Expression) bool {
	if e == nil {
		return true
	}
	v := reflect.ValueOf(e)
	return v.Kind() == reflect.Ptr && v.IsNil()
}
