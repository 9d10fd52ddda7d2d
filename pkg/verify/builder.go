package verify

import (
	"github.com/funvibe/exprassert/internal/ast"
	"github.com/funvibe/exprassert/internal/prettyprinter"
	"reflect"
)

// Expr is an immutable predicate expression. Every method returns a new
// Expr; the receiver is never modified, so sub-expressions can be shared.
type Expr struct {
	node ast.Expression
}

// Param refers to the subject under test, or to a lambda argument of the
// same name inside a Lambda body.
func Param(name string) Expr {
	return Expr{&ast.Parameter{Name: name}}
}

// Lit is a constant. Strings render quoted, bools lowercase.
func Lit(v any) Expr {
	return Expr{&ast.Literal{Value: v}}
}

// Var is a captured variable: it evaluates to v and renders as name.
func Var(name string, v any) Expr {
	return Expr{&ast.MemberAccess{
		Target: &ast.Literal{Value: ast.Scope{name: v}},
		Member: name,
		Kind:   ast.FieldMember,
	}}
}

// Fn calls a Go function in extension form: the first argument is the
// receiver, so Fn("HasPrefix", strings.HasPrefix, p.Field("Name"), "A")
// is diagnosed as Name.HasPrefix("A").
func Fn(name string, fn any, args ...any) Expr {
	return Expr{&ast.MethodCall{Method: name, Func: fn, Args: toNodes(args)}}
}

// Ext calls a registered extension method in extension form.
func Ext(name string, args ...any) Expr {
	return Expr{&ast.MethodCall{Method: name, Args: toNodes(args)}}
}

// Not negates a boolean expression.
func Not(e Expr) Expr {
	return Expr{&ast.Unary{Op: ast.OpNot, Operand: e.node}}
}

// Neg negates a number.
func Neg(e any) Expr {
	return Expr{&ast.Unary{Op: ast.OpNegate, Operand: toNode(e)}}
}

// LambdaParams collects lambda parameter names until Returns supplies the body.
type LambdaParams []string

// Lambda starts an anonymous function, passed as a method argument:
//
//	p.Field("Tags").Call("Any", verify.Lambda("t").Returns(verify.Param("t").Eq("go")))
func Lambda(params ...string) LambdaParams {
	return LambdaParams(params)
}

func (lp LambdaParams) Returns(body any) Expr {
	return Expr{&ast.Lambda{Params: append([]string(nil), lp...), Body: toNode(body)}}
}

func (e Expr) Field(name string) Expr {
	return Expr{&ast.MemberAccess{Target: e.node, Member: name, Kind: ast.FieldMember}}
}

func (e Expr) Prop(name string) Expr {
	return Expr{&ast.MemberAccess{Target: e.node, Member: name, Kind: ast.PropertyMember}}
}

// Get reads a member through get instead of the accessor chain.
func (e Expr) Get(name string, get func(any) (any, error)) Expr {
	return Expr{&ast.MemberAccess{Target: e.node, Member: name, Kind: ast.PropertyMember, Get: get}}
}

// Call invokes a method on the receiver, or a registered extension method
// when the receiver's type has none by that name.
func (e Expr) Call(method string, args ...any) Expr {
	return Expr{&ast.MethodCall{Target: e.node, Method: method, Args: toNodes(args)}}
}

// CallVariadic is Call where the last argument is an already packed slice
// for a variadic method.
func (e Expr) CallVariadic(method string, args ...any) Expr {
	return Expr{&ast.MethodCall{Target: e.node, Method: method, Args: toNodes(args), Variadic: true}}
}

// CallFunc invokes fn with the receiver as its first argument, rendered as
// a method call named method.
func (e Expr) CallFunc(method string, fn any, args ...any) Expr {
	return Expr{&ast.MethodCall{Target: e.node, Method: method, Args: toNodes(args), Func: fn}}
}

func (e Expr) binary(op ast.BinaryOp, o any) Expr {
	return Expr{&ast.Binary{Op: op, Left: e.node, Right: toNode(o)}}
}

func (e Expr) Eq(o any) Expr     { return e.binary(ast.OpEq, o) }
func (e Expr) Ne(o any) Expr     { return e.binary(ast.OpNotEq, o) }
func (e Expr) Gt(o any) Expr     { return e.binary(ast.OpGt, o) }
func (e Expr) Ge(o any) Expr     { return e.binary(ast.OpGe, o) }
func (e Expr) Lt(o any) Expr     { return e.binary(ast.OpLt, o) }
func (e Expr) Le(o any) Expr     { return e.binary(ast.OpLe, o) }
func (e Expr) Plus(o any) Expr   { return e.binary(ast.OpAdd, o) }
func (e Expr) Minus(o any) Expr  { return e.binary(ast.OpSub, o) }
func (e Expr) Times(o any) Expr  { return e.binary(ast.OpMul, o) }
func (e Expr) Div(o any) Expr    { return e.binary(ast.OpDiv, o) }
func (e Expr) Mod(o any) Expr    { return e.binary(ast.OpMod, o) }
func (e Expr) And(o any) Expr    { return e.binary(ast.OpAnd, o) }
func (e Expr) Or(o any) Expr     { return e.binary(ast.OpOr, o) }
func (e Expr) BitAnd(o any) Expr { return e.binary(ast.OpBitAnd, o) }
func (e Expr) BitOr(o any) Expr  { return e.binary(ast.OpBitOr, o) }

// Node exposes the underlying expression tree.
func (e Expr) Node() ast.Expression { return e.node }

func (e Expr) String() string { return render(e.node) }

// Construct builds a new value, optionally followed by member bindings.
type Construct struct {
	node *ast.Construct
}

// New constructs a zero value of the prototype's type. A reflect.Type is
// accepted as the prototype too. Pass &T{} to construct a pointer.
func New(prototype any) Construct {
	t, ok := prototype.(reflect.Type)
	if !ok {
		t = reflect.TypeOf(prototype)
	}
	return Construct{&ast.Construct{Type: t}}
}

// NewWith constructs a value by calling a Go constructor function.
func NewWith(fn any, args ...any) Construct {
	return Construct{&ast.Construct{New: fn, Args: toNodes(args)}}
}

// Named overrides the type name shown when the construction is rendered.
func (c Construct) Named(name string) Construct {
	n := *c.node
	n.TypeName = name
	return Construct{&n}
}

// Set starts member initialization with a first binding.
func (c Construct) Set(member string, value any) Init {
	return Init{&ast.MemberInit{Construct: c.node}}.Set(member, value)
}

func (c Construct) Expr() Expr { return Expr{c.node} }

func (c Construct) String() string { return render(c.node) }

// Init is a construction with ordered member bindings.
type Init struct {
	node *ast.MemberInit
}

// Set adds a binding. value may be another Init to describe nested members.
func (i Init) Set(member string, value any) Init {
	bindings := make([]ast.Binding, len(i.node.Bindings), len(i.node.Bindings)+1)
	copy(bindings, i.node.Bindings)
	bindings = append(bindings, ast.Binding{Member: member, Value: toNode(value)})
	return Init{&ast.MemberInit{Construct: i.node.Construct, Bindings: bindings}}
}

func (i Init) Expr() Expr { return Expr{i.node} }

func (i Init) String() string { return render(i.node) }

func toNode(v any) ast.Expression {
	switch val := v.(type) {
	case Expr:
		return val.node
	case Construct:
		return val.node
	case Init:
		return val.node
	case ast.Expression:
		return val
	}
	return &ast.Literal{Value: v}
}

func toNodes(vs []any) []ast.Expression {
	nodes := make([]ast.Expression, len(vs))
	for i, v := range vs {
		nodes[i] = toNode(v)
	}
	return nodes
}

func render(e ast.Expression) string {
	s, err := prettyprinter.Render(e)
	if err != nil {
		return "<invalid: " + err.Error() + ">"
	}
	return s
}
