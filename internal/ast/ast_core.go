package ast

import (
	"reflect"
)

// Node is the base interface for all predicate expression nodes.
type Node interface {
	Accept(v Visitor)
}

// Expression is a Node that can appear anywhere inside a predicate body.
// The marker method keeps the node set closed to this package.
type Expression interface {
	Node
	expressionNode()
}

// Visitor is implemented by every traversal over the expression model.
// Adding a node kind means adding a method here, so a traversal that
// forgets the new kind stops compiling.
type Visitor interface {
	VisitLiteral(n *Literal)
	VisitParameter(n *Parameter)
	VisitMemberAccess(n *MemberAccess)
	VisitMethodCall(n *MethodCall)
	VisitUnary(n *Unary)
	VisitBinary(n *Binary)
	VisitLambda(n *Lambda)
	VisitConstruct(n *Construct)
	VisitMemberInit(n *MemberInit)
}

// Scope holds closed-over variables by name. A Literal carrying a Scope is a
// bare container: it renders as nothing, so members read from it render as
// plain variable names.
type Scope map[string]any

// Literal is a constant captured when the predicate was built.
type Literal struct {
	Value any
	Type  reflect.Type // optional declared type; the value is converted to it on evaluation
}

func (l *Literal) Accept(v Visitor) { v.VisitLiteral(l) }
func (l *Literal) expressionNode()  {}

// IsContainer reports whether the literal is a captured-variable scope.
func (l *Literal) IsContainer() bool {
	_, ok := l.Value.(Scope)
	return ok
}

// Parameter refers to the subject under test or to a lambda argument.
type Parameter struct {
	Name string
}

func (p *Parameter) Accept(v Visitor) { v.VisitParameter(p) }
func (p *Parameter) expressionNode()  {}

// MemberKind distinguishes property-style from field-style members.
// Both render identically; the distinction is kept for accessors that care.
type MemberKind int

const (
	PropertyMember MemberKind = iota
	FieldMember
)

func (k MemberKind) String() string {
	if k == FieldMember {
		return "field"
	}
	return "property"
}

// Getter reads a member value from its container.
type Getter func(container any) (any, error)

// MemberAccess reads a named member of Target.
type MemberAccess struct {
	Target Expression
	Member string
	Kind   MemberKind
	Get    Getter // optional; the evaluator's accessor chain is used when nil
}

func (m *MemberAccess) Accept(v Visitor) { v.VisitMemberAccess(m) }
func (m *MemberAccess) expressionNode()  {}

// MethodCall invokes Method on Target. A nil Target is an extension call:
// the first argument acts as the receiver.
type MethodCall struct {
	Target   Expression
	Method   string
	Args     []Expression
	Variadic bool // last argument is an already-packed variadic slice
	Func     any  // optional Go function invoked instead of a lookup by name
}

func (mc *MethodCall) Accept(v Visitor) { v.VisitMethodCall(mc) }
func (mc *MethodCall) expressionNode()  {}

// IsExtension reports whether the call is in receiver-as-first-argument form.
func (mc *MethodCall) IsExtension() bool { return mc.Target == nil }

// Receiver returns the expression acting as receiver, or nil for an
// extension call without arguments.
func (mc *MethodCall) Receiver() Expression {
	if mc.Target != nil {
		return mc.Target
	}
	if len(mc.Args) > 0 {
		return mc.Args[0]
	}
	return nil
}

// CallArgs returns the arguments excluding the receiver.
func (mc *MethodCall) CallArgs() []Expression {
	if mc.Target == nil && len(mc.Args) > 0 {
		return mc.Args[1:]
	}
	return mc.Args
}

// Unary applies a prefix operator.
type Unary struct {
	Op      UnaryOp
	Operand Expression
}

func (u *Unary) Accept(v Visitor) { v.VisitUnary(u) }
func (u *Unary) expressionNode()  {}

// Binary applies an infix operator.
type Binary struct {
	Op    BinaryOp
	Left  Expression
	Right Expression
}

func (b *Binary) Accept(v Visitor) { v.VisitBinary(b) }
func (b *Binary) expressionNode()  {}

// Lambda is an anonymous function passed as a method argument.
type Lambda struct {
	Params []string
	Body   Expression
}

func (l *Lambda) Accept(v Visitor) { v.VisitLambda(l) }
func (l *Lambda) expressionNode()  {}

// Construct builds a new value of a named type.
type Construct struct {
	TypeName string
	Type     reflect.Type
	Args     []Expression
	New      any // optional Go constructor; reflect.New(Type) is used when nil
}

func (c *Construct) Accept(v Visitor) { v.VisitConstruct(c) }
func (c *Construct) expressionNode()  {}

// Name returns the type name used when rendering the construction.
func (c *Construct) Name() string {
	if c.TypeName != "" {
		return c.TypeName
	}
	if c.Type != nil {
		return TypeName(c.Type)
	}
	if c.New != nil {
		if t := reflect.TypeOf(c.New); t.Kind() == reflect.Func && t.NumOut() > 0 {
			return TypeName(t.Out(0))
		}
	}
	return "?"
}

// Binding assigns Value to Member during member initialization.
type Binding struct {
	Member string
	Value  Expression
}

// MemberInit constructs a value and assigns members in declaration order.
type MemberInit struct {
	Construct *Construct
	Bindings  []Binding
}

func (mi *MemberInit) Accept(v Visitor) { v.VisitMemberInit(mi) }
func (mi *MemberInit) expressionNode()  {}

// TypeName returns the unqualified name of t, looking through pointers.
// Unnamed types fall back to their literal form, e.g. "[]string".
func TypeName(t reflect.Type) string {
	if t == nil {
		return "nil"
	}
	for t.Kind() == reflect.Ptr && t.Name() == "" {
		t = t.Elem()
	}
	if t.Name() != "" {
		return t.Name()
	}
	return t.String()
}
