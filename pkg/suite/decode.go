package suite

import (
	"errors"
	"fmt"
	"github.com/funvibe/exprassert/internal/ast"
	"github.com/funvibe/exprassert/internal/parser"
	"github.com/funvibe/exprassert/pkg/verify"
	"gopkg.in/yaml.v3"
	"reflect"
	"strings"
)

var shorthandOps = map[string]ast.BinaryOp{
	"eq":  ast.OpEq,
	"ne":  ast.OpNotEq,
	"gt":  ast.OpGt,
	"ge":  ast.OpGe,
	"lt":  ast.OpLt,
	"le":  ast.OpLe,
	"and": ast.OpAnd,
	"or":  ast.OpOr,
}

type decoder struct {
	path string
	reg  *Registry
	vars map[string]any
}

func (d *decoder) errorf(n *yaml.Node, format string, a ...any) error {
	return &ParseError{Path: d.path, Line: n.Line, Column: n.Column, Msg: fmt.Sprintf(format, a...)}
}

func (d *decoder) suite(doc *yaml.Node) (*Suite, error) {
	s := &Suite{Vars: make(map[string]any)}
	root := doc
	if root.Kind == yaml.DocumentNode {
		if len(root.Content) == 0 {
			return s, nil
		}
		root = root.Content[0]
	}
	if root.Kind != yaml.MappingNode {
		return nil, d.errorf(root, "a suite must be a mapping")
	}

	var preds *yaml.Node
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i], root.Content[i+1]
		switch key.Value {
		case "name":
			if err := val.Decode(&s.Name); err != nil {
				return nil, d.errorf(val, "name: %v", err)
			}
		case "vars":
			if err := val.Decode(&s.Vars); err != nil {
				return nil, d.errorf(val, "vars: %v", err)
			}
		case "predicates":
			preds = val
		default:
			return nil, d.errorf(key, "unknown suite key %q", key.Value)
		}
	}

	// vars may follow predicates in the file
	d.vars = s.Vars
	if preds == nil {
		return s, nil
	}
	if preds.Kind != yaml.SequenceNode {
		return nil, d.errorf(preds, "predicates must be a list")
	}
	for _, item := range preds.Content {
		p, err := d.predicate(item)
		if err != nil {
			return nil, err
		}
		s.Predicates = append(s.Predicates, p)
	}
	return s, nil
}

func (d *decoder) predicate(n *yaml.Node) (verify.Predicate, error) {
	if n.Kind == yaml.ScalarNode {
		e, err := d.source(n)
		if err != nil {
			return nil, err
		}
		return verify.That(e), nil
	}
	key, val, err := d.single(n)
	if err != nil {
		return nil, err
	}
	e, err := d.expr(val)
	if err != nil {
		return nil, err
	}
	switch key {
	case "that":
		return verify.That(e), nil
	case "equals":
		return verify.Equals(e), nil
	}
	return nil, d.errorf(n, "a predicate is 'that' or 'equals', got %q", key)
}

// single unpacks a one-key mapping.
func (d *decoder) single(n *yaml.Node) (string, *yaml.Node, error) {
	if n.Kind != yaml.MappingNode || len(n.Content) != 2 {
		return "", nil, d.errorf(n, "expected a mapping with a single key")
	}
	return n.Content[0].Value, n.Content[1], nil
}

// fields unpacks a mapping, rejecting keys outside allowed.
func (d *decoder) fields(n *yaml.Node, allowed ...string) (map[string]*yaml.Node, error) {
	if n.Kind != yaml.MappingNode {
		return nil, d.errorf(n, "expected a mapping")
	}
	out := make(map[string]*yaml.Node, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		key := n.Content[i]
		ok := false
		for _, a := range allowed {
			if key.Value == a {
				ok = true
				break
			}
		}
		if !ok {
			return nil, d.errorf(key, "unexpected key %q, want one of %s", key.Value, strings.Join(allowed, ", "))
		}
		out[key.Value] = n.Content[i+1]
	}
	return out, nil
}

func (d *decoder) required(parent *yaml.Node, f map[string]*yaml.Node, key string) (*yaml.Node, error) {
	n, ok := f[key]
	if !ok {
		return nil, d.errorf(parent, "missing %q", key)
	}
	return n, nil
}

func (d *decoder) scalar(n *yaml.Node) (string, error) {
	if n.Kind != yaml.ScalarNode {
		return "", d.errorf(n, "expected a scalar")
	}
	return n.Value, nil
}

func (d *decoder) expr(n *yaml.Node) (ast.Expression, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		return d.literal(n)
	case yaml.AliasNode:
		return d.expr(n.Alias)
	case yaml.MappingNode:
	default:
		return nil, d.errorf(n, "expected a scalar or a single-key mapping")
	}

	form, val, err := d.single(n)
	if err != nil {
		return nil, err
	}
	switch form {
	case "lit":
		return d.literal(val)
	case "param":
		name, err := d.scalar(val)
		if err != nil {
			return nil, err
		}
		return &ast.Parameter{Name: name}, nil
	case "var":
		return d.variable(val)
	case "path":
		return d.memberPath(val)
	case "member":
		return d.member(val)
	case "call":
		return d.call(val)
	case "func":
		return d.function(val)
	case "not", "neg":
		operand, err := d.expr(val)
		if err != nil {
			return nil, err
		}
		op := ast.OpNot
		if form == "neg" {
			op = ast.OpNegate
		}
		return &ast.Unary{Op: op, Operand: operand}, nil
	case "binary":
		return d.binary(val)
	case "lambda":
		return d.lambda(val)
	case "expr":
		return d.source(val)
	case "new":
		return d.construct(val, false)
	case "init":
		return d.construct(val, true)
	}
	if op, ok := shorthandOps[form]; ok {
		return d.pair(op, val)
	}
	return nil, d.errorf(n, "unknown expression form %q", form)
}

// source parses predicate text against the suite's vars and registry.
// Parser positions are shifted onto the YAML scalar holding the text.
func (d *decoder) source(n *yaml.Node) (ast.Expression, error) {
	src, err := d.scalar(n)
	if err != nil {
		return nil, err
	}
	e, err := parser.Parse(src, &parser.Names{Vars: d.vars, Types: d.reg.Types, Funcs: d.reg.Funcs})
	if err == nil {
		return e, nil
	}
	var errs parser.Errors
	if errors.As(err, &errs) && len(errs) > 0 {
		first := errs[0]
		pe := &ParseError{Path: d.path, Line: n.Line + first.Line - 1, Column: first.Column, Msg: first.Msg}
		switch {
		case n.Style&(yaml.LiteralStyle|yaml.FoldedStyle) != 0:
			// block text starts on the line after the indicator
			pe.Line++
		case first.Line == 1:
			pe.Column = n.Column + first.Column - 1
			if n.Style&(yaml.DoubleQuotedStyle|yaml.SingleQuotedStyle) != 0 {
				pe.Column++
			}
		}
		return nil, pe
	}
	return nil, d.errorf(n, "%v", err)
}

func (d *decoder) literal(n *yaml.Node) (ast.Expression, error) {
	var v any
	if err := n.Decode(&v); err != nil {
		return nil, d.errorf(n, "literal: %v", err)
	}
	return &ast.Literal{Value: v}, nil
}

func (d *decoder) variable(n *yaml.Node) (ast.Expression, error) {
	name, err := d.scalar(n)
	if err != nil {
		return nil, err
	}
	v, ok := d.vars[name]
	if !ok {
		return nil, d.errorf(n, "undefined var %q", name)
	}
	return &ast.MemberAccess{
		Target: &ast.Literal{Value: ast.Scope{name: v}},
		Member: name,
		Kind:   ast.FieldMember,
	}, nil
}

// memberPath expands "p.A.B" into a member chain on parameter p.
func (d *decoder) memberPath(n *yaml.Node) (ast.Expression, error) {
	s, err := d.scalar(n)
	if err != nil {
		return nil, err
	}
	parts := strings.Split(s, ".")
	for _, part := range parts {
		if part == "" {
			return nil, d.errorf(n, "malformed path %q", s)
		}
	}
	var e ast.Expression = &ast.Parameter{Name: parts[0]}
	for _, member := range parts[1:] {
		e = &ast.MemberAccess{Target: e, Member: member, Kind: ast.PropertyMember}
	}
	return e, nil
}

func (d *decoder) member(n *yaml.Node) (ast.Expression, error) {
	f, err := d.fields(n, "on", "name")
	if err != nil {
		return nil, err
	}
	onNode, err := d.required(n, f, "on")
	if err != nil {
		return nil, err
	}
	nameNode, err := d.required(n, f, "name")
	if err != nil {
		return nil, err
	}
	on, err := d.expr(onNode)
	if err != nil {
		return nil, err
	}
	name, err := d.scalar(nameNode)
	if err != nil {
		return nil, err
	}
	return &ast.MemberAccess{Target: on, Member: name, Kind: ast.PropertyMember}, nil
}

func (d *decoder) call(n *yaml.Node) (ast.Expression, error) {
	f, err := d.fields(n, "on", "method", "args", "variadic")
	if err != nil {
		return nil, err
	}
	methodNode, err := d.required(n, f, "method")
	if err != nil {
		return nil, err
	}
	method, err := d.scalar(methodNode)
	if err != nil {
		return nil, err
	}
	call := &ast.MethodCall{Method: method}
	if onNode, ok := f["on"]; ok {
		if call.Target, err = d.expr(onNode); err != nil {
			return nil, err
		}
	}
	if call.Args, err = d.args(f["args"]); err != nil {
		return nil, err
	}
	if v, ok := f["variadic"]; ok {
		if err := v.Decode(&call.Variadic); err != nil {
			return nil, d.errorf(v, "variadic: %v", err)
		}
	}
	if call.Target == nil && len(call.Args) == 0 {
		return nil, d.errorf(n, "call to %s needs 'on' or at least one argument", method)
	}
	return call, nil
}

func (d *decoder) function(n *yaml.Node) (ast.Expression, error) {
	f, err := d.fields(n, "name", "args")
	if err != nil {
		return nil, err
	}
	nameNode, err := d.required(n, f, "name")
	if err != nil {
		return nil, err
	}
	name, err := d.scalar(nameNode)
	if err != nil {
		return nil, err
	}
	fn, ok := d.reg.Funcs[name]
	if !ok {
		return nil, d.errorf(nameNode, "unknown function %q", name)
	}
	args, err := d.args(f["args"])
	if err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return nil, d.errorf(n, "function %s needs at least one argument", name)
	}
	return &ast.MethodCall{Method: name, Func: fn, Args: args}, nil
}

func (d *decoder) args(n *yaml.Node) ([]ast.Expression, error) {
	if n == nil {
		return nil, nil
	}
	if n.Kind != yaml.SequenceNode {
		return nil, d.errorf(n, "args must be a list")
	}
	args := make([]ast.Expression, 0, len(n.Content))
	for _, item := range n.Content {
		a, err := d.expr(item)
		if err != nil {
			return nil, err
		}
		args = append(args, a)
	}
	return args, nil
}

func (d *decoder) binary(n *yaml.Node) (ast.Expression, error) {
	f, err := d.fields(n, "op", "left", "right")
	if err != nil {
		return nil, err
	}
	opNode, err := d.required(n, f, "op")
	if err != nil {
		return nil, err
	}
	symbol, err := d.scalar(opNode)
	if err != nil {
		return nil, err
	}
	op, ok := ast.ParseBinaryOp(symbol)
	if !ok {
		return nil, d.errorf(opNode, "unknown operator %q", symbol)
	}
	leftNode, err := d.required(n, f, "left")
	if err != nil {
		return nil, err
	}
	rightNode, err := d.required(n, f, "right")
	if err != nil {
		return nil, err
	}
	return d.operands(op, leftNode, rightNode)
}

func (d *decoder) pair(op ast.BinaryOp, n *yaml.Node) (ast.Expression, error) {
	if n.Kind != yaml.SequenceNode || len(n.Content) != 2 {
		return nil, d.errorf(n, "%s takes a list of two operands", op)
	}
	return d.operands(op, n.Content[0], n.Content[1])
}

func (d *decoder) operands(op ast.BinaryOp, l, r *yaml.Node) (ast.Expression, error) {
	left, err := d.expr(l)
	if err != nil {
		return nil, err
	}
	right, err := d.expr(r)
	if err != nil {
		return nil, err
	}
	return &ast.Binary{Op: op, Left: left, Right: right}, nil
}

func (d *decoder) lambda(n *yaml.Node) (ast.Expression, error) {
	f, err := d.fields(n, "params", "body")
	if err != nil {
		return nil, err
	}
	var params []string
	if p, ok := f["params"]; ok {
		if err := p.Decode(&params); err != nil {
			return nil, d.errorf(p, "params: %v", err)
		}
	}
	bodyNode, err := d.required(n, f, "body")
	if err != nil {
		return nil, err
	}
	body, err := d.expr(bodyNode)
	if err != nil {
		return nil, err
	}
	return &ast.Lambda{Params: params, Body: body}, nil
}

// construct decodes new and init. The set mapping keeps its YAML order.
func (d *decoder) construct(n *yaml.Node, withInit bool) (ast.Expression, error) {
	allowed := []string{"type", "func", "args"}
	if withInit {
		allowed = append(allowed, "set")
	}
	f, err := d.fields(n, allowed...)
	if err != nil {
		return nil, err
	}

	c := &ast.Construct{}
	if t, ok := f["type"]; ok {
		name, err := d.scalar(t)
		if err != nil {
			return nil, err
		}
		proto, ok := d.reg.Types[name]
		if !ok {
			return nil, d.errorf(t, "unknown type %q", name)
		}
		c.TypeName = name
		c.Type = reflect.TypeOf(proto)
	}
	if fn, ok := f["func"]; ok {
		name, err := d.scalar(fn)
		if err != nil {
			return nil, err
		}
		if c.New, ok = d.reg.Funcs[name]; !ok {
			return nil, d.errorf(fn, "unknown function %q", name)
		}
		if c.TypeName == "" {
			c.TypeName = name
		}
	}
	if c.Type == nil && c.New == nil {
		return nil, d.errorf(n, "construction needs 'type' or 'func'")
	}
	if c.Args, err = d.args(f["args"]); err != nil {
		return nil, err
	}
	if !withInit {
		return c, nil
	}

	init := &ast.MemberInit{Construct: c}
	set, ok := f["set"]
	if !ok {
		return init, nil
	}
	if set.Kind != yaml.MappingNode {
		return nil, d.errorf(set, "set must be a mapping")
	}
	for i := 0; i+1 < len(set.Content); i += 2 {
		value, err := d.expr(set.Content[i+1])
		if err != nil {
			return nil, err
		}
		init.Bindings = append(init.Bindings, ast.Binding{Member: set.Content[i].Value, Value: value})
	}
	return init, nil
}
