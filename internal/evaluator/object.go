package evaluator

import (
	"fmt"
	"github.com/funvibe/exprassert/internal/ast"
	"reflect"
	"strconv"
)

type ObjectType string

const (
	NULL_OBJ     = "NULL"
	BOOLEAN_OBJ  = "BOOLEAN"
	INTEGER_OBJ  = "INTEGER"
	FLOAT_OBJ    = "FLOAT"
	STRING_OBJ   = "STRING"
	SEQUENCE_OBJ = "SEQUENCE" // slices, arrays and maps
	HOST_OBJ     = "HOST"     // any other Go value
	CALLABLE_OBJ = "CALLABLE" // lambda closure
)

// Object is the tagged value the evaluator works with. Every object keeps the
// Go value it was made from, so diagnostics report the caller's own values.
type Object interface {
	Type() ObjectType
	Inspect() string
	Interface() any
}

type Null struct{}

func (n *Null) Type() ObjectType { return NULL_OBJ }
func (n *Null) Inspect() string  { return "nil" }
func (n *Null) Interface() any   { return nil }

var NULL = &Null{}

type Boolean struct {
	Value bool
	Go    any // original value when it is a named bool type
}

func (b *Boolean) Type() ObjectType { return BOOLEAN_OBJ }
func (b *Boolean) Inspect() string  { return strconv.FormatBool(b.Value) }
func (b *Boolean) Interface() any {
	if b.Go != nil {
		return b.Go
	}
	return b.Value
}

var (
	TRUE  = &Boolean{Value: true}
	FALSE = &Boolean{Value: false}
)

func nativeBoolToBooleanObject(v bool) *Boolean {
	if v {
		return TRUE
	}
	return FALSE
}

// Integer covers every signed and unsigned Go integer kind that fits in int64.
type Integer struct {
	Value int64
	Go    any
}

func (i *Integer) Type() ObjectType { return INTEGER_OBJ }
func (i *Integer) Inspect() string  { return fmt.Sprint(i.Interface()) }
func (i *Integer) Interface() any {
	if i.Go != nil {
		return i.Go
	}
	return i.Value
}

type Float struct {
	Value float64
	Go    any
}

func (f *Float) Type() ObjectType { return FLOAT_OBJ }
func (f *Float) Inspect() string  { return fmt.Sprint(f.Interface()) }
func (f *Float) Interface() any {
	if f.Go != nil {
		return f.Go
	}
	return f.Value
}

type String struct {
	Value string
	Go    any
}

func (s *String) Type() ObjectType { return STRING_OBJ }
func (s *String) Inspect() string  { return s.Value }
func (s *String) Interface() any {
	if s.Go != nil {
		return s.Go
	}
	return s.Value
}

// Sequence wraps a Go slice, array or map.
type Sequence struct {
	Value any
}

func (s *Sequence) Type() ObjectType { return SEQUENCE_OBJ }
func (s *Sequence) Inspect() string  { return fmt.Sprintf("%v", s.Value) }
func (s *Sequence) Interface() any   { return s.Value }

func (s *Sequence) Len() int {
	return reflect.ValueOf(s.Value).Len()
}

// Elements returns the items of a slice or array, or the values of a map
// ordered by key.
func (s *Sequence) Elements() []any {
	v := reflect.ValueOf(s.Value)
	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]any, v.Len())
		for i := range out {
			out[i] = v.Index(i).Interface()
		}
		return out
	case reflect.Map:
		keys := SortedMapKeys(v)
		out := make([]any, len(keys))
		for i, k := range keys {
			out[i] = v.MapIndex(k).Interface()
		}
		return out
	}
	return nil
}

// HostObject wraps any Go value without a more specific tag: structs,
// pointers, proto messages, functions.
type HostObject struct {
	Value any
}

func (h *HostObject) Type() ObjectType { return HOST_OBJ }
func (h *HostObject) Inspect() string  { return fmt.Sprintf("%+v", h.Value) }
func (h *HostObject) Interface() any   { return h.Value }

// Callable is a lambda closed over the environment it was created in.
type Callable struct {
	Params []string
	Body   ast.Expression
	Env    *Environment
	ev     *Evaluator
}

func (c *Callable) Type() ObjectType { return CALLABLE_OBJ }
func (c *Callable) Inspect() string  { return fmt.Sprintf("<lambda/%d>", len(c.Params)) }
func (c *Callable) Interface() any   { return c }

// Call evaluates the lambda body with params bound to args.
func (c *Callable) Call(args ...any) (any, error) {
	if len(args) != len(c.Params) {
		return nil, newConfigError("lambda expects %d arguments, got %d", len(c.Params), len(args))
	}
	env := NewEnclosedEnvironment(c.Env)
	for i, name := range c.Params {
		env.Set(name, c.ev.Marshaller.ToValue(args[i]))
	}
	res, err := c.ev.Eval(c.Body, env)
	if err != nil {
		return nil, err
	}
	return res.Object().Interface(), nil
}
