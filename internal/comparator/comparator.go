// Package comparator checks an actual value against an expected one member
// by member and reports the first difference.
package comparator

import (
	"fmt"
	"github.com/funvibe/exprassert/internal/ast"
	"github.com/funvibe/exprassert/internal/evaluator"
	"reflect"
)

// Mismatch describes the first member that differs.
type Mismatch struct {
	Message  string
	Target   string
	Expected any
	Actual   any
}

type Comparator struct {
	ev *evaluator.Evaluator
}

func New(ev *evaluator.Evaluator) *Comparator {
	return &Comparator{ev: ev}
}

// Compare walks the members of expected in declaration order, skipping those
// whose expected value is a default (zero value or empty sequence). Values
// without members, such as ints or time.Time, are compared whole and named
// by their type.
func (c *Comparator) Compare(actual, expected any) (*Mismatch, error) {
	names := Members(expected)
	if len(names) == 0 {
		name := typeName(expected)
		if expected == nil {
			name = typeName(actual)
		}
		return c.assertEquals(name, expected, actual), nil
	}

	for _, name := range names {
		exp, err := c.ev.ReadMember(expected, name)
		if err != nil {
			return nil, err
		}
		if IsDefault(exp) || protoDefault(expected, name) {
			continue
		}
		act, err := c.readActual(actual, name)
		if err != nil {
			return nil, err
		}
		if m := c.mismatch(name, exp, act, false, IsDefault(act) || protoDefault(actual, name)); m != nil {
			return m, nil
		}
	}
	return nil, nil
}

// CompareInit checks only the members bound by init, default values
// included. Nested initializations are compared recursively and named with
// a dotted path.
func (c *Comparator) CompareInit(actual, expected any, init *ast.MemberInit) (*Mismatch, error) {
	return c.compareBindings(actual, expected, init, "")
}

func (c *Comparator) compareBindings(actual, expected any, init *ast.MemberInit, prefix string) (*Mismatch, error) {
	for _, b := range init.Bindings {
		name := prefix + b.Member
		exp, err := c.ev.ReadMember(expected, b.Member)
		if err != nil {
			return nil, err
		}
		act, err := c.readActual(actual, b.Member)
		if err != nil {
			return nil, err
		}

		if nested, ok := b.Value.(*ast.MemberInit); ok && !IsDefault(act) && !IsDefault(exp) {
			m, err := c.compareBindings(act, exp, nested, name+".")
			if err != nil || m != nil {
				return m, err
			}
			continue
		}
		if m := c.assertEquals(name, exp, act); m != nil {
			return m, nil
		}
	}
	return nil, nil
}

// readActual reads a member of the actual value; a nil container reads as nil.
func (c *Comparator) readActual(actual any, name string) (any, error) {
	if isNil(actual) {
		return nil, nil
	}
	return c.ev.ReadMember(actual, name)
}

func (c *Comparator) assertEquals(name string, expected, actual any) *Mismatch {
	return c.mismatch(name, expected, actual, IsDefault(expected), IsDefault(actual))
}

func (c *Comparator) mismatch(name string, expected, actual any, expDefault, actDefault bool) *Mismatch {
	m := &Mismatch{Target: name, Expected: expected, Actual: actual}

	switch {
	case expDefault && actDefault:
		return nil
	case expDefault:
		m.Message = fmt.Sprintf("Expected %s to be %s. Was '%s'.", name, defaultString(expected), formatValue(actual))
	case actDefault:
		m.Message = fmt.Sprintf("Expected %s to be '%s', but it was %s.", name, formatValue(expected), defaultString(actual))
	default:
		if evaluator.ObjectsEqual(c.ev.Marshaller.ToValue(expected), c.ev.Marshaller.ToValue(actual)) {
			return nil
		}
		m.Message = fmt.Sprintf("Expected %s to be '%s', but it was '%s'", name, formatValue(expected), formatValue(actual))
	}
	return m
}

// IsDefault reports whether v is nil, the zero value of its type, or an
// empty slice, array or map.
func IsDefault(v any) bool {
	if isNil(v) {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len() == 0
	}
	return rv.IsZero()
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// defaultString renders a default value the way it reads in Go source.
func defaultString(v any) string {
	if isNil(v) {
		return "nil"
	}
	if s, ok := v.(string); ok {
		return fmt.Sprintf("%q", s)
	}
	return formatValue(v)
}

func formatValue(v any) string {
	if isNil(v) {
		return "nil"
	}
	return fmt.Sprint(v)
}

func typeName(v any) string {
	if v == nil {
		return "nil"
	}
	return ast.TypeName(reflect.TypeOf(v))
}
