package evaluator

import (
	"errors"
	"fmt"
	"github.com/funvibe/exprassert/internal/ast"
	"reflect"
	"sort"
)

// ErrConfiguration is the sentinel every ConfigError unwraps to.
var ErrConfiguration = errors.New("invalid predicate")

// ConfigError reports a predicate that cannot be evaluated as written: an
// unsupported shape, a missing member, a non-bool verification result.
// It is never turned into a verification failure.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string { return "invalid predicate: " + e.Message }

func (e *ConfigError) Unwrap() error { return ErrConfiguration }

func newConfigError(format string, a ...any) *ConfigError {
	return &ConfigError{Message: fmt.Sprintf(format, a...)}
}

// CallError wraps an error returned (or a panic raised) by host code invoked
// during evaluation.
type CallError struct {
	Method string
	Err    error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("call to %s failed: %v", e.Method, e.Err)
}

func (e *CallError) Unwrap() error { return e.Err }

// LinkName names the chain link an expression stands for: the member or
// method name, or the parameter name. Other nodes have no name.
func LinkName(e ast.Expression) string {
	switch n := e.(type) {
	case *ast.MemberAccess:
		return n.Member
	case *ast.MethodCall:
		return n.Method
	case *ast.Parameter:
		return n.Name
	}
	return ""
}

// isNil reports whether v is nil or a nil pointer, map, slice, func,
// channel or interface.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface, reflect.UnsafePointer:
		return rv.IsNil()
	}
	return false
}

// SortedMapKeys returns the keys of a map ordered by their printed form.
func SortedMapKeys(m reflect.Value) []reflect.Value {
	keys := m.MapKeys()
	sort.Slice(keys, func(i, j int) bool {
		return fmt.Sprint(keys[i].Interface()) < fmt.Sprint(keys[j].Interface())
	})
	return keys
}

func typeNameOf(v any) string {
	if v == nil {
		return "nil"
	}
	return ast.TypeName(reflect.TypeOf(v))
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// ConfigErrorf builds a ConfigError for callers outside the evaluator.
func ConfigErrorf(format string, a ...any) *ConfigError {
	return newConfigError(format, a...)
}
