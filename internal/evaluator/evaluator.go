package evaluator

import (
	"github.com/funvibe/exprassert/internal/ast"
	"reflect"
)

type Evaluator struct {
	// Accessors are tried in order for member reads and method lookups.
	Accessors []Accessor
	// Registry for extension methods.
	// Map: TypeName or kind name -> MethodName -> Go function taking the receiver first
	ExtensionMethods map[string]map[string]any
	// Marshaller converts between Go values and Objects
	Marshaller *Marshaller
}

func New() *Evaluator {
	e := &Evaluator{
		Accessors:        DefaultAccessors(),
		ExtensionMethods: make(map[string]map[string]any),
		Marshaller:       NewMarshaller(),
	}
	registerBuiltinExtensions(e)
	return e
}

// AddAccessor puts a ahead of the built-in accessors.
func (e *Evaluator) AddAccessor(a Accessor) {
	e.Accessors = append([]Accessor{a}, e.Accessors...)
}

// Eval evaluates node in env. Errors are configuration errors (*ConfigError)
// or failures of host code (*CallError); a nil member chain is a result,
// not an error.
func (e *Evaluator) Eval(node ast.Expression, env *Environment) (Result, error) {
	if isNilNode(node) {
		return Result{}, newConfigError("missing expression")
	}

	switch n := node.(type) {
	case *ast.Literal:
		return e.evalLiteral(n)
	case *ast.Parameter:
		obj, ok := env.Get(n.Name)
		if !ok {
			return Result{}, newConfigError("unbound parameter %s", n.Name)
		}
		return Ok(obj), nil
	case *ast.MemberAccess:
		return e.evalMemberAccess(n, env)
	case *ast.MethodCall:
		return e.evalMethodCall(n, env)
	case *ast.Unary:
		return e.evalUnary(n, env)
	case *ast.Binary:
		return e.evalBinary(n, env)
	case *ast.Lambda:
		return Ok(e.closure(n, env)), nil
	case *ast.Construct:
		return e.evalConstruct(n, env)
	case *ast.MemberInit:
		return e.evalMemberInit(n, env)
	default:
		return Result{}, newConfigError("unsupported expression %T", node)
	}
}

// EvalSubject evaluates node with subject bound as the predicate parameter.
func (e *Evaluator) EvalSubject(node ast.Expression, subject any) (Result, error) {
	return e.Eval(node, NewSubjectEnvironment(e.Marshaller.ToValue(subject)))
}

func (e *Evaluator) evalLiteral(n *ast.Literal) (Result, error) {
	if n.IsContainer() {
		return Ok(&HostObject{Value: n.Value}), nil
	}
	v := n.Value
	if n.Type != nil && v != nil {
		rv := reflect.ValueOf(v)
		if rv.Type() != n.Type {
			if !rv.CanConvert(n.Type) {
				return Result{}, newConfigError("literal %v is not convertible to %s", v, n.Type)
			}
			v = rv.Convert(n.Type).Interface()
		}
	}
	return Ok(e.Marshaller.ToValue(v)), nil
}

func (e *Evaluator) closure(n *ast.Lambda, env *Environment) *Callable {
	return &Callable{Params: n.Params, Body: n.Body, Env: env, ev: e}
}

func isNilNode(node ast.Expression) bool {
	if node == nil {
		return true
	}
	v := reflect.ValueOf(node)
	return v.Kind() == reflect.Ptr && v.IsNil()
}
