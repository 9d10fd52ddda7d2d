package evaluator

import (
	"fmt"
	"github.com/funvibe/exprassert/internal/ast"
	"reflect"
)

func (e *Evaluator) evalMethodCall(n *ast.MethodCall, env *Environment) (Result, error) {
	var recv Object
	if n.Target != nil {
		target, err := e.Eval(n.Target, env)
		if err != nil {
			return Result{}, err
		}
		if target.IsNullChain() {
			return target, nil
		}
		recv = target.Object()
		if _, ok := recv.(*Null); ok {
			return NullChain(LinkName(n.Target)), nil
		}
	}

	args, cut, err := e.evalArgs(n.Args, env)
	if err != nil || cut != nil {
		return derefResult(cut), err
	}

	// Extension calls still run on a nil receiver: the function sees its zero value
	if n.Target == nil {
		if len(args) == 0 {
			return Result{}, newConfigError("call to %s has no receiver", n.Method)
		}
		recv = args[0]
	}

	fn, callArgs, err := e.resolveMethod(n, recv, args)
	if err != nil {
		return Result{}, err
	}
	out, err := e.callFunc(n.Method, fn, callArgs, n.Variadic)
	if err != nil {
		return Result{}, err
	}

	result := e.Marshaller.ToValue(out)
	switch recv.(type) {
	case *String, *Sequence:
		return Enumerable(recv, result), nil
	}
	return Ok(result), nil
}

// evalArgs evaluates arguments left to right. Lambdas become closures
// without evaluating their body. A null chain in any argument cuts the
// evaluation short and is returned as cut.
func (e *Evaluator) evalArgs(nodes []ast.Expression, env *Environment) ([]Object, *Result, error) {
	args := make([]Object, 0, len(nodes))
	for _, node := range nodes {
		if l, ok := node.(*ast.Lambda); ok {
			args = append(args, e.closure(l, env))
			continue
		}
		r, err := e.Eval(node, env)
		if err != nil {
			return nil, nil, err
		}
		if r.IsNullChain() {
			return nil, &r, nil
		}
		args = append(args, r.Object())
	}
	return args, nil, nil
}

func derefResult(r *Result) Result {
	if r == nil {
		return Result{}
	}
	return *r
}

// resolveMethod picks the Go function to call and the arguments to call it
// with: an explicit Func, a method bound on the receiver, or a registered
// extension taking the receiver first.
func (e *Evaluator) resolveMethod(n *ast.MethodCall, recv Object, args []Object) (reflect.Value, []Object, error) {
	if n.Func != nil {
		fn := reflect.ValueOf(n.Func)
		if fn.Kind() != reflect.Func {
			return reflect.Value{}, nil, newConfigError("%s is bound to %T, not a function", n.Method, n.Func)
		}
		if n.Target != nil {
			return fn, append([]Object{recv}, args...), nil
		}
		return fn, args, nil
	}

	host := recv.Interface()
	if n.Target != nil {
		if m, ok := e.lookupMethod(host, n.Method); ok {
			return m, args, nil
		}
		if ext, ok := e.lookupExtension(host, n.Method); ok {
			return reflect.ValueOf(ext), append([]Object{recv}, args...), nil
		}
	} else if ext, ok := e.lookupExtension(host, n.Method); ok {
		return reflect.ValueOf(ext), args, nil
	}
	return reflect.Value{}, nil, newConfigError("%s has no method %s", typeNameOf(host), n.Method)
}

// callFunc invokes fn with converted arguments. Panics in host code become
// CallErrors; configuration errors raised inside lambdas pass through.
func (e *Evaluator) callFunc(name string, fn reflect.Value, args []Object, packed bool) (out any, err error) {
	defer func() {
		if r := recover(); r != nil {
			switch rec := r.(type) {
			case *ConfigError:
				err = rec
			case *CallError:
				err = rec
			case error:
				err = &CallError{Method: name, Err: rec}
			default:
				err = &CallError{Method: name, Err: fmt.Errorf("panic: %v", rec)}
			}
		}
	}()

	t := fn.Type()
	in, spread, err := e.convertArgs(name, t, args, packed)
	if err != nil {
		return nil, err
	}
	var results []reflect.Value
	if spread {
		results = fn.CallSlice(in)
	} else {
		results = fn.Call(in)
	}
	return unpackResults(name, t, results)
}

func (e *Evaluator) convertArgs(name string, t reflect.Type, args []Object, packed bool) ([]reflect.Value, bool, error) {
	numIn := t.NumIn()
	if !t.IsVariadic() {
		if len(args) != numIn {
			return nil, false, newConfigError("%s expects %d arguments, got %d", name, numIn, len(args))
		}
		in := make([]reflect.Value, numIn)
		for i, a := range args {
			v, err := e.Marshaller.FromValue(a, t.In(i))
			if err != nil {
				return nil, false, newConfigError("argument %d of %s: %v", i+1, name, err)
			}
			in[i] = v
		}
		return in, false, nil
	}

	fixed := numIn - 1
	if len(args) < fixed {
		return nil, false, newConfigError("%s expects at least %d arguments, got %d", name, fixed, len(args))
	}
	in := make([]reflect.Value, len(args))
	for i := 0; i < fixed; i++ {
		v, err := e.Marshaller.FromValue(args[i], t.In(i))
		if err != nil {
			return nil, false, newConfigError("argument %d of %s: %v", i+1, name, err)
		}
		in[i] = v
	}

	if packed && len(args) == numIn {
		if v, err := e.Marshaller.FromValue(args[fixed], t.In(fixed)); err == nil {
			in[fixed] = v
			return in, true, nil
		}
	}

	elem := t.In(fixed).Elem()
	for i := fixed; i < len(args); i++ {
		v, err := e.Marshaller.FromValue(args[i], elem)
		if err != nil {
			return nil, false, newConfigError("argument %d of %s: %v", i+1, name, err)
		}
		in[i] = v
	}
	return in, false, nil
}

func unpackResults(name string, t reflect.Type, results []reflect.Value) (any, error) {
	switch t.NumOut() {
	case 0:
		return nil, nil
	case 1:
		if t.Out(0) == errorType {
			if !results[0].IsNil() {
				return nil, &CallError{Method: name, Err: results[0].Interface().(error)}
			}
			return nil, nil
		}
		return results[0].Interface(), nil
	case 2:
		if t.Out(1) == errorType {
			if !results[1].IsNil() {
				return nil, &CallError{Method: name, Err: results[1].Interface().(error)}
			}
			return results[0].Interface(), nil
		}
	}
	return nil, newConfigError("%s returns %d values", name, t.NumOut())
}
