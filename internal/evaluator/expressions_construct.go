package evaluator

import (
	"github.com/funvibe/exprassert/internal/ast"
	"reflect"
)

type fieldSetter interface {
	TrySetFieldByName(name string, val any) error
}

func (e *Evaluator) evalConstruct(n *ast.Construct, env *Environment) (Result, error) {
	v, cut, err := e.construct(n, env)
	if err != nil || cut != nil {
		return derefResult(cut), err
	}
	return Ok(e.Marshaller.ToValue(v.Interface())), nil
}

// construct builds the value for n. Values made through reflect.New are
// addressable so member initialization can assign their fields.
func (e *Evaluator) construct(n *ast.Construct, env *Environment) (reflect.Value, *Result, error) {
	args, cut, err := e.evalArgs(n.Args, env)
	if err != nil || cut != nil {
		return reflect.Value{}, cut, err
	}

	if n.New != nil {
		fn := reflect.ValueOf(n.New)
		if fn.Kind() != reflect.Func {
			return reflect.Value{}, nil, newConfigError("constructor for %s is %T, not a function", n.Name(), n.New)
		}
		out, err := e.callFunc("new "+n.Name(), fn, args, false)
		if err != nil {
			return reflect.Value{}, nil, err
		}
		if out == nil {
			return reflect.Value{}, nil, newConfigError("constructor for %s returned nil", n.Name())
		}
		return reflect.ValueOf(out), nil, nil
	}

	if n.Type == nil {
		return reflect.Value{}, nil, newConfigError("cannot construct %s without a type or constructor", n.Name())
	}
	if len(args) > 0 {
		return reflect.Value{}, nil, newConfigError("constructing %s with arguments needs a constructor function", n.Name())
	}
	switch n.Type.Kind() {
	case reflect.Ptr:
		return reflect.New(n.Type.Elem()), nil, nil
	case reflect.Map:
		return reflect.MakeMap(n.Type), nil, nil
	}
	return reflect.New(n.Type).Elem(), nil, nil
}

func (e *Evaluator) evalMemberInit(n *ast.MemberInit, env *Environment) (Result, error) {
	if n.Construct == nil {
		return Result{}, newConfigError("member initialization without constructor")
	}
	v, cut, err := e.construct(n.Construct, env)
	if err != nil || cut != nil {
		return derefResult(cut), err
	}

	// Constructor functions may return struct values; copy into an addressable one
	if v.Kind() == reflect.Struct && !v.CanSet() {
		addressable := reflect.New(v.Type()).Elem()
		addressable.Set(v)
		v = addressable
	}

	for _, b := range n.Bindings {
		r, err := e.Eval(b.Value, env)
		if err != nil {
			return Result{}, err
		}
		if r.IsNullChain() {
			return r, nil
		}
		if err := e.assignMember(v, b.Member, r.Object()); err != nil {
			return Result{}, err
		}
	}
	return Ok(e.Marshaller.ToValue(v.Interface())), nil
}

func (e *Evaluator) assignMember(target reflect.Value, name string, obj Object) error {
	if target.CanInterface() {
		if s, ok := target.Interface().(fieldSetter); ok {
			if err := s.TrySetFieldByName(name, obj.Interface()); err != nil {
				return newConfigError("cannot set %s: %v", name, err)
			}
			return nil
		}
	}

	if target.Kind() == reflect.Ptr {
		if target.IsNil() {
			return newConfigError("cannot set %s on nil", name)
		}
		target = target.Elem()
	}

	switch target.Kind() {
	case reflect.Struct:
		sf, ok := target.Type().FieldByName(name)
		if !ok || !sf.IsExported() {
			return newConfigError("%s has no member %s", ast.TypeName(target.Type()), name)
		}
		field, err := target.FieldByIndexErr(sf.Index)
		if err != nil {
			return newConfigError("cannot set %s: %v", name, err)
		}
		val, err := e.Marshaller.FromValue(obj, field.Type())
		if err != nil {
			return newConfigError("cannot set %s: %v", name, err)
		}
		field.Set(val)
		return nil
	case reflect.Map:
		if target.Type().Key().Kind() != reflect.String {
			break
		}
		val, err := e.Marshaller.FromValue(obj, target.Type().Elem())
		if err != nil {
			return newConfigError("cannot set %s: %v", name, err)
		}
		target.SetMapIndex(reflect.ValueOf(name).Convert(target.Type().Key()), val)
		return nil
	}
	return newConfigError("cannot set %s on %s", name, ast.TypeName(target.Type()))
}
