package evaluator

import (
	"fmt"
	"reflect"
)

// Accessor reads named members of host values. ok is false when the
// accessor does not handle recv or finds no such member, letting the next
// accessor in the chain try.
type Accessor interface {
	Member(recv any, name string) (value any, ok bool, err error)
}

// MethodResolver is implemented by accessors that can also bind methods.
type MethodResolver interface {
	Method(recv any, name string) (reflect.Value, bool)
}

// AccessorFunc adapts a function to the Accessor interface.
type AccessorFunc func(recv any, name string) (any, bool, error)

func (f AccessorFunc) Member(recv any, name string) (any, bool, error) { return f(recv, name) }

// DefaultAccessors returns the built-in chain: dynamic proto messages,
// generated proto messages, maps, then plain reflection.
func DefaultAccessors() []Accessor {
	return []Accessor{
		DynamicMessageAccessor{},
		ProtoAccessor{},
		MapAccessor{},
		ReflectAccessor{},
	}
}

// MapAccessor reads string-keyed maps. A missing key reads as nil, the
// same as indexing the map in Go.
type MapAccessor struct{}

func (MapAccessor) Member(recv any, name string) (any, bool, error) {
	v := reflect.ValueOf(recv)
	if v.Kind() != reflect.Map || v.Type().Key().Kind() != reflect.String {
		return nil, false, nil
	}
	val := v.MapIndex(reflect.ValueOf(name).Convert(v.Type().Key()))
	if !val.IsValid() {
		return nil, true, nil
	}
	return val.Interface(), true, nil
}

// ReflectAccessor reads exported struct fields (including promoted ones)
// and falls back to niladic getter methods such as GetName or Len.
type ReflectAccessor struct{}

func (ReflectAccessor) Member(recv any, name string) (any, bool, error) {
	val := reflect.ValueOf(recv)
	if !val.IsValid() {
		return nil, false, nil
	}

	// Dereference interface/pointer if needed to get to struct/value
	indirect := val
	for indirect.Kind() == reflect.Ptr || indirect.Kind() == reflect.Interface {
		if indirect.IsNil() {
			return nil, true, nil
		}
		indirect = indirect.Elem()
	}

	if indirect.Kind() == reflect.Struct {
		if sf, ok := indirect.Type().FieldByName(name); ok && sf.IsExported() {
			field, err := indirect.FieldByIndexErr(sf.Index)
			if err != nil {
				// Promoted through a nil embedded pointer
				return nil, true, nil
			}
			return field.Interface(), true, nil
		}
	}

	if method, ok := (ReflectAccessor{}).Method(recv, name); ok {
		mt := method.Type()
		if mt.NumIn() == 0 && (mt.NumOut() == 1 || (mt.NumOut() == 2 && mt.Out(1) == errorType)) {
			out := method.Call(nil)
			if len(out) == 2 && !out[1].IsNil() {
				return nil, false, &CallError{Method: name, Err: out[1].Interface().(error)}
			}
			return out[0].Interface(), true, nil
		}
	}
	return nil, false, nil
}

// Method binds name on recv. Methods with pointer receivers are found on
// values too, through an addressable copy.
func (ReflectAccessor) Method(recv any, name string) (reflect.Value, bool) {
	val := reflect.ValueOf(recv)
	if !val.IsValid() {
		return reflect.Value{}, false
	}
	if m := val.MethodByName(name); m.IsValid() {
		return m, true
	}
	if val.Kind() != reflect.Ptr {
		ptr := reflect.New(val.Type())
		ptr.Elem().Set(val)
		if m := ptr.MethodByName(name); m.IsValid() {
			return m, true
		}
	}
	return reflect.Value{}, false
}

// ReadMember reads name from recv through the accessor chain.
func (e *Evaluator) ReadMember(recv any, name string) (val any, err error) {
	defer func() {
		if r := recover(); r != nil {
			val, err = nil, &CallError{Method: name, Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	for _, a := range e.Accessors {
		v, ok, aerr := a.Member(recv, name)
		if aerr != nil {
			return nil, aerr
		}
		if ok {
			return v, nil
		}
	}
	return nil, newConfigError("%s has no member %s", typeNameOf(recv), name)
}

// lookupMethod binds a method by name through the first accessor that can.
func (e *Evaluator) lookupMethod(recv any, name string) (reflect.Value, bool) {
	for _, a := range e.Accessors {
		if r, ok := a.(MethodResolver); ok {
			if m, found := r.Method(recv, name); found {
				return m, true
			}
		}
	}
	return reflect.Value{}, false
}
