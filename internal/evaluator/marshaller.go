package evaluator

import (
	"fmt"
	"math"
	"reflect"
)

// Marshaller handles conversion between Go values and evaluator Objects.
type Marshaller struct{}

func NewMarshaller() *Marshaller {
	return &Marshaller{}
}

var objectType = reflect.TypeOf((*Object)(nil)).Elem()

// ToValue converts a Go value to an Object. Nil pointers, maps, slices and
// interfaces all become NULL so member chains can detect them.
func (m *Marshaller) ToValue(val any) Object {
	if obj, ok := val.(Object); ok {
		return obj
	}
	if isNil(val) {
		return NULL
	}

	v := reflect.ValueOf(val)
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return &Integer{Value: v.Int(), Go: val}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := v.Uint()
		if u > math.MaxInt64 {
			// Go keeps the exact value; see unsignedPair
			return &Float{Value: float64(u), Go: val}
		}
		return &Integer{Value: int64(u), Go: val}
	case reflect.Float32, reflect.Float64:
		return &Float{Value: v.Float(), Go: val}
	case reflect.Bool:
		return &Boolean{Value: v.Bool(), Go: val}
	case reflect.String:
		return &String{Value: v.String(), Go: val}
	case reflect.Slice, reflect.Array, reflect.Map:
		return &Sequence{Value: val}
	default:
		// Structs, pointers, funcs, channels: opaque host values
		return &HostObject{Value: val}
	}
}

// FromValue converts obj to a Go value assignable to targetType.
// A nil targetType returns the object's own Go value.
func (m *Marshaller) FromValue(obj Object, targetType reflect.Type) (reflect.Value, error) {
	if obj == nil {
		obj = NULL
	}
	if targetType == nil {
		if _, ok := obj.(*Null); ok {
			return reflect.Value{}, nil
		}
		return reflect.ValueOf(obj.Interface()), nil
	}
	if targetType == objectType {
		return reflect.ValueOf(&obj).Elem(), nil
	}

	if c, ok := obj.(*Callable); ok {
		if targetType.Kind() == reflect.Func {
			return m.makeFunc(c, targetType), nil
		}
		if reflect.TypeOf(c).AssignableTo(targetType) {
			return reflect.ValueOf(c), nil
		}
		return reflect.Value{}, fmt.Errorf("cannot use lambda as %s", targetType)
	}

	if _, ok := obj.(*Null); ok {
		return reflect.Zero(targetType), nil
	}

	raw := reflect.ValueOf(obj.Interface())
	if raw.Type().AssignableTo(targetType) {
		return raw, nil
	}
	if convertible(raw.Type(), targetType) {
		return raw.Convert(targetType), nil
	}
	if targetType.Kind() == reflect.Slice && (raw.Kind() == reflect.Slice || raw.Kind() == reflect.Array) {
		out := reflect.MakeSlice(targetType, raw.Len(), raw.Len())
		for i := 0; i < raw.Len(); i++ {
			el, err := m.FromValue(m.ToValue(raw.Index(i).Interface()), targetType.Elem())
			if err != nil {
				return reflect.Value{}, fmt.Errorf("element %d: %w", i, err)
			}
			out.Index(i).Set(el)
		}
		return out, nil
	}
	return reflect.Value{}, fmt.Errorf("cannot use %s as %s", raw.Type(), targetType)
}

// convertible allows conversions inside one kind family only, so an int is
// never silently turned into a one-rune string.
func convertible(from, to reflect.Type) bool {
	if !from.ConvertibleTo(to) {
		return false
	}
	return kindFamily(from.Kind()) != "" && kindFamily(from.Kind()) == kindFamily(to.Kind())
}

func kindFamily(k reflect.Kind) string {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return "number"
	case reflect.String:
		return "string"
	case reflect.Bool:
		return "bool"
	case reflect.Slice:
		return "slice"
	case reflect.Map:
		return "map"
	case reflect.Ptr:
		return "pointer"
	}
	return ""
}

// makeFunc adapts a lambda to a Go function type so host methods can take it.
func (m *Marshaller) makeFunc(c *Callable, t reflect.Type) reflect.Value {
	return reflect.MakeFunc(t, func(in []reflect.Value) []reflect.Value {
		args := make([]any, len(in))
		for i, a := range in {
			args[i] = a.Interface()
		}

		out := make([]reflect.Value, t.NumOut())
		for i := range out {
			out[i] = reflect.Zero(t.Out(i))
		}

		res, err := c.Call(args...)
		if err != nil {
			if n := t.NumOut(); n > 0 && t.Out(n-1) == errorType {
				out[n-1] = reflect.ValueOf(&err).Elem()
				return out
			}
			panic(err)
		}
		if t.NumOut() > 0 && t.Out(0) != errorType {
			v, cerr := m.FromValue(m.ToValue(res), t.Out(0))
			if cerr != nil {
				panic(newConfigError("lambda result: %v", cerr))
			}
			out[0] = v
		}
		return out
	})
}
