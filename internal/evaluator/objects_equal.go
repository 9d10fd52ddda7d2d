package evaluator

import (
	"github.com/google/go-cmp/cmp"
	"google.golang.org/protobuf/testing/protocmp"
	"reflect"
)

var equalOptions = []cmp.Option{
	protocmp.Transform(),
	cmp.Exporter(func(reflect.Type) bool { return true }),
}

// ObjectsEqual performs a deep equality check between two objects.
// Numbers compare by value across Go kinds; everything else goes through
// ValuesEqual.
func ObjectsEqual(a, b Object) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}

	_, aNull := a.(*Null)
	_, bNull := b.(*Null)
	if aNull || bNull {
		return aNull && bNull
	}

	if au, bu, ok := unsignedPair(a, b); ok {
		return au == bu
	}

	switch aVal := a.(type) {
	case *Integer:
		switch bVal := b.(type) {
		case *Integer:
			return aVal.Value == bVal.Value
		case *Float:
			return float64(aVal.Value) == bVal.Value
		}
		return false
	case *Float:
		switch bVal := b.(type) {
		case *Integer:
			return aVal.Value == float64(bVal.Value)
		case *Float:
			return aVal.Value == bVal.Value
		}
		return false
	case *Boolean:
		bVal, ok := b.(*Boolean)
		return ok && aVal.Value == bVal.Value
	case *String:
		bVal, ok := b.(*String)
		return ok && aVal.Value == bVal.Value
	case *Callable:
		return false
	}

	return ValuesEqual(a.Interface(), b.Interface())
}

// unsignedPair reads a and b as exact uint64 values when both are
// non-negative integers. Unsigned values above MaxInt64 live in a Float
// whose Go value is still the original integer.
func unsignedPair(a, b Object) (uint64, uint64, bool) {
	au, ok := unsignedValue(a)
	if !ok {
		return 0, 0, false
	}
	bu, ok := unsignedValue(b)
	if !ok {
		return 0, 0, false
	}
	return au, bu, true
}

func unsignedValue(o Object) (uint64, bool) {
	switch v := o.(type) {
	case *Integer:
		if v.Value >= 0 {
			return uint64(v.Value), true
		}
	case *Float:
		if v.Go == nil {
			return 0, false
		}
		rv := reflect.ValueOf(v.Go)
		switch rv.Kind() {
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
			return rv.Uint(), true
		}
	}
	return 0, false
}

// ValuesEqual compares Go values deeply: proto messages by content, types
// with an Equal method through it, unexported state included.
func ValuesEqual(x, y any) (eq bool) {
	defer func() {
		if recover() != nil {
			eq = reflect.DeepEqual(x, y)
		}
	}()
	return cmp.Equal(x, y, equalOptions...)
}

// Diff reports the differences between two values, empty when equal.
func Diff(x, y any) (diff string) {
	defer func() {
		if recover() != nil {
			diff = ""
		}
	}()
	return cmp.Diff(x, y, equalOptions...)
}
