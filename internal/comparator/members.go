package comparator

import (
	"fmt"
	"github.com/funvibe/exprassert/internal/evaluator"
	"github.com/jhump/protoreflect/dynamic"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"reflect"
)

// Members lists the comparable members of v in declaration order: proto
// fields in descriptor order, exported struct fields with embedded structs
// flattened, or the keys of a string-keyed map sorted. A nil result means v
// is compared as a whole value.
func Members(v any) []string {
	if isNil(v) {
		return nil
	}

	switch m := v.(type) {
	case *dynamic.Message:
		return evaluator.DynamicFieldNames(m)
	case proto.Message:
		fields := m.ProtoReflect().Descriptor().Fields()
		names := make([]string, fields.Len())
		for i := range names {
			names[i] = string(fields.Get(i).Name())
		}
		return names
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Struct:
		var names []string
		for _, f := range reflect.VisibleFields(rv.Type()) {
			if f.Anonymous || !f.IsExported() {
				continue
			}
			names = append(names, f.Name)
		}
		return names
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil
		}
		keys := evaluator.SortedMapKeys(rv)
		names := make([]string, len(keys))
		for i, k := range keys {
			names[i] = fmt.Sprint(k.Interface())
		}
		return names
	}
	return nil
}

// protoDefault reports whether the named enum field of a proto message holds
// its default number. Enums read as value names, so the descriptor is the
// only place their default shows.
func protoDefault(v any, name string) bool {
	if isNil(v) {
		return false
	}
	if _, ok := v.(*dynamic.Message); ok {
		return false
	}
	msg, ok := v.(proto.Message)
	if !ok {
		return false
	}
	m := msg.ProtoReflect()
	fd := evaluator.FindProtoField(m.Descriptor(), name)
	if fd == nil || fd.Kind() != protoreflect.EnumKind || fd.IsList() || fd.IsMap() {
		return false
	}
	return m.Get(fd).Enum() == fd.Default().Enum()
}
