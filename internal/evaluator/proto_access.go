package evaluator

import (
	"fmt"
	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/dynamic"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"strings"
)

// ProtoAccessor reads fields of protobuf messages through protoreflect, so
// generated and dynamicpb messages are addressed by proto, JSON or Go name.
// Unset message fields read as nil.
type ProtoAccessor struct{}

func (ProtoAccessor) Member(recv any, name string) (any, bool, error) {
	msg, ok := recv.(proto.Message)
	if !ok {
		return nil, false, nil
	}
	m := msg.ProtoReflect()
	fd := FindProtoField(m.Descriptor(), name)
	if fd == nil {
		return nil, false, nil
	}
	return ProtoFieldValue(m, fd), true, nil
}

// FindProtoField resolves name against a message's fields, accepting
// "display_name", "displayName" and "DisplayName" alike.
func FindProtoField(md protoreflect.MessageDescriptor, name string) protoreflect.FieldDescriptor {
	fields := md.Fields()
	if fd := fields.ByName(protoreflect.Name(name)); fd != nil {
		return fd
	}
	if fd := fields.ByJSONName(name); fd != nil {
		return fd
	}
	want := normalizeFieldName(name)
	for i := 0; i < fields.Len(); i++ {
		if normalizeFieldName(string(fields.Get(i).Name())) == want {
			return fields.Get(i)
		}
	}
	return nil
}

// ProtoFieldValue converts a field to plain Go values: lists to []any,
// maps to map[string]any, messages to proto.Message (nil when unset).
func ProtoFieldValue(m protoreflect.Message, fd protoreflect.FieldDescriptor) any {
	switch {
	case fd.IsList():
		list := m.Get(fd).List()
		out := make([]any, list.Len())
		for i := range out {
			out[i] = protoScalar(fd, list.Get(i))
		}
		return out
	case fd.IsMap():
		out := make(map[string]any)
		m.Get(fd).Map().Range(func(k protoreflect.MapKey, v protoreflect.Value) bool {
			out[fmt.Sprint(k.Interface())] = protoScalar(fd.MapValue(), v)
			return true
		})
		return out
	case fd.Message() != nil:
		if !m.Has(fd) {
			return nil
		}
		return m.Get(fd).Message().Interface()
	}
	return protoScalar(fd, m.Get(fd))
}

func protoScalar(fd protoreflect.FieldDescriptor, v protoreflect.Value) any {
	switch fd.Kind() {
	case protoreflect.MessageKind, protoreflect.GroupKind:
		return v.Message().Interface()
	case protoreflect.EnumKind:
		if ev := fd.Enum().Values().ByNumber(v.Enum()); ev != nil {
			return string(ev.Name())
		}
		return int32(v.Enum())
	}
	return v.Interface()
}

// DynamicMessageAccessor reads fields of jhump dynamic messages.
type DynamicMessageAccessor struct{}

func (DynamicMessageAccessor) Member(recv any, name string) (any, bool, error) {
	dm, ok := recv.(*dynamic.Message)
	if !ok || dm == nil {
		return nil, false, nil
	}
	fd := findDynamicField(dm.GetMessageDescriptor(), name)
	if fd == nil {
		return nil, false, nil
	}
	v, err := dm.TryGetField(fd)
	if err != nil {
		return nil, false, err
	}
	if fd.GetMessageType() != nil && !fd.IsRepeated() && !dm.HasField(fd) {
		return nil, true, nil
	}
	return v, true, nil
}

func findDynamicField(md *desc.MessageDescriptor, name string) *desc.FieldDescriptor {
	if fd := md.FindFieldByName(name); fd != nil {
		return fd
	}
	if fd := md.FindFieldByJSONName(name); fd != nil {
		return fd
	}
	want := normalizeFieldName(name)
	for _, fd := range md.GetFields() {
		if normalizeFieldName(fd.GetName()) == want {
			return fd
		}
	}
	return nil
}

// DynamicFieldNames lists a dynamic message's fields in declaration order.
func DynamicFieldNames(dm *dynamic.Message) []string {
	fields := dm.GetMessageDescriptor().GetFields()
	names := make([]string, len(fields))
	for i, fd := range fields {
		names[i] = fd.GetName()
	}
	return names
}

func normalizeFieldName(s string) string {
	return strings.ToLower(strings.ReplaceAll(s, "_", ""))
}
