package evaluator

import (
	"github.com/funvibe/exprassert/internal/ast"
	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/desc/protoparse"
	"github.com/jhump/protoreflect/dynamic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"
	"google.golang.org/protobuf/types/known/timestamppb"
	"testing"
)

const personProto = `
syntax = "proto3";
package demo;

message Address {
  string city = 1;
}

message Person {
  string display_name = 1;
  int32 age = 2;
  repeated string tags = 3;
  Address address = 4;
  Status status = 5;
}

enum Status {
  UNKNOWN = 0;
  ACTIVE = 1;
}
`

func loadPerson(t *testing.T) *desc.MessageDescriptor {
	t.Helper()
	parser := protoparse.Parser{
		Accessor: protoparse.FileContentsFromMap(map[string]string{"person.proto": personProto}),
	}
	fds, err := parser.ParseFiles("person.proto")
	require.NoError(t, err)
	md := fds[0].FindMessage("demo.Person")
	require.NotNil(t, md)
	return md
}

func TestProtoAccessorDynamicpb(t *testing.T) {
	md := loadPerson(t).UnwrapMessage()
	msg := dynamicpb.NewMessage(md)
	msg.Set(md.Fields().ByName("display_name"), protoreflect.ValueOfString("Ada"))
	msg.Set(md.Fields().ByName("age"), protoreflect.ValueOfInt32(36))
	msg.Set(md.Fields().ByName("status"), protoreflect.ValueOfEnum(1))
	tags := msg.Mutable(md.Fields().ByName("tags")).List()
	tags.Append(protoreflect.ValueOfString("math"))

	acc := ProtoAccessor{}
	for _, name := range []string{"display_name", "displayName", "DisplayName"} {
		v, ok, err := acc.Member(msg, name)
		require.NoError(t, err)
		require.True(t, ok, name)
		assert.Equal(t, "Ada", v)
	}

	v, ok, err := acc.Member(msg, "tags")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []any{"math"}, v)

	v, _, _ = acc.Member(msg, "Status")
	assert.Equal(t, "ACTIVE", v)

	// unset message fields read as nil
	v, ok, err = acc.Member(msg, "address")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Nil(t, v)

	_, ok, _ = acc.Member(msg, "missing")
	assert.False(t, ok)
}

func TestEvalProtoNullChain(t *testing.T) {
	md := loadPerson(t).UnwrapMessage()
	msg := dynamicpb.NewMessage(md)

	r, err := New().EvalSubject(member(param(), "Address", "City"), msg)
	require.NoError(t, err)
	assert.Equal(t, ResultNullChain, r.Kind)
	assert.Equal(t, "Address", r.NullMember)
}

func TestEvalGeneratedMessage(t *testing.T) {
	ts := &timestamppb.Timestamp{Seconds: 60, Nanos: 5}

	r, err := New().EvalSubject(&ast.Binary{Op: ast.OpEq, Left: member(param(), "Seconds"), Right: lit(60)}, ts)
	require.NoError(t, err)
	assert.Equal(t, true, r.Object().Interface())

	// proto messages compare by content
	assert.True(t, ObjectsEqual(&HostObject{Value: ts}, &HostObject{Value: &timestamppb.Timestamp{Seconds: 60, Nanos: 5}}))
	assert.False(t, ObjectsEqual(&HostObject{Value: ts}, &HostObject{Value: &timestamppb.Timestamp{Seconds: 61}}))
}

func TestDynamicMessageAccessor(t *testing.T) {
	md := loadPerson(t)
	dm := dynamic.NewMessage(md)
	dm.SetFieldByName("display_name", "Grace")
	dm.SetFieldByName("age", int32(85))

	acc := DynamicMessageAccessor{}
	v, ok, err := acc.Member(dm, "DisplayName")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Grace", v)

	v, ok, err = acc.Member(dm, "address")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Nil(t, v)

	assert.Equal(t, []string{"display_name", "age", "tags", "address", "status"}, DynamicFieldNames(dm))

	r, err := New().EvalSubject(&ast.Binary{Op: ast.OpGt, Left: member(param(), "age"), Right: lit(80)}, dm)
	require.NoError(t, err)
	assert.Equal(t, true, r.Object().Interface())
}
