package comparator

import (
	"github.com/funvibe/exprassert/internal/ast"
	"github.com/funvibe/exprassert/internal/evaluator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/typepb"
	"google.golang.org/protobuf/types/known/wrapperspb"
	"testing"
	"time"
)

type Audit struct {
	CreatedBy string
}

type Address struct {
	City string
	Zip  string
}

type Person struct {
	Audit
	Id        int
	Name      string
	Age       int64
	Locations []string
	Address   *Address
	Joined    time.Time
	secret    string
}

func fooBar() *Person {
	return &Person{
		Audit:     Audit{CreatedBy: "admin"},
		Id:        7,
		Name:      "Foobar",
		Age:       42,
		Locations: []string{"Oslo"},
		Address:   &Address{City: "Oslo", Zip: "0150"},
		secret:    "x",
	}
}

func TestMembers(t *testing.T) {
	assert.Equal(t, []string{"CreatedBy", "Id", "Name", "Age", "Locations", "Address", "Joined"}, Members(Person{}))
	assert.Equal(t, []string{"a", "b"}, Members(map[string]int{"b": 2, "a": 1}))
	assert.Equal(t, []string{"value"}, Members(wrapperspb.String("x")))
	assert.Nil(t, Members(42))
	assert.Nil(t, Members(time.Time{}))
	assert.Nil(t, Members((*Person)(nil)))
}

func TestCompareSkipsDefaults(t *testing.T) {
	c := New(evaluator.New())

	m, err := c.Compare(fooBar(), &Person{Name: "Fooba"})
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "Name", m.Target)
	assert.Equal(t, "Fooba", m.Expected)
	assert.Equal(t, "Foobar", m.Actual)
	assert.Equal(t, "Expected Name to be 'Fooba', but it was 'Foobar'", m.Message)

	m, err = c.Compare(fooBar(), Person{Id: 7, Age: 42, Locations: []string{}})
	require.NoError(t, err)
	assert.Nil(t, m)

	// promoted fields are members too
	m, err = c.Compare(fooBar(), Person{Audit: Audit{CreatedBy: "root"}})
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "CreatedBy", m.Target)
}

func TestCompareProtoEnumDefaults(t *testing.T) {
	c := New(evaluator.New())
	actual := &typepb.Field{Name: "x", Kind: typepb.Field_TYPE_STRING}

	// an unset enum on the expected side is skipped like any other default
	m, err := c.Compare(actual, &typepb.Field{Name: "x"})
	require.NoError(t, err)
	assert.Nil(t, m)

	m, err = c.Compare(actual, &typepb.Field{Kind: typepb.Field_TYPE_INT64})
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "kind", m.Target)
	assert.Equal(t, "Expected kind to be 'TYPE_INT64', but it was 'TYPE_STRING'", m.Message)

	m, err = c.Compare(&typepb.Field{Name: "x"}, &typepb.Field{Kind: typepb.Field_TYPE_INT64})
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, `Expected kind to be 'TYPE_INT64', but it was "TYPE_UNKNOWN".`, m.Message)
}

func TestCompareNumericAcrossKinds(t *testing.T) {
	c := New(evaluator.New())

	m, err := c.Compare(fooBar(), map[string]any{"Age": 42, "Name": "Foobar"})
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestCompareActualDefault(t *testing.T) {
	c := New(evaluator.New())
	p := fooBar()
	p.Name = ""

	m, err := c.Compare(p, Person{Name: "Ann"})
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, `Expected Name to be 'Ann', but it was "".`, m.Message)

	p.Address = nil
	m, err = c.Compare(p, Person{Address: &Address{City: "Oslo"}})
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "Address", m.Target)
	assert.Contains(t, m.Message, "but it was nil.")
}

func TestCompareValueTypes(t *testing.T) {
	c := New(evaluator.New())

	tests := []struct {
		name     string
		actual   any
		expected any
		target   string
		message  string
	}{
		{"ints", 41, 42, "int", "Expected int to be '42', but it was '41'"},
		{"bools", false, true, "bool", "Expected bool to be 'true', but it was false."},
		{"expected default", 5, 0, "int", "Expected int to be 0. Was '5'."},
		{"strings", "b", "a", "string", "Expected string to be 'a', but it was 'b'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := c.Compare(tt.actual, tt.expected)
			require.NoError(t, err)
			require.NotNil(t, m)
			assert.Equal(t, tt.target, m.Target)
			assert.Equal(t, tt.message, m.Message)
			assert.Equal(t, tt.expected, m.Expected)
			assert.Equal(t, tt.actual, m.Actual)
		})
	}

	m, err := c.Compare(42, 42)
	require.NoError(t, err)
	assert.Nil(t, m)

	joined := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	m, err = c.Compare(joined, joined.In(time.FixedZone("X", 7200)))
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestCompareInit(t *testing.T) {
	c := New(evaluator.New())

	init := &ast.MemberInit{
		Construct: &ast.Construct{TypeName: "Person"},
		Bindings: []ast.Binding{
			{Member: "Name", Value: &ast.Literal{Value: "Foobar"}},
			{Member: "Address", Value: &ast.MemberInit{
				Construct: &ast.Construct{TypeName: "Address"},
				Bindings:  []ast.Binding{{Member: "City", Value: &ast.Literal{Value: "Bergen"}}},
			}},
		},
	}
	expected := &Person{Name: "Foobar", Address: &Address{City: "Bergen"}}

	m, err := c.CompareInit(fooBar(), expected, init)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "Address.City", m.Target)
	assert.Equal(t, "Bergen", m.Expected)
	assert.Equal(t, "Oslo", m.Actual)

	// bound defaults are compared, not skipped
	zero := &ast.MemberInit{
		Construct: &ast.Construct{TypeName: "Person"},
		Bindings:  []ast.Binding{{Member: "Id", Value: &ast.Literal{Value: 0}}},
	}
	m, err = c.CompareInit(fooBar(), &Person{}, zero)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "Expected Id to be 0. Was '7'.", m.Message)
}

func TestCompareMissingMember(t *testing.T) {
	c := New(evaluator.New())

	_, err := c.Compare(fooBar(), map[string]any{"Nickname": "F"})
	assert.ErrorIs(t, err, evaluator.ErrConfiguration)
}
