package suite

import (
	"errors"
	"github.com/funvibe/exprassert/pkg/verify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type address struct {
	City string
}

type customer struct {
	Name    string
	Age     int
	Tags    []string
	Address *address
}

func (c customer) IsAdult() bool { return c.Age >= 18 }

func newCustomer(name string) *customer { return &customer{Name: name} }

func registry() *Registry {
	return NewRegistry().
		Type("customer", customer{}).
		Type("address", &address{}).
		Func("newCustomer", newCustomer).
		Func("hasTag", func(c *customer, tag string) bool {
			for _, t := range c.Tags {
				if t == tag {
					return true
				}
			}
			return false
		})
}

func ada() *customer {
	return &customer{Name: "Ada", Age: 36, Tags: []string{"math", "vip"}, Address: &address{City: "London"}}
}

const passing = `
name: adult customers
predicates:
  - that: {ge: [{path: p.Age}, {var: minAge}]}
  - that: {call: {on: {path: p.Tags}, method: Contains, args: [vip]}}
  - that: {call: {on: {param: p}, method: IsAdult}}
  - that: {not: {call: {on: {path: p.Name}, method: IsEmpty}}}
  - that: {func: {name: hasTag, args: [{param: p}, math]}}
  - that:
      binary:
        op: "&&"
        left: {ne: [{path: p.Address}, {lit: null}]}
        right: {eq: [{member: {on: {path: p.Address}, name: City}}, London]}
  - that:
      call:
        on: {path: p.Tags}
        method: Any
        args:
          - lambda: {params: [t], body: {eq: [{param: t}, math]}}
  - that: {lt: [{neg: 1}, {path: p.Age}]}
  - equals:
      init:
        type: customer
        set:
          Name: Ada
          Address: {init: {type: address, set: {City: London}}}
vars:
  minAge: 18
`

func TestParseAndRun(t *testing.T) {
	s, err := Parse([]byte(passing), registry())
	require.NoError(t, err)
	assert.Equal(t, "adult customers", s.Name)
	assert.Len(t, s.Predicates, 9)

	f, err := s.Run(ada())
	require.NoError(t, err)
	assert.Nil(t, f)
}

func TestRunFailure(t *testing.T) {
	src := `
predicates:
  - that: {eq: [{path: p.Address.City}, Paris]}
`
	s, err := Parse([]byte(src), nil)
	require.NoError(t, err)

	f, err := s.Run(ada())
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.Equal(t, "Expected Address.City to be 'Paris' but was 'London'", f.Message)
	assert.Equal(t, `p.Address.City == "Paris"`, f.Predicate)
}

func TestInitKeepsBindingOrder(t *testing.T) {
	src := `
predicates:
  - equals:
      init:
        func: newCustomer
        args: [Bob]
        set: {Age: 3, Name: Ada}
`
	s, err := Parse([]byte(src), registry())
	require.NoError(t, err)
	assert.Equal(t, `== new newCustomer("Bob") { Age = 3, Name = "Ada" }`, s.Predicates[0].String())

	f, err := s.Run(ada())
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.Equal(t, "Age", f.Target)
}

const sourcePredicates = `
vars:
  minAge: 18
predicates:
  - p.Age >= minAge
  - p.Tags.Contains("vip") && hasTag(p, "math")
  - "!p.Name.IsEmpty()"
  - p.Tags.Any(t => t == "math")
  - that: {ge: [{path: p.Age}, {expr: "minAge * 2"}]}
  - equals: {expr: 'new customer { Name = "Ada", Address = new address { City = "London" } }'}
`

func TestSourcePredicates(t *testing.T) {
	s, err := Parse([]byte(sourcePredicates), registry())
	require.NoError(t, err)
	require.Len(t, s.Predicates, 6)
	assert.Equal(t, "p.Age >= minAge", s.Predicates[0].String())

	f, err := s.Run(ada())
	require.NoError(t, err)
	assert.Nil(t, f)

	s, err = Parse([]byte("predicates:\n  - p.Age > 40\n"), nil)
	require.NoError(t, err)
	f, err = s.Run(ada())
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.Equal(t, "Expected Age to be greater than '40' but was '36'", f.Message)
	assert.Equal(t, "p.Age > 40", f.Predicate)
}

func TestSourceErrorPosition(t *testing.T) {
	_, err := Parse([]byte("predicates:\n  - p.Age >=\n"), nil)
	require.Error(t, err)
	assert.Equal(t, "<suite>:2:13: unexpected end of input", err.Error())

	_, err = Parse([]byte("predicates:\n  - that: {expr: 'p == new ghost'}\n"), registry())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown type "ghost"`)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"not a mapping", "- a\n", "a suite must be a mapping"},
		{"unknown key", "nme: x\n", `unknown suite key "nme"`},
		{"bad predicate", "predicates:\n  - check: {lit: 1}\n", `'that' or 'equals'`},
		{"unknown form", "predicates:\n  - that: {maybe: 1}\n", `unknown expression form "maybe"`},
		{"undefined var", "predicates:\n  - that: {var: x}\n", `undefined var "x"`},
		{"unknown type", "predicates:\n  - equals: {new: {type: ghost}}\n", `unknown type "ghost"`},
		{"unknown func", "predicates:\n  - that: {func: {name: ghost, args: [1]}}\n", `unknown function "ghost"`},
		{"bad operator", "predicates:\n  - that: {binary: {op: '<>', left: 1, right: 2}}\n", `unknown operator "<>"`},
		{"pair arity", "predicates:\n  - that: {eq: [1]}\n", "takes a list of two operands"},
		{"bad path", "predicates:\n  - that: {path: p..A}\n", `malformed path "p..A"`},
		{"unexpected field", "predicates:\n  - that: {member: {on: {param: p}, name: A, extra: 1}}\n", `unexpected key "extra"`},
		{"call without receiver", "predicates:\n  - that: {call: {method: IsEmpty}}\n", "needs 'on'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src), registry())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			var perr *ParseError
			if errors.As(err, &perr) {
				assert.Positive(t, perr.Line)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checks.yaml")
	require.NoError(t, os.WriteFile(path, []byte(passing), 0o644))

	s, err := Load(path, registry())
	require.NoError(t, err)

	sess := s.Session(verify.WithMaxEnumerableItems(1))
	assert.Len(t, sess.Predicates(), 9)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	require.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("predicates:\n  - that: {maybe: 1}\n"), 0o644))
	_, err = Load(bad, nil)
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), bad+":2:"), err.Error())
}
