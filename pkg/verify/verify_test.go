package verify

import (
	"errors"
	"fmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"math"
	"strings"
	"testing"
)

type address struct {
	City string
	Zip  string
}

type customer struct {
	Name    string
	Age     int
	Tags    []string
	Address *address
	Orders  []order
}

func (c customer) IsAdult() bool { return c.Age >= 18 }

func (c customer) Describe() string { return c.Name }

func (c customer) Score() (int, error) {
	if c.Age < 0 {
		return 0, errors.New("negative age")
	}
	return c.Age * 2, nil
}

func (c customer) HasTags(tags ...string) bool {
	for _, want := range tags {
		found := false
		for _, t := range c.Tags {
			if t == want {
				found = true
			}
		}
		if !found {
			return false
		}
	}
	return true
}

type order struct {
	ID    int
	Total float64
}

type sku string

func (s sku) String() string { return "SKU-" + string(s) }

func ada() *customer {
	return &customer{
		Name:    "Ada",
		Age:     36,
		Tags:    []string{"math", "engines"},
		Address: &address{City: "London", Zip: "W1"},
		Orders:  []order{{ID: 1, Total: 9.5}},
	}
}

var p = Param("p")

func run(t *testing.T, subject any, preds ...Predicate) *Failure {
	t.Helper()
	f, err := Run(subject, preds...)
	require.NoError(t, err)
	return f
}

func TestRunPasses(t *testing.T) {
	f := run(t, ada(),
		That(p.Field("Name").Eq("Ada")),
		That(p.Field("Address").Field("City").Eq("London")),
		That(p.Call("IsAdult")),
		That(Lit(30).Lt(p.Field("Age"))),
		That(p.Field("Tags").Call("Contains", "math")),
		That(p.Field("Orders").Call("Any", Lambda("o").Returns(Param("o").Field("Total").Gt(5.0)))),
		That(p.Field("Age").Ge(18).And(p.Field("Name").Ne(""))),
		Equals(customer{Name: "Ada", Age: 36}),
	)
	assert.Nil(t, f)
}

func TestComparisonFailures(t *testing.T) {
	tests := []struct {
		name     string
		body     Expr
		message  string
		target   string
		expected any
		actual   any
	}{
		{"equal", p.Field("Name").Eq("Bob"), "Expected Name to be 'Bob' but was 'Ada'", "Name", "Bob", "Ada"},
		{"not equal", p.Field("Age").Ne(36), "Expected Age not to be '36' but was '36'", "Age", 36, 36},
		{"greater", p.Field("Age").Gt(40), "Expected Age to be greater than '40' but was '36'", "Age", 40, 36},
		{"less or equal", p.Field("Age").Le(10), "Expected Age to be less than or equal to '10' but was '36'", "Age", 10, 36},
		{"literal on the left mirrors", Lit(40).Lt(p.Field("Age")), "Expected Age to be greater than '40' but was '36'", "Age", 40, 36},
		{"nested", p.Field("Address").Field("City").Eq("Paris"), "Expected Address.City to be 'Paris' but was 'London'", "Address.City", "Paris", "London"},
		{"method result", p.Call("Describe").Eq("Bob"), "Expected Describe() to be 'Bob' but was 'Ada'", "Describe()", "Bob", "Ada"},
		{"captured variable", p.Field("Name").Eq(Var("want", "Grace")), "Expected Name to be 'Grace' but was 'Ada'", "Name", "Grace", "Ada"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := run(t, ada(), That(tt.body))
			require.NotNil(t, f)
			assert.Equal(t, FailureValue, f.Kind)
			assert.Equal(t, tt.message, f.Message)
			assert.Equal(t, tt.target, f.Target)
			assert.EqualValues(t, tt.expected, f.Expected)
			assert.EqualValues(t, tt.actual, f.Actual)
			assert.True(t, f.HasValues())
		})
	}
}

func TestUnsignedComparison(t *testing.T) {
	type account struct{ ID uint64 }
	subject := account{ID: math.MaxUint64}
	id := Param("a").Field("ID")

	f := run(t, subject, That(id.Eq(uint64(math.MaxUint64-1))))
	require.NotNil(t, f)
	assert.Equal(t, FailureValue, f.Kind)
	assert.Equal(t, "Expected ID to be '18446744073709551614' but was '18446744073709551615'", f.Message)

	f = run(t, subject,
		That(id.Eq(uint64(math.MaxUint64))),
		That(id.Gt(uint64(math.MaxUint64-1))),
		That(id.Ne(uint64(1<<63))),
	)
	assert.Nil(t, f)
}

func TestNullChain(t *testing.T) {
	c := ada()
	c.Address = nil

	f := run(t, c, That(p.Field("Address").Field("City").Eq("London")))
	require.NotNil(t, f)
	assert.Equal(t, FailureNullChain, f.Kind)
	assert.Equal(t, "Expected Address.City to be 'London' but 'Address' was nil", f.Message)
	assert.Equal(t, "Address", f.NullProperty)

	f = run(t, c, That(p.Field("Address").Field("City").Call("HasPrefix", "Lon")))
	require.NotNil(t, f)
	assert.Equal(t, FailureNullChain, f.Kind)
	assert.Equal(t, `Tried to verify Address.City.HasPrefix("Lon"), but Address was nil`, f.Message)
}

func TestMethodCallFailures(t *testing.T) {
	child := ada()
	child.Age = 7

	f := run(t, child, That(p.Call("IsAdult")))
	require.NotNil(t, f)
	assert.Equal(t, FailureValue, f.Kind)
	assert.Equal(t, "Expected IsAdult() to be true, but was false.", f.Message)
	assert.Equal(t, true, f.Expected)
	assert.Equal(t, false, f.Actual)

	f = run(t, ada(), That(Not(p.Call("IsAdult"))))
	require.NotNil(t, f)
	assert.Equal(t, "Expected !IsAdult() to be false, but was true.", f.Message)
	assert.Equal(t, "!IsAdult()", f.Target)

	f = run(t, ada(), That(p.CallVariadic("HasTags", []string{"math", "poetry"})))
	require.NotNil(t, f)
	assert.Equal(t, `Expected HasTags("math", "poetry") to be true, but was false.`, f.Message)

	homeless := ada()
	homeless.Address = nil
	f = run(t, homeless, That(Not(p.Field("Address").Field("City").Call("HasPrefix", "Lon"))))
	require.NotNil(t, f)
	assert.Equal(t, FailureNullChain, f.Kind)
	assert.Equal(t, `Tried to verify !Address.City.HasPrefix("Lon"), but Address was nil`, f.Message)
	assert.Equal(t, `!Address.City.HasPrefix("Lon")`, f.Target)
	assert.Equal(t, "Address", f.NullProperty)

	f = run(t, "heLLo", That(Not(Param("s").Call("EqualFold", "hello"))))
	require.NotNil(t, f)
	assert.Equal(t, FailureEnumerable, f.Kind)
	assert.Equal(t, `Expected !EqualFold("hello") to be false, but was true. String is <heLLo>`, f.Message)

	f = run(t, ada(), That(Not(p.Field("Tags").Call("Contains", "math"))))
	require.NotNil(t, f)
	assert.Equal(t, FailureEnumerable, f.Kind)
	assert.Equal(t, "Expected !Tags.Contains(\"math\") to be false, but was true. Collection contains: \nmath\nengines", f.Message)
}

func TestEnumerableFailures(t *testing.T) {
	f := run(t, "heLLo", That(Param("s").Call("Equals", "hello")))
	require.NotNil(t, f)
	assert.Equal(t, FailureEnumerable, f.Kind)
	assert.Equal(t, `Equals("hello")`, f.Target)
	assert.Equal(t, `Expected Equals("hello") to be true, but was false. String is <heLLo>`, f.Message)
	assert.Equal(t, "heLLo", f.Enumerable)

	f = run(t, ada(), That(p.Field("Tags").Call("Contains", "poetry")))
	require.NotNil(t, f)
	assert.Equal(t, FailureEnumerable, f.Kind)
	assert.Equal(t, "Expected Tags.Contains(\"poetry\") to be true, but was false. Collection contains: \nmath\nengines", f.Message)

	f = run(t, ada(), That(p.Field("Orders").Call("IsEmpty")))
	require.NotNil(t, f)
	assert.True(t, strings.HasSuffix(f.Message, "Collection contains: \norder[ID=1, Total=9.5]"), f.Message)

	f = run(t, []sku{"a", "b"}, That(Param("s").Call("Len").Eq(3)))
	require.NotNil(t, f)
	assert.Equal(t, FailureValue, f.Kind)

	f = run(t, []sku{"a", "b"}, That(Param("s").Call("Contains", sku("c"))))
	require.NotNil(t, f)
	assert.True(t, strings.HasSuffix(f.Message, "\nSKU-a\nSKU-b"), f.Message)
}

func TestEnumerableTruncation(t *testing.T) {
	items := make([]int, 7)
	for i := range items {
		items[i] = i
	}
	s := NewSession(WithMaxEnumerableItems(3)).Add(That(Param("s").Call("Contains", 99)))
	f, err := s.Run(items)
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.True(t, strings.HasSuffix(f.Message, "\n0\n1\n2\n... (4 more)"), f.Message)
}

func TestMemberAccessFailure(t *testing.T) {
	type flags struct{ Enabled bool }

	f := run(t, flags{}, That(Param("f").Field("Enabled")))
	require.NotNil(t, f)
	assert.Equal(t, "Expected Enabled to be true, but was false.", f.Message)
}

func TestGenericFailures(t *testing.T) {
	f := run(t, ada(), That(p.Field("Age").Gt(50).Or(p.Field("Name").Eq("Bob"))))
	require.NotNil(t, f)
	assert.Equal(t, FailureGeneric, f.Kind)
	assert.Equal(t, `p.Age > 50 || p.Name == "Bob"`, f.Message)
	assert.Equal(t, f.Message, f.Target)

	c := ada()
	c.Age = -1
	f = run(t, c, That(p.Call("Score").Gt(0)))
	require.NotNil(t, f)
	assert.Equal(t, FailureGeneric, f.Kind)
	assert.ErrorContains(t, f.Cause, "negative age")
	assert.ErrorIs(t, f, ErrVerificationFailed)
}

func TestFailFast(t *testing.T) {
	calls := 0
	counted := func(c *customer) bool {
		calls++
		return true
	}

	f := run(t, ada(),
		That(p.Field("Name").Eq("Ada")),
		That(p.Field("Age").Eq(1)),
		That(p.CallFunc("Counted", counted)),
	)
	require.NotNil(t, f)
	assert.Equal(t, 1, f.Index)
	assert.Equal(t, "p.Age == 1", f.Predicate)
	assert.Zero(t, calls)
}

func TestEqualityPredicate(t *testing.T) {
	f := run(t, ada(), Equals(customer{Name: "Adah"}))
	require.NotNil(t, f)
	assert.Equal(t, "Expected Name to be 'Adah', but it was 'Ada'", f.Message)
	assert.Equal(t, "Name", f.Target)

	f = run(t, ada(), Equals(New(customer{}).Set("Name", "Ada").Set("Address", New(&address{}).Set("City", "Paris"))))
	require.NotNil(t, f)
	assert.Equal(t, "Address.City", f.Target)

	f = run(t, 42, Equals(41))
	require.NotNil(t, f)
	assert.Equal(t, "int", f.Target)
}

func TestConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		pred Predicate
	}{
		{"negation", That(Neg(p.Field("Age")))},
		{"not over member", That(Not(p.Field("Name").Eq("x")))},
		{"non-bool method", That(p.Call("Describe"))},
		{"non-bool body", That(p.Field("Age"))},
		{"missing member", That(p.Field("Nope").Eq(1))},
		{"missing method", That(p.Call("Nope"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Run(ada(), tt.pred)
			assert.Nil(t, f)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrConfiguration)
			var cfgErr *ConfigError
			assert.ErrorAs(t, err, &cfgErr)
		})
	}
}

func TestSessionOptions(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	s := NewSession(
		WithLogger(zap.New(core)),
		WithExtension("string", "IsPalindrome", func(s string) bool {
			for i := 0; i < len(s)/2; i++ {
				if s[i] != s[len(s)-1-i] {
					return false
				}
			}
			return true
		}),
		WithAccessor(AccessorFunc(func(recv any, name string) (any, bool, error) {
			if name == "Shout" {
				if c, ok := recv.(*customer); ok {
					return strings.ToUpper(c.Name), true, nil
				}
			}
			return nil, false, nil
		})),
	)
	s.Add(
		That(p.Field("Shout").Eq("ADA")),
		That(p.Field("Name").Call("IsPalindrome")),
	)
	assert.Len(t, s.Predicates(), 2)

	f, err := s.Run(ada())
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.Equal(t, `Expected Name.IsPalindrome() to be true, but was false. String is <Ada>`, f.Message)

	passed := logs.FilterMessage("predicate passed").All()
	require.Len(t, passed, 1)
	failed := logs.FilterMessage("predicate failed").All()
	require.Len(t, failed, 1)
	assert.NotEmpty(t, failed[0].ContextMap()["run_id"])
	assert.Equal(t, "customer", failed[0].ContextMap()["subject"])
}

func TestSessionConcurrentRuns(t *testing.T) {
	s := NewSession().Add(That(p.Field("Age").Gt(18)))
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		go func(age int) {
			f, err := s.Run(&customer{Age: age})
			if err == nil && (f == nil) != (age > 18) {
				err = fmt.Errorf("age %d: unexpected outcome %v", age, f)
			}
			errs <- err
		}(i * 5)
	}
	for i := 0; i < 8; i++ {
		assert.NoError(t, <-errs)
	}
}
