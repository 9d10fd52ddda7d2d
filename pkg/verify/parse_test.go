package verify

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestParseExpr(t *testing.T) {
	names := &Names{
		Vars:  map[string]any{"city": "Paris", "minAge": 18},
		Types: map[string]any{"address": &address{}},
	}

	e, err := ParseExpr(`p.Address.City == city`, names)
	require.NoError(t, err)
	assert.Equal(t, "p.Address.City == city", e.String())

	f := run(t, ada(), That(e))
	require.NotNil(t, f)
	assert.Equal(t, "Expected Address.City to be 'Paris' but was 'London'", f.Message)

	f = run(t, ada(),
		That(MustParseExpr(`p.Age >= minAge && p.IsAdult()`, names)),
		That(MustParseExpr(`p.Orders.Any(o => o.Total > 5.0)`, names)),
		That(MustParseExpr(`!p.HasTags("math", "poetry")`, names)),
	)
	assert.Nil(t, f)

	f = run(t, ada().Address, Equals(MustParseExpr(`new address { City = "London" }`, names)))
	assert.Nil(t, f)
}

func TestParseExprMatchesBuilder(t *testing.T) {
	built := p.Field("Age").Gt(40)
	parsed := MustParseExpr("p.Age > 40", nil)
	assert.Equal(t, built.String(), parsed.String())

	fb := run(t, ada(), That(built))
	fp := run(t, ada(), That(parsed))
	require.NotNil(t, fb)
	require.NotNil(t, fp)
	assert.Equal(t, fb.Message, fp.Message)
	assert.Equal(t, fb.Target, fp.Target)
}

func TestThatSource(t *testing.T) {
	pred, err := ThatSource("p.Name == \"Bob\"", nil)
	require.NoError(t, err)
	f := run(t, ada(), pred)
	require.NotNil(t, f)
	assert.Equal(t, "Expected Name to be 'Bob' but was 'Ada'", f.Message)

	_, err = ThatSource("p.Name ==", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected end of input")

	assert.Panics(t, func() { MustParseExpr("p.(", nil) })
}
