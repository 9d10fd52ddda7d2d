package verify

import (
	"bytes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"strings"
	"testing"
)

func TestFormat(t *testing.T) {
	f := run(t, ada(), That(p.Field("Name").Eq("Bob")))
	require.NotNil(t, f)

	out := Format(f)
	assert.Equal(t, strings.Join([]string{
		`FAIL [#0] p.Name == "Bob"`,
		"    Expected Name to be 'Bob' but was 'Ada'",
		"  target:   Name",
		"  expected: Bob",
		"  actual:   Ada",
		"",
	}, "\n"), out)
}

func TestFormatNullChainAndDiff(t *testing.T) {
	c := ada()
	c.Address = nil
	f := run(t, c, That(p.Field("Address").Field("City").Eq("London")))
	require.NotNil(t, f)
	assert.Contains(t, Format(f), "  nil at:   Address\n")

	f = &Failure{
		Kind:     FailureValue,
		Message:  "Expected Tags to match",
		Target:   "Tags",
		Expected: []string{"a", "b"},
		Actual:   []string{"a", "c"},
	}
	out := Format(f)
	assert.Contains(t, out, "diff (-expected +actual):")
	assert.Contains(t, out, `"b"`)
	assert.Contains(t, out, `"c"`)
}

func TestReporterColor(t *testing.T) {
	f := run(t, ada(), That(p.Call("Describe").Eq("Bob")))
	require.NotNil(t, f)

	var plain, colored bytes.Buffer
	require.NoError(t, NewReporter(&plain, "never").Report(f))
	require.NoError(t, NewReporter(&colored, "always").Report(f))
	assert.NotContains(t, plain.String(), "\033[")
	assert.Contains(t, colored.String(), "\033[31mFAIL\033[39m")

	var auto bytes.Buffer
	require.NoError(t, NewReporterFromConfig(&auto, DefaultConfig()).Report(f))
	assert.Equal(t, plain.String(), auto.String())
}
