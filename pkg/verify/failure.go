package verify

import (
	"errors"

	"github.com/funvibe/exprassert/internal/config"
	"github.com/funvibe/exprassert/internal/evaluator"
)

// ErrVerificationFailed is matched by every *Failure through errors.Is.
var ErrVerificationFailed = errors.New("verification failed")

// ErrConfiguration is matched by every *ConfigError through errors.Is.
var ErrConfiguration = evaluator.ErrConfiguration

// ConfigError reports a predicate that cannot be evaluated as written. It is
// returned as an error from Run and never reported as a Failure.
type ConfigError = evaluator.ConfigError

// CallError wraps an error or panic raised by host code during evaluation.
type CallError = evaluator.CallError

// Accessor reads members of host values. See WithAccessor.
type Accessor = evaluator.Accessor

// AccessorFunc adapts a function to Accessor.
type AccessorFunc = evaluator.AccessorFunc

// Config holds engine settings; see LoadConfig.
type Config = config.Config

// LoadConfig looks for .exprassert.yaml from dir upwards and applies
// EXPRASSERT_* environment overrides.
func LoadConfig(dir string) (*Config, error) {
	return config.Load(dir)
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() *Config {
	return config.Default()
}

type FailureKind int

const (
	// FailureGeneric carries only a message: compound bodies, host errors.
	FailureGeneric FailureKind = iota
	// FailureValue carries an expected and an actual value.
	FailureValue
	// FailureNullChain names the member that was nil.
	FailureNullChain
	// FailureEnumerable carries the string or collection a method was called on.
	FailureEnumerable
)

func (k FailureKind) String() string {
	switch k {
	case FailureValue:
		return "value"
	case FailureNullChain:
		return "null-chain"
	case FailureEnumerable:
		return "enumerable"
	}
	return "generic"
}

// Failure describes the first predicate that did not hold.
type Failure struct {
	Kind    FailureKind
	Message string
	// Target names what was verified, e.g. "Nested.Name" or
	// `EqualFold("hello")`.
	Target string

	Expected any
	Actual   any

	// NullProperty is the chain link that evaluated to nil.
	NullProperty string

	// Enumerable is the string or collection receiver of a failed method call.
	Enumerable any

	// Predicate is the rendered source of the failing predicate and Index
	// its position in the session.
	Predicate string
	Index     int

	// Cause is set when host code returned an error or panicked.
	Cause error
}

func (f *Failure) Error() string { return f.Message }

func (f *Failure) Unwrap() []error {
	if f.Cause != nil {
		return []error{ErrVerificationFailed, f.Cause}
	}
	return []error{ErrVerificationFailed}
}

// HasValues reports whether Expected and Actual are meaningful.
func (f *Failure) HasValues() bool { return f.Kind == FailureValue }
