package evaluator

// ResultKind tags the outcome of evaluating a node.
type ResultKind int

const (
	// ResultOk carries a plain value.
	ResultOk ResultKind = iota
	// ResultNullChain reports that a member chain hit nil at NullMember.
	ResultNullChain
	// ResultEnumerable is a method call made on a string or sequence receiver.
	ResultEnumerable
)

func (k ResultKind) String() string {
	switch k {
	case ResultNullChain:
		return "null-chain"
	case ResultEnumerable:
		return "enumerable"
	}
	return "ok"
}

// Result is the outcome of evaluating one node.
type Result struct {
	Kind       ResultKind
	Value      Object
	NullMember string
	Source     Object // receiver of an enumerable call
	Succeeded  bool
}

func Ok(v Object) Result {
	if v == nil {
		v = NULL
	}
	return Result{Kind: ResultOk, Value: v, Succeeded: true}
}

func NullChain(member string) Result {
	return Result{Kind: ResultNullChain, Value: NULL, NullMember: member}
}

func Enumerable(source, value Object) Result {
	succeeded := false
	if b, ok := value.(*Boolean); ok {
		succeeded = b.Value
	}
	return Result{Kind: ResultEnumerable, Value: value, Source: source, Succeeded: succeeded}
}

// Object returns the carried value; a null chain yields NULL.
func (r Result) Object() Object {
	if r.Value == nil {
		return NULL
	}
	return r.Value
}

// IsNullChain reports whether the chain was cut short.
func (r Result) IsNullChain() bool { return r.Kind == ResultNullChain }

// Bool reports the boolean outcome of a predicate-position result.
// A null chain is false; any other non-bool value is a configuration error.
func (r Result) Bool() (bool, error) {
	if r.Kind == ResultNullChain {
		return false, nil
	}
	b, ok := r.Object().(*Boolean)
	if !ok {
		return false, newConfigError("expected a bool result, got %s", typeNameOf(r.Object().Interface()))
	}
	return b.Value, nil
}

// Not flips a boolean result. Null chains stay null chains.
func (r Result) Not() (Result, error) {
	switch r.Kind {
	case ResultNullChain:
		return r, nil
	case ResultEnumerable:
		b, ok := r.Value.(*Boolean)
		if !ok {
			return r, newConfigError("cannot negate %s", typeNameOf(r.Object().Interface()))
		}
		return Enumerable(r.Source, nativeBoolToBooleanObject(!b.Value)), nil
	}
	b, ok := r.Object().(*Boolean)
	if !ok {
		return r, newConfigError("cannot negate %s", typeNameOf(r.Object().Interface()))
	}
	return Ok(nativeBoolToBooleanObject(!b.Value)), nil
}
