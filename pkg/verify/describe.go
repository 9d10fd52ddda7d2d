package verify

import (
	"fmt"
	"github.com/funvibe/exprassert/internal/ast"
	"github.com/funvibe/exprassert/internal/evaluator"
	"github.com/funvibe/exprassert/internal/prettyprinter"
	"reflect"
	"strings"
)

var comparisonPhrases = map[ast.BinaryOp]string{
	ast.OpEq:    "to be",
	ast.OpNotEq: "not to be",
	ast.OpGt:    "to be greater than",
	ast.OpGe:    "to be greater than or equal to",
	ast.OpLt:    "to be less than",
	ast.OpLe:    "to be less than or equal to",
}

func (s *Session) checkBoolean(body ast.Expression, subject any, env *evaluator.Environment) (*Failure, error) {
	if err := validateBody(body); err != nil {
		return nil, err
	}
	res, err := s.ev.Eval(body, env)
	if err != nil {
		return s.callFailure(body, err)
	}
	ok, err := holds(body, res)
	if err != nil {
		return nil, err
	}
	if ok {
		return nil, nil
	}
	return s.describe(body, res, subject, env)
}

// validateBody rejects top-level shapes that cannot be diagnosed.
func validateBody(body ast.Expression) error {
	if body == nil {
		return evaluator.ConfigErrorf("missing predicate body")
	}
	u, ok := body.(*ast.Unary)
	if !ok {
		return nil
	}
	if u.Op == ast.OpNegate {
		return evaluator.ConfigErrorf("a predicate cannot be a negation: %s", render(body))
	}
	if _, ok := u.Operand.(*ast.MethodCall); !ok {
		return evaluator.ConfigErrorf("only method calls can be negated at the top of a predicate: %s", render(body))
	}
	return nil
}

func holds(body ast.Expression, res evaluator.Result) (bool, error) {
	if isCallBody(body) {
		if res.IsNullChain() {
			return false, nil
		}
		b, ok := res.Object().(*evaluator.Boolean)
		if !ok {
			return false, evaluator.ConfigErrorf("method verification must return bool, %s returned %s",
				render(body), subjectName(res.Object().Interface()))
		}
		return b.Value, nil
	}
	return res.Bool()
}

func isCallBody(body ast.Expression) bool {
	switch n := body.(type) {
	case *ast.MethodCall:
		return true
	case *ast.Unary:
		_, ok := n.Operand.(*ast.MethodCall)
		return ok
	}
	return false
}

func (s *Session) describe(body ast.Expression, res evaluator.Result, subject any, env *evaluator.Environment) (*Failure, error) {
	switch n := body.(type) {
	case *ast.Binary:
		if n.Op.IsComparison() {
			return s.describeComparison(n, subject, env)
		}
	case *ast.MethodCall:
		return s.describeCall(n, res, subject, false)
	case *ast.Unary:
		return s.describeCall(n.Operand.(*ast.MethodCall), res, subject, true)
	case *ast.MemberAccess:
		return s.describeMember(n, res, subject)
	}
	text := render(body)
	return &Failure{Kind: FailureGeneric, Message: text, Target: text}, nil
}

// describeComparison re-evaluates both sides of a failed comparison. The
// side that does not depend on the subject is the expected value; when the
// constant is on the left the operator is mirrored so the message reads from
// the tested side.
func (s *Session) describeComparison(n *ast.Binary, subject any, env *evaluator.Environment) (*Failure, error) {
	tested, expectedSide, op := n.Left, n.Right, n.Op
	if !ast.ReferencesParameter(n.Left) && ast.ReferencesParameter(n.Right) {
		tested, expectedSide, op = n.Right, n.Left, n.Op.Mirror()
	}

	exp, err := s.ev.Eval(expectedSide, env)
	if err != nil {
		return s.callFailure(n, err)
	}
	act, err := s.ev.Eval(tested, env)
	if err != nil {
		return s.callFailure(n, err)
	}
	target, err := s.targetName(tested, subject)
	if err != nil {
		return nil, err
	}

	phrase := comparisonPhrases[op]
	expected := exp.Object().Interface()
	if act.IsNullChain() {
		return &Failure{
			Kind:         FailureNullChain,
			Message:      fmt.Sprintf("Expected %s %s '%s' but '%s' was nil", target, phrase, formatValue(expected), act.NullMember),
			Target:       target,
			Expected:     expected,
			NullProperty: act.NullMember,
		}, nil
	}
	actual := act.Object().Interface()
	return &Failure{
		Kind:     FailureValue,
		Message:  fmt.Sprintf("Expected %s %s '%s' but was '%s'", target, phrase, formatValue(expected), formatValue(actual)),
		Target:   target,
		Expected: expected,
		Actual:   actual,
	}, nil
}

func (s *Session) describeCall(call *ast.MethodCall, res evaluator.Result, subject any, negated bool) (*Failure, error) {
	name, err := s.targetName(call, subject)
	if err != nil {
		return nil, err
	}
	if negated {
		name = "!" + name
	}

	if res.IsNullChain() {
		return &Failure{
			Kind:         FailureNullChain,
			Message:      fmt.Sprintf("Tried to verify %s, but %s was nil", name, res.NullMember),
			Target:       name,
			NullProperty: res.NullMember,
		}, nil
	}

	msg := fmt.Sprintf("Expected %s to be true, but was false.", name)
	if negated {
		msg = fmt.Sprintf("Expected %s to be false, but was true.", name)
	}
	if res.Kind == evaluator.ResultEnumerable && res.Source != nil {
		return &Failure{
			Kind:       FailureEnumerable,
			Message:    msg + s.describeEnumerable(res.Source),
			Target:     name,
			Enumerable: res.Source.Interface(),
		}, nil
	}
	return &Failure{
		Kind:     FailureValue,
		Message:  msg,
		Target:   name,
		Expected: !negated,
		Actual:   negated,
	}, nil
}

func (s *Session) describeMember(n *ast.MemberAccess, res evaluator.Result, subject any) (*Failure, error) {
	name, err := s.targetName(n, subject)
	if err != nil {
		return nil, err
	}
	if res.IsNullChain() {
		return &Failure{
			Kind:         FailureNullChain,
			Message:      fmt.Sprintf("Tried to verify %s, but %s was nil", name, res.NullMember),
			Target:       name,
			NullProperty: res.NullMember,
		}, nil
	}
	return &Failure{
		Kind:     FailureValue,
		Message:  fmt.Sprintf("Expected %s to be true, but was false.", name),
		Target:   name,
		Expected: true,
		Actual:   false,
	}, nil
}

// targetName is the diagnostic name of a tested expression: its member
// chain without the subject parameter, falling back to the subject's type.
func (s *Session) targetName(e ast.Expression, subject any) (string, error) {
	name, err := chainName(e)
	if err != nil {
		return "", err
	}
	if name == "" {
		return subjectName(subject), nil
	}
	return name, nil
}

// chainName joins the links of a member chain: p.Nested.Name gives
// "Nested.Name", p.Name.EqualFold("x") gives `Name.EqualFold("x")`.
// Extension calls are named on their first argument.
func chainName(e ast.Expression) (string, error) {
	var links []string
	for e != nil {
		switch n := e.(type) {
		case *ast.MemberAccess:
			links = append(links, n.Member)
			e = n.Target
		case *ast.MethodCall:
			link, err := prettyprinter.RenderCall(n.Method, n.CallArgs(), n.Variadic)
			if err != nil {
				return "", err
			}
			links = append(links, link)
			e = n.Receiver()
		case *ast.Parameter, *ast.Literal:
			e = nil
		default:
			text, err := prettyprinter.Render(n)
			if err != nil {
				return "", err
			}
			links = append(links, text)
			e = nil
		}
	}
	for i, j := 0, len(links)-1; i < j; i, j = i+1, j-1 {
		links[i], links[j] = links[j], links[i]
	}
	return strings.Join(links, "."), nil
}

func (s *Session) describeEnumerable(src evaluator.Object) string {
	switch src := src.(type) {
	case *evaluator.String:
		return " String is <" + src.Inspect() + ">"
	case *evaluator.Sequence:
		return " Collection contains: \n" + renderItems(src, s.maxItems)
	}
	return ""
}

// renderItems lists a collection one item per line. Items with their own
// text (scalars, Stringers, errors) print as such; other items print their
// exported fields. The first non-nil item decides for the whole collection.
func renderItems(seq *evaluator.Sequence, max int) string {
	var lines []string
	rv := reflect.ValueOf(seq.Value)
	if rv.Kind() == reflect.Map {
		for _, k := range evaluator.SortedMapKeys(rv) {
			lines = append(lines, fmt.Sprintf("%v=%s", k.Interface(), itemText(rv.MapIndex(k).Interface(), true)))
		}
	} else {
		items := seq.Elements()
		ownText := true
		for _, it := range items {
			if it != nil {
				ownText = hasOwnText(it)
				break
			}
		}
		for _, it := range items {
			lines = append(lines, itemText(it, ownText))
		}
	}

	if max > 0 && len(lines) > max {
		more := len(lines) - max
		lines = append(lines[:max:max], fmt.Sprintf("... (%d more)", more))
	}
	return strings.Join(lines, "\n")
}

func hasOwnText(v any) bool {
	switch v.(type) {
	case fmt.Stringer, error:
		return true
	}
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Kind() != reflect.Struct
}

func itemText(v any, ownText bool) string {
	if isNilValue(v) {
		return "nil"
	}
	if ownText {
		return fmt.Sprint(v)
	}
	return describeObject(v)
}

// describeObject prints a struct as Type[A=1, B=x].
func describeObject(v any) string {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	var fields []string
	for _, f := range reflect.VisibleFields(rv.Type()) {
		if !f.IsExported() || f.Anonymous {
			continue
		}
		fv, err := rv.FieldByIndexErr(f.Index)
		if err != nil {
			fields = append(fields, f.Name+"=nil")
			continue
		}
		fields = append(fields, f.Name+"="+formatValue(fv.Interface()))
	}
	return ast.TypeName(rv.Type()) + "[" + strings.Join(fields, ", ") + "]"
}

func formatValue(v any) string {
	if isNilValue(v) {
		return "nil"
	}
	return fmt.Sprint(v)
}

func isNilValue(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
