package parser_test

import (
	"errors"
	"github.com/funvibe/exprassert/internal/ast"
	"github.com/funvibe/exprassert/internal/parser"
	"github.com/funvibe/exprassert/internal/prettyprinter"
	"math"
	"reflect"
	"strings"
	"testing"
)

type point struct{ X, Y int }

func newPoint(x, y int) point { return point{X: x, Y: y} }

func hasPrefix(s, prefix string) bool { return strings.HasPrefix(s, prefix) }

var names = &parser.Names{
	Vars:  map[string]any{"minAge": 18, "tags": []string{"a", "b"}},
	Types: map[string]any{"point": point{}, "ppoint": &point{}},
	Funcs: map[string]any{"newPoint": newPoint, "hasPrefix": hasPrefix},
}

// parseOK parses input and fails the test on any error.
func parseOK(t *testing.T, input string) ast.Expression {
	t.Helper()
	e, err := parser.Parse(input, names)
	if err != nil {
		t.Fatalf("parse %q: %v", input, err)
	}
	return e
}

func render(t *testing.T, e ast.Expression) string {
	t.Helper()
	s, err := prettyprinter.Render(e)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	return s
}

func TestRoundTrip(t *testing.T) {
	tests := []string{
		`p.Age >= minAge`,
		`p.Name == "Ada" && p.Age > 3`,
		`a || b && c`,
		`(a || b) && c`,
		`1 + 2 * 3 == 7`,
		`(1 + 2) * 3 == 9`,
		`a - (b - c) == 0`,
		`a & 1 | 2 == 3`,
		`!p.Active`,
		`!(p.Age > 3)`,
		`-p.Balance < 0`,
		`p.Tags.Contains("go")`,
		`p.Tags.Any(t => t.HasPrefix("g"))`,
		`p.Items.All((i, n) => n < 10)`,
		`p.Items.Any(() => true)`,
		`hasPrefix(p.Name, "A")`,
		`Count(p.Tags) == 2`,
		`p.Location == new point(1, 2)`,
		`p.Location == new point() { X = 1, Y = p.Age + 1 }`,
		`p.Ref == new ppoint() { Y = 2, X = 1 }`,
		`p.Location == new newPoint(1, 2) { Y = 5 }`,
		`p.Ratio == 1.5`,
		`p.Missing == nil`,
		`p.Count == -3`,
		`p.Name.Trim().Len() == 3`,
	}
	for _, input := range tests {
		e := parseOK(t, input)
		if got := render(t, e); got != input {
			t.Errorf("render(parse(%q)) = %q", input, got)
		}
	}
}

func TestIdentifierResolution(t *testing.T) {
	e := parseOK(t, `p.Age >= minAge`)
	b, ok := e.(*ast.Binary)
	if !ok || b.Op != ast.OpGe {
		t.Fatalf("expected >= binary, got %T", e)
	}
	left := b.Left.(*ast.MemberAccess)
	if param, ok := left.Target.(*ast.Parameter); !ok || param.Name != "p" {
		t.Errorf("left target = %#v, want parameter p", left.Target)
	}
	right := b.Right.(*ast.MemberAccess)
	scope, ok := right.Target.(*ast.Literal)
	if !ok || !scope.IsContainer() {
		t.Fatalf("right target = %#v, want captured scope", right.Target)
	}
	if got := scope.Value.(ast.Scope)["minAge"]; got != 18 {
		t.Errorf("minAge = %v", got)
	}

	// a lambda parameter shadows a var of the same name
	e = parseOK(t, `p.Ages.Any(minAge => minAge > 1)`)
	lambda := e.(*ast.MethodCall).Args[0].(*ast.Lambda)
	cmp := lambda.Body.(*ast.Binary)
	if _, ok := cmp.Left.(*ast.Parameter); !ok {
		t.Errorf("lambda body left = %T, want *ast.Parameter", cmp.Left)
	}
}

func TestCalls(t *testing.T) {
	call := parseOK(t, `hasPrefix(p.Name, "A")`).(*ast.MethodCall)
	if !call.IsExtension() || call.Func == nil {
		t.Errorf("registered function: extension=%v func=%v", call.IsExtension(), call.Func)
	}

	call = parseOK(t, `Count(p.Tags)`).(*ast.MethodCall)
	if !call.IsExtension() || call.Func != nil {
		t.Errorf("extension call: extension=%v func=%v", call.IsExtension(), call.Func)
	}

	call = parseOK(t, `p.In(tags...)`).(*ast.MethodCall)
	if !call.Variadic || len(call.Args) != 1 {
		t.Errorf("variadic call: variadic=%v args=%d", call.Variadic, len(call.Args))
	}
}

func TestConstruct(t *testing.T) {
	init := parseOK(t, `new point { Y = 2, X = 1, }`).(*ast.MemberInit)
	if init.Construct.Type != reflect.TypeOf(point{}) {
		t.Errorf("type = %v", init.Construct.Type)
	}
	var order []string
	for _, b := range init.Bindings {
		order = append(order, b.Member)
	}
	if strings.Join(order, ",") != "Y,X" {
		t.Errorf("binding order = %v", order)
	}

	c := parseOK(t, `new newPoint(1, 2)`).(*ast.Construct)
	if c.New == nil || c.Name() != "newPoint" || len(c.Args) != 2 {
		t.Errorf("constructor = %#v", c)
	}
}

func TestLiterals(t *testing.T) {
	tests := []struct {
		input string
		want  any
	}{
		{"42", 42},
		{"-42", -42},
		{"-9223372036854775808", int(math.MinInt64)},
		{"9223372036854775807", int(math.MaxInt64)},
		{"0x10", 16},
		{"2.5", 2.5},
		{"-2.5", -2.5},
		{`"hi"`, "hi"},
		{"true", true},
		{"false", false},
		{"nil", nil},
	}
	for _, tt := range tests {
		lit, ok := parseOK(t, tt.input).(*ast.Literal)
		if !ok {
			t.Errorf("%s: not a literal", tt.input)
			continue
		}
		if lit.Value != tt.want {
			t.Errorf("%s: value = %#v, want %#v", tt.input, lit.Value, tt.want)
		}
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		input string
		msg   string
	}{
		{``, "unexpected end of input"},
		{`p.Age >=`, "unexpected end of input"},
		{`p.Age 3`, `unexpected "3" after expression`},
		{`p.`, "expected IDENT, got end of input"},
		{`(p.Age > 3`, "expected ), got end of input"},
		{`p.Tags.Contains("go"`, "expected ), got end of input"},
		{`Count()`, "Count needs at least one argument"},
		{`p == new widget()`, `unknown type "widget"`},
		{`p == new point { X 1 }`, "expected =, got \"1\""},
		{`p.Any((a, a) => a)`, `duplicate lambda parameter "a"`},
		{`p.Name == "open`, "unterminated string"},
		{`p.Id == 9223372036854775808`, "integer out of range"},
		{`p.Id == -9223372036854775809`, "integer out of range"},
		{`p == new newPoint(tags...)`, "does not take a variadic slice"},
	}
	for _, tt := range tests {
		_, err := parser.Parse(tt.input, names)
		if err == nil {
			t.Errorf("%q: expected error containing %q", tt.input, tt.msg)
			continue
		}
		if !strings.Contains(err.Error(), tt.msg) {
			t.Errorf("%q: error %q does not contain %q", tt.input, err.Error(), tt.msg)
		}
		var errs parser.Errors
		if !errors.As(err, &errs) || len(errs) == 0 {
			t.Errorf("%q: error is %T, want parser.Errors", tt.input, err)
		}
	}
}

func TestRecursionLimit(t *testing.T) {
	input := strings.Repeat("(", parser.MaxRecursionDepth+1) + "1" + strings.Repeat(")", parser.MaxRecursionDepth+1)
	_, err := parser.Parse(input, nil)
	if err == nil || !strings.Contains(err.Error(), "recursion depth") {
		t.Fatalf("expected recursion depth error, got %v", err)
	}
}
