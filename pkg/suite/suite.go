// Package suite reads predicate suites from YAML so checks can live next to
// fixtures instead of in Go code.
//
//	name: adult customers
//	vars:
//	  minAge: 18
//	predicates:
//	  - that: {ge: [{path: p.Age}, {var: minAge}]}
//	  - that: {call: {on: {path: p.Tags}, method: Contains, args: [vip]}}
//	  - p.Address != nil && p.Address.City == "London"
//	  - equals:
//	      init:
//	        type: customer
//	        set:
//	          Name: Ada
//	          Address: {init: {type: address, set: {City: London}}}
//
// A predicate given as a plain string is parsed as predicate source. Inside
// expressions plain scalars are literals, and every other node is a mapping
// with a single key naming its form; see Parse.
package suite

import (
	"fmt"
	"github.com/funvibe/exprassert/pkg/verify"
	"gopkg.in/yaml.v3"
	"os"
)

// Registry resolves the type and function names a suite refers to.
type Registry struct {
	// Types maps a name to a prototype value; &T{} constructs pointers.
	Types map[string]any
	// Funcs maps a name to a Go function.
	Funcs map[string]any
}

func NewRegistry() *Registry {
	return &Registry{Types: make(map[string]any), Funcs: make(map[string]any)}
}

func (r *Registry) Type(name string, prototype any) *Registry {
	r.Types[name] = prototype
	return r
}

func (r *Registry) Func(name string, fn any) *Registry {
	r.Funcs[name] = fn
	return r
}

// Suite is a parsed list of predicates.
type Suite struct {
	Name       string
	Vars       map[string]any
	Predicates []verify.Predicate
}

// ParseError points at the offending YAML node.
type ParseError struct {
	Path   string
	Line   int
	Column int
	Msg    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", e.Path, e.Line, e.Column, e.Msg)
}

// Load reads and parses a suite file.
func Load(path string, reg *Registry) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading suite %s: %w", path, err)
	}
	return parse(data, path, reg)
}

// Parse parses suite content. Node forms:
//
//	scalar                        literal
//	lit: value                    literal, including lists and maps
//	param: p                      the subject (or a lambda parameter)
//	var: name                     a value from the suite's vars
//	path: p.A.B                   member chain on a parameter
//	member: {on, name}            member access
//	call: {on, method, args, variadic}
//	                              method call; without on, an extension call
//	func: {name, args}            registered function, first arg as receiver
//	not: node / neg: node
//	binary: {op, left, right}
//	eq|ne|gt|ge|lt|le|and|or: [left, right]
//	lambda: {params, body}
//	expr: source                  parsed predicate source, e.g. p.Age + 1
//	new: {type | func, args}
//	init: {type | func, args, set: {Member: node, ...}}
func Parse(data []byte, reg *Registry) (*Suite, error) {
	return parse(data, "<suite>", reg)
}

func parse(data []byte, path string, reg *Registry) (*Suite, error) {
	if reg == nil {
		reg = NewRegistry()
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	d := &decoder{path: path, reg: reg}
	return d.suite(&doc)
}

// Session builds a verify session holding the suite's predicates.
func (s *Suite) Session(opts ...verify.Option) *verify.Session {
	return verify.NewSession(opts...).Add(s.Predicates...)
}

// Run checks the suite against subject.
func (s *Suite) Run(subject any, opts ...verify.Option) (*verify.Failure, error) {
	return s.Session(opts...).Run(subject)
}
