package evaluator

import "sync"

func NewEnvironment() *Environment {
	return &Environment{store: make(map[string]Object)}
}

func NewEnclosedEnvironment(outer *Environment) *Environment {
	env := NewEnvironment()
	env.outer = outer
	return env
}

// NewSubjectEnvironment returns a root environment in which any parameter
// name left unbound resolves to subject.
func NewSubjectEnvironment(subject Object) *Environment {
	env := NewEnvironment()
	env.subject = subject
	return env
}

type Environment struct {
	mu      sync.RWMutex
	store   map[string]Object
	outer   *Environment
	subject Object
}

func (e *Environment) Get(name string) (Object, bool) {
	e.mu.RLock()
	obj, ok := e.store[name]
	e.mu.RUnlock()
	if ok {
		return obj, true
	}
	if e.outer != nil {
		return e.outer.Get(name)
	}
	if e.subject != nil {
		return e.subject, true
	}
	return nil, false
}

func (e *Environment) Set(name string, val Object) Object {
	e.mu.Lock()
	e.store[name] = val
	e.mu.Unlock()
	return val
}

// Subject returns the subject of the outermost environment.
func (e *Environment) Subject() Object {
	for env := e; env != nil; env = env.outer {
		if env.subject != nil {
			return env.subject
		}
	}
	return nil
}
