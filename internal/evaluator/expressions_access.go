package evaluator

import (
	"github.com/funvibe/exprassert/internal/ast"
)

func (e *Evaluator) evalMemberAccess(n *ast.MemberAccess, env *Environment) (Result, error) {
	target, err := e.Eval(n.Target, env)
	if err != nil {
		return Result{}, err
	}
	if target.IsNullChain() {
		return target, nil
	}

	container := target.Object()
	if _, ok := container.(*Null); ok {
		return NullChain(LinkName(n.Target)), nil
	}

	var val any
	if n.Get != nil {
		val, err = n.Get(container.Interface())
		if err != nil {
			return Result{}, &CallError{Method: n.Member, Err: err}
		}
	} else {
		val, err = e.ReadMember(container.Interface(), n.Member)
		if err != nil {
			return Result{}, err
		}
	}
	return Ok(e.Marshaller.ToValue(val)), nil
}
