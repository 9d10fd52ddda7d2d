package evaluator

import (
	"errors"
	"github.com/funvibe/exprassert/internal/ast"
	"reflect"
	"strings"
)

var errDivisionByZero = errors.New("division by zero")

func (e *Evaluator) evalUnary(n *ast.Unary, env *Environment) (Result, error) {
	r, err := e.Eval(n.Operand, env)
	if err != nil {
		return Result{}, err
	}

	switch n.Op {
	case ast.OpNot:
		return r.Not()
	case ast.OpNegate:
		if r.IsNullChain() {
			return r, nil
		}
		switch v := r.Object().(type) {
		case *Integer:
			return Ok(&Integer{Value: -v.Value}), nil
		case *Float:
			return Ok(&Float{Value: -v.Value}), nil
		}
		return Result{}, newConfigError("cannot negate %s", typeNameOf(r.Object().Interface()))
	}
	return Result{}, newConfigError("unknown unary operator %d", n.Op)
}

func (e *Evaluator) evalBinary(n *ast.Binary, env *Environment) (Result, error) {
	if n.Op == ast.OpAnd || n.Op == ast.OpOr {
		return e.evalLogical(n, env)
	}

	left, err := e.Eval(n.Left, env)
	if err != nil {
		return Result{}, err
	}
	if left.IsNullChain() {
		return left, nil
	}
	right, err := e.Eval(n.Right, env)
	if err != nil {
		return Result{}, err
	}
	if right.IsNullChain() {
		return right, nil
	}

	res, err := e.applyBinary(n.Op, left.Object(), right.Object())
	if err != nil {
		return Result{}, err
	}
	return Ok(res), nil
}

// evalLogical short-circuits && and ||.
func (e *Evaluator) evalLogical(n *ast.Binary, env *Environment) (Result, error) {
	left, err := e.Eval(n.Left, env)
	if err != nil {
		return Result{}, err
	}
	if left.IsNullChain() {
		return left, nil
	}
	lb, err := left.Bool()
	if err != nil {
		return Result{}, err
	}
	if n.Op == ast.OpAnd && !lb {
		return Ok(FALSE), nil
	}
	if n.Op == ast.OpOr && lb {
		return Ok(TRUE), nil
	}

	right, err := e.Eval(n.Right, env)
	if err != nil {
		return Result{}, err
	}
	if right.IsNullChain() {
		return right, nil
	}
	rb, err := right.Bool()
	if err != nil {
		return Result{}, err
	}
	return Ok(nativeBoolToBooleanObject(rb)), nil
}

func (e *Evaluator) applyBinary(op ast.BinaryOp, a, b Object) (Object, error) {
	switch op {
	case ast.OpEq:
		return nativeBoolToBooleanObject(ObjectsEqual(a, b)), nil
	case ast.OpNotEq:
		return nativeBoolToBooleanObject(!ObjectsEqual(a, b)), nil
	case ast.OpGt, ast.OpGe, ast.OpLt, ast.OpLe:
		c, err := CompareObjects(a, b)
		if err != nil {
			return nil, err
		}
		switch op {
		case ast.OpGt:
			return nativeBoolToBooleanObject(c > 0), nil
		case ast.OpGe:
			return nativeBoolToBooleanObject(c >= 0), nil
		case ast.OpLt:
			return nativeBoolToBooleanObject(c < 0), nil
		default:
			return nativeBoolToBooleanObject(c <= 0), nil
		}
	case ast.OpBitAnd, ast.OpBitOr:
		if ab, ok := a.(*Boolean); ok {
			if bb, ok := b.(*Boolean); ok {
				if op == ast.OpBitAnd {
					return nativeBoolToBooleanObject(ab.Value && bb.Value), nil
				}
				return nativeBoolToBooleanObject(ab.Value || bb.Value), nil
			}
		}
		if ai, ok := a.(*Integer); ok {
			if bi, ok := b.(*Integer); ok {
				if op == ast.OpBitAnd {
					return &Integer{Value: ai.Value & bi.Value}, nil
				}
				return &Integer{Value: ai.Value | bi.Value}, nil
			}
		}
	case ast.OpAdd:
		if as, ok := a.(*String); ok {
			if bs, ok := b.(*String); ok {
				return &String{Value: as.Value + bs.Value}, nil
			}
		}
		return arithmetic(op, a, b)
	case ast.OpSub, ast.OpMul, ast.OpDiv, ast.OpMod:
		return arithmetic(op, a, b)
	}
	return nil, newConfigError("operator %s is not defined for %s and %s",
		op.Symbol(), typeNameOf(a.Interface()), typeNameOf(b.Interface()))
}

func arithmetic(op ast.BinaryOp, a, b Object) (Object, error) {
	ai, aInt := a.(*Integer)
	bi, bInt := b.(*Integer)
	if aInt && bInt {
		switch op {
		case ast.OpAdd:
			return &Integer{Value: ai.Value + bi.Value}, nil
		case ast.OpSub:
			return &Integer{Value: ai.Value - bi.Value}, nil
		case ast.OpMul:
			return &Integer{Value: ai.Value * bi.Value}, nil
		case ast.OpDiv, ast.OpMod:
			if bi.Value == 0 {
				return nil, &CallError{Method: op.Symbol(), Err: errDivisionByZero}
			}
			if op == ast.OpDiv {
				return &Integer{Value: ai.Value / bi.Value}, nil
			}
			return &Integer{Value: ai.Value % bi.Value}, nil
		}
	}

	af, aNum := toFloat(a)
	bf, bNum := toFloat(b)
	if !aNum || !bNum || op == ast.OpMod {
		return nil, newConfigError("operator %s is not defined for %s and %s",
			op.Symbol(), typeNameOf(a.Interface()), typeNameOf(b.Interface()))
	}
	switch op {
	case ast.OpAdd:
		return &Float{Value: af + bf}, nil
	case ast.OpSub:
		return &Float{Value: af - bf}, nil
	case ast.OpMul:
		return &Float{Value: af * bf}, nil
	default:
		return &Float{Value: af / bf}, nil
	}
}

func toFloat(o Object) (float64, bool) {
	switch v := o.(type) {
	case *Integer:
		return float64(v.Value), true
	case *Float:
		return v.Value, true
	}
	return 0, false
}

// CompareObjects orders two values: numbers across Go kinds, strings, and
// host values with a Compare(T) int method such as time.Time.
func CompareObjects(a, b Object) (int, error) {
	if au, bu, ok := unsignedPair(a, b); ok {
		switch {
		case au < bu:
			return -1, nil
		case au > bu:
			return 1, nil
		}
		return 0, nil
	}
	if ai, ok := a.(*Integer); ok {
		if bi, ok := b.(*Integer); ok {
			switch {
			case ai.Value < bi.Value:
				return -1, nil
			case ai.Value > bi.Value:
				return 1, nil
			}
			return 0, nil
		}
	}
	if af, ok := toFloat(a); ok {
		if bf, ok := toFloat(b); ok {
			switch {
			case af < bf:
				return -1, nil
			case af > bf:
				return 1, nil
			}
			return 0, nil
		}
	}
	if as, ok := a.(*String); ok {
		if bs, ok := b.(*String); ok {
			return strings.Compare(as.Value, bs.Value), nil
		}
	}

	av, bv := reflect.ValueOf(a.Interface()), reflect.ValueOf(b.Interface())
	if av.IsValid() && bv.IsValid() {
		if m := av.MethodByName("Compare"); m.IsValid() {
			mt := m.Type()
			if mt.NumIn() == 1 && mt.NumOut() == 1 && mt.Out(0).Kind() == reflect.Int && bv.Type().AssignableTo(mt.In(0)) {
				return int(m.Call([]reflect.Value{bv})[0].Int()), nil
			}
		}
	}
	return 0, newConfigError("cannot order %s and %s", typeNameOf(a.Interface()), typeNameOf(b.Interface()))
}
