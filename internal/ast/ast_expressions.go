package ast

// BinaryOp is an infix operator.
type BinaryOp int

const (
	OpEq BinaryOp = iota
	OpNotEq
	OpGt
	OpGe
	OpLt
	OpLe
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpAnd
	OpOr
	OpBitAnd
	OpBitOr
)

var binarySymbols = map[BinaryOp]string{
	OpEq:     "==",
	OpNotEq:  "!=",
	OpGt:     ">",
	OpGe:     ">=",
	OpLt:     "<",
	OpLe:     "<=",
	OpAdd:    "+",
	OpSub:    "-",
	OpMul:    "*",
	OpDiv:    "/",
	OpMod:    "%",
	OpAnd:    "&&",
	OpOr:     "||",
	OpBitAnd: "&",
	OpBitOr:  "|",
}

// Symbol returns the operator as written in rendered predicates.
func (op BinaryOp) Symbol() string {
	if s, ok := binarySymbols[op]; ok {
		return s
	}
	return "?"
}

func (op BinaryOp) String() string { return op.Symbol() }

// IsComparison reports whether op yields a bool from two ordered or equatable operands.
func (op BinaryOp) IsComparison() bool {
	switch op {
	case OpEq, OpNotEq, OpGt, OpGe, OpLt, OpLe:
		return true
	}
	return false
}

// Mirror returns the operator that holds with the operands swapped.
func (op BinaryOp) Mirror() BinaryOp {
	switch op {
	case OpGt:
		return OpLt
	case OpGe:
		return OpLe
	case OpLt:
		return OpGt
	case OpLe:
		return OpGe
	}
	return op
}

// ParseBinaryOp maps a rendered symbol back to its operator.
func ParseBinaryOp(symbol string) (BinaryOp, bool) {
	for op, s := range binarySymbols {
		if s == symbol {
			return op, true
		}
	}
	return 0, false
}

// UnaryOp is a prefix operator.
type UnaryOp int

const (
	OpNot UnaryOp = iota
	OpNegate
)

// Symbol returns the operator as written in rendered predicates.
func (op UnaryOp) Symbol() string {
	if op == OpNegate {
		return "-"
	}
	return "!"
}

func (op UnaryOp) String() string { return op.Symbol() }

// ReferencesParameter reports whether e reads a parameter that is not bound
// by a lambda inside e itself, i.e. whether its value depends on the subject.
func ReferencesParameter(e Expression) bool {
	return referencesFree(e, nil)
}

func referencesFree(e Expression, bound map[string]bool) bool {
	switch n := e.(type) {
	case nil:
		return false
	case *Literal:
		return false
	case *Parameter:
		return !bound[n.Name]
	case *MemberAccess:
		return referencesFree(n.Target, bound)
	case *MethodCall:
		if referencesFree(n.Target, bound) {
			return true
		}
		for _, a := range n.Args {
			if referencesFree(a, bound) {
				return true
			}
		}
		return false
	case *Unary:
		return referencesFree(n.Operand, bound)
	case *Binary:
		return referencesFree(n.Left, bound) || referencesFree(n.Right, bound)
	case *Lambda:
		inner := make(map[string]bool, len(bound)+len(n.Params))
		for k := range bound {
			inner[k] = true
		}
		for _, p := range n.Params {
			inner[p] = true
		}
		return referencesFree(n.Body, inner)
	case *Construct:
		for _, a := range n.Args {
			if referencesFree(a, bound) {
				return true
			}
		}
		return false
	case *MemberInit:
		if n.Construct != nil && referencesFree(n.Construct, bound) {
			return true
		}
		for _, b := range n.Bindings {
			if referencesFree(b.Value, bound) {
				return true
			}
		}
		return false
	}
	return false
}
