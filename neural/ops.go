package neural

import (
	"fmt"
	"math"
)

// Op is a rule operator. The first block of values are binary, the rest unary.
type Op uint8

const (
	OpAdd Op = iota
	OpSub
	OpMul
	OpPow
	OpMax
	OpMin
	OpAtan2

	OpAbs
	OpIdentity
	OpSin
	OpSign
	OpNegate
	OpLog
	OpExp

	numOps
)

// BinaryOps and UnaryOps list the operators valid for each slot kind.
var (
	BinaryOps = []Op{OpAdd, OpSub, OpMul, OpPow, OpMax, OpMin, OpAtan2}
	UnaryOps  = []Op{OpAbs, OpIdentity, OpSin, OpSign, OpNegate, OpLog, OpExp}
)

var opNames = [numOps]string{
	OpAdd:      "add",
	OpSub:      "sub",
	OpMul:      "mul",
	OpPow:      "pow",
	OpMax:      "max",
	OpMin:      "min",
	OpAtan2:    "atan2",
	OpAbs:      "abs",
	OpIdentity: "identity",
	OpSin:      "sin",
	OpSign:     "sign",
	OpNegate:   "negate",
	OpLog:      "log",
	OpExp:      "exp",
}

// IsBinary reports whether the operator takes two arguments.
func (o Op) IsBinary() bool {
	return o <= OpAtan2
}

// Valid reports whether o is a known operator.
func (o Op) Valid() bool {
	return o < numOps
}

func (o Op) String() string {
	if !o.Valid() {
		return fmt.Sprintf("op(%d)", uint8(o))
	}
	return opNames[o]
}

// MarshalText encodes the operator by name.
func (o Op) MarshalText() ([]byte, error) {
	if !o.Valid() {
		return nil, fmt.Errorf("unknown operator %d", uint8(o))
	}
	return []byte(opNames[o]), nil
}

// UnmarshalText decodes an operator name.
func (o *Op) UnmarshalText(text []byte) error {
	for i, name := range opNames {
		if name == string(text) {
			*o = Op(i)
			return nil
		}
	}
	return fmt.Errorf("unknown operator %q", text)
}

// Apply2 evaluates a binary operator. Unary operators applied here act on a.
func (o Op) Apply2(a, b float64) float64 {
	switch o {
	case OpAdd:
		return a + b
	case OpSub:
		return a - b
	case OpMul:
		return a * b
	case OpPow:
		return math.Pow(a, b)
	case OpMax:
		return math.Max(a, b)
	case OpMin:
		return math.Min(a, b)
	case OpAtan2:
		return math.Atan2(a, b)
	}
	return o.Apply1(a)
}

// Apply1 evaluates a unary operator. Binary operators are the identity here.
func (o Op) Apply1(x float64) float64 {
	switch o {
	case OpAbs:
		return math.Abs(x)
	case OpSin:
		return math.Sin(x)
	case OpSign:
		switch {
		case x > 0:
			return 1
		case x < 0:
			return -1
		}
		return 0
	case OpNegate:
		return -x
	case OpLog:
		return math.Log(x)
	case OpExp:
		return math.Exp(x)
	}
	return x
}
