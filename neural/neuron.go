// Package neural provides the rule-table controllers ("neurons") attached to
// creature joints.
//
// A neuron has five typed inputs a..e and four operators. It triggers when
// op1(op0(a, b)) > c and then commands an impulse of op3(op2(d, e)).
package neural

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
)

// NumInputs and NumOps are the fixed arity of a neuron.
const (
	NumInputs = 5
	NumOps    = 4
)

// Input slot indices.
const (
	InA = iota
	InB
	InC
	InD
	InE
)

// ErrOperatorSlot is returned when a binary operator sits in a unary slot or
// the other way around.
var ErrOperatorSlot = errors.New("operator does not fit slot")

// InputType selects where an input value comes from.
type InputType uint8

const (
	InputConstant InputType = iota
	InputTime
	InputJointAngle
	InputBlockHeight
	InputGroundContact

	numInputTypes
)

var inputTypeNames = [numInputTypes]string{
	InputConstant:      "constant",
	InputTime:          "time",
	InputJointAngle:    "joint_angle",
	InputBlockHeight:   "block_height",
	InputGroundContact: "ground_contact",
}

func (t InputType) String() string {
	if t >= numInputTypes {
		return fmt.Sprintf("input(%d)", uint8(t))
	}
	return inputTypeNames[t]
}

// MarshalText encodes the input type by name.
func (t InputType) MarshalText() ([]byte, error) {
	if t >= numInputTypes {
		return nil, fmt.Errorf("unknown input type %d", uint8(t))
	}
	return []byte(inputTypeNames[t]), nil
}

// UnmarshalText decodes an input type name.
func (t *InputType) UnmarshalText(text []byte) error {
	for i, name := range inputTypeNames {
		if name == string(text) {
			*t = InputType(i)
			return nil
		}
	}
	return fmt.Errorf("unknown input type %q", text)
}

// Input is one typed neuron input. Value is only read for constants.
type Input struct {
	Type  InputType `json:"type"`
	Value float64   `json:"value,omitempty"`
}

// Const returns a constant input.
func Const(v float64) Input {
	return Input{Type: InputConstant, Value: v}
}

// Time returns an elapsed-simulation-time input.
func Time() Input {
	return Input{Type: InputTime}
}

// Sensor supplies non-constant input values for one block.
type Sensor interface {
	Elapsed() float64
	Sense(t InputType) float64
}

// Neuron is a threshold-gated rule driving one joint.
type Neuron struct {
	Inputs [NumInputs]Input `json:"inputs"`
	Ops    [NumOps]Op       `json:"ops"`
}

// NewTimed returns the default rule shape: fire once elapsed time exceeds
// fireAt, then command impulse.
func NewTimed(fireAt, impulse float64) Neuron {
	return Neuron{
		Inputs: [NumInputs]Input{Time(), Const(0), Const(fireAt), Const(impulse), Const(0)},
		Ops:    [NumOps]Op{OpAdd, OpIdentity, OpAdd, OpIdentity},
	}
}

// NewRandom returns a timed neuron with a firing time in [minSec, maxSec) and
// a random-signed impulse of magnitude at most maxImpulse.
func NewRandom(rng *rand.Rand, minSec, maxSec, maxImpulse float64) Neuron {
	fireAt := minSec + rng.Float64()*(maxSec-minSec)
	impulse := rng.Float64() * maxImpulse
	if rng.Intn(2) == 0 {
		impulse = -impulse
	}
	return NewTimed(fireAt, impulse)
}

func (in Input) String() string {
	if in.Type == InputConstant {
		return fmt.Sprintf("%.3g", in.Value)
	}
	return in.Type.String()
}

// String formats the rule as "op1(op0(a, b)) > c -> op3(op2(d, e))".
func (n Neuron) String() string {
	in, op := n.Inputs, n.Ops
	return fmt.Sprintf("%s(%s(%s, %s)) > %s -> %s(%s(%s, %s))",
		op[1], op[0], in[InA], in[InB], in[InC],
		op[3], op[2], in[InD], in[InE])
}

// Validate checks operator slot kinds: slots 0 and 2 binary, 1 and 3 unary.
func (n *Neuron) Validate() error {
	for i, op := range n.Ops {
		if !op.Valid() {
			return fmt.Errorf("slot %d: %w: unknown operator %d", i, ErrOperatorSlot, uint8(op))
		}
		wantBinary := i%2 == 0
		if op.IsBinary() != wantBinary {
			return fmt.Errorf("slot %d: %w: %s", i, ErrOperatorSlot, op)
		}
	}
	for i, in := range n.Inputs {
		if in.Type >= numInputTypes {
			return fmt.Errorf("input %d: unknown type %d", i, uint8(in.Type))
		}
	}
	return nil
}

// resolve returns the current value of input i.
func (n *Neuron) resolve(i int, s Sensor) float64 {
	in := n.Inputs[i]
	switch in.Type {
	case InputConstant:
		return in.Value
	case InputTime:
		return s.Elapsed()
	}
	return s.Sense(in.Type)
}

// Triggered reports whether op1(op0(a, b)) > c. NaN never triggers.
func (n *Neuron) Triggered(s Sensor) bool {
	y := n.Ops[1].Apply1(n.Ops[0].Apply2(n.resolve(InA, s), n.resolve(InB, s)))
	return y > n.resolve(InC, s)
}

// Output returns op3(op2(d, e)), or 0 when the result is not finite.
func (n *Neuron) Output(s Sensor) float64 {
	v := n.Ops[3].Apply1(n.Ops[2].Apply2(n.resolve(InD, s), n.resolve(InE, s)))
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// Mirror returns the neuron with its output constants negated, so additive
// output tables command the reciprocal impulse.
func (n Neuron) Mirror() Neuron {
	for _, i := range [...]int{InD, InE} {
		if n.Inputs[i].Type == InputConstant {
			n.Inputs[i].Value = -n.Inputs[i].Value
		}
	}
	return n
}

// Perturb adds gaussian noise to one randomly chosen constant input.
// Returns false if the neuron has no constant inputs.
func (n *Neuron) Perturb(rng *rand.Rand, sigma float64) bool {
	var consts [NumInputs]int
	k := 0
	for i, in := range n.Inputs {
		if in.Type == InputConstant {
			consts[k] = i
			k++
		}
	}
	if k == 0 {
		return false
	}
	i := consts[rng.Intn(k)]
	n.Inputs[i].Value += rng.NormFloat64() * sigma
	return true
}
