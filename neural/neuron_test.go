package neural

import (
	"encoding/json"
	"errors"
	"math"
	"math/rand"
	"testing"
)

// clock is a Sensor that only knows elapsed time.
type clock struct {
	t      float64
	sensed map[InputType]float64
}

func (c clock) Elapsed() float64          { return c.t }
func (c clock) Sense(t InputType) float64 { return c.sensed[t] }

func TestTimedNeuronFiresAfterThreshold(t *testing.T) {
	n := Neuron{
		Inputs: [NumInputs]Input{Time(), Const(0), Const(5), Const(100), Const(0)},
		Ops:    [NumOps]Op{OpAdd, OpIdentity, OpAdd, OpIdentity},
	}

	tests := []struct {
		elapsed float64
		want    bool
	}{
		{0, false},
		{4.99, false},
		{5, false},
		{5.01, true},
		{60, true},
	}
	for _, tt := range tests {
		if got := n.Triggered(clock{t: tt.elapsed}); got != tt.want {
			t.Errorf("Triggered at t=%v = %v, want %v", tt.elapsed, got, tt.want)
		}
	}

	if out := n.Output(clock{t: 6}); out != 100 {
		t.Errorf("Output = %v, want 100", out)
	}
}

func TestValidateSlots(t *testing.T) {
	good := NewTimed(1, 1)
	if err := good.Validate(); err != nil {
		t.Fatalf("valid neuron rejected: %v", err)
	}

	tests := []struct {
		name string
		ops  [NumOps]Op
	}{
		{"unary in slot 0", [NumOps]Op{OpSin, OpIdentity, OpAdd, OpIdentity}},
		{"binary in slot 1", [NumOps]Op{OpAdd, OpMax, OpAdd, OpIdentity}},
		{"unary in slot 2", [NumOps]Op{OpAdd, OpIdentity, OpExp, OpIdentity}},
		{"binary in slot 3", [NumOps]Op{OpAdd, OpIdentity, OpAdd, OpPow}},
		{"unknown op", [NumOps]Op{numOps, OpIdentity, OpAdd, OpIdentity}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := good
			n.Ops = tt.ops
			if err := n.Validate(); !errors.Is(err, ErrOperatorSlot) {
				t.Errorf("Validate() = %v, want ErrOperatorSlot", err)
			}
		})
	}
}

func TestOperators(t *testing.T) {
	binary := []struct {
		op   Op
		a, b float64
		want float64
	}{
		{OpAdd, 2, 3, 5},
		{OpSub, 2, 3, -1},
		{OpMul, 2, 3, 6},
		{OpPow, 2, 3, 8},
		{OpMax, 2, 3, 3},
		{OpMin, 2, 3, 2},
		{OpAtan2, 1, 1, math.Pi / 4},
	}
	for _, tt := range binary {
		if got := tt.op.Apply2(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("%s(%v, %v) = %v, want %v", tt.op, tt.a, tt.b, got, tt.want)
		}
	}

	unary := []struct {
		op   Op
		x    float64
		want float64
	}{
		{OpAbs, -2, 2},
		{OpIdentity, -2, -2},
		{OpSin, math.Pi / 2, 1},
		{OpSign, -7, -1},
		{OpSign, 0, 0},
		{OpSign, 3, 1},
		{OpNegate, 4, -4},
		{OpLog, math.E, 1},
		{OpExp, 0, 1},
	}
	for _, tt := range unary {
		if got := tt.op.Apply1(tt.x); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("%s(%v) = %v, want %v", tt.op, tt.x, got, tt.want)
		}
	}
}

func TestOutputNonFinite(t *testing.T) {
	n := Neuron{
		Inputs: [NumInputs]Input{Time(), Const(0), Const(0), Const(-1), Const(0)},
		Ops:    [NumOps]Op{OpAdd, OpIdentity, OpAdd, OpLog},
	}
	if out := n.Output(clock{t: 1}); out != 0 {
		t.Errorf("log(-1) output = %v, want 0", out)
	}
}

func TestSensedInputs(t *testing.T) {
	n := Neuron{
		Inputs: [NumInputs]Input{{Type: InputBlockHeight}, Const(0), Const(2), {Type: InputJointAngle}, Const(1)},
		Ops:    [NumOps]Op{OpAdd, OpIdentity, OpMul, OpIdentity},
	}
	s := clock{sensed: map[InputType]float64{InputBlockHeight: 3, InputJointAngle: 0.5}}
	if !n.Triggered(s) {
		t.Error("expected trigger when height 3 > 2")
	}
	if out := n.Output(s); out != 0.5 {
		t.Errorf("Output = %v, want 0.5", out)
	}
}

func TestNewRandomBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		n := NewRandom(rng, 0.5, 5, 20)
		if err := n.Validate(); err != nil {
			t.Fatalf("random neuron invalid: %v", err)
		}
		fireAt := n.Inputs[InC].Value
		if fireAt < 0.5 || fireAt >= 5 {
			t.Fatalf("fire time %v outside [0.5, 5)", fireAt)
		}
		if imp := math.Abs(n.Inputs[InD].Value); imp > 20 {
			t.Fatalf("impulse %v exceeds 20", imp)
		}
	}
}

func TestMirror(t *testing.T) {
	n := NewTimed(2, 7)
	m := n.Mirror()
	if m.Output(clock{t: 3}) != -7 {
		t.Errorf("mirrored output = %v, want -7", m.Output(clock{t: 3}))
	}
	if n.Inputs[InD].Value != 7 {
		t.Error("Mirror modified the receiver")
	}
}

func TestPerturbChangesOneConstant(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	n := NewTimed(2, 7)
	orig := n
	if !n.Perturb(rng, 0.5) {
		t.Fatal("Perturb reported no constants")
	}
	changed := 0
	for i := range n.Inputs {
		if n.Inputs[i] != orig.Inputs[i] {
			changed++
		}
	}
	if changed != 1 {
		t.Errorf("changed %d inputs, want 1", changed)
	}
}

func TestJSONNames(t *testing.T) {
	n := NewTimed(1.5, -3)
	data, err := json.Marshal(n)
	if err != nil {
		t.Fatal(err)
	}
	var back Neuron
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal %s: %v", data, err)
	}
	if back != n {
		t.Errorf("decoded %+v, want %+v", back, n)
	}
}

func TestNeuronString(t *testing.T) {
	n := NewTimed(5, -2.5)
	want := "identity(add(time, 0)) > 5 -> identity(add(-2.5, 0))"
	if got := n.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
