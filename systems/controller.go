// Package systems holds the per-tick creature systems: the rule controller
// and fitness tracking.
package systems

import (
	"math"

	"github.com/pthm-cable/creatures/creature"
)

// ControllerSystem evaluates each block's rule table once per tick and drives
// its joint motor.
type ControllerSystem struct {
	MotorSpeed float64 // rad/s commanded when a rule fires

	// Fired[i] is the index of the rule that fired for block i on the last
	// Update, or -1.
	Fired []int
}

// NewControllerSystem creates a controller commanding motorSpeed on fire.
func NewControllerSystem(motorSpeed float64) *ControllerSystem {
	return &ControllerSystem{MotorSpeed: motorSpeed}
}

// Update runs every non-root block's rules in order. The first rule that
// triggers sets the joint motor and the rest are skipped; a block with no
// triggered rule keeps its previous motor state. Returns the number of
// motor commands issued.
func (s *ControllerSystem) Update(c *creature.Creature, elapsed float64) int {
	g := c.Genome()
	if cap(s.Fired) < c.Len() {
		s.Fired = make([]int, c.Len())
	}
	s.Fired = s.Fired[:c.Len()]

	e := c.Engine()
	commands := 0
	for i := range c.Blocks {
		s.Fired[i] = -1
		if i == 0 {
			continue
		}
		b := &c.Blocks[i]
		sensor := c.Sensor(i, elapsed)
		rules := g.Blocks[i].Neurons
		for j := range rules {
			if !rules[j].Triggered(sensor) {
				continue
			}
			impulse := rules[j].Output(sensor)
			speed := s.MotorSpeed
			if impulse < 0 {
				speed = -speed
			}
			e.SetMotor(b.Joint, true, speed, math.Min(math.Abs(impulse), b.MaxImpulse))
			e.Activate(b.Body)
			s.Fired[i] = j
			commands++
			break
		}
	}
	return commands
}
