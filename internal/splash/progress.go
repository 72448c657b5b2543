package splash

import "math"

// Progress is a determinate counter that advances by a fixed step and
// clamps at its target.
type Progress struct {
	value  float64
	step   float64
	target float64
}

// NewProgress creates a counter at zero.
func NewProgress(step, target float64) *Progress {
	return &Progress{step: step, target: target}
}

// Advance adds one step, clamping at the target, and returns the new value.
func (p *Progress) Advance() float64 {
	p.value = math.Min(p.value+p.step, p.target)
	return p.value
}

// Value returns the current value.
func (p *Progress) Value() float64 { return p.value }

// Done reports whether the target has been reached.
func (p *Progress) Done() bool { return p.value >= p.target }

// Percent returns the completed fraction in [0, 1].
func (p *Progress) Percent() float64 {
	if p.target <= 0 {
		return 1
	}
	return p.value / p.target
}

// Ticks returns how many advances it takes to go from zero to the target.
func (p *Progress) Ticks() int {
	if p.step <= 0 {
		return 0
	}
	return int(math.Ceil(p.target / p.step))
}
