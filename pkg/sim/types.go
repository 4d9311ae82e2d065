package sim

import "math"

// Heading is a yaw in radians wrapped into (-Pi, Pi].
type Heading float64

// HeadingOf wraps r radians.
func HeadingOf(r float64) Heading {
	return Heading(wrapPi(r))
}

// Turn rotates the heading by r radians.
func (h Heading) Turn(r float64) Heading {
	return HeadingOf(float64(h) + r)
}

// Radians returns the heading in radians.
func (h Heading) Radians() float64 {
	return float64(h)
}

func wrapPi(r float64) float64 {
	r = math.Mod(r+math.Pi, 2*math.Pi)
	if r <= 0 {
		r += 2 * math.Pi
	}
	return r - math.Pi
}

// Pose is where the chassis is on the floor, in cm.
type Pose struct {
	X, Y    float64
	Heading Heading
}

// Advance moves dist along the current heading, then turns.
func (p *Pose) Advance(dist, turn float64) {
	if dist != 0 {
		sin, cos := math.Sincos(p.Heading.Radians())
		p.X += dist * cos
		p.Y += dist * sin
	}
	if turn != 0 {
		p.Heading = p.Heading.Turn(turn)
	}
}
