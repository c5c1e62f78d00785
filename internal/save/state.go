package save

import "github.com/go-gl/mathgl/mgl32"

// DefaultDayLength is the length of one day in seconds.
const DefaultDayLength = 600

// Observer is the persisted viewpoint: where the player stands and looks.
type Observer struct {
	Position   mgl32.Vec3
	Yaw, Pitch float32
}

// Calendar tracks the time of day in [0, 1) and the number of elapsed days.
type Calendar struct {
	TimeOfDay float32
	Day       uint32
}

// NewCalendar starts on the morning of day one.
func NewCalendar() Calendar {
	return Calendar{TimeOfDay: 0.25, Day: 1}
}

// Advance moves the clock by dt seconds for a day of dayLength seconds.
func (c *Calendar) Advance(dt, dayLength float32) {
	if dayLength <= 0 || dt <= 0 {
		return
	}
	c.TimeOfDay += dt / dayLength
	for c.TimeOfDay >= 1 {
		c.TimeOfDay--
		c.Day++
	}
}

// IsNight reports the first and last quarter of the day.
func (c Calendar) IsNight() bool {
	return c.TimeOfDay > 0.75 || c.TimeOfDay < 0.25
}

// AmbientLight is 0.1 at night, rising to 1 at noon.
func (c Calendar) AmbientLight() float32 {
	if c.IsNight() {
		return 0.1
	}
	noon := c.TimeOfDay - 0.5
	if noon < 0 {
		noon = -noon
	}
	return 0.3 + (1-noon*2)*0.7
}
