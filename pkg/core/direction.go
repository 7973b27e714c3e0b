package core

import "strings"

// Direction is a scroll or swipe direction.
type Direction string

// Direction values
const (
	DirectionUp    Direction = "up"
	DirectionDown  Direction = "down"
	DirectionLeft  Direction = "left"
	DirectionRight Direction = "right"
)

// ParseDirection parses a direction case-insensitively.
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(strings.ToLower(strings.TrimSpace(s))); d {
	case DirectionUp, DirectionDown, DirectionLeft, DirectionRight:
		return d, nil
	default:
		return "", ErrInvalidDirection.WithMessage("invalid direction: " + s)
	}
}

// Delta returns the signed offset change for moving amount in this direction.
// Right and down are positive; left and up are negative.
func (d Direction) Delta(amount float64) Point {
	switch d {
	case DirectionUp:
		return Point{Y: -amount}
	case DirectionDown:
		return Point{Y: amount}
	case DirectionLeft:
		return Point{X: -amount}
	case DirectionRight:
		return Point{X: amount}
	default:
		return Point{}
	}
}

// Velocity is a swipe speed.
type Velocity string

// Velocity values
const (
	VelocitySlow   Velocity = "slow"
	VelocityMedium Velocity = "medium"
	VelocityFast   Velocity = "fast"
)

// ParseVelocity parses a velocity; anything unrecognized is medium.
func ParseVelocity(s string) Velocity {
	switch v := Velocity(strings.ToLower(strings.TrimSpace(s))); v {
	case VelocitySlow, VelocityMedium, VelocityFast:
		return v
	default:
		return VelocityMedium
	}
}

// Distance returns the scroll distance a swipe at this velocity maps to.
func (v Velocity) Distance() float64 {
	switch v {
	case VelocitySlow:
		return 300
	case VelocityFast:
		return 1200
	default:
		return 600
	}
}
