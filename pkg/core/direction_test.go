package core

import (
	"errors"
	"testing"
)

func TestParseDirection(t *testing.T) {
	tests := []struct {
		in       string
		expected Direction
	}{
		{"up", DirectionUp},
		{"DOWN", DirectionDown},
		{" left ", DirectionLeft},
		{"Right", DirectionRight},
	}

	for _, tt := range tests {
		got, err := ParseDirection(tt.in)
		if err != nil {
			t.Errorf("ParseDirection(%q) error: %v", tt.in, err)
			continue
		}
		if got != tt.expected {
			t.Errorf("ParseDirection(%q) = %q, want %q", tt.in, got, tt.expected)
		}
	}
}

func TestParseDirection_Invalid(t *testing.T) {
	_, err := ParseDirection("sideways")
	if !errors.Is(err, ErrInvalidDirection) {
		t.Errorf("ParseDirection(sideways) error = %v, want ErrInvalidDirection", err)
	}
}

func TestDirection_Delta(t *testing.T) {
	tests := []struct {
		d        Direction
		expected Point
	}{
		{DirectionUp, Point{Y: -100}},
		{DirectionDown, Point{Y: 100}},
		{DirectionLeft, Point{X: -100}},
		{DirectionRight, Point{X: 100}},
		{Direction("bogus"), Point{}},
	}

	for _, tt := range tests {
		if got := tt.d.Delta(100); got != tt.expected {
			t.Errorf("%q.Delta(100) = %+v, want %+v", tt.d, got, tt.expected)
		}
	}
}

func TestVelocity_Distance(t *testing.T) {
	tests := []struct {
		in       string
		expected float64
	}{
		{"slow", 300},
		{"medium", 600},
		{"fast", 1200},
		{"FAST", 1200},
		{"", 600},
		{"ludicrous", 600},
	}

	for _, tt := range tests {
		if got := ParseVelocity(tt.in).Distance(); got != tt.expected {
			t.Errorf("ParseVelocity(%q).Distance() = %v, want %v", tt.in, got, tt.expected)
		}
	}
}
