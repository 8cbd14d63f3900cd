package main

import (
	"math"

	"github.com/google/uuid"
)

// Vec3 is a world-space position/rotation/scale triple, encoded on the wire
// as a plain [x, y, z] array.
type Vec3 [3]float64

// DistXZ returns the ground-plane distance between two points. The vertical
// axis is ignored; tag and zone checks are ground-plane mechanics.
func (v Vec3) DistXZ(o Vec3) float64 {
	dx := o[0] - v[0]
	dz := o[2] - v[2]
	return math.Sqrt(dx*dx + dz*dz)
}

// GenerateUUID returns a random UUID string
func GenerateUUID() string {
	return uuid.NewString()
}

// Clamp restricts v to [min, max]
func Clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
