// Package components defines ECS components for the idle wanderers.
package components

// Position is a point in surface UV space, origin bottom-left.
type Position struct {
	X, Y float32
}

// Velocity is a UV-space velocity in units per second.
type Velocity struct {
	X, Y float32
}

// Wander drives an autonomous emitter along a noise-steered path.
type Wander struct {
	NoiseOffset float64 // decorrelates wanderers sampling the same noise field
	Speed       float32 // UV units per second
	Age         float32 // seconds since spawn
}
