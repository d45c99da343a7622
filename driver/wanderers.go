package driver

import (
	"math"
	"math/rand"

	"github.com/mlange-42/ark/ecs"
	"github.com/ojrac/opensimplex-go"

	"github.com/pthm-cable/dotfield/components"
)

const (
	// wanderTurnRate is how fast the steering noise is traversed per second.
	wanderTurnRate = 0.35
	// wanderMargin keeps wanderers away from the walls.
	wanderMargin = 0.08
)

// move is a pending pointer motion in UV space.
type move struct {
	x, y, dx, dy float32
}

// wanderers is a small ECS world of autonomous emitters.
type wanderers struct {
	world  *ecs.World
	mapper *ecs.Map3[components.Position, components.Velocity, components.Wander]
	filter *ecs.Filter3[components.Position, components.Velocity, components.Wander]
	noise  opensimplex.Noise
	rng    *rand.Rand
	count  int
	moves  []move
}

func newWanderers(seed int64) *wanderers {
	world := ecs.NewWorld()
	return &wanderers{
		world:  world,
		mapper: ecs.NewMap3[components.Position, components.Velocity, components.Wander](world),
		filter: ecs.NewFilter3[components.Position, components.Velocity, components.Wander](world),
		noise:  opensimplex.New(seed),
		rng:    rand.New(rand.NewSource(seed)),
	}
}

// Count returns the number of live wanderers.
func (w *wanderers) Count() int { return w.count }

// spawn adds n wanderers at random interior positions.
func (w *wanderers) spawn(n int, speed float32) {
	for i := 0; i < n; i++ {
		span := float32(1 - 2*wanderMargin)
		pos := components.Position{
			X: wanderMargin + w.rng.Float32()*span,
			Y: wanderMargin + w.rng.Float32()*span,
		}
		vel := components.Velocity{}
		wd := components.Wander{
			NoiseOffset: w.rng.Float64() * 1000,
			Speed:       speed * (0.75 + 0.5*w.rng.Float32()),
		}
		w.mapper.NewEntity(&pos, &vel, &wd)
		w.count++
	}
}

// clear removes every wanderer.
func (w *wanderers) clear() {
	if w.count == 0 {
		return
	}
	var toRemove []ecs.Entity
	query := w.filter.Query()
	for query.Next() {
		toRemove = append(toRemove, query.Entity())
	}
	for _, e := range toRemove {
		w.mapper.Remove(e)
	}
	w.count = 0
}

// update advances every wanderer by dt and returns the UV motions they
// made. The returned slice is reused by the next call.
func (w *wanderers) update(dt float32) []move {
	w.moves = w.moves[:0]
	if dt <= 0 {
		return w.moves
	}

	query := w.filter.Query()
	for query.Next() {
		pos, vel, wd := query.Get()
		wd.Age += dt

		heading := w.noise.Eval2(float64(wd.Age)*wanderTurnRate, wd.NoiseOffset) * 2 * math.Pi
		vel.X = float32(math.Cos(heading)) * wd.Speed
		vel.Y = float32(math.Sin(heading)) * wd.Speed

		x := pos.X + vel.X*dt
		y := pos.Y + vel.Y*dt
		// Reflect off the margins.
		if x < wanderMargin || x > 1-wanderMargin {
			vel.X = -vel.X
			x = pos.X + vel.X*dt
		}
		if y < wanderMargin || y > 1-wanderMargin {
			vel.Y = -vel.Y
			y = pos.Y + vel.Y*dt
		}

		x = min(max(x, wanderMargin), 1-wanderMargin)
		y = min(max(y, wanderMargin), 1-wanderMargin)

		w.moves = append(w.moves, move{x: x, y: y, dx: x - pos.X, dy: y - pos.Y})
		pos.X, pos.Y = x, y
	}
	return w.moves
}
