package driver

import (
	"errors"
	"math"
	"testing"

	"github.com/pthm-cable/dotfield/gpu"
	"github.com/pthm-cable/dotfield/telemetry"
)

type splatCall struct{ x, y, dx, dy float32 }

type fakeSolver struct {
	splats []splatCall
	steps  []float32
	err    error
}

func (f *fakeSolver) Splat(x, y, dx, dy float32) error {
	f.splats = append(f.splats, splatCall{x, y, dx, dy})
	return f.err
}

func (f *fakeSolver) Step(dt float32) error {
	f.steps = append(f.steps, dt)
	return nil
}

func (f *fakeSolver) DensityTexture() gpu.Texture { return nil }

type fakeCompositor struct {
	times []float32
}

func (f *fakeCompositor) Render(_ gpu.Texture, elapsed float32) error {
	f.times = append(f.times, elapsed)
	return nil
}

type fakeSurface struct{ w, h int }

func (f *fakeSurface) SurfaceSize() (int, int) { return f.w, f.h }
func (f *fakeSurface) Resize(w, h int)         { f.w, f.h = w, h }

func newTestDriver(t *testing.T, cfg Config) (*Driver, *fakeSolver, *fakeCompositor, *fakeSurface) {
	t.Helper()
	s := &fakeSolver{}
	c := &fakeCompositor{}
	surf := &fakeSurface{w: 200, h: 100}
	d, err := New(surf, s, c, cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return d, s, c, surf
}

func near(a, b float32) bool { return math.Abs(float64(a-b)) < 1e-5 }

func TestTickClampsDT(t *testing.T) {
	d, s, c, _ := newTestDriver(t, DefaultConfig())

	for _, dt := range []float32{0.010, 0.1, -1} {
		if err := d.Tick(dt); err != nil {
			t.Fatalf("Tick(%v): %v", dt, err)
		}
	}

	want := []float32{0.010, 0.016, 0}
	for i, got := range s.steps {
		if !near(got, want[i]) {
			t.Errorf("step %d dt = %v, want %v", i, got, want[i])
		}
	}
	// The animation clock uses the unclamped dt.
	if !near(c.times[1], 0.11) {
		t.Errorf("elapsed after second tick = %v, want 0.11", c.times[1])
	}
	if d.Frames() != 3 {
		t.Errorf("Frames = %d, want 3", d.Frames())
	}
}

func TestPointerTranslation(t *testing.T) {
	d, s, _, _ := newTestDriver(t, DefaultConfig())

	if err := d.PointerMove(0, 0); err != nil {
		t.Fatal(err)
	}
	if len(s.splats) != 0 {
		t.Fatalf("first move splatted: %+v", s.splats)
	}
	if err := d.PointerMove(20, 10); err != nil {
		t.Fatal(err)
	}
	if len(s.splats) != 1 {
		t.Fatalf("got %d splats, want 1", len(s.splats))
	}
	got := s.splats[0]
	// x = 20/200, y = 1 - 10/100; deltas scaled by 10 with Y up.
	if !near(got.x, 0.1) || !near(got.y, 0.9) || !near(got.dx, 1) || !near(got.dy, -1) {
		t.Errorf("splat = %+v, want {0.1 0.9 1 -1}", got)
	}
}

func TestPointerThreshold(t *testing.T) {
	tests := []struct {
		name   string
		to     [2]float32
		splats int
	}{
		{"no motion", [2]float32{100, 50}, 0},
		{"below threshold", [2]float32{100.001, 50}, 0},
		{"horizontal", [2]float32{101, 50}, 1},
		{"vertical", [2]float32{100, 49}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, s, _, _ := newTestDriver(t, DefaultConfig())
			d.PointerDown(100, 50)
			if err := d.PointerMove(tt.to[0], tt.to[1]); err != nil {
				t.Fatal(err)
			}
			if len(s.splats) != tt.splats {
				t.Errorf("splats = %d, want %d", len(s.splats), tt.splats)
			}
		})
	}
}

func TestPointerDownResetsPrevious(t *testing.T) {
	d, s, _, _ := newTestDriver(t, DefaultConfig())

	d.PointerDown(10, 10)
	_ = d.PointerMove(12, 10)
	d.PointerUp()
	d.PointerDown(150, 80)
	_ = d.PointerMove(150, 80)

	if len(s.splats) != 1 {
		t.Fatalf("splats = %d, want 1", len(s.splats))
	}
}

func TestSplatErrorPropagates(t *testing.T) {
	d, s, _, _ := newTestDriver(t, DefaultConfig())
	s.err = gpu.ErrReleased

	d.PointerDown(0, 0)
	if err := d.PointerMove(50, 50); !errors.Is(err, gpu.ErrReleased) {
		t.Errorf("PointerMove error = %v, want ErrReleased", err)
	}
}

func TestIdleWanderers(t *testing.T) {
	cfg := DefaultConfig()
	cfg.IdleSeconds = 0.05
	cfg.Wanderers = 2
	d, s, _, _ := newTestDriver(t, cfg)

	for i := 0; i < 10; i++ {
		if err := d.Tick(0.016); err != nil {
			t.Fatal(err)
		}
	}
	if d.Wanderers() != 2 {
		t.Fatalf("Wanderers = %d, want 2", d.Wanderers())
	}
	if len(s.splats) == 0 {
		t.Fatal("wanderers produced no splats")
	}
	for _, sp := range s.splats {
		if sp.x < 0 || sp.x > 1 || sp.y < 0 || sp.y > 1 {
			t.Errorf("wanderer splat outside the surface: %+v", sp)
		}
	}

	d.PointerDown(10, 10)
	if d.Wanderers() != 0 {
		t.Errorf("Wanderers after input = %d, want 0", d.Wanderers())
	}
}

func TestWanderersDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.IdleSeconds = 0
	d, _, _, _ := newTestDriver(t, cfg)

	for i := 0; i < 100; i++ {
		_ = d.Tick(0.016)
	}
	if d.Wanderers() != 0 {
		t.Errorf("Wanderers = %d, want 0", d.Wanderers())
	}
}

func TestResizeUpdatesSurface(t *testing.T) {
	d, _, _, surf := newTestDriver(t, DefaultConfig())

	d.Resize(640, 480)
	if surf.w != 640 || surf.h != 480 {
		t.Errorf("surface = %dx%d, want 640x480", surf.w, surf.h)
	}
}

func TestPerfPhases(t *testing.T) {
	pc := telemetry.NewPerfCollector(4)
	s := &fakeSolver{}
	d, err := New(&fakeSurface{w: 10, h: 10}, s, &fakeCompositor{}, DefaultConfig(), WithPerf(pc))
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Tick(0.016); err != nil {
		t.Fatal(err)
	}
	stats := pc.Stats()
	if _, ok := stats.PhaseAvg[telemetry.PhaseInput]; !ok {
		t.Error("input phase not recorded")
	}
	if _, ok := stats.PhaseAvg[telemetry.PhaseComposite]; !ok {
		t.Error("composite phase not recorded")
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxDT = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for zero max_dt")
	}
	if _, err := New(&fakeSurface{}, &fakeSolver{}, &fakeCompositor{}, cfg); err == nil {
		t.Error("New accepted invalid config")
	}
}
