package session

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pthm-cable/dotfield/config"
	"github.com/pthm-cable/dotfield/fluid"
	"github.com/pthm-cable/dotfield/gpu/soft"
)

func smallConfig() *config.Config {
	cfg := config.Default()
	cfg.Fluid.SimRes = 16
	cfg.Fluid.DyeRes = 32
	cfg.Fluid.PressureIterations = 2
	cfg.Driver.IdleSeconds = 0
	cfg.Telemetry.StatsEveryFrames = 1
	cfg.Telemetry.PerfLogFrames = 2
	return cfg
}

func newTestSession(t *testing.T, cfg *config.Config, opts Options) (*Session, *soft.Device) {
	t.Helper()
	dev := soft.New(64, 48, soft.WithWorkers(2))
	s, err := New(dev, cfg, opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(s.Unload)
	return s, dev
}

func writePNG(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 40, G: 90, B: 160, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "src.png")
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestPlaceholderImage(t *testing.T) {
	s, dev := newTestSession(t, smallConfig(), Options{})
	if !s.UsingPlaceholder() {
		t.Error("empty image path did not select the placeholder")
	}
	if err := s.Update(0.016); err != nil {
		t.Fatalf("Update: %v", err)
	}

	// The placeholder is dark, so some tiles must carry dots.
	snap := dev.Snapshot()
	var nonWhite int
	for i := 0; i < len(snap.Pix); i += 4 {
		if snap.Pix[i] != 255 || snap.Pix[i+1] != 255 || snap.Pix[i+2] != 255 {
			nonWhite++
		}
	}
	if nonWhite == 0 {
		t.Error("frame is blank")
	}
}

func TestImageFromFile(t *testing.T) {
	cfg := smallConfig()
	cfg.Assets.Image = writePNG(t, 8, 8)
	s, _ := newTestSession(t, cfg, Options{})
	if s.UsingPlaceholder() {
		t.Error("valid image replaced by placeholder")
	}
}

func TestMissingAtlasKeepsGenerated(t *testing.T) {
	cfg := smallConfig()
	cfg.Assets.Pattern = filepath.Join(t.TempDir(), "missing.png")
	cfg.Assets.AltPattern = filepath.Join(t.TempDir(), "missing.png")
	s, _ := newTestSession(t, cfg, Options{})
	if err := s.Update(0.016); err != nil {
		t.Fatalf("Update: %v", err)
	}
}

func TestPointerStrokeAddsDensity(t *testing.T) {
	s, _ := newTestSession(t, smallConfig(), Options{})
	d := s.Driver()

	d.PointerDown(10, 24)
	for x := float32(12); x < 50; x += 4 {
		if err := d.PointerMove(x, 24); err != nil {
			t.Fatalf("PointerMove: %v", err)
		}
	}
	d.PointerUp()
	if err := s.Update(0.016); err != nil {
		t.Fatalf("Update: %v", err)
	}

	stats, err := s.Sample()
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if stats.Splats == 0 || stats.DensityTotal <= 0 {
		t.Errorf("stats = %+v, want splats and density", stats)
	}
	if stats.VelocityMax <= 0 {
		t.Errorf("velocity max = %v, want > 0", stats.VelocityMax)
	}
}

func TestTelemetryOutput(t *testing.T) {
	dir := t.TempDir()
	s, _ := newTestSession(t, smallConfig(), Options{OutputDir: dir})
	for i := 0; i < 4; i++ {
		if err := s.Update(0.016); err != nil {
			t.Fatalf("Update: %v", err)
		}
	}
	s.Unload()

	frames, err := os.ReadFile(filepath.Join(dir, "frames.csv"))
	if err != nil {
		t.Fatalf("frames.csv: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(frames)), "\n")
	if len(lines) != 5 {
		t.Errorf("frames.csv has %d lines, want header + 4", len(lines))
	}
	perf, err := os.ReadFile(filepath.Join(dir, "perf.csv"))
	if err != nil {
		t.Fatalf("perf.csv: %v", err)
	}
	if n := len(strings.Split(strings.TrimSpace(string(perf)), "\n")); n != 3 {
		t.Errorf("perf.csv has %d lines, want header + 2", n)
	}
	if _, err := os.Stat(filepath.Join(dir, "config.yaml")); err != nil {
		t.Errorf("config.yaml: %v", err)
	}
}

func TestApplySettings(t *testing.T) {
	s, _ := newTestSession(t, smallConfig(), Options{})

	fc := s.Config().Fluid
	fc.DyeRes *= 2
	if err := s.ApplySettings(fc, s.Config().Pattern); !errors.Is(err, fluid.ErrResolutionChange) {
		t.Errorf("error = %v, want ErrResolutionChange", err)
	}

	fc = s.Config().Fluid
	fc.Curl = 3
	pc := s.Config().Pattern
	pc.DarkMode = true
	if err := s.ApplySettings(fc, pc); err != nil {
		t.Fatalf("ApplySettings: %v", err)
	}
	if s.Config().Fluid.Curl != 3 || !s.Config().Pattern.DarkMode {
		t.Errorf("settings not stored: %+v %+v", s.Config().Fluid, s.Config().Pattern)
	}
	if err := s.ClearFluid(); err != nil {
		t.Errorf("ClearFluid: %v", err)
	}
}

func TestApplySettingsRejectedLeavesSolver(t *testing.T) {
	s, _ := newTestSession(t, smallConfig(), Options{})
	before := s.Solver().Config()

	fc := s.Config().Fluid
	fc.Curl = before.Curl + 7
	pc := s.Config().Pattern
	pc.ImageScale = -1
	if err := s.ApplySettings(fc, pc); err == nil {
		t.Fatal("ApplySettings accepted a negative image scale")
	}
	if got := s.Solver().Config().Curl; got != before.Curl {
		t.Errorf("solver curl = %v after rejected update, want %v", got, before.Curl)
	}
	if got := s.Config().Fluid.Curl; got != s.Solver().Config().Curl {
		t.Errorf("config curl %v drifted from solver curl %v", got, s.Solver().Config().Curl)
	}

	fc = s.Config().Fluid
	fc.SimRes *= 2
	pc = s.Config().Pattern
	pc.DarkMode = !pc.DarkMode
	if err := s.ApplySettings(fc, pc); !errors.Is(err, fluid.ErrResolutionChange) {
		t.Fatalf("error = %v, want ErrResolutionChange", err)
	}
	if s.Compositor().Config().DarkMode != s.Config().Pattern.DarkMode {
		t.Error("compositor changed by a rejected fluid update")
	}
}

func TestNewFailureReleases(t *testing.T) {
	cfg := smallConfig()
	cfg.Driver.MaxDT = -1
	dev := soft.New(32, 32)
	if _, err := New(dev, cfg, Options{}); err == nil {
		t.Fatal("New accepted an invalid driver config")
	}
}

func TestRenderDoesNotAdvance(t *testing.T) {
	s, dev := newTestSession(t, smallConfig(), Options{})
	if err := s.Update(0.016); err != nil {
		t.Fatalf("Update: %v", err)
	}
	frames := s.Driver().Frames()
	draws := dev.Draws()

	if err := s.Render(); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if s.Driver().Frames() != frames {
		t.Errorf("frames advanced to %d", s.Driver().Frames())
	}
	if got := dev.Draws() - draws; got != 1 {
		t.Errorf("Render issued %d draws, want 1", got)
	}
}
