package pattern_test

import (
	"image"
	"image/color"
	"testing"

	"github.com/pthm-cable/dotfield/gpu"
	"github.com/pthm-cable/dotfield/gpu/soft"
	"github.com/pthm-cable/dotfield/pattern"
)

func newCompositor(t *testing.T, dev *soft.Device, cfg pattern.Config) *pattern.Compositor {
	t.Helper()
	c, err := pattern.New(dev, cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(c.Unload)
	return c
}

func density(t *testing.T, dev *soft.Device) gpu.Texture {
	t.Helper()
	fb, err := dev.NewFramebuffer(8, 8, gpu.FormatRGBA16F, gpu.FilterLinear)
	if err != nil {
		t.Fatalf("NewFramebuffer: %v", err)
	}
	return fb.Texture()
}

func uniform(w, h int, c color.Color) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*pattern.Config)
		wantErr bool
	}{
		{"defaults", func(*pattern.Config) {}, false},
		{"tiny tile", func(c *pattern.Config) { c.TileSize = 0.5 }, true},
		{"no columns", func(c *pattern.Config) { c.PatternColumns = 0 }, true},
		{"no alt columns", func(c *pattern.Config) { c.AltPatternColumns = 0 }, true},
		{"zero scale", func(c *pattern.Config) { c.ImageScale = 0 }, true},
		{"zero fade width with step", func(c *pattern.Config) { c.FadeWidth = 0 }, false},
		{"zero fade width with smooth", func(c *pattern.Config) { c.FadeWidth = 0; c.EnableFadeTransition = true }, true},
		{"opacity above one", func(c *pattern.Config) { c.AltPatternOpacity = 1.5 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := pattern.DefaultConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRenderWithoutImageIsNoop(t *testing.T) {
	dev := soft.New(32, 32)
	c := newCompositor(t, dev, pattern.DefaultConfig())
	d := density(t, dev)

	before := dev.Draws()
	if err := c.Render(d, 0); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if dev.Draws() != before || c.Frames() != 0 {
		t.Errorf("render without image drew: draws %d -> %d, frames %d", before, dev.Draws(), c.Frames())
	}
	if c.HasImage() {
		t.Error("HasImage before SetImage")
	}
}

func TestRenderDrawsSurface(t *testing.T) {
	dev := soft.New(32, 32)
	c := newCompositor(t, dev, pattern.DefaultConfig())
	if err := c.SetImage(uniform(16, 16, color.NRGBA{R: 128, G: 128, B: 128, A: 255})); err != nil {
		t.Fatalf("SetImage: %v", err)
	}
	if err := c.Render(density(t, dev), 0); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if c.Frames() != 1 {
		t.Errorf("frames = %d, want 1", c.Frames())
	}

	snap := dev.Snapshot()
	gray := 0
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			if r := snap.RGBAAt(x, y).R; r > 200 && r < 250 {
				gray++
			}
		}
	}
	if gray == 0 {
		t.Error("no dot pixels on the surface")
	}
}

func TestAltAtlasFallsBackToPrimary(t *testing.T) {
	dev := soft.New(32, 32)
	c := newCompositor(t, dev, pattern.DefaultConfig())

	p := c.Params(density(t, dev), 0)
	if p.AltPatternAtlas != p.PatternAtlas || p.AltPatternColumns != p.PatternColumns {
		t.Error("alt atlas does not fall back to the primary atlas")
	}

	if err := c.SetAltPatternAtlas(uniform(12, 4, color.White), 3); err != nil {
		t.Fatalf("SetAltPatternAtlas: %v", err)
	}
	p = c.Params(density(t, dev), 0)
	if p.AltPatternAtlas == p.PatternAtlas || p.AltPatternColumns != 3 {
		t.Errorf("alt atlas not applied: columns %d", p.AltPatternColumns)
	}
}

func TestSetConfigRebuildsGeneratedAtlas(t *testing.T) {
	dev := soft.New(32, 32)
	c := newCompositor(t, dev, pattern.DefaultConfig())

	cfg := c.Config()
	cfg.TileSize = 12
	cfg.PatternColumns = 4
	if err := c.SetConfig(cfg); err != nil {
		t.Fatalf("SetConfig: %v", err)
	}
	atlas := c.Params(density(t, dev), 0).PatternAtlas
	if atlas.Width() != 48 || atlas.Height() != 12 {
		t.Errorf("atlas = %dx%d, want 48x12", atlas.Width(), atlas.Height())
	}
}

func TestCustomAtlasKeepsColumns(t *testing.T) {
	dev := soft.New(32, 32)
	c := newCompositor(t, dev, pattern.DefaultConfig())
	if err := c.SetPatternAtlas(uniform(40, 8, color.White), 5); err != nil {
		t.Fatalf("SetPatternAtlas: %v", err)
	}

	cfg := c.Config()
	cfg.PatternColumns = 2
	cfg.Contrast = 1.5
	if err := c.SetConfig(cfg); err != nil {
		t.Fatalf("SetConfig: %v", err)
	}
	got := c.Config()
	if got.PatternColumns != 5 {
		t.Errorf("columns = %d, want the custom atlas's 5", got.PatternColumns)
	}
	if got.Contrast != 1.5 {
		t.Errorf("contrast = %v, want 1.5", got.Contrast)
	}
}

func TestSetAtlasRejectsBadColumns(t *testing.T) {
	dev := soft.New(32, 32)
	c := newCompositor(t, dev, pattern.DefaultConfig())
	if err := c.SetPatternAtlas(uniform(8, 8, color.White), 0); err == nil {
		t.Error("SetPatternAtlas accepted 0 columns")
	}
	if err := c.SetAltPatternAtlas(uniform(8, 8, color.White), -1); err == nil {
		t.Error("SetAltPatternAtlas accepted -1 columns")
	}
	if err := c.SetImage(nil); err == nil {
		t.Error("SetImage accepted nil")
	}
}
