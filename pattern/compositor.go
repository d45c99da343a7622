// Package pattern renders an image as a grid of halftone dot tiles and
// cross-fades to an alternate pattern wherever the fluid density is high.
package pattern

import (
	"fmt"
	"image"
	"log/slog"

	"github.com/pthm-cable/dotfield/atlas"
	"github.com/pthm-cable/dotfield/gpu"
)

// Config holds the compositor settings.
type Config struct {
	TileSize          float32 `yaml:"tile_size"`
	PatternColumns    int     `yaml:"pattern_columns"`
	AltPatternColumns int     `yaml:"alt_pattern_columns"`

	Saturation float32 `yaml:"saturation"`
	Brightness float32 `yaml:"brightness"`
	Contrast   float32 `yaml:"contrast"`
	Exposure   float32 `yaml:"exposure"`
	DarkMode   bool    `yaml:"dark_mode"`
	ImageScale float32 `yaml:"image_scale"`

	FadeThreshold        float32 `yaml:"fade_threshold"`
	FadeWidth            float32 `yaml:"fade_width"`
	AltPatternOpacity    float32 `yaml:"alt_pattern_opacity"`
	EnableFadeTransition bool    `yaml:"enable_fade_transition"`
	BottomFade           bool    `yaml:"bottom_fade"`
	UseAtlasColors       bool    `yaml:"use_atlas_colors"`

	// DeformStrength is kept for config compatibility; the shading does not
	// read it.
	DeformStrength float32 `yaml:"deform_strength"`
}

// DefaultConfig returns the stock compositor settings.
func DefaultConfig() Config {
	return Config{
		TileSize:          8,
		PatternColumns:    6,
		AltPatternColumns: 6,
		Saturation:        1,
		Contrast:          1,
		ImageScale:        1,
		FadeThreshold:     0.05,
		FadeWidth:         0.1,
		AltPatternOpacity: 1,
		UseAtlasColors:    true,
		DeformStrength:    1,
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch {
	case c.TileSize < 1:
		return fmt.Errorf("pattern: tile_size must be >= 1, got %v", c.TileSize)
	case c.PatternColumns < 1:
		return fmt.Errorf("pattern: pattern_columns must be >= 1, got %d", c.PatternColumns)
	case c.AltPatternColumns < 1:
		return fmt.Errorf("pattern: alt_pattern_columns must be >= 1, got %d", c.AltPatternColumns)
	case c.ImageScale <= 0:
		return fmt.Errorf("pattern: image_scale must be positive, got %v", c.ImageScale)
	case c.EnableFadeTransition && c.FadeWidth <= 0:
		return fmt.Errorf("pattern: fade_width must be positive with the fade transition, got %v", c.FadeWidth)
	case c.AltPatternOpacity < 0 || c.AltPatternOpacity > 1:
		return fmt.Errorf("pattern: alt_pattern_opacity %v outside [0,1]", c.AltPatternOpacity)
	}
	return nil
}

// Grading returns the image adjustment part of the config.
func (c Config) Grading() Grading {
	return Grading{
		Exposure:   c.Exposure,
		Brightness: c.Brightness,
		Contrast:   c.Contrast,
		Saturation: c.Saturation,
	}
}

// Compositor draws the dot pattern to the device surface.
type Compositor struct {
	dev    gpu.Device
	cfg    Config
	logger *slog.Logger

	program gpu.Program

	image     gpu.ImageTexture
	imageSize gpu.Vec2

	atlas        gpu.ImageTexture
	defaultAtlas bool
	altAtlas     gpu.ImageTexture

	frames uint64
}

// Option configures a Compositor.
type Option func(*Compositor)

// WithLogger sets the compositor logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Compositor) { c.logger = l }
}

// New compiles the composite program and uploads a generated dot atlas.
func New(dev gpu.Device, cfg Config, opts ...Option) (*Compositor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Compositor{dev: dev, cfg: cfg, logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}

	prog, err := dev.Compile(gpu.PassComposite)
	if err != nil {
		return nil, fmt.Errorf("pattern: compile composite: %w", err)
	}
	c.program = prog

	if err := c.generateAtlas(); err != nil {
		c.Unload()
		return nil, err
	}
	return c, nil
}

func (c *Compositor) generateAtlas() error {
	img := atlas.DotAtlas(int(c.cfg.TileSize), c.cfg.PatternColumns)
	tex, err := c.upload(img, atlasOptions)
	if err != nil {
		return fmt.Errorf("pattern: default atlas: %w", err)
	}
	if c.atlas != nil {
		c.atlas.Unload()
	}
	c.atlas = tex
	c.defaultAtlas = true
	return nil
}

var (
	imageOptions = gpu.TextureOptions{Filter: gpu.FilterLinear, Wrap: gpu.WrapClamp, FlipY: true}
	atlasOptions = gpu.TextureOptions{Filter: gpu.FilterNearest, Wrap: gpu.WrapRepeat}
)

func (c *Compositor) upload(img image.Image, opts gpu.TextureOptions) (gpu.ImageTexture, error) {
	if img == nil {
		return nil, fmt.Errorf("pattern: nil image")
	}
	return c.dev.NewTexture(img, opts)
}

// SetImage replaces the source image. The previous texture is released.
func (c *Compositor) SetImage(img image.Image) error {
	tex, err := c.upload(img, imageOptions)
	if err != nil {
		return fmt.Errorf("pattern: set image: %w", err)
	}
	if c.image != nil {
		c.image.Unload()
	}
	c.image = tex
	c.imageSize = gpu.Vec2{float32(tex.Width()), float32(tex.Height())}
	c.logger.Debug("pattern image set", "width", tex.Width(), "height", tex.Height())
	return nil
}

// SetPatternAtlas replaces the primary atlas with img split into columns.
func (c *Compositor) SetPatternAtlas(img image.Image, columns int) error {
	if columns < 1 {
		return fmt.Errorf("pattern: atlas columns must be >= 1, got %d", columns)
	}
	tex, err := c.upload(img, atlasOptions)
	if err != nil {
		return fmt.Errorf("pattern: set atlas: %w", err)
	}
	if c.atlas != nil {
		c.atlas.Unload()
	}
	c.atlas = tex
	c.defaultAtlas = false
	c.cfg.PatternColumns = columns
	return nil
}

// SetAltPatternAtlas replaces the alternate atlas with img split into
// columns.
func (c *Compositor) SetAltPatternAtlas(img image.Image, columns int) error {
	if columns < 1 {
		return fmt.Errorf("pattern: alt atlas columns must be >= 1, got %d", columns)
	}
	tex, err := c.upload(img, atlasOptions)
	if err != nil {
		return fmt.Errorf("pattern: set alt atlas: %w", err)
	}
	if c.altAtlas != nil {
		c.altAtlas.Unload()
	}
	c.altAtlas = tex
	c.cfg.AltPatternColumns = columns
	return nil
}

// HasImage reports whether a source image is loaded.
func (c *Compositor) HasImage() bool { return c.image != nil }

// Params builds the composite pass parameters for the current surface.
func (c *Compositor) Params(density gpu.Texture, elapsed float32) gpu.CompositeParams {
	w, h := c.dev.SurfaceSize()
	alt, altCols := c.altAtlas, c.cfg.AltPatternColumns
	if alt == nil {
		alt, altCols = c.atlas, c.cfg.PatternColumns
	}
	return gpu.CompositeParams{
		Image:             c.image,
		Deform:            density,
		PatternAtlas:      c.atlas,
		AltPatternAtlas:   alt,
		Resolution:        gpu.Vec2{float32(w), float32(h)},
		ImageDimensions:   c.imageSize,
		TileSize:          c.cfg.TileSize,
		PatternColumns:    c.cfg.PatternColumns,
		AltPatternColumns: altCols,
		Time:              elapsed,
		Saturation:        c.cfg.Saturation,
		Brightness:        c.cfg.Brightness,
		Contrast:          c.cfg.Contrast,
		Exposure:          c.cfg.Exposure,
		ImageScale:        c.cfg.ImageScale,
		FadeThreshold:     c.cfg.FadeThreshold,
		FadeWidth:         c.cfg.FadeWidth,
		AltPatternOpacity: c.cfg.AltPatternOpacity,
		DarkMode:          c.cfg.DarkMode,
		BottomFade:        c.cfg.BottomFade,
		FadeTransition:    c.cfg.EnableFadeTransition,
		UseAtlasColors:    c.cfg.UseAtlasColors,
	}
}

// Render draws the pattern to the surface, deformed by density. Without a
// source image it does nothing.
func (c *Compositor) Render(density gpu.Texture, elapsed float32) error {
	if c.image == nil {
		return nil
	}
	if err := c.dev.Draw(c.program, c.Params(density, elapsed), nil); err != nil {
		return fmt.Errorf("pattern: composite: %w", err)
	}
	c.frames++
	return nil
}

// Frames returns how many frames have been rendered.
func (c *Compositor) Frames() uint64 { return c.frames }

// SetConfig replaces the settings. The generated atlas is rebuilt when its
// tile size or column count changes; a custom atlas keeps its columns.
func (c *Compositor) SetConfig(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	prev := c.cfg
	if !c.defaultAtlas {
		cfg.PatternColumns = prev.PatternColumns
	}
	if c.altAtlas != nil {
		cfg.AltPatternColumns = prev.AltPatternColumns
	}
	c.cfg = cfg
	if c.defaultAtlas && (cfg.TileSize != prev.TileSize || cfg.PatternColumns != prev.PatternColumns) {
		if err := c.generateAtlas(); err != nil {
			c.cfg = prev
			return err
		}
	}
	return nil
}

// Config returns the active settings.
func (c *Compositor) Config() Config { return c.cfg }

// Unload releases the program and every texture.
func (c *Compositor) Unload() {
	if c.program != nil {
		c.program.Unload()
		c.program = nil
	}
	for _, t := range []*gpu.ImageTexture{&c.image, &c.atlas, &c.altAtlas} {
		if *t != nil {
			(*t).Unload()
			*t = nil
		}
	}
}
