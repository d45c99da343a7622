// Offline renderer - runs a scripted pointer stroke on the software device
// and writes PNG frames.
//
// Usage: go run ./cmd/dotrender -image photo.jpg -frames 120 -every 10 -out frames
package main

import (
	"flag"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"golang.org/x/image/draw"

	"github.com/pthm-cable/dotfield/config"
	"github.com/pthm-cable/dotfield/gpu/soft"
	"github.com/pthm-cable/dotfield/session"
)

// options are the render settings taken from flags.
type options struct {
	out       string
	frames    int
	every     int
	width     int
	height    int
	scale     int
	dt        float32
	workers   int
	outputDir string
	logStats  bool
}

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	imagePath := flag.String("image", "", "Source image (overrides assets.image)")
	outDir := flag.String("out", "frames", "Directory for PNG frames")
	frames := flag.Int("frames", 120, "Frames to simulate")
	every := flag.Int("every", 10, "Write every Nth frame (0 = only the last)")
	width := flag.Int("width", 0, "Surface width (0 = screen.width)")
	height := flag.Int("height", 0, "Surface height (0 = screen.height)")
	scale := flag.Int("scale", 0, "Scale written frames to this width (0 = surface width)")
	dt := flag.Float64("dt", 1.0/60, "Seconds per frame")
	workers := flag.Int("workers", 0, "Software device workers (0 = GOMAXPROCS)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	logStats := flag.Bool("log-stats", false, "Output frame and perf stats via slog")
	flag.Parse()

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()
	if *imagePath != "" {
		cfg.Assets.Image = *imagePath
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Derived.LogLevel}))
	slog.SetDefault(logger)

	err := render(cfg, options{
		out:       *outDir,
		frames:    *frames,
		every:     *every,
		width:     *width,
		height:    *height,
		scale:     *scale,
		dt:        float32(*dt),
		workers:   *workers,
		outputDir: *outputDir,
		logStats:  *logStats,
	}, logger)
	if err != nil {
		logger.Error("render failed", "error", err)
		os.Exit(1)
	}
}

// render runs the scripted stroke and writes the selected frames. The
// session is released on every return path.
func render(cfg *config.Config, o options, logger *slog.Logger) error {
	w, h := cfg.Screen.Width, cfg.Screen.Height
	if o.width > 0 {
		w = o.width
	}
	if o.height > 0 {
		h = o.height
	}

	devOpts := []soft.Option{soft.WithLogger(logger)}
	if o.workers > 0 {
		devOpts = append(devOpts, soft.WithWorkers(o.workers))
	}
	dev := soft.New(w, h, devOpts...)

	sess, err := session.New(dev, cfg, session.Options{
		Logger:    logger,
		OutputDir: o.outputDir,
		LogStats:  o.logStats,
	})
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer sess.Unload()

	if err := os.MkdirAll(o.out, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	logger.Info("starting offline render",
		"width", w,
		"height", h,
		"frames", o.frames,
		"every", o.every,
		"workers", o.workers,
	)

	drv := sess.Driver()
	written := 0
	for i := 0; i < o.frames; i++ {
		x, y := strokePoint(i, o.frames, w, h)
		if i == 0 {
			drv.PointerDown(x, y)
		} else if err := drv.PointerMove(x, y); err != nil {
			return fmt.Errorf("frame %d: pointer move: %w", i, err)
		}
		if err := sess.Update(o.dt); err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}

		last := i == o.frames-1
		if last || (o.every > 0 && i%o.every == 0) {
			path := filepath.Join(o.out, fmt.Sprintf("frame_%05d.png", i))
			if err := writeFrame(path, dev.Snapshot(), o.scale); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
			written++
		}
	}
	drv.PointerUp()

	logger.Info("render complete",
		"frames", drv.Frames(),
		"splats", drv.Splats(),
		"written", written,
		"perf", sess.Perf().Stats(),
	)
	return nil
}

// strokePoint traces a figure-eight across the surface in pixels, origin
// top-left.
func strokePoint(i, n, w, h int) (float32, float32) {
	t := 2 * math.Pi * float64(i) / float64(max(n, 1))
	x := 0.5 + 0.35*math.Sin(t)
	y := 0.5 + 0.25*math.Sin(2*t)
	return float32(x * float64(w)), float32(y * float64(h))
}

func writeFrame(path string, img image.Image, width int) error {
	if width > 0 && width != img.Bounds().Dx() {
		b := img.Bounds()
		h := b.Dy() * width / b.Dx()
		dst := image.NewRGBA(image.Rect(0, 0, width, max(h, 1)))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
		img = dst
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
