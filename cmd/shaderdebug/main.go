// Shader debug tool - runs a short scripted stroke through the raylib
// shaders and writes one field or the composited frame to a PNG file.
// With -compare the same script runs on the software device and the
// largest per-texel difference is reported.
//
// Usage: go run ./cmd/shaderdebug -field density -frames 30 -out debug.png -compare
package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"math"
	"os"

	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/floats"

	"github.com/pthm-cable/dotfield/config"
	"github.com/pthm-cable/dotfield/gpu"
	"github.com/pthm-cable/dotfield/gpu/rlgpu"
	"github.com/pthm-cable/dotfield/gpu/soft"
	"github.com/pthm-cable/dotfield/session"
)

var fields = []string{"screen", "density", "velocity", "pressure", "curl"}

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	field := flag.String("field", "screen", "What to dump: screen, density, velocity, pressure, curl")
	outPath := flag.String("out", "debug.png", "Output PNG path")
	width := flag.Int("width", 512, "Render width")
	height := flag.Int("height", 512, "Render height")
	frames := flag.Int("frames", 30, "Frames to simulate before the dump")
	gain := flag.Float64("gain", 1, "Value scale for signed fields")
	compare := flag.Bool("compare", false, "Also run on the software device and report differences")
	flag.Parse()

	if !validField(*field) {
		fmt.Fprintf(os.Stderr, "Unknown field %q (want one of %v)\n", *field, fields)
		os.Exit(1)
	}
	if err := config.Init(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	cfg := config.Cfg()
	cfg.Driver.IdleSeconds = 0

	// Initialize raylib with hidden window
	rl.SetConfigFlags(rl.FlagWindowHidden)
	rl.InitWindow(int32(*width), int32(*height), "Shader Debug")
	defer rl.CloseWindow()

	dev, err := rlgpu.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create device: %v\n", err)
		os.Exit(1)
	}
	sess, err := session.New(dev, cfg, session.Options{Logger: slog.Default()})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start session: %v\n", err)
		os.Exit(1)
	}
	defer sess.Unload()

	var img image.Image
	if *field == "screen" {
		img, err = runScreen(sess, *frames)
	} else {
		if err = run(sess, *frames, nil); err == nil {
			img, err = dumpField(dev, sess, *field, float32(*gain))
		}
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Render failed: %v\n", err)
		os.Exit(1)
	}
	if err := writePNG(*outPath, img); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to export image: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("%s rendered to: %s (%dx%d)\n", *field, *outPath, img.Bounds().Dx(), img.Bounds().Dy())

	if *compare && *field != "screen" {
		diff, err := compareSoft(cfg, dev, sess, *field, *width, *height, *frames)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Compare failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("max |raylib - soft| for %s: %g\n", *field, diff)
	}
}

func validField(f string) bool {
	for _, name := range fields {
		if f == name {
			return true
		}
	}
	return false
}

// script is the stroke both devices replay: a short diagonal drag.
func script(sess *session.Session, i, w, h int) error {
	drv := sess.Driver()
	x := float32(w) * (0.25 + 0.5*float32(i)/30)
	y := float32(h) * (0.75 - 0.5*float32(i)/30)
	if i == 0 {
		drv.PointerDown(x, y)
		return nil
	}
	return drv.PointerMove(x, y)
}

// run steps the session for n frames. frame is called inside each frame
// after the update, while the surface is still bound.
func run(sess *session.Session, n int, frame func(i int)) error {
	w, h := int(rl.GetRenderWidth()), int(rl.GetRenderHeight())
	for i := 0; i < n; i++ {
		if err := script(sess, i, w, h); err != nil {
			return err
		}
		rl.BeginDrawing()
		rl.ClearBackground(rl.White)
		err := sess.Update(1.0 / 60)
		if err == nil && frame != nil {
			frame(i)
		}
		rl.EndDrawing()
		if err != nil {
			return err
		}
	}
	return nil
}

func runScreen(sess *session.Session, n int) (image.Image, error) {
	var shot *rl.Image
	err := run(sess, max(n, 1), func(i int) {
		if i == max(n, 1)-1 {
			shot = rl.LoadImageFromScreen()
		}
	})
	if err != nil {
		return nil, err
	}
	defer rl.UnloadImage(shot)
	return shot.ToImage(), nil
}

func fieldTexture(sess *session.Session, field string) gpu.Texture {
	s := sess.Solver()
	switch field {
	case "velocity":
		return s.VelocityTexture()
	case "pressure":
		return s.PressureTexture()
	case "curl":
		return s.CurlTexture()
	default:
		return s.DensityTexture()
	}
}

func dumpField(dev gpu.Device, sess *session.Session, field string, gain float32) (image.Image, error) {
	tex := fieldTexture(sess, field)
	px, err := dev.ReadPixels(tex)
	if err != nil {
		return nil, err
	}
	return fieldImage(px, tex.Width(), tex.Height(), tex.Format().Channels, field == "density", gain), nil
}

// fieldImage maps texel values to colors, top row first. Unsigned fields
// are clamped; signed fields map zero to mid gray.
func fieldImage(px []float32, w, h, ch int, unsigned bool, gain float32) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	conv := func(v float32) uint8 {
		if !unsigned {
			v = 0.5 + 0.5*v*gain
		}
		return uint8(255*min(max(v, 0), 1) + 0.5)
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := (y*w + x) * ch
			c := color.RGBA{A: 255}
			c.R = conv(px[i])
			if ch > 1 {
				c.G = conv(px[i+1])
			}
			if ch > 2 {
				c.B = conv(px[i+2])
			}
			img.SetRGBA(x, h-1-y, c)
		}
	}
	return img
}

// compareSoft replays the script on the software device and returns the
// largest absolute texel difference for field.
func compareSoft(cfg *config.Config, dev gpu.Device, sess *session.Session, field string, w, h, n int) (float64, error) {
	ref := soft.New(w, h)
	refSess, err := session.New(ref, cfg, session.Options{Logger: slog.Default()})
	if err != nil {
		return 0, err
	}
	defer refSess.Unload()
	for i := 0; i < n; i++ {
		if err := script(refSess, i, w, h); err != nil {
			return 0, err
		}
		if err := refSess.Update(1.0 / 60); err != nil {
			return 0, err
		}
	}

	got, err := dev.ReadPixels(fieldTexture(sess, field))
	if err != nil {
		return 0, err
	}
	want, err := ref.ReadPixels(fieldTexture(refSess, field))
	if err != nil {
		return 0, err
	}
	if len(got) != len(want) {
		return 0, fmt.Errorf("texel count %d vs %d", len(got), len(want))
	}
	a := make([]float64, len(got))
	b := make([]float64, len(want))
	for i := range got {
		a[i], b[i] = float64(got[i]), float64(want[i])
	}
	return floats.Distance(a, b, math.Inf(1)), nil
}

func writePNG(path string, img image.Image) error {
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
