package main

import (
	"flag"
	"log/slog"
	"os"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/dotfield/config"
	"github.com/pthm-cable/dotfield/viewer"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	imagePath := flag.String("image", "", "Source image (overrides assets.image)")
	patternPath := flag.String("pattern", "", "Pattern atlas image (overrides assets.pattern)")
	altPatternPath := flag.String("alt-pattern", "", "Alternate pattern atlas image (overrides assets.alt_pattern)")
	dark := flag.Bool("dark", false, "Render in dark mode")
	logLevel := flag.String("log-level", "", "Log level: debug, info, warn, error (empty = use config)")
	logStats := flag.Bool("log-stats", false, "Output frame and perf stats via slog")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")

	flag.Parse()

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	if *imagePath != "" {
		cfg.Assets.Image = *imagePath
	}
	if *patternPath != "" {
		cfg.Assets.Pattern = *patternPath
	}
	if *altPatternPath != "" {
		cfg.Assets.AltPattern = *altPatternPath
	}
	if *dark {
		cfg.Pattern.DarkMode = true
	}

	level := cfg.Derived.LogLevel
	if *logLevel != "" {
		if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
			slog.Error("invalid log level", "level", *logLevel, "error", err)
			os.Exit(1)
		}
	}

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	rl.SetConfigFlags(rl.FlagWindowResizable | rl.FlagMsaa4xHint)
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), cfg.Screen.Title)
	defer rl.CloseWindow()

	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	v, err := viewer.New(cfg, viewer.Options{
		Logger:    logger,
		OutputDir: *outputDir,
		LogStats:  *logStats,
	})
	if err != nil {
		logger.Error("failed to start viewer", "error", err)
		os.Exit(1)
	}
	defer v.Unload()

	logger.Info("viewer started",
		"width", cfg.Screen.Width,
		"height", cfg.Screen.Height,
		"image", cfg.Assets.Image,
		"dark_mode", cfg.Pattern.DarkMode,
	)

	if err := v.Run(); err != nil {
		logger.Error("viewer stopped", "error", err)
	}
}
