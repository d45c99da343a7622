package driver

import "fmt"

// Config holds frame driver settings.
type Config struct {
	MaxDT         float32 `yaml:"max_dt"`
	DeltaScale    float32 `yaml:"delta_scale"`
	MoveThreshold float32 `yaml:"move_threshold"`

	// Idle wanderers; IdleSeconds <= 0 disables them.
	IdleSeconds float32 `yaml:"idle_seconds"`
	Wanderers   int     `yaml:"wanderers"`
	WanderSpeed float32 `yaml:"wander_speed"`
	Seed        int64   `yaml:"seed"`
}

// DefaultConfig returns the stock driver settings.
func DefaultConfig() Config {
	return Config{
		MaxDT:         0.016,
		DeltaScale:    10,
		MoveThreshold: 0.001,
		IdleSeconds:   6,
		Wanderers:     3,
		WanderSpeed:   0.25,
		Seed:          42,
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch {
	case c.MaxDT <= 0:
		return fmt.Errorf("driver: max_dt must be positive, got %v", c.MaxDT)
	case c.DeltaScale <= 0:
		return fmt.Errorf("driver: delta_scale must be positive, got %v", c.DeltaScale)
	case c.MoveThreshold < 0:
		return fmt.Errorf("driver: move_threshold must be >= 0, got %v", c.MoveThreshold)
	case c.Wanderers < 0:
		return fmt.Errorf("driver: wanderers must be >= 0, got %d", c.Wanderers)
	case c.Wanderers > 0 && c.WanderSpeed <= 0:
		return fmt.Errorf("driver: wander_speed must be positive, got %v", c.WanderSpeed)
	}
	return nil
}
