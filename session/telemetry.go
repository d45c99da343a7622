package session

import (
	"fmt"

	"github.com/pthm-cable/dotfield/telemetry"
)

// flushTelemetry writes frame stats and perf windows when they are due.
func (s *Session) flushTelemetry() error {
	if s.output == nil && !s.logStats {
		return nil
	}
	frame := s.driver.Frames()

	if every := uint64(s.cfg.Telemetry.StatsEveryFrames); every > 0 && frame%every == 0 {
		stats, err := s.Sample()
		if err != nil {
			return err
		}
		if s.logStats {
			stats.LogStats()
		}
		if s.output != nil {
			if err := s.output.WriteFrame(stats); err != nil {
				s.logger.Error("failed to write frame stats", "error", err)
			}
		}
	}

	if every := uint64(s.cfg.Telemetry.PerfLogFrames); every > 0 && frame%every == 0 {
		perfStats := s.perf.Stats()
		if s.logStats {
			perfStats.LogStats()
		}
		if s.output != nil {
			if err := s.output.WritePerf(perfStats, frame); err != nil {
				s.logger.Error("failed to write perf", "error", err)
			}
		}
	}
	return nil
}

// Sample reads the density and velocity fields back and summarizes them.
func (s *Session) Sample() (telemetry.FrameStats, error) {
	st := s.solver.Stats()
	stats := telemetry.FrameStats{
		Frame:     s.driver.Frames(),
		Elapsed:   float64(s.driver.Elapsed()),
		DT:        float64(s.lastDT),
		Splats:    s.driver.Splats(),
		Wanderers: s.driver.Wanderers(),
		StepUS:    st.LastStep.Microseconds(),
	}

	density := s.solver.DensityTexture()
	px, err := s.dev.ReadPixels(density)
	if err != nil {
		return stats, fmt.Errorf("session: read density: %w", err)
	}
	stats.ApplyDensity(telemetry.FieldStats(px, density.Format().Channels))

	velocity := s.solver.VelocityTexture()
	px, err = s.dev.ReadPixels(velocity)
	if err != nil {
		return stats, fmt.Errorf("session: read velocity: %w", err)
	}
	stats.ApplyVelocity(telemetry.FieldStats(px, velocity.Format().Channels))
	return stats, nil
}
