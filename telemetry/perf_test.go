package telemetry

import (
	"testing"
	"time"

	"github.com/pthm-cable/dotfield/gpu"
)

func TestPerfCollector_BasicTiming(t *testing.T) {
	pc := NewPerfCollector(10)

	for i := 0; i < 5; i++ {
		pc.StartFrame()
		pc.StartPhase(PhaseInput)
		time.Sleep(100 * time.Microsecond)
		pc.StartPhase(PhaseComposite)
		time.Sleep(200 * time.Microsecond)
		pc.EndFrame()
	}

	stats := pc.Stats()

	if stats.AvgFrameDuration <= 0 {
		t.Error("expected positive average frame duration")
	}
	if _, ok := stats.PhaseAvg[PhaseInput]; !ok {
		t.Error("expected input phase to be tracked")
	}
	if _, ok := stats.PhaseAvg[PhaseComposite]; !ok {
		t.Error("expected composite phase to be tracked")
	}
}

func TestPerfCollector_RollingWindow(t *testing.T) {
	pc := NewPerfCollector(5)

	for i := 0; i < 10; i++ {
		pc.StartFrame()
		pc.StartPhase(PhaseInput)
		pc.EndFrame()
	}

	stats := pc.Stats()

	if stats.AvgFrameDuration <= 0 {
		t.Error("expected positive average frame duration after window filled")
	}
	if stats.FramesPerSecond <= 0 {
		t.Error("expected positive frames per second")
	}
}

func TestPerfCollector_PhasePercentages(t *testing.T) {
	pc := NewPerfCollector(10)

	for i := 0; i < 5; i++ {
		pc.StartFrame()
		pc.StartPhase("fast")
		time.Sleep(10 * time.Microsecond)
		pc.StartPhase("slow")
		time.Sleep(100 * time.Microsecond)
		pc.EndFrame()
	}

	stats := pc.Stats()

	fastPct := stats.PhasePct["fast"]
	slowPct := stats.PhasePct["slow"]
	if slowPct <= fastPct {
		t.Errorf("expected slow phase (%v%%) > fast phase (%v%%)", slowPct, fastPct)
	}
}

func TestPerfCollector_ObservePass(t *testing.T) {
	pc := NewPerfCollector(4)

	pc.StartFrame()
	pc.ObservePass(gpu.PassPressure, 2*time.Millisecond)
	pc.ObservePass(gpu.PassPressure, 3*time.Millisecond)
	pc.ObservePass(gpu.PassAdvect, time.Millisecond)
	pc.EndFrame()

	stats := pc.Stats()
	if got := stats.PhaseAvg[PhasePressure]; got != 5*time.Millisecond {
		t.Errorf("pressure avg = %v, want 5ms", got)
	}
	if got := stats.PhaseAvg[PhaseAdvect]; got != time.Millisecond {
		t.Errorf("advect avg = %v, want 1ms", got)
	}
	if csv := stats.ToCSV(1); csv.PressurePct <= csv.AdvectPct {
		t.Errorf("pressure pct %v should exceed advect pct %v", csv.PressurePct, csv.AdvectPct)
	}
}

func TestPerfCollector_EndPhase(t *testing.T) {
	pc := NewPerfCollector(4)

	pc.StartFrame()
	pc.StartPhase(PhaseInput)
	pc.EndPhase()
	time.Sleep(200 * time.Microsecond)
	pc.EndFrame()

	stats := pc.Stats()
	if stats.PhaseAvg[PhaseInput] >= stats.AvgFrameDuration {
		t.Errorf("ended phase kept running: %v of %v", stats.PhaseAvg[PhaseInput], stats.AvgFrameDuration)
	}
}

func TestPerfCollector_EmptyStats(t *testing.T) {
	pc := NewPerfCollector(10)

	stats := pc.Stats()

	if stats.AvgFrameDuration != 0 {
		t.Error("expected zero avg frame duration for empty collector")
	}
	if stats.PhaseAvg == nil {
		t.Error("expected non-nil PhaseAvg map")
	}
	if stats.PhasePct == nil {
		t.Error("expected non-nil PhasePct map")
	}
}

func TestPerfCollector_PresentTiming(t *testing.T) {
	pc := NewPerfCollector(10)

	pc.RecordPresent()
	time.Sleep(16 * time.Millisecond)
	pc.RecordPresent()

	stats := pc.Stats()

	if stats.PresentInterval < 15*time.Millisecond {
		t.Errorf("expected present interval >= 15ms, got %v", stats.PresentInterval)
	}
	// With 16ms frames, expect ~60 FPS (allow range 20-80)
	if stats.FPS < 20 || stats.FPS > 80 {
		t.Errorf("expected FPS between 20-80 with 16ms frame time, got %v", stats.FPS)
	}
}

func TestPerfCollector_RecordLate(t *testing.T) {
	pc := NewPerfCollector(4)
	pc.RecordLate(PhaseTelemetry, time.Millisecond) // no sample yet

	pc.StartFrame()
	pc.Record(PhaseComposite, time.Millisecond)
	pc.EndFrame()
	before := pc.Stats().AvgFrameDuration

	pc.RecordLate(PhaseTelemetry, 3*time.Millisecond)
	stats := pc.Stats()
	if got := stats.PhaseAvg[PhaseTelemetry]; got != 3*time.Millisecond {
		t.Errorf("telemetry avg = %v, want 3ms", got)
	}
	if got := stats.AvgFrameDuration - before; got != 3*time.Millisecond {
		t.Errorf("frame grew by %v, want 3ms", got)
	}
}
