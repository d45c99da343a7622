// Package telemetry provides per-phase frame timing, read-back field
// statistics and CSV output.
package telemetry

import (
	"log/slog"
	"time"

	"github.com/pthm-cable/dotfield/gpu"
)

// Phase names for one frame. Every GPU pass kind is a phase, plus the
// non-pass work around them.
var (
	PhaseClear            = gpu.PassClear.String()
	PhaseSplat            = gpu.PassSplat.String()
	PhaseAdvect           = gpu.PassAdvect.String()
	PhaseDivergence       = gpu.PassDivergence.String()
	PhaseCurl             = gpu.PassCurl.String()
	PhaseVorticity        = gpu.PassVorticity.String()
	PhasePressure         = gpu.PassPressure.String()
	PhaseGradientSubtract = gpu.PassGradientSubtract.String()
	PhaseComposite        = gpu.PassComposite.String()
)

const (
	PhaseInput     = "input"
	PhaseTelemetry = "telemetry"
)

// Phases lists every phase in reporting order.
var Phases = []string{
	PhaseInput, PhaseSplat, PhaseCurl, PhaseVorticity, PhaseDivergence,
	PhaseClear, PhasePressure, PhaseGradientSubtract, PhaseAdvect,
	PhaseComposite, PhaseTelemetry,
}

// PerfSample holds timing data for a single frame.
type PerfSample struct {
	FrameDuration time.Duration
	Phases        map[string]time.Duration
}

// PerfCollector tracks performance metrics over a rolling window.
type PerfCollector struct {
	windowSize    int
	samples       []PerfSample
	writeIndex    int
	sampleCount   int
	currentPhases map[string]time.Duration
	frameStart    time.Time
	phaseStart    time.Time
	lastPhase     string

	// Wall time between presented frames
	lastPresent     time.Time
	presentInterval time.Duration
}

// NewPerfCollector creates a new performance collector.
// windowSize: number of frames to average over (e.g., 60 for 1 second at 60fps).
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 60
	}
	return &PerfCollector{
		windowSize:    windowSize,
		samples:       make([]PerfSample, windowSize),
		currentPhases: make(map[string]time.Duration),
	}
}

// StartFrame begins timing a new frame.
func (p *PerfCollector) StartFrame() {
	p.frameStart = time.Now()
	p.currentPhases = make(map[string]time.Duration)
	p.lastPhase = ""
}

// StartPhase begins timing a specific phase, ending the previous one.
func (p *PerfCollector) StartPhase(phase string) {
	now := time.Now()
	if p.lastPhase != "" {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
	}
	p.phaseStart = now
	p.lastPhase = phase
}

// EndPhase closes the running phase without starting another.
func (p *PerfCollector) EndPhase() {
	if p.lastPhase == "" {
		return
	}
	p.currentPhases[p.lastPhase] += time.Since(p.phaseStart)
	p.lastPhase = ""
}

// Record adds an externally measured duration to a phase.
func (p *PerfCollector) Record(phase string, d time.Duration) {
	p.currentPhases[phase] += d
}

// ObservePass records a GPU pass duration under its pass-kind phase.
// It matches fluid.PassObserver.
func (p *PerfCollector) ObservePass(kind gpu.PassKind, d time.Duration) {
	p.Record(kind.String(), d)
}

// EndFrame finishes timing the current frame and records the sample.
func (p *PerfCollector) EndFrame() {
	now := time.Now()
	if p.lastPhase != "" {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
		p.lastPhase = ""
	}

	p.samples[p.writeIndex] = PerfSample{
		FrameDuration: now.Sub(p.frameStart),
		Phases:        p.currentPhases,
	}
	p.writeIndex = (p.writeIndex + 1) % p.windowSize
	if p.sampleCount < p.windowSize {
		p.sampleCount++
	}
}

// RecordLate adds work done after EndFrame to the most recent sample,
// extending its frame duration.
func (p *PerfCollector) RecordLate(phase string, d time.Duration) {
	if p.sampleCount == 0 {
		return
	}
	s := &p.samples[(p.writeIndex-1+p.windowSize)%p.windowSize]
	s.Phases[phase] += d
	s.FrameDuration += d
}

// RecordPresent marks a frame reaching the screen.
func (p *PerfCollector) RecordPresent() {
	now := time.Now()
	if !p.lastPresent.IsZero() {
		p.presentInterval = now.Sub(p.lastPresent)
	}
	p.lastPresent = now
}

// PerfStats holds aggregated performance statistics.
type PerfStats struct {
	AvgFrameDuration time.Duration
	MinFrameDuration time.Duration
	MaxFrameDuration time.Duration

	// Phase breakdown (average durations)
	PhaseAvg map[string]time.Duration

	// Phase percentages of total frame time
	PhasePct map[string]float64

	FramesPerSecond float64

	PresentInterval time.Duration
	FPS             float64
}

// Stats computes aggregated statistics over the current window.
func (p *PerfCollector) Stats() PerfStats {
	var fps float64
	if p.presentInterval > 0 {
		fps = float64(time.Second) / float64(p.presentInterval)
	}

	if p.sampleCount == 0 {
		return PerfStats{
			PhaseAvg:        make(map[string]time.Duration),
			PhasePct:        make(map[string]float64),
			PresentInterval: p.presentInterval,
			FPS:             fps,
		}
	}

	var total time.Duration
	var minFrame, maxFrame time.Duration
	phaseSum := make(map[string]time.Duration)

	for i := 0; i < p.sampleCount; i++ {
		s := p.samples[i]
		total += s.FrameDuration

		if i == 0 || s.FrameDuration < minFrame {
			minFrame = s.FrameDuration
		}
		if s.FrameDuration > maxFrame {
			maxFrame = s.FrameDuration
		}
		for phase, dur := range s.Phases {
			phaseSum[phase] += dur
		}
	}

	avg := total / time.Duration(p.sampleCount)

	phaseAvg := make(map[string]time.Duration)
	phasePct := make(map[string]float64)
	for phase, sum := range phaseSum {
		phaseAvg[phase] = sum / time.Duration(p.sampleCount)
		if avg > 0 {
			phasePct[phase] = float64(phaseAvg[phase]) / float64(avg) * 100
		}
	}

	var perSec float64
	if avg > 0 {
		perSec = float64(time.Second) / float64(avg)
	}

	return PerfStats{
		AvgFrameDuration: avg,
		MinFrameDuration: minFrame,
		MaxFrameDuration: maxFrame,
		PhaseAvg:         phaseAvg,
		PhasePct:         phasePct,
		FramesPerSecond:  perSec,
		PresentInterval:  p.presentInterval,
		FPS:              fps,
	}
}

// LogStats logs performance statistics.
func (s PerfStats) LogStats() {
	attrs := []any{
		"avg_frame_us", s.AvgFrameDuration.Microseconds(),
		"min_frame_us", s.MinFrameDuration.Microseconds(),
		"max_frame_us", s.MaxFrameDuration.Microseconds(),
		"frames_per_sec", int(s.FramesPerSecond),
	}

	if s.FPS > 0 {
		attrs = append(attrs, "fps", int(s.FPS))
	}

	for _, phase := range Phases {
		if pct, ok := s.PhasePct[phase]; ok && pct > 0.1 {
			attrs = append(attrs, phase+"_pct", int(pct*10)/10.0)
		}
	}

	slog.Info("perf", attrs...)
}

// LogValue implements slog.LogValuer for structured logging.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_frame_us", s.AvgFrameDuration.Microseconds()),
		slog.Int64("min_frame_us", s.MinFrameDuration.Microseconds()),
		slog.Int64("max_frame_us", s.MaxFrameDuration.Microseconds()),
		slog.Float64("frames_per_sec", s.FramesPerSecond),
	}

	if s.FPS > 0 {
		attrs = append(attrs, slog.Float64("fps", s.FPS))
	}

	for phase, pct := range s.PhasePct {
		attrs = append(attrs, slog.Float64(phase+"_pct", pct))
	}

	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is a flat struct for CSV export of performance stats.
type PerfStatsCSV struct {
	Frame               uint64  `csv:"frame"`
	AvgFrameUS          int64   `csv:"avg_frame_us"`
	MinFrameUS          int64   `csv:"min_frame_us"`
	MaxFrameUS          int64   `csv:"max_frame_us"`
	FramesPerSec        float64 `csv:"frames_per_sec"`
	FPS                 float64 `csv:"fps"`
	InputPct            float64 `csv:"input_pct"`
	SplatPct            float64 `csv:"splat_pct"`
	CurlPct             float64 `csv:"curl_pct"`
	VorticityPct        float64 `csv:"vorticity_pct"`
	DivergencePct       float64 `csv:"divergence_pct"`
	ClearPct            float64 `csv:"clear_pct"`
	PressurePct         float64 `csv:"pressure_pct"`
	GradientSubtractPct float64 `csv:"gradient_subtract_pct"`
	AdvectPct           float64 `csv:"advect_pct"`
	CompositePct        float64 `csv:"composite_pct"`
	TelemetryPct        float64 `csv:"telemetry_pct"`
}

// ToCSV converts PerfStats to a flat CSV-friendly struct.
func (s PerfStats) ToCSV(frame uint64) PerfStatsCSV {
	return PerfStatsCSV{
		Frame:               frame,
		AvgFrameUS:          s.AvgFrameDuration.Microseconds(),
		MinFrameUS:          s.MinFrameDuration.Microseconds(),
		MaxFrameUS:          s.MaxFrameDuration.Microseconds(),
		FramesPerSec:        s.FramesPerSecond,
		FPS:                 s.FPS,
		InputPct:            s.PhasePct[PhaseInput],
		SplatPct:            s.PhasePct[PhaseSplat],
		CurlPct:             s.PhasePct[PhaseCurl],
		VorticityPct:        s.PhasePct[PhaseVorticity],
		DivergencePct:       s.PhasePct[PhaseDivergence],
		ClearPct:            s.PhasePct[PhaseClear],
		PressurePct:         s.PhasePct[PhasePressure],
		GradientSubtractPct: s.PhasePct[PhaseGradientSubtract],
		AdvectPct:           s.PhasePct[PhaseAdvect],
		CompositePct:        s.PhasePct[PhaseComposite],
		TelemetryPct:        s.PhasePct[PhaseTelemetry],
	}
}
