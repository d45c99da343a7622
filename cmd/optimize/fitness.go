package main

import (
	"log/slog"
	"math"
	"sync"

	"github.com/pthm-cable/dotfield/config"
	"github.com/pthm-cable/dotfield/gpu/soft"
	"github.com/pthm-cable/dotfield/session"
	"github.com/pthm-cable/dotfield/telemetry"
)

// Target describes the look being tuned for: how much of the dye field a
// stroke should paint, and how much may remain after the fade period.
type Target struct {
	StrokeCoverage float64 // coverage at the end of the stroke
	FadeCoverage   float64 // coverage allowed after the fade period
	FadeWeight     float64 // weight of the fade error
	MaxDensity     float64 // peak density above this is penalized
}

// DefaultTarget is a trail covering about a fifth of the field that
// mostly clears within the fade period.
func DefaultTarget() Target {
	return Target{
		StrokeCoverage: 0.2,
		FadeCoverage:   0.01,
		FadeWeight:     0.5,
		MaxDensity:     3,
	}
}

// failedFitness is returned for runs that error or go non-finite.
const failedFitness = 1e9

// FitnessEvaluator runs software-device sessions and computes fitness.
type FitnessEvaluator struct {
	params       *ParamVector
	baseConfig   *config.Config
	target       Target
	phases       []float64
	width        int
	height       int
	strokeFrames int
	fadeFrames   int
	workers      int
	logger       *slog.Logger

	mu          sync.Mutex
	bestFitness float64
	bestStats   []telemetry.FrameStats
	lastStats   telemetry.FrameStats // stroke-end stats of the most recent run
}

// NewFitnessEvaluator creates a new evaluator. Each phase offsets the
// scripted stroke so one parameter set is judged on several paths.
func NewFitnessEvaluator(params *ParamVector, baseCfg *config.Config, target Target, phases []float64, width, height, strokeFrames, fadeFrames int) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:       params,
		baseConfig:   baseCfg,
		target:       target,
		phases:       phases,
		width:        width,
		height:       height,
		strokeFrames: strokeFrames,
		fadeFrames:   fadeFrames,
		workers:      1,
		logger:       slog.New(slog.DiscardHandler),
		bestFitness:  math.Inf(1),
	}
}

// BestStats returns the stroke-end stats of every path from the best
// evaluation.
func (fe *FitnessEvaluator) BestStats() []telemetry.FrameStats {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.bestStats
}

// LastStats returns the stroke-end stats from the most recent evaluation.
func (fe *FitnessEvaluator) LastStats() telemetry.FrameStats {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastStats
}

// runResult holds the samples from a single run.
type runResult struct {
	stroke telemetry.FrameStats
	fade   telemetry.FrameStats
	err    error
}

// Evaluate computes fitness for a parameter vector (lower = better).
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	cfg := fe.copyConfig()
	fe.params.ApplyToConfig(cfg, x)

	// Run all paths in parallel
	results := make([]runResult, len(fe.phases))
	var wg sync.WaitGroup
	for i, phase := range fe.phases {
		wg.Add(1)
		go func(idx int, p float64) {
			defer wg.Done()
			results[idx] = fe.runSimulation(cfg, p)
		}(i, phase)
	}
	wg.Wait()

	var total float64
	strokes := make([]telemetry.FrameStats, len(results))
	for i, r := range results {
		total += fe.computeFitness(r)
		strokes[i] = r.stroke
	}
	avg := total / float64(len(results))

	fe.mu.Lock()
	if avg < fe.bestFitness {
		fe.bestFitness = avg
		fe.bestStats = strokes
	}
	fe.lastStats = strokes[len(strokes)-1]
	fe.mu.Unlock()

	return avg
}

// runSimulation drags a figure-eight for strokeFrames, releases, and lets
// the dye fade for fadeFrames.
func (fe *FitnessEvaluator) runSimulation(cfg *config.Config, phase float64) runResult {
	var res runResult
	dev := soft.New(fe.width, fe.height, soft.WithWorkers(fe.workers))
	sess, err := session.New(dev, cfg, session.Options{Logger: fe.logger})
	if err != nil {
		res.err = err
		return res
	}
	defer sess.Unload()

	drv := sess.Driver()
	const dt = 1.0 / 60
	for i := 0; i < fe.strokeFrames; i++ {
		t := phase + 2*math.Pi*float64(i)/float64(fe.strokeFrames)
		x := float32((0.5 + 0.35*math.Sin(t)) * float64(fe.width))
		y := float32((0.5 + 0.25*math.Sin(2*t)) * float64(fe.height))
		if i == 0 {
			drv.PointerDown(x, y)
		} else if res.err = drv.PointerMove(x, y); res.err != nil {
			return res
		}
		if res.err = sess.Update(dt); res.err != nil {
			return res
		}
	}
	if res.stroke, res.err = sess.Sample(); res.err != nil {
		return res
	}

	drv.PointerUp()
	for i := 0; i < fe.fadeFrames; i++ {
		if res.err = sess.Update(dt); res.err != nil {
			return res
		}
	}
	res.fade, res.err = sess.Sample()
	return res
}

// copyConfig returns a copy of the base config safe to mutate per
// evaluation. Only scalar sections are changed, so a shallow copy is
// enough.
func (fe *FitnessEvaluator) copyConfig() *config.Config {
	cfg := *fe.baseConfig
	cfg.Driver.IdleSeconds = 0
	cfg.Telemetry.OutputDir = ""
	return &cfg
}

// computeFitness scores one run: relative squared error against the
// stroke coverage target, plus the weighted excess coverage left after
// the fade, plus a penalty for saturated density.
func (fe *FitnessEvaluator) computeFitness(r runResult) float64 {
	if r.err != nil {
		return failedFitness
	}
	for _, v := range []float64{r.stroke.DensityTotal, r.fade.DensityTotal, r.stroke.VelocityMax} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return failedFitness
		}
	}

	tg := fe.target
	strokeErr := (r.stroke.DensityCoverage - tg.StrokeCoverage) / tg.StrokeCoverage
	fit := strokeErr * strokeErr

	if excess := r.fade.DensityCoverage - tg.FadeCoverage; excess > 0 {
		fit += tg.FadeWeight * (excess / tg.StrokeCoverage) * (excess / tg.StrokeCoverage)
	}
	if over := r.stroke.DensityMax - tg.MaxDensity; over > 0 {
		fit += over * over
	}
	return fit
}
