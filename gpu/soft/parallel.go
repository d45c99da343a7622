package soft

import (
	"sync"

	"github.com/pthm-cable/dotfield/gpu"
)

// parallelThreshold is the minimum row count worth splitting across
// workers. Smaller targets run on the calling goroutine.
const parallelThreshold = 64

// shadeFunc computes one output texel. uv is the texel centre in [0,1]²;
// frag is the texel centre in pixels.
type shadeFunc func(uv, frag gpu.Vec2) [4]float32

// run evaluates shade for every texel of dst. Rows are split into bands,
// one per worker; every texel is computed independently so the result does
// not depend on the worker count.
func (d *Device) run(dst *texture, shade shadeFunc) {
	workers := d.workers
	if workers < 2 || dst.h < parallelThreshold {
		d.shadeRows(dst, shade, 0, dst.h)
		return
	}
	workers = min(workers, dst.h)

	band := (dst.h + workers - 1) / workers
	var wg sync.WaitGroup
	for start := 0; start < dst.h; start += band {
		end := min(start+band, dst.h)
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			d.shadeRows(dst, shade, start, end)
		}(start, end)
	}
	wg.Wait()
}

func (d *Device) shadeRows(dst *texture, shade shadeFunc, start, end int) {
	w := float32(dst.w)
	h := float32(dst.h)
	for y := start; y < end; y++ {
		fy := float32(y) + 0.5
		for x := 0; x < dst.w; x++ {
			fx := float32(x) + 0.5
			dst.store(x, y, shade(gpu.Vec2{fx / w, fy / h}, gpu.Vec2{fx, fy}))
		}
	}
}
