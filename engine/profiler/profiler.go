// Package profiler logs frame rate, renderer counters and memory statistics at a fixed interval.
package profiler

import (
	"runtime"
	"time"

	"go.uber.org/zap"
)

// FrameStats are the renderer counters of one frame.
type FrameStats struct {
	// DrawCalls is the number of draws submitted.
	DrawCalls int
	// UniformWrites is the number of dirty uniforms flushed to the backend.
	UniformWrites int
	// EffectsReleased is the number of effects removed by the post-frame cleanup.
	EffectsReleased int
}

// Profiler tracks frame rate and memory statistics for performance monitoring.
// Outputs stats to the logger at a configurable interval.
type Profiler struct {
	logger         *zap.Logger
	now            func() time.Time
	frameCount     int
	totals         FrameStats
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
}

// NewProfiler creates a new Profiler. The update interval defaults to 1 second.
//
// Parameters:
//   - options: variadic list of ProfilerBuilderOption functions
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(options ...ProfilerBuilderOption) *Profiler {
	p := &Profiler{
		logger:         zap.NewNop(),
		now:            time.Now,
		updateInterval: time.Second,
	}
	for _, opt := range options {
		opt(p)
	}
	p.lastTime = p.now()
	return p
}

// Tick should be called once per frame with that frame's counters.
// Logs performance statistics when the update interval has elapsed: FPS, average draws and uniform
// writes per frame, released effects, heap usage, allocation rate and GC pauses.
//
// Parameters:
//   - stats: the counters of the frame that just ended
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick(stats FrameStats) bool {
	p.frameCount++
	p.totals.DrawCalls += stats.DrawCalls
	p.totals.UniformWrites += stats.UniformWrites
	p.totals.EffectsReleased += stats.EffectsReleased

	currentTime := p.now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}

	fps := float64(p.frameCount) / elapsed.Seconds()
	frames := float64(p.frameCount)

	runtime.ReadMemStats(&p.memStats)
	allocMB := float64(p.memStats.Alloc) / 1024 / 1024
	sysMB := float64(p.memStats.Sys) / 1024 / 1024
	allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc
	allocRateMB := float64(allocDelta) / 1024 / 1024 / elapsed.Seconds()

	// PauseNs is a circular buffer of the last 256 GC pauses
	gcCount := p.memStats.NumGC
	var lastPauseUs, maxPauseUs uint64
	if gcCount > 0 {
		lastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000
		startIdx := p.lastGCCount
		if gcCount-startIdx > 256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			if pause := p.memStats.PauseNs[i%256] / 1000; pause > maxPauseUs {
				maxPauseUs = pause
			}
		}
	}

	p.logger.Info("frame stats",
		zap.Float64("fps", fps),
		zap.Float64("draws_per_frame", float64(p.totals.DrawCalls)/frames),
		zap.Float64("uniform_writes_per_frame", float64(p.totals.UniformWrites)/frames),
		zap.Int("effects_released", p.totals.EffectsReleased),
		zap.Float64("heap_mb", allocMB),
		zap.Float64("alloc_rate_mb_s", allocRateMB),
		zap.Uint32("gc_count", gcCount),
		zap.Uint64("gc_last_pause_us", lastPauseUs),
		zap.Uint64("gc_max_pause_us", maxPauseUs),
		zap.Float64("sys_mb", sysMB),
	)

	p.frameCount = 0
	p.totals = FrameStats{}
	p.lastTime = currentTime
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}
