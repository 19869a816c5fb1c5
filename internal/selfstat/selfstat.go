// Package selfstat samples the host process's own resource usage. It is the
// workload the demo service runs between start and stop.
package selfstat

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/shirou/gopsutil/v3/process"

	"servicehost/internal/logger"
)

// Sample is one reading of the process's resource usage.
type Sample struct {
	RSS        uint64  // bytes
	CPUPercent float64 // since the previous reading
	Threads    int32
}

// Source reads a Sample.
type Source interface {
	Sample(ctx context.Context) (Sample, error)
}

// ProcessSource reads a Sample for one process through gopsutil.
type ProcessSource struct {
	proc *process.Process
}

// NewProcessSource returns a source for pid.
func NewProcessSource(pid int32) (*ProcessSource, error) {
	p, err := process.NewProcess(pid)
	if err != nil {
		return nil, err
	}
	return &ProcessSource{proc: p}, nil
}

// NewSelfSource returns a source for the calling process.
func NewSelfSource() (*ProcessSource, error) {
	return NewProcessSource(int32(os.Getpid()))
}

// Sample implements Source. CPU percent is measured against the previous
// call, so the first reading is usually zero.
func (p *ProcessSource) Sample(ctx context.Context) (Sample, error) {
	mem, err := p.proc.MemoryInfoWithContext(ctx)
	if err != nil {
		return Sample{}, err
	}
	cpu, err := p.proc.PercentWithContext(ctx, 0)
	if err != nil {
		return Sample{}, err
	}
	threads, err := p.proc.NumThreadsWithContext(ctx)
	if err != nil {
		return Sample{}, err
	}
	return Sample{RSS: mem.RSS, CPUPercent: cpu, Threads: threads}, nil
}

// Sampler logs a Sample every Interval until its context is cancelled.
type Sampler struct {
	src      Source
	interval time.Duration
	clock    clock.Clock

	mu    sync.Mutex
	last  Sample
	count int
}

// NewSampler creates a sampler. A nil clock means the wall clock.
func NewSampler(src Source, interval time.Duration, clk clock.Clock) *Sampler {
	if clk == nil {
		clk = clock.New()
	}
	return &Sampler{
		src:      src,
		interval: interval,
		clock:    clk,
	}
}

// Run samples immediately and then on every tick. It returns ctx.Err()
// when cancelled; failed readings are logged and skipped.
func (s *Sampler) Run(ctx context.Context) error {
	log := logger.WithComponent("selfstat")
	log.Info().Dur("interval", s.interval).Msg("Starting self sampling")

	ticker := s.clock.Ticker(s.interval)
	defer ticker.Stop()

	s.sample(ctx)
	for {
		select {
		case <-ctx.Done():
			log := logger.WithComponent("selfstat")
			log.Info().Int("samples", s.Count()).Msg("Self sampling stopped")
			return ctx.Err()
		case <-ticker.C:
			s.sample(ctx)
		}
	}
}

// Last returns the most recent successful reading.
func (s *Sampler) Last() (Sample, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last, s.count > 0
}

// Count returns the number of successful readings.
func (s *Sampler) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

func (s *Sampler) sample(ctx context.Context) {
	log := logger.WithComponent("selfstat")
	smp, err := s.src.Sample(ctx)
	if err != nil {
		if ctx.Err() == nil {
			log.Warn().Err(err).Msg("Failed to sample process")
		}
		return
	}

	s.mu.Lock()
	s.last = smp
	s.count++
	s.mu.Unlock()

	log.Info().
		Uint64("rss_bytes", smp.RSS).
		Float64("cpu_percent", smp.CPUPercent).
		Int32("threads", smp.Threads).
		Msg("Process sample")
}
