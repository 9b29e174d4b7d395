package sources

import (
	"time"

	"openentropy/internal/entropy/primitives"
	"openentropy/internal/entropy/source"
)

// SchedulerJitter times zero-duration sleeps. The OS scheduler's
// actual wakeup latency after a nominal zero-duration sleep varies
// with run-queue depth, timer resolution, and unrelated system
// activity — none of which the caller controls or can predict.
type SchedulerJitter struct{}

func NewSchedulerJitter() *SchedulerJitter { return &SchedulerJitter{} }

func (s *SchedulerJitter) Info() source.Info {
	return source.Info{
		ID:               "scheduler_jitter",
		Description:      "Wakeup latency jitter from zero-duration sleeps",
		PhysicsRationale: "Zero-duration sleeps still cross into the kernel scheduler; actual wakeup time depends on run-queue state unrelated to this goroutine",
		Category:         source.CategoryScheduling,
		Platform:         source.PlatformAny,
		EntropyRateBPS:   400,
	}
}

func (s *SchedulerJitter) IsAvailable() bool { return true }

func (s *SchedulerJitter) Collect(nBytes int) []byte {
	if nBytes <= 0 {
		return nil
	}
	count := 4*nBytes + 64
	timings := make([]uint64, 0, count)
	for i := 0; i < count; i++ {
		before := primitives.MonotonicTicks()
		time.Sleep(0)
		after := primitives.MonotonicTicks()
		timings = append(timings, after-before)
	}
	return primitives.ExtractTimingEntropy(timings, nBytes)
}

// ThreadLifecycleJitter times goroutine creation-to-first-run latency,
// a second scheduler-facing signal distinct from sleep wakeup latency.
type ThreadLifecycleJitter struct{}

func NewThreadLifecycleJitter() *ThreadLifecycleJitter { return &ThreadLifecycleJitter{} }

func (s *ThreadLifecycleJitter) Info() source.Info {
	return source.Info{
		ID:               "thread_lifecycle_jitter",
		Description:      "Goroutine creation-to-first-run latency jitter",
		PhysicsRationale: "The delay between spawning a goroutine and its first scheduled execution depends on the runtime scheduler's internal queue state at that instant",
		Category:         source.CategoryScheduling,
		Platform:         source.PlatformAny,
		EntropyRateBPS:   300,
	}
}

func (s *ThreadLifecycleJitter) IsAvailable() bool { return true }

func (s *ThreadLifecycleJitter) Collect(nBytes int) []byte {
	if nBytes <= 0 {
		return nil
	}
	count := 4*nBytes + 64
	timings := make([]uint64, 0, count)
	for i := 0; i < count; i++ {
		start := primitives.MonotonicTicks()
		done := make(chan uint64, 1)
		go func() {
			done <- primitives.MonotonicTicks()
		}()
		first := <-done
		timings = append(timings, first-start)
	}
	return primitives.ExtractTimingEntropy(timings, nBytes)
}
