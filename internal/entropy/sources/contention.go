package sources

import (
	"sync"
	"sync/atomic"

	"openentropy/internal/entropy/primitives"
	"openentropy/internal/entropy/source"
)

// ContentionTiming spawns N worker goroutines performing compare-and-
// swap attempts against a shared counter. Per-attempt latency is
// XOR-combined across workers; contention for the cache line backing
// the counter injects timing variation that depends on the OS
// scheduler's interleaving of the workers, which this process does not
// control.
type ContentionTiming struct {
	workers int
}

func NewContentionTiming(workers int) *ContentionTiming {
	if workers < 2 {
		workers = 4
	}
	return &ContentionTiming{workers: workers}
}

func (s *ContentionTiming) Info() source.Info {
	return source.Info{
		ID:               "contention_timing",
		Description:      "CAS latency under multi-goroutine contention on a shared counter",
		PhysicsRationale: "Cache-line contention latency depends on the OS scheduler's actual interleaving of concurrent workers, which is not reproducible from program inputs alone",
		Category:         source.CategoryMicroarch,
		Platform:         source.PlatformAny,
		EntropyRateBPS:   500,
	}
}

func (s *ContentionTiming) IsAvailable() bool { return true }

func (s *ContentionTiming) Collect(nBytes int) []byte {
	if nBytes <= 0 {
		return nil
	}
	iterations := 4*nBytes + 64
	perWorker := iterations / s.workers
	if perWorker == 0 {
		perWorker = 1
	}

	var counter int64
	combined := make([]uint64, iterations)
	var mu sync.Mutex
	idx := 0

	var wg sync.WaitGroup
	for w := 0; w < s.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				start := primitives.MonotonicTicks()
				for {
					old := atomic.LoadInt64(&counter)
					if atomic.CompareAndSwapInt64(&counter, old, old+1) {
						break
					}
				}
				end := primitives.MonotonicTicks()

				mu.Lock()
				if idx < len(combined) {
					combined[idx] = end - start
					idx++
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	combined = combined[:idx]
	return primitives.ExtractTimingEntropy(combined, nBytes)
}
