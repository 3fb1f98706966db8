package counter

import (
	"runtime"
	"sync"
	"testing"
)

func TestShardCount(t *testing.T) {
	n := New().Shards()
	if n < minShards || n > maxShards || n&(n-1) != 0 {
		t.Fatalf("Shards() = %d", n)
	}
	if p := runtime.GOMAXPROCS(0); p <= maxShards && n < p {
		t.Errorf("Shards() = %d < GOMAXPROCS %d", n, p)
	}
}

// TestConcurrentAdd 并发累加后求和精确
func TestConcurrentAdd(t *testing.T) {
	c := New()
	const goroutines, perG = 32, 1000
	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perG; i++ {
				c.Add(1)
			}
		}()
	}
	wg.Wait()
	c.Add(-5)
	if got, want := c.Load(), int64(goroutines*perG-5); got != want {
		t.Errorf("Load() = %d, want %d", got, want)
	}
}

func BenchmarkAdd(b *testing.B) {
	c := New()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			c.Add(1)
		}
	})
}

func BenchmarkLoad(b *testing.B) {
	c := New()
	c.Add(1)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = c.Load()
	}
}
