package worker

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/wyfcoding/quant/metrics"
	"github.com/wyfcoding/quant/xerrors"
)

func TestDoRunsEveryTask(t *testing.T) {
	p := NewPool(WithSize(4))
	out := make([]int, 100)
	if err := p.Do(len(out), func(i int) { out[i] = i * i }); err != nil {
		t.Fatal(err)
	}
	for i, v := range out {
		if v != i*i {
			t.Fatalf("out[%d] = %d", i, v)
		}
	}
}

func TestDoBoundsConcurrency(t *testing.T) {
	p := NewPool(WithSize(2))
	var running, peak int32
	err := p.Do(20, func(int) {
		cur := atomic.AddInt32(&running, 1)
		for {
			old := atomic.LoadInt32(&peak)
			if cur <= old || atomic.CompareAndSwapInt32(&peak, old, cur) {
				break
			}
		}
		for range 1000 {
		}
		atomic.AddInt32(&running, -1)
	})
	if err != nil {
		t.Fatal(err)
	}
	if peak > 2 {
		t.Errorf("peak concurrency %d exceeds pool size", peak)
	}
}

func TestChunksCoverRangeDisjointly(t *testing.T) {
	p := NewPool(WithSize(3))
	const total = 2051
	hits := make([]int32, total)
	var chunks int32
	err := p.Chunks(total, 1024, func(c, lo, hi int) {
		atomic.AddInt32(&chunks, 1)
		for i := lo; i < hi; i++ {
			atomic.AddInt32(&hits[i], 1)
		}
	})
	if err != nil {
		t.Fatal(err)
	}
	if chunks != 3 {
		t.Errorf("chunks = %d, want 3", chunks)
	}
	for i, h := range hits {
		if h != 1 {
			t.Fatalf("index %d visited %d times", i, h)
		}
	}
}

func TestPanicBecomesError(t *testing.T) {
	m := metrics.NewMetrics("worker-test")
	p := NewPool(WithSize(2), WithName("panicky"), WithMetrics(m))
	err := p.Do(4, func(i int) {
		if i == 2 {
			panic("boom")
		}
	})
	if err == nil {
		t.Fatal("expected error from panicking task")
	}
	var xe *xerrors.Error
	if !errors.As(err, &xe) || xe.Type != xerrors.ErrInternal {
		t.Errorf("expected internal xerror, got %v", err)
	}
}

func TestNumChunks(t *testing.T) {
	cases := [][3]int{{0, 10, 0}, {1, 10, 1}, {10, 10, 1}, {11, 10, 2}, {5, 0, 0}}
	for _, c := range cases {
		if got := NumChunks(c[0], c[1]); got != c[2] {
			t.Errorf("NumChunks(%d,%d) = %d, want %d", c[0], c[1], got, c[2])
		}
	}
}

func TestDefaultPool(t *testing.T) {
	if Default() != Default() || Default().Size() < 1 {
		t.Errorf("default pool should be a singleton with positive size")
	}
}
