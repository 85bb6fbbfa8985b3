package stochastic

import (
	"math"
	"testing"
)

func TestStreamReproducible(t *testing.T) {
	a, b := NewStream(2024), NewStream(2024)
	for i := range 1000 {
		if x, y := a.Normal(), b.Normal(); x != y {
			t.Fatalf("draw %d differs: %v vs %v", i, x, y)
		}
	}
}

func TestWorkerStreamsDiffer(t *testing.T) {
	seen := map[uint64]int{}
	for i := range 64 {
		s := DeriveSeed(7, i)
		if j, ok := seen[s]; ok {
			t.Fatalf("workers %d and %d share seed", i, j)
		}
		seen[s] = i
	}
	a, b := NewWorkerStream(7, 0), NewWorkerStream(7, 1)
	same := 0
	for range 100 {
		if a.Uint64() == b.Uint64() {
			same++
		}
	}
	if same > 0 {
		t.Errorf("independent streams produced %d identical outputs", same)
	}
}

func TestUniformOpenInterval(t *testing.T) {
	s := NewStream(1)
	for range 100_000 {
		u := s.Uniform()
		if u <= 0 || u >= 1 {
			t.Fatalf("uniform out of (0,1): %v", u)
		}
	}
}

func TestNormalMoments(t *testing.T) {
	s := NewStream(99)
	const n = 200_000
	var sum, sumSq float64
	for range n {
		z := s.Normal()
		sum += z
		sumSq += z * z
	}
	mean := sum / n
	variance := sumSq/n - mean*mean
	if math.Abs(mean) > 0.01 {
		t.Errorf("mean = %v", mean)
	}
	if math.Abs(variance-1) > 0.02 {
		t.Errorf("variance = %v", variance)
	}
}

func TestCorrelatedNormals(t *testing.T) {
	rho := -0.7
	l21, l22, err := correlationFactor(rho)
	if err != nil {
		t.Fatal(err)
	}
	s := NewStream(5)
	const n = 200_000
	var sxy float64
	for range n {
		x, y := s.CorrelatedNormals(l21, l22)
		sxy += x * y
	}
	if got := sxy / n; math.Abs(got-rho) > 0.02 {
		t.Errorf("sample correlation = %v, want %v", got, rho)
	}
}
