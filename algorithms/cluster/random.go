package cluster

import (
	"math/rand/v2"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat/distuv"
)

// Source supplies uniform floats in [0, 1). Seeding depends on nothing else,
// so tests can substitute a scripted sequence.
type Source interface {
	Float64() float64
}

type uniformSource struct {
	dist distuv.Uniform
}

// NewSource returns a Source backed by a PCG generator seeded with seed.
// Two sources built from the same seed yield the same sequence.
func NewSource(seed uint64) Source {
	return &uniformSource{
		dist: distuv.Uniform{
			Min: 0,
			Max: 1,
			Src: rand.NewPCG(seed, seed^0x9e3779b97f4a7c15),
		},
	}
}

// NewTimeSource returns a Source seeded from the wall clock.
func NewTimeSource() Source {
	return NewSource(uint64(time.Now().UnixNano()))
}

func (u *uniformSource) Float64() float64 {
	return u.dist.Rand()
}

type lockedSource struct {
	mu  sync.Mutex
	src Source
}

// NewLockedSource wraps src so it can be shared by concurrent Fit calls.
func NewLockedSource(src Source) Source {
	return &lockedSource{src: src}
}

func (l *lockedSource) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.src.Float64()
}

// intn maps a uniform draw onto [0, n).
func intn(src Source, n int) int {
	i := int(src.Float64() * float64(n))
	if i >= n {
		i = n - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}
