// Package stochastic 提供可复现的随机数流以及布朗运动、几何布朗运动与 Heston 路径生成器。
package stochastic

import (
	crand "crypto/rand"
	"encoding/binary"
	"time"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mathext/prng"
	"gonum.org/v1/gonum/stat/distuv"
)

// golden 为 2^64 / φ，用于把 worker 序号打散到种子空间。
const golden = 0x9e3779b97f4a7c15

// Stream 是单个 worker 独占的随机数流，底层为 xoshiro256++。
// Stream 不是并发安全的，不能在 goroutine 之间共享。
type Stream struct {
	rnd *rand.Rand
}

// NewStream 以给定种子创建随机数流，相同种子产生逐位相同的序列。
func NewStream(seed uint64) *Stream {
	return &Stream{rnd: rand.New(prng.NewXoshiro256plusplus(seed))}
}

// DeriveSeed 由基础种子与 worker 序号派生子流种子。
func DeriveSeed(base uint64, index int) uint64 {
	sm := prng.NewSplitMix64(base ^ (uint64(index)+1)*golden)
	return sm.Uint64()
}

// NewWorkerStream 返回第 index 个 worker 的独立随机数流。
func NewWorkerStream(base uint64, index int) *Stream {
	return NewStream(DeriveSeed(base, index))
}

// EntropySeed 从操作系统熵源获取种子，失败时退回到纳秒时间戳。
func EntropySeed() uint64 {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return uint64(time.Now().UnixNano())
	}
	return binary.LittleEndian.Uint64(b[:])
}

// Uint64 返回下一个原始 64 位输出。
func (s *Stream) Uint64() uint64 {
	return s.rnd.Uint64()
}

// Uniform 返回 (0, 1) 上的均匀分布随机数。
func (s *Stream) Uniform() float64 {
	for {
		if u := s.rnd.Float64(); u > 0 {
			return u
		}
	}
}

// Normal 通过逆累积分布函数返回标准正态随机数。
func (s *Stream) Normal() float64 {
	return distuv.UnitNormal.Quantile(s.Uniform())
}

// Normals 用标准正态随机数填满 dst。
func (s *Stream) Normals(dst []float64) {
	for i := range dst {
		dst[i] = s.Normal()
	}
}

// CorrelatedNormals 返回一对相关系数为 rho 的标准正态随机数。
// l21、l22 为相关矩阵 Cholesky 因子的第二行。
func (s *Stream) CorrelatedNormals(l21, l22 float64) (float64, float64) {
	e1 := s.Normal()
	e2 := s.Normal()
	return e1, l21*e1 + l22*e2
}
