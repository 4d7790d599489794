package pow

import (
	"sync"

	"github.com/pinpins/interchained/wire"
)

// MemoryHardParams mirrors the yespower tuning knobs original_source/src/pow/yespower.cpp
// selects by height: N=2048/r=8 below height 1 (never reached in practice,
// since genesis and height 1 both bypass the memory-hard path), N=1024/r=8
// at and above it.
type MemoryHardParams struct {
	N int
	R int
}

var (
	memoryHardDefault      = MemoryHardParams{N: 2048, R: 8}
	memoryHardInterchained = MemoryHardParams{N: 1024, R: 8}
)

// paramsForHeight picks the active yespower parameter set.
func paramsForHeight(height int64) MemoryHardParams {
	if height >= 1 {
		return memoryHardInterchained
	}
	return memoryHardDefault
}

// MemoryHardHash computes the memory-hard proof-of-work hash of a serialized
// 80-byte block header under the given parameters. The production algorithm
// (yespower) is a cgo/asm dependency outside this module's reach; this is a
// seam a production build overrides at init time. The placeholder is a pure
// function of its inputs so every caller here (the chain index, the miner)
// observes consistent, deterministic behavior during tests.
var MemoryHardHash = func(headerBytes []byte, params MemoryHardParams) [32]byte {
	return yespowerPlaceholder(headerBytes, params)
}

// scratchContext is a mutex-guarded scratch buffer reused across hash calls.
// sharedScratch is a single package-level instance shared by all goroutines,
// not a per-goroutine or per-worker context, and MemoryHardHash does not go
// through it.
type scratchContext struct {
	mu  sync.Mutex
	buf []byte
}

var sharedScratch = &scratchContext{}

func (s *scratchContext) hash(headerBytes []byte, params MemoryHardParams) [32]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cap(s.buf) < len(headerBytes) {
		s.buf = make([]byte, len(headerBytes))
	}
	s.buf = s.buf[:len(headerBytes)]
	copy(s.buf, headerBytes)
	return yespowerPlaceholder(s.buf, params)
}

func yespowerPlaceholder(headerBytes []byte, params MemoryHardParams) [32]byte {
	salted := make([]byte, 0, len(headerBytes)+8)
	salted = append(salted, headerBytes...)
	salted = append(salted, byte(params.N), byte(params.N>>8), byte(params.N>>16), byte(params.N>>24))
	salted = append(salted, byte(params.R), byte(params.R>>8), byte(params.R>>16), byte(params.R>>24))
	return wire.DoubleSHA256(salted)
}
