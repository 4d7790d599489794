package pow

import (
	"testing"
	"time"

	"github.com/pinpins/interchained/chainindex"
	"github.com/pinpins/interchained/chainparams"
	"github.com/pinpins/interchained/wire"
)

func testParams() *chainparams.Params {
	p := chainparams.MainNetParams
	return &p
}

func buildChain(n int, spacing int64, bits uint32) *chainindex.BlockNode {
	var tip *chainindex.BlockNode
	base := int64(1_700_000_000)
	for i := 0; i < n; i++ {
		var hash [32]byte
		hash[0] = byte(i)
		hash[1] = byte(i >> 8)
		hash[2] = byte(i >> 16)
		tip = chainindex.NewBlockNode(hash, 1, bits, time.Unix(base+int64(i)*spacing, 0), hash, tip)
	}
	return tip
}

func TestNextWorkRequiredDispatchesByHeight(t *testing.T) {
	params := testParams()

	// Below difficultyForkHeight: legacy regime only changes at interval
	// boundaries, so a short non-boundary chain returns the tip's own bits.
	tip := buildChain(5, params.NPowTargetSpacing, 0x1d00ffff)
	tip.Height = params.DifficultyForkHeight - 10
	got := NextWorkRequired(tip, time.Unix(tip.Timestamp+params.NPowTargetSpacing, 0), params)
	if got != tip.Bits {
		t.Fatalf("legacy non-boundary retarget = %x, want unchanged %x", got, tip.Bits)
	}
}

func TestNextWorkRequiredAtFork2BoundaryUsesNova(t *testing.T) {
	params := testParams()
	tip := buildChain(30, params.NPowTargetSpacing, 0x1e0ffff0)
	tip.Height = params.NextDifficultyFork2Height - 1
	gotAtBoundary := NextWorkRequired(tip, time.Unix(tip.Timestamp+params.NPowTargetSpacing, 0), params)

	limitBits := compactLimit(tip.Height+1, params)
	// With 30 blocks and a 24-block Nova window (fork5 not yet reached),
	// retarget should produce a concrete (non-limit-fallback) value once past
	// the window size, and it should be the DGW3-Nova result.
	if gotAtBoundary == 0 {
		t.Fatalf("expected non-zero compact target")
	}
	if gotAtBoundary == limitBits {
		t.Fatalf("retarget at fork2 fell back to the limit %x", limitBits)
	}
	if want := dgw3NovaNextWorkRequired(tip, params); gotAtBoundary != want {
		t.Fatalf("retarget at fork2 = %x, want DGW3-Nova result %x", gotAtBoundary, want)
	}
}

func TestCheckProofOfWorkGenesisAndBootstrapBypass(t *testing.T) {
	params := testParams()
	header := &wire.BlockHeader{Bits: 0x1d00ffff, Timestamp: time.Unix(1_700_000_000, 0)}

	ok, err := CheckProofOfWork(header, 0, params)
	if err != nil || !ok {
		t.Fatalf("genesis bypass: ok=%v err=%v", ok, err)
	}

	ok, err = CheckProofOfWork(header, 1, params)
	if err != nil || !ok {
		t.Fatalf("height-1 bootstrap bypass: ok=%v err=%v", ok, err)
	}
}

func TestCheckProofOfWorkRejectsOutOfRangeTarget(t *testing.T) {
	params := testParams()
	header := &wire.BlockHeader{Bits: 0, Timestamp: time.Unix(1_700_000_000, 0)}

	ok, err := CheckProofOfWork(header, 5, params)
	if ok || err != ErrPoWTargetOutOfRange {
		t.Fatalf("expected ErrPoWTargetOutOfRange, got ok=%v err=%v", ok, err)
	}
}

func TestCheckProofOfWorkMonotonicInHash(t *testing.T) {
	params := testParams()
	header := &wire.BlockHeader{Bits: 0x1d00ffff, Timestamp: time.Unix(1_700_000_000, 0)}

	// Past the yespower fork the memory-hard hash is what gets compared, so
	// pin it: for the same bits, the lowest digest must pass and the highest
	// must fail.
	saved := MemoryHardHash
	defer func() { MemoryHardHash = saved }()
	var digest [32]byte
	MemoryHardHash = func([]byte, MemoryHardParams) [32]byte { return digest }
	height := params.YespowerForkHeight + 1

	ok, err := CheckProofOfWork(header, height, params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatalf("expected the all-zero hash to satisfy the target")
	}

	for i := range digest {
		digest[i] = 0xff
	}
	ok, err = CheckProofOfWork(header, height, params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("expected the all-0xff hash to exceed the target")
	}
}

func TestDGW3NovaEmergencyProducesTighterTarget(t *testing.T) {
	params := testParams()
	// Fast 1-second blocks past fork5 (and so past fork3, where the
	// emergency clamp applies) should trigger the emergency clamp and yield a
	// strictly higher difficulty (lower target / smaller compact
	// mantissa-scaled value) than the tip's own bits.
	tip := buildChain(30, 1, 0x1c0fffff)
	tip.Height = params.NextDifficultyFork5Height + 20
	got := dgw3NovaNextWorkRequired(tip, params)
	baseline := wire.CompactToBig(tip.Bits)
	gotTarget := wire.CompactToBig(got)
	if gotTarget.Cmp(baseline) >= 0 {
		t.Fatalf("expected emergency-clamped target tighter than baseline bits; got=%s baseline=%s", gotTarget, baseline)
	}
}
