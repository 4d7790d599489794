package chainindex

import (
	"testing"
	"time"
)

func chain(n int) *BlockNode {
	var tip *BlockNode
	base := time.Unix(1_700_000_000, 0)
	for i := 0; i < n; i++ {
		tip = NewBlockNode(hashFor(i), 1, 0x1d00ffff, base.Add(time.Duration(i)*time.Minute), hashFor(i), tip)
	}
	return tip
}

func hashFor(i int) (h [32]byte) {
	h[0] = byte(i)
	h[1] = byte(i >> 8)
	return h
}

func TestGetMedianTimePastShortChain(t *testing.T) {
	tip := chain(3)
	// with fewer than 11 ancestors, padding repeats the genesis timestamp.
	mtp := tip.GetMedianTimePast()
	if mtp.IsZero() {
		t.Fatalf("expected non-zero median time")
	}
}

func TestGetMedianTimePastLongChain(t *testing.T) {
	tip := chain(20)
	mtp := tip.GetMedianTimePast()
	// median of the last 11 one-minute-spaced timestamps ending at tip
	// (index 19) is the timestamp at index 14.
	want := time.Unix(1_700_000_000, 0).Add(14 * time.Minute)
	if !mtp.Equal(want) {
		t.Fatalf("GetMedianTimePast() = %v, want %v", mtp, want)
	}
}

func TestRelativeAncestor(t *testing.T) {
	tip := chain(10)
	anc := tip.RelativeAncestor(5)
	if anc == nil || anc.Height != tip.Height-5 {
		t.Fatalf("RelativeAncestor(5) height = %v, want %v", anc, tip.Height-5)
	}
	if tip.RelativeAncestor(100) != nil {
		t.Fatalf("expected nil for out-of-range ancestor distance")
	}
}

func TestAncestorsStopsAtGenesis(t *testing.T) {
	tip := chain(5)
	window := tip.Ancestors(100)
	if len(window) != 5 {
		t.Fatalf("Ancestors(100) len = %d, want 5", len(window))
	}
	if !window[len(window)-1].IsGenesis() {
		t.Fatalf("expected window to end at genesis")
	}
}
