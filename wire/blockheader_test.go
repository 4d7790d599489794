package wire

import (
	"bytes"
	"testing"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/davecgh/go-spew/spew"
)

func TestBlockHeaderSerializeRoundTrip(t *testing.T) {
	h := &BlockHeader{
		Version:    1,
		PrevBlock:  chainhash.Hash{0x01, 0x02},
		MerkleRoot: chainhash.Hash{0x03, 0x04},
		Timestamp:  time.Unix(1_700_000_000, 0),
		Bits:       0x1d00ffff,
		Nonce:      424242,
	}

	var buf bytes.Buffer
	if err := h.Serialize(&buf); err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if buf.Len() != BlockHeaderLen {
		t.Fatalf("serialized length = %d, want %d", buf.Len(), BlockHeaderLen)
	}

	var got BlockHeader
	if err := got.Deserialize(&buf); err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	if got.Version != h.Version || got.Bits != h.Bits || got.Nonce != h.Nonce {
		t.Fatalf("round-trip mismatch:\ngot:  %s\nwant: %s", spew.Sdump(got), spew.Sdump(h))
	}
	if got.PrevBlock != h.PrevBlock || got.MerkleRoot != h.MerkleRoot {
		t.Fatalf("hash round-trip mismatch")
	}
	if got.Timestamp.Unix() != h.Timestamp.Unix() {
		t.Fatalf("timestamp round-trip mismatch: got %v, want %v", got.Timestamp, h.Timestamp)
	}
}

func TestBlockHashDeterministic(t *testing.T) {
	h := &BlockHeader{Version: 1, Bits: 0x1d00ffff}
	h2 := &BlockHeader{Version: 1, Bits: 0x1d00ffff}
	if h.BlockHash() != h2.BlockHash() {
		t.Fatalf("identical headers produced different hashes")
	}
	h2.Nonce = 1
	if h.BlockHash() == h2.BlockHash() {
		t.Fatalf("differing nonce produced identical hashes")
	}
}

func TestCompactRoundTrip(t *testing.T) {
	cases := []uint32{0x1d00ffff, 0x1b0404cb, 0x207fffff}
	for _, bits := range cases {
		n := CompactToBig(bits)
		got := BigToCompact(n)
		if got != bits {
			t.Errorf("BigToCompact(CompactToBig(%#x)) = %#x", bits, got)
		}
	}
}
