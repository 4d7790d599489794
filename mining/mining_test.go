package mining

import (
	"testing"
	"time"

	"github.com/pinpins/interchained/chainindex"
	"github.com/pinpins/interchained/chainparams"
	"github.com/pinpins/interchained/mempool"
)

type fakeTxSource struct {
	entries []*mempool.Entry
}

func (f *fakeTxSource) OrderedByAncestorFeeRate() []*mempool.Entry {
	return f.entries
}

type fakeChainTip struct {
	tip *chainindex.BlockNode
}

func (f *fakeChainTip) Tip() *chainindex.BlockNode {
	return f.tip
}

func testGenesisTip(params *chainparams.Params) *chainindex.BlockNode {
	var hash [32]byte
	hash[0] = 1
	return chainindex.NewBlockNode(hash, 1, 0x1d00ffff, time.Unix(1_700_000_000, 0), hash, nil)
}

func TestNewBlockTemplateProducesValidCoinbaseOnlyBlock(t *testing.T) {
	p := chainparams.RegtestParams
	params := &p
	tip := testGenesisTip(params)

	gen := NewBlkTmplGenerator(&Policy{BlockMaxWeight: MaxBlockWeight}, params,
		&fakeTxSource{}, &fakeChainTip{tip: tip}, chainindex.NewTimeSource())

	template, err := gen.NewBlockTemplate([]byte{0x51})
	if err != nil {
		t.Fatalf("NewBlockTemplate: %v", err)
	}
	if len(template.Block.Transactions) != 1 {
		t.Fatalf("expected coinbase-only block, got %d transactions", len(template.Block.Transactions))
	}
	if !template.Block.Transactions[0].IsCoinBase() {
		t.Fatalf("first transaction is not a coinbase")
	}
	if template.Height != tip.Height+1 {
		t.Fatalf("Height = %d, want %d", template.Height, tip.Height+1)
	}
}

func TestGetBlockSubsidyHalves(t *testing.T) {
	if GetBlockSubsidy(0) != 50_0000_0000 {
		t.Fatalf("genesis subsidy = %d, want 5e9", GetBlockSubsidy(0))
	}
	if GetBlockSubsidy(210_000) != 25_0000_0000 {
		t.Fatalf("first halving subsidy = %d, want 2.5e9", GetBlockSubsidy(210_000))
	}
	if GetBlockSubsidy(210_000*65) != 0 {
		t.Fatalf("deep halving should reach zero")
	}
}

func TestEncodeScriptNumRoundTripsSmallHeights(t *testing.T) {
	cases := []int64{0, 1, 127, 128, 255, 1000, 1 << 20}
	for _, height := range cases {
		encoded := encodeScriptNum(height)
		if len(encoded) < 1 {
			t.Fatalf("encodeScriptNum(%d) produced empty script", height)
		}
		if int(encoded[0]) != len(encoded)-1 {
			t.Fatalf("encodeScriptNum(%d) length prefix = %d, want %d", height, encoded[0], len(encoded)-1)
		}
		var decoded int64
		for i, b := range encoded[1:] {
			decoded |= int64(b) << (8 * uint(i))
		}
		if decoded != height {
			t.Fatalf("encodeScriptNum(%d) decodes to %d", height, decoded)
		}
	}
}

func TestClampedBlockMaxWeight(t *testing.T) {
	p := &Policy{BlockMaxWeight: 0}
	if got := p.ClampedBlockMaxWeight(); got != 4000 {
		t.Fatalf("ClampedBlockMaxWeight() = %d, want 4000 floor", got)
	}
	p.BlockMaxWeight = MaxBlockWeight
	if got := p.ClampedBlockMaxWeight(); got != MaxBlockWeight-4000 {
		t.Fatalf("ClampedBlockMaxWeight() = %d, want %d ceiling", got, MaxBlockWeight-4000)
	}
}
