package tokenledger

import (
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/pinpins/interchained/wire"
)

type fakeChainClient struct {
	feesSent   []int64
	recorded   [][]byte
	broadcasts [][]byte
}

func (f *fakeChainClient) SendGovernanceFee(walletName string, amount int64) bool {
	f.feesSent = append(f.feesSent, amount)
	return true
}

func (f *fakeChainClient) RecordOperationOnChain(walletName string, opBytes []byte) bool {
	f.recorded = append(f.recorded, opBytes)
	return true
}

func (f *fakeChainClient) Broadcast(opBytes []byte) {
	f.broadcasts = append(f.broadcasts, opBytes)
}

type fakeBlockSource struct {
	blocks map[int64]*wire.MsgBlock
	tip    int64
}

func (f *fakeBlockSource) TipHeight() int64 { return f.tip }

func (f *fakeBlockSource) BlockAtHeight(height int64) (*wire.MsgBlock, bool) {
	b, ok := f.blocks[height]
	return b, ok
}

func newTestLedger(t *testing.T) (*Ledger, *fakeChainClient, *fakeBlockSource) {
	t.Helper()
	client := &fakeChainClient{}
	blocks := &fakeBlockSource{blocks: make(map[int64]*wire.MsgBlock)}
	l, err := Open(Config{
		DataDir:          t.TempDir(),
		GovernanceWallet: "itc1qgovernance",
		ActivationHeight: 0,
		Client:           client,
		Blocks:           blocks,
	})
	if err != nil {
		t.Fatalf("Open failed: %s", err)
	}
	t.Cleanup(func() { l.Close() })
	return l, client, blocks
}

// signedOp fills in the signer and the From (or, for TRANSFERFROM, Spender)
// address from the given wallet's key and signs op, ready for Apply/Replay.
func signedOp(t *testing.T, priv *btcec.PrivateKey, op *Operation) *Operation {
	t.Helper()
	addr := legacyAddress(hash160(priv.PubKey().SerializeCompressed()))
	op.Signer = addr
	if op.Op == OpTransferFrom {
		op.Spender = addr
	} else {
		op.From = addr
	}
	signOperation(t, op, priv)
	return op
}

func newKey(t *testing.T) *btcec.PrivateKey {
	t.Helper()
	priv, err := btcec.NewPrivateKey()
	if err != nil {
		t.Fatalf("failed to generate key: %s", err)
	}
	return priv
}

func TestApplyCreateThenTransfer(t *testing.T) {
	l, client, _ := newTestLedger(t)

	creator := newKey(t)
	creatorAddr := legacyAddress(hash160(creator.PubKey().SerializeCompressed()))
	token := "0x" + "aa11bb22cc33dd44ee55ff6600112233445566778899001122334455" + "tok"

	createOp := signedOp(t, creator, &Operation{
		Op: OpCreate, Token: token, Amount: 1_000_000,
		Name: "Test Token", Symbol: "TST", Decimals: 8, Timestamp: 1,
	})
	ok, err := l.Apply(createOp, "wallet1", true)
	if err != nil {
		t.Fatalf("Apply(create) error: %s", err)
	}
	if !ok {
		t.Fatalf("Apply(create) returned false")
	}
	if l.Balance(creatorAddr, token) != 1_000_000 {
		t.Fatalf("creator balance = %d, want 1000000", l.Balance(creatorAddr, token))
	}
	if l.TotalSupply(token) != 1_000_000 {
		t.Fatalf("total supply = %d, want 1000000", l.TotalSupply(token))
	}
	if len(client.feesSent) != 1 || client.feesSent[0] < minGovernanceFee {
		t.Fatalf("expected one governance fee >= minimum, got %v", client.feesSent)
	}

	recipient := newKey(t)
	recipientAddr := legacyAddress(hash160(recipient.PubKey().SerializeCompressed()))

	transferOp := signedOp(t, creator, &Operation{
		Op: OpTransfer, To: recipientAddr, Token: token, Amount: 400_000, Timestamp: 2,
	})
	ok, err = l.Apply(transferOp, "wallet1", true)
	if err != nil {
		t.Fatalf("Apply(transfer) error: %s", err)
	}
	if !ok {
		t.Fatalf("Apply(transfer) returned false")
	}
	if l.Balance(creatorAddr, token) != 600_000 {
		t.Fatalf("creator balance after transfer = %d, want 600000", l.Balance(creatorAddr, token))
	}
	if l.Balance(recipientAddr, token) != 400_000 {
		t.Fatalf("recipient balance after transfer = %d, want 400000", l.Balance(recipientAddr, token))
	}
}

func TestApplyTransferInsufficientBalanceFails(t *testing.T) {
	l, _, _ := newTestLedger(t)
	creator := newKey(t)
	token := "0x" + "aa11bb22cc33dd44ee55ff6600112233445566778899001122334455" + "tok"

	createOp := signedOp(t, creator, &Operation{
		Op: OpCreate, Token: token, Amount: 100, Name: "T", Symbol: "T", Decimals: 0, Timestamp: 1,
	})
	if _, err := l.Apply(createOp, "wallet1", false); err != nil {
		t.Fatalf("Apply(create) error: %s", err)
	}

	other := newKey(t)
	otherAddr := legacyAddress(hash160(other.PubKey().SerializeCompressed()))
	transferOp := signedOp(t, creator, &Operation{
		Op: OpTransfer, To: otherAddr, Token: token, Amount: 999, Timestamp: 2,
	})
	ok, err := l.Apply(transferOp, "wallet1", false)
	if err != nil {
		t.Fatalf("Apply(transfer) error: %s", err)
	}
	if ok {
		t.Fatalf("expected transfer beyond balance to fail")
	}
}

func TestApplyApproveAndTransferFrom(t *testing.T) {
	l, _, _ := newTestLedger(t)
	owner := newKey(t)
	spender := newKey(t)
	ownerAddr := legacyAddress(hash160(owner.PubKey().SerializeCompressed()))
	spenderAddr := legacyAddress(hash160(spender.PubKey().SerializeCompressed()))
	token := "0x" + "aa11bb22cc33dd44ee55ff6600112233445566778899001122334455" + "tok"

	createOp := signedOp(t, owner, &Operation{
		Op: OpCreate, Token: token, Amount: 1000, Name: "T", Symbol: "T", Decimals: 0, Timestamp: 1,
	})
	if _, err := l.Apply(createOp, "wallet1", false); err != nil {
		t.Fatalf("Apply(create) error: %s", err)
	}

	approveOp := signedOp(t, owner, &Operation{
		Op: OpApprove, To: spenderAddr, Token: token, Amount: 500, Timestamp: 2,
	})
	if ok, err := l.Apply(approveOp, "wallet1", false); err != nil || !ok {
		t.Fatalf("Apply(approve) failed: ok=%v err=%v", ok, err)
	}
	if l.Allowance(ownerAddr, spenderAddr, token) != 500 {
		t.Fatalf("allowance = %d, want 500", l.Allowance(ownerAddr, spenderAddr, token))
	}

	transferFromOp := signedOp(t, spender, &Operation{
		Op: OpTransferFrom, From: ownerAddr, To: spenderAddr, Token: token, Amount: 300, Timestamp: 3,
	})
	ok, err := l.Apply(transferFromOp, "wallet1", false)
	if err != nil {
		t.Fatalf("Apply(transferFrom) error: %s", err)
	}
	if !ok {
		t.Fatalf("Apply(transferFrom) returned false")
	}
	if l.Balance(ownerAddr, token) != 700 {
		t.Fatalf("owner balance = %d, want 700", l.Balance(ownerAddr, token))
	}
	if l.Balance(spenderAddr, token) != 300 {
		t.Fatalf("spender balance = %d, want 300", l.Balance(spenderAddr, token))
	}
	if l.Allowance(ownerAddr, spenderAddr, token) != 200 {
		t.Fatalf("remaining allowance = %d, want 200", l.Allowance(ownerAddr, spenderAddr, token))
	}
}

func TestApplyMintRequiresOwnerAndBurnRequiresBalance(t *testing.T) {
	l, _, _ := newTestLedger(t)
	owner := newKey(t)
	notOwner := newKey(t)
	ownerAddr := legacyAddress(hash160(owner.PubKey().SerializeCompressed()))
	token := "0x" + "aa11bb22cc33dd44ee55ff6600112233445566778899001122334455" + "tok"

	createOp := signedOp(t, owner, &Operation{
		Op: OpCreate, Token: token, Amount: 100, Name: "T", Symbol: "T", Decimals: 0, Timestamp: 1,
	})
	if _, err := l.Apply(createOp, "wallet1", false); err != nil {
		t.Fatalf("Apply(create) error: %s", err)
	}

	badMint := signedOp(t, notOwner, &Operation{
		Op: OpMint, Token: token, Amount: 50, Timestamp: 2,
	})
	ok, err := l.Apply(badMint, "wallet1", false)
	if err != nil {
		t.Fatalf("Apply(mint by non-owner) error: %s", err)
	}
	if ok {
		t.Fatalf("expected mint by non-owner to fail")
	}

	goodMint := signedOp(t, owner, &Operation{
		Op: OpMint, Token: token, Amount: 50, Timestamp: 3,
	})
	ok, err = l.Apply(goodMint, "wallet1", false)
	if err != nil || !ok {
		t.Fatalf("Apply(mint by owner) failed: ok=%v err=%v", ok, err)
	}
	if l.Balance(ownerAddr, token) != 150 {
		t.Fatalf("balance after mint = %d, want 150", l.Balance(ownerAddr, token))
	}

	burnTooMuch := signedOp(t, owner, &Operation{
		Op: OpBurn, Token: token, Amount: 999, Timestamp: 4,
	})
	ok, _ = l.Apply(burnTooMuch, "wallet1", false)
	if ok {
		t.Fatalf("expected burn beyond balance to fail")
	}
}

func TestApplyDuplicateOperationIsRejected(t *testing.T) {
	l, _, _ := newTestLedger(t)
	creator := newKey(t)
	token := "0x" + "aa11bb22cc33dd44ee55ff6600112233445566778899001122334455" + "tok"

	op := signedOp(t, creator, &Operation{
		Op: OpCreate, Token: token, Amount: 100, Name: "T", Symbol: "T", Decimals: 0, Timestamp: 1,
	})
	ok, err := l.Apply(op, "wallet1", false)
	if err != nil || !ok {
		t.Fatalf("first Apply failed: ok=%v err=%v", ok, err)
	}
	ok, err = l.Apply(op, "wallet1", false)
	if err != nil {
		t.Fatalf("second Apply returned error: %s", err)
	}
	if ok {
		t.Fatalf("expected duplicate operation to be rejected")
	}
}

func TestRescanFromHeightReplaysOpReturnOperations(t *testing.T) {
	l, _, blocks := newTestLedger(t)
	creator := newKey(t)
	creatorAddr := legacyAddress(hash160(creator.PubKey().SerializeCompressed()))
	token := "0x" + "aa11bb22cc33dd44ee55ff6600112233445566778899001122334455" + "tok"

	op := signedOp(t, creator, &Operation{
		Op: OpCreate, Token: token, Amount: 777, Name: "T", Symbol: "T", Decimals: 0, Timestamp: 1,
	})
	encoded, err := EncodeOperation(op)
	if err != nil {
		t.Fatalf("EncodeOperation failed: %s", err)
	}
	block := &wire.MsgBlock{
		Transactions: []*wire.MsgTx{{
			TxOut: []*wire.TxOut{{PkScript: buildOpReturnScript(encoded)}},
		}},
	}
	blocks.blocks[5] = block
	blocks.tip = 5

	if err := l.RescanFromHeight(0); err != nil {
		t.Fatalf("RescanFromHeight failed: %s", err)
	}
	if l.Balance(creatorAddr, token) != 777 {
		t.Fatalf("balance after rescan = %d, want 777", l.Balance(creatorAddr, token))
	}

	// A second rescan from scratch must reach the identical state:
	// replay is idempotent because it always starts from a cleared ledger.
	if err := l.RescanFromHeight(0); err != nil {
		t.Fatalf("second RescanFromHeight failed: %s", err)
	}
	if l.Balance(creatorAddr, token) != 777 {
		t.Fatalf("balance after second rescan = %d, want 777", l.Balance(creatorAddr, token))
	}
}
