package tokenledger

import (
	"sync"

	"github.com/pinpins/interchained/wire"
	"github.com/pkg/errors"
)

// ChainClient is the minimal surface the ledger needs to touch the base
// chain and its peers when applying an operation online: paying the
// governance fee, recording the operation on chain, and gossiping it.
//
// Grounded on original_source/src/wallet/token.cpp's SendGovernanceFee,
// RecordOperationOnChain and BroadcastTokenOp; collapsed into one interface
// since this module carries no wallet or P2P subsystem of its own.
type ChainClient interface {
	SendGovernanceFee(walletName string, amount int64) bool
	RecordOperationOnChain(walletName string, opBytes []byte) bool
	Broadcast(opBytes []byte)
}

// BlockSource lets RescanFromHeight walk the confirmed chain without the
// ledger depending on a specific chain-storage package.
type BlockSource interface {
	TipHeight() int64
	BlockAtHeight(height int64) (*wire.MsgBlock, bool)
}

// Ledger is the deterministic on-chain token sub-ledger of spec.md §4.D.
//
// Grounded on original_source/src/wallet/token.h's TokenLedger.
type Ledger struct {
	mu sync.Mutex

	st      *state
	seenOps map[[32]byte]struct{}

	governanceWallet string
	activationHeight int64
	client           ChainClient
	blocks           BlockSource
	store            *store
}

// Config wires a Ledger to the rest of the node.
type Config struct {
	DataDir          string
	GovernanceWallet string
	ActivationHeight int64
	Client           ChainClient
	Blocks           BlockSource
}

// Open loads (or initializes) a ledger's persisted snapshot.
func Open(cfg Config) (*Ledger, error) {
	st, err := openStore(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	l := &Ledger{
		store:            st,
		governanceWallet: cfg.GovernanceWallet,
		activationHeight: cfg.ActivationHeight,
		client:           cfg.Client,
		blocks:           cfg.Blocks,
	}
	if err := l.load(); err != nil {
		st.Close()
		return nil, err
	}
	return l, nil
}

// Close releases the underlying store.
func (l *Ledger) Close() error {
	return l.store.Close()
}

// GovernanceWallet returns the address governance fees are paid to.
func (l *Ledger) GovernanceWallet() string {
	return l.governanceWallet
}

func (l *Ledger) load() error {
	loaded, err := l.store.load()
	if err != nil {
		return err
	}
	if loaded == nil {
		loaded = newState()
		loaded.TipHeight = l.activationHeight - 1
	}
	l.st = loaded
	l.seenOps = rebuildSeenOps(loaded.History)
	return nil
}

// rebuildSeenOps reconstructs the dedupe set from history, since it is not
// itself persisted (original_source/src/wallet/token.h's m_seen_ops is a
// runtime-only member).
func rebuildSeenOps(history map[string][]Operation) map[[32]byte]struct{} {
	seen := make(map[[32]byte]struct{})
	for _, ops := range history {
		for i := range ops {
			seen[operationHash(&ops[i])] = struct{}{}
		}
	}
	return seen
}

// operationHash identifies an operation for dedupe purposes, with signer
// and signature blanked so re-signing an otherwise-identical operation
// doesn't let it bypass the seen-operations check.
//
// Grounded on original_source/src/wallet/token.cpp's TokenOperationHash.
func operationHash(op *Operation) [32]byte {
	stripped := *op
	stripped.Signer = ""
	stripped.Signature = ""
	encoded, err := EncodeOperation(&stripped)
	if err != nil {
		// EncodeOperation only fails on a broken io.Writer; bytes.Buffer
		// never returns one, so this is unreachable in practice.
		return wire.DoubleSHA256(nil)
	}
	return wire.DoubleSHA256(encoded)
}

func (l *Ledger) flush() error {
	return l.store.save(l.st)
}

// Apply verifies, dedupes and applies op online: the network-facing path
// used when a wallet submits a fresh operation. When broadcast is set and
// walletName is non-empty, walletName identifies the local wallet that pays
// the governance fee and records the operation on chain; broadcast also
// gossips it to peers. Without broadcast no fee is sent or accrued.
//
// Grounded on original_source/src/wallet/token.cpp's ApplyOperation.
func (l *Ledger) Apply(op *Operation, walletName string, broadcast bool) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	valid, err := VerifySignature(op, expectedSigner(op))
	if err != nil {
		return false, errors.Wrap(err, "failed to verify operation signature")
	}
	if !valid {
		return false, nil
	}

	hash := operationHash(op)
	if _, seen := l.seenOps[hash]; seen {
		return false, nil
	}
	l.seenOps[hash] = struct{}{}

	ok := l.dispatch(op, l.st.TipHeight+1)
	if !ok {
		return false, nil
	}

	rate := l.st.FeePerVByte
	if op.Op == OpCreate {
		rate = l.st.CreateFeePerVByte
	}
	encoded, err := EncodeOperation(op)
	if err != nil {
		return false, errors.Wrap(err, "failed to encode operation for fee accounting")
	}
	fee := int64(len(encoded)) * rate
	if fee < minGovernanceFee {
		fee = minGovernanceFee
	}
	if broadcast && walletName != "" && l.client != nil && l.client.SendGovernanceFee(walletName, fee) {
		l.st.GovernanceFees += fee
	}

	l.st.History[op.Token] = append(l.st.History[op.Token], *op)
	if err := l.flush(); err != nil {
		return false, errors.Wrap(err, "failed to persist ledger state")
	}

	if broadcast && l.client != nil {
		if walletName != "" {
			l.client.RecordOperationOnChain(walletName, encoded)
		}
		l.client.Broadcast(encoded)
	}
	return true, nil
}

// Replay applies op the way a confirmed block does: no fee, no broadcast,
// no on-chain recording, height taken from the block it was found in.
//
// Grounded on original_source/src/wallet/token.cpp's ReplayOperation.
func (l *Ledger) Replay(op *Operation, height int64) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	valid, err := VerifySignature(op, expectedSigner(op))
	if err != nil {
		return false, errors.Wrap(err, "failed to verify operation signature")
	}
	if !valid {
		return false, nil
	}

	hash := operationHash(op)
	if _, seen := l.seenOps[hash]; seen {
		return false, nil
	}
	l.seenOps[hash] = struct{}{}

	if !l.dispatch(op, height) {
		return false, nil
	}
	l.st.History[op.Token] = append(l.st.History[op.Token], *op)
	return true, nil
}

func expectedSigner(op *Operation) string {
	if op.Op == OpTransferFrom {
		return op.Spender
	}
	return op.From
}

// dispatch applies op's balance/allowance/meta effects. It does not touch
// history, fees or persistence; callers append history and flush.
func (l *Ledger) dispatch(op *Operation, height int64) bool {
	switch op.Op {
	case OpCreate:
		l.createToken(op.From, op.Token, op.Amount, op.Name, op.Symbol, op.Decimals, height)
		return true
	case OpTransfer:
		return l.transfer(op.From, op.To, op.Token, op.Amount)
	case OpApprove:
		l.approve(op.From, op.To, op.Token, op.Amount)
		return true
	case OpTransferFrom:
		return l.transferFrom(op.Spender, op.From, op.To, op.Token, op.Amount)
	case OpIncreaseAllowance:
		l.increaseAllowance(op.From, op.To, op.Token, op.Amount)
		return true
	case OpDecreaseAllowance:
		l.decreaseAllowance(op.From, op.To, op.Token, op.Amount)
		return true
	case OpBurn:
		if _, exists := l.st.TokenMeta[op.Token]; !exists {
			return false
		}
		return l.burn(op.From, op.Token, op.Amount)
	case OpMint:
		meta, exists := l.st.TokenMeta[op.Token]
		if !exists || meta.OperatorWallet != op.From {
			return false
		}
		return l.mint(op.From, op.Token, op.Amount)
	case OpTransferOwnership:
		return l.transferOwnership(op.From, op.To, op.Token)
	default:
		return false
	}
}

func (l *Ledger) createToken(wallet, token string, amount int64, name, symbol string, decimals uint8, height int64) {
	l.st.Balances[balanceKey{wallet, token}] += amount
	l.st.TotalSupply[token] += amount
	if _, exists := l.st.TokenMeta[token]; !exists {
		l.st.TokenMeta[token] = TokenMeta{
			Name: name, Symbol: symbol, Decimals: decimals,
			OperatorWallet: wallet, CreatedHeight: height,
		}
	}
}

func (l *Ledger) approve(owner, spender, token string, amount int64) {
	l.st.Allowances[allowanceKey{owner, spender, token}] = amount
}

func (l *Ledger) increaseAllowance(owner, spender, token string, amount int64) {
	l.st.Allowances[allowanceKey{owner, spender, token}] += amount
}

func (l *Ledger) decreaseAllowance(owner, spender, token string, amount int64) {
	key := allowanceKey{owner, spender, token}
	if l.st.Allowances[key] <= amount {
		delete(l.st.Allowances, key)
	} else {
		l.st.Allowances[key] -= amount
	}
}

func (l *Ledger) transfer(from, to, token string, amount int64) bool {
	fromKey := balanceKey{from, token}
	if l.st.Balances[fromKey] < amount {
		return false
	}
	l.st.Balances[fromKey] -= amount
	l.st.Balances[balanceKey{to, token}] += amount
	return true
}

func (l *Ledger) transferFrom(spender, from, to, token string, amount int64) bool {
	key := allowanceKey{from, spender, token}
	if l.st.Allowances[key] < amount {
		return false
	}
	fromKey := balanceKey{from, token}
	if l.st.Balances[fromKey] < amount {
		return false
	}
	l.st.Balances[fromKey] -= amount
	l.st.Balances[balanceKey{to, token}] += amount
	l.st.Allowances[key] -= amount
	return true
}

func (l *Ledger) burn(wallet, token string, amount int64) bool {
	key := balanceKey{wallet, token}
	if l.st.Balances[key] < amount {
		return false
	}
	l.st.Balances[key] -= amount
	l.st.TotalSupply[token] -= amount
	return true
}

func (l *Ledger) mint(wallet, token string, amount int64) bool {
	l.st.Balances[balanceKey{wallet, token}] += amount
	l.st.TotalSupply[token] += amount
	return true
}

func (l *Ledger) transferOwnership(from, to, token string) bool {
	meta, exists := l.st.TokenMeta[token]
	if !exists || meta.OperatorWallet != from {
		return false
	}
	meta.OperatorWallet = to
	l.st.TokenMeta[token] = meta
	return true
}

// RescanFromHeight clears all state and replays every decodable token
// operation found in blocks from fromHeight (clamped to the configured
// activation height) through the current chain tip.
//
// Grounded on original_source/src/wallet/token.cpp's RescanFromHeight.
func (l *Ledger) RescanFromHeight(fromHeight int64) error {
	if fromHeight < l.activationHeight {
		fromHeight = l.activationHeight
	}

	l.mu.Lock()
	l.st = newState()
	l.st.FeePerVByte = defaultFeePerVByte
	l.st.CreateFeePerVByte = createFeePerVByte
	l.seenOps = make(map[[32]byte]struct{})
	l.mu.Unlock()

	tip := l.blocks.TipHeight()
	for h := fromHeight; h <= tip; h++ {
		block, ok := l.blocks.BlockAtHeight(h)
		if !ok {
			continue
		}
		for _, tx := range block.Transactions {
			for _, out := range tx.TxOut {
				data := extractOpReturnData(out.PkScript)
				if data == nil {
					continue
				}
				op, err := DecodeOperation(data)
				if err != nil {
					continue
				}
				l.Replay(op, h)
			}
		}
	}

	l.mu.Lock()
	l.st.TipHeight = tip
	err := l.flush()
	l.mu.Unlock()
	return err
}

// ProcessBlock replays every decodable token operation in a newly connected
// block, the online counterpart to RescanFromHeight's bulk replay.
func (l *Ledger) ProcessBlock(block *wire.MsgBlock, height int64) {
	for _, tx := range block.Transactions {
		for _, out := range tx.TxOut {
			data := extractOpReturnData(out.PkScript)
			if data == nil {
				continue
			}
			op, err := DecodeOperation(data)
			if err != nil {
				continue
			}
			l.Replay(op, height)
		}
	}
	l.mu.Lock()
	l.st.TipHeight = height
	_ = l.flush()
	l.mu.Unlock()
}

// Balance returns wallet's balance of token.
func (l *Ledger) Balance(wallet, token string) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.st.Balances[balanceKey{wallet, token}]
}

// Allowance returns how much spender may still draw from owner's balance of
// token.
func (l *Ledger) Allowance(owner, spender, token string) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.st.Allowances[allowanceKey{owner, spender, token}]
}

// TotalSupply returns token's total supply.
func (l *Ledger) TotalSupply(token string) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.st.TotalSupply[token]
}

// GetTokenMeta returns token's metadata, and whether it exists.
func (l *Ledger) GetTokenMeta(token string) (TokenMeta, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	meta, ok := l.st.TokenMeta[token]
	return meta, ok
}

// GovernanceBalance returns the total governance fees accrued so far.
func (l *Ledger) GovernanceBalance() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.st.GovernanceFees
}

// SetFeeRate sets the per-vbyte governance fee rate charged for non-CREATE
// operations.
func (l *Ledger) SetFeeRate(feePerVByte int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.st.FeePerVByte = feePerVByte
}

// FeeRate returns the current per-vbyte governance fee rate.
func (l *Ledger) FeeRate() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.st.FeePerVByte
}

// TokenHistory returns token's recorded operations, optionally filtered to
// those touching addressFilter as from, to or spender.
func (l *Ledger) TokenHistory(token, addressFilter string) []Operation {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []Operation
	for _, op := range l.st.History[token] {
		if addressFilter != "" && op.From != addressFilter && op.To != addressFilter && op.Spender != addressFilter {
			continue
		}
		out = append(out, op)
	}
	return out
}

// ListAllTokens returns the metadata (name, symbol, decimals, operator and
// creation height) of every registered token, in no fixed order. The token
// ids themselves are not included in the result.
func (l *Ledger) ListAllTokens() []TokenMeta {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]TokenMeta, 0, len(l.st.TokenMeta))
	for _, meta := range l.st.TokenMeta {
		out = append(out, meta)
	}
	return out
}

// ListWalletTokens returns the ids of every token wallet holds a positive
// balance of.
func (l *Ledger) ListWalletTokens(wallet string) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []string
	for key, amount := range l.st.Balances {
		if key.Wallet == wallet && amount > 0 {
			out = append(out, key.Token)
		}
	}
	return out
}

// TokenExists reports whether token has already been registered, the
// existsFn GenerateTokenID needs to avoid collisions.
func (l *Ledger) TokenExists(token string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.st.TokenMeta[token]
	return ok
}
