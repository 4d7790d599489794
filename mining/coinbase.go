package mining

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/pinpins/interchained/chainparams"
	"github.com/pinpins/interchained/mempool"
	"github.com/pinpins/interchained/wire"
)

// Basis-point coinbase reward splits, grounded on the values spec.md §4.B
// step 7 states (sourced from original_source/src/miner.cpp's hardcoded
// governance/operator cut).
const (
	governanceBasisPoints = 7300
	operatorBasisPoints   = 500
	basisPointsDenominator = 10000
)

// witnessCommitmentHeader is the OP_RETURN marker prefixing a witness
// commitment output, the Bitcoin-family convention spec.md §4.B step 8
// names.
var witnessCommitmentHeader = []byte{0xaa, 0x21, 0xa9, 0xed}

type coinbaseParams struct {
	params         *chainparams.Params
	height         int64
	fees           int64
	payToScript    []byte
	witnessEnabled bool
	selected       []*mempool.Entry
}

// GetBlockSubsidy is the block reward schedule. spec.md does not specify a
// halving schedule distinct from Bitcoin's own (no separate "subsidy
// interval" is among the consumed chain parameters), so it halves every
// 210,000 blocks starting from a 50-unit subsidy, matching the Bitcoin
// convention original_source inherits without overriding.
func GetBlockSubsidy(height int64) int64 {
	const initialSubsidy = 50_0000_0000
	const subsidyHalvingInterval = 210_000
	halvings := height / subsidyHalvingInterval
	if halvings >= 64 {
		return 0
	}
	return initialSubsidy >> uint(halvings)
}

// buildCoinbase constructs the coinbase transaction of spec.md §4.B steps
// 7-8: subsidy plus (unless burned) collected fees, split across
// governance/operator/miner outputs, with a witness commitment appended
// when applicable.
//
// Grounded on original_source/src/miner.cpp's CreateNewBlock coinbase
// construction and spec.md's explicit basis-point/fee-burn rules; no direct
// teacher (kaspad) analogue since Kaspa's coinbase pays a single address
// with no governance/operator split.
func buildCoinbase(p coinbaseParams) (*wire.MsgTx, *[32]byte, error) {
	subsidy := GetBlockSubsidy(p.height)
	burnFees := p.height >= 1 && p.height <= p.params.NFeeBurnEndHeight
	reward := subsidy
	if !burnFees {
		reward += p.fees
	}

	coinbase := &wire.MsgTx{
		Version: 1,
		TxIn: []*wire.TxIn{{
			PreviousOutPoint: wire.OutPoint{Index: 0xffffffff},
			SignatureScript:  coinbaseScriptSig(p.height, coinbaseSentinel),
			Sequence:         wire.MaxTxInSequenceNum,
			Witness:          [][]byte{make([]byte, 32)},
		}},
	}

	governanceScript, govOK := payToAddressScript(p.params.GovernanceWallet)
	operatorScript, opOK := payToAddressScript(p.params.NodeOperatorWallet)

	if !govOK {
		coinbase.TxOut = []*wire.TxOut{{Value: reward, PkScript: p.payToScript}}
	} else {
		govAmount := reward * governanceBasisPoints / basisPointsDenominator
		minerAmount := reward - govAmount
		var opAmount int64
		if opOK {
			opAmount = reward * operatorBasisPoints / basisPointsDenominator
			minerAmount -= opAmount
		}
		coinbase.TxOut = append(coinbase.TxOut, &wire.TxOut{Value: minerAmount, PkScript: p.payToScript})
		coinbase.TxOut = append(coinbase.TxOut, &wire.TxOut{Value: govAmount, PkScript: governanceScript})
		if opOK {
			coinbase.TxOut = append(coinbase.TxOut, &wire.TxOut{Value: opAmount, PkScript: operatorScript})
		}
	}

	if !p.witnessEnabled {
		return coinbase, nil, nil
	}

	witnessHashes := make([]chainhash.Hash, 0, len(p.selected)+1)
	witnessHashes = append(witnessHashes, coinbaseWitnessID())
	for _, e := range p.selected {
		witnessHashes = append(witnessHashes, e.Tx.TxHash())
	}
	commitment := computeWitnessCommitment(witnessHashes)

	commitmentOutput := &wire.TxOut{
		Value:    0,
		PkScript: append(append([]byte{0x6a, byte(len(witnessCommitmentHeader) + 32)}, witnessCommitmentHeader...), commitment[:]...),
	}
	coinbase.TxOut = append(coinbase.TxOut, commitmentOutput)

	return coinbase, &commitment, nil
}

// coinbaseWitnessID is the coinbase's own contribution to the witness
// merkle tree: the all-zero hash, per the Bitcoin-family convention.
func coinbaseWitnessID() chainhash.Hash {
	return chainhash.Hash{}
}

func computeWitnessCommitment(hashes []chainhash.Hash) [32]byte {
	root := wire.CalcMerkleRoot(hashes)
	reserved := make([]byte, 32)
	return wire.DoubleSHA256(append(root[:], reserved...))
}

func coinbaseScriptSig(height int64, suffix []byte) []byte {
	script := encodeScriptNum(height)
	return append(script, suffix...)
}

// EncodeScriptNum exports encodeScriptNum for the miner package's
// IncrementExtraNonce, which needs the same minimal encoding for the
// extra-nonce field it appends after height.
func EncodeScriptNum(n int64) []byte {
	return encodeScriptNum(n)
}

// PayToAddressScript exports payToAddressScript for the miner coordinator's
// payout-address resolution step.
func PayToAddressScript(address string) ([]byte, bool) {
	return payToAddressScript(address)
}

// encodeScriptNum encodes height the way Bitcoin's scriptSig height push
// (BIP34) does: minimal little-endian, high bit of the last byte clear
// (padded with a zero byte if it would otherwise be set).
func encodeScriptNum(n int64) []byte {
	if n == 0 {
		return []byte{0x00}
	}
	negative := n < 0
	if negative {
		n = -n
	}
	var result []byte
	for n > 0 {
		result = append(result, byte(n&0xff))
		n >>= 8
	}
	if result[len(result)-1]&0x80 != 0 {
		if negative {
			result = append(result, 0x80)
		} else {
			result = append(result, 0x00)
		}
	} else if negative {
		result[len(result)-1] |= 0x80
	}
	return append([]byte{byte(len(result))}, result...)
}

// payToAddressScript is a placeholder script builder: the returned script is
// the address string's raw bytes, and the only check is that the string is
// non-empty (an empty string means "not configured"). The address is not
// decoded and its format is not validated; real address decoding lives in
// tokenledger's signature-recovery path (btcutil.DecodeAddress).
func payToAddressScript(address string) ([]byte, bool) {
	if address == "" {
		return nil, false
	}
	return []byte(address), true
}
