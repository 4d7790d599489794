// Package tokenledger implements the on-chain token ledger of spec.md §4.D:
// a deterministic replay of OP_RETURN-encoded operations recorded in the
// confirmed chain, collaborating with block connection the way the
// teacher's mempool collaborates with block templates.
package tokenledger

import (
	"bytes"
	"io"

	"github.com/pinpins/interchained/wire"
	"github.com/pkg/errors"
)

// OpTag identifies a token-ledger operation's kind.
//
// Grounded on original_source/src/wallet/token.h's TokenOp enum.
type OpTag uint8

const (
	OpCreate OpTag = iota
	OpTransfer
	OpApprove
	OpTransferFrom
	OpIncreaseAllowance
	OpDecreaseAllowance
	OpBurn
	OpMint
	OpTransferOwnership
)

// maxFieldLength bounds any single string field decoded from an untrusted
// on-chain OP_RETURN payload.
const maxFieldLength = 4_000

// Operation is a single token-ledger instruction as recorded on chain.
//
// Grounded on original_source/src/wallet/token.h's TokenOperation, trimmed
// of the wallet-only wallet_name field (never part of its own
// SERIALIZE_METHODS, passed alongside the operation instead).
type Operation struct {
	Op        OpTag
	From      string
	To        string
	Spender   string
	Token     string
	Amount    int64
	Name      string
	Symbol    string
	Decimals  uint8
	Timestamp int64
	Signer    string
	Signature string
	Memo      string
}

// EncodeOperation serializes op in the current wire format: fixed fields
// followed by an explicit has-memo flag, matching
// original_source/src/wallet/token.h's SERIALIZE_METHODS.
func EncodeOperation(op *Operation) ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := writeOperationFields(buf, op); err != nil {
		return nil, err
	}
	hasMemo := byte(0)
	if op.Memo != "" {
		hasMemo = 1
	}
	if err := wire.WriteByte(buf, hasMemo); err != nil {
		return nil, err
	}
	if hasMemo == 1 {
		if err := wire.WriteVarString(buf, op.Memo); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func writeOperationFields(w io.Writer, op *Operation) error {
	if err := wire.WriteByte(w, byte(op.Op)); err != nil {
		return err
	}
	for _, s := range []string{op.From, op.To, op.Spender, op.Token} {
		if err := wire.WriteVarString(w, s); err != nil {
			return err
		}
	}
	if err := wire.WriteInt64(w, op.Amount); err != nil {
		return err
	}
	for _, s := range []string{op.Name, op.Symbol} {
		if err := wire.WriteVarString(w, s); err != nil {
			return err
		}
	}
	if err := wire.WriteByte(w, op.Decimals); err != nil {
		return err
	}
	if err := wire.WriteInt64(w, op.Timestamp); err != nil {
		return err
	}
	for _, s := range []string{op.Signer, op.Signature} {
		if err := wire.WriteVarString(w, s); err != nil {
			return err
		}
	}
	return nil
}

func readOperationFields(r io.Reader) (*Operation, error) {
	op := &Operation{}
	tag, err := wire.ReadByte(r)
	if err != nil {
		return nil, err
	}
	op.Op = OpTag(tag)

	fields := make([]*string, 4)
	fields[0], fields[1], fields[2], fields[3] = &op.From, &op.To, &op.Spender, &op.Token
	for _, f := range fields {
		s, err := wire.ReadVarString(r, maxFieldLength)
		if err != nil {
			return nil, err
		}
		*f = s
	}
	if op.Amount, err = wire.ReadInt64(r); err != nil {
		return nil, err
	}
	if op.Name, err = wire.ReadVarString(r, maxFieldLength); err != nil {
		return nil, err
	}
	if op.Symbol, err = wire.ReadVarString(r, maxFieldLength); err != nil {
		return nil, err
	}
	if op.Decimals, err = wire.ReadByte(r); err != nil {
		return nil, err
	}
	if op.Timestamp, err = wire.ReadInt64(r); err != nil {
		return nil, err
	}
	if op.Signer, err = wire.ReadVarString(r, maxFieldLength); err != nil {
		return nil, err
	}
	if op.Signature, err = wire.ReadVarString(r, maxFieldLength); err != nil {
		return nil, err
	}
	return op, nil
}

// DecodeOperation decodes an OP_RETURN payload. It first tries the current
// wire format (a has-memo flag after the fixed fields); on failure it falls
// back to the legacy format that has no flag, treating any bytes remaining
// after the fixed fields as an optional trailing memo.
//
// Grounded on original_source/src/wallet/token.cpp's DecodeTokenOp, which
// tries the same two shapes in the same order. See DESIGN.md's Open
// Question decision on this dual-format fallback.
func DecodeOperation(data []byte) (*Operation, error) {
	if op, err := decodeCurrent(data); err == nil {
		return op, nil
	}
	return decodeLegacy(data)
}

func decodeCurrent(data []byte) (*Operation, error) {
	r := bytes.NewReader(data)
	op, err := readOperationFields(r)
	if err != nil {
		return nil, err
	}
	hasMemo, err := wire.ReadByte(r)
	if err != nil {
		return nil, err
	}
	if hasMemo == 1 {
		memo, err := wire.ReadVarString(r, maxFieldLength)
		if err != nil {
			return nil, err
		}
		op.Memo = memo
	} else if hasMemo != 0 {
		return nil, errors.Errorf("tokenledger: unexpected has-memo byte %d", hasMemo)
	}
	return op, nil
}

func decodeLegacy(data []byte) (*Operation, error) {
	r := bytes.NewReader(data)
	op, err := readOperationFields(r)
	if err != nil {
		return nil, err
	}
	if r.Len() > 0 {
		memo, err := wire.ReadVarString(r, maxFieldLength)
		if err != nil {
			return nil, err
		}
		op.Memo = memo
	}
	return op, nil
}
