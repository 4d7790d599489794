package tokenledger

import (
	"bytes"
	"testing"

	"github.com/pinpins/interchained/wire"
)

// legacyEncode writes op using the pre-memo-flag wire shape, for testing
// DecodeOperation's fallback path.
func legacyEncode(op *Operation) ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := writeOperationFields(buf, op); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func appendVarString(data []byte, s string) []byte {
	buf := bytes.NewBuffer(data)
	if err := wire.WriteVarString(buf, s); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

func sampleOperation() *Operation {
	return &Operation{
		Op:        OpTransfer,
		From:      "itc1qfromaddress",
		To:        "itc1qtoaddress",
		Spender:   "",
		Token:     "0x" + "aa11bb22cc33dd44ee55ff6600112233445566778899001122334455" + "tok",
		Amount:    12345,
		Name:      "",
		Symbol:    "",
		Decimals:  0,
		Timestamp: 1_700_000_000,
		Signer:    "itc1qfromaddress",
		Signature: "",
		Memo:      "",
	}
}

func TestEncodeDecodeOperationRoundTrip(t *testing.T) {
	op := sampleOperation()
	op.Memo = "hello"

	encoded, err := EncodeOperation(op)
	if err != nil {
		t.Fatalf("EncodeOperation failed: %s", err)
	}
	decoded, err := DecodeOperation(encoded)
	if err != nil {
		t.Fatalf("DecodeOperation failed: %s", err)
	}
	if *decoded != *op {
		t.Fatalf("round trip mismatch: got %+v, want %+v", decoded, op)
	}
}

func TestEncodeDecodeOperationRoundTripNoMemo(t *testing.T) {
	op := sampleOperation()

	encoded, err := EncodeOperation(op)
	if err != nil {
		t.Fatalf("EncodeOperation failed: %s", err)
	}
	decoded, err := DecodeOperation(encoded)
	if err != nil {
		t.Fatalf("DecodeOperation failed: %s", err)
	}
	if *decoded != *op {
		t.Fatalf("round trip mismatch: got %+v, want %+v", decoded, op)
	}
}

// decodeLegacy must accept a payload with no has-memo flag byte at all,
// treating any trailing bytes as an optional memo, matching
// original_source/src/wallet/token.cpp's DecodeTokenOp fallback.
func TestDecodeOperationLegacyFormatNoMemo(t *testing.T) {
	op := sampleOperation()
	legacy, err := legacyEncode(op)
	if err != nil {
		t.Fatalf("legacyEncode failed: %s", err)
	}

	decoded, err := DecodeOperation(legacy)
	if err != nil {
		t.Fatalf("DecodeOperation failed on legacy payload: %s", err)
	}
	if decoded.Op != op.Op || decoded.From != op.From || decoded.Amount != op.Amount {
		t.Fatalf("legacy decode mismatch: got %+v, want %+v", decoded, op)
	}
	if decoded.Memo != "" {
		t.Fatalf("expected no memo, got %q", decoded.Memo)
	}
}

func TestDecodeOperationLegacyFormatWithTrailingMemo(t *testing.T) {
	op := sampleOperation()
	legacy, err := legacyEncode(op)
	if err != nil {
		t.Fatalf("legacyEncode failed: %s", err)
	}
	withMemo := appendVarString(legacy, "a trailing memo")

	decoded, err := DecodeOperation(withMemo)
	if err != nil {
		t.Fatalf("DecodeOperation failed on legacy payload with memo: %s", err)
	}
	if decoded.Memo != "a trailing memo" {
		t.Fatalf("got memo %q, want %q", decoded.Memo, "a trailing memo")
	}
}
