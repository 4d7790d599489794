package tokenledger

import (
	"encoding/base64"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
)

func signOperation(t *testing.T, op *Operation, priv *btcec.PrivateKey) {
	t.Helper()
	digest := messageDigest(BuildMessage(op))
	sig, err := ecdsa.SignCompact(priv, digest[:], true)
	if err != nil {
		t.Fatalf("failed to sign: %s", err)
	}
	op.Signature = base64.StdEncoding.EncodeToString(sig)
}

func TestVerifySignatureLegacyAddress(t *testing.T) {
	priv, err := btcec.NewPrivateKey()
	if err != nil {
		t.Fatalf("failed to generate key: %s", err)
	}
	addr := legacyAddress(hash160(priv.PubKey().SerializeCompressed()))

	op := sampleOperation()
	op.From = addr
	op.Signer = addr
	signOperation(t, op, priv)

	ok, err := VerifySignature(op, addr)
	if err != nil {
		t.Fatalf("VerifySignature returned error: %s", err)
	}
	if !ok {
		t.Fatalf("expected signature to verify against legacy address")
	}
}

func TestVerifySignatureWitnessAddress(t *testing.T) {
	priv, err := btcec.NewPrivateKey()
	if err != nil {
		t.Fatalf("failed to generate key: %s", err)
	}
	addr, err := witnessAddress(hash160(priv.PubKey().SerializeCompressed()))
	if err != nil {
		t.Fatalf("witnessAddress failed: %s", err)
	}

	op := sampleOperation()
	op.From = addr
	op.Signer = addr
	signOperation(t, op, priv)

	ok, err := VerifySignature(op, addr)
	if err != nil {
		t.Fatalf("VerifySignature returned error: %s", err)
	}
	if !ok {
		t.Fatalf("expected signature to verify against witness address")
	}
}

func TestVerifySignatureRejectsWrongSigner(t *testing.T) {
	priv, err := btcec.NewPrivateKey()
	if err != nil {
		t.Fatalf("failed to generate key: %s", err)
	}
	other, err := btcec.NewPrivateKey()
	if err != nil {
		t.Fatalf("failed to generate key: %s", err)
	}
	wrongAddr := legacyAddress(hash160(other.PubKey().SerializeCompressed()))

	op := sampleOperation()
	signOperation(t, op, priv)

	ok, err := VerifySignature(op, wrongAddr)
	if err != nil {
		t.Fatalf("VerifySignature returned unexpected error: %s", err)
	}
	if ok {
		t.Fatalf("expected signature verification to fail for mismatched signer")
	}
}

func TestVerifySignatureRejectsTamperedOperation(t *testing.T) {
	priv, err := btcec.NewPrivateKey()
	if err != nil {
		t.Fatalf("failed to generate key: %s", err)
	}
	addr := legacyAddress(hash160(priv.PubKey().SerializeCompressed()))

	op := sampleOperation()
	op.From = addr
	op.Signer = addr
	signOperation(t, op, priv)

	op.Amount = op.Amount + 1

	ok, _ := VerifySignature(op, addr)
	if ok {
		t.Fatalf("expected signature verification to fail after tampering with amount")
	}
}
