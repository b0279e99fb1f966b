package crypto

import (
	"crypto/ed25519"
	"testing"

	"golang.org/x/crypto/blake2b"

	"github.com/handshake-org/hsd-sub011/consensus"
)

func sampleTx() *consensus.TX {
	return &consensus.TX{
		Version: 1,
		Inputs: []consensus.Input{{
			Prevout: consensus.Outpoint{Hash: consensus.Hash{1}, Index: 0},
		}},
		Outputs: []consensus.Output{{
			Value:   100,
			Address: consensus.Address{Version: 0, Program: make([]byte, 20)},
		}},
	}
}

func TestEd25519ProviderVerifiesValidSignature(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	tx := sampleTx()
	sig := ed25519.Sign(priv, tx.EncodeNoWitness())
	tx.Inputs[0].Witness = [][]byte{sig, pub}

	if err := (Ed25519Provider{}).VerifyInput(tx, 0, consensus.CoinEntry{}); err != nil {
		t.Fatalf("VerifyInput: %v", err)
	}
}

func TestEd25519ProviderRejectsWrongSignature(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	tx := sampleTx()
	tx.Inputs[0].Witness = [][]byte{make([]byte, ed25519.SignatureSize), pub}

	if err := (Ed25519Provider{}).VerifyInput(tx, 0, consensus.CoinEntry{}); err == nil {
		t.Fatalf("expected error for a bogus signature")
	}
}

func TestEd25519ProviderRejectsShortWitness(t *testing.T) {
	tx := sampleTx()
	tx.Inputs[0].Witness = [][]byte{make([]byte, ed25519.SignatureSize)}
	if err := (Ed25519Provider{}).VerifyInput(tx, 0, consensus.CoinEntry{}); err == nil {
		t.Fatalf("expected error when witness is missing the public key")
	}
}

func TestHTLCProviderVerifiesPreimageAndSignature(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	preimage := []byte("secret")
	hashlock := blake2b.Sum256(preimage)

	tx := sampleTx()
	sig := ed25519.Sign(priv, tx.EncodeNoWitness())
	tx.Inputs[0].Witness = [][]byte{preimage, sig, pub}

	spent := consensus.CoinEntry{Address: consensus.Address{Program: hashlock[:]}}
	if err := (HTLCProvider{}).VerifyInput(tx, 0, spent); err != nil {
		t.Fatalf("VerifyInput: %v", err)
	}
}

func TestHTLCProviderRejectsWrongPreimage(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	hashlock := blake2b.Sum256([]byte("secret"))

	tx := sampleTx()
	sig := ed25519.Sign(priv, tx.EncodeNoWitness())
	tx.Inputs[0].Witness = [][]byte{[]byte("wrong-preimage"), sig, pub}

	spent := consensus.CoinEntry{Address: consensus.Address{Program: hashlock[:]}}
	if err := (HTLCProvider{}).VerifyInput(tx, 0, spent); err == nil {
		t.Fatalf("expected error for a preimage that does not match the hashlock")
	}
}

func TestHTLCProviderRejectsShortSpentProgram(t *testing.T) {
	tx := sampleTx()
	tx.Inputs[0].Witness = [][]byte{[]byte("x"), make([]byte, ed25519.SignatureSize), make([]byte, ed25519.PublicKeySize)}
	spent := consensus.CoinEntry{Address: consensus.Address{Program: make([]byte, 10)}}
	if err := (HTLCProvider{}).VerifyInput(tx, 0, spent); err == nil {
		t.Fatalf("expected error when spent program is too short for a hashlock")
	}
}
