// Package crypto provides pluggable witness/script verification for the
// consensus core's connect pipeline. CANONICAL §4.7 step 3b treats
// input authorization as an external, swappable collaborator; this
// package is that collaborator, generalized from a CryptoProvider
// abstraction used elsewhere in this lineage for swapping hardware or
// software signing backends without touching the validation pipeline.
package crypto

import (
	"crypto/ed25519"
	"fmt"

	"golang.org/x/crypto/blake2b"

	"github.com/handshake-org/hsd-sub011/consensus"
)

func blake2bSum(b []byte) [32]byte {
	return blake2b.Sum256(b)
}

// Provider verifies a single input's witness against the coin it
// spends. A concrete Provider may check a signature scheme, an HTLC
// preimage, or any other witness shape this core treats as opaque.
type Provider interface {
	VerifyInput(tx *consensus.TX, inputIndex int, spent consensus.CoinEntry) error
}

// AsVerifier adapts a Provider to consensus.Verifier, the interface the
// connect pipeline actually calls through.
func AsVerifier(p Provider) consensus.Verifier {
	return verifierAdapter{p}
}

type verifierAdapter struct{ p Provider }

func (v verifierAdapter) VerifyInput(tx *consensus.TX, inputIndex int, spent consensus.CoinEntry) error {
	return v.p.VerifyInput(tx, inputIndex, spent)
}

// Ed25519Provider verifies a single-signature witness: witness[0] is a
// 64-byte signature over the transaction's no-witness encoding,
// witness[1] is the 32-byte public key whose hash must equal the spent
// coin's address program.
type Ed25519Provider struct{}

func (Ed25519Provider) VerifyInput(tx *consensus.TX, inputIndex int, spent consensus.CoinEntry) error {
	in := tx.Inputs[inputIndex]
	if len(in.Witness) < 2 {
		return errf("input %d: expected signature and pubkey in witness", inputIndex)
	}
	sig, pub := in.Witness[0], in.Witness[1]
	if len(sig) != ed25519.SignatureSize {
		return errf("input %d: malformed signature length", inputIndex)
	}
	if len(pub) != ed25519.PublicKeySize {
		return errf("input %d: malformed public key length", inputIndex)
	}
	if !ed25519.Verify(ed25519.PublicKey(pub), tx.EncodeNoWitness(), sig) {
		return errf("input %d: signature verification failed", inputIndex)
	}
	return nil
}

func errf(format string, args ...any) error {
	return fmt.Errorf(format, args...)
}

// HTLCProvider verifies a hashlock witness: witness[0] is a preimage,
// witness[1] is a 64-byte signature, witness[2] a 32-byte public key.
// The preimage's BLAKE2b-256 hash must equal the first 32 bytes of the
// spent coin's address program (the hashlock committed at output
// creation), and the signature must verify as in Ed25519Provider. This
// mirrors the teacher lineage's hashed-timelock covenant shape, adapted
// from a script opcode check into a single opaque witness predicate.
type HTLCProvider struct{}

func (HTLCProvider) VerifyInput(tx *consensus.TX, inputIndex int, spent consensus.CoinEntry) error {
	in := tx.Inputs[inputIndex]
	if len(in.Witness) < 3 {
		return errf("input %d: expected preimage, signature, and pubkey in witness", inputIndex)
	}
	preimage, sig, pub := in.Witness[0], in.Witness[1], in.Witness[2]
	if len(spent.Address.Program) < 32 {
		return errf("input %d: spent coin program too short for a hashlock", inputIndex)
	}
	got := blake2bSum(preimage)
	if !bytesEqual(got[:], spent.Address.Program[:32]) {
		return errf("input %d: preimage does not match hashlock", inputIndex)
	}
	if len(sig) != ed25519.SignatureSize || len(pub) != ed25519.PublicKeySize {
		return errf("input %d: malformed signature or public key", inputIndex)
	}
	if !ed25519.Verify(ed25519.PublicKey(pub), tx.EncodeNoWitness(), sig) {
		return errf("input %d: signature verification failed", inputIndex)
	}
	return nil
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
