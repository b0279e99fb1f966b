package consensus

import (
	"crypto/sha3"

	"golang.org/x/crypto/blake2b"
)

// Hash is the 32-byte consensus hash used for txids, merkle nodes, block
// identity, and name-tree keys.
type Hash [32]byte

// ZeroHash is the all-zero sentinel used for the coinbase prevout and the
// genesis block's PrevBlock field.
var ZeroHash Hash

func (h Hash) IsZero() bool { return h == ZeroHash }

func blake2b256(parts ...[]byte) Hash {
	d, err := blake2b.New256(nil)
	if err != nil {
		// blake2b.New256 only fails for an oversize key; we pass none.
		panic(err)
	}
	for _, p := range parts {
		d.Write(p)
	}
	var out Hash
	copy(out[:], d.Sum(nil))
	return out
}

func blake2b512(parts ...[]byte) [64]byte {
	d, err := blake2b.New512(nil)
	if err != nil {
		panic(err)
	}
	for _, p := range parts {
		d.Write(p)
	}
	var out [64]byte
	copy(out[:], d.Sum(nil))
	return out
}

func sha3_256(parts ...[]byte) Hash {
	d := sha3.New256()
	for _, p := range parts {
		d.Write(p)
	}
	var out Hash
	copy(out[:], d.Sum(nil))
	return out
}
