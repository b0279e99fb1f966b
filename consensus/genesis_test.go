package consensus

import "testing"

func TestGenesisStructuralInvariants(t *testing.T) {
	p := RegtestParams()
	b := Genesis(p)

	if b.Kind != FullBlock {
		t.Fatalf("genesis block kind = %v, want FullBlock", b.Kind)
	}
	if len(b.Txs) != 1 {
		t.Fatalf("genesis tx count = %d, want 1", len(b.Txs))
	}
	if !b.Txs[0].IsCoinbase() {
		t.Fatalf("genesis transaction must be a coinbase")
	}
	if !b.Header.PrevBlock.IsZero() {
		t.Fatalf("genesis prevBlock must be zero")
	}
	if b.Header.MerkleRoot != MerkleRoot([]Hash{b.Txs[0].Hash()}) {
		t.Fatalf("genesis merkle root does not match its single transaction")
	}
	if b.Header.WitnessRoot != MerkleRoot([]Hash{b.Txs[0].WitnessHash()}) {
		t.Fatalf("genesis witness root does not match its single transaction")
	}
}

func TestGenesisEncodesAndDecodes(t *testing.T) {
	p := RegtestParams()
	b := Genesis(p)
	enc, err := b.EncodeFull()
	if err != nil {
		t.Fatalf("EncodeFull: %v", err)
	}
	got, err := DecodeFullBlock(enc)
	if err != nil {
		t.Fatalf("DecodeFullBlock: %v", err)
	}
	if len(got.Txs) != 1 || got.Txs[0].Hash() != b.Txs[0].Hash() {
		t.Fatalf("decoded genesis block does not match original")
	}
}
