package consensus

import "testing"

func hashesFromSeeds(seeds ...byte) []Hash {
	out := make([]Hash, len(seeds))
	for i, s := range seeds {
		out[i][0] = s
	}
	return out
}

func TestMerkleRootEmpty(t *testing.T) {
	if got := MerkleRoot(nil); got != ZeroHash {
		t.Fatalf("empty merkle root should be the zero hash")
	}
}

func TestMerkleRootSingleLeaf(t *testing.T) {
	leaves := hashesFromSeeds(0x01)
	want := merkleLeafHash(leaves[0])
	if got := MerkleRoot(leaves); got != want {
		t.Fatalf("single-leaf root should equal the leaf hash")
	}
}

func TestMerkleRootOddNodeCarriedUnchanged(t *testing.T) {
	leaves := hashesFromSeeds(1, 2, 3)
	l0 := merkleLeafHash(leaves[0])
	l1 := merkleLeafHash(leaves[1])
	l2 := merkleLeafHash(leaves[2])
	want := merkleNodeHash(merkleNodeHash(l0, l1), l2)
	if got := MerkleRoot(leaves); got != want {
		t.Fatalf("odd-node promotion mismatch: got %x want %x", got, want)
	}
}

func TestMerkleBlockRoundTripAllMatch(t *testing.T) {
	leaves := hashesFromSeeds(1, 2, 3, 4, 5, 6, 7)
	root := MerkleRoot(leaves)
	header := BlockHeader{MerkleRoot: root}

	txs := make([]*TX, len(leaves))
	for i := range txs {
		txs[i] = minimalTX()
	}
	matches := make([]bool, len(leaves))
	for i := range matches {
		matches[i] = true
	}

	// Build directly against the leaves rather than through TX witness
	// hashes, since collectMerkleBranch only needs the leaf hash list.
	var hashes []Hash
	var flags []bool
	collectMerkleBranch(leaves, matches, &hashes, &flags)
	block := &Block{
		Kind:         MerkleBlockKind,
		Header:       header,
		TotalTxes:    uint32(len(leaves)),
		MerkleHashes: hashes,
		MerkleFlags:  packFlags(flags),
	}

	gotRoot, matched, err := block.ExtractTree()
	if err != nil {
		t.Fatalf("ExtractTree: %v", err)
	}
	if gotRoot != root {
		t.Fatalf("reconstructed root mismatch")
	}
	if len(matched) != len(leaves) {
		t.Fatalf("got %d matched leaves, want %d", len(matched), len(leaves))
	}
}

func TestMerkleBlockRoundTripPartialMatch(t *testing.T) {
	leaves := hashesFromSeeds(1, 2, 3, 4, 5)
	root := MerkleRoot(leaves)
	header := BlockHeader{MerkleRoot: root}
	matches := []bool{false, true, false, false, true}

	var hashes []Hash
	var flags []bool
	collectMerkleBranch(leaves, matches, &hashes, &flags)
	block := &Block{
		Kind:         MerkleBlockKind,
		Header:       header,
		TotalTxes:    uint32(len(leaves)),
		MerkleHashes: hashes,
		MerkleFlags:  packFlags(flags),
	}

	gotRoot, matched, err := block.ExtractTree()
	if err != nil {
		t.Fatalf("ExtractTree: %v", err)
	}
	if gotRoot != root {
		t.Fatalf("reconstructed root mismatch")
	}
	if len(matched) != 2 {
		t.Fatalf("got %d matched leaves, want 2", len(matched))
	}
	if matched[0] != leaves[1] || matched[1] != leaves[4] {
		t.Fatalf("matched leaves in wrong order or wrong value")
	}
}

func TestExtractTreeRejectsCorruptRoot(t *testing.T) {
	leaves := hashesFromSeeds(1, 2, 3)
	root := MerkleRoot(leaves)
	header := BlockHeader{MerkleRoot: root}
	header.MerkleRoot[0] ^= 0xff

	matches := []bool{true, false, false}
	var hashes []Hash
	var flags []bool
	collectMerkleBranch(leaves, matches, &hashes, &flags)
	block := &Block{
		Kind:         MerkleBlockKind,
		Header:       header,
		TotalTxes:    uint32(len(leaves)),
		MerkleHashes: hashes,
		MerkleFlags:  packFlags(flags),
	}
	if _, _, err := block.ExtractTree(); err == nil {
		t.Fatalf("expected error for corrupted header root")
	}
}
