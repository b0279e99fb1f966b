package consensus

// Merkle tree over witness hashes using the RFC-6962 tagged-hash scheme:
// leafHash = BLAKE2b-256(0x00 || witnessHash), nodeHash =
// BLAKE2b-256(0x01 || left || right). CANONICAL §9 flags this as an open
// question between RFC-6962 tagging and a plain tagged leaf with a
// sentinel empty hash for odd siblings; this implementation picks
// RFC-6962 throughout (each range is split left-heavy by
// merkleSubtreeHash, so no node is ever duplicated or left unpaired)
// and applies it consistently for both the leaf and internal node hash.

const (
	merkleLeafTag = 0x00
	merkleNodeTag = 0x01
)

func merkleLeafHash(witnessHash Hash) Hash {
	return blake2b256([]byte{merkleLeafTag}, witnessHash[:])
}

func merkleNodeHash(left, right Hash) Hash {
	return blake2b256([]byte{merkleNodeTag}, left[:], right[:])
}

// MerkleRoot computes the root over a list of transaction witness
// hashes. An empty list yields the zero hash. Uses the same recursive,
// ceiling-split subtree shape as collectMerkleBranch/ExtractTree's walk
// (mid = lo+(hi-lo+1)/2) so a root computed here and a root
// reconstructed from a MerkleBlock's partial proof always agree.
func MerkleRoot(witnessHashes []Hash) Hash {
	if len(witnessHashes) == 0 {
		return ZeroHash
	}
	return merkleSubtreeHash(witnessHashes, 0, len(witnessHashes))
}

// merkleSubtreeHash hashes the leaves in [lo,hi) into a single node
// hash, recursively splitting left-heavy exactly as collectMerkleBranch
// and ExtractTree's walk do, so build and extract directions always
// construct the identical tree.
func merkleSubtreeHash(leaves []Hash, lo, hi int) Hash {
	if hi-lo == 1 {
		return merkleLeafHash(leaves[lo])
	}
	mid := lo + (hi-lo+1)/2
	left := merkleSubtreeHash(leaves, lo, mid)
	right := merkleSubtreeHash(leaves, mid, hi)
	return merkleNodeHash(left, right)
}

// reduceLevel folds a level of already-hashed nodes up to a single root,
// pairing consecutive nodes left-to-right and carrying an unpaired final
// node up unchanged. Used by the name tree's commit, which (unlike the
// block merkle tree) never needs a matching partial-proof extraction, so
// its shape is independent of merkleSubtreeHash's.
func reduceLevel(level []Hash) Hash {
	for len(level) > 1 {
		next := make([]Hash, 0, (len(level)+1)/2)
		i := 0
		for ; i+1 < len(level); i += 2 {
			next = append(next, merkleNodeHash(level[i], level[i+1]))
		}
		if i < len(level) {
			next = append(next, level[i])
		}
		level = next
	}
	return level[0]
}

// BuildMerkleBlock constructs a MerkleBlock view over block for the
// given match flags (one bool per transaction, in order), carrying only
// the hashes and flag bits needed to prove the matched subset's
// inclusion, per CANONICAL §4.4.
func BuildMerkleBlock(header BlockHeader, txs []*TX, matches []bool) (*Block, error) {
	if len(matches) != len(txs) {
		return nil, newErrf(InvalidBody, "match list length %d does not match tx count %d", len(matches), len(txs))
	}
	leaves := make([]Hash, len(txs))
	for i, tx := range txs {
		leaves[i] = tx.WitnessHash()
	}
	var hashes []Hash
	var flags []bool
	matchedAny := collectMerkleBranch(leaves, matches, &hashes, &flags)
	_ = matchedAny

	var matched []*TX
	for i, m := range matches {
		if m {
			matched = append(matched, txs[i])
		}
	}

	return &Block{
		Kind:         MerkleBlockKind,
		Header:       header,
		TotalTxes:    uint32(len(txs)),
		MerkleHashes: hashes,
		MerkleFlags:  packFlags(flags),
		MatchedTxs:   matched,
	}, nil
}

// collectMerkleBranch walks the (conceptual) tree depth-first, pre-order,
// recording a "descend" flag (true) for any subtree containing a match
// (with no hash for an internal node, and the raw witness hash for a
// matched leaf), and a "cut" flag (false) with the subtree's hash for
// any subtree with no matches. It returns whether this subtree
// contains any match, appending to hashes/flags as it resolves each
// node.
func collectMerkleBranch(leaves []Hash, matches []bool, hashes *[]Hash, flags *[]bool) bool {
	var walk func(lo, hi int) (Hash, bool)
	walk = func(lo, hi int) (Hash, bool) {
		if hi-lo == 1 {
			match := matches[lo]
			*flags = append(*flags, match)
			if match {
				// The raw witness hash is carried (not the leaf-hashed
				// form) so ExtractTree can both report it as a matched
				// leaf and re-derive its leaf hash for the parent.
				*hashes = append(*hashes, leaves[lo])
				return merkleLeafHash(leaves[lo]), true
			}
			h := merkleLeafHash(leaves[lo])
			*hashes = append(*hashes, h)
			return h, false
		}
		mid := lo + (hi-lo+1)/2
		// probe whether this subtree has any match, without emitting
		// flags yet, so the parent's flag precedes its children.
		anyMatch := false
		for i := lo; i < hi; i++ {
			if matches[i] {
				anyMatch = true
				break
			}
		}
		*flags = append(*flags, anyMatch)
		if !anyMatch {
			h := merkleSubtreeHash(leaves, lo, hi)
			*hashes = append(*hashes, h)
			return h, false
		}
		leftHash, _ := walk(lo, mid)
		var rightHash Hash
		if mid < hi {
			rightHash, _ = walk(mid, hi)
		} else {
			rightHash = leftHash
		}
		var combined Hash
		if mid < hi {
			combined = merkleNodeHash(leftHash, rightHash)
		} else {
			combined = leftHash
		}
		return combined, true
	}
	_, any := walk(0, len(leaves))
	return any
}

func packFlags(flags []bool) []byte {
	out := make([]byte, (len(flags)+7)/8)
	for i, f := range flags {
		if f {
			out[i/8] |= 1 << uint(i%8)
		}
	}
	return out
}

func unpackFlags(b []byte, count int) []bool {
	out := make([]bool, count)
	for i := range out {
		out[i] = b[i/8]&(1<<uint(i%8)) != 0
	}
	return out
}

// ExtractTree reconstructs the merkle root and the matched witness
// hashes from a MerkleBlockKind block, verifying that every flag bit and
// every supplied hash is consumed exactly once and that the
// reconstructed root equals the header's MerkleRoot.
func (b *Block) ExtractTree() (root Hash, matched []Hash, err error) {
	if b.Kind != MerkleBlockKind {
		return Hash{}, nil, newErrf(InvalidBody, "ExtractTree called on block kind %d", b.Kind)
	}
	if b.TotalTxes == 0 {
		return Hash{}, nil, newErr(InvalidBody, "merkle block has zero total transactions")
	}
	maxFlagBits := len(b.MerkleFlags) * 8
	flagCount := 0 // computed on the fly below; we don't know it up front

	hashIdx := 0
	flagPos := 0
	readFlag := func() (bool, error) {
		if flagPos >= maxFlagBits {
			return false, newErr(InvalidBody, "merkle flag bitstream exhausted")
		}
		f := b.MerkleFlags[flagPos/8]&(1<<uint(flagPos%8)) != 0
		flagPos++
		flagCount++
		return f, nil
	}
	nextHash := func() (Hash, error) {
		if hashIdx >= len(b.MerkleHashes) {
			return Hash{}, newErr(InvalidBody, "merkle hash list exhausted")
		}
		h := b.MerkleHashes[hashIdx]
		hashIdx++
		return h, nil
	}

	var walk func(lo, hi int) (Hash, error)
	walk = func(lo, hi int) (Hash, error) {
		descend, err := readFlag()
		if err != nil {
			return Hash{}, err
		}
		if hi-lo == 1 {
			if descend {
				h, err := nextHash()
				if err != nil {
					return Hash{}, err
				}
				matched = append(matched, h)
				return merkleLeafHash(h), nil
			}
			return nextHash()
		}
		if !descend {
			return nextHash()
		}
		mid := lo + (hi-lo+1)/2
		left, err := walk(lo, mid)
		if err != nil {
			return Hash{}, err
		}
		if mid >= hi {
			return left, nil
		}
		right, err := walk(mid, hi)
		if err != nil {
			return Hash{}, err
		}
		return merkleNodeHash(left, right), nil
	}

	root, err = walk(0, int(b.TotalTxes))
	if err != nil {
		return Hash{}, nil, err
	}
	if hashIdx != len(b.MerkleHashes) {
		return Hash{}, nil, newErr(InvalidBody, "merkle hash list has unconsumed entries")
	}
	// Remaining bits in the last partial byte must be zero padding, not
	// additional meaningful flags.
	for i := flagPos; i < maxFlagBits; i++ {
		if b.MerkleFlags[i/8]&(1<<uint(i%8)) != 0 {
			return Hash{}, nil, newErr(InvalidBody, "merkle flag bitstream has unconsumed set bits")
		}
	}
	if root != b.Header.MerkleRoot {
		return Hash{}, nil, newErr(InvalidBody, "reconstructed merkle root does not match header")
	}
	return root, matched, nil
}
