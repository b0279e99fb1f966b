package consensus

// Two-phase header hashing, CANONICAL §4.3. The stored header (236
// bytes, field order per §6.1) is split into a 128-byte preheader and a
// 128-byte subheader for hashing purposes only:
//
//	preheader = nonce(4) || time(8) || pad(20) || prevBlock(32) || treeRoot(32) || commitHash(32)
//	subheader = extraNonce(24) || reservedRoot(32) || witnessRoot(32) || merkleRoot(32) || version(4) || bits(4)
//
// commitHash is not a stored field; it is derived from the subheader
// and mask and folded back into the preheader before hashing, which is
// why PowHash recomputes it from the stored fields each time rather
// than reading it off the wire.

// pad returns n bytes derived from prevBlock and treeRoot:
// pad[i] = prevBlock[i%32] XOR treeRoot[i%32].
func pad(prevBlock, treeRoot Hash, n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = prevBlock[i%32] ^ treeRoot[i%32]
	}
	return out
}

func (h *BlockHeader) encodeSubheader() []byte {
	out := make([]byte, 0, 128)
	out = append(out, h.ExtraNonce[:]...)
	out = append(out, h.ReservedRoot[:]...)
	out = append(out, h.WitnessRoot[:]...)
	out = append(out, h.MerkleRoot[:]...)
	out = binaryAppendU32(out, h.Version)
	out = binaryAppendU32(out, h.Bits)
	return out
}

func (h *BlockHeader) encodePreheader(commitHash Hash) []byte {
	out := make([]byte, 0, 128)
	out = binaryAppendU32(out, h.Nonce)
	out = binaryAppendU64(out, h.Time)
	out = append(out, pad(h.PrevBlock, h.TreeRoot, 20)...)
	out = append(out, h.PrevBlock[:]...)
	out = append(out, h.TreeRoot[:]...)
	out = append(out, commitHash[:]...)
	return out
}

// SubHash is BLAKE2b-256 of the subheader.
func (h *BlockHeader) SubHash() Hash {
	return blake2b256(h.encodeSubheader())
}

// MaskHash is BLAKE2b-256(prevBlock || mask). Hashing with prevBlock
// lets a pool recycle a mask across template changes without the miner
// learning it from the mask alone.
func (h *BlockHeader) MaskHash() Hash {
	return blake2b256(h.PrevBlock[:], h.Mask[:])
}

// CommitHash ties the subheader (malleable fields) to the pool mask
// without revealing the mask, per §4.3.
func (h *BlockHeader) CommitHash() Hash {
	sub := h.SubHash()
	mh := h.MaskHash()
	return blake2b256(sub[:], mh[:])
}

// ShareHash lets a miner recognize a pool share without learning mask:
// only the pool (which knows mask) can distinguish a genuine block from
// a share by XOR-ing shareHash with mask and checking the PoW target.
func (h *BlockHeader) ShareHash() Hash {
	commit := h.CommitHash()
	pre := h.encodePreheader(commit)
	b512 := blake2b512(pre)
	pad32 := pad(h.PrevBlock, h.TreeRoot, 32)
	pad8 := pad(h.PrevBlock, h.TreeRoot, 8)
	s3 := sha3_256(pre, pad8)
	return blake2b256(b512[:], pad32, s3[:])
}

// PowHash is the block's identity hash: shareHash XOR mask, byte-wise.
// PoW passes when PowHash, read as a big-endian 256-bit number, is at
// most the target decoded from Bits. Cached after first computation
// since a header's fields are fixed once a candidate is submitted.
func (h *BlockHeader) PowHash() Hash {
	if h.cachedPowHash != nil {
		return *h.cachedPowHash
	}
	share := h.ShareHash()
	var out Hash
	for i := range out {
		out[i] = share[i] ^ h.Mask[i]
	}
	h.cachedPowHash = &out
	return out
}

// VerifyPOW reports whether PowHash satisfies the target encoded by Bits.
func (h *BlockHeader) VerifyPOW() bool {
	target, ok := BitsToTarget(h.Bits)
	if !ok {
		return false
	}
	return !hashExceedsTarget(h.PowHash(), target)
}
