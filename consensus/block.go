package consensus

// BlockHeader is the fixed 236-byte block header from CANONICAL §6.1.
// Field order on the wire is exactly: nonce, time, prevBlock, treeRoot,
// extraNonce, reservedRoot, witnessRoot, merkleRoot, version, bits,
// mask. This differs from the preheader/subheader split used for
// hashing (see headerhash.go): the wire layout is what's stored and
// transmitted, the preheader/subheader split is a derived view used
// only to compute commitHash/shareHash/powHash.
type BlockHeader struct {
	Nonce       uint32
	Time        uint64
	PrevBlock   Hash
	TreeRoot    Hash // name-tree commitment root
	ExtraNonce  [24]byte
	ReservedRoot Hash
	WitnessRoot Hash // witness-hash merkle root
	MerkleRoot  Hash // transaction id merkle root
	Version     uint32
	Bits        uint32
	Mask        [32]byte // pool-hiding XOR pad, see headerhash.go

	cachedPowHash *Hash
}

const HeaderSize = 4 + 8 + 32 + 32 + 24 + 32 + 32 + 32 + 4 + 4 + 32

// Encode returns the full 236-byte wire encoding, field order per
// CANONICAL §6.1.
func (h *BlockHeader) Encode() []byte {
	out := make([]byte, 0, HeaderSize)
	out = binaryAppendU32(out, h.Nonce)
	out = binaryAppendU64(out, h.Time)
	out = append(out, h.PrevBlock[:]...)
	out = append(out, h.TreeRoot[:]...)
	out = append(out, h.ExtraNonce[:]...)
	out = append(out, h.ReservedRoot[:]...)
	out = append(out, h.WitnessRoot[:]...)
	out = append(out, h.MerkleRoot[:]...)
	out = binaryAppendU32(out, h.Version)
	out = binaryAppendU32(out, h.Bits)
	out = append(out, h.Mask[:]...)
	return out
}

func DecodeBlockHeader(b []byte) (*BlockHeader, int, error) {
	c := newCursor(b)
	h := &BlockHeader{}
	var err error
	if h.Nonce, err = c.readU32(); err != nil {
		return nil, 0, err
	}
	if h.Time, err = c.readU64(); err != nil {
		return nil, 0, err
	}
	if h.PrevBlock, err = c.readHash(); err != nil {
		return nil, 0, err
	}
	if h.TreeRoot, err = c.readHash(); err != nil {
		return nil, 0, err
	}
	extra, err := c.readExact(24)
	if err != nil {
		return nil, 0, err
	}
	copy(h.ExtraNonce[:], extra)
	if h.ReservedRoot, err = c.readHash(); err != nil {
		return nil, 0, err
	}
	if h.WitnessRoot, err = c.readHash(); err != nil {
		return nil, 0, err
	}
	if h.MerkleRoot, err = c.readHash(); err != nil {
		return nil, 0, err
	}
	if h.Version, err = c.readU32(); err != nil {
		return nil, 0, err
	}
	if h.Bits, err = c.readU32(); err != nil {
		return nil, 0, err
	}
	mask, err := c.readExact(32)
	if err != nil {
		return nil, 0, err
	}
	copy(h.Mask[:], mask)
	return h, c.pos, nil
}

// BlockKind tags which variant of the block family a Block value holds.
// Only FullBlock carries complete transaction bodies; the other variants
// are thinner views over the same header that a store or peer may
// persist or relay depending on pruning and SPV needs (CANONICAL §3,
// §9 "Mutation-through-abstraction").
type BlockKind uint8

const (
	FullBlock BlockKind = iota
	MerkleBlockKind
	HeadersOnlyBlock
	RawBlock
)

// Block is the tagged union over the block family: Full{header,txs} |
// Merkle{header,totalTX,hashes,flags} | HeadersOnly{header} |
// Raw{header,bytes}, sharing the small trait set {serialize, hash,
// verifyPOW} via the methods below. Exactly the fields relevant to Kind
// are populated; callers must switch on Kind before reading
// variant-specific fields.
type Block struct {
	Kind   BlockKind
	Header BlockHeader

	// FullBlock
	Txs []*TX

	// MerkleBlockKind
	TotalTxes    uint32
	MerkleHashes []Hash
	MerkleFlags  []byte
	MatchedTxs   []*TX // subset of Txs proven present by the merkle branch

	// RawBlock: a lazy-decode wrapper per §9 "Deferred parsing" —
	// header is already decoded but the body remains an opaque byte
	// buffer until something on the hot path actually needs it.
	RawBody []byte
}

type Trait interface {
	HeaderOf() *BlockHeader
	BlockKind() BlockKind
	PowHash() Hash
}

func (b *Block) HeaderOf() *BlockHeader { return &b.Header }
func (b *Block) BlockKind() BlockKind   { return b.Kind }
func (b *Block) PowHash() Hash          { return b.Header.PowHash() }

// EncodeFull serializes a FullBlock: header || varint(txCount) || tx*.
func (b *Block) EncodeFull() ([]byte, error) {
	if b.Kind != FullBlock {
		return nil, newErrf(InvalidBody, "EncodeFull called on block kind %d", b.Kind)
	}
	out := b.Header.Encode()
	out = AppendVarint(out, uint64(len(b.Txs)))
	for _, tx := range b.Txs {
		out = append(out, tx.Encode()...)
	}
	return out, nil
}

const maxBlockTxs = 100_000

// DecodeFullBlock parses a complete block: header followed by its
// transaction list.
func DecodeFullBlock(buf []byte) (*Block, error) {
	header, n, err := DecodeBlockHeader(buf)
	if err != nil {
		return nil, err
	}
	c := newCursor(buf[n:])
	count, err := c.readVarint()
	if err != nil {
		return nil, err
	}
	if count > maxBlockTxs {
		return nil, newErrf(InvalidBody, "tx count %d exceeds max %d", count, maxBlockTxs)
	}
	if count == 0 {
		return nil, newErr(InvalidBody, "block has zero transactions")
	}
	txs := make([]*TX, 0, count)
	rest := buf[n:]
	offset := c.pos
	for i := uint64(0); i < count; i++ {
		tx, consumed, err := DecodeTX(rest[offset:])
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
		offset += consumed
	}
	return &Block{Kind: FullBlock, Header: *header, Txs: txs}, nil
}

// DecodeHeadersOnly parses a bare header with no body, used for the
// headers-first sync path.
func DecodeHeadersOnly(buf []byte) (*Block, error) {
	header, _, err := DecodeBlockHeader(buf)
	if err != nil {
		return nil, err
	}
	return &Block{Kind: HeadersOnlyBlock, Header: *header}, nil
}

// NewRawBlock wraps an already-decoded header with its still-unparsed
// body bytes, per §9 "Deferred parsing".
func NewRawBlock(header BlockHeader, body []byte) *Block {
	return &Block{Kind: RawBlock, Header: header, RawBody: body}
}
