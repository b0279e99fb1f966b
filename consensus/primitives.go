package consensus

import "bytes"

// Address is a segment-style address: a version byte (0-31) plus a 2-40
// byte program, per CANONICAL §6.3. String encoding (bech32-ish with a
// network-specific prefix and 6-symbol checksum) lives in address.go;
// this type is only the decoded, network-independent value.
type Address struct {
	Version uint8
	Program []byte
}

const (
	minAddressProgram = 2
	maxAddressProgram = 40
)

func (a Address) Validate() error {
	if a.Version > 31 {
		return newErrf(InvalidEncoding, "address version %d out of range [0,31]", a.Version)
	}
	if len(a.Program) < minAddressProgram || len(a.Program) > maxAddressProgram {
		return newErrf(InvalidEncoding, "address program length %d out of range [%d,%d]", len(a.Program), minAddressProgram, maxAddressProgram)
	}
	return nil
}

func (a Address) Equal(o Address) bool {
	return a.Version == o.Version && bytes.Equal(a.Program, o.Program)
}

func (a Address) Encode() []byte {
	out := make([]byte, 0, 2+len(a.Program))
	out = append(out, a.Version)
	out = AppendVarbytes(out, a.Program)
	return out
}

// DecodeAddress parses an Address from the front of b, per the wire
// form produced by Address.Encode. Returns the address and the number
// of bytes consumed.
func DecodeAddress(b []byte) (Address, int, error) {
	c := newCursor(b)
	a, err := decodeAddress(c)
	if err != nil {
		return Address{}, 0, err
	}
	return a, c.pos, nil
}

func decodeAddress(c *cursor) (Address, error) {
	version, err := c.readU8()
	if err != nil {
		return Address{}, err
	}
	program, err := c.readVarbytes(maxAddressProgram)
	if err != nil {
		return Address{}, err
	}
	a := Address{Version: version, Program: append([]byte(nil), program...)}
	if err := a.Validate(); err != nil {
		return Address{}, err
	}
	return a, nil
}

// CovenantType tags what an output's covenant asserts. The NONE type is a
// plain value transfer; all others drive the name-auction state machine
// (CANONICAL §4.6).
type CovenantType uint8

const (
	CovenantNone     CovenantType = 0
	CovenantClaim    CovenantType = 1
	CovenantOpen     CovenantType = 2
	CovenantBid      CovenantType = 3
	CovenantReveal   CovenantType = 4
	CovenantRedeem   CovenantType = 5
	CovenantRegister CovenantType = 6
	CovenantUpdate   CovenantType = 7
	CovenantRenew    CovenantType = 8
	CovenantTransfer CovenantType = 9
	CovenantFinalize CovenantType = 10
	CovenantRevoke   CovenantType = 11
)

// expectedItemCounts lists the required item count for every known
// covenant type, from the table in CANONICAL §4.6. A count outside this
// set (for a known type) is a malformed covenant.
var expectedItemCounts = map[CovenantType]int{
	CovenantNone:     0,
	CovenantClaim:    6,
	CovenantOpen:     3,
	CovenantBid:      4,
	CovenantReveal:   3,
	CovenantRedeem:   2,
	CovenantRegister: 4,
	CovenantUpdate:   3,
	CovenantRenew:    3,
	CovenantTransfer: 4,
	CovenantFinalize: 6,
	CovenantRevoke:   2,
}

func (t CovenantType) String() string {
	switch t {
	case CovenantNone:
		return "NONE"
	case CovenantClaim:
		return "CLAIM"
	case CovenantOpen:
		return "OPEN"
	case CovenantBid:
		return "BID"
	case CovenantReveal:
		return "REVEAL"
	case CovenantRedeem:
		return "REDEEM"
	case CovenantRegister:
		return "REGISTER"
	case CovenantUpdate:
		return "UPDATE"
	case CovenantRenew:
		return "RENEW"
	case CovenantTransfer:
		return "TRANSFER"
	case CovenantFinalize:
		return "FINALIZE"
	case CovenantRevoke:
		return "REVOKE"
	default:
		return "UNKNOWN"
	}
}

// IsNameAction reports whether t is anything other than a plain transfer.
func (t CovenantType) IsNameAction() bool { return t != CovenantNone }

// Covenant is a typed tag on an output: a type byte plus an ordered
// sequence of opaque byte-string items. The item count and meaning of
// each item is interpreted per-type by the name state machine
// (consensus/namestate.go); this type only carries the raw, parsed items.
type Covenant struct {
	Type  CovenantType
	Items [][]byte
}

const maxCovenantItemLen = 1024
const maxCovenantItems = 16

func (cv Covenant) Validate() error {
	want, known := expectedItemCounts[cv.Type]
	if !known {
		// Unknown types are tolerated at the wire layer (forward
		// compatibility) but rejected by covenant validation.
		if len(cv.Items) > maxCovenantItems {
			return newErrf(InvalidEncoding, "covenant item count %d exceeds max %d", len(cv.Items), maxCovenantItems)
		}
		return nil
	}
	if len(cv.Items) != want {
		return newErrf(InvalidEncoding, "covenant type %s requires %d items, got %d", cv.Type, want, len(cv.Items))
	}
	for _, item := range cv.Items {
		if len(item) > maxCovenantItemLen {
			return newErrf(InvalidEncoding, "covenant item length %d exceeds max %d", len(item), maxCovenantItemLen)
		}
	}
	return nil
}

func (cv Covenant) Encode() []byte {
	out := make([]byte, 0, 2+len(cv.Items)*4)
	out = append(out, byte(cv.Type))
	out = AppendVarint(out, uint64(len(cv.Items)))
	for _, item := range cv.Items {
		out = AppendVarbytes(out, item)
	}
	return out
}

// DecodeCovenant parses a Covenant from the front of b, per the wire
// form produced by Covenant.Encode. Returns the covenant and the
// number of bytes consumed.
func DecodeCovenant(b []byte) (Covenant, int, error) {
	c := newCursor(b)
	cv, err := decodeCovenant(c)
	if err != nil {
		return Covenant{}, 0, err
	}
	return cv, c.pos, nil
}

func decodeCovenant(c *cursor) (Covenant, error) {
	typ, err := c.readU8()
	if err != nil {
		return Covenant{}, err
	}
	n, err := c.readVarint()
	if err != nil {
		return Covenant{}, err
	}
	if n > maxCovenantItems {
		return Covenant{}, newErrf(InvalidEncoding, "covenant item count %d exceeds max %d", n, maxCovenantItems)
	}
	items := make([][]byte, 0, n)
	for i := uint64(0); i < n; i++ {
		item, err := c.readVarbytes(maxCovenantItemLen)
		if err != nil {
			return Covenant{}, err
		}
		items = append(items, append([]byte(nil), item...))
	}
	cv := Covenant{Type: CovenantType(typ), Items: items}
	if err := cv.Validate(); err != nil {
		return Covenant{}, err
	}
	return cv, nil
}

// Outpoint identifies an output by its transaction id and index.
type Outpoint struct {
	Hash  Hash
	Index uint32
}

// CoinbaseIndex is the sentinel index used by a coinbase input's outpoint.
const CoinbaseIndex uint32 = 0xffffffff

func (o Outpoint) IsCoinbase() bool {
	return o.Hash.IsZero() && o.Index == CoinbaseIndex
}

func (o Outpoint) Encode() []byte {
	out := make([]byte, 0, 36)
	out = append(out, o.Hash[:]...)
	return binaryAppendU32(out, o.Index)
}

func decodeOutpoint(c *cursor) (Outpoint, error) {
	h, err := c.readHash()
	if err != nil {
		return Outpoint{}, err
	}
	idx, err := c.readU32()
	if err != nil {
		return Outpoint{}, err
	}
	return Outpoint{Hash: h, Index: idx}, nil
}

// Input is a transaction input: the coin it spends, its sequence value,
// and an ordered witness stack carried out-of-band from the txid (but
// covered by the witness-root commitment).
type Input struct {
	Prevout  Outpoint
	Sequence uint32
	Witness  [][]byte
}

const maxWitnessItems = 100
const maxWitnessItemLen = 1 << 20

func (in Input) encodeNoWitness() []byte {
	out := in.Prevout.Encode()
	return binaryAppendU32(out, in.Sequence)
}

func (in Input) encodeWitness() []byte {
	out := AppendVarint(nil, uint64(len(in.Witness)))
	for _, w := range in.Witness {
		out = AppendVarbytes(out, w)
	}
	return out
}

func decodeInputNoWitness(c *cursor) (Input, error) {
	prevout, err := decodeOutpoint(c)
	if err != nil {
		return Input{}, err
	}
	seq, err := c.readU32()
	if err != nil {
		return Input{}, err
	}
	return Input{Prevout: prevout, Sequence: seq}, nil
}

func decodeWitnessInto(c *cursor, in *Input) error {
	n, err := c.readVarint()
	if err != nil {
		return err
	}
	if n > maxWitnessItems {
		return newErrf(InvalidEncoding, "witness stack length %d exceeds max %d", n, maxWitnessItems)
	}
	items := make([][]byte, 0, n)
	for i := uint64(0); i < n; i++ {
		item, err := c.readVarbytes(maxWitnessItemLen)
		if err != nil {
			return err
		}
		items = append(items, append([]byte(nil), item...))
	}
	in.Witness = items
	return nil
}

// Output is a value + address + covenant tuple.
type Output struct {
	Value    uint64
	Address  Address
	Covenant Covenant
}

func (out Output) Encode() []byte {
	b := binaryAppendU64(nil, out.Value)
	b = append(b, out.Address.Encode()...)
	b = append(b, out.Covenant.Encode()...)
	return b
}

func decodeOutput(c *cursor) (Output, error) {
	value, err := c.readU64()
	if err != nil {
		return Output{}, err
	}
	addr, err := decodeAddress(c)
	if err != nil {
		return Output{}, err
	}
	cv, err := decodeCovenant(c)
	if err != nil {
		return Output{}, err
	}
	return Output{Value: value, Address: addr, Covenant: cv}, nil
}

// TX is a full transaction. Hash and WitnessHash are computed lazily and
// cached: re-computing them is always safe (they're pure functions of the
// encoded bytes) but callers on the hot path should prefer the cached
// accessors below over re-encoding. This mirrors the source's "cyclic
// cache on an otherwise-immutable value" pattern (CANONICAL §9) using
// plain nil-checked fields rather than borrowing the value mutably.
type TX struct {
	Version  uint32
	Locktime uint32
	Inputs   []Input
	Outputs  []Output

	cachedHash        *Hash
	cachedWitnessHash *Hash
}

const maxTxInputs = 10_000
const maxTxOutputs = 10_000

// EncodeNoWitness returns the txid-covered serialization: version,
// inputs (outpoint+sequence only), outputs, locktime. Witnesses are
// excluded so the txid is stable across malleation of witness data.
func (tx *TX) EncodeNoWitness() []byte {
	out := binaryAppendU32(nil, tx.Version)
	out = AppendVarint(out, uint64(len(tx.Inputs)))
	for _, in := range tx.Inputs {
		out = append(out, in.encodeNoWitness()...)
	}
	out = AppendVarint(out, uint64(len(tx.Outputs)))
	for _, o := range tx.Outputs {
		out = append(out, o.Encode()...)
	}
	out = binaryAppendU32(out, tx.Locktime)
	return out
}

// Encode returns the full wire serialization per CANONICAL §6.2: the
// no-witness body followed by every input's witness stack, in input
// order, appended after the locktime field.
func (tx *TX) Encode() []byte {
	out := tx.EncodeNoWitness()
	for _, in := range tx.Inputs {
		out = append(out, in.encodeWitness()...)
	}
	return out
}

// DecodeTX parses a transaction from the front of b per CANONICAL §6.2,
// returning the transaction and the number of bytes consumed.
func DecodeTX(b []byte) (*TX, int, error) {
	c := newCursor(b)
	version, err := c.readU32()
	if err != nil {
		return nil, 0, err
	}
	inCount, err := c.readVarint()
	if err != nil {
		return nil, 0, err
	}
	if inCount > maxTxInputs {
		return nil, 0, newErrf(InvalidEncoding, "input count %d exceeds max %d", inCount, maxTxInputs)
	}
	inputs := make([]Input, inCount)
	for i := range inputs {
		in, err := decodeInputNoWitness(c)
		if err != nil {
			return nil, 0, err
		}
		inputs[i] = in
	}
	outCount, err := c.readVarint()
	if err != nil {
		return nil, 0, err
	}
	if outCount > maxTxOutputs {
		return nil, 0, newErrf(InvalidEncoding, "output count %d exceeds max %d", outCount, maxTxOutputs)
	}
	outputs := make([]Output, outCount)
	for i := range outputs {
		o, err := decodeOutput(c)
		if err != nil {
			return nil, 0, err
		}
		outputs[i] = o
	}
	locktime, err := c.readU32()
	if err != nil {
		return nil, 0, err
	}
	for i := range inputs {
		if err := decodeWitnessInto(c, &inputs[i]); err != nil {
			return nil, 0, err
		}
	}
	tx := &TX{Version: version, Locktime: locktime, Inputs: inputs, Outputs: outputs}
	return tx, c.pos, nil
}

// Hash returns the transaction id: the hash of the no-witness encoding.
// It is cached after first computation.
func (tx *TX) Hash() Hash {
	if tx.cachedHash != nil {
		return *tx.cachedHash
	}
	h := blake2b256(tx.EncodeNoWitness())
	tx.cachedHash = &h
	return h
}

// WitnessHash returns the hash of the full (witness-inclusive) encoding,
// used as a merkle leaf for the block's witness root. Cached after first
// computation.
func (tx *TX) WitnessHash() Hash {
	if tx.cachedWitnessHash != nil {
		return *tx.cachedWitnessHash
	}
	h := blake2b256(tx.Encode())
	tx.cachedWitnessHash = &h
	return h
}

// IsCoinbase reports whether tx structurally matches the coinbase shape:
// exactly one input referencing the zero outpoint with index 0xffffffff.
func (tx *TX) IsCoinbase() bool {
	return len(tx.Inputs) == 1 && tx.Inputs[0].Prevout.IsCoinbase()
}

func binaryAppendU32(dst []byte, v uint32) []byte {
	return append(dst, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

func binaryAppendU64(dst []byte, v uint64) []byte {
	return append(dst,
		byte(v), byte(v>>8), byte(v>>16), byte(v>>24),
		byte(v>>32), byte(v>>40), byte(v>>48), byte(v>>56))
}

// InvItem identifies an advertised inventory object (block or tx) by type
// and hash, for the out-of-scope P2P layer to exchange; kept here only
// because its shape is consensus-defined (CANONICAL §3).
type InvItem struct {
	Type InvType
	Hash Hash
}

type InvType uint32

const (
	InvTx    InvType = 1
	InvBlock InvType = 2
)
