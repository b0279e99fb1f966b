package consensus

// CoinEntry is a single UTXO record: everything needed to later validate
// a spend and, on disconnect, restore the coin exactly as it was.
type CoinEntry struct {
	Version    uint32
	Height     int32 // -1 if unconfirmed
	Value      uint64
	Address    Address
	Covenant   Covenant
	IsCoinbase bool
}

func (c CoinEntry) Encode() []byte {
	out := binaryAppendU32(nil, c.Version)
	out = binaryAppendU32(out, uint32(c.Height))
	out = binaryAppendU64(out, c.Value)
	out = append(out, c.Address.Encode()...)
	out = append(out, c.Covenant.Encode()...)
	if c.IsCoinbase {
		out = append(out, 1)
	} else {
		out = append(out, 0)
	}
	return out
}

func DecodeCoinEntry(b []byte) (CoinEntry, int, error) {
	c := newCursor(b)
	var ce CoinEntry
	version, err := c.readU32()
	if err != nil {
		return CoinEntry{}, 0, err
	}
	ce.Version = version
	heightRaw, err := c.readU32()
	if err != nil {
		return CoinEntry{}, 0, err
	}
	ce.Height = int32(heightRaw)
	if ce.Value, err = c.readU64(); err != nil {
		return CoinEntry{}, 0, err
	}
	if ce.Address, err = decodeAddress(c); err != nil {
		return CoinEntry{}, 0, err
	}
	if ce.Covenant, err = decodeCovenant(c); err != nil {
		return CoinEntry{}, 0, err
	}
	coinbaseByte, err := c.readU8()
	if err != nil {
		return CoinEntry{}, 0, err
	}
	ce.IsCoinbase = coinbaseByte != 0
	return ce, c.pos, nil
}

// coinState tags the tri-state a CoinView entry can occupy.
type coinState uint8

const (
	coinUnknown coinState = iota
	coinPresent
	coinSpentInView
)

type coinSlot struct {
	state coinState
	entry CoinEntry
}

// StoreLookup is the minimal chain-store surface CoinView needs to
// resolve outpoints it has never seen this batch: a point lookup by
// outpoint, returning (entry, found).
type StoreLookup interface {
	LookupCoin(Outpoint) (CoinEntry, bool, error)
}

// CoinView is an in-memory, copy-on-write overlay over the chain store's
// persisted UTXO set: present (spendable), spent-in-this-view
// (tombstone, blocks double-spend within the batch), or unknown (falls
// through to the backing store). CANONICAL §4.5.
type CoinView struct {
	store StoreLookup
	slots map[Outpoint]coinSlot
}

func NewCoinView(store StoreLookup) *CoinView {
	return &CoinView{store: store, slots: make(map[Outpoint]coinSlot)}
}

// AddTx inserts every output of tx into the view at height.
func (v *CoinView) AddTx(tx *TX, height int32) {
	isCoinbase := tx.IsCoinbase()
	txid := tx.Hash()
	for i, out := range tx.Outputs {
		op := Outpoint{Hash: txid, Index: uint32(i)}
		v.slots[op] = coinSlot{
			state: coinPresent,
			entry: CoinEntry{
				Version:    tx.Version,
				Height:     height,
				Value:      out.Value,
				Address:    out.Address,
				Covenant:   out.Covenant,
				IsCoinbase: isCoinbase,
			},
		}
	}
}

// Spend removes outpoint from the view, returning its entry for undo
// recording. Spending an outpoint already spent in this view, or one
// that resolves to nothing in the backing store, is an error.
func (v *CoinView) Spend(op Outpoint) (CoinEntry, error) {
	if slot, ok := v.slots[op]; ok {
		switch slot.state {
		case coinPresent:
			v.slots[op] = coinSlot{state: coinSpentInView}
			return slot.entry, nil
		case coinSpentInView:
			return CoinEntry{}, newErrf(DoubleSpend, "outpoint %x:%d already spent in this view", op.Hash, op.Index)
		}
	}
	if v.store == nil {
		return CoinEntry{}, newErrf(MissingUTXO, "outpoint %x:%d not found", op.Hash, op.Index)
	}
	entry, found, err := v.store.LookupCoin(op)
	if err != nil {
		return CoinEntry{}, wrapErr(StoreError, "coin lookup failed", err)
	}
	if !found {
		return CoinEntry{}, newErrf(MissingUTXO, "outpoint %x:%d not found", op.Hash, op.Index)
	}
	v.slots[op] = coinSlot{state: coinSpentInView}
	return entry, nil
}

// AddEntry restores a previously spent coin at outpoint, used by the
// undo path during disconnect.
func (v *CoinView) AddEntry(op Outpoint, entry CoinEntry) {
	v.slots[op] = coinSlot{state: coinPresent, entry: entry}
}

// Get returns the current entry for op without mutating the view,
// looking through to the backing store if necessary.
func (v *CoinView) Get(op Outpoint) (CoinEntry, bool, error) {
	if slot, ok := v.slots[op]; ok {
		return slot.entry, slot.state == coinPresent, nil
	}
	if v.store == nil {
		return CoinEntry{}, false, nil
	}
	entry, found, err := v.store.LookupCoin(op)
	if err != nil {
		return CoinEntry{}, false, wrapErr(StoreError, "coin lookup failed", err)
	}
	return entry, found, nil
}

// CoinDelta is one entry of the mutations recorded in a CoinView since
// its creation, ready to be handed to a persistence batch by Commit.
type CoinDelta struct {
	Outpoint Outpoint
	Removed  bool
	Entry    CoinEntry
}

// Commit returns every mutation recorded in the view, in map iteration
// order is not guaranteed — callers that need determinism (e.g. an
// undo record) should instead track spends explicitly via UndoCoins,
// which preserves spend order; Commit is for writing the final UTXO
// delta to the persistence batch, where ordering does not matter.
func (v *CoinView) Commit() []CoinDelta {
	deltas := make([]CoinDelta, 0, len(v.slots))
	for op, slot := range v.slots {
		switch slot.state {
		case coinPresent:
			deltas = append(deltas, CoinDelta{Outpoint: op, Entry: slot.entry})
		case coinSpentInView:
			deltas = append(deltas, CoinDelta{Outpoint: op, Removed: true})
		}
	}
	return deltas
}

// UndoCoins is the ordered list of coins removed from the UTXO set
// while connecting one block, in the exact order the spends occurred.
// Disconnecting a block pops this list in reverse and reinstates each
// coin at its original outpoint.
type UndoCoins struct {
	Records []UndoRecord
}

type UndoRecord struct {
	Outpoint Outpoint
	Entry    CoinEntry
}

func (u UndoCoins) Encode() []byte {
	out := binaryAppendU32(nil, uint32(len(u.Records)))
	for _, r := range u.Records {
		out = append(out, r.Outpoint.Encode()...)
		out = append(out, r.Entry.Encode()...)
	}
	return out
}

func DecodeUndoCoins(b []byte) (UndoCoins, error) {
	c := newCursor(b)
	count, err := c.readU32()
	if err != nil {
		return UndoCoins{}, err
	}
	records := make([]UndoRecord, 0, count)
	for i := uint32(0); i < count; i++ {
		op, err := decodeOutpoint(c)
		if err != nil {
			return UndoCoins{}, err
		}
		remaining := c.b[c.pos:]
		entry, n, err := DecodeCoinEntry(remaining)
		if err != nil {
			return UndoCoins{}, err
		}
		c.pos += n
		records = append(records, UndoRecord{Outpoint: op, Entry: entry})
	}
	return UndoCoins{Records: records}, nil
}

// Apply reverses every record in u against view, in reverse-spend order,
// per CANONICAL §4.5 and §4.7 disconnect step 2.
func (u UndoCoins) Apply(view *CoinView) {
	for i := len(u.Records) - 1; i >= 0; i-- {
		r := u.Records[i]
		view.AddEntry(r.Outpoint, r.Entry)
	}
}
