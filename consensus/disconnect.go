package consensus

// DisconnectResult is the inverse of ConnectResult: everything the
// chain store needs to revert the effects of a previously connected
// block, computed without touching durable storage. CANONICAL §4.7
// disconnect.
type DisconnectResult struct {
	Height      uint32
	CoinDeltas  []CoinDelta // replay against the view to restore pre-block UTXO state
	NameDeltas  []NameDelta // After/Before swapped relative to connect, for direct replay
	NewTreeRoot Hash
}

// Disconnect reverses block, which was connected at height producing
// undo and nameDeltas (as returned in a prior ConnectResult), against
// the given store/tree collaborators. It removes the block's outputs
// from the view, re-adds every spent coin from undo in reverse-spend
// order, restores each touched name's prior record, and reverts the
// name tree to its pre-block leaves, returning the resulting tree
// root for the caller to assert equals the parent block's TreeRoot.
func Disconnect(block *Block, height uint32, undo UndoCoins, nameDeltas []NameDelta, store StoreLookup, tree NameTree) (*DisconnectResult, error) {
	if block.Kind != FullBlock {
		return nil, newErrf(InvalidBody, "Disconnect called on block kind %d", block.Kind)
	}

	view := NewCoinView(store)
	for i := len(block.Txs) - 1; i >= 0; i-- {
		tx := block.Txs[i]
		txid := tx.Hash()
		for outIdx := range tx.Outputs {
			op := Outpoint{Hash: txid, Index: uint32(outIdx)}
			if _, err := view.Spend(op); err != nil {
				return nil, wrapErr(StateMismatch, "disconnect could not remove a block output", err)
			}
		}
	}
	undo.Apply(view)

	for i := len(nameDeltas) - 1; i >= 0; i-- {
		d := nameDeltas[i]
		switch {
		case d.TreeErase:
			if d.Before != nil {
				tree.Insert(d.NameHash, d.Before.Resource)
			}
		case d.TreeWrite:
			if d.Before == nil || len(d.Before.Resource) == 0 {
				tree.Remove(d.NameHash)
			} else {
				tree.Insert(d.NameHash, d.Before.Resource)
			}
		}
	}
	newRoot := tree.Commit()

	return &DisconnectResult{
		Height:      height,
		CoinDeltas:  view.Commit(),
		NameDeltas:  reverseNameDeltas(nameDeltas),
		NewTreeRoot: newRoot,
	}, nil
}

// reverseNameDeltas returns deltas with Before/After swapped so a
// store can persist "restore to prior state" using the same codepath
// it uses for a forward connect's after-state.
func reverseNameDeltas(in []NameDelta) []NameDelta {
	out := make([]NameDelta, len(in))
	for i, d := range in {
		rev := NameDelta{NameHash: d.NameHash}
		if d.Before != nil {
			rev.After = *d.Before
		}
		after := d.After
		rev.Before = &after
		out[i] = rev
	}
	return out
}
