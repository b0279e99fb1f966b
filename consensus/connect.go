package consensus

// NameStateStore resolves and persists per-name records. Like
// StoreLookup, this is accepted as a narrow interface so the chain
// store (or a test double) can back it however it likes.
type NameStateStore interface {
	GetName(nameHash Hash) (*NameState, bool, error)
}

// ChainContext carries everything Connect needs about the chain tip it
// is extending: network parameters, the height being produced, the
// already-validated expected values for context-dependent header
// fields, and the pluggable collaborators (coin lookup, name state,
// name tree, script/witness verifier).
type ChainContext struct {
	Params         Params
	Height         uint32 // height of the block being connected (parent height + 1)
	MedianTimePast uint64
	Now            uint64
	ExpectedBits   uint32

	Store     StoreLookup
	NameStore NameStateStore
	NameTree  NameTree
	Verifier  Verifier
}

// NameDelta records one name's before/after NameState for a connected
// block, so Disconnect can restore the prior record and tree leaf.
type NameDelta struct {
	NameHash  Hash
	Before    *NameState
	After     NameState
	TreeWrite bool
	TreeErase bool
}

// ConnectResult is everything a connected block changes. It is a pure
// computation: nothing here has touched durable storage yet. The chain
// store (CANONICAL §4.7 step 6, §4.8) is responsible for writing it all
// in one atomic batch alongside an in-progress marker.
type ConnectResult struct {
	Header       BlockHeader
	Height       uint32
	CoinDeltas   []CoinDelta
	Undo         UndoCoins
	NameDeltas   []NameDelta
	NewTreeRoot  Hash
	TxCount      int
	BurnedAmount uint64
	TotalFees    uint64
}

// Connect validates block against ctx and prevTip, and computes the
// full state delta connecting it would produce. It does not mutate
// durable storage; ctx.NameTree IS mutated in place (its Commit()
// result becomes NewTreeRoot) since the tree is defined as exposing a
// mutable root writer during the single-threaded commit step
// (CANONICAL §5) — callers that need to abort after calling Connect
// must discard ctx.NameTree rather than reuse it.
func Connect(block *Block, prevHash Hash, ctx ChainContext) (*ConnectResult, error) {
	if err := CheckHeaderContextual(&block.Header, prevHash, ctx.MedianTimePast, ctx.Now, ctx.ExpectedBits); err != nil {
		return nil, err
	}
	if err := CheckBlockBody(block); err != nil {
		return nil, err
	}

	view := NewCoinView(ctx.Store)
	undo := UndoCoins{}
	nameDeltaByHash := make(map[Hash]*NameDelta)
	nameBeforeByHash := make(map[Hash]*NameState) // true pre-block state per name, fixed on first touch
	var totalFees uint64
	var burned uint64

	view.AddTx(block.Txs[0], int32(ctx.Height))

	for _, tx := range block.Txs[1:] {
		if err := CheckTxSane(tx); err != nil {
			return nil, err
		}
		spent := make([]CoinEntry, len(tx.Inputs))
		for i, in := range tx.Inputs {
			entry, err := view.Spend(in.Prevout)
			if err != nil {
				return nil, err
			}
			spent[i] = entry
			undo.Records = append(undo.Records, UndoRecord{Outpoint: in.Prevout, Entry: entry})
			if ctx.Verifier != nil {
				if err := ctx.Verifier.VerifyInput(tx, i, entry); err != nil {
					return nil, wrapErr(InvalidTx, "input authorization failed", err)
				}
			}
		}
		fee, err := VerifyInputs(tx, spent)
		if err != nil {
			return nil, err
		}
		totalFees += fee

		txid := tx.Hash()
		ownerOutpoint := tx.Inputs[0].Prevout
		for outIdx, out := range tx.Outputs {
			if !out.Covenant.Type.IsNameAction() {
				continue
			}
			nameHash := covenantNameHash(out.Covenant)
			delta, ok := nameDeltaByHash[nameHash]
			var cur *NameState
			if ok {
				cp := delta.After
				cur = &cp
			} else {
				existing, found, err := ctx.NameStore.GetName(nameHash)
				if err != nil {
					return nil, wrapErr(StoreError, "name state lookup failed", err)
				}
				if found {
					cur = existing
				}
				// Record the state as it stood before this block touched the
				// name at all, once, so a later same-block touch doesn't
				// overwrite it with an intermediate state.
				nameBeforeByHash[nameHash] = cur
			}
			res, err := ApplyCovenant(ctx.Params, cur, out.Covenant, outIdx, txid, ctx.Height, ownerOutpoint, prevHash)
			if err != nil {
				return nil, err
			}
			if res == nil {
				continue
			}
			after := res.after
			if out.Covenant.Type == CovenantReveal {
				bidValue := spent[0].Value
				if len(tx.Inputs) > 0 {
					for i, in := range tx.Inputs {
						if in.Prevout == ownerOutpoint {
							bidValue = spent[i].Value
							break
						}
					}
				}
				after = RecordReveal(&after, bidValue, Outpoint{Hash: txid, Index: uint32(outIdx)})
			}
			if out.Covenant.Type == CovenantRegister {
				burned += after.SecondHighestReveal
			}
			nameDeltaByHash[nameHash] = &NameDelta{
				NameHash:  nameHash,
				Before:    nameBeforeByHash[nameHash],
				After:     after,
				TreeWrite: res.treeWrite,
				TreeErase: res.treeErase,
			}
		}
		view.AddTx(tx, int32(ctx.Height))
	}

	subsidy := Subsidy(ctx.Params, ctx.Height)
	if err := CheckCoinbase(block.Txs[0], subsidy, totalFees); err != nil {
		return nil, err
	}

	deltas := make([]NameDelta, 0, len(nameDeltaByHash))
	for _, d := range nameDeltaByHash {
		deltas = append(deltas, *d)
		switch {
		case d.TreeErase:
			ctx.NameTree.Remove(d.NameHash)
		case d.TreeWrite:
			ctx.NameTree.Insert(d.NameHash, d.After.Resource)
		}
	}
	newRoot := ctx.NameTree.Commit()
	if newRoot != block.Header.TreeRoot {
		return nil, newErr(InvalidCovenant, "recomputed name-tree root does not match header")
	}

	return &ConnectResult{
		Header:       block.Header,
		Height:       ctx.Height,
		CoinDeltas:   view.Commit(),
		Undo:         undo,
		NameDeltas:   deltas,
		NewTreeRoot:  newRoot,
		TxCount:      len(block.Txs),
		BurnedAmount: burned,
		TotalFees:    totalFees,
	}, nil
}

func covenantNameHash(cv Covenant) Hash {
	var h Hash
	if len(cv.Items) > 0 {
		copy(h[:], cv.Items[0])
	}
	return h
}
