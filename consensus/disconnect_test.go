package consensus

import "testing"

// TestConnectDisconnectInverts connects a block, then disconnects it
// against a store pre-populated as if the connect's deltas had already
// been persisted, and checks the coin set and tree root return to their
// pre-block values.
func TestConnectDisconnectInverts(t *testing.T) {
	p := RegtestParams()
	fundingOp := Outpoint{Hash: Hash{0xaa}, Index: 0}
	fundingEntry := CoinEntry{Value: 1000, Address: Address{Program: make([]byte, 20)}}

	coinbase := coinbaseAt(p, 1)
	spend := &TX{
		Inputs:  []Input{{Prevout: fundingOp, Sequence: 0xffffffff}},
		Outputs: []Output{{Value: 900, Address: Address{Program: make([]byte, 20)}}},
	}

	connectStore := stubLookup{fundingOp: fundingEntry}
	block := buildConnectableBlock(t, Hash{1}, coinbase, []*TX{spend}, ZeroHash, p.PowLimitBits, 10_000_000-1)
	ctx := baseCtx(1, connectStore, stubNameStore{})
	res, err := Connect(block, Hash{1}, ctx)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}

	// Build the post-connect store state: the funding coin is gone, the
	// new outputs exist, as chainstore.ApplyConnect would have written.
	disconnectStore := stubLookup{}
	for _, d := range res.CoinDeltas {
		if !d.Removed {
			disconnectStore[d.Outpoint] = d.Entry
		}
	}

	tree := NewMemNameTree()
	dres, err := Disconnect(block, 1, res.Undo, res.NameDeltas, disconnectStore, tree)
	if err != nil {
		t.Fatalf("Disconnect: %v", err)
	}
	if dres.NewTreeRoot != ZeroHash {
		t.Fatalf("tree root after disconnecting a name-free block should be zero")
	}

	restored := map[Outpoint]CoinEntry{}
	var fundingRestored bool
	for _, d := range dres.CoinDeltas {
		if d.Outpoint == fundingOp && !d.Removed {
			fundingRestored = true
			restored[d.Outpoint] = d.Entry
		}
	}
	if !fundingRestored {
		t.Fatalf("disconnect did not restore the spent funding coin")
	}
	if restored[fundingOp].Value != fundingEntry.Value {
		t.Fatalf("restored funding coin value = %d, want %d", restored[fundingOp].Value, fundingEntry.Value)
	}
}
