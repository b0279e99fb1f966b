package consensus

// Genesis builds the block-zero Block for p: a single coinbase paying
// the network's initial subsidy to a null output, with an empty name
// tree and empty UTXO set behind it. This mirrors the construction the
// teacher lineage's node/store.InitGenesis performs (one coinbase-only
// block applied against an empty UTXO map to seed the manifest/tip),
// generalized to this package's Block/TX layout.
//
// The exact genesis tip hash a real deployed network publishes is a
// property of that network's actual genesis bytes, not of this
// construction; reproducing a specific historical hash bit-for-bit is
// out of reach without those bytes, which are not present anywhere in
// this repository's reference material. Genesis only guarantees the
// structural invariants a freshly-initialized chain must hold: height
// zero, one coinbase transaction, a coin count of one, and self-
// consistent merkle/witness roots over that single transaction.
func Genesis(p Params) *Block {
	coinbase := &TX{
		Version:  1,
		Locktime: 0,
		Inputs: []Input{{
			Prevout:  Outpoint{Hash: ZeroHash, Index: CoinbaseIndex},
			Sequence: 0xffffffff,
			Witness:  nil,
		}},
		Outputs: []Output{{
			Value:    p.InitialSubsidy,
			Address:  Address{Version: 0, Program: make([]byte, 20)},
			Covenant: Covenant{Type: CovenantNone},
		}},
	}

	txid := coinbase.Hash()
	witnessRoot := MerkleRoot([]Hash{coinbase.WitnessHash()})
	merkleRoot := MerkleRoot([]Hash{txid})

	header := BlockHeader{
		Nonce:        0,
		Time:         p.GenesisTime,
		PrevBlock:    ZeroHash,
		TreeRoot:     ZeroHash,
		ReservedRoot: ZeroHash,
		WitnessRoot:  witnessRoot,
		MerkleRoot:   merkleRoot,
		Version:      0,
		Bits:         p.PowLimitBits,
	}

	return &Block{
		Kind:   FullBlock,
		Header: header,
		Txs:    []*TX{coinbase},
	}
}
