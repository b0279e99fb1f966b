package consensus

import "testing"

func TestCheckHeaderContextualHappyPath(t *testing.T) {
	h := sampleHeader()
	h.Bits = 0x207fffff
	h.PrevBlock = Hash{9}
	h.Time = 1000
	if err := CheckHeaderContextual(&h, Hash{9}, 500, 1000, 0x207fffff); err != nil {
		t.Fatalf("CheckHeaderContextual: %v", err)
	}
}

func TestCheckHeaderContextualRejectsWrongPrevBlock(t *testing.T) {
	h := sampleHeader()
	h.Bits = 0x207fffff
	h.PrevBlock = Hash{9}
	h.Time = 1000
	if err := CheckHeaderContextual(&h, Hash{1}, 500, 1000, 0x207fffff); err == nil {
		t.Fatalf("expected error for mismatched prevBlock")
	}
}

func TestCheckHeaderContextualRejectsStaleTimestamp(t *testing.T) {
	h := sampleHeader()
	h.Bits = 0x207fffff
	h.PrevBlock = Hash{9}
	h.Time = 500
	if err := CheckHeaderContextual(&h, Hash{9}, 500, 1000, 0x207fffff); err == nil {
		t.Fatalf("expected error for timestamp not greater than median")
	}
}

func TestCheckHeaderContextualRejectsFutureDrift(t *testing.T) {
	h := sampleHeader()
	h.Bits = 0x207fffff
	h.PrevBlock = Hash{9}
	h.Time = 1000 + maxFutureDrift + 1
	if err := CheckHeaderContextual(&h, Hash{9}, 500, 1000, 0x207fffff); err == nil {
		t.Fatalf("expected error for future drift")
	}
}

func blockWithOneTx(tx *TX) *Block {
	header := BlockHeader{
		MerkleRoot:  MerkleRoot([]Hash{tx.Hash()}),
		WitnessRoot: MerkleRoot([]Hash{tx.WitnessHash()}),
	}
	return &Block{Kind: FullBlock, Header: header, Txs: []*TX{tx}}
}

func TestCheckBlockBodyHappyPath(t *testing.T) {
	tx := minimalTX()
	b := blockWithOneTx(tx)
	if err := CheckBlockBody(b); err != nil {
		t.Fatalf("CheckBlockBody: %v", err)
	}
}

func TestCheckBlockBodyRejectsNonCoinbaseFirst(t *testing.T) {
	tx := minimalTX()
	tx.Inputs[0].Prevout.Index = 0 // no longer the coinbase shape
	b := blockWithOneTx(tx)
	if err := CheckBlockBody(b); err == nil {
		t.Fatalf("expected error when first tx is not a coinbase")
	}
}

func TestCheckBlockBodyRejectsDoubleSpendWithinBlock(t *testing.T) {
	coinbase := minimalTX()
	op := Outpoint{Hash: Hash{1}, Index: 0}
	spendA := &TX{
		Inputs:  []Input{{Prevout: op}},
		Outputs: []Output{{Value: 1, Address: Address{Program: make([]byte, 20)}}},
	}
	spendB := &TX{
		Inputs:  []Input{{Prevout: op}},
		Outputs: []Output{{Value: 1, Address: Address{Program: make([]byte, 20)}}},
	}
	txs := []*TX{coinbase, spendA, spendB}
	witnessHashes := make([]Hash, len(txs))
	txids := make([]Hash, len(txs))
	for i, tx := range txs {
		witnessHashes[i] = tx.WitnessHash()
		txids[i] = tx.Hash()
	}
	header := BlockHeader{MerkleRoot: MerkleRoot(txids), WitnessRoot: MerkleRoot(witnessHashes)}
	b := &Block{Kind: FullBlock, Header: header, Txs: txs}
	if err := CheckBlockBody(b); err == nil {
		t.Fatalf("expected error for double-spend within block")
	}
}

func TestCheckTxSaneRejectsValueOverMax(t *testing.T) {
	tx := minimalTX()
	tx.Outputs[0].Value = MaxMoney + 1
	if err := CheckTxSane(tx); err == nil {
		t.Fatalf("expected error for output exceeding MaxMoney")
	}
}

func TestCheckTxSaneRejectsOverflowingOutputSum(t *testing.T) {
	tx := &TX{
		Inputs: []Input{{Prevout: Outpoint{Hash: Hash{1}, Index: 0}}},
		Outputs: []Output{
			{Value: MaxMoney, Address: Address{Program: make([]byte, 20)}},
			{Value: MaxMoney, Address: Address{Program: make([]byte, 20)}},
		},
	}
	if err := CheckTxSane(tx); err == nil {
		t.Fatalf("expected error for output sum exceeding MaxMoney")
	}
}

func TestCheckTxSaneRejectsCoinbaseReferenceInNonCoinbase(t *testing.T) {
	tx := &TX{
		Inputs:  []Input{{Prevout: Outpoint{Hash: ZeroHash, Index: CoinbaseIndex}}, {Prevout: Outpoint{Hash: Hash{1}, Index: 0}}},
		Outputs: []Output{{Value: 1, Address: Address{Program: make([]byte, 20)}}},
	}
	if err := CheckTxSane(tx); err == nil {
		t.Fatalf("expected error for non-coinbase referencing the coinbase outpoint")
	}
}

func TestVerifyInputsComputesFee(t *testing.T) {
	tx := &TX{
		Inputs:  []Input{{Prevout: Outpoint{Hash: Hash{1}, Index: 0}}},
		Outputs: []Output{{Value: 90, Address: Address{Program: make([]byte, 20)}}},
	}
	fee, err := VerifyInputs(tx, []CoinEntry{{Value: 100}})
	if err != nil {
		t.Fatalf("VerifyInputs: %v", err)
	}
	if fee != 10 {
		t.Fatalf("fee = %d, want 10", fee)
	}
}

func TestVerifyInputsRejectsOutputsExceedingInputs(t *testing.T) {
	tx := &TX{
		Inputs:  []Input{{Prevout: Outpoint{Hash: Hash{1}, Index: 0}}},
		Outputs: []Output{{Value: 200, Address: Address{Program: make([]byte, 20)}}},
	}
	if _, err := VerifyInputs(tx, []CoinEntry{{Value: 100}}); err == nil {
		t.Fatalf("expected error when outputs exceed inputs")
	}
}

// TestVerifyInputsRejectsSpentCoinExceedingMaxMoney covers spec
// scenario 2: a transaction with one input funded at MAX_MONEY+1 and
// one output of value MAX_MONEY must fail verifyInputs even though it
// is structurally sane (CheckTxSane only bounds output values, not
// spent input values).
func TestVerifyInputsRejectsSpentCoinExceedingMaxMoney(t *testing.T) {
	tx := &TX{
		Inputs:  []Input{{Prevout: Outpoint{Hash: Hash{1}, Index: 0}}},
		Outputs: []Output{{Value: MaxMoney, Address: Address{Program: make([]byte, 20)}}},
	}
	if _, err := VerifyInputs(tx, []CoinEntry{{Value: MaxMoney + 1}}); err == nil {
		t.Fatalf("expected error when a spent coin's value exceeds MaxMoney")
	}
}

func TestCheckCoinbaseRejectsOverspend(t *testing.T) {
	tx := &TX{Outputs: []Output{{Value: 1000, Address: Address{Program: make([]byte, 20)}}}}
	if err := CheckCoinbase(tx, 500, 100); err == nil {
		t.Fatalf("expected error when coinbase exceeds subsidy+fees")
	}
	if err := CheckCoinbase(tx, 900, 100); err != nil {
		t.Fatalf("CheckCoinbase: %v", err)
	}
}
