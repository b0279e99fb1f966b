package consensus

import "testing"

func TestAddressRoundTrip(t *testing.T) {
	addr := Address{Version: 0, Program: make([]byte, 20)}
	for i := range addr.Program {
		addr.Program[i] = byte(i)
	}
	enc := addr.Encode()
	c := newCursor(enc)
	got, err := decodeAddress(c)
	if err != nil {
		t.Fatalf("decodeAddress: %v", err)
	}
	if !c.atEnd() {
		t.Fatalf("decodeAddress left %d unconsumed bytes", c.remaining())
	}
	if !got.Equal(addr) {
		t.Fatalf("got %+v, want %+v", got, addr)
	}
}

func TestAddressValidateProgramBounds(t *testing.T) {
	tooShort := Address{Version: 0, Program: make([]byte, minAddressProgram-1)}
	if err := tooShort.Validate(); err == nil {
		t.Fatalf("expected error for short program")
	}
	tooLong := Address{Version: 0, Program: make([]byte, maxAddressProgram+1)}
	if err := tooLong.Validate(); err == nil {
		t.Fatalf("expected error for long program")
	}
	ok := Address{Version: 0, Program: make([]byte, 32)}
	if err := ok.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCovenantRoundTrip(t *testing.T) {
	cv := Covenant{Type: CovenantBid, Items: [][]byte{{1, 2, 3}, {4, 5}, {6}, {7, 8, 9, 10}}}
	enc := cv.Encode()
	c := newCursor(enc)
	got, err := decodeCovenant(c)
	if err != nil {
		t.Fatalf("decodeCovenant: %v", err)
	}
	if !c.atEnd() {
		t.Fatalf("decodeCovenant left %d unconsumed bytes", c.remaining())
	}
	if got.Type != cv.Type || len(got.Items) != len(cv.Items) {
		t.Fatalf("got %+v, want %+v", got, cv)
	}
}

func TestCovenantValidateRejectsWrongItemCount(t *testing.T) {
	cv := Covenant{Type: CovenantBid, Items: [][]byte{{1}}}
	if err := cv.Validate(); err == nil {
		t.Fatalf("expected error for wrong BID item count")
	}
}

func TestOutpointCoinbase(t *testing.T) {
	op := Outpoint{Hash: ZeroHash, Index: CoinbaseIndex}
	if !op.IsCoinbase() {
		t.Fatalf("expected coinbase outpoint")
	}
	op.Index = 0
	if op.IsCoinbase() {
		t.Fatalf("did not expect coinbase outpoint")
	}
}

func minimalTX() *TX {
	return &TX{
		Version:  1,
		Locktime: 0,
		Inputs: []Input{{
			Prevout:  Outpoint{Hash: ZeroHash, Index: CoinbaseIndex},
			Sequence: 0xffffffff,
		}},
		Outputs: []Output{{
			Value:    1000,
			Address:  Address{Version: 0, Program: make([]byte, 20)},
			Covenant: Covenant{Type: CovenantNone},
		}},
	}
}

func TestTXRoundTrip(t *testing.T) {
	tx := minimalTX()
	enc := tx.Encode()
	got, n, err := DecodeTX(enc)
	if err != nil {
		t.Fatalf("DecodeTX: %v", err)
	}
	if n != len(enc) {
		t.Fatalf("consumed %d, want %d", n, len(enc))
	}
	if got.Hash() != tx.Hash() {
		t.Fatalf("hash mismatch after round trip")
	}
}

func TestTXHashIsCached(t *testing.T) {
	tx := minimalTX()
	h1 := tx.Hash()
	tx.Outputs[0].Value = 5 // mutate after caching; cached hash must not change
	h2 := tx.Hash()
	if h1 != h2 {
		t.Fatalf("cached hash changed after mutation: %x != %x", h1, h2)
	}
}

func TestTXIsCoinbase(t *testing.T) {
	tx := minimalTX()
	if !tx.IsCoinbase() {
		t.Fatalf("expected coinbase tx")
	}
	tx.Inputs = append(tx.Inputs, Input{Prevout: Outpoint{Index: 0}})
	if tx.IsCoinbase() {
		t.Fatalf("two-input tx must not be coinbase")
	}
}
