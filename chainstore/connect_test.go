package chainstore

import (
	"testing"

	"go.etcd.io/bbolt"

	"github.com/handshake-org/hsd-sub011/consensus"
)

func buildSimpleSpendBlock(t *testing.T, p consensus.Params, fundingOp consensus.Outpoint, height uint32) *consensus.Block {
	t.Helper()
	coinbase := &consensus.TX{
		Version: 1,
		Inputs:  []consensus.Input{{Prevout: consensus.Outpoint{Hash: consensus.ZeroHash, Index: consensus.CoinbaseIndex}, Sequence: 0xffffffff}},
		Outputs: []consensus.Output{{Value: consensus.Subsidy(p, height), Address: consensus.Address{Program: make([]byte, 20)}}},
	}
	spend := &consensus.TX{
		Inputs:  []consensus.Input{{Prevout: fundingOp, Sequence: 0xffffffff}},
		Outputs: []consensus.Output{{Value: 900, Address: consensus.Address{Program: make([]byte, 20)}}},
	}
	txs := []*consensus.TX{coinbase, spend}
	witnessHashes := make([]consensus.Hash, len(txs))
	txids := make([]consensus.Hash, len(txs))
	for i, tx := range txs {
		witnessHashes[i] = tx.WitnessHash()
		txids[i] = tx.Hash()
	}
	header := consensus.BlockHeader{
		Time:        10_000_000 - 1,
		PrevBlock:   consensus.Hash{1},
		TreeRoot:    consensus.ZeroHash,
		MerkleRoot:  consensus.MerkleRoot(txids),
		WitnessRoot: consensus.MerkleRoot(witnessHashes),
		Bits:        p.PowLimitBits,
	}
	return &consensus.Block{Kind: consensus.FullBlock, Header: header, Txs: txs}
}

func TestApplyConnectPersistsConnectResult(t *testing.T) {
	s := openTestStore(t)
	p := consensus.RegtestParams()
	fundingOp := consensus.Outpoint{Hash: consensus.Hash{0xaa}, Index: 0}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		return s.PutCoin(tx, fundingOp, consensus.CoinEntry{Value: 1000, Address: consensus.Address{Program: make([]byte, 20)}})
	})
	if err != nil {
		t.Fatalf("seed funding coin: %v", err)
	}

	block := buildSimpleSpendBlock(t, p, fundingOp, 1)
	ctx := consensus.ChainContext{
		Params:       p,
		Height:       1,
		Now:          10_000_000,
		ExpectedBits: p.PowLimitBits,
		Store:        s,
		NameStore:    s,
		NameTree:     consensus.NewMemNameTree(),
		Verifier:     consensus.AcceptAllVerifier{},
	}
	res, err := consensus.Connect(block, consensus.Hash{1}, ctx)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}

	if err := s.ApplyConnect(block, res); err != nil {
		t.Fatalf("ApplyConnect: %v", err)
	}

	if _, ok, _ := s.LookupCoin(fundingOp); ok {
		t.Fatalf("funding coin should have been removed by ApplyConnect")
	}
	spendTxid := block.Txs[1].Hash()
	got, ok, err := s.LookupCoin(consensus.Outpoint{Hash: spendTxid, Index: 0})
	if err != nil || !ok {
		t.Fatalf("new spend output not persisted: ok=%v err=%v", ok, err)
	}
	if got.Value != 900 {
		t.Fatalf("got value %d, want 900", got.Value)
	}

	cs, err := s.ChainState()
	if err != nil {
		t.Fatalf("ChainState: %v", err)
	}
	if cs.Height != 1 || cs.TipHash != res.Header.PowHash() {
		t.Fatalf("unexpected chain state after connect: %+v", cs)
	}

	recovered, err := s.RecoverInProgress()
	if err != nil {
		t.Fatalf("RecoverInProgress: %v", err)
	}
	if recovered {
		t.Fatalf("ApplyConnect should have cleared its in-progress marker on success")
	}
}
