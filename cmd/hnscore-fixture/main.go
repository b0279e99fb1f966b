// Command hnscore-fixture decodes a full block from hex and runs it
// through the consensus validation pipeline against a supplied UTXO
// snapshot (name state and the name tree start empty), printing a JSON
// summary. It exists for
// conformance-fixture generation and manual debugging, mirroring the
// teacher lineage's own cmd/rubin-consensus-cli shape: a single flag-
// driven binary over the core library, no framework.
package main

import (
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/handshake-org/hsd-sub011/consensus"
)

type snapshotFixture struct {
	Network        string        `json:"network"`
	Height         uint32        `json:"height"`
	PrevHash       string        `json:"prev_hash"`
	MedianTimePast uint64        `json:"median_time_past"`
	Now            uint64        `json:"now"`
	ExpectedBits   uint32        `json:"expected_bits"`
	UTXO           []utxoFixture `json:"utxo"`
}

// utxoFixture is one spendable coin supplied to seed the validation
// pipeline's view, keyed explicitly by txid+index rather than a packed
// map key (mirrors the teacher's UtxoJSON list-of-items shape).
type utxoFixture struct {
	TxidHex     string `json:"txid"`
	Index       uint32 `json:"index"`
	Value       uint64 `json:"value"`
	AddressHex  string `json:"address"`  // hex-encoded Address.Encode()
	CovenantHex string `json:"covenant"` // hex-encoded Covenant.Encode(), omitted for a plain transfer
	Height      int32  `json:"height"`
	Coinbase    bool   `json:"coinbase"`
}

type memLookup map[consensus.Outpoint]consensus.CoinEntry

func (m memLookup) LookupCoin(op consensus.Outpoint) (consensus.CoinEntry, bool, error) {
	e, ok := m[op]
	return e, ok, nil
}

type memNameStore struct{}

func (memNameStore) GetName(consensus.Hash) (*consensus.NameState, bool, error) { return nil, false, nil }

func main() {
	blockHex := flag.String("block", "", "hex-encoded full block")
	snapshotPath := flag.String("snapshot", "", "path to a JSON UTXO/context snapshot")
	flag.Parse()

	if *blockHex == "" {
		fmt.Fprintln(os.Stderr, "usage: hnscore-fixture -block <hex> [-snapshot <path>]")
		os.Exit(2)
	}

	raw, err := hex.DecodeString(*blockHex)
	if err != nil {
		fatal("decoding -block hex", err)
	}
	block, err := consensus.DecodeFullBlock(raw)
	if err != nil {
		fatal("decoding block", err)
	}

	var fx snapshotFixture
	if *snapshotPath != "" {
		f, err := os.Open(*snapshotPath)
		if err != nil {
			fatal("opening snapshot", err)
		}
		defer f.Close()
		if err := json.NewDecoder(f).Decode(&fx); err != nil {
			fatal("parsing snapshot", err)
		}
	}

	params := consensus.MainParams()
	switch fx.Network {
	case "testnet":
		params = consensus.TestnetParams()
	case "regtest":
		params = consensus.RegtestParams()
	case "simnet":
		params = consensus.SimnetParams()
	}

	var prevHash consensus.Hash
	if fx.PrevHash != "" {
		b, err := hex.DecodeString(fx.PrevHash)
		if err != nil {
			fatal("decoding prev_hash", err)
		}
		copy(prevHash[:], b)
	}

	lookup := memLookup{}
	for _, u := range fx.UTXO {
		txid, err := hex.DecodeString(u.TxidHex)
		if err != nil {
			fatal("decoding utxo txid", err)
		}
		var op consensus.Outpoint
		copy(op.Hash[:], txid)
		op.Index = u.Index

		entry := consensus.CoinEntry{
			Value:      u.Value,
			Height:     u.Height,
			IsCoinbase: u.Coinbase,
		}
		if u.AddressHex != "" {
			raw, err := hex.DecodeString(u.AddressHex)
			if err != nil {
				fatal("decoding utxo address", err)
			}
			addr, _, err := consensus.DecodeAddress(raw)
			if err != nil {
				fatal("parsing utxo address", err)
			}
			entry.Address = addr
		}
		if u.CovenantHex != "" {
			raw, err := hex.DecodeString(u.CovenantHex)
			if err != nil {
				fatal("decoding utxo covenant", err)
			}
			cv, _, err := consensus.DecodeCovenant(raw)
			if err != nil {
				fatal("parsing utxo covenant", err)
			}
			entry.Covenant = cv
		}
		lookup[op] = entry
	}

	tree := consensus.NewMemNameTree()

	ctx := consensus.ChainContext{
		Params:         params,
		Height:         fx.Height,
		MedianTimePast: fx.MedianTimePast,
		Now:            fx.Now,
		ExpectedBits:   fx.ExpectedBits,
		Store:          lookup,
		NameStore:      memNameStore{},
		NameTree:       tree,
		Verifier:       consensus.AcceptAllVerifier{},
	}

	result, err := consensus.Connect(block, prevHash, ctx)
	summary := map[string]any{
		"pow_hash": hex.EncodeToString(hashSlice(block.Header.PowHash())),
	}
	if err != nil {
		summary["accepted"] = false
		summary["error"] = err.Error()
	} else {
		summary["accepted"] = true
		summary["tx_count"] = result.TxCount
		summary["total_fees"] = result.TotalFees
		summary["burned"] = result.BurnedAmount
		summary["new_tree_root"] = hex.EncodeToString(hashSlice(result.NewTreeRoot))
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		fatal("writing summary", err)
	}
}

func hashSlice(h consensus.Hash) []byte { return h[:] }

func fatal(step string, err error) {
	fmt.Fprintf(os.Stderr, "hnscore-fixture: %s: %v\n", step, err)
	os.Exit(1)
}
