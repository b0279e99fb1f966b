package consensus

// Verifier abstracts script/witness authorization checking. CANONICAL
// §4.7 step 3b treats input authorization as out of scope for this
// core ("treated as a pluggable verifier"); the connect pipeline calls
// through this interface and never inspects witness contents itself.
type Verifier interface {
	VerifyInput(tx *TX, inputIndex int, spent CoinEntry) error
}

// AcceptAllVerifier satisfies Verifier by approving every input. It
// exists for tests and tools that exercise the state-machine and UTXO
// plumbing without wiring a real signature scheme.
type AcceptAllVerifier struct{}

func (AcceptAllVerifier) VerifyInput(tx *TX, inputIndex int, spent CoinEntry) error { return nil }

const maxFutureDrift = 2 * 60 * 60 // 2 hours, per CANONICAL §4.7 step 1

// CheckHeaderContextual validates header against its parent's context:
// prevBlock linkage, median-time-past ordering, future drift, and the
// retarget-derived bits.
func CheckHeaderContextual(h *BlockHeader, prevHash Hash, medianTimePast, now uint64, expectedBits uint32) error {
	if h.PrevBlock != prevHash {
		return newErr(InvalidHeader, "prevBlock does not match chain tip")
	}
	if h.Time <= medianTimePast {
		return newErr(InvalidHeader, "timestamp not greater than median of last 11 ancestors")
	}
	if h.Time > now+maxFutureDrift {
		return newErr(InvalidHeader, "timestamp too far in the future")
	}
	if h.Bits != expectedBits {
		return newErr(InvalidHeader, "bits does not match retarget computation")
	}
	if !h.VerifyPOW() {
		return newErr(InvalidHeader, "proof of work does not satisfy target")
	}
	return nil
}

// CheckBlockBody performs the structural checks of CANONICAL §4.7
// step 2 that don't require chain context: non-empty tx list, first tx
// is a coinbase and the only one, merkle/witness roots match
// recomputation, and no outpoint is spent twice within the block.
func CheckBlockBody(b *Block) error {
	if b.Kind != FullBlock {
		return newErrf(InvalidBody, "CheckBlockBody called on block kind %d", b.Kind)
	}
	if len(b.Txs) == 0 {
		return newErr(InvalidBody, "block has no transactions")
	}
	if !b.Txs[0].IsCoinbase() {
		return newErr(InvalidBody, "first transaction is not a coinbase")
	}
	for i, tx := range b.Txs[1:] {
		if tx.IsCoinbase() {
			return newErrf(InvalidBody, "transaction %d is an unexpected second coinbase", i+1)
		}
	}

	txids := make([]Hash, len(b.Txs))
	witnessHashes := make([]Hash, len(b.Txs))
	for i, tx := range b.Txs {
		txids[i] = tx.Hash()
		witnessHashes[i] = tx.WitnessHash()
	}
	if root := MerkleRoot(witnessHashes); root != b.Header.WitnessRoot {
		return newErr(InvalidBody, "witness root does not match recomputation")
	}
	// MerkleRoot over bare txids (not witness hashes) is computed the
	// same way for the non-witness commitment.
	txidLeaves := make([]Hash, len(txids))
	copy(txidLeaves, txids)
	if root := MerkleRoot(txidLeaves); root != b.Header.MerkleRoot {
		return newErr(InvalidBody, "merkle root does not match recomputation")
	}

	seen := make(map[Outpoint]struct{})
	for _, tx := range b.Txs {
		if tx.IsCoinbase() {
			continue
		}
		for _, in := range tx.Inputs {
			if _, dup := seen[in.Prevout]; dup {
				return newErrf(InvalidBody, "outpoint %x:%d spent twice in block", in.Prevout.Hash, in.Prevout.Index)
			}
			seen[in.Prevout] = struct{}{}
		}
	}
	return nil
}

// CheckTxSane performs the value/shape checks of CANONICAL §4.7/§7 that
// don't require UTXO context (isSane in the §8 boundary-behavior sense):
// non-negative, non-overflowing output sums, sane witness counts, and
// (for non-coinbase) a non-empty input list. It does not check that
// referenced coins exist or that inputs cover outputs — see
// VerifyInputs for that.
func CheckTxSane(tx *TX) error {
	if !tx.IsCoinbase() && len(tx.Inputs) == 0 {
		return newErr(InvalidTx, "transaction has no inputs")
	}
	if len(tx.Outputs) == 0 {
		return newErr(InvalidTx, "transaction has no outputs")
	}
	var total uint64
	for _, out := range tx.Outputs {
		if out.Value > MaxMoney {
			return newErr(InvalidTx, "output value exceeds consensus maximum")
		}
		next := total + out.Value
		if next < total || next > MaxMoney {
			return newErr(InvalidTx, "output sum overflows or exceeds consensus maximum")
		}
		total = next
	}
	if !tx.IsCoinbase() {
		seen := make(map[Outpoint]struct{}, len(tx.Inputs))
		for _, in := range tx.Inputs {
			if in.Prevout.IsCoinbase() {
				return newErr(InvalidTx, "non-coinbase transaction references the coinbase outpoint")
			}
			if _, dup := seen[in.Prevout]; dup {
				return newErr(InvalidTx, "duplicate input outpoint within transaction")
			}
			seen[in.Prevout] = struct{}{}
			if len(in.Witness) > maxWitnessItems {
				return newErr(InvalidTx, "witness stack too large")
			}
		}
	}
	return nil
}

// VerifyInputs checks that the sum of resolved input values is at
// least the sum of output values (i.e. fee >= 0), given the already-
// resolved spent coins in input order. It does not perform script
// verification — see Verifier.
func VerifyInputs(tx *TX, spent []CoinEntry) (fee uint64, err error) {
	if len(spent) != len(tx.Inputs) {
		return 0, newErrf(StateMismatch, "resolved coin count %d does not match input count %d", len(spent), len(tx.Inputs))
	}
	var inTotal uint64
	for _, c := range spent {
		if c.Value > MaxMoney {
			return 0, newErr(InvalidTx, "spent coin value exceeds consensus maximum")
		}
		next := inTotal + c.Value
		if next < inTotal {
			return 0, newErr(InvalidTx, "input sum overflows")
		}
		inTotal = next
	}
	var outTotal uint64
	for _, out := range tx.Outputs {
		outTotal += out.Value
	}
	if inTotal < outTotal {
		return 0, newErr(InvalidTx, "outputs exceed inputs")
	}
	return inTotal - outTotal, nil
}

// CheckCoinbase validates the coinbase transaction's value against the
// block subsidy and collected fees, per CANONICAL §3 invariants.
func CheckCoinbase(tx *TX, subsidy, totalFees uint64) error {
	var outTotal uint64
	for _, out := range tx.Outputs {
		outTotal += out.Value
	}
	limit := subsidy + totalFees
	if limit < subsidy {
		return newErrf(StateMismatch, "subsidy+fees overflowed")
	}
	if outTotal > limit {
		return newErr(InvalidTx, "coinbase output total exceeds subsidy plus fees")
	}
	return nil
}
