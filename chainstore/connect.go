package chainstore

import (
	"go.etcd.io/bbolt"

	"github.com/handshake-org/hsd-sub011/consensus"
)

const metaKeyConnectMarker = "connect_in_progress"

// ApplyConnect persists a consensus.ConnectResult in one atomic bbolt
// transaction: it sets an in-progress marker before any mutation and
// clears it only after every bucket write (UTXO delta, undo record,
// name-state deltas, header, tip pointer, chain-state counters), all in
// the same transaction, so the marker and the writes commit or roll
// back together and a committed transaction never leaves the marker
// set. CANONICAL §4.7 step 6.
func (s *Store) ApplyConnect(block *consensus.Block, res *consensus.ConnectResult) error {
	hash := res.Header.PowHash()
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket(bucketMeta).Put([]byte(metaKeyConnectMarker), hash[:]); err != nil {
			return err
		}
		if err := s.PutHeader(tx, &res.Header, res.Height); err != nil {
			return err
		}
		body, err := block.EncodeFull()
		if err != nil {
			return err
		}
		if err := s.PutBlockBody(tx, hash, body); err != nil {
			return err
		}
		if err := s.PutUndo(tx, hash, res.Undo); err != nil {
			return err
		}
		for _, d := range res.CoinDeltas {
			if d.Removed {
				if err := s.DeleteCoin(tx, d.Outpoint); err != nil {
					return err
				}
				continue
			}
			if err := s.PutCoin(tx, d.Outpoint, d.Entry); err != nil {
				return err
			}
		}
		var coinCountDelta int64
		for _, d := range res.CoinDeltas {
			if d.Removed {
				coinCountDelta--
			} else {
				coinCountDelta++
			}
		}
		for _, d := range res.NameDeltas {
			if err := s.PutName(tx, d.After); err != nil {
				return err
			}
		}
		if err := s.PutTreeRoot(tx, res.Height, res.NewTreeRoot); err != nil {
			return err
		}
		if err := s.ApplyPrune(tx, res.Height); err != nil {
			return err
		}

		prev, err := s.chainStateTx(tx)
		if err != nil {
			return err
		}
		next := ChainState{
			TipHash:      hash,
			Height:       res.Height,
			TxCount:      prev.TxCount + uint64(res.TxCount),
			CoinCount:    uint64(int64(prev.CoinCount) + coinCountDelta),
			BurnedAmount: prev.BurnedAmount + res.BurnedAmount,
		}
		if err := tx.Bucket(bucketMeta).Put([]byte(metaKeyChainState), encodeChainState(next)); err != nil {
			return err
		}
		return tx.Bucket(bucketMeta).Delete([]byte(metaKeyConnectMarker))
	})
}

// ApplyDisconnect is the inverse of ApplyConnect: it undoes one block's
// effects and moves the tip back to prevHash, under the same
// in-progress marker discipline.
func (s *Store) ApplyDisconnect(blockHash consensus.Hash, prevHash consensus.Hash, res *consensus.DisconnectResult, txCount int, burnedReverted uint64) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket(bucketMeta).Put([]byte(metaKeyConnectMarker), blockHash[:]); err != nil {
			return err
		}
		for _, d := range res.CoinDeltas {
			if d.Removed {
				if err := s.DeleteCoin(tx, d.Outpoint); err != nil {
					return err
				}
				continue
			}
			if err := s.PutCoin(tx, d.Outpoint, d.Entry); err != nil {
				return err
			}
		}
		for _, d := range res.NameDeltas {
			if len(d.After.Name) == 0 {
				if err := s.DeleteName(tx, d.NameHash); err != nil {
					return err
				}
				continue
			}
			if err := s.PutName(tx, d.After); err != nil {
				return err
			}
		}
		if err := s.PutTreeRoot(tx, res.Height, res.NewTreeRoot); err != nil {
			return err
		}

		var coinCountDelta int64
		for _, d := range res.CoinDeltas {
			if d.Removed {
				coinCountDelta--
			} else {
				coinCountDelta++
			}
		}

		prev, err := s.chainStateTx(tx)
		if err != nil {
			return err
		}
		next := ChainState{
			TipHash:      prevHash,
			Height:       res.Height - 1,
			TxCount:      prev.TxCount - uint64(txCount),
			CoinCount:    uint64(int64(prev.CoinCount) + coinCountDelta),
			BurnedAmount: prev.BurnedAmount - burnedReverted,
		}
		if err := tx.Bucket(bucketMeta).Put([]byte(metaKeyChainState), encodeChainState(next)); err != nil {
			return err
		}
		return tx.Bucket(bucketMeta).Delete([]byte(metaKeyConnectMarker))
	})
}

func (s *Store) chainStateTx(tx *bbolt.Tx) (ChainState, error) {
	b := tx.Bucket(bucketMeta).Get([]byte(metaKeyChainState))
	if b == nil {
		return ChainState{}, nil
	}
	return decodeChainState(b), nil
}

// RecoverInProgress clears the connect-in-progress marker if one is
// present and reports whether it found one. ApplyConnect and
// ApplyDisconnect set and clear the marker inside the same atomic bbolt
// transaction as all their other writes, so an aborted transaction
// leaves neither the marker nor any partial write behind and a
// committed one has already cleared it: there is nothing partial to
// roll forward or back. It is read here, once, as an
// explicit part of startup per CANONICAL §4.7, rather than assumed.
func (s *Store) RecoverInProgress() (recovered bool, err error) {
	err = s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketMeta)
		if b.Get([]byte(metaKeyConnectMarker)) == nil {
			return nil
		}
		recovered = true
		return b.Delete([]byte(metaKeyConnectMarker))
	})
	return recovered, err
}
