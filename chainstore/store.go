package chainstore

import (
	"encoding/binary"

	"go.etcd.io/bbolt"

	"github.com/handshake-org/hsd-sub011/consensus"
)

// ChainState is the persisted summary record CANONICAL §3 describes:
// tip hash, height, tx count, coin count, burned amount.
type ChainState struct {
	TipHash      consensus.Hash
	Height       uint32
	TxCount      uint64
	CoinCount    uint64
	BurnedAmount uint64
}

func encodeChainState(cs ChainState) []byte {
	out := append([]byte(nil), cs.TipHash[:]...)
	out = binary.BigEndian.AppendUint32(out, cs.Height)
	out = binary.BigEndian.AppendUint64(out, cs.TxCount)
	out = binary.BigEndian.AppendUint64(out, cs.CoinCount)
	out = binary.BigEndian.AppendUint64(out, cs.BurnedAmount)
	return out
}

func decodeChainState(b []byte) ChainState {
	var cs ChainState
	if len(b) < 32+4+8+8+8 {
		return cs
	}
	copy(cs.TipHash[:], b[:32])
	cs.Height = binary.BigEndian.Uint32(b[32:36])
	cs.TxCount = binary.BigEndian.Uint64(b[36:44])
	cs.CoinCount = binary.BigEndian.Uint64(b[44:52])
	cs.BurnedAmount = binary.BigEndian.Uint64(b[52:60])
	return cs
}

// ChainState reads the persisted chain-state summary.
func (s *Store) ChainState() (ChainState, error) {
	var cs ChainState
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketMeta).Get([]byte(metaKeyChainState))
		if b != nil {
			cs = decodeChainState(b)
		}
		return nil
	})
	return cs, err
}

// PutHeader stores header at both the hash and height indexes.
func (s *Store) PutHeader(tx *bbolt.Tx, h *consensus.BlockHeader, height uint32) error {
	hash := h.PowHash()
	enc := h.Encode()
	if err := tx.Bucket(bucketHeadersByHash).Put(hash[:], enc); err != nil {
		return err
	}
	return tx.Bucket(bucketHeadersByHeight).Put(heightKey(height), hash[:])
}

// HeaderByHash returns a decoded header for hash, if present.
func (s *Store) HeaderByHash(hash consensus.Hash) (*consensus.BlockHeader, bool, error) {
	var h *consensus.BlockHeader
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketHeadersByHash).Get(hash[:])
		if b == nil {
			return nil
		}
		decoded, _, err := consensus.DecodeBlockHeader(b)
		if err != nil {
			return err
		}
		h = decoded
		return nil
	})
	return h, h != nil, err
}

// HeaderByHeight resolves the header stored at height, if any.
func (s *Store) HeaderByHeight(height uint32) (*consensus.BlockHeader, bool, error) {
	var h *consensus.BlockHeader
	err := s.db.View(func(tx *bbolt.Tx) error {
		hashBytes := tx.Bucket(bucketHeadersByHeight).Get(heightKey(height))
		if hashBytes == nil {
			return nil
		}
		b := tx.Bucket(bucketHeadersByHash).Get(hashBytes)
		if b == nil {
			return nil
		}
		decoded, _, err := consensus.DecodeBlockHeader(b)
		if err != nil {
			return err
		}
		h = decoded
		return nil
	})
	return h, h != nil, err
}

// PutBlockBody stores a full block's encoded body unconditionally.
// Pruning is separate: ApplyPrune (called by ApplyConnect after each
// new tip) is what drops bodies older than the retention window.
func (s *Store) PutBlockBody(tx *bbolt.Tx, hash consensus.Hash, body []byte) error {
	return tx.Bucket(bucketBlocksByHash).Put(hash[:], body)
}

func (s *Store) BlockBody(hash consensus.Hash) ([]byte, bool, error) {
	var body []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketBlocksByHash).Get(hash[:])
		if b != nil {
			body = append([]byte(nil), b...)
		}
		return nil
	})
	return body, body != nil, err
}

// ApplyPrune drops the bodies of every block at or below
// tipHeight-KeepBlocks, keeping only those of the most recent KeepBlocks
// heights, once tipHeight has passed PruneAfterHeight, per CANONICAL §4.8.
func (s *Store) ApplyPrune(tx *bbolt.Tx, tipHeight uint32) error {
	if s.cfg.KeepBlocks == 0 || tipHeight <= s.cfg.PruneAfterHeight {
		return nil
	}
	if tipHeight <= s.cfg.KeepBlocks {
		return nil
	}
	pruneHeight := tipHeight - s.cfg.KeepBlocks
	bodies := tx.Bucket(bucketBlocksByHash)
	c := tx.Bucket(bucketHeadersByHeight).Cursor()
	for k, hashBytes := c.First(); k != nil && binary.BigEndian.Uint32(k) <= pruneHeight; k, hashBytes = c.Next() {
		if err := bodies.Delete(hashBytes); err != nil {
			return err
		}
	}
	return nil
}

// PutUndo stores the undo record for a connected block, keyed by that
// block's hash.
func (s *Store) PutUndo(tx *bbolt.Tx, hash consensus.Hash, undo consensus.UndoCoins) error {
	return tx.Bucket(bucketUndoByHash).Put(hash[:], undo.Encode())
}

func (s *Store) UndoByHash(hash consensus.Hash) (consensus.UndoCoins, bool, error) {
	var undo consensus.UndoCoins
	var found bool
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketUndoByHash).Get(hash[:])
		if b == nil {
			return nil
		}
		decoded, err := consensus.DecodeUndoCoins(b)
		if err != nil {
			return err
		}
		undo = decoded
		found = true
		return nil
	})
	return undo, found, err
}

func utxoKey(op consensus.Outpoint) []byte {
	return op.Encode()
}

// LookupCoin implements consensus.StoreLookup: coin values are stored
// compressed on disk (CANONICAL §4.2) and decompressed on read.
func (s *Store) LookupCoin(op consensus.Outpoint) (consensus.CoinEntry, bool, error) {
	var entry consensus.CoinEntry
	var found bool
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketUTXO).Get(utxoKey(op))
		if b == nil {
			return nil
		}
		decoded, err := decodeStoredCoin(b)
		if err != nil {
			return err
		}
		entry = decoded
		found = true
		return nil
	})
	return entry, found, err
}

// encodeStoredCoin re-lays-out CoinEntry.Encode()'s bytes with the fixed
// 8-byte value field (offset [8:16)) replaced by its compressed
// varint form (CANONICAL §4.2), since most coin values are round and
// compress to one or two bytes on disk.
func encodeStoredCoin(c consensus.CoinEntry) []byte {
	raw := c.Encode()
	compressed := consensus.AppendVarint(nil, consensus.CompressValue(c.Value))
	result := make([]byte, 0, 8+len(compressed)+len(raw)-16)
	result = append(result, raw[:8]...)
	result = append(result, compressed...)
	result = append(result, raw[16:]...)
	return result
}

func decodeStoredCoin(b []byte) (consensus.CoinEntry, error) {
	if len(b) < 8 {
		return consensus.CoinEntry{}, errShortCoinRecord
	}
	value, n, err := consensus.DecodeVarint(b[8:])
	if err != nil {
		return consensus.CoinEntry{}, err
	}
	rest := make([]byte, 0, 8+8+len(b)-8-n)
	rest = append(rest, b[:8]...)
	rest = binary.LittleEndian.AppendUint64(rest, consensus.DecompressValue(value))
	rest = append(rest, b[8+n:]...)
	entry, _, err := consensus.DecodeCoinEntry(rest)
	return entry, err
}

var errShortCoinRecord = &recordError{"truncated coin record"}

type recordError struct{ msg string }

func (e *recordError) Error() string { return e.msg }

// PutCoin and DeleteCoin apply one CoinDelta to the UTXO bucket.
func (s *Store) PutCoin(tx *bbolt.Tx, op consensus.Outpoint, entry consensus.CoinEntry) error {
	return tx.Bucket(bucketUTXO).Put(utxoKey(op), encodeStoredCoin(entry))
}

func (s *Store) DeleteCoin(tx *bbolt.Tx, op consensus.Outpoint) error {
	return tx.Bucket(bucketUTXO).Delete(utxoKey(op))
}

func nameKey(h consensus.Hash) []byte { return h[:] }

// GetName implements consensus.NameStateStore.
func (s *Store) GetName(nameHash consensus.Hash) (*consensus.NameState, bool, error) {
	var ns *consensus.NameState
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketNameState).Get(nameKey(nameHash))
		if b == nil {
			return nil
		}
		decoded, err := decodeNameState(b)
		if err != nil {
			return err
		}
		ns = &decoded
		return nil
	})
	return ns, ns != nil, err
}

func (s *Store) PutName(tx *bbolt.Tx, ns consensus.NameState) error {
	return tx.Bucket(bucketNameState).Put(nameKey(ns.NameHash), encodeNameState(ns))
}

func (s *Store) DeleteName(tx *bbolt.Tx, nameHash consensus.Hash) error {
	return tx.Bucket(bucketNameState).Delete(nameKey(nameHash))
}

// PutTreeRoot records the name-tree root committed at height, for
// historical-root queries.
func (s *Store) PutTreeRoot(tx *bbolt.Tx, height uint32, root consensus.Hash) error {
	return tx.Bucket(bucketTreeRootHistory).Put(heightKey(height), root[:])
}

func (s *Store) TreeRootAtHeight(height uint32) (consensus.Hash, bool, error) {
	var root consensus.Hash
	var found bool
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketTreeRootHistory).Get(heightKey(height))
		if b != nil {
			copy(root[:], b)
			found = true
		}
		return nil
	})
	return root, found, err
}
