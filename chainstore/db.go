// Package chainstore persists the chain state CANONICAL §4.8 describes:
// headers, blocks (optionally pruned), undo records, the UTXO set,
// name-state records, tree-root history, the tip pointer, chain-state
// counters, and a migration record. It is built on go.etcd.io/bbolt,
// the single-writer embedded KV store this lineage uses throughout its
// own node/store package, adapted from keying blocks by a different
// protocol's height scheme to this core's outpoint/name-hash/height
// keys.
package chainstore

import (
	"encoding/binary"
	"os"
	"path/filepath"

	"go.etcd.io/bbolt"
)

var (
	bucketHeadersByHash   = []byte("headers_by_hash")
	bucketHeadersByHeight = []byte("headers_by_height")
	bucketBlocksByHash    = []byte("blocks_by_hash")
	bucketUndoByHash      = []byte("undo_by_hash")
	bucketUTXO            = []byte("utxo")
	bucketNameState       = []byte("name_state")
	bucketTreeRootHistory = []byte("tree_root_history")
	bucketMeta            = []byte("meta")
)

var allBuckets = [][]byte{
	bucketHeadersByHash,
	bucketHeadersByHeight,
	bucketBlocksByHash,
	bucketUndoByHash,
	bucketUTXO,
	bucketNameState,
	bucketTreeRootHistory,
	bucketMeta,
}

const (
	metaKeyTip           = "tip"
	metaKeyChainState    = "chainstate"
	metaKeyMigration     = "migration"
	metaKeyInProgress    = "in_progress"
	metaKeyPruneAfter    = "prune_after_height"
	metaKeyKeepBlocks    = "keep_blocks"
)

// Config bounds the optional block-pruning policy (CANONICAL §4.8):
// once the tip has passed PruneAfterHeight, the bodies of all blocks
// beyond the most recent KeepBlocks may be dropped from
// bucketBlocksByHash while their headers and undo records remain.
type Config struct {
	Path             string
	PruneAfterHeight uint32
	KeepBlocks       uint32
}

// Store is the opened chain store handle.
type Store struct {
	db  *bbolt.DB
	cfg Config
}

// Open creates the containing directory if needed and opens (or
// creates) the bbolt database at cfg.Path, ensuring every bucket
// exists. On return, if a prior run left an in-progress marker set,
// the caller must call RecoverInProgress before doing anything else.
func Open(cfg Config) (*Store, error) {
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	db, err := bbolt.Open(cfg.Path, 0o600, nil)
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range allBuckets {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, cfg: cfg}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func heightKey(h uint32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], h)
	return b[:]
}
