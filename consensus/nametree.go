package consensus

import "sort"

// NameTree is the authenticated key-value map from BLAKE2b(name) to the
// latest resource blob, committed in every block header's TreeRoot.
// CANONICAL §1 explicitly treats the real authenticated tree (an
// urkel-style sparse merkle trie with compact non-membership proofs) as
// an external, opaque collaborator — this core only needs the narrow
// insert/remove/commit/root surface below. MemNameTree is a reference
// implementation sufficient to drive connect/disconnect and the test
// suite; a production deployment plugs in the real tree behind this
// same interface.
type NameTree interface {
	Insert(key Hash, value []byte)
	Remove(key Hash)
	Lookup(key Hash) ([]byte, bool)
	Commit() Hash
	HistoricalRoot(height uint32) (Hash, bool)
}

// MemNameTree is a deterministic, non-authenticated stand-in for the
// real tree: a sorted-key hash accumulator. Commit() only depends on the
// current key/value set, not on insertion order, matching the
// "authenticated" contract's determinism requirement without
// implementing compact proofs.
type MemNameTree struct {
	entries map[Hash][]byte
	history map[uint32]Hash
}

func NewMemNameTree() *MemNameTree {
	return &MemNameTree{entries: make(map[Hash][]byte), history: make(map[uint32]Hash)}
}

func (t *MemNameTree) Insert(key Hash, value []byte) {
	t.entries[key] = append([]byte(nil), value...)
}

func (t *MemNameTree) Remove(key Hash) {
	delete(t.entries, key)
}

func (t *MemNameTree) Lookup(key Hash) ([]byte, bool) {
	v, ok := t.entries[key]
	return v, ok
}

// Commit recomputes the root over the current entry set: a tagged
// BLAKE2b merkle root over leaves sorted by key, so the root is
// independent of insertion/removal order within the block.
func (t *MemNameTree) Commit() Hash {
	if len(t.entries) == 0 {
		return ZeroHash
	}
	keys := make([]Hash, 0, len(t.entries))
	for k := range t.entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		for b := 0; b < 32; b++ {
			if keys[i][b] != keys[j][b] {
				return keys[i][b] < keys[j][b]
			}
		}
		return false
	})
	leaves := make([]Hash, len(keys))
	for i, k := range keys {
		leaves[i] = blake2b256(k[:], t.entries[k])
	}
	return reduceLevel(leaves)
}

// CommitAtHeight commits and records the result as the historical root
// for height, for later HistoricalRoot queries.
func (t *MemNameTree) CommitAtHeight(height uint32) Hash {
	root := t.Commit()
	t.history[height] = root
	return root
}

func (t *MemNameTree) HistoricalRoot(height uint32) (Hash, bool) {
	r, ok := t.history[height]
	return r, ok
}

// LookupNSEC returns a negative-existence proof for key. CANONICAL §9
// flags NSEC-style proofs as unimplemented in the reference
// implementation; this stand-in reports the same "unavailable" status.
func (t *MemNameTree) LookupNSEC(key Hash) (proof []byte, ok bool) {
	return nil, false
}
