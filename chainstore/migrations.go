package chainstore

import (
	"encoding/binary"

	"go.etcd.io/bbolt"
)

// MigrationAction is what Migration.Check decided for one migration id.
type MigrationAction int

const (
	ActionMigrate MigrationAction = iota
	ActionFake                    // already satisfied by some other means; advance without running Migrate
	ActionSkip                    // not applicable to this store; record as skipped and advance
)

// Migration is one versioned, idempotent upgrade step. Check inspects
// the store and decides what to do; Migrate performs the actual work
// inside the same crash-safe in-progress window.
type Migration interface {
	ID() uint32
	Check(*Store) (MigrationAction, error)
	Migrate(*Store) error
}

// migrationState is the persisted record from CANONICAL §4.8:
// {next_migration, in_progress, skipped}.
type migrationState struct {
	NextMigration uint32
	InProgress    bool
	Skipped       []uint32
}

func encodeMigrationState(s migrationState) []byte {
	out := make([]byte, 0, 8+4*len(s.Skipped))
	out = binary.BigEndian.AppendUint32(out, s.NextMigration)
	if s.InProgress {
		out = append(out, 1)
	} else {
		out = append(out, 0)
	}
	out = binary.BigEndian.AppendUint32(out, uint32(len(s.Skipped)))
	for _, id := range s.Skipped {
		out = binary.BigEndian.AppendUint32(out, id)
	}
	return out
}

func decodeMigrationState(b []byte) migrationState {
	if len(b) < 9 {
		return migrationState{}
	}
	var s migrationState
	s.NextMigration = binary.BigEndian.Uint32(b[0:4])
	s.InProgress = b[4] != 0
	count := binary.BigEndian.Uint32(b[5:9])
	off := 9
	for i := uint32(0); i < count && off+4 <= len(b); i++ {
		s.Skipped = append(s.Skipped, binary.BigEndian.Uint32(b[off:off+4]))
		off += 4
	}
	return s
}

func (s *Store) readMigrationState() (migrationState, error) {
	var st migrationState
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketMeta).Get([]byte(metaKeyMigration))
		if b != nil {
			st = decodeMigrationState(b)
		}
		return nil
	})
	return st, err
}

func (s *Store) writeMigrationState(st migrationState) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketMeta).Put([]byte(metaKeyMigration), encodeMigrationState(st))
	})
}

// RunMigrations runs every migration whose id is >= the store's
// persisted next_migration cursor, in ascending id order, each under
// its own crash-safe in-progress window: the in_progress flag is set
// before Migrate runs and cleared only after the migration's effects
// and the advanced cursor are both durable.
func (s *Store) RunMigrations(migrations []Migration) error {
	st, err := s.readMigrationState()
	if err != nil {
		return err
	}
	if st.InProgress {
		return &inProgressError{what: "migration"}
	}
	for _, m := range migrations {
		if m.ID() < st.NextMigration {
			continue
		}
		action, err := m.Check(s)
		if err != nil {
			return err
		}
		switch action {
		case ActionSkip:
			st.Skipped = append(st.Skipped, m.ID())
		case ActionMigrate:
			st.InProgress = true
			if err := s.writeMigrationState(st); err != nil {
				return err
			}
			if err := m.Migrate(s); err != nil {
				return err
			}
			st.InProgress = false
		case ActionFake:
		}
		st.NextMigration = m.ID() + 1
		if err := s.writeMigrationState(st); err != nil {
			return err
		}
	}
	return nil
}

type inProgressError struct{ what string }

func (e *inProgressError) Error() string {
	return "chainstore: " + e.what + " was left in-progress by a prior run; recovery required before proceeding"
}
