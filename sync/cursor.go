package sync

import (
	"encoding/binary"
	"sync"

	"github.com/lightningnetwork/lnd/kvdb"
)

// CursorStore persists the Bitcoin sync task's own progress marker: the
// index of the anchoring-chain transaction the task last sent to the
// relay, or "none yet" (spec §4.6, "a cursor ... persisted by the
// caller"). Restart-safety of the sync task depends only on this value
// being durable across process restarts.
type CursorStore interface {
	// Load returns the stored cursor and whether one has ever been
	// saved.
	Load() (index uint64, ok bool, err error)
	// Save persists index as the new cursor.
	Save(index uint64) error
}

var cursorBucket = []byte("anchoring-sync-cursor")
var cursorKey = []byte("last-committed-index")

// KVCursorStore is a CursorStore backed by a github.com/lightningnetwork/lnd/kvdb
// database, the same embedded key-value layer the teacher uses for small
// pieces of local per-node state in channeldb. One bucket, one key: this is
// deliberately the simplest possible use of that backend.
type KVCursorStore struct {
	db kvdb.Backend
}

// NewKVCursorStore wraps an already-opened kvdb backend.
func NewKVCursorStore(db kvdb.Backend) *KVCursorStore {
	return &KVCursorStore{db: db}
}

func (s *KVCursorStore) Load() (uint64, bool, error) {
	var (
		index uint64
		found bool
	)
	err := kvdb.View(s.db, func(tx kvdb.RTx) error {
		bucket := tx.ReadBucket(cursorBucket)
		if bucket == nil {
			return nil
		}
		v := bucket.Get(cursorKey)
		if v == nil {
			return nil
		}
		index = binary.BigEndian.Uint64(v)
		found = true
		return nil
	}, func() {
		index, found = 0, false
	})
	if err != nil {
		return 0, false, err
	}
	return index, found, nil
}

func (s *KVCursorStore) Save(index uint64) error {
	return kvdb.Update(s.db, func(tx kvdb.RwTx) error {
		bucket, err := tx.CreateTopLevelBucket(cursorBucket)
		if err != nil {
			return err
		}
		v := make([]byte, 8)
		binary.BigEndian.PutUint64(v, index)
		return bucket.Put(cursorKey, v)
	}, func() {})
}

// MemoryCursorStore is an in-process CursorStore used by tests and by the
// simulation harness, grounded on the same in-memory-fake idiom as
// hostchain.MemoryLedger and relay.MemoryRelay.
type MemoryCursorStore struct {
	mu    sync.Mutex
	index uint64
	set   bool
}

// NewMemoryCursorStore returns an empty cursor store.
func NewMemoryCursorStore() *MemoryCursorStore {
	return &MemoryCursorStore{}
}

func (s *MemoryCursorStore) Load() (uint64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index, s.set, nil
}

func (s *MemoryCursorStore) Save(index uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.index = index
	s.set = true
	return nil
}
