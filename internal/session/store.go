package session

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gallery-player/internal/logging"
	"gallery-player/internal/metrics"

	bolt "go.etcd.io/bbolt"
)

var bucketSessions = []byte("sessions")

// Record is the persisted client-side snapshot for one source: the
// criteria signature that produced the playlist, the ordered id list,
// and the index the viewer was on.
type Record struct {
	Signature    string    `json:"signature"`
	Playlist     []string  `json:"playlist"`
	CurrentIndex int       `json:"currentIndex"`
	SavedAt      time.Time `json:"savedAt"`
}

// Store persists session records in a BoltDB file, keyed by a hash of
// the source identity.
type Store struct {
	db *bolt.DB
}

// Open opens (or creates) the session store at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create session directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketSessions)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func keyFor(sourceID string) []byte {
	sum := sha256.Sum256([]byte(sourceID))
	return []byte(hex.EncodeToString(sum[:8]))
}

// Save writes the record for sourceID.
func (s *Store) Save(sourceID string, rec Record) error {
	if s == nil || s.db == nil {
		return nil
	}
	rec.SavedAt = time.Now()

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode session record: %w", err)
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSessions).Put(keyFor(sourceID), data)
	})
	if err != nil {
		return fmt.Errorf("failed to save session record: %w", err)
	}

	metrics.SessionSavesTotal.Inc()
	return nil
}

// Load reads the record for sourceID. ok is false when none exists.
func (s *Store) Load(sourceID string) (Record, bool) {
	if s == nil || s.db == nil {
		return Record{}, false
	}

	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(bucketSessions).Get(keyFor(sourceID)); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})
	if err != nil || data == nil {
		return Record{}, false
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		logging.Warn("corrupt session record for %s: %v", sourceID, err)
		return Record{}, false
	}
	return rec, true
}

// UpdateIndex rewrites only the persisted index for sourceID, keeping
// the playlist as-is. Missing records are ignored.
func (s *Store) UpdateIndex(sourceID string, index int) {
	rec, ok := s.Load(sourceID)
	if !ok {
		return
	}
	rec.CurrentIndex = index
	if err := s.Save(sourceID, rec); err != nil {
		logging.Warn("failed to update session index: %v", err)
	}
}

// Delete removes the record for sourceID.
func (s *Store) Delete(sourceID string) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSessions).Delete(keyFor(sourceID))
	})
}

// All returns every persisted record keyed by its hashed source id.
// Used by the sessions maintenance tool.
func (s *Store) All() (map[string]Record, error) {
	out := make(map[string]Record)
	if s == nil || s.db == nil {
		return out, nil
	}

	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSessions).ForEach(func(k, v []byte) error {
			var rec Record
			if err := json.Unmarshal(v, &rec); err != nil {
				logging.Warn("skipping corrupt session record %s: %v", k, err)
				return nil
			}
			out[string(k)] = rec
			return nil
		})
	})
	return out, err
}

// Clear removes every persisted record.
func (s *Store) Clear() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(bucketSessions); err != nil {
			return err
		}
		_, err := tx.CreateBucket(bucketSessions)
		return err
	})
}
