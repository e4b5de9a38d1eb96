// Package journal persists each role's learned lessons in a BoltDB file so
// memories survive process restarts. Lessons are appended in insertion
// order and replayed in the same order, which keeps eviction behavior
// identical across runs.
package journal

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/bensonmaxai/TradingAgents/pkg/errors"
	"github.com/bensonmaxai/TradingAgents/pkg/log"
	"github.com/bensonmaxai/TradingAgents/pkg/mem/situation"
)

// rootBucket holds one nested bucket per memory store.
const rootBucket = "memories"

// Lesson is the persisted form of one situation/recommendation pair.
type Lesson struct {
	Situation      string    `json:"situation"`
	Recommendation string    `json:"recommendation"`
	Pinned         bool      `json:"pinned,omitempty"`
	RecordedAt     time.Time `json:"recorded_at"`
}

// Journal is an append-only lesson log backed by BoltDB.
type Journal struct {
	db *bolt.DB
}

// Open opens (or creates) the journal file at path.
func Open(path string) (*Journal, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(rootBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize journal: %w", err)
	}

	log.Debug("Opened lesson journal", "path", path)

	return &Journal{db: db}, nil
}

// Close releases the underlying database file.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Append records lessons for the named memory store, preserving order.
func (j *Journal) Append(ctx context.Context, memory string, lessons []Lesson) error {
	if memory == "" {
		return errors.Wrap(errors.ErrInvalidInput, "memory name is required")
	}
	if len(lessons) == 0 {
		return nil
	}

	err := j.db.Update(func(tx *bolt.Tx) error {
		bucket, err := memoryBucket(tx, memory)
		if err != nil {
			return err
		}

		for _, lesson := range lessons {
			if lesson.RecordedAt.IsZero() {
				lesson.RecordedAt = time.Now().UTC()
			}

			seq, err := bucket.NextSequence()
			if err != nil {
				return fmt.Errorf("failed to allocate sequence: %w", err)
			}

			data, err := json.Marshal(lesson)
			if err != nil {
				return fmt.Errorf("failed to marshal lesson: %w", err)
			}

			if err := bucket.Put(sequenceKey(seq), data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to append lessons",
			"memory", memory, "count", len(lessons), "error", err)
		return err
	}

	log.DebugContext(ctx, "Appended lessons", "memory", memory, "count", len(lessons))
	return nil
}

// Load returns all lessons recorded for the named memory store, oldest
// first. A store that was never written yields an empty slice.
func (j *Journal) Load(ctx context.Context, memory string) ([]Lesson, error) {
	if memory == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "memory name is required")
	}

	var lessons []Lesson
	err := j.db.View(func(tx *bolt.Tx) error {
		root := tx.Bucket([]byte(rootBucket))
		if root == nil {
			return nil
		}
		bucket := root.Bucket([]byte(memory))
		if bucket == nil {
			return nil
		}

		return bucket.ForEach(func(_, v []byte) error {
			var lesson Lesson
			if err := json.Unmarshal(v, &lesson); err != nil {
				return fmt.Errorf("failed to unmarshal lesson: %w", err)
			}
			lessons = append(lessons, lesson)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	log.DebugContext(ctx, "Loaded lessons", "memory", memory, "count", len(lessons))
	return lessons, nil
}

// Replay loads the journal for the named memory store and feeds it into
// the given situation store: pinned lessons become the playbook, the rest
// re-enter the regular tier in their original order.
func (j *Journal) Replay(ctx context.Context, memory string, store *situation.Store) error {
	lessons, err := j.Load(ctx, memory)
	if err != nil {
		return err
	}

	var playbook, regular []situation.Pair
	for _, lesson := range lessons {
		pair := situation.Pair{
			Situation:      lesson.Situation,
			Recommendation: lesson.Recommendation,
		}
		if lesson.Pinned {
			playbook = append(playbook, pair)
		} else {
			regular = append(regular, pair)
		}
	}

	if len(playbook) > 0 {
		store.SetPlaybook(playbook)
	}
	if len(regular) > 0 {
		store.AddSituations(regular)
	}
	return nil
}

// Clear drops all lessons recorded for the named memory store.
func (j *Journal) Clear(ctx context.Context, memory string) error {
	if memory == "" {
		return errors.Wrap(errors.ErrInvalidInput, "memory name is required")
	}

	return j.db.Update(func(tx *bolt.Tx) error {
		root := tx.Bucket([]byte(rootBucket))
		if root == nil {
			return nil
		}
		if root.Bucket([]byte(memory)) == nil {
			return nil
		}
		return root.DeleteBucket([]byte(memory))
	})
}

func memoryBucket(tx *bolt.Tx, memory string) (*bolt.Bucket, error) {
	root, err := tx.CreateBucketIfNotExists([]byte(rootBucket))
	if err != nil {
		return nil, fmt.Errorf("failed to create root bucket: %w", err)
	}
	bucket, err := root.CreateBucketIfNotExists([]byte(memory))
	if err != nil {
		return nil, fmt.Errorf("failed to create bucket for %s: %w", memory, err)
	}
	return bucket, nil
}

// sequenceKey encodes a sequence number big-endian so byte order matches
// insertion order during iteration.
func sequenceKey(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}
