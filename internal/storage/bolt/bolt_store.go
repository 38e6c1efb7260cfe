package bolt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/brk3/habitgrid/internal/storage"
	"github.com/brk3/habitgrid/pkg/habit"
	"go.etcd.io/bbolt"
)

const (
	rootBucket        = "users"
	apiKeysBucket     = "apikeys"
	habitsBucket      = "habits"
	completionsBucket = "completions"
	defaultUserID     = "default"
)

// Store keeps rows in nested buckets:
//
//	users/<user>/habits/<habit id>               -> habit JSON
//	users/<user>/completions/<habit id>/<date>   -> completion JSON
//	apikeys/<sha256>                              -> user id
type Store struct {
	db *bbolt.DB
}

func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, err
	}

	s := &Store{db: db}

	if err := db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{rootBucket, apiKeysBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// userBucket returns users/<user>/<name>. In read-only transactions a
// missing bucket yields nil rather than an error.
func userBucket(tx *bbolt.Tx, userID, name string) (*bbolt.Bucket, error) {
	if userID == "" {
		userID = defaultUserID
	}
	users := tx.Bucket([]byte(rootBucket))
	if !tx.Writable() {
		u := users.Bucket([]byte(userID))
		if u == nil {
			return nil, nil
		}
		return u.Bucket([]byte(name)), nil
	}
	u, err := users.CreateBucketIfNotExists([]byte(userID))
	if err != nil {
		return nil, err
	}
	return u.CreateBucketIfNotExists([]byte(name))
}

func (s *Store) PutHabit(userID string, h habit.Habit) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b, err := userBucket(tx, userID, habitsBucket)
		if err != nil {
			return err
		}
		val, err := json.Marshal(h)
		if err != nil {
			return err
		}
		return b.Put([]byte(h.ID), val)
	})
}

func (s *Store) GetHabit(userID, habitID string) (habit.Habit, error) {
	var h habit.Habit
	err := s.db.View(func(tx *bbolt.Tx) error {
		b, err := userBucket(tx, userID, habitsBucket)
		if err != nil {
			return err
		}
		if b == nil {
			return storage.ErrNotFound
		}
		v := b.Get([]byte(habitID))
		if v == nil {
			return storage.ErrNotFound
		}
		return json.Unmarshal(v, &h)
	})
	return h, err
}

// ListHabits returns habits in creation order.
func (s *Store) ListHabits(userID string) ([]habit.Habit, error) {
	out := []habit.Habit{}
	err := s.db.View(func(tx *bbolt.Tx) error {
		b, err := userBucket(tx, userID, habitsBucket)
		if err != nil || b == nil {
			return err
		}
		return b.ForEach(func(_, v []byte) error {
			var h habit.Habit
			if err := json.Unmarshal(v, &h); err != nil {
				return err
			}
			out = append(out, h)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) DeleteHabit(userID, habitID string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b, err := userBucket(tx, userID, habitsBucket)
		if err != nil {
			return err
		}
		if b.Get([]byte(habitID)) == nil {
			return storage.ErrNotFound
		}
		if err := b.Delete([]byte(habitID)); err != nil {
			return err
		}
		cb, err := userBucket(tx, userID, completionsBucket)
		if err != nil {
			return err
		}
		if cb.Bucket([]byte(habitID)) == nil {
			return nil
		}
		return cb.DeleteBucket([]byte(habitID))
	})
}

func (s *Store) PutCompletion(userID string, c habit.Completion) (habit.Completion, bool, error) {
	stored := c
	created := false
	err := s.db.Update(func(tx *bbolt.Tx) error {
		hb, err := userBucket(tx, userID, habitsBucket)
		if err != nil {
			return err
		}
		if hb.Get([]byte(c.HabitID)) == nil {
			return storage.ErrNotFound
		}
		cb, err := userBucket(tx, userID, completionsBucket)
		if err != nil {
			return err
		}
		b, err := cb.CreateBucketIfNotExists([]byte(c.HabitID))
		if err != nil {
			return err
		}
		key := []byte(c.CompletedDate)
		if v := b.Get(key); v != nil {
			return json.Unmarshal(v, &stored)
		}
		val, err := json.Marshal(c)
		if err != nil {
			return err
		}
		created = true
		return b.Put(key, val)
	})
	if err != nil {
		return habit.Completion{}, false, err
	}
	return stored, created, nil
}

func (s *Store) DeleteCompletion(userID, habitID, date string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		cb, err := userBucket(tx, userID, completionsBucket)
		if err != nil {
			return err
		}
		b := cb.Bucket([]byte(habitID))
		if b == nil || b.Get([]byte(date)) == nil {
			return storage.ErrNotFound
		}
		return b.Delete([]byte(date))
	})
}

func (s *Store) ListCompletions(userID, habitID, from, to string) ([]habit.Completion, error) {
	out := []habit.Completion{}
	err := s.db.View(func(tx *bbolt.Tx) error {
		cb, err := userBucket(tx, userID, completionsBucket)
		if err != nil || cb == nil {
			return err
		}
		b := cb.Bucket([]byte(habitID))
		if b == nil {
			return nil
		}
		out, err = scanRange(b, from, to, out)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) ListUserCompletions(userID, since string) ([]habit.Completion, error) {
	out := []habit.Completion{}
	err := s.db.View(func(tx *bbolt.Tx) error {
		cb, err := userBucket(tx, userID, completionsBucket)
		if err != nil || cb == nil {
			return err
		}
		return cb.ForEachBucket(func(k []byte) error {
			var err error
			out, err = scanRange(cb.Bucket(k), since, "", out)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CompletedDate < out[j].CompletedDate })
	return out, nil
}

// scanRange appends rows keyed from <= key <= to. Date keys sort
// lexically in calendar order.
func scanRange(b *bbolt.Bucket, from, to string, out []habit.Completion) ([]habit.Completion, error) {
	c := b.Cursor()
	var k, v []byte
	if from == "" {
		k, v = c.First()
	} else {
		k, v = c.Seek([]byte(from))
	}
	for ; k != nil; k, v = c.Next() {
		if to != "" && bytes.Compare(k, []byte(to)) > 0 {
			break
		}
		var comp habit.Completion
		if err := json.Unmarshal(v, &comp); err != nil {
			return nil, fmt.Errorf("decode completion %s: %w", k, err)
		}
		out = append(out, comp)
	}
	return out, nil
}

func (s *Store) PutAPIKey(keyHash, userID string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(apiKeysBucket)).Put([]byte(keyHash), []byte(userID))
	})
}

func (s *Store) GetAPIKey(keyHash string) (string, bool, error) {
	var userID string
	err := s.db.View(func(tx *bbolt.Tx) error {
		if v := tx.Bucket([]byte(apiKeysBucket)).Get([]byte(keyHash)); v != nil {
			userID = string(v)
		}
		return nil
	})
	return userID, userID != "", err
}

func (s *Store) DeleteAPIKey(keyHash string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(apiKeysBucket)).Delete([]byte(keyHash))
	})
}

func (s *Store) ListAPIKeyHashes(userID string) ([]string, error) {
	var out []string
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(apiKeysBucket)).ForEach(func(k, v []byte) error {
			if string(v) == userID {
				out = append(out, string(k))
			}
			return nil
		})
	})
	return out, err
}

var _ storage.Store = (*Store)(nil)
