package main

import (
	"encoding/binary"
	"time"

	bolt "go.etcd.io/bbolt"
)

// historyStore persists REPL input lines in a bbolt database, one
// auto-incremented key per line.
type historyStore struct {
	db *bolt.DB
}

var historyBucket = []byte("cmd")

func openHistory(path string) (*historyStore, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(historyBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &historyStore{db: db}, nil
}

func (s *historyStore) Close() error {
	return s.db.Close()
}

// Add appends one line to the history.
func (s *historyStore) Add(line string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(historyBucket)
		seq, err := bucket.NextSequence()
		if err != nil {
			return err
		}
		key := make([]byte, 8)
		binary.BigEndian.PutUint64(key, seq)
		return bucket.Put(key, []byte(line))
	})
}

// List returns the most recent lines, newest last, up to limit.
func (s *historyStore) List(limit int) ([]string, error) {
	var out []string
	err := s.db.View(func(tx *bolt.Tx) error {
		cursor := tx.Bucket(historyBucket).Cursor()
		for k, v := cursor.Last(); k != nil && len(out) < limit; k, v = cursor.Prev() {
			out = append(out, string(v))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}
