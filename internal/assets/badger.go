// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package assets

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

const badgerKeyPrefix = "asset:"

// BadgerStore keeps assets in an embedded Badger database.
type BadgerStore struct {
	db *badger.DB
}

// OpenBadgerStore opens (or creates) the database in dir. An empty dir opens
// an in-memory database.
func OpenBadgerStore(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &BadgerStore{db: db}, nil
}

func (s *BadgerStore) Get(_ context.Context, key string) ([]byte, error) {
	var out []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(badgerKeyPrefix + key))
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("badger get %q: %w", key, err)
	}
	return out, nil
}

func (s *BadgerStore) Put(_ context.Context, key string, value []byte) error {
	if key == "" {
		return ErrInvalidKey
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(badgerKeyPrefix+key), value)
	})
}

func (s *BadgerStore) Delete(_ context.Context, key string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(badgerKeyPrefix + key))
	})
}

// Keys iterates the asset prefix in key order.
func (s *BadgerStore) Keys(_ context.Context) ([]string, error) {
	var keys []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(badgerKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, string(it.Item().Key()[len(badgerKeyPrefix):]))
		}
		return nil
	})
	return keys, err
}

func (s *BadgerStore) Ping(context.Context) error {
	if s.db.IsClosed() {
		return errors.New("badger: database closed")
	}
	return nil
}

func (s *BadgerStore) Close() error { return s.db.Close() }
