package aggstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/soundprediction/aggrego/pkg/types"
)

// BadgerStore persists facts in an embedded Badger database. Each upsert is
// a single transaction over one key, so readers always see a whole fact.
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore opens (or creates) a Badger database at path.
func NewBadgerStore(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger store at %s: %w", path, err)
	}
	return &BadgerStore{db: db}, nil
}

// Upsert implements Store.
func (s *BadgerStore) Upsert(ctx context.Context, fact *types.AggregateFact) error {
	if err := fact.Validate(); err != nil {
		return err
	}

	encoded, err := json.Marshal(fact)
	if err != nil {
		return fmt.Errorf("failed to encode fact %s: %w", fact.Key, err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(fact.Key), encoded)
	})
	if err != nil {
		return fmt.Errorf("failed to write fact %s: %w", fact.Key, err)
	}
	return nil
}

// Get implements Store.
func (s *BadgerStore) Get(ctx context.Context, key string) (*types.AggregateFact, error) {
	var fact types.AggregateFact

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &fact)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrFactNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read fact %s: %w", key, err)
	}
	return &fact, nil
}

// ListByDataSource implements Store.
func (s *BadgerStore) ListByDataSource(ctx context.Context, dataSourceID string) ([]*types.AggregateFact, error) {
	prefix := []byte(dataSourceID + ":")
	facts := make([]*types.AggregateFact, 0)

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var fact types.AggregateFact
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &fact)
			})
			if err != nil {
				return err
			}
			facts = append(facts, &fact)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list facts for %s: %w", dataSourceID, err)
	}
	return facts, nil
}

// HasPartition implements Store.
func (s *BadgerStore) HasPartition(ctx context.Context, dataSourceID string) (bool, error) {
	prefix := []byte(dataSourceID + ":")
	found := false

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		it.Seek(prefix)
		found = it.ValidForPrefix(prefix)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to check partition for %s: %w", dataSourceID, err)
	}
	return found, nil
}

// Close implements Store.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}
