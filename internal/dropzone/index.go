package dropzone

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
)

// keyPrefix namespaces drop records inside the database so future record
// types can share it without key collisions.
const keyPrefix = "drop/"

// ErrDropNotFound is returned when an id is not in the index.
var ErrDropNotFound = errors.New("drop not found")

// Index persists drop metadata in BadgerDB. Records are small JSON values
// under a common prefix; listings are a single prefix scan.
type Index struct {
	db *badger.DB
}

// OpenIndex opens (or creates) the index database at path.
func OpenIndex(path string) (*Index, error) {
	opts := badger.DefaultOptions(path)
	opts = opts.WithLoggingLevel(badger.WARNING)
	// Drop records are tiny; compression costs more than it saves.
	opts = opts.WithCompression(options.None)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open drop index at %s: %w", path, err)
	}
	return &Index{db: db}, nil
}

// Close releases the database.
func (i *Index) Close() error {
	return i.db.Close()
}

// Put writes or replaces a drop record.
func (i *Index) Put(drop Drop) error {
	value, err := json.Marshal(drop)
	if err != nil {
		return fmt.Errorf("encode drop %s: %w", drop.ID, err)
	}
	return i.db.Update(func(txn *badger.Txn) error {
		return txn.Set(dropKey(drop.ID), value)
	})
}

// Get returns the record for id, or ErrDropNotFound.
func (i *Index) Get(id string) (Drop, error) {
	var drop Drop
	err := i.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(dropKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrDropNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(value []byte) error {
			return json.Unmarshal(value, &drop)
		})
	})
	return drop, err
}

// Delete removes the record for id. Deleting an absent id is not an error.
func (i *Index) Delete(id string) error {
	return i.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(dropKey(id))
	})
}

// List returns every drop, newest first.
func (i *Index) List() ([]Drop, error) {
	var drops []Drop
	err := i.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var drop Drop
			err := it.Item().Value(func(value []byte) error {
				return json.Unmarshal(value, &drop)
			})
			if err != nil {
				return err
			}
			drops = append(drops, drop)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(drops, func(a, b int) bool {
		return drops[a].CreatedAt.After(drops[b].CreatedAt)
	})
	return drops, nil
}

func dropKey(id string) []byte {
	return []byte(keyPrefix + id)
}
