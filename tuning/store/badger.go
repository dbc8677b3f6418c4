package store

import (
	"encoding/json"
	"path/filepath"

	"github.com/dgraph-io/badger/v4"

	"github.com/baldhumanity/evo-go/evo"
	"github.com/baldhumanity/evo-go/tuning"
)

var resultPrefix = []byte("result/")

func resultKey(id string) []byte {
	return append([]byte(string(resultPrefix)), id...)
}

func newBadgerRepository(cfg Config) (Repository, error) {
	opts := badger.DefaultOptions(filepath.Join(cfg.Path, cfg.Name))
	if cfg.InMem {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts = opts.WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	repo := new(badgerRepository)
	repo.db = db
	return repo, nil
}

// badgerRepository keeps one JSON value per result under "result/<id>".
// ULIDs sort by creation time, so key order is insertion order.
type badgerRepository struct {
	db *badger.DB
}

func (repo *badgerRepository) Store(results ...*tuning.Result) error {
	return repo.db.Update(func(txn *badger.Txn) error {
		for _, r := range results {
			bs, err := json.Marshal(r)
			if err != nil {
				return err
			}
			if err := txn.Set(resultKey(r.ID), bs); err != nil {
				return err
			}
		}
		return nil
	})
}

func (repo *badgerRepository) List(algorithm evo.Algorithm) ([]*tuning.Result, error) {
	results := make([]*tuning.Result, 0)
	err := repo.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(resultPrefix); it.ValidForPrefix(resultPrefix); it.Next() {
			var r *tuning.Result
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &r)
			})
			if err != nil {
				return err
			}
			if algorithm == "" || r.Algorithm == algorithm {
				results = append(results, r)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (repo *badgerRepository) Truncate() error {
	return repo.db.DropPrefix(resultPrefix)
}

func (repo *badgerRepository) Close() error {
	return repo.db.Close()
}
