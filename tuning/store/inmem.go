package store

import (
	"cmp"
	"maps"
	"slices"
	"sync"

	"github.com/baldhumanity/evo-go/evo"
	"github.com/baldhumanity/evo-go/tuning"
)

func newInMemRepository() Repository {
	return &inmemRepository{
		results: make(map[string]*tuning.Result),
	}
}

type inmemRepository struct {
	results map[string]*tuning.Result
	sync.RWMutex
}

func (repo *inmemRepository) Store(results ...*tuning.Result) error {
	repo.Lock()
	defer repo.Unlock()

	for _, r := range results {
		repo.results[r.ID] = r
	}
	return nil
}

func (repo *inmemRepository) List(algorithm evo.Algorithm) ([]*tuning.Result, error) {
	repo.RLock()
	defer repo.RUnlock()

	results := make([]*tuning.Result, 0, len(repo.results))
	for r := range maps.Values(repo.results) {
		if algorithm == "" || r.Algorithm == algorithm {
			results = append(results, r)
		}
	}
	slices.SortFunc(results, func(a, b *tuning.Result) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return results, nil
}

func (repo *inmemRepository) Truncate() error {
	repo.Lock()
	defer repo.Unlock()

	clear(repo.results)
	return nil
}

func (repo *inmemRepository) Close() error {
	return nil
}
