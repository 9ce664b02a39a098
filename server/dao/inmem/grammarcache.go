package inmem

import (
	"context"
	"time"

	"github.com/dekarrin/earley/internal/util"
	"github.com/dekarrin/earley/server/dao"
)

type gcKey struct {
	name    string
	version string
}

func NewGrammarCacheRepository() *InMemoryGrammarCacheRepository {
	return &InMemoryGrammarCacheRepository{
		cache:       make(map[gcKey]dao.GrammarCache),
		byNameIndex: make(map[string][]string),
	}
}

type InMemoryGrammarCacheRepository struct {
	cache map[gcKey]dao.GrammarCache

	// byNameIndex maps a grammar name to the versions registered under it.
	byNameIndex map[string][]string
}

func (imgc *InMemoryGrammarCacheRepository) Close() error {
	return nil
}

func (imgc *InMemoryGrammarCacheRepository) Create(ctx context.Context, g dao.GrammarCache) (dao.GrammarCache, error) {
	key := gcKey{name: g.Name, version: g.Version}

	if _, ok := imgc.cache[key]; ok {
		return dao.GrammarCache{}, dao.ErrConstraintViolation
	}

	g.Created = time.Now()

	imgc.cache[key] = g
	imgc.byNameIndex[g.Name] = append(imgc.byNameIndex[g.Name], g.Version)

	return g, nil
}

func (imgc *InMemoryGrammarCacheRepository) GetByNameVersion(ctx context.Context, name, version string) (dao.GrammarCache, error) {
	g, ok := imgc.cache[gcKey{name: name, version: version}]
	if !ok {
		return dao.GrammarCache{}, dao.ErrNotFound
	}

	return g, nil
}

func (imgc *InMemoryGrammarCacheRepository) GetAllByName(ctx context.Context, name string) ([]dao.GrammarCache, error) {
	versions := imgc.byNameIndex[name]
	if len(versions) < 1 {
		return nil, dao.ErrNotFound
	}

	all := make([]dao.GrammarCache, len(versions))
	for i := range versions {
		all[i] = imgc.cache[gcKey{name: name, version: versions[i]}]
	}

	all = util.SortBy(all, func(l, r dao.GrammarCache) bool {
		return l.Version < r.Version
	})

	return all, nil
}

func (imgc *InMemoryGrammarCacheRepository) GetAll(ctx context.Context) ([]dao.GrammarCache, error) {
	all := make([]dao.GrammarCache, 0, len(imgc.cache))

	for k := range imgc.cache {
		all = append(all, imgc.cache[k])
	}

	all = util.SortBy(all, func(l, r dao.GrammarCache) bool {
		if l.Name != r.Name {
			return l.Name < r.Name
		}
		return l.Version < r.Version
	})

	return all, nil
}

func (imgc *InMemoryGrammarCacheRepository) Delete(ctx context.Context, name, version string) (dao.GrammarCache, error) {
	key := gcKey{name: name, version: version}

	g, ok := imgc.cache[key]
	if !ok {
		return dao.GrammarCache{}, dao.ErrNotFound
	}

	delete(imgc.cache, key)

	versions := imgc.byNameIndex[name]
	updated := util.SliceRemove(version, versions)
	if len(updated) < 1 {
		delete(imgc.byNameIndex, name)
	} else {
		imgc.byNameIndex[name] = updated
	}

	return g, nil
}
